package services

import "testing"

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"гр. София", "София"},
		{"гр.Пловдив", "Пловдив"},
		{"град Варна", "Варна"},
		{"с. Лозен", "Лозен"},
		{"село Бистрица", "Бистрица"},
		{"к.к. Слънчев бряг", "Слънчев бряг"},
		{"София, ж.к. Младост", "София"},
		{"Бургас (община)", "Бургас"},
		{"  Русе  ", "Русе"},
		{"Градина", "Градина"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeCity(tt.raw); got != tt.want {
			t.Errorf("NormalizeCity(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCityKeyCaseFolds(t *testing.T) {
	if a, b := CityKey("гр. СОФИЯ"), CityKey("София"); a != b {
		t.Errorf("CityKey mismatch: %q vs %q", a, b)
	}
}

func TestExtractNeighborhood(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"гр. София, ж.к. Младост 1, бл. 25", "Младост 1"},
		{"кв. Лозенец, ул. Крум Попов 12", "Лозенец"},
		{"двустаен, 85 кв.м, жк Надежда", "Надежда"},
		{"квартал Кършияка", "Кършияка"},
		{"Районен съд - Варна", ""},
		{"София", ""},
	}

	for _, tt := range tests {
		if got := ExtractNeighborhood(tt.text); got != tt.want {
			t.Errorf("ExtractNeighborhood(%q) = %q; want %q", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeNeighborhood(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"ж.к. Младост 1", "младост 1"},
		{"Mladost 2", "младост 2"},
		{"Lozenets", "лозенец"},
		{"\"Изгрев\"", "изгрев"},
		{"кв. Център", "център"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeNeighborhood(tt.raw); got != tt.want {
			t.Errorf("NormalizeNeighborhood(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNeighborhoodSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Младост", "Младост", 1.0},
		{"жк Младост", "Младост", 1.0},
		{"Mladost", "Младост", 0.9},
		{"Младост 1", "Младост", 0.8},
		{"Лозенец", "Люлин", 0},
		{"", "Младост", 0},
	}

	for _, tt := range tests {
		if got := NeighborhoodSimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("NeighborhoodSimilarity(%q, %q) = %v; want %v", tt.a, tt.b, got, tt.want)
		}
	}

	// subsequence-only matches stay below the containment tier
	got := NeighborhoodSimilarity("Дрба", "Дружба")
	if got <= 0 || got > 0.5 {
		t.Errorf("NeighborhoodSimilarity(Дрба, Дружба) = %v; want in (0, 0.5]", got)
	}
}
