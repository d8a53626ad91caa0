package language

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Spanish", "Spanish"},
		{"spanish", "Spanish"},
		{" Español ", "Spanish"},
		{"es", "Spanish"},
		{"spa", "Spanish"},
		{"pt-BR", "Portuguese"},
		{"French.", "French"},
		{"**German**", "German"},
		{"zh", "Chinese"},
		{"Mandarin", "Chinese"},
		{"sw", "Swahili"},
		{"", Unknown},
		{"unknown", Unknown},
		{"klingon", "Klingon"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.expected {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"English", "en"},
		{"eng", "en"},
		{"fra", "fr"},
		{"Japanese", "ja"},
		{"pt-BR", "pt"},
		{"Unknown", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSame(t *testing.T) {
	if !Same("English", "en") {
		t.Fatal("expected English and en to match")
	}
	if !Same("spanish", "Español") {
		t.Fatal("expected spanish spellings to match")
	}
	if Same("English", "Spanish") {
		t.Fatal("expected different languages not to match")
	}
	if Same("Unknown", "unknown") {
		t.Fatal("unknown must never match")
	}
}

func TestFileToken(t *testing.T) {
	tests := map[string]string{
		"English":              "english",
		"Brazilian Portuguese": "brazilian_portuguese",
		" ../French ":          "french",
		"":                     "unknown",
	}
	for input, expected := range tests {
		if got := FileToken(input); got != expected {
			t.Errorf("FileToken(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"The language is Spanish.", "Spanish", true},
		{"It is Brazilian Portuguese", "Portuguese", true},
		{"it is unclear", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Find(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Find(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
