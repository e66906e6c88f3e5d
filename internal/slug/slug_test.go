package slug

import "testing"

// TestGenerate exercises the slug generator with typical titles, special
// characters, accented input, and boundary conditions.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},
		{name: "turkish title with punctuation", input: "Clean Code Prensipleri!", want: "clean-code-prensipleri"},

		// --- Special characters ---
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand and at sign", input: "Rock & Roll @ the Arena", want: "rock-roll-the-arena"},
		{name: "parentheses and brackets", input: "Version (2.0) [Beta]", want: "version-20-beta"},
		{name: "slashes and pipes", input: "Frontend/Backend | Full Stack", want: "frontendbackend-full-stack"},

		// --- Diacritics ---
		{name: "french accents stripped", input: "Café Crème à la carte", want: "cafe-creme-a-la-carte"},
		{name: "german umlauts stripped", input: "Über die Brücke", want: "uber-die-brucke"},
		{name: "turkish cedilla and dotless i", input: "Çalışma Şekli", want: "calisma-sekli"},
		{name: "turkish dotless i", input: "Yazılım Mühendisliği", want: "yazilim-muhendisligi"},
		{name: "turkish capital dotted i", input: "Kırmızı Işık İstanbul", want: "kirmizi-isik-istanbul"},
		{name: "german sharp s", input: "Straße", want: "strasse"},
		{name: "nordic and slavic letters", input: "Smørrebrød Łódź Đakovo", want: "smorrebrod-lodz-dakovo"},
		{name: "ligatures", input: "Æsir Œuvre", want: "aesir-oeuvre"},
		{name: "non latin script dropped", input: "日本語 Title", want: "title"},

		// --- Whitespace handling ---
		{name: "leading and trailing spaces", input: "  hello world  ", want: "hello-world"},
		{name: "multiple consecutive spaces collapsed", input: "hello    world", want: "hello-world"},
		{name: "tabs become hyphens", input: "hello\tworld", want: "hello-world"},
		{name: "newlines become hyphens", input: "hello\nworld", want: "hello-world"},

		// --- Hyphen handling ---
		{name: "leading hyphens", input: "---hello world", want: "hello-world"},
		{name: "multiple hyphens between words", input: "hello---world", want: "hello-world"},
		{name: "single hyphen preserved", input: "well-known fact", want: "well-known-fact"},
		{name: "hyphens and spaces mixed", input: "  --hello -- world--  ", want: "hello-world"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "     ", want: ""},
		{name: "only special characters", input: "!@#$%^&*()", want: ""},
		{name: "date-like string", input: "2026-02-25", want: "2026-02-25"},
		{name: "version number", input: "Version 2.0.1", want: "version-201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies slugify(slugify(x)) == slugify(x).
func TestGenerate_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello World",
		"Clean Code Prensipleri!",
		"  --hello -- world--  ",
		"Café Crème",
		"Yazılım Mühendisliği",
		"Straße Æsir",
		"my-blog-post-2026",
		"",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Generate(in)
			twice := Generate(once)
			if once != twice {
				t.Errorf("Generate not idempotent for %q: %q then %q", in, once, twice)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello-world", true},
		{"a", true},
		{"", false},
		{"Hello-World", false},
		{"-hello", false},
		{"hello--world", false},
		{"hello world", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithSuffix(t *testing.T) {
	if got := WithSuffix("hello", 1); got != "hello" {
		t.Errorf("WithSuffix(hello, 1) = %q, want %q", got, "hello")
	}
	if got := WithSuffix("hello", 3); got != "hello-3" {
		t.Errorf("WithSuffix(hello, 3) = %q, want %q", got, "hello-3")
	}
}
