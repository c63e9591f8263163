package normalize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain lowercase", "jon jones", "jon jones"},
		{"uppercase folded", "Jon JONES", "jon jones"},
		{"diacritics stripped", "José Aldo", "jose aldo"},
		{"cyrillic-ish accents", "Petr Yań", "petr yan"},
		{"apostrophe dropped without break", "O'Brien", "obrien"},
		{"hyphen dropped without break", "Kai Kara-France", "kai karafrance"},
		{"internal whitespace collapsed", "  Nick   Diaz  ", "nick diaz"},
		{"tabs and newlines", "Nick\t\nDiaz", "nick diaz"},
		{"digits kept", "Fighter 2", "fighter 2"},
		{"punctuation only", "---'''...", ""},
		{"empty", "", ""},
		{"quotes in nickname", `Dustin "The Diamond" Poirier`, "dustin the diamond poirier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.raw); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{"José Aldo", "O'Brien", "  Nick   Diaz ", "Kai Kara-France", ""}
	for _, raw := range inputs {
		once := Name(raw)
		twice := Name(once)
		if once != twice {
			t.Errorf("Name not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestNameInvalidUTF8(t *testing.T) {
	// Must degrade, not panic or error.
	got := Name("jos\xffe")
	if got != "jose" {
		t.Errorf("Name with invalid UTF-8 = %q, want %q", got, "jose")
	}
}

func TestEventKey(t *testing.T) {
	tests := []struct {
		name      string
		promotion string
		event     string
		rawDate   string
		want      string
	}{
		{"basic", "UFC", "UFC 300", "2024-04-13", "ufc|ufc 300|2024-04-13"},
		{"date kept verbatim", "UFC", "UFC 300", " 04/13/2024 ", "ufc|ufc 300|04/13/2024"},
		{"promotion folded", "Bellator MMA", "Bellator 290", "2023-02-04", "bellator mma|bellator 290|2023-02-04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EventKey(tt.promotion, tt.event, tt.rawDate); got != tt.want {
				t.Errorf("EventKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFighterKey(t *testing.T) {
	if got := FighterKey("José", "Aldo"); got != "jose|aldo" {
		t.Errorf("FighterKey() = %q, want %q", got, "jose|aldo")
	}
	// Same fighter through different raw spellings.
	if FighterKey("JOSE", "ALDO") != FighterKey("José", "Aldo") {
		t.Error("FighterKey should fold case and accents to the same key")
	}
}

func TestValidFighterKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"jose|aldo", true},
		{"jose|", true},
		{"|aldo", true},
		{"|", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidFighterKey(tt.key); got != tt.want {
			t.Errorf("ValidFighterKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestFightKey(t *testing.T) {
	k1 := FighterKey("Jon", "Jones")
	k2 := FighterKey("Stipe", "Miocic")

	got := FightKey(k1, k2, "2024-11-16")
	want := "jon|jones|stipe|miocic|2024-11-16"
	if got != want {
		t.Errorf("FightKey() = %q, want %q", got, want)
	}

	// Orderings produce distinct keys; callers index both.
	if FightKey(k1, k2, "2024-11-16") == FightKey(k2, k1, "2024-11-16") {
		t.Error("FightKey should be order-sensitive")
	}
}

func TestRelaxedFightKey(t *testing.T) {
	got := RelaxedFightKey("Jones", "Miocic", "2024-11-16")
	if got != "jones|miocic|2024-11-16" {
		t.Errorf("RelaxedFightKey() = %q, want %q", got, "jones|miocic|2024-11-16")
	}

	// First-name drift must not affect the relaxed key.
	if RelaxedFightKey("St-Pierre", "Penn", "2009-01-31") != RelaxedFightKey("ST PIERRE", "PENN", "2009-01-31") {
		t.Error("RelaxedFightKey should normalize last names")
	}
}
