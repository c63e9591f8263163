package normalize

import "strings"

// KeySep joins the parts of a composite key.
const KeySep = "|"

// EventKey builds the composite key for an event. The raw date string
// is used as-is (not parsed) so formatting drift between runs cannot
// split one event across two keys within a single run.
func EventKey(promotion, eventName, rawDate string) string {
	return Name(promotion) + KeySep + Name(eventName) + KeySep + strings.TrimSpace(rawDate)
}

// FighterKey builds the composite key for a fighter from its name
// parts. A key with both parts empty is invalid; callers must check
// ValidFighterKey before inserting it into an index or mapping.
func FighterKey(firstName, lastName string) string {
	return Name(firstName) + KeySep + Name(lastName)
}

// ValidFighterKey reports whether k identifies at least one name part.
func ValidFighterKey(k string) bool {
	return k != "" && k != KeySep
}

// FightKey builds the composite key for a fight from two fighter keys
// and the event day (YYYY-MM-DD). Callers index a target fight under
// both fighter orderings so the legacy record's order need not match
// the stored order.
func FightKey(fighter1Key, fighter2Key, day string) string {
	return fighter1Key + KeySep + fighter2Key + KeySep + day
}

// RelaxedFightKey builds the fallback key used when the exact fight key
// misses: last names plus day only. This recovers matches where first
// names differ by abbreviation or transliteration.
func RelaxedFightKey(lastName1, lastName2, day string) string {
	return Name(lastName1) + KeySep + Name(lastName2) + KeySep + day
}
