package extract

import "strings"

// Alias rules evaluated in fixed order. Matching is substring based, so a
// raw key may satisfy several rules; the last matching rule wins.
var aliasRules = []struct {
	synonyms  []string
	canonical string
}{
	{[]string{"ort", "standort", "location", "place", "site"}, KeyLocation},
	{[]string{"gerät", "geraet", "device", "anlage", "maschine", "equipment"}, KeyDevice},
	{[]string{"datum", "date"}, KeyDate},
	{[]string{"beschreibung", "details", "description", "bemerkung", "anmerkung", "notes"}, KeyDetails},
	{[]string{"kältepump", "kaltepump", "pumpe", "bewertung", "rating"}, KeyRating},
}

// CanonicalKey maps a raw parsed key onto a canonical key when it matches a
// known synonym group (case-insensitive substring match). Unrecognized keys
// are returned unchanged apart from trimming and lower-casing.
func CanonicalKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	canonical := key
	for _, rule := range aliasRules {
		for _, synonym := range rule.synonyms {
			if strings.Contains(key, synonym) {
				canonical = rule.canonical
				break
			}
		}
	}
	return canonical
}

// AliasKeys rewrites every key of the mapping through CanonicalKey.
// Collisions on a canonical key resolve by overwrite.
func AliasKeys(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[CanonicalKey(key)] = value
	}
	return out
}
