package extract

// Normalize runs the full pipeline on a raw model reply: parse key/value
// pairs, fold synonym keys onto the canonical set, backfill defaults, and
// canonicalize the inspection date. The result always contains every
// canonical key with a non-empty value; unrecognized keys survive untouched.
func Normalize(text string) map[string]string {
	fields := Backfill(AliasKeys(ParseResponse(text)))
	fields[KeyDate] = NormalizeDate(fields[KeyDate])
	return fields
}
