package extract

import (
	"strconv"
	"strings"
)

// Backfill guarantees every canonical key is present and non-empty,
// substituting the configured default for a key that is absent or blank.
// The rating value is coerced to an integer; anything non-numeric becomes
// "0" instead of failing the operation. Backfill is idempotent: running it
// on its own output is a no-op.
func Backfill(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields)+len(fieldDefaults))
	for key, value := range fields {
		out[key] = value
	}
	for _, key := range CanonicalKeys {
		if strings.TrimSpace(out[key]) == "" {
			out[key] = fieldDefaults[key]
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(out[KeyRating])); err == nil {
		out[KeyRating] = strconv.Itoa(n)
	} else {
		out[KeyRating] = "0"
	}
	return out
}
