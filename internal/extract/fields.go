// Package extract turns noisy model output into a field/value mapping with
// a guaranteed canonical key set. Everything in here is a pure function on
// strings so the heuristics can be evaluated independently of the transport
// layer.
package extract

// Canonical field keys every normalized mapping is guaranteed to contain.
const (
	KeyLocation = "inspection location"
	KeyDevice   = "device name"
	KeyDate     = "inspection date"
	KeyDetails  = "inspection details"
	KeyRating   = "kältepump"
)

// CanonicalKeys lists the canonical keys in a fixed order.
var CanonicalKeys = []string{KeyLocation, KeyDevice, KeyDate, KeyDetails, KeyRating}

var fieldDefaults = map[string]string{
	KeyLocation: "Unknown",
	KeyDevice:   "Unknown",
	KeyDate:     SentinelDate,
	KeyDetails:  "Not provided",
	KeyRating:   "0",
}

// Defaults returns a fresh copy of the canonical-key default table.
func Defaults() map[string]string {
	out := make(map[string]string, len(fieldDefaults))
	for k, v := range fieldDefaults {
		out[k] = v
	}
	return out
}
