package extract

import (
	"strings"
	"time"
)

// SentinelDate marks a date that could not be determined.
const SentinelDate = "1111-11-11"

// Phrases that explicitly mean "no date was given".
var notSpecifiedPhrases = []string{
	"nicht angegeben",
	"not specified",
	"keine angabe",
	"unbekannt",
}

// German month names mapped to their English equivalents. Full names are
// substituted before abbreviations so "dezember" never turns into "december"
// via the "dez" rule first.
var germanMonths = []struct{ de, en string }{
	{"januar", "january"},
	{"februar", "february"},
	{"märz", "march"},
	{"maerz", "march"},
	{"juni", "june"},
	{"juli", "july"},
	{"oktober", "october"},
	{"dezember", "december"},
	{"mai", "may"},
	{"mär", "mar"},
	{"okt", "oct"},
	{"dez", "dec"},
}

// Date layouts tried in priority order.
var dateLayouts = []string{
	"2.1.2006",
	"2006-1-2",
	"2. January 2006",
	"2. Jan 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// NormalizeDate converts a loosely formatted date string (numeric, German
// month names, English month names) into canonical YYYY-MM-DD form. Input
// that is empty, explicitly unspecified, or unparseable yields SentinelDate.
// This function never fails.
func NormalizeDate(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return SentinelDate
	}
	for _, phrase := range notSpecifiedPhrases {
		if s == phrase {
			return SentinelDate
		}
	}
	for _, m := range germanMonths {
		// Skip month names that are already English ("january" contains
		// "januar" and would otherwise be mangled).
		if strings.Contains(s, m.en) {
			continue
		}
		s = strings.ReplaceAll(s, m.de, m.en)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return SentinelDate
}
