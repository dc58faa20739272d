package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseLines splits a block of text into lines and each line on its first
// colon, yielding trimmed key/value pairs. Lines without a colon are dropped.
// Keys are lower-cased and stripped of leading list decoration. Later
// duplicates overwrite earlier ones.
func ParseLines(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimLeft(strings.TrimSpace(key), "-*• \t")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// ParseResponse maps a model reply to key/value pairs. Replies arrive either
// as a JSON object (often inside a markdown code fence) or as free text with
// colon-delimited lines; both shapes are supported.
func ParseResponse(text string) map[string]string {
	cleaned := stripCodeFences(text)
	if fields, ok := parseJSONObject(cleaned); ok {
		return fields
	}
	return ParseLines(cleaned)
}

func stripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseJSONObject(text string) (map[string]string, bool) {
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = stringifyJSONValue(value)
	}
	return out, true
}

func stringifyJSONValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
