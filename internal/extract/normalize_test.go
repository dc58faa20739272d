package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColonReply(t *testing.T) {
	reply := `Ort: Berlin
Gerätename: Kältepumpe X200
Datum: 3. März 2024
Beschreibung: Filter getauscht, Dichtung geprüft
Kältepump: 4`

	got := Normalize(reply)

	assert.Equal(t, "Berlin", got[KeyLocation])
	assert.Equal(t, "Kältepumpe X200", got[KeyDevice])
	assert.Equal(t, "2024-03-03", got[KeyDate])
	assert.Equal(t, "Filter getauscht, Dichtung geprüft", got[KeyDetails])
	assert.Equal(t, "4", got[KeyRating])
}

func TestNormalizeJSONReply(t *testing.T) {
	reply := "```json\n{\"Location\": \"Hamburg\", \"Device\": \"CP-9\", \"Date\": \"2024-05-01\", \"Rating\": 3}\n```"

	got := Normalize(reply)

	assert.Equal(t, "Hamburg", got[KeyLocation])
	assert.Equal(t, "CP-9", got[KeyDevice])
	assert.Equal(t, "2024-05-01", got[KeyDate])
	assert.Equal(t, "Not provided", got[KeyDetails])
	assert.Equal(t, "3", got[KeyRating])
}

func TestNormalizeGarbageYieldsDefaults(t *testing.T) {
	got := Normalize("the model refused to answer in any structured way")

	assert.Equal(t, Backfill(nil), got)
}

func TestNormalizeUnknownDateBecomesSentinel(t *testing.T) {
	got := Normalize("Datum: irgendwann im Sommer")
	assert.Equal(t, SentinelDate, got[KeyDate])
}

func TestNormalizeKeepsUnrecognizedKeys(t *testing.T) {
	got := Normalize("Techniker: M. Weber\nOrt: Berlin")
	assert.Equal(t, "M. Weber", got["techniker"])
	assert.Equal(t, "Berlin", got[KeyLocation])
}
