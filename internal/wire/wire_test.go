package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heat_controller/internal/models"
	"heat_controller/internal/packedtime"
)

func sec(packed string) int64 {
	s, err := packedtime.Parse(packed)
	if err != nil {
		panic(err)
	}
	return s
}

func TestParseChunk_Clean(t *testing.T) {
	lines, outcome := ParseChunk(`[[2011101230,215,220,"on"],[2011101231,216,-1000],[2011101232,"st"]]`)
	require.Equal(t, OutcomeClean, outcome)
	require.Equal(t, []models.LogLine{
		{Timestamp: sec("2011101230"), Readings: []int{215, 220}, Event: models.EventOn},
		{Timestamp: sec("2011101231"), Readings: []int{216, -1000}},
		{Timestamp: sec("2011101232"), Event: models.EventBoot},
	}, lines)
}

func TestParseChunk_StrayCommas(t *testing.T) {
	lines, outcome := ParseChunk(`[[2011101230,215,,],[2011101231,216],]`)
	require.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, lines, 2)
	require.Equal(t, []int{215}, lines[0].Readings)
	require.Equal(t, []int{216}, lines[1].Readings)
}

func TestParseChunk_TruncatedMidRow(t *testing.T) {
	lines, outcome := ParseChunk(`[[2011101230,215,"on"],[2011101231,216],[20111012`)
	require.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, lines, 2)
	require.Equal(t, models.EventOn, lines[0].Event)
	require.Equal(t, sec("2011101231"), lines[1].Timestamp)
}

func TestParseChunk_UnclosedOuterArray(t *testing.T) {
	lines, outcome := ParseChunk(`[[2011101230,215],[2011101231,216],`)
	require.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, lines, 2)
}

func TestParseChunk_HarvestsRowsFromGarbage(t *testing.T) {
	text := `xx[[2011101230,215,"off"]}}{garbage[2011101231,216]]]]`
	lines, outcome := ParseChunk(text)
	require.Equal(t, OutcomeHarvested, outcome)
	require.Len(t, lines, 2)
	require.Equal(t, models.EventOff, lines[0].Event)
	require.Equal(t, []int{216}, lines[1].Readings)
}

func TestParseChunk_Unrecoverable(t *testing.T) {
	for _, text := range []string{"", "   ", "not json at all", "{}", `[["x"`} {
		lines, outcome := ParseChunk(text)
		require.Equal(t, OutcomeFailed, outcome, "text=%q", text)
		require.Empty(t, lines)
	}
}

func TestParseChunk_DropsBadRows(t *testing.T) {
	lines, outcome := ParseChunk(`[[2011101230,215],[],[2011101231,"on",5],[2011101232,217]]`)
	require.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, lines, 2)
	require.Equal(t, sec("2011101232"), lines[1].Timestamp)
}

func TestParseChunk_BadStampFallsBackToNow(t *testing.T) {
	before := time.Now().Unix()
	lines, outcome := ParseChunk(`[[2013401230,215]]`)
	require.Equal(t, OutcomeClean, outcome)
	require.Len(t, lines, 1)
	require.GreaterOrEqual(t, lines[0].Timestamp, before)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := []models.LogLine{
		{Timestamp: sec("0304050607"), Readings: []int{215, -1000}, Event: models.EventOn},
		{Timestamp: sec("2011101231")},
		{Timestamp: sec("2011101232"), Event: models.EventBoot},
	}
	data, err := EncodeLines(in)
	require.NoError(t, err)
	require.Equal(t, `[[304050607,215,-1000,"on"],[2011101231],[2011101232,"st"]]`, string(data))

	out, err := DecodeLines(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecodeLines_Strict(t *testing.T) {
	for _, text := range []string{
		`{"a":1}`,
		`[[2011101230,215],]`,
		`[[2011101230,"on",215]]`,
		`[[2011101230,21.5]]`,
		`[[]]`,
		`[[true]]`,
	} {
		_, err := DecodeLines([]byte(text))
		require.Error(t, err, "text=%q", text)
	}
}

func TestDecodeLines_StringStamp(t *testing.T) {
	out, err := DecodeLines([]byte(`[["0001010000",1]]`))
	require.NoError(t, err)
	require.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix(), out[0].Timestamp)
}
