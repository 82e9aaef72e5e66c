package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	day, err := ParseDate("2025-03-10", loc)
	require.NoError(t, err)
	assert.Equal(t, 2025, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 10, day.Day())
	assert.Equal(t, loc, day.Location())

	_, err = ParseDate("10/03/2025", loc)
	assert.Error(t, err)

	_, err = ParseDate("2025-3-10", loc)
	assert.Error(t, err)
}

func TestParseHour(t *testing.T) {
	mins, err := ParseHour("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, mins)

	mins, err = ParseHour("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, mins)

	mins, err = ParseHour("23:59")
	require.NoError(t, err)
	assert.Equal(t, 1439, mins)

	_, err = ParseHour("25:00")
	assert.Error(t, err)
}

// Stored hours are compared lexicographically in SQL, so the parse must
// force zero padding: "9:30" sorts after "09:00".."09:05" and would be
// invisible to window queries and the unique index.
func TestParseHourRequiresZeroPadding(t *testing.T) {
	for _, hour := range []string{"9:30", "09:3", "9:3", " 09:30", "09:30 "} {
		_, err := ParseHour(hour)
		assert.Error(t, err, "hour %q", hour)
	}
}

func TestMinutesToHourRoundTrip(t *testing.T) {
	for _, hour := range []string{"00:00", "07:05", "12:30", "23:59"} {
		mins, err := ParseHour(hour)
		require.NoError(t, err)
		assert.Equal(t, hour, MinutesToHour(mins))
	}
}

func TestAt(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	day, err := ParseDate("2025-03-10", loc)
	require.NoError(t, err)

	instant := At(day, 510)
	assert.Equal(t, 8, instant.Hour())
	assert.Equal(t, 30, instant.Minute())
	assert.Equal(t, loc, instant.Location())
	assert.Equal(t, "2025-03-10", FormatDate(instant))
	assert.Equal(t, "08:30", FormatHour(instant))
}
