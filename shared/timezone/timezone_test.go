package timezone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resort/shared/timezone"
)

func useZone(t *testing.T, name string) {
	t.Helper()

	previous := timezone.GetLocation().String()
	require.NoError(t, timezone.Set(name))

	t.Cleanup(func() {
		_ = timezone.Set(previous)
	})
}

func TestSet(t *testing.T) {
	useZone(t, "Asia/Kolkata")
	assert.Equal(t, "Asia/Kolkata", timezone.GetLocation().String())
	assert.Equal(t, "Asia/Kolkata", timezone.Now().Location().String())

	err := timezone.Set("Mars/Olympus_Mons")
	assert.Error(t, err)
	assert.Equal(t, time.UTC, timezone.GetLocation())
}

func TestParseAndFormat(t *testing.T) {
	useZone(t, "Asia/Kolkata")

	parsed, err := timezone.Parse(time.DateTime, "2024-01-01 09:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 3, 30, 0, 0, time.UTC), parsed.UTC())

	assert.Equal(t, "2024-01-01 17:30", timezone.Format(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), "2006-01-02 15:04"))

	_, err = timezone.Parse(time.DateOnly, "01/01/2024")
	assert.Error(t, err)
}

func TestStartOfDay(t *testing.T) {
	useZone(t, "Asia/Kolkata")

	// 20:00 UTC is already the next day in India.
	start := timezone.StartOfDay(time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, timezone.GetLocation()), start)
	assert.True(t, timezone.Today().Equal(timezone.StartOfDay(timezone.Now())))
}

func TestCalendarDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	date := timezone.CalendarDate(time.Date(2024, 3, 31, 23, 30, 0, 0, jakarta))

	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, 24*time.Hour, timezone.CalendarDate(time.Date(2024, 4, 1, 0, 5, 0, 0, jakarta)).Sub(date))
}
