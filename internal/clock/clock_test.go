package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/songwenshuai/go-osal/internal/critical"
)

func TestUpdateAccumulatesSeconds(t *testing.T) {
	c := New(&critical.Guard{})

	c.Update(999)
	assert.EqualValues(t, 0, c.GetClock())

	c.Update(1)
	assert.EqualValues(t, 1, c.GetClock())
	assert.EqualValues(t, 1000, c.SystemMS())
}

func TestSetAndGetClock(t *testing.T) {
	c := New(&critical.Guard{})
	c.SetClock(12345)
	assert.EqualValues(t, 12345, c.GetClock())
}

func TestConvertUTCToStructEpoch(t *testing.T) {
	tm := ConvertUTCToStruct(0)
	assert.Equal(t, UTCStruct{Year: 2000, Month: 0, Day: 0, Hour: 0, Minute: 0, Second: 0}, tm)
}

func TestConvertUTCToStructOneDay(t *testing.T) {
	tm := ConvertUTCToStruct(86400)
	assert.EqualValues(t, 2000, tm.Year)
	assert.EqualValues(t, 0, tm.Month)
	assert.EqualValues(t, 1, tm.Day)
}

func TestConvertUTCToStructAfterLeapYear(t *testing.T) {
	// 2000 is a leap year (366 days), so day 366 rolls into 2001-01-01.
	tm := ConvertUTCToStruct(31622400)
	assert.EqualValues(t, 2001, tm.Year)
	assert.EqualValues(t, 0, tm.Month)
	assert.EqualValues(t, 0, tm.Day)
}

func TestConvertRoundTrip(t *testing.T) {
	for _, secs := range []uint32{0, 86400, 31622400, 1_700_000_000 - 946_684_800, 3_100_000_000} {
		tm := ConvertUTCToStruct(secs)
		assert.Equal(t, secs, ConvertStructToUTC(tm))
	}
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, isLeapYear(2000))
	assert.True(t, isLeapYear(2024))
	assert.False(t, isLeapYear(2023))
	assert.False(t, isLeapYear(2100))
}
