package caldate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	d, err := Parse("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year)
	assert.Equal(t, time.January, d.Month)
	assert.Equal(t, 31, d.Day)
	assert.Equal(t, "2026-01-31", d.String())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("31/01/2026")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestAddDays_MonthRollover(t *testing.T) {
	d := New(2026, time.January, 31)
	assert.Equal(t, "2026-02-01", d.AddDays(1).String())
	assert.Equal(t, "2026-01-30", d.AddDays(-1).String())
}

func TestAddDays_LeapYear(t *testing.T) {
	d := New(2028, time.February, 28)
	assert.Equal(t, "2028-02-29", d.AddDays(1).String())

	d = New(2026, time.February, 28)
	assert.Equal(t, "2026-03-01", d.AddDays(1).String())
}

func TestCompare(t *testing.T) {
	a := New(2026, time.January, 15)
	b := New(2026, time.January, 16)

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(a))
}

func TestCompare_AcrossYears(t *testing.T) {
	dec := New(2025, time.December, 31)
	jan := New(2026, time.January, 1)
	assert.True(t, dec.Before(jan))
}

func TestMondayOfWeek(t *testing.T) {
	// 2026-01-14 is a Wednesday.
	wed := New(2026, time.January, 14)
	assert.Equal(t, "2026-01-12", wed.MondayOfWeek().String())

	mon := New(2026, time.January, 12)
	assert.Equal(t, "2026-01-12", mon.MondayOfWeek().String())

	sun := New(2026, time.January, 18)
	assert.Equal(t, "2026-01-12", sun.MondayOfWeek().String())
}

func TestSundayOnOrBefore(t *testing.T) {
	// 2026-01-04 is a Sunday.
	sun := New(2026, time.January, 4)
	assert.Equal(t, "2026-01-04", sun.SundayOnOrBefore().String())

	sat := New(2026, time.January, 10)
	assert.Equal(t, "2026-01-04", sat.SundayOnOrBefore().String())

	mon := New(2026, time.January, 5)
	assert.Equal(t, "2026-01-04", mon.SundayOnOrBefore().String())
}

func TestScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-09", d.String())

	require.NoError(t, d.Scan("2026-03-10"))
	assert.Equal(t, "2026-03-10", d.String())

	require.NoError(t, d.Scan([]byte("2026-03-11")))
	assert.Equal(t, "2026-03-11", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestJSONRoundTrip(t *testing.T) {
	d := New(2026, time.June, 7)
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2026-06-07"`, string(data))

	var back Date
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, d.Equal(back))

	require.NoError(t, back.UnmarshalJSON([]byte("null")))
	assert.True(t, back.IsZero())
}
