package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		in      string
		max     int
		want    int
		wantErr bool
	}{
		{"1y", 5, 1, false},
		{"5y", 5, 5, false},
		{" 3Y ", 5, 3, false},
		{"6y", 5, 0, true},
		{"10y", 30, 10, false},
		{"0y", 5, 0, true},
		{"y", 5, 0, true},
		{"3", 5, 0, true},
		{"3 years", 5, 0, true},
		{"", 5, 0, true},
		{"-1y", 5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateRange(tt.in, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateRangeMessage(t *testing.T) {
	_, err := ParseDateRange("abc", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid dateRange format")
}

func TestParseYear(t *testing.T) {
	y, err := ParseYear("year", "2024")
	require.NoError(t, err)
	require.NotNil(t, y)
	assert.Equal(t, 2024, *y)

	y, err = ParseYear("year", "all")
	require.NoError(t, err)
	assert.Nil(t, y)

	y, err = ParseYear("year", "")
	require.NoError(t, err)
	assert.Nil(t, y)

	_, err = ParseYear("year", "twenty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid year")

	_, err = ParseYear("year", "1850")
	require.Error(t, err)
}

func TestParseBedrooms(t *testing.T) {
	n, err := ParseBedrooms("2")
	require.NoError(t, err)
	assert.Equal(t, 2, *n)

	n, err = ParseBedrooms("0")
	require.NoError(t, err)
	assert.Equal(t, 0, *n)

	n, err = ParseBedrooms("All")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = ParseBedrooms("two")
	require.Error(t, err)
	_, err = ParseBedrooms("-1")
	require.Error(t, err)
}

func TestParseRoomCount(t *testing.T) {
	n, err := ParseRoomCount("room_num", "2 B/R")
	require.NoError(t, err)
	assert.Equal(t, 2, *n)

	n, err = ParseRoomCount("room_num", "")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = ParseRoomCount("room_num", "Studio")
	require.Error(t, err)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, Yearly, g)

	g, err = ParseGranularity("Quarterly")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, g)

	_, err = ParseGranularity("weekly")
	require.Error(t, err)
}

func TestNormalizeAreaName(t *testing.T) {
	assert.Equal(t, "Business Bay", NormalizeAreaName("Business-Bay"))
	assert.Equal(t, "Dubai Marina", NormalizeAreaName("  Dubai   Marina "))
	assert.Equal(t, "", NormalizeAreaName("---"))
}

func TestMonthStart(t *testing.T) {
	in := time.Date(2024, 3, 17, 22, 5, 0, 0, time.FixedZone("GST", 4*3600))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(in))
}
