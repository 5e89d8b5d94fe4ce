package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seoul = time.FixedZone("KST", 9*60*60)

// A fixed clock: 2026-03-15 14:30 KST
var now = time.Date(2026, 3, 15, 14, 30, 0, 0, seoul)

func TestParseDateTextRelative(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
	}{
		{"오늘", now},
		{"방금 전", now},
		{"Today", now},
		{"어제", now.AddDate(0, 0, -1)},
		{"yesterday", now.AddDate(0, 0, -1)},
		{"3일 전", now.AddDate(0, 0, -3)},
		{"3 일 전", now.AddDate(0, 0, -3)},
		{"5 days ago", now.AddDate(0, 0, -5)},
		{"1 day ago", now.AddDate(0, 0, -1)},
		{"2시간 전", now.Add(-2 * time.Hour)},
		{"15분 전", now.Add(-15 * time.Minute)},
		{"３일 전", now.AddDate(0, 0, -3)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDateText(tt.text, now)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseDateTextAbsolute(t *testing.T) {
	got, ok := ParseDateText("2024.3.10.", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, seoul), got)

	got, ok = ParseDateText("  2026. 3. 9. 21:05  ", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 9, 21, 5, 0, 0, seoul), got)

	got, ok = ParseDateText("작성일 2025.12.31. 공감", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, seoul), got)
}

func TestParseDateTextRejects(t *testing.T) {
	for _, text := range []string{"", "   ", "no date here", "2024.2.30.", "2024.13.1.", "v2.3.1"} {
		_, ok := ParseDateText(text, now)
		assert.False(t, ok, text)
	}
}

func TestParseDateTextRelativeMustBeWholeLabel(t *testing.T) {
	for _, text := range []string{
		"오늘 점심은 김치찌개",
		"어제 다녀온 카페 후기",
		"이웃 120 Today 152 Total 30,211",
		"3일 전에 산 운동화",
		"today's pick",
		"방금 전 이야기는 잊어주세요",
	} {
		_, ok := ParseDateText(text, now)
		assert.False(t, ok, text)
	}

	got, ok := ParseDateText("어제 21:05", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 14, 21, 5, 0, 0, seoul), got)
}

func TestParseAbsoluteDate(t *testing.T) {
	got, ok := ParseAbsoluteDate("작성일 2025.12.31. 공감", seoul)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, seoul), got)

	for _, text := range []string{"오늘", "어제", "3일 전", "5 days ago", "Today 152", "2024.2.30."} {
		_, ok := ParseAbsoluteDate(text, seoul)
		assert.False(t, ok, text)
	}
}

func TestIsEligible(t *testing.T) {
	assert.True(t, IsEligible(now, now, 7))
	assert.True(t, IsEligible(now.AddDate(0, 0, -6), now, 7))
	assert.True(t, IsEligible(now.AddDate(0, 0, -7), now, 7), "the boundary day is included")
	assert.False(t, IsEligible(now.AddDate(0, 0, -8), now, 7))

	// Calendar days, not elapsed hours: a post late on the boundary day still counts
	boundary := time.Date(2026, 3, 8, 0, 5, 0, 0, seoul)
	assert.True(t, IsEligible(boundary, now, 7))
	assert.False(t, IsEligible(boundary.Add(-10*time.Minute), now, 7))

	// Compared in now's zone
	utc := time.Date(2026, 3, 7, 15, 30, 0, 0, time.UTC) // 2026-03-08 00:30 KST
	assert.True(t, IsEligible(utc, now, 7))
}
