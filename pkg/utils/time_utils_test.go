package utils

import (
	"testing"
	"time"
)

func TestIsIdleSince(t *testing.T) {
	now := time.Date(2024, 10, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastSeen    time.Time
		timeout     time.Duration
		expected    bool
		description string
	}{
		{
			name:        "Recently active",
			lastSeen:    now.Add(-1 * time.Minute),
			timeout:     30 * time.Minute,
			expected:    false,
			description: "Session seen a minute ago should not be idle",
		},
		{
			name:        "Idle past timeout",
			lastSeen:    now.Add(-31 * time.Minute),
			timeout:     30 * time.Minute,
			expected:    true,
			description: "Session seen 31 minutes ago should be idle",
		},
		{
			name:        "Zero timeout",
			lastSeen:    now.Add(-24 * time.Hour),
			timeout:     0,
			expected:    false,
			description: "Zero timeout means sessions never expire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsIdleSince(tt.lastSeen, tt.timeout, now)
			if result != tt.expected {
				t.Errorf("IsIdleSince(%v, %v) = %v, want %v - %s", tt.lastSeen, tt.timeout, result, tt.expected, tt.description)
			}
		})
	}
}

func TestGetCurrentTimeMillis(t *testing.T) {
	now := GetCurrentTimeMillis()

	// Should be a reasonable timestamp (after 2020 and before 2100)
	minTime := int64(1577836800000) // 2020-01-01 in milliseconds
	maxTime := int64(4102444800000) // 2100-01-01 in milliseconds

	if now < minTime || now > maxTime {
		t.Errorf("GetCurrentTimeMillis() = %d, expected between %d and %d", now, minTime, maxTime)
	}
}

func TestTimeToMillis(t *testing.T) {
	testTime := time.Date(2024, 10, 24, 0, 0, 0, 0, time.UTC)
	result := TimeToMillis(testTime)

	expected := int64(1729728000000)
	if result != expected {
		t.Errorf("TimeToMillis(%v) = %d, want %d", testTime, result, expected)
	}
}
