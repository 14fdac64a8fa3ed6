package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartTime(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	testCases := []struct {
		name      string
		raw       string
		loc       *time.Location
		expected  time.Time
		expectErr bool
	}{
		{
			name:     "RFC3339 UTC",
			raw:      "2025-01-01T10:00:00Z",
			expected: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "RFC3339 offset ignores location",
			raw:      "2025-01-01T10:00:00+02:00",
			loc:      toronto,
			expected: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "datetime-local in building timezone",
			raw:      "2025-01-01T10:00",
			loc:      toronto,
			expected: time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "datetime-local without location is UTC",
			raw:      "2025-03-09T22:30",
			expected: time.Date(2025, 3, 9, 22, 30, 0, 0, time.UTC),
		},
		{
			name:     "space separated with seconds",
			raw:      " 2025-06-01 08:15:30 ",
			expected: time.Date(2025, 6, 1, 8, 15, 30, 0, time.UTC),
		},
		{
			name:      "empty",
			raw:       "   ",
			expectErr: true,
		},
		{
			name:      "garbage",
			raw:       "next tuesday",
			expectErr: true,
		},
		{
			name:      "date only",
			raw:       "2025-01-01",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := StartTime(tc.raw, tc.loc)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, tc.expected.Equal(parsed), "expected %s, got %s", tc.expected, parsed)
			}
		})
	}
}
