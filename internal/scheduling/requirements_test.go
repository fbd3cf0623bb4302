package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredBlocks(t *testing.T) {
	cases := []struct {
		name             string
		theory, practice int
		minutes          int
		wantT, wantP     int
	}{
		{name: "zero hours", theory: 0, practice: 0, minutes: 45, wantT: 0, wantP: 0},
		{name: "zero hours other duration", theory: 0, practice: 0, minutes: 60, wantT: 0, wantP: 0},
		{name: "exact division", theory: 3, practice: 0, minutes: 45, wantT: 4, wantP: 0},
		{name: "rounds up", theory: 2, practice: 1, minutes: 45, wantT: 3, wantP: 2},
		{name: "hour blocks", theory: 2, practice: 2, minutes: 60, wantT: 2, wantP: 2},
		{name: "default duration", theory: 3, practice: 0, minutes: 0, wantT: 4, wantP: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotT, gotP := RequiredBlocks(tc.theory, tc.practice, tc.minutes)
			assert.Equal(t, tc.wantT, gotT)
			assert.Equal(t, tc.wantP, gotP)
		})
	}
}

func TestHoursEquivalent(t *testing.T) {
	assert.InDelta(t, 4.0, HoursEquivalent(4, 45), 1e-9)
	assert.InDelta(t, 8.0, HoursEquivalent(6, 60), 1e-9)
}
