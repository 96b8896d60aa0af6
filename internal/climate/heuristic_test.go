package climate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoOffset(t *testing.T) {
	tests := []struct {
		name   string
		room   float64
		target float64
		want   float64
	}{
		{"room far above target", 24, 20, 2},
		{"delta exactly +2", 22, 20, 2},
		{"delta just below +2", 21.5, 20, 0},
		{"small positive delta", 21, 20, 0},
		{"equal", 20, 20, 0},
		{"delta just above -2", 20.5, 22, 0},
		{"delta exactly -2", 20, 22, -2},
		{"room far below target", 15, 25, -2},
		{"sentinel target", 24, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AutoOffset(tt.room, tt.target))
		})
	}
}

func TestAutoOffsetIsBounded(t *testing.T) {
	for room := -10.0; room <= 40; room += 0.5 {
		for target := 0.0; target <= 32; target += 0.5 {
			got := AutoOffset(room, target)
			assert.Contains(t, []float64{-2, 0, 2}, got, "room=%v target=%v", room, target)
		}
	}
}

func TestModeTemperature(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		room   float64
		target float64
		want   float64
	}{
		{"auto uses offset", ModeAuto, 24, 20, 2},
		{"cool from auto sentinel", ModeCool, 24, 0, 27},
		{"warm keeps target", ModeWarm, 18, 24, 24},
		{"dry keeps small target", ModeDry, 18, 5, 5},
		{"cool keeps half degree", ModeCool, 30, 26.5, 26.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModeTemperature(tt.mode, tt.room, tt.target, 27))
		})
	}
}
