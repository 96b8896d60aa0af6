package climate

// Auto-offset thresholds and bounds, degrees Celsius
const (
	autoOffsetThreshold = 2.0
	autoOffsetMax       = 2.0
)

// AutoOffset maps the room/target delta to the relative value sent in auto mode:
// -2 when the room is at least 2 below target, +2 when at least 2 above, 0 otherwise.
func AutoOffset(room, target float64) float64 {
	delta := room - target
	switch {
	case delta <= -autoOffsetThreshold:
		return -autoOffsetMax
	case delta >= autoOffsetThreshold:
		return autoOffsetMax
	default:
		return 0
	}
}

// ModeTemperature is the temperature parameter sent with a mode change.
// Auto gets the offset; other modes reuse the current target, or fallback when
// the target is the auto sentinel 0.
func ModeTemperature(mode Mode, room, target, fallback float64) float64 {
	if mode == ModeAuto {
		return AutoOffset(room, target)
	}
	if target == 0 {
		return fallback
	}
	return target
}
