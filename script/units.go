package script

import "math"

// Scripts use human units (km/h, m, ms); the robot takes mm/s and mm.

// KmhToMMs converts km/h to mm/s, rounded to the nearest integer
func KmhToMMs(kmh float64) int {
	return int(math.Round(kmh * 1000000 / 3600))
}

// MetersToMM converts meters to millimeters, rounded to the nearest integer
func MetersToMM(m float64) int {
	return int(math.Round(m * 1000))
}

// MoveTimeMS returns how long covering distanceMM at speedMMs takes, in ms.
// Direction is carried by the sign of the speed, so both values are taken as magnitudes.
func MoveTimeMS(distanceMM, speedMMs int) (int, error) {
	if speedMMs == 0 {
		return 0, ErrZeroSpeed
	}
	return int(math.Round(float64(abs(distanceMM)) / float64(abs(speedMMs)) * 1000)), nil
}

// fitsInt16 reports whether v rounds into a signed 16-bit wire field
func fitsInt16(v float64) bool {
	r := math.Round(v)
	return r >= math.MinInt16 && r <= math.MaxInt16
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
