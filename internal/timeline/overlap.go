package timeline

// OverlapTolerance is the number of seconds two clip ranges may overlap
// and still share a track. It absorbs timestamp rounding and lets clips
// be butted end to end without forcing a new lane.
const OverlapTolerance = 1.0

// RangesConflict reports whether two half-open time ranges overlap by
// strictly more than OverlapTolerance seconds. Disjoint or touching
// ranges never conflict, zero-length ranges never conflict with
// anything, and the test is symmetric. Negative times are valid.
func RangesConflict(start1, end1, start2, end2 float64) bool {
	if end1 == start1 || end2 == start2 {
		return false
	}
	overlap := min(end1, end2) - max(start1, start2)
	return overlap > OverlapTolerance
}
