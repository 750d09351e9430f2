package core

import "math"

// DefaultAngleOffset rotates zero degrees to the top of the circle.
const DefaultAngleOffset = -90.0

const degreesPerPercent = 3.6

// Palette is the ordered set of segment colors; segment i uses Palette[i%len(Palette)].
var Palette = []string{
	"blue", "green", "orange", "purple", "pink",
	"red", "yellow", "cyan", "mint", "indigo",
}

// ChartSegment is one category's arc of a donut chart, in degrees.
type ChartSegment struct {
	Category   Category
	StartAngle float64
	EndAngle   float64
	ColorIndex int
}

// Color returns the palette entry for the segment.
func (s ChartSegment) Color() string {
	return Palette[s.ColorIndex%len(Palette)]
}

// Sweep returns the angular width of the segment.
func (s ChartSegment) Sweep() float64 {
	return s.EndAngle - s.StartAngle
}

// ComputeSegments converts ordered stats into contiguous arcs starting at the top.
func ComputeSegments(stats []CategoryStat) []ChartSegment {
	return ComputeSegmentsWithOffset(stats, DefaultAngleOffset)
}

// ComputeSegmentsWithOffset is ComputeSegments with an explicit zero-angle rotation.
//
// Each segment starts exactly where the previous one ended. When the
// percentages add up to 100 (within 1e-9) the last end is pinned to
// offset+360 so the circle closes without float drift.
func ComputeSegmentsWithOffset(stats []CategoryStat, offset float64) []ChartSegment {
	segments := make([]ChartSegment, 0, len(stats))
	var cumulative float64
	start := offset
	for i, st := range stats {
		cumulative += st.Percentage
		end := cumulative*degreesPerPercent + offset
		segments = append(segments, ChartSegment{
			Category:   st.Category,
			StartAngle: start,
			EndAngle:   end,
			ColorIndex: i % len(Palette),
		})
		start = end
	}
	if n := len(segments); n > 0 && math.Abs(cumulative-100) <= 1e-9 {
		segments[n-1].EndAngle = offset + 360
	}
	return segments
}
