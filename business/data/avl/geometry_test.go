package avl

import (
	"math"
	"testing"
)

func TestDistanceToSegment(t *testing.T) {
	// a short east-west segment near the equator; displacing north by a
	// known distance should report back roughly that distance
	startLat, startLon := 0.0, 0.0
	endLat, endLon := 0.0, 0.01

	distanceToSeg, distanceAlong := DistanceToSegment(startLat, startLon, endLat, endLon, 0.0005, 0.005)
	if distanceToSeg < 0 {
		t.Fatalf("expected non-negative distance, got %v", distanceToSeg)
	}
	// 0.0005 degrees of latitude at 111300 m per degree
	if math.Abs(distanceToSeg-55.65) > 1 {
		t.Fatalf("expected about 55.65 meters to the segment, got %v", distanceToSeg)
	}
	if distanceAlong <= 0 {
		t.Fatalf("expected positive distance along segment, got %v", distanceAlong)
	}
}

func TestDistanceToSegment_PointOnSegmentIsNearZero(t *testing.T) {
	distanceToSeg, _ := DistanceToSegment(0, 0, 0, 0.01, 0, 0.005)
	if distanceToSeg > 1.0 {
		t.Fatalf("expected point exactly on the segment to measure near zero, got %v meters", distanceToSeg)
	}
}

func TestBearingDifference(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"identical", 10, 10, 0},
		{"wraps at 360/0", 350, 10, 20},
		{"opposite", 0, 180, 180},
		{"small negative crossing", 5, 355, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDifference(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("BearingDifference(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPointDistance_ZeroForIdenticalPoints(t *testing.T) {
	if d := PointDistance(45.5, -122.6, 45.5, -122.6); d != 0 {
		t.Errorf("expected zero distance for identical points, got %v", d)
	}
}
