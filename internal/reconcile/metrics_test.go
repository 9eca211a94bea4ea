package reconcile

import (
	"testing"

	"uvpaint-review/internal/domain/review"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		prev     float64
		latest   float64
		expected float64
	}{
		{"both zero", 0, 0, 0},
		{"zero baseline with movement", 0, 5, 100},
		{"halved", 10, 5, -50},
		{"doubled", 1, 2, 100},
		{"unchanged", 4, 4, 0},
		{"negative delta", 8, 6, -25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PercentChange(tt.prev, tt.latest)
			if result != tt.expected {
				t.Errorf("PercentChange(%v, %v) = %v, want %v", tt.prev, tt.latest, result, tt.expected)
			}
		})
	}
}

func groupWithActions(bucket, camera, side string, prev, latest *float64, pov *review.POV) review.ComparisonGroup {
	g := review.ComparisonGroup{Bucket: bucket, Camera: camera, Side: side, POV: pov}
	g.ActionCounts[review.SlotPrevious] = prev
	g.ActionCounts[review.SlotLatest] = latest
	return g
}

func f(v float64) *float64 { return &v }

func TestComputeMetricsTableD(t *testing.T) {
	povA := &review.POV{SimulatedCamera: "Front", SimulatedCameraSide: "Left", OriginalCameraID: "cam-1"}
	povB := &review.POV{SimulatedCamera: "Rear", SimulatedCameraSide: "Right", OriginalCameraID: "cam-2"}

	inspections := []*Inspection{
		{
			ID: "a",
			Groups: []review.ComparisonGroup{
				groupWithActions(BucketSlimOverview, "front", "left", f(2), f(4), povA),
				groupWithActions(BucketZoomer, "rear", "right", f(1), f(1), povB),
			},
		},
		{
			ID: "b",
			Groups: []review.ComparisonGroup{
				groupWithActions(BucketSlimOverview, "front", "left", f(4), f(6), povA),
			},
		},
	}

	report := ComputeMetrics(inspections)
	if len(report.TableD) != 2 {
		t.Fatalf("TableD has %d rows, want 2", len(report.TableD))
	}

	// Highest latest mean first: front/left averages (4+6)/2 = 5 across
	// both inspections.
	top := report.TableD[0]
	if top.Camera != "Front" || top.OriginalCameraID != "cam-1" {
		t.Errorf("top heatmap row = %+v, want Front/cam-1", top)
	}
	if top.Groups != 2 {
		t.Errorf("top row aggregates %d groups, want 2", top.Groups)
	}
	if top.PrevMeanActions != 3 || top.LatestMeanActions != 5 {
		t.Errorf("top row means = (%v, %v), want (3, 5)", top.PrevMeanActions, top.LatestMeanActions)
	}
	if top.Difference != 2 {
		t.Errorf("top row difference = %v, want 2", top.Difference)
	}
}

func TestComputeMetricsEmptyInspection(t *testing.T) {
	report := ComputeMetrics([]*Inspection{{ID: "empty"}})
	if len(report.TableA) != 1 {
		t.Fatalf("TableA has %d rows, want 1", len(report.TableA))
	}
	row := report.TableA[0]
	if row.PublishedImages != 0 || row.AvgActions != 0 || row.PercentChange != 0 {
		t.Errorf("empty inspection row = %+v, want all-zero metrics", row)
	}
	if len(report.TableD) != 0 {
		t.Errorf("TableD has %d rows for empty inspection, want 0", len(report.TableD))
	}
}

func TestComputeMetricsVehicleLabel(t *testing.T) {
	insp := &Inspection{
		ID:      "a",
		Vehicle: &review.VehicleInfo{Year: 2021, Make: "Ford", Model: "F-150"},
	}
	report := ComputeMetrics([]*Inspection{insp})
	if got := report.TableA[0].Vehicle; got != "2021 Ford F-150" {
		t.Errorf("vehicle label = %q, want %q", got, "2021 Ford F-150")
	}
}
