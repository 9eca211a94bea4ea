package reconcile

import (
	"testing"

	"uvpaint-review/internal/domain/review"
)

func TestValidateAlignmentClean(t *testing.T) {
	insp := Reconcile("insp-1", roundTripRecord())
	metrics := ComputeMetrics([]*Inspection{insp})

	report := ValidateAlignment([]*Inspection{insp}, metrics.TableA)
	if len(report.Mismatches) != 0 {
		t.Errorf("Mismatches = %+v, want none", report.Mismatches)
	}
	if len(report.Breakdown.ByInspection) != 1 {
		t.Fatalf("Breakdown has %d entries, want 1", len(report.Breakdown.ByInspection))
	}
	b := report.Breakdown.ByInspection[0]
	if b.MetricsCount != 1 || b.CardCount != 1 {
		t.Errorf("breakdown = %+v, want metrics 1 / cards 1", b)
	}
}

func TestValidateAlignmentDetectsDroppedCandidate(t *testing.T) {
	rec := roundTripRecord()
	// Publish-flagged entry with no POV: counted by the metrics side,
	// excluded from every group.
	rec.UvpaintData.Images = append(rec.UvpaintData.Images, review.RawImageEntry{
		ImageType:   "SlimOverview",
		Rendition:   intPtr(3),
		ActiveImage: "orphan",
		IsActive:    true,
	})

	insp := Reconcile("insp-1", rec)
	metrics := ComputeMetrics([]*Inspection{insp})
	report := ValidateAlignment([]*Inspection{insp}, metrics.TableA)

	if len(report.Mismatches) != 1 {
		t.Fatalf("Mismatches = %+v, want exactly one", report.Mismatches)
	}
	m := report.Mismatches[0]
	if m.InspectionID != "insp-1" {
		t.Errorf("mismatch inspection = %q, want insp-1", m.InspectionID)
	}
	if m.MetricsCount != 2 || m.CardCount != 1 || m.Difference != 1 {
		t.Errorf("mismatch = %+v, want metrics 2 / cards 1 / diff 1", m)
	}
}

func TestValidateAlignmentDetectsDiscardedRendition(t *testing.T) {
	rec := roundTripRecord()
	// Published rendition-0 entry at the same viewpoint: three renditions
	// in the group, the oldest one never surfaces in a slot.
	rec.UvpaintData.UvpaintHistoryImages = append(rec.UvpaintData.UvpaintHistoryImages, review.RawImageEntry{
		ImageType:   "SlimOverview",
		POV:         &review.POV{SimulatedCamera: "Front", SimulatedCameraSide: "Left"},
		Rendition:   intPtr(0),
		ActiveImage: "old",
		IsActive:    true,
	})

	insp := Reconcile("insp-1", rec)
	metrics := ComputeMetrics([]*Inspection{insp})
	report := ValidateAlignment([]*Inspection{insp}, metrics.TableA)

	if len(report.Mismatches) != 1 {
		t.Fatalf("Mismatches = %+v, want exactly one", report.Mismatches)
	}
	if report.Mismatches[0].Difference != 1 {
		t.Errorf("difference = %d, want 1", report.Mismatches[0].Difference)
	}
}
