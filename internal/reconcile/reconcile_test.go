package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"uvpaint-review/internal/domain/review"
)

// Record from the two-source round-trip scenario: one current-pipeline
// image at rendition 3 and one historical image at rendition 1, same
// viewpoint.
func roundTripRecord() *review.InspectionRecord {
	return &review.InspectionRecord{
		UvpaintData: &review.UvpaintData{
			Images: []review.RawImageEntry{{
				ImageType:         "SlimOverview",
				POV:               &review.POV{SimulatedCamera: "Front", SimulatedCameraSide: "Left"},
				Rendition:         intPtr(3),
				ActiveImage:       "u1",
				IsActive:          true,
				ActionsCounterMap: map[string]any{"a": 2.0},
			}},
			UvpaintHistoryImages: []review.RawImageEntry{{
				ImageType:         "SlimOverview",
				POV:               &review.POV{SimulatedCamera: "Front", SimulatedCameraSide: "Left"},
				Rendition:         intPtr(1),
				ActiveImage:       "u0",
				ActionsCounterMap: map[string]any{"a": 1.0},
			}},
		},
	}
}

func TestReconcileRoundTrip(t *testing.T) {
	insp := Reconcile("insp-1", roundTripRecord())

	if len(insp.Groups) != 1 {
		t.Fatalf("Reconcile() produced %d groups, want 1", len(insp.Groups))
	}
	g := insp.Groups[0]

	if g.ID != "insp-1:SlimOverview_front_left" {
		t.Errorf("group ID = %q, want %q", g.ID, "insp-1:SlimOverview_front_left")
	}
	assertSlotURL(t, g, review.SlotPrevious, "u0")
	assertSlotURL(t, g, review.SlotLatest, "u1")
	if g.Images[review.SlotOriginal] != nil {
		t.Errorf("original slot URL = %q, want nil", *g.Images[review.SlotOriginal])
	}
	assertRendition(t, g, review.SlotPrevious, "1")
	assertRendition(t, g, review.SlotLatest, "3")
	if !g.Published {
		t.Error("group Published = false, want true")
	}
	if g.SlotPublished[review.SlotPrevious] {
		t.Error("previous slot published = true, want false (history entry not active)")
	}

	metrics := ComputeMetrics([]*Inspection{insp})
	if len(metrics.TableA) != 1 {
		t.Fatalf("TableA has %d rows, want 1", len(metrics.TableA))
	}
	row := metrics.TableA[0]
	if row.PublishedImages != 1 {
		t.Errorf("PublishedImages = %d, want 1", row.PublishedImages)
	}
	if row.AvgActions != 2 {
		t.Errorf("AvgActions = %v, want 2", row.AvgActions)
	}
	if row.PrevMeanActions != 1 || row.LatestMeanActions != 2 {
		t.Errorf("slot means = (%v, %v), want (1, 2)", row.PrevMeanActions, row.LatestMeanActions)
	}
	if row.Difference != 1 {
		t.Errorf("Difference = %v, want 1", row.Difference)
	}
	if row.PercentChange != 100 {
		t.Errorf("PercentChange = %v, want 100", row.PercentChange)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	first := Reconcile("insp-1", roundTripRecord())
	second := Reconcile("insp-1", roundTripRecord())

	if diff := cmp.Diff(first.Groups, second.Groups); diff != "" {
		t.Errorf("Reconcile() not deterministic (-first +second):\n%s", diff)
	}
}

func TestOriginalCrossEnrichment(t *testing.T) {
	slim := review.RawImageEntry{
		ImageType:     "SlimOverview",
		POV:           &review.POV{SimulatedCamera: "Front", SimulatedCameraSide: "Left"},
		Rendition:     intPtr(3),
		OriginalImage: "og-front-left",
	}
	zoom := review.RawImageEntry{
		ImageType:   "ZoomerFront",
		POV:         &review.POV{SimulatedCamera: "Front", SimulatedCameraSide: "Left"},
		Rendition:   intPtr(3),
		ActiveImage: "z1",
		IsActive:    true,
	}

	insp := Reconcile("insp-1", &review.InspectionRecord{
		UvpaintData: &review.UvpaintData{Images: []review.RawImageEntry{slim, zoom}},
	})

	var zoomer *review.ComparisonGroup
	for i := range insp.Groups {
		if insp.Groups[i].Bucket == BucketZoomer {
			zoomer = &insp.Groups[i]
		}
	}
	if zoomer == nil {
		t.Fatal("no Zoomer group produced")
	}
	if zoomer.Images[review.SlotOriginal] == nil || *zoomer.Images[review.SlotOriginal] != "og-front-left" {
		t.Errorf("Zoomer original slot = %v, want og-front-left from the SlimOverview index", zoomer.Images[review.SlotOriginal])
	}
	if zoomer.Renditions[review.SlotOriginal] == nil || *zoomer.Renditions[review.SlotOriginal] != "OG" {
		t.Errorf("original slot rendition label = %v, want OG", zoomer.Renditions[review.SlotOriginal])
	}
}

func TestOriginalIndexPrefersCurrentSource(t *testing.T) {
	candidates := []Candidate{
		{Bucket: BucketSlimOverview, Camera: "front", Side: "left", OriginalURL: "hist", Source: SourceHistory, Seq: 0},
		{Bucket: BucketSlimOverview, Camera: "front", Side: "left", OriginalURL: "curr", Source: SourceCurrent, Seq: 1},
		{Bucket: BucketSlimOverview, Camera: "front", Side: "left", OriginalURL: "curr2", Source: SourceCurrent, Seq: 2},
		{Bucket: BucketZoomer, Camera: "front", Side: "left", OriginalURL: "zoom", Source: SourceCurrent, Seq: 3},
		{Bucket: BucketSlimOverview, Camera: "rear", Side: "left", Source: SourceCurrent, Seq: 4}, // no URL, skipped
	}

	index := buildOriginalIndex(candidates)
	ref, ok := index[viewpointKey{Camera: "front", Side: "left"}]
	if !ok {
		t.Fatal("front/left missing from original index")
	}
	if ref.URL != "curr" {
		t.Errorf("front/left original = %q, want %q (current source wins, first-seen among equals)", ref.URL, "curr")
	}
	if _, ok := index[viewpointKey{Camera: "rear", Side: "left"}]; ok {
		t.Error("rear/left indexed despite missing original URL")
	}
	if len(index) != 1 {
		t.Errorf("index holds %d viewpoints, want 1", len(index))
	}
}

func TestGroupOrdering(t *testing.T) {
	mk := func(imageType, camera, side, active string, isActive bool) review.RawImageEntry {
		return review.RawImageEntry{
			ImageType:   imageType,
			POV:         &review.POV{SimulatedCamera: camera, SimulatedCameraSide: side},
			Rendition:   intPtr(3),
			ActiveImage: active,
			IsActive:    isActive,
		}
	}

	insp := Reconcile("insp-1", &review.InspectionRecord{
		UvpaintData: &review.UvpaintData{Images: []review.RawImageEntry{
			mk("ZoomerFront", "Rear", "Right", "", false),
			mk("SlimOverview", "Rear", "Left", "", false),
			mk("ZoomerFront", "Front", "Left", "pub", true),
			mk("SlimOverview", "Front", "Right", "pub", true),
		}},
	})

	var keys []string
	for _, g := range insp.Groups {
		keys = append(keys, g.GroupKey)
	}
	want := []string{
		"SlimOverview_front_right", // published, slim first
		"Zoomer_front_left",        // published
		"SlimOverview_rear_left",   // unpublished, slim first
		"Zoomer_rear_right",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
}

func assertSlotURL(t *testing.T, g review.ComparisonGroup, slot int, want string) {
	t.Helper()
	if g.Images[slot] == nil {
		t.Fatalf("slot %d URL is nil, want %q", slot, want)
	}
	if *g.Images[slot] != want {
		t.Errorf("slot %d URL = %q, want %q", slot, *g.Images[slot], want)
	}
}

func assertRendition(t *testing.T, g review.ComparisonGroup, slot int, want string) {
	t.Helper()
	if g.Renditions[slot] == nil {
		t.Fatalf("slot %d rendition is nil, want %q", slot, want)
	}
	if *g.Renditions[slot] != want {
		t.Errorf("slot %d rendition = %q, want %q", slot, *g.Renditions[slot], want)
	}
}
