package reconcile

import (
	"testing"

	"uvpaint-review/internal/domain/review"
)

func intPtr(n int) *int { return &n }

func rawEntry(imageType, camera, side string, rendition *int) review.RawImageEntry {
	return review.RawImageEntry{
		ImageType: imageType,
		POV:       &review.POV{SimulatedCamera: camera, SimulatedCameraSide: side},
		Rendition: rendition,
	}
}

func TestExtractCandidatesFilters(t *testing.T) {
	rec := &review.InspectionRecord{
		UvpaintData: &review.UvpaintData{
			Images: []review.RawImageEntry{
				rawEntry("SlimOverview", "Front", "Left", intPtr(2)),
				rawEntry("Composite360", "Front", "Left", intPtr(2)),
				rawEntry(imageTypeDebug, "Front", "Left", intPtr(2)),
				{ImageType: "SlimOverview", Rendition: intPtr(2)}, // no POV
			},
			UvpaintHistoryImages: []review.RawImageEntry{
				rawEntry("ZoomerFront", "Rear", "Right", nil),
			},
		},
	}

	got := ExtractCandidates(rec)
	if len(got) != 2 {
		t.Fatalf("ExtractCandidates() returned %d candidates, want 2", len(got))
	}
	if got[0].Bucket != BucketSlimOverview || got[0].Rendition != 2 || got[0].Source != SourceCurrent {
		t.Errorf("first candidate = %+v, want SlimOverview rendition 2 from %s", got[0], SourceCurrent)
	}
	if got[1].Bucket != BucketZoomer || got[1].Source != SourceHistory {
		t.Errorf("second candidate = %+v, want Zoomer from %s", got[1], SourceHistory)
	}
	if got[1].Rendition != defaultRenditionHistory {
		t.Errorf("history candidate without rendition defaulted to %d, want %d", got[1].Rendition, defaultRenditionHistory)
	}
}

func TestExtractCandidatesDefaultRenditions(t *testing.T) {
	rec := &review.InspectionRecord{
		UvpaintData: &review.UvpaintData{
			Images:               []review.RawImageEntry{rawEntry("SlimOverview", "Front", "Left", nil)},
			UvpaintHistoryImages: []review.RawImageEntry{rawEntry("SlimOverview", "Front", "Left", nil)},
		},
	}

	got := ExtractCandidates(rec)
	if len(got) != 2 {
		t.Fatalf("ExtractCandidates() returned %d candidates, want 2", len(got))
	}
	if got[0].Rendition != defaultRenditionCurrent {
		t.Errorf("current candidate rendition = %d, want %d", got[0].Rendition, defaultRenditionCurrent)
	}
	if got[1].Rendition != defaultRenditionHistory {
		t.Errorf("history candidate rendition = %d, want %d", got[1].Rendition, defaultRenditionHistory)
	}
}

func TestExtractOriginalURLPriority(t *testing.T) {
	e := rawEntry("SlimOverview", "Front", "Left", intPtr(1))
	e.OriginalImageURL = "second"
	e.OriginalImageWithBackground = "third"

	rec := &review.InspectionRecord{UvpaintData: &review.UvpaintData{Images: []review.RawImageEntry{e}}}
	got := ExtractCandidates(rec)
	if len(got) != 1 {
		t.Fatalf("ExtractCandidates() returned %d candidates, want 1", len(got))
	}
	if got[0].OriginalURL != "second" {
		t.Errorf("OriginalURL = %q, want %q", got[0].OriginalURL, "second")
	}
}

func TestPickCandidateScoring(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		wantSeq    int
	}{
		{
			name: "active url beats publish flag alone",
			candidates: []Candidate{
				{Published: true, Source: SourceCurrent, Seq: 0},
				{ActiveURL: "u", Source: SourceHistory, Seq: 1},
			},
			wantSeq: 1,
		},
		{
			name: "current source beats history at equal flags",
			candidates: []Candidate{
				{ActiveURL: "a", Source: SourceHistory, Seq: 0},
				{ActiveURL: "b", Source: SourceCurrent, Seq: 1},
			},
			wantSeq: 1,
		},
		{
			name: "tie falls back to input order",
			candidates: []Candidate{
				{ActiveURL: "a", Source: SourceCurrent, Seq: 4},
				{ActiveURL: "b", Source: SourceCurrent, Seq: 2},
			},
			wantSeq: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickCandidate(tt.candidates)
			if got == nil {
				t.Fatal("pickCandidate() returned nil")
			}
			if got.Seq != tt.wantSeq {
				t.Errorf("pickCandidate() chose Seq %d, want %d", got.Seq, tt.wantSeq)
			}
		})
	}
}

func TestGroupingCollapsesSerialNumber(t *testing.T) {
	serialA, serialB := 7, 9
	a := rawEntry("SlimOverview", "Front", "Left", intPtr(3))
	a.POV.SerialNumber = &serialA
	a.ActiveImage = "winner"
	a.IsActive = true
	b := rawEntry("SlimOverview", "Front", "Left", intPtr(3))
	b.POV.SerialNumber = &serialB

	rec := &review.InspectionRecord{UvpaintData: &review.UvpaintData{Images: []review.RawImageEntry{a, b}}}
	groups := groupCandidates(ExtractCandidates(rec))
	if len(groups) != 1 {
		t.Fatalf("groupCandidates() produced %d groups, want 1 (serial number collapsed)", len(groups))
	}
	slot := groups[0].byRendition[3]
	if len(slot) != 2 {
		t.Fatalf("rendition 3 slot holds %d candidates, want 2", len(slot))
	}
	chosen := pickCandidate(slot)
	if chosen.ActiveURL != "winner" {
		t.Errorf("chosen candidate ActiveURL = %q, want %q", chosen.ActiveURL, "winner")
	}
}

func TestResolveSlotsRenditionPolicy(t *testing.T) {
	g := &povGroup{byRendition: map[int][]Candidate{
		1: {{Rendition: 1, ActiveURL: "r1"}},
		3: {{Rendition: 3, ActiveURL: "r3"}},
		5: {{Rendition: 5, ActiveURL: "r5"}},
	}}

	prev, latest, ok := g.resolveSlots()
	if !ok {
		t.Fatal("resolveSlots() ok = false, want true")
	}
	if latest.Rendition != 5 {
		t.Errorf("latest rendition = %d, want 5", latest.Rendition)
	}
	if prev.Rendition != 3 {
		t.Errorf("previous rendition = %d, want 3 (rendition 1 discarded)", prev.Rendition)
	}
}

func TestResolveSlotsEmptyGroup(t *testing.T) {
	g := &povGroup{byRendition: map[int][]Candidate{}}
	if _, _, ok := g.resolveSlots(); ok {
		t.Error("resolveSlots() ok = true for empty group, want false")
	}
}
