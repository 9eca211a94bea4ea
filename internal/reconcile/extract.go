package reconcile

import (
	"uvpaint-review/internal/domain/review"
)

// Source tags identifying which raw collection a candidate came from.
const (
	SourceCurrent = "images"
	SourceHistory = "uvpaintHistoryImages"
)

// Default rendition numbers per source. The current-pipeline collection
// represents stage 3 output and the historical collection stage 1, so an
// entry that omits an explicit rendition number still lands in a known slot.
const (
	defaultRenditionCurrent = 3
	defaultRenditionHistory = 1
)

// Internal pipeline-debug image type, rejected before classification.
const imageTypeDebug = "InternalDebug"

// Candidate is one normalized, provenance-tagged image record extracted
// from the raw input. Seq is the position in the combined input order
// (current collection first, then history) and is the final tie-break for
// every deterministic selection downstream.
type Candidate struct {
	Bucket      string
	Camera      string
	Side        string
	POV         review.POV
	Rendition   int
	ActiveURL   string
	OriginalURL string
	Status      string
	Source      string
	Published   bool
	Actions     float64
	Seq         int
}

// PublishStats summarizes the publish-flagged entries of a raw record,
// counted over both collections before any extraction filter runs. The
// metrics engine reports these counts and the alignment validator compares
// them against what actually reached the comparison-group slots.
type PublishStats struct {
	Published   int
	WithActions int
	ActionSum   float64
}

func collectPublishStats(rec *review.InspectionRecord) PublishStats {
	var stats PublishStats
	if rec == nil || rec.UvpaintData == nil {
		return stats
	}
	count := func(entries []review.RawImageEntry) {
		for i := range entries {
			e := &entries[i]
			if !e.IsActive || e.ActiveImage == "" {
				continue
			}
			stats.Published++
			actions := SumActionMap(e.ActionsCounterMap)
			stats.ActionSum += actions
			if actions != 0 {
				stats.WithActions++
			}
		}
	}
	count(rec.UvpaintData.Images)
	count(rec.UvpaintData.UvpaintHistoryImages)
	return stats
}

// ExtractCandidates walks both raw collections of one inspection record and
// returns the candidates that survive the boundary filters: entries of the
// internal debug type, entries without a POV, and entries whose image type
// classifies into neither bucket are dropped silently.
func ExtractCandidates(rec *review.InspectionRecord) []Candidate {
	if rec == nil || rec.UvpaintData == nil {
		return nil
	}

	var out []Candidate
	seq := 0
	appendFrom := func(entries []review.RawImageEntry, source string, defaultRendition int) {
		for i := range entries {
			if c, ok := extractOne(&entries[i], source, defaultRendition, seq); ok {
				out = append(out, c)
			}
			seq++
		}
	}

	appendFrom(rec.UvpaintData.Images, SourceCurrent, defaultRenditionCurrent)
	appendFrom(rec.UvpaintData.UvpaintHistoryImages, SourceHistory, defaultRenditionHistory)

	return out
}

func extractOne(e *review.RawImageEntry, source string, defaultRendition, seq int) (Candidate, bool) {
	if e.ImageType == imageTypeDebug {
		return Candidate{}, false
	}
	if e.POV == nil {
		return Candidate{}, false
	}
	bucket := ClassifyBucket(e.ImageType)
	if bucket == "" {
		return Candidate{}, false
	}

	rendition := defaultRendition
	if e.Rendition != nil {
		rendition = *e.Rendition
	}

	return Candidate{
		Bucket:    bucket,
		Camera:    NormalizeCamera(e.POV.SimulatedCamera),
		Side:      NormalizeSide(e.POV.SimulatedCameraSide),
		POV:       *e.POV,
		Rendition: rendition,
		ActiveURL: e.ActiveImage,
		// First non-empty of the four original-URL variants, fixed priority.
		OriginalURL: firstNonEmpty(
			e.OriginalImage,
			e.OriginalImageURL,
			e.OriginalImageWithBackground,
			e.OriginalImageWithoutBackground,
		),
		Status:    e.Status,
		Source:    source,
		Published: e.IsActive && e.ActiveImage != "",
		Actions:   SumActionMap(e.ActionsCounterMap),
		Seq:       seq,
	}, true
}
