package reconcile

import (
	"fmt"
	"sort"
	"strconv"

	"uvpaint-review/internal/domain/review"
)

// Rendition label used for the Original slot, which carries no rendition
// number of its own.
const originalRenditionLabel = "OG"

// Inspection is the reconciled output for one inspection record: the
// ordered comparison groups plus publish stats taken from the raw side, so
// the metrics engine reports counts the grouping never touched (the
// alignment validator cross-checks the two).
type Inspection struct {
	ID      string
	Vehicle *review.VehicleInfo
	Groups  []review.ComparisonGroup
	Stats   PublishStats
}

// Reconcile runs the full single-inspection pipeline: candidate extraction,
// POV grouping, slot resolution, original-index enrichment and final
// ordering. It is a pure single-pass transform: the same raw record always
// yields the same ordered group list.
func Reconcile(inspectionID string, rec *review.InspectionRecord) *Inspection {
	out := &Inspection{ID: inspectionID}
	if rec != nil && rec.UvpaintInspection != nil {
		out.Vehicle = rec.UvpaintInspection.VehicleInfo
	}

	out.Stats = collectPublishStats(rec)

	candidates := ExtractCandidates(rec)
	originals := buildOriginalIndex(candidates)

	for _, g := range groupCandidates(candidates) {
		prev, latest, ok := g.resolveSlots()
		if !ok {
			continue
		}
		out.Groups = append(out.Groups, buildGroup(inspectionID, g, prev, latest, originals))
	}

	sortGroups(out.Groups)
	return out
}

func buildGroup(inspectionID string, g *povGroup, prev, latest *Candidate, originals map[viewpointKey]originalRef) review.ComparisonGroup {
	cg := review.ComparisonGroup{
		ID:           inspectionID + ":" + g.Key,
		InspectionID: inspectionID,
		GroupKey:     g.Key,
		Name:         fmt.Sprintf("%s %s %s", g.Bucket, g.Camera, g.Side),
		Bucket:       g.Bucket,
		Camera:       g.Camera,
		Side:         g.Side,
	}

	fillSlot := func(slot int, label string, c *Candidate) {
		if c == nil {
			return
		}
		cg.Images[slot] = optional(c.ActiveURL)
		n := strconv.Itoa(c.Rendition)
		cg.Renditions[slot] = &n
		cg.Statuses[slot] = optional(c.Status)
		src := c.Source
		cg.Sources[slot] = &src
		actions := c.Actions
		cg.ActionCounts[slot] = &actions
		info := fmt.Sprintf("%s · R%d · %s", label, c.Rendition, c.Source)
		cg.CardInfo[slot] = &info
		cg.SlotPublished[slot] = c.Published
	}
	fillSlot(review.SlotPrevious, "Previous", prev)
	fillSlot(review.SlotLatest, "Latest", latest)

	// POV for display comes from the chosen latest candidate.
	if latest != nil {
		pov := latest.POV
		cg.POV = &pov
	}

	// Cross-category enrichment: even a Zoomer group takes its Original
	// slot from the SlimOverview-sourced index when camera/side match.
	if ref, ok := originals[viewpointKey{Camera: g.Camera, Side: g.Side}]; ok {
		url := ref.URL
		label := originalRenditionLabel
		src := ref.Source
		info := "Original · " + originalRenditionLabel
		cg.Images[review.SlotOriginal] = &url
		cg.Renditions[review.SlotOriginal] = &label
		cg.Sources[review.SlotOriginal] = &src
		cg.CardInfo[review.SlotOriginal] = &info
	}

	cg.Published = cg.SlotPublished[review.SlotPrevious] || cg.SlotPublished[review.SlotLatest]
	return cg
}

func bucketRank(bucket string) int {
	switch bucket {
	case BucketSlimOverview:
		return 0
	case BucketZoomer:
		return 1
	}
	return 2
}

// sortGroups orders the final list: published groups first, then bucket
// rank, camera, side, and finally the group key so the order is total. This
// order is a UI contract (navigation and jump-to menus follow it).
func sortGroups(groups []review.ComparisonGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Published != b.Published {
			return a.Published
		}
		if ra, rb := bucketRank(a.Bucket), bucketRank(b.Bucket); ra != rb {
			return ra < rb
		}
		if a.Camera != b.Camera {
			return a.Camera < b.Camera
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.GroupKey < b.GroupKey
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
