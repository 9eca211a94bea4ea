package reconcile

import (
	"uvpaint-review/internal/domain/review"
)

// cardCount counts the published Previous/Latest slots across the
// inspection's groups, independently of how the metrics engine counted.
func cardCount(groups []review.ComparisonGroup) int {
	n := 0
	for _, g := range groups {
		if g.SlotPublished[review.SlotPrevious] {
			n++
		}
		if g.SlotPublished[review.SlotLatest] {
			n++
		}
	}
	return n
}

// ValidateAlignment cross-checks the metrics engine's per-inspection
// published counts against counts recomputed from the comparison-group
// slots. A publish-flagged candidate that never reached a slot (dropped
// POV, lost a rendition collision, third-or-older rendition) shows up here
// as a nonzero difference. The report is diagnostic only: it never corrects
// or hides a divergence.
func ValidateAlignment(inspections []*Inspection, tableA []review.AggregateRow) review.AlignmentReport {
	metricsCounts := make(map[string]int, len(tableA))
	for _, row := range tableA {
		metricsCounts[row.InspectionID] = row.PublishedImages
	}

	report := review.AlignmentReport{Mismatches: []review.Mismatch{}}
	for _, insp := range inspections {
		metrics := metricsCounts[insp.ID]
		cards := cardCount(insp.Groups)
		report.Breakdown.ByInspection = append(report.Breakdown.ByInspection, review.InspectionBreakdown{
			InspectionID: insp.ID,
			MetricsCount: metrics,
			CardCount:    cards,
		})
		if diff := metrics - cards; diff != 0 {
			report.Mismatches = append(report.Mismatches, review.Mismatch{
				InspectionID: insp.ID,
				MetricsCount: metrics,
				CardCount:    cards,
				Difference:   diff,
			})
		}
	}
	return report
}
