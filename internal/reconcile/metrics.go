package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"uvpaint-review/internal/domain/review"
)

// PercentChange returns the relative change from prev to latest in percent.
// A zero previous mean is not a division error: no change stays 0, any
// movement off a zero baseline reads as 100.
func PercentChange(prev, latest float64) float64 {
	if prev == 0 {
		if latest == 0 {
			return 0
		}
		return 100
	}
	return (latest - prev) / prev * 100
}

// slotMeans averages the Previous and Latest slot action counts across the
// groups, counting only groups where the slot is filled.
func slotMeans(groups []review.ComparisonGroup) (prevMean, latestMean float64) {
	var prevSum, latestSum float64
	var prevN, latestN int
	for _, g := range groups {
		if a := g.ActionCounts[review.SlotPrevious]; a != nil {
			prevSum += *a
			prevN++
		}
		if a := g.ActionCounts[review.SlotLatest]; a != nil {
			latestSum += *a
			latestN++
		}
	}
	if prevN > 0 {
		prevMean = prevSum / float64(prevN)
	}
	if latestN > 0 {
		latestMean = latestSum / float64(latestN)
	}
	return prevMean, latestMean
}

func vehicleLabel(v *review.VehicleInfo) string {
	if v == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if v.Year != 0 {
		parts = append(parts, fmt.Sprintf("%d", v.Year))
	}
	if v.Make != "" {
		parts = append(parts, v.Make)
	}
	if v.Model != "" {
		parts = append(parts, v.Model)
	}
	return strings.Join(parts, " ")
}

// ComputeMetrics builds both rollups over the full inspection set. Table A
// takes its published count from the raw-side publish stats, which the
// alignment validator compares against the group slots. Both tables
// are rebuilt wholesale on every call; they are cross-inspection reductions
// and are never patched incrementally.
func ComputeMetrics(inspections []*Inspection) review.MetricsReport {
	report := review.MetricsReport{
		TableA: make([]review.AggregateRow, 0, len(inspections)),
		TableD: []review.HeatmapRow{},
	}

	type heatKey struct {
		Bucket           string
		Camera           string
		Side             string
		OriginalCameraID string
	}
	type heatAgg struct {
		prevSum, latestSum float64
		prevN, latestN     int
		groups             int
	}
	heat := make(map[heatKey]*heatAgg)
	var heatOrder []heatKey

	for _, insp := range inspections {
		avg := 0.0
		if insp.Stats.Published > 0 {
			avg = insp.Stats.ActionSum / float64(insp.Stats.Published)
		}

		prevMean, latestMean := slotMeans(insp.Groups)
		report.TableA = append(report.TableA, review.AggregateRow{
			InspectionID:      insp.ID,
			Vehicle:           vehicleLabel(insp.Vehicle),
			Groups:            len(insp.Groups),
			PublishedImages:   insp.Stats.Published,
			ImagesWithActions: insp.Stats.WithActions,
			AvgActions:        avg,
			PrevMeanActions:   prevMean,
			LatestMeanActions: latestMean,
			Difference:        latestMean - prevMean,
			PercentChange:     PercentChange(prevMean, latestMean),
		})

		for _, g := range insp.Groups {
			if g.POV == nil {
				continue
			}
			key := heatKey{
				Bucket:           g.Bucket,
				Camera:           g.POV.SimulatedCamera,
				Side:             g.POV.SimulatedCameraSide,
				OriginalCameraID: g.POV.OriginalCameraID,
			}
			agg, ok := heat[key]
			if !ok {
				agg = &heatAgg{}
				heat[key] = agg
				heatOrder = append(heatOrder, key)
			}
			agg.groups++
			if a := g.ActionCounts[review.SlotPrevious]; a != nil {
				agg.prevSum += *a
				agg.prevN++
			}
			if a := g.ActionCounts[review.SlotLatest]; a != nil {
				agg.latestSum += *a
				agg.latestN++
			}
		}
	}

	for _, key := range heatOrder {
		agg := heat[key]
		prevMean, latestMean := 0.0, 0.0
		if agg.prevN > 0 {
			prevMean = agg.prevSum / float64(agg.prevN)
		}
		if agg.latestN > 0 {
			latestMean = agg.latestSum / float64(agg.latestN)
		}
		report.TableD = append(report.TableD, review.HeatmapRow{
			Bucket:            key.Bucket,
			Camera:            key.Camera,
			Side:              key.Side,
			OriginalCameraID:  key.OriginalCameraID,
			Groups:            agg.groups,
			PrevMeanActions:   prevMean,
			LatestMeanActions: latestMean,
			Difference:        latestMean - prevMean,
			PercentChange:     PercentChange(prevMean, latestMean),
		})
	}

	// Hottest viewpoints first; full key ordering behind the primary sort
	// keeps the table stable across runs.
	sort.SliceStable(report.TableD, func(i, j int) bool {
		a, b := report.TableD[i], report.TableD[j]
		if a.LatestMeanActions != b.LatestMeanActions {
			return a.LatestMeanActions > b.LatestMeanActions
		}
		if a.Bucket != b.Bucket {
			return a.Bucket < b.Bucket
		}
		if a.Camera != b.Camera {
			return a.Camera < b.Camera
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.OriginalCameraID < b.OriginalCameraID
	})

	return report
}
