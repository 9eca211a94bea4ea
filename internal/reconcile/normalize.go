package reconcile

import (
	"encoding/json"
	"strings"
)

// Closed camera/side vocabulary the grouping key is built from.
const (
	CameraFront  = "front"
	CameraRear   = "rear"
	CameraCenter = "center"

	SideLeft   = "left"
	SideRight  = "right"
	SideCenter = "center"
)

// Bucket categories. A third upstream category (360-degree composite
// imagery) never classifies and is excluded from the pipeline entirely.
const (
	BucketSlimOverview = "SlimOverview"
	BucketZoomer       = "Zoomer"
)

// NormalizeCamera maps free-text camera names onto the closed vocabulary by
// case-insensitive prefix. Unmatched non-empty input passes through
// lower-cased, keeping the vocabulary open for camera names the pipeline has
// not seen yet. Empty input returns "".
func NormalizeCamera(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, CameraFront):
		return CameraFront
	case strings.HasPrefix(s, CameraRear):
		return CameraRear
	case strings.HasPrefix(s, CameraCenter):
		return CameraCenter
	}
	return s
}

// NormalizeSide applies the same policy as NormalizeCamera for camera sides.
func NormalizeSide(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, SideLeft):
		return SideLeft
	case strings.HasPrefix(s, SideRight):
		return SideRight
	case strings.HasPrefix(s, SideCenter):
		return SideCenter
	}
	return s
}

// ClassifyBucket maps a raw image type onto a bucket category: exact
// case-insensitive "slimoverview", or anything containing "zoomer"
// ("ZoomerFront", "zoomer_2", ...). Everything else returns "" and is
// excluded from the pipeline.
func ClassifyBucket(imageType string) string {
	s := strings.ToLower(strings.TrimSpace(imageType))
	switch {
	case s == "slimoverview":
		return BucketSlimOverview
	case strings.Contains(s, "zoomer"):
		return BucketZoomer
	}
	return ""
}

// SumActionMap sums the numeric values of a loosely-typed action counter
// map. Non-numeric values count as 0; a nil or empty map sums to 0.
func SumActionMap(m map[string]any) float64 {
	var sum float64
	for _, v := range m {
		switch n := v.(type) {
		case float64:
			sum += n
		case float32:
			sum += float64(n)
		case int:
			sum += float64(n)
		case int64:
			sum += float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				sum += f
			}
		}
	}
	return sum
}

// firstNonEmpty returns the first value that is non-empty after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
