package reconcile

// viewpointKey identifies a physical camera viewpoint independent of bucket
// and rendition.
type viewpointKey struct {
	Camera string
	Side   string
}

type originalRef struct {
	URL    string
	Source string
}

func originalPriority(source string) int {
	switch source {
	case SourceCurrent:
		return 30
	case SourceHistory:
		return 10
	}
	return 0
}

// buildOriginalIndex maps each (camera, side) viewpoint to its best
// originally-captured image. Only SlimOverview candidates feed the index,
// since the original capture is a property of the viewpoint rather than a
// processing run, but every group consults it, Zoomer groups included. Candidates
// without a resolvable original URL are skipped; collisions prefer the
// current-pipeline source, first-seen wins among equals.
func buildOriginalIndex(candidates []Candidate) map[viewpointKey]originalRef {
	index := make(map[viewpointKey]originalRef)
	for _, c := range candidates {
		if c.Bucket != BucketSlimOverview || c.OriginalURL == "" {
			continue
		}
		key := viewpointKey{Camera: c.Camera, Side: c.Side}
		existing, ok := index[key]
		if ok && originalPriority(existing.Source) >= originalPriority(c.Source) {
			continue
		}
		index[key] = originalRef{URL: c.OriginalURL, Source: c.Source}
	}
	return index
}
