package reconcile

import (
	"fmt"
	"sort"
)

// povGroup collects the candidates of one (bucket, camera, side) viewpoint,
// bucketed by rendition number. Serial number is dropped from the key on
// purpose: multiple physical serials sharing a viewpoint merge here and the
// scoring in pickCandidate resolves the resulting collisions.
type povGroup struct {
	Key         string
	Bucket      string
	Camera      string
	Side        string
	byRendition map[int][]Candidate
}

func groupKey(bucket, camera, side string) string {
	return fmt.Sprintf("%s_%s_%s", bucket, camera, side)
}

// groupCandidates partitions candidates into POV groups. The returned slice
// is ordered by first appearance so later stages never depend on map
// iteration order.
func groupCandidates(candidates []Candidate) []*povGroup {
	byKey := make(map[string]*povGroup)
	var ordered []*povGroup

	for _, c := range candidates {
		key := groupKey(c.Bucket, c.Camera, c.Side)
		g, ok := byKey[key]
		if !ok {
			g = &povGroup{
				Key:         key,
				Bucket:      c.Bucket,
				Camera:      c.Camera,
				Side:        c.Side,
				byRendition: make(map[int][]Candidate),
			}
			byKey[key] = g
			ordered = append(ordered, g)
		}
		g.byRendition[c.Rendition] = append(g.byRendition[c.Rendition], c)
	}

	return ordered
}

// renditions returns the distinct rendition numbers of the group, sorted
// descending.
func (g *povGroup) renditions() []int {
	ns := make([]int, 0, len(g.byRendition))
	for n := range g.byRendition {
		ns = append(ns, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ns)))
	return ns
}

// resolveSlots picks the Latest (highest rendition) and Previous
// (second-highest) candidates of the group. Renditions older than the top
// two are discarded: the review layout surfaces exactly two rendition slots.
// Returns ok=false for a group with no renditions at all, which is then
// never emitted.
func (g *povGroup) resolveSlots() (prev, latest *Candidate, ok bool) {
	ns := g.renditions()
	if len(ns) == 0 {
		return nil, nil, false
	}

	latest = pickCandidate(g.byRendition[ns[0]])
	if len(ns) > 1 {
		prev = pickCandidate(g.byRendition[ns[1]])
	}
	return prev, latest, true
}

// candidateScore ranks colliding candidates within one rendition slot:
// having a usable active image dominates, then the publish flag, then
// provenance (current pipeline over history). Identical scores fall back to
// input order, so re-running on identical input always picks the same
// candidate.
func candidateScore(c Candidate) int {
	score := 0
	if c.ActiveURL != "" {
		score += 100
	}
	if c.Published {
		score += 40
	}
	switch c.Source {
	case SourceCurrent:
		score += 30
	case SourceHistory:
		score += 10
	}
	return score
}

// pickCandidate selects exactly one candidate from a rendition slot:
// highest score wins, ties broken by lowest input sequence.
func pickCandidate(candidates []Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestScore := candidateScore(best)
	for _, c := range candidates[1:] {
		score := candidateScore(c)
		if score > bestScore || (score == bestScore && c.Seq < best.Seq) {
			best = c
			bestScore = score
		}
	}
	return &best
}
