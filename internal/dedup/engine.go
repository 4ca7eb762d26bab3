// Package dedup finds duplicate and near-duplicate photos in a catalog
// snapshot. The engine is a pure function of its input: it holds no state
// across runs, performs no I/O, and rebuilds every group from scratch each
// invocation so stale results from a prior run can never leak forward.
package dedup

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"photovault/internal/catalog"
)

// DefaultBurstWindow is the capture-time proximity used to form burst
// candidate groups when the caller does not override it. Two seconds covers
// camera clocks that round to whole seconds while staying well inside a
// typical shot-to-shot interval.
const DefaultBurstWindow = 2 * time.Second

// Group is one finalized duplicate cluster. Members always number at least
// two; Label is an opaque identity valid only within the run that produced
// it.
type Group struct {
	Label       string
	Members     []*catalog.Photo
	CanonicalID int64
	Confidence  Confidence
}

// Options tunes the engine. The zero value is usable.
type Options struct {
	// BurstWindow is the maximum capture-time spread, anchored on the
	// earliest member, for a burst candidate group. Zero means
	// DefaultBurstWindow.
	BurstWindow time.Duration
}

// Engine groups a photo snapshot into duplicate clusters.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.BurstWindow <= 0 {
		opts.BurstWindow = DefaultBurstWindow
	}
	return &Engine{opts: opts}
}

// Run executes the four matching phases over the snapshot and returns the
// finalized groups, ordered by their lowest member id. The phases are:
//
//	1. exact content-hash partitioning
//	2. capture-time burst grouping with perceptual eviction
//	3. cross-format matching through the Hamming-distance index
//	4. consensus-guarded merging of overlapping clusters
//
// Phase order is load-bearing: phase 3 decides merge-vs-new-group from the
// membership phases 1-2 established, and phase 4 arbitrates the candidates
// phase 3 recorded. ctx is only checked between phases; a run is abandoned
// at a phase boundary, never mid-phase.
func (e *Engine) Run(ctx context.Context, photos []catalog.Photo) ([]Group, error) {
	p := newPipeline(photos, int64(e.opts.BurstWindow/time.Second))

	phases := []func(){p.exactPhase, p.burstPhase, p.indexPhase, p.mergePhase}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		phase()
	}
	return p.finalize(), nil
}

// pipeline carries the grouping state between phases. Records are processed
// in ascending id order everywhere so that first-match-wins decisions are
// reproducible across runs on identical input.
type pipeline struct {
	photos []*catalog.Photo
	byID   map[int64]*catalog.Photo

	groups  []*cluster
	groupOf map[int64]int // photo id -> index into groups

	merges []mergeCandidate
	window int64 // burst window, seconds
}

// cluster is an in-progress group. merged points at the cluster this one was
// folded into, or -1 while it is live.
type cluster struct {
	members []int64
	conf    Confidence
	merged  int
}

// mergeCandidate records that phase 3 connected two clusters. via is the id
// of the bridge record that linked them while itself ungrouped, or 0 when
// the link came from an already-grouped record (which then counts as
// ordinary exclusive evidence in phase 4).
type mergeCandidate struct {
	a, b int
	via  int64
}

func newPipeline(photos []catalog.Photo, windowSec int64) *pipeline {
	own := make([]catalog.Photo, len(photos))
	copy(own, photos)
	sort.Slice(own, func(i, j int) bool { return own[i].ID < own[j].ID })

	p := &pipeline{
		photos:  make([]*catalog.Photo, len(own)),
		byID:    make(map[int64]*catalog.Photo, len(own)),
		groupOf: make(map[int64]int),
		window:  windowSec,
	}
	for i := range own {
		p.photos[i] = &own[i]
		p.byID[own[i].ID] = &own[i]
	}
	return p
}

func (p *pipeline) newCluster(conf Confidence, members ...int64) int {
	idx := len(p.groups)
	p.groups = append(p.groups, &cluster{members: members, conf: conf, merged: -1})
	for _, id := range members {
		p.groupOf[id] = idx
	}
	return idx
}

func (p *pipeline) addMember(idx int, id int64, conf Confidence) {
	g := p.groups[idx]
	g.members = append(g.members, id)
	g.conf = combineConfidence(g.conf, conf)
	p.groupOf[id] = idx
}

// find resolves a cluster index through the merge chain to its live root.
func (p *pipeline) find(idx int) int {
	for p.groups[idx].merged >= 0 {
		idx = p.groups[idx].merged
	}
	return idx
}

// exactPhase partitions records by content hash. Byte-identical files are
// duplicates with no thresholding needed, so these groups carry Certain
// confidence and are never second-guessed by later phases.
func (p *pipeline) exactPhase() {
	byHash := make(map[string][]int64, len(p.photos))
	var order []string
	for _, ph := range p.photos {
		if _, seen := byHash[ph.SHA256]; !seen {
			order = append(order, ph.SHA256)
		}
		byHash[ph.SHA256] = append(byHash[ph.SHA256], ph.ID)
	}
	for _, h := range order {
		if ids := byHash[h]; len(ids) >= 2 {
			p.newCluster(Certain, ids...)
		}
	}
}

// burstPhase clusters ungrouped records whose capture times fall within the
// burst window of an anchor, then uses perceptual hashes to evict visually
// distinct burst shots. Records that cannot be compared against the anchor
// (either side hashless) are retained on the timestamp signal alone.
func (p *pipeline) burstPhase() {
	var candidates []*catalog.Photo
	for _, ph := range p.photos {
		if ph.CaptureTime == 0 {
			continue
		}
		if _, grouped := p.groupOf[ph.ID]; grouped {
			continue
		}
		candidates = append(candidates, ph)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CaptureTime != b.CaptureTime {
			return a.CaptureTime < b.CaptureTime
		}
		return a.ID < b.ID
	})

	for start := 0; start < len(candidates); {
		anchor := candidates[start]
		end := start + 1
		for end < len(candidates) && candidates[end].CaptureTime-anchor.CaptureTime <= p.window {
			end++
		}

		members := []int64{anchor.ID}
		conf := Probable
		for _, ph := range candidates[start+1 : end] {
			dist, matched, comparable := consensus(anchor, ph, ProbableThreshold)
			if comparable && !matched {
				continue // distinct burst shot, not a duplicate
			}
			members = append(members, ph.ID)
			if comparable {
				c, _ := confidenceFromHamming(dist)
				conf = combineConfidence(conf, c)
			}
		}
		if len(members) >= 2 {
			p.newCluster(conf, members...)
		}
		start = end
	}
}

// indexPhase builds the Hamming-distance index over every perceptual hash in
// the snapshot and runs a range query for each hashed record. An ungrouped
// record joins the group of its nearest hit; hits that connect two distinct
// groups are recorded as merge candidates for phase 4 instead of being
// merged outright. This is the phase that unifies a RAW original with its
// perceptually-identical JPEG export.
func (p *pipeline) indexPhase() {
	var aTree, dTree BKTree
	for _, ph := range p.photos {
		if ph.AHash != nil {
			aTree.Insert(*ph.AHash, ph.ID)
		}
		if ph.DHash != nil {
			dTree.Insert(*ph.DHash, ph.ID)
		}
	}

	for _, ph := range p.photos {
		if !ph.HasPerceptualHashes() {
			continue
		}
		hits := p.queryHits(&aTree, &dTree, ph)
		if len(hits) == 0 {
			continue
		}

		_, wasGrouped := p.groupOf[ph.ID]
		var via int64
		if !wasGrouped {
			via = ph.ID
		}

		for _, h := range hits {
			self, selfGrouped := p.groupOf[ph.ID]
			if selfGrouped {
				self = p.find(self)
			}
			other, otherGrouped := p.groupOf[h.owner]
			if otherGrouped {
				other = p.find(other)
			}

			c, _ := confidenceFromHamming(h.dist)
			switch {
			case !selfGrouped && otherGrouped:
				p.addMember(other, ph.ID, c)
			case !selfGrouped && !otherGrouped:
				p.newCluster(c, ph.ID, h.owner)
			case selfGrouped && otherGrouped && self != other:
				p.merges = append(p.merges, mergeCandidate{a: self, b: other, via: via})
			}
			// selfGrouped && !otherGrouped: the hit will find this
			// record when its own turn comes; distance is symmetric.
		}
	}
}

// hit is one verified index match.
type hit struct {
	owner int64
	dist  int
}

// queryHits collects the distinct records within the probable radius of ph's
// hashes and keeps those passing the consensus rule. Results are sorted by
// (distance, owner id): the index yields in tree order, which is not stable
// across runs, and first-match-wins group joining needs a deterministic
// sequence.
func (p *pipeline) queryHits(aTree, dTree *BKTree, ph *catalog.Photo) []hit {
	seen := make(map[int64]bool)
	var hits []hit
	consider := func(owner int64) {
		if owner == ph.ID || seen[owner] {
			return
		}
		seen[owner] = true
		other := p.byID[owner]
		if dist, matched, _ := consensus(ph, other, ProbableThreshold); matched {
			hits = append(hits, hit{owner: owner, dist: dist})
		}
	}

	if ph.AHash != nil {
		for owner := range aTree.Within(*ph.AHash, ProbableThreshold) {
			consider(owner)
		}
	}
	if ph.DHash != nil {
		for owner := range dTree.Within(*ph.DHash, ProbableThreshold) {
			consider(owner)
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].owner < hits[j].owner
	})
	return hits
}

// mergePhase arbitrates the candidates phase 3 recorded. Two clusters merge
// only when a cross-pair drawn from their exclusive members — the bridge
// record that connected them does not count — passes the consensus rule.
// Without such a pair the clusters stay separate: a single visually
// ambiguous record must not transitively collapse unrelated groups.
func (p *pipeline) mergePhase() {
	for _, mc := range p.merges {
		a, b := p.find(mc.a), p.find(mc.b)
		if a == b {
			continue
		}

		bestDist, ok := p.crossPairEvidence(a, b, mc.via)
		if !ok {
			continue
		}

		ga, gb := p.groups[a], p.groups[b]
		ga.members = append(ga.members, gb.members...)
		for _, id := range gb.members {
			p.groupOf[id] = a
		}
		c, _ := confidenceFromHamming(bestDist)
		ga.conf = combineConfidence(combineConfidence(ga.conf, gb.conf), c)
		gb.merged = a
		gb.members = nil
	}
}

// crossPairEvidence looks for a consensus match between the exclusive
// members of two clusters, skipping the bridge record. Returns the best
// (smallest) matching distance found.
func (p *pipeline) crossPairEvidence(a, b int, via int64) (int, bool) {
	best, found := 0, false
	for _, idA := range p.groups[a].members {
		if idA == via {
			continue
		}
		for _, idB := range p.groups[b].members {
			if idB == via {
				continue
			}
			dist, matched, _ := consensus(p.byID[idA], p.byID[idB], ProbableThreshold)
			if matched && (!found || dist < best) {
				best, found = dist, true
			}
		}
	}
	return best, found
}

// finalize drops clusters that fell below two members, orders everything
// deterministically, and elects canonicals. Labels are freshly minted per
// run; callers comparing runs must compare member sets, not labels.
func (p *pipeline) finalize() []Group {
	out := []Group{}
	for _, g := range p.groups {
		if g.merged >= 0 || len(g.members) < 2 {
			continue
		}
		sort.Slice(g.members, func(i, j int) bool { return g.members[i] < g.members[j] })

		members := make([]*catalog.Photo, len(g.members))
		for i, id := range g.members {
			members[i] = p.byID[id]
		}
		out = append(out, Group{
			Label:       uuid.NewString(),
			Members:     members,
			CanonicalID: ElectCanonical(members).ID,
			Confidence:  g.conf,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Members[0].ID < out[j].Members[0].ID
	})
	return out
}

// consensus applies the dual-hash rule to a candidate pair at threshold t.
//
// With both hash pairs comparable, both distances must be within t and the
// reported distance is the larger of the two. With exactly one comparable
// pair the bound tightens to the high-confidence threshold: a single signal
// is never trusted out to the probable radius. With no comparable pair the
// comparison is vacuous — comparable is false and the pair can only be
// unified by exact content-hash equality.
func consensus(a, b *catalog.Photo, t int) (dist int, matched, comparable bool) {
	pairs := 0
	worst := 0
	if a.AHash != nil && b.AHash != nil {
		if d := hamming(*a.AHash, *b.AHash); d > worst {
			worst = d
		}
		pairs++
	}
	if a.DHash != nil && b.DHash != nil {
		if d := hamming(*a.DHash, *b.DHash); d > worst {
			worst = d
		}
		pairs++
	}
	switch pairs {
	case 0:
		return 0, false, false
	case 1:
		if t > HighThreshold {
			t = HighThreshold
		}
	}
	return worst, worst <= t, true
}
