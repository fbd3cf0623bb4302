package scheduling

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Scoring weights used when no override is configured.
const (
	DefaultCoverageWeight   = 0.80
	DefaultSpecialtyBonus   = 0.15
	DefaultCollisionPenalty = 1.0
	DefaultLoadPenalty      = 0.10
	DefaultLoadCeiling      = 1.10
)

// ReasonNoCandidate marks a group that no teacher could take.
const ReasonNoCandidate = "no_candidate"

// Weights tunes the candidate score.
type Weights struct {
	Coverage    float64
	Specialty   float64
	Collision   float64
	Load        float64
	LoadCeiling float64
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Coverage:    DefaultCoverageWeight,
		Specialty:   DefaultSpecialtyBonus,
		Collision:   DefaultCollisionPenalty,
		Load:        DefaultLoadPenalty,
		LoadCeiling: DefaultLoadCeiling,
	}
}

// GroupDemand is the optimizer's view of a group.
type GroupDemand struct {
	GroupID        string
	Label          string
	CourseName     string
	Cells          CellSet
	RequiredBlocks int
}

// Candidate is one scored (group, teacher) pairing.
type Candidate struct {
	TeacherID      string  `json:"teacher_id"`
	TeacherName    string  `json:"teacher_name"`
	CoverageBlocks int     `json:"coverage_blocks"`
	GroupBlocks    int     `json:"group_blocks"`
	CoverageRatio  float64 `json:"coverage_ratio"`
	Specialist     bool    `json:"specialist"`
	Collision      bool    `json:"collision"`
	Load           int     `json:"load"`
	MaxLoad        int     `json:"max_load"`
	Score          float64 `json:"score"`
	Reason         string  `json:"reason"`
}

// OptimizerOptions configures an Optimizer.
type OptimizerOptions struct {
	Weights          Weights
	PreferSpecialty  bool
	RequireSpecialty bool
}

// OptimizerResult is the best assignment found by Solve. Assignments maps
// every input group to its chosen candidate or nil for no candidate.
type OptimizerResult struct {
	Assignments   map[string]*Candidate
	Order         []string
	Score         float64
	NodesExplored int
	Pruned        int
}

// Optimizer assigns at most one teacher per group by branch-and-bound.
type Optimizer struct {
	opts OptimizerOptions
}

// NewOptimizer builds an optimizer. Zero weights fall back to the defaults.
func NewOptimizer(opts OptimizerOptions) *Optimizer {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if opts.Weights.LoadCeiling <= 0 {
		opts.Weights.LoadCeiling = DefaultLoadCeiling
	}
	return &Optimizer{opts: opts}
}

// IsSpecialist reports whether a specialty mentions the first word of the
// course name, ignoring case. Missing data never matches.
func IsSpecialist(specialty, courseName string) bool {
	words := strings.Fields(courseName)
	if len(words) == 0 || strings.TrimSpace(specialty) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(specialty), strings.ToLower(words[0]))
}

// Candidates scores every eligible teacher for a group, best first.
func (o *Optimizer) Candidates(group GroupDemand, teachers []TeacherProfile, idx *AvailabilityIndex) []Candidate {
	w := o.opts.Weights
	total := len(group.Cells)
	out := make([]Candidate, 0, len(teachers))

	for _, t := range teachers {
		specialist := IsSpecialist(t.Specialty, group.CourseName)
		if o.opts.RequireSpecialty && !specialist {
			continue
		}
		ta := idx.For(t.ID)
		occupied, load := idx.Excluding(t.ID, group.GroupID)

		coverage := 0
		ratio := 0.0
		if total > 0 {
			coverage = group.Cells.IntersectCount(ta.Available)
			ratio = float64(coverage) / float64(total)
		}
		collision := group.Cells.Intersects(occupied)

		score := w.Coverage * ratio
		if o.opts.PreferSpecialty && specialist {
			score += w.Specialty
		}
		if collision {
			score -= w.Collision
		}
		score -= w.Load * loadStress(load, t.MaxLoad)

		reason := fmt.Sprintf("coverage=%.0f%%", ratio*100)
		if collision {
			reason += " collision"
		}

		out = append(out, Candidate{
			TeacherID:      t.ID,
			TeacherName:    t.FullName,
			CoverageBlocks: coverage,
			GroupBlocks:    total,
			CoverageRatio:  ratio,
			Specialist:     specialist,
			Collision:      collision,
			Load:           load,
			MaxLoad:        t.MaxLoad,
			Score:          score,
			Reason:         reason,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return candidateBefore(out[i], out[j])
	})
	return out
}

// candidateBefore orders candidates by score, covered blocks and group
// blocks, all descending, then by load ascending and teacher id.
func candidateBefore(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.CoverageBlocks != b.CoverageBlocks {
		return a.CoverageBlocks > b.CoverageBlocks
	}
	if a.GroupBlocks != b.GroupBlocks {
		return a.GroupBlocks > b.GroupBlocks
	}
	if a.Load != b.Load {
		return a.Load < b.Load
	}
	return a.TeacherID < b.TeacherID
}

// loadStress is min(1, load/max(1, maxLoad)); an unset maximum never stresses.
func loadStress(load, maxLoad int) float64 {
	if maxLoad <= 0 {
		return 0
	}
	return math.Min(1, float64(load)/float64(maxLoad))
}

// Solve runs the branch-and-bound search over all groups.
func (o *Optimizer) Solve(groups []GroupDemand, teachers []TeacherProfile, idx *AvailabilityIndex) OptimizerResult {
	state := newSearchState(idx, o.opts.Weights.LoadCeiling)
	for _, t := range teachers {
		state.maxLoads[t.ID] = t.MaxLoad
	}

	for _, g := range groups {
		state.nodes = append(state.nodes, searchGroup{
			demand:     g,
			candidates: o.Candidates(g, teachers, idx),
		})
	}
	state.orderNodes()
	state.computeBounds()
	state.search(0, 0)

	result := OptimizerResult{
		Assignments:   make(map[string]*Candidate, len(groups)),
		Order:         make([]string, len(state.nodes)),
		Score:         state.bestScore,
		NodesExplored: state.explored,
		Pruned:        state.pruned,
	}
	for i, n := range state.nodes {
		result.Order[i] = n.demand.GroupID
		result.Assignments[n.demand.GroupID] = state.best[i]
	}
	return result
}

type searchGroup struct {
	demand     GroupDemand
	candidates []Candidate
}

func (g searchGroup) topScore() float64 {
	if len(g.candidates) == 0 {
		return 0
	}
	return g.candidates[0].Score
}

// searchState owns every mutable value of one branch-and-bound run.
type searchState struct {
	nodes    []searchGroup
	idx      *AvailabilityIndex
	maxLoads map[string]int
	ceiling  float64

	// remaining[i] is the optimistic score still reachable from nodes[i:].
	remaining []float64

	current   []*Candidate
	best      []*Candidate
	bestScore float64
	explored  int
	pruned    int
}

func newSearchState(idx *AvailabilityIndex, ceiling float64) *searchState {
	return &searchState{
		idx:       idx,
		maxLoads:  make(map[string]int),
		ceiling:   ceiling,
		bestScore: math.Inf(-1),
	}
}

// orderNodes puts the most constrained groups first.
func (s *searchState) orderNodes() {
	sort.SliceStable(s.nodes, func(i, j int) bool {
		ci, cj := candidateRank(s.nodes[i]), candidateRank(s.nodes[j])
		if ci != cj {
			return ci < cj
		}
		return s.nodes[i].topScore() > s.nodes[j].topScore()
	})
	s.current = make([]*Candidate, len(s.nodes))
	s.best = make([]*Candidate, len(s.nodes))
}

func candidateRank(g searchGroup) int {
	if len(g.candidates) == 0 {
		return math.MaxInt32
	}
	return len(g.candidates)
}

// computeBounds uses max(top, 0) per group: a group may fall back to the
// zero-score leaf, so the top score alone would not bound it from above.
func (s *searchState) computeBounds() {
	s.remaining = make([]float64, len(s.nodes)+1)
	for i := len(s.nodes) - 1; i >= 0; i-- {
		s.remaining[i] = s.remaining[i+1] + math.Max(s.nodes[i].topScore(), 0)
	}
}

func (s *searchState) search(i int, score float64) {
	s.explored++

	if i == len(s.nodes) {
		if score > s.bestScore {
			s.bestScore = score
			copy(s.best, s.current)
		}
		return
	}

	if score+s.remaining[i] <= s.bestScore {
		s.pruned++
		return
	}

	node := s.nodes[i]
	anyCoverage := false
	for k := range node.candidates {
		if node.candidates[k].CoverageBlocks > 0 && s.admissible(node.demand, &node.candidates[k]) {
			anyCoverage = true
			break
		}
	}

	// Zero coverage is only taken when no admissible sibling covers anything.
	placed := false
	for k := range node.candidates {
		cand := &node.candidates[k]
		if !s.admissible(node.demand, cand) || (cand.CoverageBlocks == 0 && anyCoverage) {
			continue
		}
		placed = true
		s.current[i] = cand
		s.search(i+1, score+cand.Score)
		s.current[i] = nil
	}

	if !placed {
		s.current[i] = nil
		s.search(i+1, score)
	}
}

// admissible rejects collisions with cells the teacher occupies outside the
// group and loads above the soft ceiling.
func (s *searchState) admissible(group GroupDemand, cand *Candidate) bool {
	occupied, load := s.idx.Excluding(cand.TeacherID, group.GroupID)
	if group.Cells.Intersects(occupied) {
		return false
	}
	maxLoad := s.maxLoads[cand.TeacherID]
	if maxLoad <= 0 {
		return true
	}
	return float64(load+group.RequiredBlocks) <= float64(maxLoad)*s.ceiling
}
