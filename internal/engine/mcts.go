package engine

import (
	"context"
	"math"

	"github.com/notnil/chess"
	"golang.org/x/exp/rand"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/handicap"
)

// explorationConstant is the UCT exploration weight.
const explorationConstant = 1.4

// node is one arena entry. Children are arena indices; there are no parent
// links, backpropagation replays the path recorded during selection.
type node struct {
	move     *chess.Move
	pos      *chess.Position
	verdict  Verdict
	untried  []*chess.Move
	children []int
	visits   int
	score    float64 // sum of results from the root mover's perspective
}

// tree is a search tree owned by a single searchMCTS call.
type tree struct {
	nodes  []node
	sc     *SearchContext
	us     chess.Color
	rng    *rand.Rand
	depth  int
	qdepth int
}

func newTree(sc *SearchContext, legal []*chess.Move, rng *rand.Rand) *tree {
	t := &tree{
		sc:    sc,
		us:    sc.Position.Turn(),
		rng:   rng,
		depth: sc.depthLimit(),
	}
	if sc.CheckQuietness && sc.QuiescenceDepth > 0 {
		t.qdepth = sc.QuiescenceDepth
	}
	// The root's moves are the player's filtered set for this turn's
	// outcome; deeper nodes use no outcome.
	t.nodes = append(t.nodes, node{
		pos:     sc.Position,
		verdict: Verdict{Status: Ongoing, Winner: chess.NoColor},
		untried: append([]*chess.Move(nil), legal...),
	})
	return t
}

// searchMCTS runs select/expand/simulate/backpropagate until the budget is
// spent and returns the most visited root child.
func searchMCTS(ctx context.Context, sc *SearchContext, legal []*chess.Move, tm *TimeManager, rng *rand.Rand) Result {
	t := newTree(sc, legal, rng)
	iterations := 0
	for !tm.ShouldStop(ctx, iterations) {
		t.iterate()
		iterations++
	}

	root := &t.nodes[0]
	info := SearchInfo{Iterations: iterations, RootVisits: root.visits}

	best := t.bestChild()
	if best < 0 {
		if len(root.untried) == 0 {
			return Result{Info: info}
		}
		return Result{Move: root.untried[rng.Intn(len(root.untried))], Info: info}
	}
	child := &t.nodes[best]
	info.Score = child.score / float64(child.visits)
	return Result{Move: child.move, Info: info}
}

// iterate performs one simulation.
func (t *tree) iterate() {
	path := []int{0}
	cur := 0

	// Selection
	for {
		n := &t.nodes[cur]
		if n.verdict.Over() || len(n.untried) > 0 || len(n.children) == 0 {
			break
		}
		cur = t.selectChild(cur)
		path = append(path, cur)
	}

	// Expansion
	if n := &t.nodes[cur]; !n.verdict.Over() && n.visits > 0 && len(n.untried) > 0 {
		cur = t.expand(cur)
		path = append(path, cur)
	}

	// Simulation
	var result float64
	if n := &t.nodes[cur]; n.verdict.Over() {
		result = t.terminalScore(n.verdict)
	} else {
		result = t.rollout(n.pos)
	}

	// Backpropagation
	for _, idx := range path {
		t.nodes[idx].visits++
		t.nodes[idx].score += result
	}
}

// selectChild picks the child of parent with the highest UCT value, ties
// broken at random. Exploitation is seen from the side choosing at parent.
func (t *tree) selectChild(parent int) int {
	p := &t.nodes[parent]
	ours := p.pos.Turn() == t.us
	logN := math.Log(float64(p.visits))

	bestValue := math.Inf(-1)
	var ties []int
	for _, c := range p.children {
		child := &t.nodes[c]
		var value float64
		if child.visits == 0 {
			value = math.Inf(1)
		} else {
			mean := child.score / float64(child.visits)
			if !ours {
				mean = 1 - mean
			}
			value = mean + explorationConstant*math.Sqrt(logN/float64(child.visits))
		}
		switch {
		case value > bestValue:
			bestValue = value
			ties = append(ties[:0], c)
		case value == bestValue:
			ties = append(ties, c)
		}
	}
	return ties[t.rng.Intn(len(ties))]
}

// expand adds one random untried move of parent as a new child.
func (t *tree) expand(parent int) int {
	p := &t.nodes[parent]
	i := t.rng.Intn(len(p.untried))
	move := p.untried[i]
	last := len(p.untried) - 1
	p.untried[i] = p.untried[last]
	p.untried = p.untried[:last]

	pos := p.pos.Update(move)
	verdict, moves := Classify(pos, t.sc.ruleFor(pos.Turn()), handicap.NoOutcome)

	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{
		move:    move,
		pos:     pos,
		verdict: verdict,
		untried: moves,
	})
	// The append may have moved the arena.
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

// rollout plays random moves from pos and scores where it stops.
func (t *tree) rollout(pos *chess.Position) float64 {
	for ply := 0; ; ply++ {
		rule := t.sc.ruleFor(pos.Turn())
		verdict, moves := Classify(pos, rule, rule.DrawOutcome(t.rng))
		if verdict.Over() {
			return t.terminalScore(verdict)
		}
		if ply >= t.depth {
			if ply >= t.depth+t.qdepth || !t.sc.CheckQuietness || quiet(pos, moves) {
				return t.materialScore(pos)
			}
		}
		pos = pos.Update(moves[t.rng.Intn(len(moves))])
	}
}

// quiet reports whether the side to move is out of check with no capture
// available.
func quiet(pos *chess.Position, moves []*chess.Move) bool {
	return !board.InCheck(pos) && !board.HasCapture(pos, moves)
}

func (t *tree) terminalScore(v Verdict) float64 {
	switch v.Winner {
	case t.us:
		return 1
	case chess.NoColor:
		return 0.5
	default:
		return 0
	}
}

// materialScore is the root mover's share of the material on the board.
func (t *tree) materialScore(pos *chess.Position) float64 {
	own := Material(pos, t.us)
	opp := Material(pos, t.us.Other())
	if own+opp == 0 {
		return 0.5
	}
	return math.Max(0, math.Min(1, float64(own)/float64(own+opp)))
}

// bestChild returns the most visited root child, or -1 if there is none.
func (t *tree) bestChild() int {
	best, visits := -1, -1
	for _, c := range t.nodes[0].children {
		if t.nodes[c].visits > visits {
			best, visits = c, t.nodes[c].visits
		}
	}
	return best
}
