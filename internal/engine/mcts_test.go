package engine

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/handicap"
)

func buildTree(t *testing.T, sc SearchContext, iterations int) *tree {
	t.Helper()
	legal := sc.PlayerHandicap.Filter(sc.Position, sc.Position.ValidMoves(), sc.Outcome)
	tr := newTree(&sc, legal, newRNG(sc.Seed))
	for i := 0; i < iterations; i++ {
		tr.iterate()
	}
	return tr
}

func TestMCTSVisitConservation(t *testing.T) {
	sc := quickContext(board.StartPosition(), rule(handicap.None), rule(handicap.None), handicap.NoOutcome)
	sc.DepthLimit = 2
	const iterations = 150
	tr := buildTree(t, sc, iterations)

	require.Equal(t, iterations, tr.nodes[0].visits)

	for i, n := range tr.nodes {
		sum := 0
		for _, c := range n.children {
			sum += tr.nodes[c].visits
		}
		if len(n.children) > 0 {
			// One simulation ran from the node itself before it expanded.
			require.Equal(t, n.visits, sum+1, "node %d", i)
		}
		require.GreaterOrEqual(t, n.score, 0.0)
		require.LessOrEqual(t, n.score, float64(n.visits))
	}
}

func TestMCTSRootMovesAreFiltered(t *testing.T) {
	pos := mustParse(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	sc := quickContext(pos, rule(handicap.NoCastling), rule(handicap.None), handicap.NoOutcome)
	tr := buildTree(t, sc, 200)

	root := tr.nodes[0]
	legal := rule(handicap.NoCastling).Filter(pos, pos.ValidMoves(), handicap.NoOutcome)
	require.Equal(t, len(legal), len(root.untried)+len(root.children))
	for _, c := range root.children {
		m := tr.nodes[c].move
		require.True(t, board.Contains(legal, m))
		require.False(t, board.IsCastle(pos, m))
	}
}

func TestMCTSTerminalScores(t *testing.T) {
	tr := &tree{us: chess.White}
	require.Equal(t, 1.0, tr.terminalScore(Verdict{Status: KingCaptured, Winner: chess.White}))
	require.Equal(t, 0.0, tr.terminalScore(Verdict{Status: Checkmate, Winner: chess.Black}))
	require.Equal(t, 0.5, tr.terminalScore(Verdict{Status: Stalemate, Winner: chess.NoColor}))

	require.Equal(t, 0.5, tr.materialScore(board.StartPosition()))
	require.Equal(t, 1.0, tr.materialScore(mustParse(t, "4k3/8/8/8/8/8/8/R3K3 b - - 0 1")))
	require.Equal(t, 0.5, tr.materialScore(mustParse(t, "4k3/8/8/8/8/8/8/4K3 b - - 0 1")))
	score := tr.materialScore(mustParse(t, "3qk3/8/8/8/8/8/8/R3K3 w - - 0 1"))
	require.Greater(t, score, 0.0)
	require.Less(t, score, 0.5)
}

func TestMCTSFindsMateInOne(t *testing.T) {
	// Qh5xf7 is mate.
	pos := mustParse(t, "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4")
	sc := quickContext(pos, rule(handicap.None), rule(handicap.None), handicap.NoOutcome)
	sc.IterationLimit = 3000
	sc.TimeLimit = 0
	sc.DepthLimit = 2
	sc.QuiescenceDepth = 0

	tr := buildTree(t, sc, sc.IterationLimit)
	best := tr.bestChild()
	require.GreaterOrEqual(t, best, 0)
	require.Equal(t, "h5f7", tr.nodes[best].move.String())
	v, _ := Classify(tr.nodes[best].pos, rule(handicap.None), handicap.NoOutcome)
	require.Equal(t, Checkmate, v.Status)
}

func TestMCTSRolloutDrawsOutcomes(t *testing.T) {
	// Black's random-file rule is active in every simulated black turn;
	// the rollout must still terminate and score inside [0,1].
	sc := quickContext(board.StartPosition(), rule(handicap.None), rule(handicap.BlockRandomFile), handicap.NoOutcome)
	sc.QuiescenceDepth = 4
	tr := buildTree(t, sc, 1)
	for i := 0; i < 25; i++ {
		s := tr.rollout(board.StartPosition())
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
}
