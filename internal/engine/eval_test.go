package engine

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/hailam/drawbackchess/internal/board"
)

// mirror flips the board vertically and swaps piece colors, keeping the
// side to move.
func mirror(t *testing.T, pos *chess.Position) *chess.Position {
	t.Helper()
	squares := make(map[chess.Square]chess.Piece)
	for sq, p := range pos.Board().SquareMap() {
		flipped := chess.NewSquare(sq.File(), chess.Rank(7-int(sq.Rank())))
		squares[flipped] = chess.NewPiece(p.Type(), p.Color().Other())
	}
	fen := chess.NewBoard(squares).String() + " " + pos.Turn().String() + " - - 0 1"
	return mustParse(t, fen)
}

func TestGamePhase(t *testing.T) {
	start := board.StartPosition()
	require.Equal(t, 0.0, GamePhase(start))

	bare := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	require.Equal(t, 1.0, GamePhase(bare))

	pawns := mustParse(t, "4k3/pppppppp/8/8/8/8/PPPPPPPP/4K3 w - - 0 1")
	require.Equal(t, 1.0, GamePhase(pawns))

	noKnight := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/R1BQKBNR w KQkq - 0 1")
	require.InDelta(t, 1.0/24, GamePhase(noKnight), 1e-9)
}

func TestGamePhaseMonotonic(t *testing.T) {
	// Each position removes one more non-pawn, non-king piece.
	sequence := []string{
		"rqbqkbqr/pppppppp/8/8/8/8/PPPPPPPP/RQBQKBQR w - - 0 1", // above the cap
		"rqbqkbqr/pppppppp/8/8/8/8/PPPPPPPP/R1BQKBQR w - - 0 1",
		board.StartFEN,
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/R1BQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/R1B1KBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/R3KBNR w KQkq - 0 1",
		"rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/R3KBNR w KQkq - 0 1",
		"4kbnr/pppppppp/8/8/8/8/PPPPPPPP/4K3 w - - 0 1",
		"4k3/pppppppp/8/8/8/8/PPPPPPPP/4K3 w - - 0 1",
	}
	prev := -1.0
	for _, fen := range sequence {
		phase := GamePhase(mustParse(t, fen))
		require.GreaterOrEqual(t, phase, prev, fen)
		require.GreaterOrEqual(t, phase, 0.0)
		require.LessOrEqual(t, phase, 1.0)
		prev = phase
	}
}

func TestEvaluateAntisymmetric(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 4 4",
		"8/5k2/8/3P4/8/8/1K6/7R w - - 0 1",
		"4k3/8/8/8/8/8/4P3/4K3 b - - 0 1",
		"r4rk1/1pp2ppp/p1n5/3qp3/8/2NP1N2/PPP2PPP/R2Q1RK1 w - - 0 12",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos := mustParse(t, fen)
			mirrored := mirror(t, pos)
			got, want := Evaluate(mirrored), -Evaluate(pos)
			require.Equal(t, want, got)
		})
	}

	require.Zero(t, Evaluate(board.StartPosition()))
}

func TestEvaluatePerspective(t *testing.T) {
	whiteToMove := mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	blackToMove := mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 b - - 0 1")

	require.Greater(t, Evaluate(whiteToMove), 800)
	require.Equal(t, -Evaluate(whiteToMove), Evaluate(blackToMove))
}

func TestEvaluateUsesSquareTables(t *testing.T) {
	// A centralised knight is worth more than one in the corner.
	center := mustParse(t, "4k3/8/8/8/3N4/8/8/4K3 w - - 0 1")
	corner := mustParse(t, "4k3/8/8/8/8/8/8/N3K3 w - - 0 1")
	require.Greater(t, Evaluate(center), Evaluate(corner))

	// An advanced pawn is worth more than one at home.
	advanced := mustParse(t, "4k3/8/4P3/8/8/8/8/4K3 w - - 0 1")
	home := mustParse(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	require.Greater(t, Evaluate(advanced), Evaluate(home))
}

func TestMaterial(t *testing.T) {
	start := board.StartPosition()
	want := 8*94 + 2*337 + 2*365 + 2*479 + 1025
	require.Equal(t, want, Material(start, chess.White))
	require.Equal(t, want, Material(start, chess.Black))
	require.Zero(t, Material(mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"), chess.White))
}
