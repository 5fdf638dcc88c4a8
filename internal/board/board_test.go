package board

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, fen string) *chess.Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	require.NoError(t, err)
	return pos
}

func TestParseFEN(t *testing.T) {
	t.Run("start position round trips", func(t *testing.T) {
		pos := mustParse(t, StartFEN)
		require.Equal(t, StartFEN, pos.String())
		require.Equal(t, chess.White, pos.Turn())
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := ParseFEN("not a fen")
		require.ErrorIs(t, err, ErrInvalidFEN)
	})

	t.Run("snapshot is equal but distinct", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 3 20")
		cp := Snapshot(pos)
		require.NotSame(t, pos, cp)
		require.Equal(t, pos.String(), cp.String())
	})
}

func TestInCheck(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want bool
	}{
		{"start", StartFEN, false},
		{"rook on open file", "4k3/8/8/8/8/8/8/4R1K1 b - - 0 1", true},
		{"rook blocked", "4k3/8/8/4p3/8/8/8/4R1K1 b - - 0 1", false},
		{"bishop diagonal", "4k3/8/8/1B6/8/8/8/6K1 b - - 0 1", true},
		{"queen diagonal", "4k3/8/8/8/Q7/8/8/6K1 b - - 0 1", true},
		{"knight", "4k3/8/3N4/8/8/8/8/6K1 b - - 0 1", true},
		{"white pawn", "4k3/3P4/8/8/8/8/8/6K1 b - - 0 1", true},
		{"pawn does not attack backwards", "8/8/8/4P3/3k4/8/8/6K1 b - - 0 1", false},
		{"black pawn", "6k1/8/8/8/8/8/5p2/4K3 w - - 0 1", true},
		{"missing king", "8/8/8/8/8/8/8/R5K1 b - - 0 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, InCheck(mustParse(t, tt.fen)))
		})
	}
}

func TestKingSquare(t *testing.T) {
	pos := mustParse(t, StartFEN)
	sq, ok := KingSquare(pos.Board(), chess.Black)
	require.True(t, ok)
	require.Equal(t, chess.E8, sq)

	_, ok = KingSquare(mustParse(t, "8/8/8/8/8/8/8/R5K1 b - - 0 1").Board(), chess.Black)
	require.False(t, ok)
}

func TestMoveClassification(t *testing.T) {
	t.Run("double push and castle", func(t *testing.T) {
		pos := mustParse(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
		moves := pos.ValidMoves()

		e4 := FindMove(moves, "e2e4")
		require.NotNil(t, e4)
		require.True(t, IsDoublePush(pos, e4))
		require.False(t, IsDoublePush(pos, FindMove(moves, "e2e3")))

		castle := FindMove(moves, "e1g1")
		require.NotNil(t, castle)
		require.True(t, IsCastle(pos, castle))
		require.True(t, IsCastle(pos, FindMove(moves, "e1c1")))
		require.False(t, IsCastle(pos, FindMove(moves, "e1f1")))
	})

	t.Run("en passant counts as a pawn capture", func(t *testing.T) {
		pos := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
		ep := FindMove(pos.ValidMoves(), "e5d6")
		require.NotNil(t, ep)
		require.Equal(t, chess.Pawn, CapturedPiece(pos, ep))
		require.True(t, IsCapture(pos, ep))
	})

	t.Run("king capture", func(t *testing.T) {
		pos := mustParse(t, "k7/8/8/8/8/8/8/R3K3 w - - 0 1")
		m := FindMove(pos.ValidMoves(), "a1a8")
		require.NotNil(t, m)
		require.True(t, IsKingCapture(pos, m))
		require.Equal(t, chess.King, CapturedPiece(pos, m))
	})

	t.Run("same move ignores pointer identity", func(t *testing.T) {
		a := FindMove(StartPosition().ValidMoves(), "g1f3")
		b := FindMove(StartPosition().ValidMoves(), "g1f3")
		require.True(t, SameMove(a, b))
		require.True(t, Contains(StartPosition().ValidMoves(), a))
		require.False(t, HasCapture(StartPosition(), StartPosition().ValidMoves()))
	})
}
