package zobrist

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/handicap"
)

var noAux = AuxState{Handicap: handicap.None, Outcome: handicap.NoOutcome}

func mustParse(t *testing.T, fen string) *chess.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	require.NoError(t, err)
	return pos
}

func play(t *testing.T, pos *chess.Position, moves ...string) *chess.Position {
	t.Helper()
	for _, uci := range moves {
		m := board.FindMove(pos.ValidMoves(), uci)
		require.NotNil(t, m, uci)
		pos = pos.Update(m)
	}
	return pos
}

func TestNewKeysDeterministic(t *testing.T) {
	a := NewKeys(DefaultSeed)
	b := NewKeys(DefaultSeed)
	require.Equal(t, *a, *b)

	c := NewKeys(DefaultSeed + 1)
	require.NotEqual(t, a.turn, c.turn)

	pos := board.StartPosition()
	require.Equal(t, a.Hash(pos, noAux), b.Hash(pos, noAux))
}

func TestHash(t *testing.T) {
	keys := NewKeys(DefaultSeed)
	start := board.StartPosition()
	base := keys.Hash(start, noAux)

	t.Run("pure", func(t *testing.T) {
		require.Equal(t, base, keys.Hash(start, noAux))
		require.Equal(t, base, keys.Hash(board.Snapshot(start), noAux))
	})

	t.Run("side to move changes the hash", func(t *testing.T) {
		white := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
		black := mustParse(t, "4k3/8/8/8/8/8/8/4K3 b - - 0 1")
		require.NotEqual(t, keys.Hash(white, noAux), keys.Hash(black, noAux))
		require.Equal(t, keys.Hash(white, noAux)^keys.turn, keys.Hash(black, noAux))
	})

	t.Run("transpositions agree", func(t *testing.T) {
		back := play(t, start, "g1f3", "g8f6", "f3g1", "f6g8")
		require.Equal(t, base, keys.Hash(back, noAux))
	})

	t.Run("castling rights", func(t *testing.T) {
		all := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		some := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1")
		none := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1")
		require.Equal(t, keys.Hash(none, noAux)^keys.castling[WhiteKingSide]^keys.castling[BlackQueenSide], keys.Hash(some, noAux))
		require.NotEqual(t, keys.Hash(all, noAux), keys.Hash(some, noAux))
	})

	t.Run("en passant only when capturable", func(t *testing.T) {
		unusable := mustParse(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
		plain := mustParse(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
		require.Equal(t, keys.Hash(plain, noAux), keys.Hash(unusable, noAux))

		usable := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
		gone := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - - 0 2")
		require.Equal(t, keys.Hash(gone, noAux)^keys.enPassant[chess.FileD], keys.Hash(usable, noAux))
	})

	t.Run("handicap and outcome", func(t *testing.T) {
		withRule := keys.Hash(start, AuxState{Handicap: handicap.BlockRandomFile, Outcome: handicap.NoOutcome})
		require.NotEqual(t, base, withRule)

		wrapped := keys.Hash(start, AuxState{Handicap: handicap.BlockRandomFile + MaxHandicapKeys, Outcome: handicap.NoOutcome})
		require.Equal(t, withRule, wrapped)

		o0 := keys.Hash(start, AuxState{Handicap: handicap.BlockRandomFile, Outcome: 0})
		o1 := keys.Hash(start, AuxState{Handicap: handicap.BlockRandomFile, Outcome: 1})
		require.NotEqual(t, withRule, o0)
		require.NotEqual(t, o0, o1)
		require.Equal(t, withRule^keys.outcomes[noOutcomeSlot]^keys.outcomes[0], o0)
	})
}
