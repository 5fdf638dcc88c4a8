// Package zobrist computes reproducible 64-bit fingerprints of a position
// together with the per-turn handicap state.
package zobrist

import (
	"github.com/notnil/chess"
	"golang.org/x/exp/rand"

	"github.com/hailam/drawbackchess/internal/handicap"
)

// DefaultSeed is the seed every instance uses so fingerprints agree across
// runs and machines.
const DefaultSeed uint64 = 42664

const (
	// MaxHandicapKeys bounds the handicap key table; ids wrap modulo this.
	MaxHandicapKeys = 1024
	// MaxOutcomes is the number of distinct per-turn outcomes with a key.
	MaxOutcomes = 256

	noOutcomeSlot = MaxOutcomes
)

// Castling key slots.
const (
	WhiteKingSide = iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

// Keys is the immutable key table. Create it once with NewKeys.
type Keys struct {
	pieces    [12][64]uint64
	turn      uint64
	castling  [4]uint64
	enPassant [8]uint64
	handicaps [MaxHandicapKeys]uint64
	outcomes  [MaxOutcomes + 1]uint64
}

// AuxState is the per-turn state that is not part of the board.
type AuxState struct {
	// Handicap is the rule of the side to move.
	Handicap handicap.ID
	// Outcome is the pending random draw for this turn, or NoOutcome.
	Outcome handicap.Outcome
}

// NewKeys generates a key table from seed. The same seed always yields the
// same table.
func NewKeys(seed uint64) *Keys {
	rng := rand.New(rand.NewSource(seed))
	k := &Keys{}

	for p := range k.pieces {
		for sq := range k.pieces[p] {
			k.pieces[p][sq] = rng.Uint64()
		}
	}
	k.turn = rng.Uint64()
	for i := range k.castling {
		k.castling[i] = rng.Uint64()
	}
	for i := range k.enPassant {
		k.enPassant[i] = rng.Uint64()
	}
	for i := range k.handicaps {
		k.handicaps[i] = rng.Uint64()
	}
	for i := range k.outcomes {
		k.outcomes[i] = rng.Uint64()
	}
	return k
}

// pieceIndex maps a piece to 0..11, white pieces first.
func pieceIndex(p chess.Piece) int {
	var idx int
	switch p.Type() {
	case chess.Pawn:
		idx = 0
	case chess.Knight:
		idx = 1
	case chess.Bishop:
		idx = 2
	case chess.Rook:
		idx = 3
	case chess.Queen:
		idx = 4
	case chess.King:
		idx = 5
	}
	if p.Color() == chess.Black {
		idx += 6
	}
	return idx
}

// Hash fingerprints pos with aux.
func (k *Keys) Hash(pos *chess.Position, aux AuxState) uint64 {
	var h uint64

	b := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		h ^= k.pieces[pieceIndex(p)][sq]
	}

	if pos.Turn() == chess.Black {
		h ^= k.turn
	}

	cr := pos.CastleRights()
	if cr.CanCastle(chess.White, chess.KingSide) {
		h ^= k.castling[WhiteKingSide]
	}
	if cr.CanCastle(chess.White, chess.QueenSide) {
		h ^= k.castling[WhiteQueenSide]
	}
	if cr.CanCastle(chess.Black, chess.KingSide) {
		h ^= k.castling[BlackKingSide]
	}
	if cr.CanCastle(chess.Black, chess.QueenSide) {
		h ^= k.castling[BlackQueenSide]
	}

	if file, ok := enPassantFile(pos); ok {
		h ^= k.enPassant[file]
	}

	h ^= k.handicaps[int(aux.Handicap)%MaxHandicapKeys]

	if aux.Outcome >= 0 && int(aux.Outcome) < MaxOutcomes {
		h ^= k.outcomes[aux.Outcome]
	} else {
		h ^= k.outcomes[noOutcomeSlot]
	}
	return h
}

// enPassantFile returns the en passant file only when a capture onto it is
// actually available, so a double push with no adjacent enemy pawn does not
// split otherwise identical positions.
func enPassantFile(pos *chess.Position) (chess.File, bool) {
	ep := pos.EnPassantSquare()
	if ep == chess.NoSquare {
		return 0, false
	}
	for _, m := range pos.ValidMoves() {
		if m.S2() == ep && m.HasTag(chess.EnPassant) {
			return ep.File(), true
		}
	}
	return 0, false
}
