package board

import "github.com/notnil/chess"

var (
	knightJumps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// offset returns the square df files and dr ranks away from sq.
func offset(sq chess.Square, df, dr int) (chess.Square, bool) {
	f := int(sq.File()) + df
	r := int(sq.Rank()) + dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return chess.NoSquare, false
	}
	return chess.NewSquare(chess.File(f), chess.Rank(r)), true
}

// KingSquare finds the king of color c. The second result is false when the
// king has been captured.
func KingSquare(b *chess.Board, c chess.Color) (chess.Square, bool) {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p.Type() == chess.King && p.Color() == c {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

// Attacked reports whether any piece of color by attacks sq.
func Attacked(b *chess.Board, sq chess.Square, by chess.Color) bool {
	// Pawns attack diagonally forward, so look one rank behind sq from the
	// attacker's point of view.
	dir := -1
	if by == chess.Black {
		dir = 1
	}
	for _, df := range [2]int{-1, 1} {
		if from, ok := offset(sq, df, dir); ok {
			if p := b.Piece(from); p.Color() == by && p.Type() == chess.Pawn {
				return true
			}
		}
	}

	for _, j := range knightJumps {
		if from, ok := offset(sq, j[0], j[1]); ok {
			if p := b.Piece(from); p.Color() == by && p.Type() == chess.Knight {
				return true
			}
		}
	}

	for _, s := range kingSteps {
		if from, ok := offset(sq, s[0], s[1]); ok {
			if p := b.Piece(from); p.Color() == by && p.Type() == chess.King {
				return true
			}
		}
	}

	if rayAttack(b, sq, by, rookRays[:], chess.Rook) {
		return true
	}
	return rayAttack(b, sq, by, bishopRays[:], chess.Bishop)
}

func rayAttack(b *chess.Board, sq chess.Square, by chess.Color, rays [][2]int, slider chess.PieceType) bool {
	for _, ray := range rays {
		cur := sq
		for {
			next, ok := offset(cur, ray[0], ray[1])
			if !ok {
				break
			}
			cur = next
			p := b.Piece(cur)
			if p == chess.NoPiece {
				continue
			}
			if p.Color() == by && (p.Type() == slider || p.Type() == chess.Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether the side to move has its king attacked.
// A side without a king is never in check.
func InCheck(pos *chess.Position) bool {
	b := pos.Board()
	us := pos.Turn()
	ksq, ok := KingSquare(b, us)
	if !ok {
		return false
	}
	return Attacked(b, ksq, us.Other())
}
