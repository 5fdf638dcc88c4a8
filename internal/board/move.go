package board

import "github.com/notnil/chess"

// SameMove compares moves by origin, destination and promotion. Moves
// generated from different position values are distinct pointers.
func SameMove(a, b *chess.Move) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.S1() == b.S1() && a.S2() == b.S2() && a.Promo() == b.Promo()
}

// Contains reports whether m is one of moves.
func Contains(moves []*chess.Move, m *chess.Move) bool {
	for _, c := range moves {
		if SameMove(c, m) {
			return true
		}
	}
	return false
}

// FindMove returns the move in moves whose UCI text is uci, or nil.
func FindMove(moves []*chess.Move, uci string) *chess.Move {
	for _, m := range moves {
		if m.String() == uci {
			return m
		}
	}
	return nil
}

// CapturedPiece returns the piece type m removes from pos, including the
// pawn taken en passant, or chess.NoPieceType for quiet moves.
func CapturedPiece(pos *chess.Position, m *chess.Move) chess.PieceType {
	b := pos.Board()
	if victim := b.Piece(m.S2()); victim != chess.NoPiece {
		return victim.Type()
	}
	mover := b.Piece(m.S1())
	if mover.Type() == chess.Pawn && m.S1().File() != m.S2().File() {
		return chess.Pawn
	}
	return chess.NoPieceType
}

// IsCapture reports whether m captures anything.
func IsCapture(pos *chess.Position, m *chess.Move) bool {
	return CapturedPiece(pos, m) != chess.NoPieceType
}

// IsKingCapture reports whether m lands on the opposing king.
func IsKingCapture(pos *chess.Position, m *chess.Move) bool {
	return pos.Board().Piece(m.S2()).Type() == chess.King
}

// IsCastle reports whether m castles on either side.
func IsCastle(pos *chess.Position, m *chess.Move) bool {
	if m.HasTag(chess.KingSideCastle) || m.HasTag(chess.QueenSideCastle) {
		return true
	}
	if pos.Board().Piece(m.S1()).Type() != chess.King {
		return false
	}
	df := int(m.S2().File()) - int(m.S1().File())
	return df == 2 || df == -2
}

// IsDoublePush reports whether m advances a pawn two squares.
func IsDoublePush(pos *chess.Position, m *chess.Move) bool {
	if pos.Board().Piece(m.S1()).Type() != chess.Pawn {
		return false
	}
	dr := int(m.S2().Rank()) - int(m.S1().Rank())
	return dr == 2 || dr == -2
}

// HasCapture reports whether any of moves captures.
func HasCapture(pos *chess.Position, moves []*chess.Move) bool {
	for _, m := range moves {
		if IsCapture(pos, m) {
			return true
		}
	}
	return false
}
