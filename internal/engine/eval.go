// Package engine implements move search for Drawback Chess: a one-ply
// heuristic scorer, a Monte Carlo Tree Search and a random mover, all
// respecting each side's handicap.
package engine

import (
	"github.com/notnil/chess"
)

// Phase weights per piece type. A full board sums to maxPhase.
const maxPhase = 24

// Midgame and endgame base values.
var (
	mgValue = map[chess.PieceType]int{
		chess.Pawn: 94, chess.Knight: 337, chess.Bishop: 365,
		chess.Rook: 479, chess.Queen: 1025, chess.King: 10000,
	}
	egValue = map[chess.PieceType]int{
		chess.Pawn: 100, chess.Knight: 281, chess.Bishop: 297,
		chess.Rook: 512, chess.Queen: 929, chess.King: 10000,
	}
	phaseWeight = map[chess.PieceType]int{
		chess.Knight: 1, chess.Bishop: 1, chess.Rook: 2, chess.Queen: 4,
	}
)

// Piece-square tables, written from White's point of view with the eighth
// rank on the first line. Index with pstIndex.

var mgPawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 35, 35, 20, 10, 10,
	10, 15, 30, 70, 70, 30, 15, 10,
	5, 10, 25, 55, 55, 25, 10, 5,
	5, 5, 5, 0, 0, 5, 5, 5,
	0, 0, 0, -30, -30, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var mgKnightPST = [64]int{
	-80, -50, -30, -30, -30, -30, -50, -80,
	-50, -20, 0, 0, 0, 0, -20, -50,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 20, 25, 25, 20, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 15, 15, 15, 5, -30,
	-50, -20, 0, 5, 5, 0, -20, -50,
	-80, -50, -30, -30, -30, -30, -50, -80,
}

var mgBishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 15, 0, 0, 0, 0, 15, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var mgRookPST = [64]int{
	40, 40, 40, 0, 0, 40, 40, 40,
	5, 15, 15, 50, 50, 15, 50, 5,
	5, 0, 0, 0, 0, 0, 0, 5,
	5, 0, 0, 0, 0, 0, 0, 5,
	5, 0, 0, 0, 0, 0, 0, 5,
	5, 0, 0, 0, 0, 0, 0, 5,
	5, 0, 0, 0, 0, 0, 0, 5,
	0, -5, 5, 5, 5, 10, -5, 0,
}

var mgQueenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, -5, -5, 0, 0, -10,
	-20, -10, -10, -2, -5, -10, -10, -20,
}

var mgKingPST = [64]int{
	-120, -120, -120, -120, -120, -120, -120, -120,
	-100, -100, -100, -100, -100, -100, -100, -100,
	-80, -80, -80, -80, -80, -80, -80, -80,
	-70, -70, -70, -70, -70, -70, -70, -70,
	-60, -60, -60, -60, -60, -60, -60, -60,
	-40, -40, -40, -40, -40, -40, -40, -40,
	0, 0, -10, -30, -30, -10, 0, 0,
	20, 50, 10, 0, 0, 10, 50, 20,
}

var egPawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	400, 400, 400, 400, 400, 400, 400, 400,
	50, 55, 50, 50, 50, 50, 55, 50,
	30, 35, 30, 30, 30, 30, 35, 30,
	25, 20, 20, 20, 20, 20, 20, 25,
	15, 10, 10, 10, 10, 10, 10, 15,
	10, 10, 10, 10, 10, 10, 10, 10,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var egKnightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 10, 15, 20, 20, 15, 10, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 15, 15, 15, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var egBishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 10, 0, 0, 0, 0, 10, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var egRookPST = [64]int{
	40, 40, 40, 0, 0, 40, 40, 40,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 10, 5, 5, 10, 0, 0,
}

var egQueenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var egKingPST = [64]int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -20, -20, -20, -20, -20, -20, -30,
	-30, -10, -5, 0, 0, -5, -10, -30,
	-30, -10, 0, 10, 10, 0, -10, -30,
	-30, -10, 0, 10, 10, 0, -10, -30,
	-30, -10, -5, 0, 0, -5, -10, -30,
	-30, -20, -20, -20, -20, -20, -20, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var (
	mgPST = map[chess.PieceType]*[64]int{
		chess.Pawn: &mgPawnPST, chess.Knight: &mgKnightPST, chess.Bishop: &mgBishopPST,
		chess.Rook: &mgRookPST, chess.Queen: &mgQueenPST, chess.King: &mgKingPST,
	}
	egPST = map[chess.PieceType]*[64]int{
		chess.Pawn: &egPawnPST, chess.Knight: &egKnightPST, chess.Bishop: &egBishopPST,
		chess.Rook: &egRookPST, chess.Queen: &egQueenPST, chess.King: &egKingPST,
	}
)

// pstIndex maps a square to its table entry for a piece of color c. Tables
// list a8 first, so White flips the rank and Black reads its own square,
// which is the vertical mirror of White's view.
func pstIndex(sq chess.Square, c chess.Color) int {
	if c == chess.White {
		return int(sq) ^ 56
	}
	return int(sq)
}

// GamePhase returns 0 for a full board and approaches 1 as non-pawn
// material comes off.
func GamePhase(pos *chess.Position) float64 {
	phase := 0
	b := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		phase += phaseWeight[b.Piece(sq).Type()]
	}
	if phase > maxPhase {
		phase = maxPhase
	}
	return 1 - float64(phase)/maxPhase
}

// taper blends a midgame and an endgame value at endgame weight phase.
func taper(mg, eg int, phase float64) float64 {
	return float64(mg)*(1-phase) + float64(eg)*phase
}

// Evaluate scores pos in centipawns from the side to move's perspective.
func Evaluate(pos *chess.Position) int {
	phase := GamePhase(pos)
	us := pos.Turn()
	b := pos.Board()

	score := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		pt := p.Type()
		idx := pstIndex(sq, p.Color())
		value := int(taper(mgValue[pt], egValue[pt], phase)) +
			int(taper(mgPST[pt][idx], egPST[pt][idx], phase))
		if p.Color() == us {
			score += value
		} else {
			score -= value
		}
	}
	return score
}

// Material sums the midgame base value of c's pieces, kings excluded.
func Material(pos *chess.Position, c chess.Color) int {
	total := 0
	b := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece || p.Color() != c || p.Type() == chess.King {
			continue
		}
		total += mgValue[p.Type()]
	}
	return total
}
