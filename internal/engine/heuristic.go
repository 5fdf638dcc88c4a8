package engine

import (
	"context"
	"sort"

	"github.com/notnil/chess"
	"golang.org/x/exp/rand"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/handicap"
)

// Heuristic scoring weights.
const (
	captureMultiplier   = 3
	kingCaptureBonus    = 20000
	kingExposedPenalty  = 15000
	pieceRiskMultiplier = 2
	checkBonus          = 70
	checkReplyPivot     = 20
	checkReplyWeight    = 30
	checkEscapeBonus    = 500
	winningScore        = 10000

	kingEdgeBonus   = 20
	kingCornerBonus = 15
)

// Static capture values. The king is worth far more than everything else
// because taking it ends the game.
var captureValue = map[chess.PieceType]int{
	chess.Pawn:   120,
	chess.Knight: 370,
	chess.Bishop: 380,
	chess.Rook:   550,
	chess.Queen:  1000,
	chess.King:   20000,
}

// Bonus for a friendly piece next to the king.
var kingShield = map[chess.PieceType]int{
	chess.Pawn:   15,
	chess.Knight: 10,
	chess.Bishop: 8,
	chess.Rook:   12,
	chess.Queen:  5,
}

type scoredMove struct {
	move  *chess.Move
	score int
}

// searchHeuristic scores every candidate one ply deep. Scoring is
// deterministic, so passes repeat only while they keep improving and the
// budget allows.
func searchHeuristic(ctx context.Context, sc *SearchContext, legal []*chess.Move, tm *TimeManager, rng *rand.Rand) Result {
	pos := sc.Position
	inCheck := board.InCheck(pos)

	var best []scoredMove
	passes := 0
	for passes == 0 || !tm.ShouldStop(ctx, passes) {
		scored := make([]scoredMove, 0, len(legal))
		for _, m := range legal {
			scored = append(scored, scoredMove{move: m, score: scoreMove(sc, pos, m, inCheck)})
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].score > scored[j].score
		})
		passes++

		if best != nil && scored[0].score <= best[0].score {
			break
		}
		best = scored
		if best[0].score > winningScore {
			break
		}
	}

	n := 1
	for n < len(best) && best[n].score == best[0].score {
		n++
	}
	choice := best[rng.Intn(n)]
	return Result{
		Move: choice.move,
		Info: SearchInfo{Iterations: passes, Score: float64(choice.score)},
	}
}

// scoreMove rates m for the side to move in pos.
func scoreMove(sc *SearchContext, pos *chess.Position, m *chess.Move, inCheck bool) int {
	us := pos.Turn()
	captured := board.CapturedPiece(pos, m)
	score := captureValue[captured] * captureMultiplier

	next := pos.Update(m)
	if captured == chess.King {
		return score + kingCaptureBonus
	}

	opponent := sc.ruleFor(us.Other())
	replies := opponent.Filter(next, next.ValidMoves(), handicap.NoOutcome)
	risk := 0
	for _, r := range replies {
		victim := board.CapturedPiece(next, r)
		if victim == chess.King {
			score -= kingExposedPenalty
			break
		}
		if v := captureValue[victim]; v > risk {
			risk = v
		}
	}
	score -= risk * pieceRiskMultiplier

	if board.InCheck(next) {
		score += checkBonus + max(0, checkReplyWeight*(checkReplyPivot-len(replies)))
	}
	// Every legal move escapes check, so this shifts the reported score only.
	if inCheck {
		score += checkEscapeBonus
	}

	score += kingSafety(next.Board(), us)
	score -= Evaluate(next)
	return score
}

// kingSafety rewards a king on the edge of the board and surrounded by its
// own pieces.
func kingSafety(b *chess.Board, c chess.Color) int {
	ksq, ok := board.KingSquare(b, c)
	if !ok {
		return 0
	}
	file, rank := int(ksq.File()), int(ksq.Rank())
	edgeFile := file == 0 || file == 7
	edgeRank := rank == 0 || rank == 7

	score := 0
	if edgeFile || edgeRank {
		score += kingEdgeBonus
		if edgeFile && edgeRank {
			score += kingCornerBonus
		}
	}

	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			f, r := file+df, rank+dr
			if (df == 0 && dr == 0) || f < 0 || f > 7 || r < 0 || r > 7 {
				continue
			}
			p := b.Piece(chess.NewSquare(chess.File(f), chess.Rank(r)))
			if p != chess.NoPiece && p.Color() == c {
				score += kingShield[p.Type()]
			}
		}
	}
	return score
}
