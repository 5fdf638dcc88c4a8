package engine

import (
	"github.com/notnil/chess"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/handicap"
)

// Status is how a game stands.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	KingCaptured
	HandicapLoss
	Repetition
	MoveLimit
)

var statusNames = [...]string{
	Ongoing:      "ongoing",
	Checkmate:    "checkmate",
	Stalemate:    "stalemate",
	KingCaptured: "king captured",
	HandicapLoss: "handicap loss",
	Repetition:   "threefold repetition",
	MoveLimit:    "move limit",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Verdict is a classified position. Winner is chess.NoColor for draws and
// ongoing games.
type Verdict struct {
	Status Status
	Winner chess.Color
}

// Over reports whether the game has ended.
func (v Verdict) Over() bool {
	return v.Status != Ongoing
}

// Draw reports whether the game ended without a winner.
func (v Verdict) Draw() bool {
	return v.Over() && v.Winner == chess.NoColor
}

// Classify decides whether the side to move in pos, playing under rule with
// the given outcome, still has a game. While the game goes on it also
// returns the filtered legal moves so callers do not generate them twice.
func Classify(pos *chess.Position, rule handicap.Rule, outcome handicap.Outcome) (Verdict, []*chess.Move) {
	us := pos.Turn()
	b := pos.Board()
	if _, ok := board.KingSquare(b, us); !ok {
		return Verdict{Status: KingCaptured, Winner: us.Other()}, nil
	}
	if _, ok := board.KingSquare(b, us.Other()); !ok {
		return Verdict{Status: KingCaptured, Winner: us}, nil
	}

	filtered := rule.Filter(pos, pos.ValidMoves(), outcome)
	if len(filtered) > 0 {
		return Verdict{Status: Ongoing, Winner: chess.NoColor}, filtered
	}
	if rule.DeclaresLoss(pos, filtered) {
		return Verdict{Status: HandicapLoss, Winner: us.Other()}, nil
	}
	if board.InCheck(pos) {
		return Verdict{Status: Checkmate, Winner: us.Other()}, nil
	}
	return Verdict{Status: Stalemate, Winner: chess.NoColor}, nil
}
