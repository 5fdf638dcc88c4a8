// Package handicap implements the per-side rule modifiers ("drawbacks") of
// Drawback Chess. A rule only ever narrows the standard legal move list or
// declares that its side has lost; it never changes how pieces move.
package handicap

import (
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/hailam/drawbackchess/internal/board"
)

// ID is the stable numeric identity of a rule. The values are part of the
// position fingerprint and of persisted settings, so never renumber them.
type ID uint16

const (
	None ID = iota
	NoCastling
	PawnPushOneOnly
	BlockRandomFile
)

// Outcome is the per-turn random draw consumed by rules that need one.
type Outcome int

// NoOutcome means no draw is pending; rules treat it as "do not filter".
const NoOutcome Outcome = -1

// Rule describes one handicap. Behaviour dispatches on ID.
type Rule struct {
	ID          ID
	Slug        string
	Name        string
	Description string
}

// NoneRule is the unrestricted rule. The zero Rule has None's ID but no
// names; hosts substitute NoneRule for it.
var NoneRule = Rule{
	ID:          None,
	Slug:        "none",
	Name:        "None",
	Description: "No restriction.",
}

// IsNone reports whether r is the unrestricted rule.
func (r Rule) IsNone() bool {
	return r.ID == None
}

// String returns the display name.
func (r Rule) String() string {
	return r.Name
}

// Filter returns the candidates this rule allows, in their original order.
// The candidates slice is never modified.
func (r Rule) Filter(pos *chess.Position, candidates []*chess.Move, outcome Outcome) []*chess.Move {
	switch r.ID {
	case NoCastling:
		return keep(candidates, func(m *chess.Move) bool {
			return !board.IsCastle(pos, m)
		})
	case PawnPushOneOnly:
		return keep(candidates, func(m *chess.Move) bool {
			return !board.IsDoublePush(pos, m)
		})
	case BlockRandomFile:
		if outcome == NoOutcome {
			break
		}
		if outcome < 0 || int(outcome) >= r.RandomOutcomeCount() {
			log.Warn().Int("outcome", int(outcome)).Msg("block random file: outcome out of range, not filtering")
			break
		}
		blocked := chess.File(outcome)
		return keep(candidates, func(m *chess.Move) bool {
			return m.S2().File() != blocked
		})
	}
	return append([]*chess.Move(nil), candidates...)
}

// NeedsTurnRandomness reports whether the host must draw an outcome at the
// start of every turn played under this rule.
func (r Rule) NeedsTurnRandomness() bool {
	return r.ID == BlockRandomFile
}

// RandomOutcomeCount is the number of equally likely outcomes, or 0.
func (r Rule) RandomOutcomeCount() int {
	if r.ID == BlockRandomFile {
		return 8
	}
	return 0
}

// DrawOutcome draws a uniform outcome for the coming turn, or NoOutcome
// when the rule does not use randomness.
func (r Rule) DrawOutcome(rng *rand.Rand) Outcome {
	n := r.RandomOutcomeCount()
	if n == 0 {
		return NoOutcome
	}
	return Outcome(rng.Intn(n))
}

// DeclaresLoss reports whether the side playing under r has lost because
// the rule removed every move it could otherwise have made.
func (r Rule) DeclaresLoss(pos *chess.Position, filtered []*chess.Move) bool {
	if r.ID == None || len(filtered) > 0 {
		return false
	}
	return len(pos.ValidMoves()) > 0
}

func keep(moves []*chess.Move, pred func(*chess.Move) bool) []*chess.Move {
	out := make([]*chess.Move, 0, len(moves))
	for _, m := range moves {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}
