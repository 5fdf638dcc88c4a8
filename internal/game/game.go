// Package game is the authoritative host state of one Drawback Chess game:
// the position, both sides' handicaps, the current turn's random outcome and
// the repetition history.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/config"
	"github.com/hailam/drawbackchess/internal/engine"
	"github.com/hailam/drawbackchess/internal/handicap"
	"github.com/hailam/drawbackchess/internal/zobrist"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrGameOver    = errors.New("game is over")
)

// RepetitionLimit is how many times a position may occur before the game
// is drawn.
const RepetitionLimit = 3

// Options configure a new game. Zero values give the standard start, no
// handicaps, fresh keys and no ply limit.
type Options struct {
	FEN      string
	White    handicap.Rule
	Black    handicap.Rule
	Keys     *zobrist.Keys
	Seed     uint64
	MaxPlies int
}

// Game is not safe for concurrent use. Searches receive snapshots through
// SearchContext and never touch the game itself.
type Game struct {
	pos     *chess.Position
	white   handicap.Rule
	black   handicap.Rule
	outcome handicap.Outcome

	keys    *zobrist.Keys
	hash    uint64
	history map[uint64]int

	moves    []*chess.Move
	verdict  engine.Verdict
	rng      *rand.Rand
	maxPlies int
}

// New sets up a game from opts.
func New(opts Options) (*Game, error) {
	pos := board.StartPosition()
	if opts.FEN != "" {
		var err error
		pos, err = board.ParseFEN(opts.FEN)
		if err != nil {
			return nil, err
		}
	}
	keys := opts.Keys
	if keys == nil {
		keys = zobrist.NewKeys(zobrist.DefaultSeed)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	g := &Game{
		pos:      pos,
		white:    orNone(opts.White),
		black:    orNone(opts.Black),
		keys:     keys,
		history:  make(map[uint64]int),
		rng:      rand.New(rand.NewSource(seed)),
		maxPlies: opts.MaxPlies,
	}
	g.beginTurn()
	return g, nil
}

// Rule returns the handicap of the side playing c.
func (g *Game) Rule(c chess.Color) handicap.Rule {
	if c == chess.Black {
		return g.black
	}
	return g.white
}

// Turn returns the side to move.
func (g *Game) Turn() chess.Color {
	return g.pos.Turn()
}

// Position returns a copy of the current position.
func (g *Game) Position() *chess.Position {
	return board.Snapshot(g.pos)
}

// FEN returns the current position as FEN.
func (g *Game) FEN() string {
	return g.pos.String()
}

// Outcome returns the random draw for the current turn, or
// handicap.NoOutcome.
func (g *Game) Outcome() handicap.Outcome {
	return g.outcome
}

// Hash returns the fingerprint of the current position, including the side
// to move's handicap and this turn's outcome.
func (g *Game) Hash() uint64 {
	return g.hash
}

// Moves returns the moves played so far.
func (g *Game) Moves() []*chess.Move {
	return append([]*chess.Move(nil), g.moves...)
}

// Ply returns the number of half-moves played.
func (g *Game) Ply() int {
	return len(g.moves)
}

// Result returns how the game stands.
func (g *Game) Result() engine.Verdict {
	return g.verdict
}

// Over reports whether the game has ended.
func (g *Game) Over() bool {
	return g.verdict.Over()
}

// Repetitions returns how often the current position has occurred.
func (g *Game) Repetitions() int {
	return g.history[g.repetitionKey()]
}

// LegalMoves returns the moves the side to move may play this turn.
func (g *Game) LegalMoves() []*chess.Move {
	if g.verdict.Over() {
		return nil
	}
	return g.Rule(g.Turn()).Filter(g.pos, g.pos.ValidMoves(), g.outcome)
}

// Play applies m, which must be one of LegalMoves.
func (g *Game) Play(m *chess.Move) error {
	if g.verdict.Over() {
		return ErrGameOver
	}
	if m == nil {
		return fmt.Errorf("%w: no move", ErrIllegalMove)
	}
	return g.apply(m, g.LegalMoves())
}

// Force applies a move given in UCI notation that is legal in standard
// chess, ignoring the side to move's handicap and any verdict. It replays
// move lists recorded elsewhere, whose random draws are unknown here.
func (g *Game) Force(text string) error {
	valid := g.pos.ValidMoves()
	m := board.FindMove(valid, text)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	return g.apply(m, valid)
}

func (g *Game) apply(m *chess.Move, legal []*chess.Move) error {
	var played *chess.Move
	for _, lm := range legal {
		if board.SameMove(lm, m) {
			played = lm
			break
		}
	}
	if played == nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	mover := g.Turn()
	g.pos = g.pos.Update(played)
	g.moves = append(g.moves, played)
	g.beginTurn()

	ev := log.Debug().
		Int("ply", len(g.moves)).
		Str("side", mover.Name()).
		Str("move", played.String()).
		Str("hash", fmt.Sprintf("%016x", g.hash))
	if g.outcome != handicap.NoOutcome {
		ev = ev.Int("outcome", int(g.outcome))
	}
	ev.Msg("move played")

	if g.verdict.Over() {
		log.Info().
			Str("status", g.verdict.Status.String()).
			Str("winner", winnerName(g.verdict)).
			Int("plies", len(g.moves)).
			Msg("game over")
	}
	return nil
}

// PlayUCI applies a move given in UCI notation such as "e2e4" or "e7e8q".
func (g *Game) PlayUCI(text string) error {
	if g.verdict.Over() {
		return ErrGameOver
	}
	m := board.FindMove(g.LegalMoves(), text)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	return g.Play(m)
}

// SearchContext builds the engine input for the side to move. Every call
// takes a fresh seed from the game's generator, so a seeded game replays
// the same searches.
func (g *Game) SearchContext(ai config.AISettings) engine.SearchContext {
	us := g.Turn()
	return engine.SearchContext{
		Position:         board.Snapshot(g.pos),
		PlayerHandicap:   g.Rule(us),
		OpponentHandicap: g.Rule(us.Other()),
		Outcome:          g.outcome,
		Hash:             g.hash,
		DepthLimit:       ai.DepthLimit,
		CheckQuietness:   ai.CheckQuietness,
		QuiescenceDepth:  ai.QuiescenceDepth,
		IterationLimit:   ai.IterationLimit,
		TimeLimit:        ai.TimeLimit(),
		Seed:             g.rng.Uint64() | 1,
	}
}

// beginTurn draws the outcome for the side to move, refreshes the
// fingerprint and history, then classifies the position.
func (g *Game) beginTurn() {
	rule := g.Rule(g.Turn())
	g.outcome = rule.DrawOutcome(g.rng)
	g.hash = g.keys.Hash(g.pos, zobrist.AuxState{Handicap: rule.ID, Outcome: g.outcome})
	key := g.repetitionKey()
	g.history[key]++

	verdict, _ := engine.Classify(g.pos, rule, g.outcome)
	switch {
	case verdict.Over():
	case g.history[key] >= RepetitionLimit:
		verdict = engine.Verdict{Status: engine.Repetition, Winner: chess.NoColor}
	case g.maxPlies > 0 && len(g.moves) >= g.maxPlies:
		verdict = engine.Verdict{Status: engine.MoveLimit, Winner: chess.NoColor}
	}
	g.verdict = verdict
}

// repetitionKey fingerprints the position without this turn's outcome, so
// a repeated position counts even when the random draw differs.
func (g *Game) repetitionKey() uint64 {
	return g.keys.Hash(g.pos, zobrist.AuxState{Handicap: g.Rule(g.Turn()).ID, Outcome: handicap.NoOutcome})
}

// orNone replaces an unset rule with the registered None descriptor.
func orNone(r handicap.Rule) handicap.Rule {
	if r.Slug == "" {
		return handicap.NoneRule
	}
	return r
}

func winnerName(v engine.Verdict) string {
	if v.Winner == chess.NoColor {
		return "draw"
	}
	return v.Winner.Name()
}
