package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/handicap"
)

// Algorithm selects the search strategy.
type Algorithm int

const (
	Heuristic Algorithm = iota // one-ply scorer
	MCTS                       // Monte Carlo Tree Search
	Random                     // uniform legal move
)

var algorithmNames = map[Algorithm]string{
	Heuristic: "heuristic",
	MCTS:      "mcts",
	Random:    "random",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ErrUnknownAlgorithm is returned by ParseAlgorithm.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ParseAlgorithm maps a name such as "mcts" to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range algorithmNames {
		if n == name {
			return a, nil
		}
	}
	return Heuristic, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Defaults used when a SearchContext leaves a budget at zero.
const (
	DefaultTimeLimit  = 3 * time.Second
	DefaultDepthLimit = 20
)

// SearchContext is everything one decision needs. Build a fresh one per
// move; the search owns it for the duration of the call.
type SearchContext struct {
	// Position is the snapshot to move from. The side to move is
	// Position.Turn().
	Position *chess.Position

	PlayerHandicap   handicap.Rule
	OpponentHandicap handicap.Rule
	// Outcome is this turn's random draw for PlayerHandicap.
	Outcome handicap.Outcome
	// Hash is the fingerprint of Position, informational only.
	Hash uint64

	DepthLimit      int
	CheckQuietness  bool
	QuiescenceDepth int
	IterationLimit  int
	TimeLimit       time.Duration

	// Seed seeds the search RNG; 0 picks a time-based seed.
	Seed uint64

	// OnInfo, if set, receives a summary when the search finishes.
	OnInfo func(SearchInfo)
}

// ruleFor returns the handicap of the side playing color c.
func (sc *SearchContext) ruleFor(c chess.Color) handicap.Rule {
	if c == sc.Position.Turn() {
		return sc.PlayerHandicap
	}
	return sc.OpponentHandicap
}

func (sc *SearchContext) depthLimit() int {
	if sc.DepthLimit <= 0 {
		return DefaultDepthLimit
	}
	return sc.DepthLimit
}

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Algorithm  Algorithm
	Iterations int
	RootVisits int
	Score      float64
	Candidates int
	Time       time.Duration
}

// Result is a chosen move plus search statistics. Move is nil when the side
// to move has no legal move under its handicap.
type Result struct {
	Move *chess.Move
	Info SearchInfo
}

// FindBestMove picks a move for the side to move in sc.Position. It returns
// nil only when no legal move survives the player's handicap. Cancelling
// ctx stops the search early; the best candidate so far is still returned.
func FindBestMove(ctx context.Context, sc SearchContext, algo Algorithm) *chess.Move {
	return Search(ctx, sc, algo).Move
}

// Search is FindBestMove with statistics.
func Search(ctx context.Context, sc SearchContext, algo Algorithm) Result {
	rng := newRNG(sc.Seed)
	pos := sc.Position
	legal := sc.PlayerHandicap.Filter(pos, pos.ValidMoves(), sc.Outcome)
	tm := NewTimeManager(sc.TimeLimit, sc.IterationLimit)

	var res Result
	if len(legal) > 0 {
		switch algo {
		case Heuristic:
			res = searchHeuristic(ctx, &sc, legal, tm, rng)
		case MCTS:
			res = searchMCTS(ctx, &sc, legal, tm, rng)
		case Random:
			res.Move = legal[rng.Intn(len(legal))]
		default:
			log.Warn().Int("algorithm", int(algo)).Msg("unknown algorithm, playing a random move")
			res.Move = legal[rng.Intn(len(legal))]
		}
		res.Move = validate(res.Move, legal, rng)
	}

	res.Info.Algorithm = algo
	res.Info.Candidates = len(legal)
	res.Info.Time = tm.Elapsed()

	ev := log.Debug().
		Str("algorithm", algo.String()).
		Int("candidates", len(legal)).
		Int("iterations", res.Info.Iterations).
		Dur("elapsed", res.Info.Time)
	if res.Move != nil {
		ev = ev.Str("move", res.Move.String())
	}
	ev.Msg("search finished")

	if sc.OnInfo != nil {
		sc.OnInfo(res.Info)
	}
	return res
}

// validate makes sure m is one of legal. A search that picked anything else
// has a bug; report it and play a random legal move instead.
func validate(m *chess.Move, legal []*chess.Move, rng *rand.Rand) *chess.Move {
	if len(legal) == 0 {
		return nil
	}
	if m != nil && board.Contains(legal, m) {
		return m
	}
	picked := "none"
	if m != nil {
		picked = m.String()
	}
	log.Error().Str("move", picked).Int("legal", len(legal)).Msg("search picked a move outside the legal set, substituting a random move")
	return legal[rng.Intn(len(legal))]
}

func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}
