// Package uci speaks a Drawback Chess flavour of the Universal Chess
// Interface: standard commands plus options that pick each side's handicap.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"

	"github.com/hailam/drawbackchess/internal/board"
	"github.com/hailam/drawbackchess/internal/config"
	"github.com/hailam/drawbackchess/internal/engine"
	"github.com/hailam/drawbackchess/internal/game"
	"github.com/hailam/drawbackchess/internal/handicap"
	"github.com/hailam/drawbackchess/internal/zobrist"
)

// infiniteTime stands in for "go infinite"; the search runs until stop.
const infiniteTime = 24 * time.Hour

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	out io.Writer
	mu  sync.Mutex // guards out

	registry *handicap.Registry
	keys     *zobrist.Keys
	settings config.Settings
	white    handicap.Rule
	black    handicap.Rule

	game *game.Game
	// Last position command, replayed when a handicap changes.
	positionArgs []string

	// Search state, owned by the command loop.
	searchDone chan struct{}
	cancel     context.CancelFunc
}

// New creates a protocol handler writing to out.
func New(reg *handicap.Registry, keys *zobrist.Keys, settings config.Settings, out io.Writer) *UCI {
	u := &UCI{
		out:      out,
		registry: reg,
		keys:     keys,
		settings: settings,
		white:    config.ResolveHandicap(settings.White.Handicap, reg),
		black:    config.ResolveHandicap(settings.Black.Handicap, reg),
	}
	u.handleNewGame()
	return u
}

// Run reads commands from r until "quit" or end of input. A search still
// running at end of input is allowed to finish.
func (u *UCI) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleStop()
			u.handleNewGame()
		case "position":
			u.handleStop()
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleStop()
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		default:
			log.Debug().Str("command", cmd).Msg("unknown command")
		}
	}

	u.waitSearch()
	return scanner.Err()
}

func (u *UCI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

func (u *UCI) println(line string) {
	u.printf("%s\n", line)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	var b strings.Builder
	b.WriteString("id name Drawback Chess\n")
	b.WriteString("id author Drawback Chess Team\n\n")

	var slugs strings.Builder
	for _, r := range u.registry.All() {
		slugs.WriteString(" var " + r.Slug)
	}
	fmt.Fprintf(&b, "option name WhiteHandicap type combo default %s%s\n", u.white.Slug, slugs.String())
	fmt.Fprintf(&b, "option name BlackHandicap type combo default %s%s\n", u.black.Slug, slugs.String())

	algo, _ := u.settings.AlgorithmFor(chess.White)
	fmt.Fprintf(&b, "option name Algorithm type combo default %s var heuristic var mcts var random\n", algo)
	fmt.Fprintf(&b, "option name Preset type combo default %s", u.settings.Preset)
	for _, name := range config.PresetNames() {
		b.WriteString(" var " + name)
	}
	b.WriteString("\n")

	ai := u.settings.AI
	fmt.Fprintf(&b, "option name Iterations type spin default %d min 0 max 100000000\n", ai.IterationLimit)
	fmt.Fprintf(&b, "option name MoveTime type spin default %d min 0 max 3600000\n", ai.TimeLimitMs)
	fmt.Fprintf(&b, "option name Depth type spin default %d min 1 max 128\n", ai.DepthLimit)
	fmt.Fprintf(&b, "option name QuiescenceDepth type spin default %d min 0 max 128\n", ai.QuiescenceDepth)
	fmt.Fprintf(&b, "option name CheckQuietness type check default %t\n", ai.CheckQuietness)
	fmt.Fprintf(&b, "option name Seed type spin default %d min 0 max 2147483647\n", u.settings.Seed)
	b.WriteString("uciok\n")
	u.printf("%s", b.String())
}

// handleNewGame resets to the starting position.
func (u *UCI) handleNewGame() {
	u.positionArgs = []string{"startpos"}
	g, err := u.newGame("")
	if err != nil {
		log.Error().Err(err).Msg("new game")
		return
	}
	u.game = g
}

func (u *UCI) newGame(fen string) (*game.Game, error) {
	return game.New(game.Options{
		FEN:      fen,
		White:    u.white,
		Black:    u.black,
		Keys:     u.keys,
		Seed:     u.settings.Seed,
		MaxPlies: u.settings.MaxPlies,
	})
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// Moves only need to be legal chess; the handicaps of earlier turns were
// enforced by whoever played them.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	fenArgs, moves := args[1:], []string(nil)
	for i, arg := range args {
		if arg == "moves" {
			fenArgs, moves = args[1:i], args[i+1:]
			break
		}
	}

	var fen string
	switch args[0] {
	case "startpos":
	case "fen":
		fen = strings.Join(fenArgs, " ")
	default:
		return
	}

	g, err := u.newGame(fen)
	if err != nil {
		log.Warn().Err(err).Msg("invalid position")
		u.printf("info string invalid fen: %s\n", fen)
		return
	}
	for _, moveStr := range moves {
		if err := g.Force(moveStr); err != nil {
			log.Warn().Err(err).Str("move", moveStr).Msg("invalid move in position command")
			u.printf("info string invalid move: %s\n", moveStr)
			break
		}
	}

	u.game = g
	u.positionArgs = append([]string(nil), args...)
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth      int
	Iterations int
	MoveTime   time.Duration
	Infinite   bool
	WTime      time.Duration
	BTime      time.Duration
	WInc       time.Duration
	BInc       time.Duration
	MovesToGo  int
	// Outcome pins this turn's random draw; -1 keeps the host's own.
	Outcome handicap.Outcome
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{Outcome: handicap.NoOutcome}

	next := func(i *int) int {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.Atoi(args[*i])
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = next(&i)
		case "nodes", "iterations":
			opts.Iterations = next(&i)
		case "movetime":
			opts.MoveTime = ms(&i)
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.WTime = ms(&i)
		case "btime":
			opts.BTime = ms(&i)
		case "winc":
			opts.WInc = ms(&i)
		case "binc":
			opts.BInc = ms(&i)
		case "movestogo":
			opts.MovesToGo = next(&i)
		case "outcome":
			opts.Outcome = handicap.Outcome(next(&i))
		}
	}
	return opts
}

// searchContext applies the go options on top of the configured budgets.
func (u *UCI) searchContext(opts GoOptions) engine.SearchContext {
	sc := u.game.SearchContext(u.settings.AI)

	if opts.Depth > 0 {
		sc.DepthLimit = opts.Depth
	}

	switch {
	case opts.Infinite:
		sc.TimeLimit = infiniteTime
		sc.IterationLimit = 0
	case opts.MoveTime > 0:
		sc.TimeLimit = opts.MoveTime
		sc.IterationLimit = 0
	case opts.WTime > 0 || opts.BTime > 0:
		limits := engine.ClockLimits{Time: opts.WTime, Inc: opts.WInc, MovesToGo: opts.MovesToGo}
		if u.game.Turn() == chess.Black {
			limits = engine.ClockLimits{Time: opts.BTime, Inc: opts.BInc, MovesToGo: opts.MovesToGo}
		}
		sc.TimeLimit = engine.AllocateMoveTime(limits, u.game.Ply())
		sc.IterationLimit = 0
	}
	if opts.Iterations > 0 {
		sc.IterationLimit = opts.Iterations
		if opts.MoveTime == 0 && !opts.Infinite && opts.WTime == 0 && opts.BTime == 0 {
			sc.TimeLimit = 0
		}
	}

	if opts.Outcome != handicap.NoOutcome {
		n := sc.PlayerHandicap.RandomOutcomeCount()
		if int(opts.Outcome) >= 0 && int(opts.Outcome) < n {
			sc.Outcome = opts.Outcome
		} else {
			log.Warn().Int("outcome", int(opts.Outcome)).Msg("outcome out of range for handicap, ignoring")
		}
	}
	return sc
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	sc := u.searchContext(opts)
	sc.OnInfo = u.sendInfo

	algo, err := u.settings.AlgorithmFor(u.game.Turn())
	if err != nil {
		log.Warn().Err(err).Msg("bad algorithm setting, using mcts")
		algo = engine.MCTS
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.cancel = cancel
	u.searchDone = done

	go func() {
		defer close(done)
		res := engine.Search(ctx, sc, algo)
		if res.Move == nil {
			// No legal move under the handicap: checkmate, stalemate or a
			// handicap loss.
			u.println("bestmove 0000")
			return
		}
		u.printf("bestmove %s\n", res.Move)
	}()
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	u.printf("info nodes %d time %d string algorithm %s candidates %d visits %d score %.3f\n",
		info.Iterations, info.Time.Milliseconds(), info.Algorithm, info.Candidates, info.RootVisits, info.Score)
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel != nil {
		u.cancel()
	}
	u.waitSearch()
}

func (u *UCI) waitSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	number := func() (int, bool) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			u.printf("info string invalid value for %s: %s\n", name, value)
			return 0, false
		}
		return n, true
	}

	switch strings.ToLower(name) {
	case "whitehandicap":
		u.settings.White.Handicap = parseHandicap(value)
		u.white = config.ResolveHandicap(u.settings.White.Handicap, u.registry)
		u.handlePosition(u.positionArgs)
	case "blackhandicap":
		u.settings.Black.Handicap = parseHandicap(value)
		u.black = config.ResolveHandicap(u.settings.Black.Handicap, u.registry)
		u.handlePosition(u.positionArgs)
	case "algorithm":
		algo, err := engine.ParseAlgorithm(value)
		if err != nil {
			u.printf("info string %v\n", err)
			return
		}
		u.settings.AI.Algorithm = algo.String()
		u.settings.White.Algorithm = ""
		u.settings.Black.Algorithm = ""
	case "preset":
		ai, err := config.Preset(value)
		if err != nil {
			u.printf("info string %v\n", err)
			return
		}
		u.settings.Preset = strings.ToLower(value)
		u.settings.AI = ai
	case "iterations":
		if n, ok := number(); ok {
			u.settings.AI.IterationLimit = n
		}
	case "movetime":
		if n, ok := number(); ok {
			u.settings.AI.TimeLimitMs = n
		}
	case "depth":
		if n, ok := number(); ok {
			u.settings.AI.DepthLimit = n
		}
	case "quiescencedepth":
		if n, ok := number(); ok {
			u.settings.AI.QuiescenceDepth = n
		}
	case "checkquietness":
		u.settings.AI.CheckQuietness = strings.EqualFold(value, "true")
	case "seed":
		if n, ok := number(); ok {
			u.settings.Seed = uint64(n)
			u.handlePosition(u.positionArgs)
		}
	default:
		log.Debug().Str("name", name).Msg("unknown option")
	}
}

// parseHandicap accepts a slug, a display name or a numeric index.
func parseHandicap(value string) config.HandicapSetting {
	if n, err := strconv.Atoi(value); err == nil {
		return config.HandicapSetting{Index: &n}
	}
	return config.HandicapSetting{Name: value}
}

// handleDisplay prints the current position and handicap state.
func (u *UCI) handleDisplay() {
	g := u.game
	var b strings.Builder
	fmt.Fprintf(&b, "fen %s\n", g.FEN())
	fmt.Fprintf(&b, "hash %016x\n", g.Hash())
	fmt.Fprintf(&b, "white %s\n", g.Rule(chess.White).Name)
	fmt.Fprintf(&b, "black %s\n", g.Rule(chess.Black).Name)
	if g.Outcome() != handicap.NoOutcome {
		fmt.Fprintf(&b, "outcome %d\n", g.Outcome())
	}
	fmt.Fprintf(&b, "status %s\n", g.Result().Status)

	moves := g.LegalMoves()
	text := make([]string, len(moves))
	for i, m := range moves {
		text[i] = m.String()
	}
	fmt.Fprintf(&b, "legal %s\n", strings.Join(text, " "))
	if board.InCheck(g.Position()) {
		b.WriteString("check\n")
	}
	u.printf("%s", b.String())
}
