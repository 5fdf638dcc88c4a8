// Drawback Chess self-play: engine against engine, each side under its own
// handicap, with results recorded in the local database.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/drawbackchess/internal/config"
	"github.com/hailam/drawbackchess/internal/engine"
	"github.com/hailam/drawbackchess/internal/game"
	"github.com/hailam/drawbackchess/internal/handicap"
	"github.com/hailam/drawbackchess/internal/storage"
	"github.com/hailam/drawbackchess/internal/zobrist"
)

// pollInterval is how often the runner checks a pending search.
const pollInterval = 10 * time.Millisecond

var (
	configPath = flag.String("config", "", "YAML settings file")
	games      = flag.Int("games", 1, "number of games to play")
	preset     = flag.String("preset", "", "AI preset (overrides the config file)")
	white      = flag.String("white", "", "White handicap, by name, slug or index")
	black      = flag.String("black", "", "Black handicap, by name, slug or index")
	whiteAlgo  = flag.String("white-algo", "", "White algorithm: heuristic, mcts or random")
	blackAlgo  = flag.String("black-algo", "", "Black algorithm: heuristic, mcts or random")
	dbPath     = flag.String("db", "", "database directory (default: platform data dir, \"-\" for memory only)")
	seed       = flag.Uint64("seed", 0, "random seed (0 = time based)")
	maxPlies   = flag.Int("max-plies", 0, "draw after this many plies (0 = config value)")
	logLevel   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -log-level")
	}
	zerolog.SetGlobalLevel(level)

	settings, err := loadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("settings")
	}

	store, err := openStorage(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := handicap.NewRegistry()
	keys := zobrist.NewKeys(zobrist.DefaultSeed)
	r := &runner{settings: settings, registry: reg, keys: keys, store: store}

	for i := 0; i < *games; i++ {
		if err := r.playGame(ctx, i); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Warn().Msg("interrupted")
				break
			}
			log.Fatal().Err(err).Int("game", i+1).Msg("game failed")
		}
	}

	if err := store.SaveSettings(settings); err != nil {
		log.Error().Err(err).Msg("save settings")
	}
	stats, err := store.LoadStats()
	if err != nil {
		log.Fatal().Err(err).Msg("load stats")
	}
	log.Info().
		Int("games", stats.GamesPlayed).
		Int("white_wins", stats.WhiteWins).
		Int("black_wins", stats.BlackWins).
		Int("draws", stats.Draws).
		Float64("white_score", stats.WhiteScore()).
		Msg("totals")
}

// loadSettings merges the config file, if any, with command line flags.
func loadSettings() (config.Settings, error) {
	settings := config.Default()
	if *configPath != "" {
		var err error
		if settings, err = config.Load(*configPath); err != nil {
			return settings, err
		}
	}
	if *preset != "" {
		ai, err := config.Preset(*preset)
		if err != nil {
			return settings, err
		}
		settings.Preset = *preset
		settings.AI = ai
	}
	if *white != "" {
		settings.White.Handicap = handicapFlag(*white)
	}
	if *black != "" {
		settings.Black.Handicap = handicapFlag(*black)
	}
	if *whiteAlgo != "" {
		settings.White.Algorithm = *whiteAlgo
	}
	if *blackAlgo != "" {
		settings.Black.Algorithm = *blackAlgo
	}
	if *seed != 0 {
		settings.Seed = *seed
	}
	if *maxPlies != 0 {
		settings.MaxPlies = *maxPlies
	}
	return settings, settings.Validate()
}

func handicapFlag(v string) config.HandicapSetting {
	if n, err := strconv.Atoi(v); err == nil {
		return config.HandicapSetting{Index: &n}
	}
	return config.HandicapSetting{Name: v}
}

func openStorage(path string) (*storage.Storage, error) {
	switch path {
	case "":
		return storage.NewStorage()
	case "-":
		return storage.OpenInMemory()
	default:
		return storage.Open(path)
	}
}

type runner struct {
	settings config.Settings
	registry *handicap.Registry
	keys     *zobrist.Keys
	store    *storage.Storage
}

// playGame plays one game to the end and records it.
func (r *runner) playGame(ctx context.Context, index int) error {
	s := r.settings
	gameSeed := s.Seed
	if gameSeed != 0 {
		gameSeed += uint64(index)
	}
	g, err := game.New(game.Options{
		White:    config.ResolveHandicap(s.White.Handicap, r.registry),
		Black:    config.ResolveHandicap(s.Black.Handicap, r.registry),
		Keys:     r.keys,
		Seed:     gameSeed,
		MaxPlies: s.MaxPlies,
	})
	if err != nil {
		return err
	}
	algos := map[chess.Color]engine.Algorithm{}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if algos[c], err = s.AlgorithmFor(c); err != nil {
			return err
		}
	}

	log.Info().
		Int("game", index+1).
		Str("white", g.Rule(chess.White).Name).
		Str("black", g.Rule(chess.Black).Name).
		Str("white_algo", algos[chess.White].String()).
		Str("black_algo", algos[chess.Black].String()).
		Msg("game started")

	start := time.Now()
	for !g.Over() {
		p := game.Think(ctx, g.SearchContext(s.AI), algos[g.Turn()])
		res, err := wait(ctx, p)
		if err != nil {
			return err
		}
		if res.Move == nil {
			// The game would already be over if the side to move had
			// nothing to play.
			return errors.New("search returned no move in a running game")
		}
		if err := g.Play(res.Move); err != nil {
			return err
		}
	}

	rec := storage.RecordFromGame(g, algos[chess.White].String(), algos[chess.Black].String(), time.Since(start))
	id, err := r.store.RecordGame(rec)
	if err != nil {
		return err
	}
	log.Info().
		Uint64("id", id).
		Str("result", rec.Winner).
		Str("reason", rec.Status).
		Int("plies", rec.Plies).
		Dur("duration", rec.Duration).
		Msg("game recorded")
	return nil
}

// wait polls p until it finishes or ctx is cancelled.
func wait(ctx context.Context, p *game.Pending) (engine.Result, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, ok := p.Poll(); ok {
			return res, nil
		}
		select {
		case <-ctx.Done():
			p.Cancel()
			return engine.Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
