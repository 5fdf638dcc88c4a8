// Package config holds player and search settings, the named presets and
// YAML loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/hailam/drawbackchess/internal/engine"
	"github.com/hailam/drawbackchess/internal/handicap"
)

// DefaultPreset is used when no preset is named.
const DefaultPreset = "smart"

// DefaultMaxPlies ends a game as a draw after this many half-moves.
const DefaultMaxPlies = 400

var (
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrInvalidSettings = errors.New("invalid settings")
)

// AISettings are the search budgets handed to the engine.
type AISettings struct {
	Algorithm       string `yaml:"algorithm" json:"algorithm"`
	IterationLimit  int    `yaml:"iteration_limit" json:"iteration_limit"`
	TimeLimitMs     int    `yaml:"time_limit_ms" json:"time_limit_ms"`
	DepthLimit      int    `yaml:"depth_limit" json:"depth_limit"`
	CheckQuietness  bool   `yaml:"check_quietness" json:"check_quietness"`
	QuiescenceDepth int    `yaml:"quiescence_depth" json:"quiescence_depth"`
}

// TimeLimit returns the per-move clock budget.
func (a AISettings) TimeLimit() time.Duration {
	return time.Duration(a.TimeLimitMs) * time.Millisecond
}

// HandicapSetting names a handicap either by name or by numeric index.
// A name wins when both are given.
type HandicapSetting struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Index *int   `yaml:"index,omitempty" json:"index,omitempty"`
}

// UnmarshalYAML also accepts the short scalar forms
// "handicap: No Castling" and "handicap: 1".
func (h *HandicapSetting) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*h = HandicapSetting{}
		if n, err := strconv.Atoi(value.Value); err == nil {
			h.Index = &n
		} else {
			h.Name = value.Value
		}
		return nil
	}
	type plain HandicapSetting
	return value.Decode((*plain)(h))
}

// PlayerSettings configures one side.
type PlayerSettings struct {
	Handicap HandicapSetting `yaml:"handicap" json:"handicap"`
	// Algorithm overrides AISettings.Algorithm for this side when set.
	Algorithm string `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
}

// Settings is the full configuration of a session.
type Settings struct {
	Preset   string         `yaml:"preset" json:"preset"`
	AI       AISettings     `yaml:"ai" json:"ai"`
	White    PlayerSettings `yaml:"white" json:"white"`
	Black    PlayerSettings `yaml:"black" json:"black"`
	Seed     uint64         `yaml:"seed" json:"seed"`
	MaxPlies int            `yaml:"max_plies" json:"max_plies"`
}

var presets = map[string]AISettings{
	"human_vs_ai": {Algorithm: "mcts", IterationLimit: 1000000, TimeLimitMs: 3000, DepthLimit: 18, CheckQuietness: true, QuiescenceDepth: 16},
	"ai_vs_human": {Algorithm: "mcts", IterationLimit: 1000000, TimeLimitMs: 3000, DepthLimit: 18, CheckQuietness: true, QuiescenceDepth: 16},
	"max_power":   {Algorithm: "mcts", IterationLimit: 10000000, TimeLimitMs: 3000, DepthLimit: 24, CheckQuietness: true, QuiescenceDepth: 20},
	"ai_vs_ai":    {Algorithm: "mcts", IterationLimit: 500000, TimeLimitMs: 2000, DepthLimit: 12, CheckQuietness: true, QuiescenceDepth: 8},
	"easy":        {Algorithm: "heuristic", IterationLimit: 200000, TimeLimitMs: 1500, DepthLimit: 8, CheckQuietness: false, QuiescenceDepth: 4},
	"strong":      {Algorithm: "mcts", IterationLimit: 2000000, TimeLimitMs: 5000, DepthLimit: 24, CheckQuietness: true, QuiescenceDepth: 20},
	"smart":       {Algorithm: "mcts", IterationLimit: 1500000, TimeLimitMs: 3000, DepthLimit: 20, CheckQuietness: true, QuiescenceDepth: 18},
}

// Preset returns the AI settings of a named preset.
func Preset(name string) (AISettings, error) {
	ai, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return AISettings{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return ai, nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the default preset with no handicaps on either side.
func Default() Settings {
	ai, _ := Preset(DefaultPreset)
	return Settings{
		Preset:   DefaultPreset,
		AI:       ai,
		MaxPlies: DefaultMaxPlies,
	}
}

// Load reads a YAML settings file. See Parse.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML settings. The named preset (or the default one) fills
// the AI block first and any keys present in the document override it.
func Parse(data []byte) (Settings, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}

	s := Default()
	if head.Preset != "" {
		ai, err := Preset(head.Preset)
		if err != nil {
			return Settings{}, err
		}
		s.Preset = strings.ToLower(strings.TrimSpace(head.Preset))
		s.AI = ai
	}

	// yaml.v3 leaves fields that are absent from the document untouched.
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}
	s.Preset = strings.ToLower(strings.TrimSpace(s.Preset))
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Marshal encodes s as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks ranges and names.
func (s Settings) Validate() error {
	if s.AI.IterationLimit < 0 || s.AI.TimeLimitMs < 0 || s.AI.DepthLimit < 0 || s.AI.QuiescenceDepth < 0 {
		return fmt.Errorf("%w: search limits must not be negative", ErrInvalidSettings)
	}
	if s.AI.IterationLimit == 0 && s.AI.TimeLimitMs == 0 {
		return fmt.Errorf("%w: either iteration_limit or time_limit_ms must be set", ErrInvalidSettings)
	}
	if s.MaxPlies < 0 {
		return fmt.Errorf("%w: max_plies must not be negative", ErrInvalidSettings)
	}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if _, err := s.AlgorithmFor(c); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}
	return nil
}

// Player returns the settings of the side playing c.
func (s Settings) Player(c chess.Color) PlayerSettings {
	if c == chess.Black {
		return s.Black
	}
	return s.White
}

// AlgorithmFor returns the search algorithm used by side c.
func (s Settings) AlgorithmFor(c chess.Color) (engine.Algorithm, error) {
	name := s.Player(c).Algorithm
	if name == "" {
		name = s.AI.Algorithm
	}
	if name == "" {
		return engine.MCTS, nil
	}
	return engine.ParseAlgorithm(name)
}

// ResolveHandicap maps a setting to a rule. Unknown names or indices fall
// back to None with a warning.
func ResolveHandicap(h HandicapSetting, reg *handicap.Registry) handicap.Rule {
	none, _ := reg.Lookup(handicap.None)
	switch {
	case strings.TrimSpace(h.Name) != "":
		if r, ok := reg.ByName(h.Name); ok {
			return r
		}
		log.Warn().Str("name", h.Name).Msg("unknown handicap name, using none")
		return none
	case h.Index != nil:
		if *h.Index >= 0 && *h.Index <= 0xffff {
			if r, ok := reg.Lookup(handicap.ID(*h.Index)); ok {
				return r
			}
		}
		log.Warn().Int("index", *h.Index).Msg("unknown handicap index, using none")
		return none
	}
	return none
}
