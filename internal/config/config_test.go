package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/hailam/drawbackchess/internal/engine"
	"github.com/hailam/drawbackchess/internal/handicap"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.Equal(t, DefaultPreset, s.Preset)
	require.Equal(t, 1500000, s.AI.IterationLimit)
	require.Equal(t, 3000, s.AI.TimeLimitMs)
	require.Equal(t, 20, s.AI.DepthLimit)
	require.True(t, s.AI.CheckQuietness)
	require.Equal(t, 18, s.AI.QuiescenceDepth)
	require.NoError(t, s.Validate())
}

func TestPreset(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			ai, err := Preset(name)
			require.NoError(t, err)
			require.Positive(t, ai.IterationLimit)
			require.Positive(t, ai.TimeLimitMs)
		})
	}

	easy, err := Preset(" Easy ")
	require.NoError(t, err)
	require.False(t, easy.CheckQuietness)
	require.Equal(t, 8, easy.DepthLimit)

	_, err = Preset("grandmaster")
	require.ErrorIs(t, err, ErrUnknownPreset)
}

func TestParseOverlaysPreset(t *testing.T) {
	data := []byte(`
preset: ai_vs_ai
ai:
  time_limit_ms: 250
white:
  handicap: No Castling
black:
  handicap:
    index: 3
  algorithm: heuristic
seed: 7
`)
	s, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "ai_vs_ai", s.Preset)
	require.Equal(t, 250, s.AI.TimeLimitMs)
	require.Equal(t, 500000, s.AI.IterationLimit)
	require.Equal(t, 12, s.AI.DepthLimit)
	require.Equal(t, 8, s.AI.QuiescenceDepth)
	require.Equal(t, "No Castling", s.White.Handicap.Name)
	require.NotNil(t, s.Black.Handicap.Index)
	require.Equal(t, 3, *s.Black.Handicap.Index)
	require.Equal(t, uint64(7), s.Seed)
	require.Equal(t, DefaultMaxPlies, s.MaxPlies)

	algo, err := s.AlgorithmFor(chess.White)
	require.NoError(t, err)
	require.Equal(t, engine.MCTS, algo)
	algo, err = s.AlgorithmFor(chess.Black)
	require.NoError(t, err)
	require.Equal(t, engine.Heuristic, algo)
}

func TestParseScalarIndex(t *testing.T) {
	s, err := Parse([]byte("white:\n  handicap: 2\n"))
	require.NoError(t, err)
	require.Empty(t, s.White.Handicap.Name)
	require.NotNil(t, s.White.Handicap.Index)
	require.Equal(t, 2, *s.White.Handicap.Index)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"unknown preset", "preset: nope\n", ErrUnknownPreset},
		{"negative depth", "ai:\n  depth_limit: -1\n", ErrInvalidSettings},
		{"no budget", "ai:\n  iteration_limit: 0\n  time_limit_ms: 0\n", ErrInvalidSettings},
		{"bad algorithm", "white:\n  algorithm: minimax\n", ErrInvalidSettings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Parse([]byte("ai: [1, 2"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawback.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preset: easy\nmax_plies: 80\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "easy", s.Preset)
	require.Equal(t, 80, s.MaxPlies)
	require.Equal(t, "heuristic", s.AI.Algorithm)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	idx := 1
	s := Default()
	s.Black.Handicap.Index = &idx
	data, err := s.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, s, back)
}

func TestResolveHandicap(t *testing.T) {
	reg := handicap.NewRegistry()
	idx := func(i int) *int { return &i }

	tests := []struct {
		name    string
		setting HandicapSetting
		want    handicap.ID
	}{
		{"empty", HandicapSetting{}, handicap.None},
		{"by name", HandicapSetting{Name: "Pawns Advance One"}, handicap.PawnPushOneOnly},
		{"by slug", HandicapSetting{Name: "block-random-file"}, handicap.BlockRandomFile},
		{"by index", HandicapSetting{Index: idx(1)}, handicap.NoCastling},
		{"name wins", HandicapSetting{Name: "No Castling", Index: idx(3)}, handicap.NoCastling},
		{"unknown name", HandicapSetting{Name: "No Queens", Index: idx(3)}, handicap.None},
		{"unknown index", HandicapSetting{Index: idx(99)}, handicap.None},
		{"negative index", HandicapSetting{Index: idx(-1)}, handicap.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveHandicap(tt.setting, reg).ID)
		})
	}
}
