// Package board adapts github.com/notnil/chess positions for the drawback
// engine: FEN parsing, snapshots, attack scanning and move classification.
package board

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is returned when a FEN string cannot be decoded.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN decodes a FEN string into a position.
func ParseFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFEN, fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// StartPosition returns the standard starting position.
func StartPosition() *chess.Position {
	return chess.StartingPosition()
}

// Snapshot returns an independent copy of pos.
// notnil positions cache their move list lazily, so a position handed to a
// background search must not be shared with the caller.
func Snapshot(pos *chess.Position) *chess.Position {
	cp, err := ParseFEN(pos.String())
	if err != nil {
		// A position always re-encodes to a valid FEN.
		panic(err)
	}
	return cp
}
