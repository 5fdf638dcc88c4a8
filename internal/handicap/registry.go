package handicap

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Registry is the read-only table of known rules. Build it once at startup
// with NewRegistry and pass it to whoever needs to resolve ids.
type Registry struct {
	rules  map[ID]Rule
	byName map[string]ID
}

// NewRegistry returns a registry holding every rule.
func NewRegistry() *Registry {
	reg := &Registry{
		rules:  make(map[ID]Rule),
		byName: make(map[string]ID),
	}
	reg.add(NoneRule)
	reg.add(Rule{
		ID:          NoCastling,
		Slug:        "no-castling",
		Name:        "No Castling",
		Description: "Castling (kingside or queenside) is not allowed.",
	})
	reg.add(Rule{
		ID:          PawnPushOneOnly,
		Slug:        "pawn-push-one",
		Name:        "Pawns Advance One",
		Description: "Pawns may not advance two squares on their first move.",
	})
	reg.add(Rule{
		ID:          BlockRandomFile,
		Slug:        "block-random-file",
		Name:        "Random File Blocked",
		Description: "At the start of your turn a random file (a-h) is chosen. You cannot move any piece to that file this turn.",
	})
	return reg
}

func (reg *Registry) add(r Rule) {
	reg.rules[r.ID] = r
	reg.byName[strings.ToLower(r.Name)] = r.ID
	reg.byName[r.Slug] = r.ID
}

// Lookup returns the rule registered under id.
func (reg *Registry) Lookup(id ID) (Rule, bool) {
	r, ok := reg.rules[id]
	return r, ok
}

// Resolve returns the rule for id, falling back to None for unknown ids.
func (reg *Registry) Resolve(id ID) Rule {
	if r, ok := reg.rules[id]; ok {
		return r
	}
	log.Warn().Uint16("id", uint16(id)).Msg("unknown handicap id, using none")
	return reg.rules[None]
}

// ByName finds a rule by display name or slug, ignoring case.
func (reg *Registry) ByName(name string) (Rule, bool) {
	id, ok := reg.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Rule{}, false
	}
	return reg.rules[id], true
}

// All returns every rule ordered by id.
func (reg *Registry) All() []Rule {
	out := make([]Rule, 0, len(reg.rules))
	for _, r := range reg.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
