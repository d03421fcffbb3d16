package cards

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rand is the random source the shuffler draws from. *math/rand/v2.Rand
// satisfies it.
type Rand interface {
	IntN(n int) int
}

var lower = cases.Lower(language.Und)

// BuildDeck expands defs into concrete cards of the given family, in
// definition order with ascending copy index.
func BuildDeck(defs []Definition, family Family) []Card {
	deck := make([]Card, 0, DeckSize(defs))
	for _, def := range defs {
		slug := normalize(def.Name)
		for i := 0; i < def.Quantity; i++ {
			deck = append(deck, Card{
				ID:          fmt.Sprintf("%s-%s-%d", family, slug, i),
				Name:        def.Name,
				Family:      family,
				Value:       def.Value,
				Description: def.Description,
			})
		}
	}
	return deck
}

// normalize lowercases name and replaces each whitespace run with a hyphen.
func normalize(name string) string {
	return strings.Join(strings.Fields(lower.String(name)), "-")
}

// Shuffle returns a uniformly random permutation of in. in is not modified.
func Shuffle[T any](in []T, rng Rand) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
