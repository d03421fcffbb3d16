package cards

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeck_IDsAndOrder(t *testing.T) {
	two := 2
	defs := []Definition{
		{Name: "Cash  Bag", Description: "Bag full of cash", Quantity: 2, Value: &two},
		{Name: "Knife", Description: "Sharp blade", Quantity: 1},
	}

	deck := BuildDeck(defs, FamilyVault)

	require.Len(t, deck, 3)
	assert.Equal(t, "vault-cash-bag-0", deck[0].ID)
	assert.Equal(t, "vault-cash-bag-1", deck[1].ID)
	assert.Equal(t, "vault-knife-0", deck[2].ID)
	assert.Equal(t, FamilyVault, deck[2].Family)
	require.NotNil(t, deck[0].Value)
	assert.Equal(t, 2, *deck[0].Value)
	assert.Nil(t, deck[2].Value)
}

func TestBuildDeck_CatalogSizesAndUniqueIDs(t *testing.T) {
	cases := []struct {
		name   string
		defs   []Definition
		family Family
		size   int
	}{
		{name: "vault", defs: VaultDefinitions, family: FamilyVault, size: 40},
		{name: "alarm", defs: AlarmDefinitions, family: FamilyAlarm, size: 24},
		{name: "handcuff", defs: HandcuffDefinitions, family: FamilyHandcuff, size: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deck := BuildDeck(tc.defs, tc.family)
			require.Len(t, deck, tc.size)
			assert.Equal(t, tc.size, DeckSize(tc.defs))

			seen := map[string]bool{}
			for _, c := range deck {
				assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
				seen[c.ID] = true
				assert.Equal(t, tc.family, c.Family)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "i'll-take-that", normalize("I'll Take That"))
	assert.Equal(t, "hold-it-right-there", normalize("Hold  It\tRight There"))
}

func TestShuffle_IsPermutationAndLeavesInputAlone(t *testing.T) {
	in := BuildDeck(VaultDefinitions, FamilyVault)
	before := append([]Card(nil), in...)

	out := Shuffle(in, rand.New(rand.NewPCG(1, 2)))

	assert.Equal(t, before, in)
	assert.ElementsMatch(t, in, out)
	assert.NotEqual(t, in, out)
}

func TestShuffle_DeterministicForSeed(t *testing.T) {
	in := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	a := Shuffle(in, rand.New(rand.NewPCG(7, 7)))
	b := Shuffle(in, rand.New(rand.NewPCG(7, 7)))

	assert.Equal(t, a, b)
}

type fixedRand struct{ picks []int }

func (f *fixedRand) IntN(n int) int {
	p := f.picks[0]
	f.picks = f.picks[1:]
	return p % n
}

func TestShuffle_SwapsFromLastToFirst(t *testing.T) {
	// i=2 swaps with 0, then i=1 swaps with 1.
	out := Shuffle([]string{"a", "b", "c"}, &fixedRand{picks: []int{0, 1}})
	assert.Equal(t, []string{"c", "b", "a"}, out)
}

func TestShuffle_EmptyAndSingle(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	assert.Empty(t, Shuffle([]int{}, rng))
	assert.Equal(t, []int{42}, Shuffle([]int{42}, rng))
}
