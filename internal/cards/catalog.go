package cards

type Family string

const (
	FamilyVault    Family = "vault"
	FamilyAlarm    Family = "alarm"
	FamilyHandcuff Family = "handcuff"
)

type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Family      Family `json:"family"`
	Value       *int   `json:"value,omitempty"`
	Description string `json:"description"`
}

// Definition is a card archetype and how many copies of it go into a deck.
type Definition struct {
	Name        string
	Description string
	Value       *int
	Quantity    int
}

var VaultDefinitions = []Definition{
	{Name: "Adrenaline", Description: "Quick energy boost", Quantity: 8},
	{Name: "Cash Bag", Description: "Bag full of cash", Quantity: 10},
	{Name: "Chloroform", Description: "Knockout chemical", Quantity: 4},
	{Name: "Dye Pack", Description: "Explosive dye marker", Quantity: 2},
	{Name: "Knife", Description: "Sharp blade", Quantity: 4},
	{Name: "Lock Pick", Description: "Open locks silently", Quantity: 4},
	{Name: "Speedloader", Description: "Quick reload", Quantity: 4},
	{Name: "Zip Tie", Description: "Restrain targets", Quantity: 4},
}

var AlarmDefinitions = []Definition{
	{Name: "Are You Loyal", Description: "Question loyalty", Quantity: 1},
	{Name: "Check These Out", Description: "Examine cards", Quantity: 3},
	{Name: "I'll Take That", Description: "Steal a card", Quantity: 2},
	{Name: "Hold It Right There", Description: "Stop action", Quantity: 2},
	{Name: "Let's Get Moving", Description: "Speed things up", Quantity: 3},
	{Name: "I Don't Like This", Description: "Express suspicion", Quantity: 3},
	{Name: "You Can Trust Me", Description: "Build trust", Quantity: 1},
	// Attribute cards
	{Name: "Guilty Conscience", Description: "Attribute card", Quantity: 1},
	{Name: "Gun Jammed", Description: "Attribute card", Quantity: 1},
	{Name: "Hostage", Description: "Attribute card", Quantity: 1},
	{Name: "Hush Money", Description: "Attribute card", Quantity: 1},
	{Name: "Loose Tongue", Description: "Attribute card", Quantity: 1},
	{Name: "Martial Skills", Description: "Attribute card", Quantity: 1},
	{Name: "Masked", Description: "Attribute card", Quantity: 1},
	{Name: "Poisoned", Description: "Attribute card", Quantity: 1},
	{Name: "Shotgun", Description: "Attribute card", Quantity: 1},
	{Name: "Trigger Happy", Description: "Attribute card", Quantity: 1},
}

var HandcuffDefinitions = []Definition{
	{Name: "Handcuff", Description: "Restrain a player", Quantity: 4},
}

// DeckSize is the number of cards BuildDeck produces for defs.
func DeckSize(defs []Definition) int {
	n := 0
	for _, d := range defs {
		n += d.Quantity
	}
	return n
}
