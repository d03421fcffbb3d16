package engine

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/DoyleJ11/heist-server/internal/cards"
)

// DefaultRolePool is sized for eight players. Other player counts still
// draw from it modulo its length, so roles skew for anything but eight.
var DefaultRolePool = []Role{
	RoleAgent, RoleAgent,
	RoleRival, RoleRival,
	RoleCrew, RoleCrew, RoleCrew,
	RoleSticky,
}

// InitialGame returns a fresh room: no users, lobby phase and the three
// decks built from the catalog and shuffled with rng.
func InitialGame(rng cards.Rand, now time.Time) State {
	s := State{
		Users:           []User{},
		VaultDeck:       cards.Shuffle(cards.BuildDeck(cards.VaultDefinitions, cards.FamilyVault), rng),
		AlarmDeck:       cards.Shuffle(cards.BuildDeck(cards.AlarmDefinitions, cards.FamilyAlarm), rng),
		HandcuffDeck:    cards.Shuffle(cards.BuildDeck(cards.HandcuffDefinitions, cards.FamilyHandcuff), rng),
		VaultDiscard:    []cards.Card{},
		AlarmDiscard:    []cards.Card{},
		HandcuffDiscard: []cards.Card{},
		Log:             []LogEntry{{DT: now.UnixMilli(), Message: "Game Created!"}},
		Rules:           Rules{RolePool: slices.Clone(DefaultRolePool)},
	}
	return s
}

// NewEnv returns an Env backed by a PCG source seeded with seed and the wall
// clock.
func NewEnv(seed uint64) Env {
	return Env{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), Now: time.Now}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func (e Env) rng() cards.Rand {
	if e.Rand == nil {
		return globalRand{}
	}
	return e.Rand
}

func (e Env) stamp() int64 {
	if e.Now == nil {
		return time.Now().UnixMilli()
	}
	return e.Now().UnixMilli()
}

// clone deep-copies everything Apply may write to.
func (s State) clone() State {
	next := s
	next.Users = make([]User, len(s.Users))
	for i, u := range s.Users {
		u.Hand = slices.Clone(u.Hand)
		next.Users[i] = u
	}
	if s.PendingCard != nil {
		c := *s.PendingCard
		next.PendingCard = &c
	}
	next.VaultDeck = slices.Clone(s.VaultDeck)
	next.AlarmDeck = slices.Clone(s.AlarmDeck)
	next.HandcuffDeck = slices.Clone(s.HandcuffDeck)
	next.VaultDiscard = slices.Clone(s.VaultDiscard)
	next.AlarmDiscard = slices.Clone(s.AlarmDiscard)
	next.HandcuffDiscard = slices.Clone(s.HandcuffDiscard)
	next.Log = slices.Clone(s.Log)
	next.Rules.RolePool = slices.Clone(s.Rules.RolePool)
	return next
}

func (s State) withLog(env Env, msg string) State {
	s.Log = append(s.Log, LogEntry{DT: env.stamp(), Message: msg})
	return s
}

func (s State) userIndex(id string) (int, bool) {
	i := slices.IndexFunc(s.Users, func(u User) bool { return u.ID == id })
	return i, i >= 0
}

// User returns the user with the given id.
func (s State) User(id string) (User, bool) {
	i, ok := s.userIndex(id)
	if !ok {
		return User{}, false
	}
	return s.Users[i], true
}

func (s *State) clearPending() {
	s.PendingCard = nil
	s.PendingCardDrawnBy = ""
	s.PendingCardRecipient = ""
}

// resetRound clears per-phase flags and hands the turn back to the first user.
func (s *State) resetRound() {
	for i := range s.Users {
		s.Users[i].Ready = false
		s.Users[i].HasDrawnThisPhase = false
		s.Users[i].HasDrawnAlarmThisPhase = false
	}
	s.CurrentPlayer = ""
	if len(s.Users) > 0 {
		s.CurrentPlayer = s.Users[0].ID
	}
}

func (s State) everyoneDrew() bool {
	for _, u := range s.Users {
		if !u.HasDrawnThisPhase {
			return false
		}
	}
	return true
}

// HandoffStage reports where the pending vault card is in its handoff.
type HandoffStage int

const (
	HandoffNone HandoffStage = iota
	HandoffDrawn
	HandoffOffered
	HandoffInvalid
)

func (s State) HandoffStage() HandoffStage {
	switch {
	case s.PendingCard == nil && s.PendingCardDrawnBy == "" && s.PendingCardRecipient == "":
		return HandoffNone
	case s.PendingCard != nil && s.PendingCardDrawnBy != "" && s.PendingCardRecipient == "":
		return HandoffDrawn
	case s.PendingCard != nil && s.PendingCardDrawnBy != "" && s.PendingCardRecipient != "":
		return HandoffOffered
	default:
		return HandoffInvalid
	}
}
