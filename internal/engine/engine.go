package engine

import (
	"fmt"
	"time"

	"github.com/DoyleJ11/heist-server/internal/cards"
)

type Phase string

const (
	PhaseLobby    Phase = ""
	PhaseRole     Phase = "role"
	PhaseRobbery1 Phase = "robbery1"
	PhaseRobbery2 Phase = "robbery2"
	PhaseRobbery3 Phase = "robbery3"
	PhaseRobbery4 Phase = "robbery4"
	PhaseGetaway1 Phase = "getaway1"
	PhaseGetaway2 Phase = "getaway2"
	PhaseGetaway3 Phase = "getaway3"
	PhaseGetaway4 Phase = "getaway4"
	PhaseHideout  Phase = "hideout"
)

type Role string

const (
	RoleAgent  Role = "Agent"
	RoleRival  Role = "Rival"
	RoleCrew   Role = "Crew"
	RoleSticky Role = "Sticky"
)

type User struct {
	ID                     string       `json:"id"`
	Color                  string       `json:"color,omitempty"`
	Role                   Role         `json:"role,omitempty"`
	Ready                  bool         `json:"ready"`
	Hand                   []cards.Card `json:"hand"`
	HasDrawnThisPhase      bool         `json:"hasDrawnThisPhase"`
	HasDrawnAlarmThisPhase bool         `json:"hasDrawnAlarmThisPhase"`
}

type LogEntry struct {
	DT      int64  `json:"dt"` // unix millis
	Message string `json:"message"`
}

type Rules struct {
	// RolePool is dealt to players in shuffled order, modulo its length.
	RolePool []Role `json:"rolePool"`
}

type State struct {
	Users         []User `json:"users"`
	HostID        string `json:"hostId,omitempty"`
	Phase         Phase  `json:"phase,omitempty"`
	CurrentPlayer string `json:"currentPlayer,omitempty"`

	// Handoff in flight: empty, drawn (card + drawer) or offered (all three).
	PendingCard          *cards.Card `json:"pendingCard,omitempty"`
	PendingCardDrawnBy   string      `json:"pendingCardDrawnBy,omitempty"`
	PendingCardRecipient string      `json:"pendingCardRecipient,omitempty"`

	VaultDeck       []cards.Card `json:"vaultDeck"`
	AlarmDeck       []cards.Card `json:"alarmDeck"`
	HandcuffDeck    []cards.Card `json:"handcuffDeck"`
	VaultDiscard    []cards.Card `json:"vaultDiscard"`
	AlarmDiscard    []cards.Card `json:"alarmDiscard"`
	HandcuffDiscard []cards.Card `json:"handcuffDiscard"`

	Log   []LogEntry `json:"log"`
	Rules Rules      `json:"rules"`
}

// Env carries what Apply needs from the outside world. Now is only used to
// stamp log entries.
type Env struct {
	Rand cards.Rand
	Now  func() time.Time
}

// Apply returns the state that results from act. s is never modified.
// Illegal actions come back as s plus one log entry saying why; actions the
// rules don't know come back as s.
func Apply(s State, act ServerAction, env Env) State {
	user := act.User

	switch a := act.Action.(type) {
	case UserEntered:
		if _, ok := s.userIndex(user.ID); ok {
			return reject(s, env, fmt.Sprintf("Player %s is already in the room", user.ID))
		}
		next := s.clone()
		if len(next.Users) == 0 {
			next.HostID = user.ID
		}
		next.Users = append(next.Users, User{ID: user.ID, Color: user.Color, Hand: []cards.Card{}})
		return next.withLog(env, fmt.Sprintf("Player %s joined 🎉", user.ID))

	case UserExit:
		next := s.clone()
		kept := next.Users[:0]
		for _, u := range next.Users {
			if u.ID != user.ID {
				kept = append(kept, u)
			}
		}
		next.Users = kept
		return next.withLog(env, fmt.Sprintf("Player %s left 😢", user.ID))

	case Chat:
		return s.clone().withLog(env, fmt.Sprintf("%s: %s", user.ID, a.Message))

	case StartGame:
		return startGame(s, user, env)

	case Ready:
		return ready(s, user, env)

	case DrawVault:
		return drawVault(s, user, env)

	case DrawAlarm:
		return drawAlarm(s, user, env)

	case DrawHandcuff:
		return drawHandcuff(s, user, env)

	case GiveCard:
		return giveCard(s, user, a.RecipientID, env)

	case AcknowledgeCard:
		return acknowledgeCard(s, user, env)

	default:
		return s
	}
}

func startGame(s State, user Sender, env Env) State {
	if user.ID != s.HostID {
		return reject(s, env, "Only the host can start the game!")
	}
	if s.Phase != PhaseLobby {
		return reject(s, env, "The game has already started")
	}

	pool := s.Rules.RolePool
	if len(pool) == 0 {
		pool = DefaultRolePool
	}
	roles := cards.Shuffle(pool, env.rng())

	next := s.clone()
	next.Users = cards.Shuffle(next.Users, env.rng())
	for i := range next.Users {
		next.Users[i].Role = roles[i%len(roles)]
	}
	next.Phase = PhaseRole
	return next.withLog(env, "Roles assigned 🔀")
}

func ready(s State, user Sender, env Env) State {
	if s.Phase != PhaseRole {
		return reject(s, env, fmt.Sprintf("%s can't ready up outside the role phase", user.ID))
	}
	idx, ok := s.userIndex(user.ID)
	if !ok {
		return reject(s, env, fmt.Sprintf("%s is not in this game", user.ID))
	}

	next := s.clone()
	next.Users[idx].Ready = true
	next = next.withLog(env, fmt.Sprintf("%s is ready ✓", user.ID))

	for _, u := range next.Users {
		if !u.Ready {
			return next
		}
	}

	next.resetRound()
	next.Phase = PhaseRobbery1
	return next.withLog(env, "All players ready! Starting robbery... 🎯")
}

func drawVault(s State, user Sender, env Env) State {
	if !isRobbery(s.Phase) {
		return reject(s, env, fmt.Sprintf("%s can't draw a vault card right now", user.ID))
	}
	idx, ok := s.userIndex(user.ID)
	if !ok {
		return reject(s, env, fmt.Sprintf("%s is not in this game", user.ID))
	}
	if user.ID != s.CurrentPlayer {
		return reject(s, env, fmt.Sprintf("It's not %s's turn", user.ID))
	}
	if s.PendingCard != nil {
		return reject(s, env, "The last vault card hasn't been handed off yet")
	}
	if s.Users[idx].HasDrawnThisPhase {
		return reject(s, env, fmt.Sprintf("%s already drew a vault card this phase", user.ID))
	}
	if s.Phase != PhaseRobbery1 && !s.Users[idx].HasDrawnAlarmThisPhase {
		return reject(s, env, fmt.Sprintf("%s must draw an alarm card first", user.ID))
	}
	if len(s.VaultDeck) == 0 {
		return reject(s, env, "No vault cards left")
	}

	next := s.clone()
	card := next.VaultDeck[0]
	next.VaultDeck = next.VaultDeck[1:]
	next.Users[idx].HasDrawnThisPhase = true
	next.PendingCard = &card
	next.PendingCardDrawnBy = user.ID
	return next.withLog(env, fmt.Sprintf("%s drew a vault card 🏦", user.ID))
}

func drawAlarm(s State, user Sender, env Env) State {
	if !needsAlarm(s.Phase) {
		return reject(s, env, fmt.Sprintf("%s can't draw an alarm card right now", user.ID))
	}
	idx, ok := s.userIndex(user.ID)
	if !ok {
		return reject(s, env, fmt.Sprintf("%s is not in this game", user.ID))
	}
	if user.ID != s.CurrentPlayer {
		return reject(s, env, fmt.Sprintf("It's not %s's turn", user.ID))
	}
	if s.Users[idx].HasDrawnAlarmThisPhase {
		return reject(s, env, fmt.Sprintf("%s already drew an alarm card this phase", user.ID))
	}
	if len(s.AlarmDeck) == 0 {
		return reject(s, env, "No alarm cards left")
	}

	next := s.clone()
	next.Users[idx].Hand = append(next.Users[idx].Hand, next.AlarmDeck[0])
	next.AlarmDeck = next.AlarmDeck[1:]
	next.Users[idx].HasDrawnAlarmThisPhase = true
	return next.withLog(env, fmt.Sprintf("%s drew an alarm card 🚨", user.ID))
}

// drawHandcuff ignores phase and turn order.
func drawHandcuff(s State, user Sender, env Env) State {
	idx, ok := s.userIndex(user.ID)
	if !ok {
		return reject(s, env, fmt.Sprintf("%s is not in this game", user.ID))
	}
	if len(s.HandcuffDeck) == 0 {
		return reject(s, env, "No handcuff cards left")
	}

	next := s.clone()
	next.Users[idx].Hand = append(next.Users[idx].Hand, next.HandcuffDeck[0])
	next.HandcuffDeck = next.HandcuffDeck[1:]
	return next.withLog(env, fmt.Sprintf("%s drew a handcuff card ⛓️", user.ID))
}

// giveCard offers the pending vault card. Beyond being non-empty the
// recipient is taken as given: an unknown id leaves the handoff waiting on
// an acknowledgement that can't arrive.
func giveCard(s State, user Sender, recipientID string, env Env) State {
	if s.PendingCard == nil {
		return reject(s, env, "There is no card to give")
	}
	if user.ID != s.PendingCardDrawnBy {
		return reject(s, env, fmt.Sprintf("Only %s can give this card", s.PendingCardDrawnBy))
	}
	if s.PendingCardRecipient != "" {
		return reject(s, env, fmt.Sprintf("The card was already offered to %s", s.PendingCardRecipient))
	}
	if recipientID == "" {
		return reject(s, env, fmt.Sprintf("%s must choose who gets the card", user.ID))
	}

	next := s.clone()
	next.PendingCardRecipient = recipientID
	return next.withLog(env, fmt.Sprintf("%s offered a card to %s 🤝", user.ID, recipientID))
}

func acknowledgeCard(s State, user Sender, env Env) State {
	if s.PendingCard == nil || s.PendingCardRecipient == "" {
		return reject(s, env, "There is no card to acknowledge")
	}
	if user.ID != s.PendingCardRecipient {
		return reject(s, env, fmt.Sprintf("Only %s can acknowledge this card", s.PendingCardRecipient))
	}
	idx, ok := s.userIndex(user.ID)
	if !ok {
		return reject(s, env, fmt.Sprintf("%s is not in this game", user.ID))
	}

	next := s.clone()
	next.Users[idx].Hand = append(next.Users[idx].Hand, *next.PendingCard)
	drawer := next.PendingCardDrawnBy
	next.clearPending()
	next = next.withLog(env, fmt.Sprintf("%s received a card from %s ✓", user.ID, drawer))

	if !next.everyoneDrew() {
		next.CurrentPlayer = next.nextPlayer()
		return next
	}

	next.resetRound()
	next.Phase = nextPhase[next.Phase]
	return next.withLog(env, fmt.Sprintf("Everyone has drawn! Moving to %s", next.Phase))
}

func reject(s State, env Env, msg string) State {
	return s.clone().withLog(env, msg)
}
