package engine

// Action is the closed set of things a user can ask the game to do.
// Every arm is handled in Apply; TestApply_HandlesEveryAction guards that.
type Action interface{ isAction() }

type UserEntered struct{}

type UserExit struct{}

type Chat struct {
	Message string
}

type StartGame struct{}

type Ready struct{}

type DrawVault struct{}

type DrawAlarm struct{}

type DrawHandcuff struct{}

type GiveCard struct {
	RecipientID string
}

type AcknowledgeCard struct{}

func (UserEntered) isAction()     {}
func (UserExit) isAction()        {}
func (Chat) isAction()            {}
func (StartGame) isAction()       {}
func (Ready) isAction()           {}
func (DrawVault) isAction()       {}
func (DrawAlarm) isAction()       {}
func (DrawHandcuff) isAction()    {}
func (GiveCard) isAction()        {}
func (AcknowledgeCard) isAction() {}

// Sender identifies who dispatched an action. The room host fills it in from
// the connection, never from client input.
type Sender struct {
	ID    string `json:"id"`
	Color string `json:"color,omitempty"`
}

type ServerAction struct {
	User   Sender
	Action Action
}
