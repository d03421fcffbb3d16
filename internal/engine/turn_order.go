package engine

var nextPhase = map[Phase]Phase{
	PhaseRobbery1: PhaseRobbery2,
	PhaseRobbery2: PhaseRobbery3,
	PhaseRobbery3: PhaseRobbery4,
	PhaseRobbery4: PhaseGetaway1,
}

func isRobbery(p Phase) bool {
	switch p {
	case PhaseRobbery1, PhaseRobbery2, PhaseRobbery3, PhaseRobbery4:
		return true
	}
	return false
}

// needsAlarm reports whether a vault draw in p must be preceded by an alarm
// draw.
func needsAlarm(p Phase) bool {
	return isRobbery(p) && p != PhaseRobbery1
}

// nextPlayer is the user after CurrentPlayer in seat order, wrapping to the
// first seat. A current player who has left hands the turn to seat 0.
func (s State) nextPlayer() string {
	if len(s.Users) == 0 {
		return ""
	}
	i, _ := s.userIndex(s.CurrentPlayer)
	return s.Users[(i+1)%len(s.Users)].ID
}
