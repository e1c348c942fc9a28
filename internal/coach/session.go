package coach

import "time"

// Stage is the position of a coached call in its fixed flow.
// Stages only move forward.
type Stage int

const (
	StageCollecting Stage = iota
	StageDialling
	StageLive
)

func (s Stage) String() string {
	names := []string{"Collecting", "Dialling", "Live"}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// Session is the state of one agent call, keyed by the agent leg's
// call control id.
type Session struct {
	AgentLegID string
	Stage      Stage

	// PendingOutboundLegID is the customer leg we originated and are
	// waiting to hear answered.
	PendingOutboundLegID string
	CustomerLegID        string
	ConferenceID         string

	CallerNumber string
	Destination  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// advance moves the session forward. Backward or repeated moves are refused.
func (s *Session) advance(to Stage) bool {
	if to <= s.Stage {
		return false
	}
	s.Stage = to
	return true
}

// OwnsOutboundLeg reports whether legID is the customer leg of this session,
// whether or not it has answered yet.
func (s *Session) OwnsOutboundLeg(legID string) bool {
	if legID == "" {
		return false
	}
	return s.PendingOutboundLegID == legID || s.CustomerLegID == legID
}
