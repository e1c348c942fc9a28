package coach

import (
	"sync"
	"time"
)

// Store holds live sessions in memory. Reads return copies; mutations go
// through Update so the event loop and observers never share a *Session.
type Store struct {
	byAgentLeg map[string]*Session
	now        func() time.Time

	mu sync.RWMutex
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		byAgentLeg: make(map[string]*Session),
		now:        time.Now,
	}
}

// Create registers a new session in the Collecting stage. It returns false
// and the existing session if one is already registered for the leg.
func (st *Store) Create(agentLegID, callerNumber string) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if existing, ok := st.byAgentLeg[agentLegID]; ok {
		return *existing, false
	}

	now := st.now()
	s := &Session{
		AgentLegID:   agentLegID,
		Stage:        StageCollecting,
		CallerNumber: callerNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	st.byAgentLeg[agentLegID] = s
	return *s, true
}

// Get retrieves a session by agent leg id
func (st *Store) Get(agentLegID string) (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.byAgentLeg[agentLegID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Find returns the first session matching pred.
func (st *Store) Find(pred func(*Session) bool) (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	for _, s := range st.byAgentLeg {
		if pred(s) {
			return *s, true
		}
	}
	return Session{}, false
}

// FindByPendingLeg locates the session that originated legID and is
// still waiting for it.
func (st *Store) FindByPendingLeg(legID string) (Session, bool) {
	if legID == "" {
		return Session{}, false
	}
	return st.Find(func(s *Session) bool {
		return s.PendingOutboundLegID == legID
	})
}

// FindByOutboundLeg locates the session owning a customer leg, answered or not.
func (st *Store) FindByOutboundLeg(legID string) (Session, bool) {
	return st.Find(func(s *Session) bool {
		return s.OwnsOutboundLeg(legID)
	})
}

// Update applies fn to the stored session under the store lock.
// It returns the updated copy, or false if no session exists.
func (st *Store) Update(agentLegID string, fn func(*Session)) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.byAgentLeg[agentLegID]
	if !ok {
		return Session{}, false
	}
	fn(s)
	s.UpdatedAt = st.now()
	return *s, true
}

// Delete removes a session. Deleting an absent session is a no-op that
// reports false.
func (st *Store) Delete(agentLegID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.byAgentLeg[agentLegID]; !ok {
		return false
	}
	delete(st.byAgentLeg, agentLegID)
	return true
}

// All returns copies of every active session
func (st *Store) All() []Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make([]Session, 0, len(st.byAgentLeg))
	for _, s := range st.byAgentLeg {
		result = append(result, *s)
	}
	return result
}

// Count returns the number of active sessions
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byAgentLeg)
}
