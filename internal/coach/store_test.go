package coach

import "testing"

func TestStoreCreateAndGet(t *testing.T) {
	st := NewStore()

	s, created := st.Create("agent", "+61400000001")
	if !created {
		t.Fatal("expected session to be created")
	}
	if s.Stage != StageCollecting {
		t.Errorf("stage mismatch: got %s, want Collecting", s.Stage)
	}

	if _, created := st.Create("agent", "+61400000001"); created {
		t.Error("second create for the same leg should not create")
	}
	if st.Count() != 1 {
		t.Errorf("count mismatch: got %d, want 1", st.Count())
	}

	got, ok := st.Get("agent")
	if !ok || got.AgentLegID != "agent" || got.CallerNumber != "+61400000001" {
		t.Errorf("unexpected session: %+v", got)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	st := NewStore()
	s, _ := st.Create("agent", "")
	s.Stage = StageLive

	got, _ := st.Get("agent")
	if got.Stage != StageCollecting {
		t.Error("mutating a returned session must not change the store")
	}
}

func TestStoreFindByPendingLeg(t *testing.T) {
	st := NewStore()
	st.Create("agent-a", "")
	st.Create("agent-b", "")
	st.Update("agent-a", func(s *Session) { s.PendingOutboundLegID = "A" })
	st.Update("agent-b", func(s *Session) { s.PendingOutboundLegID = "B" })

	got, ok := st.FindByPendingLeg("B")
	if !ok || got.AgentLegID != "agent-b" {
		t.Errorf("expected agent-b, got %+v (found=%v)", got, ok)
	}
	if _, ok := st.FindByPendingLeg("C"); ok {
		t.Error("unknown pending leg should not match")
	}
	if _, ok := st.FindByPendingLeg(""); ok {
		t.Error("empty leg id should never match")
	}
}

func TestStoreFindByOutboundLeg(t *testing.T) {
	st := NewStore()
	st.Create("agent", "")
	st.Update("agent", func(s *Session) {
		s.PendingOutboundLegID = "customer"
		s.CustomerLegID = "customer"
	})

	if got, ok := st.FindByOutboundLeg("customer"); !ok || got.AgentLegID != "agent" {
		t.Errorf("expected agent, got %+v", got)
	}
	if _, ok := st.FindByOutboundLeg(""); ok {
		t.Error("empty leg id should never match")
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	st := NewStore()
	st.Create("agent", "")
	st.Create("other", "")

	if !st.Delete("agent") {
		t.Fatal("first delete should report removal")
	}
	if st.Delete("agent") {
		t.Error("second delete should report nothing removed")
	}
	if st.Count() != 1 {
		t.Errorf("count mismatch: got %d, want 1", st.Count())
	}
	if _, ok := st.Get("other"); !ok {
		t.Error("unrelated session must survive")
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	st := NewStore()
	called := false
	if _, ok := st.Update("nobody", func(*Session) { called = true }); ok {
		t.Error("update of missing session should report false")
	}
	if called {
		t.Error("update func must not run for missing session")
	}
}

func TestStageAdvanceIsMonotonic(t *testing.T) {
	s := &Session{Stage: StageCollecting}
	if !s.advance(StageDialling) {
		t.Fatal("forward move should succeed")
	}
	if s.advance(StageCollecting) {
		t.Error("backward move should be refused")
	}
	if s.advance(StageDialling) {
		t.Error("repeated move should be refused")
	}
	if s.Stage != StageDialling {
		t.Errorf("stage mismatch: got %s", s.Stage)
	}
	if Stage(9).String() != "Unknown" {
		t.Error("out of range stage should print Unknown")
	}
}

func TestStoreAllReturnsEverySession(t *testing.T) {
	st := NewStore()
	st.Create("agent-a", "")
	st.Create("agent-b", "")

	all := st.All()
	if len(all) != 2 {
		t.Fatalf("session count mismatch: got %d, want 2", len(all))
	}
	all[0].Stage = StageLive
	for _, s := range st.All() {
		if s.Stage != StageCollecting {
			t.Errorf("mutating All result changed stored session %s", s.AgentLegID)
		}
	}
}
