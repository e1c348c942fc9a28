package coach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dense-identity/callcoach/internal/phone"
	"github.com/dense-identity/callcoach/internal/telnyx"
)

// action records one call made against fakeCalls.
type action struct {
	Name   string
	Target string
	Arg    string
	Gather telnyx.GatherOptions
}

// fakeCalls records every action and hands out predictable ids.
type fakeCalls struct {
	mu      sync.Mutex
	actions []action
	fail    map[string]error
	dialSeq int
	confSeq int
	// dialIDs, when set, is consumed in order by Dial.
	dialIDs []string
}

func newFakeCalls() *fakeCalls {
	return &fakeCalls{fail: make(map[string]error)}
}

func (f *fakeCalls) record(a action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	return f.fail[a.Name]
}

func (f *fakeCalls) failOn(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = errors.New(name + " failed")
}

func (f *fakeCalls) clearFail(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fail, name)
}

func (f *fakeCalls) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = nil
}

func (f *fakeCalls) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.actions))
	for _, a := range f.actions {
		out = append(out, a.Name+":"+a.Target)
	}
	return out
}

func (f *fakeCalls) byName(name string) []action {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []action
	for _, a := range f.actions {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

var okResult = &telnyx.CommandResult{Result: "ok"}

func (f *fakeCalls) Answer(ctx context.Context, id string) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "answer", Target: id}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (f *fakeCalls) Speak(ctx context.Context, id, text string) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "speak", Target: id, Arg: text}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (f *fakeCalls) Gather(ctx context.Context, id string, opts telnyx.GatherOptions) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "gather", Target: id, Gather: opts}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (f *fakeCalls) GatherUsingSpeak(ctx context.Context, id, prompt string, opts telnyx.GatherOptions) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "gather_using_speak", Target: id, Arg: prompt, Gather: opts}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (f *fakeCalls) Dial(ctx context.Context, req telnyx.DialRequest) (*telnyx.Call, error) {
	if err := f.record(action{Name: "dial", Target: req.To, Arg: req.From}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.dialIDs) > 0 {
		id := f.dialIDs[0]
		f.dialIDs = f.dialIDs[1:]
		return &telnyx.Call{CallControlID: id}, nil
	}
	f.dialSeq++
	return &telnyx.Call{CallControlID: fmt.Sprintf("customer-%d", f.dialSeq)}, nil
}

func (f *fakeCalls) CreateConference(ctx context.Context, id, name string) (*telnyx.Conference, error) {
	if err := f.record(action{Name: "create_conference", Target: id, Arg: name}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confSeq++
	return &telnyx.Conference{ID: fmt.Sprintf("conf-%d", f.confSeq), Name: name}, nil
}

func (f *fakeCalls) JoinConference(ctx context.Context, confID, id, role string) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "join_conference", Target: id, Arg: confID}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (f *fakeCalls) StartAssistant(ctx context.Context, id, assistantID string) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "start_assistant", Target: id, Arg: assistantID}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (f *fakeCalls) Hangup(ctx context.Context, id string) (*telnyx.CommandResult, error) {
	if err := f.record(action{Name: "hangup", Target: id}); err != nil {
		return nil, err
	}
	return okResult, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(allowed ...string) Settings {
	return Settings{
		FromNumber:     "+61200000000",
		ConnectionID:   "conn-1",
		CountryCode:    "61",
		WhisperTrigger: "*2",
		CoachScript:    "Coaching tip",
		Allowed:        phone.NewAllowList(allowed),
	}
}

func newTestRouter(settings Settings) (*Router, *Store, *fakeCalls) {
	store := NewStore()
	calls := newFakeCalls()
	return NewRouter(store, calls, settings, discardLogger()), store, calls
}
