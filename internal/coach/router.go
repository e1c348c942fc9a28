package coach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dense-identity/callcoach/internal/phone"
	"github.com/dense-identity/callcoach/internal/telnyx"
)

const (
	promptDestination = "Please enter the number you would like to call, followed by the hash key."
	msgRejected       = "Sorry, this number is not authorised to use this service. Goodbye."
	msgInvalidNumber  = "Sorry, that number could not be understood. Goodbye."

	// gather.ended status reported when the leg went away mid-gather.
	gatherStatusHangup = "call_hangup"
)

// CallControl is the subset of the provider API the flow drives.
type CallControl interface {
	Answer(ctx context.Context, callControlID string) (*telnyx.CommandResult, error)
	Speak(ctx context.Context, callControlID, text string) (*telnyx.CommandResult, error)
	Gather(ctx context.Context, callControlID string, opts telnyx.GatherOptions) (*telnyx.CommandResult, error)
	GatherUsingSpeak(ctx context.Context, callControlID, prompt string, opts telnyx.GatherOptions) (*telnyx.CommandResult, error)
	Dial(ctx context.Context, req telnyx.DialRequest) (*telnyx.Call, error)
	CreateConference(ctx context.Context, callControlID, name string) (*telnyx.Conference, error)
	JoinConference(ctx context.Context, conferenceID, callControlID, role string) (*telnyx.CommandResult, error)
	StartAssistant(ctx context.Context, callControlID, assistantID string) (*telnyx.CommandResult, error)
	Hangup(ctx context.Context, callControlID string) (*telnyx.CommandResult, error)
}

// Settings is the fixed flow configuration.
type Settings struct {
	FromNumber     string
	ConnectionID   string
	AssistantID    string
	CountryCode    string
	WhisperTrigger string
	CoachScript    string
	Allowed        *phone.AllowList
}

// Router is the call state machine. Handle must not be called concurrently;
// the Dispatcher guarantees one event at a time.
type Router struct {
	store    *Store
	calls    CallControl
	settings Settings
	logger   *slog.Logger

	conferenceName func(agentLegID string) string
}

// NewRouter creates a state machine over store, issuing actions through calls.
func NewRouter(store *Store, calls CallControl, settings Settings, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		store:    store,
		calls:    calls,
		settings: settings,
		logger:   logger.With("component", "router"),
		conferenceName: func(string) string {
			return "coach-" + uuid.NewString()
		},
	}
}

// Handle applies one event. A returned error means an action failed and
// the remaining steps for this event were skipped.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case InboundCall:
		return r.handleInboundCall(ctx, e)
	case DestinationDigits:
		return r.handleDestinationDigits(ctx, e)
	case LegAnswered:
		return r.handleLegAnswered(ctx, e)
	case WhisperDigits:
		return r.handleWhisperDigits(ctx, e)
	case LegHangup:
		r.handleHangup(e)
		return nil
	case Ignored:
		r.logger.Info("event ignored", "type", e.Type, "call_control_id", e.LegID, "reason", e.Reason)
		return nil
	default:
		r.logger.Warn("unhandled event", "event", fmt.Sprintf("%T", ev))
		return nil
	}
}

func (r *Router) handleInboundCall(ctx context.Context, e InboundCall) error {
	log := r.logger.With("agent_leg", e.LegID)

	if s, ok := r.store.Get(e.LegID); ok {
		log.Debug("duplicate inbound call", "stage", s.Stage)
		return nil
	}

	if _, err := r.calls.Answer(ctx, e.LegID); err != nil {
		return fmt.Errorf("answer inbound call: %w", err)
	}

	caller, ok := phone.Normalize(e.From, r.settings.CountryCode)
	switch {
	case !ok:
		log.Warn("caller id absent, allow-list not applied")
	case !r.settings.Allowed.Allows(caller):
		log.Info("caller rejected", "caller", caller)
		if _, err := r.calls.Speak(ctx, e.LegID, msgRejected); err != nil {
			return fmt.Errorf("speak rejection: %w", err)
		}
		if _, err := r.calls.Hangup(ctx, e.LegID); err != nil {
			return fmt.Errorf("hang up rejected caller: %w", err)
		}
		return nil
	}

	r.store.Create(e.LegID, caller)
	log.Info("session created", "caller", caller)

	opts := telnyx.GatherOptions{
		MinDigits:        1,
		MaxDigits:        16,
		InterDigitMillis: 5000,
		TimeoutMillis:    30000,
		TerminatingDigit: "#",
		ClientState:      telnyx.StateCollectTarget,
	}
	if _, err := r.calls.GatherUsingSpeak(ctx, e.LegID, promptDestination, opts); err != nil {
		return fmt.Errorf("prompt for destination: %w", err)
	}
	return nil
}

func (r *Router) handleDestinationDigits(ctx context.Context, e DestinationDigits) error {
	log := r.logger.With("agent_leg", e.LegID)

	s, ok := r.store.Get(e.LegID)
	if !ok {
		log.Debug("destination digits for unknown session")
		return nil
	}
	if s.Stage != StageCollecting {
		log.Debug("destination digits outside collecting stage", "stage", s.Stage)
		return nil
	}

	dest, ok := phone.Normalize(e.Digits, r.settings.CountryCode)
	if !ok {
		log.Info("destination not usable", "digits", e.Digits, "status", e.Status)
		if _, err := r.calls.Speak(ctx, e.LegID, msgInvalidNumber); err != nil {
			return fmt.Errorf("speak invalid number: %w", err)
		}
		if _, err := r.calls.Hangup(ctx, e.LegID); err != nil {
			return fmt.Errorf("hang up after invalid number: %w", err)
		}
		r.store.Delete(e.LegID)
		return nil
	}

	call, err := r.calls.Dial(ctx, telnyx.DialRequest{
		To:           dest,
		From:         r.settings.FromNumber,
		ConnectionID: r.settings.ConnectionID,
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", dest, err)
	}

	r.store.Update(e.LegID, func(s *Session) {
		s.Destination = dest
		s.PendingOutboundLegID = call.CallControlID
		s.advance(StageDialling)
	})
	log.Info("dialling customer", "destination", dest, "customer_leg", call.CallControlID)
	return nil
}

func (r *Router) handleLegAnswered(ctx context.Context, e LegAnswered) error {
	s, ok := r.store.FindByPendingLeg(e.LegID)
	if !ok {
		r.logger.Debug("answered leg has no pending session", "call_control_id", e.LegID)
		return nil
	}

	log := r.logger.With("agent_leg", s.AgentLegID, "customer_leg", e.LegID)
	if s.Stage != StageDialling {
		log.Debug("duplicate answer", "stage", s.Stage)
		return nil
	}

	// A conference left over from an earlier partial attempt is reused.
	confID := s.ConferenceID
	if confID == "" {
		conf, err := r.calls.CreateConference(ctx, s.AgentLegID, r.conferenceName(s.AgentLegID))
		if err != nil {
			return fmt.Errorf("create conference: %w", err)
		}
		confID = conf.ID
		r.store.Update(s.AgentLegID, func(s *Session) { s.ConferenceID = confID })
		log.Info("conference created", "conference_id", confID)
	} else {
		log.Info("resuming bridge into existing conference", "conference_id", confID)
	}

	if _, err := r.calls.JoinConference(ctx, confID, e.LegID, telnyx.RoleNone); err != nil {
		return fmt.Errorf("join customer to conference: %w", err)
	}

	if r.settings.AssistantID != "" {
		if _, err := r.calls.StartAssistant(ctx, s.AgentLegID, r.settings.AssistantID); err != nil {
			return fmt.Errorf("start assistant: %w", err)
		}
	}

	if err := r.listen(ctx, s.AgentLegID); err != nil {
		return err
	}

	r.store.Update(s.AgentLegID, func(s *Session) {
		s.CustomerLegID = e.LegID
		s.advance(StageLive)
	})
	log.Info("call bridged", "conference_id", confID)
	return nil
}

func (r *Router) handleWhisperDigits(ctx context.Context, e WhisperDigits) error {
	log := r.logger.With("agent_leg", e.LegID)

	s, ok := r.store.Get(e.LegID)
	if !ok || s.Stage != StageLive {
		log.Debug("whisper digits without live session")
		return nil
	}
	if e.Status == gatherStatusHangup {
		log.Debug("listening ended by hangup")
		return nil
	}

	if e.Digits != "" && e.Digits == r.settings.WhisperTrigger {
		log.Info("whispering coaching script")
		if _, err := r.calls.Speak(ctx, e.LegID, r.settings.CoachScript); err != nil {
			// Listening must resume even if the whisper failed.
			log.Error("whisper failed", "error", err)
		}
	}

	return r.listen(ctx, e.LegID)
}

func (r *Router) handleHangup(e LegHangup) {
	s, ok := r.store.Get(e.LegID)
	if !ok {
		s, ok = r.store.FindByOutboundLeg(e.LegID)
	}
	if !ok {
		r.logger.Debug("hangup for unknown leg", "call_control_id", e.LegID, "cause", e.Cause)
		return
	}

	if r.store.Delete(s.AgentLegID) {
		r.logger.Info("session removed", "agent_leg", s.AgentLegID, "hangup_leg", e.LegID,
			"stage", s.Stage, "cause", e.Cause)
	}
}

// listen starts a background DTMF gather on the agent leg for the trigger.
func (r *Router) listen(ctx context.Context, agentLegID string) error {
	maxDigits := len(r.settings.WhisperTrigger)
	if maxDigits == 0 {
		maxDigits = 1
	}
	opts := telnyx.GatherOptions{
		MinDigits:        1,
		MaxDigits:        maxDigits,
		InterDigitMillis: 3000,
		TimeoutMillis:    60000,
		TerminatingDigit: "#",
		ClientState:      telnyx.StateListenWhisper,
	}
	if _, err := r.calls.Gather(ctx, agentLegID, opts); err != nil {
		return fmt.Errorf("listen on agent leg: %w", err)
	}
	return nil
}
