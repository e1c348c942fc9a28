package telnyx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL = "https://api.telnyx.com/v2"

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Voice   Voice
	Logger  *slog.Logger
	// HTTPClient overrides the instrumented default, mostly for tests.
	HTTPClient *http.Client
}

// Client invokes call control actions against the provider REST API.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	voice   Voice
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new call control client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		voice:   opts.Voice,
		http:    opts.HTTPClient,
		logger:  opts.Logger.With("component", "telnyx"),
	}
}

// Answer answers an inbound leg.
func (c *Client) Answer(ctx context.Context, callControlID string) (*CommandResult, error) {
	var out envelope[CommandResult]
	err := c.do(ctx, "answer", callAction(callControlID, "answer"), callControlID,
		commandBody{CommandID: uuid.NewString()}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Speak plays text-to-speech on a leg using the configured voice.
func (c *Client) Speak(ctx context.Context, callControlID, text string) (*CommandResult, error) {
	body := speakBody{
		Payload:     text,
		PayloadType: "text",
		Voice:       c.voice.Voice,
		Language:    c.voice.Language,
		CommandID:   uuid.NewString(),
	}

	var out envelope[CommandResult]
	if err := c.do(ctx, "speak", callAction(callControlID, "speak"), callControlID, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Gather collects DTMF digits on a leg without a prompt.
func (c *Client) Gather(ctx context.Context, callControlID string, opts GatherOptions) (*CommandResult, error) {
	body := gatherFromOptions(opts)

	var out envelope[CommandResult]
	if err := c.do(ctx, "gather", callAction(callControlID, "gather"), callControlID, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GatherUsingSpeak speaks a prompt and then collects DTMF digits.
func (c *Client) GatherUsingSpeak(ctx context.Context, callControlID, prompt string, opts GatherOptions) (*CommandResult, error) {
	body := gatherFromOptions(opts)
	body.Payload = prompt
	body.Voice = c.voice.Voice
	body.Language = c.voice.Language

	var out envelope[CommandResult]
	if err := c.do(ctx, "gather_using_speak", callAction(callControlID, "gather_using_speak"), callControlID, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Dial originates a new outbound leg.
func (c *Client) Dial(ctx context.Context, req DialRequest) (*Call, error) {
	body := dialBody{
		ConnectionID: req.ConnectionID,
		To:           req.To,
		From:         req.From,
	}

	var out envelope[Call]
	if err := c.do(ctx, "dial", "/calls", req.To, body, &out); err != nil {
		return nil, err
	}
	if out.Data.CallControlID == "" {
		return nil, fmt.Errorf("telnyx dial to %s: response carried no call_control_id", req.To)
	}
	return &out.Data, nil
}

// CreateConference creates a conference anchored on an existing leg.
func (c *Client) CreateConference(ctx context.Context, callControlID, name string) (*Conference, error) {
	body := createConferenceBody{
		CallControlID: callControlID,
		Name:          name,
		BeepEnabled:   "never",
	}

	var out envelope[Conference]
	if err := c.do(ctx, "create_conference", "/conferences", callControlID, body, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("telnyx create_conference on %s: response carried no id", callControlID)
	}
	return &out.Data, nil
}

// JoinConference joins a leg into a conference with the given supervisor role.
func (c *Client) JoinConference(ctx context.Context, conferenceID, callControlID, role string) (*CommandResult, error) {
	body := joinConferenceBody{
		CallControlID:  callControlID,
		SupervisorRole: role,
		CommandID:      uuid.NewString(),
	}

	var out envelope[CommandResult]
	path := "/conferences/" + url.PathEscape(conferenceID) + "/actions/join"
	if err := c.do(ctx, "join_conference", path, conferenceID+"/"+callControlID, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// StartAssistant attaches a coaching assistant to a leg.
func (c *Client) StartAssistant(ctx context.Context, callControlID, assistantID string) (*CommandResult, error) {
	var body assistantBody
	body.Assistant.ID = assistantID
	body.CommandID = uuid.NewString()

	var out envelope[CommandResult]
	if err := c.do(ctx, "ai_assistant_start", callAction(callControlID, "ai_assistant_start"), callControlID, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Hangup terminates a leg.
func (c *Client) Hangup(ctx context.Context, callControlID string) (*CommandResult, error) {
	var out envelope[CommandResult]
	err := c.do(ctx, "hangup", callAction(callControlID, "hangup"), callControlID,
		commandBody{CommandID: uuid.NewString()}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func callAction(callControlID, action string) string {
	return "/calls/" + url.PathEscape(callControlID) + "/actions/" + action
}

func gatherFromOptions(opts GatherOptions) gatherBody {
	body := gatherBody{
		MinimumDigits:    opts.MinDigits,
		MaximumDigits:    opts.MaxDigits,
		InterDigitMillis: opts.InterDigitMillis,
		TimeoutMillis:    opts.TimeoutMillis,
		TerminatingDigit: opts.TerminatingDigit,
		CommandID:        uuid.NewString(),
	}
	if opts.ClientState != "" {
		body.ClientState = EncodeState(opts.ClientState)
	}
	return body
}

// do posts one action and decodes the response. Failures are logged with
// the action, endpoint and target, then returned to the caller.
func (c *Client) do(ctx context.Context, action, path, target string, in, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "telnyx."+action, trace.WithAttributes(
		attribute.String("telnyx.action", action),
		attribute.String("telnyx.target", target),
	))
	defer span.End()

	defer func() {
		if err == nil {
			c.logger.Debug("action ok", "action", action, "endpoint", path, "target", target)
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		actionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
		c.logger.Error("action failed", "action", action, "endpoint", path, "target", target, "error", err)
	}()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("telnyx %s: marshal request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telnyx %s: create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telnyx %s on %s: %w", action, target, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telnyx %s on %s: read response: %w", action, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Action:     action,
			Endpoint:   path,
			Target:     target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("telnyx %s on %s: decode response: %w", action, target, err)
	}
	return nil
}
