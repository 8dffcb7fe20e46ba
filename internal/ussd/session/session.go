// Package session reconstructs USSD session state from the accumulated
// keystroke history and dispatches to the next prompt or a terminal outcome.
//
// The engine is stateless by contract: the gateway resends the full input
// history on every request, and the walk re-derives the current step from
// scratch each time. A field step advances only when its input validates, so
// histories containing failed attempts replay deterministically.
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ebirth/internal/platform/config"
	"ebirth/internal/platform/metrics"
	"ebirth/internal/registration/models"
	dErrors "ebirth/pkg/domain-errors"
)

// maxFieldLen bounds each element of the keystroke sequence, both to cap
// memory and to keep hostile input out of downstream formatting.
const maxFieldLen = 100

// ReplyKind classifies every engine output: either more input is expected or
// the interaction is finished.
type ReplyKind int

const (
	Continue ReplyKind = iota
	End
)

// Reply is the engine's answer to one gateway request.
type Reply struct {
	Kind ReplyKind
	Text string
}

// Request is one inbound gateway callback. SessionID is opaque to the step
// walk itself; the finalizer uses it to dedupe retried confirmations.
type Request struct {
	SessionID string
	Phone     string
	Text      string
}

// Finalizer commits a confirmed registration and returns its UBRN.
type Finalizer interface {
	Register(ctx context.Context, sub models.Submission) (string, error)
}

// Verifier resolves a subscriber-entered UBRN to its record.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*models.Registration, error)
}

// Engine is the session reconstructor.
type Engine struct {
	finalizer Finalizer
	verifier  Verifier
	policy    config.RejectPolicy
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

func WithRejectPolicy(p config.RejectPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source used for date-of-birth validation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs an Engine.
func New(finalizer Finalizer, verifier Verifier, opts ...Option) *Engine {
	e := &Engine{
		finalizer: finalizer,
		verifier:  verifier,
		policy:    config.RejectReprompt,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// phase identifies which part of the decision tree the walk is in. Together
// with the table cursor it fully determines the current step.
type phase int

const (
	phaseRoot phase = iota
	phaseRole
	phaseFields
	phaseFatherChoice
	phaseFatherFields
	phaseConfirm
	phaseVerify
	phaseHelp
)

type walker struct {
	phase phase
	table []fieldStep
	idx   int
	form  form
}

// Handle replays the keystroke history and returns the next prompt or a
// terminal outcome.
func (e *Engine) Handle(ctx context.Context, req Request) Reply {
	inputs := ParseText(req.Text)
	if len(inputs) == 0 {
		if e.metrics != nil {
			e.metrics.SessionsStarted.Inc()
		}
		return Reply{Kind: Continue, Text: rootMenuPrompt}
	}

	w := walker{phase: phaseRoot}
	var lastErr error
	for i, raw := range inputs {
		terminal, fieldErr := e.consume(ctx, &w, raw, req)
		if terminal != nil {
			return *terminal
		}
		if fieldErr != nil {
			if e.policy == config.RejectTerminate {
				return Reply{Kind: End, Text: dErrors.Message(fieldErr) + msgRestartSuffix}
			}
			// Reprompt policy: the cursor stays put. Annotate the
			// prompt only when the failure is the newest input.
			if i == len(inputs)-1 {
				lastErr = fieldErr
			}
		}
	}

	text := e.prompt(&w)
	if lastErr != nil {
		text = dErrors.Message(lastErr) + "\n" + text
	}
	return Reply{Kind: Continue, Text: text}
}

// consume advances the walk by one input. It returns a terminal reply, a
// field validation error (cursor unchanged), or neither when the step
// advanced normally.
func (e *Engine) consume(ctx context.Context, w *walker, raw string, req Request) (*Reply, error) {
	switch w.phase {
	case phaseRoot:
		switch raw {
		case "1":
			w.phase = phaseRole
		case "2":
			w.phase = phaseVerify
		case "3":
			w.phase = phaseHelp
		default:
			return terminal(msgInvalidOption), nil
		}

	case phaseRole:
		switch raw {
		case "1":
			w.form.role = roleParent
		case "2":
			w.form.role = roleHealthWorker
		default:
			return terminal(msgInvalidRole), nil
		}
		w.phase = phaseFields
		w.table = stepsFor(w.form.role)
		w.idx = 0

	case phaseFields, phaseFatherFields:
		step := w.table[w.idx]
		if err := step.validate(raw, e.now()); err != nil {
			e.metrics.IncValidationFailure(step.name)
			return nil, err
		}
		step.apply(&w.form, raw)
		w.idx++
		if w.idx == len(w.table) {
			if w.phase == phaseFields {
				w.phase = phaseFatherChoice
			} else {
				w.phase = phaseConfirm
			}
		}

	case phaseFatherChoice:
		switch raw {
		case "1":
			w.form.hasFather = true
			w.phase = phaseFatherFields
			w.table = fatherSteps
			w.idx = 0
		case "2":
			w.phase = phaseConfirm
		default:
			return terminal(msgInvalidFatherChoice), nil
		}

	case phaseConfirm:
		return e.decide(ctx, w, raw, req), nil

	case phaseVerify:
		return e.verify(ctx, raw), nil

	case phaseHelp:
		if text, ok := helpTexts[raw]; ok {
			return terminal(text), nil
		}
		return terminal(msgInvalidOption), nil
	}

	return nil, nil
}

// decide handles the confirm/cancel step, the only place a side effect can
// occur.
func (e *Engine) decide(ctx context.Context, w *walker, raw string, req Request) *Reply {
	switch raw {
	case "1":
		sub := w.form.submission(req.Phone, req.SessionID)
		id, err := e.finalizer.Register(ctx, sub)
		if err != nil {
			// The subscriber already saw the summary; never report
			// success we cannot back with a persisted record.
			e.logger.ErrorContext(ctx, "finalization failed",
				"session_id", req.SessionID, "error", err)
			return terminal(msgFinalizeFailed)
		}
		if w.form.role == roleHealthWorker {
			return terminal("Registration submitted. UBRN: " + id + ". An SMS will be sent to the parent's number.")
		}
		return terminal("Thank you! Registration successful. UBRN: " + id + ". You will also receive an SMS shortly.")
	case "2":
		if e.metrics != nil {
			e.metrics.RegistrationsCancelled.Inc()
		}
		return terminal(msgCancelled)
	default:
		return terminal(msgInvalidConfirm)
	}
}

func (e *Engine) verify(ctx context.Context, raw string) *Reply {
	record, err := e.verifier.Verify(ctx, raw)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeValidation, dErrors.CodeNotFound:
			return terminal(dErrors.Message(err))
		default:
			e.logger.ErrorContext(ctx, "verification failed", "error", err)
			return terminal(msgServiceUnavailable)
		}
	}
	return terminal("Registration Found:\nName: " + record.ChildName() +
		"\nDOB: " + record.DOBDisplay() + "\nStatus: " + record.Status)
}

// prompt returns the text for the step the walk stopped on.
func (e *Engine) prompt(w *walker) string {
	switch w.phase {
	case phaseRole:
		return roleMenuPrompt
	case phaseFields, phaseFatherFields:
		return w.table[w.idx].prompt
	case phaseFatherChoice:
		return fatherMenuPrompt
	case phaseConfirm:
		return summary(&w.form)
	case phaseVerify:
		return verifyPrompt
	case phaseHelp:
		return helpMenuPrompt
	default:
		return rootMenuPrompt
	}
}

func terminal(text string) *Reply {
	return &Reply{Kind: End, Text: text}
}

// ParseText splits the delimiter-joined keystroke history into the ordered
// keystroke sequence, trimming each element and truncating it to maxFieldLen
// characters.
func ParseText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, "*")
	inputs := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if runes := []rune(p); len(runes) > maxFieldLen {
			p = string(runes[:maxFieldLen])
		}
		inputs[i] = p
	}
	return inputs
}
