// Package query owns the submission lifecycle of a research question
// and the last decoded outcome.
//
// The Controller is driven from a single goroutine (the Bubble Tea update
// loop). Submit starts a submission, Run performs the network call on any
// goroutine, and Complete applies the result back on the owning goroutine.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
)

// Backend sends one query request and decodes the reply.
type Backend interface {
	Query(ctx context.Context, requestID string, req model.QueryRequest) (model.Outcome, error)
}

// State is the UI state of the query screen.
type State struct {
	Query   string
	Loading bool
	Outcome model.Outcome
}

// Phase is the state machine position derived from State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Phase returns the current state machine position.
func (s State) Phase() Phase {
	if s.Loading {
		return PhaseLoading
	}
	switch s.Outcome.(type) {
	case model.Success:
		return PhaseSuccess
	case model.Failure:
		return PhaseFailure
	default:
		return PhaseIdle
	}
}

// Submission identifies one in-flight request.
type Submission struct {
	ID        string
	Request   model.QueryRequest
	StartedAt time.Time
}

// Controller mediates between user intent and the backend. It is a
// value type with exactly one writer.
type Controller struct {
	state    State
	inFlight string
	logger   *slog.Logger
}

// NewController returns an idle controller.
func NewController(logger *slog.Logger) Controller {
	return Controller{logger: logging.Component(logger, "query")}
}

// State returns a snapshot of the UI state.
func (c Controller) State() State {
	return c.state
}

// UpdateQuery replaces the query text. It is accepted while loading;
// only resubmission is blocked.
func (c *Controller) UpdateQuery(text string) {
	c.state.Query = text
}

// Submit starts a submission for the current query. It returns false and
// changes nothing when the query is blank or a submission is in flight.
func (c *Controller) Submit() (Submission, bool) {
	if c.state.Loading {
		return Submission{}, false
	}
	if strings.TrimSpace(c.state.Query) == "" {
		return Submission{}, false
	}

	sub := Submission{
		ID:        uuid.NewString(),
		Request:   model.QueryRequest{Query: c.state.Query},
		StartedAt: time.Now(),
	}

	c.state.Loading = true
	c.state.Outcome = nil
	c.inFlight = sub.ID

	c.log().Info("submission started",
		"request_id", sub.ID,
		"query_len", len(sub.Request.Query),
	)
	return sub, true
}

// Complete applies the outcome of sub. Loading is cleared on every path;
// a nil outcome is recorded as a network failure. Completions for a
// submission other than the one in flight are dropped.
func (c *Controller) Complete(sub Submission, outcome model.Outcome) {
	if c.inFlight == "" || sub.ID != c.inFlight {
		c.log().Warn("dropping completion for unknown submission",
			"request_id", sub.ID,
		)
		return
	}

	if outcome == nil {
		outcome = model.NetworkFailure()
	}

	c.state.Loading = false
	c.state.Outcome = outcome
	c.inFlight = ""

	c.log().Info("submission completed",
		"request_id", sub.ID,
		"phase", c.state.Phase().String(),
		"duration", time.Since(sub.StartedAt),
	)
}

func (c *Controller) log() *slog.Logger {
	if c.logger == nil {
		c.logger = logging.Component(nil, "query")
	}
	return c.logger
}

// Reset clears the query and the last outcome. It is a no-op while a
// submission is in flight.
func (c *Controller) Reset() bool {
	if c.state.Loading {
		return false
	}
	c.state.Query = ""
	c.state.Outcome = nil
	return true
}

// Run performs the request for sub and always returns a non-nil outcome.
// Any backend error, including a recovered panic, becomes the synthetic
// network failure.
func Run(
	ctx context.Context,
	backend Backend,
	sub Submission,
	logger *slog.Logger,
) (outcome model.Outcome) {
	logger = logging.Component(logger, "query")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("backend call panicked",
				"request_id", sub.ID,
				"panic", fmt.Sprint(r),
			)
			outcome = model.NetworkFailure()
		}
	}()

	if backend == nil {
		logger.Error("no backend configured", "request_id", sub.ID)
		return model.NetworkFailure()
	}

	out, err := backend.Query(ctx, sub.ID, sub.Request)
	if err != nil {
		logger.Warn("query failed",
			"request_id", sub.ID,
			"error", err,
		)
		return model.NetworkFailure()
	}
	if out == nil {
		return model.NetworkFailure()
	}

	if f, ok := out.(model.Failure); ok {
		logger.Info("backend reported failure",
			"request_id", sub.ID,
			"error_agent", f.ErrorAgent,
		)
	}

	return out
}
