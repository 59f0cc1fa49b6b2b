package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NetworkFailureMessage is the response text of the outcome synthesized
// when the backend cannot be reached or its reply cannot be decoded.
const NetworkFailureMessage = "Failed to connect to backend. Make sure the API server is running."

// NetworkAgent labels synthesized transport failures.
const NetworkAgent = "Network"

// QueryRequest is the body sent to the backend query endpoint.
type QueryRequest struct {
	Query string `json:"query"`
}

// Valid reports whether the request carries a non-blank query.
func (r QueryRequest) Valid() bool {
	return strings.TrimSpace(r.Query) != ""
}

// Outcome is the decoded result of one query submission. It is either a
// Success or a Failure; a nil Outcome means no submission has completed.
type Outcome interface {
	isOutcome()
}

// Success is a completed run of the backend agent pipeline.
type Success struct {
	Response   string
	AgentsUsed []string
	TaskPlan   *TaskPlan
	Metadata   *Metadata
}

// Failure is an error reported by the backend (error: true) or
// synthesized locally for transport failures.
type Failure struct {
	Response string

	// ErrorAgent names the agent that failed. Empty when the backend did
	// not report one.
	ErrorAgent string
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}

// TaskPlan is the backend's decomposition of the query.
type TaskPlan struct {
	Focus string `json:"focus"`
}

// Metadata carries optional validation details. Pointer and nil-slice
// fields keep "absent" distinct from "false" or "empty".
type Metadata struct {
	ValidationPassed *bool    `json:"validation_passed"`
	DataSources      []string `json:"data_sources"`
}

// NetworkFailure returns the synthetic outcome used for transport errors.
func NetworkFailure() Failure {
	return Failure{
		Response:   NetworkFailureMessage,
		ErrorAgent: NetworkAgent,
	}
}

// ErrEmptyBody is returned by DecodeOutcome when the body holds no JSON object.
var ErrEmptyBody = errors.New("empty response body")

// wireFields holds the top-level members of a reply body, each decoded
// on its own so one mistyped member does not reject the whole reply.
type wireFields map[string]json.RawMessage

// field decodes the member named key into a T. A missing or mistyped
// member yields the zero value and false.
func field[T any](w wireFields, key string) (T, bool) {
	var v T
	raw, ok := w[key]
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// DecodeOutcome tags a backend reply body. A body whose "error" member is
// JSON true becomes a Failure; any other JSON object becomes a Success.
// Members of the wrong JSON type are dropped as if absent.
func DecodeOutcome(data []byte) (Outcome, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyBody
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("decoding outcome: expected JSON object, got %q", truncate(trimmed, 32))
	}

	var w wireFields
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("decoding outcome: %w", err)
	}

	response, _ := field[string](w, "response")

	if isError, _ := field[bool](w, "error"); isError {
		agent, _ := field[string](w, "error_agent")
		return Failure{
			Response:   response,
			ErrorAgent: agent,
		}, nil
	}

	agents, _ := field[[]string](w, "agents_used")
	return Success{
		Response:   response,
		AgentsUsed: agents,
		TaskPlan:   decodeTaskPlan(w),
		Metadata:   decodeMetadata(w),
	}, nil
}

func decodeTaskPlan(w wireFields) *TaskPlan {
	plan, ok := field[wireFields](w, "task_plan")
	if !ok || plan == nil {
		return nil
	}
	focus, _ := field[string](plan, "focus")
	return &TaskPlan{Focus: focus}
}

func decodeMetadata(w wireFields) *Metadata {
	meta, ok := field[wireFields](w, "metadata")
	if !ok || meta == nil {
		return nil
	}

	var m Metadata
	m.ValidationPassed, _ = field[*bool](meta, "validation_passed")
	m.DataSources, _ = field[[]string](meta, "data_sources")
	return &m
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
