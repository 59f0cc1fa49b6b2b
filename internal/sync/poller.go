package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/privypulse/internal/backend"
	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
)

// HealthState represents the last known reachability of the backend.
type HealthState int

const (
	HealthChecking HealthState = iota
	HealthOK
	HealthUnreachable
)

// String returns the header label for the state.
func (s HealthState) String() string {
	switch s {
	case HealthOK:
		return "ok"
	case HealthUnreachable:
		return "unreachable"
	default:
		return "checking"
	}
}

// HealthStatus holds the result of the most recent probe.
type HealthStatus struct {
	State     HealthState
	LastCheck time.Time
	Error     error
}

// HealthChecker probes the backend health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) (*backend.HealthResponse, error)
}

// HealthResultMsg is a tea.Msg sent when a probe completes. Poller
// identifies the sender so results from a replaced poller can be ignored.
type HealthResultMsg struct {
	Poller *Poller
	Status HealthStatus
}

// probeTimeout is the maximum time allowed for a single health probe.
const probeTimeout = 5 * time.Second

// Poller probes the backend in the background. It never touches the
// query state; results only feed the header.
type Poller struct {
	checker   HealthChecker
	interval  time.Duration
	logger    *slog.Logger
	status    HealthStatus
	resultCh  chan HealthResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	stopped   bool
}

// New creates a Poller for checker. A non-positive interval falls back to
// the default probe interval.
func New(checker HealthChecker, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = model.DefaultHealthIntervalSec * time.Second
	}
	return &Poller{
		checker:   checker,
		interval:  interval,
		logger:    logging.Component(logger, "health"),
		status:    HealthStatus{State: HealthChecking},
		resultCh:  make(chan HealthResultMsg, 4),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that waits
// for the first result. Calling Start twice returns nil.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine. Pending waits return nil.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)
	if !p.running {
		close(p.resultCh)
	}
	p.running = false
}

// RefreshAll triggers an immediate probe.
func (p *Poller) RefreshAll() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A probe is already queued
	}
	return nil
}

// GetStatus returns the result of the most recent probe.
func (p *Poller) GetStatus() HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// loop runs the probe schedule until Stop is called. It is the only
// sender on resultCh and closes it on exit.
func (p *Poller) loop() {
	defer close(p.resultCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Probe once immediately
	p.probe()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.probe()
		case <-p.triggerCh:
			p.probe()
		}
	}
}

// probe performs one health check and publishes the result.
func (p *Poller) probe() {
	p.setStatus(HealthChecking, nil)

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	_, err := p.checker.Health(ctx)

	state := HealthOK
	if err != nil {
		state = HealthUnreachable
		p.logger.Debug("health probe failed", "error", err)
	}

	status := p.setStatus(state, err)
	p.sendResult(HealthResultMsg{Poller: p, Status: status})
}

// setStatus records the probe state and returns a copy.
func (p *Poller) setStatus(state HealthState, err error) HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state != HealthChecking {
		p.status.LastCheck = time.Now()
	}
	return p.status
}

// sendResult sends a HealthResultMsg without blocking.
func (p *Poller) sendResult(msg HealthResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the UI is behind; the next probe catches up
	}
}

// waitForResult returns a tea.Cmd that waits for the next probe result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next probe
// result. Call it after handling a HealthResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
