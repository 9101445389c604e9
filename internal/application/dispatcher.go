package application

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"mcp-tool-server/internal/domain"
)

// auditTimeout bounds how long recording one invocation may take.
const auditTimeout = 5 * time.Second

// Dispatcher turns tool requests into envelopes.
//
// Each call resolves the tool, validates its arguments, and runs the handler in
// its own goroutine under recover() with a deadline. Dispatch never returns an
// error: every failure becomes an error envelope.
//
// On timeout the handler's context is cancelled and the dispatcher stops
// waiting. A handler that ignores its context keeps running in the background
// until it returns; its result is then discarded.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	auditor  domain.Auditor
	logger   *StructuredLogger
}

// DispatcherConfig contains the dispatcher's dependencies.
type DispatcherConfig struct {
	Registry *Registry
	Timeout  time.Duration
	Auditor  domain.Auditor // optional
	Logger   *StructuredLogger
}

// NewDispatcher creates a Dispatcher. A zero Timeout uses domain.DefaultDispatchTimeout.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultDispatchTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NewStructuredLogger(nil)
	}

	return &Dispatcher{
		registry: cfg.Registry,
		timeout:  timeout,
		auditor:  cfg.Auditor,
		logger:   logger,
	}
}

// Timeout returns the per-invocation execution limit.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Registry returns the registry the dispatcher resolves tools from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

type execResult struct {
	resp *domain.ToolResponse
	err  error
}

// Dispatch runs one invocation and returns exactly one envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.ToolRequest) *domain.ToolResponse {
	start := time.Now()
	invocationID := uuid.New().String()

	if req == nil {
		req = &domain.ToolRequest{}
	}

	d.logger.LogDebug("→ dispatching", map[string]interface{}{
		"invocation_id": invocationID,
		"tool":          req.Name,
	})

	resp, outcome, err := d.dispatch(ctx, req)
	duration := time.Since(start)

	fields := map[string]interface{}{
		"invocation_id": invocationID,
		"tool":          req.Name,
		"outcome":       string(outcome),
		"duration_ms":   duration.Milliseconds(),
	}
	switch outcome {
	case domain.OutcomeSucceeded:
		d.logger.LogInfo("← tool completed", fields)
	case domain.OutcomeRejected:
		d.logger.LogWarn("← tool request rejected: "+resp.Text(), fields)
	default:
		d.logger.LogError("← tool failed", err, fields)
	}

	d.audit(ctx, domain.InvocationRecord{
		ID:        invocationID,
		ToolName:  req.Name,
		Outcome:   outcome,
		IsError:   resp.IsError,
		Message:   summary(resp),
		Duration:  duration,
		CreatedAt: start.UTC(),
	})

	return resp
}

// dispatch walks Received -> Validating -> {Rejected | Executing} -> terminal state.
func (d *Dispatcher) dispatch(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, domain.Outcome, error) {
	desc, err := d.registry.Resolve(req.Name)
	if err != nil {
		return FormatError(err), domain.OutcomeRejected, err
	}

	args, err := ValidateArguments(req, desc)
	if err != nil {
		return FormatError(err), domain.OutcomeRejected, err
	}

	resp, err := d.execute(ctx, desc, args)
	switch {
	case err == nil && resp.IsError:
		// The handler reported its own failure envelope.
		return resp, domain.OutcomeFailed, nil
	case err == nil:
		return resp, domain.OutcomeSucceeded, nil
	case errors.Is(err, domain.ErrTimeout):
		return FormatError(err), domain.OutcomeTimedOut, err
	default:
		return FormatError(err), domain.OutcomeFailed, err
	}
}

// execute invokes the handler inside the failure boundary and waits for it
// until the deadline.
func (d *Dispatcher) execute(ctx context.Context, desc *domain.ToolDescriptor, args map[string]interface{}) (*domain.ToolResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// Buffered so an abandoned handler can still deliver and exit.
	done := make(chan execResult, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				d.logger.LogError("tool handler panicked", nil, map[string]interface{}{
					"tool":  desc.Name(),
					"panic": fmt.Sprint(p),
					"stack": string(debug.Stack()),
				})
				done <- execResult{err: &domain.HandlerFailureError{
					Tool:     desc.Name(),
					Err:      panicError(p),
					Panicked: true,
				}}
			}
		}()

		value, err := desc.Handler.Handle(callCtx, args)
		if err != nil {
			done <- execResult{err: &domain.HandlerFailureError{Tool: desc.Name(), Err: err}}
			return
		}

		resp, err := domain.MapResult(value)
		if err != nil {
			done <- execResult{err: &domain.HandlerFailureError{Tool: desc.Name(), Err: err}}
			return
		}

		done <- execResult{resp: resp}
	}()

	select {
	case res := <-done:
		// A handler that gave up because its context expired timed out.
		if res.err != nil && callCtx.Err() != nil && isContextError(res.err) {
			return nil, d.timeoutError(desc)
		}
		return res.resp, res.err
	case <-callCtx.Done():
		return nil, d.timeoutError(desc)
	}
}

func (d *Dispatcher) timeoutError(desc *domain.ToolDescriptor) error {
	return &domain.TimeoutError{Tool: desc.Name(), Limit: d.timeout.String()}
}

func (d *Dispatcher) audit(ctx context.Context, record domain.InvocationRecord) {
	if d.auditor == nil {
		return
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := d.auditor.RecordInvocation(auditCtx, record); err != nil {
		d.logger.LogError("failed to record invocation", err, map[string]interface{}{
			"invocation_id": record.ID,
			"tool":          record.ToolName,
		})
	}
}

func panicError(p interface{}) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// summary returns the envelope's first text, trimmed for the audit log.
func summary(resp *domain.ToolResponse) string {
	text := resp.Text()
	if len(text) > 200 {
		text = strings.ToValidUTF8(text[:200], "")
	}
	return text
}
