package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/wagiedev/mcphost-go/internal/errors"
)

// DefaultDrainTimeout is how long Serve lets in-flight handlers finish after
// the input ends before cancelling them.
const DefaultDrainTimeout = 5 * time.Second

// Dispatcher routes command requests to handlers and writes their responses.
//
// The Dispatcher handles:
//   - Handler registration by command name
//   - Running each request in its own goroutine with a cancellable context
//   - command_cancel_request messages for in-flight requests
//   - Serializing responses back onto the transport
type Dispatcher struct {
	log       *slog.Logger
	transport Transport

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	inFlightMu sync.Mutex
	inFlight   map[string]*inFlightOperation

	drainTimeout time.Duration

	wg sync.WaitGroup
}

// inFlightOperation tracks a request whose handler is still running.
type inFlightOperation struct {
	command   string
	cancel    context.CancelFunc
	startTime time.Time
	completed bool
}

// NewDispatcher creates a dispatcher serving transport.
func NewDispatcher(log *slog.Logger, transport Transport) *Dispatcher {
	return &Dispatcher{
		log:       log.With("component", "protocol"),
		transport: transport,
		handlers:  make(map[string]Handler, 10),
		inFlight:  make(map[string]*inFlightOperation, 10),

		drainTimeout: DefaultDrainTimeout,
	}
}

// SetDrainTimeout changes the grace period Serve gives in-flight handlers
// once the input ends. It must be called before Serve.
func (d *Dispatcher) SetDrainTimeout(timeout time.Duration) {
	d.drainTimeout = timeout
}

// RegisterHandler registers handler for command, replacing any previous one.
func (d *Dispatcher) RegisterHandler(command string, handler Handler) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()

	d.log.Debug("Registering command handler", "command", command)
	d.handlers[command] = handler
}

// Serve reads messages until the transport is exhausted or ctx is done.
//
// When the input ends normally, Serve gives in-flight handlers the drain
// timeout to write their responses, cancels whatever is still running and
// returns nil. When ctx is done it cancels every in-flight handler, waits for
// them and returns ctx.Err(). A read failure other than a malformed line is
// returned the same way.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.log.Info("Serving command stream")

	messages, errs := d.transport.ReadMessages(ctx)

	err := d.readLoop(ctx, messages, errs)
	if err != nil {
		d.CancelAllInFlight()
	} else {
		d.drain()
	}

	d.wg.Wait()
	d.log.Info("Command stream closed")

	return err
}

// drain waits up to the drain timeout for in-flight handlers, then cancels
// the rest. A handler blocked on a hung server would otherwise keep Serve
// from returning.
func (d *Dispatcher) drain() {
	done := make(chan struct{})

	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		d.log.Warn("Cancelling handlers still running after input closed", "drain_timeout", d.drainTimeout)
		d.CancelAllInFlight()
	}
}

func (d *Dispatcher) readLoop(
	ctx context.Context,
	messages <-chan map[string]any,
	errs <-chan error,
) error {
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				// Drain a trailing read error, if any.
				if errs != nil {
					if err, ok := <-errs; ok && err != nil {
						return d.readError(err)
					}
				}

				return ctx.Err()
			}

			d.handleMessage(ctx, msg)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err := d.readError(err); err != nil {
				return err
			}

		case <-ctx.Done():
			d.log.Debug("Context cancelled in command read loop")

			return ctx.Err()
		}
	}
}

// readError logs malformed lines and returns any other error as fatal.
func (d *Dispatcher) readError(err error) error {
	if decodeErr, ok := stderrors.AsType[*errors.MessageDecodeError](err); ok {
		d.log.Warn("Skipping malformed command line", "error", decodeErr.Err)

		return nil
	}

	d.log.Error("Command stream read failed", "error", err)

	return err
}

// handleMessage routes a message based on its type.
func (d *Dispatcher) handleMessage(ctx context.Context, msg map[string]any) {
	msgType, _ := msg["type"].(string)

	switch msgType {
	case TypeCommandRequest:
		d.handleRequest(ctx, msg)

	case TypeCommandCancelRequest:
		d.handleCancelRequest(ctx, msg)

	default:
		d.log.Warn("Ignoring message of unknown type", "type", msgType)
	}
}

// handleRequest invokes the registered handler for an incoming request.
func (d *Dispatcher) handleRequest(ctx context.Context, msg map[string]any) {
	requestID, _ := msg["request_id"].(string)
	if requestID == "" {
		requestID = ulid.Make().String()
		d.log.Debug("Assigned request id", "request_id", requestID)
	}

	requestData, ok := msg["request"].(map[string]any)
	if !ok {
		d.log.Warn("Command request missing 'request' field", "request_id", requestID)
		d.sendError(ctx, requestID, "missing request")

		return
	}

	req := &CommandRequest{
		Type:      TypeCommandRequest,
		RequestID: requestID,
		Request:   requestData,
	}

	command := req.Command()

	d.handlersMu.RLock()
	handler, exists := d.handlers[command]
	d.handlersMu.RUnlock()

	if !exists {
		d.log.Warn("No handler registered for command", "command", command)
		d.sendError(ctx, requestID, fmt.Errorf("%w: %q", errors.ErrUnknownCommand, command).Error())

		return
	}

	opCtx, cancel := context.WithCancel(ctx)

	op := &inFlightOperation{
		command:   command,
		cancel:    cancel,
		startTime: time.Now(),
	}

	d.inFlightMu.Lock()
	d.inFlight[requestID] = op
	d.inFlightMu.Unlock()

	d.log.Debug("Dispatching command", "request_id", requestID, "command", command)

	d.wg.Go(func() {
		defer func() {
			d.inFlightMu.Lock()
			defer d.inFlightMu.Unlock()

			op.completed = true

			delete(d.inFlight, requestID)

			cancel()
		}()

		payload, err := handler(opCtx, req)

		if stderrors.Is(opCtx.Err(), context.Canceled) {
			d.log.Debug("Handler was cancelled", "request_id", requestID, "command", command)
			d.sendError(ctx, requestID, errors.ErrOperationCancelled.Error())

			return
		}

		if err != nil {
			d.log.Warn("Handler returned error",
				"request_id", requestID,
				"command", command,
				"error", err,
			)
			d.sendError(ctx, requestID, err.Error())

			return
		}

		d.log.Debug("Command completed",
			"request_id", requestID,
			"command", command,
			"elapsed", time.Since(op.startTime),
		)
		d.send(ctx, &CommandResponse{
			Type:      TypeCommandResponse,
			RequestID: requestID,
			Subtype:   SubtypeSuccess,
			Response:  payload,
		})
	})
}

// handleCancelRequest cancels the context of an in-flight request.
func (d *Dispatcher) handleCancelRequest(ctx context.Context, msg map[string]any) {
	requestID, ok := msg["request_id"].(string)
	if !ok {
		d.log.Warn("Cancel request missing request_id")

		return
	}

	d.inFlightMu.Lock()

	op, found := d.inFlight[requestID]

	alreadyCompleted := found && op.completed
	if found && !alreadyCompleted {
		op.cancel()
	}

	d.inFlightMu.Unlock()

	d.log.Debug("Cancel request processed",
		"request_id", requestID,
		"found", found,
		"already_completed", alreadyCompleted,
	)

	d.send(ctx, &CommandResponse{
		Type:      TypeCommandResponse,
		RequestID: requestID,
		Subtype:   SubtypeCancelAcknowledgment,
		Response:  &CancelAcknowledgment{Found: found, AlreadyCompleted: alreadyCompleted},
	})
}

// CancelAllInFlight cancels every in-flight handler.
func (d *Dispatcher) CancelAllInFlight() {
	d.inFlightMu.Lock()
	defer d.inFlightMu.Unlock()

	for _, op := range d.inFlight {
		if !op.completed {
			op.cancel()
		}
	}
}

func (d *Dispatcher) sendError(ctx context.Context, requestID, msg string) {
	d.send(ctx, &CommandResponse{
		Type:      TypeCommandResponse,
		RequestID: requestID,
		Subtype:   SubtypeError,
		Error:     msg,
	})
}

func (d *Dispatcher) send(ctx context.Context, resp *CommandResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		d.log.Error("Failed to marshal command response", "request_id", resp.RequestID, "error", err)

		return
	}

	// Responses must still go out while Serve is winding down after ctx
	// is done, so the write ignores cancellation.
	if err := d.transport.SendMessage(context.WithoutCancel(ctx), data); err != nil {
		d.log.Error("Failed to send command response", "request_id", resp.RequestID, "error", err)
	}
}
