// Package runtime implements the runtime orchestrator (C10, §4.10): the
// event loop that demultiplexes events from every registered
// ChannelPort, dispatches each through idempotency → policy → processor
// → response emission, and exposes events/responses/errors as
// observable streams for instrumentation.
package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/capitalize-ai/channelgw/internal/channel"
	"github.com/capitalize-ai/channelgw/internal/gwerr"
	"github.com/capitalize-ai/channelgw/internal/idempotency"
	"github.com/capitalize-ai/channelgw/internal/model"
	"github.com/capitalize-ai/channelgw/internal/policy"
	"github.com/capitalize-ai/channelgw/internal/processor"
	"github.com/capitalize-ai/channelgw/internal/session"
	"github.com/capitalize-ai/channelgw/pkg/logger"
)

// DispatchMode selects how the inner processor (§4.10 step 4) turns an
// event into a response. ModeCustom delegates to the MessageProcessor
// installed with SetProcessor; the other modes do not consult it.
type DispatchMode string

const (
	ModeLLM        DispatchMode = "llm"
	ModeDirectTool DispatchMode = "directTool"
	ModeCustom     DispatchMode = "custom"
)

// EventBus is the optional audit fan-out a Runtime publishes onto (C13);
// nil disables publishing entirely.
type EventBus interface {
	PublishEvent(ctx context.Context, e model.ChannelEvent)
	PublishResponse(ctx context.Context, r model.ChannelResponse)
}

// Config bundles the orchestrator's dependencies and dispatch settings.
type Config struct {
	Mode         DispatchMode
	StreamBuffer int
	// ShutdownGrace bounds how long Stop waits for in-flight pipelines to
	// drain before returning regardless (§5: "must be finite").
	ShutdownGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.StreamBuffer == 0 {
		c.StreamBuffer = 256
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = 30 * time.Second
	}
	if c.Mode == "" {
		c.Mode = ModeCustom
	}
	return c
}

// registeredAdapter pairs an adapter with the policy executor governing
// its outbound calls; presets differ per platform (§6), so policy is
// supplied per registration rather than once for the whole Runtime.
type registeredAdapter struct {
	port   channel.Port
	policy *policy.Executor
}

// Runtime is the C10 orchestrator.
type Runtime struct {
	cfg Config
	log *logger.Logger

	sessions *session.Manager
	guard    *idempotency.Guard // nil disables the idempotency wrap
	bus      EventBus           // nil disables audit publishing

	processor processor.MessageProcessor // set in ModeCustom
	generator processor.ResponseGenerator // set in ModeLLM
	tools     processor.ToolProvider      // set in ModeDirectTool

	mu       sync.RWMutex
	adapters map[string]registeredAdapter
	running  bool

	events    chan model.ChannelEvent
	responses chan model.ChannelResponse
	errors    chan model.ChannelRuntimeError

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Runtime. sessions and log are required; guard and bus
// may be nil to disable idempotency wrapping and audit publishing
// respectively, per §4.10's "If an idempotency guard is configured...".
func New(cfg Config, sessions *session.Manager, guard *idempotency.Guard, bus EventBus, log *logger.Logger) *Runtime {
	cfg = cfg.withDefaults()
	return &Runtime{
		cfg:       cfg,
		log:       log,
		sessions:  sessions,
		guard:     guard,
		bus:       bus,
		adapters:  make(map[string]registeredAdapter),
		events:    make(chan model.ChannelEvent, cfg.StreamBuffer),
		responses: make(chan model.ChannelResponse, cfg.StreamBuffer),
		errors:    make(chan model.ChannelRuntimeError, cfg.StreamBuffer),
	}
}

// SetProcessor installs a custom MessageProcessor (ModeCustom).
func (r *Runtime) SetProcessor(p processor.MessageProcessor) { r.processor = p }

// SetGenerator installs the ResponseGenerator used by ModeLLM.
func (r *Runtime) SetGenerator(g processor.ResponseGenerator) { r.generator = g }

// SetTools installs the ToolProvider used by ModeDirectTool. ModeLLM does
// not use it.
func (r *Runtime) SetTools(t processor.ToolProvider) { r.tools = t }

// Events, Responses, and Errors are the orchestrator's observable
// streams (§4.10): instrumentation only, never part of flow control.
func (r *Runtime) Events() <-chan model.ChannelEvent         { return r.events }
func (r *Runtime) Responses() <-chan model.ChannelResponse   { return r.responses }
func (r *Runtime) Errors() <-chan model.ChannelRuntimeError  { return r.errors }

// RegisterChannel attaches an adapter under its own policy executor.
// Only allowed before Start, per §4.10's "registerChannel is only
// allowed when !isRunning".
func (r *Runtime) RegisterChannel(port channel.Port, pol *policy.Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return gwerr.New(gwerr.CodeInvalidRequest, "cannot register a channel while the runtime is running")
	}
	r.adapters[port.Platform()] = registeredAdapter{port: port, policy: pol}
	return nil
}

// Start initializes every registered adapter, subscribes to its event
// stream, and begins processing. It returns once every adapter has been
// told to start; adapters themselves connect asynchronously.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	adapters := make([]registeredAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.mu.Unlock()

	if r.guard != nil {
		r.guard.StartCleanup(runCtx)
	}
	r.sessions.StartCleanup(runCtx)

	for _, a := range adapters {
		if err := a.port.Start(runCtx); err != nil {
			return fmt.Errorf("starting adapter %s: %w", a.port.Platform(), err)
		}
		r.wg.Add(1)
		go r.pump(runCtx, a)
	}
	return nil
}

// pump reads one adapter's event stream for the lifetime of runCtx,
// spawning one pipeline goroutine per event (§5: "one [task] per
// in-flight event").
func (r *Runtime) pump(ctx context.Context, a registeredAdapter) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-a.port.Events():
			if !ok {
				return
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				defer func() {
					if p := recover(); p != nil {
						r.emitError(evt, gwerr.New(gwerr.CodeUnknown, fmt.Sprintf("panic: %v", p)))
					}
				}()
				r.handle(ctx, a, evt)
			}()
		}
	}
}

// handle runs the full processing pipeline for one event (§4.10 steps
// 1-6).
func (r *Runtime) handle(ctx context.Context, a registeredAdapter, evt model.ChannelEvent) {
	r.emitEvent(evt)
	if r.bus != nil {
		r.bus.PublishEvent(ctx, evt)
	}

	var resp *model.ChannelResponse
	var pipelineErr error

	run := func(ctx context.Context) error {
		var err error
		resp, err = r.innerProcess(ctx, evt)
		return err
	}

	scope := policy.ScopeKeys{ConversationKey: evt.Conversation.String(), UserKey: evt.Identity.ID}

	if r.guard != nil {
		var idemResult model.IdempotencyResult
		idemResult, pipelineErr = r.guard.Process(ctx, evt, func(ctx context.Context) (model.IdempotencyResult, error) {
			err := a.policy.Execute(ctx, scope, run)
			if err != nil {
				return model.IdempotencyResult{Success: false, Error: err.Error()}, err
			}
			return model.IdempotencyResult{Success: true, Response: resp}, nil
		})
		if idemResult.Response != nil {
			resp = idemResult.Response
		}
	} else {
		pipelineErr = a.policy.Execute(ctx, scope, run)
	}

	if pipelineErr != nil {
		r.emitError(evt, pipelineErr)
		return
	}

	if resp == nil {
		return
	}

	r.mu.RLock()
	target, ok := r.adapters[resp.Conversation.Platform]
	r.mu.RUnlock()
	if !ok {
		r.emitError(evt, gwerr.New(gwerr.CodeNotFound, "no adapter registered for platform "+resp.Conversation.Platform))
		return
	}

	if _, err := target.port.Send(ctx, *resp); err != nil {
		r.emitError(evt, err)
		return
	}

	r.emitResponse(*resp)
	if r.bus != nil {
		r.bus.PublishResponse(ctx, *resp)
	}
}

// innerProcess implements §4.10 step 4: resolve the session, append the
// user turn, dispatch by mode, append the assistant turn, and build the
// response.
func (r *Runtime) innerProcess(ctx context.Context, evt model.ChannelEvent) (*model.ChannelResponse, error) {
	sess, err := r.sessions.GetOrCreateSession(ctx, evt)
	if err != nil {
		return nil, err
	}

	sess, err = r.sessions.AddMessage(ctx, sess.ID, model.SessionMessage{
		Role:      model.RoleUser,
		Content:   evt.Text,
		Timestamp: evt.Timestamp,
		EventID:   evt.EventID,
	})
	if err != nil {
		return nil, err
	}

	var result processor.ProcessResult
	switch r.cfg.Mode {
	case ModeCustom:
		if r.processor == nil {
			return nil, gwerr.New(gwerr.CodeInvalidRequest, "custom dispatch mode requires a MessageProcessor")
		}
		result, err = r.processor.Process(ctx, evt, sess)
		if err != nil {
			return nil, err
		}
	case ModeDirectTool:
		result, err = r.dispatchDirectTool(ctx, evt)
		if err != nil {
			return nil, err
		}
	case ModeLLM:
		result, err = r.dispatchLLM(ctx, evt, sess)
		if err != nil {
			return nil, err
		}
	default:
		return nil, gwerr.New(gwerr.CodeInvalidRequest, "unknown dispatch mode "+string(r.cfg.Mode))
	}

	switch result.Kind {
	case processor.ResultIgnore, processor.ResultDefer:
		return nil, nil
	case processor.ResultNeedTool:
		return nil, gwerr.New(gwerr.CodeInvalidRequest, "processor returned NeedsTool; the orchestrator does not execute tool requests")
	case processor.ResultRespond:
		if result.Response == nil {
			return nil, gwerr.New(gwerr.CodeInvalidRequest, "processor returned Respond with a nil response")
		}
		if _, err := r.sessions.AddMessage(ctx, sess.ID, model.SessionMessage{
			Role:      model.RoleAssistant,
			Content:   result.Response.Text,
			Timestamp: time.Now(),
		}); err != nil {
			return nil, err
		}
		resp := *result.Response
		resp.Conversation = evt.Conversation
		return &resp, nil
	default:
		return nil, gwerr.New(gwerr.CodeUnknown, "unrecognized ProcessResult kind")
	}
}

// dispatchDirectTool parses the event text as "<tool> <args...>" and
// formats the tool's result as plain text (§4.10: "parse the event's
// text as <tool> <args...>"). Quoting/escaping of args is explicitly
// unspecified and not guessed at here.
func (r *Runtime) dispatchDirectTool(ctx context.Context, evt model.ChannelEvent) (processor.ProcessResult, error) {
	if r.tools == nil {
		return processor.ProcessResult{}, gwerr.New(gwerr.CodeInvalidRequest, "directTool dispatch mode requires a ToolProvider")
	}
	fields := strings.Fields(evt.Text)
	if len(fields) == 0 {
		return processor.Ignore(), nil
	}
	name := fields[0]
	args := map[string]any{}
	if len(fields) > 1 {
		args["text"] = strings.Join(fields[1:], " ")
	}

	out, err := r.tools.ExecuteTool(ctx, name, args)
	if err != nil {
		return processor.ProcessResult{}, err
	}
	text := out.Content
	if !out.Success {
		text = "error: " + out.Error
	}
	return processor.Respond(model.ChannelResponse{Variant: model.ResponseText, Text: text}), nil
}

// dispatchLLM calls the ResponseGenerator once, with no tool results, and
// responds with what it returns. It runs a single generation round: tool
// calls are not executed in this mode and the ToolProvider is not
// consulted.
func (r *Runtime) dispatchLLM(ctx context.Context, evt model.ChannelEvent, sess *model.Session) (processor.ProcessResult, error) {
	if r.generator == nil {
		return processor.ProcessResult{}, gwerr.New(gwerr.CodeInvalidRequest, "llm dispatch mode requires a ResponseGenerator")
	}

	var toolResults []model.ToolResult
	resp, err := r.generator.Generate(ctx, evt, sess, toolResults)
	if err != nil {
		return processor.ProcessResult{}, err
	}
	return processor.Respond(resp), nil
}

func (r *Runtime) emitEvent(e model.ChannelEvent) {
	select {
	case r.events <- e:
	default:
	}
}

func (r *Runtime) emitResponse(resp model.ChannelResponse) {
	select {
	case r.responses <- resp:
	default:
	}
}

func (r *Runtime) emitError(evt model.ChannelEvent, err error) {
	r.log.Warn("pipeline error", "event_id", evt.EventID, "platform", evt.Conversation.Platform, "error", err)
	re := model.ChannelRuntimeError{Event: evt, Err: err, Message: err.Error(), Timestamp: time.Now()}
	select {
	case r.errors <- re:
	default:
	}
}

// Stop cancels every subscription, stops each adapter, halts periodic
// cleanup, and waits for in-flight pipelines to drain with a bounded
// grace period.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel := r.cancel
	adapters := make([]registeredAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	for _, a := range adapters {
		if err := a.port.Stop(ctx); err != nil {
			r.log.Warn("adapter stop failed", "platform", a.port.Platform(), "error", err)
		}
	}
	if r.guard != nil {
		r.guard.Stop()
	}
	r.sessions.StopCleanup()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-time.After(r.cfg.ShutdownGrace):
		r.log.Warn("shutdown grace period elapsed with pipelines still in flight")
		return nil
	}
}

// Dispose stops the runtime and closes its observable streams. No
// method on Runtime may be called afterward.
func (r *Runtime) Dispose(ctx context.Context) error {
	if err := r.Stop(ctx); err != nil {
		return err
	}
	close(r.events)
	close(r.responses)
	close(r.errors)
	return nil
}
