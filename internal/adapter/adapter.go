// Package adapter implements the core of the debug-adapter bridge: it
// translates DAP requests from the IDE into remote-debugging-protocol
// commands, and runtime notifications back into DAP events, applying path
// and source-map transformations so the IDE sees authored files while the
// runtime sees generated scripts.
package adapter

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sync"

	"github.com/google/go-dap"
	"github.com/google/uuid"

	"github.com/ctagard/chrome-dap-bridge/internal/config"
	bridgeerrors "github.com/ctagard/chrome-dap-bridge/internal/errors"
	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// ThreadID is the single thread the bridge reports: script runtimes run one
// thread of JS.
const ThreadID = 1

const threadID = ThreadID

// defaultThreadName names the single thread unless overridden.
const defaultThreadName = "Thread 1"

// asyncStackDepth is installed when showAsyncStacks is on.
const asyncStackDepth = 4

// EventSink delivers DAP events to the IDE. The transport assigns sequence
// numbers at send time.
type EventSink interface {
	SendEvent(event dap.EventMessage)
}

// Adapter owns all debugging state for one session. All mutable state is
// guarded by mu; runtime events are applied serially by the dispatch
// goroutine, DAP requests arrive on the session goroutine.
type Adapter struct {
	mu sync.Mutex

	sink      EventSink
	client    *rdp.Client
	cfg       *config.AttachConfig
	sessionID string

	threadName string

	// Collaborating transformers. Identity defaults unless injected.
	pathTransformer      PathTransformer
	sourceMapTransformer SourceMapTransformer
	lineCol              LineColTransformer

	// Handle tables. Frame and variable tables reset at pause boundaries;
	// breakpoint and source tables persist for the session.
	frameHandles      *Handles[rdp.CallFrame]
	variableHandles   *Handles[VariableContainer]
	breakpointHandles *ReverseHandles[string]
	sourceHandles     *ReverseHandles[*SourceContainer]

	scripts *scriptRegistry
	skip    *skipFileState

	// Breakpoint engine state. bpMu serializes clear-then-add cycles.
	bpMu                    sync.Mutex
	pendingBreakpoints      map[string]*pendingBreakpoint
	committedBreakpoints    map[string][]string
	hitConditionBreakpoints map[string]*hitConditionBreakpoint

	// Pause state machine.
	currentPause          *rdp.PausedEvent
	exception             *rdp.RemoteObject
	expectingStopReason   string
	expectingResumedEvent bool
	lastPause             *lastPauseState
	currentStep           chan struct{}
	quiesce               chan struct{}
	smartStepCount        int

	// Lifecycle flags.
	columnBPProbeDone        bool
	columnBreakpointsEnabled bool
	initializedSent          bool
	terminatedSent           bool
	blackboxWarned           bool

	events chan rdpEvent
}

type rdpEvent struct {
	method string
	params json.RawMessage
}

// Option customizes adapter construction.
type Option func(*Adapter)

// WithPathTransformer injects the client/target path mapper.
func WithPathTransformer(t PathTransformer) Option {
	return func(a *Adapter) { a.pathTransformer = t }
}

// WithSourceMapTransformer injects the authored/generated source mapper.
func WithSourceMapTransformer(t SourceMapTransformer) Option {
	return func(a *Adapter) { a.sourceMapTransformer = t }
}

// WithThreadName overrides the reported thread name.
func WithThreadName(name string) Option {
	return func(a *Adapter) { a.threadName = name }
}

// New creates an adapter that emits DAP events through sink.
func New(sink EventSink, opts ...Option) *Adapter {
	a := &Adapter{
		sink:                    sink,
		threadName:              defaultThreadName,
		pathTransformer:         identityPathTransformer{},
		sourceMapTransformer:    noSourceMaps{},
		frameHandles:            NewHandles[rdp.CallFrame](),
		variableHandles:         NewHandles[VariableContainer](),
		breakpointHandles:       NewReverseHandles[string](),
		sourceHandles:           NewReverseHandles[*SourceContainer](),
		scripts:                 newScriptRegistry(),
		skip:                    newSkipFileState(nil, nil),
		pendingBreakpoints:      make(map[string]*pendingBreakpoint),
		committedBreakpoints:    make(map[string][]string),
		hitConditionBreakpoints: make(map[string]*hitConditionBreakpoint),
		events:                  make(chan rdpEvent, 256),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize validates the client's declared conventions and returns the
// bridge's capabilities.
func (a *Adapter) Initialize(args dap.InitializeRequestArguments) (*dap.Capabilities, error) {
	if args.PathFormat != "" && args.PathFormat != "path" {
		return nil, bridgeerrors.InvalidPathFormat(args.PathFormat)
	}

	a.mu.Lock()
	a.lineCol.SetClientOrigin(args.LinesStartAt1, args.ColumnsStartAt1)
	a.mu.Unlock()

	return &dap.Capabilities{
		SupportsConfigurationDoneRequest:  true,
		SupportsSetVariable:               true,
		SupportsConditionalBreakpoints:    true,
		SupportsHitConditionalBreakpoints: true,
		SupportsCompletionsRequest:        true,
		SupportsRestartFrame:              true,
		SupportsExceptionInfoRequest:      true,
		ExceptionBreakpointFilters: []dap.ExceptionBreakpointsFilter{
			{Filter: "all", Label: "All Exceptions", Default: false},
			{Filter: "uncaught", Label: "Uncaught Exceptions", Default: true},
		},
	}, nil
}

// Attach opens the runtime connection, subscribes to the domains the bridge
// needs and enables them. The Initialized event is sent later, once the
// first parsed script has been fully processed.
func (a *Adapter) Attach(ctx context.Context, rawArgs json.RawMessage) error {
	cfg, err := config.ParseAttachConfig(rawArgs)
	if err != nil {
		return bridgeerrors.AttachFailed(err)
	}

	wsURL := cfg.WebSocketURL
	if wsURL == "" {
		wsURL, err = rdp.DiscoverWebSocketURL(ctx, cfg.Address, cfg.Port, cfg.URL, cfg.DiscoveryTimeout())
		if err != nil {
			return bridgeerrors.AttachFailed(err)
		}
	}

	client, err := rdp.Dial(ctx, wsURL, cfg.TraceEnabled())
	if err != nil {
		return bridgeerrors.AttachFailed(err)
	}

	a.mu.Lock()
	a.cfg = cfg
	a.client = client
	a.sessionID = uuid.New().String()
	a.skip = newSkipFileState(cfg.SkipFiles, cfg.SkipFileRegExps)
	a.mu.Unlock()

	log.Printf("Session %s: attached to %s", a.sessionID, wsURL)

	client.SetEventHandler(func(method string, params json.RawMessage) {
		select {
		case a.events <- rdpEvent{method: method, params: params}:
		default:
			log.Printf("Session %s: dropping %s, event queue full", a.sessionID, method)
		}
	})
	client.SetCloseHandler(func(err error) {
		a.onSocketClosed()
	})
	go a.dispatchLoop()

	// Console.enable fails on runtimes that dropped the legacy domain;
	// that is fine.
	if err := client.CallInto(ctx, "Console.enable", nil, nil); err != nil {
		log.Printf("Session %s: Console.enable: %v", a.sessionID, err)
	}
	if err := client.CallInto(ctx, "Debugger.enable", nil, nil); err != nil {
		client.Close()
		return bridgeerrors.AttachFailed(err)
	}
	if err := client.CallInto(ctx, "Runtime.enable", nil, nil); err != nil {
		client.Close()
		return bridgeerrors.AttachFailed(err)
	}

	depth := 0
	if cfg.ShowAsyncStacks {
		depth = asyncStackDepth
	}
	if err := client.CallInto(ctx, "Debugger.setAsyncCallStackDepth", rdp.SetAsyncCallStackDepthParams{MaxDepth: depth}, nil); err != nil {
		log.Printf("Session %s: setAsyncCallStackDepth: %v", a.sessionID, err)
	}

	a.submitBlackboxPatterns(ctx)
	return nil
}

// dispatchLoop applies runtime events serially, preserving their order.
func (a *Adapter) dispatchLoop() {
	for ev := range a.events {
		a.handleRDPEvent(ev.method, ev.params)
	}
}

func (a *Adapter) handleRDPEvent(method string, params json.RawMessage) {
	switch method {
	case "Debugger.scriptParsed":
		var ev rdp.ScriptParsedEvent
		if json.Unmarshal(params, &ev) == nil {
			a.onScriptParsed(ev)
		}
	case "Debugger.paused":
		var ev rdp.PausedEvent
		if json.Unmarshal(params, &ev) == nil {
			a.onPaused(ev)
		}
	case "Debugger.resumed":
		a.onResumed()
	case "Debugger.breakpointResolved":
		var ev rdp.BreakpointResolvedEvent
		if json.Unmarshal(params, &ev) == nil {
			a.onBreakpointResolved(ev)
		}
	case "Runtime.consoleAPICalled":
		var ev rdp.ConsoleAPICalledEvent
		if json.Unmarshal(params, &ev) == nil {
			a.onConsoleAPICalled(ev)
		}
	case "Runtime.exceptionThrown":
		var ev rdp.ExceptionThrownEvent
		if json.Unmarshal(params, &ev) == nil {
			a.onExceptionThrown(ev)
		}
	case "Runtime.executionContextsCleared":
		a.onExecutionContextsCleared()
	case "Console.messageAdded":
		var ev rdp.ConsoleMessage
		if json.Unmarshal(params, &ev) == nil {
			a.onMessageAdded(ev)
		}
	}
}

// onScriptParsed registers the script, runs the one-time column-breakpoint
// probe, loads its source map, records skip status and drains any pending
// breakpoints the new sources can satisfy. The Initialized event goes out
// once the first script has been processed end to end.
func (a *Adapter) onScriptParsed(ev rdp.ScriptParsedEvent) {
	ctx := context.Background()

	a.mu.Lock()
	script := a.scripts.add(ev.ScriptID, ev.URL, ev.SourceMapURL)
	client := a.client
	pathT := a.pathTransformer
	mapT := a.sourceMapTransformer
	probeNeeded := !a.columnBPProbeDone
	a.columnBPProbeDone = true
	sourceMaps := a.cfg == nil || a.cfg.SourceMapsEnabled()
	a.mu.Unlock()

	pathT.ScriptParsed(script.URL)

	if probeNeeded && client != nil {
		// One probe per session decides whether the runtime understands
		// column granularity.
		var result rdp.GetPossibleBreakpointsResult
		err := client.CallInto(ctx, "Debugger.getPossibleBreakpoints", rdp.GetPossibleBreakpointsParams{
			Start: rdp.Location{ScriptID: script.ScriptID, LineNumber: 0},
			End:   &rdp.Location{ScriptID: script.ScriptID, LineNumber: 1},
		}, &result)
		a.mu.Lock()
		a.columnBreakpointsEnabled = err == nil
		a.mu.Unlock()
	}

	var drainable []string
	drainable = append(drainable, script.URL)
	if clientPath := pathT.TargetURLToClientPath(script.URL); clientPath != "" {
		drainable = append(drainable, clientPath)
	}

	if sourceMaps {
		sources, err := mapT.ScriptParsed(ctx, script.URL, script.SourceMapURL)
		if err != nil {
			log.Printf("SourceMaps: load failed for %s: %v", script.URL, err)
		}
		drainable = append(drainable, sources...)
		a.submitBlackboxedRanges(ctx, script)
	}

	a.drainPendingBreakpoints(drainable)

	a.mu.Lock()
	sendInitialized := !a.initializedSent
	a.initializedSent = true
	a.mu.Unlock()
	if sendInitialized {
		a.sendEvent(&dap.InitializedEvent{Event: newEvent("initialized")})
	}
}

// submitBlackboxPatterns pushes the global skip pattern list. Runtimes
// without blackboxing reject it; warn once and move on.
func (a *Adapter) submitBlackboxPatterns(ctx context.Context) {
	a.mu.Lock()
	client := a.client
	patterns := a.skip.patternStrings()
	a.mu.Unlock()
	if client == nil {
		return
	}

	err := client.CallInto(ctx, "Debugger.setBlackboxPatterns", rdp.SetBlackboxPatternsParams{Patterns: patterns}, nil)
	if err != nil {
		a.warnBlackboxUnsupported(err)
	}
}

// submitBlackboxedRanges recomputes and pushes per-script skip ranges.
// The runtime needs an explicit clear before the real positions land; an
// empty submission first works around a runtime bug.
func (a *Adapter) submitBlackboxedRanges(ctx context.Context, script *Script) {
	a.mu.Lock()
	client := a.client
	details := a.sourceMapTransformer.AllSourcePathDetails(script.URL)
	parentPath := a.pathTransformer.TargetURLToClientPath(script.URL)
	if parentPath == "" {
		parentPath = script.URL
	}
	parentSkipped := false
	if st := a.skip.shouldSkip(parentPath); st != nil {
		parentSkipped = *st
	}
	positions := blackboxedRanges(parentSkipped, details, a.skip.shouldSkip)
	a.mu.Unlock()

	if client == nil || (len(details) == 0 && !parentSkipped) {
		return
	}

	err := client.CallInto(ctx, "Debugger.setBlackboxedRanges", rdp.SetBlackboxedRangesParams{
		ScriptID:  script.ScriptID,
		Positions: []rdp.ScriptPosition{},
	}, nil)
	if err == nil {
		err = client.CallInto(ctx, "Debugger.setBlackboxedRanges", rdp.SetBlackboxedRangesParams{
			ScriptID:  script.ScriptID,
			Positions: positions,
		}, nil)
	}
	if err != nil {
		a.warnBlackboxUnsupported(err)
	}
}

func (a *Adapter) warnBlackboxUnsupported(err error) {
	a.mu.Lock()
	warned := a.blackboxWarned
	a.blackboxWarned = true
	a.mu.Unlock()
	if !warned {
		log.Printf("SkipFiles: runtime does not support blackboxing: %v", err)
	}
}

// ToggleSkipFileStatusArguments is the custom toggleSkipFileStatus request.
type ToggleSkipFileStatusArguments struct {
	Path            string `json:"path,omitempty"`
	SourceReference int    `json:"sourceReference,omitempty"`
}

// ToggleSkipFileStatus flips the skip classification of a file in the
// current stack, recomputes blackboxed ranges and replays the paused event
// so the IDE refreshes its deemphasize hints.
func (a *Adapter) ToggleSkipFileStatus(ctx context.Context, args ToggleSkipFileStatusArguments) error {
	a.mu.Lock()

	path := args.Path
	if path == "" && args.SourceReference > 0 {
		container, ok := a.sourceHandles.Get(args.SourceReference)
		if !ok {
			a.mu.Unlock()
			return bridgeerrors.BadSourceReference(args.SourceReference)
		}
		if script, ok := a.scripts.byScriptID(container.ScriptID); ok {
			path = script.URL
		}
	}
	if path == "" || a.currentPause == nil || !a.pathInCurrentStack(path) {
		a.mu.Unlock()
		return bridgeerrors.EvaluationFailed("can only toggle the skip status of files in the current stack")
	}

	generated := path
	if g, ok := a.sourceMapTransformer.GetGeneratedPathFromAuthoredPath(path); ok {
		generated = g
	}
	if generated == path && len(a.sourceMapTransformer.AllSources(a.pathTransformer.ClientPathToTargetURL(path))) > 0 {
		// Toggling a generated script that has authored sources would skip
		// all of them at once; refuse.
		a.mu.Unlock()
		return bridgeerrors.EvaluationFailed("cannot toggle the skip status of a source-mapped script")
	}

	newStatus := true
	if st := a.skip.shouldSkip(path); st != nil {
		newStatus = !*st
	}
	a.skip.setStatus(path, newStatus)
	if newStatus {
		a.skip.addPatternForPath(path)
	} else {
		a.skip.removePatternsMatching(path)
	}

	targetURL := a.pathTransformer.ClientPathToTargetURL(generated)
	script, haveScript := a.scripts.byScriptURL(targetURL)
	a.mu.Unlock()

	a.submitBlackboxPatterns(ctx)
	if haveScript {
		a.submitBlackboxedRanges(ctx, script)
	}

	a.refirePausedEvent()
	return nil
}

// pathInCurrentStack reports whether a path appears in the current pause,
// either as a generated script, its client path or one of its authored
// sources. Caller holds mu.
func (a *Adapter) pathInCurrentStack(path string) bool {
	for _, cf := range a.currentPause.CallFrames {
		script, ok := a.scripts.byScriptID(cf.Location.ScriptID)
		if !ok {
			continue
		}
		if script.URL == path {
			return true
		}
		if clientPath := a.pathTransformer.TargetURLToClientPath(script.URL); clientPath == path {
			return true
		}
		if pos, ok := a.sourceMapTransformer.MapToAuthored(script.URL, cf.Location.LineNumber, cf.Location.ColumnNumber); ok {
			if pos.Source == path || a.pathTransformer.TargetURLToClientPath(pos.Source) == path {
				return true
			}
		}
	}
	return false
}

// Threads reports the single thread.
func (a *Adapter) Threads() *dap.ThreadsResponseBody {
	a.mu.Lock()
	name := a.threadName
	a.mu.Unlock()
	return &dap.ThreadsResponseBody{
		Threads: []dap.Thread{{Id: threadID, Name: name}},
	}
}

// Source serves script contents: inline source-map contents when the handle
// has them, otherwise the runtime's copy of the script.
func (a *Adapter) Source(ctx context.Context, args dap.SourceArguments) (*dap.SourceResponseBody, error) {
	ref := args.SourceReference
	if ref == 0 && args.Source != nil {
		ref = args.Source.SourceReference
	}

	a.mu.Lock()
	client := a.client

	var container *SourceContainer
	if ref > 0 {
		c, ok := a.sourceHandles.Get(ref)
		if !ok {
			a.mu.Unlock()
			return nil, bridgeerrors.BadSourceReference(ref)
		}
		container = c
	} else if args.Source != nil && args.Source.Path != "" {
		// Path lookups go through URL encoding to match the registry's
		// normalization of runtime URLs.
		script, ok := a.scripts.byScriptURL(args.Source.Path)
		if !ok {
			escaped := (&url.URL{Path: args.Source.Path}).String()
			script, ok = a.scripts.byScriptURL(escaped)
		}
		if !ok {
			a.mu.Unlock()
			return nil, bridgeerrors.BreakpointUnresolved(args.Source.Path)
		}
		container = &SourceContainer{ScriptID: script.ScriptID}
	} else {
		a.mu.Unlock()
		return nil, bridgeerrors.BadSourceReference(0)
	}
	a.mu.Unlock()

	if container.Contents != "" {
		return &dap.SourceResponseBody{Content: container.Contents}, nil
	}
	if client == nil {
		return nil, errNotConnected()
	}

	var result rdp.GetScriptSourceResult
	if err := client.CallInto(ctx, "Debugger.getScriptSource", rdp.GetScriptSourceParams{ScriptID: container.ScriptID}, &result); err != nil {
		return nil, err
	}
	return &dap.SourceResponseBody{Content: result.ScriptSource}, nil
}

// SetExceptionBreakpoints translates the filter set into the runtime's
// pause-on-exceptions state.
func (a *Adapter) SetExceptionBreakpoints(ctx context.Context, args dap.SetExceptionBreakpointsArguments) error {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()
	if client == nil {
		return errNotConnected()
	}

	state := "none"
	for _, f := range args.Filters {
		switch f {
		case "all":
			state = "all"
		case "uncaught":
			if state != "all" {
				state = "uncaught"
			}
		}
	}
	return client.CallInto(ctx, "Debugger.setPauseOnExceptions", rdp.SetPauseOnExceptionsParams{State: state}, nil)
}

// ConfigurationDone is acknowledged without further work; breakpoints were
// applied as the requests arrived.
func (a *Adapter) ConfigurationDone() {}

// Disconnect tears the session down and reports Terminated exactly once.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.mu.Unlock()

	if client != nil {
		_ = client.Close()
	}
	a.sendTerminated()
}

// onSocketClosed handles the runtime side going away.
func (a *Adapter) onSocketClosed() {
	a.mu.Lock()
	a.client = nil
	a.mu.Unlock()
	a.sendTerminated()
}

func (a *Adapter) sendTerminated() {
	a.mu.Lock()
	sent := a.terminatedSent
	a.terminatedSent = true
	restart := a.cfg != nil && a.cfg.Restart
	a.mu.Unlock()
	if sent {
		return
	}

	body := dap.TerminatedEventBody{}
	if restart {
		body.Restart = json.RawMessage("true")
	}
	a.sendEvent(&dap.TerminatedEvent{Event: newEvent("terminated"), Body: body})
}

// --- Console output ---

// onConsoleAPICalled forwards console calls to the IDE. Primitive-only
// argument lists render as text; anything richer gets a variables reference
// so the IDE can expand the logged objects.
func (a *Adapter) onConsoleAPICalled(ev rdp.ConsoleAPICalledEvent) {
	category := "stdout"
	switch ev.Type {
	case "error", "assert":
		category = "stderr"
	}

	complex := false
	for _, arg := range ev.Args {
		if arg.ObjectID != "" {
			complex = true
			break
		}
	}

	parts := make([]string, 0, len(ev.Args))
	for i := range ev.Args {
		parts = append(parts, consoleArgString(&ev.Args[i]))
	}
	text := joinNonEmpty(parts)

	varRef := 0
	if complex {
		a.mu.Lock()
		varRef = a.variableHandles.Create(&LoggedObjects{Args: ev.Args})
		a.mu.Unlock()
	}

	a.sendOutput(category, text+"\n", varRef)
}

// onExceptionThrown reports uncaught exceptions on stderr with their stack
// remapped to authored sources.
func (a *Adapter) onExceptionThrown(ev rdp.ExceptionThrownEvent) {
	text := exceptionText(&ev.ExceptionDetails)
	if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
		text = ev.ExceptionDetails.Exception.Description
	}
	a.sendOutput("stderr", a.mapFormattedException(text)+"\n", 0)
}

// onMessageAdded remaps the legacy Console domain event onto the Runtime
// path so old runtimes keep producing output.
func (a *Adapter) onMessageAdded(ev rdp.ConsoleMessage) {
	callType := ev.Message.Level
	if callType == "" {
		callType = "log"
	}
	a.onConsoleAPICalled(rdp.ConsoleAPICalledEvent{
		Type: callType,
		Args: []rdp.RemoteObject{{Type: "string", Description: ev.Message.Text}},
	})
}

func consoleArgString(obj *rdp.RemoteObject) string {
	if obj.Type == "string" {
		var s string
		if err := json.Unmarshal(obj.Value, &s); err == nil {
			return s
		}
		return obj.Description
	}
	if obj.Type == "object" {
		return objectValueString(obj)
	}
	return primitiveValueString(obj)
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

// --- Event plumbing and shared helpers ---

func (a *Adapter) sendEvent(event dap.EventMessage) {
	if a.sink != nil {
		a.sink.SendEvent(event)
	}
}

func (a *Adapter) sendOutput(category, output string, varRef int) {
	a.sendEvent(&dap.OutputEvent{
		Event: newEvent("output"),
		Body: dap.OutputEventBody{
			Category:           category,
			Output:             output,
			VariablesReference: varRef,
		},
	})
}

func newEvent(name string) dap.Event {
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Type: "event"},
		Event:           name,
	}
}

// sourceForScript builds the DAP source for a script. Caller holds mu.
func (a *Adapter) sourceForScript(script *Script) *dap.Source {
	clientPath := a.pathTransformer.TargetURLToClientPath(script.URL)
	if clientPath == "" || isSyntheticURL(script.URL) {
		return &dap.Source{
			Name:            script.URL,
			SourceReference: a.sourceHandles.Create(script.ScriptID, &SourceContainer{ScriptID: script.ScriptID}),
		}
	}
	return &dap.Source{Name: baseName(clientPath), Path: clientPath}
}

// translateLocationToClient maps a runtime location to client numbering,
// through the source map when one applies. Caller holds mu.
func (a *Adapter) translateLocationToClient(scriptURL string, loc rdp.Location) (int, int) {
	if pos, ok := a.sourceMapTransformer.MapToAuthored(scriptURL, loc.LineNumber, loc.ColumnNumber); ok {
		return a.lineCol.LineToClient(pos.Line), a.lineCol.ColumnToClient(pos.Column)
	}
	return a.lineCol.LineToClient(loc.LineNumber), a.lineCol.ColumnToClient(loc.ColumnNumber)
}

// Error helpers shared across the package.

func errNotConnected() error { return bridgeerrors.NotConnected() }

func errNoCallStack() error { return bridgeerrors.NoCallStack() }

func errInvalidStackFrame(id int) error { return bridgeerrors.InvalidStackFrame(id) }

func errInvalidThread(id int) error { return bridgeerrors.InvalidThread(id) }

func errUnknownHandle(kind string, id int) error { return bridgeerrors.UnknownHandle(kind, id) }

func errEvaluationFailed(text string) error { return bridgeerrors.EvaluationFailed(text) }

func errSetVariableFailed(name string, err error) error {
	return bridgeerrors.SetVariableFailed(name, err)
}
