package adapter

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// breakpointAlreadyExists is the runtime's error text when a breakpoint is
// re-set at a location that already has one. Treated as success.
const breakpointAlreadyExists = "Breakpoint at specified location already exists."

// setBreakpointsTimeout bounds one clear+add cycle. Expiry is logged but the
// cycle is never cancelled; the true result is still returned when it settles.
const setBreakpointsTimeout = 5 * time.Second

var hitConditionPattern = regexp.MustCompile(`^(>|>=|=|<|<=|%)?\s*([0-9]+)$`)

// hitConditionBreakpoint counts hits of one runtime breakpoint and decides
// whether a given hit should pause.
type hitConditionBreakpoint struct {
	numHits     int
	shouldPause func(numHits int) bool
}

// parseHitCondition compiles a hit-condition string into a predicate over
// the hit counter. The default operator is >=; '=' compares for equality;
// '%' pauses on every Nth hit.
func parseHitCondition(condition string) (func(int) bool, error) {
	m := hitConditionPattern.FindStringSubmatch(strings.TrimSpace(condition))
	if m == nil {
		return nil, fmt.Errorf("invalid hit condition: %s", condition)
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("invalid hit condition: %s", condition)
	}

	switch m[1] {
	case ">":
		return func(hits int) bool { return hits > n }, nil
	case "", ">=":
		return func(hits int) bool { return hits >= n }, nil
	case "=":
		return func(hits int) bool { return hits == n }, nil
	case "<":
		return func(hits int) bool { return hits < n }, nil
	case "<=":
		return func(hits int) bool { return hits <= n }, nil
	case "%":
		if n == 0 {
			return nil, fmt.Errorf("invalid hit condition: %s", condition)
		}
		return func(hits int) bool { return hits%n == 0 }, nil
	}
	return nil, fmt.Errorf("invalid hit condition: %s", condition)
}

// pendingBreakpoint remembers a setBreakpoints request that could not bind
// yet because no matching script was loaded. It is drained when a matching
// script (directly, or through its source map) is first observed.
type pendingBreakpoint struct {
	args       dap.SetBreakpointsArguments
	ids        []int
	requestSeq int
}

// SetBreakpoints is the hub of the breakpoint engine. It resolves the
// requested source to a target script URL, serializes a clear-then-add cycle
// against the runtime and maps the outcome back to DAP breakpoints. The ids
// slice carries pre-assigned client breakpoint ids when draining a pending
// request; pass nil otherwise.
func (a *Adapter) SetBreakpoints(ctx context.Context, args dap.SetBreakpointsArguments, requestSeq int, ids []int) (*dap.SetBreakpointsResponseBody, error) {
	a.mu.Lock()
	if a.client == nil {
		a.mu.Unlock()
		return nil, errNotConnected()
	}

	targetURL := a.resolveBreakpointTarget(args.Source)
	if targetURL == "" {
		// No script to bind against yet. Remember the request and answer
		// with unverified breakpoints carrying stable ids.
		body := &dap.SetBreakpointsResponseBody{}
		assigned := make([]int, len(args.Breakpoints))
		for i := range args.Breakpoints {
			id := 0
			if i < len(ids) {
				id = ids[i]
			} else {
				id = a.breakpointHandles.CreateUnkeyed("")
			}
			assigned[i] = id
			body.Breakpoints = append(body.Breakpoints, dap.Breakpoint{
				Id:       id,
				Verified: false,
				Message:  "Breakpoint set but not yet bound",
			})
		}
		key := args.Source.Path
		if key == "" {
			key = fmt.Sprintf("ref:%d", args.Source.SourceReference)
		}
		a.pendingBreakpoints[key] = &pendingBreakpoint{args: args, ids: assigned, requestSeq: requestSeq}
		a.mu.Unlock()
		return body, nil
	}

	client := a.client
	script, _ := a.scripts.byScriptURL(targetURL)
	a.mu.Unlock()

	// Serialize clear-then-add cycles. The watchdog logs when a cycle runs
	// long but never breaks the chain.
	watchdog := time.AfterFunc(setBreakpointsTimeout, func() {
		log.Printf("Breakpoints: set request for %s still running after %v", targetURL, setBreakpointsTimeout)
	})
	defer watchdog.Stop()

	a.bpMu.Lock()
	defer a.bpMu.Unlock()

	a.clearCommitted(ctx, client, targetURL)

	scriptID := ""
	if script != nil {
		scriptID = script.ScriptID
	}

	body := &dap.SetBreakpointsResponseBody{}
	var committed []string

	for i, bp := range args.Breakpoints {
		id := 0
		if i < len(ids) {
			id = ids[i]
		}

		// Compile the hit condition first. A breakpoint with a broken
		// condition must never reach the runtime, or it pauses on every hit.
		var hitPred func(int) bool
		if bp.HitCondition != "" {
			pred, err := parseHitCondition(bp.HitCondition)
			if err != nil {
				body.Breakpoints = append(body.Breakpoints, dap.Breakpoint{
					Id:       a.clientBreakpointID("", id),
					Verified: false,
					Message:  "Invalid hit condition: " + bp.HitCondition,
				})
				continue
			}
			hitPred = pred
		}

		runtimeID, actual, err := a.addOneBreakpoint(ctx, client, targetURL, scriptID, bp)
		if err != nil {
			body.Breakpoints = append(body.Breakpoints, dap.Breakpoint{
				Id:       a.clientBreakpointID(runtimeID, id),
				Verified: false,
				Message:  err.Error(),
			})
			continue
		}

		committed = append(committed, runtimeID)

		if hitPred != nil {
			a.mu.Lock()
			a.hitConditionBreakpoints[runtimeID] = &hitConditionBreakpoint{shouldPause: hitPred}
			a.mu.Unlock()
		}

		if actual == nil {
			body.Breakpoints = append(body.Breakpoints, dap.Breakpoint{
				Id:       a.clientBreakpointID(runtimeID, id),
				Verified: false,
				Message:  "Breakpoint set but not yet bound",
			})
			continue
		}

		body.Breakpoints = append(body.Breakpoints, dap.Breakpoint{
			Id:       a.clientBreakpointID(runtimeID, id),
			Verified: true,
			Line:     a.lineCol.LineToClient(actual.LineNumber),
			Column:   a.lineCol.ColumnToClient(actual.ColumnNumber),
		})
	}

	a.mu.Lock()
	a.committedBreakpoints[targetURL] = committed
	a.mu.Unlock()

	return body, nil
}

// resolveBreakpointTarget determines the runtime URL a breakpoint request
// binds to: the source handle's script for sourceReference requests,
// otherwise the client path run through the source-map and path
// transformers. Returns "" when nothing is resolvable yet. Caller holds mu.
func (a *Adapter) resolveBreakpointTarget(source dap.Source) string {
	if source.SourceReference > 0 {
		if container, ok := a.sourceHandles.Get(source.SourceReference); ok && container.ScriptID != "" {
			if script, ok := a.scripts.byScriptID(container.ScriptID); ok {
				return script.URL
			}
		}
		if source.Path == "" {
			return ""
		}
	}

	path := source.Path
	if generated, ok := a.sourceMapTransformer.GetGeneratedPathFromAuthoredPath(path); ok {
		path = generated
	}
	targetURL := a.pathTransformer.ClientPathToTargetURL(path)
	if targetURL == "" {
		return ""
	}
	if _, ok := a.scripts.byScriptURL(targetURL); !ok && !isSyntheticURL(targetURL) {
		return ""
	}
	return fixDriveLetter(targetURL)
}

// clearCommitted removes every runtime breakpoint previously committed for
// the URL, one at a time. Concurrent removals trip a known runtime bug.
func (a *Adapter) clearCommitted(ctx context.Context, client *rdp.Client, targetURL string) {
	a.mu.Lock()
	committed := a.committedBreakpoints[targetURL]
	delete(a.committedBreakpoints, targetURL)
	a.mu.Unlock()

	for _, runtimeID := range committed {
		err := client.CallInto(ctx, "Debugger.removeBreakpoint", rdp.RemoveBreakpointParams{BreakpointID: runtimeID}, nil)
		if err != nil {
			log.Printf("Breakpoints: failed to remove %s: %v", runtimeID, err)
		}
		a.mu.Lock()
		delete(a.hitConditionBreakpoints, runtimeID)
		a.mu.Unlock()
	}
}

// addOneBreakpoint places one breakpoint in the runtime and returns the
// runtime breakpoint id plus the actual bound location, if known.
func (a *Adapter) addOneBreakpoint(ctx context.Context, client *rdp.Client, targetURL, scriptID string, bp dap.SourceBreakpoint) (string, *rdp.Location, error) {
	line := a.lineCol.LineToDebugger(bp.Line)
	column := 0
	if bp.Column > 0 {
		column = a.lineCol.ColumnToDebugger(bp.Column)
	}

	if a.columnBreakpointsEnabled && scriptID != "" {
		if loc, ok := a.nearestBreakLocation(ctx, client, scriptID, line, column); ok {
			line, column = loc.LineNumber, loc.ColumnNumber
		}
	}

	if isSyntheticURL(targetURL) {
		// Anonymous eval scripts have no URL to bind against; set directly
		// on the script id.
		var result rdp.SetBreakpointResult
		err := client.CallInto(ctx, "Debugger.setBreakpoint", rdp.SetBreakpointParams{
			Location:  rdp.Location{ScriptID: scriptID, LineNumber: line, ColumnNumber: column},
			Condition: bp.Condition,
		}, &result)
		if err != nil {
			if err.Error() == breakpointAlreadyExists {
				return syntheticBreakpointID(scriptID, line, column), &rdp.Location{ScriptID: scriptID, LineNumber: line, ColumnNumber: column}, nil
			}
			return "", nil, err
		}
		return result.BreakpointID, &result.ActualLocation, nil
	}

	// URL-regex binding survives reloads: the runtime rebinds the
	// breakpoint when a matching script is parsed again.
	var result rdp.SetBreakpointByURLResult
	err := client.CallInto(ctx, "Debugger.setBreakpointByUrl", rdp.SetBreakpointByURLParams{
		URLRegex:     urlToRegex(targetURL),
		LineNumber:   line,
		ColumnNumber: column,
		Condition:    bp.Condition,
	}, &result)
	if err != nil {
		if err.Error() == breakpointAlreadyExists {
			return syntheticBreakpointID(targetURL, line, column), &rdp.Location{ScriptID: scriptID, LineNumber: line, ColumnNumber: column}, nil
		}
		return "", nil, err
	}

	var actual *rdp.Location
	if len(result.Locations) > 0 {
		actual = &result.Locations[0]
	}
	return result.BreakpointID, actual, nil
}

// nearestBreakLocation asks the runtime for the valid break locations on the
// requested line and picks the closest. Same-line columns at or after the
// requested column are preferred; otherwise the closest column on the line.
func (a *Adapter) nearestBreakLocation(ctx context.Context, client *rdp.Client, scriptID string, line, column int) (rdp.Location, bool) {
	var result rdp.GetPossibleBreakpointsResult
	err := client.CallInto(ctx, "Debugger.getPossibleBreakpoints", rdp.GetPossibleBreakpointsParams{
		Start: rdp.Location{ScriptID: scriptID, LineNumber: line},
		End:   &rdp.Location{ScriptID: scriptID, LineNumber: line + 1},
	}, &result)
	if err != nil || len(result.Locations) == 0 {
		return rdp.Location{}, false
	}

	best := result.Locations[0]
	bestAfter := false
	for _, loc := range result.Locations {
		if loc.LineNumber != line {
			continue
		}
		after := loc.ColumnNumber >= column
		switch {
		case after && !bestAfter:
			best, bestAfter = loc, true
		case after == bestAfter && abs(loc.ColumnNumber-column) < abs(best.ColumnNumber-column):
			best = loc
		}
	}
	return best, true
}

// onBreakpointResolved handles a later-bound breakpoint: the runtime has now
// attached a url-regex breakpoint to a concrete location.
func (a *Adapter) onBreakpointResolved(ev rdp.BreakpointResolvedEvent) {
	a.mu.Lock()
	script, ok := a.scripts.byScriptID(ev.Location.ScriptID)
	if !ok {
		a.mu.Unlock()
		return
	}
	a.committedBreakpoints[script.URL] = append(a.committedBreakpoints[script.URL], ev.BreakpointID)
	id := a.breakpointHandles.Create(ev.BreakpointID, ev.BreakpointID)
	source := a.sourceForScript(script)
	line, column := a.translateLocationToClient(script.URL, ev.Location)
	a.mu.Unlock()

	a.sendEvent(&dap.BreakpointEvent{
		Event: newEvent("breakpoint"),
		Body: dap.BreakpointEventBody{
			Reason: "new",
			Breakpoint: dap.Breakpoint{
				Id:       id,
				Verified: true,
				Source:   source,
				Line:     line,
				Column:   column,
			},
		},
	})
}

// drainPendingBreakpoints re-issues pending requests whose source is now
// loadable, either directly by path or through a freshly loaded source map.
// Called without mu held.
func (a *Adapter) drainPendingBreakpoints(paths []string) {
	type drained struct {
		pending *pendingBreakpoint
	}
	var work []drained

	a.mu.Lock()
	for _, p := range paths {
		if pb, ok := a.pendingBreakpoints[p]; ok {
			delete(a.pendingBreakpoints, p)
			work = append(work, drained{pending: pb})
		}
	}
	a.mu.Unlock()

	for _, w := range work {
		body, err := a.SetBreakpoints(context.Background(), w.pending.args, w.pending.requestSeq, w.pending.ids)
		if err != nil {
			log.Printf("Breakpoints: failed to drain pending for %s: %v", w.pending.args.Source.Path, err)
			continue
		}
		for _, bp := range body.Breakpoints {
			a.sendEvent(&dap.BreakpointEvent{
				Event: newEvent("breakpoint"),
				Body:  dap.BreakpointEventBody{Reason: "new", Breakpoint: bp},
			})
		}
	}
}

// clientBreakpointID returns a stable DAP id for a runtime breakpoint:
// the reverse-handle id if the runtime id was seen before, an explicitly
// assigned pending id (which is then bound to the runtime id so later
// resolution events reuse it), or a fresh handle.
func (a *Adapter) clientBreakpointID(runtimeID string, assigned int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if runtimeID != "" {
		if id, ok := a.breakpointHandles.LookupHandle(runtimeID); ok {
			return id
		}
		if assigned != 0 {
			a.breakpointHandles.Bind(runtimeID, assigned, runtimeID)
			return assigned
		}
		return a.breakpointHandles.Create(runtimeID, runtimeID)
	}
	if assigned != 0 {
		return assigned
	}
	return a.breakpointHandles.CreateUnkeyed("")
}

// syntheticBreakpointID names a breakpoint the runtime refused to duplicate.
func syntheticBreakpointID(target string, line, column int) string {
	return fmt.Sprintf("%s:%d:%d", target, line, column)
}

// urlToRegex escapes a script URL into a url-regex that tolerates either
// slash direction, so client paths match runtime URLs on any platform.
func urlToRegex(url string) string {
	var sb strings.Builder
	for i := 0; i < len(url); i++ {
		c := url[i]
		switch c {
		case '/', '\\':
			sb.WriteString(`[\/\\]`)
		case '.', '(', ')', '{', '}', '+', '^', '$', '|', '[', ']', '*', '?':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
