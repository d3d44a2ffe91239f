package adapter

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// stepResponseCeiling bounds how long a Stopped event waits for the step
// request that induced it to be answered first.
const stepResponseCeiling = 300 * time.Millisecond

// stepQuiescence is the post-step window during which evaluations are held
// back; it papers over a runtime race between resume and evaluate.
const stepQuiescence = 50 * time.Millisecond

// Stop reasons reported to the IDE.
const (
	reasonException        = "exception"
	reasonPromiseRejection = "promise_rejection"
	reasonBreakpoint       = "breakpoint"
	reasonStep             = "step"
	reasonPause            = "pause"
	reasonDebuggerStmt     = "debugger_statement"
	reasonFrameEntry       = "frame_entry"
)

// lastPauseState remembers the most recent surfaced pause so toggling
// skip-file status can re-fire the Stopped event for the IDE. The reason is
// the one already classified; re-firing must not re-run the hit-condition
// or smart-step gates.
type lastPauseState struct {
	event  rdp.PausedEvent
	reason string
}

// onPaused is the heart of the state machine: it opens a new pause epoch,
// classifies the stop reason, applies hit-condition and smart-step gates and
// finally emits the Stopped event.
func (a *Adapter) onPaused(ev rdp.PausedEvent) {
	a.mu.Lock()

	// New pause epoch: handles issued before this point are dead.
	a.frameHandles.Reset()
	a.variableHandles.Reset()
	a.exception = nil
	a.currentPause = &ev

	expecting := a.expectingStopReason
	a.expectingStopReason = ""

	reason := ""
	switch ev.Reason {
	case "exception":
		reason = reasonException
		a.exception = exceptionFromData(ev.Data)
	case "promiseRejection":
		reason = reasonPromiseRejection
		a.exception = exceptionFromData(ev.Data)
	default:
		switch {
		case len(ev.HitBreakpoints) > 0:
			reason = reasonBreakpoint
			if expecting == "" && !a.shouldPauseOnHit(ev.HitBreakpoints) {
				// Hit-condition miss: resume silently, no state change
				// visible to the client.
				client := a.client
				a.currentPause = nil
				a.mu.Unlock()
				if client != nil {
					if err := client.CallInto(context.Background(), "Debugger.resume", nil, nil); err != nil {
						log.Printf("Pause: silent resume failed: %v", err)
					}
				}
				return
			}
		case expecting != "":
			reason = expecting
		default:
			reason = reasonDebuggerStmt
		}
	}

	// Smart-step gate: while stepping with source maps on, frames without
	// an authored mapping are stepped through instead of stopped in.
	if reason == reasonStep && a.cfg != nil && a.cfg.SmartStep && a.cfg.SourceMapsEnabled() {
		if len(ev.CallFrames) > 0 && !a.hasAuthoredMapping(ev.CallFrames[0].Location) {
			a.smartStepCount++
			a.expectingStopReason = reasonStep
			client := a.client
			a.mu.Unlock()
			if client != nil {
				if err := client.CallInto(context.Background(), "Debugger.stepInto", nil, nil); err != nil {
					if err.Error() != "" {
						log.Printf("Pause: smart-step stepInto failed: %v", err)
					}
				}
			}
			return
		}
		if a.smartStepCount > 0 {
			log.Printf("SmartStep: Skipped %d steps", a.smartStepCount)
			a.smartStepCount = 0
		}
	}

	exceptionText := ""
	if a.exception != nil {
		exceptionText = firstLine(a.exception.Description)
	}
	a.lastPause = &lastPauseState{event: ev, reason: reason}
	step := a.currentStep
	a.mu.Unlock()

	// Never let a step-induced Stopped overtake the step response.
	if step != nil {
		select {
		case <-step:
		case <-time.After(stepResponseCeiling):
		}
	}

	a.sendEvent(&dap.StoppedEvent{
		Event: newEvent("stopped"),
		Body: dap.StoppedEventBody{
			Reason:            reason,
			ThreadId:          threadID,
			Text:              exceptionText,
			AllThreadsStopped: true,
		},
	})
}

// shouldPauseOnHit bumps the hit counters for every hit-condition breakpoint
// among the ids and reports whether all of them agree to pause. Caller
// holds mu.
func (a *Adapter) shouldPauseOnHit(hitBreakpoints []string) bool {
	pause := true
	for _, id := range hitBreakpoints {
		hcb, ok := a.hitConditionBreakpoints[id]
		if !ok {
			continue
		}
		hcb.numHits++
		if !hcb.shouldPause(hcb.numHits) {
			pause = false
		}
	}
	return pause
}

// hasAuthoredMapping reports whether a runtime location maps back to an
// authored source. Caller holds mu.
func (a *Adapter) hasAuthoredMapping(loc rdp.Location) bool {
	script, ok := a.scripts.byScriptID(loc.ScriptID)
	if !ok {
		return false
	}
	_, ok = a.sourceMapTransformer.MapToAuthored(script.URL, loc.LineNumber, loc.ColumnNumber)
	return ok
}

// onResumed closes the pause epoch. A step-induced resume opens the
// quiescence window instead of reporting Continued.
func (a *Adapter) onResumed() {
	a.mu.Lock()
	a.currentPause = nil

	if a.expectingResumedEvent {
		a.expectingResumedEvent = false
		latch := make(chan struct{})
		a.quiesce = latch
		time.AfterFunc(stepQuiescence, func() { close(latch) })
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.sendEvent(&dap.ContinuedEvent{
		Event: newEvent("continued"),
		Body:  dap.ContinuedEventBody{ThreadId: threadID, AllThreadsContinued: true},
	})
}

// onExecutionContextsCleared throws away everything tied to the old
// execution contexts: scripts, committed breakpoints and pending work.
func (a *Adapter) onExecutionContextsCleared() {
	a.mu.Lock()
	a.scripts.clear()
	a.committedBreakpoints = make(map[string][]string)
	a.hitConditionBreakpoints = make(map[string]*hitConditionBreakpoint)
	a.currentPause = nil
	pathT, mapT := a.pathTransformer, a.sourceMapTransformer
	a.mu.Unlock()

	pathT.Clear()
	mapT.Clear()
}

// stepRPC issues a navigation method, recording the expected stop reason so
// the next pause classifies correctly and Continued stays suppressed.
func (a *Adapter) stepRPC(ctx context.Context, method, expecting string) error {
	a.mu.Lock()
	if a.client == nil {
		a.mu.Unlock()
		return errNotConnected()
	}
	client := a.client
	a.expectingStopReason = expecting
	a.expectingResumedEvent = true
	done := make(chan struct{})
	a.currentStep = done
	a.mu.Unlock()

	err := client.CallInto(ctx, method, nil, nil)
	close(done)
	if err != nil {
		a.mu.Lock()
		if a.expectingStopReason == expecting {
			a.expectingStopReason = ""
		}
		a.expectingResumedEvent = false
		a.mu.Unlock()
	}
	return err
}

// Continue resumes execution.
func (a *Adapter) Continue(ctx context.Context) error {
	a.mu.Lock()
	if a.client == nil {
		a.mu.Unlock()
		return errNotConnected()
	}
	client := a.client
	a.expectingResumedEvent = true
	a.mu.Unlock()

	err := client.CallInto(ctx, "Debugger.resume", nil, nil)
	if err != nil {
		a.mu.Lock()
		a.expectingResumedEvent = false
		a.mu.Unlock()
	}
	return err
}

// Next steps over the current statement.
func (a *Adapter) Next(ctx context.Context) error {
	return a.stepRPC(ctx, "Debugger.stepOver", reasonStep)
}

// StepIn steps into the call at the current statement.
func (a *Adapter) StepIn(ctx context.Context) error {
	return a.stepRPC(ctx, "Debugger.stepInto", reasonStep)
}

// StepOut steps out of the current frame.
func (a *Adapter) StepOut(ctx context.Context) error {
	return a.stepRPC(ctx, "Debugger.stepOut", reasonStep)
}

// StepBack steps backwards on runtimes with time-travel support.
func (a *Adapter) StepBack(ctx context.Context) error {
	return a.stepRPC(ctx, "TimeTravel.stepBack", reasonStep)
}

// ReverseContinue runs backwards on runtimes with time-travel support.
func (a *Adapter) ReverseContinue(ctx context.Context) error {
	return a.stepRPC(ctx, "TimeTravel.reverse", reasonStep)
}

// Pause interrupts the running program.
func (a *Adapter) Pause(ctx context.Context) error {
	a.mu.Lock()
	if a.client == nil {
		a.mu.Unlock()
		return errNotConnected()
	}
	client := a.client
	a.expectingStopReason = reasonPause
	a.mu.Unlock()

	return client.CallInto(ctx, "Debugger.pause", nil, nil)
}

// RestartFrame restarts the given frame and steps into it.
func (a *Adapter) RestartFrame(ctx context.Context, frameID int) error {
	a.mu.Lock()
	if a.client == nil {
		a.mu.Unlock()
		return errNotConnected()
	}
	frame, ok := a.frameHandles.Get(frameID)
	if !ok || frame.CallFrameID == "" {
		a.mu.Unlock()
		return errInvalidStackFrame(frameID)
	}
	client := a.client
	a.mu.Unlock()

	err := client.CallInto(ctx, "Debugger.restartFrame", rdp.RestartFrameParams{CallFrameID: frame.CallFrameID}, nil)
	if err != nil {
		return err
	}
	return a.stepRPC(ctx, "Debugger.stepInto", reasonFrameEntry)
}

// refirePausedEvent re-emits the last Stopped event, used after a
// skip-status toggle so the IDE re-renders deemphasize hints. The program
// has not moved, so the pause epoch, hit-condition counters and step gates
// are left untouched.
func (a *Adapter) refirePausedEvent() {
	a.mu.Lock()
	last := a.lastPause
	exceptionText := ""
	if a.exception != nil {
		exceptionText = firstLine(a.exception.Description)
	}
	a.mu.Unlock()
	if last == nil {
		return
	}

	a.sendEvent(&dap.StoppedEvent{
		Event: newEvent("stopped"),
		Body: dap.StoppedEventBody{
			Reason:            last.reason,
			ThreadId:          threadID,
			Text:              exceptionText,
			AllThreadsStopped: true,
		},
	})
}

// waitQuiescence blocks until the post-step quiescence window is over.
func (a *Adapter) waitQuiescence() {
	a.mu.Lock()
	latch := a.quiesce
	a.mu.Unlock()
	if latch != nil {
		<-latch
	}
}

// exceptionFromData decodes the paused notification's exception payload.
func exceptionFromData(data json.RawMessage) *rdp.RemoteObject {
	if len(data) == 0 {
		return nil
	}
	var obj rdp.RemoteObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	return &obj
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
