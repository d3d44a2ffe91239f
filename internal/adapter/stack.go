package adapter

import (
	"strings"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// StackTrace assembles the IDE-facing stack: synchronous frames first, then
// each async parent subtree behind a non-executable label frame. Slicing by
// startFrame/levels happens after totalFrames is known.
func (a *Adapter) StackTrace(args dap.StackTraceArguments) (*dap.StackTraceResponseBody, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentPause == nil {
		return nil, errNoCallStack()
	}

	all := a.assembleFrames(a.currentPause)

	total := len(all)
	start := args.StartFrame
	if start > total {
		start = total
	}
	end := total
	if args.Levels > 0 && start+args.Levels < total {
		end = start + args.Levels
	}

	return &dap.StackTraceResponseBody{
		StackFrames: all[start:end],
		TotalFrames: total,
	}, nil
}

// assembleFrames builds every frame for the current pause. Caller holds mu.
func (a *Adapter) assembleFrames(pause *rdp.PausedEvent) []dap.StackFrame {
	frames := make([]dap.StackFrame, 0, len(pause.CallFrames)+4)

	for _, cf := range pause.CallFrames {
		frames = append(frames, a.callFrameToStackFrame(cf))
	}

	for parent := pause.AsyncStackTrace; parent != nil; parent = parent.Parent {
		description := parent.Description
		if description == "" {
			description = "async"
		}
		frames = append(frames, dap.StackFrame{
			Id:               0,
			Name:             "[ " + description + " ]",
			PresentationHint: "label",
		})
		for _, rf := range parent.CallFrames {
			frames = append(frames, a.runtimeFrameToStackFrame(rf))
		}
	}

	if len(frames) == 0 {
		// The runtime handed us nothing usable; give the IDE one stub so
		// the thread still renders.
		frames = append(frames, dap.StackFrame{Id: 0, Name: "VM_Unknown"})
	}

	return frames
}

// callFrameToStackFrame converts a live Debugger frame, allocating the frame
// handle that scopes/evaluate requests will reference. Caller holds mu.
func (a *Adapter) callFrameToStackFrame(cf rdp.CallFrame) dap.StackFrame {
	id := a.frameHandles.Create(cf)

	script, _ := a.scripts.byScriptID(cf.Location.ScriptID)
	url := ""
	if script != nil {
		url = script.URL
	}

	frame := dap.StackFrame{
		Id:   id,
		Name: frameName(cf.FunctionName, url),
	}
	frame.Source, frame.Line, frame.Column = a.frameSource(url, script, cf.Location)
	a.applyDeemphasis(&frame, url, cf.Location)
	return frame
}

// runtimeFrameToStackFrame converts one frame of an async parent trace.
// Async frames carry no live call-frame state, so they get no handle and no
// scopes. Caller holds mu.
func (a *Adapter) runtimeFrameToStackFrame(rf rdp.RuntimeCallFrame) dap.StackFrame {
	url := rf.URL
	var script *Script
	if s, ok := a.scripts.byScriptID(rf.ScriptID); ok {
		script = s
		if url == "" {
			url = s.URL
		}
	}

	loc := rdp.Location{ScriptID: rf.ScriptID, LineNumber: rf.LineNumber, ColumnNumber: rf.ColumnNumber}
	frame := dap.StackFrame{
		Id:   0,
		Name: frameName(rf.FunctionName, url),
	}
	frame.Source, frame.Line, frame.Column = a.frameSource(url, script, loc)
	a.applyDeemphasis(&frame, url, loc)
	return frame
}

// frameSource builds the DAP source plus client line/column for a runtime
// location: authored position when the source map knows one, the client
// path otherwise, and a sourceReference for scripts with no file on disk.
// Caller holds mu.
func (a *Adapter) frameSource(url string, script *Script, loc rdp.Location) (*dap.Source, int, int) {
	line := a.lineCol.LineToClient(loc.LineNumber)
	column := a.lineCol.ColumnToClient(loc.ColumnNumber)

	if url == "" {
		return nil, line, column
	}

	if pos, ok := a.sourceMapTransformer.MapToAuthored(url, loc.LineNumber, loc.ColumnNumber); ok {
		return &dap.Source{
			Name: baseName(pos.Source),
			Path: a.pathTransformer.TargetURLToClientPath(pos.Source),
		}, a.lineCol.LineToClient(pos.Line), a.lineCol.ColumnToClient(pos.Column)
	}

	clientPath := a.pathTransformer.TargetURLToClientPath(url)
	if clientPath == "" || isSyntheticURL(url) {
		// Script with no client-side file: serve it by reference.
		source := &dap.Source{Name: url}
		if script != nil {
			source.SourceReference = a.sourceHandles.Create(script.ScriptID, &SourceContainer{ScriptID: script.ScriptID})
		}
		return source, line, column
	}

	return &dap.Source{Name: baseName(clientPath), Path: clientPath}, line, column
}

// applyDeemphasis tags skipped frames so the IDE renders them dimmed.
// Caller holds mu.
func (a *Adapter) applyDeemphasis(frame *dap.StackFrame, url string, loc rdp.Location) {
	if frame.Source == nil {
		return
	}

	path := frame.Source.Path
	if path == "" {
		path = url
	}

	if st := a.skip.shouldSkip(path); st != nil && *st {
		frame.Source.PresentationHint = "deemphasize"
		frame.Source.Origin = "(skipped by 'skipFiles')"
		return
	}

	if a.cfg != nil && a.cfg.SmartStep && a.cfg.SourceMapsEnabled() {
		if _, ok := a.sourceMapTransformer.MapToAuthored(url, loc.LineNumber, loc.ColumnNumber); !ok {
			frame.Source.PresentationHint = "deemphasize"
			frame.Source.Origin = "(skipped by 'smartStep')"
		}
	}
}

// Scopes lists the scope chain of one frame, with the exception pseudo-scope
// prepended while an exception is current.
func (a *Adapter) Scopes(frameID int) (*dap.ScopesResponseBody, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentPause == nil {
		return nil, errNoCallStack()
	}
	frame, ok := a.frameHandles.Get(frameID)
	if !ok {
		return nil, errInvalidStackFrame(frameID)
	}

	body := &dap.ScopesResponseBody{}

	if a.exception != nil {
		body.Scopes = append(body.Scopes, dap.Scope{
			Name:               "Exception",
			VariablesReference: a.variableHandles.Create(&ExceptionContainer{Exception: *a.exception}),
		})
	}

	for i, scope := range frame.ScopeChain {
		container := &ScopeContainer{
			CallFrameID: frame.CallFrameID,
			ScopeIndex:  i,
			ObjectID:    scope.Object.ObjectID,
		}
		if i == 0 {
			container.This = frame.This
			container.ReturnValue = frame.ReturnValue
		}

		s := dap.Scope{
			Name:               capitalize(scope.Type),
			VariablesReference: a.variableHandles.Create(container),
			Expensive:          scope.Type == "global",
		}
		if scope.StartLocation != nil {
			s.Line = a.lineCol.LineToClient(scope.StartLocation.LineNumber)
			s.Column = a.lineCol.ColumnToClient(scope.StartLocation.ColumnNumber)
		}
		if scope.EndLocation != nil {
			s.EndLine = a.lineCol.LineToClient(scope.EndLocation.LineNumber)
			s.EndColumn = a.lineCol.ColumnToClient(scope.EndLocation.ColumnNumber)
		}
		body.Scopes = append(body.Scopes, s)
	}

	return body, nil
}

// frameName names a frame after its function, with the conventional
// placeholders for anonymous code.
func frameName(functionName, url string) string {
	if functionName != "" {
		return functionName
	}
	if url != "" && !isSyntheticURL(url) {
		return "(anonymous function)"
	}
	return "(eval code)"
}

func baseName(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
