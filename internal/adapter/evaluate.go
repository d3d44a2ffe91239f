package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// scriptsCommand is the REPL meta-command that lists loaded scripts or
// dumps one script's source.
const scriptsCommand = ".scripts"

// maxScriptDumpLength caps the source emitted by ".scripts <name>".
const maxScriptDumpLength = 100000

// evalNotAvailable is the canned message shown for reference errors outside
// the REPL, where partially typed watch expressions are routine.
const evalNotAvailable = "not available"

// Evaluate runs an expression on a call frame or globally, after waiting
// out the post-step quiescence window.
func (a *Adapter) Evaluate(ctx context.Context, args dap.EvaluateArguments) (*dap.EvaluateResponseBody, error) {
	if strings.HasPrefix(args.Expression, scriptsCommand) {
		if err := a.handleScriptsCommand(ctx, strings.TrimSpace(strings.TrimPrefix(args.Expression, scriptsCommand))); err != nil {
			return nil, err
		}
		return &dap.EvaluateResponseBody{Result: ""}, nil
	}

	a.waitQuiescence()

	a.mu.Lock()
	if a.client == nil {
		a.mu.Unlock()
		return nil, errNotConnected()
	}
	client := a.client
	callFrameID := ""
	if args.FrameId > 0 {
		if frame, ok := a.frameHandles.Get(args.FrameId); ok {
			callFrameID = frame.CallFrameID
		}
	}
	a.mu.Unlock()

	var result rdp.EvaluateResult
	var err error
	if callFrameID != "" {
		err = client.CallInto(ctx, "Debugger.evaluateOnCallFrame", rdp.EvaluateOnCallFrameParams{
			CallFrameID:           callFrameID,
			Expression:            args.Expression,
			Silent:                true,
			IncludeCommandLineAPI: args.Context == "repl",
			GeneratePreview:       true,
		}, &result)
	} else {
		err = client.CallInto(ctx, "Runtime.evaluate", rdp.EvaluateParams{
			Expression:            args.Expression,
			Silent:                true,
			IncludeCommandLineAPI: args.Context == "repl",
			GeneratePreview:       true,
		}, &result)
	}
	if err != nil {
		return nil, errEvaluationFailed(err.Error())
	}

	if result.ExceptionDetails != nil {
		text := exceptionText(result.ExceptionDetails)
		if args.Context != "repl" {
			// Watch and hover expressions produce transient reference
			// errors while the user types; show a quiet placeholder.
			if strings.HasPrefix(text, "ReferenceError:") || strings.HasPrefix(text, "TypeError:") {
				text = evalNotAvailable
			}
		}
		return nil, errEvaluationFailed(text)
	}

	v := a.remoteObjectToVariable(ctx, "", "", &result.Result)
	return &dap.EvaluateResponseBody{
		Result:             v.Value,
		Type:               v.Type,
		VariablesReference: v.VariablesReference,
		IndexedVariables:   v.IndexedVariables,
		NamedVariables:     v.NamedVariables,
	}, nil
}

// handleScriptsCommand implements the ".scripts" meta-command: with no
// argument it lists every known script, with an argument it dumps that
// script's source.
func (a *Adapter) handleScriptsCommand(ctx context.Context, arg string) error {
	a.mu.Lock()
	client := a.client
	scripts := a.scripts.all()
	a.mu.Unlock()
	if client == nil {
		return errNotConnected()
	}

	if arg == "" {
		var sb strings.Builder
		for _, s := range scripts {
			a.mu.Lock()
			clientPath := a.pathTransformer.TargetURLToClientPath(s.URL)
			sources := a.sourceMapTransformer.AllSources(s.URL)
			a.mu.Unlock()

			if clientPath != "" && clientPath != s.URL {
				fmt.Fprintf(&sb, "› %s (%s)\n", s.URL, clientPath)
			} else {
				fmt.Fprintf(&sb, "› %s\n", s.URL)
			}
			for _, src := range sources {
				fmt.Fprintf(&sb, "    - %s\n", src)
			}
		}
		a.sendOutput("stdout", sb.String(), 0)
		return nil
	}

	var target *Script
	for _, s := range scripts {
		if s.URL == arg || strings.HasSuffix(s.URL, arg) {
			target = s
			break
		}
	}
	if target == nil {
		a.sendOutput("stderr", fmt.Sprintf("No known script: %s\n", arg), 0)
		return nil
	}

	var result rdp.GetScriptSourceResult
	if err := client.CallInto(ctx, "Debugger.getScriptSource", rdp.GetScriptSourceParams{ScriptID: target.ScriptID}, &result); err != nil {
		return err
	}

	source := result.ScriptSource
	if len(source) > maxScriptDumpLength {
		source = source[:maxScriptDumpLength] + "[⋯]"
	}
	a.sendOutput("stdout", source+"\n", 0)
	return nil
}

// Completions computes member completions for the expression left of the
// caret: the prototype chain of the receiver when the text ends in a dotted
// expression, otherwise every name in the active frame's scopes.
func (a *Adapter) Completions(ctx context.Context, args dap.CompletionsArguments) (*dap.CompletionsResponseBody, error) {
	a.mu.Lock()
	client := a.client
	var frame rdp.CallFrame
	haveFrame := false
	if args.FrameId > 0 {
		frame, haveFrame = a.frameHandles.Get(args.FrameId)
	}
	a.mu.Unlock()
	if client == nil {
		return nil, errNotConnected()
	}

	text := args.Text
	if args.Column > 0 && args.Column-1 < len(text) {
		text = text[:args.Column-1]
	}

	expr := ""
	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		expr = text[:i]
	}

	var names []string
	var err error
	if expr != "" {
		names, err = a.prototypeChainNames(ctx, client, frame, haveFrame, expr)
	} else if haveFrame {
		names, err = a.scopeNames(ctx, frame)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	body := &dap.CompletionsResponseBody{}
	for _, name := range names {
		if isIndexedName(name) || seen[name] {
			continue
		}
		seen[name] = true
		body.Targets = append(body.Targets, dap.CompletionItem{Label: name, Type: "property"})
	}
	sort.Slice(body.Targets, func(i, j int) bool { return body.Targets[i].Label < body.Targets[j].Label })
	return body, nil
}

// prototypeChainNames collects the own property names of every object on
// the receiver's prototype chain, evaluated in the active frame when there
// is one.
func (a *Adapter) prototypeChainNames(ctx context.Context, client *rdp.Client, frame rdp.CallFrame, haveFrame bool, expr string) ([]string, error) {
	walk := fmt.Sprintf(
		"(function(x) { var a = []; for (var o = x; o; o = o.__proto__) { a.push(Object.getOwnPropertyNames(o)); } return a; })(%s)",
		expr)

	var result rdp.EvaluateResult
	var err error
	if haveFrame {
		err = client.CallInto(ctx, "Debugger.evaluateOnCallFrame", rdp.EvaluateOnCallFrameParams{
			CallFrameID:   frame.CallFrameID,
			Expression:    walk,
			Silent:        true,
			ReturnByValue: true,
		}, &result)
	} else {
		err = client.CallInto(ctx, "Runtime.evaluate", rdp.EvaluateParams{
			Expression:    walk,
			Silent:        true,
			ReturnByValue: true,
		}, &result)
	}
	if err != nil || result.ExceptionDetails != nil {
		// Not being able to complete is not an error worth surfacing.
		return nil, nil
	}

	var chains [][]string
	if err := json.Unmarshal(result.Result.Value, &chains); err != nil {
		return nil, nil
	}

	var names []string
	for _, chain := range chains {
		names = append(names, chain...)
	}
	return names, nil
}

// scopeNames unions the variable names of every scope in the frame.
func (a *Adapter) scopeNames(ctx context.Context, frame rdp.CallFrame) ([]string, error) {
	var names []string
	for i, scope := range frame.ScopeChain {
		container := &ScopeContainer{CallFrameID: frame.CallFrameID, ScopeIndex: i, ObjectID: scope.Object.ObjectID}
		vars, err := container.Expand(ctx, a, "", 0, 0)
		if err != nil {
			continue
		}
		for _, v := range vars {
			names = append(names, v.Name)
		}
	}
	return names, nil
}

// ExceptionInfo reports the current exception for the single thread.
func (a *Adapter) ExceptionInfo(args dap.ExceptionInfoArguments) (*dap.ExceptionInfoResponseBody, error) {
	if args.ThreadId != threadID {
		return nil, errInvalidThread(args.ThreadId)
	}

	a.mu.Lock()
	exception := a.exception
	a.mu.Unlock()
	if exception == nil {
		return nil, errEvaluationFailed("no exception available")
	}

	return &dap.ExceptionInfoResponseBody{
		ExceptionId: exception.ClassName,
		BreakMode:   "unhandled",
		Details: &dap.ExceptionDetails{
			Message:    firstLine(exception.Description),
			TypeName:   exception.ClassName,
			StackTrace: a.mapFormattedException(exception.Description),
		},
	}, nil
}

var exceptionStackLine = regexp.MustCompile(`^(\s+at .*?\s*\(?)([^ ()]+):(\d+):(\d+)(\)?)$`)

// mapFormattedException rewrites the file:line:column references inside a
// formatted exception stack through the path and source-map transformers.
// Lines that do not look like stack frames pass through verbatim.
func (a *Adapter) mapFormattedException(description string) string {
	lines := strings.Split(description, "\n")
	for i, line := range lines {
		m := exceptionStackLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		url := m[2]
		line1, _ := strconv.Atoi(m[3])
		column, _ := strconv.Atoi(m[4])

		a.mu.Lock()
		// The formatted stack is 1-based; the transformers speak 0-based.
		mappedURL, mappedLine, mappedColumn := url, line1, column
		if pos, ok := a.sourceMapTransformer.MapToAuthored(url, line1-1, column); ok {
			mappedURL, mappedLine, mappedColumn = pos.Source, pos.Line+1, pos.Column
		}
		if clientPath := a.pathTransformer.TargetURLToClientPath(mappedURL); clientPath != "" {
			mappedURL = clientPath
		}
		a.mu.Unlock()

		lines[i] = fmt.Sprintf("%s%s:%d:%d%s", m[1], mappedURL, mappedLine, mappedColumn, m[5])
	}
	return strings.Join(lines, "\n")
}
