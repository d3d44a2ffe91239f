package adapter

import (
	"testing"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

func pausedFixture(a *Adapter, frames int) {
	a.scripts.add("1", "file:///app/main.js", "")
	pause := &rdp.PausedEvent{Reason: "other"}
	for i := 0; i < frames; i++ {
		pause.CallFrames = append(pause.CallFrames, rdp.CallFrame{
			CallFrameID:  "frame-" + string(rune('a'+i)),
			FunctionName: "fn",
			Location:     rdp.Location{ScriptID: "1", LineNumber: i},
		})
	}
	a.currentPause = pause
}

func TestStackTraceRequiresPause(t *testing.T) {
	a := New(nil)
	if _, err := a.StackTrace(dap.StackTraceArguments{ThreadId: ThreadID}); err == nil {
		t.Fatal("StackTrace without a pause should fail")
	}
}

func TestStackTraceSlicing(t *testing.T) {
	tests := []struct {
		name       string
		start      int
		levels     int
		wantFrames int
	}{
		{"all", 0, 0, 5},
		{"first two", 0, 2, 2},
		{"middle", 2, 2, 2},
		{"tail overrun", 3, 10, 2},
		{"start beyond end", 9, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(nil)
			pausedFixture(a, 5)

			body, err := a.StackTrace(dap.StackTraceArguments{
				ThreadId:   ThreadID,
				StartFrame: tt.start,
				Levels:     tt.levels,
			})
			if err != nil {
				t.Fatalf("StackTrace: %v", err)
			}
			if body.TotalFrames != 5 {
				t.Errorf("TotalFrames = %d, want 5", body.TotalFrames)
			}
			if len(body.StackFrames) != tt.wantFrames {
				t.Errorf("len(StackFrames) = %d, want %d", len(body.StackFrames), tt.wantFrames)
			}
		})
	}
}

func TestStackTraceAsyncLabelFrames(t *testing.T) {
	a := New(nil)
	pausedFixture(a, 1)
	a.currentPause.AsyncStackTrace = &rdp.StackTrace{
		Description: "setTimeout",
		CallFrames: []rdp.RuntimeCallFrame{
			{FunctionName: "later", ScriptID: "1", LineNumber: 12},
		},
	}

	body, err := a.StackTrace(dap.StackTraceArguments{ThreadId: ThreadID})
	if err != nil {
		t.Fatalf("StackTrace: %v", err)
	}
	if body.TotalFrames != 3 {
		t.Fatalf("TotalFrames = %d, want sync + label + async", body.TotalFrames)
	}

	label := body.StackFrames[1]
	if label.Name != "[ setTimeout ]" || label.PresentationHint != "label" {
		t.Errorf("label frame = %+v", label)
	}
	if label.Id != 0 {
		t.Error("label frames must not carry a frame handle")
	}
	if body.StackFrames[2].Id != 0 {
		t.Error("async frames must not carry a frame handle")
	}
}

func TestStackTraceEmptyPauseGetsStubFrame(t *testing.T) {
	a := New(nil)
	a.currentPause = &rdp.PausedEvent{Reason: "other"}

	body, err := a.StackTrace(dap.StackTraceArguments{ThreadId: ThreadID})
	if err != nil {
		t.Fatalf("StackTrace: %v", err)
	}
	if len(body.StackFrames) != 1 || body.StackFrames[0].Name != "VM_Unknown" {
		t.Errorf("frames = %+v, want single VM_Unknown stub", body.StackFrames)
	}
}

func TestScopesExceptionPseudoScope(t *testing.T) {
	a := New(nil)
	pausedFixture(a, 1)
	a.currentPause.CallFrames[0].ScopeChain = []rdp.Scope{
		{Type: "local", Object: rdp.RemoteObject{ObjectID: "obj-1"}},
		{Type: "global", Object: rdp.RemoteObject{ObjectID: "obj-2"}},
	}

	body, err := a.StackTrace(dap.StackTraceArguments{ThreadId: ThreadID})
	if err != nil {
		t.Fatalf("StackTrace: %v", err)
	}
	frameID := body.StackFrames[0].Id

	a.exception = &rdp.RemoteObject{ClassName: "Error", Description: "Error: boom"}

	scopes, err := a.Scopes(frameID)
	if err != nil {
		t.Fatalf("Scopes: %v", err)
	}
	if len(scopes.Scopes) != 3 {
		t.Fatalf("len(Scopes) = %d, want exception + 2 chain entries", len(scopes.Scopes))
	}
	if scopes.Scopes[0].Name != "Exception" {
		t.Errorf("first scope = %q, want Exception", scopes.Scopes[0].Name)
	}
	if scopes.Scopes[1].Name != "Local" {
		t.Errorf("scope name = %q, want Local", scopes.Scopes[1].Name)
	}
	if !scopes.Scopes[2].Expensive {
		t.Error("global scope should be marked expensive")
	}
}

func TestScopesRejectsStaleFrame(t *testing.T) {
	a := New(nil)
	pausedFixture(a, 1)

	body, _ := a.StackTrace(dap.StackTraceArguments{ThreadId: ThreadID})
	frameID := body.StackFrames[0].Id

	// New pause epoch invalidates old frame handles.
	a.frameHandles.Reset()

	if _, err := a.Scopes(frameID); err == nil {
		t.Error("stale frame handle should be rejected")
	}
}

func TestFrameName(t *testing.T) {
	tests := []struct {
		fn, url, want string
	}{
		{"doWork", "file:///a.js", "doWork"},
		{"", "file:///a.js", "(anonymous function)"},
		{"", "VM12", "(eval code)"},
		{"", "", "(eval code)"},
	}
	for _, tt := range tests {
		if got := frameName(tt.fn, tt.url); got != tt.want {
			t.Errorf("frameName(%q, %q) = %q, want %q", tt.fn, tt.url, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/app/src/main.js", "main.js"},
		{`C:\app\main.js`, "main.js"},
		{"main.js", "main.js"},
	}
	for _, tt := range tests {
		if got := baseName(tt.in); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
