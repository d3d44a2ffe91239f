package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-dap"
	"github.com/gorilla/websocket"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

func TestParseHitCondition(t *testing.T) {
	tests := []struct {
		condition string
		hits      []int
		want      []bool
	}{
		{"5", []int{4, 5, 6}, []bool{false, true, true}},
		{">= 5", []int{4, 5, 6}, []bool{false, true, true}},
		{"> 2", []int{2, 3}, []bool{false, true}},
		{"= 3", []int{2, 3, 4}, []bool{false, true, false}},
		{"< 3", []int{2, 3}, []bool{true, false}},
		{"<= 3", []int{3, 4}, []bool{true, false}},
		{"% 3", []int{1, 3, 6, 7}, []bool{false, true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			pred, err := parseHitCondition(tt.condition)
			if err != nil {
				t.Fatalf("parseHitCondition(%q): %v", tt.condition, err)
			}
			for i, hits := range tt.hits {
				if got := pred(hits); got != tt.want[i] {
					t.Errorf("condition %q at hit %d = %v, want %v", tt.condition, hits, got, tt.want[i])
				}
			}
		})
	}
}

func TestParseHitConditionInvalid(t *testing.T) {
	for _, condition := range []string{"", "abc", "== 3", "> x", "% 0", "3 + 2"} {
		if _, err := parseHitCondition(condition); err == nil {
			t.Errorf("parseHitCondition(%q) should fail", condition)
		}
	}
}

func TestShouldPauseOnHit(t *testing.T) {
	a := New(nil)

	everyThird, _ := parseHitCondition("% 3")
	a.hitConditionBreakpoints["bp1"] = &hitConditionBreakpoint{shouldPause: everyThird}

	got := []bool{}
	for i := 0; i < 6; i++ {
		got = append(got, a.shouldPauseOnHit([]string{"bp1"}))
	}
	want := []bool{false, false, true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: pause = %v, want %v", i+1, got[i], want[i])
		}
	}

	// Breakpoints without a hit condition always pause.
	if !a.shouldPauseOnHit([]string{"plain"}) {
		t.Error("unconditioned breakpoint should pause")
	}
}

func TestPendingBreakpointsGetDistinctIDs(t *testing.T) {
	a := New(nil)
	a.client = &rdp.Client{}

	body, err := a.SetBreakpoints(context.Background(), dap.SetBreakpointsArguments{
		Source:      dap.Source{Path: "/app/later.js"},
		Breakpoints: []dap.SourceBreakpoint{{Line: 3}, {Line: 9}},
	}, 1, nil)
	if err != nil {
		t.Fatalf("SetBreakpoints: %v", err)
	}

	if len(body.Breakpoints) != 2 {
		t.Fatalf("got %d breakpoints, want 2", len(body.Breakpoints))
	}
	if body.Breakpoints[0].Id == body.Breakpoints[1].Id {
		t.Errorf("pending breakpoints share id %d", body.Breakpoints[0].Id)
	}
	if body.Breakpoints[0].Verified || body.Breakpoints[1].Verified {
		t.Error("unbound breakpoints must be unverified")
	}

	pb, ok := a.pendingBreakpoints["/app/later.js"]
	if !ok {
		t.Fatal("request not remembered as pending")
	}
	for i, bp := range body.Breakpoints {
		if pb.ids[i] != bp.Id {
			t.Errorf("pending id %d = %d, response id %d", i, pb.ids[i], bp.Id)
		}
	}
}

func TestClientBreakpointIDBindsAssigned(t *testing.T) {
	a := New(nil)
	id := a.breakpointHandles.CreateUnkeyed("")

	// Draining a pending request binds its pre-assigned id to the runtime
	// breakpoint id.
	if got := a.clientBreakpointID("rt-1", id); got != id {
		t.Fatalf("clientBreakpointID = %d, want assigned id %d", got, id)
	}
	// A later resolution of the same runtime breakpoint reuses it.
	if got := a.clientBreakpointID("rt-1", 0); got != id {
		t.Errorf("resolved breakpoint got id %d, want %d", got, id)
	}
}

func TestInvalidHitConditionNeverReachesRuntime(t *testing.T) {
	var mu sync.Mutex
	var methods []string
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			var msg struct {
				ID     int             `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			mu.Lock()
			methods = append(methods, msg.Method)
			mu.Unlock()

			reply := map[string]interface{}{"id": msg.ID, "result": map[string]interface{}{}}
			if msg.Method == "Debugger.setBreakpointByUrl" {
				reply["result"] = map[string]interface{}{
					"breakpointId": "bp:url:1",
					"locations":    []map[string]interface{}{{"scriptId": "10", "lineNumber": 3, "columnNumber": 0}},
				}
			}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	client, err := rdp.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), false)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	a := New(nil)
	a.client = client
	a.scripts.add("10", "file:///app/a.js", "")

	body, err := a.SetBreakpoints(context.Background(), dap.SetBreakpointsArguments{
		Source: dap.Source{Path: "file:///app/a.js"},
		Breakpoints: []dap.SourceBreakpoint{
			{Line: 3},
			{Line: 5, HitCondition: "== 2"},
		},
	}, 1, nil)
	if err != nil {
		t.Fatalf("SetBreakpoints: %v", err)
	}

	if len(body.Breakpoints) != 2 {
		t.Fatalf("got %d breakpoints, want 2", len(body.Breakpoints))
	}
	if !body.Breakpoints[0].Verified {
		t.Errorf("plain breakpoint = %+v, want verified", body.Breakpoints[0])
	}
	if body.Breakpoints[1].Verified || body.Breakpoints[1].Message != "Invalid hit condition: == 2" {
		t.Errorf("broken breakpoint = %+v, want unverified with message", body.Breakpoints[1])
	}
	if body.Breakpoints[0].Id == body.Breakpoints[1].Id {
		t.Errorf("breakpoints share id %d", body.Breakpoints[0].Id)
	}

	// The broken breakpoint must not have been placed in the runtime.
	mu.Lock()
	sets := 0
	for _, m := range methods {
		if m == "Debugger.setBreakpointByUrl" {
			sets++
		}
	}
	mu.Unlock()
	if sets != 1 {
		t.Errorf("runtime received %d setBreakpointByUrl calls, want 1", sets)
	}
	if got := a.committedBreakpoints["file:///app/a.js"]; len(got) != 1 {
		t.Errorf("committed = %v, want exactly the plain breakpoint", got)
	}
	if len(a.hitConditionBreakpoints) != 0 {
		t.Errorf("hit-condition table = %v, want empty", a.hitConditionBreakpoints)
	}
}

func TestURLToRegex(t *testing.T) {
	re, err := regexp.Compile(urlToRegex(`C:\app\main.test.js`))
	if err != nil {
		t.Fatalf("urlToRegex output does not compile: %v", err)
	}

	for _, url := range []string{`C:\app\main.test.js`, "C:/app/main.test.js"} {
		if !re.MatchString(url) {
			t.Errorf("regex should match %q", url)
		}
	}
	if re.MatchString("C:/app/mainXtest.js") {
		t.Error("dot must be escaped, not a wildcard")
	}
}

func TestSyntheticBreakpointID(t *testing.T) {
	if got := syntheticBreakpointID("VM12", 3, 7); got != "VM12:3:7" {
		t.Errorf("syntheticBreakpointID = %q", got)
	}
}
