package dap

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/google/go-dap"
)

// runSession feeds pre-encoded requests through a session and returns the
// decoded messages it produced.
func runSession(t *testing.T, requests ...dap.Message) []dap.Message {
	t.Helper()

	var in bytes.Buffer
	w := bufio.NewWriter(&in)
	for _, req := range requests {
		if err := dap.WriteProtocolMessage(w, req); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	w.Flush()

	var out bytes.Buffer
	s := NewSession(&in, &out)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var msgs []dap.Message
	r := bufio.NewReader(&out)
	for {
		msg, err := dap.ReadProtocolMessage(r)
		if err != nil {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func newRequest(seq int, command string) dap.Request {
	return dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: "request"},
		Command:         command,
	}
}

func TestInitializeHandshake(t *testing.T) {
	msgs := runSession(t, &dap.InitializeRequest{
		Request: newRequest(1, "initialize"),
		Arguments: dap.InitializeRequestArguments{
			AdapterID:       "chrome-bridge",
			PathFormat:      "path",
			LinesStartAt1:   true,
			ColumnsStartAt1: true,
		},
	})

	if len(msgs) == 0 {
		t.Fatal("no response")
	}
	resp, ok := msgs[0].(*dap.InitializeResponse)
	if !ok {
		t.Fatalf("first message = %T", msgs[0])
	}
	if !resp.Success || resp.RequestSeq != 1 {
		t.Errorf("response = %+v", resp.Response)
	}

	caps := resp.Body
	if !caps.SupportsConfigurationDoneRequest || !caps.SupportsSetVariable ||
		!caps.SupportsConditionalBreakpoints || !caps.SupportsHitConditionalBreakpoints ||
		!caps.SupportsCompletionsRequest || !caps.SupportsRestartFrame ||
		!caps.SupportsExceptionInfoRequest {
		t.Errorf("capabilities = %+v", caps)
	}

	if len(caps.ExceptionBreakpointFilters) != 2 {
		t.Fatalf("filters = %+v", caps.ExceptionBreakpointFilters)
	}
	if caps.ExceptionBreakpointFilters[0].Filter != "all" || caps.ExceptionBreakpointFilters[0].Default {
		t.Errorf("all filter = %+v", caps.ExceptionBreakpointFilters[0])
	}
	if caps.ExceptionBreakpointFilters[1].Filter != "uncaught" || !caps.ExceptionBreakpointFilters[1].Default {
		t.Errorf("uncaught filter = %+v", caps.ExceptionBreakpointFilters[1])
	}
}

func TestInitializeRejectsURIPathFormat(t *testing.T) {
	msgs := runSession(t, &dap.InitializeRequest{
		Request:   newRequest(1, "initialize"),
		Arguments: dap.InitializeRequestArguments{PathFormat: "uri"},
	})

	if len(msgs) == 0 {
		t.Fatal("no response")
	}
	resp, ok := msgs[0].(*dap.ErrorResponse)
	if !ok {
		t.Fatalf("first message = %T, want error response", msgs[0])
	}
	if resp.Success {
		t.Error("response should not be successful")
	}
}

func TestLaunchIsRejected(t *testing.T) {
	msgs := runSession(t, &dap.LaunchRequest{
		Request:   newRequest(1, "launch"),
		Arguments: []byte(`{"program": "app.js"}`),
	})

	if len(msgs) == 0 {
		t.Fatal("no response")
	}
	resp, ok := msgs[0].(*dap.ErrorResponse)
	if !ok {
		t.Fatalf("first message = %T, want error response", msgs[0])
	}
	if resp.Body.Error == nil || resp.Body.Error.Format == "" {
		t.Error("launch rejection should carry a display message")
	}
}

func TestDisconnectEndsSession(t *testing.T) {
	msgs := runSession(t,
		&dap.InitializeRequest{Request: newRequest(1, "initialize")},
		&dap.DisconnectRequest{Request: newRequest(2, "disconnect")},
	)

	var sawDisconnect, sawTerminated bool
	for _, m := range msgs {
		switch m.(type) {
		case *dap.DisconnectResponse:
			sawDisconnect = true
		case *dap.TerminatedEvent:
			sawTerminated = true
		}
	}
	if !sawDisconnect {
		t.Error("no disconnect response")
	}
	if !sawTerminated {
		t.Error("no terminated event")
	}
}

func TestThreadsReportsSingleThread(t *testing.T) {
	msgs := runSession(t,
		&dap.ThreadsRequest{Request: newRequest(1, "threads")},
	)

	if len(msgs) == 0 {
		t.Fatal("no response")
	}
	resp, ok := msgs[0].(*dap.ThreadsResponse)
	if !ok {
		t.Fatalf("first message = %T", msgs[0])
	}
	if len(resp.Body.Threads) != 1 || resp.Body.Threads[0].Id != 1 {
		t.Errorf("threads = %+v", resp.Body.Threads)
	}
}

func TestUnknownThreadRejected(t *testing.T) {
	msgs := runSession(t, &dap.PauseRequest{
		Request:   newRequest(1, "pause"),
		Arguments: dap.PauseArguments{ThreadId: 7},
	})

	if len(msgs) == 0 {
		t.Fatal("no response")
	}
	if _, ok := msgs[0].(*dap.ErrorResponse); !ok {
		t.Fatalf("first message = %T, want error response", msgs[0])
	}
}

func TestCustomToggleSkipFileStatus(t *testing.T) {
	payload := `{"seq":1,"type":"request","command":"toggleSkipFileStatus","arguments":{"path":"/app/lib.js"}}`

	var in bytes.Buffer
	in.WriteString("Content-Length: " + strconv.Itoa(len(payload)) + "\r\n\r\n" + payload)

	var out bytes.Buffer
	s := NewSession(&in, &out)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := bufio.NewReader(&out)
	msg, err := dap.ReadProtocolMessage(r)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	// Without a pause in progress the toggle is refused, but the request
	// must be answered rather than dropped.
	resp, ok := msg.(*dap.ErrorResponse)
	if !ok {
		t.Fatalf("message = %T, want error response", msg)
	}
	if resp.Command != "toggleSkipFileStatus" || resp.RequestSeq != 1 {
		t.Errorf("response = %+v", resp.Response)
	}
}

func TestResponseSequencing(t *testing.T) {
	msgs := runSession(t,
		&dap.InitializeRequest{Request: newRequest(1, "initialize")},
		&dap.ThreadsRequest{Request: newRequest(2, "threads")},
	)

	lastSeq := 0
	for _, m := range msgs {
		if m.GetSeq() <= lastSeq {
			t.Fatalf("sequence numbers not increasing: %d after %d", m.GetSeq(), lastSeq)
		}
		lastSeq = m.GetSeq()
	}
}
