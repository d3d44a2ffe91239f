package dap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/adapter"
	bridgeerrors "github.com/ctagard/chrome-dap-bridge/internal/errors"
)

// Session serves one DAP connection. Requests are handled serially on the
// Run goroutine; the adapter emits events concurrently through SendEvent.
type Session struct {
	tr      *Transport
	adapter *adapter.Adapter
}

// NewSession wires a session over the given streams.
func NewSession(r io.Reader, w io.Writer, opts ...adapter.Option) *Session {
	s := &Session{tr: NewStdioTransport(r, w)}
	s.adapter = adapter.New(s, opts...)
	return s
}

// Adapter exposes the session's adapter core.
func (s *Session) Adapter() *adapter.Adapter {
	return s.adapter
}

// SendEvent implements adapter.EventSink.
func (s *Session) SendEvent(event dap.EventMessage) {
	event.GetEvent().Seq = s.tr.NextSeq()
	s.send(event)
}

// Run reads and dispatches requests until the client disconnects or the
// stream closes.
func (s *Session) Run(ctx context.Context) error {
	for {
		data, err := s.tr.ReadBaseMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.adapter.Disconnect()
				return nil
			}
			return err
		}

		msg, err := dap.DecodeProtocolMessage(data)
		if err != nil {
			s.dispatchCustom(ctx, data)
			continue
		}

		if s.dispatch(ctx, msg) {
			return nil
		}
	}
}

// dispatch handles one decoded message and reports whether the session
// should end.
func (s *Session) dispatch(ctx context.Context, msg dap.Message) bool {
	switch request := msg.(type) {
	case *dap.InitializeRequest:
		caps, err := s.adapter.Initialize(request.Arguments)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.InitializeResponse{
			Response: s.okResponse(&request.Request),
			Body:     *caps,
		})

	case *dap.LaunchRequest:
		s.sendError(&request.Request, bridgeerrors.EvaluationFailed(
			"launching is not supported; start the runtime yourself and use an attach configuration"))

	case *dap.AttachRequest:
		if err := s.adapter.Attach(ctx, json.RawMessage(request.Arguments)); err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.AttachResponse{Response: s.okResponse(&request.Request)})

	case *dap.DisconnectRequest:
		s.adapter.Disconnect()
		s.send(&dap.DisconnectResponse{Response: s.okResponse(&request.Request)})
		return true

	case *dap.ConfigurationDoneRequest:
		s.adapter.ConfigurationDone()
		s.send(&dap.ConfigurationDoneResponse{Response: s.okResponse(&request.Request)})

	case *dap.SetBreakpointsRequest:
		body, err := s.adapter.SetBreakpoints(ctx, request.Arguments, request.Seq, nil)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.SetBreakpointsResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.SetExceptionBreakpointsRequest:
		if err := s.adapter.SetExceptionBreakpoints(ctx, request.Arguments); err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.SetExceptionBreakpointsResponse{Response: s.okResponse(&request.Request)})

	case *dap.ThreadsRequest:
		s.send(&dap.ThreadsResponse{
			Response: s.okResponse(&request.Request),
			Body:     *s.adapter.Threads(),
		})

	case *dap.ContinueRequest:
		if request.Arguments.ThreadId != adapter.ThreadID {
			s.sendError(&request.Request, bridgeerrors.InvalidThread(request.Arguments.ThreadId))
			break
		}
		if err := s.adapter.Continue(ctx); err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.ContinueResponse{
			Response: s.okResponse(&request.Request),
			Body:     dap.ContinueResponseBody{AllThreadsContinued: true},
		})

	case *dap.NextRequest:
		s.respondToStep(&request.Request, request.Arguments.ThreadId, s.adapter.Next(ctx), func(r dap.Response) dap.Message {
			return &dap.NextResponse{Response: r}
		})

	case *dap.StepInRequest:
		s.respondToStep(&request.Request, request.Arguments.ThreadId, s.adapter.StepIn(ctx), func(r dap.Response) dap.Message {
			return &dap.StepInResponse{Response: r}
		})

	case *dap.StepOutRequest:
		s.respondToStep(&request.Request, request.Arguments.ThreadId, s.adapter.StepOut(ctx), func(r dap.Response) dap.Message {
			return &dap.StepOutResponse{Response: r}
		})

	case *dap.StepBackRequest:
		s.respondToStep(&request.Request, request.Arguments.ThreadId, s.adapter.StepBack(ctx), func(r dap.Response) dap.Message {
			return &dap.StepBackResponse{Response: r}
		})

	case *dap.ReverseContinueRequest:
		s.respondToStep(&request.Request, request.Arguments.ThreadId, s.adapter.ReverseContinue(ctx), func(r dap.Response) dap.Message {
			return &dap.ReverseContinueResponse{Response: r}
		})

	case *dap.PauseRequest:
		if request.Arguments.ThreadId != adapter.ThreadID {
			s.sendError(&request.Request, bridgeerrors.InvalidThread(request.Arguments.ThreadId))
			break
		}
		if err := s.adapter.Pause(ctx); err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.PauseResponse{Response: s.okResponse(&request.Request)})

	case *dap.StackTraceRequest:
		body, err := s.adapter.StackTrace(request.Arguments)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.StackTraceResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.ScopesRequest:
		body, err := s.adapter.Scopes(request.Arguments.FrameId)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.ScopesResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.VariablesRequest:
		vars := s.adapter.Variables(ctx,
			request.Arguments.VariablesReference,
			request.Arguments.Filter,
			request.Arguments.Start,
			request.Arguments.Count)
		s.send(&dap.VariablesResponse{
			Response: s.okResponse(&request.Request),
			Body:     dap.VariablesResponseBody{Variables: vars},
		})

	case *dap.SetVariableRequest:
		v, err := s.adapter.SetVariable(ctx,
			request.Arguments.VariablesReference,
			request.Arguments.Name,
			request.Arguments.Value)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.SetVariableResponse{
			Response: s.okResponse(&request.Request),
			Body: dap.SetVariableResponseBody{
				Value:              v.Value,
				Type:               v.Type,
				VariablesReference: v.VariablesReference,
				NamedVariables:     v.NamedVariables,
				IndexedVariables:   v.IndexedVariables,
			},
		})

	case *dap.SourceRequest:
		body, err := s.adapter.Source(ctx, request.Arguments)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.SourceResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.EvaluateRequest:
		body, err := s.adapter.Evaluate(ctx, request.Arguments)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.EvaluateResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.CompletionsRequest:
		body, err := s.adapter.Completions(ctx, request.Arguments)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.CompletionsResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.ExceptionInfoRequest:
		body, err := s.adapter.ExceptionInfo(request.Arguments)
		if err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.ExceptionInfoResponse{
			Response: s.okResponse(&request.Request),
			Body:     *body,
		})

	case *dap.RestartFrameRequest:
		if err := s.adapter.RestartFrame(ctx, request.Arguments.FrameId); err != nil {
			s.sendError(&request.Request, err)
			break
		}
		s.send(&dap.RestartFrameResponse{Response: s.okResponse(&request.Request)})

	case dap.RequestMessage:
		s.sendError(request.GetRequest(), bridgeerrors.EvaluationFailed(
			"unsupported request: "+request.GetRequest().Command))

	default:
		log.Printf("DAP: ignoring non-request message %T", msg)
	}
	return false
}

// customRequest is the raw shape of requests outside the standard schema.
type customRequest struct {
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments"`
}

// dispatchCustom handles messages the standard decoder rejected, currently
// just toggleSkipFileStatus.
func (s *Session) dispatchCustom(ctx context.Context, data []byte) {
	var req customRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Type != "request" {
		log.Printf("DAP: dropping undecodable message: %s", truncate(data, 200))
		return
	}

	stub := &dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: req.Seq, Type: req.Type},
		Command:         req.Command,
	}

	switch req.Command {
	case "toggleSkipFileStatus":
		var args adapter.ToggleSkipFileStatusArguments
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			s.sendError(stub, bridgeerrors.EvaluationFailed("malformed toggleSkipFileStatus arguments"))
			return
		}
		if err := s.adapter.ToggleSkipFileStatus(ctx, args); err != nil {
			s.sendError(stub, err)
			return
		}
		s.send(&dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Seq: s.tr.NextSeq(), Type: "response"},
			Command:         req.Command,
			RequestSeq:      req.Seq,
			Success:         true,
		})
	default:
		s.sendError(stub, bridgeerrors.EvaluationFailed("unsupported request: "+req.Command))
	}
}

func (s *Session) respondToStep(req *dap.Request, threadId int, err error, wrap func(dap.Response) dap.Message) {
	if threadId != adapter.ThreadID {
		s.sendError(req, bridgeerrors.InvalidThread(threadId))
		return
	}
	if err != nil {
		s.sendError(req, err)
		return
	}
	s.send(wrap(s.okResponse(req)))
}

func (s *Session) okResponse(req *dap.Request) dap.Response {
	return dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: s.tr.NextSeq(), Type: "response"},
		Command:         req.Command,
		RequestSeq:      req.Seq,
		Success:         true,
	}
}

func (s *Session) sendError(req *dap.Request, err error) {
	derr := bridgeerrors.FromError(err)
	s.send(&dap.ErrorResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Seq: s.tr.NextSeq(), Type: "response"},
			Command:         req.Command,
			RequestSeq:      req.Seq,
			Success:         false,
			Message:         derr.Message,
		},
		Body: dap.ErrorResponseBody{
			Error: &dap.ErrorMessage{
				Id:       errorID(derr.Code),
				Format:   derr.Message,
				ShowUser: true,
			},
		},
	})
}

func (s *Session) send(msg dap.Message) {
	if err := s.tr.Send(msg); err != nil {
		log.Printf("DAP: failed to send %T: %v", msg, err)
	}
}

// errorID maps structured error codes onto the numeric ids DAP error
// messages carry.
func errorID(code bridgeerrors.ErrorCode) int {
	switch code {
	case bridgeerrors.CodeInvalidPathFormat:
		return 2001
	case bridgeerrors.CodeInvalidThread:
		return 2002
	case bridgeerrors.CodeUnknownHandle:
		return 2003
	case bridgeerrors.CodeBadSourceReference:
		return 2004
	case bridgeerrors.CodeNoCallStack:
		return 2005
	case bridgeerrors.CodeInvalidStackFrame:
		return 2006
	case bridgeerrors.CodeNotConnected:
		return 2100
	case bridgeerrors.CodeAttachFailed:
		return 2101
	case bridgeerrors.CodeBreakpointUnresolved:
		return 2200
	case bridgeerrors.CodeEvaluationFailed:
		return 2201
	case bridgeerrors.CodeSetVariableFailed:
		return 2202
	case bridgeerrors.CodeUnsupportedRuntime:
		return 2203
	}
	return 2999
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
