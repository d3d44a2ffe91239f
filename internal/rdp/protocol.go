package rdp

import "encoding/json"

// Location identifies a position within a script. Lines and columns are
// 0-based, as everywhere in the runtime protocol.
type Location struct {
	ScriptID     string `json:"scriptId"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber,omitempty"`
}

// ScriptPosition is a line/column pair without a script id.
type ScriptPosition struct {
	LineNumber   int `json:"lineNumber"`
	ColumnNumber int `json:"columnNumber"`
}

// RemoteObject is a mirror object referencing a value in the runtime.
type RemoteObject struct {
	Type        string          `json:"type"`
	Subtype     string          `json:"subtype,omitempty"`
	ClassName   string          `json:"className,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
	ObjectID    string          `json:"objectId,omitempty"`
	Preview     *ObjectPreview  `json:"preview,omitempty"`
}

// ObjectPreview is an abbreviated rendering of an object's contents.
type ObjectPreview struct {
	Type        string            `json:"type"`
	Subtype     string            `json:"subtype,omitempty"`
	Description string            `json:"description,omitempty"`
	Overflow    bool              `json:"overflow"`
	Properties  []PropertyPreview `json:"properties"`
}

// PropertyPreview is a single entry in an ObjectPreview.
type PropertyPreview struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   string `json:"value,omitempty"`
	Subtype string `json:"subtype,omitempty"`
}

// PropertyDescriptor describes one property of a remote object.
type PropertyDescriptor struct {
	Name         string        `json:"name"`
	Value        *RemoteObject `json:"value,omitempty"`
	Get          *RemoteObject `json:"get,omitempty"`
	Set          *RemoteObject `json:"set,omitempty"`
	Writable     bool          `json:"writable,omitempty"`
	Configurable bool          `json:"configurable"`
	Enumerable   bool          `json:"enumerable"`
	WasThrown    bool          `json:"wasThrown,omitempty"`
}

// InternalPropertyDescriptor describes an internal ([[...]]) property.
type InternalPropertyDescriptor struct {
	Name  string        `json:"name"`
	Value *RemoteObject `json:"value,omitempty"`
}

// CallArgument is an argument passed to Runtime.callFunctionOn.
type CallArgument struct {
	Value    interface{} `json:"value,omitempty"`
	ObjectID string      `json:"objectId,omitempty"`
}

// Scope describes one entry of a call frame's scope chain.
type Scope struct {
	Type          string       `json:"type"`
	Object        RemoteObject `json:"object"`
	StartLocation *Location    `json:"startLocation,omitempty"`
	EndLocation   *Location    `json:"endLocation,omitempty"`
}

// CallFrame is a Debugger-domain call frame, valid while paused.
type CallFrame struct {
	CallFrameID  string        `json:"callFrameId"`
	FunctionName string        `json:"functionName"`
	Location     Location      `json:"location"`
	ScopeChain   []Scope       `json:"scopeChain"`
	This         *RemoteObject `json:"this,omitempty"`
	ReturnValue  *RemoteObject `json:"returnValue,omitempty"`
}

// RuntimeCallFrame is a Runtime-domain stack frame (async parents,
// exception traces). Unlike CallFrame it carries no live state.
type RuntimeCallFrame struct {
	FunctionName string `json:"functionName"`
	ScriptID     string `json:"scriptId"`
	URL          string `json:"url"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber"`
}

// StackTrace is a chain of runtime frames with optional async parents.
type StackTrace struct {
	Description string             `json:"description,omitempty"`
	CallFrames  []RuntimeCallFrame `json:"callFrames"`
	Parent      *StackTrace        `json:"parent,omitempty"`
}

// ExceptionDetails describes a thrown exception.
type ExceptionDetails struct {
	ExceptionID  int           `json:"exceptionId"`
	Text         string        `json:"text"`
	LineNumber   int           `json:"lineNumber"`
	ColumnNumber int           `json:"columnNumber"`
	ScriptID     string        `json:"scriptId,omitempty"`
	URL          string        `json:"url,omitempty"`
	StackTrace   *StackTrace   `json:"stackTrace,omitempty"`
	Exception    *RemoteObject `json:"exception,omitempty"`
}

// --- Events ---

// ScriptParsedEvent is Debugger.scriptParsed.
type ScriptParsedEvent struct {
	ScriptID     string `json:"scriptId"`
	URL          string `json:"url"`
	StartLine    int    `json:"startLine"`
	StartColumn  int    `json:"startColumn"`
	EndLine      int    `json:"endLine"`
	EndColumn    int    `json:"endColumn"`
	SourceMapURL string `json:"sourceMapURL,omitempty"`
}

// PausedEvent is Debugger.paused.
type PausedEvent struct {
	CallFrames      []CallFrame     `json:"callFrames"`
	Reason          string          `json:"reason"`
	Data            json.RawMessage `json:"data,omitempty"`
	HitBreakpoints  []string        `json:"hitBreakpoints,omitempty"`
	AsyncStackTrace *StackTrace     `json:"asyncStackTrace,omitempty"`
}

// BreakpointResolvedEvent is Debugger.breakpointResolved, fired when a
// url-bound breakpoint binds to a concrete location after script load.
type BreakpointResolvedEvent struct {
	BreakpointID string   `json:"breakpointId"`
	Location     Location `json:"location"`
}

// ConsoleAPICalledEvent is Runtime.consoleAPICalled.
type ConsoleAPICalledEvent struct {
	Type       string         `json:"type"`
	Args       []RemoteObject `json:"args"`
	Timestamp  float64        `json:"timestamp"`
	StackTrace *StackTrace    `json:"stackTrace,omitempty"`
}

// ExceptionThrownEvent is Runtime.exceptionThrown.
type ExceptionThrownEvent struct {
	Timestamp        float64          `json:"timestamp"`
	ExceptionDetails ExceptionDetails `json:"exceptionDetails"`
}

// ConsoleMessage is the legacy Console.messageAdded payload.
type ConsoleMessage struct {
	Message struct {
		Source string `json:"source"`
		Level  string `json:"level"`
		Text   string `json:"text"`
		URL    string `json:"url,omitempty"`
		Line   int    `json:"line,omitempty"`
		Column int    `json:"column,omitempty"`
	} `json:"message"`
}

// --- Request parameters ---

// SetBreakpointByURLParams is Debugger.setBreakpointByUrl.
type SetBreakpointByURLParams struct {
	LineNumber   int    `json:"lineNumber"`
	URL          string `json:"url,omitempty"`
	URLRegex     string `json:"urlRegex,omitempty"`
	ColumnNumber int    `json:"columnNumber,omitempty"`
	Condition    string `json:"condition,omitempty"`
}

// SetBreakpointParams is Debugger.setBreakpoint.
type SetBreakpointParams struct {
	Location  Location `json:"location"`
	Condition string   `json:"condition,omitempty"`
}

// RemoveBreakpointParams is Debugger.removeBreakpoint.
type RemoveBreakpointParams struct {
	BreakpointID string `json:"breakpointId"`
}

// GetPossibleBreakpointsParams is Debugger.getPossibleBreakpoints.
type GetPossibleBreakpointsParams struct {
	Start Location  `json:"start"`
	End   *Location `json:"end,omitempty"`
}

// SetPauseOnExceptionsParams is Debugger.setPauseOnExceptions.
// State is one of "none", "uncaught" or "all".
type SetPauseOnExceptionsParams struct {
	State string `json:"state"`
}

// SetAsyncCallStackDepthParams is Debugger.setAsyncCallStackDepth.
type SetAsyncCallStackDepthParams struct {
	MaxDepth int `json:"maxDepth"`
}

// SetBlackboxPatternsParams is Debugger.setBlackboxPatterns.
type SetBlackboxPatternsParams struct {
	Patterns []string `json:"patterns"`
}

// SetBlackboxedRangesParams is Debugger.setBlackboxedRanges.
type SetBlackboxedRangesParams struct {
	ScriptID  string           `json:"scriptId"`
	Positions []ScriptPosition `json:"positions"`
}

// GetScriptSourceParams is Debugger.getScriptSource.
type GetScriptSourceParams struct {
	ScriptID string `json:"scriptId"`
}

// EvaluateOnCallFrameParams is Debugger.evaluateOnCallFrame.
type EvaluateOnCallFrameParams struct {
	CallFrameID           string `json:"callFrameId"`
	Expression            string `json:"expression"`
	Silent                bool   `json:"silent,omitempty"`
	ReturnByValue         bool   `json:"returnByValue,omitempty"`
	IncludeCommandLineAPI bool   `json:"includeCommandLineAPI,omitempty"`
	GeneratePreview       bool   `json:"generatePreview,omitempty"`
}

// EvaluateParams is Runtime.evaluate.
type EvaluateParams struct {
	Expression            string `json:"expression"`
	Silent                bool   `json:"silent,omitempty"`
	ReturnByValue         bool   `json:"returnByValue,omitempty"`
	IncludeCommandLineAPI bool   `json:"includeCommandLineAPI,omitempty"`
	GeneratePreview       bool   `json:"generatePreview,omitempty"`
}

// CallFunctionOnParams is Runtime.callFunctionOn.
type CallFunctionOnParams struct {
	ObjectID            string         `json:"objectId"`
	FunctionDeclaration string         `json:"functionDeclaration"`
	Arguments           []CallArgument `json:"arguments,omitempty"`
	Silent              bool           `json:"silent,omitempty"`
	ReturnByValue       bool           `json:"returnByValue,omitempty"`
	GeneratePreview     bool           `json:"generatePreview,omitempty"`
}

// GetPropertiesParams is Runtime.getProperties.
type GetPropertiesParams struct {
	ObjectID               string `json:"objectId"`
	OwnProperties          bool   `json:"ownProperties"`
	AccessorPropertiesOnly bool   `json:"accessorPropertiesOnly"`
	GeneratePreview        bool   `json:"generatePreview,omitempty"`
}

// SetVariableValueParams is Debugger.setVariableValue.
type SetVariableValueParams struct {
	ScopeNumber  int          `json:"scopeNumber"`
	VariableName string       `json:"variableName"`
	NewValue     CallArgument `json:"newValue"`
	CallFrameID  string       `json:"callFrameId"`
}

// RestartFrameParams is Debugger.restartFrame.
type RestartFrameParams struct {
	CallFrameID string `json:"callFrameId"`
}

// --- Results ---

// SetBreakpointByURLResult is the result of Debugger.setBreakpointByUrl.
type SetBreakpointByURLResult struct {
	BreakpointID string     `json:"breakpointId"`
	Locations    []Location `json:"locations"`
}

// SetBreakpointResult is the result of Debugger.setBreakpoint.
type SetBreakpointResult struct {
	BreakpointID   string   `json:"breakpointId"`
	ActualLocation Location `json:"actualLocation"`
}

// GetPossibleBreakpointsResult is the result of Debugger.getPossibleBreakpoints.
type GetPossibleBreakpointsResult struct {
	Locations []Location `json:"locations"`
}

// GetScriptSourceResult is the result of Debugger.getScriptSource.
type GetScriptSourceResult struct {
	ScriptSource string `json:"scriptSource"`
}

// EvaluateResult is the result shape shared by Runtime.evaluate,
// Debugger.evaluateOnCallFrame and Runtime.callFunctionOn.
type EvaluateResult struct {
	Result           RemoteObject      `json:"result"`
	ExceptionDetails *ExceptionDetails `json:"exceptionDetails,omitempty"`
}

// GetPropertiesResult is the result of Runtime.getProperties.
type GetPropertiesResult struct {
	Result             []PropertyDescriptor         `json:"result"`
	InternalProperties []InternalPropertyDescriptor `json:"internalProperties,omitempty"`
	ExceptionDetails   *ExceptionDetails            `json:"exceptionDetails,omitempty"`
}

// RestartFrameResult is the result of Debugger.restartFrame.
type RestartFrameResult struct {
	CallFrames []CallFrame `json:"callFrames"`
}
