package adapter

import "context"

// SourcePosition is an authored-source position produced by the source-map
// transformer. Lines and columns are 0-based.
type SourcePosition struct {
	Source string
	Line   int
	Column int
}

// SourcePathDetails describes one authored source of a generated script, in
// source order. StartPosition is the generated-side position where the
// source's mapped region begins.
type SourcePathDetails struct {
	InferredPath  string
	OriginalPath  string
	StartPosition SourcePosition
}

// PathTransformer maps between client (IDE) paths and target (runtime) URLs.
// Implementations are external collaborators; the adapter only calls through
// this interface.
type PathTransformer interface {
	// ClientPathToTargetURL maps an IDE path to the URL the runtime uses.
	ClientPathToTargetURL(path string) string
	// TargetURLToClientPath maps a runtime URL back to an IDE path.
	// Returns "" when the URL has no client-side file.
	TargetURLToClientPath(url string) string
	// ScriptParsed lets the transformer observe loaded scripts.
	ScriptParsed(url string)
	// Clear drops state on executionContextsCleared.
	Clear()
}

// SourceMapTransformer maps between authored and generated sources.
type SourceMapTransformer interface {
	// ScriptParsed loads the script's source map, if any, and returns the
	// authored source paths it references. May suspend on I/O.
	ScriptParsed(ctx context.Context, url, sourceMapURL string) ([]string, error)
	// MapToAuthored maps a generated position to its authored position.
	MapToAuthored(url string, line, column int) (SourcePosition, bool)
	// GetGeneratedPathFromAuthoredPath resolves the generated script path
	// for an authored source.
	GetGeneratedPathFromAuthoredPath(authoredPath string) (string, bool)
	// AllSources lists the authored sources of a generated script.
	AllSources(generatedURL string) []string
	// AllSourcePathDetails lists authored sources with their mapped start
	// positions, in source order.
	AllSourcePathDetails(generatedURL string) []SourcePathDetails
	// Clear drops state on executionContextsCleared.
	Clear()
}

// LineColTransformer normalizes between the runtime's 0-based lines and
// columns and whatever origin the client declared at initialize.
type LineColTransformer struct {
	linesStartAt1   bool
	columnsStartAt1 bool
}

// SetClientOrigin records the client's declared numbering origin.
func (t *LineColTransformer) SetClientOrigin(linesStartAt1, columnsStartAt1 bool) {
	t.linesStartAt1 = linesStartAt1
	t.columnsStartAt1 = columnsStartAt1
}

// LineToDebugger converts a client line to the runtime's 0-based line.
func (t *LineColTransformer) LineToDebugger(line int) int {
	if t.linesStartAt1 {
		return line - 1
	}
	return line
}

// LineToClient converts a runtime 0-based line to the client's origin.
func (t *LineColTransformer) LineToClient(line int) int {
	if t.linesStartAt1 {
		return line + 1
	}
	return line
}

// ColumnToDebugger converts a client column to the runtime's 0-based column.
func (t *LineColTransformer) ColumnToDebugger(column int) int {
	if t.columnsStartAt1 {
		return column - 1
	}
	return column
}

// ColumnToClient converts a runtime 0-based column to the client's origin.
func (t *LineColTransformer) ColumnToClient(column int) int {
	if t.columnsStartAt1 {
		return column + 1
	}
	return column
}

// identityPathTransformer is the default path transformer: runtime URLs are
// used as client paths unchanged.
type identityPathTransformer struct{}

func (identityPathTransformer) ClientPathToTargetURL(path string) string { return path }
func (identityPathTransformer) TargetURLToClientPath(url string) string {
	if isSyntheticURL(url) {
		return ""
	}
	return url
}
func (identityPathTransformer) ScriptParsed(string) {}
func (identityPathTransformer) Clear()              {}

// noSourceMaps is the default source-map transformer used when sourceMaps is
// disabled or no external transformer is supplied.
type noSourceMaps struct{}

func (noSourceMaps) ScriptParsed(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (noSourceMaps) MapToAuthored(string, int, int) (SourcePosition, bool) {
	return SourcePosition{}, false
}
func (noSourceMaps) GetGeneratedPathFromAuthoredPath(string) (string, bool) { return "", false }
func (noSourceMaps) AllSources(string) []string                            { return nil }
func (noSourceMaps) AllSourcePathDetails(string) []SourcePathDetails       { return nil }
func (noSourceMaps) Clear()                                                {}
