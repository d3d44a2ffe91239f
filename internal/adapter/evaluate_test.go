package adapter

import (
	"context"
	"testing"

	"github.com/google/go-dap"
)

// stubSourceMaps maps every position of one generated script onto a fixed
// authored source with a constant line offset.
type stubSourceMaps struct {
	noSourceMaps
	generated  string
	authored   string
	lineOffset int
}

func (s *stubSourceMaps) MapToAuthored(url string, line, column int) (SourcePosition, bool) {
	if url != s.generated {
		return SourcePosition{}, false
	}
	return SourcePosition{Source: s.authored, Line: line + s.lineOffset, Column: column}, true
}

func (s *stubSourceMaps) GetGeneratedPathFromAuthoredPath(authoredPath string) (string, bool) {
	if authoredPath == s.authored {
		return s.generated, true
	}
	return "", false
}

func (s *stubSourceMaps) AllSources(generatedURL string) []string {
	if generatedURL == s.generated {
		return []string{s.authored}
	}
	return nil
}

func (s *stubSourceMaps) ScriptParsed(_ context.Context, url, _ string) ([]string, error) {
	if url == s.generated {
		return []string{s.authored}, nil
	}
	return nil, nil
}

func TestMapFormattedException(t *testing.T) {
	a := New(nil, WithSourceMapTransformer(&stubSourceMaps{
		generated:  "/app/dist/bundle.js",
		authored:   "/app/src/main.ts",
		lineOffset: 100,
	}))

	in := "Error: boom\n" +
		"    at doWork (/app/dist/bundle.js:10:5)\n" +
		"    at /app/dist/bundle.js:20:1\n" +
		"    at native code"

	got := a.mapFormattedException(in)

	// 1-based stack line 10 is runtime line 9, mapped to authored 109,
	// reported 1-based as 110.
	want := "Error: boom\n" +
		"    at doWork (/app/src/main.ts:110:5)\n" +
		"    at /app/src/main.ts:120:1\n" +
		"    at native code"

	if got != want {
		t.Errorf("mapFormattedException:\n got %q\nwant %q", got, want)
	}
}

func TestMapFormattedExceptionUnmappedPassthrough(t *testing.T) {
	a := New(nil)

	in := "Error: boom\n    at doWork (/app/main.js:3:1)"
	if got := a.mapFormattedException(in); got != in {
		t.Errorf("unmapped stack should pass through, got %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("Error: boom\n    at foo"); got != "Error: boom" {
		t.Errorf("got %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("got %q", got)
	}
}

func TestExceptionInfoRequiresException(t *testing.T) {
	a := New(nil)

	if _, err := a.ExceptionInfo(dap.ExceptionInfoArguments{ThreadId: ThreadID}); err == nil {
		t.Error("ExceptionInfo without an exception should fail")
	}
	if _, err := a.ExceptionInfo(dap.ExceptionInfoArguments{ThreadId: 99}); err == nil {
		t.Error("ExceptionInfo with a bogus thread should fail")
	}
}
