package adapter

import (
	"encoding/json"
	"testing"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

func TestPrimitiveValueString(t *testing.T) {
	tests := []struct {
		name string
		obj  rdp.RemoteObject
		want string
	}{
		{"undefined", rdp.RemoteObject{Type: "undefined"}, "undefined"},
		{"null", rdp.RemoteObject{Type: "object", Subtype: "null"}, "null"},
		{"string", rdp.RemoteObject{Type: "string", Value: json.RawMessage(`"hi"`)}, `"hi"`},
		{"number", rdp.RemoteObject{Type: "number", Description: "42", Value: json.RawMessage(`42`)}, "42"},
		{"boolean", rdp.RemoteObject{Type: "boolean", Value: json.RawMessage(`true`)}, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primitiveValueString(&tt.obj); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreviewString(t *testing.T) {
	object := &rdp.ObjectPreview{
		Type: "object",
		Properties: []rdp.PropertyPreview{
			{Name: "a", Type: "number", Value: "1"},
			{Name: "b", Type: "string", Value: "x"},
		},
	}
	if got := previewString(object); got != `{a: 1, b: "x"}` {
		t.Errorf("object preview = %q", got)
	}

	array := &rdp.ObjectPreview{
		Type:    "object",
		Subtype: "array",
		Properties: []rdp.PropertyPreview{
			{Name: "0", Type: "number", Value: "1"},
			{Name: "1", Type: "number", Value: "2"},
		},
		Overflow: true,
	}
	if got := previewString(array); got != "[1, 2, …]" {
		t.Errorf("array preview = %q", got)
	}
}

func TestFunctionValueString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"function add(a, b) {\n  return a + b;\n}", "function add(a, b) { … }"},
		{"(a, b) => a + b", "(a, b) => …"},
		{"class Foo { }", "class Foo { … }"},
		{"native function", "native function"},
	}

	for _, tt := range tests {
		if got := functionValueString(tt.in); got != tt.want {
			t.Errorf("functionValueString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComposeEvaluateName(t *testing.T) {
	tests := []struct {
		parent, name, want string
	}{
		{"", "foo", "foo"},
		{"obj", "foo", "obj.foo"},
		{"obj", "3", "obj[3]"},
		{"obj", "my-prop", `obj["my-prop"]`},
		{"obj.child", "$x", "obj.child.$x"},
	}

	for _, tt := range tests {
		if got := composeEvaluateName(tt.parent, tt.name); got != tt.want {
			t.Errorf("composeEvaluateName(%q, %q) = %q, want %q", tt.parent, tt.name, got, tt.want)
		}
	}
}

func TestMatchesFilter(t *testing.T) {
	if !matchesFilter("0", "indexed") || matchesFilter("length", "indexed") {
		t.Error("indexed filter misbehaves")
	}
	if !matchesFilter("length", "named") || matchesFilter("0", "named") {
		t.Error("named filter misbehaves")
	}
	if !matchesFilter("anything", "") {
		t.Error("empty filter must match everything")
	}
}

func TestSortVariables(t *testing.T) {
	vars := []dap.Variable{
		{Name: "length"},
		{Name: "10"},
		{Name: "2"},
		{Name: "__proto__"},
		{Name: "alpha"},
	}
	sortVariables(vars)

	want := []string{"2", "10", "__proto__", "alpha", "length"}
	for i, name := range want {
		if vars[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, vars[i].Name, name)
		}
	}
}

func TestExceptionTextFallsBackToText(t *testing.T) {
	d := &rdp.ExceptionDetails{Text: "Uncaught"}
	if got := exceptionText(d); got != "Uncaught" {
		t.Errorf("got %q", got)
	}

	d.Exception = &rdp.RemoteObject{Description: "Error: boom\n    at foo"}
	if got := exceptionText(d); got != "Error: boom" {
		t.Errorf("got %q, want first line of description", got)
	}
}
