package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// VariableContainer is anything a variablesReference can point at. Each
// variant knows how to expand itself into child variables and, where it
// makes sense, how to assign one of them.
type VariableContainer interface {
	Expand(ctx context.Context, a *Adapter, filter string, start, count int) ([]dap.Variable, error)
	SetValue(ctx context.Context, a *Adapter, name, value string) (dap.Variable, error)
}

// PropertyContainer expands the properties of one remote object.
type PropertyContainer struct {
	ObjectID     string
	EvaluateName string
}

// ScopeContainer expands one entry of a call frame's scope chain. The top
// scope additionally carries synthetic `this` and return-value children.
type ScopeContainer struct {
	CallFrameID string
	ScopeIndex  int
	ObjectID    string
	This        *rdp.RemoteObject
	ReturnValue *rdp.RemoteObject
}

// ExceptionContainer expands the currently thrown exception.
type ExceptionContainer struct {
	Exception rdp.RemoteObject
}

// LoggedObjects holds the argument list captured from one console call.
type LoggedObjects struct {
	Args []rdp.RemoteObject
}

// Variables looks up a variable container and expands it. Expansion errors
// are logged and produce an empty list; the request itself never fails.
func (a *Adapter) Variables(ctx context.Context, varRef int, filter string, start, count int) []dap.Variable {
	a.mu.Lock()
	container, ok := a.variableHandles.Get(varRef)
	a.mu.Unlock()
	if !ok {
		return nil
	}

	vars, err := container.Expand(ctx, a, filter, start, count)
	if err != nil {
		log.Printf("Variables: expand failed for ref %d: %v", varRef, err)
		return nil
	}
	return vars
}

// SetVariable assigns a named child of a variable container.
func (a *Adapter) SetVariable(ctx context.Context, varRef int, name, value string) (dap.Variable, error) {
	a.mu.Lock()
	container, ok := a.variableHandles.Get(varRef)
	a.mu.Unlock()
	if !ok {
		return dap.Variable{}, errUnknownHandle("variables", varRef)
	}
	return container.SetValue(ctx, a, name, value)
}

// --- PropertyContainer ---

func (c *PropertyContainer) Expand(ctx context.Context, a *Adapter, filter string, start, count int) ([]dap.Variable, error) {
	if count > 0 {
		return a.slicedProperties(ctx, c.ObjectID, c.EvaluateName, filter, start, count)
	}
	return a.objectProperties(ctx, c.ObjectID, c.EvaluateName, filter)
}

func (c *PropertyContainer) SetValue(ctx context.Context, a *Adapter, name, value string) (dap.Variable, error) {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()
	if client == nil {
		return dap.Variable{}, errNotConnected()
	}

	var result rdp.EvaluateResult
	err := client.CallInto(ctx, "Runtime.callFunctionOn", rdp.CallFunctionOnParams{
		ObjectID:            c.ObjectID,
		FunctionDeclaration: fmt.Sprintf("function() { return this[%q] = %s; }", name, value),
		Silent:              true,
	}, &result)
	if err != nil {
		return dap.Variable{}, errSetVariableFailed(name, err)
	}
	if result.ExceptionDetails != nil {
		return dap.Variable{}, errEvaluationFailed(exceptionText(result.ExceptionDetails))
	}

	return a.remoteObjectToVariable(ctx, name, c.EvaluateName, &result.Result), nil
}

// --- ScopeContainer ---

func (c *ScopeContainer) Expand(ctx context.Context, a *Adapter, filter string, start, count int) ([]dap.Variable, error) {
	var vars []dap.Variable

	// The top scope shows the receiver and, when paused on a return, the
	// value being returned.
	if c.ScopeIndex == 0 {
		if c.This != nil {
			vars = append(vars, a.remoteObjectToVariable(ctx, "this", "", c.This))
		}
		if c.ReturnValue != nil {
			vars = append(vars, a.remoteObjectToVariable(ctx, "Return value", "", c.ReturnValue))
		}
	}

	if c.ObjectID != "" {
		props, err := a.objectProperties(ctx, c.ObjectID, "", filter)
		if err != nil {
			return vars, err
		}
		vars = append(vars, props...)
	}
	return vars, nil
}

func (c *ScopeContainer) SetValue(ctx context.Context, a *Adapter, name, value string) (dap.Variable, error) {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()
	if client == nil {
		return dap.Variable{}, errNotConnected()
	}

	// Evaluate the expression in the frame first so the new value exists as
	// a runtime object, then bind it into the scope slot.
	var eval rdp.EvaluateResult
	err := client.CallInto(ctx, "Debugger.evaluateOnCallFrame", rdp.EvaluateOnCallFrameParams{
		CallFrameID: c.CallFrameID,
		Expression:  value,
		Silent:      true,
	}, &eval)
	if err != nil {
		return dap.Variable{}, errSetVariableFailed(name, err)
	}
	if eval.ExceptionDetails != nil {
		return dap.Variable{}, errEvaluationFailed(exceptionText(eval.ExceptionDetails))
	}

	newValue := rdp.CallArgument{ObjectID: eval.Result.ObjectID}
	if eval.Result.ObjectID == "" {
		var v interface{}
		if len(eval.Result.Value) > 0 {
			if err := json.Unmarshal(eval.Result.Value, &v); err != nil {
				return dap.Variable{}, errSetVariableFailed(name, err)
			}
		}
		newValue = rdp.CallArgument{Value: v}
	}

	err = client.CallInto(ctx, "Debugger.setVariableValue", rdp.SetVariableValueParams{
		ScopeNumber:  c.ScopeIndex,
		VariableName: name,
		NewValue:     newValue,
		CallFrameID:  c.CallFrameID,
	}, nil)
	if err != nil {
		return dap.Variable{}, errSetVariableFailed(name, err)
	}

	return a.remoteObjectToVariable(ctx, name, "", &eval.Result), nil
}

// --- ExceptionContainer ---

func (c *ExceptionContainer) Expand(ctx context.Context, a *Adapter, filter string, start, count int) ([]dap.Variable, error) {
	if c.Exception.ObjectID == "" {
		return []dap.Variable{a.remoteObjectToVariable(ctx, "Exception", "", &c.Exception)}, nil
	}
	return a.objectProperties(ctx, c.Exception.ObjectID, "", filter)
}

func (c *ExceptionContainer) SetValue(context.Context, *Adapter, string, string) (dap.Variable, error) {
	return dap.Variable{}, errEvaluationFailed("cannot assign to an exception")
}

// --- LoggedObjects ---

func (c *LoggedObjects) Expand(ctx context.Context, a *Adapter, filter string, start, count int) ([]dap.Variable, error) {
	vars := make([]dap.Variable, 0, len(c.Args))
	for i := range c.Args {
		vars = append(vars, a.remoteObjectToVariable(ctx, strconv.Itoa(i), "", &c.Args[i]))
	}
	return vars, nil
}

func (c *LoggedObjects) SetValue(context.Context, *Adapter, string, string) (dap.Variable, error) {
	return dap.Variable{}, errEvaluationFailed("cannot assign to console output")
}

// --- Property listing ---

// contextGoneError is a benign runtime quirk: the execution context was
// destroyed between pause and expansion.
const contextGoneError = "Cannot find context with specified id"

// objectProperties fetches, merges, filters and sorts an object's
// properties: accessor descriptors first, then own properties with
// previews, deduplicated by name with the later fetch winning.
func (a *Adapter) objectProperties(ctx context.Context, objectID, evaluateName, filter string) ([]dap.Variable, error) {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()
	if client == nil {
		return nil, errNotConnected()
	}

	var accessors, own rdp.GetPropertiesResult
	if err := client.CallInto(ctx, "Runtime.getProperties", rdp.GetPropertiesParams{
		ObjectID:               objectID,
		OwnProperties:          false,
		AccessorPropertiesOnly: true,
	}, &accessors); err != nil {
		if err.Error() == contextGoneError {
			return nil, nil
		}
		return nil, err
	}
	if err := client.CallInto(ctx, "Runtime.getProperties", rdp.GetPropertiesParams{
		ObjectID:               objectID,
		OwnProperties:          true,
		AccessorPropertiesOnly: false,
		GeneratePreview:        true,
	}, &own); err != nil {
		if err.Error() == contextGoneError {
			return nil, nil
		}
		return nil, err
	}

	merged := make(map[string]rdp.PropertyDescriptor)
	order := make([]string, 0, len(accessors.Result)+len(own.Result))
	for _, d := range accessors.Result {
		if _, seen := merged[d.Name]; !seen {
			order = append(order, d.Name)
		}
		merged[d.Name] = d
	}
	for _, d := range own.Result {
		if _, seen := merged[d.Name]; !seen {
			order = append(order, d.Name)
		}
		merged[d.Name] = d
	}

	var vars []dap.Variable
	for _, name := range order {
		if !matchesFilter(name, filter) {
			continue
		}
		vars = append(vars, a.propertyToVariable(ctx, client, objectID, evaluateName, merged[name]))
	}

	for _, internal := range own.InternalProperties {
		if internal.Value == nil || !matchesFilter(internal.Name, filter) {
			continue
		}
		vars = append(vars, a.remoteObjectToVariable(ctx, internal.Name, evaluateName, internal.Value))
	}

	sortVariables(vars)
	return vars, nil
}

// propertyToVariable converts a descriptor, invoking getters on demand.
// A getter that throws is non-fatal; the exception text becomes the value.
func (a *Adapter) propertyToVariable(ctx context.Context, client *rdp.Client, objectID, evaluateName string, d rdp.PropertyDescriptor) dap.Variable {
	if d.Value == nil && d.Get != nil {
		var result rdp.EvaluateResult
		err := client.CallInto(ctx, "Runtime.callFunctionOn", rdp.CallFunctionOnParams{
			ObjectID:            objectID,
			FunctionDeclaration: "function(n) { return this[n]; }",
			Arguments:           []rdp.CallArgument{{Value: d.Name}},
			Silent:              true,
		}, &result)
		if err != nil {
			return dap.Variable{Name: d.Name, Value: err.Error()}
		}
		if result.ExceptionDetails != nil {
			return dap.Variable{Name: d.Name, Value: exceptionText(result.ExceptionDetails)}
		}
		return a.remoteObjectToVariable(ctx, d.Name, evaluateName, &result.Result)
	}

	if d.Value == nil {
		return dap.Variable{Name: d.Name, Value: "unknown"}
	}
	return a.remoteObjectToVariable(ctx, d.Name, evaluateName, d.Value)
}

// slicedProperties materializes a window of a large container without
// fetching everything: the runtime copies the requested slots into a fresh
// object whose own properties are then listed.
func (a *Adapter) slicedProperties(ctx context.Context, objectID, evaluateName, filter string, start, count int) ([]dap.Variable, error) {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()
	if client == nil {
		return nil, errNotConnected()
	}

	decl := "function(s, c) { var r = []; for (var i = s; i < s + c; i++) r[i] = this[i]; return r; }"
	if filter == "named" {
		decl = "function(s, c) { var r = {}; var names = Object.getOwnPropertyNames(this); for (var i = s; i < s + c && i < names.length; i++) r[names[i]] = this[names[i]]; return r; }"
	}

	var result rdp.EvaluateResult
	err := client.CallInto(ctx, "Runtime.callFunctionOn", rdp.CallFunctionOnParams{
		ObjectID:            objectID,
		FunctionDeclaration: decl,
		Arguments:           []rdp.CallArgument{{Value: start}, {Value: count}},
		Silent:              true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.ExceptionDetails != nil {
		return nil, errEvaluationFailed(exceptionText(result.ExceptionDetails))
	}
	if result.Result.ObjectID == "" {
		return nil, nil
	}

	var own rdp.GetPropertiesResult
	if err := client.CallInto(ctx, "Runtime.getProperties", rdp.GetPropertiesParams{
		ObjectID:      result.Result.ObjectID,
		OwnProperties: true,
	}, &own); err != nil {
		return nil, err
	}

	var vars []dap.Variable
	for _, d := range own.Result {
		if d.Value == nil || d.Name == "length" || d.Name == "__proto__" {
			continue
		}
		vars = append(vars, a.remoteObjectToVariable(ctx, d.Name, evaluateName, d.Value))
	}
	sortVariables(vars)
	return vars, nil
}

// --- Remote object conversion ---

// remoteObjectToVariable converts a runtime mirror object into a DAP
// variable, allocating a child container for anything expandable.
func (a *Adapter) remoteObjectToVariable(ctx context.Context, name, parentEvaluateName string, obj *rdp.RemoteObject) dap.Variable {
	evaluateName := composeEvaluateName(parentEvaluateName, name)

	v := dap.Variable{
		Name:         name,
		Type:         obj.Type,
		EvaluateName: evaluateName,
	}

	switch {
	case obj.Type == "object" && (obj.Subtype == "null" || obj.Subtype == "internal#location"):
		v.Value = primitiveValueString(obj)
	case obj.Type == "object":
		v.Value = objectValueString(obj)
		indexed, named := a.objectCounts(ctx, obj)
		v.IndexedVariables = indexed
		v.NamedVariables = named
		a.mu.Lock()
		v.VariablesReference = a.variableHandles.Create(&PropertyContainer{ObjectID: obj.ObjectID, EvaluateName: evaluateName})
		a.mu.Unlock()
	case obj.Type == "function":
		v.Value = functionValueString(obj.Description)
		if obj.ObjectID != "" {
			a.mu.Lock()
			v.VariablesReference = a.variableHandles.Create(&PropertyContainer{ObjectID: obj.ObjectID, EvaluateName: evaluateName})
			a.mu.Unlock()
		}
	default:
		v.Value = primitiveValueString(obj)
	}

	return v
}

// objectCounts precomputes the indexed/named split the IDE uses for paging.
func (a *Adapter) objectCounts(ctx context.Context, obj *rdp.RemoteObject) (indexed, named int) {
	switch obj.Subtype {
	case "array", "typedarray":
		if obj.Preview != nil && !obj.Preview.Overflow {
			maxIndex := -1
			nonIndexed := 0
			for _, p := range obj.Preview.Properties {
				if n, err := strconv.Atoi(p.Name); err == nil {
					if n > maxIndex {
						maxIndex = n
					}
				} else {
					nonIndexed++
				}
			}
			// __proto__ and length always page as named.
			return maxIndex + 1, nonIndexed + 2
		}
		// The preview was truncated; ask the runtime for the real length.
		return a.arrayLength(ctx, obj.ObjectID), 2
	case "map", "set":
		if obj.Preview != nil {
			// One extra named slot for [[Entries]].
			return 0, len(obj.Preview.Properties) + 1
		}
	}
	return 0, 0
}

// arrayLength is the eval fallback for truncated array previews.
func (a *Adapter) arrayLength(ctx context.Context, objectID string) int {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()
	if client == nil || objectID == "" {
		return 0
	}

	var result rdp.EvaluateResult
	err := client.CallInto(ctx, "Runtime.callFunctionOn", rdp.CallFunctionOnParams{
		ObjectID:            objectID,
		FunctionDeclaration: "function() { return this.length; }",
		Silent:              true,
		ReturnByValue:       true,
	}, &result)
	if err != nil || result.ExceptionDetails != nil {
		return 0
	}

	var length int
	if err := json.Unmarshal(result.Result.Value, &length); err != nil {
		return 0
	}
	return length
}

// objectValueString renders an object's display value from its preview,
// falling back to the runtime description.
func objectValueString(obj *rdp.RemoteObject) string {
	if obj.Preview != nil {
		return previewString(obj.Preview)
	}
	if obj.Description != "" {
		return obj.Description
	}
	return "Object"
}

// previewString renders "Desc {a: 1, b: "x", …}" from an object preview.
func previewString(p *rdp.ObjectPreview) string {
	var sb strings.Builder
	if p.Description != "" && p.Description != "Object" {
		sb.WriteString(p.Description)
		sb.WriteString(" ")
	}

	open, closing := "{", "}"
	if p.Subtype == "array" || p.Subtype == "typedarray" {
		open, closing = "[", "]"
	}
	sb.WriteString(open)
	for i, prop := range p.Properties {
		if i > 0 {
			sb.WriteString(", ")
		}
		if open == "{" {
			sb.WriteString(prop.Name)
			sb.WriteString(": ")
		}
		if prop.Type == "string" {
			sb.WriteString(`"` + prop.Value + `"`)
		} else {
			sb.WriteString(prop.Value)
		}
	}
	if p.Overflow {
		if len(p.Properties) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("…")
	}
	sb.WriteString(closing)
	return sb.String()
}

// functionValueString abbreviates a function's source to its head: the body
// collapses to "{ … }" and arrow bodies to "=> …".
func functionValueString(description string) string {
	if i := strings.Index(description, "{"); i >= 0 {
		return strings.TrimSpace(description[:i]) + " { … }"
	}
	if i := strings.Index(description, "=>"); i >= 0 {
		return strings.TrimSpace(description[:i]) + " => …"
	}
	return description
}

// primitiveValueString stringifies a primitive remote object.
func primitiveValueString(obj *rdp.RemoteObject) string {
	switch obj.Type {
	case "undefined":
		return "undefined"
	case "object":
		if obj.Subtype == "null" {
			return "null"
		}
		return obj.Description
	case "string":
		var s string
		if err := json.Unmarshal(obj.Value, &s); err == nil {
			return `"` + s + `"`
		}
		return string(obj.Value)
	default:
		if obj.Description != "" {
			return obj.Description
		}
		return string(obj.Value)
	}
}

// composeEvaluateName builds the expression that re-evaluates a child:
// dotted access for identifier-like names, bracketed otherwise.
func composeEvaluateName(parent, name string) string {
	if parent == "" {
		return name
	}
	if isIndexedName(name) {
		return parent + "[" + name + "]"
	}
	if isIdentifier(name) {
		return parent + "." + name
	}
	return parent + "[" + strconv.Quote(name) + "]"
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		alpha := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func isIndexedName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func matchesFilter(name, filter string) bool {
	switch filter {
	case "indexed":
		return isIndexedName(name)
	case "named":
		return !isIndexedName(name)
	default:
		return true
	}
}

// sortVariables orders numeric names ascending by value, then the rest by
// name. The sort is stable so merged duplicates keep their fetch order.
func sortVariables(vars []dap.Variable) {
	sort.SliceStable(vars, func(i, j int) bool {
		ni, iNum := parseIndex(vars[i].Name)
		nj, jNum := parseIndex(vars[j].Name)
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum:
			return true
		case jNum:
			return false
		default:
			return vars[i].Name < vars[j].Name
		}
	})
}

func parseIndex(name string) (int, bool) {
	if !isIndexedName(name) {
		return 0, false
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// exceptionText extracts display text from exception details.
func exceptionText(d *rdp.ExceptionDetails) string {
	if d.Exception != nil && d.Exception.Description != "" {
		return firstLine(d.Exception.Description)
	}
	return d.Text
}
