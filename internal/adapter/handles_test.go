package adapter

import "testing"

func TestHandlesRoundTrip(t *testing.T) {
	h := NewHandles[string]()

	id1 := h.Create("a")
	id2 := h.Create("b")

	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}

	v, ok := h.Get(id1)
	if !ok || v != "a" {
		t.Errorf("Get(%d) = %q, %v; want \"a\", true", id1, v, ok)
	}
	v, ok = h.Get(id2)
	if !ok || v != "b" {
		t.Errorf("Get(%d) = %q, %v; want \"b\", true", id2, v, ok)
	}
	if _, ok := h.Get(99); ok {
		t.Error("Get(99) should miss")
	}
}

func TestHandlesResetNeverReusesIds(t *testing.T) {
	h := NewHandles[int]()

	id1 := h.Create(1)
	h.Reset()

	if _, ok := h.Get(id1); ok {
		t.Errorf("handle %d should be dead after Reset", id1)
	}

	id2 := h.Create(2)
	if id2 <= id1 {
		t.Errorf("id after reset = %d, must be greater than %d", id2, id1)
	}
}

func TestReverseHandlesStableIds(t *testing.T) {
	r := NewReverseHandles[string]()

	id1 := r.Create("bp-1", "first")
	id2 := r.Create("bp-2", "second")
	again := r.Create("bp-1", "updated")

	if again != id1 {
		t.Errorf("repeated key got id %d, want %d", again, id1)
	}
	if id2 == id1 {
		t.Error("distinct keys must get distinct ids")
	}

	// The value stored under the stable id follows the latest Create.
	v, ok := r.Get(id1)
	if !ok || v != "updated" {
		t.Errorf("Get(%d) = %q, %v; want \"updated\", true", id1, v, ok)
	}

	if id, ok := r.LookupHandle("bp-2"); !ok || id != id2 {
		t.Errorf("LookupHandle(bp-2) = %d, %v; want %d, true", id, ok, id2)
	}
	if _, ok := r.LookupHandle("bp-3"); ok {
		t.Error("LookupHandle for unknown key should miss")
	}
}

func TestReverseHandlesUnkeyedAndBind(t *testing.T) {
	r := NewReverseHandles[string]()

	id1 := r.CreateUnkeyed("")
	id2 := r.CreateUnkeyed("")
	if id1 == id2 {
		t.Fatalf("unkeyed handles must be distinct, got %d twice", id1)
	}

	r.Bind("bp-1", id1, "bp-1")
	if id, ok := r.LookupHandle("bp-1"); !ok || id != id1 {
		t.Errorf("LookupHandle(bp-1) = %d, %v; want %d, true", id, ok, id1)
	}
	if v, ok := r.Get(id1); !ok || v != "bp-1" {
		t.Errorf("Get(%d) = %q, %v; want \"bp-1\", true", id1, v, ok)
	}
	if id := r.Create("bp-1", "bp-1"); id != id1 {
		t.Errorf("Create after Bind got id %d, want %d", id, id1)
	}
}

func TestReverseHandlesReset(t *testing.T) {
	r := NewReverseHandles[string]()

	id1 := r.Create("k", "v")
	r.Reset()

	if _, ok := r.LookupHandle("k"); ok {
		t.Error("reverse key should be gone after Reset")
	}
	id2 := r.Create("k", "v2")
	if id2 <= id1 {
		t.Errorf("id after reset = %d, must be greater than %d", id2, id1)
	}
}
