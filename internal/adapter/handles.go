package adapter

// Handles allocates stable positive integer ids for values. Ids are
// monotonic: Reset drops the stored values but never reuses an id, so a
// handle issued before a reset can never alias a handle issued after it.
type Handles[T any] struct {
	next   int
	values map[int]T
}

// NewHandles creates an empty handle table. The first id issued is 1000 so
// that handle values are visually distinct from thread and sequence ids in
// protocol traces.
func NewHandles[T any]() *Handles[T] {
	return &Handles[T]{
		next:   1000,
		values: make(map[int]T),
	}
}

// Create stores value and returns its new handle.
func (h *Handles[T]) Create(value T) int {
	id := h.next
	h.next++
	h.values[id] = value
	return id
}

// Get returns the value for a handle.
func (h *Handles[T]) Get(id int) (T, bool) {
	v, ok := h.values[id]
	return v, ok
}

// Reset drops all stored values. The id counter keeps running.
func (h *Handles[T]) Reset() {
	h.values = make(map[int]T)
}

// ReverseHandles is a handle table with a reverse lookup keyed by string.
// Repeated Lookup calls with the same key return the same handle.
type ReverseHandles[T any] struct {
	handles *Handles[T]
	byKey   map[string]int
}

// NewReverseHandles creates an empty reverse-lookup handle table.
func NewReverseHandles[T any]() *ReverseHandles[T] {
	return &ReverseHandles[T]{
		handles: NewHandles[T](),
		byKey:   make(map[string]int),
	}
}

// Create stores value under key and returns a stable handle: an existing
// handle for the key if one was issued before, a fresh one otherwise.
func (r *ReverseHandles[T]) Create(key string, value T) int {
	if id, ok := r.byKey[key]; ok {
		r.handles.values[id] = value
		return id
	}
	id := r.handles.Create(value)
	r.byKey[key] = id
	return id
}

// CreateUnkeyed issues a fresh handle with no reverse key. Every call
// returns a new id; use Bind once the key becomes known.
func (r *ReverseHandles[T]) CreateUnkeyed(value T) int {
	return r.handles.Create(value)
}

// Bind attaches a reverse key to an already issued handle, so later lookups
// by key return the same id.
func (r *ReverseHandles[T]) Bind(key string, id int, value T) {
	r.byKey[key] = id
	r.handles.values[id] = value
}

// Get returns the value for a handle.
func (r *ReverseHandles[T]) Get(id int) (T, bool) {
	return r.handles.Get(id)
}

// LookupHandle returns the handle previously issued for key, if any.
func (r *ReverseHandles[T]) LookupHandle(key string) (int, bool) {
	id, ok := r.byKey[key]
	return id, ok
}

// Reset drops all stored values and reverse keys.
func (r *ReverseHandles[T]) Reset() {
	r.handles.Reset()
	r.byKey = make(map[string]int)
}
