package mono

import (
	"rorsplit/process"
)

// Field names one value of a class. Names lists the current field name
// first, then names used by older builds of the target.
type Field struct {
	Key   string
	Names []string
}

// NewField is a field whose key is its current name
func NewField(name string, older ...string) Field {
	return Field{Key: name, Names: append([]string{name}, older...)}
}

// LookupField tries each name in order; the first one present wins
func LookupField(c Class, names ...string) (uint64, bool) {
	for _, name := range names {
		if offset, ok := c.Field(name); ok {
			return offset, true
		}
	}
	return 0, false
}

// Resolved is the cached outcome of a successful ClassHandle resolution
type Resolved struct {
	StaticTable process.ProcessMemoryAddress
	offsets     map[string]uint64
}

// Offset returns the offset of the field registered under key
func (r *Resolved) Offset(key string) uint64 {
	return r.offsets[key]
}

// ClassHandle resolves a class, its static table and a fixed set of field
// offsets as one unit. A success is cached until Invalidate; any failed step
// drops everything so the next attempt starts from the class lookup.
type ClassHandle struct {
	image    Image
	name     string
	fields   []Field
	resolved *Resolved
}

// NewClassHandle creates an unresolved handle; nothing is read until Resolve
func NewClassHandle(image Image, name string, fields ...Field) *ClassHandle {
	return &ClassHandle{image: image, name: name, fields: fields}
}

func (h *ClassHandle) Name() string {
	return h.name
}

// IsResolved reports whether a resolution is cached
func (h *ClassHandle) IsResolved() bool {
	return h.resolved != nil
}

// Resolve returns the cached resolution or attempts a new one
func (h *ClassHandle) Resolve() (*Resolved, bool) {
	if h.resolved != nil {
		return h.resolved, true
	}

	class, ok := h.image.Class(h.name)
	if !ok {
		return nil, false
	}

	table, ok := class.StaticTable()
	if !ok {
		return nil, false
	}

	offsets := make(map[string]uint64, len(h.fields))
	for _, f := range h.fields {
		offset, ok := LookupField(class, f.Names...)
		if !ok {
			return nil, false
		}
		offsets[f.Key] = offset
	}

	h.resolved = &Resolved{StaticTable: table, offsets: offsets}
	return h.resolved, true
}

// Invalidate drops the cached resolution
func (h *ClassHandle) Invalidate() {
	h.resolved = nil
}
