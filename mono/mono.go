// Package mono resolves types and fields of a Mono managed runtime by name,
// by reading the runtime's own metadata out of the target process.
//
// Every lookup may fail while the target is still loading, so the
// capability interfaces report success with a boolean and callers retry on
// a later tick.
package mono

import "rorsplit/process"

// Runtime looks up loaded images (assemblies)
type Runtime interface {
	Image(name string) (Image, bool)
	DefaultImage() (Image, bool)
}

// Image looks up classes loaded from one assembly
type Image interface {
	Name() string
	Class(name string) (Class, bool)
}

// Class looks up instance field offsets and the static field storage of a
// loaded class
type Class interface {
	Name() string
	Field(name string) (uint64, bool)
	StaticTable() (process.ProcessMemoryAddress, bool)
}

// DefaultImageName is the assembly Unity compiles game scripts into
const DefaultImageName = "Assembly-CSharp"

// ImageOrDefault prefers the named image and falls back to the default one,
// for games that moved their code out of Assembly-CSharp in later versions
func ImageOrDefault(rt Runtime, name string) (Image, bool) {
	if img, ok := rt.Image(name); ok {
		return img, true
	}
	return rt.DefaultImage()
}
