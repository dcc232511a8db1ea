package mono

import "fmt"

// Version selects the layout of the runtime's structures
type Version int

const (
	// V2 is the Boehm GC build shipped with Unity 2018+ (mono-2.0-bdwgc.dll)
	V2 Version = 2
)

func (v Version) String() string {
	switch v {
	case V2:
		return "MonoV2"
	}
	return fmt.Sprintf("Mono(%d)", int(v))
}

// ModuleName is the file name of the runtime library for the version
func (v Version) ModuleName() string {
	switch v {
	case V2:
		return "mono-2.0-bdwgc.dll"
	}
	return ""
}

// offsets of the fields read from the runtime's structures, 64-bit builds
type offsets struct {
	assemblyName         uint64 // MonoAssembly.aname.name
	assemblyImage        uint64 // MonoAssembly.image
	imageClassCache      uint64 // MonoImage.class_cache
	hashTableSize        uint64 // MonoInternalHashTable.size
	hashTableTable       uint64 // MonoInternalHashTable.table
	classDefNextCache    uint64 // MonoClassDef.next_class_cache
	classDefFieldCount   uint64 // MonoClassDef.field_count
	className            uint64 // MonoClass.name
	classParent          uint64 // MonoClass.parent
	classFields          uint64 // MonoClass.fields
	classRuntimeInfo     uint64 // MonoClass.runtime_info
	classVTableSize      uint64 // MonoClass.vtable_size
	fieldName            uint64 // MonoClassField.name
	fieldOffset          uint64 // MonoClassField.offset
	fieldSize            uint64 // sizeof(MonoClassField)
	runtimeInfoVTables   uint64 // MonoClassRuntimeInfo.domain_vtables
	vtableVTable         uint64 // MonoVTable.vtable
	pointerSize          uint64
	maxClassNameLength   uint64
	maxAssemblyNameBytes uint64
}

var offsetsV2 = offsets{
	assemblyName:         0x10,
	assemblyImage:        0x60,
	imageClassCache:      0x4C0,
	hashTableSize:        0x18,
	hashTableTable:       0x20,
	classDefNextCache:    0x108,
	classDefFieldCount:   0x100,
	className:            0x48,
	classParent:          0x30,
	classFields:          0x98,
	classRuntimeInfo:     0xD0,
	classVTableSize:      0x5C,
	fieldName:            0x8,
	fieldOffset:          0x18,
	fieldSize:            0x20,
	runtimeInfoVTables:   0x8,
	vtableVTable:         0x40,
	pointerSize:          8,
	maxClassNameLength:   128,
	maxAssemblyNameBytes: 128,
}

func offsetsFor(v Version) (*offsets, error) {
	switch v {
	case V2:
		return &offsetsV2, nil
	}
	return nil, fmt.Errorf("unsupported runtime version %s", v)
}
