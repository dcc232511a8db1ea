package mono

import "rorsplit/process"

type class struct {
	m    *Module
	name string
	addr process.ProcessMemoryAddress
}

func (c *class) Name() string {
	return c.name
}

// Field returns the offset of the named field. Static fields are offsets
// into the static table, instance fields offsets into an instance. Fields
// inherited from a parent class are found too.
func (c *class) Field(name string) (uint64, bool) {
	proc, off := c.m.proc, c.m.off

	klass := c.addr
	for depth := 0; klass != 0 && depth < maxParents; depth++ {
		if offset, ok := c.ownField(klass, name); ok {
			return offset, true
		}
		parent, err := process.Read[uint64](proc, klass.Add(off.classParent))
		if err != nil {
			return 0, false
		}
		klass = process.ProcessMemoryAddress(parent)
	}
	return 0, false
}

func (c *class) ownField(klass process.ProcessMemoryAddress, name string) (uint64, bool) {
	proc, off := c.m.proc, c.m.off

	count, err := process.Read[uint32](proc, klass.Add(off.classDefFieldCount))
	if err != nil || count == 0 {
		return 0, false
	}
	fields, err := process.ReadPointer(proc, klass.Add(off.classFields))
	if err != nil {
		return 0, false
	}

	for i := uint64(0); i < uint64(count); i++ {
		field := fields.Add(i * off.fieldSize)
		namePtr, err := process.ReadPointer(proc, field.Add(off.fieldName))
		if err != nil {
			continue
		}
		n, err := process.ReadCString(proc, namePtr, process.ProcessMemorySize(off.maxClassNameLength))
		if err != nil || n != name {
			continue
		}
		offset, err := process.Read[int32](proc, field.Add(off.fieldOffset))
		if err != nil || offset < 0 {
			return 0, false
		}
		return uint64(offset), true
	}
	return 0, false
}

// StaticTable follows runtime_info -> domain vtable; the static storage
// pointer sits after the vtable's method slots
func (c *class) StaticTable() (process.ProcessMemoryAddress, bool) {
	proc, off := c.m.proc, c.m.off

	runtimeInfo, err := process.ReadPointer(proc, c.addr.Add(off.classRuntimeInfo))
	if err != nil {
		return 0, false
	}
	vtable, err := process.ReadPointer(proc, runtimeInfo.Add(off.runtimeInfoVTables))
	if err != nil {
		return 0, false
	}
	slots, err := process.Read[uint32](proc, c.addr.Add(off.classVTableSize))
	if err != nil {
		return 0, false
	}
	table, err := process.ReadPointer(proc, vtable.Add(off.vtableVTable+uint64(slots)*off.pointerSize))
	if err != nil {
		return 0, false
	}
	return table, true
}
