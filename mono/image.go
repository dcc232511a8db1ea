package mono

import "rorsplit/process"

type image struct {
	m    *Module
	name string
	addr process.ProcessMemoryAddress
}

func (img *image) Name() string {
	return img.name
}

// Class searches the image's class cache, a hash table of MonoClassDef
// chains linked through next_class_cache
func (img *image) Class(name string) (Class, bool) {
	proc, off := img.m.proc, img.m.off
	cache := img.addr.Add(off.imageClassCache)

	size, err := process.Read[int32](proc, cache.Add(off.hashTableSize))
	if err != nil || size <= 0 {
		return nil, false
	}
	table, err := process.ReadPointer(proc, cache.Add(off.hashTableTable))
	if err != nil {
		return nil, false
	}

	for i := uint64(0); i < uint64(size); i++ {
		entry, err := process.Read[uint64](proc, table.Add(i*off.pointerSize))
		if err != nil {
			return nil, false
		}
		for depth := 0; entry != 0 && depth < maxChain; depth++ {
			klass := process.ProcessMemoryAddress(entry)
			if n, err := className(proc, off, klass); err == nil && n == name {
				return &class{m: img.m, name: n, addr: klass}, true
			}
			if entry, err = process.Read[uint64](proc, klass.Add(off.classDefNextCache)); err != nil {
				break
			}
		}
	}
	return nil, false
}

func className(proc process.Process, off *offsets, klass process.ProcessMemoryAddress) (string, error) {
	namePtr, err := process.ReadPointer(proc, klass.Add(off.className))
	if err != nil {
		return "", err
	}
	return process.ReadCString(proc, namePtr, process.ProcessMemorySize(off.maxClassNameLength))
}
