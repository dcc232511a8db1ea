package mono

import (
	"testing"

	"rorsplit/process"
	"rorsplit/process_blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addresses of the fake runtime
const (
	modBase  = 0x7000000
	heapBase = 0x200000

	foreachRVA    = 0x800
	assemblyGSRVA = 0xF00

	runClass  = heapBase + 0x1000
	fadeClass = heapBase + 0x1400
	baseClass = heapBase + 0x1600

	runStatics  = heapBase + 0x3000
	fadeStatics = heapBase + 0x3100
)

type fakeRuntime struct {
	dump   *process_blob.ProcessDump
	module *process_blob.Region
	heap   *process_blob.Region
}

// newFakeRuntime builds mono-2.0-bdwgc.dll with a mono_assembly_foreach
// export and a heap holding two assemblies. RoR2 has Run in its class
// cache, chained to FadeToBlackManager, which inherits alpha from a parent.
func newFakeRuntime(t *testing.T) *fakeRuntime {
	t.Helper()
	off := offsetsV2

	mod := process_blob.NewRegion(modBase, 0x1000)
	writeExports(mod, modBase, "mono_assembly_foreach", foreachRVA)
	// push rbx; mov rcx,[rip+disp]
	disp := uint32(assemblyGSRVA - (foreachRVA + 2 + 3 + 4))
	mod.PutBytes(modBase+foreachRVA, []byte{0x40, 0x53, 0x48, 0x8B, 0x0D})
	mod.PutUint32(modBase+foreachRVA+5, disp)
	mod.PutUint64(modBase+assemblyGSRVA, heapBase)

	h := process_blob.NewRegion(heapBase, 0x4000)

	// GSList {data, next}
	h.PutUint64(heapBase+0x00, heapBase+0x100)
	h.PutUint64(heapBase+0x08, heapBase+0x10)
	h.PutUint64(heapBase+0x10, heapBase+0x300)
	h.PutUint64(heapBase+0x18, 0)

	h.PutUint64(heapBase+0x100+off.assemblyName, heapBase+0x180)
	h.PutCString(heapBase+0x180, "mscorlib")
	h.PutUint64(heapBase+0x100+off.assemblyImage, heapBase+0x200)

	image := uint64(heapBase + 0x400)
	h.PutUint64(heapBase+0x300+off.assemblyName, heapBase+0x380)
	h.PutCString(heapBase+0x380, "RoR2")
	h.PutUint64(heapBase+0x300+off.assemblyImage, image)

	cache := image + off.imageClassCache
	h.PutUint32(cache+off.hashTableSize, 2)
	h.PutUint64(cache+off.hashTableTable, heapBase+0xA00)
	h.PutUint64(heapBase+0xA00, runClass)
	h.PutUint64(heapBase+0xA08, 0)

	writeClass(h, runClass, "Run", heapBase+0x1800, fadeClass, 0)
	h.PutUint32(runClass+off.classDefFieldCount, 2)
	h.PutUint64(runClass+off.classFields, heapBase+0x2000)
	writeField(h, heapBase+0x2000, "<instance>k__BackingField", heapBase+0x2100, 0x0)
	writeField(h, heapBase+0x2020, "stageClearCount", heapBase+0x2140, 0x48)
	writeStatics(h, runClass, heapBase+0x2400, heapBase+0x2500, 3, runStatics)

	writeClass(h, fadeClass, "FadeToBlackManager", heapBase+0x1840, 0, baseClass)
	writeStatics(h, fadeClass, heapBase+0x2600, heapBase+0x2700, 0, fadeStatics)

	writeClass(h, baseClass, "FadeBase", heapBase+0x1880, 0, 0)
	h.PutUint32(baseClass+off.classDefFieldCount, 1)
	h.PutUint64(baseClass+off.classFields, heapBase+0x2200)
	writeField(h, heapBase+0x2200, "alpha", heapBase+0x2300, 0x10)

	dump := process_blob.NewProcessDump()
	dump.MapRegion(mod, "r-xp", "/games/Risk of Rain 2/MonoBleedingEdge/EmbedRuntime/mono-2.0-bdwgc.dll")
	dump.MapRegion(h, "rw-p", "")
	return &fakeRuntime{dump: dump, module: mod, heap: h}
}

func writeExports(r *process_blob.Region, base uint64, name string, rva uint32) {
	r.PutUint16(base, 0x5A4D)
	r.PutUint32(base+0x3C, 0x80)
	r.PutUint32(base+0x80, 0x4550)
	r.PutUint16(base+0x98, 0x20B)
	r.PutUint32(base+0x98+0x70, 0x200)
	r.PutUint32(base+0x200+0x18, 1)
	r.PutUint32(base+0x200+0x1C, 0x300)
	r.PutUint32(base+0x200+0x20, 0x340)
	r.PutUint32(base+0x200+0x24, 0x380)
	r.PutUint32(base+0x300, rva)
	r.PutUint32(base+0x340, 0x400)
	r.PutUint16(base+0x380, 0)
	r.PutCString(base+0x400, name)
}

func writeClass(h *process_blob.Region, klass uint64, name string, nameAt, next, parent uint64) {
	h.PutUint64(klass+offsetsV2.className, nameAt)
	h.PutCString(nameAt, name)
	h.PutUint64(klass+offsetsV2.classDefNextCache, next)
	h.PutUint64(klass+offsetsV2.classParent, parent)
}

func writeField(h *process_blob.Region, field uint64, name string, nameAt uint64, offset uint32) {
	h.PutUint64(field+offsetsV2.fieldName, nameAt)
	h.PutCString(nameAt, name)
	h.PutUint32(field+offsetsV2.fieldOffset, offset)
}

func writeStatics(h *process_blob.Region, klass, runtimeInfo, vtable uint64, slots uint32, statics uint64) {
	h.PutUint64(klass+offsetsV2.classRuntimeInfo, runtimeInfo)
	h.PutUint64(runtimeInfo+offsetsV2.runtimeInfoVTables, vtable)
	h.PutUint32(klass+offsetsV2.classVTableSize, slots)
	h.PutUint64(vtable+offsetsV2.vtableVTable+uint64(slots)*8, statics)
}

func TestAttach_ListsAssemblies(t *testing.T) {
	f := newFakeRuntime(t)

	m, err := Attach(f.dump, V2)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(modBase), m.Base())
	assert.Equal(t, []string{"mscorlib", "RoR2"}, m.Assemblies())
}

func TestAttach_WaitsForAssemblyList(t *testing.T) {
	f := newFakeRuntime(t)
	f.module.PutUint64(modBase+assemblyGSRVA, 0)

	_, err := Attach(f.dump, V2)
	assert.Error(t, err)
}

func TestAttach_MissingModule(t *testing.T) {
	_, err := Attach(process_blob.NewProcessDump(), V2)
	assert.ErrorIs(t, err, process.ErrModuleNotFound)
}

func TestImage_Lookup(t *testing.T) {
	f := newFakeRuntime(t)
	m, err := Attach(f.dump, V2)
	require.NoError(t, err)

	img, ok := m.Image("RoR2")
	require.True(t, ok)
	assert.Equal(t, "RoR2", img.Name())

	_, ok = m.DefaultImage()
	assert.False(t, ok)

	img, ok = ImageOrDefault(m, "RoR2")
	require.True(t, ok)
	assert.Equal(t, "RoR2", img.Name())

	_, ok = ImageOrDefault(m, "Missing")
	assert.False(t, ok)
}

func TestClass_FieldsAndStatics(t *testing.T) {
	f := newFakeRuntime(t)
	m, err := Attach(f.dump, V2)
	require.NoError(t, err)
	img, ok := m.Image("RoR2")
	require.True(t, ok)

	run, ok := img.Class("Run")
	require.True(t, ok)
	offset, ok := run.Field("stageClearCount")
	require.True(t, ok)
	assert.Equal(t, uint64(0x48), offset)
	table, ok := run.StaticTable()
	require.True(t, ok)
	assert.Equal(t, process.ProcessMemoryAddress(runStatics), table)

	// found through the next_class_cache chain
	fade, ok := img.Class("FadeToBlackManager")
	require.True(t, ok)
	// inherited from the parent class
	offset, ok = fade.Field("alpha")
	require.True(t, ok)
	assert.Equal(t, uint64(0x10), offset)
	table, ok = fade.StaticTable()
	require.True(t, ok)
	assert.Equal(t, process.ProcessMemoryAddress(fadeStatics), table)

	_, ok = run.Field("missing")
	assert.False(t, ok)
	_, ok = img.Class("GameOverController")
	assert.False(t, ok)
}

func TestClass_NoStaticTableYet(t *testing.T) {
	f := newFakeRuntime(t)
	f.heap.PutUint64(runClass+offsetsV2.classRuntimeInfo, 0)

	m, err := Attach(f.dump, V2)
	require.NoError(t, err)
	img, _ := m.Image("RoR2")
	run, ok := img.Class("Run")
	require.True(t, ok)

	_, ok = run.StaticTable()
	assert.False(t, ok)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "MonoV2", V2.String())
	assert.Equal(t, "mono-2.0-bdwgc.dll", V2.ModuleName())
	_, err := offsetsFor(Version(9))
	assert.Error(t, err)
}
