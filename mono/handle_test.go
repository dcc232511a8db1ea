package mono

import (
	"testing"

	"rorsplit/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClass struct {
	name    string
	fields  map[string]uint64
	statics process.ProcessMemoryAddress
	lookups int
}

func (c *stubClass) Name() string { return c.name }

func (c *stubClass) Field(name string) (uint64, bool) {
	c.lookups++
	off, ok := c.fields[name]
	return off, ok
}

func (c *stubClass) StaticTable() (process.ProcessMemoryAddress, bool) {
	return c.statics, c.statics != 0
}

type stubImage struct {
	classes map[string]*stubClass
}

func (img *stubImage) Name() string { return "RoR2" }

func (img *stubImage) Class(name string) (Class, bool) {
	c, ok := img.classes[name]
	if !ok {
		return nil, false
	}
	return c, true
}

func TestLookupField_CandidateOrder(t *testing.T) {
	c := &stubClass{fields: map[string]uint64{"instance": 8, "<instance>k__BackingField": 16}}

	off, ok := LookupField(c, "<instance>k__BackingField", "instance")
	require.True(t, ok)
	assert.Equal(t, uint64(16), off)

	delete(c.fields, "<instance>k__BackingField")
	off, ok = LookupField(c, "<instance>k__BackingField", "instance")
	require.True(t, ok)
	assert.Equal(t, uint64(8), off)

	_, ok = LookupField(c, "gone")
	assert.False(t, ok)
}

func TestClassHandle_ResolveIsCached(t *testing.T) {
	run := &stubClass{
		name:    "Run",
		fields:  map[string]uint64{"instance": 0x0, "stageClearCount": 0x48},
		statics: 0x5000,
	}
	img := &stubImage{classes: map[string]*stubClass{"Run": run}}

	instance := NewField("<instance>k__BackingField", "instance")
	count := NewField("stageClearCount")
	h := NewClassHandle(img, "Run", instance, count)
	assert.False(t, h.IsResolved())

	first, ok := h.Resolve()
	require.True(t, ok)
	assert.True(t, h.IsResolved())
	assert.Equal(t, process.ProcessMemoryAddress(0x5000), first.StaticTable)
	assert.Equal(t, uint64(0x48), first.Offset(count.Key))
	assert.Equal(t, uint64(0x0), first.Offset(instance.Key))

	lookups := run.lookups
	second, ok := h.Resolve()
	require.True(t, ok)
	assert.Same(t, first, second)
	assert.Equal(t, lookups, run.lookups)
}

func TestClassHandle_FailureCachesNothing(t *testing.T) {
	run := &stubClass{name: "Run", fields: map[string]uint64{"instance": 0}, statics: 0x5000}
	img := &stubImage{classes: map[string]*stubClass{"Run": run}}
	h := NewClassHandle(img, "Run", NewField("instance"), NewField("stageClearCount"))

	_, ok := h.Resolve()
	assert.False(t, ok)
	assert.False(t, h.IsResolved())

	// the field appears once the class finishes initialising
	run.fields["stageClearCount"] = 0x48
	r, ok := h.Resolve()
	require.True(t, ok)
	assert.Equal(t, uint64(0x48), r.Offset("stageClearCount"))
}

func TestClassHandle_MissingClassOrStatics(t *testing.T) {
	img := &stubImage{classes: map[string]*stubClass{}}
	h := NewClassHandle(img, "GameOverController")
	_, ok := h.Resolve()
	assert.False(t, ok)

	img.classes["GameOverController"] = &stubClass{name: "GameOverController"}
	_, ok = h.Resolve()
	assert.False(t, ok)

	img.classes["GameOverController"].statics = 0x6000
	_, ok = h.Resolve()
	assert.True(t, ok)
}

func TestClassHandle_Invalidate(t *testing.T) {
	run := &stubClass{name: "Run", statics: 0x5000}
	img := &stubImage{classes: map[string]*stubClass{"Run": run}}
	h := NewClassHandle(img, "Run")

	first, ok := h.Resolve()
	require.True(t, ok)

	run.statics = 0x7000
	h.Invalidate()
	assert.False(t, h.IsResolved())

	second, ok := h.Resolve()
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, process.ProcessMemoryAddress(0x7000), second.StaticTable)
}
