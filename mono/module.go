package mono

import (
	"fmt"

	"rorsplit/pe"
	"rorsplit/process"
	"rorsplit/signature"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	// the function loads the assembly list into rcx first thing
	assemblyForeachExport = "mono_assembly_foreach"
	assemblyForeachWindow = 0x100

	// upper bounds on linked structures, so a torn read cannot loop forever
	maxAssemblies = 4096
	maxChain      = 4096
	maxParents    = 64
)

var loadAssemblyList = signature.MustParse("48 8B 0D")

var _ Runtime = (*Module)(nil)

// Module is an attached Mono runtime
type Module struct {
	proc       process.Process
	version    Version
	off        *offsets
	base       process.ProcessMemoryAddress
	assemblies process.ProcessMemoryAddress // address of the GSList* of loaded assemblies
	log        *logger.Logger
}

// Attach locates the runtime module in the process and the list of loaded
// assemblies. It fails until the runtime has loaded at least one assembly.
func Attach(proc process.Process, version Version) (*Module, error) {
	off, err := offsetsFor(version)
	if err != nil {
		return nil, err
	}

	base, _, err := process.FindModule(proc, version.ModuleName())
	if err != nil {
		return nil, err
	}

	is64, err := pe.Is64(proc, base)
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", version.ModuleName(), err)
	}
	if !is64 {
		return nil, fmt.Errorf("%s is a 32-bit module, only 64-bit targets are supported", version.ModuleName())
	}

	fn, err := pe.FindExport(proc, base, assemblyForeachExport)
	if err != nil {
		return nil, err
	}

	hit, err := loadAssemblyList.Scan(proc, fn, assemblyForeachWindow)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", assemblyForeachExport, err)
	}

	// mov rcx, [rip+disp32]: the displacement is relative to the next instruction
	operand := hit.Add(uint64(loadAssemblyList.Len()))
	disp, err := process.Read[int32](proc, operand)
	if err != nil {
		return nil, err
	}
	assemblies := operand.Add(4).AddSigned(int64(disp))

	if _, err := process.ReadPointer(proc, assemblies); err != nil {
		return nil, fmt.Errorf("assembly list not initialised: %w", err)
	}

	m := &Module{
		proc:       proc,
		version:    version,
		off:        off,
		base:       base,
		assemblies: assemblies,
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "mono")),
	}
	m.log.Infoln("Attached", version.String(), "at", base.ToString(), "assemblies at", assemblies.ToString())
	return m, nil
}

// Base is the load address of the runtime module
func (m *Module) Base() process.ProcessMemoryAddress {
	return m.base
}

// Assemblies lists the names of the loaded assemblies
func (m *Module) Assemblies() []string {
	var names []string
	m.eachAssembly(func(name string, _ process.ProcessMemoryAddress) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Image returns the image of the loaded assembly with the given name
func (m *Module) Image(name string) (Image, bool) {
	var found Image
	m.eachAssembly(func(aname string, assembly process.ProcessMemoryAddress) bool {
		if aname != name {
			return true
		}
		addr, err := process.ReadPointer(m.proc, assembly.Add(m.off.assemblyImage))
		if err == nil {
			found = &image{m: m, name: aname, addr: addr}
		}
		return false
	})
	return found, found != nil
}

// DefaultImage returns the Assembly-CSharp image
func (m *Module) DefaultImage() (Image, bool) {
	return m.Image(DefaultImageName)
}

// eachAssembly walks the GSList of assemblies: {data, next}
func (m *Module) eachAssembly(fn func(name string, assembly process.ProcessMemoryAddress) bool) {
	node, err := process.Read[uint64](m.proc, m.assemblies)
	if err != nil {
		return
	}

	for i := 0; node != 0 && i < maxAssemblies; i++ {
		link, err := process.Read[[2]uint64](m.proc, process.ProcessMemoryAddress(node))
		if err != nil {
			return
		}
		assembly, next := process.ProcessMemoryAddress(link[0]), link[1]
		if assembly != 0 {
			if name, err := m.assemblyName(assembly); err == nil && !fn(name, assembly) {
				return
			}
		}
		node = next
	}
}

func (m *Module) assemblyName(assembly process.ProcessMemoryAddress) (string, error) {
	namePtr, err := process.ReadPointer(m.proc, assembly.Add(m.off.assemblyName))
	if err != nil {
		return "", err
	}
	return process.ReadCString(m.proc, namePtr, process.ProcessMemorySize(m.off.maxAssemblyNameBytes))
}
