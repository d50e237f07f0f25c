// Package shader compiles and inspects WGSL with naga before it reaches a
// device, so a broken shader fails at startup as a configuration error.
package shader

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// Stage is the pipeline stage of an entry point.
type Stage uint8

// Entry point stages.
const (
	StageVertex Stage = iota + 1
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "other"
	}
}

// EntryPoint describes one entry point of a module.
type EntryPoint struct {
	Name      string
	Stage     Stage
	Workgroup [3]uint32
}

// Module is a validated WGSL module.
type Module struct {
	Label       string
	SPIRV       []uint32
	EntryPoints []EntryPoint
}

// Compile parses, validates and lowers WGSL to SPIR-V. Any failure wraps
// cells.ErrShaderCompile.
func Compile(label, source string) (*Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, compileError(label, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, compileError(label, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, compileError(label, err)
	}
	if len(verrs) > 0 {
		return nil, compileError(label, &verrs[0])
	}
	words, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, compileError(label, err)
	}

	m := &Module{Label: label, SPIRV: toWords(words)}
	for _, ep := range module.EntryPoints {
		m.EntryPoints = append(m.EntryPoints, EntryPoint{
			Name:      ep.Name,
			Stage:     stageOf(ep.Stage),
			Workgroup: ep.Workgroup,
		})
	}
	return m, nil
}

// EntryPoint returns the entry point called name.
func (m *Module) EntryPoint(name string) (EntryPoint, bool) {
	for _, ep := range m.EntryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// Require checks that name exists with the given stage.
func (m *Module) Require(name string, stage Stage) (EntryPoint, error) {
	ep, ok := m.EntryPoint(name)
	if !ok {
		return EntryPoint{}, fmt.Errorf("shader %q: no entry point %q: %w", m.Label, name, cells.ErrShaderCompile)
	}
	if ep.Stage != stage {
		return EntryPoint{}, fmt.Errorf("shader %q: entry point %q is %v, want %v: %w", m.Label, name, ep.Stage, stage, cells.ErrShaderCompile)
	}
	return ep, nil
}

func compileError(label string, err error) error {
	return fmt.Errorf("shader %q: %v: %w", label, err, cells.ErrShaderCompile)
}

func stageOf(s ir.ShaderStage) Stage {
	switch s {
	case ir.StageVertex:
		return StageVertex
	case ir.StageFragment:
		return StageFragment
	case ir.StageCompute:
		return StageCompute
	default:
		return 0
	}
}

// toWords converts little-endian SPIR-V bytes to 32-bit words.
func toWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}
