// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Sources holds the GLSL source of each stage of a graphics program.
// TessControl and TessEval are optional but must be set together.
type Sources struct {
	Vertex      string
	TessControl string
	TessEval    string
	Fragment    string
}

// Compile compiles every stage in src and links them into a program.
func Compile(src Sources) (uint32, error) {
	if (src.TessControl == "") != (src.TessEval == "") {
		return 0, fmt.Errorf("tessellation control and evaluation stages must be set together")
	}

	stages := []struct {
		source string
		kind   uint32
		name   string
	}{
		{src.Vertex, gl.VERTEX_SHADER, "vertex"},
		{src.TessControl, gl.TESS_CONTROL_SHADER, "tess control"},
		{src.TessEval, gl.TESS_EVALUATION_SHADER, "tess evaluation"},
		{src.Fragment, gl.FRAGMENT_SHADER, "fragment"},
	}

	var compiled []uint32
	defer func() {
		for _, s := range compiled {
			gl.DeleteShader(s)
		}
	}()
	for _, st := range stages {
		if st.source == "" {
			continue
		}
		s, err := compileShader(st.source, st.kind, st.name)
		if err != nil {
			return 0, err
		}
		compiled = append(compiled, s)
	}

	program := gl.CreateProgram()
	for _, s := range compiled {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// GetUniform returns the uniform location for the given name.
// Returns -1 if the uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// Uniforms caches uniform locations of one program.
type Uniforms struct {
	program uint32
	locs    map[string]int32
}

// NewUniforms creates a location cache for program.
func NewUniforms(program uint32) *Uniforms {
	return &Uniforms{program: program, locs: make(map[string]int32)}
}

// Loc returns the cached location of name, looking it up on first use.
func (u *Uniforms) Loc(name string) int32 {
	if loc, ok := u.locs[name]; ok {
		return loc
	}
	loc := GetUniform(u.program, name)
	u.locs[name] = loc
	return loc
}
