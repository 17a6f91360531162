package shader

import (
	"fmt"

	gl43 "github.com/go-gl/gl/v4.3-core/gl"
)

// InitCompute loads the GL 4.3 entry points used by compute passes.
// It fails on contexts older than 4.3, e.g. the 4.1 core profile on macOS.
func InitCompute() error {
	if err := gl43.Init(); err != nil {
		return fmt.Errorf("GL 4.3 unavailable: %w", err)
	}
	return nil
}

// CompileCompute compiles and links a compute program.
// InitCompute must have succeeded first.
func CompileCompute(source string) (uint32, error) {
	sh := gl43.CreateShader(gl43.COMPUTE_SHADER)
	csource, free := gl43.Strs(source + "\x00")
	gl43.ShaderSource(sh, 1, csource, nil)
	free()
	gl43.CompileShader(sh)
	defer gl43.DeleteShader(sh)

	var status int32
	gl43.GetShaderiv(sh, gl43.COMPILE_STATUS, &status)
	if status == gl43.FALSE {
		var logLen int32
		gl43.GetShaderiv(sh, gl43.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl43.GetShaderInfoLog(sh, logLen, nil, &log[0])
		return 0, fmt.Errorf("compute shader: %s", string(log))
	}

	program := gl43.CreateProgram()
	gl43.AttachShader(program, sh)
	gl43.LinkProgram(program)

	gl43.GetProgramiv(program, gl43.LINK_STATUS, &status)
	if status == gl43.FALSE {
		var logLen int32
		gl43.GetProgramiv(program, gl43.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl43.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl43.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}
	return program, nil
}
