package metadata

/** @brief The name of the solid-color program used when a shader fails to build. */
const FALLBACK_SHADER_NAME string = "fallback"

type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

// ShaderAttribute is one vertex input reflected from the program.
type ShaderAttribute struct {
	Name     string
	Location uint32
	Type     string
}

// ShaderUniform is one uniform reflected from the program.
type ShaderUniform struct {
	Name    string
	Binding uint32
	Type    string
	Stage   ShaderStage
}

// ShaderOptions carry manifest-level toggles the backend applies when
// building the pipeline.
type ShaderOptions struct {
	DepthTest   bool
	DepthWrite  bool
	Blend       bool
	Wireframe   bool
	CullBack    bool
	Passthrough bool
}

func DefaultShaderOptions() ShaderOptions {
	return ShaderOptions{
		DepthTest:  true,
		DepthWrite: true,
		CullBack:   true,
	}
}

/**
 * @brief A shader program: reflected interface plus the backend handle.
 */
type Shader struct {
	Name    string
	Options ShaderOptions

	Attributes []ShaderAttribute
	Uniforms   []ShaderUniform

	// Source paths the program was built from, for hot-reload.
	VertexPath   string
	FragmentPath string

	// Generation increments on every successful (re)build.
	Generation uint32
	Handle     uint32
}

func NewShader(name string, options ShaderOptions) *Shader {
	return &Shader{
		Name:       name,
		Options:    options,
		Generation: InvalidHandle,
		Handle:     InvalidHandle,
	}
}

func (s *Shader) HasResource() bool {
	return s.Handle != InvalidHandle
}
