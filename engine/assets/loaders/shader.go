package loaders

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// The reflection here is deliberately shallow: it recognizes the
// declaration shapes our GLSL sources actually use, which is enough to
// wire vertex layouts and uniform bindings without a SPIR-V
// cross-compiler in the loop.
var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	attributeRe    = regexp.MustCompile(`layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*in\s+(\w+)\s+(\w+)\s*;`)
	boundUniformRe = regexp.MustCompile(`layout\s*\((?:\s*set\s*=\s*\d+\s*,)?\s*binding\s*=\s*(\d+)\s*\)\s*uniform\s+(\w+)\s+(\w+)`)
	plainUniformRe = regexp.MustCompile(`^\s*uniform\s+(\w+)\s+(\w+)\s*;`)
)

// ReflectShaderSource scans GLSL for vertex inputs and uniform
// declarations. Attributes only come out of vertex stages; uniforms are
// tagged with the stage they were found in.
func ReflectShaderSource(stage metadata.ShaderStage, source []uint8) ([]metadata.ShaderAttribute, []metadata.ShaderUniform) {
	clean := blockCommentRe.ReplaceAllString(string(source), "")

	var attributes []metadata.ShaderAttribute
	var uniforms []metadata.ShaderUniform
	for _, line := range strings.Split(clean, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}

		if stage == metadata.ShaderStageVertex {
			if m := attributeRe.FindStringSubmatch(line); m != nil {
				location, _ := strconv.ParseUint(m[1], 10, 32)
				attributes = append(attributes, metadata.ShaderAttribute{
					Name:     m[3],
					Location: uint32(location),
					Type:     m[2],
				})
				continue
			}
		}

		if m := boundUniformRe.FindStringSubmatch(line); m != nil {
			binding, _ := strconv.ParseUint(m[1], 10, 32)
			uniforms = append(uniforms, metadata.ShaderUniform{
				Name:    m[3],
				Binding: uint32(binding),
				Type:    m[2],
				Stage:   stage,
			})
			continue
		}
		if m := plainUniformRe.FindStringSubmatch(line); m != nil {
			uniforms = append(uniforms, metadata.ShaderUniform{
				Name:  m[2],
				Type:  m[1],
				Stage: stage,
			})
		}
	}
	return attributes, uniforms
}
