//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const shaderCacheDir = "assets/Cache/Shaders"

// Precompiles the testbed shaders into the pack's bytecode cache, so
// shipped builds skip the runtime compiler entirely.
func (Build) Shaders() error {
	if err := os.MkdirAll(shaderCacheDir, 0o755); err != nil {
		return err
	}

	stages := []struct {
		stage  string
		source string
		cached string
	}{
		{"vert", "assets/shaders/sprite.vert.glsl", "sprite.vert.spv"},
		{"frag", "assets/shaders/sprite.frag.glsl", "sprite.frag.spv"},
	}
	for _, s := range stages {
		if _, err := os.Stat(s.source); err != nil {
			fmt.Printf("skipping %s: %v\n", s.source, err)
			continue
		}
		out := filepath.Join(shaderCacheDir, s.cached)
		if err := runTool("glslc", "-fshader-stage="+s.stage, s.source, "-o", out); err != nil {
			return err
		}
	}
	return nil
}

// Packs the assets tree, bytecode cache included, into assets.vxpk.
func (Build) Pack() error {
	mg.Deps(Build.Shaders)
	return runTool("go", "run", "./cmd/vxpack", "pack", "assets", "assets.vxpk")
}

// Builds the testbed binary into bin/.
func (Build) Testbed() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	return runTool("go", "build", "-o", "bin/testbed", ".")
}

// Runs the whole test suite.
func Test() error {
	return runTool("go", "test", "./...")
}
