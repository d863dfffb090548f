package core

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindMatching(t *testing.T) {
	err := NewError(ErrAssetNotFound, "no texture named %q", "grass")

	assert.True(t, errors.Is(err, ErrAssetNotFound.AsError()))
	assert.False(t, errors.Is(err, ErrAssetLoadFailed.AsError()))
	assert.Equal(t, ErrAssetNotFound, KindOf(err))
	assert.Contains(t, err.Error(), `Asset.ResourceNotFound`)
	assert.Contains(t, err.Error(), `no texture named "grass"`)
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := fs.ErrNotExist
	err := WrapError(ErrFileNotFound, cause, "reading %s", "assets/shaders/basic.toml")

	assert.True(t, errors.Is(err, ErrFileNotFound.AsError()))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "the underlying cause stays reachable")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrNone, KindOf(nil))
	assert.Equal(t, ErrInvalidState, KindOf(errors.New("foreign")))

	wrapped := fmt.Errorf("loader: %w", NewError(ErrAssetCorrupted, "bad header"))
	assert.Equal(t, ErrAssetCorrupted, KindOf(wrapped), "kinds survive fmt.Errorf wrapping")
}

func TestEngineErrorIsByKind(t *testing.T) {
	a := NewError(ErrTimeout, "load took too long")
	b := NewError(ErrTimeout, "different message")
	require.True(t, errors.Is(a, b), "engine errors of the same kind match")
	assert.False(t, errors.Is(a, NewError(ErrInvalidState, "x")))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "Renderer.ShaderCompilationFailed", ErrShaderCompilationFailed.String())
	assert.Equal(t, "ErrorKind(9999)", ErrorKind(9999).String())
}
