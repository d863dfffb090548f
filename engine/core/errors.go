package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors into the coarse categories boundary
// callers branch on. Kinds compare with errors.Is through EngineError.
type ErrorKind int

const (
	ErrNone ErrorKind = iota

	// Generic kinds.
	ErrInvalidParameter
	ErrNullReference
	ErrOutOfMemory
	ErrNotImplemented
	ErrInvalidState
	ErrTimeout
	ErrAccessDenied

	// Engine lifecycle.
	ErrEngineNotInitialized
	ErrEngineAlreadyInitialized
	ErrEngineShutdownFailed
	ErrEngineSystemInitFailed

	// Renderer.
	ErrRendererInitFailed
	ErrShaderCompilationFailed
	ErrTextureLoadFailed
	ErrBufferCreationFailed
	ErrRenderTargetCreationFailed

	// Files.
	ErrFileNotFound
	ErrFileAccessDenied
	ErrFileCorrupted
	ErrDirectoryNotFound
	ErrDiskFull

	// Assets.
	ErrAssetNotFound
	ErrAssetLoadFailed
	ErrAssetCorrupted
	ErrAssetOutOfMemory

	// Configuration.
	ErrConfigParseError
)

var errorKindNames = map[ErrorKind]string{
	ErrNone:                       "None",
	ErrInvalidParameter:           "InvalidParameter",
	ErrNullReference:              "NullReference",
	ErrOutOfMemory:                "OutOfMemory",
	ErrNotImplemented:             "NotImplemented",
	ErrInvalidState:               "InvalidState",
	ErrTimeout:                    "Timeout",
	ErrAccessDenied:               "AccessDenied",
	ErrEngineNotInitialized:       "Engine.NotInitialized",
	ErrEngineAlreadyInitialized:   "Engine.AlreadyInitialized",
	ErrEngineShutdownFailed:       "Engine.ShutdownFailed",
	ErrEngineSystemInitFailed:     "Engine.SystemInitFailed",
	ErrRendererInitFailed:         "Renderer.InitFailed",
	ErrShaderCompilationFailed:    "Renderer.ShaderCompilationFailed",
	ErrTextureLoadFailed:          "Renderer.TextureLoadFailed",
	ErrBufferCreationFailed:       "Renderer.BufferCreationFailed",
	ErrRenderTargetCreationFailed: "Renderer.TargetCreationFailed",
	ErrFileNotFound:               "File.NotFound",
	ErrFileAccessDenied:           "File.AccessDenied",
	ErrFileCorrupted:              "File.Corrupted",
	ErrDirectoryNotFound:          "File.DirectoryNotFound",
	ErrDiskFull:                   "File.DiskFull",
	ErrAssetNotFound:              "Asset.ResourceNotFound",
	ErrAssetLoadFailed:            "Asset.LoadFailed",
	ErrAssetCorrupted:             "Asset.Corrupted",
	ErrAssetOutOfMemory:           "Asset.OutOfMemory",
	ErrConfigParseError:           "Configuration.ParseError",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// kindError lets a bare ErrorKind act as an errors.Is target:
//
//	if errors.Is(err, core.ErrAssetNotFound.AsError()) { ... }
type kindError struct{ kind ErrorKind }

func (e kindError) Error() string { return e.kind.String() }

// AsError returns a sentinel usable as an errors.Is target for this kind.
func (k ErrorKind) AsError() error { return kindError{k} }

// EngineError is the (kind, message) pair every boundary call propagates.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }

func (e *EngineError) Is(target error) bool {
	if ke, ok := target.(kindError); ok {
		return e.Kind == ke.kind
	}
	if te, ok := target.(*EngineError); ok {
		return e.Kind == te.Kind
	}
	return false
}

// NewError builds an EngineError with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and context to an underlying error.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from err, ErrNone for nil and
// ErrInvalidState for foreign errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrNone
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ErrInvalidState
}
