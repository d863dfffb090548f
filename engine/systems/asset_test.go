package systems

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcfgod/Vortex-sub001/engine/assets"
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
)

type assetFixture struct {
	backend *renderer.NullBackend
	rend    *renderer.Renderer
	jobs    *JobSystem
	system  *AssetSystem
	root    string
}

// newAssetFixture wires the real pipeline: job system workers load the
// asset, the GPU create lands on this goroutine via the command queue.
func newAssetFixture(t *testing.T) *assetFixture {
	t.Helper()

	backend := renderer.NewNullBackend()
	rend, err := renderer.New(backend, renderer.DefaultQueueConfig())
	require.NoError(t, err)
	rend.Queue().MarkRenderThread()
	require.NoError(t, rend.Initialize("asset-system-test", 640, 480))

	jobs := NewJobSystem(JobSystemConfig{Workers: 2})
	require.NoError(t, jobs.Initialize())

	root := t.TempDir()
	cfg := assets.DefaultRegistryConfig()
	cfg.AssetsRoot = root
	cfg.WatchSources = false
	cfg.UnloadGrace = 10 * time.Millisecond

	system, err := NewAssetSystem(cfg, jobs, rend)
	require.NoError(t, err)
	require.NoError(t, system.Initialize())

	t.Cleanup(func() {
		_ = system.Shutdown()
		_ = rend.Shutdown()
		if jobs.IsInitialized() {
			_ = jobs.Shutdown()
		}
	})
	return &assetFixture{backend: backend, rend: rend, jobs: jobs, system: system, root: root}
}

func (f *assetFixture) writePNG(t *testing.T, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), A: 0xFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(f.root, name), buf.Bytes(), 0o644))
}

// pump spins the frame loop pieces a load needs: drain the command
// queue on the render thread and let the registry publish completions.
func (f *assetFixture) pump(t *testing.T, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("asset pipeline did not settle in time")
		}
		f.rend.Queue().ProcessCommands()
		require.NoError(t, f.system.Update(0.016))
		time.Sleep(time.Millisecond)
	}
}

func TestAssetSystemLoadsThroughJobWorkers(t *testing.T) {
	f := newAssetFixture(t)
	f.writePNG(t, "brick.png")

	handle, err := f.system.Registry().LoadTexture("brick", "brick.png", assets.TextureOptions{}, nil)
	require.NoError(t, err)

	f.pump(t, handle.IsLoaded)

	require.True(t, handle.IsValid())
	tex := handle.Texture()
	require.NotNil(t, tex)
	assert.Equal(t, uint32(8), tex.Width)
	assert.Equal(t, 1, f.backend.LiveTextureCount())
	assert.GreaterOrEqual(t, f.jobs.Stats().Completed, uint64(1))

	handle.Release()
	f.pump(t, func() bool { return f.system.Registry().Count() == 0 })
	assert.Equal(t, 0, f.backend.LiveTextureCount())
}

func TestAssetSystemWorksWithoutJobSystem(t *testing.T) {
	backend := renderer.NewNullBackend()
	rend, err := renderer.New(backend, renderer.DefaultQueueConfig())
	require.NoError(t, err)
	rend.Queue().MarkRenderThread()
	require.NoError(t, rend.Initialize("sync-asset-test", 640, 480))

	root := t.TempDir()
	cfg := assets.DefaultRegistryConfig()
	cfg.AssetsRoot = root
	cfg.WatchSources = false

	system, err := NewAssetSystem(cfg, nil, rend)
	require.NoError(t, err)
	require.NoError(t, system.Initialize())
	t.Cleanup(func() {
		_ = system.Shutdown()
		_ = rend.Shutdown()
	})

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), data, 0o644))

	// Without workers the load completes inside the call.
	handle, err := system.Registry().LoadBinary("blob", "blob.bin", nil)
	require.NoError(t, err)
	assert.True(t, handle.IsLoaded())
	assert.Equal(t, data, handle.Bytes())
}

func TestAssetSystemRequiresRenderer(t *testing.T) {
	_, err := NewAssetSystem(assets.DefaultRegistryConfig(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.ErrNullReference, core.KindOf(err))
}

func TestAssetSystemInitializeFailsOnBadPack(t *testing.T) {
	backend := renderer.NewNullBackend()
	rend, err := renderer.New(backend, renderer.DefaultQueueConfig())
	require.NoError(t, err)

	cfg := assets.DefaultRegistryConfig()
	cfg.PackPath = filepath.Join(t.TempDir(), "missing.vxpk")
	cfg.WatchSources = false

	system, err := NewAssetSystem(cfg, nil, rend)
	require.NoError(t, err)

	err = system.Initialize()
	require.Error(t, err)
	assert.Equal(t, core.ErrEngineSystemInitFailed, core.KindOf(err))
	assert.False(t, system.IsInitialized())
}
