package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// newTestRegistry builds a registry over a null backend whose render
// thread is the test goroutine, so synchronous loads complete inline.
func newTestRegistry(t *testing.T, mutate func(*RegistryConfig)) (*Registry, *renderer.NullBackend) {
	t.Helper()
	backend := renderer.NewNullBackend()
	queue, err := renderer.NewCommandQueue(backend, renderer.DefaultQueueConfig())
	require.NoError(t, err)
	queue.MarkRenderThread()

	cfg := DefaultRegistryConfig()
	cfg.AssetsRoot = t.TempDir()
	cfg.UnloadGrace = 10 * time.Millisecond
	cfg.PollInterval = time.Nanosecond
	cfg.WatchSources = false
	if mutate != nil {
		mutate(&cfg)
	}

	r, err := NewRegistry(cfg, nil, queue)
	require.NoError(t, err)
	t.Cleanup(r.Shutdown)
	return r, backend
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeTexture(t *testing.T, r *Registry, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(r.config.AssetsRoot, name)
	require.NoError(t, os.WriteFile(path, encodePNG(t, width, height), 0o644))
	return path
}

func TestNewRegistryNeedsQueue(t *testing.T) {
	_, err := NewRegistry(DefaultRegistryConfig(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, core.ErrNullReference, core.KindOf(err))
}

func TestRegisterAssetLifecycle(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	id, err := r.RegisterAsset(&Asset{Name: "blob", Type: AssetTypeBinary, Data: []byte{1, 2}})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.True(t, r.IsLoaded(id), "payload-bearing assets register as Loaded")
	assert.Equal(t, float32(1), r.GetProgress(id))

	// Names are unique.
	_, err = r.RegisterAsset(&Asset{Name: "blob", Type: AssetTypeBinary})
	require.Error(t, err)
	assert.Equal(t, core.ErrInvalidParameter, core.KindOf(err))

	_, err = r.RegisterAsset(nil)
	assert.Equal(t, core.ErrNullReference, core.KindOf(err))
	_, err = r.RegisterAsset(&Asset{Type: AssetTypeBinary})
	assert.Equal(t, core.ErrInvalidParameter, core.KindOf(err))
	_, err = r.RegisterAsset(&Asset{Name: "untyped"})
	assert.Equal(t, core.ErrInvalidParameter, core.KindOf(err))

	require.NoError(t, r.UnregisterAsset(id))
	assert.Equal(t, AssetStateUnregistered, r.StateOf(id))
	assert.Equal(t, 0, r.Count())

	err = r.UnregisterAsset(id)
	require.Error(t, err)
	assert.Equal(t, core.ErrAssetNotFound, core.KindOf(err))
}

func TestRegisterWithoutPayloadIsLoading(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	id, err := r.RegisterAsset(&Asset{Name: "later", Type: AssetTypeBinary})
	require.NoError(t, err)
	assert.Equal(t, AssetStateLoading, r.StateOf(id))
	assert.False(t, r.IsLoaded(id))
	assert.Equal(t, float32(0), r.GetProgress(id))
}

func TestHandleLifecycle(t *testing.T) {
	r, backend := newTestRegistry(t, nil)
	writeTexture(t, r, "brick.png", 4, 4)

	h, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, nil)
	require.NoError(t, err)
	require.True(t, h.IsValid())
	assert.True(t, h.IsLoaded())
	assert.Equal(t, float32(1), h.Progress())
	assert.Equal(t, uint32(1), r.RefCount(h.ID()))
	assert.Equal(t, 1, backend.LiveTextureCount())

	clone := h.Clone()
	require.True(t, clone.IsValid())
	assert.Equal(t, uint32(2), r.RefCount(h.ID()))

	clone.Release()
	assert.Equal(t, uint32(1), r.RefCount(h.ID()))

	// A released handle warns and stops counting.
	clone.Release()
	assert.Equal(t, uint32(1), r.RefCount(h.ID()))
	assert.False(t, clone.IsValid())
	assert.Nil(t, clone.Texture())

	assert.Equal(t, "brick", h.Name())
	assert.Equal(t, AssetTypeTexture, h.Type())
	require.NotNil(t, h.Texture())
	assert.Equal(t, uint32(4), h.Texture().Width)
	assert.True(t, h.Texture().HasResource())
}

func TestInvalidHandleIsInert(t *testing.T) {
	h := InvalidHandle()
	assert.False(t, h.IsValid())
	assert.False(t, h.IsLoaded())
	assert.Equal(t, float32(0), h.Progress())
	assert.Equal(t, uuid.Nil, h.ID())
	assert.Nil(t, h.Texture())
	assert.Nil(t, h.Shader())
	assert.False(t, h.Clone().IsValid())
	h.Release()
}

func TestGetByNameAndUUID(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	writeTexture(t, r, "brick.png", 2, 2)

	h, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, nil)
	require.NoError(t, err)

	byName := r.GetByName("brick")
	require.True(t, byName.IsValid())
	assert.Equal(t, h.ID(), byName.ID())
	assert.Equal(t, uint32(2), r.RefCount(h.ID()))

	byID := r.GetByUUID(h.ID())
	require.True(t, byID.IsValid())
	assert.Equal(t, uint32(3), r.RefCount(h.ID()))

	assert.False(t, r.GetByName("nope").IsValid())
	assert.False(t, r.GetByUUID(uuid.New()).IsValid())

	byName.Release()
	byID.Release()
	assert.Equal(t, uint32(1), r.RefCount(h.ID()))
}

func TestLoadTextureDeduplicatesByName(t *testing.T) {
	r, backend := newTestRegistry(t, nil)
	writeTexture(t, r, "brick.png", 2, 2)

	first, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, nil)
	require.NoError(t, err)
	second, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, uint32(2), r.RefCount(first.ID()))
	assert.Equal(t, 1, backend.LiveTextureCount(), "one GPU texture for one name")

	// Same name, different type is refused.
	_, err = r.LoadBinary("brick", "brick.png", nil)
	require.Error(t, err)
	assert.Equal(t, core.ErrInvalidParameter, core.KindOf(err))
}

func TestLoadTextureProgressSequence(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	writeTexture(t, r, "brick.png", 2, 2)

	var seen []float32
	_, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, func(p float32) {
		seen = append(seen, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, float32(1), seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress never goes backwards")
	}
}

func TestLoadTextureMissingFileInstallsFallback(t *testing.T) {
	r, backend := newTestRegistry(t, nil)

	h, err := r.LoadTexture("ghost", "no/such/file.png", TextureOptions{}, nil)
	require.NoError(t, err, "the handle is returned; failure surfaces as fallback state")

	assert.True(t, h.IsLoaded())
	require.NotNil(t, h.Texture())
	assert.Equal(t, metadata.FALLBACK_TEXTURE_NAME, h.Texture().Name)
	assert.Equal(t, metadata.FALLBACK_TEXTURE_DIMENSION, h.Texture().Width)
	assert.True(t, r.lookup(h.ID()).UsesFallback())
	assert.Equal(t, 1, backend.LiveTextureCount())
}

func TestLoadTextureCorruptBytesInstallsFallback(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	path := filepath.Join(r.config.AssetsRoot, "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	h, err := r.LoadTexture("garbage", "garbage.png", TextureOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, h.IsLoaded())
	assert.Equal(t, metadata.FALLBACK_TEXTURE_NAME, h.Texture().Name)
}

func TestFallbackTextureIsShared(t *testing.T) {
	r, backend := newTestRegistry(t, nil)

	a, err := r.LoadTexture("ghost-a", "missing-a.png", TextureOptions{}, nil)
	require.NoError(t, err)
	b, err := r.LoadTexture("ghost-b", "missing-b.png", TextureOptions{}, nil)
	require.NoError(t, err)

	assert.Same(t, a.Texture(), b.Texture())
	assert.Equal(t, 1, backend.LiveTextureCount())

	// Erasing one fallback user must not destroy the shared texture.
	require.NoError(t, r.UnregisterAsset(a.ID()))
	assert.Equal(t, 1, backend.LiveTextureCount())
}

func TestDelayedUnloadAndReacquire(t *testing.T) {
	r, backend := newTestRegistry(t, nil)
	writeTexture(t, r, "brick.png", 2, 2)

	h, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, nil)
	require.NoError(t, err)
	id := h.ID()
	require.Equal(t, 1, backend.LiveTextureCount())

	h.Release()
	r.Update()
	assert.Equal(t, 1, r.Count(), "grace period keeps the asset alive")

	// Reacquiring during grace cancels the unload.
	require.True(t, r.Acquire(id))
	time.Sleep(15 * time.Millisecond)
	r.Update()
	assert.Equal(t, 1, r.Count())
	assert.True(t, r.IsLoaded(id))

	r.Release(id)
	time.Sleep(15 * time.Millisecond)
	r.Update()
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, backend.LiveTextureCount(), "GPU texture destroyed on unload")
	assert.False(t, r.GetByName("brick").IsValid())
}

func TestReleaseBelowZeroWarnsAndHolds(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	id, err := r.RegisterAsset(&Asset{Name: "blob", Type: AssetTypeBinary, Data: []byte{1}})
	require.NoError(t, err)

	r.Release(id)
	assert.Equal(t, uint32(0), r.RefCount(id))
	r.Release(uuid.New())
}

func TestDependencyBlocksUnload(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	writeTexture(t, r, "brick.png", 2, 2)

	tex, err := r.LoadTexture("brick", "brick.png", TextureOptions{}, nil)
	require.NoError(t, err)

	// A material-style asset that lists the texture without holding a
	// reference of its own.
	matID, err := r.RegisterAsset(&Asset{
		Name:         "brick-material",
		Type:         AssetTypeBinary,
		Data:         []byte("material"),
		Dependencies: []uuid.UUID{tex.ID()},
	})
	require.NoError(t, err)
	mat := r.GetByUUID(matID)
	require.True(t, mat.IsValid())

	texID := tex.ID()
	tex.Release()
	time.Sleep(15 * time.Millisecond)
	r.Update()
	assert.True(t, r.IsLoaded(texID), "a referenced dependent keeps the texture alive")

	// Once the dependent goes away the texture is collectable again.
	mat.Release()
	time.Sleep(15 * time.Millisecond)
	r.Update()
	assert.False(t, r.GetByUUID(matID).IsValid())

	time.Sleep(15 * time.Millisecond)
	r.Update()
	assert.False(t, r.GetByUUID(texID).IsValid(), "dependency erased after its dependent")
	assert.Equal(t, 0, r.Count())
}

func TestLoadBinary(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	path := filepath.Join(r.config.AssetsRoot, "table.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 8, 7}, 0o644))

	h, err := r.LoadBinary("table", "table.bin", nil)
	require.NoError(t, err)
	assert.True(t, h.IsLoaded())
	assert.Equal(t, []uint8{9, 8, 7}, h.Bytes())
}

func TestLoadBinaryMissingFileFails(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	h, err := r.LoadBinary("ghost", "missing.bin", nil)
	require.NoError(t, err)
	assert.False(t, h.IsLoaded())
	assert.Equal(t, AssetStateFailed, h.State(), "binary assets have no fallback")
	assert.Nil(t, h.Bytes())
}

func TestLoadFromPack(t *testing.T) {
	packDir := t.TempDir()
	w := NewPackWriter()
	pngBytes := encodePNG(t, 8, 8)
	require.NoError(t, w.AddBytes("textures/brick.png", pngBytes))
	require.NoError(t, w.AddBytes("data/table.bin", []byte{5}))
	packPath := filepath.Join(packDir, "game.vxpk")
	require.NoError(t, w.WriteFile(packPath))

	r, _ := newTestRegistry(t, func(cfg *RegistryConfig) {
		cfg.PackPath = packPath
	})
	require.NotNil(t, r.Pack())

	// Extension-less key resolves through the candidate list.
	h, err := r.LoadTexture("brick", "textures/brick", TextureOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, h.IsLoaded())
	assert.Equal(t, uint32(8), h.Texture().Width)

	b, err := r.LoadBinary("table", "data/table.bin", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{5}, b.Bytes())
}

func TestRegistryShutdownDestroysEverything(t *testing.T) {
	backend := renderer.NewNullBackend()
	queue, err := renderer.NewCommandQueue(backend, renderer.DefaultQueueConfig())
	require.NoError(t, err)
	queue.MarkRenderThread()

	cfg := DefaultRegistryConfig()
	cfg.AssetsRoot = t.TempDir()
	cfg.WatchSources = false
	r, err := NewRegistry(cfg, nil, queue)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsRoot, "a.png"), encodePNG(t, 2, 2), 0o644))
	_, err = r.LoadTexture("a", "a.png", TextureOptions{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, backend.LiveTextureCount())

	r.Shutdown()
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, backend.LiveTextureCount())

	// Repeat shutdown warns, registrations are refused.
	r.Shutdown()
	_, err = r.RegisterAsset(&Asset{Name: "late", Type: AssetTypeBinary, Data: []byte{1}})
	require.Error(t, err)
	assert.Equal(t, core.ErrInvalidState, core.KindOf(err))
}

// manualRunner queues tasks until the test runs them, standing in for
// the job system's worker pool.
type manualRunner struct {
	tasks []func() error
}

func (m *manualRunner) Run(_ string, task func() error, onComplete func(error)) {
	m.tasks = append(m.tasks, func() error {
		err := task()
		if onComplete != nil {
			onComplete(err)
		}
		return err
	})
}

func (m *manualRunner) drain() {
	for _, task := range m.tasks {
		_ = task()
	}
	m.tasks = nil
}

func TestLoadAbandonedWhenAllReferencesDropPreCompletion(t *testing.T) {
	backend := renderer.NewNullBackend()
	queue, err := renderer.NewCommandQueue(backend, renderer.DefaultQueueConfig())
	require.NoError(t, err)
	queue.MarkRenderThread()

	runner := &manualRunner{}
	cfg := DefaultRegistryConfig()
	cfg.AssetsRoot = t.TempDir()
	cfg.UnloadGrace = 10 * time.Millisecond
	cfg.WatchSources = false
	r, err := NewRegistry(cfg, runner, queue)
	require.NoError(t, err)
	t.Cleanup(r.Shutdown)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsRoot, "big.png"), encodePNG(t, 4, 4), 0o644))

	h, err := r.LoadTexture("big", "big.png", TextureOptions{}, nil)
	require.NoError(t, err)
	id := h.ID()
	assert.Equal(t, AssetStateLoading, h.State(), "task has not run yet")

	// Lose the only reference before the task executes.
	h.Release()
	runner.drain()

	assert.Equal(t, AssetStateLoading, r.StateOf(id), "abandoned load leaves state alone")
	assert.Equal(t, 0, backend.LiveTextureCount(), "no GPU work for an abandoned load")

	time.Sleep(15 * time.Millisecond)
	r.Update()
	assert.Equal(t, 0, r.Count())
}
