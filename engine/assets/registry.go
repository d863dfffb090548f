package assets

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

const (
	/** @brief How long an unreferenced asset survives before the next Update erases it. */
	DEFAULT_UNLOAD_GRACE = 5 * time.Second
	/** @brief Shader sources are re-checked for changes at most this often. */
	DEFAULT_POLL_INTERVAL = 500 * time.Millisecond
	/** @brief Pack directory holding precompiled shader bytecode. */
	SHADER_CACHE_DIR = "Cache/Shaders"
)

// TaskRunner schedules background work for the registry. The job
// system adapts onto this; when nothing is wired the registry falls
// back to running tasks inline.
type TaskRunner interface {
	Run(name string, task func() error, onComplete func(error))
}

type syncRunner struct{}

func (syncRunner) Run(name string, task func() error, onComplete func(error)) {
	err := task()
	if onComplete != nil {
		onComplete(err)
	}
}

// ProgressFunc observes load progress in [0,1]. It is invoked from
// whatever goroutine publishes the progress point.
type ProgressFunc func(progress float32)

// sourceRef is one on-disk shader source the registry watches.
type sourceRef struct {
	path    string
	modTime time.Time
}

type loadResult struct {
	id       uuid.UUID
	name     string
	kind     string
	err      error
	fallback bool
	canceled bool
}

type RegistryConfig struct {
	// AssetsRoot anchors relative asset paths on disk.
	AssetsRoot string
	// PackPath, when set, names a VXPK archive consulted before disk.
	PackPath string
	// UnloadGrace is how long a zero-reference asset lingers.
	UnloadGrace time.Duration
	// PollInterval throttles shader source change checks.
	PollInterval time.Duration
	// Compiler builds shader stage bytecode. Defaults to the source
	// passthrough.
	Compiler ShaderCompiler
	// WatchSources turns on filesystem notification for shader
	// sources. Without it every poll stats every tracked source.
	WatchSources bool
	// FlipTexturesY flips decoded images for bottom-left origin
	// backends.
	FlipTexturesY bool
}

func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		AssetsRoot:   "assets",
		UnloadGrace:  DEFAULT_UNLOAD_GRACE,
		PollInterval: DEFAULT_POLL_INTERVAL,
		Compiler:     SourceCompiler{},
		WatchSources: true,
	}
}

/**
 * @brief Owns every registered asset and its lifecycle.
 *
 * One mutex guards all tables. Background tasks take it briefly to
 * publish progress and final state; GPU object creation is serialized
 * through the render command queue.
 */
type Registry struct {
	mu            sync.RWMutex
	assets        map[uuid.UUID]*Asset
	byName        map[string]uuid.UUID
	refCounts     map[uuid.UUID]uint32
	pendingUnload map[uuid.UUID]time.Time
	reloading     map[uuid.UUID]bool
	dirty         map[string]bool
	watchedDirs   map[string]bool

	config RegistryConfig
	runner TaskRunner
	queue  *renderer.CommandQueue
	pack   *PackReader

	watcher     *fsnotify.Watcher
	watcherDone chan struct{}

	results  chan loadResult
	lastPoll time.Time

	fallbackTexture *metadata.Texture

	shutdown bool
}

// NewRegistry wires a registry against a render command queue. A nil
// runner means loads execute synchronously on the calling goroutine.
func NewRegistry(config RegistryConfig, runner TaskRunner, queue *renderer.CommandQueue) (*Registry, error) {
	if queue == nil {
		return nil, core.NewError(core.ErrNullReference, "asset registry needs a render command queue")
	}
	if runner == nil {
		runner = syncRunner{}
	}
	if config.Compiler == nil {
		config.Compiler = SourceCompiler{}
	}
	if config.UnloadGrace <= 0 {
		config.UnloadGrace = DEFAULT_UNLOAD_GRACE
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DEFAULT_POLL_INTERVAL
	}

	r := &Registry{
		assets:        make(map[uuid.UUID]*Asset),
		byName:        make(map[string]uuid.UUID),
		refCounts:     make(map[uuid.UUID]uint32),
		pendingUnload: make(map[uuid.UUID]time.Time),
		reloading:     make(map[uuid.UUID]bool),
		dirty:         make(map[string]bool),
		watchedDirs:   make(map[string]bool),
		config:        config,
		runner:        runner,
		queue:         queue,
		results:       make(chan loadResult, 256),
	}

	if config.PackPath != "" {
		pack, err := OpenPack(config.PackPath)
		if err != nil {
			return nil, err
		}
		r.pack = pack
	}

	if config.WatchSources {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			core.LogWarn("asset registry: filesystem watching unavailable, falling back to polling: %v", err)
		} else {
			r.watcher = watcher
			r.watcherDone = make(chan struct{})
			go r.watchLoop()
		}
	}
	return r, nil
}

func (r *Registry) watchLoop() {
	for {
		select {
		case e, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				r.mu.Lock()
				r.dirty[filepath.Clean(e.Name)] = true
				r.mu.Unlock()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %v", err)
		case <-r.watcherDone:
			return
		}
	}
}

// RegisterAsset adds a caller-built asset. Assets arriving with a
// payload are immediately Loaded; payload-free ones sit in Loading
// until something drives them.
func (r *Registry) RegisterAsset(a *Asset) (uuid.UUID, error) {
	if a == nil {
		return uuid.Nil, core.NewError(core.ErrNullReference, "cannot register a nil asset")
	}
	if a.Name == "" {
		return uuid.Nil, core.NewError(core.ErrInvalidParameter, "asset needs a name")
	}
	if a.Type == AssetTypeNone {
		return uuid.Nil, core.NewError(core.ErrInvalidParameter, "asset %s needs a type", a.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return uuid.Nil, core.NewError(core.ErrInvalidState, "asset registry is shut down")
	}
	if _, taken := r.byName[a.Name]; taken {
		return uuid.Nil, core.NewError(core.ErrInvalidParameter, "asset name %s is already registered", a.Name)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, taken := r.assets[a.ID]; taken {
		return uuid.Nil, core.NewError(core.ErrInvalidParameter, "asset id %s is already registered", a.ID)
	}

	if a.hasPayload() {
		a.state = AssetStateLoaded
		a.progress = 1
	} else {
		a.state = AssetStateLoading
		a.progress = 0
	}
	r.assets[a.ID] = a
	r.byName[a.Name] = a.ID
	r.refCounts[a.ID] = 0
	return a.ID, nil
}

// UnregisterAsset destroys the asset's GPU payload and erases it, live
// references or not.
func (r *Registry) UnregisterAsset(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.assets[id]
	if a == nil {
		return core.NewError(core.ErrAssetNotFound, "no asset registered under %s", id)
	}
	if rc := r.refCounts[id]; rc > 0 {
		core.LogWarn("unregistering asset %s with %d live references", a.Name, rc)
	}
	r.eraseLocked(a)
	return nil
}

// Acquire takes a reference. Acquiring during the unload grace period
// cancels the pending unload.
func (r *Registry) Acquire(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[id]; !ok {
		return false
	}
	r.acquireLocked(id)
	return true
}

// Release gives a reference back. The last release schedules a delayed
// unload after the grace period.
func (r *Registry) Release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.assets[id]
	if a == nil {
		return
	}
	if r.refCounts[id] == 0 {
		core.LogWarn("asset %s released more times than acquired", a.Name)
		return
	}
	r.releaseLocked(id)
}

func (r *Registry) acquireLocked(id uuid.UUID) {
	r.refCounts[id]++
	delete(r.pendingUnload, id)
}

func (r *Registry) releaseLocked(id uuid.UUID) {
	rc := r.refCounts[id]
	if rc == 0 {
		return
	}
	rc--
	r.refCounts[id] = rc
	if rc == 0 {
		r.pendingUnload[id] = time.Now().Add(r.config.UnloadGrace)
	}
}

// GetByUUID returns a counted handle, or an invalid handle when
// nothing is registered under the id. Valid handles must be released.
func (r *Registry) GetByUUID(id uuid.UUID) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[id]; !ok {
		return InvalidHandle()
	}
	r.acquireLocked(id)
	return &Handle{registry: r, id: id}
}

// GetByName resolves the unique asset name to a counted handle.
func (r *Registry) GetByName(name string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[name]
	if !ok {
		return InvalidHandle()
	}
	r.acquireLocked(id)
	return &Handle{registry: r, id: id}
}

func (r *Registry) IsLoaded(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.assets[id]
	return a != nil && a.state == AssetStateLoaded
}

func (r *Registry) GetProgress(id uuid.UUID) float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.assets[id]
	if a == nil {
		return 0
	}
	return a.progress
}

func (r *Registry) StateOf(id uuid.UUID) AssetState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.assets[id]
	if a == nil {
		return AssetStateUnregistered
	}
	return a.state
}

// RefCount reports the live reference count for an asset.
func (r *Registry) RefCount(id uuid.UUID) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refCounts[id]
}

// Count reports how many assets are registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

func (r *Registry) exists(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[id]
	return ok
}

func (r *Registry) lookup(id uuid.UUID) *Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assets[id]
}

// Update drains completed task results, erases assets whose unload
// grace expired and checks shader sources for changes.
func (r *Registry) Update() {
	r.drainResults()
	r.processPendingUnloads()
	r.pollShaderSources()
}

func (r *Registry) drainResults() {
	for {
		select {
		case res := <-r.results:
			switch {
			case res.canceled:
				core.LogDebug("asset %s %s abandoned, no references left", res.name, res.kind)
			case res.err != nil && res.fallback:
				core.LogWarn("asset %s %s substituted a fallback: %v", res.name, res.kind, res.err)
			case res.err != nil:
				core.LogError("asset %s %s failed: %v", res.name, res.kind, res.err)
			default:
				core.LogDebug("asset %s %s complete", res.name, res.kind)
			}
		default:
			return
		}
	}
}

func (r *Registry) processPendingUnloads() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, deadline := range r.pendingUnload {
		if now.Before(deadline) {
			continue
		}
		delete(r.pendingUnload, id)
		if r.refCounts[id] > 0 {
			continue
		}
		if r.referencedAsDependencyLocked(id) {
			continue
		}
		a := r.assets[id]
		if a == nil {
			continue
		}
		core.LogDebug("asset %s unload grace expired", a.Name)
		r.eraseLocked(a)
	}
}

// referencedAsDependencyLocked reports whether any loaded asset with
// live references lists id among its dependencies.
func (r *Registry) referencedAsDependencyLocked(id uuid.UUID) bool {
	for otherID, other := range r.assets {
		if otherID == id || other.state != AssetStateLoaded || r.refCounts[otherID] == 0 {
			continue
		}
		for _, dep := range other.Dependencies {
			if dep == id {
				return true
			}
		}
	}
	return false
}

// eraseLocked destroys the payload, releases dependencies and removes
// the asset from every table.
func (r *Registry) eraseLocked(a *Asset) {
	r.destroyPayloadLocked(a)
	for _, dep := range a.Dependencies {
		if r.refCounts[dep] > 0 {
			r.releaseLocked(dep)
			continue
		}
		// A dependency this asset only listed, never acquired. It may
		// have survived solely on the dependency check, so queue it.
		if _, exists := r.assets[dep]; exists {
			if _, pending := r.pendingUnload[dep]; !pending {
				r.pendingUnload[dep] = time.Now().Add(r.config.UnloadGrace)
			}
		}
	}
	a.state = AssetStateUnloaded
	delete(r.assets, a.ID)
	delete(r.byName, a.Name)
	delete(r.refCounts, a.ID)
	delete(r.pendingUnload, a.ID)
	delete(r.reloading, a.ID)
}

// destroyPayloadLocked queues deferred GPU destruction. The command
// bodies touch only the backend, never registry state, so queueing
// while holding the registry mutex stays safe even when the submit
// executes inline on the render thread.
func (r *Registry) destroyPayloadLocked(a *Asset) {
	switch {
	case a.Texture != nil && a.Texture != r.fallbackTexture && a.Texture.HasResource():
		t := a.Texture
		if err := r.queue.Submit(renderer.NewFuncCommand("texture.destroy:"+a.Name, 1, func(b renderer.Backend) error {
			b.TextureDestroy(t)
			return nil
		}), false); err != nil {
			core.LogWarn("asset %s: texture destroy not queued: %v", a.Name, err)
		}
	case a.Shader != nil && a.Shader.HasResource():
		s := a.Shader
		if err := r.queue.Submit(renderer.NewFuncCommand("shader.destroy:"+a.Name, 1, func(b renderer.Backend) error {
			b.ShaderDestroy(s)
			return nil
		}), false); err != nil {
			core.LogWarn("asset %s: shader destroy not queued: %v", a.Name, err)
		}
	}
}

// Pack exposes the attached pack reader, nil without one.
func (r *Registry) Pack() *PackReader { return r.pack }

// Shutdown destroys every asset and stops the source watcher. Safe to
// call once; repeats warn and return.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		core.LogWarn("asset registry already shut down")
		return
	}
	r.shutdown = true

	for _, a := range r.assets {
		r.destroyPayloadLocked(a)
		a.state = AssetStateUnloaded
	}
	count := len(r.assets)
	r.assets = make(map[uuid.UUID]*Asset)
	r.byName = make(map[string]uuid.UUID)
	r.refCounts = make(map[uuid.UUID]uint32)
	r.pendingUnload = make(map[uuid.UUID]time.Time)
	r.reloading = make(map[uuid.UUID]bool)

	watcher := r.watcher
	done := r.watcherDone
	r.watcher = nil
	r.watcherDone = nil
	pack := r.pack
	r.pack = nil
	r.mu.Unlock()

	if done != nil {
		close(done)
	}
	if watcher != nil {
		watcher.Close()
	}
	if pack != nil {
		pack.Close()
	}
	core.LogInfo("asset registry shut down, %d assets destroyed", count)
}

func (a *Asset) hasPayload() bool {
	return a.Texture != nil || a.Shader != nil || a.Font != nil || a.Data != nil
}

func (r *Registry) postResult(res loadResult) {
	select {
	case r.results <- res:
	default:
		core.LogWarn("asset result queue full, dropping record for %s", res.name)
	}
}
