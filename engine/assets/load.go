package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hcfgod/Vortex-sub001/engine/assets/loaders"
	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

// Built-in program substituted when a shader fails to build. It renders
// solid magenta, loud enough to spot in any scene.
const fallbackVertexSource = `#version 450
layout(location = 0) in vec3 in_position;
void main() {
    gl_Position = vec4(in_position, 1.0);
}
`

const fallbackFragmentSource = `#version 450
layout(location = 0) out vec4 out_color;
void main() {
    out_color = vec4(1.0, 0.0, 1.0, 1.0);
}
`

// TextureOptions tune a texture load.
type TextureOptions struct {
	FlipY     bool
	Writeable bool
}

// LoadTexture schedules a background texture load and returns a live
// handle immediately. A name already registered returns an additional
// handle to the existing asset instead of loading again.
func (r *Registry) LoadTexture(name, path string, opts TextureOptions, onProgress ProgressFunc) (*Handle, error) {
	a := &Asset{
		Name:    name,
		Type:    AssetTypeTexture,
		Texture: metadata.NewTexture(name),
	}
	a.Texture.IsWriteable = opts.Writeable

	handle, created, err := r.beginLoad(a)
	if err != nil || !created {
		return handle, err
	}
	id := a.ID
	r.runner.Run("texture.load:"+name, func() error {
		return r.runTextureLoad(id, name, path, opts, onProgress)
	}, nil)
	return handle, nil
}

// LoadShader schedules a shader build from the two stage sources.
func (r *Registry) LoadShader(name, vertexPath, fragmentPath string, options metadata.ShaderOptions, onProgress ProgressFunc) (*Handle, error) {
	return r.loadShader(name, vertexPath, fragmentPath, options, ShaderCompileOptions{}, onProgress)
}

// LoadShaderFromManifest reads a manifest, resolving it against the
// pack first, and loads the shader it describes.
func (r *Registry) LoadShaderFromManifest(path string, options metadata.ShaderOptions, onProgress ProgressFunc) (*Handle, error) {
	m, err := LoadShaderManifest(r.pack, r.diskPath(path))
	if err != nil {
		return InvalidHandle(), err
	}
	return r.loadShader(m.Name, m.Vertex, m.Fragment, options, m.Options, onProgress)
}

func (r *Registry) loadShader(name, vertexPath, fragmentPath string, options metadata.ShaderOptions, compileOpts ShaderCompileOptions, onProgress ProgressFunc) (*Handle, error) {
	a := &Asset{
		Name:   name,
		Type:   AssetTypeShader,
		Shader: metadata.NewShader(name, options),
	}
	a.Shader.VertexPath = vertexPath
	a.Shader.FragmentPath = fragmentPath
	a.compileOpts = compileOpts

	handle, created, err := r.beginLoad(a)
	if err != nil || !created {
		return handle, err
	}
	id := a.ID
	r.runner.Run("shader.load:"+name, func() error {
		return r.runShaderLoad(id, false, onProgress)
	}, nil)
	return handle, nil
}

// LoadBitmapFont loads an AngelCode .fnt descriptor and its page
// textures. Page textures become dependencies of the font asset.
func (r *Registry) LoadBitmapFont(name, path string, onProgress ProgressFunc) (*Handle, error) {
	a := &Asset{Name: name, Type: AssetTypeBitmapFont}
	handle, created, err := r.beginLoad(a)
	if err != nil || !created {
		return handle, err
	}
	id := a.ID
	r.runner.Run("font.load:"+name, func() error {
		return r.runFontLoad(id, name, path, onProgress)
	}, nil)
	return handle, nil
}

// LoadBinary loads raw bytes. There is no fallback for binary assets;
// failure leaves the asset Failed.
func (r *Registry) LoadBinary(name, path string, onProgress ProgressFunc) (*Handle, error) {
	a := &Asset{Name: name, Type: AssetTypeBinary}
	handle, created, err := r.beginLoad(a)
	if err != nil || !created {
		return handle, err
	}
	id := a.ID
	r.runner.Run("binary.load:"+name, func() error {
		return r.runBinaryLoad(id, name, path, onProgress)
	}, nil)
	return handle, nil
}

// beginLoad registers the asset in the Loading state with one
// reference held by the returned handle. When the name is already
// taken by an asset of the same type, the existing asset gains a
// reference instead and created comes back false.
func (r *Registry) beginLoad(a *Asset) (*Handle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return InvalidHandle(), false, core.NewError(core.ErrInvalidState, "asset registry is shut down")
	}
	if id, ok := r.byName[a.Name]; ok {
		existing := r.assets[id]
		if existing.Type != a.Type {
			return InvalidHandle(), false, core.NewError(core.ErrInvalidParameter,
				"asset name %s is already a %s", a.Name, existing.Type)
		}
		r.acquireLocked(id)
		return &Handle{registry: r, id: id}, false, nil
	}

	a.ID = uuid.New()
	a.state = AssetStateLoading
	a.progress = 0
	r.assets[a.ID] = a
	r.byName[a.Name] = a.ID
	r.refCounts[a.ID] = 1
	return &Handle{registry: r, id: a.ID}, true, nil
}

// --- texture pipeline ---

func (r *Registry) runTextureLoad(id uuid.UUID, name, path string, opts TextureOptions, onProgress ProgressFunc) error {
	r.publishProgress(id, 0, onProgress)

	data, _, err := r.readAssetBytes(path)
	if err != nil {
		r.installTextureFallback(id, name, onProgress, err)
		return err
	}
	r.publishProgress(id, 0.25, onProgress)
	if r.abandonIfUnreferenced(id, name, "load") {
		return nil
	}

	flip := opts.FlipY || r.config.FlipTexturesY
	img, err := loaders.DecodeImage(data, flip)
	if err != nil {
		r.installTextureFallback(id, name, onProgress, err)
		return err
	}
	r.publishProgress(id, 0.5, onProgress)
	if r.abandonIfUnreferenced(id, name, "load") {
		return nil
	}

	r.mu.Lock()
	a := r.assets[id]
	if a == nil || a.Texture == nil {
		r.mu.Unlock()
		return nil
	}
	t := a.Texture
	t.Width = img.Width
	t.Height = img.Height
	t.ChannelCount = img.ChannelCount
	t.HasTransparency = img.HasTransparency
	r.mu.Unlock()
	r.publishProgress(id, 0.75, onProgress)

	err = r.queue.Submit(renderer.NewFuncCommand("texture.create:"+name, 1, func(b renderer.Backend) error {
		if r.lookup(id) == nil {
			// Unregistered while queued; skip so no GPU object leaks.
			return nil
		}
		if cerr := b.TextureCreate(img.Pixels, t); cerr != nil {
			r.installTextureFallback(id, name, onProgress, cerr)
			return cerr
		}
		r.finishLoad(id, name, "load", onProgress)
		return nil
	}), false)
	if err != nil {
		r.installTextureFallback(id, name, onProgress, err)
		return err
	}
	return nil
}

// installTextureFallback swaps in the shared magenta error texture and
// reports the asset Loaded with the fallback flag set.
func (r *Registry) installTextureFallback(id uuid.UUID, name string, onProgress ProgressFunc, cause error) {
	core.LogError("texture %s: %v", name, cause)
	err := r.queue.Submit(renderer.NewFuncCommand("texture.fallback:"+name, 1, func(b renderer.Backend) error {
		fallback, ferr := r.ensureFallbackTexture(b)
		if ferr != nil {
			r.failLoad(id, name, "load", ferr)
			return ferr
		}
		r.mu.Lock()
		if a := r.assets[id]; a != nil {
			a.Texture = fallback
			a.state = AssetStateLoaded
			a.progress = 1
			a.usingFallback = true
		}
		r.mu.Unlock()
		if onProgress != nil {
			onProgress(1)
		}
		r.postResult(loadResult{id: id, name: name, kind: "load", err: cause, fallback: true})
		return nil
	}), false)
	if err != nil {
		r.failLoad(id, name, "load", cause)
	}
}

// ensureFallbackTexture lazily creates the shared error texture. Runs
// on the render thread only.
func (r *Registry) ensureFallbackTexture(b renderer.Backend) (*metadata.Texture, error) {
	r.mu.RLock()
	existing := r.fallbackTexture
	r.mu.RUnlock()
	if existing != nil {
		return existing, nil
	}

	img := loaders.SolidColorImage(metadata.FALLBACK_TEXTURE_DIMENSION, 0xFF, 0x00, 0xFF, 0xFF)
	t := metadata.NewTexture(metadata.FALLBACK_TEXTURE_NAME)
	t.Width = img.Width
	t.Height = img.Height
	t.ChannelCount = img.ChannelCount
	if err := b.TextureCreate(img.Pixels, t); err != nil {
		return nil, core.WrapError(core.ErrTextureLoadFailed, err, "fallback texture creation failed")
	}
	r.mu.Lock()
	r.fallbackTexture = t
	r.mu.Unlock()
	return t, nil
}

// --- shader pipeline ---

func (r *Registry) runShaderLoad(id uuid.UUID, reload bool, onProgress ProgressFunc) error {
	r.mu.RLock()
	a := r.assets[id]
	if a == nil || a.Shader == nil {
		r.mu.RUnlock()
		return nil
	}
	name := a.Name
	s := a.Shader
	vertexPath := s.VertexPath
	fragmentPath := s.FragmentPath
	compileOpts := a.compileOpts
	r.mu.RUnlock()

	kind := "load"
	if reload {
		kind = "reload"
	}
	r.publishProgress(id, 0, onProgress)

	var attributes []metadata.ShaderAttribute
	var uniforms []metadata.ShaderUniform
	var sources []sourceRef
	stages := make(map[metadata.ShaderStage][]uint8, 2)

	plan := []struct {
		stage    metadata.ShaderStage
		path     string
		cacheExt string
		progress float32
	}{
		{metadata.ShaderStageVertex, vertexPath, "vert", 0.25},
		{metadata.ShaderStageFragment, fragmentPath, "frag", 0.5},
	}
	for _, step := range plan {
		bytecode, src, ref, err := r.stageBytecode(name, step.stage, step.path, step.cacheExt, compileOpts)
		if err != nil {
			// Track the failing stage's source anyway so that fixing
			// the file triggers a reload out of the fallback.
			if ref.path != "" {
				sources = append(sources, ref)
			}
			if reload {
				r.finishReloadFailure(id, name, err)
			} else {
				r.installShaderFallback(id, name, sources, onProgress, err)
			}
			return err
		}
		stages[step.stage] = bytecode
		if src != nil {
			attrs, unis := loaders.ReflectShaderSource(step.stage, src)
			attributes = append(attributes, attrs...)
			uniforms = append(uniforms, unis...)
		}
		if ref.path != "" {
			sources = append(sources, ref)
		}
		r.publishProgress(id, step.progress, onProgress)
	}

	if !reload && r.abandonIfUnreferenced(id, name, kind) {
		return nil
	}
	r.publishProgress(id, 0.75, onProgress)

	err := r.queue.Submit(renderer.NewFuncCommand("shader.create:"+name, 1, func(b renderer.Backend) error {
		if r.lookup(id) == nil {
			return nil
		}
		if cerr := b.ShaderCreate(s, stages); cerr != nil {
			if reload {
				r.finishReloadFailure(id, name, cerr)
			} else {
				r.installShaderFallback(id, name, sources, onProgress, cerr)
			}
			return cerr
		}
		r.mu.Lock()
		if cur := r.assets[id]; cur != nil {
			cur.Shader.Attributes = attributes
			cur.Shader.Uniforms = uniforms
			cur.sources = sources
			cur.state = AssetStateLoaded
			cur.progress = 1
			cur.usingFallback = false
			delete(r.reloading, id)
		}
		r.mu.Unlock()
		r.watchSourceDirs(sources)
		if onProgress != nil {
			onProgress(1)
		}
		r.postResult(loadResult{id: id, name: name, kind: kind})
		return nil
	}), false)
	if err != nil {
		if reload {
			r.finishReloadFailure(id, name, err)
		} else {
			r.installShaderFallback(id, name, sources, onProgress, err)
		}
		return err
	}
	return nil
}

// stageBytecode fetches one stage: precompiled bytecode from the pack
// cache when present, otherwise source compiled through the configured
// compiler. src comes back non-nil only for the source path, ref only
// when the source lives on disk.
func (r *Registry) stageBytecode(name string, stage metadata.ShaderStage, path, cacheExt string, opts ShaderCompileOptions) (bytecode, src []uint8, ref sourceRef, err error) {
	if r.pack != nil {
		cacheKey := fmt.Sprintf("%s/%s.%s.spv", SHADER_CACHE_DIR, name, cacheExt)
		if data, cerr := r.pack.Read(cacheKey); cerr == nil {
			return data, nil, sourceRef{}, nil
		}
	}

	src, diskPath, err := r.readAssetBytes(path)
	if err != nil {
		return nil, nil, sourceRef{}, err
	}
	if diskPath != "" {
		ref = sourceRef{path: diskPath}
		if fi, serr := os.Stat(diskPath); serr == nil {
			ref.modTime = fi.ModTime()
		}
	}

	bytecode, err = r.config.Compiler.Compile(name, stage, src, opts)
	if err != nil {
		return nil, nil, ref, core.WrapError(core.ErrShaderCompilationFailed, err, "shader %s %s stage", name, stage)
	}
	return bytecode, src, ref, nil
}

// installShaderFallback builds the built-in passthrough program over
// the asset's own shader object so a later hot-reload can still swap
// the real program in.
func (r *Registry) installShaderFallback(id uuid.UUID, name string, sources []sourceRef, onProgress ProgressFunc, cause error) {
	core.LogError("shader %s: %v", name, cause)

	stages := make(map[metadata.ShaderStage][]uint8, 2)
	for stage, source := range map[metadata.ShaderStage]string{
		metadata.ShaderStageVertex:   fallbackVertexSource,
		metadata.ShaderStageFragment: fallbackFragmentSource,
	} {
		bytecode, err := r.config.Compiler.Compile(metadata.FALLBACK_SHADER_NAME, stage, []uint8(source), ShaderCompileOptions{})
		if err != nil {
			r.failLoad(id, name, "load", core.WrapError(core.ErrShaderCompilationFailed, err, "fallback shader %s stage", stage))
			return
		}
		stages[stage] = bytecode
	}

	r.mu.RLock()
	a := r.assets[id]
	if a == nil || a.Shader == nil {
		r.mu.RUnlock()
		return
	}
	s := a.Shader
	r.mu.RUnlock()

	err := r.queue.Submit(renderer.NewFuncCommand("shader.fallback:"+name, 1, func(b renderer.Backend) error {
		if r.lookup(id) == nil {
			return nil
		}
		if cerr := b.ShaderCreate(s, stages); cerr != nil {
			r.failLoad(id, name, "load", cerr)
			return cerr
		}
		vatts, vunis := loaders.ReflectShaderSource(metadata.ShaderStageVertex, []uint8(fallbackVertexSource))
		_, funis := loaders.ReflectShaderSource(metadata.ShaderStageFragment, []uint8(fallbackFragmentSource))
		r.mu.Lock()
		if cur := r.assets[id]; cur != nil {
			cur.Shader.Attributes = vatts
			cur.Shader.Uniforms = append(vunis, funis...)
			cur.sources = sources
			cur.state = AssetStateLoaded
			cur.progress = 1
			cur.usingFallback = true
			delete(r.reloading, id)
		}
		r.mu.Unlock()
		r.watchSourceDirs(sources)
		if onProgress != nil {
			onProgress(1)
		}
		r.postResult(loadResult{id: id, name: name, kind: "load", err: cause, fallback: true})
		return nil
	}), false)
	if err != nil {
		r.failLoad(id, name, "load", cause)
	}
}

// finishReloadFailure keeps the previous program and returns the asset
// to Loaded.
func (r *Registry) finishReloadFailure(id uuid.UUID, name string, cause error) {
	r.mu.Lock()
	if a := r.assets[id]; a != nil {
		a.state = AssetStateLoaded
		a.progress = 1
		delete(r.reloading, id)
	}
	r.mu.Unlock()
	r.postResult(loadResult{id: id, name: name, kind: "reload", err: cause})
}

// --- bitmap font pipeline ---

func (r *Registry) runFontLoad(id uuid.UUID, name, path string, onProgress ProgressFunc) error {
	r.publishProgress(id, 0, onProgress)

	data, diskPath, err := r.readAssetBytes(path)
	if err != nil {
		r.failLoad(id, name, "load", err)
		return err
	}
	r.publishProgress(id, 0.25, onProgress)

	desc, err := loaders.ParseBitmapFont(data)
	if err != nil {
		r.failLoad(id, name, "load", err)
		return err
	}
	r.publishProgress(id, 0.5, onProgress)
	if r.abandonIfUnreferenced(id, name, "load") {
		return nil
	}

	// Page textures load as separate assets the font depends on. The
	// references taken here are released when the font is erased.
	baseDir := filepath.ToSlash(filepath.Dir(path))
	if diskPath != "" {
		baseDir = filepath.ToSlash(filepath.Dir(diskPath))
	}
	var deps []uuid.UUID
	for i, file := range loaders.FontPageFiles(desc) {
		pageName := fmt.Sprintf("%s.page%d", name, i)
		pagePath := baseDir + "/" + file
		pageHandle, perr := r.LoadTexture(pageName, pagePath, TextureOptions{}, nil)
		if perr != nil {
			core.LogWarn("font %s: page texture %s not loaded: %v", name, file, perr)
			continue
		}
		deps = append(deps, pageHandle.ID())
	}
	r.publishProgress(id, 0.75, onProgress)

	r.mu.Lock()
	if a := r.assets[id]; a != nil {
		a.Font = desc
		a.Dependencies = deps
		a.state = AssetStateLoaded
		a.progress = 1
	}
	r.mu.Unlock()
	if onProgress != nil {
		onProgress(1)
	}
	r.postResult(loadResult{id: id, name: name, kind: "load"})
	return nil
}

// --- binary pipeline ---

func (r *Registry) runBinaryLoad(id uuid.UUID, name, path string, onProgress ProgressFunc) error {
	r.publishProgress(id, 0, onProgress)

	data, _, err := r.readAssetBytes(path)
	if err != nil {
		r.failLoad(id, name, "load", err)
		return err
	}
	r.publishProgress(id, 0.5, onProgress)
	if r.abandonIfUnreferenced(id, name, "load") {
		return nil
	}

	r.mu.Lock()
	if a := r.assets[id]; a != nil {
		a.Data = data
		a.state = AssetStateLoaded
		a.progress = 1
	}
	r.mu.Unlock()
	if onProgress != nil {
		onProgress(1)
	}
	r.postResult(loadResult{id: id, name: name, kind: "load"})
	return nil
}

// --- shared task plumbing ---

// publishProgress raises the asset's progress, never lowering it
// within a load attempt, then notifies the observer.
func (r *Registry) publishProgress(id uuid.UUID, p float32, onProgress ProgressFunc) {
	r.mu.Lock()
	a := r.assets[id]
	if a == nil {
		r.mu.Unlock()
		return
	}
	if p > a.progress {
		a.progress = p
	}
	published := a.progress
	r.mu.Unlock()
	if onProgress != nil {
		onProgress(published)
	}
}

// abandonIfUnreferenced is the cooperative cancellation point: a load
// whose asset lost all references stops doing work. The record stays
// until the delayed unload erases it.
func (r *Registry) abandonIfUnreferenced(id uuid.UUID, name, kind string) bool {
	r.mu.RLock()
	_, alive := r.assets[id]
	rc := r.refCounts[id]
	r.mu.RUnlock()
	if !alive {
		return true
	}
	if rc > 0 {
		return false
	}
	r.postResult(loadResult{id: id, name: name, kind: kind, canceled: true})
	return true
}

func (r *Registry) failLoad(id uuid.UUID, name, kind string, cause error) {
	r.mu.Lock()
	if a := r.assets[id]; a != nil {
		a.state = AssetStateFailed
		delete(r.reloading, id)
	}
	r.mu.Unlock()
	r.postResult(loadResult{id: id, name: name, kind: kind, err: cause})
}

// readAssetBytes reads from the pack first, then from disk. diskPath
// reports where the bytes came from when the filesystem served them.
func (r *Registry) readAssetBytes(path string) (data []uint8, diskPath string, err error) {
	if r.pack != nil {
		if data, err := r.pack.Read(path); err == nil {
			return data, "", nil
		}
	}
	p := r.diskPath(path)
	data, err = os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", core.WrapError(core.ErrFileNotFound, err, "asset %s not found", path)
		}
		return nil, "", core.WrapError(core.ErrFileAccessDenied, err, "cannot read asset %s", path)
	}
	return data, p, nil
}

// diskPath anchors relative paths at the assets root when the file is
// not reachable as given.
func (r *Registry) diskPath(path string) string {
	if filepath.IsAbs(path) || r.config.AssetsRoot == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(r.config.AssetsRoot, path)
}

// watchSourceDirs adds the parent directories of tracked sources to
// the filesystem watcher.
func (r *Registry) watchSourceDirs(sources []sourceRef) {
	if r.watcher == nil {
		return
	}
	for _, src := range sources {
		dir := filepath.Dir(src.path)
		r.mu.Lock()
		seen := r.watchedDirs[dir]
		if !seen {
			r.watchedDirs[dir] = true
		}
		r.mu.Unlock()
		if !seen {
			if err := r.watcher.Add(dir); err != nil {
				core.LogWarn("asset watcher: cannot watch %s: %v", dir, err)
			}
		}
	}
}

// pollShaderSources checks tracked shader sources for modification and
// enqueues recompiles, at most once per poll interval.
func (r *Registry) pollShaderSources() {
	now := time.Now()
	if now.Sub(r.lastPoll) < r.config.PollInterval {
		return
	}
	r.lastPoll = now

	type reloadCandidate struct {
		id   uuid.UUID
		name string
	}
	var candidates []reloadCandidate

	r.mu.Lock()
	dirtyPaths := r.dirty
	r.dirty = make(map[string]bool)
	for id, a := range r.assets {
		if a.Type != AssetTypeShader || len(a.sources) == 0 {
			continue
		}
		if r.reloading[id] {
			// Keep fresh marks for the next poll once this reload
			// lands.
			for _, src := range a.sources {
				if dirtyPaths[src.path] {
					r.dirty[src.path] = true
				}
			}
			continue
		}
		if a.state != AssetStateLoaded {
			continue
		}
		changed := false
		for i := range a.sources {
			src := &a.sources[i]
			if r.watcher != nil && !dirtyPaths[src.path] {
				continue
			}
			fi, err := os.Stat(src.path)
			if err != nil {
				continue
			}
			if !fi.ModTime().Equal(src.modTime) {
				src.modTime = fi.ModTime()
				changed = true
			}
		}
		if changed {
			r.reloading[id] = true
			a.state = AssetStateLoading
			a.progress = 0
			candidates = append(candidates, reloadCandidate{id: id, name: a.Name})
		}
	}
	r.mu.Unlock()

	for _, c := range candidates {
		core.LogInfo("shader %s source changed, recompiling", c.name)
		id := c.id
		r.runner.Run("shader.reload:"+c.name, func() error {
			return r.runShaderLoad(id, true, nil)
		}, nil)
	}
}

// finishLoad publishes the Loaded state for payloads that were already
// attached to the asset record.
func (r *Registry) finishLoad(id uuid.UUID, name, kind string, onProgress ProgressFunc) {
	r.mu.Lock()
	if a := r.assets[id]; a != nil {
		a.state = AssetStateLoaded
		a.progress = 1
		a.usingFallback = false
	}
	r.mu.Unlock()
	if onProgress != nil {
		onProgress(1)
	}
	r.postResult(loadResult{id: id, name: name, kind: kind})
}
