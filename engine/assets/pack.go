package assets

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// On-disk pack layout, little-endian throughout:
//
//	4  bytes  magic "VXPK"
//	4  bytes  version (1)
//	8  bytes  entry count
//	per entry: 2 bytes path length, path bytes (forward-slash UTF-8),
//	           8 bytes payload offset, 8 bytes payload size,
//	           4 bytes crc32 (reserved, written as 0),
//	           1 byte compression (0 = none)
//	payloads, contiguous, in directory order
var packMagic = [4]byte{0x56, 0x58, 0x50, 0x4B}

const packVersion uint32 = 1

// textureExtensions are tried, in order, when a pack lookup key carries
// no extension.
var textureExtensions = []string{"png", "jpg", "jpeg", "bmp", "tga", "ktx", "dds", "rgba"}

// NormalizeKey rewrites a lookup path into canonical pack form: forward
// slashes, no leading "./" or "/".
func NormalizeKey(p string) string {
	k := filepath.ToSlash(strings.TrimSpace(p))
	for {
		switch {
		case strings.HasPrefix(k, "./"):
			k = k[2:]
		case strings.HasPrefix(k, "/"):
			k = k[1:]
		default:
			return k
		}
	}
}

type packRecord struct {
	offset uint64
	size   uint64
}

/**
 * @brief Read side of a VXPK archive.
 *
 * The directory is parsed once at open; payload reads go straight to
 * the file with ReadAt, so a reader is safe for concurrent use.
 */
type PackReader struct {
	file    *os.File
	path    string
	records map[string]packRecord
	keys    []string
}

// OpenPack opens and validates a pack file, parsing its directory.
func OpenPack(packPath string) (*PackReader, error) {
	f, err := os.Open(packPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapError(core.ErrFileNotFound, err, "asset pack %s not found", packPath)
		}
		return nil, core.WrapError(core.ErrFileAccessDenied, err, "cannot open asset pack %s", packPath)
	}

	r := &PackReader{
		file:    f,
		path:    packPath,
		records: make(map[string]packRecord),
	}
	if err := r.readDirectory(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *PackReader) readDirectory() error {
	var header [16]byte
	if _, err := io.ReadFull(r.file, header[:]); err != nil {
		return core.WrapError(core.ErrFileCorrupted, err, "asset pack %s: short header", r.path)
	}
	if [4]byte(header[:4]) != packMagic {
		return core.NewError(core.ErrFileCorrupted, "asset pack %s: bad magic", r.path)
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != packVersion {
		return core.NewError(core.ErrFileCorrupted, "asset pack %s: unsupported version %d", r.path, v)
	}
	count := binary.LittleEndian.Uint64(header[8:16])

	br := newByteScanner(r.file)
	for i := uint64(0); i < count; i++ {
		pathLen, err := br.uint16()
		if err != nil {
			return core.WrapError(core.ErrFileCorrupted, err, "asset pack %s: truncated directory", r.path)
		}
		raw, err := br.bytes(int(pathLen))
		if err != nil {
			return core.WrapError(core.ErrFileCorrupted, err, "asset pack %s: truncated entry path", r.path)
		}
		// offset, size, crc32 (reserved), compression byte.
		tail, err := br.bytes(8 + 8 + 4 + 1)
		if err != nil {
			return core.WrapError(core.ErrFileCorrupted, err, "asset pack %s: truncated directory record", r.path)
		}
		key := NormalizeKey(string(raw))
		r.records[key] = packRecord{
			offset: binary.LittleEndian.Uint64(tail[:8]),
			size:   binary.LittleEndian.Uint64(tail[8:16]),
		}
		r.keys = append(r.keys, key)
	}
	return nil
}

func (r *PackReader) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *PackReader) Path() string { return r.path }

// Keys returns every stored key in directory order.
func (r *PackReader) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Exists reports whether the key resolves to a stored entry, applying
// the same normalization and fallbacks as Read.
func (r *PackReader) Exists(key string) bool {
	_, ok := r.Resolve(key)
	return ok
}

// Resolve maps a lookup key to the stored key it would read.
//
// Resolution order: exact normalized match; when the key has no
// extension, each texture extension candidate compared case
// insensitively; finally a case-insensitive search by file name
// anywhere in the pack.
func (r *PackReader) Resolve(key string) (string, bool) {
	k := NormalizeKey(key)
	if _, ok := r.records[k]; ok {
		return k, true
	}

	if path.Ext(k) == "" {
		for _, ext := range textureExtensions {
			candidate := k + "." + ext
			if _, ok := r.records[candidate]; ok {
				return candidate, true
			}
			for _, stored := range r.keys {
				if strings.EqualFold(stored, candidate) {
					return stored, true
				}
			}
		}
	}

	base := path.Base(k)
	for _, stored := range r.keys {
		sb := path.Base(stored)
		if strings.EqualFold(sb, base) {
			return stored, true
		}
		if path.Ext(k) == "" {
			for _, ext := range textureExtensions {
				if strings.EqualFold(sb, base+"."+ext) {
					return stored, true
				}
			}
		}
	}
	return "", false
}

// Read returns the payload bytes for the key.
func (r *PackReader) Read(key string) ([]uint8, error) {
	stored, ok := r.Resolve(key)
	if !ok {
		return nil, core.NewError(core.ErrAssetNotFound, "asset pack %s has no entry for %s", r.path, key)
	}
	rec := r.records[stored]
	buf := make([]uint8, rec.size)
	if _, err := r.file.ReadAt(buf, int64(rec.offset)); err != nil {
		return nil, core.WrapError(core.ErrFileCorrupted, err, "asset pack %s: reading %s", r.path, stored)
	}
	return buf, nil
}

type packEntry struct {
	key  string
	data []uint8
}

/**
 * @brief Write side of a VXPK archive. Entries accumulate in memory
 * and WriteTo lays out directory plus payloads in one pass.
 */
type PackWriter struct {
	entries []packEntry
	index   map[string]int
}

func NewPackWriter() *PackWriter {
	return &PackWriter{index: make(map[string]int)}
}

// AddBytes stores data under the normalized key, replacing any previous
// entry with the same key.
func (w *PackWriter) AddBytes(key string, data []uint8) error {
	k := NormalizeKey(key)
	if k == "" {
		return core.NewError(core.ErrInvalidParameter, "asset pack entry key is empty")
	}
	if len(k) > 0xFFFF {
		return core.NewError(core.ErrInvalidParameter, "asset pack entry key %q exceeds 65535 bytes", k)
	}
	if i, ok := w.index[k]; ok {
		w.entries[i].data = data
		return nil
	}
	w.index[k] = len(w.entries)
	w.entries = append(w.entries, packEntry{key: k, data: data})
	return nil
}

// AddFile reads diskPath and stores its contents under key.
func (w *PackWriter) AddFile(key, diskPath string) error {
	data, err := os.ReadFile(diskPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.WrapError(core.ErrFileNotFound, err, "asset pack source %s not found", diskPath)
		}
		return core.WrapError(core.ErrFileAccessDenied, err, "cannot read asset pack source %s", diskPath)
	}
	return w.AddBytes(key, data)
}

func (w *PackWriter) Len() int { return len(w.entries) }

// WriteTo writes the complete archive.
func (w *PackWriter) WriteTo(out io.Writer) (int64, error) {
	headerSize := int64(16)
	directorySize := int64(0)
	for _, e := range w.entries {
		directorySize += 2 + int64(len(e.key)) + 8 + 8 + 4 + 1
	}

	var written int64
	var header [16]byte
	copy(header[:4], packMagic[:])
	binary.LittleEndian.PutUint32(header[4:8], packVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(len(w.entries)))
	n, err := out.Write(header[:])
	written += int64(n)
	if err != nil {
		return written, err
	}

	offset := uint64(headerSize + directorySize)
	var scratch [21]byte
	for _, e := range w.entries {
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(e.key)))
		n, err = out.Write(scratch[:2])
		written += int64(n)
		if err != nil {
			return written, err
		}
		n, err = out.Write([]byte(e.key))
		written += int64(n)
		if err != nil {
			return written, err
		}
		binary.LittleEndian.PutUint64(scratch[:8], offset)
		binary.LittleEndian.PutUint64(scratch[8:16], uint64(len(e.data)))
		binary.LittleEndian.PutUint32(scratch[16:20], 0) // crc32 reserved
		scratch[20] = 0                                  // no compression
		n, err = out.Write(scratch[:21])
		written += int64(n)
		if err != nil {
			return written, err
		}
		offset += uint64(len(e.data))
	}

	for _, e := range w.entries {
		n, err = out.Write(e.data)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteFile writes the archive to outPath, creating parent directories.
func (w *PackWriter) WriteFile(outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return core.WrapError(core.ErrFileAccessDenied, err, "cannot create pack directory for %s", outPath)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return core.WrapError(core.ErrFileAccessDenied, err, "cannot create asset pack %s", outPath)
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return core.WrapError(core.ErrFileAccessDenied, err, "writing asset pack %s", outPath)
	}
	return f.Close()
}

// BuildOptions configure BuildAssetsPack.
type BuildOptions struct {
	// AssetsRoot is walked recursively; entry keys are paths relative
	// to it.
	AssetsRoot string
	// OutputPath is where the pack file lands.
	OutputPath string
	// Extensions, when non-empty, whitelists file extensions (without
	// dot, compared case insensitively).
	Extensions []string
	// ExcludeDirs names directories (by base name) to skip entirely.
	ExcludeDirs []string
}

// BuildAssetsPack walks an assets tree and writes it as a single pack
// file. Hidden files, the output file itself and excluded directories
// are skipped. Returns the number of packed entries.
func BuildAssetsPack(opts BuildOptions) (int, error) {
	if opts.AssetsRoot == "" || opts.OutputPath == "" {
		return 0, core.NewError(core.ErrInvalidParameter, "asset pack build needs both an assets root and an output path")
	}
	info, err := os.Stat(opts.AssetsRoot)
	if err != nil || !info.IsDir() {
		return 0, core.NewError(core.ErrDirectoryNotFound, "assets root %s is not a directory", opts.AssetsRoot)
	}

	allowed := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}
	absOut, _ := filepath.Abs(opts.OutputPath)

	w := NewPackWriter()
	var files []string
	err = filepath.WalkDir(opts.AssetsRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if excluded[name] || (strings.HasPrefix(name, ".") && p != opts.AssetsRoot) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if abs, _ := filepath.Abs(p); abs == absOut {
			return nil
		}
		if len(allowed) > 0 {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
			if !allowed[ext] {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return 0, core.WrapError(core.ErrFileAccessDenied, err, "walking assets root %s", opts.AssetsRoot)
	}

	// Deterministic packs regardless of filesystem order.
	sort.Strings(files)
	for _, p := range files {
		rel, err := filepath.Rel(opts.AssetsRoot, p)
		if err != nil {
			return 0, fmt.Errorf("relativizing %s: %w", p, err)
		}
		if err := w.AddFile(rel, p); err != nil {
			return 0, err
		}
	}

	if err := w.WriteFile(opts.OutputPath); err != nil {
		return 0, err
	}
	core.LogInfo("packed %d assets from %s into %s", w.Len(), opts.AssetsRoot, opts.OutputPath)
	return w.Len(), nil
}

// byteScanner wraps sequential little-endian reads over a file whose
// position already sits past the header.
type byteScanner struct {
	r io.Reader
}

func newByteScanner(r io.Reader) *byteScanner { return &byteScanner{r: r} }

func (b *byteScanner) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *byteScanner) uint16() (uint16, error) {
	buf, err := b.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}
