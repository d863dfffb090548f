package loaders

import (
	"bytes"
	"os"

	"github.com/fzipp/bmfont"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// ParseBitmapFont reads an AngelCode .fnt descriptor from memory.
func ParseBitmapFont(data []uint8) (*bmfont.Descriptor, error) {
	desc, err := bmfont.ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, core.WrapError(core.ErrAssetCorrupted, err, "bitmap font descriptor does not parse")
	}
	return desc, nil
}

// LoadBitmapFont reads a .fnt descriptor from disk.
func LoadBitmapFont(path string) (*bmfont.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapError(core.ErrFileNotFound, err, "bitmap font %s not found", path)
		}
		return nil, core.WrapError(core.ErrFileAccessDenied, err, "cannot read bitmap font %s", path)
	}
	return ParseBitmapFont(data)
}

// FontPageFiles lists the page image file names a descriptor
// references, in page id order.
func FontPageFiles(desc *bmfont.Descriptor) []string {
	if desc == nil {
		return nil
	}
	maxID := -1
	for id := range desc.Pages {
		if id > maxID {
			maxID = id
		}
	}
	files := make([]string, 0, len(desc.Pages))
	for id := 0; id <= maxID; id++ {
		if page, ok := desc.Pages[id]; ok {
			files = append(files, page.File)
		}
	}
	return files
}
