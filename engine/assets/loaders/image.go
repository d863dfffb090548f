package loaders

import (
	"bytes"
	"image"
	"image/draw"

	// Decoders register themselves with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// ImageData is a decoded image flattened to tightly packed RGBA.
type ImageData struct {
	Width        uint32
	Height       uint32
	ChannelCount uint8
	Pixels       []uint8

	// HasTransparency is true when any pixel's alpha is below opaque.
	HasTransparency bool
}

// DecodeImage sniffs the format, decodes and converts to RGBA. flipY
// reverses row order for backends with a bottom-left origin.
func DecodeImage(data []uint8, flipY bool) (*ImageData, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, core.WrapError(core.ErrAssetCorrupted, err, "image does not decode")
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	if flipY {
		flipRows(rgba.Pix, rgba.Stride, bounds.Dy())
	}

	out := &ImageData{
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		ChannelCount: 4,
		Pixels:       rgba.Pix,
	}
	for i := 3; i < len(rgba.Pix); i += 4 {
		if rgba.Pix[i] < 0xFF {
			out.HasTransparency = true
			break
		}
	}
	core.LogDebug("decoded %s image %dx%d", format, out.Width, out.Height)
	return out, nil
}

func flipRows(pix []uint8, stride, height int) {
	row := make([]uint8, stride)
	for y := 0; y < height/2; y++ {
		top := pix[y*stride : (y+1)*stride]
		bottom := pix[(height-1-y)*stride : (height-y)*stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

// SolidColorImage builds a single-color square, used for the error
// texture substituted when a real image fails to load.
func SolidColorImage(dimension uint32, r, g, b, a uint8) *ImageData {
	pixels := make([]uint8, dimension*dimension*4)
	for i := uint32(0); i < dimension*dimension; i++ {
		pixels[i*4+0] = r
		pixels[i*4+1] = g
		pixels[i*4+2] = b
		pixels[i*4+3] = a
	}
	return &ImageData{
		Width:           dimension,
		Height:          dimension,
		ChannelCount:    4,
		Pixels:          pixels,
		HasTransparency: a < 0xFF,
	}
}
