package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcfgod/Vortex-sub001/engine/core"
	"github.com/hcfgod/Vortex-sub001/engine/renderer/metadata"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	src.SetRGBA(1, 0, color.RGBA{G: 0xFF, A: 0xFF})
	src.SetRGBA(0, 1, color.RGBA{B: 0xFF, A: 0xFF})
	src.SetRGBA(1, 1, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	img, err := DecodeImage(pngBytes(t, src), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), img.Width)
	assert.Equal(t, uint32(2), img.Height)
	assert.Equal(t, uint8(4), img.ChannelCount)
	assert.Len(t, img.Pixels, 16)
	assert.False(t, img.HasTransparency)

	// Top-left pixel is red.
	assert.Equal(t, []uint8{0xFF, 0x00, 0x00, 0xFF}, img.Pixels[0:4])
}

func TestDecodeImageFlipY(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	src.SetRGBA(0, 1, color.RGBA{B: 0xFF, A: 0xFF})

	img, err := DecodeImage(pngBytes(t, src), true)
	require.NoError(t, err)

	// Rows swapped: blue first, red second.
	assert.Equal(t, []uint8{0x00, 0x00, 0xFF, 0xFF}, img.Pixels[0:4])
	assert.Equal(t, []uint8{0xFF, 0x00, 0x00, 0xFF}, img.Pixels[4:8])
}

func TestDecodeImageReportsTransparency(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0x80})

	img, err := DecodeImage(pngBytes(t, src), false)
	require.NoError(t, err)
	assert.True(t, img.HasTransparency)
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not an image"), false)
	require.Error(t, err)
	assert.Equal(t, core.ErrAssetCorrupted, core.KindOf(err))
}

func TestSolidColorImage(t *testing.T) {
	img := SolidColorImage(4, 0xFF, 0x00, 0xFF, 0xFF)
	assert.Equal(t, uint32(4), img.Width)
	assert.Len(t, img.Pixels, 4*4*4)
	assert.False(t, img.HasTransparency)
	assert.Equal(t, []uint8{0xFF, 0x00, 0xFF, 0xFF}, img.Pixels[0:4])
	assert.Equal(t, []uint8{0xFF, 0x00, 0xFF, 0xFF}, img.Pixels[60:64])
}

func TestReflectShaderSource(t *testing.T) {
	source := []uint8(`#version 450
/* block comment with a decoy:
layout(location = 9) in vec4 decoy;
*/
layout(location = 0) in vec3 in_position;
layout(location=1) in vec2 in_texcoord; // trailing comment
// layout(location = 2) in vec3 commented_out;
layout(set = 0, binding = 1) uniform sampler2D u_albedo;
uniform mat4 u_model;
layout(location = 0) out vec4 out_unrelated;
`)

	attrs, uniforms := ReflectShaderSource(metadata.ShaderStageVertex, source)
	require.Len(t, attrs, 2)
	assert.Equal(t, "in_position", attrs[0].Name)
	assert.Equal(t, uint32(0), attrs[0].Location)
	assert.Equal(t, "vec3", attrs[0].Type)
	assert.Equal(t, "in_texcoord", attrs[1].Name)
	assert.Equal(t, uint32(1), attrs[1].Location)

	require.Len(t, uniforms, 2)
	assert.Equal(t, "u_albedo", uniforms[0].Name)
	assert.Equal(t, uint32(1), uniforms[0].Binding)
	assert.Equal(t, "sampler2D", uniforms[0].Type)
	assert.Equal(t, metadata.ShaderStageVertex, uniforms[0].Stage)
	assert.Equal(t, "u_model", uniforms[1].Name)
	assert.Equal(t, uint32(0), uniforms[1].Binding)
}

func TestReflectShaderSourceFragmentSkipsAttributes(t *testing.T) {
	source := []uint8(`#version 450
layout(location = 0) in vec2 frag_uv;
layout(binding = 0) uniform sampler2D u_screen;
`)
	attrs, uniforms := ReflectShaderSource(metadata.ShaderStageFragment, source)
	assert.Empty(t, attrs, "fragment inputs are not vertex attributes")
	require.Len(t, uniforms, 1)
	assert.Equal(t, metadata.ShaderStageFragment, uniforms[0].Stage)
}

func TestParseBitmapFont(t *testing.T) {
	descriptor := `info face="Mini" size=16 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=18 base=14 scaleW=32 scaleH=32 pages=2 packed=0 alphaChnl=1 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="mini_0.png"
page id=1 file="mini_1.png"
chars count=1
char id=33 x=0 y=0 width=4 height=10 xoffset=0 yoffset=2 xadvance=5 page=1 chnl=15
`
	desc, err := ParseBitmapFont([]byte(descriptor))
	require.NoError(t, err)
	assert.Equal(t, "Mini", desc.Info.Face)
	assert.Len(t, desc.Pages, 2)

	files := FontPageFiles(desc)
	assert.Equal(t, []string{"mini_0.png", "mini_1.png"}, files)
}

func TestParseBitmapFontGarbage(t *testing.T) {
	_, err := ParseBitmapFont([]byte("nonsense"))
	require.Error(t, err)
	assert.Equal(t, core.ErrAssetCorrupted, core.KindOf(err))
}

func TestFontPageFilesNil(t *testing.T) {
	assert.Nil(t, FontPageFiles(nil))
}
