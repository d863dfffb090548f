package metadata

import "strings"

// VSyncMode mirrors the presentation modes a swapchain can run with.
type VSyncMode uint8

const (
	VSyncDisabled VSyncMode = iota
	VSyncEnabled
	VSyncAdaptive
	VSyncFast
	VSyncMailbox
)

func (m VSyncMode) String() string {
	switch m {
	case VSyncDisabled:
		return "Disabled"
	case VSyncEnabled:
		return "Enabled"
	case VSyncAdaptive:
		return "Adaptive"
	case VSyncFast:
		return "Fast"
	case VSyncMailbox:
		return "Mailbox"
	}
	return "Unknown"
}

// ParseVSyncMode maps a configuration string onto a mode. Unknown
// strings report false and fall back to VSyncEnabled.
func ParseVSyncMode(s string) (VSyncMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "false":
		return VSyncDisabled, true
	case "enabled", "on", "true":
		return VSyncEnabled, true
	case "adaptive":
		return VSyncAdaptive, true
	case "fast":
		return VSyncFast, true
	case "mailbox":
		return VSyncMailbox, true
	}
	return VSyncEnabled, false
}

type ClearColor struct {
	R, G, B, A float32
}

// RenderSettings is the [Renderer] configuration section as the
// renderer consumes it.
type RenderSettings struct {
	API                  string
	VSync                VSyncMode
	MSAASamples          int
	AnisotropicFiltering int
	TextureQuality       string
	ShadowQuality        string
	PostProcessing       bool
	Gamma                float32
	ClearColor           ClearColor
}

func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		API:                  "Null",
		VSync:                VSyncEnabled,
		MSAASamples:          1,
		AnisotropicFiltering: 1,
		TextureQuality:       "High",
		ShadowQuality:        "Medium",
		PostProcessing:       true,
		Gamma:                2.2,
		ClearColor:           ClearColor{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}
}
