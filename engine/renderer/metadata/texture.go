package metadata

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
	/** @brief The name of the magenta error texture swapped in when a load fails. */
	FALLBACK_TEXTURE_NAME string = "fallback"
	/** @brief Side length of generated placeholder textures. */
	FALLBACK_TEXTURE_DIMENSION uint32 = 256
)

// InvalidHandle marks a resource with no backend object behind it.
const InvalidHandle uint32 = 0xFFFFFFFF

/**
 * @brief Represents a texture as the renderer sees it: dimensions,
 * format hints and the backend handle. Pixel data is owned by the
 * loader and released once the backend has consumed it.
 */
type Texture struct {
	Name         string
	Width        uint32
	Height       uint32
	ChannelCount uint8

	HasTransparency bool
	IsWriteable     bool

	// Generation increments every time the underlying GPU object is
	// replaced (initial upload, hot-reload). InvalidHandle generation
	// means no GPU object exists yet.
	Generation uint32

	// Backend-owned handle.
	Handle uint32
}

func NewTexture(name string) *Texture {
	return &Texture{
		Name:       name,
		Generation: InvalidHandle,
		Handle:     InvalidHandle,
	}
}

// HasResource reports whether a backend object currently backs this
// texture.
func (t *Texture) HasResource() bool {
	return t.Handle != InvalidHandle
}
