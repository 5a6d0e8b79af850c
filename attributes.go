package nd2

import (
	"fmt"

	"github.com/mdouchement/nd2/clx"
)

// Attributes describes the stored frames.
type Attributes struct {
	BitsPerComponentInMemory    int    `json:"bits_per_component_in_memory"`
	BitsPerComponentSignificant int    `json:"bits_per_component_significant"`
	ComponentCount              int    `json:"component_count"`
	Height                      int    `json:"height_px"`
	PixelDataType               string `json:"pixel_data_type"`
	SequenceCount               int    `json:"sequence_count"`
	// Optional fields are zero when absent.
	Width            int     `json:"width_px,omitempty"`
	WidthBytes       int     `json:"width_bytes,omitempty"`
	Compression      string  `json:"compression_type"`
	CompressionLevel float64 `json:"compression_level,omitempty"`
	TileWidth        int     `json:"tile_width_px,omitempty"`
	TileHeight       int     `json:"tile_height_px,omitempty"`
	ChannelCount     int     `json:"channel_count,omitempty"`
}

// Channels returns the number of channels stored in each frame.
func (a *Attributes) Channels() int {
	if a.ChannelCount > 0 {
		return a.ChannelCount
	}
	return a.ComponentCount
}

// FrameWidth returns the width in pixels, derived from the row stride when
// the width itself is not recorded.
func (a *Attributes) FrameWidth() int {
	if a.Width > 0 {
		return a.Width
	}
	bpp := a.BitsPerComponentInMemory / 8
	if bpp == 0 || a.ComponentCount == 0 {
		return 0
	}
	return a.WidthBytes / (bpp * a.ComponentCount)
}

func parseAttributes(v clx.Value) (*Attributes, error) {
	obj, ok := clx.AsObject(unwrap(v))
	if !ok {
		return nil, MetadataError("attributes are not an object")
	}

	required := func(name string) (int, error) {
		u, ok := obj.Uint(name)
		if !ok {
			return 0, MetadataError(fmt.Sprintf("attributes: missing or invalid %s", name))
		}
		return int(u), nil
	}
	optional := func(name string) int {
		u, _ := obj.Uint(name)
		return int(u)
	}

	a := &Attributes{
		PixelDataType: pxUnsigned,
		Compression:   cNone,
	}
	var err error
	if a.BitsPerComponentInMemory, err = required("uiBpcInMemory"); err != nil {
		return nil, err
	}
	if a.BitsPerComponentSignificant, err = required("uiBpcSignificant"); err != nil {
		return nil, err
	}
	if a.ComponentCount, err = required("uiComp"); err != nil {
		return nil, err
	}
	if a.Height, err = required("uiHeight"); err != nil {
		return nil, err
	}
	if a.SequenceCount, err = required("uiSequenceCount"); err != nil {
		return nil, err
	}

	a.Width = optional("uiWidth")
	a.WidthBytes = optional("uiWidthBytes")
	a.TileWidth = optional("uiTileWidth")
	a.TileHeight = optional("uiTileHeight")
	a.ChannelCount = optional("uiChannelCount")
	a.CompressionLevel, _ = obj.Float("dCompressionParam")

	if bpc, ok := obj.Uint("uiCompBPC"); ok && bpc == 3 {
		a.PixelDataType = pxFloat
	}

	if c, ok := obj.Get("eCompression"); ok {
		a.Compression = compressionType(c)
	}

	return a, nil
}

// compressionType maps the compression field, stored either as a name or as
// an enum value.
func compressionType(v clx.Value) string {
	if s, ok := clx.AsString(v); ok {
		switch s {
		case cLossless, cLossy:
			return s
		}
		return cNone
	}
	if u, ok := clx.AsUint(v); ok {
		switch u {
		case 0:
			return cLossless
		case 1:
			return cLossy
		}
	}
	return cNone
}
