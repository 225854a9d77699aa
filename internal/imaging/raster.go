package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	// Registered decoders for generated and uploaded images.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

const MIMEPNG = "image/png"

var (
	ErrImageLoad      = errors.New("image could not be decoded")
	ErrInvalidRatio   = errors.New("aspect ratio must be a positive number")
	ErrInvalidDataURI = errors.New("invalid data URI")
	errEmptyImage     = errors.New("image has no pixels")
)

// ImageLoadError reports which input failed to decode.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load %s image: %v", e.Source, e.Err)
}

func (e *ImageLoadError) Unwrap() []error {
	return []error{ErrImageLoad, e.Err}
}

// RasterImage is an encoded bitmap. Treat Data as read-only once built.
type RasterImage struct {
	Data     []byte
	MIMEType string
}

// IsZero reports whether the image carries no data.
func (r RasterImage) IsZero() bool {
	return len(r.Data) == 0
}

// Decode parses the encoded bytes.
func (r RasterImage) Decode() (image.Image, error) {
	if r.IsZero() {
		return nil, errors.New("empty image data")
	}
	img, _, err := image.Decode(bytes.NewReader(r.Data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Size returns the pixel dimensions without decoding the full bitmap.
func (r RasterImage) Size() (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(r.Data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// DataURI renders the image as a base64 data URI.
func (r RasterImage) DataURI() string {
	mime := r.MIMEType
	if mime == "" {
		mime = MIMEPNG
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// ParseDataURI reverses DataURI. Only base64 payloads are accepted.
func ParseDataURI(uri string) (RasterImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return RasterImage{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return RasterImage{}, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return RasterImage{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return RasterImage{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return RasterImage{Data: data, MIMEType: mime}, nil
}

func encodePNG(img image.Image) (RasterImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return RasterImage{}, fmt.Errorf("encode png: %w", err)
	}
	return RasterImage{Data: buf.Bytes(), MIMEType: MIMEPNG}, nil
}
