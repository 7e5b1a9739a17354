package imagery

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/ecopia-map/quadtile_loader/internal/scene"
	"github.com/golang/glog"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const ErrTypeMalformedContent = "malformed_content"

// How tile images are resized before becoming textures
type ScaleMode int

const (
	ScaleUp    ScaleMode = iota // up to the next power of two
	ScaleDown                   // down to the previous power of two
	ScaleFixed                  // to FixedSize x FixedSize
	ScaleNone
)

type TextureSettings struct {
	Format    scene.PixelFormat
	Scale     ScaleMode
	FixedSize int
}

// Normalizes a loaded image into a texture: decodes it, strips its border, scales it and
// converts it to the requested pixel format. Compressed images are passed through untouched,
// with their border left for texture coordinates to skip.
func BuildTexture(img LoadedImage, settings TextureSettings) (*scene.Texture, error) {
	switch img.Kind {
	case KindPlaceholder:
		return nil, malformed("placeholder has no texture", img)
	case KindCompressed:
		return buildCompressed(img)
	}

	src, err := decode(img)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if img.BorderSize < 0 || 2*img.BorderSize >= bounds.Dx() || 2*img.BorderSize >= bounds.Dy() {
		return nil, malformed("border larger than image", img)
	}
	content := bounds.Inset(img.BorderSize)
	width, height := targetSize(content.Dx(), content.Dy(), settings)

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == content.Dx() && height == content.Dy() {
		draw.Draw(rgba, rgba.Bounds(), src, content.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(rgba, rgba.Bounds(), src, content, draw.Src, nil)
	}

	format := settings.Format
	if format.Compressed() {
		glog.Warningf("cannot compress %v tile image to %v, using RGBA8888", img.Kind, format)
		format = scene.FormatRGBA8888
	}

	return scene.NewTexture(width, height, format, ConvertPixels(rgba, format)), nil
}

func decode(img LoadedImage) (image.Image, error) {
	switch img.Kind {
	case KindNative:
		if img.Image == nil {
			return nil, malformed("missing native image", img)
		}
		return img.Image, nil

	case KindEncoded:
		decoded, format, err := image.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, errors.New("undecodable tile image").
				WithType(ErrTypeMalformedContent).
				WithTag("bytes", len(img.Data)).
				Wrap(err)
		}
		glog.V(3).Infof("decoded %s tile image %dx%d", format, decoded.Bounds().Dx(), decoded.Bounds().Dy())
		return decoded, nil

	case KindRawRGBA:
		if img.Width <= 0 || img.Height <= 0 || len(img.Data) != img.Width*img.Height*4 {
			return nil, malformed("raw image size mismatch", img)
		}
		return &image.RGBA{
			Pix:    img.Data,
			Stride: img.Width * 4,
			Rect:   image.Rect(0, 0, img.Width, img.Height),
		}, nil
	}
	return nil, malformed("unknown image kind", img)
}

func buildCompressed(img LoadedImage) (*scene.Texture, error) {
	if img.Width <= 0 || img.Width != img.Height || !IsPowerOfTwo(img.Width) {
		return nil, malformed("compressed image must be a square power of two", img)
	}
	// 4 bits per pixel, 32 bytes minimum
	expected := img.Width * img.Height / 2
	if expected < 32 {
		expected = 32
	}
	if len(img.Data) != expected {
		return nil, malformed("compressed payload size mismatch", img)
	}
	if img.BorderSize < 0 || 2*img.BorderSize >= img.Width {
		return nil, malformed("border larger than image", img)
	}
	tex := scene.NewTexture(img.Width, img.Height, scene.FormatPVRTC4, img.Data)
	tex.Border = img.BorderSize
	return tex, nil
}

func targetSize(width, height int, settings TextureSettings) (int, int) {
	switch settings.Scale {
	case ScaleUp:
		return NextPowerOfTwo(width), NextPowerOfTwo(height)
	case ScaleDown:
		return PrevPowerOfTwo(width), PrevPowerOfTwo(height)
	case ScaleFixed:
		if settings.FixedSize > 0 {
			return settings.FixedSize, settings.FixedSize
		}
	}
	return width, height
}

func malformed(msg string, img LoadedImage) error {
	return errors.New(msg).
		WithType(ErrTypeMalformedContent).
		WithTag("kind", img.Kind.String()).
		WithTag("width", img.Width).
		WithTag("height", img.Height).
		WithTag("border", img.BorderSize)
}

func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func NextPowerOfTwo(v int) int {
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

func PrevPowerOfTwo(v int) int {
	if v < 1 {
		return 1
	}
	p := 1
	for p<<1 <= v {
		p <<= 1
	}
	return p
}
