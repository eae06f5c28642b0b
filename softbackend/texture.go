package softbackend

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/phanxgames/rowan"
)

// source returns the decoded image behind tex and the rectangle tex covers
// within it. The image is cached on the physical texture until the next
// upload. img is nil for textures without pixel data.
func source(tex *rowan.Texture) (img *gg.ImageBuf, rect image.Rectangle, err error) {
	phys, ox, oy := tex.Physical()
	if err := phys.Prepare(); err != nil {
		return nil, rect, err
	}
	w, h := tex.Size()
	if phys.Format() == rowan.FormatOff || phys.Bytes() == nil || w == 0 || h == 0 {
		return nil, rect, nil
	}
	img, _ = phys.BackendData.(*gg.ImageBuf)
	if img == nil {
		img = gg.ImageBufFromImage(decode(phys))
		phys.BackendData = img
	}
	return img, image.Rect(ox, oy, ox+w, oy+h), nil
}

// decode converts the pixel buffer of a physical texture to NRGBA. I
// expands to gray, RGB ignores its padding byte.
func decode(t *rowan.Texture) *image.NRGBA {
	w, h := t.Size()
	pix, pitch := t.Bytes(), t.Pitch()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := pix[y*pitch:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			d := dst[x*4 : x*4+4]
			switch t.Format() {
			case rowan.FormatI:
				v := src[x]
				d[0], d[1], d[2], d[3] = v, v, v, 0xFF
			case rowan.FormatRGB:
				s := src[x*4:]
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xFF
			default:
				copy(d, src[x*4:x*4+4])
			}
		}
	}
	return out
}

// forget drops the cached image of the texture behind t.
func forget(t *rowan.Texture) {
	phys, _, _ := t.Physical()
	phys.BackendData = nil
}

// interpolation maps the texture scale mode to a gg sampler.
func interpolation(t *rowan.Texture) gg.InterpolationMode {
	if t.Flags()&rowan.ScaleMode == rowan.Nearest {
		return gg.InterpNearest
	}
	return gg.InterpBilinear
}
