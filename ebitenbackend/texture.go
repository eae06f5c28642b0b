package ebitenbackend

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/rowan"
)

// whitePixelImage is the source of untextured geometry. Rendering is
// single-threaded, so it is created lazily without synchronization.
var whitePixelImage *ebiten.Image

// whiteRect is the source rectangle of the white pixel.
var whiteRect = image.Rect(0, 0, 1, 1)

func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

// source returns the ebiten image behind tex and the rectangle tex covers
// within it, creating the image on first use. Textures without pixel data
// yield the white pixel.
func source(tex *rowan.Texture) (*ebiten.Image, image.Rectangle, error) {
	if tex == nil {
		return ensureWhitePixel(), whiteRect, nil
	}
	phys, ox, oy := tex.Physical()
	if err := phys.Prepare(); err != nil {
		return nil, image.Rectangle{}, err
	}
	w, h := tex.Size()
	pw, ph := phys.Size()
	if phys.Format() == rowan.FormatOff || phys.Bytes() == nil || w == 0 || h == 0 {
		return ensureWhitePixel(), whiteRect, nil
	}
	img, _ := phys.BackendData.(*ebiten.Image)
	if img == nil {
		img = ebiten.NewImage(pw, ph)
		img.WritePixels(premultiplied(phys, image.Rect(0, 0, pw, ph)))
		phys.BackendData = img
	}
	return img, image.Rect(ox, oy, ox+w, oy+h), nil
}

// upload copies written pixels into an existing image. Images not created
// yet pick the pixels up when first drawn.
func upload(px *rowan.Pixels) error {
	phys, ox, oy := px.Texture.Physical()
	img, _ := phys.BackendData.(*ebiten.Image)
	if img == nil || px.W == 0 || px.H == 0 {
		return nil
	}
	region := image.Rect(ox+px.X, oy+px.Y, ox+px.X+px.W, oy+px.Y+px.H)
	img.SubImage(region).(*ebiten.Image).WritePixels(premultiplied(phys, region))
	return nil
}

// release frees the image of a physical texture.
func release(t *rowan.Texture) {
	if img, ok := t.BackendData.(*ebiten.Image); ok {
		img.Deallocate()
	}
	t.BackendData = nil
}

// premultiplied converts rect of a physical texture to premultiplied RGBA
// bytes, the layout WritePixels takes.
func premultiplied(t *rowan.Texture, rect image.Rectangle) []byte {
	pix, pitch := t.Bytes(), t.Pitch()
	size := t.Format().PixelSize()
	out := make([]byte, 0, 4*rect.Dx()*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := pix[y*pitch:]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := row[x*size : x*size+size]
			switch t.Format() {
			case rowan.FormatI:
				out = append(out, p[0], p[0], p[0], 0xFF)
			case rowan.FormatRGB:
				out = append(out, p[0], p[1], p[2], 0xFF)
			default:
				a := uint16(p[3])
				out = append(out,
					byte(uint16(p[0])*a/255),
					byte(uint16(p[1])*a/255),
					byte(uint16(p[2])*a/255),
					p[3])
			}
		}
	}
	return out
}

// filter maps the texture scale mode to an ebiten filter.
func filter(tex *rowan.Texture) ebiten.Filter {
	if tex == nil || tex.Flags()&rowan.ScaleMode == rowan.Nearest {
		return ebiten.FilterNearest
	}
	return ebiten.FilterLinear
}
