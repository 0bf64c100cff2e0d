package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// downsample scales img to size×size with CatmullRom, premultiplying alpha
// first so transparent edges do not bleed dark halos.
func downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(b)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := uint32(img.Pix[i+3])
		premul.Pix[i] = uint8((uint32(img.Pix[i])*a + 127) / 255)
		premul.Pix[i+1] = uint8((uint32(img.Pix[i+1])*a + 127) / 255)
		premul.Pix[i+2] = uint8((uint32(img.Pix[i+2])*a + 127) / 255)
		premul.Pix[i+3] = img.Pix[i+3]
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		a := uint32(dst.Pix[i+3])
		if a > 0 {
			out.Pix[i] = unpremul(dst.Pix[i], a)
			out.Pix[i+1] = unpremul(dst.Pix[i+1], a)
			out.Pix[i+2] = unpremul(dst.Pix[i+2], a)
		}
		out.Pix[i+3] = dst.Pix[i+3]
	}
	return out
}

func unpremul(c uint8, a uint32) uint8 {
	v := (uint32(c)*255 + a/2) / a
	if v > 255 {
		return 255
	}
	return uint8(v)
}
