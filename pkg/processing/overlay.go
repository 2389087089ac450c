package processing

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/instacrop/pkg/cropper"
)

// overlay palette, cycled per panel
var boxColors = []color.NRGBA{
	{255, 204, 0, 255},
	{0, 255, 0, 255},
	{0, 170, 255, 255},
	{255, 0, 255, 255},
	{255, 96, 0, 255},
}

// CreatePreview draws the given crop or panel boxes onto a copy of img,
// with the image center marked in red. Panels are numbered in carousel order.
func (p *Processor) CreatePreview(img image.Image, rects []cropper.Rect) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	stroke := int(math.Max(2, 0.004*float64(min(w, h)))) // ~0.4% of min side
	cross := int(math.Max(4, 0.01*float64(min(w, h))))   // ~1% of min side

	for i, r := range rects {
		c := boxColors[i%len(boxColors)]
		drawBox(nrgba, r, c, stroke)
		if len(rects) > 1 {
			drawLabel(nrgba, r, strconv.Itoa(i+1), c, stroke)
		}
	}

	red := color.NRGBA{255, 0, 0, 255}
	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-cross, ix+cross, red)
	drawVLine(nrgba, ix, iy-cross, iy+cross, red)

	return nrgba
}

func drawBox(img *image.NRGBA, r cropper.Rect, c color.NRGBA, stroke int) {
	if r.Empty() {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Top+s, r.Left, r.Right, c)
		drawHLine(img, r.Bottom-1-s, r.Left, r.Right, c)
		drawVLine(img, r.Left+s, r.Top, r.Bottom, c)
		drawVLine(img, r.Right-1-s, r.Top, r.Bottom, c)
	}
}

// drawLabel writes text just inside the top-left corner of r
func drawLabel(img *image.NRGBA, r cropper.Rect, text string, c color.NRGBA, stroke int) {
	face := basicfont.Face7x13
	if r.Width() < 2*stroke+face.Width*len(text) || r.Height() < 2*stroke+face.Height {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(r.Left+stroke+3, r.Top+stroke+face.Ascent+2),
	}
	d.DrawString(text)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
