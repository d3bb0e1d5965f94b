package main

import (
	"image"
	"image/color"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/ebiten"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

func loadFont(size float64) (font.Face, error) {
	tt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	const dpi = 72
	return truetype.NewFace(tt, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	}), nil
}

// newDot renders a white disc; draws tint it through ColorM.
func newDot(diameter int) (*ebiten.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, diameter, diameter))
	r := float64(diameter) / 2
	for y := 0; y < diameter; y++ {
		for x := 0; x < diameter; x++ {
			dx, dy := float64(x)+.5-r, float64(y)+.5-r
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, color.White)
			}
		}
	}
	return ebiten.NewImageFromImage(img, ebiten.FilterLinear)
}

// newPanel renders a square with a lighter rim of the given width, laid out
// for a Nine with patch borders at rim and size-rim.
func newPanel(size, rim int) (*ebiten.Image, [4][2]int, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill := color.RGBA{0x22, 0x22, 0x22, 0xe0}
	edge := color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x < rim || y < rim || x >= size-rim || y >= size-rim {
				img.Set(x, y, edge)
			} else {
				img.Set(x, y, fill)
			}
		}
	}
	e, err := ebiten.NewImageFromImage(img, ebiten.FilterDefault)
	return e, [4][2]int{{0, 0}, {rim, rim}, {size - rim, size - rim}, {size, size}}, err
}
