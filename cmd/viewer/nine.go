package main

import (
	"image"

	"github.com/hajimehoshi/ebiten"
)

// Nine draws a nine-patch: corners keep their size, edges stretch along one
// axis and the centre along both.
type Nine struct {
	images              *ebiten.Image
	alpha               float64
	R, G, B, Scale      float64
	positions           [4][2]int
	x, y, width, height int
	scaleCenterWidth    float64
	scaleCenterHeight   float64
	targetPositions     [4][2]float64
}

func (n *Nine) SetPosition(x, y int) {
	n.x = x
	n.y = y
	n.SetSize(n.width, n.height)
}

func (n *Nine) SetSize(width, height int) {
	n.width = width
	n.height = height
	n.targetPositions[0][0] = float64(n.x)
	n.targetPositions[0][1] = float64(n.y)

	n.targetPositions[1][0] = float64(n.x) + n.Scale*float64(n.positions[1][0])
	n.targetPositions[1][1] = float64(n.y) + n.Scale*float64(n.positions[1][1])

	n.targetPositions[2][0] = float64(n.x+n.width) - n.Scale*float64(n.positions[3][0]-n.positions[2][0])
	n.targetPositions[2][1] = float64(n.y+n.height) - n.Scale*float64(n.positions[3][1]-n.positions[2][1])

	innerWidth := n.targetPositions[2][0] - n.targetPositions[1][0]
	innerHigh := n.targetPositions[2][1] - n.targetPositions[1][1]

	n.scaleCenterWidth = innerWidth / float64(n.positions[2][0]-n.positions[1][0])
	n.scaleCenterHeight = innerHigh / float64(n.positions[2][1]-n.positions[1][1])
}

func (n *Nine) Draw(screen *ebiten.Image) {
	// column i, row j of the patch grid
	xs := [3]float64{n.targetPositions[0][0], n.targetPositions[1][0], n.targetPositions[2][0]}
	ys := [3]float64{n.targetPositions[0][1], n.targetPositions[1][1], n.targetPositions[2][1]}
	sx := [3]float64{n.Scale, n.scaleCenterWidth, n.Scale}
	sy := [3]float64{n.Scale, n.scaleCenterHeight, n.Scale}
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			src := image.Rect(n.positions[i][0], n.positions[j][1], n.positions[i+1][0], n.positions[j+1][1])
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(sx[i], sy[j])
			op.GeoM.Translate(xs[i], ys[j])
			op.ColorM.Scale(n.R, n.G, n.B, n.alpha)
			screen.DrawImage(n.images.SubImage(src).(*ebiten.Image), op)
		}
	}
}
