package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/ebitenutil"
	"github.com/hajimehoshi/ebiten/inpututil"
	"github.com/hajimehoshi/ebiten/text"
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/font"

	"github.com/zucenko/mazerun/model"
)

const (
	hudHeight = 40
	tick      = float32(1.0 / 60)
)

var (
	colorOpen  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorWall  = color.RGBA{0x8b, 0x45, 0x13, 0xff}
	colorTrail = color.RGBA{0xc8, 0xf0, 0xc8, 0xff}
)

// feed is either an in-process replay or a websocket stream.
type feed interface {
	Poll() (model.ServerMessage, bool)
	Command(cmd model.Command) error
	Close() error
}

type GameState int

const (
	WALKING GameState = iota + 1
	PAUSED
	ARRIVED
	STRANDED
)

func (s GameState) Name() string {
	switch s {
	case WALKING:
		return "WALKING"
	case PAUSED:
		return "PAUSED"
	case ARRIVED:
		return "ARRIVED"
	case STRANDED:
		return "NO PATH"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

// Game holds every piece of window state; nothing lives in package vars.
type Game struct {
	State  GameState
	Feed   feed
	Setup  model.Setup
	Grid   *model.Grid
	Tweens map[*gween.Tween]Action

	cell         int
	stepDuration float32
	agentX       float64
	agentY       float64
	goalScale    float64
	trail        map[model.Position]bool
	steps        int

	mazeImage *ebiten.Image
	dot       *ebiten.Image
	panel     *Nine
	face      font.Face
	log       *log.Entry
}

func NewGame(f feed, cell int, stepDuration float32, logger *log.Entry) (*Game, error) {
	face, err := loadFont(20)
	if err != nil {
		return nil, err
	}
	dot, err := newDot(cell)
	if err != nil {
		return nil, err
	}
	panelImage, positions, err := newPanel(12, 3)
	if err != nil {
		return nil, err
	}
	return &Game{
		Feed:         f,
		Tweens:       make(map[*gween.Tween]Action),
		cell:         cell,
		stepDuration: stepDuration,
		goalScale:    1,
		trail:        make(map[model.Position]bool),
		dot:          dot,
		panel: &Nine{
			images:    panelImage,
			alpha:     1,
			R:         1, G: 1, B: 1, Scale: 1,
			positions: positions,
		},
		face: face,
		log:  logger.WithField("component", "viewer"),
	}, nil
}

func (g *Game) ScreenSize() (int, int) {
	return g.Setup.Cols * g.cell, g.Setup.Rows*g.cell + hudHeight
}

func (g *Game) apply(mes model.ServerMessage) error {
	for _, s := range mes.Setup {
		if err := g.applySetup(s); err != nil {
			return err
		}
	}
	for _, st := range mes.Steps {
		g.applyStep(st)
	}
	for _, o := range mes.Over {
		g.applyOver(o)
	}
	return nil
}

func (g *Game) applySetup(s model.Setup) error {
	grid, err := model.GridFromCells(s.Rows, s.Cols, s.Cells)
	if err != nil {
		return err
	}
	g.Setup = s
	g.Grid = grid
	g.agentX, g.agentY = float64(s.Start.X), float64(s.Start.Y)
	g.State = WALKING
	if !s.Found {
		g.State = STRANDED
	}
	g.log.WithFields(log.Fields{
		"session": s.SessionId,
		"seed":    s.Seed,
		"length":  s.PathLength,
	}).Info("setup")
	return g.renderMaze()
}

func (g *Game) applyStep(st model.Step) {
	if st.Index == 0 {
		// fresh run or rewind: jump instead of sliding back
		g.Tweens = make(map[*gween.Tween]Action)
		g.trail = make(map[model.Position]bool)
		g.agentX, g.agentY = float64(st.Position.X), float64(st.Position.Y)
		g.goalScale = 1
		g.State = WALKING
	} else {
		g.slide(st.Position)
	}
	g.trail[st.Position] = true
	g.steps = st.Index + 1
}

// slide tweens the agent along the single axis the step moves on.
func (g *Game) slide(to model.Position) {
	// finish whatever is still moving
	g.updateTweens(g.stepDuration)
	if float64(to.X) != g.agentX {
		t := gween.New(float32(g.agentX), float32(to.X), g.stepDuration, ease.InOutQuad)
		g.Tweens[t] = Action{onChange: func(v float32) { g.agentX = float64(v) }}
	}
	if float64(to.Y) != g.agentY {
		t := gween.New(float32(g.agentY), float32(to.Y), g.stepDuration, ease.InOutQuad)
		g.Tweens[t] = Action{onChange: func(v float32) { g.agentY = float64(v) }}
	}
}

func (g *Game) applyOver(o model.Over) {
	if !o.Found {
		g.State = STRANDED
		return
	}
	g.State = ARRIVED
	grow := gween.New(1, 1.6, .25, ease.OutQuad)
	shrink := gween.New(1.6, 1, .25, ease.InQuad)
	a := Action{onChange: func(v float32) { g.goalScale = float64(v) }}
	a.next(shrink, a.onChange).addOnFinish(func() {
		g.log.WithField("steps", o.Steps).Info("goal reached")
	})
	g.Tweens[grow] = a
}

func (g *Game) handleInput() {
	var cmd model.Command
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.State == WALKING:
		cmd = model.CMD_PAUSE
		g.State = PAUSED
	case inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.State == PAUSED:
		cmd = model.CMD_RESUME
		g.State = WALKING
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		cmd = model.CMD_REWIND
	default:
		return
	}
	if err := g.Feed.Command(cmd); err != nil {
		g.log.WithError(err).Warnf("command %s", cmd.Name())
	}
}

func (g *Game) update(screen *ebiten.Image) error {
	g.updateTweens(tick)
	g.handleInput()
	for {
		mes, ok := g.Feed.Poll()
		if !ok {
			break
		}
		if err := g.apply(mes); err != nil {
			return err
		}
	}

	if ebiten.IsDrawingSkipped() {
		return nil
	}
	g.draw(screen)
	return nil
}

func (g *Game) renderMaze() error {
	w, h := g.Setup.Cols*g.cell, g.Setup.Rows*g.cell
	img, err := ebiten.NewImage(w, h, ebiten.FilterDefault)
	if err != nil {
		return err
	}
	for y := 0; y < g.Setup.Rows; y++ {
		for x := 0; x < g.Setup.Cols; x++ {
			c := colorOpen
			if g.Grid.At(model.Position{X: x, Y: y}) == model.Wall {
				c = colorWall
			}
			ebitenutil.DrawRect(img, float64(x*g.cell), float64(y*g.cell), float64(g.cell), float64(g.cell), c)
		}
	}
	g.mazeImage = img
	return nil
}

func (g *Game) drawDot(screen *ebiten.Image, x, y, scale float64, r, gr, b float64) {
	size := float64(g.cell)
	s := .5 * scale
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(s, s)
	op.GeoM.Translate(x*size+size*(1-s)/2, y*size+size*(1-s)/2)
	op.ColorM.Scale(r, gr, b, 1)
	screen.DrawImage(g.dot, op)
}

func (g *Game) draw(screen *ebiten.Image) {
	e := screen.Fill(color.RGBA{70, 70, 70, 255})
	if e != nil {
		g.log.Printf("%v", e)
	}
	if g.mazeImage == nil {
		return
	}
	screen.DrawImage(g.mazeImage, &ebiten.DrawImageOptions{})
	for p := range g.trail {
		ebitenutil.DrawRect(screen, float64(p.X*g.cell)+1, float64(p.Y*g.cell)+1, float64(g.cell-2), float64(g.cell-2), colorTrail)
	}

	goal := g.Setup.Goal
	g.drawDot(screen, float64(goal.X), float64(goal.Y), g.goalScale, 0, 0, 1)
	g.drawDot(screen, g.agentX, g.agentY, 1, 0, 1, 0)

	w, h := screen.Size()
	g.panel.SetPosition(0, h-hudHeight)
	g.panel.SetSize(w, hudHeight)
	g.panel.Draw(screen)
	label := fmt.Sprintf("%s  %d/%d", g.State.Name(), g.steps, g.Setup.PathLength)
	text.Draw(screen, label, g.face, 10, h-hudHeight/2+7, color.White)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("seed %d", g.Setup.Seed), w-120, h-hudHeight+4)
}
