package server

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/model"
	"github.com/zucenko/mazerun/replay"
)

type GameServer struct {
	Config     Config
	Store      *Store
	Sessions   map[string]*replay.Session
	Requests   chan SessionRequest
	Unregister chan string
	Stats      chan chan int
	Upgrader   *websocket.Upgrader

	// RequestTimeout bounds each wait on the loop.
	RequestTimeout time.Duration

	makeSession func(ctx context.Context, params replay.Params) (*replay.Session, error)
	log         *log.Entry
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_PAUSE
	PS_OVER
	PS_ERR
)

// PlayerSession streams one replay to one websocket client.
type PlayerSession struct {
	State    PlayerSessionState
	Id       string
	Replay   *replay.Session
	Interval time.Duration
	Conn     *websocket.Conn
	Commands chan model.Command
	Closed   chan struct{}

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int

	log *log.Entry
}
