package server

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/model"
	"github.com/zucenko/mazerun/replay"
)

const (
	requestTimeout   = 2 * time.Second
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

func NewGameServer(cfg Config, store *Store, logger *log.Entry) *GameServer {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &GameServer{
		Config:         cfg,
		Store:          store,
		Sessions:       make(map[string]*replay.Session),
		Requests:       make(chan SessionRequest),
		Unregister:     make(chan string),
		Stats:          make(chan chan int),
		Upgrader:       &websocket.Upgrader{},
		RequestTimeout: requestTimeout,
		log:            logger.WithField("component", "server"),
	}
	s.makeSession = s.newSession
	return s
}

// Loop owns the session registry until ctx is done.
func (s *GameServer) Loop(ctx context.Context) {
	s.log.Info("GameServer.Loop starting")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("GameServer.Loop stopped")
			return
		case req := <-s.Requests:
			sess, err := s.makeSession(ctx, req.Params)
			if err != nil {
				code := SESSION_FAILED
				if errors.Is(err, model.ErrInvalidDimensions) || errors.Is(err, model.ErrOutOfBounds) {
					code = SESSION_INVALID
				}
				req.SessionAwaiting <- SessionAwaiting{ResponseCode: code, Err: err}
				continue
			}
			s.Sessions[sess.Id] = sess
			req.SessionAwaiting <- SessionAwaiting{ResponseCode: SESSION_READY, Session: sess}
		case id := <-s.Unregister:
			delete(s.Sessions, id)
			s.log.WithField("session", id).Debug("unregistered")
		case reply := <-s.Stats:
			reply <- len(s.Sessions)
		}
	}
}

// ActiveSessions asks the loop how many replays are streaming.
func (s *GameServer) ActiveSessions(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case s.Stats <- reply:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *GameServer) newSession(ctx context.Context, params replay.Params) (*replay.Session, error) {
	sess, err := replay.NewSession(uuid.NewString(), params, s.log)
	if err != nil {
		return nil, err
	}
	if s.Store != nil {
		run := Run{
			Id:         sess.Id,
			Rows:       params.Rows,
			Cols:       params.Cols,
			Seed:       params.Seed,
			StartX:     params.Start.X,
			StartY:     params.Start.Y,
			GoalX:      params.Goal.X,
			GoalY:      params.Goal.Y,
			Found:      sess.Result.Found,
			PathLength: len(sess.Result.Path),
			Expanded:   sess.Result.Expanded,
		}
		if err := s.Store.Record(ctx, run); err != nil {
			s.log.WithError(err).Warn("run not recorded")
		}
	}
	return sess, nil
}

func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.log.Printf("HandleHttpCall - connection received")
		params, interval, err := s.Config.ParamsFromQuery(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		awaiting := make(chan SessionAwaiting, 1)
		select {
		case s.Requests <- SessionRequest{Params: params, SessionAwaiting: awaiting}:
		case <-time.After(s.RequestTimeout):
			s.log.Warn("Requests TIMEOUTED")
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}

		var sa SessionAwaiting
		select {
		case sa = <-awaiting:
		case <-time.After(s.RequestTimeout):
			s.log.Warn("HandleHttpCall SessionAwaiting <- TIMEOUTED")
			// the loop still answers and registers, nobody will stream it
			go s.abandon(awaiting)
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}
		if sa.ResponseCode != SESSION_READY {
			s.log.WithError(sa.Err).Warnf("HandleHttpCall code:%d", sa.ResponseCode)
			http.Error(w, sa.Err.Error(), sa.ResponseCode.ToHttp())
			return
		}
		defer s.unregister(sa.Session.Id)

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the request
			s.log.WithError(err).Warn("HandleHttpCall websocket upgrade")
			return
		}

		ps := NewPlayerSession(con, sa.Session, interval, s.log)
		ps.Run(r.Context())
		con.Close()
		<-ps.Closed
		s.log.WithFields(log.Fields{
			"session": ps.Id,
			"state":   ps.State.Name(),
			"in":      ps.DebugInMessages,
			"out":     ps.DebugOutMessages,
		}).Info("HandleHttpCall done")
	}
}

// abandon waits for a late answer and drops the session it carries.
func (s *GameServer) abandon(awaiting <-chan SessionAwaiting) {
	sa := <-awaiting
	if sa.Session != nil {
		s.log.WithField("session", sa.Session.Id).Info("dropping abandoned session")
		s.unregister(sa.Session.Id)
	}
}

func (s *GameServer) unregister(id string) {
	select {
	case s.Unregister <- id:
	case <-time.After(s.RequestTimeout):
		s.log.WithField("session", id).Warn("Unregister TIMEOUTED")
	}
}

// HandleMaze renders a maze and its path as text.
func (s *GameServer) HandleMaze() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, _, err := s.Config.ParamsFromQuery(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess, err := s.newSession(r.Context(), params)
		if err != nil {
			s.log.WithError(err).Error("HandleMaze")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Maze-Session", sess.Id)
		w.Header().Set("X-Maze-Seed", strconv.FormatInt(params.Seed, 10))
		w.Header().Set("X-Path-Length", strconv.Itoa(len(sess.Result.Path)))
		start, goal := params.Start, params.Goal
		_, _ = w.Write([]byte(model.Render(sess.Grid, sess.Result.Path, &start, &goal)))
	}
}

func (s *GameServer) HandleRuns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Store == nil {
			http.Error(w, "run history disabled", http.StatusServiceUnavailable)
			return
		}
		limit, err := queryInt(r.URL.Query(), "limit", defaultRunsLimit)
		if err != nil || limit <= 0 || limit > maxRunsLimit {
			http.Error(w, "limit must be 1.."+strconv.Itoa(maxRunsLimit), http.StatusBadRequest)
			return
		}
		runs, err := s.Store.Recent(r.Context(), limit)
		if err != nil {
			s.log.WithError(err).Error("HandleRuns")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, runs)
	}
}

func (s *GameServer) HandleRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Store == nil {
			http.Error(w, "run history disabled", http.StatusServiceUnavailable)
			return
		}
		run, err := s.Store.Get(r.Context(), way.Param(r.Context(), "id"))
		if errors.Is(err, ErrRunNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			s.log.WithError(err).Error("HandleRun")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, run)
	}
}

func (s *GameServer) HandleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.RequestTimeout)
		defer cancel()
		n, err := s.ActiveSessions(ctx)
		if err != nil {
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}
		s.writeJSON(w, map[string]int{"active": n})
	}
}

func (s *GameServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("json encode")
	}
}

func NewPlayerSession(conn *websocket.Conn, sess *replay.Session, interval time.Duration, logger *log.Entry) *PlayerSession {
	return &PlayerSession{
		State:    PS_NEW,
		Id:       sess.Id,
		Replay:   sess,
		Interval: interval,
		Conn:     conn,
		Commands: make(chan model.Command, 10),
		Closed:   make(chan struct{}),
		log:      logger.WithField("session", sess.Id),
	}
}

// Run streams the replay until the client goes away or ctx is done.
func (ps *PlayerSession) Run(ctx context.Context) {
	conn := ps.Conn
	conn.SetPingHandler(
		func(message string) error {
			err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
			ps.DebugLastPing = time.Now()
			ps.DebugPings++
			if err == websocket.ErrCloseSent {
				return nil
			} else if e, ok := err.(net.Error); ok && e.Timeout() {
				return nil
			}
			return err
		})
	go ps.LoopChannelRead()
	ps.LoopChannelWrite(ctx)
}

// LoopChannelRead decodes client commands; it is the only closer of Closed.
func (ps *PlayerSession) LoopChannelRead() {
	defer close(ps.Closed)
	for {
		_, r, err := ps.Conn.NextReader()
		if err != nil {
			ps.log.Debugf("LoopChannelRead ended: %v", err)
			return
		}
		cm := &model.ClientMessage{}
		if err := gob.NewDecoder(r).Decode(cm); err != nil {
			ps.log.WithError(err).Warn("LoopChannelRead cant decode")
			return
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++

		select {
		case ps.Commands <- cm.Command:
		default:
			ps.log.Warnf("Dropping %s, Commands FULL", cm.Command.Name())
		}
	}
}

// LoopChannelWrite sends the setup and then one step per tick.
func (ps *PlayerSession) LoopChannelWrite(ctx context.Context) {
	if err := ps.write(ps.Replay.SetupMessage()); err != nil {
		ps.State = PS_ERR
		return
	}
	ps.State = PS_PLAY

	ticker := time.NewTicker(ps.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ps.Closed:
			return
		case cmd := <-ps.Commands:
			ps.apply(cmd)
		case <-ticker.C:
			if ps.State != PS_PLAY {
				continue
			}
			mes, ok := ps.Replay.NextMessage()
			if !ok {
				ps.State = PS_OVER
				continue
			}
			if len(mes.Over) > 0 {
				ps.State = PS_OVER
			}
			if err := ps.write(mes); err != nil {
				ps.State = PS_ERR
				return
			}
		}
	}
}

func (ps *PlayerSession) apply(cmd model.Command) {
	ps.log.Debugf("command %s in state %s", cmd.Name(), ps.State.Name())
	switch cmd {
	case model.CMD_PAUSE:
		if ps.State == PS_PLAY {
			ps.State = PS_PAUSE
		}
	case model.CMD_RESUME:
		if ps.State == PS_PAUSE {
			ps.State = PS_PLAY
		}
	case model.CMD_REWIND:
		ps.Replay.Rewind()
		ps.State = PS_PLAY
	default:
		ps.log.Warnf("unknown command %d", cmd)
	}
}

func (ps *PlayerSession) write(mes model.ServerMessage) error {
	w, err := ps.Conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		ps.log.WithError(err).Warn("LoopChannelWrite cant get writer")
		return err
	}
	if err := gob.NewEncoder(w).Encode(mes); err != nil {
		ps.log.WithError(err).Warn("LoopChannelWrite cant encode")
		return err
	}
	if err := w.Close(); err != nil {
		ps.log.WithError(err).Warn("LoopChannelWrite cant flush")
		return err
	}
	ps.DebugOutMessages++
	return nil
}

const (
	URI_WS   = "/play"
	URI_MAZE = "/maze"
	URI_RUNS = "/runs"
	URI_RUN  = "/runs/:id"
	URI_STAT = "/stats"
)

func (s *GameServer) Routes(router *way.Router) {
	router.HandleFunc("GET", URI_WS, s.HandleHttpCall())
	router.HandleFunc("GET", URI_MAZE, s.HandleMaze())
	router.HandleFunc("GET", URI_RUNS, s.HandleRuns())
	router.HandleFunc("GET", URI_RUN, s.HandleRun())
	router.HandleFunc("GET", URI_STAT, s.HandleStats())
}
