package server

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/mazerun/model"
	"github.com/zucenko/mazerun/replay"
)

func setupTestServer(t *testing.T) (*GameServer, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Interval = 5 * time.Millisecond
	gs := NewGameServer(cfg, setupTestStore(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go gs.Loop(ctx)

	router := way.NewRouter()
	gs.Routes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return gs, srv
}

func readMessage(t *testing.T, conn *websocket.Conn) model.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, r, err := conn.NextReader()
	require.NoError(t, err)
	var mes model.ServerMessage
	require.NoError(t, gob.NewDecoder(r).Decode(&mes))
	return mes
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd model.Command) {
	t.Helper()
	w, err := conn.NextWriter(websocket.BinaryMessage)
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(w).Encode(model.ClientMessage{Command: cmd}))
	require.NoError(t, w.Close())
}

// readSteps collects steps until the Over frame.
func readSteps(t *testing.T, conn *websocket.Conn) ([]model.Step, model.Over) {
	t.Helper()
	var steps []model.Step
	for {
		mes := readMessage(t, conn)
		steps = append(steps, mes.Steps...)
		if len(mes.Over) > 0 {
			return steps, mes.Over[0]
		}
	}
}

func TestPlayStreamsWholePath(t *testing.T) {
	gs, srv := setupTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + URI_WS + "?rows=9&cols=9&seed=3"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	setup := readMessage(t, conn)
	require.Len(t, setup.Setup, 1)
	s := setup.Setup[0]
	assert.Equal(t, 9, s.Rows)
	assert.Equal(t, 9, s.Cols)
	assert.Equal(t, int64(3), s.Seed)
	assert.Equal(t, model.Position{X: 1, Y: 1}, s.Start)
	assert.Equal(t, model.Position{X: 7, Y: 7}, s.Goal)
	require.True(t, s.Found)

	steps, over := readSteps(t, conn)
	require.Len(t, steps, s.PathLength)
	assert.Equal(t, s.Start, steps[0].Position)
	assert.Equal(t, s.Goal, steps[len(steps)-1].Position)
	for i, st := range steps {
		assert.Equal(t, i, st.Index)
	}
	assert.True(t, over.Found)
	assert.Equal(t, s.PathLength, over.Steps)

	// the grid on the wire is walkable along the streamed steps
	grid, err := model.GridFromCells(s.Rows, s.Cols, s.Cells)
	require.NoError(t, err)
	for _, st := range steps {
		assert.Equal(t, model.Open, grid.At(st.Position))
	}

	sendCommand(t, conn, model.CMD_REWIND)
	again, _ := readSteps(t, conn)
	assert.Equal(t, steps, again)

	run, err := gs.Store.Get(context.Background(), s.SessionId)
	require.NoError(t, err)
	assert.Equal(t, s.PathLength, run.PathLength)

	n, err := gs.ActiveSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	conn.Close()
	assert.Eventually(t, func() bool {
		n, err := gs.ActiveSessions(context.Background())
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPlayPauseStopsSteps(t *testing.T) {
	_, srv := setupTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + URI_WS + "?rows=31&cols=31&seed=8&interval=20ms"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	setup := readMessage(t, conn)
	require.Len(t, setup.Setup, 1)
	first := readMessage(t, conn)
	require.Len(t, first.Steps, 1)

	sendCommand(t, conn, model.CMD_PAUSE)
	// drain frames already in flight, then expect silence
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	last := first.Steps[0].Index
	for {
		_, r, err := conn.NextReader()
		if err != nil {
			break
		}
		var mes model.ServerMessage
		require.NoError(t, gob.NewDecoder(r).Decode(&mes))
		for _, st := range mes.Steps {
			last = st.Index
		}
	}
	assert.Less(t, last, setup.Setup[0].PathLength-1)
}

func TestPlayBadQuery(t *testing.T) {
	_, srv := setupTestServer(t)
	resp, err := http.Get(srv.URL + URI_WS + "?rows=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMazeText(t *testing.T) {
	_, srv := setupTestServer(t)
	resp, err := http.Get(srv.URL + URI_MAZE + "?rows=7&cols=9&seed=12")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12", resp.Header.Get("X-Maze-Seed"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 7)
	for _, l := range lines {
		assert.Len(t, l, 9)
	}
	assert.Equal(t, byte('S'), lines[1][1])
	assert.Equal(t, byte('G'), lines[5][7])
}

func TestRunsHistory(t *testing.T) {
	_, srv := setupTestServer(t)
	for _, seed := range []string{"1", "2"} {
		resp, err := http.Get(srv.URL + URI_MAZE + "?rows=5&cols=5&seed=" + seed)
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + URI_RUNS + "?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs []Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 2)

	one, err := http.Get(srv.URL + "/runs/" + runs[0].Id)
	require.NoError(t, err)
	defer one.Body.Close()
	require.Equal(t, http.StatusOK, one.StatusCode)
	var run Run
	require.NoError(t, json.NewDecoder(one.Body).Decode(&run))
	assert.Equal(t, runs[0].Id, run.Id)

	missing, err := http.Get(srv.URL + "/runs/missing")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	bad, err := http.Get(srv.URL + URI_RUNS + "?limit=0")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRunsWithoutStore(t *testing.T) {
	gs := NewGameServer(DefaultConfig(), nil, nil)
	rec := httptest.NewRecorder()
	gs.HandleRuns()(rec, httptest.NewRequest(http.MethodGet, URI_RUNS, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResponseCodes(t *testing.T) {
	assert.Equal(t, http.StatusOK, SESSION_READY.ToHttp())
	assert.Equal(t, http.StatusBadRequest, SESSION_INVALID.ToHttp())
	assert.Equal(t, "PAUSE", PS_PAUSE.Name())
}

func TestPlayTimeoutDropsLateSession(t *testing.T) {
	gs := NewGameServer(DefaultConfig(), nil, nil)
	gs.RequestTimeout = 50 * time.Millisecond
	made := make(chan struct{})
	build := gs.makeSession
	gs.makeSession = func(ctx context.Context, params replay.Params) (*replay.Session, error) {
		defer close(made)
		time.Sleep(200 * time.Millisecond)
		return build(ctx, params)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gs.Loop(ctx)

	rec := httptest.NewRecorder()
	gs.HandleHttpCall()(rec, httptest.NewRequest(http.MethodGet, URI_WS+"?rows=5&cols=5&seed=1", nil))
	assert.Equal(t, http.StatusRequestTimeout, rec.Code)

	<-made
	assert.Eventually(t, func() bool {
		n, err := gs.ActiveSessions(ctx)
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)
}
