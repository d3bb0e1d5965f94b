package server

import (
	"context"
	"encoding/gob"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/model"
)

var errClientClosed = errors.New("client closed")

// Client consumes a /play stream. Frames are buffered by a read goroutine so
// Poll can be called from a render loop without blocking.
type Client struct {
	conn      *websocket.Conn
	messages  chan model.ServerMessage
	done      chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex
	errMu     sync.Mutex
	err       error
	log       *log.Entry
}

func Dial(ctx context.Context, url string, logger *log.Entry) (*Client, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:     conn,
		messages: make(chan model.ServerMessage, 64),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
		log:      logger.WithField("component", "client"),
	}
	go c.loopRead()
	return c, nil
}

func (c *Client) loopRead() {
	defer close(c.readDone)
	defer close(c.messages)
	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			c.setErr(err)
			return
		}
		var mes model.ServerMessage
		if err := gob.NewDecoder(r).Decode(&mes); err != nil {
			c.log.WithError(err).Warn("cant decode")
			c.setErr(err)
			return
		}
		select {
		case c.messages <- mes:
		case <-c.done:
			c.setErr(errClientClosed)
			return
		}
	}
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Err reports why the stream ended, if it has.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Messages is closed when the connection ends.
func (c *Client) Messages() <-chan model.ServerMessage { return c.messages }

func (c *Client) Poll() (model.ServerMessage, bool) {
	select {
	case mes, ok := <-c.messages:
		return mes, ok
	default:
		return model.ServerMessage{}, false
	}
}

func (c *Client) Command(cmd model.Command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	w, err := c.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(model.ClientMessage{Command: cmd}); err != nil {
		return err
	}
	return w.Close()
}

// Close returns once the read goroutine has stopped, buffered frames that
// were never polled are dropped.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
		c.writeMu.Unlock()
		<-c.readDone
	})
	return err
}
