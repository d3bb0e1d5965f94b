package replay

import (
	"fmt"
	"time"

	"github.com/zucenko/mazerun/model"
)

// Feed paces a Session in-process: the setup first, then at most one
// message per interval. Poll never blocks.
type Feed struct {
	sess      *Session
	interval  time.Duration
	last      time.Time
	paused    bool
	setupSent bool
	now       func() time.Time
}

func NewFeed(sess *Session, interval time.Duration) *Feed {
	return &Feed{sess: sess, interval: interval, now: time.Now}
}

func (f *Feed) Poll() (model.ServerMessage, bool) {
	if !f.setupSent {
		f.setupSent = true
		f.last = f.now()
		return f.sess.SetupMessage(), true
	}
	if f.paused {
		return model.ServerMessage{}, false
	}
	now := f.now()
	if now.Sub(f.last) < f.interval {
		return model.ServerMessage{}, false
	}
	mes, ok := f.sess.NextMessage()
	if ok {
		f.last = now
	}
	return mes, ok
}

func (f *Feed) Command(cmd model.Command) error {
	switch cmd {
	case model.CMD_PAUSE:
		f.paused = true
	case model.CMD_RESUME:
		f.paused = false
	case model.CMD_REWIND:
		f.sess.Rewind()
		f.paused = false
	default:
		return fmt.Errorf("unknown command %d", cmd)
	}
	return nil
}

func (f *Feed) Close() error { return nil }
