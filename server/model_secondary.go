package server

import (
	"fmt"
	"net/http"

	"github.com/zucenko/mazerun/replay"
)

type ResponseCode int

const (
	SESSION_READY ResponseCode = iota
	SESSION_INVALID
	SESSION_FAILED
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case SESSION_READY:
		return http.StatusOK
	case SESSION_INVALID:
		return http.StatusBadRequest
	case SESSION_FAILED:
		return http.StatusInternalServerError
	default:
		panic(h)
	}
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_PLAY:
		return "PLAY"
	case PS_PAUSE:
		return "PAUSE"
	case PS_OVER:
		return "OVER"
	case PS_ERR:
		return "ERR"
	default:
		return fmt.Sprintf("N/A(%d)", ps)
	}
}

type SessionAwaiting struct {
	ResponseCode ResponseCode
	Session      *replay.Session
	Err          error
}

type SessionRequest struct {
	Params          replay.Params
	SessionAwaiting chan SessionAwaiting
}
