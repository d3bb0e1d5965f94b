package model

// ServerMessage is one gob frame sent to a replay client. Every field is a
// slice so a frame can carry any mix of parts.
type ServerMessage struct {
	Setup []Setup
	Steps []Step
	Over  []Over
}

type Setup struct {
	SessionId  string
	Rows, Cols int
	Cells      []CellState
	Start      Position
	Goal       Position
	Seed       int64
	Found      bool
	PathLength int
}

type Step struct {
	Index    int
	Position Position
}

type Over struct {
	Found bool
	Steps int
}

type Command int

const (
	CMD_PAUSE Command = iota + 1
	CMD_RESUME
	CMD_REWIND
)

func (c Command) Name() string {
	switch c {
	case CMD_PAUSE:
		return "PAUSE"
	case CMD_RESUME:
		return "RESUME"
	case CMD_REWIND:
		return "REWIND"
	default:
		return "N/A"
	}
}

type ClientMessage struct {
	Command Command
}
