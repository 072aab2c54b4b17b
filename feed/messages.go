package feed

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"go-stepscope/engine"
)

// Message addresses on the wire
const (
	AddrMatrix    = "/matrix"
	AddrWheel     = "/wheel"
	AddrTracks    = "/tracks"
	AddrGetMatrix = "/get-matrix"
)

var (
	ErrMalformed      = errors.New("malformed message")
	ErrUnknownAddress = errors.New("unknown address")
)

// message is the union of every frame the feed sends or receives
type message struct {
	Addr   string   `json:"addr"`
	Matrix []int    `json:"matrix,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

// Codec turns feed frames into engine updates
type Codec struct {
	MaxTracks int
}

// DefaultCodec accepts track counts up to the default engine limit
var DefaultCodec = Codec{MaxTracks: engine.DefaultMaxTracks}

// Decode parses one text frame. Matrix length is left to the engine,
// which knows its configured size.
func (c Codec) Decode(data []byte) (engine.Update, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	switch msg.Addr {
	case AddrMatrix:
		if msg.Matrix == nil {
			return nil, errors.Wrap(ErrMalformed, "matrix missing")
		}
		m := make([]uint8, len(msg.Matrix))
		for i, v := range msg.Matrix {
			if v != 0 && v != 1 {
				return nil, errors.Wrapf(ErrMalformed, "matrix[%d] = %d", i, v)
			}
			m[i] = uint8(v)
		}
		return engine.MatrixUpdate{Matrix: m}, nil

	case AddrWheel:
		if msg.Value == nil || math.IsNaN(*msg.Value) || math.IsInf(*msg.Value, 0) {
			return nil, errors.Wrap(ErrMalformed, "wheel value missing")
		}
		return engine.TempoUpdate{Value: *msg.Value}, nil

	case AddrTracks:
		if msg.Value == nil {
			return nil, errors.Wrap(ErrMalformed, "track count missing")
		}
		n := *msg.Value
		if n != math.Trunc(n) || n < 1 || n > float64(c.MaxTracks) {
			return nil, errors.Wrapf(ErrMalformed, "track count %g not in [1, %d]", n, c.MaxTracks)
		}
		return engine.TrackCountUpdate{Value: int(n)}, nil

	case "":
		return nil, errors.Wrap(ErrMalformed, "addr missing")
	}
	return nil, errors.Wrapf(ErrUnknownAddress, "%q", msg.Addr)
}

// EncodeMatrix builds a /matrix frame
func EncodeMatrix(m []uint8) ([]byte, error) {
	cells := make([]int, len(m))
	for i, v := range m {
		cells[i] = int(v)
	}
	if cells == nil {
		cells = []int{}
	}
	return json.Marshal(message{Addr: AddrMatrix, Matrix: cells})
}

// EncodeValue builds a frame carrying a single value, /wheel or /tracks
func EncodeValue(addr string, v float64) ([]byte, error) {
	return json.Marshal(message{Addr: addr, Value: &v})
}

// EncodeRequest builds the frame asking the server for its matrix
func EncodeRequest() []byte {
	data, _ := json.Marshal(message{Addr: AddrGetMatrix})
	return data
}

// IsMatrixRequest reports whether data is a /get-matrix frame
func IsMatrixRequest(data []byte) bool {
	var msg message
	return json.Unmarshal(data, &msg) == nil && msg.Addr == AddrGetMatrix
}
