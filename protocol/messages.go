package protocol

import (
	"github.com/fxamacker/cbor/v2"
)

// Payloads are encoded with CBOR Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no indefinite-length
// items. The same logical message always produces identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("protocol: CBOR decoder initialization failed: " + err.Error())
	}
}

// Message is implemented by every wire message.
type Message interface {
	messageType() MessageType
}

// Ping asks the daemon for a liveness reply.
type Ping struct{}

// Pong answers a Ping.
type Pong struct{}

// Spawn asks the daemon to start the named app. When Single is set the
// request is a no-op if an app of that name is already running.
type Spawn struct {
	AppName string `cbor:"app_name"`
	Single  bool   `cbor:"single"`
}

// Running reports whether an app of the given name is currently alive.
type Running struct {
	AppName string `cbor:"app_name"`
	Running bool   `cbor:"running"`
}

// AppResult delivers the output of a finished app to the client that
// spawned it.
type AppResult struct {
	Result string `cbor:"result"`
}

// Goodbye announces that the client is done and the connection may close.
type Goodbye struct{}

func (Ping) messageType() MessageType      { return MsgPing }
func (Pong) messageType() MessageType      { return MsgPong }
func (Spawn) messageType() MessageType     { return MsgSpawn }
func (Running) messageType() MessageType   { return MsgRunning }
func (AppResult) messageType() MessageType { return MsgAppResult }
func (Goodbye) messageType() MessageType   { return MsgGoodbye }

func encodePayload(msg Message) ([]byte, error) {
	return encMode.Marshal(msg)
}

func decodePayload(t MessageType, payload []byte) (Message, error) {
	var msg Message
	var err error
	switch t {
	case MsgPing:
		var m Ping
		err = decMode.Unmarshal(payload, &m)
		msg = m
	case MsgPong:
		var m Pong
		err = decMode.Unmarshal(payload, &m)
		msg = m
	case MsgSpawn:
		var m Spawn
		err = decMode.Unmarshal(payload, &m)
		msg = m
	case MsgRunning:
		var m Running
		err = decMode.Unmarshal(payload, &m)
		msg = m
	case MsgAppResult:
		var m AppResult
		err = decMode.Unmarshal(payload, &m)
		msg = m
	case MsgGoodbye:
		var m Goodbye
		err = decMode.Unmarshal(payload, &m)
		msg = m
	default:
		return nil, ErrUnknownType
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}
