package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	magic      uint32 = 0x504d4401 // "PMD\x01"
	headerSize        = 16
)

// Flag bits for the header Flags byte.
const (
	FlagChecksum uint8 = 0x01
)

// Version is the protocol version implemented by this package.
const Version uint8 = 1

// MessageType enumerates the message categories exchanged between a client
// and the daemon.
type MessageType uint8

const (
	MsgPing MessageType = iota
	MsgPong
	MsgSpawn
	MsgRunning
	MsgAppResult
	MsgGoodbye
)

var (
	ErrInvalidMagic     = errors.New("protocol: invalid magic")
	ErrUnsupportedVer   = errors.New("protocol: unsupported version")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrUnknownType      = errors.New("protocol: unknown message type")
)

// header is the fixed portion of every frame. The payload following it is a
// CBOR document whose shape is determined by Type.
type header struct {
	Version    uint8
	Type       MessageType
	Flags      uint8
	PayloadLen uint32
	Checksum   uint32
}

func encodeHeader(hdr header, payload []byte) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], magic)
	buf[4] = hdr.Version
	buf[5] = byte(hdr.Type)
	buf[6] = hdr.Flags
	buf[7] = 0 // reserved
	binary.LittleEndian.PutUint32(buf[8:12], hdr.PayloadLen)

	checksum := hdr.Checksum
	if hdr.Flags&FlagChecksum != 0 {
		crc := crc32.NewIEEE()
		_, _ = crc.Write(buf[4:12])
		if len(payload) > 0 {
			_, _ = crc.Write(payload)
		}
		checksum = crc.Sum32()
	}
	binary.LittleEndian.PutUint32(buf[12:16], checksum)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	var hdr header
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return hdr, ErrInvalidMagic
	}
	hdr.Version = buf[4]
	hdr.Type = MessageType(buf[5])
	hdr.Flags = buf[6]
	hdr.PayloadLen = binary.LittleEndian.Uint32(buf[8:12])
	hdr.Checksum = binary.LittleEndian.Uint32(buf[12:16])
	if hdr.Version != Version {
		return hdr, ErrUnsupportedVer
	}
	return hdr, nil
}

func verifyChecksum(hdr header, rawHeader, payload []byte) error {
	if hdr.Flags&FlagChecksum == 0 {
		return nil
	}
	crc := crc32.NewIEEE()
	_, _ = crc.Write(rawHeader[4:12])
	if len(payload) > 0 {
		_, _ = crc.Write(payload)
	}
	if crc.Sum32() != hdr.Checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// WriteMessage frames and serialises msg to the provided writer.
func WriteMessage(w io.Writer, msg Message) error {
	frame, err := AppendMessage(nil, msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// AppendMessage appends the framed encoding of msg to dst and returns the
// extended slice.
func AppendMessage(dst []byte, msg Message) ([]byte, error) {
	payload, err := encodePayload(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %T: %w", msg, err)
	}
	hdr := header{
		Version:    Version,
		Type:       msg.messageType(),
		Flags:      FlagChecksum,
		PayloadLen: uint32(len(payload)),
	}
	dst = append(dst, encodeHeader(hdr, payload)...)
	dst = append(dst, payload...)
	return dst, nil
}

// Buffer accumulates raw bytes from a stream and decodes complete messages
// from its front. Partial frames are retained until enough bytes arrive, so
// reads may be split at arbitrary boundaries and frames may arrive pipelined
// back to back.
type Buffer struct {
	buf []byte
}

// Write appends raw stream bytes. It never fails; the io.Writer signature
// lets the buffer be the target of an io.Copy.
func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Len reports the number of buffered, not yet consumed bytes.
func (b *Buffer) Len() int { return len(b.buf) }

// Next decodes at most one message from the front of the buffer. It returns
// (nil, nil) when the buffered bytes do not yet form a complete frame. On
// success exactly the consumed bytes are removed; any trailing data is kept
// for the following call.
func (b *Buffer) Next() (Message, error) {
	if len(b.buf) < headerSize {
		return nil, nil
	}
	hdr, err := decodeHeader(b.buf[:headerSize])
	if err != nil {
		return nil, err
	}
	total := headerSize + int(hdr.PayloadLen)
	if len(b.buf) < total {
		return nil, nil
	}
	rawHeader := b.buf[:headerSize]
	payload := b.buf[headerSize:total]
	if err := verifyChecksum(hdr, rawHeader, payload); err != nil {
		return nil, err
	}
	msg, err := decodePayload(hdr.Type, payload)
	if err != nil {
		return nil, err
	}
	rest := len(b.buf) - total
	copy(b.buf, b.buf[total:])
	b.buf = b.buf[:rest]
	return msg, nil
}

// ReadMessage reads exactly one framed message from r, blocking until the
// frame is complete.
func ReadMessage(r io.Reader) (Message, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	hdr, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	if err := verifyChecksum(hdr, raw, payload); err != nil {
		return nil, err
	}
	return decodePayload(hdr.Type, payload)
}
