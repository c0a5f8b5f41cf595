package fifo

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/hidpoll/host/phy"
	"github.com/ardnew/hidpoll/pkg"
)

// Message types for the FIFO protocol (shared by both halves).
const (
	msgToken  = 0x01 // IN token request: pid, address, endpoint
	msgData   = 0x02 // DATA reply: pid, payload bytes
	msgNak    = 0x04 // NAK reply
	msgStall  = 0x05 // STALL reply
	msgAttach = 0x12 // Device attach: session parameters
	msgDetach = 0x13 // Device detach
)

// FIFO file names (inside each device subdirectory).
const (
	fifoToken      = "token"
	fifoResponse   = "response"
	fifoConnection = "connection"
)

// Framing sizes.
const (
	headerSize = 3 // type (1) + length (2)
	tokenLen   = 3 // pid (1) + address (1) + endpoint (1)
	sessionLen = 9 // address, endpoint, mps, speed, interval, vid (2), pid (2)

	maxPayload = 1 + phy.MaxPacketSize // DATA reply: pid + packet
	maxMessage = headerSize + maxPayload
)

// frameMessage writes a framed message into buf and returns the framed
// length. buf must hold at least headerSize+len(payload) bytes.
func frameMessage(buf []byte, kind byte, payload []byte) int {
	buf[0] = kind
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	n := copy(buf[headerSize:], payload)
	return headerSize + n
}

// marshalSession packs a session into its attach wire form.
func marshalSession(buf []byte, s phy.Session) int {
	buf[0] = s.Address
	buf[1] = s.Endpoint
	buf[2] = s.MaxPacketSize
	buf[3] = byte(s.Speed)
	buf[4] = s.Interval
	binary.LittleEndian.PutUint16(buf[5:7], s.VendorID)
	binary.LittleEndian.PutUint16(buf[7:9], s.ProductID)
	return sessionLen
}

// unmarshalSession unpacks an attach payload.
func unmarshalSession(p []byte) (phy.Session, error) {
	if len(p) < sessionLen {
		return phy.Session{}, fmt.Errorf("%w: attach payload %d bytes", pkg.ErrProtocol, len(p))
	}
	return phy.Session{
		Address:       p[0],
		Endpoint:      p[1],
		MaxPacketSize: p[2],
		Speed:         phy.Speed(p[3]),
		Interval:      p[4],
		VendorID:      binary.LittleEndian.Uint16(p[5:7]),
		ProductID:     binary.LittleEndian.Uint16(p[7:9]),
	}, nil
}

// decoder reassembles framed messages from a stream read in arbitrary
// chunks. Writes up to the pipe buffer size are atomic, but a single
// read may still split or concatenate messages.
type decoder struct {
	buf     [4 * maxMessage]byte
	n       int
	scratch [maxPayload]byte
}

// writable returns the free region to read stream bytes into.
func (d *decoder) writable() []byte { return d.buf[d.n:] }

// advance records that k bytes were read into the writable region.
func (d *decoder) advance(k int) { d.n += k }

// reset discards all buffered bytes.
func (d *decoder) reset() { d.n = 0 }

// next extracts the next complete message. A zero kind means no
// complete message is buffered. The returned payload is valid only
// until the next call. A corrupt header empties the buffer, since a
// byte stream offers no way to resynchronize.
func (d *decoder) next() (byte, []byte, error) {
	if d.n < headerSize {
		return 0, nil, nil
	}
	kind := d.buf[0]
	length := int(binary.LittleEndian.Uint16(d.buf[1:3]))
	if length > maxPayload {
		d.n = 0
		return 0, nil, fmt.Errorf("%w: message length %d", pkg.ErrProtocol, length)
	}
	total := headerSize + length
	if d.n < total {
		return 0, nil, nil
	}
	payload := d.scratch[:length]
	copy(payload, d.buf[headerSize:total])
	d.n = copy(d.buf[:], d.buf[total:d.n])
	return kind, payload, nil
}
