package phy

import "fmt"

// PID is a USB packet identifier as it appears on the wire: the 4-bit
// PID code in the low nibble and its ones' complement in the high nibble.
type PID uint8

// Packet identifiers (USB 2.0 Specification, Table 8-1).
const (
	// Token PIDs
	PIDOut   PID = 0xE1 // OUT token
	PIDIn    PID = 0x69 // IN token
	PIDSOF   PID = 0xA5 // Start of frame
	PIDSetup PID = 0x2D // SETUP token

	// Data PIDs
	PIDData0 PID = 0xC3 // DATA0 packet
	PIDData1 PID = 0x4B // DATA1 packet
	PIDData2 PID = 0x87 // DATA2 packet (high-speed isochronous)
	PIDMData PID = 0x0F // MDATA packet (split/isochronous)

	// Handshake PIDs
	PIDAck   PID = 0xD2 // ACK handshake
	PIDNak   PID = 0x5A // NAK handshake
	PIDStall PID = 0x1E // STALL handshake
	PIDNyet  PID = 0x96 // NYET handshake (high speed)

	// Special PIDs
	PIDPre   PID = 0x3C // Preamble (also ERR for split)
	PIDSplit PID = 0x78 // Split transaction token
	PIDPing  PID = 0xB4 // PING probe (high speed)
)

// Valid reports whether the high nibble is the ones' complement of the
// low nibble, as required of every wire PID.
func (p PID) Valid() bool {
	return uint8(p)>>4 == ^uint8(p)&0x0F
}

// IsData reports whether p is a DATA0 or DATA1 packet identifier.
func (p PID) IsData() bool {
	return p == PIDData0 || p == PIDData1
}

// Toggle returns the data-toggle value encoded by a DATA0/DATA1
// identifier: false for DATA0, true for DATA1.
func (p PID) Toggle() bool {
	return p == PIDData1
}

// DataPID returns the data packet identifier for a toggle value:
// DATA0 for false, DATA1 for true.
func DataPID(toggle bool) PID {
	if toggle {
		return PIDData1
	}
	return PIDData0
}

// String returns the packet identifier name.
func (p PID) String() string {
	switch p {
	case PIDOut:
		return "OUT"
	case PIDIn:
		return "IN"
	case PIDSOF:
		return "SOF"
	case PIDSetup:
		return "SETUP"
	case PIDData0:
		return "DATA0"
	case PIDData1:
		return "DATA1"
	case PIDData2:
		return "DATA2"
	case PIDMData:
		return "MDATA"
	case PIDAck:
		return "ACK"
	case PIDNak:
		return "NAK"
	case PIDStall:
		return "STALL"
	case PIDNyet:
		return "NYET"
	case PIDPre:
		return "PRE"
	case PIDSplit:
		return "SPLIT"
	case PIDPing:
		return "PING"
	default:
		return fmt.Sprintf("PID(%#02x)", uint8(p))
	}
}
