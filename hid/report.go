package hid

// MaxReportSize is the hard cap on interrupt-IN payload bytes retained
// from a single poll.
const MaxReportSize = 64

// MinReportSize is the minimum reception length that decodes to a report.
const MinReportSize = 3

// Report is a decoded input report as delivered to consumers.
//
// Data holds the raw reception verbatim in slots 0..Len-1; the remaining
// slots are always zero. Modifiers and Keys hold the Boot-Protocol field
// decode, with short receptions padded per the fallback rules (see the
// package documentation).
type Report struct {
	Data      [MaxReportSize]byte // Raw payload, zero-filled past Len
	Len       uint8               // Number of bytes received (3-64)
	Modifiers uint8               // Modifier key state
	Keys      [6]uint8            // Up to 6 simultaneous key codes
}

// DecodeReport decodes a completed reception into out.
// Returns false if data is shorter than MinReportSize; out is zeroed in
// that case. Receptions longer than MaxReportSize are truncated.
func DecodeReport(data []byte, out *Report) bool {
	*out = Report{}
	if len(data) < MinReportSize {
		return false
	}
	n := len(data)
	if n > MaxReportSize {
		n = MaxReportSize
	}
	copy(out.Data[:], data[:n])
	out.Len = uint8(n)
	out.Modifiers = data[0]
	if n >= KeyboardReportSize {
		// Boot-Protocol layout: byte 1 is reserved and skipped.
		copy(out.Keys[:], data[2:8])
		return true
	}
	for k := 0; k < len(out.Keys) && k+1 < n; k++ {
		out.Keys[k] = data[k+1]
	}
	return true
}

// Equal reports whether two reports carry the same raw payload.
func (r *Report) Equal(other *Report) bool {
	if r.Len != other.Len {
		return false
	}
	return r.Data == other.Data
}

// Pressed returns the active (nonzero) key codes in press order.
func (r *Report) Pressed() []uint8 {
	keys := make([]uint8, 0, len(r.Keys))
	for _, k := range r.Keys {
		if k != KeyNone {
			keys = append(keys, k)
		}
	}
	return keys
}

// Empty reports whether no modifier or key is active.
func (r *Report) Empty() bool {
	return r.Modifiers == 0 && r.Keys == [6]uint8{}
}

// KeyboardReport is an 8-byte Boot-Protocol keyboard input report.
type KeyboardReport struct {
	Modifiers uint8    // Modifier key state
	Reserved  uint8    // Reserved (always 0)
	Keys      [6]uint8 // Up to 6 simultaneous key codes
}

// KeyboardReportSize is the size of a keyboard report in bytes.
const KeyboardReportSize = 8

// MarshalTo writes the keyboard report to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *KeyboardReport) MarshalTo(buf []byte) int {
	if len(buf) < KeyboardReportSize {
		return 0
	}
	buf[0] = r.Modifiers
	buf[1] = r.Reserved
	buf[2] = r.Keys[0]
	buf[3] = r.Keys[1]
	buf[4] = r.Keys[2]
	buf[5] = r.Keys[3]
	buf[6] = r.Keys[4]
	buf[7] = r.Keys[5]
	return KeyboardReportSize
}

// Clear resets the keyboard report to all keys released.
func (r *KeyboardReport) Clear() {
	r.Modifiers = 0
	r.Reserved = 0
	r.Keys = [6]uint8{}
}

// SetKey sets a key in the key array.
// Returns false if no slot is available.
func (r *KeyboardReport) SetKey(key uint8) bool {
	for i := range r.Keys {
		if r.Keys[i] == 0 {
			r.Keys[i] = key
			return true
		}
		if r.Keys[i] == key {
			return true // Already set
		}
	}
	return false
}

// ClearKey removes a key from the key array.
func (r *KeyboardReport) ClearKey(key uint8) {
	for i := range r.Keys {
		if r.Keys[i] == key {
			// Shift remaining keys
			for j := i; j < len(r.Keys)-1; j++ {
				r.Keys[j] = r.Keys[j+1]
			}
			r.Keys[len(r.Keys)-1] = 0
			return
		}
	}
}

// MouseReport is a Boot-Protocol mouse input report.
type MouseReport struct {
	Buttons uint8 // Button state
	X       int8  // X movement (-127 to 127)
	Y       int8  // Y movement (-127 to 127)
	Wheel   int8  // Wheel movement (-127 to 127)
}

// MouseReportSize is the size of a mouse report in bytes.
const MouseReportSize = 4

// MarshalTo writes the mouse report to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *MouseReport) MarshalTo(buf []byte) int {
	if len(buf) < MouseReportSize {
		return 0
	}
	buf[0] = r.Buttons
	buf[1] = byte(r.X)
	buf[2] = byte(r.Y)
	buf[3] = byte(r.Wheel)
	return MouseReportSize
}

// Clear resets the mouse report.
func (r *MouseReport) Clear() {
	r.Buttons = 0
	r.X = 0
	r.Y = 0
	r.Wheel = 0
}

// DecodeMouseReport decodes a boot mouse reception into out.
// The boot layout requires buttons, X, and Y; the wheel byte is optional
// and decodes to 0 when absent. Returns false if data is shorter than
// 3 bytes.
func DecodeMouseReport(data []byte, out *MouseReport) bool {
	out.Clear()
	if len(data) < 3 {
		return false
	}
	out.Buttons = data[0]
	out.X = int8(data[1])
	out.Y = int8(data[2])
	if len(data) >= MouseReportSize {
		out.Wheel = int8(data[3])
	}
	return true
}
