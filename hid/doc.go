// Package hid provides USB HID Boot-Protocol report encoding and decoding.
//
// The package covers the class constants and report layouts needed by a
// keyboard/mouse polling host: modifier and keycode tables from the USB
// HID Usage Tables, the 8-byte Boot-Protocol keyboard report, the boot
// mouse report, and the length-tolerant decoder used on the receive path.
//
// # Decoding
//
// Interrupt-IN transactions may legally deliver fewer bytes than the full
// Boot-Protocol layout. [DecodeReport] accepts any reception of at least
// 3 bytes and decodes with fallback rules:
//
//   - N >= 8: byte 0 = modifiers, byte 1 reserved (skipped), bytes 2..7 =
//     key codes 0..5 (Boot-Protocol layout)
//   - 3 <= N < 8: byte 0 = modifiers, byte k+1 = key code k when present,
//     remaining key codes zero
//
// Receptions shorter than 3 bytes are rejected. The raw payload is always
// preserved alongside the decoded fields so consumers can reinterpret
// device-specific layouts (see [DecodeMouseReport]).
//
// # Names
//
// [KeyName], [ModifierNames], and [KeyChar] translate codes for logs and
// monitors; [CharKey] performs the reverse lookup for injecting text as
// key presses.
package hid
