// Package libusb provides a bus backend polling real USB devices
// through gousb.
//
// The backend claims a Boot-Protocol keyboard interface (or any
// device selected by vendor and product ID) and keeps an interrupt-IN
// read pending on it. The operating system's host controller performs
// the actual bus schedule, so per-poll handshakes are not observable:
// a token finding a completed read delivers its payload as a DATA
// packet, and a token finding none is answered NAK, which is what the
// device on the wire was almost certainly saying. Endpoint stalls and
// device loss surface as STALL replies and session withdrawal.
//
// The synthesized DATA toggle alternates per delivered packet. After
// an engine halt the two sides may disagree for one packet; the
// alternation realigns them on the next, exactly as a lost handshake
// resolves on a real bus.
package libusb
