package hid

import "fmt"

// modifierNames lists modifier bit names in bit order (bit 0 first).
var modifierNames = [8]string{
	"LCTRL", "LSHIFT", "LALT", "LGUI",
	"RCTRL", "RSHIFT", "RALT", "RGUI",
}

// ModifierNames returns the names of all modifiers set in mask, in bit
// order. Returns nil for an empty mask.
func ModifierNames(mask uint8) []string {
	var names []string
	for bit := 0; bit < 8; bit++ {
		if mask&(1<<bit) != 0 {
			names = append(names, modifierNames[bit])
		}
	}
	return names
}

// keyNames maps keycodes to display names.
var keyNames = map[uint8]string{
	KeyA: "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F",
	KeyG: "G", KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L",
	KeyM: "M", KeyN: "N", KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R",
	KeyS: "S", KeyT: "T", KeyU: "U", KeyV: "V", KeyW: "W", KeyX: "X",
	KeyY: "Y", KeyZ: "Z",
	Key1: "1", Key2: "2", Key3: "3", Key4: "4", Key5: "5",
	Key6: "6", Key7: "7", Key8: "8", Key9: "9", Key0: "0",
	KeyEnter:       "ENTER",
	KeyEscape:      "ESC",
	KeyBackspace:   "BACKSPACE",
	KeyTab:         "TAB",
	KeySpace:       "SPACE",
	KeyMinus:       "MINUS",
	KeyEqual:       "EQUAL",
	KeyLeftBrace:   "LBRACKET",
	KeyRightBrace:  "RBRACKET",
	KeyBackslash:   "BACKSLASH",
	KeySemicolon:   "SEMICOLON",
	KeyQuote:       "QUOTE",
	KeyGrave:       "GRAVE",
	KeyComma:       "COMMA",
	KeyDot:         "DOT",
	KeySlash:       "SLASH",
	KeyCapsLock:    "CAPSLOCK",
	KeyF1:          "F1",
	KeyF2:          "F2",
	KeyF3:          "F3",
	KeyF4:          "F4",
	KeyF5:          "F5",
	KeyF6:          "F6",
	KeyF7:          "F7",
	KeyF8:          "F8",
	KeyF9:          "F9",
	KeyF10:         "F10",
	KeyF11:         "F11",
	KeyF12:         "F12",
	KeyPrintScreen: "PRINTSCREEN",
	KeyScrollLock:  "SCROLLLOCK",
	KeyPause:       "PAUSE",
	KeyInsert:      "INSERT",
	KeyHome:        "HOME",
	KeyPageUp:      "PAGEUP",
	KeyDelete:      "DELETE",
	KeyEnd:         "END",
	KeyPageDown:    "PAGEDOWN",
	KeyRight:       "RIGHT",
	KeyLeft:        "LEFT",
	KeyDown:        "DOWN",
	KeyUp:          "UP",
}

// KeyName returns the display name for a keycode, or "0xNN" for codes
// without a name. KeyNone returns the empty string.
func KeyName(code uint8) string {
	if code == KeyNone {
		return ""
	}
	if name, ok := keyNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", code)
}

// shiftedDigits maps Key1..Key0 to their shifted symbols.
var shiftedDigits = [10]byte{'!', '@', '#', '$', '%', '^', '&', '*', '(', ')'}

// punctKeys maps punctuation keycodes to their unshifted and shifted
// characters.
var punctKeys = map[uint8][2]byte{
	KeyMinus:      {'-', '_'},
	KeyEqual:      {'=', '+'},
	KeyLeftBrace:  {'[', '{'},
	KeyRightBrace: {']', '}'},
	KeyBackslash:  {'\\', '|'},
	KeySemicolon:  {';', ':'},
	KeyQuote:      {'\'', '"'},
	KeyGrave:      {'`', '~'},
	KeyComma:      {',', '<'},
	KeyDot:        {'.', '>'},
	KeySlash:      {'/', '?'},
}

// KeyChar converts a keycode to its printable character, honoring the
// shift state. Returns false for codes with no printable mapping.
func KeyChar(code uint8, shifted bool) (byte, bool) {
	switch {
	case code >= KeyA && code <= KeyZ:
		ch := byte('a') + (code - KeyA)
		if shifted {
			ch -= 'a' - 'A'
		}
		return ch, true
	case code >= Key1 && code <= Key0:
		if shifted {
			return shiftedDigits[code-Key1], true
		}
		if code == Key0 {
			return '0', true
		}
		return '1' + (code - Key1), true
	}
	if pair, ok := punctKeys[code]; ok {
		if shifted {
			return pair[1], true
		}
		return pair[0], true
	}
	switch code {
	case KeySpace:
		return ' ', true
	case KeyEnter:
		return '\n', true
	case KeyTab:
		return '\t', true
	}
	return 0, false
}

// CharKey converts a printable character to its keycode and required
// shift state. Returns ok=false for characters with no keycode.
func CharKey(ch byte) (code uint8, shifted bool, ok bool) {
	switch {
	case ch >= 'a' && ch <= 'z':
		return KeyA + (ch - 'a'), false, true
	case ch >= 'A' && ch <= 'Z':
		return KeyA + (ch - 'A'), true, true
	case ch >= '1' && ch <= '9':
		return Key1 + (ch - '1'), false, true
	case ch == '0':
		return Key0, false, true
	case ch == ' ':
		return KeySpace, false, true
	case ch == '\n' || ch == '\r':
		return KeyEnter, false, true
	case ch == '\t':
		return KeyTab, false, true
	}
	for i, sym := range shiftedDigits {
		if ch == sym {
			return Key1 + uint8(i), true, true
		}
	}
	for kc, pair := range punctKeys {
		if ch == pair[0] {
			return kc, false, true
		}
		if ch == pair[1] {
			return kc, true, true
		}
	}
	return 0, false, false
}
