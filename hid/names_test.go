package hid

import (
	"strings"
	"testing"
)

func TestModifierNames(t *testing.T) {
	tests := []struct {
		mask uint8
		want string
	}{
		{0, ""},
		{ModLeftCtrl, "LCTRL"},
		{ModLeftCtrl | ModLeftShift, "LCTRL+LSHIFT"},
		{ModRightGUI, "RGUI"},
		{0xFF, "LCTRL+LSHIFT+LALT+LGUI+RCTRL+RSHIFT+RALT+RGUI"},
	}

	for _, tt := range tests {
		got := strings.Join(ModifierNames(tt.mask), "+")
		if got != tt.want {
			t.Errorf("ModifierNames(%#02x) = %q, want %q", tt.mask, got, tt.want)
		}
	}
}

func TestKeyName(t *testing.T) {
	tests := []struct {
		code uint8
		want string
	}{
		{KeyNone, ""},
		{KeyA, "A"},
		{KeyZ, "Z"},
		{Key1, "1"},
		{Key0, "0"},
		{KeyEnter, "ENTER"},
		{KeySpace, "SPACE"},
		{KeyF12, "F12"},
		{0xE9, "0xE9"},
	}

	for _, tt := range tests {
		if got := KeyName(tt.code); got != tt.want {
			t.Errorf("KeyName(%#02x) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestKeyChar(t *testing.T) {
	tests := []struct {
		code    uint8
		shifted bool
		want    byte
		ok      bool
	}{
		{KeyA, false, 'a', true},
		{KeyA, true, 'A', true},
		{Key1, false, '1', true},
		{Key1, true, '!', true},
		{Key0, false, '0', true},
		{Key0, true, ')', true},
		{KeySpace, false, ' ', true},
		{KeyEnter, false, '\n', true},
		{KeyMinus, true, '_', true},
		{KeySlash, true, '?', true},
		{KeyF1, false, 0, false},
		{KeyNone, false, 0, false},
	}

	for _, tt := range tests {
		got, ok := KeyChar(tt.code, tt.shifted)
		if ok != tt.ok || got != tt.want {
			t.Errorf("KeyChar(%#02x, %v) = (%q, %v), want (%q, %v)",
				tt.code, tt.shifted, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCharKey(t *testing.T) {
	tests := []struct {
		ch      byte
		code    uint8
		shifted bool
		ok      bool
	}{
		{'a', KeyA, false, true},
		{'Z', KeyZ, true, true},
		{'5', Key5, false, true},
		{'%', Key5, true, true},
		{'0', Key0, false, true},
		{' ', KeySpace, false, true},
		{'\n', KeyEnter, false, true},
		{'\r', KeyEnter, false, true},
		{'-', KeyMinus, false, true},
		{'_', KeyMinus, true, true},
		{'"', KeyQuote, true, true},
		{0x07, 0, false, false},
	}

	for _, tt := range tests {
		code, shifted, ok := CharKey(tt.ch)
		if code != tt.code || shifted != tt.shifted || ok != tt.ok {
			t.Errorf("CharKey(%q) = (%#02x, %v, %v), want (%#02x, %v, %v)",
				tt.ch, code, shifted, ok, tt.code, tt.shifted, tt.ok)
		}
	}
}

func TestCharKeyRoundTrip(t *testing.T) {
	for ch := byte(0x20); ch < 0x7F; ch++ {
		code, shifted, ok := CharKey(ch)
		if !ok {
			continue
		}
		got, ok := KeyChar(code, shifted)
		if !ok || got != ch {
			t.Errorf("round trip %q -> (%#02x, %v) -> %q", ch, code, shifted, got)
		}
	}
}
