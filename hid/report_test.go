package hid

import (
	"bytes"
	"testing"
)

// === DecodeReport ===

func TestDecodeReport_BootLayout(t *testing.T) {
	data := []byte{0x05, 0xFF, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	var r Report
	if !DecodeReport(data, &r) {
		t.Fatal("DecodeReport() = false, want true")
	}
	if r.Len != 8 {
		t.Errorf("Len = %d, want 8", r.Len)
	}
	if r.Modifiers != 0x05 {
		t.Errorf("Modifiers = %#02x, want 0x05", r.Modifiers)
	}
	want := [6]uint8{0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	if r.Keys != want {
		t.Errorf("Keys = %v, want %v", r.Keys, want)
	}
	// Reserved byte is carried in the raw payload but not decoded.
	if r.Data[1] != 0xFF {
		t.Errorf("Data[1] = %#02x, want 0xFF", r.Data[1])
	}
}

func TestDecodeReport_ShortFallback(t *testing.T) {
	data := []byte{0xA0, 0xB1, 0xC2, 0xD3}
	var r Report
	if !DecodeReport(data, &r) {
		t.Fatal("DecodeReport() = false, want true")
	}
	if r.Modifiers != 0xA0 {
		t.Errorf("Modifiers = %#02x, want 0xA0", r.Modifiers)
	}
	want := [6]uint8{0xB1, 0xC2, 0xD3, 0, 0, 0}
	if r.Keys != want {
		t.Errorf("Keys = %v, want %v", r.Keys, want)
	}
	if r.Len != 4 {
		t.Errorf("Len = %d, want 4", r.Len)
	}
}

func TestDecodeReport_TooShort(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		data := bytes.Repeat([]byte{0xEE}, n)
		r := Report{Len: 99, Modifiers: 0x42}
		if DecodeReport(data, &r) {
			t.Errorf("DecodeReport(%d bytes) = true, want false", n)
		}
		if r.Len != 0 || r.Modifiers != 0 {
			t.Errorf("reject of %d bytes left stale fields: %+v", n, r)
		}
	}
}

func TestDecodeReport_MinimumLength(t *testing.T) {
	data := []byte{0x02, 0x04, 0x05}
	var r Report
	if !DecodeReport(data, &r) {
		t.Fatal("DecodeReport(3 bytes) = false, want true")
	}
	if r.Modifiers != 0x02 || r.Keys[0] != 0x04 || r.Keys[1] != 0x05 {
		t.Errorf("decoded fields wrong: %+v", r)
	}
	if r.Keys[2] != 0 {
		t.Errorf("Keys[2] = %#02x, want 0", r.Keys[2])
	}
}

func TestDecodeReport_ZeroFill(t *testing.T) {
	data := []byte{0x01, 0x00, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0xAA, 0xBB}
	var r Report
	if !DecodeReport(data, &r) {
		t.Fatal("DecodeReport() = false, want true")
	}
	if r.Len != 10 {
		t.Errorf("Len = %d, want 10", r.Len)
	}
	if !bytes.Equal(r.Data[:10], data) {
		t.Errorf("Data[:10] = % x, want % x", r.Data[:10], data)
	}
	for i := 10; i < MaxReportSize; i++ {
		if r.Data[i] != 0 {
			t.Errorf("Data[%d] = %#02x, want 0", i, r.Data[i])
		}
	}
}

func TestDecodeReport_ReuseClearsStale(t *testing.T) {
	long := bytes.Repeat([]byte{0x77}, 16)
	var r Report
	if !DecodeReport(long, &r) {
		t.Fatal("long decode failed")
	}
	short := []byte{0x00, 0x04, 0x00}
	if !DecodeReport(short, &r) {
		t.Fatal("short decode failed")
	}
	for i := 3; i < MaxReportSize; i++ {
		if r.Data[i] != 0 {
			t.Fatalf("Data[%d] = %#02x, stale bytes survived reuse", i, r.Data[i])
		}
	}
}

func TestDecodeReport_Truncation(t *testing.T) {
	data := bytes.Repeat([]byte{0x11}, MaxReportSize+8)
	var r Report
	if !DecodeReport(data, &r) {
		t.Fatal("DecodeReport() = false, want true")
	}
	if r.Len != MaxReportSize {
		t.Errorf("Len = %d, want %d", r.Len, MaxReportSize)
	}
}

func TestReport_Equal(t *testing.T) {
	var a, b Report
	DecodeReport([]byte{0x01, 0x00, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, &a)
	DecodeReport([]byte{0x01, 0x00, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, &b)
	if !a.Equal(&b) {
		t.Error("identical reports not Equal")
	}
	DecodeReport([]byte{0x01, 0x00, 0x04, 0x05, 0x06, 0x07, 0x08, 0x0A}, &b)
	if a.Equal(&b) {
		t.Error("different payloads reported Equal")
	}
	DecodeReport([]byte{0x01, 0x00, 0x04}, &b)
	if a.Equal(&b) {
		t.Error("different lengths reported Equal")
	}
}

func TestReport_Pressed(t *testing.T) {
	var r Report
	DecodeReport([]byte{0x00, 0x00, KeyA, 0x00, KeyZ, 0x00, 0x00, 0x00}, &r)
	got := r.Pressed()
	if len(got) != 2 || got[0] != KeyA || got[1] != KeyZ {
		t.Errorf("Pressed() = %v, want [KeyA KeyZ]", got)
	}
}

func TestReport_Empty(t *testing.T) {
	var r Report
	DecodeReport([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, &r)
	if !r.Empty() {
		t.Error("all-zero report not Empty")
	}
	DecodeReport([]byte{0x02, 0x00, 0x00}, &r)
	if r.Empty() {
		t.Error("modifier-only report reported Empty")
	}
}

// === KeyboardReport ===

func TestKeyboardReport_MarshalTo(t *testing.T) {
	r := KeyboardReport{
		Modifiers: ModLeftShift,
		Keys:      [6]uint8{KeyH, KeyI, 0, 0, 0, 0},
	}
	var buf [KeyboardReportSize]byte
	if n := r.MarshalTo(buf[:]); n != KeyboardReportSize {
		t.Fatalf("MarshalTo() = %d, want %d", n, KeyboardReportSize)
	}
	want := []byte{ModLeftShift, 0, KeyH, KeyI, 0, 0, 0, 0}
	if !bytes.Equal(buf[:], want) {
		t.Errorf("marshal = % x, want % x", buf[:], want)
	}

	if n := r.MarshalTo(buf[:4]); n != 0 {
		t.Errorf("MarshalTo(short buf) = %d, want 0", n)
	}
}

func TestKeyboardReport_SetKey(t *testing.T) {
	var r KeyboardReport
	for i, key := range []uint8{KeyA, KeyB, KeyC, KeyD, KeyE, KeyF} {
		if !r.SetKey(key) {
			t.Fatalf("SetKey(%d) = false at slot %d", key, i)
		}
	}
	if r.SetKey(KeyG) {
		t.Error("SetKey succeeded with all slots full")
	}
	// Setting an already-pressed key is idempotent.
	if !r.SetKey(KeyA) {
		t.Error("SetKey(existing) = false, want true")
	}
}

func TestKeyboardReport_ClearKey(t *testing.T) {
	var r KeyboardReport
	r.SetKey(KeyA)
	r.SetKey(KeyB)
	r.SetKey(KeyC)
	r.ClearKey(KeyB)
	want := [6]uint8{KeyA, KeyC, 0, 0, 0, 0}
	if r.Keys != want {
		t.Errorf("Keys = %v, want %v", r.Keys, want)
	}
}

func TestKeyboardReport_Clear(t *testing.T) {
	r := KeyboardReport{Modifiers: 0xFF, Reserved: 1, Keys: [6]uint8{1, 2, 3, 4, 5, 6}}
	r.Clear()
	if r.Modifiers != 0 || r.Reserved != 0 || r.Keys != [6]uint8{} {
		t.Errorf("Clear left state: %+v", r)
	}
}

// === MouseReport ===

func TestMouseReport_MarshalTo(t *testing.T) {
	r := MouseReport{Buttons: MouseButtonLeft, X: -5, Y: 10, Wheel: -1}
	var buf [MouseReportSize]byte
	if n := r.MarshalTo(buf[:]); n != MouseReportSize {
		t.Fatalf("MarshalTo() = %d, want %d", n, MouseReportSize)
	}
	want := []byte{MouseButtonLeft, 0xFB, 0x0A, 0xFF}
	if !bytes.Equal(buf[:], want) {
		t.Errorf("marshal = % x, want % x", buf[:], want)
	}
}

func TestDecodeMouseReport(t *testing.T) {
	var m MouseReport
	if !DecodeMouseReport([]byte{MouseButtonRight, 0xFB, 0x0A, 0xFF}, &m) {
		t.Fatal("DecodeMouseReport() = false, want true")
	}
	if m.Buttons != MouseButtonRight || m.X != -5 || m.Y != 10 || m.Wheel != -1 {
		t.Errorf("decoded = %+v", m)
	}

	// 3-byte report: wheel defaults to 0.
	if !DecodeMouseReport([]byte{0x00, 0x01, 0x02}, &m) {
		t.Fatal("DecodeMouseReport(3 bytes) = false, want true")
	}
	if m.Wheel != 0 {
		t.Errorf("Wheel = %d, want 0", m.Wheel)
	}

	if DecodeMouseReport([]byte{0x00, 0x01}, &m) {
		t.Error("DecodeMouseReport(2 bytes) = true, want false")
	}
}

// === Benchmarks ===

func BenchmarkDecodeReport(b *testing.B) {
	data := []byte{0x02, 0x00, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	var r Report
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DecodeReport(data, &r)
	}
}
