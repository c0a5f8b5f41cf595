package phy

import (
	"errors"
	"testing"

	"github.com/ardnew/hidpoll/pkg"
)

func validSession() Session {
	return Session{
		Address:       5,
		Endpoint:      1,
		MaxPacketSize: 8,
		Speed:         SpeedFull,
		Interval:      10,
	}
}

func TestSession_Validate(t *testing.T) {
	s := validSession()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Session)
		wantErr error
	}{
		{"zero address", func(s *Session) { s.Address = 0 }, pkg.ErrInvalidAddress},
		{"address too large", func(s *Session) { s.Address = 128 }, pkg.ErrInvalidAddress},
		{"zero endpoint", func(s *Session) { s.Endpoint = 0 }, pkg.ErrInvalidEndpoint},
		{"endpoint too large", func(s *Session) { s.Endpoint = 16 }, pkg.ErrInvalidEndpoint},
		{"zero packet size", func(s *Session) { s.MaxPacketSize = 0 }, pkg.ErrPacketTooLarge},
		{"unknown speed", func(s *Session) { s.Speed = SpeedUnknown }, pkg.ErrUnsupportedSpeed},
		{"bogus speed", func(s *Session) { s.Speed = Speed(9) }, pkg.ErrUnsupportedSpeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.mutate(&s)
			err := s.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSession_ValidateMaxPacketBound(t *testing.T) {
	s := validSession()
	s.MaxPacketSize = MaxPacketSize
	if err := s.Validate(); err != nil {
		t.Errorf("Validate(mps=64) = %v, want nil", err)
	}
}

func TestFixedSession(t *testing.T) {
	src := NewFixedSession(validSession())

	got, ok := src.Session()
	if !ok {
		t.Fatal("Session() ok = false, want true")
	}
	if got.Address != 5 {
		t.Errorf("Address = %d, want 5", got.Address)
	}

	src.Clear()
	if _, ok := src.Session(); ok {
		t.Error("Session() ok = true after Clear")
	}

	s := validSession()
	s.Address = 9
	src.Set(s)
	got, ok = src.Session()
	if !ok || got.Address != 9 {
		t.Errorf("Session() after Set = (%+v, %v)", got, ok)
	}
}

func TestSpeed_String(t *testing.T) {
	tests := []struct {
		speed Speed
		want  string
	}{
		{SpeedLow, "Low Speed"},
		{SpeedFull, "Full Speed"},
		{SpeedHigh, "High Speed"},
		{SpeedUnknown, "Unknown"},
		{Speed(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.speed.String(); got != tt.want {
			t.Errorf("Speed(%d).String() = %q, want %q", tt.speed, got, tt.want)
		}
	}
}

func TestSpeed_ServiceTickRate(t *testing.T) {
	if got := SpeedHigh.ServiceTickRate(); got != 8000 {
		t.Errorf("SpeedHigh.ServiceTickRate() = %d, want 8000", got)
	}
	if got := SpeedFull.ServiceTickRate(); got != 1000 {
		t.Errorf("SpeedFull.ServiceTickRate() = %d, want 1000", got)
	}
	if got := SpeedLow.ServiceTickRate(); got != 1000 {
		t.Errorf("SpeedLow.ServiceTickRate() = %d, want 1000", got)
	}
}
