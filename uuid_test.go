package gatt

import (
	"bytes"
	"testing"
)

func TestUUID16(t *testing.T) {
	u := UUID16(0x1800)
	if want := []byte{0x18, 0x00}; !bytes.Equal(u.b, want) {
		t.Errorf("UUID16(0x1800).b = %x, want %x", u.b, want)
	}
}

func TestParseUUID(t *testing.T) {
	cases := []struct {
		in      string
		wantLen int
		wantErr bool
	}{
		{in: "1800", wantLen: 2},
		{in: "180F", wantLen: 2},
		{in: "09fc95c0-c111-11e3-9904-0002a5d5c51b", wantLen: 16},
		{in: "09FC95C0C11111E399040002A5D5C51B", wantLen: 16},
		{in: "zzzz", wantErr: true},
		{in: "1800FF", wantErr: true},
	}
	for _, tt := range cases {
		u, err := ParseUUID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseUUID(%q): got nil error, want one", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUUID(%q): unexpected error %v", tt.in, err)
			continue
		}
		if u.Len() != tt.wantLen {
			t.Errorf("ParseUUID(%q).Len() = %d, want %d", tt.in, u.Len(), tt.wantLen)
		}
	}
}

func TestUUIDEqual(t *testing.T) {
	cases := []struct {
		a, b UUID
		want bool
	}{
		{UUID16(0x1800), UUID16(0x1800), true},
		{UUID16(0x1800), UUID16(0x1801), false},
		{UUID16(0x1800), MustParseUUID("00001800-0000-1000-8000-00805f9b34fb"), true},
		{UUID16(0x1800), MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b"), false},
		{UUID{}, UUID{}, true},
		{UUID{}, UUID16(0x1800), false},
	}
	for _, tt := range cases {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUUIDPackRoundTrip(t *testing.T) {
	cases := []UUID{
		UUID16(0x180F),
		MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b"),
	}
	for _, u := range cases {
		packed := u.Pack()
		got, err := UUIDFromBytes(reverseBytes(packed))
		if err != nil {
			t.Fatalf("UUIDFromBytes: %v", err)
		}
		if !got.Equal(u) {
			t.Errorf("round trip of %v via Pack/reverse got %v", u, got)
		}
	}
}

func TestUUIDString(t *testing.T) {
	cases := []struct {
		u    UUID
		want string
	}{
		{UUID16(0x180F), "180F"},
		{MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b"), "09FC95C0-C111-11E3-9904-0002A5D5C51B"},
	}
	for _, tt := range cases {
		if got := tt.u.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestReverseBytes(t *testing.T) {
	cases := []struct {
		fwd  []byte
		back []byte
	}{
		{fwd: []byte{0, 1}, back: []byte{1, 0}},
		{fwd: []byte{0, 1, 2}, back: []byte{2, 1, 0}},
		{
			fwd:  []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			back: []byte{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		},
	}
	for _, tt := range cases {
		if got := reverseBytes(tt.fwd); !bytes.Equal(got, tt.back) {
			t.Errorf("reverseBytes(%x): got %x want %x", tt.fwd, got, tt.back)
		}
	}
}

func BenchmarkReverseBytes16(b *testing.B) {
	buf := make([]byte, 2)
	for i := 0; i < b.N; i++ {
		reverseBytes(buf)
	}
}

func BenchmarkReverseBytes128(b *testing.B) {
	buf := make([]byte, 16)
	for i := 0; i < b.N; i++ {
		reverseBytes(buf)
	}
}
