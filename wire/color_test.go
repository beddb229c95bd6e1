package wire

import "testing"

func TestHSBKRoundTrip(t *testing.T) {
	c := HSBK{Hue: 1000, Saturation: 2000, Brightness: 65535, Temperature: 6500}
	buf := c.Encode(nil)
	if len(buf) != HSBKSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), HSBKSize)
	}
	got, err := DecodeHSBK(buf)
	if err != nil {
		t.Fatalf("DecodeHSBK: %v", err)
	}
	if got != c {
		t.Errorf("got %+v, want %+v", got, c)
	}
}

func TestDecodeHSBKRejectsOutOfRangeKelvin(t *testing.T) {
	cases := []uint16{0, MinKelvin - 1, MaxKelvin + 1, 65535}
	for _, temp := range cases {
		c := HSBK{Temperature: temp}
		buf := c.Encode(nil)
		if _, err := DecodeHSBK(buf); err == nil {
			t.Errorf("Kelvin %d: expected an error, got none", temp)
		}
	}
}

func TestDecodeHSBKAcceptsBoundaryKelvin(t *testing.T) {
	for _, temp := range []uint16{MinKelvin, MaxKelvin} {
		c := HSBK{Temperature: temp}
		buf := c.Encode(nil)
		if _, err := DecodeHSBK(buf); err != nil {
			t.Errorf("Kelvin %d: unexpected error %v", temp, err)
		}
	}
}

func TestDecodeHSBKRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeHSBK(make([]byte, HSBKSize-1)); err == nil {
		t.Fatal("expected an error for a too-short buffer")
	}
}
