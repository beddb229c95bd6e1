package wire

import (
	"encoding/binary"

	"github.com/lifx/lifxd/lifxerr"
)

// HSBKSize is the fixed wire width of an HSBK value, in bytes.
const HSBKSize = 8

// MinKelvin and MaxKelvin bound the valid color temperature range.
const (
	MinKelvin = 2500
	MaxKelvin = 9000
)

// HSBK is a LIFX color: hue, saturation, and brightness as 16-bit values
// spanning their full range, plus a color temperature in Kelvin.
type HSBK struct {
	Hue         uint16
	Saturation  uint16
	Brightness  uint16
	Temperature uint16 // Kelvin, must be within [MinKelvin, MaxKelvin]
}

// Encode appends the 8-byte little-endian wire form of c to buf.
func (c HSBK) Encode(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, c.Hue)
	buf = binary.LittleEndian.AppendUint16(buf, c.Saturation)
	buf = binary.LittleEndian.AppendUint16(buf, c.Brightness)
	buf = binary.LittleEndian.AppendUint16(buf, c.Temperature)
	return buf
}

// DecodeHSBK reads an HSBK value from the front of buf. buf must have at
// least HSBKSize bytes remaining. Decoding fails if the Kelvin value falls
// outside [MinKelvin, MaxKelvin].
func DecodeHSBK(buf []byte) (HSBK, error) {
	if len(buf) < HSBKSize {
		return HSBK{}, lifxerr.New(lifxerr.KindFraming, "HSBK needs %d bytes, got %d", HSBKSize, len(buf))
	}
	c := HSBK{
		Hue:        binary.LittleEndian.Uint16(buf[0:2]),
		Saturation: binary.LittleEndian.Uint16(buf[2:4]),
		Brightness: binary.LittleEndian.Uint16(buf[4:6]),
	}
	temp := binary.LittleEndian.Uint16(buf[6:8])
	if temp < MinKelvin || temp > MaxKelvin {
		return HSBK{}, lifxerr.New(lifxerr.KindFraming, "invalid Kelvin value %d", temp)
	}
	c.Temperature = temp
	return c, nil
}
