package wire

import (
	"unicode/utf8"

	"github.com/lifx/lifxd/lifxerr"
)

// LabelSize is the fixed wire width of a Label, in bytes.
const LabelSize = 32

// Label is the fixed-width, zero-padded UTF-8 text LIFX uses for device
// names. A Label's encoded byte length must not exceed LabelSize.
type Label string

// NewLabel validates s and returns it as a Label.
func NewLabel(s string) (Label, error) {
	if len(s) > LabelSize {
		return "", lifxerr.New(lifxerr.KindFraming, "label %q exceeds %d bytes", s, LabelSize)
	}
	return Label(s), nil
}

// Encode appends the zero-padded 32-byte wire form of l to buf.
func (l Label) Encode(buf []byte) []byte {
	start := len(buf)
	buf = append(buf, l...)
	for len(buf)-start < LabelSize {
		buf = append(buf, 0)
	}
	return buf
}

// DecodeLabel reads a 32-byte Label from the front of buf, stripping
// trailing NUL padding. buf must have at least LabelSize bytes remaining.
func DecodeLabel(buf []byte) (Label, error) {
	if len(buf) < LabelSize {
		return "", lifxerr.New(lifxerr.KindFraming, "label needs %d bytes, got %d", LabelSize, len(buf))
	}
	raw := buf[:LabelSize]
	if !utf8.Valid(raw) {
		return "", lifxerr.New(lifxerr.KindFraming, "label is not valid UTF-8")
	}
	end := LabelSize
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return Label(raw[:end]), nil
}
