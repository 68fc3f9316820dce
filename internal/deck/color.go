package deck

import "strings"

// Color is an ARGB color stored as an 8-character hex string,
// e.g. "FF000000" for opaque black.
type Color struct {
	ARGB string
}

// Predefined colors.
var (
	ColorBlack = Color{ARGB: "FF000000"}
	ColorWhite = Color{ARGB: "FFFFFFFF"}
)

// NewColor creates a Color from a hex string. Accepts 6-char RGB
// (e.g. "FF0000") or 8-char ARGB; a leading "#" is stripped. Invalid
// input falls back to opaque black.
func NewColor(argb string) Color {
	argb = strings.TrimPrefix(argb, "#")
	if len(argb) == 6 {
		argb = "FF" + argb
	}
	argb = strings.ToUpper(argb)
	if !isValidARGB(argb) {
		return ColorBlack
	}
	return Color{ARGB: argb}
}

func isValidARGB(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// Alpha returns the alpha component (0-255).
func (c Color) Alpha() uint8 { return parseHexByte(c.ARGB, 0) }

// Red returns the red component (0-255).
func (c Color) Red() uint8 { return parseHexByte(c.ARGB, 2) }

// Green returns the green component (0-255).
func (c Color) Green() uint8 { return parseHexByte(c.ARGB, 4) }

// Blue returns the blue component (0-255).
func (c Color) Blue() uint8 { return parseHexByte(c.ARGB, 6) }

// parseHexByte parses two hex characters at offset into a uint8.
// Returns 0 on any error.
func parseHexByte(s string, offset int) uint8 {
	if offset+2 > len(s) {
		return 0
	}
	h := hexVal(s[offset])
	l := hexVal(s[offset+1])
	if h < 0 || l < 0 {
		return 0
	}
	return uint8(h<<4 | l)
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}
