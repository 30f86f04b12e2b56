// internal/pdfdoc/pdfstring.go
package pdfdoc

import (
	"encoding/hex"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// PDF text strings arrive either as literal strings with backslash escapes
// or as hex strings, and the decoded bytes are UTF-16BE when they carry a
// BOM. The helpers below implement just enough of the text-string rules
// for metadata round-trips; bytes without a BOM are treated as Latin-1,
// which matches PDFDocEncoding for the printable range.

// unescapeLiteral resolves the escape sequences of a literal string body
// (the characters between the parentheses).
func unescapeLiteral(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			// Unescaped EOLs normalize to a single LF.
			if c == '\r' {
				out = append(out, '\n')
				if i+1 < len(s) && s[i+1] == '\n' {
					i++
				}
				continue
			}
			out = append(out, c)
			continue
		}
		if i+1 >= len(s) {
			break
		}
		i++
		switch e := s[i]; e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\n':
			// Line continuation: nothing emitted.
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(e - '0')
			for n := 0; n < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
				i++
				v = v*8 + int(s[i]-'0')
			}
			out = append(out, byte(v))
		default:
			// Includes \(, \) and \\. An unknown escape keeps the
			// escaped character and drops the backslash.
			out = append(out, e)
		}
	}
	return out
}

// decodeHexBody converts the body of a hex string (between the angle
// brackets) to bytes. Whitespace is skipped; an odd final digit is padded
// with zero.
func decodeHexBody(s string) []byte {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil
	}
	return out
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// textBytesToString interprets decoded string bytes: a FE FF prefix means
// UTF-16BE, an EF BB BF prefix means UTF-8, anything else is mapped
// byte-for-byte (Latin-1).
func textBytesToString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return string(b[3:])
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// decodeTextLiteral decodes the body of a literal text string.
func decodeTextLiteral(raw string) string {
	return textBytesToString(unescapeLiteral(raw))
}

// decodeTextHex decodes the body of a hex text string.
func decodeTextHex(raw string) string {
	return textBytesToString(decodeHexBody(raw))
}

// encodeTextString prepares s for storage. Plain printable ASCII without
// string-literal specials is stored as a literal body verbatim; everything
// else becomes a hex body holding BOM-prefixed UTF-16BE, which any reader
// decodes unambiguously.
func encodeTextString(s string) (body string, isHex bool) {
	plain := utf8.ValidString(s)
	if plain {
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c < 0x20 || c > 0x7e || c == '(' || c == ')' || c == '\\' {
				plain = false
				break
			}
		}
	}
	if plain {
		return s, false
	}
	u := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2+2*len(u))
	b = append(b, 0xFE, 0xFF)
	for _, v := range u {
		b = append(b, byte(v>>8), byte(v))
	}
	return hex.EncodeToString(b), true
}
