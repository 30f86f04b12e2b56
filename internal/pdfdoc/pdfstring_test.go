// internal/pdfdoc/pdfstring_test.go
package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescapeLiteral(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Hello World", want: "Hello World"},
		{name: "named_escapes", input: `a\nb\rc\td\be\ff`, want: "a\nb\rc\td\be\ff"},
		{name: "escaped_specials", input: `\(paren\) and \\slash`, want: `(paren) and \slash`},
		{name: "octal_three_digits", input: `\101BC`, want: "ABC"},
		{name: "octal_two_digits", input: `\53`, want: "+"},
		{name: "octal_stops_at_three", input: `\0053`, want: "\x053"},
		{name: "line_continuation", input: "split\\\nline", want: "splitline"},
		{name: "bare_cr_normalized", input: "a\rb", want: "a\nb"},
		{name: "bare_crlf_normalized", input: "a\r\nb", want: "a\nb"},
		{name: "unknown_escape_keeps_char", input: `\z`, want: "z"},
		{name: "trailing_backslash_dropped", input: `abc\`, want: "abc"},
		{name: "empty", input: "", want: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, string(unescapeLiteral(tc.input)))
		})
	}
}

func TestDecodeHexBody(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "simple", input: "48656C6C6F", want: []byte("Hello")},
		{name: "lowercase", input: "68692e", want: []byte("hi.")},
		{name: "embedded_whitespace", input: "48 65\n6C 6C 6F", want: []byte("Hello")},
		{name: "odd_digit_padded", input: "486", want: []byte{0x48, 0x60}},
		{name: "empty", input: "", want: []byte{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, decodeHexBody(tc.input))
		})
	}
}

func TestTextBytesToString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "latin1_ascii", input: []byte("plain"), want: "plain"},
		{name: "latin1_high_byte", input: []byte{0x63, 0x61, 0x66, 0xE9}, want: "café"},
		{name: "utf16_bom", input: []byte{0xFE, 0xFF, 0x00, 0x41, 0x00, 0x42}, want: "AB"},
		{name: "utf16_surrogate_pair", input: []byte{0xFE, 0xFF, 0xD8, 0x3D, 0xDE, 0x00}, want: "\U0001F600"},
		{name: "utf16_odd_trailing_byte", input: []byte{0xFE, 0xFF, 0x00, 0x41, 0x00}, want: "A"},
		{name: "utf8_bom", input: []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, want: "hi"},
		{name: "empty", input: nil, want: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, textBytesToString(tc.input))
		})
	}
}

func TestEncodeTextString(t *testing.T) {
	t.Parallel()

	t.Run("ascii_stays_literal", func(t *testing.T) {
		t.Parallel()
		body, isHex := encodeTextString("pdfTeX-1.40.22")
		require.False(t, isHex)
		assert.Equal(t, "pdfTeX-1.40.22", body)
	})

	t.Run("parens_force_hex", func(t *testing.T) {
		t.Parallel()
		body, isHex := encodeTextString("LaTeX (via pdfTeX)")
		require.True(t, isHex)
		assert.Equal(t, "LaTeX (via pdfTeX)", decodeTextHex(body))
	})

	t.Run("non_ascii_forces_hex", func(t *testing.T) {
		t.Parallel()
		body, isHex := encodeTextString("naïve — tool")
		require.True(t, isHex)
		assert.Equal(t, "naïve — tool", decodeTextHex(body))
	})

	t.Run("round_trip_literal", func(t *testing.T) {
		t.Parallel()
		body, isHex := encodeTextString("Producer 1.2")
		require.False(t, isHex)
		assert.Equal(t, "Producer 1.2", decodeTextLiteral(body))
	})
}
