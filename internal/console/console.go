// Package console turns raw output from Windows console tools into text
// that is safe to match against and to show to the user.
package console

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
)

// CodePageUTF8 is the Windows code page identifier for UTF-8.
const CodePageUTF8 = 65001

// codePages maps Windows code page identifiers to their encodings.
var codePages = map[uint32]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	20866: charmap.KOI8R,
	21866: charmap.KOI8U,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28595: charmap.ISO8859_5,
	28605: charmap.ISO8859_15,
	54936: simplifiedchinese.GB18030,
}

// Decoder converts console tool output to UTF-8. The zero value expects
// UTF-8 input.
type Decoder struct {
	enc encoding.Encoding
}

// ForCodePage returns a Decoder for the Windows code page cp. Unknown code
// pages and UTF-8 decode as UTF-8.
func ForCodePage(cp uint32) Decoder {
	return Decoder{enc: codePages[cp]}
}

// OEM is the Decoder for the code page console tools write in when their
// output is redirected. Outside Windows it is UTF-8.
var OEM = sync.OnceValue(func() Decoder {
	return ForCodePage(outputCodePage())
})

// Decode converts b to UTF-8. UTF-16 output (PowerShell, wmic) is detected
// and transcoded first. Bytes that still do not decode are dropped rather
// than rendered as mojibake.
func (d Decoder) Decode(b []byte) string {
	switch {
	case looksUTF16(b):
		dec := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			b = out
		}
	case d.enc != nil:
		if out, err := d.enc.NewDecoder().Bytes(b); err == nil {
			b = out
		}
	}
	s := strings.ToValidUTF8(string(b), "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, string(utf8.RuneError), "")
}

// Decode converts UTF-8 or UTF-16 output to clean UTF-8.
func Decode(b []byte) string {
	return Decoder{}.Decode(b)
}

func looksUTF16(b []byte) bool {
	if len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		return true
	}
	if len(b) < 4 {
		return false
	}
	// ASCII encoded as UTF-16LE leaves a NUL in every odd byte.
	n := min(len(b), 64)
	odd, zeros := 0, 0
	for i := 1; i < n; i += 2 {
		odd++
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 > odd
}

// Scrub strips control characters and collapses whitespace so a message can
// be printed on one line.
func Scrub(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Garbled reports whether s looks like text that was decoded with the wrong
// code page: replacement characters, runs of '?', or control characters.
func Garbled(s string) bool {
	if !utf8.ValidString(s) || strings.ContainsRune(s, utf8.RuneError) {
		return true
	}
	if strings.Contains(s, "??") {
		return true
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
