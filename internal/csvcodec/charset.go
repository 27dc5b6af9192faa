package csvcodec

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// detectSampleSize bounds how much of the payload chardet inspects.
const detectSampleSize = 4096

// toUTF8 normalizes an uploaded file to UTF-8. A UTF-8 BOM is stripped,
// UTF-16 with BOM is decoded, valid UTF-8 passes through, and anything else
// is decoded with the charset chardet reports, falling back to Windows-1252.
func toUTF8(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), data)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.UseBOM), data)
	case utf8.Valid(data):
		return data, nil
	}

	sample := data
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return data, nil
		case "ISO-8859-1", "windows-1252":
			return decodeWith(charmap.Windows1252, data)
		case "ISO-8859-15":
			return decodeWith(charmap.ISO8859_15, data)
		}
	}

	return decodeWith(charmap.Windows1252, data)
}

func decodeWith(enc encoding.Encoding, data []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return out, nil
}
