package csvcodec

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// headerLines is the number of non-data lines (sections, column names)
// at the top of every file.
const headerLines = 2

// Decode turns an uploaded payload into records keyed by column name.
// Any structural problem fails the whole payload with ErrBadRequest.
func Decode(content domain.Content) ([]Record, error) {
	if content.Type != "" && !strings.EqualFold(content.Type, domain.ContentTypeCSV) {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrBadRequest, content.Type)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content.Value))
	if err != nil {
		return nil, fmt.Errorf("%w: content is not valid base64: %v", domain.ErrBadRequest, err)
	}

	switch content.Compression {
	case domain.CompressionSnappy:
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: content is not valid snappy: %v", domain.ErrBadRequest, err)
		}
	case domain.CompressionNone, "":
	default:
		return nil, fmt.Errorf("%w: unsupported compression %q", domain.ErrBadRequest, content.Compression)
	}

	data, err = toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}

	return parse(data)
}

func parse(data []byte) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(unescapeBackslashes(data)))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	names := ColumnNames()
	var records []Record

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse csv: %v", domain.ErrBadRequest, err)
		}

		line, _ := reader.FieldPos(0)
		if line <= headerLines {
			continue
		}

		if len(fields) != len(names) {
			return nil, fmt.Errorf("%w: line %d has %d columns, expected %d",
				domain.ErrBadRequest, line, len(fields), len(names))
		}

		rec := Record{RowNumber: line, Fields: make(map[string]string, len(names))}
		blank := true
		for i, name := range names {
			v := strings.TrimSpace(fields[i])
			if v != "" {
				blank = false
			}
			rec.Fields[name] = v
		}
		if blank {
			continue
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file has no data rows", domain.ErrBadRequest)
	}

	return records, nil
}

// unescapeBackslashes rewrites backslash escapes inside quoted fields into
// the doubled-quote form encoding/csv understands: \" becomes "" and \\
// becomes \. Unquoted fields keep their backslashes literally.
func unescapeBackslashes(data []byte) []byte {
	if bytes.IndexByte(data, '\\') < 0 {
		return data
	}

	out := make([]byte, 0, len(data))
	inQuotes, fieldStart := false, true
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inQuotes {
			if i+1 < len(data) {
				switch {
				case c == '\\' && data[i+1] == '"', c == '"' && data[i+1] == '"':
					out = append(out, '"', '"')
					i++
					continue
				case c == '\\' && data[i+1] == '\\':
					out = append(out, '\\')
					i++
					continue
				}
			}
			if c == '"' {
				inQuotes = false
			}
			out = append(out, c)
			continue
		}

		if c == '"' && fieldStart {
			inQuotes = true
		}
		fieldStart = c == ',' || c == '\n' || c == '\r'
		out = append(out, c)
	}
	return out
}
