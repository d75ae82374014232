package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Encoding names reported by Decode.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF8BOM     = "utf-8-bom"
	EncodingUTF16       = "utf-16"
	EncodingWindows1255 = "windows-1255"
)

// Decode converts CSV bytes to UTF-8 and reports the detected encoding.
// Files that are neither UTF-8 nor UTF-16 are read as Windows-1255, the
// legacy Hebrew code page Excel uses for CSV exports.
func Decode(data []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], EncodingUTF8BOM, nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		decoded, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 decode failed: %w", err)
		}
		return decoded, EncodingUTF16, nil
	case utf8.Valid(data):
		return data, EncodingUTF8, nil
	}

	decoded, err := charmap.Windows1255.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("windows-1255 decode failed: %w", err)
	}
	return decoded, EncodingWindows1255, nil
}

// SniffDelimiter picks the most frequent of comma, semicolon, tab and pipe
// on the first non-empty line, ignoring quoted text.
func SniffDelimiter(data []byte) rune {
	line := data
	for len(line) > 0 {
		end := bytes.IndexByte(line, '\n')
		if end < 0 {
			break
		}
		if len(bytes.TrimSpace(line[:end])) > 0 {
			line = line[:end]
			break
		}
		line = line[end+1:]
	}

	counts := map[rune]int{}
	quoted := false
	for _, r := range string(line) {
		switch r {
		case '"':
			quoted = !quoted
		case ',', ';', '\t', '|':
			if !quoted {
				counts[r]++
			}
		}
	}

	best, top := ',', 0
	for _, r := range []rune{',', ';', '\t', '|'} {
		if counts[r] > top {
			best, top = r, counts[r]
		}
	}
	return best
}

func readCSV(data []byte, name string) (*Sheet, error) {
	decoded, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = SniffDelimiter(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		records  [][]string
		warnings []string
	)
	for n := 1; ; n++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("record %d skipped: %v", n, err))
			continue
		}
		records = append(records, rec)
	}

	sheet, err := FromRecords(name, records)
	if err != nil {
		return nil, err
	}
	sheet.Warnings = append(warnings, sheet.Warnings...)
	return sheet, nil
}
