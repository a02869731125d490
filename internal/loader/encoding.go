package loader

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeWithFallback tries each candidate encoding in order and returns the
// decoded text together with the name of the encoding that succeeded.
// Exhausting the list is a hard failure; the caller wraps it as a load
// error and does not retry further.
func decodeWithFallback(data []byte, encodings []string) (string, string, error) {
	var lastErr error
	for _, name := range encodings {
		text, err := decodeAs(data, name)
		if err == nil {
			return text, name, nil
		}
		lastErr = err
	}
	return "", "", fmt.Errorf("tried %d encodings: %w", len(encodings), lastErr)
}

func decodeAs(data []byte, name string) (string, error) {
	switch name {
	case "utf-8":
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("input is not valid UTF-8")
		}
		return string(data), nil
	case "utf-16le":
		// The UTF-16 decoders substitute rather than fail, so without a BOM
		// any byte stream would "decode" and mask the later fallbacks.
		if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
			return "", fmt.Errorf("no utf-16le byte order mark")
		}
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16le: %w", err)
		}
		return string(out), nil
	case "utf-16be":
		if !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
			return "", fmt.Errorf("no utf-16be byte order mark")
		}
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16be: %w", err)
		}
		return string(out), nil
	case "windows-1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode windows-1252: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
}
