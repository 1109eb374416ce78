package plantuml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// alphabet is PlantUML's base64 variant.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var encoding = base64.NewEncoding(alphabet).WithPadding(base64.NoPadding)

// Encode compresses source with raw DEFLATE and encodes it for use in a
// PlantUML server URL. The last 3-byte group is zero-filled, as PlantUML's own
// encoder does, so the result is always a multiple of four characters.
func Encode(source string) (string, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create deflate writer: %w", err)
	}
	if _, err := io.WriteString(zw, source); err != nil {
		return "", fmt.Errorf("failed to compress diagram source: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress diagram source: %w", err)
	}
	data := buf.Bytes()
	if r := len(data) % 3; r != 0 {
		data = append(data, make([]byte, 3-r)...)
	}
	return encoding.EncodeToString(data), nil
}

// Decode reverses Encode. Bytes after the final DEFLATE block, such as the
// zero fill, are ignored, so unfilled encodings decode too.
func Decode(encoded string) (string, error) {
	data, err := encoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid encoded diagram: %w", err)
	}
	zr := flate.NewReader(bytes.NewReader(data))
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("failed to decompress diagram: %w", err)
	}
	return string(out), nil
}
