package evtext

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// encodingByName maps config encoding names to decoders. Asset dumps
// and scripts from console-era games are frequently Shift-JIS.
func encodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8":
		return nil, nil
	case "sjis", "shiftjis", "shift-jis", "cp932":
		return japanese.ShiftJIS, nil
	case "eucjp", "euc-jp":
		return japanese.EUCJP, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unknown text encoding %q", name)
}

// ReadTextFile reads a file and converts it to UTF-8 according to the
// configured source encoding.
func ReadTextFile(path, encName string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	enc, err := encodingByName(encName)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(data), nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s as %s: %w", path, encName, err)
	}
	return string(decoded), nil
}
