package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"resume-parser-go/internal/normalize"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodePlainText 去 BOM，统一换行为 LF，NFC 规范化
func decodePlainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return normalize.NFC(s), nil
}
