// Package encoding converts the legacy Korean text found in Ragnarok Online
// archives and models.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// EUCKRToUTF8 converts EUC-KR bytes to a UTF-8 string. Input that is
// already valid UTF-8 (plain ASCII included) is returned unchanged, as is
// input that fails to decode.
func EUCKRToUTF8(data []byte) string {
	if isASCII(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToEUCKR converts a UTF-8 string to EUC-KR bytes.
// Returns the original bytes if conversion fails.
func UTF8ToEUCKR(s string) []byte {
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedString decodes a NUL-padded EUC-KR name field.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return EUCKRToUTF8(data)
}

// ArchivePath normalizes a path inside an archive for case-insensitive
// lookup: forward slashes, lower case, no leading slash.
func ArchivePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimLeft(strings.ToLower(path), "/")
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
