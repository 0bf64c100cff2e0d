package encoding

import (
	"bytes"
	"testing"
)

func TestEUCKRRoundTrip(t *testing.T) {
	tests := []string{
		"prontera",
		"유저인터페이스",
		"data/model/프론테라/분수.rsm",
		"",
	}
	for _, s := range tests {
		encoded := UTF8ToEUCKR(s)
		if got := EUCKRToUTF8(encoded); got != s {
			t.Errorf("round trip %q = %q", s, got)
		}
	}
}

func TestEUCKRBytes(t *testing.T) {
	// 한 in EUC-KR
	if got := EUCKRToUTF8([]byte{0xC7, 0xD1}); got != "한" {
		t.Errorf("EUCKRToUTF8 = %q, want 한", got)
	}
	if got := UTF8ToEUCKR("한"); !bytes.Equal(got, []byte{0xC7, 0xD1}) {
		t.Errorf("UTF8ToEUCKR = % x", got)
	}
}

func TestFixedString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"padded ascii", append([]byte("root"), make([]byte, 36)...), "root"},
		{"no terminator", []byte("abc"), "abc"},
		{"empty", make([]byte, 40), ""},
		{"korean", append([]byte{0xC7, 0xD1, 0}, 'x'), "한"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixedString(tt.in); got != tt.want {
				t.Errorf("FixedString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchivePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{`data\model\Prontera\Fountain.RSM`, "data/model/prontera/fountain.rsm"},
		{"/data/texture/a.bmp", "data/texture/a.bmp"},
		{"already/normal.rsm", "already/normal.rsm"},
	}
	for _, tt := range tests {
		if got := ArchivePath(tt.in); got != tt.want {
			t.Errorf("ArchivePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
