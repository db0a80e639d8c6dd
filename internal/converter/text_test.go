package converter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecodeLossy(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"valid", []byte("<p>héllo</p>"), "<p>héllo</p>"},
		{"invalid bytes dropped", []byte("<p>a\xffb\xc3</p>"), "<p>ab</p>"},
		{"truncated sequence inside tag", []byte("<p class=\"x\xe2\x82\">t</p>"), "<p class=\"x\">t</p>"},
		{"bom stripped", []byte("\xef\xbb\xbf<html/>"), "<html/>"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeLossy(tt.in)
			if got != tt.want {
				t.Fatalf("DecodeLossy() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatal("result is not valid UTF-8")
			}
			if strings.ContainsRune(got, utf8.RuneError) {
				t.Fatal("result contains replacement characters")
			}
		})
	}
}
