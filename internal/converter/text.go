package converter

import "strings"

const utf8BOM = "\ufeff"

// DecodeLossy decodes raw document bytes as UTF-8. Invalid byte sequences
// are dropped rather than replaced, so markup around them stays intact.
func DecodeLossy(raw []byte) string {
	s := strings.ToValidUTF8(string(raw), "")
	return strings.TrimPrefix(s, utf8BOM)
}
