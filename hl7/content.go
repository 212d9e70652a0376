package hl7

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// describeContent renders OBX-3 for the encapsulated document as
// ID^Type^SUBTYPE^Base64, e.g. PDF^Application^PDF^Base64.
func describeContent(payload []byte, contentType string, d Delimiters) string {
	var mediaType, ext string
	if contentType != "" {
		mediaType = contentType
		if m := mimetype.Lookup(contentType); m != nil {
			ext = m.Extension()
		}
	} else {
		m := mimetype.Detect(payload)
		mediaType, ext = m.String(), m.Extension()
	}
	mediaType, _, _ = strings.Cut(mediaType, ";")
	typ, sub, _ := strings.Cut(strings.TrimSpace(mediaType), "/")

	id := strings.ToUpper(strings.TrimPrefix(ext, "."))
	if id == "" {
		id = strings.ToUpper(sub)
	}
	if typ != "" {
		typ = strings.ToUpper(typ[:1]) + strings.ToLower(typ[1:])
	}
	parts := []string{id, typ, strings.ToUpper(sub), "Base64"}
	for i, p := range parts {
		parts[i] = d.EscapeValue(p)
	}
	return strings.Join(parts, string(d.Component))
}
