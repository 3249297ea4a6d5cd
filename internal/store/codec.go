// Document codec - flat JSON with metadata fields mixed into attributes.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Reserved metadata keys. Attributes with these names are shadowed.
const (
	fieldID   = "id"
	fieldRev  = "rev"
	fieldType = "type"
)

// ErrInvalidDocument is returned when stored bytes are not a JSON object.
var ErrInvalidDocument = errors.New("invalid document")

// Encode serializes doc as a single JSON object.
func Encode(doc Document) ([]byte, error) {
	out := []byte(`{}`)
	var err error

	for key, value := range doc.Attributes {
		if key == fieldID || key == fieldRev || key == fieldType {
			continue
		}
		out, err = sjson.SetBytes(out, escapePath(key), value)
		if err != nil {
			return nil, fmt.Errorf("encode attribute %q: %w", key, err)
		}
	}

	for _, kv := range [][2]string{{fieldID, doc.ID}, {fieldRev, doc.Rev}, {fieldType, doc.Type}} {
		out, err = sjson.SetBytes(out, kv[0], kv[1])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", kv[0], err)
		}
	}
	return out, nil
}

// Decode splits a stored JSON object into metadata and attributes.
func Decode(data []byte) (Document, error) {
	if !gjson.ValidBytes(data) {
		return Document{}, ErrInvalidDocument
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return Document{}, fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}

	doc := Document{Attributes: make(map[string]any)}
	parsed.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case fieldID:
			doc.ID = value.String()
		case fieldRev:
			doc.Rev = value.String()
		case fieldType:
			doc.Type = value.String()
		default:
			doc.Attributes[key.String()] = value.Value()
		}
		return true
	})
	return doc, nil
}

// escapePath escapes gjson/sjson path syntax so key is set literally.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
