package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/joseph-ayodele/receipts-parser/constants"
)

// Document is a single upload handed to the parser. It is read, never modified.
type Document struct {
	Name    string // optional, for logs and persistence
	Ext     string // declared extension, with or without the dot
	Content []byte
}

// NewDocument builds a Document taking the extension from name.
func NewDocument(name string, content []byte) Document {
	return Document{Name: name, Ext: filepath.Ext(name), Content: content}
}

// Format returns constants.PDF, IMAGE, TXT or "" when the extension is unsupported.
func (d Document) Format() string {
	return constants.MapExtToFormat(d.Ext)
}

// NormalizedExt returns the lowercased extension without the dot.
func (d Document) NormalizedExt() string {
	return constants.NormalizeExt(d.Ext)
}

// HashHex returns the hex sha256 of the content.
func (d Document) HashHex() string {
	sum := sha256.Sum256(d.Content)
	return hex.EncodeToString(sum[:])
}
