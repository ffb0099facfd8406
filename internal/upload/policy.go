// Package upload validates incoming files and streams them into the blob store.
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrStorage         = errors.New("storage error")
)

// DefaultAccept is the accept list used when neither the category nor the config sets one.
const DefaultAccept = ".pdf,.docx,.doc,.xls,.xlsx,.jpg,.jpeg,.png"

// DefaultMaxSizeMB is the size limit used when none is configured.
const DefaultMaxSizeMB = 10

// Policy constrains what a category accepts and where its files go.
type Policy struct {
	// Accept holds lower-cased extensions (".pdf"), MIME types ("application/pdf")
	// and MIME wildcards ("image/*").
	Accept    []string
	MaxSizeMB int
	Folder    string
}

// ParseAccept splits a comma separated accept list.
func ParseAccept(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaxBytes is the size limit in bytes.
func (p Policy) MaxBytes() int64 {
	mb := p.MaxSizeMB
	if mb <= 0 {
		mb = DefaultMaxSizeMB
	}
	return int64(mb) * 1024 * 1024
}

// Check rejects files that are too large or of a type outside the accept list.
// Size is checked first.
func (p Policy) Check(name string, size int64, contentType string) error {
	if size > p.MaxBytes() {
		return fmt.Errorf("%w: %s exceeds the %d MB limit", ErrFileTooLarge, name, p.MaxBytes()/(1024*1024))
	}
	if size == 0 {
		return ErrEmptyFile
	}
	if !p.accepts(name, contentType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	return nil
}

func (p Policy) accepts(name, contentType string) bool {
	accept := p.Accept
	if len(accept) == 0 {
		accept = ParseAccept(DefaultAccept)
	}

	ext := strings.ToLower(filepath.Ext(name))
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	for _, a := range accept {
		switch {
		case strings.HasPrefix(a, "."):
			if ext != "" && a == ext {
				return true
			}
		case strings.HasSuffix(a, "/*"):
			if mime != "" && strings.HasPrefix(mime, strings.TrimSuffix(a, "*")) {
				return true
			}
		default:
			if mime != "" && a == mime {
				return true
			}
		}
	}
	return false
}
