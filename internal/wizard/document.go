package wizard

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var allowedDocumentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// Document is the supporting file attached on the reason step
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// inspectDocument sniffs the content type of an upload and checks its size
func inspectDocument(name string, data []byte, maxBytes int64) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedDocument)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, len(data), maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedDocumentTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mtype.String())
	}

	return &Document{
		Name:        name,
		ContentType: mtype.String(),
		Size:        len(data),
	}, nil
}
