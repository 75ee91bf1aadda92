package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

// MaxAttachmentSize caps the quote documents attached to follow-up emails.
// Most providers reject messages above 10-25MB once base64 encoded.
const MaxAttachmentSize = 10 << 20

// DetectContentType returns providedType when set, otherwise the type implied
// by the key's extension, falling back to application/octet-stream.
func DetectContentType(providedType, key string) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(path.Ext(key))
	if ext == ".pdf" {
		return "application/pdf"
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// AttachmentName is the file name used when a stored quote document is
// attached to an email, e.g. "Quote-2026-014.pdf".
func AttachmentName(key, quoteNumber string) string {
	ext := path.Ext(key)
	if ext == "" {
		ext = ".pdf"
	}
	if quoteNumber == "" {
		return path.Base(key)
	}
	return "Quote-" + quoteNumber + ext
}

// ReadAttachment loads a document into memory for attaching. The size is
// checked from metadata first so oversized objects are never downloaded.
func ReadAttachment(ctx context.Context, s Storage, key string, maxSize int64) ([]byte, ObjectInfo, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if info.Size > maxSize {
		return nil, info, &StorageError{Op: "stat", Key: key, Err: ErrTooLarge}
	}

	rc, info, err := s.Get(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	defer rc.Close()

	// The object may have grown between Stat and Get.
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, info, fmt.Errorf("read %q: %w", key, err)
	}
	if n > maxSize {
		return nil, info, &StorageError{Op: "get", Key: key, Err: ErrTooLarge}
	}
	return buf.Bytes(), info, nil
}
