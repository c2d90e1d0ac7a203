package store

import (
	"strings"
	"time"
)

// Document is one indexed file. Path is unique across all documents;
// ID is assigned on first insertion and never reused.
type Document struct {
	ID           int64
	Path         string
	Size         int64
	LastModified time.Time
	MimeType     string
	// LastIndexed is the zero time.Time when the document has never
	// been successfully indexed.
	LastIndexed time.Time
}

// Indexed reports whether the document has ever completed indexing.
func (d Document) Indexed() bool { return !d.LastIndexed.IsZero() }

// IsText reports whether the document's detected mime type is eligible
// for n-gram extraction.
func (d Document) IsText() bool { return isTextMime(d.MimeType) }

func isTextMime(mime string) bool {
	return strings.HasPrefix(mime, "text/")
}

// PostingMode controls how put_postings merges a supplied doc-id set
// into the one already on disk for an n-gram.
type PostingMode int

const (
	// Replace overwrites the stored set with the supplied one.
	Replace PostingMode = iota
	// Union merges the supplied set into the stored one, so a batch
	// touching only a subset of documents never drops postings for
	// documents the batch didn't include.
	Union
)

// DocFilter narrows filter_documents beyond the n-gram candidate set.
// Nil fields are unset filters.
type DocFilter struct {
	SizeLT    *int64
	SizeGT    *int64
	PathRegex string
}
