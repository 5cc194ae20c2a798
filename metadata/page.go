package metadata

import (
	"encoding/base64"
	"encoding/json"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageOptions selects a page either by zero-based number or by continuation
// cursor. A non-empty Cursor takes precedence over Page.
type PageOptions struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// Normalize applies the default page size and validates the page number.
func (p PageOptions) Normalize() (PageOptions, error) {
	if p.Page < 0 {
		return p, Invalid("page must not be negative")
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p, nil
}

// Offset is the number of records skipped for page-number pagination.
func (p PageOptions) Offset() int {
	return p.Page * p.Limit
}

// Cursor marks the last record of a delivered page.
type Cursor struct {
	Field SortField `json:"f"`
	Key   string    `json:"k"`
	ID    string    `json:"id"`
}

// EncodeCursor returns the opaque continuation token for the given record.
func EncodeCursor(field SortField, r Record) string {
	raw, _ := json.Marshal(Cursor{Field: field, Key: r.SortKey(field), ID: r.RecordID()})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a continuation token and checks it was issued for the
// same sort field.
func DecodeCursor(token string, field SortField) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, Invalid("malformed lastKey")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return Cursor{}, Invalid("malformed lastKey")
	}
	if c.Field != field {
		return Cursor{}, Invalid("lastKey was issued for sort field %q", c.Field)
	}
	return c, nil
}

// Paginate sorts items and cuts out the requested page. It returns the page
// and, when more records follow, the cursor of the page's last record.
func Paginate[T Record](items []T, opts ListOptions) ([]T, string, error) {
	sortOpts, err := opts.Sort.Normalize()
	if err != nil {
		return nil, "", err
	}
	page, err := opts.Page.Normalize()
	if err != nil {
		return nil, "", err
	}

	SortRecords(items, sortOpts)

	start := 0
	if page.Cursor != "" {
		c, err := DecodeCursor(page.Cursor, sortOpts.Field)
		if err != nil {
			return nil, "", err
		}
		start = len(items)
		for i, item := range items {
			if compareKeys(sortOpts, item.SortKey(sortOpts.Field), item.RecordID(), c.Key, c.ID) > 0 {
				start = i
				break
			}
		}
	} else {
		start = page.Offset()
	}

	if start >= len(items) {
		return []T{}, "", nil
	}
	end := start + page.Limit
	if end >= len(items) {
		return items[start:], "", nil
	}
	return items[start:end], EncodeCursor(sortOpts.Field, items[end-1]), nil
}
