package metadata

import (
	"sort"
	"strings"
	"time"
)

// SortField names a record field lists can be ordered by
type SortField string

// SortDirection is either ascending or descending
type SortDirection string

const (
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"

	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// sortKeyTimeLayout is fixed width so that keys compare lexically in time order.
const sortKeyTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SortOptions selects the order of a list call. It is never persisted.
type SortOptions struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort lists newest records first.
func DefaultSort() SortOptions {
	return SortOptions{Field: SortByCreatedAt, Direction: Desc}
}

// Normalize fills in defaults for empty fields and validates the rest.
func (s SortOptions) Normalize() (SortOptions, error) {
	if s.Field == "" {
		s.Field = SortByCreatedAt
	}
	if s.Direction == "" {
		s.Direction = Desc
		if s.Field == SortByName {
			s.Direction = Asc
		}
	}
	switch s.Field {
	case SortByName, SortByCreatedAt, SortByUpdatedAt:
	default:
		return s, Invalid("unsupported sort field %q", s.Field)
	}
	switch s.Direction {
	case Asc, Desc:
	default:
		return s, Invalid("unsupported sort direction %q", s.Direction)
	}
	return s, nil
}

// Record is implemented by every listable model.
type Record interface {
	RecordID() string
	SortKey(field SortField) string
}

// RecordID returns the folder id
func (f Folder) RecordID() string { return f.ID }

// SortKey returns the comparable key of the folder for the given field.
func (f Folder) SortKey(field SortField) string {
	return sortKey(field, f.Name, f.CreatedAt, f.UpdatedAt)
}

// RecordID returns the image id
func (i Image) RecordID() string { return i.ID }

// SortKey returns the comparable key of the image for the given field.
func (i Image) SortKey(field SortField) string {
	return sortKey(field, i.Name, i.CreatedAt, i.UpdatedAt)
}

func sortKey(field SortField, name string, createdAt, updatedAt time.Time) string {
	switch field {
	case SortByName:
		return NameKey(name)
	case SortByUpdatedAt:
		return TimeKey(updatedAt)
	default:
		return TimeKey(createdAt)
	}
}

// NameKey is the case-insensitive ordering key of a name.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// TimeKey is the ordering key of a timestamp.
func TimeKey(t time.Time) string {
	return t.UTC().Format(sortKeyTimeLayout)
}

// ParseTimeKey reverses TimeKey.
func ParseTimeKey(key string) (time.Time, error) {
	return time.Parse(sortKeyTimeLayout, key)
}

// compareKeys orders two positions: by key in the requested direction, then
// by id ascending so equal keys still have a deterministic order.
func compareKeys(s SortOptions, keyA, idA, keyB, idB string) int {
	c := strings.Compare(keyA, keyB)
	if s.Direction == Desc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return strings.Compare(idA, idB)
}

// SortRecords sorts items in place.
func SortRecords[T Record](items []T, s SortOptions) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareKeys(s,
			items[i].SortKey(s.Field), items[i].RecordID(),
			items[j].SortKey(s.Field), items[j].RecordID()) < 0
	})
}
