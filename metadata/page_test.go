package metadata

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func folderNames(folders []Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortRecordsByName(t *testing.T) {
	folders := []Folder{{ID: "1", Name: "B"}, {ID: "2", Name: "A"}, {ID: "3", Name: "C"}}

	SortRecords(folders, SortOptions{Field: SortByName, Direction: Asc})
	if got := folderNames(folders); !equalStrings(got, []string{"A", "B", "C"}) {
		t.Errorf("ascending order = %v", got)
	}

	SortRecords(folders, SortOptions{Field: SortByName, Direction: Desc})
	if got := folderNames(folders); !equalStrings(got, []string{"C", "B", "A"}) {
		t.Errorf("descending order = %v", got)
	}
}

func TestSortRecordsTieBreakByID(t *testing.T) {
	now := time.Now()
	folders := []Folder{
		{ID: "c", Name: "same", CreatedAt: now},
		{ID: "a", Name: "Same", CreatedAt: now},
		{ID: "b", Name: "same", CreatedAt: now},
	}

	for _, dir := range []SortDirection{Asc, Desc} {
		SortRecords(folders, SortOptions{Field: SortByName, Direction: dir})
		ids := []string{folders[0].ID, folders[1].ID, folders[2].ID}
		if !equalStrings(ids, []string{"a", "b", "c"}) {
			t.Errorf("direction %s: ids = %v, want a b c", dir, ids)
		}
	}
}

func TestSortOptionsNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   SortOptions
		want    SortOptions
		wantErr bool
	}{
		{name: "empty", input: SortOptions{}, want: SortOptions{Field: SortByCreatedAt, Direction: Desc}},
		{name: "name defaults asc", input: SortOptions{Field: SortByName}, want: SortOptions{Field: SortByName, Direction: Asc}},
		{name: "explicit", input: SortOptions{Field: SortByUpdatedAt, Direction: Asc}, want: SortOptions{Field: SortByUpdatedAt, Direction: Asc}},
		{name: "bad field", input: SortOptions{Field: "size"}, wantErr: true},
		{name: "bad direction", input: SortOptions{Field: SortByName, Direction: "up"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func makeFolders(n int) []Folder {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	folders := make([]Folder, n)
	for i := range folders {
		folders[i] = Folder{
			ID:        fmt.Sprintf("id-%02d", i),
			Name:      fmt.Sprintf("folder-%02d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return folders
}

func TestPaginateByPageNumber(t *testing.T) {
	opts := ListOptions{Sort: SortOptions{Field: SortByName, Direction: Asc}}

	opts.Page = PageOptions{Page: 0}
	page, next, err := Paginate(makeFolders(45), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != DefaultPageSize || next == "" {
		t.Fatalf("first page: len=%d next=%q", len(page), next)
	}

	opts.Page = PageOptions{Page: 2}
	page, next, err = Paginate(makeFolders(45), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 5 || next != "" {
		t.Fatalf("last page: len=%d next=%q", len(page), next)
	}
	if page[0].Name != "folder-40" {
		t.Errorf("last page starts at %s", page[0].Name)
	}

	opts.Page = PageOptions{Page: 7}
	page, _, err = Paginate(makeFolders(45), opts)
	if err != nil {
		t.Fatal(err)
	}
	if page == nil || len(page) != 0 {
		t.Errorf("page past the end should be empty and non-nil, got %v", page)
	}
}

func TestPaginateByCursorIsStableUnderInserts(t *testing.T) {
	folders := makeFolders(30)
	opts := ListOptions{Sort: SortOptions{Field: SortByCreatedAt, Direction: Asc}, Page: PageOptions{Limit: 10}}

	first, next, err := Paginate(folders, opts)
	if err != nil {
		t.Fatal(err)
	}
	last := first[len(first)-1]

	// A record sorting before the cursor must not shift the next page.
	folders = append(folders, Folder{ID: "early", Name: "early", CreatedAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)})

	opts.Page.Cursor = next
	second, _, err := Paginate(folders, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 10 {
		t.Fatalf("second page len = %d", len(second))
	}
	if !second[0].CreatedAt.After(last.CreatedAt) {
		t.Errorf("second page starts at %s, not after %s", second[0].Name, last.Name)
	}
	if second[0].Name != "folder-10" {
		t.Errorf("second page starts at %s, want folder-10", second[0].Name)
	}
}

func TestDecodeCursorRejectsOtherField(t *testing.T) {
	token := EncodeCursor(SortByName, Folder{ID: "x", Name: "x"})
	if _, err := DecodeCursor(token, SortByCreatedAt); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := DecodeCursor("%%%", SortByName); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for garbage, got %v", err)
	}
}

func TestStorageErrorUnwraps(t *testing.T) {
	err := WrapStorage("aws", "GetFolder", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("StorageError should unwrap to ErrNotFound")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Backend != "aws" {
		t.Errorf("expected StorageError for aws, got %v", err)
	}
	if WrapStorage("aws", "x", nil) != nil {
		t.Errorf("wrapping nil should stay nil")
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("photo.jpg", time.UnixMilli(1700000000123))
	if key != "images/1700000000123-photo.jpg" {
		t.Errorf("ObjectKey = %s", key)
	}
	if !IsImageKey(key) || IsImageKey("other/photo.jpg") || IsImageKey("images/") {
		t.Errorf("IsImageKey mismatch")
	}
}
