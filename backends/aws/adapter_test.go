package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// fakeDynamo is an in-memory DynamoDB covering the calls the adapter makes
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	mu         sync.Mutex
	tables     map[string]map[string]map[string]*dynamodb.AttributeValue
	order      map[string][]string
	pageSize   int
	scanCalls  int
	failDelete bool
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables:   make(map[string]map[string]map[string]*dynamodb.AttributeValue),
		order:    make(map[string][]string),
		pageSize: 3,
	}
}

func (f *fakeDynamo) table(name string) map[string]map[string]*dynamodb.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]map[string]*dynamodb.AttributeValue)
		f.tables[name] = t
	}
	return t
}

func (f *fakeDynamo) PutItemWithContext(ctx aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := *in.Item["id"].S
	t := f.table(*in.TableName)
	if _, exists := t[id]; exists {
		return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "exists", nil)
	}
	t[id] = in.Item
	f.order[*in.TableName] = append(f.order[*in.TableName], id)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItemWithContext(ctx aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &dynamodb.GetItemOutput{Item: f.table(*in.TableName)[*in.Key["id"].S]}, nil
}

func (f *fakeDynamo) UpdateItemWithContext(ctx aws.Context, in *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.table(*in.TableName)[*in.Key["id"].S]
	if !ok {
		return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "missing", nil)
	}
	for placeholder, attr := range in.ExpressionAttributeNames {
		item[*attr] = in.ExpressionAttributeValues[":"+strings.TrimPrefix(placeholder, "#")]
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) DeleteItemWithContext(ctx aws.Context, in *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete {
		return nil, awserr.New("InternalServerError", "delete failed", nil)
	}
	delete(f.table(*in.TableName), *in.Key["id"].S)
	return &dynamodb.DeleteItemOutput{}, nil
}

// ScanWithContext returns pageSize items per call to exercise LastEvaluatedKey
func (f *fakeDynamo) ScanWithContext(ctx aws.Context, in *dynamodb.ScanInput, _ ...request.Option) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++

	t := f.table(*in.TableName)
	ids := f.order[*in.TableName]

	start := 0
	if in.ExclusiveStartKey != nil {
		last := *in.ExclusiveStartKey["id"].S
		for i, id := range ids {
			if id == last {
				start = i + 1
			}
		}
	}

	out := &dynamodb.ScanOutput{}
	end := start + f.pageSize
	if end > len(ids) {
		end = len(ids)
	}
	for _, id := range ids[start:end] {
		item, ok := t[id]
		if !ok {
			continue
		}
		if in.FilterExpression != nil {
			attr := *in.ExpressionAttributeNames["#scope"]
			want := *in.ExpressionAttributeValues[":scope"].S
			if item[attr] == nil || *item[attr].S != want {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	if end < len(ids) {
		out.LastEvaluatedKey = idKey(ids[end-1])
	}
	return out, nil
}

// fakeObjectStore is an S3 compatible HTTP endpoint storing objects in memory
type fakeObjectStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete bool
}

func (s *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.objects[path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := s.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Write(body)
	case http.MethodDelete:
		if s.failDelete {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		delete(s.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *fakeObjectStore) has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok
}

type testEnv struct {
	adapter *Adapter
	db      *fakeDynamo
	store   *fakeObjectStore
	server  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := &fakeObjectStore{objects: make(map[string][]byte)}
	server := httptest.NewServer(store)
	t.Cleanup(server.Close)

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Credentials:      credentials.NewStaticCredentials("test", "test", ""),
		Endpoint:         aws.String(server.URL),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(true),
		MaxRetries:       aws.Int(0),
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	db := newFakeDynamo()
	adapter := NewWithClients(db, s3.New(sess), Options{
		BucketName: "media",
		Region:     "us-east-1",
		Endpoint:   server.URL,
	}, zap.NewNop())

	return &testEnv{adapter: adapter, db: db, store: store, server: server}
}

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: "Trip Photos", ParentID: "root"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if folder.ID == "" {
		t.Error("expected a generated id")
	}
	if folder.Name != "Trip Photos" || folder.ParentID != "root" {
		t.Errorf("unexpected folder: %+v", folder)
	}
	if folder.CreatedAt.IsZero() || folder.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}

	got, err := env.adapter.GetFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("GetFolder failed: %v", err)
	}
	if got.Name != "Trip Photos" || !got.CreatedAt.Equal(folder.CreatedAt) {
		t.Errorf("stored folder mismatch: %+v", got)
	}
}

func TestCreateFolderDefaultsParentAndRequiresName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: "Top"})
	if err != nil {
		t.Fatal(err)
	}
	if folder.ParentID != metadata.RootID {
		t.Errorf("parentId = %q, want root", folder.ParentID)
	}

	if _, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{}); !errors.Is(err, metadata.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListFoldersSortedAndPaged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"B", "A", "C"} {
		if _, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: name, ParentID: "root"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: "nested", ParentID: "other"}); err != nil {
		t.Fatal(err)
	}

	page, err := env.adapter.ListFolders(ctx, "root", metadata.ListOptions{
		Sort: metadata.SortOptions{Field: metadata.SortByName, Direction: metadata.Asc},
	})
	if err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}

	var names []string
	for _, f := range page.Folders {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "A,B,C" {
		t.Errorf("names = %v, want A,B,C", names)
	}
	if page.LastKey != "" {
		t.Errorf("unexpected lastKey %q", page.LastKey)
	}
	if env.db.scanCalls < 2 {
		t.Errorf("expected the scan to follow LastEvaluatedKey, got %d calls", env.db.scanCalls)
	}

	all, err := env.adapter.ListFolders(ctx, "", metadata.ListOptions{Page: metadata.PageOptions{Limit: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Folders) != 2 || all.LastKey == "" {
		t.Errorf("expected a full first page with lastKey, got %d folders lastKey=%q", len(all.Folders), all.LastKey)
	}

	empty, err := env.adapter.ListFolders(ctx, "nobody", metadata.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if empty.Folders == nil || len(empty.Folders) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", empty.Folders)
	}
}

func TestUpdateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{
		Name:      "Old",
		ParentID:  "root",
		CreatedAt: time.Now().Add(-time.Hour).UTC(),
		UpdatedAt: time.Now().Add(-time.Hour).UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	name := "New"
	updated, err := env.adapter.UpdateFolder(ctx, folder.ID, metadata.FolderPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if updated.Name != "New" || updated.ParentID != "root" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if !updated.UpdatedAt.After(folder.UpdatedAt) {
		t.Errorf("updatedAt was not refreshed")
	}

	if _, err := env.adapter.UpdateFolder(ctx, "missing", metadata.FolderPatch{Name: &name}); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteFolderIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: "Gone"})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.adapter.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder failed: %v", err)
	}
	if _, err := env.adapter.GetFolder(ctx, folder.ID); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := env.adapter.DeleteFolder(ctx, folder.ID); err != nil {
		t.Errorf("second delete should succeed, got %v", err)
	}
}

func TestUploadURLAcceptsPut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	upload, err := env.adapter.GetUploadURL(ctx, "photo.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("GetUploadURL failed: %v", err)
	}
	if !strings.HasPrefix(upload.Filename, "images/") || !strings.HasSuffix(upload.Filename, "-photo.jpg") {
		t.Errorf("unexpected key %q", upload.Filename)
	}
	if !strings.Contains(upload.UploadURL, "X-Amz-Signature") || !strings.Contains(upload.UploadURL, "X-Amz-Expires=3600") {
		t.Errorf("upload URL is not presigned for an hour: %s", upload.UploadURL)
	}

	req, err := http.NewRequest(http.MethodPut, upload.UploadURL, bytes.NewReader([]byte("jpeg bytes")))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	if !env.store.has("media", upload.Filename) {
		t.Error("object was not stored")
	}

	if _, err := env.adapter.GetUploadURL(ctx, "", "image/jpeg"); !errors.Is(err, metadata.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty filename, got %v", err)
	}
}

func TestCreateAndListImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	image, err := env.adapter.CreateImage(ctx, metadata.ImageInput{Name: "beach", FolderID: "f1", Key: "images/1-beach.jpg"})
	if err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}
	wantURL := env.server.URL + "/media/images/1-beach.jpg"
	if image.URL != wantURL {
		t.Errorf("url = %s, want %s", image.URL, wantURL)
	}

	page, err := env.adapter.ListImages(ctx, "f1", metadata.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Images) != 1 || page.Images[0].URL != wantURL || page.Images[0].Key != "images/1-beach.jpg" {
		t.Errorf("unexpected listing: %+v", page.Images)
	}
}

func TestListFolderContents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent, _ := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: "parent"})
	for _, name := range []string{"y", "x"} {
		if _, err := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: name, ParentID: parent.ID}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.adapter.CreateImage(ctx, metadata.ImageInput{Name: "pic", FolderID: parent.ID, Key: "images/1-pic.jpg"}); err != nil {
		t.Fatal(err)
	}

	contents, err := env.adapter.ListFolderContents(ctx, parent.ID, metadata.ListOptions{
		Sort: metadata.SortOptions{Field: metadata.SortByName, Direction: metadata.Asc},
	})
	if err != nil {
		t.Fatalf("ListFolderContents failed: %v", err)
	}
	if len(contents.Folders) != 2 || contents.Folders[0].Name != "x" {
		t.Errorf("unexpected folders: %+v", contents.Folders)
	}
	if len(contents.Images) != 1 || contents.Images[0].Name != "pic" {
		t.Errorf("unexpected images: %+v", contents.Images)
	}
}

func TestDeleteImageRemovesObjectAndRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	key := "images/abc-photo.jpg"
	env.store.objects["media/"+key] = []byte("data")
	image, err := env.adapter.CreateImage(ctx, metadata.ImageInput{Name: "photo", FolderID: "root", Key: key})
	if err != nil {
		t.Fatal(err)
	}

	if err := env.adapter.DeleteImage(ctx, image.ID, key); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if env.store.has("media", key) {
		t.Error("object still present")
	}
	page, _ := env.adapter.ListImages(ctx, "root", metadata.ListOptions{})
	if len(page.Images) != 0 {
		t.Error("metadata row still present")
	}
}

func TestDeleteImageReportsPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	key := "images/abc-photo.jpg"
	env.store.objects["media/"+key] = []byte("data")
	image, err := env.adapter.CreateImage(ctx, metadata.ImageInput{Name: "photo", Key: key})
	if err != nil {
		t.Fatal(err)
	}

	env.store.failDelete = true
	err = env.adapter.DeleteImage(ctx, image.ID, key)
	if err == nil {
		t.Fatal("expected the object deletion failure to be reported")
	}
	var se *metadata.StorageError
	if !errors.As(err, &se) || se.Op != "DeleteObject" {
		t.Errorf("expected DeleteObject StorageError, got %v", err)
	}
	// the metadata row is still removed
	if _, ok := env.db.table("images")[image.ID]; ok {
		t.Error("metadata row should have been deleted")
	}

	env.store.failDelete = false
	env.db.failDelete = true
	err = env.adapter.DeleteImage(ctx, "other", key)
	if err == nil || !strings.Contains(err.Error(), "DeleteImage") {
		t.Errorf("expected metadata deletion failure, got %v", err)
	}
	if env.store.has("media", key) {
		t.Error("object should have been deleted before the metadata failure")
	}
}

func TestResponseShape(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, _ := env.adapter.CreateFolder(ctx, metadata.FolderInput{Name: "shape"})
	image, _ := env.adapter.CreateImage(ctx, metadata.ImageInput{Name: "shape", Key: "images/1-shape.png"})

	assertKeys(t, folder, "id", "name", "parentId", "createdAt", "updatedAt")
	assertKeys(t, image, "id", "name", "folderId", "key", "url", "createdAt", "updatedAt")
}

func assertKeys(t *testing.T, v interface{}, keys ...string) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			t.Errorf("response is missing %q: %s", k, raw)
		}
	}
	if len(m) != len(keys) {
		t.Errorf("response has %d fields, want %d: %s", len(m), len(keys), raw)
	}
}
