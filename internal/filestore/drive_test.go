package filestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"fitLogAPI/internal/types/activity"
)

// fakeDrive answers the handful of Drive v3 calls DriveStore makes.
type fakeDrive struct {
	mu        sync.Mutex
	shareCode int
	uploads   int
	deleted   []string
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = io.Copy(io.Discard, r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		_ = json.NewEncoder(w).Encode(map[string]any{"files": []map[string]string{{"id": "folder-1", "name": "x"}}})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/permissions"):
		if f.shareCode != 0 {
			w.WriteHeader(f.shareCode)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": f.shareCode, "message": "sharing disabled"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "perm-1"})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
		f.uploads++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-1", "webViewLink": "https://drive.test/file-1"})
	case r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestDriveStore(t *testing.T, fake *fakeDrive) *DriveStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/drive/v3/"),
	)
	require.NoError(t, err)
	return &DriveStore{svc: svc, rootID: "root-1"}
}

func testObject() Object {
	return Object{
		Name:        "lunch.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("jpeg bytes"),
		OwnerEmail:  "jane@example.com",
		Category:    activity.CategoryMeal,
	}
}

func TestDrivePutSharesUpload(t *testing.T) {
	fake := &fakeDrive{}
	d := newTestDriveStore(t, fake)

	ref, err := d.Put(context.Background(), testObject())
	require.NoError(t, err)
	assert.Equal(t, "file-1", ref.FileID)
	assert.Equal(t, directLinkBase+"file-1", ref.ViewURL)
	assert.Empty(t, fake.deleted)
}

func TestDrivePutRemovesFileWhenSharingFails(t *testing.T) {
	fake := &fakeDrive{shareCode: http.StatusForbidden}
	d := newTestDriveStore(t, fake)

	_, err := d.Put(context.Background(), testObject())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to share file")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.uploads)
	assert.Equal(t, []string{"file-1"}, fake.deleted)
}
