package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack/pkg/tenant/retry"
)

// fakeB2 is an in-memory stand-in for the object-store API, keyed off the
// native endpoints the client calls.
type fakeB2 struct {
	t *testing.T

	accountID string
	authFail  bool
	authCalls int

	nextID  int
	buckets map[string]string      // name -> id
	keys    map[string]string      // keyID -> bucketID
	files   map[string][]fileEntry // bucketID -> files

	failCopyFor map[string]bool // fileName -> fail

	server *httptest.Server
}

type fileEntry struct {
	FileID   string
	FileName string
	Action   string
}

func newFakeB2(t *testing.T) *fakeB2 {
	f := &fakeB2{
		t:           t,
		accountID:   "acct00123456",
		buckets:     map[string]string{},
		keys:        map[string]string{},
		files:       map[string][]fileEntry{},
		failCopyFor: map[string]bool{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/b2api/v2/b2_authorize_account", f.authorize)
	mux.HandleFunc("/b2api/v2/b2_list_buckets", f.listBuckets)
	mux.HandleFunc("/b2api/v2/b2_create_bucket", f.createBucket)
	mux.HandleFunc("/b2api/v2/b2_delete_bucket", f.deleteBucket)
	mux.HandleFunc("/b2api/v2/b2_create_key", f.createKey)
	mux.HandleFunc("/b2api/v2/b2_delete_key", f.deleteKey)
	mux.HandleFunc("/b2api/v2/b2_list_file_versions", f.listFileVersions)
	mux.HandleFunc("/b2api/v2/b2_delete_file_version", f.deleteFileVersion)
	mux.HandleFunc("/b2api/v2/b2_copy_file", f.copyFile)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeB2) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

func (f *fakeB2) decode(r *http.Request, into interface{}) {
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(into))
}

func (f *fakeB2) authorize(w http.ResponseWriter, r *http.Request) {
	f.authCalls++
	if f.authFail {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_, _, ok := r.BasicAuth()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"accountId":          f.accountID,
		"authorizationToken": "tok",
		"apiUrl":             f.server.URL,
	})
}

func (f *fakeB2) listBuckets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BucketName string `json:"bucketName"`
	}
	f.decode(r, &req)
	var out []BucketInfo
	for name, id := range f.buckets {
		if req.BucketName == "" || req.BucketName == name {
			out = append(out, BucketInfo{BucketID: id, BucketName: name})
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"buckets": out})
}

func (f *fakeB2) createBucket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BucketName string `json:"bucketName"`
		BucketType string `json:"bucketType"`
	}
	f.decode(r, &req)
	if _, exists := f.buckets[req.BucketName]; exists {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "duplicate_bucket_name"})
		return
	}
	id := f.id("bkt")
	f.buckets[req.BucketName] = id
	_ = json.NewEncoder(w).Encode(BucketInfo{BucketID: id, BucketName: req.BucketName, BucketType: req.BucketType})
}

func (f *fakeB2) deleteBucket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BucketID string `json:"bucketId"`
	}
	f.decode(r, &req)
	for name, id := range f.buckets {
		if id == req.BucketID {
			delete(f.buckets, name)
			_ = json.NewEncoder(w).Encode(map[string]string{})
			return
		}
	}
	w.WriteHeader(http.StatusBadRequest)
}

func (f *fakeB2) createKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KeyName  string `json:"keyName"`
		BucketID string `json:"bucketId"`
	}
	f.decode(r, &req)
	keyID := f.id("key")
	f.keys[keyID] = req.BucketID
	_ = json.NewEncoder(w).Encode(KeyInfo{
		ApplicationKeyID: keyID,
		ApplicationKey:   "secret-" + keyID,
		KeyName:          req.KeyName,
	})
}

func (f *fakeB2) deleteKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplicationKeyID string `json:"applicationKeyId"`
	}
	f.decode(r, &req)
	if _, ok := f.keys[req.ApplicationKeyID]; !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	delete(f.keys, req.ApplicationKeyID)
	_ = json.NewEncoder(w).Encode(map[string]string{})
}

const fakePageSize = 2

func (f *fakeB2) listFileVersions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BucketID      string  `json:"bucketId"`
		StartFileName *string `json:"startFileName"`
	}
	f.decode(r, &req)

	files := append([]fileEntry(nil), f.files[req.BucketID]...)
	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })

	start := 0
	if req.StartFileName != nil {
		start = len(files)
		for i, file := range files {
			if file.FileName >= *req.StartFileName {
				start = i
				break
			}
		}
	}

	end := start + fakePageSize
	if end > len(files) {
		end = len(files)
	}
	page := files[start:end]

	out := map[string]interface{}{"files": toVersions(page)}
	if end < len(files) {
		out["nextFileName"] = files[end].FileName
		out["nextFileId"] = files[end].FileID
	} else {
		out["nextFileName"] = nil
		out["nextFileId"] = nil
	}
	_ = json.NewEncoder(w).Encode(out)
}

func toVersions(entries []fileEntry) []FileVersion {
	out := make([]FileVersion, 0, len(entries))
	for _, e := range entries {
		out = append(out, FileVersion{FileID: e.FileID, FileName: e.FileName, Action: e.Action})
	}
	return out
}

func (f *fakeB2) deleteFileVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileID string `json:"fileId"`
	}
	f.decode(r, &req)
	for bucketID, files := range f.files {
		for i, file := range files {
			if file.FileID == req.FileID {
				f.files[bucketID] = append(files[:i], files[i+1:]...)
				_ = json.NewEncoder(w).Encode(map[string]string{})
				return
			}
		}
	}
	w.WriteHeader(http.StatusBadRequest)
}

func (f *fakeB2) copyFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceFileID        string `json:"sourceFileId"`
		FileName            string `json:"fileName"`
		DestinationBucketID string `json:"destinationBucketId"`
	}
	f.decode(r, &req)
	if f.failCopyFor[req.FileName] {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	f.files[req.DestinationBucketID] = append(f.files[req.DestinationBucketID], fileEntry{
		FileID:   f.id("file"),
		FileName: req.FileName,
		Action:   "upload",
	})
	_ = json.NewEncoder(w).Encode(map[string]string{})
}

func (f *fakeB2) addFile(bucketID, name, action string) {
	f.files[bucketID] = append(f.files[bucketID], fileEntry{
		FileID:   f.id("file"),
		FileName: name,
		Action:   action,
	})
}

func (f *fakeB2) fileNames(bucketID string) []string {
	var names []string
	for _, file := range f.files[bucketID] {
		names = append(names, file.FileName)
	}
	sort.Strings(names)
	return names
}

func newTestProvisioner(t *testing.T, f *fakeB2) *Provisioner {
	client := NewClientWithAuthURL("masterKey", "masterSecret", f.server.URL)
	policy := retry.NewPolicy(3, 10*time.Millisecond).WithSleep(func(time.Duration) {})
	return NewProvisioner(client, Config{BucketPrefix: "gym"}, policy)
}

func TestEnsureBucket_CreatesBucketAndKey(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)

	bucket, err := p.EnsureBucket(context.Background(), p.DefaultBucketName("acme"))
	require.NoError(t, err)
	assert.True(t, bucket.Complete())
	// Suffix is the slugified last 6 chars of the account id.
	assert.Equal(t, "gym-acme-123456", bucket.BucketName)
	assert.Equal(t, f.buckets["gym-acme-123456"], bucket.BucketID)
	assert.Contains(t, f.keys, bucket.KeyID)
}

func TestEnsureBucket_IdempotentButFreshKey(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)

	first, err := p.EnsureBucket(context.Background(), p.DefaultBucketName("acme"))
	require.NoError(t, err)
	second, err := p.EnsureBucket(context.Background(), p.DefaultBucketName("acme"))
	require.NoError(t, err)

	assert.Equal(t, first.BucketID, second.BucketID, "existing bucket must be reused")
	assert.NotEqual(t, first.KeyID, second.KeyID, "every ensure issues a fresh key")
	assert.Len(t, f.buckets, 1)
}

func TestEnsureBucket_SuffixNotDuplicated(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)

	bucket, err := p.EnsureBucket(context.Background(), "Custom Bucket-123456")
	require.NoError(t, err)
	assert.Equal(t, "custom-bucket-123456", bucket.BucketName)
}

func TestEnsureBucket_AuthFailureExhaustsRetries(t *testing.T) {
	f := newFakeB2(t)
	f.authFail = true
	p := newTestProvisioner(t, f)

	_, err := p.EnsureBucket(context.Background(), p.DefaultBucketName("acme"))
	require.Error(t, err)
	assert.Equal(t, 3, f.authCalls, "every attempt re-authorizes")
}

func TestEmptyBucket_Paginated(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)
	f.buckets["gym-acme-123456"] = "bkt-a"
	for i := 0; i < 5; i++ {
		f.addFile("bkt-a", fmt.Sprintf("file-%d", i), "upload")
	}

	assert.True(t, p.EmptyBucket(context.Background(), "bkt-a"))
	assert.Empty(t, f.files["bkt-a"])
}

func TestCopyAllFiles_CopiesUploadsOnly(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)
	f.buckets["old"] = "bkt-old"
	f.buckets["new"] = "bkt-new"
	for i := 0; i < 5; i++ {
		f.addFile("bkt-old", fmt.Sprintf("member-%d.pdf", i), "upload")
	}
	f.addFile("bkt-old", "tombstone.pdf", "hide")

	assert.True(t, p.CopyAllFiles(context.Background(), "bkt-old", "bkt-new"))

	want := []string{"member-0.pdf", "member-1.pdf", "member-2.pdf", "member-3.pdf", "member-4.pdf"}
	assert.Equal(t, want, f.fileNames("bkt-new"))
}

func TestCopyAllFiles_AggregatesFailures(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)
	f.buckets["old"] = "bkt-old"
	f.buckets["new"] = "bkt-new"
	f.addFile("bkt-old", "a.pdf", "upload")
	f.addFile("bkt-old", "b.pdf", "upload")
	f.failCopyFor["a.pdf"] = true

	assert.False(t, p.CopyAllFiles(context.Background(), "bkt-old", "bkt-new"))
	// The failing file is skipped, the rest still copy.
	assert.Equal(t, []string{"b.pdf"}, f.fileNames("bkt-new"))
}

func TestDeleteKeyAndBucket(t *testing.T) {
	f := newFakeB2(t)
	p := newTestProvisioner(t, f)
	f.buckets["gone"] = "bkt-gone"
	f.keys["key-1"] = "bkt-gone"

	assert.True(t, p.DeleteKey(context.Background(), "key-1"))
	assert.False(t, p.DeleteKey(context.Background(), "key-1"), "second revoke reports failure")
	assert.True(t, p.DeleteBucket(context.Background(), "bkt-gone"))
	assert.Empty(t, f.buckets)
}

func TestAuthorizeMaster_SoftFailure(t *testing.T) {
	f := newFakeB2(t)
	f.authFail = true
	client := NewClientWithAuthURL("masterKey", "masterSecret", f.server.URL)

	auth := client.AuthorizeMaster(context.Background())
	assert.False(t, auth.Valid())
}
