package dbprovision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirectProvisioner(t *testing.T) (*Provisioner, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProvisionerWithAdminDB(Config{}, db), mock
}

func TestEnsureDirect_CreatesWhenAbsent(t *testing.T) {
	p, mock := newDirectProvisioner(t)

	mock.ExpectQuery("SELECT 1 FROM pg_database WHERE datname = $1").
		WithArgs("acme_db").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec(`CREATE DATABASE "acme_db"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := p.Ensure(context.Background(), "acme_db")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDirect_Idempotent(t *testing.T) {
	p, mock := newDirectProvisioner(t)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT 1 FROM pg_database WHERE datname = $1").
			WithArgs("acme_db").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	}

	for i := 0; i < 2; i++ {
		created, err := p.Ensure(context.Background(), "acme_db")
		require.NoError(t, err)
		assert.False(t, created, "existing database must report created=false")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDirect_RunsSchemaFunc(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schemaCalls := 0
	p := NewProvisionerWithAdminDB(Config{
		Schema: func(ctx context.Context, dbName string) error {
			schemaCalls++
			assert.Equal(t, "acme_db", dbName)
			return nil
		},
	}, db)

	mock.ExpectQuery("SELECT 1 FROM pg_database WHERE datname = $1").
		WithArgs("acme_db").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	_, err = p.Ensure(context.Background(), "acme_db")
	require.NoError(t, err)
	assert.Equal(t, 1, schemaCalls, "schema must be verified even when the database already exists")
}

func TestDropDirect_TerminatesBackendsFirst(t *testing.T) {
	p, mock := newDirectProvisioner(t)

	mock.ExpectExec("SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()").
		WithArgs("acme_db").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DROP DATABASE IF EXISTS "acme_db"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, p.Drop(context.Background(), "acme_db"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropDirect_SwallowsFailure(t *testing.T) {
	p, mock := newDirectProvisioner(t)

	mock.ExpectExec("SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()").
		WithArgs("acme_db").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP DATABASE IF EXISTS "acme_db"`).
		WillReturnError(assert.AnError)

	assert.False(t, p.Drop(context.Background(), "acme_db"))
}

type fakeControlPlane struct {
	databases map[string]bool
	creates   int
}

func (f *fakeControlPlane) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/p1/branches/b1/databases", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			var names []controlPlaneDatabase
			for name := range f.databases {
				names = append(names, controlPlaneDatabase{Name: name})
			}
			_ = json.NewEncoder(w).Encode(listDatabasesResponse{Databases: names})
		case http.MethodPost:
			var req createDatabaseRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.databases[req.Database.Name] = true
			f.creates++
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/projects/p1/branches/b1/databases/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Path[len("/projects/p1/branches/b1/databases/"):]
		if !f.databases[name] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.databases, name)
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newControlPlaneProvisioner(t *testing.T, fake *fakeControlPlane) *Provisioner {
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	return NewProvisioner(Config{
		APIBaseURL: server.URL,
		APIToken:   "token",
		ProjectID:  "p1",
		BranchID:   "b1",
		DBOwner:    "gymstack",
	})
}

func TestEnsureControlPlane_CreatesThenIdempotent(t *testing.T) {
	fake := &fakeControlPlane{databases: map[string]bool{}}
	p := newControlPlaneProvisioner(t, fake)

	created, err := p.Ensure(context.Background(), "acme_db")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = p.Ensure(context.Background(), "acme_db")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, fake.creates)
}

func TestExistsControlPlane(t *testing.T) {
	fake := &fakeControlPlane{databases: map[string]bool{"acme_db": true}}
	p := newControlPlaneProvisioner(t, fake)

	exists, err := p.Exists(context.Background(), "acme_db")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = p.Exists(context.Background(), "other_db")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDropControlPlane(t *testing.T) {
	fake := &fakeControlPlane{databases: map[string]bool{"acme_db": true}}
	p := newControlPlaneProvisioner(t, fake)

	assert.True(t, p.Drop(context.Background(), "acme_db"))
	assert.Empty(t, fake.databases)

	// Second drop fails remotely and is swallowed into a boolean.
	assert.False(t, p.Drop(context.Background(), "acme_db"))
}
