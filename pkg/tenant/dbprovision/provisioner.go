package dbprovision

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// SchemaFunc initializes or verifies the tenant schema inside a freshly
// ensured database. Business DDL lives with the tenant application; the
// provisioner only guarantees it ran.
type SchemaFunc func(ctx context.Context, dbName string) error

// Config selects the provisioning path. When APIToken is set the control
// plane is used; otherwise the provisioner connects to the bootstrap database
// at AdminDSN and issues administrative SQL directly.
type Config struct {
	APIBaseURL string
	APIToken   string
	ProjectID  string
	BranchID   string
	DBOwner    string

	AdminDSN string

	Schema SchemaFunc
}

// Provisioner idempotently creates and drops tenant databases.
type Provisioner struct {
	cfg Config
	cp  *ControlPlaneClient

	// adminDB overrides the per-call admin connection, for tests.
	adminDB *sql.DB
}

func NewProvisioner(cfg Config) *Provisioner {
	p := &Provisioner{cfg: cfg}
	if cfg.APIToken != "" {
		p.cp = NewControlPlaneClient(cfg.APIBaseURL, cfg.APIToken, cfg.ProjectID, cfg.BranchID)
	}
	return p
}

// NewProvisionerWithAdminDB wires a pre-opened admin connection. Used by
// tests; production callers use NewProvisioner and get a scoped connection
// per operation.
func NewProvisionerWithAdminDB(cfg Config, adminDB *sql.DB) *Provisioner {
	p := NewProvisioner(cfg)
	p.adminDB = adminDB
	return p
}

// Ensure makes dbName exist and its schema initialized. It reports whether
// the database was created by this call; an already-existing database is
// success with created=false.
func (p *Provisioner) Ensure(ctx context.Context, dbName string) (bool, error) {
	var created bool
	var err error
	if p.cp != nil {
		created, err = p.ensureControlPlane(ctx, dbName)
	} else {
		created, err = p.ensureDirect(ctx, dbName)
	}
	if err != nil {
		return false, err
	}

	if p.cfg.Schema != nil {
		if err := p.cfg.Schema(ctx, dbName); err != nil {
			return created, fmt.Errorf("initialize schema for %s: %w", dbName, err)
		}
	}
	return created, nil
}

// Exists checks for the database without creating it.
func (p *Provisioner) Exists(ctx context.Context, dbName string) (bool, error) {
	if p.cp != nil {
		names, err := p.cp.ListDatabases(ctx)
		if err != nil {
			return false, err
		}
		for _, name := range names {
			if name == dbName {
				return true, nil
			}
		}
		return false, nil
	}

	db, release, err := p.acquireAdmin()
	if err != nil {
		return false, err
	}
	defer release()
	return p.existsDirect(ctx, db, dbName)
}

// Drop removes the database, best effort. Failures are logged and reported
// as false, never raised: drop is usually a compensation step where the
// original error already dominates.
func (p *Provisioner) Drop(ctx context.Context, dbName string) bool {
	if p.cp != nil {
		if err := p.cp.DeleteDatabase(ctx, dbName); err != nil {
			log.Error("drop database via control plane failed",
				zap.String("db_name", dbName), zap.Error(err))
			return false
		}
		return true
	}

	db, release, err := p.acquireAdmin()
	if err != nil {
		log.Error("drop database: admin connection failed",
			zap.String("db_name", dbName), zap.Error(err))
		return false
	}
	defer release()

	// Active sessions block DROP DATABASE; terminate them first.
	_, err = db.ExecContext(ctx,
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		dbName)
	if err != nil {
		log.Warn("terminate backends failed", zap.String("db_name", dbName), zap.Error(err))
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		log.Error("drop database failed", zap.String("db_name", dbName), zap.Error(err))
		return false
	}
	log.Info("dropped tenant database", zap.String("db_name", dbName))
	return true
}

func (p *Provisioner) ensureControlPlane(ctx context.Context, dbName string) (bool, error) {
	names, err := p.cp.ListDatabases(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == dbName {
			log.Info("tenant database already exists", zap.String("db_name", dbName))
			return false, nil
		}
	}
	if err := p.cp.CreateDatabase(ctx, dbName, p.cfg.DBOwner); err != nil {
		return false, err
	}
	log.Info("created tenant database via control plane", zap.String("db_name", dbName))
	return true, nil
}

func (p *Provisioner) ensureDirect(ctx context.Context, dbName string) (bool, error) {
	db, release, err := p.acquireAdmin()
	if err != nil {
		return false, err
	}
	defer release()

	exists, err := p.existsDirect(ctx, db, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		log.Info("tenant database already exists", zap.String("db_name", dbName))
		return false, nil
	}

	// CREATE DATABASE cannot be parameterized; the identifier is quoted.
	_, err = db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		return false, err
	}
	log.Info("created tenant database", zap.String("db_name", dbName))
	return true, nil
}

func (p *Provisioner) existsDirect(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", dbName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// acquireAdmin opens a scoped connection to the bootstrap database. The
// release func must run on every exit path.
func (p *Provisioner) acquireAdmin() (*sql.DB, func(), error) {
	if p.adminDB != nil {
		return p.adminDB, func() {}, nil
	}
	db, err := sql.Open("postgres", p.cfg.AdminDSN)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Warn("close admin connection failed", zap.Error(err))
		}
	}, nil
}
