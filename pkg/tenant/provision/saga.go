package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/gymstack/gymstack/pkg/common"
	"github.com/gymstack/gymstack/pkg/tenant/model"
	"github.com/gymstack/gymstack/pkg/tenant/objectstore"
	"github.com/gymstack/gymstack/pkg/tenant/retry"
	"github.com/gymstack/gymstack/pkg/tenant/slug"
	"github.com/gymstack/gymstack/shared/otel"
)

// DatabaseProvisioner creates and drops tenant databases.
type DatabaseProvisioner interface {
	Ensure(ctx context.Context, dbName string) (bool, error)
	Exists(ctx context.Context, dbName string) (bool, error)
	Drop(ctx context.Context, dbName string) bool
}

// ObjectStoreProvisioner manages tenant buckets and scoped keys.
type ObjectStoreProvisioner interface {
	DefaultBucketName(tenantSlug string) string
	EnsureBucket(ctx context.Context, name string) (objectstore.Bucket, error)
	DeleteKey(ctx context.Context, keyID string) bool
	EmptyBucket(ctx context.Context, bucketID string) bool
	DeleteBucket(ctx context.Context, bucketID string) bool
	CopyAllFiles(ctx context.Context, sourceBucketID, destBucketID string) bool
}

// TenantRegistry is the subset of the registry the saga drives.
type TenantRegistry interface {
	Get(ctx context.Context, id string) (*model.Tenant, error)
	SubdomainTaken(ctx context.Context, subdomain string, excludeID string) (bool, error)
	ReservePending(ctx context.Context, id, name, subdomain, dbName string) error
	Promote(ctx context.Context, id string, creds model.StorageCredentials) error
	Release(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name, subdomain, dbName string, creds *model.StorageCredentials) error
	UpdateStorage(ctx context.Context, id string, creds *model.StorageCredentials) error
	Delete(ctx context.Context, id string) error
}

// SideEffect is a best-effort action run asynchronously after a tenant is
// committed, e.g. tenant schema verification or pushing messaging
// credentials into the new database. Failures are logged, never rolled back.
type SideEffect func(ctx context.Context, tenant *model.Tenant) error

// Saga coordinates the database control plane, the object store and the
// registry for the tenant lifecycle. There is no distributed transaction:
// later-step failures trigger best-effort compensation of earlier steps.
type Saga struct {
	registry    TenantRegistry
	db          DatabaseProvisioner
	store       ObjectStoreProvisioner
	slugs       *slug.Allocator
	dbPolicy    retry.Policy
	dbSuffix    string
	sideEffects []SideEffect
}

func NewSaga(reg TenantRegistry, db DatabaseProvisioner, store ObjectStoreProvisioner, dbPolicy retry.Policy, dbSuffix string, sideEffects ...SideEffect) *Saga {
	if dbSuffix == "" {
		dbSuffix = common.DefaultDBNameSuffix
	}
	return &Saga{
		registry: reg,
		db:       db,
		store:    store,
		slugs: slug.NewAllocator(func(ctx context.Context, s string) (bool, error) {
			return reg.SubdomainTaken(ctx, s, "")
		}),
		dbPolicy:    dbPolicy,
		dbSuffix:    dbSuffix,
		sideEffects: sideEffects,
	}
}

// CreateTenant provisions the database/bucket pair for a new tenant and
// commits the registry row. A pending row is reserved under the registry's
// unique constraints before any external call, so concurrent creates for the
// same subdomain cannot both provision.
func (s *Saga) CreateTenant(ctx context.Context, req model.CreateTenant) (*model.CreateTenantResult, error) {
	ctx, span := otel.StartSpan(ctx, "saga.create_tenant")
	defer span.End()

	subdomain, err := s.resolveSubdomain(ctx, req)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	dbName := subdomain + s.dbSuffix
	bucketCandidate := s.store.DefaultBucketName(subdomain)

	if err := s.registry.ReservePending(ctx, id, req.Name, subdomain, dbName); err != nil {
		if errors.Is(err, common.ErrSubdomainInUse) {
			return nil, common.NewProvisionError(common.CodeSubdomainInUse, err)
		}
		return nil, common.NewProvisionError(common.CodeInternalError, err)
	}

	var dbCreated bool
	err = s.dbPolicy.Do(ctx, "ensure_database", func(ctx context.Context) error {
		created, err := s.db.Ensure(ctx, dbName)
		if err != nil {
			return err
		}
		dbCreated = created
		return nil
	})
	if err != nil {
		s.release(ctx, id)
		return nil, common.NewProvisionError(common.CodeDBCreationFailed, err)
	}

	bucket, err := s.store.EnsureBucket(ctx, bucketCandidate)
	if err != nil || !bucket.Complete() {
		if err == nil {
			err = fmt.Errorf("incomplete credential set for bucket %s", bucket.BucketName)
		}
		// Compensate: the database from the previous step must not leak.
		// Its own failure is logged by the provisioner, never re-raised.
		s.db.Drop(ctx, dbName)
		s.release(ctx, id)
		return nil, common.NewProvisionError(common.CodeBucketCreationFailed, err)
	}

	creds := model.StorageCredentials{
		BucketName:     bucket.BucketName,
		BucketID:       bucket.BucketID,
		KeyID:          bucket.KeyID,
		ApplicationKey: bucket.ApplicationKey,
	}
	if err := s.registry.Promote(ctx, id, creds); err != nil {
		log.Error("promote tenant failed, compensating", zap.String("tenant", id), zap.Error(err))
		s.store.DeleteKey(ctx, bucket.KeyID)
		s.store.DeleteBucket(ctx, bucket.BucketID)
		s.db.Drop(ctx, dbName)
		s.release(ctx, id)
		return nil, common.NewProvisionError(common.CodeInternalError, err)
	}

	tenant := &model.Tenant{
		ID:        id,
		Name:      req.Name,
		Subdomain: subdomain,
		DBName:    dbName,
		Storage:   &creds,
	}
	s.runSideEffects(tenant)

	log.Info("tenant provisioned",
		zap.String("tenant", id),
		zap.String("subdomain", subdomain),
		zap.String("db_name", dbName),
		zap.String("bucket", bucket.BucketName))

	return &model.CreateTenantResult{
		ID:        id,
		Name:      req.Name,
		Subdomain: subdomain,
		DBName:    dbName,
		DBCreated: dbCreated,
		Storage:   creds,
	}, nil
}

// Rename changes a tenant's display name and subdomain, moving its bucket
// with the chosen strategy. The database name is left untouched: renaming a
// live Postgres database is not worth the outage for a subdomain change.
func (s *Saga) Rename(ctx context.Context, req model.RenameTenant) (*model.RenameTenantResult, error) {
	ctx, span := otel.StartSpan(ctx, "saga.rename_tenant")
	defer span.End()

	if req.NewName == "" && req.NewSubdomain == "" {
		return nil, common.NewProvisionError(common.CodeNoFields, common.ErrNoFields)
	}

	tenant, err := s.registry.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, common.ErrTenantNotFound) {
			return nil, common.NewProvisionError(common.CodeGymNotFound, err)
		}
		return nil, common.NewProvisionError(common.CodeInternalError, err)
	}

	newName := req.NewName
	if newName == "" {
		newName = tenant.Name
	}
	newSubdomain := tenant.Subdomain
	if req.NewSubdomain != "" {
		newSubdomain = slug.Slugify(req.NewSubdomain)
		if newSubdomain == "" {
			return nil, common.NewProvisionError(common.CodeInvalidSubdomain, common.ErrInvalidSubdomain)
		}
	}

	// Uniqueness pre-check before any storage mutation. The transaction
	// re-checks, so the remaining window is between here and commit.
	if newSubdomain != tenant.Subdomain {
		taken, err := s.registry.SubdomainTaken(ctx, newSubdomain, req.ID)
		if err != nil {
			return nil, common.NewProvisionError(common.CodeInternalError, err)
		}
		if taken {
			return nil, common.NewProvisionError(common.CodeSubdomainInUse, common.ErrSubdomainInUse)
		}
	}

	result := &model.RenameTenantResult{
		Subdomain:   newSubdomain,
		DBName:      tenant.DBName,
		FilesCopied: true,
	}

	var creds *model.StorageCredentials
	if newSubdomain != tenant.Subdomain {
		bucket, copied, err := s.moveBucket(ctx, tenant, newSubdomain, req.Strategy)
		if err != nil {
			return nil, err
		}
		result.FilesCopied = copied
		creds = &model.StorageCredentials{
			BucketName:     bucket.BucketName,
			BucketID:       bucket.BucketID,
			KeyID:          bucket.KeyID,
			ApplicationKey: bucket.ApplicationKey,
		}
		result.Storage = *creds
	} else if tenant.Storage != nil {
		result.Storage = *tenant.Storage
	}

	if err := s.registry.Rename(ctx, req.ID, newName, newSubdomain, tenant.DBName, creds); err != nil {
		if errors.Is(err, common.ErrSubdomainInUse) {
			// Storage-side operations may already have run. Accepted
			// inconsistency window, surfaced to the caller unresolved.
			log.Error("rename aborted on subdomain collision after storage mutation",
				zap.String("tenant", req.ID),
				zap.String("subdomain", newSubdomain))
			return nil, common.NewProvisionError(common.CodeSubdomainInUse, err)
		}
		return nil, common.NewProvisionError(common.CodeInternalError, err)
	}

	log.Info("tenant renamed",
		zap.String("tenant", req.ID),
		zap.String("subdomain", newSubdomain),
		zap.String("strategy", string(req.Strategy)))

	return result, nil
}

// Reprovision repairs whichever half of a tenant's resources is missing.
// Idempotent: a fully provisioned tenant is a no-op.
func (s *Saga) Reprovision(ctx context.Context, id string) (*model.ReprovisionResult, error) {
	ctx, span := otel.StartSpan(ctx, "saga.reprovision_tenant")
	defer span.End()

	tenant, err := s.registry.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrTenantNotFound) {
			return nil, common.NewProvisionError(common.CodeGymNotFound, err)
		}
		return nil, common.NewProvisionError(common.CodeInternalError, err)
	}

	result := &model.ReprovisionResult{}

	exists, err := s.db.Exists(ctx, tenant.DBName)
	if err != nil {
		return nil, common.NewProvisionError(common.CodeDBCreationFailed, err)
	}
	if !exists {
		err = s.dbPolicy.Do(ctx, "ensure_database", func(ctx context.Context) error {
			_, err := s.db.Ensure(ctx, tenant.DBName)
			return err
		})
		if err != nil {
			return nil, common.NewProvisionError(common.CodeDBCreationFailed, err)
		}
		result.DBCreated = true
	}

	if tenant.Storage == nil {
		bucket, err := s.store.EnsureBucket(ctx, s.store.DefaultBucketName(tenant.Subdomain))
		if err != nil || !bucket.Complete() {
			if err == nil {
				err = fmt.Errorf("incomplete credential set for bucket %s", bucket.BucketName)
			}
			return nil, common.NewProvisionError(common.CodeBucketCreationFailed, err)
		}
		creds := model.StorageCredentials{
			BucketName:     bucket.BucketName,
			BucketID:       bucket.BucketID,
			KeyID:          bucket.KeyID,
			ApplicationKey: bucket.ApplicationKey,
		}
		if err := s.registry.UpdateStorage(ctx, id, &creds); err != nil {
			return nil, common.NewProvisionError(common.CodeInternalError, err)
		}
		result.BucketCreated = true
		result.Storage = &creds
	}

	return result, nil
}

// Delete tears a tenant down: storage first, then the database, then the
// registry row. Storage is prioritized because orphaned buckets bill
// continuously and are harder to notice than an orphaned database. Each half
// is re-attempted on repeated delete calls.
func (s *Saga) Delete(ctx context.Context, id string) error {
	ctx, span := otel.StartSpan(ctx, "saga.delete_tenant")
	defer span.End()

	tenant, err := s.registry.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrTenantNotFound) {
			return common.NewProvisionError(common.CodeGymNotFound, err)
		}
		return common.NewProvisionError(common.CodeInternalError, err)
	}

	if tenant.Storage != nil {
		keyOK := s.store.DeleteKey(ctx, tenant.Storage.KeyID)
		emptyOK := s.store.EmptyBucket(ctx, tenant.Storage.BucketID)
		// A non-empty bucket cannot be deleted; skip the doomed call.
		bucketOK := emptyOK && s.store.DeleteBucket(ctx, tenant.Storage.BucketID)
		if !(keyOK && emptyOK && bucketOK) {
			log.Warn("storage teardown incomplete, tenant row retained",
				zap.String("tenant", id),
				zap.Bool("key_deleted", keyOK),
				zap.Bool("bucket_emptied", emptyOK),
				zap.Bool("bucket_deleted", bucketOK))
			return common.NewProvisionError(common.CodeInternalError,
				fmt.Errorf("storage for tenant %s could not be torn down; tenant row retained for re-attempt", id))
		}
		// Clear the credential columns so a repeated delete skips the
		// storage half.
		if err := s.registry.UpdateStorage(ctx, id, nil); err != nil {
			log.Warn("clearing storage columns failed", zap.String("tenant", id), zap.Error(err))
		}
	}

	if !s.db.Drop(ctx, tenant.DBName) {
		return common.NewProvisionError(common.CodeInternalError,
			fmt.Errorf("database %s could not be dropped; tenant row retained for re-attempt", tenant.DBName))
	}

	if err := s.registry.Delete(ctx, id); err != nil {
		return common.NewProvisionError(common.CodeInternalError, err)
	}

	log.Info("tenant deleted", zap.String("tenant", id), zap.String("db_name", tenant.DBName))
	return nil
}

// moveBucket applies the rename strategy and returns the new bucket's
// credentials plus whether every file made it across (always true for
// recreate, which does not copy).
func (s *Saga) moveBucket(ctx context.Context, tenant *model.Tenant, newSubdomain string, strategy model.RenameStrategy) (objectstore.Bucket, bool, error) {
	newName := s.store.DefaultBucketName(newSubdomain)

	if strategy != model.RenameMigrate {
		// recreate: tear the old bucket down first, then build the new one.
		if tenant.Storage != nil {
			s.store.DeleteKey(ctx, tenant.Storage.KeyID)
			s.store.EmptyBucket(ctx, tenant.Storage.BucketID)
			s.store.DeleteBucket(ctx, tenant.Storage.BucketID)
		}
		bucket, err := s.store.EnsureBucket(ctx, newName)
		if err != nil || !bucket.Complete() {
			if err == nil {
				err = fmt.Errorf("incomplete credential set for bucket %s", bucket.BucketName)
			}
			return objectstore.Bucket{}, false, common.NewProvisionError(common.CodeBucketCreationFailed, err)
		}
		return bucket, true, nil
	}

	// migrate: keep the old bucket serving until the new one is populated.
	bucket, err := s.store.EnsureBucket(ctx, newName)
	if err != nil || !bucket.Complete() {
		if err == nil {
			err = fmt.Errorf("incomplete credential set for bucket %s", bucket.BucketName)
		}
		return objectstore.Bucket{}, false, common.NewProvisionError(common.CodeBucketCreationFailed, err)
	}

	copied := true
	if tenant.Storage != nil {
		copied = s.store.CopyAllFiles(ctx, tenant.Storage.BucketID, bucket.BucketID)
		s.store.DeleteKey(ctx, tenant.Storage.KeyID)
		s.store.EmptyBucket(ctx, tenant.Storage.BucketID)
		s.store.DeleteBucket(ctx, tenant.Storage.BucketID)
	}
	return bucket, copied, nil
}

func (s *Saga) resolveSubdomain(ctx context.Context, req model.CreateTenant) (string, error) {
	if req.Subdomain != "" {
		candidate := slug.Slugify(req.Subdomain)
		if candidate == "" {
			return "", common.NewProvisionError(common.CodeInvalidSubdomain, common.ErrInvalidSubdomain)
		}
		return candidate, nil
	}
	candidate, err := s.slugs.SuggestUnique(ctx, req.Name)
	if err != nil {
		if errors.Is(err, common.ErrInvalidSubdomain) {
			return "", common.NewProvisionError(common.CodeInvalidSubdomain, err)
		}
		return "", common.NewProvisionError(common.CodeInternalError, err)
	}
	return candidate, nil
}

func (s *Saga) release(ctx context.Context, id string) {
	if err := s.registry.Release(ctx, id); err != nil {
		log.Warn("releasing pending tenant row failed", zap.String("tenant", id), zap.Error(err))
	}
}

func (s *Saga) runSideEffects(tenant *model.Tenant) {
	if len(s.sideEffects) == 0 {
		return
	}
	effects := s.sideEffects
	go func() {
		ctx := context.Background()
		for _, effect := range effects {
			if err := effect(ctx, tenant); err != nil {
				log.Warn("post-provision side effect failed",
					zap.String("tenant", tenant.ID),
					zap.Error(err))
			}
		}
	}()
}
