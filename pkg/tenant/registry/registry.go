package registry

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/gymstack/gymstack/pkg/common"
	"github.com/gymstack/gymstack/pkg/tenant/metastore/db/dbmodel"
	"github.com/gymstack/gymstack/pkg/tenant/model"
)

// Registry is the control-plane catalog of tenants, backed by Postgres
// through the DAO layer. Every multi-statement mutation runs inside a single
// transaction that rolls back when any statement fails.
type Registry struct {
	metaDomain dbmodel.IMetaDomain
	txImpl     dbmodel.ITransaction
}

func NewRegistry(tx dbmodel.ITransaction, metaDomain dbmodel.IMetaDomain) *Registry {
	return &Registry{
		txImpl:     tx,
		metaDomain: metaDomain,
	}
}

func (r *Registry) Get(ctx context.Context, id string) (*model.Tenant, error) {
	tenant, err := r.metaDomain.TenantDb(ctx).Get(id)
	if err != nil {
		return nil, err
	}
	return convertTenantToModel(tenant), nil
}

func (r *Registry) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	tenant, err := r.metaDomain.TenantDb(ctx).GetBySubdomain(subdomain)
	if err != nil {
		return nil, err
	}
	return convertTenantToModel(tenant), nil
}

func (r *Registry) List(ctx context.Context) ([]*model.Tenant, error) {
	tenants, err := r.metaDomain.TenantDb(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	result := make([]*model.Tenant, 0, len(tenants))
	for _, tenant := range tenants {
		result = append(result, convertTenantToModel(tenant))
	}
	return result, nil
}

func (r *Registry) SubdomainTaken(ctx context.Context, subdomain string, excludeID string) (bool, error) {
	return r.metaDomain.TenantDb(ctx).SubdomainTaken(subdomain, excludeID)
}

// ReservePending inserts a pending row holding the tenant's identity before
// any external resource is provisioned. The unique constraints on subdomain
// and db_name make this the serialization point for concurrent creates: the
// loser fails here having provisioned nothing.
func (r *Registry) ReservePending(ctx context.Context, id, name, subdomain, dbName string) error {
	err := r.metaDomain.TenantDb(ctx).Insert(&dbmodel.Tenant{
		ID:        id,
		Name:      name,
		Subdomain: subdomain,
		DBName:    dbName,
		Status:    dbmodel.StatusPending,
		CreatedAt: time.Now(),
	})
	if err == common.ErrTenantUniqueConstraintViolation {
		return common.ErrSubdomainInUse
	}
	return err
}

// Promote moves a pending row to active, persisting the storage credentials
// atomically with the status flip.
func (r *Registry) Promote(ctx context.Context, id string, creds model.StorageCredentials) error {
	return r.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		err := r.metaDomain.TenantDb(txCtx).UpdateStorage(id, &dbmodel.StorageHandles{
			BucketName:     creds.BucketName,
			BucketID:       creds.BucketID,
			KeyID:          creds.KeyID,
			ApplicationKey: creds.ApplicationKey,
		})
		if err != nil {
			log.Error("error persisting storage credentials", zap.String("tenant", id), zap.Error(err))
			return err
		}
		status := dbmodel.StatusActive
		err = r.metaDomain.TenantDb(txCtx).UpdateStatus(id, dbmodel.StatusUpdate{Status: &status})
		if err != nil {
			log.Error("error activating tenant", zap.String("tenant", id), zap.Error(err))
			return err
		}
		return nil
	})
}

// Release removes a reservation row after provisioning failed.
func (r *Registry) Release(ctx context.Context, id string) error {
	return r.metaDomain.TenantDb(ctx).Delete(id)
}

// Rename updates the tenant's identity and, when creds is non-nil, its
// storage credentials in one transaction. Subdomain uniqueness is re-checked
// inside the transaction so the registry is never left mutated on collision.
func (r *Registry) Rename(ctx context.Context, id, name, subdomain, dbName string, creds *model.StorageCredentials) error {
	return r.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		taken, err := r.metaDomain.TenantDb(txCtx).SubdomainTaken(subdomain, id)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrSubdomainInUse
		}
		if err := r.metaDomain.TenantDb(txCtx).UpdateIdentity(id, name, subdomain, dbName); err != nil {
			if err == common.ErrTenantUniqueConstraintViolation {
				return common.ErrSubdomainInUse
			}
			return err
		}
		if creds != nil {
			err := r.metaDomain.TenantDb(txCtx).UpdateStorage(id, &dbmodel.StorageHandles{
				BucketName:     creds.BucketName,
				BucketID:       creds.BucketID,
				KeyID:          creds.KeyID,
				ApplicationKey: creds.ApplicationKey,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStorage persists a full credential set, or clears all four columns
// when creds is nil.
func (r *Registry) UpdateStorage(ctx context.Context, id string, creds *model.StorageCredentials) error {
	var handles *dbmodel.StorageHandles
	if creds != nil {
		handles = &dbmodel.StorageHandles{
			BucketName:     creds.BucketName,
			BucketID:       creds.BucketID,
			KeyID:          creds.KeyID,
			ApplicationKey: creds.ApplicationKey,
		}
	}
	return r.metaDomain.TenantDb(ctx).UpdateStorage(id, handles)
}

func (r *Registry) Suspend(ctx context.Context, id string, until *time.Time, reason string, hard bool) error {
	status := dbmodel.StatusSuspended
	update := dbmodel.StatusUpdate{
		Status:      &status,
		HardSuspend: &hard,
	}
	if until != nil {
		update.SuspendedUntil = until
	}
	if reason != "" {
		update.SuspendedReason = &reason
	}
	return r.metaDomain.TenantDb(ctx).UpdateStatus(id, update)
}

func (r *Registry) Resume(ctx context.Context, id string) error {
	status := dbmodel.StatusActive
	return r.metaDomain.TenantDb(ctx).UpdateStatus(id, dbmodel.StatusUpdate{
		Status:          &status,
		ClearSuspension: true,
	})
}

func (r *Registry) SetMaintenance(ctx context.Context, id string, on bool) error {
	status := dbmodel.StatusMaintenance
	if !on {
		status = dbmodel.StatusActive
	}
	return r.metaDomain.TenantDb(ctx).UpdateStatus(id, dbmodel.StatusUpdate{Status: &status})
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.metaDomain.TenantDb(ctx).Delete(id)
}

func convertTenantToModel(tenant *dbmodel.Tenant) *model.Tenant {
	result := &model.Tenant{
		ID:             tenant.ID,
		Name:           tenant.Name,
		Subdomain:      tenant.Subdomain,
		DBName:         tenant.DBName,
		Status:         tenant.Status,
		HardSuspend:    tenant.HardSuspend,
		SuspendedUntil: tenant.SuspendedUntil,
		CreatedAt:      tenant.CreatedAt,
	}
	if tenant.SuspendedReason != nil {
		result.SuspendedReason = *tenant.SuspendedReason
	}
	if tenant.BucketName != nil && tenant.BucketID != nil && tenant.KeyID != nil && tenant.ApplicationKey != nil {
		result.Storage = &model.StorageCredentials{
			BucketName:     *tenant.BucketName,
			BucketID:       *tenant.BucketID,
			KeyID:          *tenant.KeyID,
			ApplicationKey: *tenant.ApplicationKey,
		}
	}
	return result
}
