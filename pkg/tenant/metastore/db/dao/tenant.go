package dao

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gymstack/gymstack/pkg/common"
	"github.com/gymstack/gymstack/pkg/tenant/metastore/db/dbmodel"
)

type tenantDb struct {
	db *gorm.DB
}

var _ dbmodel.ITenantDb = &tenantDb{}

func (s *tenantDb) Get(id string) (*dbmodel.Tenant, error) {
	var tenant dbmodel.Tenant
	err := s.db.Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *tenantDb) GetBySubdomain(subdomain string) (*dbmodel.Tenant, error) {
	var tenant dbmodel.Tenant
	err := s.db.Where("subdomain = ?", subdomain).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *tenantDb) GetAll() ([]*dbmodel.Tenant, error) {
	var tenants []*dbmodel.Tenant
	if err := s.db.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *tenantDb) SubdomainTaken(subdomain string, excludeID string) (bool, error) {
	var count int64
	query := s.db.Model(&dbmodel.Tenant{}).Where("subdomain = ?", subdomain)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *tenantDb) Insert(tenant *dbmodel.Tenant) error {
	err := s.db.Create(tenant).Error
	if err != nil {
		log.Error("create tenant failed", zap.Error(err))
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				log.Error("tenant subdomain or db_name already exists",
					zap.String("subdomain", tenant.Subdomain),
					zap.String("db_name", tenant.DBName))
				return common.ErrTenantUniqueConstraintViolation
			default:
				return err
			}
		}
		return err
	}
	return nil
}

func (s *tenantDb) UpdateIdentity(id string, name string, subdomain string, dbName string) error {
	result := s.db.Model(&dbmodel.Tenant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":      name,
		"subdomain": subdomain,
		"db_name":   dbName,
	})
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return common.ErrTenantUniqueConstraintViolation
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrTenantNotFound
	}
	return nil
}

// UpdateStorage writes all four credential columns in a single statement.
// A nil handle set clears every column; a partial set is rejected.
func (s *tenantDb) UpdateStorage(id string, handles *dbmodel.StorageHandles) error {
	values := map[string]interface{}{
		"bucket_name":     nil,
		"bucket_id":       nil,
		"key_id":          nil,
		"application_key": nil,
	}
	if handles != nil {
		if !handles.Complete() {
			return common.ErrPartialCredentials
		}
		values["bucket_name"] = handles.BucketName
		values["bucket_id"] = handles.BucketID
		values["key_id"] = handles.KeyID
		values["application_key"] = handles.ApplicationKey
	}
	result := s.db.Model(&dbmodel.Tenant{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrTenantNotFound
	}
	return nil
}

func (s *tenantDb) UpdateStatus(id string, update dbmodel.StatusUpdate) error {
	if update.Empty() {
		return common.ErrNoFields
	}
	values := map[string]interface{}{}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	if update.HardSuspend != nil {
		values["hard_suspend"] = *update.HardSuspend
	}
	if update.SuspendedUntil != nil {
		values["suspended_until"] = *update.SuspendedUntil
	}
	if update.SuspendedReason != nil {
		values["suspended_reason"] = *update.SuspendedReason
	}
	if update.ClearSuspension {
		values["suspended_until"] = nil
		values["suspended_reason"] = nil
		values["hard_suspend"] = false
	}
	result := s.db.Model(&dbmodel.Tenant{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrTenantNotFound
	}
	return nil
}

func (s *tenantDb) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&dbmodel.Tenant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrTenantNotFound
	}
	return nil
}

func (s *tenantDb) DeleteAll() error {
	return s.db.Where("1 = 1").Delete(&dbmodel.Tenant{}).Error
}
