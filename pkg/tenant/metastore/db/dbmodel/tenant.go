package dbmodel

import (
	"time"
)

const (
	StatusActive      = "active"
	StatusSuspended   = "suspended"
	StatusMaintenance = "maintenance"

	// StatusPending marks a reservation row inserted before any external
	// resource exists. Routing middleware must treat it as not provisioned.
	StatusPending = "pending"
)

type Tenant struct {
	ID              string     `gorm:"id;primaryKey;unique"`
	Name            string     `gorm:"name;type:text;not null"`
	Subdomain       string     `gorm:"subdomain;type:text;not null;uniqueIndex"`
	DBName          string     `gorm:"column:db_name;type:text;not null;uniqueIndex"`
	BucketName      *string    `gorm:"bucket_name;type:text"`
	BucketID        *string    `gorm:"bucket_id;type:text"`
	KeyID           *string    `gorm:"key_id;type:text"`
	ApplicationKey  *string    `gorm:"application_key;type:text"`
	Status          string     `gorm:"status;type:text;not null;default:pending"`
	HardSuspend     bool       `gorm:"hard_suspend;type:bool;default:false"`
	SuspendedUntil  *time.Time `gorm:"suspended_until;type:timestamp"`
	SuspendedReason *string    `gorm:"suspended_reason;type:text"`
	CreatedAt       time.Time  `gorm:"created_at;type:timestamp;not null;default:current_timestamp"`
}

func (v Tenant) TableName() string {
	return "tenants"
}

// StorageHandles carries the four storage credential columns that are only
// ever written together.
type StorageHandles struct {
	BucketName     string
	BucketID       string
	KeyID          string
	ApplicationKey string
}

// Complete reports whether every handle needed to reach the bucket is set.
func (h StorageHandles) Complete() bool {
	return h.BucketName != "" && h.BucketID != "" && h.KeyID != "" && h.ApplicationKey != ""
}

// StatusUpdate is a partial update of the suspension columns. Nil fields are
// left untouched; an update with nothing set is rejected by the DAO.
type StatusUpdate struct {
	Status          *string
	HardSuspend     *bool
	SuspendedUntil  *time.Time
	ClearSuspension bool
	SuspendedReason *string
}

func (u StatusUpdate) Empty() bool {
	return u.Status == nil && u.HardSuspend == nil && u.SuspendedUntil == nil &&
		u.SuspendedReason == nil && !u.ClearSuspension
}

//go:generate mockery --name=ITenantDb
type ITenantDb interface {
	Get(id string) (*Tenant, error)
	GetBySubdomain(subdomain string) (*Tenant, error)
	GetAll() ([]*Tenant, error)
	SubdomainTaken(subdomain string, excludeID string) (bool, error)
	Insert(in *Tenant) error
	UpdateIdentity(id string, name string, subdomain string, dbName string) error
	UpdateStorage(id string, handles *StorageHandles) error
	UpdateStatus(id string, update StatusUpdate) error
	Delete(id string) error
	DeleteAll() error
}
