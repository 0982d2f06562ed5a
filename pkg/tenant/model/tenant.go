package model

import "time"

// Tenant is the domain view of a registry row.
type Tenant struct {
	ID              string
	Name            string
	Subdomain       string
	DBName          string
	Storage         *StorageCredentials
	Status          string
	HardSuspend     bool
	SuspendedUntil  *time.Time
	SuspendedReason string
	CreatedAt       time.Time
}

// StorageCredentials is the bucket handle plus the scoped key that can reach
// it. The registry persists all four fields atomically or not at all.
type StorageCredentials struct {
	BucketName     string
	BucketID       string
	KeyID          string
	ApplicationKey string
}

func (c StorageCredentials) Complete() bool {
	return c.BucketName != "" && c.BucketID != "" && c.KeyID != "" && c.ApplicationKey != ""
}

type CreateTenant struct {
	Name string
	// Subdomain is optional; when empty it is derived from Name.
	Subdomain string
}

type CreateTenantResult struct {
	ID        string
	Name      string
	Subdomain string
	DBName    string
	DBCreated bool
	Storage   StorageCredentials
}

// RenameStrategy selects how the bucket follows a subdomain change.
type RenameStrategy string

const (
	// RenameRecreate tears the old bucket down before creating the new one.
	RenameRecreate RenameStrategy = "recreate"
	// RenameMigrate creates the new bucket, copies every file across, then
	// tears the old bucket down.
	RenameMigrate RenameStrategy = "migrate"
)

type RenameTenant struct {
	ID           string
	NewName      string
	NewSubdomain string
	Strategy     RenameStrategy
}

type RenameTenantResult struct {
	Subdomain string
	DBName    string
	Storage   StorageCredentials
	// FilesCopied is false when the migrate strategy saw at least one copy
	// failure.
	FilesCopied bool
}

type ReprovisionResult struct {
	DBCreated     bool
	BucketCreated bool
	Storage       *StorageCredentials
}
