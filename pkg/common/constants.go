package common

const (
	// DefaultDBNameSuffix is appended to a tenant's subdomain to form its
	// database name, e.g. subdomain "acme" -> database "acme_db".
	DefaultDBNameSuffix = "_db"

	// DefaultBucketPrefix leads every tenant bucket name.
	DefaultBucketPrefix = "gym"
)
