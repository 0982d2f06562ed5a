package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/gymstack/gymstack/pkg/tenant/retry"
	"github.com/gymstack/gymstack/pkg/tenant/slug"
)

// Config carries the bucket naming and visibility knobs.
type Config struct {
	BucketPrefix string
	// BucketSuffixOverride replaces the account-derived suffix when set.
	BucketSuffixOverride string
	Visibility           string
}

// Bucket is the full credential set for a provisioned tenant bucket. All
// four fields are non-empty on success; the registry refuses partial sets.
type Bucket struct {
	BucketName     string
	BucketID       string
	KeyID          string
	ApplicationKey string
}

func (b Bucket) Complete() bool {
	return b.BucketName != "" && b.BucketID != "" && b.KeyID != "" && b.ApplicationKey != ""
}

// Provisioner manages tenant buckets and their scoped keys under the master
// account. Mutating teardown operations are best-effort and report booleans;
// only EnsureBucket returns an error, because the saga must compensate on it.
type Provisioner struct {
	client *Client
	cfg    Config
	policy retry.Policy
}

func NewProvisioner(client *Client, cfg Config, policy retry.Policy) *Provisioner {
	if cfg.Visibility == "" {
		cfg.Visibility = VisibilityPrivate
	}
	return &Provisioner{
		client: client,
		cfg:    cfg,
		policy: policy,
	}
}

// DefaultBucketName is the canonical bucket-name candidate for a tenant
// slug; the account suffix is appended by EnsureBucket once authorized.
func (p *Provisioner) DefaultBucketName(tenantSlug string) string {
	return fmt.Sprintf("%s-%s", p.cfg.BucketPrefix, tenantSlug)
}

// EnsureBucket authorizes, creates the bucket when absent and always issues
// a freshly scoped application key. Retried under the provisioner's policy;
// the loop exits as soon as a complete credential set is assembled.
func (p *Provisioner) EnsureBucket(ctx context.Context, name string) (Bucket, error) {
	var result Bucket
	err := p.policy.Do(ctx, "ensure_bucket", func(ctx context.Context) error {
		auth := p.client.AuthorizeMaster(ctx)
		if !auth.Valid() {
			return fmt.Errorf("master account authorization failed")
		}

		bucketName := p.qualifiedBucketName(name, auth)
		buckets, err := p.client.ListBuckets(ctx, auth, bucketName)
		if err != nil {
			return err
		}

		var bucketID string
		for _, b := range buckets {
			if b.BucketName == bucketName {
				bucketID = b.BucketID
				break
			}
		}
		if bucketID == "" {
			info, err := p.client.CreateBucket(ctx, auth, bucketName, p.cfg.Visibility)
			if err != nil {
				return err
			}
			bucketID = info.BucketID
			log.Info("created tenant bucket", zap.String("bucket", bucketName))
		} else {
			log.Info("tenant bucket already exists", zap.String("bucket", bucketName))
		}

		keyName := fmt.Sprintf("%s-%s", bucketName, p.accountSuffix(auth))
		key, err := p.client.CreateKey(ctx, auth, keyName, bucketID)
		if err != nil {
			return err
		}

		result = Bucket{
			BucketName:     bucketName,
			BucketID:       bucketID,
			KeyID:          key.ApplicationKeyID,
			ApplicationKey: key.ApplicationKey,
		}
		return nil
	})
	if err != nil {
		return Bucket{}, err
	}
	return result, nil
}

// DeleteKey revokes an application key, best effort.
func (p *Provisioner) DeleteKey(ctx context.Context, keyID string) bool {
	auth := p.client.AuthorizeMaster(ctx)
	if err := p.client.DeleteKey(ctx, auth, keyID); err != nil {
		log.Error("delete application key failed", zap.String("key_id", keyID), zap.Error(err))
		return false
	}
	return true
}

// EmptyBucket deletes every file version in the bucket, page by page.
func (p *Provisioner) EmptyBucket(ctx context.Context, bucketID string) bool {
	auth := p.client.AuthorizeMaster(ctx)
	ok := true
	var startName, startID *string
	for {
		files, nextName, nextID, err := p.client.ListFileVersions(ctx, auth, bucketID, startName, startID)
		if err != nil {
			log.Error("list file versions failed", zap.String("bucket_id", bucketID), zap.Error(err))
			return false
		}
		for _, f := range files {
			if err := p.client.DeleteFileVersion(ctx, auth, f.FileName, f.FileID); err != nil {
				log.Error("delete file version failed",
					zap.String("bucket_id", bucketID),
					zap.String("file", f.FileName),
					zap.Error(err))
				ok = false
			}
		}
		if nextName == nil {
			break
		}
		startName, startID = nextName, nextID
	}
	return ok
}

// DeleteBucket removes the bucket itself, best effort. The bucket must be
// empty first.
func (p *Provisioner) DeleteBucket(ctx context.Context, bucketID string) bool {
	auth := p.client.AuthorizeMaster(ctx)
	if err := p.client.DeleteBucket(ctx, auth, bucketID); err != nil {
		log.Error("delete bucket failed", zap.String("bucket_id", bucketID), zap.Error(err))
		return false
	}
	return true
}

// CopyAllFiles server-side copies every current file version (upload actions
// only) from the source bucket into the destination. Individual copy
// failures are logged and skipped; the aggregate result is reported.
func (p *Provisioner) CopyAllFiles(ctx context.Context, sourceBucketID, destBucketID string) bool {
	auth := p.client.AuthorizeMaster(ctx)
	ok := true
	var startName, startID *string
	for {
		files, nextName, nextID, err := p.client.ListFileVersions(ctx, auth, sourceBucketID, startName, startID)
		if err != nil {
			log.Error("list file versions failed", zap.String("bucket_id", sourceBucketID), zap.Error(err))
			return false
		}
		for _, f := range files {
			if f.Action != "upload" {
				continue
			}
			if err := p.client.CopyFile(ctx, auth, f.FileID, f.FileName, destBucketID); err != nil {
				log.Error("copy file failed",
					zap.String("file", f.FileName),
					zap.String("dest_bucket_id", destBucketID),
					zap.Error(err))
				ok = false
			}
		}
		if nextName == nil {
			break
		}
		startName, startID = nextName, nextID
	}
	return ok
}

// qualifiedBucketName slugifies a caller-supplied name and appends the
// account suffix unless it is already present.
func (p *Provisioner) qualifiedBucketName(name string, auth AuthContext) string {
	base := slug.Slugify(name)
	suffix := p.accountSuffix(auth)
	if suffix == "" || strings.HasSuffix(base, "-"+suffix) {
		return base
	}
	return fmt.Sprintf("%s-%s", base, suffix)
}

func (p *Provisioner) accountSuffix(auth AuthContext) string {
	if p.cfg.BucketSuffixOverride != "" {
		return p.cfg.BucketSuffixOverride
	}
	id := auth.AccountID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return slug.Slugify(id)
}
