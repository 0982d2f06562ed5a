package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	defaultAuthURL  = "https://api.backblazeb2.com"
	apiPrefix       = "/b2api/v2/"
	requestTimeout  = 15 * time.Second
	listVersionsCap = 1000
)

// Bucket visibility values accepted by the object store.
const (
	VisibilityPrivate = "allPrivate"
	VisibilityPublic  = "allPublic"
)

// AuthContext is a short-lived authorization against the master account.
// It is derived per operation batch and passed explicitly; there is no
// long-lived token cache.
type AuthContext struct {
	APIURL    string
	Token     string
	AccountID string
}

func (a AuthContext) Valid() bool {
	return a.APIURL != "" && a.Token != "" && a.AccountID != ""
}

// Client is a thin wrapper over the object store's native HTTP API,
// authenticated with the master key pair.
type Client struct {
	http   *resty.Client
	keyID  string
	appKey string
}

func NewClient(keyID, appKey string) *Client {
	return NewClientWithAuthURL(keyID, appKey, defaultAuthURL)
}

func NewClientWithAuthURL(keyID, appKey, authURL string) *Client {
	client := resty.New().
		SetBaseURL(authURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		keyID:  keyID,
		appKey: appKey,
	}
}

type authorizeResponse struct {
	AccountID          string `json:"accountId"`
	AuthorizationToken string `json:"authorizationToken"`
	APIURL             string `json:"apiUrl"`
}

// AuthorizeMaster authorizes against the master account. It fails softly:
// any transport or credential error yields a zero AuthContext, which every
// downstream call rejects with a descriptive error.
func (c *Client) AuthorizeMaster(ctx context.Context) AuthContext {
	var out authorizeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.keyID, c.appKey).
		SetResult(&out).
		Get(apiPrefix + "b2_authorize_account")
	if err != nil {
		log.Error("object store authorization failed", zap.Error(err))
		return AuthContext{}
	}
	if resp.IsError() {
		log.Error("object store authorization rejected",
			zap.String("status", resp.Status()), zap.String("body", resp.String()))
		return AuthContext{}
	}
	return AuthContext{
		APIURL:    out.APIURL,
		Token:     out.AuthorizationToken,
		AccountID: out.AccountID,
	}
}

type BucketInfo struct {
	BucketID   string `json:"bucketId"`
	BucketName string `json:"bucketName"`
	BucketType string `json:"bucketType"`
}

type listBucketsResponse struct {
	Buckets []BucketInfo `json:"buckets"`
}

// ListBuckets returns the buckets matching name, or all buckets when name is
// empty.
func (c *Client) ListBuckets(ctx context.Context, auth AuthContext, name string) ([]BucketInfo, error) {
	body := map[string]interface{}{"accountId": auth.AccountID}
	if name != "" {
		body["bucketName"] = name
	}
	var out listBucketsResponse
	if err := c.call(ctx, auth, "b2_list_buckets", body, &out); err != nil {
		return nil, err
	}
	return out.Buckets, nil
}

func (c *Client) CreateBucket(ctx context.Context, auth AuthContext, name, bucketType string) (BucketInfo, error) {
	var out BucketInfo
	err := c.call(ctx, auth, "b2_create_bucket", map[string]interface{}{
		"accountId":  auth.AccountID,
		"bucketName": name,
		"bucketType": bucketType,
	}, &out)
	return out, err
}

func (c *Client) DeleteBucket(ctx context.Context, auth AuthContext, bucketID string) error {
	return c.call(ctx, auth, "b2_delete_bucket", map[string]interface{}{
		"accountId": auth.AccountID,
		"bucketId":  bucketID,
	}, nil)
}

type KeyInfo struct {
	ApplicationKeyID string `json:"applicationKeyId"`
	ApplicationKey   string `json:"applicationKey"`
	KeyName          string `json:"keyName"`
}

// CreateKey issues an application key scoped to a single bucket with the
// file capabilities a tenant needs.
func (c *Client) CreateKey(ctx context.Context, auth AuthContext, keyName, bucketID string) (KeyInfo, error) {
	var out KeyInfo
	err := c.call(ctx, auth, "b2_create_key", map[string]interface{}{
		"accountId":    auth.AccountID,
		"keyName":      keyName,
		"bucketId":     bucketID,
		"capabilities": []string{"listFiles", "readFiles", "writeFiles", "deleteFiles"},
	}, &out)
	return out, err
}

func (c *Client) DeleteKey(ctx context.Context, auth AuthContext, keyID string) error {
	return c.call(ctx, auth, "b2_delete_key", map[string]interface{}{
		"applicationKeyId": keyID,
	}, nil)
}

type FileVersion struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	Action   string `json:"action"`
}

type listFileVersionsResponse struct {
	Files        []FileVersion `json:"files"`
	NextFileName *string       `json:"nextFileName"`
	NextFileID   *string       `json:"nextFileId"`
}

// ListFileVersions returns one page of file versions plus the cursor for the
// next page; nil cursors mean the listing is complete.
func (c *Client) ListFileVersions(ctx context.Context, auth AuthContext, bucketID string, startFileName, startFileID *string) ([]FileVersion, *string, *string, error) {
	body := map[string]interface{}{
		"bucketId":     bucketID,
		"maxFileCount": listVersionsCap,
	}
	if startFileName != nil {
		body["startFileName"] = *startFileName
	}
	if startFileID != nil {
		body["startFileId"] = *startFileID
	}
	var out listFileVersionsResponse
	if err := c.call(ctx, auth, "b2_list_file_versions", body, &out); err != nil {
		return nil, nil, nil, err
	}
	return out.Files, out.NextFileName, out.NextFileID, nil
}

func (c *Client) DeleteFileVersion(ctx context.Context, auth AuthContext, fileName, fileID string) error {
	return c.call(ctx, auth, "b2_delete_file_version", map[string]interface{}{
		"fileName": fileName,
		"fileId":   fileID,
	}, nil)
}

// CopyFile server-side copies a file version into the destination bucket
// under the same file name.
func (c *Client) CopyFile(ctx context.Context, auth AuthContext, sourceFileID, fileName, destBucketID string) error {
	return c.call(ctx, auth, "b2_copy_file", map[string]interface{}{
		"sourceFileId":        sourceFileID,
		"fileName":            fileName,
		"destinationBucketId": destBucketID,
	}, nil)
}

func (c *Client) call(ctx context.Context, auth AuthContext, op string, body interface{}, result interface{}) error {
	if !auth.Valid() {
		return fmt.Errorf("%s: not authorized against master account", op)
	}
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth.Token).
		SetBody(body)
	if result != nil {
		req = req.SetResult(result)
	}
	resp, err := req.Post(auth.APIURL + apiPrefix + op)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %s: %s", op, resp.Status(), resp.String())
	}
	return nil
}
