package dbprovision

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const controlPlaneTimeout = 15 * time.Second

// ControlPlaneClient talks to the managed-Postgres control-plane API:
// databases are listed, created and deleted under a project/branch pair.
type ControlPlaneClient struct {
	http      *resty.Client
	projectID string
	branchID  string
}

func NewControlPlaneClient(baseURL, token, projectID, branchID string) *ControlPlaneClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(controlPlaneTimeout).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	return &ControlPlaneClient{
		http:      client,
		projectID: projectID,
		branchID:  branchID,
	}
}

type controlPlaneDatabase struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
}

type listDatabasesResponse struct {
	Databases []controlPlaneDatabase `json:"databases"`
}

type createDatabaseRequest struct {
	Database controlPlaneDatabase `json:"database"`
}

func (c *ControlPlaneClient) databasesPath() string {
	return fmt.Sprintf("/projects/%s/branches/%s/databases", c.projectID, c.branchID)
}

func (c *ControlPlaneClient) ListDatabases(ctx context.Context) ([]string, error) {
	var out listDatabasesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.databasesPath())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list databases: %s: %s", resp.Status(), resp.String())
	}
	names := make([]string, 0, len(out.Databases))
	for _, db := range out.Databases {
		names = append(names, db.Name)
	}
	return names, nil
}

func (c *ControlPlaneClient) CreateDatabase(ctx context.Context, name, owner string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createDatabaseRequest{Database: controlPlaneDatabase{Name: name, OwnerName: owner}}).
		Post(c.databasesPath())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("create database %s: %s: %s", name, resp.Status(), resp.String())
	}
	return nil
}

func (c *ControlPlaneClient) DeleteDatabase(ctx context.Context, name string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(c.databasesPath() + "/" + name)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("delete database %s: %s: %s", name, resp.Status(), resp.String())
	}
	return nil
}
