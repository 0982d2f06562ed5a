package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gymstack/gymstack/cmd/flag"
	"github.com/gymstack/gymstack/pkg/tenant/config"
	"github.com/gymstack/gymstack/pkg/tenant/dbprovision"
	"github.com/gymstack/gymstack/pkg/tenant/metastore/db/dao"
	"github.com/gymstack/gymstack/pkg/tenant/metastore/db/dbcore"
	"github.com/gymstack/gymstack/pkg/tenant/model"
	"github.com/gymstack/gymstack/pkg/tenant/objectstore"
	"github.com/gymstack/gymstack/pkg/tenant/provision"
	"github.com/gymstack/gymstack/pkg/tenant/registry"
	"github.com/gymstack/gymstack/pkg/tenant/retry"
	"github.com/gymstack/gymstack/shared/otel"
)

var (
	createName      string
	createSubdomain string

	renameID        string
	renameName      string
	renameSubdomain string
	renameStrategy  string

	tenantID string

	suspendReason string
	suspendUntil  string
	suspendHard   bool

	maintenanceOn bool
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new tenant",
		RunE:  runCreate,
	}
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "Tenant display name")
	_ = createCmd.MarkFlagRequired("name")
	createCmd.Flags().StringVarP(&createSubdomain, "subdomain", "s", "", "Desired subdomain (derived from name when empty)")

	renameCmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename a tenant and move its bucket",
		RunE:  runRename,
	}
	renameCmd.Flags().StringVarP(&renameID, "tenant-id", "t", "", "Tenant id")
	_ = renameCmd.MarkFlagRequired("tenant-id")
	renameCmd.Flags().StringVarP(&renameName, "name", "n", "", "New display name")
	renameCmd.Flags().StringVarP(&renameSubdomain, "subdomain", "s", "", "New subdomain")
	renameCmd.Flags().StringVar(&renameStrategy, "strategy", string(model.RenameMigrate), "Bucket strategy: migrate or recreate")

	reprovisionCmd := &cobra.Command{
		Use:   "reprovision",
		Short: "Re-create whichever tenant resources are missing",
		RunE:  runReprovision,
	}
	flag.TenantID(reprovisionCmd, &tenantID)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Tear down a tenant and its resources",
		RunE:  runDelete,
	}
	flag.TenantID(deleteCmd, &tenantID)

	suspendCmd := &cobra.Command{
		Use:   "suspend",
		Short: "Suspend a tenant",
		RunE:  runSuspend,
	}
	flag.TenantID(suspendCmd, &tenantID)
	suspendCmd.Flags().StringVar(&suspendReason, "reason", "", "Suspension reason")
	suspendCmd.Flags().StringVar(&suspendUntil, "until", "", "Suspension end (RFC3339)")
	suspendCmd.Flags().BoolVar(&suspendHard, "hard", false, "Hard suspend")

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a suspended tenant",
		RunE:  runResume,
	}
	flag.TenantID(resumeCmd, &tenantID)

	maintenanceCmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Toggle maintenance mode",
		RunE:  runMaintenance,
	}
	flag.TenantID(maintenanceCmd, &tenantID)
	maintenanceCmd.Flags().BoolVar(&maintenanceOn, "on", true, "Enable or disable maintenance")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tenants",
		RunE:  runList,
	}

	rootCmd.AddCommand(createCmd, renameCmd, reprovisionCmd, deleteCmd, suspendCmd, resumeCmd, maintenanceCmd, listCmd)
}

func buildSaga(ctx context.Context) (*provision.Saga, *registry.Registry, error) {
	cfg := config.Load()

	if cfg.TracingEndpoint != "" {
		if err := otel.InitTracing(ctx, &otel.TracingConfig{
			Endpoint: cfg.TracingEndpoint,
			Service:  "tenantd",
		}); err != nil {
			return nil, nil, err
		}
	}

	err := dbcore.ConnectDB(dbcore.DBConfig{
		Username:     cfg.RegistryUser,
		Password:     cfg.RegistryPassword,
		Address:      cfg.RegistryHost,
		Port:         cfg.RegistryPort,
		DBName:       cfg.RegistryDBName,
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		SslMode:      cfg.RegistrySSLMode,
	})
	if err != nil {
		return nil, nil, err
	}

	reg := registry.NewRegistry(dbcore.NewTxImpl(), dao.NewMetaDomain())
	policy := retry.NewPolicy(cfg.RetryAttempts, cfg.RetryDelay)

	dbp := dbprovision.NewProvisioner(dbprovision.Config{
		APIBaseURL: cfg.ControlPlaneURL,
		APIToken:   cfg.ControlPlaneToken,
		ProjectID:  cfg.ControlPlaneProject,
		BranchID:   cfg.ControlPlaneBranch,
		DBOwner:    cfg.DBOwner,
		AdminDSN:   cfg.AdminDSN,
	})

	visibility := objectstore.VisibilityPrivate
	if cfg.BucketVisible {
		visibility = objectstore.VisibilityPublic
	}
	store := objectstore.NewProvisioner(
		objectstore.NewClient(cfg.MasterKeyID, cfg.MasterAppKey),
		objectstore.Config{
			BucketPrefix:         cfg.BucketPrefix,
			BucketSuffixOverride: cfg.BucketSuffix,
			Visibility:           visibility,
		},
		policy,
	)

	saga := provision.NewSaga(reg, dbp, store, policy, cfg.DBNameSuffix)
	return saga, reg, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	saga, _, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	result, err := saga.CreateTenant(ctx, model.CreateTenant{
		Name:      createName,
		Subdomain: createSubdomain,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	saga, _, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	result, err := saga.Rename(ctx, model.RenameTenant{
		ID:           renameID,
		NewName:      renameName,
		NewSubdomain: renameSubdomain,
		Strategy:     model.RenameStrategy(renameStrategy),
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runReprovision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	saga, _, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	result, err := saga.Reprovision(ctx, tenantID)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	saga, _, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	return saga.Delete(ctx, tenantID)
}

func runSuspend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, reg, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	var until *time.Time
	if suspendUntil != "" {
		parsed, err := time.Parse(time.RFC3339, suspendUntil)
		if err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		until = &parsed
	}
	return reg.Suspend(ctx, tenantID, until, suspendReason, suspendHard)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, reg, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	return reg.Resume(ctx, tenantID)
}

func runMaintenance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, reg, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	return reg.SetMaintenance(ctx, tenantID, maintenanceOn)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, reg, err := buildSaga(ctx)
	if err != nil {
		return err
	}
	tenants, err := reg.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(tenants)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
