package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/docshelfhq/docshelf/internal/config"
	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/storage"
	"github.com/docshelfhq/docshelf/internal/workspace"
)

var (
	tenantConfigPath string
	tenantSlugFlag   string
	tenantRegionFlag string
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Provision a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantCreate,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tenants",
	RunE:  runTenantList,
}

var tenantDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Deactivate a tenant; requests are refused, data stays",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantSetActive(false),
}

var tenantActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Reactivate a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantSetActive(true),
}

var tenantPurgeCmd = &cobra.Command{
	Use:   "purge <id>",
	Short: "Delete every row and artifact owned by a tenant, then the tenant itself",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantPurge,
}

func init() {
	tenantCmd.PersistentFlags().StringVar(&tenantConfigPath, "config", config.DefaultConfigPath(), "path to config file")
	tenantCreateCmd.Flags().StringVar(&tenantSlugFlag, "slug", "", "routing slug (derived from name when empty)")
	tenantCreateCmd.Flags().StringVar(&tenantRegionFlag, "region", "", "tenant region label")
	tenantCmd.AddCommand(tenantCreateCmd, tenantListCmd, tenantActivateCmd, tenantDeactivateCmd, tenantPurgeCmd)
}

// openStore loads config and opens the store for a one-shot CLI command.
func openStore() (storage.Store, *workspace.Workspace, error) {
	logger := newLogger()

	cfg, err := config.Load(goutils.Env("DOCSHELF_CONFIG", tenantConfigPath))
	if err != nil {
		return nil, nil, err
	}
	ws, err := initWorkspace(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing workspace: %w", err)
	}
	store, err := initStore(cfg, ws, logger, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, ws, nil
}

func runTenantCreate(_ *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	tn := &domain.Tenant{
		Name:   args[0],
		Slug:   tenantSlugFlag,
		Region: tenantRegionFlag,
		Active: true,
	}
	if err := store.Tenants().Create(context.Background(), tn); err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	fmt.Printf("created tenant %s (slug: %s)\n", tn.ID, tn.Slug)
	return nil
}

func runTenantList(_ *cobra.Command, _ []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	tenants, err := store.Tenants().List(context.Background())
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSLUG\tACTIVE\tREGION")
	for _, tn := range tenants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", tn.ID, tn.Name, tn.Slug, tn.Active, tn.Region)
	}
	return w.Flush()
}

func runTenantSetActive(active bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid tenant ID: %w", err)
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Tenants().SetActive(context.Background(), id, active); err != nil {
			return fmt.Errorf("updating tenant: %w", err)
		}

		state := "deactivated"
		if active {
			state = "activated"
		}
		fmt.Printf("tenant %s %s\n", id, state)
		return nil
	}
}

func runTenantPurge(_ *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid tenant ID: %w", err)
	}

	store, ws, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	tn, err := store.Tenants().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up tenant: %w", err)
	}

	if err := store.Admin().PurgeTenant(ctx, id); err != nil {
		return fmt.Errorf("purging tenant data: %w", err)
	}
	if err := ws.RemoveTenantDir(id); err != nil {
		return fmt.Errorf("removing tenant artifacts: %w", err)
	}
	if err := store.Tenants().Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting tenant record: %w", err)
	}

	fmt.Printf("tenant %s (%s) purged\n", tn.Slug, id)
	return nil
}
