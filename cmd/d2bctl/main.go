// Command d2bctl runs one-off operator tasks against the marketplace database
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	catalogapp "github.com/d2bcart/backend/internal/application/catalog"
	"github.com/d2bcart/backend/internal/bootstrap"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "d2bctl",
		Short:         "d2bctl - operator tooling for the D2BCart marketplace",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(runJobCmd())
	rootCmd.AddCommand(renderCatalogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp wires the application, runs fn and releases every resource
func withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	// background jobs only run when asked for explicitly
	cfg.Scheduler.Enabled = false

	log, tel, err := bootstrap.NewLogger(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	app, err := bootstrap.New(ctx, cfg, log, tel.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(ctx); err != nil {
			log.Warn("Failed to release resources", zap.Error(err))
		}
		_ = tel.Shutdown(ctx)
	}()

	return fn(app)
}

func createAdminCmd() *cobra.Command {
	var name, email, phone string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long: `Create an admin account. The password is read from D2B_ADMIN_PASSWORD
so it never lands in shell history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("D2B_ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("D2B_ADMIN_PASSWORD is not set")
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				user, err := app.Services.Users.CreateAdmin(cmd.Context(), name, email, phone, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&phone, "phone", "", "Mobile number with country code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runJobCmd() *cobra.Command {
	jobs := []string{
		bootstrap.JobAbandonedCart,
		bootstrap.JobCampaignDispatch,
		bootstrap.JobPayoutPromote,
		bootstrap.JobAttemptExpiry,
	}

	return &cobra.Command{
		Use:       "run-job [name]",
		Short:     "Run a background job once",
		Long:      "Run a background job once and exit. Known jobs: " + strings.Join(jobs, ", "),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: jobs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if err := app.Scheduler.RunOnce(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s finished\n", args[0])
				return nil
			})
		},
	}
}

func renderCatalogCmd() *cobra.Command {
	var title, category, manufacturer string

	cmd := &cobra.Command{
		Use:   "render-catalog",
		Short: "Render the active catalog to PDF and upload it",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := catalogapp.CatalogPDFRequest{Title: title}
			var err error
			if req.CategoryID, err = optionalUUID("category", category); err != nil {
				return err
			}
			if req.ManufacturerID, err = optionalUUID("manufacturer", manufacturer); err != nil {
				return err
			}

			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				result, err := app.Services.CatalogPDF.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Cover title")
	cmd.Flags().StringVar(&category, "category", "", "Limit to a category ID")
	cmd.Flags().StringVar(&manufacturer, "manufacturer", "", "Limit to a manufacturer ID")

	return cmd
}

func optionalUUID(flag, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return &id, nil
}
