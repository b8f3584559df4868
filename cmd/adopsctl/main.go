package main

import (
	"fmt"
	"os"
	"strings"

	"adops/internal/access"
	"adops/internal/config"
	"adops/internal/db"
	"adops/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev" // set during build

// openAuthorizer builds the authorizer backed by the configured database.
var openAuthorizer = func(cfg *config.Config) (*access.Authorizer, func(), error) {
	if err := db.Connect(cfg); err != nil {
		return nil, nil, err
	}
	authz := access.NewAuthorizer(access.NewGormStore(db.GetDB()), access.NewGate(access.DefaultLattice()))
	return authz, func() { _ = db.Close() }, nil
}

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "adopsctl",
		Short:         "Operator tooling for the adops backend",
		Version:       version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return nil
			}
			return godotenv.Load(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before configuration")

	root.AddCommand(newMigrateCmd(), newSeedAdminCmd(), newAuthorizeCmd(), newLevelsCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Connect migrates on success
			if err := db.Connect(cfg); err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first account and its super admin from SUPERADMIN_* variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := db.Connect(cfg); err != nil {
				return err
			}
			defer db.Close()
			if err := models.CreateSuperAdminFromEnv(db.GetDB(), cfg); err != nil {
				return fmt.Errorf("seed super admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "super admin ready for %s\n", cfg.Admin.Email)
			return nil
		},
	}
}

func newAuthorizeCmd() *cobra.Command {
	var userID, accountID, permission, level string

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Check whether a member holds at least a level of a permission type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			authz, closeFn, err := openAuthorizer(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			pt := models.PermissionType(strings.ToUpper(permission))
			required := models.AccessLevel(strings.ToUpper(level))
			allowed, err := authz.AuthorizeAction(cmd.Context(), userID, accountID, pt, required)
			if err != nil {
				return err
			}
			verdict := "denied"
			if allowed {
				verdict = "allowed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s: %s\n", pt, required, accountID, verdict)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&permission, "permission", "", "permission type, e.g. FILE_MANAGEMENT")
	cmd.Flags().StringVar(&level, "level", string(models.AccessView), "required access level")
	for _, name := range []string{"user", "account", "permission"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels [PERMISSION_TYPE]",
		Short: "Print the access lattice, weakest level first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lattice := access.DefaultLattice()
			types := lattice.Types()
			if len(args) == 1 {
				types = []models.PermissionType{models.PermissionType(strings.ToUpper(args[0]))}
			}
			for _, pt := range types {
				levels, err := lattice.AllowedLevels(pt)
				if err != nil {
					return err
				}
				names := make([]string, len(levels))
				for i, l := range levels {
					names[i] = string(l)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", pt, strings.Join(names, " < "))
			}
			return nil
		},
	}
}
