package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// NewMigrateCmd creates the migrate command group for the history store.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back prediction-history migrations",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return errors.New(errors.ErrCodeValidation, "--steps must be positive")
			}
			return withMigrator(cmd, func(mg *postgres.Migrator) error {
				if err := mg.Down(steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(mg *postgres.Migrator) error {
					if err := mg.Up(); err != nil {
						return err
					}
					PrintSuccess(cmd, "migrations applied")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(mg *postgres.Migrator) error {
					version, dirty, err := mg.Status()
					if err != nil {
						return err
					}
					return PrintResult(cmd, migrationStatus{Version: version, Dirty: dirty})
				})
			},
		},
	)
	return cmd
}

// withMigrator connects to the configured database and runs fn. Closing the
// migrator also closes the pool.
func withMigrator(cmd *cobra.Command, fn func(*postgres.Migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.withTimeout(cmd.Context())
	defer cancel()

	conn, err := postgres.NewConnection(ctx, cliCtx.Config.Database, cliCtx.Logger.Named("postgres"))
	if err != nil {
		return err
	}
	mg, err := postgres.NewMigrator(conn.DB(), cliCtx.Logger.Named("migrate"))
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer mg.Close()
	return fn(mg)
}

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

//Personal.AI order the ending
