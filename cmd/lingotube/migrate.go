package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knishimura/lingotube/internal/database"
	"github.com/knishimura/lingotube/schemas"
)

func newMigrateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, _, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			if err := database.Migrate(cmd.Context(), db, schemas.Migrations); err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}

			fmt.Println("Migrations applied.")
			return nil
		},
	}

	return command
}
