package main

import (
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/indieinfra/capture/storage/records"
)

var errNotSQL = errors.New("migrate needs records.strategy set to sql")

func migrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the sql records strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			defer done()

			if cfg.Records.Strategy != "sql" || cfg.Records.SQL == nil {
				return errNotSQL
			}

			if err := records.Migrate(cmd.Context(), cfg.Records.SQL); err != nil {
				return err
			}

			log.Println("migrations applied")
			return nil
		},
	}
}
