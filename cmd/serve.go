package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/indieinfra/capture/server"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the upload HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			defer done()

			log.Println("starting http server...")
			return server.StartServer(cfg)
		},
	}
}
