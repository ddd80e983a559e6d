package main

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-genre/server"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve genre analysis over HTTP",
		Long: `Start an HTTP service that accepts audio uploads.

POST a multipart form with the audio in the "file" field to /analyze.
GET /healthz reports liveness.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.decoder == nil {
				if err := transcode.NewDecoder(a.config.DecoderConfig()).CheckAvailability(); err != nil {
					return err
				}
			}

			sc := a.config.Server
			srv := server.New(server.Config{
				Addr:            sc.Addr,
				MaxUploadBytes:  sc.MaxUploadBytes,
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
				TempDir:         sc.TempDir,
			}, a.newAnalyzer(), a.logger)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = bindFlags(a.v, cmd.Flags(), map[string]string{"addr": "server.addr"})
	return cmd
}
