package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/deva-0608/dataslide/internal/jobs"
	"github.com/deva-0608/dataslide/internal/server"
)

var (
	serveAddr   string
	serveWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve uploads, job status, previews and artifacts over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		store := jobs.NewStore(c.StorageRoot)
		srv := server.New(store, log.Named("http"), server.Options{MaxUploadBytes: int64(c.MaxUploadMB) << 20})

		ctx, stop := signalContext()
		defer stop()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Serve(gctx, addr) })
		if serveWorker {
			coord := newCoordinator(c, store, newPipeline(c, store), log.Named("worker"))
			g.Go(func() error { return coord.Run(gctx) })
		}
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&serveWorker, "worker", false, "also run the job coordinator in this process")
}
