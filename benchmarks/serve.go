package benchmarks

import (
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/zeu5/wumpus-rl/server"
)

func ServeCommand() *cobra.Command {
	var port int
	var maxEpisodes int
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve training over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx, done := signalContext()
			defer done()

			s := server.NewServer(&server.Config{
				Port:           port,
				MaxEpisodes:    maxEpisodes,
				AllowedOrigins: origins,
				Logger:         logger,
			})
			if err := s.Start(ctx); err != nil {
				level.Error(logger).Log("msg", "server stopped", "err", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().IntVar(&maxEpisodes, "max-episodes", 50000, "Largest episode count a request may ask for, 0 for no limit")
	cmd.Flags().StringSliceVar(&origins, "origins", []string{"*"}, "Origins allowed to call the API")
	return cmd
}
