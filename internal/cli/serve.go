package cli

import (
	"github.com/spf13/cobra"

	"github.com/leo-stone-dot/qs_go/internal/metrics"
	"github.com/leo-stone-dot/qs_go/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /parse and /stringify over HTTP",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	_ = cmd.Flags().SetAnnotation("addr", viperKey, []string{"server.addr"})

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		parse, err := a.conf.ParseOptions()
		if err != nil {
			return err
		}
		stringify, err := a.conf.StringifyOptions()
		if err != nil {
			return err
		}
		srv := server.New(a.logger, a.conf.Server, metrics.New(), parse, stringify)
		return srv.Run(cmd.Context())
	})
	return cmd
}
