// Package cli implements the qs command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leo-stone-dot/qs_go/internal/config"
	"github.com/leo-stone-dot/qs_go/internal/log"
)

// viperKey is the flag annotation naming the config key a flag overrides.
// Flags without it bind under their own name; "-" disables binding.
const viperKey = "qs_viper_key"

var rootExamples = `
  qs parse 'a[b][c]=d&e[]=f&e[]=g'
  qs parse --allowDots --output yaml 'a.b=c'
  echo 'a=b;c=d' | qs flat --delimiter ';'
  qs stringify --arrayFormat brackets '{"a":["b","c"]}'
  qs serve --config qs.yaml
`

type app struct {
	viper  *viper.Viper
	conf   *config.Config
	logger *zap.Logger
}

// Root builds the qs command tree.
func Root() *cobra.Command {
	a := &app{viper: viper.New(), logger: zap.NewNop()}
	config.SetDefaults(a.viper)

	cmd := &cobra.Command{
		Use:           "qs",
		Short:         "parse and build nested query strings",
		Example:       rootExamples,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.PersistentFlags().String("config", "", "Path to the config file (default ./qs.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "Run in debug mode")
	_ = cmd.PersistentFlags().SetAnnotation("config", viperKey, []string{"-"})

	cmd.AddCommand(
		newParseCmd(a),
		newFlatCmd(a),
		newStringifyCmd(a),
		newServeCmd(a),
	)
	return cmd
}

// Execute runs the command tree and reports a failure on stderr.
func Execute(ctx context.Context) int {
	if err := Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "qs:", err)
		return 1
	}
	return 0
}

// setup binds the flags the user set, loads the config and builds the
// logger.
func (a *app) setup(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed || bindErr != nil {
			return
		}
		key := f.Name
		if ann, ok := f.Annotations[viperKey]; ok && len(ann) > 0 {
			key = ann[0]
		}
		if key == "-" {
			return
		}
		if err := a.viper.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s to config: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	conf, err := config.Load(a.viper, path)
	if err != nil {
		return err
	}
	a.conf = conf

	logger, err := log.New(conf.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("config has been initialised", zap.String("cmd", cmd.Name()), zap.Any("config", conf))
	return nil
}

// run wraps a RunE body so its error is logged before cobra returns it.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			a.logger.Error("command failed", zap.String("cmd", cmd.Name()), zap.Error(err))
		}
		return err
	}
}

// input returns the first argument, or stdin when there is none or it is "-".
func input(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func annotate(fs *pflag.FlagSet, section string) {
	fs.VisitAll(func(f *pflag.Flag) {
		if _, ok := f.Annotations[viperKey]; !ok {
			_ = fs.SetAnnotation(f.Name, viperKey, []string{section + "." + f.Name})
		}
	})
}
