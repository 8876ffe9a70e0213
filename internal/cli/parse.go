package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/leo-stone-dot/qs_go/qs"
)

func parseFlags(fs *pflag.FlagSet) {
	d := qs.DefaultOptions
	fs.Bool("allowDots", d.AllowDots, "Read a.b=c as a[b]=c")
	fs.Bool("allowEmptyArrays", d.AllowEmptyArrays, "Turn a[] without a value into an empty array")
	fs.Bool("allowPrototypes", d.AllowPrototypes, "Keep keys named after inherited object members")
	fs.Bool("allowSparse", d.AllowSparse, "Keep holes in arrays")
	fs.Int("arrayLimit", d.ArrayLimit, "Highest index a[N] may use and still build an array")
	fs.String("charset", string(d.Charset), "Charset of the input: utf-8 or iso-8859-1")
	fs.Bool("charsetSentinel", d.CharsetSentinel, "Honour a utf8=✓ parameter")
	fs.Bool("comma", d.Comma, "Split values on ',' into arrays")
	fs.Bool("decodeDotInKeys", d.DecodeDotInKeys, "Decode %2E in keys to '.' (implies --allowDots)")
	fs.String("delimiter", "&", "Pair delimiter")
	fs.Int("depth", d.Depth, "Bracket groups expanded per key")
	fs.String("duplicates", string(d.Duplicates), "Repeated keys: combine, first or last")
	fs.Bool("ignoreQueryPrefix", d.IgnoreQueryPrefix, "Strip a leading '?'")
	fs.Bool("interpretNumericEntities", d.InterpretNumericEntities, "Turn &#NNN; into characters for iso-8859-1 input")
	fs.Int("parameterLimit", d.ParameterLimit, "Maximum number of pairs read, -1 for no limit")
	fs.Bool("parseArrays", d.ParseArrays, "Build arrays from [] and [N]")
	fs.Bool("plainObjects", d.PlainObjects, "Disable the inherited member name check")
	fs.Bool("strictDepth", d.StrictDepth, "Fail when a key nests deeper than --depth")
	fs.Bool("strictNullHandling", d.StrictNullHandling, "Read a key without '=' as null")
	annotate(fs, "parse")
}

func newParseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse a query string into a nested document",
		Args:  cobra.MaximumNArgs(1),
	}
	parseFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
	_ = cmd.Flags().SetAnnotation("output", viperKey, []string{"-"})

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		query, err := input(cmd, args)
		if err != nil {
			return err
		}
		opts, err := a.conf.ParseOptions()
		if err != nil {
			return err
		}
		tree, err := qs.ParseWithOptions(query, opts)
		if err != nil {
			return err
		}
		a.logger.Debug("parsed query", zap.Int("bytes", len(query)), zap.Int("keys", tree.Len()))
		format, _ := cmd.Flags().GetString("output")
		return write(cmd.OutOrStdout(), tree, format)
	})
	return cmd
}

func newFlatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flat [query]",
		Short: "Split a query string into decoded key/value pairs without nesting",
		Args:  cobra.MaximumNArgs(1),
	}
	parseFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
	_ = cmd.Flags().SetAnnotation("output", viperKey, []string{"-"})

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		query, err := input(cmd, args)
		if err != nil {
			return err
		}
		opts, err := a.conf.ParseOptions()
		if err != nil {
			return err
		}
		pairs, charset, err := qs.ExtractPairs(query, opts)
		if err != nil {
			return err
		}
		a.logger.Debug("extracted pairs", zap.Int("pairs", pairs.Len()), zap.String("charset", string(charset)))
		format, _ := cmd.Flags().GetString("output")
		return write(cmd.OutOrStdout(), pairs, format)
	})
	return cmd
}

func write(w io.Writer, tree *qs.Node, format string) error {
	switch format {
	case "json":
		raw, err := tree.MarshalJSON()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err = buf.WriteTo(w)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
