package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/leo-stone-dot/qs_go/qs"
)

func stringifyFlags(fs *pflag.FlagSet) {
	d := qs.DefaultStringifyOptions
	fs.Bool("addQueryPrefix", d.AddQueryPrefix, "Prefix the output with '?'")
	fs.Bool("allowDots", d.AllowDots, "Write nested keys as a.b instead of a[b]")
	fs.Bool("allowEmptyArrays", d.AllowEmptyArrays, "Write empty arrays as a[]")
	fs.String("arrayFormat", string(d.ArrayFormat), "Array keys: indices, brackets, repeat or comma")
	fs.String("charset", string(d.Charset), "Charset of the output: utf-8 or iso-8859-1")
	fs.Bool("charsetSentinel", d.CharsetSentinel, "Lead with a utf8=✓ parameter")
	fs.Bool("commaRoundTrip", d.CommaRoundTrip, "Mark single-item comma arrays with []")
	fs.String("delimiter", d.Delimiter, "Pair delimiter")
	fs.Bool("encode", d.Encode, "Percent-encode keys and values")
	fs.Bool("encodeDotInKeys", d.EncodeDotInKeys, "Encode '.' in keys as %2E (implies --allowDots)")
	fs.Bool("encodeValuesOnly", d.EncodeValuesOnly, "Leave keys unencoded")
	fs.String("format", string(d.Format), "RFC3986 or RFC1738 (spaces as '+')")
	fs.Bool("skipNulls", d.SkipNulls, "Drop null values")
	fs.Bool("strictNullHandling", d.StrictNullHandling, "Write null values without '='")
	fs.Bool("sort", false, "Sort keys at every level")
	_ = fs.SetAnnotation("sort", viperKey, []string{"-"})
	annotate(fs, "stringify")
}

func newStringifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stringify [document]",
		Short: "Encode a JSON or YAML document as a query string",
		Args:  cobra.MaximumNArgs(1),
	}
	stringifyFlags(cmd.Flags())
	cmd.Flags().StringP("input", "i", "json", "Input format: json or yaml")
	_ = cmd.Flags().SetAnnotation("input", viperKey, []string{"-"})

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		doc, err := input(cmd, args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("input")
		tree, err := read(doc, format)
		if err != nil {
			return err
		}

		opts, err := a.conf.StringifyOptions()
		if err != nil {
			return err
		}
		if sorted, _ := cmd.Flags().GetBool("sort"); sorted {
			opts.Sort = func(x, y string) bool { return x < y }
		}

		out, err := qs.StringifyWithOptions(tree, opts)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	})
	return cmd
}

func read(doc, format string) (*qs.Node, error) {
	tree := &qs.Node{}
	var err error
	switch format {
	case "json":
		err = json.Unmarshal([]byte(doc), tree)
	case "yaml":
		err = yaml.NewDecoder(strings.NewReader(doc)).Decode(tree)
		if err == io.EOF {
			return qs.NewObject(), nil
		}
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s document: %w", format, err)
	}
	return tree, nil
}
