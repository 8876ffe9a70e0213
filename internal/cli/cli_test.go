package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leo-stone-dot/qs_go/qs"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := Root()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"nested", "", []string{"parse", "a[b][c]=d&e[]=f"}, `{"a":{"b":{"c":"d"}},"e":["f"]}`},
		{"stdin", "a=b&a=c\n", []string{"parse"}, `{"a":["b","c"]}`},
		{"dash reads stdin", "x=1", []string{"parse", "-"}, `{"x":"1"}`},
		{"dots", "", []string{"parse", "--allowDots", "a.b=c"}, `{"a":{"b":"c"}}`},
		{"decode dots implies dots", "", []string{"parse", "--decodeDotInKeys", "name%252Eobj.first=John"},
			`{"name.obj":{"first":"John"}}`},
		{"duplicates", "", []string{"parse", "--duplicates", "last", "a=b&a=c"}, `{"a":"c"}`},
		{"depth", "", []string{"parse", "--depth", "1", "a[b][c]=d"}, `{"a":{"b":{"[c]":"d"}}}`},
		{"comma", "", []string{"parse", "--comma", "a=b,c"}, `{"a":["b","c"]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := execute(t, c.stdin, c.args...)
			require.NoError(t, err)
			assert.JSONEq(t, c.want, out)
		})
	}
}

func TestParseCommandYAML(t *testing.T) {
	out, err := execute(t, "", "parse", "-o", "yaml", "b=1&a[]=x")
	require.NoError(t, err)
	assert.Equal(t, "b: \"1\"\na:\n  - x\n", out)
}

func TestParseCommandErrors(t *testing.T) {
	_, err := execute(t, "", "parse", "--strictDepth", "--depth", "1", "a[b][c]=d")
	assert.ErrorIs(t, err, qs.ErrDepthExceeded)

	_, err = execute(t, "", "parse", "--charset", "latin9", "a=b")
	assert.ErrorIs(t, err, qs.ErrInvalidOption)

	_, err = execute(t, "", "parse", "-o", "toml", "a=b")
	assert.Error(t, err)
}

func TestParseCommandConfig(t *testing.T) {
	path := writeConfig(t, "parse:\n  depth: 1\n  allowDots: true\n")

	out, err := execute(t, "", "parse", "--config", path, "a[b][c]=d&x.y=z")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":{"[c]":"d"}},"x":{"y":"z"}}`, out)

	out, err = execute(t, "", "parse", "--config", path, "--depth", "5", "a[b][c]=d")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":{"c":"d"}}}`, out, "flags win over the config file")
}

func TestFlatCommand(t *testing.T) {
	out, err := execute(t, "a=b;c=d\n", "flat", "--delimiter", ";")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b","c":"d"}`, out)

	out, err = execute(t, "", "flat", "a[b]=1&a[b]=2&c")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a[b]":["1","2"],"c":""}`, out)
}

func TestStringifyCommand(t *testing.T) {
	cases := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"indices", "", []string{"stringify", `{"a":["b","c"]}`}, "a%5B0%5D=b&a%5B1%5D=c\n"},
		{"brackets", "", []string{"stringify", "--arrayFormat", "brackets", `{"a":["b","c"]}`}, "a%5B%5D=b&a%5B%5D=c\n"},
		{"values only", "", []string{"stringify", "--encodeValuesOnly", `{"a":{"b":"c d"}}`}, "a[b]=c%20d\n"},
		{"yaml stdin", "a:\n  b: c\n", []string{"stringify", "-i", "yaml", "--encodeValuesOnly"}, "a[b]=c\n"},
		{"sorted", "", []string{"stringify", "--sort", `{"b":"1","a":"2"}`}, "a=2&b=1\n"},
		{"prefix", "", []string{"stringify", "--addQueryPrefix", `{"a":"b"}`}, "?a=b\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := execute(t, c.stdin, c.args...)
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}

	_, err := execute(t, "", "stringify", `{"a":`)
	assert.Error(t, err)
	_, err = execute(t, "", "stringify", `{"a":"b"} junk`)
	assert.Error(t, err)
	_, err = execute(t, "", "stringify", "--format", "RFC0", `{}`)
	assert.ErrorIs(t, err, qs.ErrInvalidOption)
}

func TestServeCommandListenError(t *testing.T) {
	_, err := execute(t, "", "serve", "--addr", "no-port")
	assert.Error(t, err)
}
