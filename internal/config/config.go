// Package config loads qs settings from a YAML file, the environment and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/leo-stone-dot/qs_go/internal/log"
	"github.com/leo-stone-dot/qs_go/qs"
)

// EnvPrefix is prepended to every environment override, e.g. QS_SERVER_ADDR
// or QS_PARSE_DEPTH.
const EnvPrefix = "QS"

// Config is the merged configuration of the qs command.
type Config struct {
	Debug     bool           `mapstructure:"debug"`
	Log       log.Config     `mapstructure:"log"`
	Server    Server         `mapstructure:"server"`
	Parse     map[string]any `mapstructure:"parse"`
	Stringify map[string]any `mapstructure:"stringify"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	// MaxBodyBytes caps POST bodies.
	MaxBodyBytes int64 `mapstructure:"maxBodyBytes"`
}

var parseKeys = []string{
	"allowDots", "allowEmptyArrays", "allowPrototypes", "allowSparse", "arrayLimit",
	"charset", "charsetSentinel", "comma", "decodeDotInKeys", "delimiter", "depth",
	"duplicates", "ignoreQueryPrefix", "interpretNumericEntities", "parameterLimit",
	"parseArrays", "plainObjects", "strictDepth", "strictNullHandling",
}

var stringifyKeys = []string{
	"addQueryPrefix", "allowDots", "allowEmptyArrays", "arrayFormat", "charset",
	"charsetSentinel", "commaRoundTrip", "delimiter", "encode", "encodeDotInKeys",
	"encodeValuesOnly", "format", "skipNulls", "strictNullHandling",
}

// SetDefaults registers the built-in defaults and the environment bindings
// on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.maxBodyBytes", 1<<20)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Option sections have no defaults, so AutomaticEnv alone would never
	// surface them in Unmarshal.
	for _, k := range parseKeys {
		_ = v.BindEnv("parse." + k)
	}
	for _, k := range stringifyKeys {
		_ = v.BindEnv("stringify." + k)
	}
}

// Load reads the config file at path, or qs.yaml from the working directory
// when path is empty, and unmarshals the result. A missing qs.yaml is not an
// error; a missing explicit path is.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("qs")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the config: %w", err)
	}
	cfg.Log.Debug = cfg.Debug
	return cfg, nil
}

// ParseOptions normalizes the parse section.
func (c *Config) ParseOptions() (qs.Options, error) {
	return qs.NormalizeOptions(rawOptions(c.Parse))
}

// StringifyOptions normalizes the stringify section.
func (c *Config) StringifyOptions() (qs.StringifyOptions, error) {
	return qs.NormalizeStringifyOptions(rawOptions(c.Stringify))
}

// rawOptions turns "true" and "false" strings, which is all the environment
// can carry, into booleans.
func rawOptions(section map[string]any) qs.RawOptions {
	raw := make(qs.RawOptions, len(section))
	for k, v := range section {
		if s, ok := v.(string); ok {
			switch strings.ToLower(s) {
			case "true", "false":
				v = cast.ToBool(s)
			}
		}
		raw[k] = v
	}
	return raw
}
