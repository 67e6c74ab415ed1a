package config

import (
	"fmt"
	"strings"

	"github.com/example/go-morpho/internal/lattice"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// MORPHO_DICTIONARY_DIR.
const EnvPrefix = "MORPHO"

type Config struct {
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Lattice    LatticeConfig    `mapstructure:"lattice"`
	Tokenizer  TokenizerConfig  `mapstructure:"tokenizer"`
	Server     ServerConfig     `mapstructure:"server"`
	LogLevel   string           `mapstructure:"log_level"`
}

type DictionaryConfig struct {
	Dir     string `mapstructure:"dir"`
	Charset string `mapstructure:"charset"`
}

type LatticeConfig struct {
	MaxUnknownLength int      `mapstructure:"max_unknown_length"`
	UnknownCost      int64    `mapstructure:"unknown_cost"`
	UnknownFeature   string   `mapstructure:"unknown_feature"`
	InvokeUnknown    []string `mapstructure:"invoke_unknown"`
}

type TokenizerConfig struct {
	MaxInputBytes int    `mapstructure:"max_input_bytes"`
	Normalize     string `mapstructure:"normalize"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	RequestTimeout  int    `mapstructure:"request_timeout"`  // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
	MaxNBest        int    `mapstructure:"max_nbest"`
	MaxBodyBytes    int    `mapstructure:"max_body_bytes"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Dictionary: DictionaryConfig{
			Dir:     "dict",
			Charset: "utf-8",
		},
		Lattice: LatticeConfig{
			MaxUnknownLength: 16,
			UnknownCost:      10000,
			UnknownFeature:   "UNK",
			InvokeUnknown:    []string{},
		},
		Tokenizer: TokenizerConfig{
			MaxInputBytes: 64 * 1024,
			Normalize:     "none",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
			MaxNBest:        50,
			MaxBodyBytes:    1 << 20,
		},
		LogLevel: "info",
	}
}

// flagKeys maps every config key to the flag that overrides it.
var flagKeys = []struct {
	key  string
	flag string
}{
	{"dictionary.dir", "dictionary-dir"},
	{"dictionary.charset", "dictionary-charset"},
	{"lattice.max_unknown_length", "lattice-max-unknown-length"},
	{"lattice.unknown_cost", "lattice-unknown-cost"},
	{"lattice.unknown_feature", "lattice-unknown-feature"},
	{"lattice.invoke_unknown", "lattice-invoke-unknown"},
	{"tokenizer.max_input_bytes", "tokenizer-max-input-bytes"},
	{"tokenizer.normalize", "tokenizer-normalize"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "server-workers"},
	{"server.request_timeout", "server-request-timeout"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"server.max_nbest", "server-max-nbest"},
	{"server.max_body_bytes", "server-max-body-bytes"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.StringP("dictionary-dir", "d", defaults.Dictionary.Dir, "Dictionary directory (matrix.def, *.csv, optional unk.def)")
	fs.String("dictionary-charset", defaults.Dictionary.Charset, "Dictionary file charset: utf-8|euc-jp|shift_jis")
	fs.Int("lattice-max-unknown-length", defaults.Lattice.MaxUnknownLength, "Longest unknown-word run in characters")
	fs.Int64("lattice-unknown-cost", defaults.Lattice.UnknownCost, fmt.Sprintf("Unknown-word cost for categories without an unk.def line (0 = default %d)", lattice.DefaultUnknownCost))
	fs.String("lattice-unknown-feature", defaults.Lattice.UnknownFeature, "Unknown-word feature for categories without an unk.def line")
	fs.StringSlice("lattice-invoke-unknown", defaults.Lattice.InvokeUnknown, "Categories that always get an unknown-word candidate (e.g. KANJI,KATAKANA)")
	fs.Int("tokenizer-max-input-bytes", defaults.Tokenizer.MaxInputBytes, "Reject single inputs longer than this many bytes (0 = unlimited)")
	fs.String("tokenizer-normalize", defaults.Tokenizer.Normalize, "Input normalization: none|nfkc")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent analysis requests")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("server-max-nbest", defaults.Server.MaxNBest, "Largest nbest a request may ask for")
	fs.Int("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Largest accepted request body in bytes")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("morpho")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds the flags present in fs to their nested keys. A flag only
// wins over file and env values when it was set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", fk.flag, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("dictionary.dir", c.Dictionary.Dir)
	v.SetDefault("dictionary.charset", c.Dictionary.Charset)
	v.SetDefault("lattice.max_unknown_length", c.Lattice.MaxUnknownLength)
	v.SetDefault("lattice.unknown_cost", c.Lattice.UnknownCost)
	v.SetDefault("lattice.unknown_feature", c.Lattice.UnknownFeature)
	v.SetDefault("lattice.invoke_unknown", c.Lattice.InvokeUnknown)
	v.SetDefault("tokenizer.max_input_bytes", c.Tokenizer.MaxInputBytes)
	v.SetDefault("tokenizer.normalize", c.Tokenizer.Normalize)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_nbest", c.Server.MaxNBest)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("log_level", c.LogLevel)
}
