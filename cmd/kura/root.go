package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format"
	"github.com/yacchi/kura/format/json"
	"github.com/yacchi/kura/format/json5"
	"github.com/yacchi/kura/format/jsonc"
	"github.com/yacchi/kura/format/toml"
	"github.com/yacchi/kura/format/yaml"
	"github.com/yacchi/kura/logging"
	"github.com/yacchi/kura/storage/fs"
)

// config is the resolved CLI configuration.
type config struct {
	Root   string               `mapstructure:"root"`
	Format string               `mapstructure:"format"`
	Log    logging.LoggerConfig `mapstructure:"log"`
}

// formatEntry bundles what the CLI needs for one file format.
type formatEntry struct {
	codec codec.Codec
	parse format.ParseFunc
}

var formats = map[string]formatEntry{
	string(codec.FormatJSON5): {json5.New(), jsonc.Parse},
	string(codec.FormatJSONC): {jsonc.New(), jsonc.Parse},
	string(codec.FormatYAML):  {yaml.New(), yaml.Parse},
	string(codec.FormatTOML):  {toml.New(), toml.Parse},
	string(codec.FormatJSON):  {json.New(), json.Parse},
}

func formatNames() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// app holds the state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg     config
	format  formatEntry
	storage *fs.Storage
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "kura",
		Short: "Inspect and maintain per-service configuration files",
		Long: `kura inspects the configuration files a kura registry keeps under its root.

Each service name maps to one file: "core.gui.theme" is stored at
<root>/core/gui/theme.json5 with the default json5 format.

Configuration is read from ~/.config/kura/config.yaml (or --config), from
KURA_* environment variables (KURA_ROOT, KURA_FORMAT, KURA_LOG_LEVEL, ...),
and from flags, in increasing order of precedence.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ~/.config/kura/config.yaml)")
	flags.StringP("root", "r", ".", "root directory of the service files")
	flags.StringP("format", "f", string(codec.FormatJSON5),
		"file format ("+strings.Join(formatNames(), ", ")+")")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", logging.FormatText, "log format (text, json)")

	_ = a.v.BindPFlag("root", flags.Lookup("root"))
	_ = a.v.BindPFlag("format", flags.Lookup("format"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newPathCmd(a),
		newLsCmd(a),
		newCheckCmd(a),
		newFmtCmd(a),
		newGenCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// init resolves the configuration before any subcommand runs.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	a.v.SetEnvPrefix("KURA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		a.v.AddConfigPath(filepath.Join(home, ".config", "kura"))
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	entry, ok := formats[strings.ToLower(a.cfg.Format)]
	if !ok {
		return fmt.Errorf("unknown format %q (want one of %s)", a.cfg.Format, strings.Join(formatNames(), ", "))
	}
	a.format = entry
	a.storage = fs.New(a.cfg.Root)
	a.logger = logging.NewLogger(a.cfg.Log, cmd.ErrOrStderr())

	a.logger.Debug("configuration resolved",
		"root", a.storage.Root(),
		"format", a.cfg.Format,
		"config_file", a.v.ConfigFileUsed(),
	)
	return nil
}

// ext returns the extension of the configured format.
func (a *app) ext() string {
	return a.format.codec.Extension()
}
