// Package fxkura wires a kura.Registry into a go.uber.org/fx application.
//
// The registry loads every registered service when the application starts
// and saves every service when it stops:
//
//	fx.New(
//		fxkura.Module(fxkura.Config{Root: "~/.config/app"}),
//		fxkura.Register("core.gui.theme", themeTree),
//	)
package fxkura

import (
	"context"
	"log/slog"

	"github.com/yacchi/kura"
	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format/json5"
	"github.com/yacchi/kura/storage"
	"go.uber.org/fx"
)

// Config configures the registry provided by Module.
type Config struct {
	// Root is the directory holding the service files.
	Root string

	// Codec encodes the files. Defaults to json5.
	Codec codec.Codec

	// Storage replaces the file system storage rooted at Root.
	Storage storage.Storage

	// Watch reloads services whose files change while the application runs.
	Watch bool

	// WatchConfig is used when Watch is set. Zero fields take the values of
	// kura.DefaultWatchConfig, so a zero DebounceDelay means the default
	// delay here. Set a negative DebounceDelay to reload on every change.
	WatchConfig kura.WatchConfig
}

// Params are the dependencies of NewRegistry.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
	Logger    *slog.Logger `optional:"true"`
}

// Module provides a *kura.Registry built from cfg.
//
//nolint:ireturn // fx.Option is the standard return type for Fx modules
func Module(cfg Config) fx.Option {
	return fx.Module("kura",
		fx.Supply(cfg),
		fx.Provide(NewRegistry),
	)
}

// Register registers t under name when the application is built. The file
// is read by the registry's start hook together with every other service.
//
//nolint:ireturn // fx.Option is the standard return type for Fx modules
func Register(name string, t codec.Tree) fx.Option {
	return fx.Invoke(func(reg *kura.Registry) error {
		return reg.Register(context.Background(), name, t, kura.WithoutLoad())
	})
}

// NewRegistry creates the registry and appends its lifecycle hooks.
func NewRegistry(p Params) *kura.Registry {
	cfg := p.Config
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := cfg.Codec
	if c == nil {
		c = json5.New()
	}

	opts := []kura.Option{kura.WithLogger(logger)}
	if cfg.Storage != nil {
		opts = append(opts, kura.WithStorage(cfg.Storage))
	}
	reg := kura.New(cfg.Root, c, opts...)

	var stopWatch func(context.Context) error

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if failures := reg.LoadAll(ctx); failures.Len() > 0 {
				logger.Warn("some services failed to load",
					"count", failures.Len(), "services", failures.Services())
			}
			if !cfg.Watch {
				return nil
			}
			stop, err := reg.Watch(context.Background(), watchConfig(cfg.WatchConfig))
			if err != nil {
				return err
			}
			stopWatch = stop
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if stopWatch != nil {
				if err := stopWatch(ctx); err != nil {
					logger.Warn("failed to stop watching", "error", err)
				}
			}
			if failures := reg.SaveAll(ctx); failures.Len() > 0 {
				logger.Warn("some services failed to save",
					"count", failures.Len(), "services", failures.Services())
			}
			return nil
		},
	})

	return reg
}

func watchConfig(cfg kura.WatchConfig) kura.WatchConfig {
	def := kura.DefaultWatchConfig()
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	return cfg
}
