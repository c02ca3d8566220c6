package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format/jsonc"
	"github.com/yacchi/kura/internal/cmd/generate/paths"
	"github.com/yacchi/kura/storage"
	"github.com/yacchi/kura/svcpath"
)

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <service>",
		Short: "Print the file path of a service",
		Example: `  kura path core.gui.theme
  kura --root ~/.config/app --format yaml path core.gui.theme`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := svcpath.Resolve(args[0], a.ext())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.storage.Abs(rel))
			return nil
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the services stored under the root",
		Long: `List the services whose files exist under the root, one per line, sorted.

Files that do not have the configured extension, or whose path does not map
back to a valid service name, are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := a.services()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// services walks the root and returns the service names found, sorted.
func (a *app) services() ([]string, error) {
	root := a.storage.Root()
	var names []string

	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, iofs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, a.ext()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name, err := svcpath.FromPath(rel, a.ext())
		if err != nil {
			a.logger.Debug("skipping file", "path", path, "error", err)
			return nil
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", root, err)
	}

	sort.Strings(names)
	return names, nil
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [service...]",
		Short: "Parse service files and report syntax errors",
		Long: `Parse the files of the named services, or of every service under the root,
with the configured format. Exits with a non-zero status if any file cannot
be read or parsed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				var err error
				if names, err = a.services(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range names {
				if err := a.check(cmd.Context(), name); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", name)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d service file(s) failed", failed, len(names))
			}
			return nil
		},
	}
}

func (a *app) check(ctx context.Context, name string) error {
	data, err := a.read(ctx, name)
	if err != nil {
		return err
	}
	values, err := a.format.parse(data)
	if err != nil {
		return err
	}
	a.logger.Debug("checked service", "service", name, "keys", len(values))
	return nil
}

func newFmtCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <service>...",
		Short: "Rewrite json5/jsonc service files in canonical layout",
		Long: `Rewrite the files of the named services in hujson's canonical layout.
Comments are preserved. Only the json5 and jsonc formats are supported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch a.format.codec.Format() {
			case codec.FormatJSON5, codec.FormatJSONC:
			default:
				return fmt.Errorf("fmt supports json5 and jsonc, not %s", a.format.codec.Format())
			}

			for _, name := range args {
				if err := a.reformat(cmd.Context(), name); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) reformat(ctx context.Context, name string) error {
	data, err := a.read(ctx, name)
	if err != nil {
		return err
	}
	formatted, err := jsonc.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", name, err)
	}

	rel, err := svcpath.Resolve(name, a.ext())
	if err != nil {
		return err
	}
	return a.storage.Write(ctx, rel, func(w io.Writer) error {
		_, err := w.Write(formatted)
		return err
	})
}

// read returns the content of the service's file.
func (a *app) read(ctx context.Context, name string) ([]byte, error) {
	rel, err := svcpath.Resolve(name, a.ext())
	if err != nil {
		return nil, err
	}
	r, err := a.storage.Open(ctx, rel)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, fmt.Errorf("no file at %s", a.storage.Abs(rel))
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "kura version %s\n", version)
			return nil
		},
	}
}

func newGenCmd() *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Code generation commands",
	}
	genCmd.AddCommand(newGenPathsCmd())
	return genCmd
}

func newGenPathsCmd() *cobra.Command {
	var opts paths.Options

	cmd := &cobra.Command{
		Use:   "paths <source-file>",
		Short: "Generate JSON Pointer path constants from a struct type",
		Long: `Generate a constant for the JSON Pointer path of every setting in a struct
type, for use with tree.Define. Nested structs are flattened; a field tagged
kura:"leaf" is kept as a single setting and kura:"-" skips it.`,
		Example: `  kura gen paths --type AppConfig config.go

For use with go:generate:
  //go:generate kura gen paths --type AppConfig $GOFILE`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return paths.Run(args[0], opts, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.TypeName, "type", "t", "", "target struct type name (required)")
	cmd.Flags().StringVar(&opts.TagName, "tag", paths.DefaultTagName, "tag name for field resolution")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default: <source>_paths.go)")
	cmd.Flags().StringVarP(&opts.PackageName, "package", "p", "", "output package name (default: same as input)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
