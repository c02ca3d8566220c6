// Package kura persists per-service configuration trees to files.
//
// A Registry maps dot-separated service names to configuration trees and
// synchronizes each tree with one file below a root directory:
//
//	reg := kura.New("~/.config/app", json5.New())
//	theme := tree.New()
//	tree.MustDefine(theme, "/name", "dark")
//
//	// Reads ~/.config/app/core/gui/theme.json5 if it exists.
//	if err := reg.Register(ctx, "core.gui.theme", theme); err != nil {
//	  return err
//	}
//	reg.Save(ctx, "core.gui.theme")
//
// Failures while reading or writing a single service's file are isolated:
// they are logged, recorded per service (see Registry.LastError), and
// listed in the Failures returned by the bulk operations, but they never
// abort the caller. Only misuse of the registry itself (duplicate or unknown
// names) is returned as an error.
package kura
