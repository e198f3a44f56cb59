package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"osk/internal/layout"
	"osk/internal/proximity"
)

func newCompileCmd() *cobra.Command {
	var (
		printKeymaps bool
		outDir       string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "compile <layout>",
		Short: "Compile a layout description and report diagnostics",
		Long: `Compile a layout file, or builtin:<name>, the way the daemon does.

Prints the views with their sizes, the number of keymap bins and every
diagnostic. With --out each bin's XKB keymap is written to
<dir>/<n>.xkb.`,
		Example: `  oskctl compile layouts/de.yaml
  oskctl compile builtin:us --keymaps
  oskctl compile layouts/de.yaml --out /tmp/de --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := layout.Open(args[0])
			if err != nil {
				return err
			}
			pl := l.Build()
			out := cmd.OutOrStdout()

			if jsonOutput {
				if err := writeCompileJSON(cmd, pl); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Layout:   %s\n", args[0])
				fmt.Fprintf(out, "Keycodes: %d\n", len(pl.Keycodes))
				fmt.Fprintf(out, "Keymaps:  %d\n", len(pl.Keymaps))
				fmt.Fprintln(out, "Views:")
				for _, name := range sortedViews(pl) {
					size := proximity.ViewSize(pl.Views[name], pl.Margins)
					fmt.Fprintf(out, "  %-12s %3d buttons  %.0fx%.0f\n", name, countButtons(pl.Views[name]), size.Width, size.Height)
				}
				for _, d := range pl.Diagnostics {
					fmt.Fprintf(out, "warning: %s\n", d.Error())
				}
			}

			if printKeymaps {
				for i, km := range pl.Keymaps {
					fmt.Fprintf(out, "// bin %d\n%s\n", i, km)
				}
			}
			if outDir != "" {
				if err := writeKeymaps(outDir, pl.Keymaps); err != nil {
					return err
				}
			}
			if strict && len(pl.Diagnostics) > 0 {
				return fmt.Errorf("%d diagnostics", len(pl.Diagnostics))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printKeymaps, "keymaps", false, "Print the generated XKB keymaps")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write each keymap bin to this directory")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when the layout produces diagnostics")
	return cmd
}

type compileReport struct {
	Keycodes    int            `json:"keycodes"`
	Keymaps     int            `json:"keymaps"`
	Views       map[string]int `json:"views"`
	Diagnostics []string       `json:"diagnostics"`
}

func writeCompileJSON(cmd *cobra.Command, pl *layout.ParsedLayout) error {
	r := compileReport{
		Keycodes:    len(pl.Keycodes),
		Keymaps:     len(pl.Keymaps),
		Views:       make(map[string]int, len(pl.Views)),
		Diagnostics: []string{},
	}
	for name, v := range pl.Views {
		r.Views[name] = countButtons(v)
	}
	for _, d := range pl.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, d.Error())
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeKeymaps(dir string, keymaps []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for i, km := range keymaps {
		path := filepath.Join(dir, fmt.Sprintf("%d.xkb", i))
		if err := os.WriteFile(path, []byte(km), 0o644); err != nil {
			return fmt.Errorf("write keymap: %w", err)
		}
	}
	return nil
}

func sortedViews(pl *layout.ParsedLayout) []string {
	names := make([]string, 0, len(pl.Views))
	for name := range pl.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func countButtons(v *layout.View) int {
	n := 0
	for _, row := range v.Rows {
		n += len(row.Buttons)
	}
	return n
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [layout...]",
		Short: "Check settings or layout descriptions",
		Long: `Without arguments, load and validate the settings file the daemon
would use. With arguments, check each layout description against the
layout schema without compiling it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				s, path, err := loadSettings()
				if err != nil {
					return err
				}
				if path == "" {
					path = "(defaults)"
				}
				fmt.Fprintf(out, "%s: ok\n", path)
				for name, ref := range s.LayoutRefs() {
					if _, err := layout.Open(ref); err != nil {
						return fmt.Errorf("layouts.%s: %w", name, err)
					}
				}
				return nil
			}

			failed := 0
			for _, ref := range args {
				if _, err := layout.Open(ref); err != nil {
					printErr("%s: %v", ref, err)
					failed++
					continue
				}
				fmt.Fprintf(out, "%s: ok\n", ref)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d layouts invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the builtin layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range layout.BuiltinNames() {
				fmt.Fprintln(cmd.OutOrStdout(), layout.BuiltinPrefix+name)
			}
			return nil
		},
	}
}
