package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"osk/internal/service"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Maximize the keyboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *service.Client) error {
				return c.Show(ctx)
			})
		},
	}
}

func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide",
		Short: "Minimize the keyboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *service.Client) error {
				return c.Hide(ctx)
			})
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch between minimized and maximized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *service.Client) error {
				return c.Toggle(ctx)
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the keyboard state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *service.Client) error {
				st, err := c.Status(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Mode:    %s\n", st.Mode)
				fmt.Fprintf(out, "Visible: %t\n", st.Visible)
				fmt.Fprintf(out, "Layout:  %s\n", st.Layout)
				fmt.Fprintf(out, "View:    %s\n", st.View)
				return nil
			})
		},
	}
}

func newSuggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List the current word completions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *service.Client) error {
				words, prefix, err := c.Suggestions(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return json.NewEncoder(out).Encode(map[string]any{"prefix": prefix, "suggestions": words})
				}
				for i, w := range words {
					fmt.Fprintf(out, "%d  %s\n", i, w)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pick <index>",
		Short: "Replace the typed word with a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *service.Client) error {
				return c.PickSuggestion(ctx, uint32(index))
			})
		},
	})
	return cmd
}

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Print the signals the keyboard emits",
		Long: `Print every signal the keyboard emits on the session bus until
interrupted: peer commands, visibility changes and preference requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err = c.Monitor(ctx, func(sig *dbus.Signal) {
				fmt.Fprintln(out, formatSignal(sig))
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

// formatSignal renders a signal as "Name arg arg ...", dropping the
// interface prefix for the keyboard's own interfaces.
func formatSignal(sig *dbus.Signal) string {
	name := sig.Name
	for _, prefix := range []string{service.PeerInterface + ".", service.Interface + "."} {
		if n, ok := strings.CutPrefix(name, prefix); ok {
			name = n
			break
		}
	}
	parts := []string{name}
	for _, v := range sig.Body {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " ")
}

// printErr reports a non-fatal problem on stderr.
func printErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
