package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"drivermon/internal/params"
	"drivermon/internal/settings"
)

func newParamsCommand(ctx *commandContext) *cobra.Command {
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect and edit the parameter store",
	}
	paramsCmd.AddCommand(newParamsListCommand(ctx))
	paramsCmd.AddCommand(newParamsGetCommand(ctx))
	paramsCmd.AddCommand(newParamsSetCommand(ctx))
	paramsCmd.AddCommand(newParamsDeleteCommand(ctx))
	return paramsCmd
}

func newParamsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored parameters and the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *params.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					out := make(map[string]string, len(entries))
					for _, e := range entries {
						out[e.Key] = e.Value
					}
					return writeJSON(cmd, out)
				}

				snap, err := settings.Load(cmd.Context(), store)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(w, "No parameters stored; defaults apply")
				} else {
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						rows = append(rows, []string{e.Key, e.Value, e.UpdatedAt.Local().Format(time.DateTime)})
					}
					fmt.Fprintln(w, renderTable([]string{"Key", "Value", "Updated"}, rows, nil))
				}
				fmt.Fprintf(w, "Effective: safety checks %s, driver monitoring %s, awareness budget %s\n",
					enabledLabel(snap.SafetyChecksEnabled),
					enabledLabel(snap.MonitoringEnabled),
					budgetLabel(snap.AwarenessTimeBudget.Seconds()),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newParamsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *params.Store) error {
				value, ok, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("parameter %s is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newParamsSetCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a parameter; the daemon picks it up on its next reload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], strings.TrimSpace(args[1])
			if !force && !slices.Contains(params.KnownKeys(), key) {
				return fmt.Errorf("unknown parameter %s (known: %s); use --force to store it anyway",
					key, strings.Join(params.KnownKeys(), ", "))
			}
			return ctx.withStore(func(store *params.Store) error {
				if err := store.Put(cmd.Context(), key, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Allow keys drivermon does not read")
	return cmd
}

func newParamsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a stored parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *params.Store) error {
				removed, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not set\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
