package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"drivermon/internal/params"
	"drivermon/internal/region"
)

func newRegionCommand(ctx *commandContext) *cobra.Command {
	regionCmd := &cobra.Command{
		Use:   "region",
		Short: "Inspect or reset the persisted traffic side",
	}
	regionCmd.AddCommand(newRegionShowCommand(ctx))
	regionCmd.AddCommand(newRegionResetCommand(ctx))
	return regionCmd
}

func newRegionShowCommand(ctx *commandContext) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the persisted region, or classify a coordinate with --lat/--lon",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return errors.New("--lat and --lon must be given together")
			}
			if latSet {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				dataset, err := region.LoadDataset(cfg.Region.DatasetPath)
				if err != nil {
					return err
				}
				if !(region.Fix{Latitude: lat, Longitude: lon, HasFix: true}).Valid() {
					return fmt.Errorf("invalid coordinate %.5f, %.5f", lat, lon)
				}
				if name, ok := dataset.Lookup(lat, lon); ok {
					fmt.Fprintf(w, "%.5f, %.5f: %s (%s)\n", lat, lon, trafficSide(true), name)
				} else {
					fmt.Fprintf(w, "%.5f, %.5f: %s\n", lat, lon, trafficSide(false))
				}
				return nil
			}

			return ctx.withStore(func(store *params.Store) error {
				status, err := region.LoadStatus(cmd.Context(), store)
				if err != nil {
					return err
				}
				if !status.Checked {
					fmt.Fprintln(w, "Region not resolved; the daemon resolves it from the next GPS fix")
					return nil
				}
				fmt.Fprintf(w, "Region: %s\n", trafficSide(status.IsRHD))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	return cmd
}

func newRegionResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the persisted region so it is resolved again after restart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *params.Store) error {
				removed, err := store.Delete(cmd.Context(), params.KeyIsRHD)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintln(cmd.OutOrStdout(), "Region was not resolved")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Region cleared; restart the daemon to resolve it again")
				return nil
			})
		},
	}
}
