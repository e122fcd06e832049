package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"virtualtourist/internal/app"
)

func newPinsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pins",
		Short: "List every pin with its photo count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				ctx := cmd.Context()
				pins, err := a.Maps.ListPins(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tLAT\tLON\tNAME\tPHOTOS")
				for _, p := range pins {
					count, err := a.Store.CountPhotos(ctx, p.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%s\t%d\n", p.ID, p.Latitude, p.Longitude, p.DisplayName(), count)
				}
				return w.Flush()
			})
		},
	}
}

func newDropCmd(opts *rootOptions) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:     "drop",
		Short:   "Drop a pin and fetch its album",
		Example: `  tourist drop --lat 48.8584 --lon 2.2945`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				pin, err := a.Maps.DropPin(cmd.Context(), lat, lon)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped pin %s at %.6f,%.6f %s\n", pin.ID, pin.Latitude, pin.Longitude, pin.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newWipeCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every pin, photo and stored image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			return withApp(cmd, opts, func(a *app.App) error {
				if err := a.Maps.Wipe(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all data wiped")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the wipe")

	return cmd
}
