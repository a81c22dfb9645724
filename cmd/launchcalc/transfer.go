package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/orbit"
)

var transferCmd = &cobra.Command{
	Use:     "transfer",
	Short:   "Print the Hohmann transfer between two circular orbits",
	Example: "  launchcalc transfer --r1 6678 --r2 42164",
	RunE: func(cmd *cobra.Command, args []string) error {
		r1, _ := cmd.Flags().GetFloat64("r1")
		r2, _ := cmd.Flags().GetFloat64("r2")
		mu, _ := cmd.Flags().GetFloat64("mu")
		if !cmd.Flags().Changed("mu") {
			if cfgMu := viper.GetFloat64("mu"); cfgMu != 0 {
				mu = cfgMu
			}
		}

		t, err := orbit.Hohmann(r1, r2, mu)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "dv1:           %.6f km/s\n", t.DV1)
		fmt.Fprintf(out, "dv2:           %.6f km/s\n", t.DV2)
		fmt.Fprintf(out, "total_delta_v: %.6f km/s\n", t.TotalDeltaV)
		fmt.Fprintf(out, "transfer_time: %.3f s\n", t.TransferTime)
		return nil
	},
}

func init() {
	transferCmd.Flags().Float64("r1", 0, "initial circular orbit radius in km (required)")
	transferCmd.Flags().Float64("r2", 0, "target circular orbit radius in km (required)")
	transferCmd.Flags().Float64("mu", orbit.EarthMu, "gravitational parameter in km^3/s^2")
	_ = transferCmd.MarkFlagRequired("r1")
	_ = transferCmd.MarkFlagRequired("r2")

	rootCmd.AddCommand(transferCmd)
}
