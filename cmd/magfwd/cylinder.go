package main

import (
	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/engine"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/forwardsvc"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/spf13/cobra"
)

func newCylinderCmd(a *app) *cobra.Command {
	var effInc float64

	cmd := &cobra.Command{
		Use:   "cylinder",
		Short: "Evaluate the horizontal-cylinder profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("effective-inclination-deg") {
				a.cfg.Body.EffectiveInclinationDeg = effInc
			}
			p, err := a.cfg.Parameters()
			if err != nil {
				return err
			}
			x, err := a.cfg.ProfileX()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			field, err := engine.New(a.log).Cylinder(ctx, p, x)
			if err != nil {
				return err
			}

			fields := []logging.Field{logging.Int("points", field.Len())}
			za := core.Summarize(field.Za)
			if za.ArgMax >= 0 {
				fields = append(fields, logging.Float64("z_a_peak_x", field.X[za.ArgMax]))
			}
			fields = append(fields, statsFields("z_a", za)...)
			fields = append(fields, statsFields("h_a", core.Summarize(field.Ha))...)
			fields = append(fields, statsFields("delta_t", core.Summarize(field.DeltaT))...)
			a.log.Info(ctx, "cylinder summary", fields...)

			return writeJSON(cmd.OutOrStdout(), forwardsvc.CylinderFieldToStruct(field))
		},
	}
	cmd.Flags().Float64Var(&effInc, "effective-inclination-deg", 0, "effective inclination i_s in degrees (default from config)")
	return cmd
}
