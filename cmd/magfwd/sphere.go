package main

import (
	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/engine"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/forwardsvc"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"github.com/spf13/cobra"
)

func newSphereCmd(a *app) *cobra.Command {
	var incDeg, azDeg float64

	cmd := &cobra.Command{
		Use:   "sphere",
		Short: "Evaluate the sphere anomaly over a square mesh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("inclination-deg") {
				a.cfg.Body.InclinationDeg = incDeg
			}
			if cmd.Flags().Changed("azimuth-deg") {
				a.cfg.Body.AzimuthDeg = azDeg
			}
			p, err := a.cfg.Parameters()
			if err != nil {
				return err
			}
			X, Y, err := a.cfg.MeshFor(p)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			field, err := engine.New(a.log).Sphere(ctx, p, p.Inclination(), p.Azimuth(), X, Y)
			if err != nil {
				return err
			}

			dt := core.Summarize(field.DeltaT.Data)
			fields := []logging.Field{
				logging.Int("rows", field.Rows()),
				logging.Int("cols", field.Cols()),
				logging.Float64("inclination_deg", model.Degrees(p.Inclination())),
			}
			if dt.ArgMax >= 0 {
				i, j := dt.ArgMax/field.Cols(), dt.ArgMax%field.Cols()
				fields = append(fields,
					logging.Float64("delta_t_peak_x", field.X.At(i, j)),
					logging.Float64("delta_t_peak_y", field.Y.At(i, j)),
					logging.Float64("peak_anomaly_norm", field.VectorAt(i, j).Norm()),
				)
			}
			fields = append(fields, statsFields("delta_t", dt)...)
			fields = append(fields, statsFields("z_a", core.Summarize(field.Za.Data))...)
			a.log.Info(ctx, "sphere summary", fields...)

			return writeJSON(cmd.OutOrStdout(), forwardsvc.SphereFieldToStruct(field))
		},
	}
	cmd.Flags().Float64Var(&incDeg, "inclination-deg", 0, "magnetisation inclination I in degrees (default from config)")
	cmd.Flags().Float64Var(&azDeg, "azimuth-deg", 0, "profile azimuth A' in degrees (default from config)")
	return cmd
}
