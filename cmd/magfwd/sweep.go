package main

import (
	"io"
	"time"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/engine"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/forwardsvc"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/signalsfoundry/magnetic-anomaly-sim/timectrl"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		startDeg, endDeg int
		workers          int
		interval         time.Duration
		summary          bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate the sphere over a range of inclinations, one JSON line per frame",
		Long: `sweep evaluates the sphere anomaly at every integer inclination in
[start-deg, end-deg] and writes one JSON object per line in ascending angle
order. With --workers 1 frames are computed and written one at a time;
otherwise they are computed concurrently and written once all succeed.
A non-zero --interval plays the frames back at that pace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("start-deg") {
				a.cfg.Sweep.StartDeg = startDeg
			}
			if flags.Changed("end-deg") {
				a.cfg.Sweep.EndDeg = endDeg
			}
			if flags.Changed("workers") {
				a.cfg.Sweep.Workers = workers
			}
			if flags.Changed("interval") {
				a.cfg.Sweep.Interval = interval
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			p, err := a.cfg.Parameters()
			if err != nil {
				return err
			}
			X, Y, err := a.cfg.MeshFor(p)
			if err != nil {
				return err
			}
			angles, err := a.cfg.SweepAngles()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			eng := engine.New(a.log, engine.WithSweepWorkers(a.cfg.Sweep.Workers))
			pacer := timectrl.NewPacer(a.cfg.Sweep.Interval, timectrl.RealTime, nil)
			pacer.AddListener(func(frame int, _ time.Time) {
				a.log.Debug(ctx, "frame released", logging.Int("frame", frame))
			})
			write := timectrl.Paced(ctx, pacer, func(frame core.SweepFrame) error {
				return writeFrame(out, frame, summary)
			})

			if a.cfg.Sweep.Workers == 1 {
				return eng.Sweep(ctx, p, X, Y, angles, write)
			}
			frames, err := eng.SweepParallel(ctx, p, X, Y, angles)
			if err != nil {
				return err
			}
			for _, frame := range frames {
				if err := write(frame); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&startDeg, "start-deg", 0, "first inclination in degrees (default from config)")
	cmd.Flags().IntVar(&endDeg, "end-deg", 0, "last inclination in degrees (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines; 1 streams sequentially, 0 uses GOMAXPROCS")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between written frames, e.g. 50ms (default from config)")
	cmd.Flags().BoolVar(&summary, "summary", false, "write per-component statistics instead of full fields")
	return cmd
}

func writeFrame(w io.Writer, frame core.SweepFrame, summary bool) error {
	if !summary {
		return writeJSON(w, forwardsvc.FrameToStruct(frame))
	}
	f := frame.Field
	return writeJSON(w, &structpb.Struct{Fields: map[string]*structpb.Value{
		"angle_deg": structpb.NewNumberValue(float64(frame.AngleDeg)),
		"h_ax":      statsStruct(core.Summarize(f.Hax.Data)),
		"h_ay":      statsStruct(core.Summarize(f.Hay.Data)),
		"z_a":       statsStruct(core.Summarize(f.Za.Data)),
		"delta_t":   statsStruct(core.Summarize(f.DeltaT.Data)),
	}})
}
