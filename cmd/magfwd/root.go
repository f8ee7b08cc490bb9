package main

import (
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/config"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// app carries state shared by every subcommand once PersistentPreRunE has
// run.
type app struct {
	configPath string
	logLevel   string

	cfg config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.Noop()}

	root := &cobra.Command{
		Use:   "magfwd",
		Short: "Magnetic anomaly forward models for buried cylinders and spheres",
		Long: `magfwd computes the magnetic anomaly of a uniformly magnetised body
buried below a flat observation surface.

  cylinder  profile of an infinite horizontal cylinder
  sphere    2-D map of a sphere
  sweep     sphere maps over a range of inclinations, one JSON line per frame
  serve     gRPC ForwardModelService with Prometheus metrics`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newCylinderCmd(a),
		newSphereCmd(a),
		newSweepCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: logOut,
	})
	return nil
}

// writeJSON writes msg as one line of JSON.
func writeJSON(w io.Writer, msg proto.Message) error {
	data, err := protojson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func statsStruct(s core.ComponentStats) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"min":      structpb.NewNumberValue(s.Min),
		"max":      structpb.NewNumberValue(s.Max),
		"arg_min":  structpb.NewNumberValue(float64(s.ArgMin)),
		"arg_max":  structpb.NewNumberValue(float64(s.ArgMax)),
		"peak_abs": structpb.NewNumberValue(s.PeakAbs),
	}})
}

func statsFields(component string, s core.ComponentStats) []logging.Field {
	return []logging.Field{
		logging.Float64(component+"_min", s.Min),
		logging.Float64(component+"_max", s.Max),
		logging.Float64(component+"_peak_abs", s.PeakAbs),
	}
}
