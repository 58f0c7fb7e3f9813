package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/zeroshoteval/dataset"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
)

// Config holds every flag value.
type Config struct {
	DataRoot  string
	LogLevel  string
	LogFormat string

	Dataset string
	Aux     string
	Device  string
	Seed    uint64

	BatchSize int
	Tensors   bool

	SynthOut       string
	PlotOut        string
	SeenClasses    int
	UnseenClasses  int
	PerClass       int
	FeatureDim     int
	AttributeDim   int
	SideModalities []string
	SideGob        bool
	Compress       bool
}

var globalConfig Config

func init() {
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}

	rootCmd.PersistentFlags().StringVar(&globalConfig.DataRoot,
		"data-root", os.Getenv("ZSL_DATA_ROOT"), "directory holding one subdirectory per benchmark (default: ./data, or ../data from a model directory)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.LogLevel,
		"log-level", logLevel, "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&globalConfig.LogFormat,
		"log-format", "console", "console, json (zerolog) or slog")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.Dataset,
		"dataset", "d", "cub", "benchmark: "+strings.Join(dataset.Benchmarks(), ", "))
	rootCmd.PersistentFlags().StringVarP(&globalConfig.Aux,
		"aux", "a", dataset.AuxAttributes, "auxiliary source: attributes or a side file modality")
	rootCmd.PersistentFlags().StringVar(&globalConfig.Device,
		"device", dataset.DeviceCPU, "tensor device: "+strings.Join(dataset.Devices(), ", "))
	rootCmd.PersistentFlags().Uint64Var(&globalConfig.Seed,
		"seed", 0, "batch sampler seed (default: random)")

	initInspect()
	initBatch()
	initSynth()
	initPlot()
}

var rootCmd = &cobra.Command{
	Use:           "zsl",
	Short:         "Zero-shot learning benchmark tools",
	Long:          `Load, inspect and sample the CUB, SUN, AWA1 and AWA2 zero-shot learning benchmarks`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(globalConfig.LogFormat, globalConfig.LogLevel)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(format, level string) error {
	switch format {
	case "slog":
		return log.SetupLogger(level)
	case "console", "json":
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		if format == "console" {
			log.SetProvider(log.NewZerologProvider(zerolog.ConsoleWriter{Out: os.Stderr}, lvl))
		} else {
			log.SetProvider(log.NewZerologProvider(os.Stderr, lvl))
		}
		return nil
	default:
		return errors.NewConfigurationError("log format", format, []string{"console", "json", "slog"})
	}
}

func dataRoot() (string, error) {
	if globalConfig.DataRoot != "" {
		return globalConfig.DataRoot, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolve working directory")
	}
	return dataset.DefaultDataRoot(cwd), nil
}

func newLoader(cmd *cobra.Command) (*dataset.Loader, error) {
	root, err := dataRoot()
	if err != nil {
		return nil, err
	}
	var opts []dataset.Option
	if cmd.Flags().Changed("seed") {
		opts = append(opts, dataset.WithSeed(globalConfig.Seed))
	}
	return dataset.New(dataset.Config{
		Name:            globalConfig.Dataset,
		AuxiliarySource: globalConfig.Aux,
		Device:          globalConfig.Device,
		DataRoot:        root,
	}, opts...)
}
