package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/zeroshoteval/dataset"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := globalConfig.SynthOut
		if root == "" {
			var err error
			if root, err = dataRoot(); err != nil {
				return err
			}
		}

		side, err := parseModalities(globalConfig.SideModalities)
		if err != nil {
			return err
		}

		toy := dataset.ToyBenchmark{
			Name:               globalConfig.Dataset,
			TrainvalPerClass:   globalConfig.PerClass,
			TestSeenPerClass:   max(1, globalConfig.PerClass/4),
			TestUnseenPerClass: max(1, globalConfig.PerClass/2),
			FeatureDim:         globalConfig.FeatureDim,
			AttributeDim:       globalConfig.AttributeDim,
			SideModalities:     side,
			SideGob:            globalConfig.SideGob,
			Compress:           globalConfig.Compress,
			Seed:               globalConfig.Seed,
		}
		for c := 0; c < globalConfig.SeenClasses; c++ {
			toy.SeenClasses = append(toy.SeenClasses, c)
		}
		for c := 0; c < globalConfig.UnseenClasses; c++ {
			toy.UnseenClasses = append(toy.UnseenClasses, globalConfig.SeenClasses+c)
		}

		if err := dataset.WriteToyBenchmark(root, toy); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s benchmark to %s\n", toy.Name, root)
		return nil
	},
}

func initSynth() {
	rootCmd.AddCommand(synthCmd)
	synthCmd.PersistentFlags().StringVarP(&globalConfig.SynthOut,
		"out", "o", "", "data root to write to (default: --data-root)")
	synthCmd.PersistentFlags().IntVar(&globalConfig.SeenClasses,
		"seen", 2, "number of seen classes")
	synthCmd.PersistentFlags().IntVar(&globalConfig.UnseenClasses,
		"unseen", 1, "number of unseen classes")
	synthCmd.PersistentFlags().IntVar(&globalConfig.PerClass,
		"per-class", 2, "trainval samples per seen class")
	synthCmd.PersistentFlags().IntVar(&globalConfig.FeatureDim,
		"feature-dim", 3, "feature dimension")
	synthCmd.PersistentFlags().IntVar(&globalConfig.AttributeDim,
		"att-dim", 4, "attribute dimension")
	synthCmd.PersistentFlags().StringSliceVar(&globalConfig.SideModalities,
		"side", nil, "side file modalities as name:dim, e.g. sentences:1024")
	synthCmd.PersistentFlags().BoolVar(&globalConfig.SideGob,
		"gob", false, "write the side file as gob")
	synthCmd.PersistentFlags().BoolVar(&globalConfig.Compress,
		"compress", true, "zlib-compress MAT variables")
}

func parseModalities(specs []string) (map[string]int, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(specs))
	for _, s := range specs {
		name, dim, ok := strings.Cut(s, ":")
		if !ok {
			return nil, errors.NewValueError("synth", "side modality "+s+" is not name:dim")
		}
		d, err := strconv.Atoi(dim)
		if err != nil {
			return nil, errors.Wrapf(err, "side modality %s", s)
		}
		out[name] = d
	}
	return out, nil
}
