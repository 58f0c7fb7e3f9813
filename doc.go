// Package zeroshoteval loads zero-shot learning benchmarks for Go trainers.
//
// The module reads the precomputed ResNet-101 features, split protocol and
// class auxiliary data published for the CUB, SUN, AWA1 and AWA2 benchmarks,
// builds seen and unseen train and test splits, min-max scales the features
// of every split independently and serves random training batches.
//
// # Packages
//
//   - dataset: the Loader, batch sampling, device placement and synthetic benchmarks
//   - pkg/matfile: MAT file reader (level 5, v7.3 with the hdf5 build tag) and writer
//   - preprocessing: MinMaxScaler
//   - core/model, core/parallel: transformer interfaces, gob persistence and row parallelism
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//   - cmd/zsl: command line tool
//
// # Quick Start
//
//	loader, err := dataset.New(dataset.Config{
//	    Name:            "cub",
//	    AuxiliarySource: dataset.AuxAttributes,
//	    DataRoot:        "/data/zsl",
//	}, dataset.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	batch, err := loader.NextBatch(64)
//
// Errors returned by the loader carry stack traces and match the types in
// pkg/errors:
//
//	var unavailable *errors.DataUnavailableError
//	if errors.As(err, &unavailable) {
//	    // the requested modality does not exist for this benchmark
//	}
package zeroshoteval
