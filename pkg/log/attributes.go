// Package log defines standard attribute keys for dataset loading operations.
//
// Using these keys keeps log lines from the loader, the scaler and the CLI
// filterable by the same names. Keys follow a hierarchical convention
// ("dataset.name", "data.samples").

package log

// Dataset and component context.
const (
	// DatasetKey names the benchmark being loaded.
	// Examples: "cub", "sun", "awa1", "awa2"
	DatasetKey = "dataset.name"

	// AuxSourceKey names the auxiliary modality.
	// Examples: "attributes", "sentences"
	AuxSourceKey = "dataset.aux_source"

	// DeviceKey names the compute device tensors are placed on.
	DeviceKey = "dataset.device"

	// PathKey records a resolved file or directory path.
	PathKey = "io.path"

	// ComponentKey identifies which package is logging.
	// Examples: "dataset", "preprocessing", "matfile"
	ComponentKey = "zsl.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "zsl.operation"

	// ModelNameKey identifies a transformer such as "MinMaxScaler".
	ModelNameKey = "model.name"
)

// Data shape.
const (
	// SplitKey names a split: train_seen, train_unseen, test_seen, test_unseen.
	SplitKey = "split.name"

	// SamplesKey is the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct classes.
	ClassesKey = "data.classes"

	// AuxDimKey is the auxiliary vector dimension.
	AuxDimKey = "data.aux_dim"

	// BatchSizeKey is the requested mini-batch size.
	BatchSizeKey = "data.batch_size"

	// VariableKey names a variable inside a container file.
	VariableKey = "data.variable"
)

// Performance and reproducibility.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// RandomSeedKey records the sampler seed.
	RandomSeedKey = "config.random_seed"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationLoad         = "load"
	OperationSplit        = "split"
	OperationFitTransform = "fit_transform"
	OperationNextBatch    = "next_batch"
	OperationPlace        = "place"

	ErrorConfiguration   = "CONFIGURATION"
	ErrorDataUnavailable = "DATA_UNAVAILABLE"
	ErrorShapeMismatch   = "SHAPE_MISMATCH"
	ErrorIO              = "IO"
)
