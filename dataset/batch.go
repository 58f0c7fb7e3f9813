package dataset

import (
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
	"github.com/YuminosukeSato/zeroshoteval/pkg/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Batch is a random draw from train-seen. Labels are the original class ids
// and Auxiliary holds the class auxiliary row of every label.
type Batch struct {
	Indices   []int
	Labels    []int
	Features  *mat.Dense
	Auxiliary *mat.Dense
}

// Len is the number of samples in the batch.
func (b *Batch) Len() int {
	return len(b.Labels)
}

// NextBatch draws min(n, NTrain()) distinct train-seen samples uniformly
// without replacement.
func (l *Loader) NextBatch(n int) (*Batch, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Loader.NextBatch", "batch size must be positive")
	}
	train := l.splits[TrainSeen]
	idxs := l.drawIndices(n)
	labels := pick(train.Labels, idxs)
	return &Batch{
		Indices:   idxs,
		Labels:    labels,
		Features:  gatherRows(train.Features, idxs),
		Auxiliary: gatherRows(l.auxData, labels),
	}, nil
}

// drawIndices samples min(n, NTrain()) distinct train-seen row indices.
func (l *Loader) drawIndices(n int) []int {
	total := l.splits[TrainSeen].Len()
	if n > total {
		n = total
	}
	idxs := make([]int, n)
	sampleuv.WithoutReplacement(idxs, total, l.src)
	l.logger.Debug("batch drawn", log.OperationKey, log.OperationNextBatch, log.BatchSizeKey, n)
	return idxs
}

// NextBatchTensors draws a batch like NextBatch and gathers its rows from
// the train-seen tensors already placed on the configured device. The split
// is placed on first use.
func (l *Loader) NextBatchTensors(n int) (*Placement, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Loader.NextBatchTensors", "batch size must be positive")
	}
	train, err := l.Placed(TrainSeen)
	if err != nil {
		return nil, err
	}

	idxs := l.drawIndices(n)
	features, err := l.device.Gather(train.Features, idxs)
	if err != nil {
		return nil, errors.Wrapf(err, "gather features on %s", l.device.Name())
	}
	aux, err := l.device.Gather(train.Auxiliary, idxs)
	if err != nil {
		return nil, errors.Wrapf(err, "gather auxiliary data on %s", l.device.Name())
	}
	return &Placement{
		Device:    l.device.Name(),
		Indices:   idxs,
		Labels:    pick(train.Labels, idxs),
		Features:  features,
		Auxiliary: aux,
	}, nil
}
