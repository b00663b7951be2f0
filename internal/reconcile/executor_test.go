package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

type fakeSink struct {
	insertBatches [][]*contracts.Observation
	updateBatches [][]*contracts.Observation
	failInsertAt  int // fail the n-th insert batch (1-based), 0 disables
}

func (s *fakeSink) InsertBatch(_ context.Context, recs []*contracts.Observation) error {
	s.insertBatches = append(s.insertBatches, recs)
	if s.failInsertAt > 0 && len(s.insertBatches) == s.failInsertAt {
		return errors.New("connection reset")
	}
	return nil
}

func (s *fakeSink) UpdateBatch(_ context.Context, recs []*contracts.Observation) error {
	s.updateBatches = append(s.updateBatches, recs)
	return nil
}

func makeObs(n int) []*contracts.Observation {
	out := make([]*contracts.Observation, n)
	for i := range out {
		out[i] = obs(0, day("2020-03-31").AddDate(0, 3*i, 0).Format(contracts.DateFormat), contracts.Float(float64(i)))
	}
	return out
}

func TestExecutor_SplitsIntoBatches(t *testing.T) {
	sink := &fakeSink{}
	exec := NewExecutor[*contracts.Observation](sink, logger.NewNop()).WithBatchSizes(3, 2)

	res, err := exec.Apply(context.Background(), makeObs(7), makeObs(3))
	require.NoError(t, err)

	assert.Equal(t, Result{Inserted: 7, Updated: 3}, res)
	require.Len(t, sink.insertBatches, 3)
	assert.Len(t, sink.insertBatches[0], 3)
	assert.Len(t, sink.insertBatches[2], 1)
	require.Len(t, sink.updateBatches, 2)
	assert.Len(t, sink.updateBatches[1], 1)
}

func TestExecutor_PartialFailureReportsApplied(t *testing.T) {
	sink := &fakeSink{failInsertAt: 2}
	exec := NewExecutor[*contracts.Observation](sink, logger.NewNop()).WithBatchSizes(2, 2)

	res, err := exec.Apply(context.Background(), makeObs(5), nil)
	require.Error(t, err)

	// First batch committed durably before the failure.
	assert.Equal(t, 2, res.Inserted)
	assert.Zero(t, res.Updated)
}

func TestExecutor_EmptyInputIsNoop(t *testing.T) {
	sink := &fakeSink{}
	exec := NewExecutor[*contracts.Observation](sink, logger.NewNop())

	res, err := exec.Apply(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, res.Updated)
	assert.Empty(t, sink.insertBatches)
	assert.Empty(t, sink.updateBatches)
}
