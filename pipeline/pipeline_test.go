package pipeline

import (
	"context"
	"testing"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorgonia.org/tensor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubExecutor returns a fixed [1, rows, cols] buffer.
type stubExecutor struct {
	rows, cols int
	data       []float32
	inputs     int
	inputLen   int
	err        error
	closed     bool
}

var _ inference.Executor = (*stubExecutor)(nil)

func (s *stubExecutor) Infer(ctx context.Context, input []float32) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	s.inputs++
	s.inputLen = len(input)
	backing := append([]float32(nil), s.data...)
	return tensor.New(tensor.WithShape(1, s.rows, s.cols), tensor.WithBacking(backing)), nil
}

func (s *stubExecutor) Close() error {
	s.closed = true
	return nil
}

type candidate struct {
	cx, cy, w, h, score float32
}

// newStub lays candidates out column by column. Every keypoint sits at the
// box centre with visibility 0.9.
func newStub(c pose.Contract, candidates []candidate) *stubExecutor {
	rows, cols := c.Rows(), len(candidates)
	data := make([]float32, rows*cols)
	set := func(row, col int, v float32) { data[row*cols+col] = v }

	for i, cand := range candidates {
		set(c.CX, i, cand.cx)
		set(c.CY, i, cand.cy)
		set(c.W, i, cand.w)
		set(c.H, i, cand.h)
		set(c.Score, i, cand.score)
		for j := 0; j < c.Keypoints; j++ {
			set(c.KeypointRow(j, 0), i, cand.cx)
			set(c.KeypointRow(j, 1), i, cand.cy)
			set(c.KeypointRow(j, 2), i, 0.9)
		}
	}
	return &stubExecutor{rows: rows, cols: cols, data: data}
}

func TestRun_EndToEnd(t *testing.T) {
	contract := pose.DefaultContract()
	stub := newStub(contract, []candidate{
		{cx: 100, cy: 100, w: 40, h: 80, score: 0.9},
		{cx: 102, cy: 101, w: 40, h: 80, score: 0.8}, // overlaps the first
		{cx: 300, cy: 200, w: 50, h: 100, score: 0.7},
		{cx: 500, cy: 300, w: 30, h: 60, score: 0.5},
		{cx: 400, cy: 400, w: 60, h: 60, score: 0.2}, // below confidence
	})

	p, err := New(stub, DefaultOptions())
	require.NoError(t, err)

	// 640x1280 into 640x640 halves the image, so coordinates double.
	img := images.NewRaster(640, 1280)
	img.Fill(30, 60, 90)

	result, err := p.Run(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.inputs)
	assert.Equal(t, 3*640*640, stub.inputLen)
	assert.InDelta(t, 2.0, result.InverseScale, 1e-6)

	require.Len(t, result.Detections, 4)
	assert.Equal(t, []int{0, 2, 3}, result.Kept)

	survivors := result.Survivors()
	require.Len(t, survivors, 3)
	assert.Equal(t, images.RectFromXYWH(160, 120, 80, 160), survivors[0].Box)
	assert.Equal(t, images.RectFromXYWH(550, 300, 100, 200), survivors[1].Box)
	assert.Equal(t, images.RectFromXYWH(970, 540, 60, 120), survivors[2].Box)
	assert.InDelta(t, 0.7, survivors[1].Confidence, 1e-6)

	kp := survivors[2].Keypoints[16]
	assert.InDelta(t, 1000, kp.X, 1e-3)
	assert.InDelta(t, 600, kp.Y, 1e-3)
	assert.InDelta(t, 0.9, kp.Visibility, 1e-6)

	require.Len(t, result.Stages, 4)
	names := make([]string, len(result.Stages))
	for i, st := range result.Stages {
		names[i] = st.Name
	}
	assert.Equal(t, []string{StagePreprocess, StageInference, StageDecode, StageSuppress}, names)
	assert.GreaterOrEqual(t, result.Elapsed, result.Stages[1].Duration)
}

func TestRun_Repeatable(t *testing.T) {
	stub := newStub(pose.DefaultContract(), []candidate{{cx: 10, cy: 10, w: 4, h: 4, score: 0.95}})
	p, err := New(stub, DefaultOptions())
	require.NoError(t, err)

	img := images.NewRaster(320, 320)
	for i := 0; i < 2; i++ {
		result, err := p.Run(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, result.Kept)
		assert.Len(t, result.Stages, 4, "timings reset between runs")
	}
	assert.Equal(t, 2, stub.inputs)
}

func TestRun_NoDetections(t *testing.T) {
	stub := newStub(pose.DefaultContract(), []candidate{{cx: 10, cy: 10, w: 4, h: 4, score: 0.1}})
	p, err := New(stub, DefaultOptions())
	require.NoError(t, err)

	result, err := p.Run(context.Background(), images.NewRaster(64, 64))
	require.NoError(t, err)
	assert.Empty(t, result.Detections)
	assert.Empty(t, result.Kept)
	assert.NotNil(t, result.Kept)
}

func TestRun_Errors(t *testing.T) {
	contract := pose.DefaultContract()

	t.Run("empty image", func(t *testing.T) {
		stub := newStub(contract, nil)
		p, err := New(stub, DefaultOptions())
		require.NoError(t, err)

		_, err = p.Run(context.Background(), images.Raster{})
		assert.ErrorIs(t, err, images.ErrImageLoad)
		assert.Zero(t, stub.inputs)
	})

	t.Run("executor failure", func(t *testing.T) {
		stub := newStub(contract, nil)
		stub.err = errors.Wrap(inference.ErrModelLoad, "boom")
		p, err := New(stub, DefaultOptions())
		require.NoError(t, err)

		_, err = p.Run(context.Background(), images.NewRaster(8, 8))
		assert.ErrorIs(t, err, inference.ErrModelLoad)
	})

	t.Run("cancelled", func(t *testing.T) {
		p, err := New(newStub(contract, nil), DefaultOptions())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = p.Run(ctx, images.NewRaster(8, 8))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("wrong layout", func(t *testing.T) {
		stub := &stubExecutor{rows: 55, cols: 1, data: make([]float32, 55)}
		p, err := New(stub, DefaultOptions())
		require.NoError(t, err)

		_, err = p.Run(context.Background(), images.NewRaster(8, 8))
		assert.ErrorIs(t, err, pose.ErrShape)
	})
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.InputWidth = 0
	_, err = New(&stubExecutor{}, opts)
	assert.ErrorIs(t, err, pose.ErrShape)

	opts = DefaultOptions()
	opts.Contract.Keypoints = 0
	_, err = New(&stubExecutor{}, opts)
	assert.ErrorIs(t, err, pose.ErrShape)
}
