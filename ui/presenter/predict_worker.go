package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/annotator-go/domain/detect"
)

type predictTask struct {
	seq       uint64
	ctx       context.Context
	path      string
	threshold float64
}

type predictResult struct {
	seq       uint64
	path      string
	threshold float64
	preds     []detect.Prediction
	err       error
	duration  time.Duration
}

// PredictWorker runs detector requests off the UI goroutine. At most one
// request is in flight: dispatching a new one cancels the previous, and the
// caller discards results whose sequence number is not the latest.
// Dispatch, Poll and CancelPending must be called from the UI goroutine.
type PredictWorker struct {
	detector detect.Detector
	logger   *slog.Logger

	workerOnce sync.Once
	workCh     chan predictTask
	resultCh   chan predictResult

	seq    uint64
	cancel context.CancelFunc
	closed bool
}

// NewPredictWorker returns a worker for d; a nil detector predicts nothing.
func NewPredictWorker(d detect.Detector, logger *slog.Logger) *PredictWorker {
	if d == nil {
		d = detect.None{}
	}
	return &PredictWorker{
		detector: d,
		logger:   logger,
		workCh:   make(chan predictTask, 1),
		resultCh: make(chan predictResult, 1),
	}
}

// Dispatch queues a prediction for path and returns its sequence number.
func (w *PredictWorker) Dispatch(path string, threshold float64) uint64 {
	if w.closed {
		return 0
	}
	w.ensureWorker()
	w.CancelPending()
	w.seq++
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	task := predictTask{seq: w.seq, ctx: ctx, path: path, threshold: threshold}
	select {
	case w.workCh <- task:
	default:
		select {
		case <-w.workCh:
		default:
		}
		select {
		case w.workCh <- task:
		default:
		}
	}
	return w.seq
}

// Latest is the sequence number of the most recent dispatch.
func (w *PredictWorker) Latest() uint64 { return w.seq }

// CancelPending cancels the in-flight request, if any.
func (w *PredictWorker) CancelPending() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// Poll returns a finished result if one is waiting.
func (w *PredictWorker) Poll() (predictResult, bool) {
	select {
	case res := <-w.resultCh:
		return res, true
	default:
		return predictResult{}, false
	}
}

// Close cancels pending work and stops the worker goroutine.
func (w *PredictWorker) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.CancelPending()
	close(w.workCh)
}

func (w *PredictWorker) ensureWorker() {
	w.workerOnce.Do(func() {
		go w.run()
	})
}

func (w *PredictWorker) run() {
	for task := range w.workCh {
		res := w.execute(task)
		select {
		case w.resultCh <- res:
		default:
			select {
			case <-w.resultCh:
			default:
			}
			select {
			case w.resultCh <- res:
			default:
			}
		}
	}
}

func (w *PredictWorker) execute(task predictTask) (res predictResult) {
	res = predictResult{seq: task.seq, path: task.path, threshold: task.threshold}
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("%w: detector panic: %v", detect.ErrInferenceFailure, r)
		}
	}()
	if err := task.ctx.Err(); err != nil {
		res.err = err
		return res
	}
	start := time.Now()
	preds, err := w.detector.Predict(task.ctx, task.path, task.threshold)
	res.duration = time.Since(start)
	if err != nil {
		res.err = err
		return res
	}
	res.preds = preds
	if w.logger != nil {
		w.logger.Debug("prediction finished", "seq", task.seq, "image", task.path, "count", len(preds), "took", res.duration)
	}
	return res
}
