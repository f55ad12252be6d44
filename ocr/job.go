package ocr

import (
	"context"
	"image"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/scanocr/observability"
)

const eventBuffer = 32

// JobOption configures a Job.
type JobOption func(*Job)

// WithLogger sets the job logger.
func WithLogger(l observability.Logger) JobOption {
	return func(j *Job) { j.logger = observability.OrNop(l) }
}

// WithTracer sets the job tracer.
func WithTracer(t observability.Tracer) JobOption {
	return func(j *Job) {
		if t != nil {
			j.tracer = t
		}
	}
}

// WithProgress subscribes ch to status changes. Sends never block: a full
// channel drops the update, and Status always reports the latest state.
func WithProgress(ch chan<- JobStatus) JobOption {
	return func(j *Job) { j.progress = ch }
}

// WithEngineOptions applies opts to every engine request the job makes.
func WithEngineOptions(opts ...EngineOption) JobOption {
	return func(j *Job) { j.engineOpts = append(j.engineOpts, opts...) }
}

// Job runs one recognition at a time against engines from a factory. A Job is
// reusable: once a run reaches a terminal state the next Start may begin.
type Job struct {
	factory    EngineFactory
	logger     observability.Logger
	tracer     observability.Tracer
	progress   chan<- JobStatus
	engineOpts []EngineOption

	mu     sync.Mutex
	status JobStatus
	run    uint64
}

// NewJob returns an idle job. A nil factory uses DefaultFactory().
func NewJob(factory EngineFactory, opts ...JobOption) *Job {
	if factory == nil {
		factory = DefaultFactory()
	}
	j := &Job{
		factory: factory,
		logger:  observability.NopLogger{},
		tracer:  observability.NopTracer(),
		status:  JobStatus{State: JobStateIdle},
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Status returns a snapshot of the current status.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// ID returns the identifier of the current or most recent run.
func (j *Job) ID() string {
	return j.Status().JobID
}

// Active reports whether a run currently holds an engine.
func (j *Job) Active() bool {
	return j.Status().State.Active()
}

// Start recognizes buf with an engine for language and blocks until the run
// finishes. It is rejected with a *StateError while another run is active.
// Engine faults are returned as *EngineInitError or *RecognitionError after
// the engine has been terminated; the job is then failed and may be restarted.
func (j *Job) Start(ctx context.Context, buf *image.NRGBA, language string) (Result, error) {
	if language == "" {
		language = DefaultLanguage
	}
	j.mu.Lock()
	if j.status.State.Active() {
		state := j.status.State
		j.mu.Unlock()
		return Result{}, &StateError{Op: "start", State: state, Err: ErrJobActive}
	}
	j.run++
	run := j.run
	id := uuid.NewString()
	j.setLocked(JobStatus{JobID: id, State: JobStateInitializing})
	j.mu.Unlock()

	log := j.logger.With(observability.String("job_id", id), observability.String("language", language))
	ctx, span := j.tracer.StartSpan(ctx, observability.SpanRecognize)
	defer span.Finish()
	span.SetTag("language", language)
	span.SetTag("engine", j.factory.Name())

	log.Info("ocr job started", observability.String("engine", j.factory.Name()))
	started := time.Now()

	req := EngineRequest{Language: language}
	for _, opt := range j.engineOpts {
		opt(&req)
	}

	rec, err := j.execute(ctx, run, buf, req, log)
	elapsed := time.Since(started)

	if err != nil {
		span.SetError(err)
		if !j.finish(run, JobStatus{JobID: id, State: JobStateFailed, Message: FailureReason(err)}) {
			log.Warn("discarded ocr job failed", observability.Error("error", err))
			return Result{}, ErrDiscarded
		}
		log.Error("ocr job failed", observability.Error("error", err), observability.Duration("took", elapsed))
		return Result{}, err
	}

	res := Result{
		JobID:      id,
		Language:   language,
		Text:       rec.Text,
		Confidence: clampPercent(rec.Confidence),
		Words:      rec.Words,
		Duration:   elapsed,
	}
	if !j.finish(run, JobStatus{JobID: id, State: JobStateSucceeded, Progress: 100}) {
		log.Info("discarded ocr job completed")
		return Result{}, ErrDiscarded
	}
	span.SetTag(observability.MetricWordCount, len(res.Words))
	log.Info("ocr job succeeded",
		observability.Int("words", len(res.Words)),
		observability.Float("confidence", res.Confidence),
		observability.Duration("took", elapsed),
	)
	return res, nil
}

// Discard abandons the current run. An in-flight run still terminates its
// engine but its result is dropped. The job moves to terminated and may be
// started again immediately.
func (j *Job) Discard() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.State.Active() {
		j.logger.Info("ocr job discarded", observability.String("job_id", j.status.JobID))
	}
	j.run++
	j.setLocked(JobStatus{JobID: j.status.JobID, State: JobStateTerminated})
}

func (j *Job) execute(ctx context.Context, run uint64, buf *image.NRGBA, req EngineRequest, log observability.Logger) (Recognition, error) {
	if err := ValidateBuffer(buf); err != nil {
		return Recognition{}, &RecognitionError{Err: err}
	}

	events := make(chan ProgressEvent, eventBuffer)
	forwarded := make(chan struct{})
	go j.forward(run, events, forwarded)
	defer func() {
		close(events)
		<-forwarded
	}()

	initStart := time.Now()
	handle, err := createEngine(ctx, j.factory, req, events)
	if err != nil {
		if handle != nil {
			j.terminate(handle, log)
		}
		return Recognition{}, &EngineInitError{Language: req.Language, Err: err}
	}
	defer j.terminate(handle, log)
	log.Debug("ocr engine ready", observability.Duration(observability.MetricEngineInitTime, time.Since(initStart)))

	j.update(run, func(s *JobStatus) {
		s.State = JobStateRecognizing
		s.Message = StatusRecognizing
	})

	recStart := time.Now()
	rec, err := recognize(ctx, handle, buf)
	if err != nil {
		return Recognition{}, &RecognitionError{Err: err}
	}
	log.Debug("ocr recognition finished", observability.Duration(observability.MetricRecognizeTime, time.Since(recStart)))
	return rec, nil
}

func (j *Job) terminate(h EngineHandle, log observability.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("engine terminate panicked", observability.Error("error", panicError{r}))
		}
	}()
	if err := h.Terminate(); err != nil {
		log.Warn("engine terminate failed", observability.Error("error", err))
	}
}

func (j *Job) forward(run uint64, events <-chan ProgressEvent, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		j.update(run, func(s *JobStatus) {
			if !s.State.Active() {
				return
			}
			s.Message = ev.Status
			if ev.Status == StatusRecognizing {
				p := math.Round(clampPercent(ev.Progress * 100))
				if p > s.Progress {
					s.Progress = p
				}
			}
		})
	}
}

// update mutates the status of run if it is still the current run.
func (j *Job) update(run uint64, fn func(*JobStatus)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if run != j.run {
		return
	}
	s := j.status
	fn(&s)
	if s != j.status {
		j.setLocked(s)
	}
}

// finish records the terminal status of run; it reports false when the run
// was discarded.
func (j *Job) finish(run uint64, s JobStatus) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if run != j.run {
		return false
	}
	j.setLocked(s)
	return true
}

func (j *Job) setLocked(s JobStatus) {
	j.status = s
	if j.progress == nil {
		return
	}
	select {
	case j.progress <- s:
	default:
	}
}

func createEngine(ctx context.Context, f EngineFactory, req EngineRequest, events chan<- ProgressEvent) (h EngineHandle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, panicError{r}
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err = f.CreateEngine(ctx, req, events)
	if err == nil && h == nil {
		err = errNilHandle
	}
	return h, err
}

func recognize(ctx context.Context, h EngineHandle, buf *image.NRGBA) (rec Recognition, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = Recognition{}, panicError{r}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}
	return h.Recognize(ctx, buf)
}
