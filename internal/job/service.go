package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maauso/atis-broadcast/internal/audio"
	"github.com/maauso/atis-broadcast/internal/compiler"
	"github.com/maauso/atis-broadcast/internal/mapping"
	"github.com/maauso/atis-broadcast/internal/metrics"
	"github.com/maauso/atis-broadcast/internal/prompt"
	"github.com/maauso/atis-broadcast/internal/storage"
)

// DefaultMaxConcurrent is the default number of compilations run at once.
const DefaultMaxConcurrent = 4

// Static errors returned by the service.
var (
	// ErrExport is matched by *ExportError.
	ErrExport = errors.New("job: export failed")
	// ErrBusy is returned when no compilation slot frees up before the
	// caller's context ends.
	ErrBusy = errors.New("job: all compilation slots are busy")
	// ErrArtifactNotReady is returned when a job has no committed artifact.
	ErrArtifactNotReady = errors.New("job: artifact not available")
	// ErrJobActive is returned when deleting a job that is still running.
	ErrJobActive = errors.New("job: job is still running")
)

// ExportError reports a failure writing or committing the final artifact.
type ExportError struct {
	// Op names the step that failed.
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExport.
func (e *ExportError) Is(target error) bool {
	return target == ErrExport
}

// Compiler assembles tokens into audio.
type Compiler interface {
	Compile(ctx context.Context, tokens []prompt.Token, table mapping.Table) (*compiler.Result, error)
}

// CompileInput contains the input for one broadcast.
type CompileInput struct {
	// Prompt is the broadcast text, one phrase per line.
	Prompt string
}

// CompileOutput contains the result of a successful compilation.
type CompileOutput struct {
	// JobID is the invocation-scoped identifier.
	JobID string
	// Status is the final job status.
	Status Status
	// Artifact locates the committed WAV.
	Artifact storage.Artifact
	// Format is the canonical format of the output.
	Format audio.Format
	// Duration is the playback length of the output.
	Duration time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxConcurrent limits how many compilations run at once.
func WithMaxConcurrent(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

// WithMappingFile sets the mapping table path, re-read on every compilation.
func WithMappingFile(path string) ServiceOption {
	return func(s *Service) {
		s.mappingFile = path
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs prompts through tokenizing, compiling and exporting, and
// records each run as a Job.
//
// Dependencies:
//   - Compiler: token-to-audio assembly
//   - storage.Storage: temporary files and committed artifacts
//   - Repository: job records
type Service struct {
	compiler    Compiler
	storage     storage.Storage
	repo        Repository
	logger      *slog.Logger
	metrics     *metrics.Metrics
	mappingFile string
	sem         chan struct{}
}

// NewService creates a new Service.
func NewService(c Compiler, store storage.Storage, repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		compiler: c,
		storage:  store,
		repo:     repo,
		logger:   slog.Default(),
		sem:      make(chan struct{}, DefaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(s)
	}
	if n, ok := repo.(EvictionNotifier); ok {
		n.OnEvict(s.discardArtifact)
	}
	return s
}

// Compile turns a prompt into a committed WAV artifact.
// The first error aborts the run; on failure nothing is committed and the
// job is recorded as FAILED.
func (s *Service) Compile(ctx context.Context, input CompileInput) (*CompileOutput, error) {
	if err := s.acquire(ctx); err != nil {
		s.metrics.RecordCompilation(metrics.OutcomeBusy, 0)
		return nil, err
	}
	defer s.release()

	start := time.Now()
	job := New(input.Prompt)
	logger := s.logger.With(slog.String("job_id", job.ID))

	if err := s.repo.Save(ctx, job); err != nil {
		logger.Error("failed to save job", slog.String("error", err.Error()))
		return nil, err
	}

	out, err := s.run(ctx, job, logger)
	if err != nil {
		s.fail(ctx, job, logger, err)
		s.metrics.RecordCompilation(metrics.OutcomeFailure, time.Since(start))
		return nil, err
	}

	s.metrics.RecordCompilation(metrics.OutcomeSuccess, time.Since(start))
	logger.Info("broadcast compiled",
		slog.String("key", out.Artifact.Key),
		slog.String("format", out.Format.String()),
		slog.Duration("duration", out.Duration),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (s *Service) run(ctx context.Context, job *Job, logger *slog.Logger) (*CompileOutput, error) {
	if err := job.StartTokenizing(); err != nil {
		return nil, err
	}
	tokens := prompt.Tokenize(job.Prompt)
	delays := prompt.CountDelays(tokens)

	if err := job.StartCompiling(len(tokens), delays); err != nil {
		return nil, err
	}
	s.save(ctx, job, logger)
	logger.Debug("prompt tokenized",
		slog.Int("tokens", len(tokens)),
		slog.Int("delays", delays),
	)

	table := s.loadMapping(logger)
	result, err := s.compiler.Compile(ctx, tokens, table)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordResolutions(result.StrategyCounts())
	s.metrics.RecordDelays(result.Delays)

	if err := job.StartExporting(result.Format, result.Clip.Duration()); err != nil {
		return nil, err
	}
	s.save(ctx, job, logger)

	artifact, err := s.export(ctx, job.ID, result.Clip)
	if err != nil {
		return nil, err
	}

	if err := job.Complete(artifact); err != nil {
		return nil, err
	}
	s.save(ctx, job, logger)
	s.metrics.RecordOutput(result.Clip.Duration())

	return &CompileOutput{
		JobID:    job.ID,
		Status:   job.GetStatus(),
		Artifact: artifact,
		Format:   result.Format,
		Duration: result.Clip.Duration(),
	}, nil
}

// loadMapping reads the mapping table. Read failures are logged and the
// run continues with an empty table.
func (s *Service) loadMapping(logger *slog.Logger) mapping.Table {
	if s.mappingFile == "" {
		return mapping.Table{}
	}
	table, err := mapping.Load(s.mappingFile)
	if err != nil {
		s.metrics.RecordMappingLoadFailure()
		logger.Warn("mapping table unreadable, using filename convention only",
			slog.String("path", s.mappingFile),
			slog.String("error", err.Error()),
		)
	}
	return table
}

// export encodes clip to a temporary file and commits it under the job's key.
// The temporary file is removed unless the commit succeeds.
func (s *Service) export(ctx context.Context, jobID string, clip audio.Clip) (storage.Artifact, error) {
	f, err := s.storage.CreateTemp(ctx, jobID)
	if err != nil {
		return storage.Artifact{}, &ExportError{Op: "create temp file", Err: err}
	}
	tempPath := f.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := s.storage.CleanupTemp(context.WithoutCancel(ctx), []string{tempPath}); err != nil {
			s.logger.Warn("failed to remove temp file",
				slog.String("job_id", jobID),
				slog.String("path", tempPath),
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := audio.Encode(f, clip); err != nil {
		_ = f.Close()
		return storage.Artifact{}, &ExportError{Op: "encode wav", Err: err}
	}
	if err := f.Close(); err != nil {
		return storage.Artifact{}, &ExportError{Op: "close temp file", Err: err}
	}

	artifact, err := s.storage.Commit(ctx, tempPath, ArtifactKey(jobID))
	if err != nil {
		return storage.Artifact{}, &ExportError{Op: "commit", Err: err}
	}
	committed = true
	return artifact, nil
}

func (s *Service) fail(ctx context.Context, job *Job, logger *slog.Logger, cause error) {
	if err := job.Fail(cause.Error()); err != nil {
		logger.Error("failed to mark job as failed", slog.String("error", err.Error()))
	}
	s.save(ctx, job, logger)
	logger.Error("broadcast compilation failed",
		slog.String("status", string(StatusFailed)),
		slog.String("error", cause.Error()),
	)
}

// save persists job state. Repository errors are logged, not returned, so
// they never mask the run's own outcome.
func (s *Service) save(ctx context.Context, job *Job, logger *slog.Logger) {
	if err := s.repo.Save(context.WithoutCancel(ctx), job); err != nil {
		logger.Warn("failed to save job state",
			slog.String("status", string(job.GetStatus())),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		s.metrics.CompileStarted()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
	}
}

func (s *Service) release() {
	<-s.sem
	s.metrics.CompileFinished()
}

// GetJob retrieves a job by ID.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all known jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// DeleteJob removes a finished job and its committed artifact.
// Running jobs are refused with ErrJobActive.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsTerminal() {
		return fmt.Errorf("%w: job is %s", ErrJobActive, job.Status)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if job.Artifact.Key != "" {
		if err := s.storage.Delete(ctx, job.Artifact.Key); err != nil {
			return fmt.Errorf("delete artifact: %w", err)
		}
	}
	s.logger.Info("broadcast deleted", slog.String("job_id", id))
	return nil
}

// discardArtifact removes the committed output of a job the repository
// dropped on its own. Errors are logged.
func (s *Service) discardArtifact(job *Job) {
	if job.Artifact.Key == "" {
		return
	}
	if err := s.storage.Delete(context.Background(), job.Artifact.Key); err != nil {
		s.logger.Warn("failed to delete evicted artifact",
			slog.String("job_id", job.ID),
			slog.String("key", job.Artifact.Key),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("evicted artifact deleted",
		slog.String("job_id", job.ID),
		slog.String("key", job.Artifact.Key),
	)
}

// OpenArtifact returns a reader for the committed WAV of a finished job.
// The caller must close the reader.
func (s *Service) OpenArtifact(ctx context.Context, id string) (io.ReadCloser, *Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != StatusDone || job.Artifact.Key == "" {
		return nil, job, fmt.Errorf("%w: job is %s", ErrArtifactNotReady, job.Status)
	}

	rc, err := s.storage.Open(ctx, job.Artifact.Key)
	if err != nil {
		return nil, job, err
	}
	return rc, job, nil
}

// ArtifactKey returns the storage key for a job's output.
func ArtifactKey(jobID string) string {
	return jobID + ".wav"
}
