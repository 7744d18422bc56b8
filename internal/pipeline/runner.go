package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dailies/internal/config"
	"dailies/internal/history"
	"dailies/internal/host"
	"dailies/internal/logging"
	"dailies/internal/mediasource"
	"dailies/internal/notifications"
	"dailies/internal/project"
	"dailies/internal/prompt"
	"dailies/internal/render"
	"dailies/internal/services"
)

// Ledger records run outcomes. *history.Store satisfies it.
type Ledger interface {
	Start(ctx context.Context, run history.Run) error
	Finish(ctx context.Context, id string, status history.Status, summary history.Summary, runErr error) error
}

// Options wires a Runner.
type Options struct {
	Config   *config.Config
	Host     host.Host
	Prompter prompt.Prompter
	Logger   *slog.Logger
	Notifier notifications.Service
	// Ledger is optional.
	Ledger Ledger
	// AssumeYes answers the export confirmation without prompting.
	AssumeYes bool
	// MediaDir skips the media path prompt when set.
	MediaDir string
	// Now defaults to time.Now and fixes the dated folder name in tests.
	Now func() time.Time
}

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeDeclined  Outcome = "declined"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeFailed    Outcome = "failed"
)

// Result describes a finished run, including failed ones.
type Result struct {
	RunID      string
	Outcome    Outcome
	Summary    history.Summary
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time of the run.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner executes pipeline runs. A Runner is not safe for concurrent use.
type Runner struct {
	cfg       *config.Config
	host      host.Host
	prompter  prompt.Prompter
	logger    *slog.Logger
	notifier  notifications.Service
	ledger    Ledger
	assumeYes bool
	mediaDir  string
	now       func() time.Time
}

// NewRunner validates opts and builds a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if opts.Host == nil {
		return nil, errors.New("pipeline: host is required")
	}
	if opts.Prompter == nil {
		return nil, errors.New("pipeline: prompter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(opts.Config)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cfg:       opts.Config,
		host:      opts.Host,
		prompter:  opts.Prompter,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		notifier:  notifier,
		ledger:    opts.Ledger,
		assumeYes: opts.AssumeYes,
		mediaDir:  opts.MediaDir,
		now:       now,
	}, nil
}

// Run performs one complete pass. The returned Result is populated even when
// an error is returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithRequestID(ctx, runID[:8])
	logger := logging.WithContext(ctx, r.logger)

	state := &runState{}
	result := Result{RunID: runID, StartedAt: r.now()}
	r.recordStart(ctx, logger, result)
	logger.Info("run started", logging.String(logging.FieldEventType, "run_start"))

	err := r.execute(ctx, state)
	result.Summary = state.summary()
	result.Stage = state.stage
	result.FinishedAt = r.now()
	result.Outcome = outcomeFor(err)

	r.finish(ctx, logger, result, err)
	return result, err
}

func (r *Runner) execute(ctx context.Context, state *runState) error {
	if err := r.runStage(ctx, state, project.Stage, r.resolveProject); err != nil {
		return err
	}
	if err := r.runStage(ctx, state, stageLocateMedia, r.locateMedia); err != nil {
		return err
	}
	for _, st := range r.stages() {
		if err := r.runStage(ctx, state, st.name, st.run); err != nil {
			return err
		}
	}
	return r.runStage(ctx, state, stageWaitRender, r.waitRender)
}

func (r *Runner) runStage(ctx context.Context, state *runState, name string, fn stageFunc) error {
	state.stage = name
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	started := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, state); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, services.ErrDeclined) {
			logger.Info("stage stopped", logging.String(logging.FieldEventType, "stage_stopped"), logging.Error(err))
			return err
		}
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return err
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", time.Since(started)),
	)
	return nil
}

func (r *Runner) recordStart(ctx context.Context, logger *slog.Logger, result Result) {
	if r.ledger == nil {
		return
	}
	run := history.Run{ID: result.RunID, StartedAt: result.StartedAt}
	if err := r.ledger.Start(ctx, run); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions"),
			logging.String(logging.FieldImpact, "run will be missing from dailies history"),
		)
	}
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, result Result, runErr error) {
	// Recording and notifying must survive an interrupted run.
	ctx = context.WithoutCancel(ctx)
	status := services.FailureStatus(runErr)

	if r.ledger != nil {
		if err := r.ledger.Finish(ctx, result.RunID, status, result.Summary, runErr); err != nil {
			logging.WarnWithContext(logger, "failed to record run outcome", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history.path permissions"),
			)
		}
	}

	var notifyErr error
	switch {
	case runErr == nil:
		notifyErr = r.notifier.NotifyRenderCompleted(ctx, result.Summary, result.Duration())
	case status == history.StatusDeclined:
		notifyErr = r.notifier.NotifyExportDeclined(ctx, result.Summary)
	case status == history.StatusTimedOut:
		notifyErr = r.notifier.NotifyRenderTimedOut(ctx, result.Summary, r.cfg.MaxWait())
	case status == history.StatusCanceled, errors.Is(runErr, prompt.ErrInputClosed):
	default:
		notifyErr = r.notifier.NotifyRunFailed(ctx, runErr, result.Stage)
	}
	if notifyErr != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(notifyErr),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "run outcome not pushed"),
		)
	}

	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(status)),
		logging.String("project", result.Summary.Project),
		logging.String("folder", result.Summary.Folder),
		logging.Int("clips", result.Summary.ClipCount),
		logging.Duration("duration", result.Duration()),
	)
}

func outcomeFor(err error) Outcome {
	switch services.FailureStatus(err) {
	case history.StatusCompleted:
		return OutcomeCompleted
	case history.StatusDeclined:
		return OutcomeDeclined
	case history.StatusTimedOut:
		return OutcomeTimedOut
	default:
		return OutcomeFailed
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "check the media directory contents"
	case errors.Is(err, services.ErrConfiguration):
		return "run dailies config validate"
	case errors.Is(err, services.ErrHost):
		return "check the host application and bridge logs; partial work is left in place"
	default:
		return "check logs for details"
	}
}

func (r *Runner) resolveProject(ctx context.Context, state *runState) error {
	p, err := project.Resolve(ctx, r.host.Projects(), r.prompter, logging.WithContext(ctx, r.logger))
	if err != nil {
		return err
	}
	state.project = p
	state.pool = p.MediaPool()
	return nil
}

func (r *Runner) locateMedia(ctx context.Context, state *runState) error {
	var (
		src mediasource.Source
		err error
	)
	if r.mediaDir != "" {
		dir, expandErr := config.ExpandPath(r.mediaDir)
		if expandErr != nil {
			return services.Wrap(services.ErrValidation, stageLocateMedia, "expand media path", r.mediaDir, expandErr)
		}
		src, err = mediasource.Prepare(dir, r.cfg.Render.ExportsDirName)
		if err != nil {
			return services.Wrap(services.ErrValidation, stageLocateMedia, "prepare media directory", "", err)
		}
	} else {
		src, err = mediasource.Locate(ctx, r.prompter, mediasource.Options{
			ExportsDirName: r.cfg.Render.ExportsDirName,
			Logger:         logging.WithContext(ctx, r.logger),
		})
		if err != nil {
			if errors.Is(err, prompt.ErrInputClosed) || errors.Is(err, context.Canceled) {
				return err
			}
			return services.Wrap(services.ErrValidation, stageLocateMedia, "prepare media directory", "", err)
		}
	}
	state.source = src
	return nil
}

func (r *Runner) waitRender(ctx context.Context, state *runState) error {
	outcome, err := render.Wait(ctx, state.project, render.Options{
		Interval: r.cfg.PollInterval(),
		MaxWait:  r.cfg.MaxWait(),
		Logger:   logging.WithContext(ctx, r.logger),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return services.Wrap(services.ErrHost, stageWaitRender, "poll render status", "", err)
	}
	if outcome == render.OutcomeTimedOut {
		return services.Wrap(services.ErrTimeout, stageWaitRender, "wait for render",
			fmt.Sprintf("render still running after %s", r.cfg.MaxWait()), nil)
	}
	r.prompter.Say(render.CompletedMessage)
	return nil
}
