package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"dailies/internal/config"
	"dailies/internal/history"
	"dailies/internal/host"
	"dailies/internal/host/simhost"
	"dailies/internal/pipeline"
	"dailies/internal/prompt"
	"dailies/internal/services"
	"dailies/internal/testsupport"
)

var shootDay = time.Date(2024, time.March, 9, 18, 0, 0, 0, time.Local)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

func (n *recordingNotifier) NotifyRenderCompleted(context.Context, history.Summary, time.Duration) error {
	return n.record("completed")
}

func (n *recordingNotifier) NotifyExportDeclined(context.Context, history.Summary) error {
	return n.record("declined")
}

func (n *recordingNotifier) NotifyRenderTimedOut(context.Context, history.Summary, time.Duration) error {
	return n.record("timed_out")
}

func (n *recordingNotifier) NotifyRunFailed(context.Context, error, string) error {
	return n.record("failed")
}

func (n *recordingNotifier) TestNotification(context.Context) error { return n.record("test") }

type harness struct {
	cfg      *config.Config
	sim      *simhost.Host
	out      *bytes.Buffer
	notifier *recordingNotifier
	ledger   *history.Store
	runner   *pipeline.Runner
}

func newHarness(t *testing.T, sim *simhost.Host, input string, opts ...func(*pipeline.Options)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	h := &harness{
		cfg:      cfg,
		sim:      sim,
		out:      &bytes.Buffer{},
		notifier: &recordingNotifier{},
		ledger:   testsupport.MustOpenHistory(t, cfg),
	}
	options := pipeline.Options{
		Config:   cfg,
		Host:     sim,
		Prompter: prompt.New(strings.NewReader(input), h.out),
		Notifier: h.notifier,
		Ledger:   h.ledger,
		Now:      func() time.Time { return shootDay },
	}
	for _, opt := range opts {
		opt(&options)
	}
	runner, err := pipeline.NewRunner(options)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	h.runner = runner
	return h
}

func answers(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestRunEndToEndCreatesProjectAndRenders(t *testing.T) {
	media := testsupport.MediaDir(t, "A001.mov", "A002.mov")
	sim := simhost.New(simhost.WithRenderPolls(2))
	h := newHarness(t, sim, answers("Shoot1", "y", media, "y"))

	result, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Outcome != pipeline.OutcomeCompleted {
		t.Fatalf("outcome = %q", result.Outcome)
	}

	project, ok := sim.Project("Shoot1")
	if !ok {
		t.Fatal("project was not created")
	}
	root := project.Root()
	if got := root.ChildNames(); !slices.Equal(got, []string{"2024-03-09"}) {
		t.Fatalf("root children = %v", got)
	}
	dated, _ := root.Child("2024-03-09")
	if got := dated.ChildNames(); !slices.Equal(got, []string{"source_media", "timeline"}) {
		t.Fatalf("dated children = %v", got)
	}
	sourceMedia, _ := dated.Child("source_media")
	if got := sourceMedia.ItemNames(); !slices.Equal(got, []string{"A001.mov", "A002.mov"}) {
		t.Fatalf("imported items = %v", got)
	}
	timelineDir, _ := dated.Child("timeline")
	if got := timelineDir.TimelineNames(); !slices.Equal(got, []string{"2024-03-09_timeline"}) {
		t.Fatalf("timelines = %v", got)
	}

	timelines := project.Timelines()
	if len(timelines) != 1 {
		t.Fatalf("expected 1 timeline, got %d", len(timelines))
	}
	clips := timelines[0].Clips()
	var names []string
	for _, clip := range clips {
		names = append(names, clip.Name())
		lut, ok := clip.LUT(1)
		if !ok || lut != config.DefaultLUT {
			t.Fatalf("clip %s LUT = %q, %v", clip.Name(), lut, ok)
		}
	}
	if !slices.Equal(names, []string{"A001.mov", "A002.mov"}) {
		t.Fatalf("timeline clips = %v", names)
	}

	jobs := project.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected exactly one render job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Settings.TargetDir != filepath.Join(media, "resolve_exports") {
		t.Fatalf("TargetDir = %q", job.Settings.TargetDir)
	}
	if job.Mode != host.RenderIndividualClips || job.Format != "mov" || job.Codec != "H264" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Settings.CustomName != "%{Reel Name}_Resolve" || job.Settings.FormatWidth != 1920 || job.Settings.FormatHeight != 1080 {
		t.Fatalf("unexpected render settings %+v", job.Settings)
	}
	if !job.Completed {
		t.Fatal("render job did not complete")
	}
	if got := project.Settings()["Add source frame count to filename"]; got != "false" {
		t.Fatalf("project setting = %q", got)
	}
	if sim.Page() != host.PageDeliver {
		t.Fatalf("page = %q", sim.Page())
	}

	transcript := h.out.String()
	for _, want := range []string{
		"What is the name of the project? ",
		"That project doesn't exist. Would you like to create and load it? (y/n): ",
		"Please enter the filepath for your media files: ",
		"Would you like to proceed with export? (y/n): ",
		"Moving on to export the clips. Standby",
		"Export completed!",
	} {
		if !strings.Contains(transcript, want) {
			t.Fatalf("transcript missing %q:\n%s", want, transcript)
		}
	}

	want := history.Summary{
		Project:   "Shoot1",
		MediaDir:  media,
		Folder:    "2024-03-09",
		Timeline:  "2024-03-09_timeline",
		ClipCount: 2,
		JobID:     job.ID,
	}
	if result.Summary != want {
		t.Fatalf("summary = %+v, want %+v", result.Summary, want)
	}
	run, err := h.ledger.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("ledger Get: %v", err)
	}
	if run.Status != history.StatusCompleted || run.Summary != want {
		t.Fatalf("ledger row = %+v", run)
	}
	if got := h.notifier.Events(); !slices.Equal(got, []string{"completed"}) {
		t.Fatalf("notifications = %v", got)
	}
}

func TestRunPicksNextFreeFolderName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"date taken", []string{"2024-03-09"}, "2024-03-09_2"},
		{"date and _2 taken", []string{"2024-03-09", "2024-03-09_2"}, "2024-03-09_3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sim := simhost.New(simhost.WithProjects("Shoot1"))
			seeded, _ := sim.Project("Shoot1")
			pool := seeded.MediaPool()
			root, err := pool.RootFolder(ctx)
			if err != nil {
				t.Fatal(err)
			}
			for _, name := range tt.existing {
				if _, err := pool.AddSubFolder(ctx, root, name); err != nil {
					t.Fatal(err)
				}
			}

			media := testsupport.MediaDir(t, "A001.mov")
			h := newHarness(t, sim, answers("Shoot1", media, "yes"))
			result, err := h.runner.Run(ctx)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result.Summary.Folder != tt.want {
				t.Fatalf("folder = %q, want %q", result.Summary.Folder, tt.want)
			}
			if result.Summary.Timeline != tt.want+"_timeline" {
				t.Fatalf("timeline = %q", result.Summary.Timeline)
			}
			wantChildren := append(slices.Clone(tt.existing), tt.want)
			if got := seeded.Root().ChildNames(); !slices.Equal(got, wantChildren) {
				t.Fatalf("root children = %v, want %v", got, wantChildren)
			}
		})
	}
}

func TestRunDeclineStopsBeforeRenderJob(t *testing.T) {
	media := testsupport.MediaDir(t, "A001.mov", "A002.mov")
	sim := simhost.New(simhost.WithProjects("Shoot1"))
	h := newHarness(t, sim, answers("Shoot1", media, "later", "N"))

	result, err := h.runner.Run(context.Background())
	if !errors.Is(err, services.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if result.Outcome != pipeline.OutcomeDeclined {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	ops := sim.Ops()
	if ops[len(ops)-1] != "DeleteAllRenderJobs" {
		t.Fatalf("expected no host calls after the render gate, got %v", ops)
	}
	if slices.Contains(ops, "AddRenderJob") || slices.Contains(ops, "StartRendering") {
		t.Fatalf("render job submitted after decline: %v", ops)
	}
	if !strings.Contains(h.out.String(), "later is not a valid entry. Please enter y/n.") {
		t.Fatalf("missing re-prompt:\n%s", h.out.String())
	}
	if !strings.Contains(h.out.String(), "Stopped before exporting clips") {
		t.Fatalf("missing stop message:\n%s", h.out.String())
	}
	run, err := h.ledger.Get(context.Background(), result.RunID)
	if err != nil || run.Status != history.StatusDeclined {
		t.Fatalf("ledger row = %+v, %v", run, err)
	}
	if got := h.notifier.Events(); !slices.Equal(got, []string{"declined"}) {
		t.Fatalf("notifications = %v", got)
	}
}

func TestRunAssumeYesSkipsExportPrompt(t *testing.T) {
	media := testsupport.MediaDir(t, "A001.mov")
	sim := simhost.New(simhost.WithProjects("Shoot1"))
	h := newHarness(t, sim, answers("Shoot1"), func(o *pipeline.Options) {
		o.AssumeYes = true
		o.MediaDir = media
	})

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(h.out.String(), "proceed with export") {
		t.Fatalf("export prompt shown despite AssumeYes:\n%s", h.out.String())
	}
	if strings.Contains(h.out.String(), "filepath for your media files") {
		t.Fatalf("media prompt shown despite MediaDir:\n%s", h.out.String())
	}
}

func TestRunHostFailuresAreFatal(t *testing.T) {
	tests := []struct {
		op    string
		stage string
	}{
		{"AddSubFolder", "create_folders"},
		{"ImportMedia", "import_media"},
		{"CreateEmptyTimeline", "create_timeline"},
		{"AppendToTimeline", "assemble_timeline"},
		{"SetLUT", "apply_lut"},
		{"SetRenderSettings", "configure_render"},
		{"StartRendering", "confirm_and_render"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			media := testsupport.MediaDir(t, "A001.mov", "A002.mov")
			sim := simhost.New(simhost.WithProjects("Shoot1"))
			sim.FailOn(tt.op, errors.New("injected"))
			h := newHarness(t, sim, answers("Shoot1", media, "y"))

			result, err := h.runner.Run(context.Background())
			if !errors.Is(err, services.ErrHost) || !errors.Is(err, host.ErrHost) {
				t.Fatalf("expected host failure, got %v", err)
			}
			if result.Outcome != pipeline.OutcomeFailed || result.Stage != tt.stage {
				t.Fatalf("result = %+v", result)
			}
			if !strings.Contains(err.Error(), tt.stage) {
				t.Fatalf("error lacks stage %q: %v", tt.stage, err)
			}
			ops := sim.Ops()
			if ops[len(ops)-1] != tt.op {
				t.Fatalf("expected %s to be the last host call, got %v", tt.op, ops)
			}
			run, getErr := h.ledger.Get(context.Background(), result.RunID)
			if getErr != nil || run.Status != history.StatusFailed || run.ErrorMessage == "" {
				t.Fatalf("ledger row = %+v, %v", run, getErr)
			}
			if got := h.notifier.Events(); !slices.Equal(got, []string{"failed"}) {
				t.Fatalf("notifications = %v", got)
			}
		})
	}
}

// nullFolderHost wraps a simulated host so AddSubFolder returns no handle and
// no error for one folder name.
type nullFolderHost struct {
	*simhost.Host
	folder string
}

func (h nullFolderHost) Projects() host.ProjectCatalog {
	return nullFolderCatalog{ProjectCatalog: h.Host.Projects(), folder: h.folder}
}

type nullFolderCatalog struct {
	host.ProjectCatalog
	folder string
}

func (c nullFolderCatalog) LoadProject(ctx context.Context, name string) (host.Project, error) {
	p, err := c.ProjectCatalog.LoadProject(ctx, name)
	if err != nil {
		return nil, err
	}
	return nullFolderProject{Project: p, folder: c.folder}, nil
}

type nullFolderProject struct {
	host.Project
	folder string
}

func (p nullFolderProject) MediaPool() host.MediaPool {
	return nullFolderPool{MediaPool: p.Project.MediaPool(), folder: p.folder}
}

type nullFolderPool struct {
	host.MediaPool
	folder string
}

func (m nullFolderPool) AddSubFolder(ctx context.Context, parent host.Folder, name string) (host.Folder, error) {
	folder, err := m.MediaPool.AddSubFolder(ctx, parent, name)
	if err != nil || name == m.folder {
		return nil, err
	}
	return folder, nil
}

func TestRunMissingFolderHandleStopsBeforeImport(t *testing.T) {
	for _, name := range []string{"2024-03-09", "source_media", "timeline"} {
		t.Run(name, func(t *testing.T) {
			media := testsupport.MediaDir(t, "A001.mov")
			sim := simhost.New(simhost.WithProjects("Shoot1"))
			h := newHarness(t, sim, answers("Shoot1", media, "y"), func(o *pipeline.Options) {
				o.Host = nullFolderHost{Host: sim, folder: name}
			})

			result, err := h.runner.Run(context.Background())
			if !errors.Is(err, services.ErrHost) {
				t.Fatalf("expected host failure, got %v", err)
			}
			if result.Stage != "create_folders" {
				t.Fatalf("stage = %q, want create_folders", result.Stage)
			}
			if !strings.Contains(err.Error(), name+": host returned no folder") {
				t.Fatalf("error lacks folder name: %v", err)
			}
			ops := sim.Ops()
			if ops[len(ops)-1] != "AddSubFolder" {
				t.Fatalf("host calls continued after missing folder: %v", ops)
			}
			if slices.Contains(ops, "ImportMedia") || slices.Contains(ops, "SetCurrentFolder") {
				t.Fatalf("media touched after missing folder: %v", ops)
			}
		})
	}
}

func TestRunUnknownRenderModeIsConfigurationError(t *testing.T) {
	media := testsupport.MediaDir(t, "A001.mov")
	sim := simhost.New(simhost.WithProjects("Shoot1"))
	h := newHarness(t, sim, answers("Shoot1", media, "y"), func(o *pipeline.Options) {
		o.Config.Render.Mode = "per_reel"
	})

	result, err := h.runner.Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if result.Stage != "configure_render" {
		t.Fatalf("stage = %q", result.Stage)
	}
	if slices.Contains(sim.Ops(), "SetRenderMode") || slices.Contains(sim.Ops(), "AddRenderJob") {
		t.Fatalf("render configured with unknown mode: %v", sim.Ops())
	}
}

func TestRunEmptyMediaDirectoryFailsBeforeImport(t *testing.T) {
	media := testsupport.MediaDir(t)
	sim := simhost.New(simhost.WithProjects("Shoot1"))
	h := newHarness(t, sim, answers("Shoot1", media))

	result, err := h.runner.Run(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if result.Stage != "import_media" {
		t.Fatalf("stage = %q", result.Stage)
	}
	if slices.Contains(sim.Ops(), "ImportMedia") {
		t.Fatalf("import attempted for empty directory: %v", sim.Ops())
	}
}

func TestRunRenderTimeout(t *testing.T) {
	media := testsupport.MediaDir(t, "A001.mov")
	sim := simhost.New(simhost.WithProjects("Shoot1"), simhost.WithRenderPolls(1<<30))
	h := newHarness(t, sim, answers("Shoot1", media, "y"), func(o *pipeline.Options) {
		o.Config.Monitor.MaxWaitSeconds = 1
	})

	result, err := h.runner.Run(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if result.Outcome != pipeline.OutcomeTimedOut {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	if strings.Contains(h.out.String(), "Export completed!") {
		t.Fatal("timeout must not report completion")
	}
	if got := h.notifier.Events(); !slices.Equal(got, []string{"timed_out"}) {
		t.Fatalf("notifications = %v", got)
	}
}

func TestRunClosedInputIsNotNotified(t *testing.T) {
	sim := simhost.New()
	h := newHarness(t, sim, "")

	result, err := h.runner.Run(context.Background())
	if !errors.Is(err, prompt.ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
	if result.Stage != "resolve_project" {
		t.Fatalf("stage = %q", result.Stage)
	}
	if len(sim.Calls()) != 0 {
		t.Fatalf("unexpected host calls %v", sim.Ops())
	}
	if got := h.notifier.Events(); len(got) != 0 {
		t.Fatalf("notifications = %v", got)
	}
}

func TestNewRunnerRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := pipeline.NewRunner(pipeline.Options{Host: simhost.New(), Prompter: prompt.New(strings.NewReader(""), nil)}); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := pipeline.NewRunner(pipeline.Options{Config: cfg, Prompter: prompt.New(strings.NewReader(""), nil)}); err == nil {
		t.Fatal("expected error without host")
	}
	if _, err := pipeline.NewRunner(pipeline.Options{Config: cfg, Host: simhost.New()}); err == nil {
		t.Fatal("expected error without prompter")
	}
}
