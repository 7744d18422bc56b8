package bridge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"dailies/internal/host"
	"dailies/internal/host/bridge"
	"dailies/internal/host/simhost"
	"dailies/internal/services"
)

func newBridge(t *testing.T, sim *simhost.Host, token string) *bridge.Client {
	t.Helper()
	srv := httptest.NewServer(bridge.NewRouter(bridge.ServerConfig{Host: sim, Token: token, Name: "simhost"}))
	t.Cleanup(srv.Close)
	return bridge.NewClient(srv.URL, token, 5*time.Second)
}

func TestHealthReportsProtocol(t *testing.T) {
	client := newBridge(t, simhost.New(), "secret")
	resp, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if resp.Status != "ok" || resp.Protocol != bridge.ProtocolVersion || resp.Host != "simhost" {
		t.Fatalf("unexpected health %+v", resp)
	}
}

func TestMissingProjectMapsToNotFound(t *testing.T) {
	client := newBridge(t, simhost.New(), "")
	_, err := client.Projects().LoadProject(context.Background(), "Nope")
	if !errors.Is(err, host.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWrongTokenIsRejected(t *testing.T) {
	sim := simhost.New(simhost.WithProjects("Shoot1"))
	srv := httptest.NewServer(bridge.NewRouter(bridge.ServerConfig{Host: sim, Token: "secret"}))
	t.Cleanup(srv.Close)

	client := bridge.NewClient(srv.URL, "wrong", time.Second)
	_, err := client.Projects().LoadProject(context.Background(), "Shoot1")
	if !errors.Is(err, host.ErrHost) {
		t.Fatalf("expected ErrHost, got %v", err)
	}
	if len(sim.Calls()) != 0 {
		t.Fatalf("host should not be reached, got %v", sim.Ops())
	}

	// Health stays open so `dailies check` can distinguish auth from reachability.
	if _, err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health with wrong token: %v", err)
	}
}

func TestInjectedHostFailureMapsToErrHost(t *testing.T) {
	sim := simhost.New()
	sim.FailOn("CreateProject", errors.New("database offline"))
	client := newBridge(t, sim, "")
	_, err := client.Projects().CreateProject(context.Background(), "Shoot1")
	if !errors.Is(err, host.ErrHost) {
		t.Fatalf("expected ErrHost, got %v", err)
	}
	if errors.Is(err, host.ErrNotFound) {
		t.Fatalf("host failure must not look like not-found: %v", err)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	seen := make(chan string, 1)
	inner := bridge.NewRouter(bridge.ServerConfig{Host: simhost.New()})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(bridge.RequestIDHeader)
		inner.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := bridge.NewClient(srv.URL, "", time.Second)
	ctx := services.WithRequestID(context.Background(), "run-1234")
	if _, err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if got := <-seen; got != "run-1234" {
		t.Fatalf("expected request id header, got %q", got)
	}
}

func TestFullRoundTrip(t *testing.T) {
	ctx := context.Background()
	sim := simhost.New(simhost.WithRenderPolls(1))
	client := newBridge(t, sim, "secret")

	project, err := client.Projects().CreateProject(ctx, "Shoot1")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.Name() != "Shoot1" {
		t.Fatalf("unexpected project name %q", project.Name())
	}
	if err := project.SetSetting(ctx, "Add source frame count to filename", "false"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	pool := project.MediaPool()
	root, err := pool.RootFolder(ctx)
	if err != nil {
		t.Fatalf("RootFolder: %v", err)
	}
	dated, err := pool.AddSubFolder(ctx, root, "2024-03-09")
	if err != nil {
		t.Fatalf("AddSubFolder: %v", err)
	}
	media, err := pool.AddSubFolder(ctx, dated, "source_media")
	if err != nil {
		t.Fatalf("AddSubFolder media: %v", err)
	}
	children, err := dated.SubFolders(ctx)
	if err != nil {
		t.Fatalf("SubFolders: %v", err)
	}
	if got := host.Names(children); !slices.Equal(got, []string{"source_media"}) {
		t.Fatalf("unexpected children %v", got)
	}
	if err := pool.SetCurrentFolder(ctx, media); err != nil {
		t.Fatalf("SetCurrentFolder: %v", err)
	}
	items, err := client.MediaStorage().ImportMedia(ctx, []string{"/card/A001.mov", "/card/A002.mov"})
	if err != nil {
		t.Fatalf("ImportMedia: %v", err)
	}
	clips, err := media.Clips(ctx)
	if err != nil {
		t.Fatalf("Clips: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips in folder, got %d", len(clips))
	}

	timeline, err := pool.CreateEmptyTimeline(ctx, "2024-03-09_timeline")
	if err != nil {
		t.Fatalf("CreateEmptyTimeline: %v", err)
	}
	if err := pool.AppendToTimeline(ctx, items); err != nil {
		t.Fatalf("AppendToTimeline: %v", err)
	}
	if err := client.OpenPage(ctx, host.PageColor); err != nil {
		t.Fatalf("OpenPage: %v", err)
	}
	onTrack, err := timeline.ItemsInTrack(ctx, host.TrackVideo, 1)
	if err != nil {
		t.Fatalf("ItemsInTrack: %v", err)
	}
	if len(onTrack) != 2 {
		t.Fatalf("expected 2 timeline clips, got %d", len(onTrack))
	}
	for _, clip := range onTrack {
		if err := clip.SetLUT(ctx, 1, "Film Looks/test.cube"); err != nil {
			t.Fatalf("SetLUT: %v", err)
		}
	}

	if err := project.SetRenderMode(ctx, host.RenderIndividualClips); err != nil {
		t.Fatalf("SetRenderMode: %v", err)
	}
	if err := project.SetFormatAndCodec(ctx, "mov", "H264"); err != nil {
		t.Fatalf("SetFormatAndCodec: %v", err)
	}
	if err := project.SetRenderSettings(ctx, host.RenderSettings{TargetDir: "/card/resolve_exports", FormatWidth: 1920, FormatHeight: 1080}); err != nil {
		t.Fatalf("SetRenderSettings: %v", err)
	}
	if err := project.DeleteAllRenderJobs(ctx); err != nil {
		t.Fatalf("DeleteAllRenderJobs: %v", err)
	}
	jobID, err := project.AddRenderJob(ctx)
	if err != nil || jobID == "" {
		t.Fatalf("AddRenderJob: %q %v", jobID, err)
	}
	if err := project.StartRendering(ctx); err != nil {
		t.Fatalf("StartRendering: %v", err)
	}
	busy, err := project.IsRenderingInProgress(ctx)
	if err != nil || !busy {
		t.Fatalf("expected render in progress, got %v %v", busy, err)
	}
	busy, err = project.IsRenderingInProgress(ctx)
	if err != nil || busy {
		t.Fatalf("expected render finished, got %v %v", busy, err)
	}

	if sim.Page() != host.PageColor {
		t.Fatalf("expected color page, got %q", sim.Page())
	}
	simProject, ok := sim.Project("Shoot1")
	if !ok {
		t.Fatal("project missing on host")
	}
	jobs := simProject.Jobs()
	if len(jobs) != 1 || !jobs[0].Completed || jobs[0].Settings.TargetDir != "/card/resolve_exports" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	for _, clip := range simProject.Timelines()[0].Clips() {
		if lut, ok := clip.LUT(1); !ok || lut != "Film Looks/test.cube" {
			t.Fatalf("clip %s missing LUT", clip.Name())
		}
	}
}

func TestEmptyHandlesAreHostErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects/load", func(w http.ResponseWriter, r *http.Request) {
		bridge.WriteJSON(w, http.StatusOK, bridge.Handle{ID: "p1", Name: "Shoot1"})
	})
	mux.HandleFunc("POST /v1/projects/p1/media-pool/folders", func(w http.ResponseWriter, r *http.Request) {
		bridge.WriteJSON(w, http.StatusOK, bridge.Handle{Name: "timeline"})
	})
	mux.HandleFunc("POST /v1/projects/p1/media-pool/timelines", func(w http.ResponseWriter, r *http.Request) {
		bridge.WriteJSON(w, http.StatusOK, bridge.Handle{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client := bridge.NewClient(srv.URL, "", time.Second)
	project, err := client.Projects().LoadProject(ctx, "Shoot1")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	pool := project.MediaPool()

	folder, err := pool.AddSubFolder(ctx, stubFolder{id: "f1"}, "timeline")
	if !errors.Is(err, host.ErrHost) || folder != nil {
		t.Fatalf("AddSubFolder = %v, %v; want nil folder and ErrHost", folder, err)
	}
	timeline, err := pool.CreateEmptyTimeline(ctx, "2024-03-09_timeline")
	if !errors.Is(err, host.ErrHost) || timeline != nil {
		t.Fatalf("CreateEmptyTimeline = %v, %v; want nil timeline and ErrHost", timeline, err)
	}
}

type stubFolder struct{ id string }

func (f stubFolder) ID() string { return f.id }
func (f stubFolder) Name() string { return f.id }
func (stubFolder) SubFolders(context.Context) ([]host.Folder, error) { return nil, nil }
func (stubFolder) Clips(context.Context) ([]host.MediaItem, error) { return nil, nil }
