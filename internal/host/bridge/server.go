package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"dailies/internal/host"
	"dailies/internal/logging"
)

// ServerConfig configures the bridge router.
type ServerConfig struct {
	Host   host.Host
	Logger *slog.Logger
	// Token, when set, is required as a bearer token on every /v1 route except health.
	Token string
	// Name is reported by the health endpoint.
	Name string
}

// NewRouter exposes any host.Host over the bridge protocol.
func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	s := &server{host: cfg.Host, name: cfg.Name, reg: newRegistry()}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Token, cfg.Logger))

			r.Post("/projects/load", s.loadProject)
			r.Post("/projects/create", s.createProject)
			r.Post("/projects/{project}/settings", s.setSetting)
			r.Get("/projects/{project}/media-pool/root", s.rootFolder)
			r.Post("/projects/{project}/media-pool/folders", s.addSubFolder)
			r.Put("/projects/{project}/media-pool/current-folder", s.setCurrentFolder)
			r.Post("/projects/{project}/media-pool/timelines", s.createTimeline)
			r.Post("/projects/{project}/media-pool/append", s.appendToTimeline)
			r.Put("/projects/{project}/render/mode", s.setRenderMode)
			r.Put("/projects/{project}/render/format", s.setFormatAndCodec)
			r.Put("/projects/{project}/render/settings", s.setRenderSettings)
			r.Delete("/projects/{project}/render/jobs", s.deleteRenderJobs)
			r.Post("/projects/{project}/render/jobs", s.addRenderJob)
			r.Post("/projects/{project}/render/start", s.startRendering)
			r.Get("/projects/{project}/render/status", s.renderStatus)
			r.Get("/folders/{folder}/subfolders", s.subFolders)
			r.Get("/folders/{folder}/clips", s.folderClips)
			r.Post("/media-storage/import", s.importMedia)
			r.Put("/page", s.openPage)
			r.Get("/timelines/{timeline}/tracks/{type}/{index}/items", s.trackItems)
			r.Put("/clips/{clip}/lut", s.setLUT)
		})
	})

	return r
}

type server struct {
	host host.Host
	name string
	reg  *registry
}

// registry maps handle IDs back to the host objects handed out earlier.
type registry struct {
	mu        sync.RWMutex
	projects  map[string]host.Project
	folders   map[string]host.Folder
	items     map[string]host.MediaItem
	timelines map[string]host.Timeline
	clips     map[string]host.Clip
}

func newRegistry() *registry {
	return &registry{
		projects:  make(map[string]host.Project),
		folders:   make(map[string]host.Folder),
		items:     make(map[string]host.MediaItem),
		timelines: make(map[string]host.Timeline),
		clips:     make(map[string]host.Clip),
	}
}

func remember[T interface{ ID() string }](r *registry, m map[string]T, value T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	m[value.ID()] = value
	var name string
	if named, ok := any(value).(interface{ Name() string }); ok {
		name = named.Name()
	}
	return Handle{ID: value.ID(), Name: name}
}

func lookup[T any](r *registry, m map[string]T, id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := m[id]
	return value, ok
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Protocol: ProtocolVersion, Host: s.name})
}

func (s *server) loadProject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required", CodeBadRequest)
		return
	}
	project, err := s.host.Projects().LoadProject(r.Context(), req.Name)
	if err != nil {
		writeHostError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, remember(s.reg, s.reg.projects, project))
}

func (s *server) createProject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required", CodeBadRequest)
		return
	}
	project, err := s.host.Projects().CreateProject(r.Context(), req.Name)
	if err != nil {
		writeHostError(w, err)
		return
	}
	if project == nil {
		WriteError(w, http.StatusBadGateway, "host returned no project", CodeHostError)
		return
	}
	WriteJSON(w, http.StatusCreated, remember(s.reg, s.reg.projects, project))
}

func (s *server) setSetting(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req settingRequest
	if !decode(w, r, &req) {
		return
	}
	if err := project.SetSetting(r.Context(), req.Key, req.Value); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) rootFolder(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	folder, err := project.MediaPool().RootFolder(r.Context())
	if err != nil {
		writeHostError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, remember(s.reg, s.reg.folders, folder))
}

func (s *server) addSubFolder(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req addFolderRequest
	if !decode(w, r, &req) {
		return
	}
	parent, found := lookup(s.reg, s.reg.folders, req.ParentID)
	if !found {
		WriteError(w, http.StatusNotFound, "unknown folder "+req.ParentID, CodeNotFound)
		return
	}
	folder, err := project.MediaPool().AddSubFolder(r.Context(), parent, req.Name)
	if err != nil {
		writeHostError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, remember(s.reg, s.reg.folders, folder))
}

func (s *server) setCurrentFolder(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req currentFolderRequest
	if !decode(w, r, &req) {
		return
	}
	folder, found := lookup(s.reg, s.reg.folders, req.FolderID)
	if !found {
		WriteError(w, http.StatusNotFound, "unknown folder "+req.FolderID, CodeNotFound)
		return
	}
	if err := project.MediaPool().SetCurrentFolder(r.Context(), folder); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) createTimeline(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	timeline, err := project.MediaPool().CreateEmptyTimeline(r.Context(), req.Name)
	if err != nil {
		writeHostError(w, err)
		return
	}
	if timeline == nil {
		WriteError(w, http.StatusBadGateway, "host returned no timeline", CodeHostError)
		return
	}
	WriteJSON(w, http.StatusCreated, remember(s.reg, s.reg.timelines, timeline))
}

func (s *server) appendToTimeline(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req appendRequest
	if !decode(w, r, &req) {
		return
	}
	items := make([]host.MediaItem, 0, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		item, found := lookup(s.reg, s.reg.items, id)
		if !found {
			WriteError(w, http.StatusNotFound, "unknown media item "+id, CodeNotFound)
			return
		}
		items = append(items, item)
	}
	if err := project.MediaPool().AppendToTimeline(r.Context(), items); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) setRenderMode(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req renderModeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := project.SetRenderMode(r.Context(), req.Mode); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) setFormatAndCodec(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req formatRequest
	if !decode(w, r, &req) {
		return
	}
	if err := project.SetFormatAndCodec(r.Context(), req.Format, req.Codec); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) setRenderSettings(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	var req host.RenderSettings
	if !decode(w, r, &req) {
		return
	}
	if err := project.SetRenderSettings(r.Context(), req); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) deleteRenderJobs(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	if err := project.DeleteAllRenderJobs(r.Context()); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) addRenderJob(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	jobID, err := project.AddRenderJob(r.Context())
	if err != nil {
		writeHostError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, jobResponse{JobID: jobID})
}

func (s *server) startRendering(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	if err := project.StartRendering(r.Context()); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) renderStatus(w http.ResponseWriter, r *http.Request) {
	project, ok := s.project(w, r)
	if !ok {
		return
	}
	busy, err := project.IsRenderingInProgress(r.Context())
	if err != nil {
		writeHostError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, renderStatusResponse{InProgress: busy})
}

func (s *server) subFolders(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.folder(w, r)
	if !ok {
		return
	}
	children, err := folder.SubFolders(r.Context())
	if err != nil {
		writeHostError(w, err)
		return
	}
	resp := HandleList{Items: make([]Handle, 0, len(children))}
	for _, child := range children {
		resp.Items = append(resp.Items, remember(s.reg, s.reg.folders, child))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *server) folderClips(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.folder(w, r)
	if !ok {
		return
	}
	items, err := folder.Clips(r.Context())
	if err != nil {
		writeHostError(w, err)
		return
	}
	resp := HandleList{Items: make([]Handle, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, remember(s.reg, s.reg.items, item))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *server) importMedia(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := s.host.MediaStorage().ImportMedia(r.Context(), req.Paths)
	if err != nil {
		writeHostError(w, err)
		return
	}
	resp := HandleList{Items: make([]Handle, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, remember(s.reg, s.reg.items, item))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *server) openPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.host.OpenPage(r.Context(), req.Page); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) trackItems(w http.ResponseWriter, r *http.Request) {
	timeline, found := lookup(s.reg, s.reg.timelines, urlParam(r, "timeline"))
	if !found {
		WriteError(w, http.StatusNotFound, "unknown timeline", CodeNotFound)
		return
	}
	index, err := strconv.Atoi(urlParam(r, "index"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "track index must be an integer", CodeBadRequest)
		return
	}
	clips, err := timeline.ItemsInTrack(r.Context(), host.TrackType(urlParam(r, "type")), index)
	if err != nil {
		writeHostError(w, err)
		return
	}
	resp := HandleList{Items: make([]Handle, 0, len(clips))}
	for _, clip := range clips {
		resp.Items = append(resp.Items, remember(s.reg, s.reg.clips, clip))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *server) setLUT(w http.ResponseWriter, r *http.Request) {
	clip, found := lookup(s.reg, s.reg.clips, urlParam(r, "clip"))
	if !found {
		WriteError(w, http.StatusNotFound, "unknown clip", CodeNotFound)
		return
	}
	var req lutRequest
	if !decode(w, r, &req) {
		return
	}
	if err := clip.SetLUT(r.Context(), req.Node, req.Path); err != nil {
		writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) project(w http.ResponseWriter, r *http.Request) (host.Project, bool) {
	id := urlParam(r, "project")
	project, found := lookup(s.reg, s.reg.projects, id)
	if !found {
		WriteError(w, http.StatusNotFound, "unknown project "+id, CodeNotFound)
		return nil, false
	}
	return project, true
}

func (s *server) folder(w http.ResponseWriter, r *http.Request) (host.Folder, bool) {
	id := urlParam(r, "folder")
	folder, found := lookup(s.reg, s.reg.folders, id)
	if !found {
		WriteError(w, http.StatusNotFound, "unknown folder "+id, CodeNotFound)
		return nil, false
	}
	return folder, true
}

func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", CodeBadRequest)
		return false
	}
	return true
}

func writeHostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, host.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), CodeHostError)
	default:
		WriteError(w, http.StatusBadGateway, err.Error(), CodeHostError)
	}
}
