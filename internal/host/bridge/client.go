package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dailies/internal/config"
	"dailies/internal/host"
	"dailies/internal/services"
)

const userAgent = "dailies/0.1"

// Client implements host.Host against a bridge server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ host.Host = (*Client)(nil)

// NewClient builds a client for the bridge at baseURL. A non-positive timeout
// falls back to 30 seconds per request.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientFromConfig builds a client from the [host] section.
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.Host.BridgeURL, cfg.Host.APIToken, cfg.HostTimeout())
}

// BaseURL returns the bridge address.
func (c *Client) BaseURL() string { return c.baseURL }

// Health checks that the bridge is reachable and speaks this protocol.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return HealthResponse{}, err
	}
	if resp.Protocol != ProtocolVersion {
		return resp, fmt.Errorf("%w: bridge speaks protocol %q, want %q", host.ErrHost, resp.Protocol, ProtocolVersion)
	}
	return resp, nil
}

func (c *Client) Projects() host.ProjectCatalog { return remoteCatalog{c: c} }

func (c *Client) MediaStorage() host.MediaStorage { return remoteStorage{c: c} }

func (c *Client) OpenPage(ctx context.Context, page host.Page) error {
	return c.do(ctx, http.MethodPut, "/v1/page", pageRequest{Page: page}, nil)
}

// do sends one JSON request. 404 maps to host.ErrNotFound and every other
// non-2xx status to host.ErrHost.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %w", host.ErrHost, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, method, path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", host.ErrHost, method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response, method, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(raw))
	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	marker := host.ErrHost
	if resp.StatusCode == http.StatusNotFound {
		marker = host.ErrNotFound
	}
	return fmt.Errorf("%w: %s %s returned %d: %s", marker, method, path, resp.StatusCode, message)
}

func escape(id string) string { return url.PathEscape(id) }

type remoteCatalog struct{ c *Client }

func (rc remoteCatalog) LoadProject(ctx context.Context, name string) (host.Project, error) {
	var h Handle
	if err := rc.c.do(ctx, http.MethodPost, "/v1/projects/load", nameRequest{Name: name}, &h); err != nil {
		return nil, err
	}
	return &remoteProject{c: rc.c, id: h.ID, name: h.Name}, nil
}

func (rc remoteCatalog) CreateProject(ctx context.Context, name string) (host.Project, error) {
	var h Handle
	if err := rc.c.do(ctx, http.MethodPost, "/v1/projects/create", nameRequest{Name: name}, &h); err != nil {
		return nil, err
	}
	if h.ID == "" {
		return nil, fmt.Errorf("%w: bridge returned an empty project handle", host.ErrHost)
	}
	return &remoteProject{c: rc.c, id: h.ID, name: h.Name}, nil
}

type remoteStorage struct{ c *Client }

func (rs remoteStorage) ImportMedia(ctx context.Context, paths []string) ([]host.MediaItem, error) {
	var list HandleList
	if err := rs.c.do(ctx, http.MethodPost, "/v1/media-storage/import", importRequest{Paths: paths}, &list); err != nil {
		return nil, err
	}
	items := make([]host.MediaItem, 0, len(list.Items))
	for _, h := range list.Items {
		items = append(items, newRemoteItem(h))
	}
	return items, nil
}

type remoteProject struct {
	c    *Client
	id   string
	name string
}

func (p *remoteProject) ID() string   { return p.id }
func (p *remoteProject) Name() string { return p.name }

func (p *remoteProject) path(suffix string) string {
	return "/v1/projects/" + escape(p.id) + suffix
}

func (p *remoteProject) MediaPool() host.MediaPool { return remotePool{p: p} }

func (p *remoteProject) SetSetting(ctx context.Context, key, value string) error {
	return p.c.do(ctx, http.MethodPost, p.path("/settings"), settingRequest{Key: key, Value: value}, nil)
}

func (p *remoteProject) SetRenderMode(ctx context.Context, mode host.RenderMode) error {
	return p.c.do(ctx, http.MethodPut, p.path("/render/mode"), renderModeRequest{Mode: mode}, nil)
}

func (p *remoteProject) SetFormatAndCodec(ctx context.Context, format, codec string) error {
	return p.c.do(ctx, http.MethodPut, p.path("/render/format"), formatRequest{Format: format, Codec: codec}, nil)
}

func (p *remoteProject) SetRenderSettings(ctx context.Context, settings host.RenderSettings) error {
	return p.c.do(ctx, http.MethodPut, p.path("/render/settings"), settings, nil)
}

func (p *remoteProject) DeleteAllRenderJobs(ctx context.Context) error {
	return p.c.do(ctx, http.MethodDelete, p.path("/render/jobs"), nil, nil)
}

func (p *remoteProject) AddRenderJob(ctx context.Context) (string, error) {
	var resp jobResponse
	if err := p.c.do(ctx, http.MethodPost, p.path("/render/jobs"), nil, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (p *remoteProject) StartRendering(ctx context.Context) error {
	return p.c.do(ctx, http.MethodPost, p.path("/render/start"), nil, nil)
}

func (p *remoteProject) IsRenderingInProgress(ctx context.Context) (bool, error) {
	var resp renderStatusResponse
	if err := p.c.do(ctx, http.MethodGet, p.path("/render/status"), nil, &resp); err != nil {
		return false, err
	}
	return resp.InProgress, nil
}

type remotePool struct{ p *remoteProject }

func (m remotePool) RootFolder(ctx context.Context) (host.Folder, error) {
	var h Handle
	if err := m.p.c.do(ctx, http.MethodGet, m.p.path("/media-pool/root"), nil, &h); err != nil {
		return nil, err
	}
	if h.ID == "" {
		return nil, fmt.Errorf("%w: bridge returned an empty root folder handle", host.ErrHost)
	}
	return &remoteFolder{c: m.p.c, id: h.ID, name: h.Name}, nil
}

func (m remotePool) AddSubFolder(ctx context.Context, parent host.Folder, name string) (host.Folder, error) {
	if parent == nil {
		return nil, errors.New("bridge: parent folder is required")
	}
	var h Handle
	req := addFolderRequest{ParentID: parent.ID(), Name: name}
	if err := m.p.c.do(ctx, http.MethodPost, m.p.path("/media-pool/folders"), req, &h); err != nil {
		return nil, err
	}
	if h.ID == "" {
		return nil, fmt.Errorf("%w: bridge returned an empty folder handle for %q", host.ErrHost, name)
	}
	return &remoteFolder{c: m.p.c, id: h.ID, name: h.Name}, nil
}

func (m remotePool) SetCurrentFolder(ctx context.Context, folder host.Folder) error {
	if folder == nil {
		return errors.New("bridge: folder is required")
	}
	return m.p.c.do(ctx, http.MethodPut, m.p.path("/media-pool/current-folder"), currentFolderRequest{FolderID: folder.ID()}, nil)
}

func (m remotePool) CreateEmptyTimeline(ctx context.Context, name string) (host.Timeline, error) {
	var h Handle
	if err := m.p.c.do(ctx, http.MethodPost, m.p.path("/media-pool/timelines"), nameRequest{Name: name}, &h); err != nil {
		return nil, err
	}
	if h.ID == "" {
		return nil, fmt.Errorf("%w: bridge returned an empty timeline handle for %q", host.ErrHost, name)
	}
	return &remoteTimeline{c: m.p.c, id: h.ID, name: h.Name}, nil
}

func (m remotePool) AppendToTimeline(ctx context.Context, items []host.MediaItem) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID())
	}
	return m.p.c.do(ctx, http.MethodPost, m.p.path("/media-pool/append"), appendRequest{ItemIDs: ids}, nil)
}

type remoteFolder struct {
	c    *Client
	id   string
	name string
}

func (f *remoteFolder) ID() string   { return f.id }
func (f *remoteFolder) Name() string { return f.name }

func (f *remoteFolder) SubFolders(ctx context.Context) ([]host.Folder, error) {
	var list HandleList
	if err := f.c.do(ctx, http.MethodGet, "/v1/folders/"+escape(f.id)+"/subfolders", nil, &list); err != nil {
		return nil, err
	}
	out := make([]host.Folder, 0, len(list.Items))
	for _, h := range list.Items {
		out = append(out, &remoteFolder{c: f.c, id: h.ID, name: h.Name})
	}
	return out, nil
}

func (f *remoteFolder) Clips(ctx context.Context) ([]host.MediaItem, error) {
	var list HandleList
	if err := f.c.do(ctx, http.MethodGet, "/v1/folders/"+escape(f.id)+"/clips", nil, &list); err != nil {
		return nil, err
	}
	out := make([]host.MediaItem, 0, len(list.Items))
	for _, h := range list.Items {
		out = append(out, newRemoteItem(h))
	}
	return out, nil
}

type remoteItem struct {
	id   string
	name string
}

func newRemoteItem(h Handle) remoteItem { return remoteItem{id: h.ID, name: h.Name} }

func (i remoteItem) ID() string   { return i.id }
func (i remoteItem) Name() string { return i.name }

type remoteTimeline struct {
	c    *Client
	id   string
	name string
}

func (t *remoteTimeline) ID() string   { return t.id }
func (t *remoteTimeline) Name() string { return t.name }

func (t *remoteTimeline) ItemsInTrack(ctx context.Context, track host.TrackType, index int) ([]host.Clip, error) {
	path := "/v1/timelines/" + escape(t.id) + "/tracks/" + escape(string(track)) + "/" + strconv.Itoa(index) + "/items"
	var list HandleList
	if err := t.c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	clips := make([]host.Clip, 0, len(list.Items))
	for _, h := range list.Items {
		clips = append(clips, &remoteClip{c: t.c, id: h.ID, name: h.Name})
	}
	return clips, nil
}

type remoteClip struct {
	c    *Client
	id   string
	name string
}

func (cl *remoteClip) ID() string   { return cl.id }
func (cl *remoteClip) Name() string { return cl.name }

func (cl *remoteClip) SetLUT(ctx context.Context, node int, path string) error {
	return cl.c.do(ctx, http.MethodPut, "/v1/clips/"+escape(cl.id)+"/lut", lutRequest{Node: node, Path: path}, nil)
}
