package simhost

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"dailies/internal/host"
)

// Call is one journal entry: the operation name and its string arguments.
type Call struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	return c.Op + "(" + strings.Join(c.Args, ", ") + ")"
}

// Job is a queued render job snapshot.
type Job struct {
	ID        string
	Timeline  string
	Mode      host.RenderMode
	Format    string
	Codec     string
	Settings  host.RenderSettings
	Completed bool
}

// Option customizes a simulated host.
type Option func(*Host)

// WithProjects seeds existing projects by name.
func WithProjects(names ...string) Option {
	return func(h *Host) {
		for _, name := range names {
			h.projects[name] = h.newProject(name)
		}
	}
}

// WithRenderPolls sets how many status polls report "in progress" before a
// started render completes.
func WithRenderPolls(polls int) Option {
	return func(h *Host) {
		h.renderPolls = max(polls, 0)
	}
}

// Host is an in-memory host.Host. It is safe for concurrent use so it can sit
// behind the bridge server.
type Host struct {
	mu          sync.Mutex
	seq         int
	projects    map[string]*Project
	current     *Project
	page        host.Page
	journal     []Call
	failures    map[string]error
	renderPolls int
}

var _ host.Host = (*Host)(nil)

// New constructs an empty simulated host.
func New(opts ...Option) *Host {
	h := &Host{
		projects: make(map[string]*Project),
		failures: make(map[string]error),
		page:     host.PageMedia,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FailOn makes every later call of op fail with err wrapped in host.ErrHost.
// A nil err clears the injection.
func (h *Host) FailOn(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failures, op)
		return
	}
	h.failures[op] = err
}

// Calls returns a copy of the call journal.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Call, len(h.journal))
	for i, call := range h.journal {
		out[i] = Call{Op: call.Op, Args: slices.Clone(call.Args)}
	}
	return out
}

// Ops returns the journal as operation names only.
func (h *Host) Ops() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ops := make([]string, len(h.journal))
	for i, call := range h.journal {
		ops[i] = call.Op
	}
	return ops
}

// Page returns the page most recently opened.
func (h *Host) Page() host.Page {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.page
}

// Project returns a seeded or created project by name.
func (h *Host) Project(name string) (*Project, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.projects[name]
	return p, ok
}

// Projects implements host.Host.
func (h *Host) Projects() host.ProjectCatalog { return catalog{h: h} }

// MediaStorage implements host.Host.
func (h *Host) MediaStorage() host.MediaStorage { return storage{h: h} }

// OpenPage implements host.Host.
func (h *Host) OpenPage(ctx context.Context, page host.Page) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.begin(ctx, "OpenPage", string(page)); err != nil {
		return err
	}
	if !page.Valid() {
		return fmt.Errorf("%w: unknown page %q", host.ErrHost, page)
	}
	h.page = page
	return nil
}

// begin journals a call and applies failure injection. Callers hold h.mu.
func (h *Host) begin(ctx context.Context, op string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.journal = append(h.journal, Call{Op: op, Args: args})
	if injected, ok := h.failures[op]; ok {
		return fmt.Errorf("%w: %s: %w", host.ErrHost, op, injected)
	}
	return nil
}

func (h *Host) nextID(prefix string) string {
	h.seq++
	return fmt.Sprintf("%s-%d", prefix, h.seq)
}

func (h *Host) newProject(name string) *Project {
	p := &Project{h: h, id: h.nextID("project"), name: name, settings: make(map[string]string)}
	p.root = &Folder{h: h, id: h.nextID("folder"), name: "Master"}
	p.currentFolder = p.root
	return p
}

type catalog struct{ h *Host }

func (c catalog) LoadProject(ctx context.Context, name string) (host.Project, error) {
	h := c.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.begin(ctx, "LoadProject", name); err != nil {
		return nil, err
	}
	p, ok := h.projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: project %q", host.ErrNotFound, name)
	}
	h.current = p
	return p, nil
}

func (c catalog) CreateProject(ctx context.Context, name string) (host.Project, error) {
	h := c.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.begin(ctx, "CreateProject", name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project name is empty", host.ErrHost)
	}
	if _, exists := h.projects[name]; exists {
		return nil, fmt.Errorf("%w: project %q already exists", host.ErrHost, name)
	}
	p := h.newProject(name)
	h.projects[name] = p
	h.current = p
	return p, nil
}

type storage struct{ h *Host }

func (s storage) ImportMedia(ctx context.Context, paths []string) ([]host.MediaItem, error) {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.begin(ctx, "ImportMedia", paths...); err != nil {
		return nil, err
	}
	if h.current == nil {
		return nil, fmt.Errorf("%w: no project loaded", host.ErrHost)
	}
	folder := h.current.currentFolder
	items := make([]host.MediaItem, 0, len(paths))
	for _, path := range paths {
		item := &MediaItem{id: h.nextID("item"), name: filepath.Base(path), path: path}
		folder.clips = append(folder.clips, item)
		items = append(items, item)
	}
	return items, nil
}
