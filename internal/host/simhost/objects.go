package simhost

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"dailies/internal/host"
)

// Project is a simulated project. Accessors return snapshots for assertions.
type Project struct {
	h               *Host
	id              string
	name            string
	root            *Folder
	currentFolder   *Folder
	timelines       []*Timeline
	currentTimeline *Timeline
	settings        map[string]string
	renderMode      host.RenderMode
	format          string
	codec           string
	renderSettings  host.RenderSettings
	jobs            []*Job
	rendering       bool
	pollsLeft       int
}

var _ host.Project = (*Project)(nil)

func (p *Project) ID() string   { return p.id }
func (p *Project) Name() string { return p.name }

// MediaPool implements host.Project.
func (p *Project) MediaPool() host.MediaPool { return mediaPool{p: p} }

// Root returns the media pool root folder.
func (p *Project) Root() *Folder { return p.root }

// CurrentFolder returns the folder imports currently target.
func (p *Project) CurrentFolder() *Folder {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	return p.currentFolder
}

// Timelines returns the timelines created in this project.
func (p *Project) Timelines() []*Timeline {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	return slices.Clone(p.timelines)
}

// Settings returns a copy of the project settings applied so far.
func (p *Project) Settings() map[string]string {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	return maps.Clone(p.settings)
}

// RenderSettings returns the last applied settings record.
func (p *Project) RenderSettings() host.RenderSettings {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	return p.renderSettings
}

// Jobs returns snapshots of the queued render jobs.
func (p *Project) Jobs() []Job {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	out := make([]Job, len(p.jobs))
	for i, job := range p.jobs {
		out[i] = *job
	}
	return out
}

func (p *Project) SetSetting(ctx context.Context, key, value string) error {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "SetSetting", key, value); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: setting key is empty", host.ErrHost)
	}
	p.settings[key] = value
	return nil
}

func (p *Project) SetRenderMode(ctx context.Context, mode host.RenderMode) error {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "SetRenderMode", strconv.Itoa(int(mode))); err != nil {
		return err
	}
	if mode != host.RenderIndividualClips && mode != host.RenderSingleClip {
		return fmt.Errorf("%w: unknown render mode %d", host.ErrHost, mode)
	}
	p.renderMode = mode
	return nil
}

func (p *Project) SetFormatAndCodec(ctx context.Context, format, codec string) error {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "SetFormatAndCodec", format, codec); err != nil {
		return err
	}
	if format == "" || codec == "" {
		return fmt.Errorf("%w: format and codec are required", host.ErrHost)
	}
	p.format, p.codec = format, codec
	return nil
}

func (p *Project) SetRenderSettings(ctx context.Context, settings host.RenderSettings) error {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "SetRenderSettings", settings.TargetDir, settings.CustomName); err != nil {
		return err
	}
	p.renderSettings = settings
	return nil
}

func (p *Project) DeleteAllRenderJobs(ctx context.Context) error {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "DeleteAllRenderJobs"); err != nil {
		return err
	}
	p.jobs = nil
	return nil
}

func (p *Project) AddRenderJob(ctx context.Context) (string, error) {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "AddRenderJob"); err != nil {
		return "", err
	}
	if p.currentTimeline == nil {
		return "", fmt.Errorf("%w: no current timeline", host.ErrHost)
	}
	if p.renderSettings.TargetDir == "" {
		return "", fmt.Errorf("%w: render target directory not set", host.ErrHost)
	}
	job := &Job{
		ID:       p.h.nextID("job"),
		Timeline: p.currentTimeline.name,
		Mode:     p.renderMode,
		Format:   p.format,
		Codec:    p.codec,
		Settings: p.renderSettings,
	}
	p.jobs = append(p.jobs, job)
	return job.ID, nil
}

func (p *Project) StartRendering(ctx context.Context) error {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "StartRendering"); err != nil {
		return err
	}
	if len(p.jobs) == 0 {
		return fmt.Errorf("%w: render queue is empty", host.ErrHost)
	}
	p.rendering = true
	p.pollsLeft = p.h.renderPolls
	return nil
}

func (p *Project) IsRenderingInProgress(ctx context.Context) (bool, error) {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "IsRenderingInProgress"); err != nil {
		return false, err
	}
	if !p.rendering {
		return false, nil
	}
	if p.pollsLeft > 0 {
		p.pollsLeft--
		return true, nil
	}
	p.rendering = false
	for _, job := range p.jobs {
		job.Completed = true
	}
	return false, nil
}

func (p *Project) findFolder(id string) *Folder {
	var walk func(*Folder) *Folder
	walk = func(f *Folder) *Folder {
		if f.id == id {
			return f
		}
		for _, child := range f.children {
			if found := walk(child); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(p.root)
}

func (p *Project) findItem(id string) *MediaItem {
	var walk func(*Folder) *MediaItem
	walk = func(f *Folder) *MediaItem {
		for _, item := range f.clips {
			if item.id == id {
				return item
			}
		}
		for _, child := range f.children {
			if found := walk(child); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(p.root)
}

type mediaPool struct{ p *Project }

func (m mediaPool) RootFolder(ctx context.Context) (host.Folder, error) {
	p := m.p
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "GetRootFolder"); err != nil {
		return nil, err
	}
	return p.root, nil
}

func (m mediaPool) AddSubFolder(ctx context.Context, parent host.Folder, name string) (host.Folder, error) {
	p := m.p
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	parentID := ""
	if parent != nil {
		parentID = parent.ID()
	}
	if err := p.h.begin(ctx, "AddSubFolder", parentID, name); err != nil {
		return nil, err
	}
	target := p.findFolder(parentID)
	if target == nil {
		return nil, fmt.Errorf("%w: folder %q", host.ErrNotFound, parentID)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: folder name is empty", host.ErrHost)
	}
	for _, child := range target.children {
		if child.name == name {
			return nil, fmt.Errorf("%w: folder %q already exists in %q", host.ErrHost, name, target.name)
		}
	}
	folder := &Folder{h: p.h, id: p.h.nextID("folder"), name: name}
	target.children = append(target.children, folder)
	return folder, nil
}

func (m mediaPool) SetCurrentFolder(ctx context.Context, folder host.Folder) error {
	p := m.p
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	id := ""
	if folder != nil {
		id = folder.ID()
	}
	if err := p.h.begin(ctx, "SetCurrentFolder", id); err != nil {
		return err
	}
	target := p.findFolder(id)
	if target == nil {
		return fmt.Errorf("%w: folder %q", host.ErrNotFound, id)
	}
	p.currentFolder = target
	return nil
}

func (m mediaPool) CreateEmptyTimeline(ctx context.Context, name string) (host.Timeline, error) {
	p := m.p
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	if err := p.h.begin(ctx, "CreateEmptyTimeline", name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: timeline name is empty", host.ErrHost)
	}
	for _, existing := range p.timelines {
		if existing.name == name {
			return nil, fmt.Errorf("%w: timeline %q already exists", host.ErrHost, name)
		}
	}
	tl := &Timeline{h: p.h, id: p.h.nextID("timeline"), name: name, folder: p.currentFolder}
	p.timelines = append(p.timelines, tl)
	p.currentFolder.timelines = append(p.currentFolder.timelines, tl)
	p.currentTimeline = tl
	return tl, nil
}

func (m mediaPool) AppendToTimeline(ctx context.Context, items []host.MediaItem) error {
	p := m.p
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID())
	}
	if err := p.h.begin(ctx, "AppendToTimeline", ids...); err != nil {
		return err
	}
	if p.currentTimeline == nil {
		return fmt.Errorf("%w: no current timeline", host.ErrHost)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: nothing to append", host.ErrHost)
	}
	resolved := make([]*MediaItem, 0, len(ids))
	for _, id := range ids {
		item := p.findItem(id)
		if item == nil {
			return fmt.Errorf("%w: media item %q", host.ErrNotFound, id)
		}
		resolved = append(resolved, item)
	}
	for _, item := range resolved {
		clip := &Clip{h: p.h, id: p.h.nextID("clip"), name: item.name, item: item, luts: make(map[int]string)}
		p.currentTimeline.video = append(p.currentTimeline.video, clip)
	}
	return nil
}

// Folder is a simulated media pool folder.
type Folder struct {
	h         *Host
	id        string
	name      string
	children  []*Folder
	clips     []*MediaItem
	timelines []*Timeline
}

var _ host.Folder = (*Folder)(nil)

func (f *Folder) ID() string   { return f.id }
func (f *Folder) Name() string { return f.name }

func (f *Folder) SubFolders(ctx context.Context) ([]host.Folder, error) {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	if err := f.h.begin(ctx, "GetSubFolderList", f.id); err != nil {
		return nil, err
	}
	out := make([]host.Folder, 0, len(f.children))
	for _, child := range f.children {
		out = append(out, child)
	}
	return out, nil
}

func (f *Folder) Clips(ctx context.Context) ([]host.MediaItem, error) {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	if err := f.h.begin(ctx, "GetClipList", f.id); err != nil {
		return nil, err
	}
	out := make([]host.MediaItem, 0, len(f.clips))
	for _, item := range f.clips {
		out = append(out, item)
	}
	return out, nil
}

// Child returns the direct subfolder with the given name.
func (f *Folder) Child(name string) (*Folder, bool) {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	for _, child := range f.children {
		if child.name == name {
			return child, true
		}
	}
	return nil, false
}

// ChildNames lists direct subfolder names in creation order.
func (f *Folder) ChildNames() []string {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	names := make([]string, 0, len(f.children))
	for _, child := range f.children {
		names = append(names, child.name)
	}
	return names
}

// ItemNames lists the media item names in this folder in import order.
func (f *Folder) ItemNames() []string {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	names := make([]string, 0, len(f.clips))
	for _, item := range f.clips {
		names = append(names, item.name)
	}
	return names
}

// TimelineNames lists timelines created while this folder was current.
func (f *Folder) TimelineNames() []string {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	names := make([]string, 0, len(f.timelines))
	for _, tl := range f.timelines {
		names = append(names, tl.name)
	}
	return names
}

// MediaItem is a simulated imported file.
type MediaItem struct {
	id   string
	name string
	path string
}

var _ host.MediaItem = (*MediaItem)(nil)

func (m *MediaItem) ID() string   { return m.id }
func (m *MediaItem) Name() string { return m.name }

// Path returns the file the item was imported from.
func (m *MediaItem) Path() string { return m.path }

// Timeline is a simulated timeline with a single video track.
type Timeline struct {
	h      *Host
	id     string
	name   string
	folder *Folder
	video  []*Clip
}

var _ host.Timeline = (*Timeline)(nil)

func (t *Timeline) ID() string   { return t.id }
func (t *Timeline) Name() string { return t.name }

func (t *Timeline) ItemsInTrack(ctx context.Context, track host.TrackType, index int) ([]host.Clip, error) {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	if err := t.h.begin(ctx, "GetItemListInTrack", t.id, string(track), strconv.Itoa(index)); err != nil {
		return nil, err
	}
	if !track.Valid() || index < 1 {
		return nil, fmt.Errorf("%w: invalid track %s %d", host.ErrHost, track, index)
	}
	if track != host.TrackVideo || index != 1 {
		return []host.Clip{}, nil
	}
	out := make([]host.Clip, 0, len(t.video))
	for _, clip := range t.video {
		out = append(out, clip)
	}
	return out, nil
}

// Clips returns the clips on video track 1.
func (t *Timeline) Clips() []*Clip {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	return slices.Clone(t.video)
}

// Clip is a simulated timeline item.
type Clip struct {
	h    *Host
	id   string
	name string
	item *MediaItem
	luts map[int]string
}

var _ host.Clip = (*Clip)(nil)

func (c *Clip) ID() string   { return c.id }
func (c *Clip) Name() string { return c.name }

func (c *Clip) SetLUT(ctx context.Context, node int, path string) error {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	if err := c.h.begin(ctx, "SetLUT", c.id, strconv.Itoa(node), path); err != nil {
		return err
	}
	if node < 1 {
		return fmt.Errorf("%w: invalid node index %d", host.ErrHost, node)
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: LUT path is empty", host.ErrHost)
	}
	c.luts[node] = path
	return nil
}

// LUT returns the LUT assigned to a node, if any.
func (c *Clip) LUT(node int) (string, bool) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	path, ok := c.luts[node]
	return path, ok
}
