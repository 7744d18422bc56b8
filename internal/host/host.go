package host

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports a lookup for an object the host does not have.
	ErrNotFound = errors.New("host: not found")
	// ErrHost reports an operation the host refused or failed to perform.
	ErrHost = errors.New("host: operation failed")
)

// Page names a workspace page of the editing application.
type Page string

const (
	PageMedia     Page = "media"
	PageCut       Page = "cut"
	PageEdit      Page = "edit"
	PageFusion    Page = "fusion"
	PageColor     Page = "color"
	PageFairlight Page = "fairlight"
	PageDeliver   Page = "deliver"
)

// Valid reports whether p names a known page.
func (p Page) Valid() bool {
	switch p {
	case PageMedia, PageCut, PageEdit, PageFusion, PageColor, PageFairlight, PageDeliver:
		return true
	}
	return false
}

// TrackType selects a timeline track family.
type TrackType string

const (
	TrackVideo    TrackType = "video"
	TrackAudio    TrackType = "audio"
	TrackSubtitle TrackType = "subtitle"
)

// Valid reports whether t names a known track family.
func (t TrackType) Valid() bool {
	switch t {
	case TrackVideo, TrackAudio, TrackSubtitle:
		return true
	}
	return false
}

// RenderMode selects whether timeline clips render to separate files.
type RenderMode int

const (
	RenderIndividualClips RenderMode = 0
	RenderSingleClip      RenderMode = 1
)

// RenderSettings is the settings record applied before queueing a render job.
// JSON keys match the names the host's scripting API expects.
type RenderSettings struct {
	TargetDir       string  `json:"TargetDir"`
	CustomName      string  `json:"CustomName"`
	SelectAllFrames bool    `json:"SelectAllFrames"`
	ExportVideo     bool    `json:"ExportVideo"`
	ExportAudio     bool    `json:"ExportAudio"`
	FormatWidth     int     `json:"FormatWidth"`
	FormatHeight    int     `json:"FormatHeight"`
	FrameRate       float64 `json:"FrameRate"`
	VideoQuality    int     `json:"VideoQuality"`
	AudioCodec      string  `json:"AudioCodec"`
	ColorSpaceTag   string  `json:"ColorSpaceTag"`
	GammaTag        string  `json:"GammaTag"`
}

// Host is the root of the editing application's object graph.
type Host interface {
	Projects() ProjectCatalog
	MediaStorage() MediaStorage
	OpenPage(ctx context.Context, page Page) error
}

// ProjectCatalog loads and creates projects by name. LoadProject returns
// ErrNotFound when no project has the given name.
type ProjectCatalog interface {
	LoadProject(ctx context.Context, name string) (Project, error)
	CreateProject(ctx context.Context, name string) (Project, error)
}

// Project is a loaded project. Loading a project makes it current on the host.
type Project interface {
	RenderQueue
	ID() string
	Name() string
	MediaPool() MediaPool
	SetSetting(ctx context.Context, key, value string) error
}

// MediaPool manages the project's folder tree and timeline creation.
// ImportMedia and CreateEmptyTimeline target the current folder.
type MediaPool interface {
	RootFolder(ctx context.Context) (Folder, error)
	AddSubFolder(ctx context.Context, parent Folder, name string) (Folder, error)
	SetCurrentFolder(ctx context.Context, folder Folder) error
	CreateEmptyTimeline(ctx context.Context, name string) (Timeline, error)
	AppendToTimeline(ctx context.Context, items []MediaItem) error
}

// Folder is a node of the media pool folder tree.
type Folder interface {
	ID() string
	Name() string
	SubFolders(ctx context.Context) ([]Folder, error)
	Clips(ctx context.Context) ([]MediaItem, error)
}

// MediaItem is an imported media file. dailies never mutates media items.
type MediaItem interface {
	ID() string
	Name() string
}

// MediaStorage imports files from disk into the current media pool folder.
type MediaStorage interface {
	ImportMedia(ctx context.Context, paths []string) ([]MediaItem, error)
}

// Timeline is an edit sequence. Creating a timeline makes it current, and
// MediaPool.AppendToTimeline appends to the current timeline.
type Timeline interface {
	ID() string
	Name() string
	ItemsInTrack(ctx context.Context, track TrackType, index int) ([]Clip, error)
}

// Clip is an item placed on a timeline track.
type Clip interface {
	ID() string
	Name() string
	SetLUT(ctx context.Context, node int, path string) error
}

// RenderQueue configures and runs export jobs for a project.
type RenderQueue interface {
	SetRenderMode(ctx context.Context, mode RenderMode) error
	SetFormatAndCodec(ctx context.Context, format, codec string) error
	SetRenderSettings(ctx context.Context, settings RenderSettings) error
	DeleteAllRenderJobs(ctx context.Context) error
	AddRenderJob(ctx context.Context) (string, error)
	StartRendering(ctx context.Context) error
	IsRenderingInProgress(ctx context.Context) (bool, error)
}

// Names returns the names of the given folders in order.
func Names(folders []Folder) []string {
	names := make([]string, 0, len(folders))
	for _, folder := range folders {
		names = append(names, folder.Name())
	}
	return names
}
