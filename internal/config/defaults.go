package config

const (
	defaultStateDir              = "~/.local/share/dailies"
	defaultLogDir                = "~/.local/share/dailies/logs"
	defaultBridgeURL             = "http://127.0.0.1:7788"
	defaultHostRequestTimeout    = 30
	defaultDateLayout            = "2006-01-02"
	defaultSourceMediaFolder     = "source_media"
	defaultTimelineFolder        = "timeline"
	defaultTimelineSuffix        = "_timeline"
	defaultLUTNode               = 1
	defaultGradeTrack            = 1
	defaultExportsDirName        = "resolve_exports"
	defaultRenderMode            = RenderModeIndividual
	defaultRenderFormat          = "mov"
	defaultRenderCodec           = "H264"
	defaultNameTemplate          = "%{Reel Name}_Resolve"
	defaultRenderWidth           = 1920
	defaultRenderHeight          = 1080
	defaultRenderFrameRate       = 23.976
	defaultVideoQuality          = 1
	defaultAudioCodec            = "Linear PCM"
	defaultColorSpaceTag         = "Same as Project"
	defaultGammaTag              = "Same as Project"
	defaultPollIntervalMillis    = 1000
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	sourceFrameCountSettingKey   = "Add source frame count to filename"
	sourceFrameCountSettingValue = "false"
)

// DefaultLUT is the grade applied when neither grade.lut nor DAILIES_LUT is set.
const DefaultLUT = "Film Looks/DCI-P3 Fujifilm 3513DI D55.cube"

// Render modes accepted by render.mode.
const (
	RenderModeIndividual = "individual"
	RenderModeSingle     = "single"
)

// Environment variables consulted when the matching config value is empty.
const (
	EnvHostURL   = "DAILIES_HOST_URL"
	EnvHostToken = "DAILIES_HOST_TOKEN"
	EnvLUT       = "DAILIES_LUT"
	EnvNtfyTopic = "DAILIES_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Host: Host{
			RequestTimeout: defaultHostRequestTimeout,
		},
		Folders: Folders{
			DateLayout:     defaultDateLayout,
			SourceMedia:    defaultSourceMediaFolder,
			Timeline:       defaultTimelineFolder,
			TimelineSuffix: defaultTimelineSuffix,
		},
		Grade: Grade{
			NodeIndex:  defaultLUTNode,
			TrackIndex: defaultGradeTrack,
		},
		Render: Render{
			ExportsDirName:  defaultExportsDirName,
			Mode:            defaultRenderMode,
			Format:          defaultRenderFormat,
			Codec:           defaultRenderCodec,
			NameTemplate:    defaultNameTemplate,
			SelectAllFrames: true,
			ExportVideo:     true,
			ExportAudio:     true,
			Width:           defaultRenderWidth,
			Height:          defaultRenderHeight,
			FrameRate:       defaultRenderFrameRate,
			VideoQuality:    defaultVideoQuality,
			AudioCodec:      defaultAudioCodec,
			ColorSpaceTag:   defaultColorSpaceTag,
			GammaTag:        defaultGammaTag,
			ProjectSettings: defaultProjectSettings(),
		},
		Monitor: Monitor{
			PollIntervalMillis: defaultPollIntervalMillis,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultProjectSettings() map[string]string {
	return map[string]string{sourceFrameCountSettingKey: sourceFrameCountSettingValue}
}
