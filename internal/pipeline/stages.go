package pipeline

import (
	"context"
	"fmt"
	"slices"

	"dailies/internal/config"
	"dailies/internal/history"
	"dailies/internal/host"
	"dailies/internal/logging"
	"dailies/internal/mediasource"
	"dailies/internal/naming"
	"dailies/internal/services"
)

// Stage names, in execution order.
const (
	stageLocateMedia      = "locate_media"
	stageCreateFolders    = "create_folders"
	stageImportMedia      = "import_media"
	stageCreateTimeline   = "create_timeline"
	stageAssembleTimeline = "assemble_timeline"
	stageApplyLUT         = "apply_lut"
	stageConfigureRender  = "configure_render"
	stageConfirmAndRender = "confirm_and_render"
	stageWaitRender       = "wait_render"
)

const (
	exportQuestion = "Would you like to proceed with export? (y/n): "
	exportStarting = "Moving on to export the clips. Standby"
	exportStopped  = "Stopped before exporting clips"
)

type stageFunc func(context.Context, *runState) error

type pipelineStage struct {
	name string
	run  stageFunc
}

// runState is the host handles gathered so far in one run.
type runState struct {
	stage         string
	project       host.Project
	pool          host.MediaPool
	source        mediasource.Source
	layout        naming.Layout
	datedFolder   host.Folder
	mediaFolder   host.Folder
	timelineDir   host.Folder
	timeline      host.Timeline
	importedCount int
	clips         []host.MediaItem
	jobID         string
}

func (s *runState) summary() history.Summary {
	out := history.Summary{
		MediaDir:  s.source.Dir,
		Folder:    s.layout.Folder,
		ClipCount: len(s.clips),
		JobID:     s.jobID,
	}
	if s.clips == nil {
		out.ClipCount = s.importedCount
	}
	if s.project != nil {
		out.Project = s.project.Name()
	}
	if s.timeline != nil {
		out.Timeline = s.timeline.Name()
	}
	return out
}

func (r *Runner) stages() []pipelineStage {
	return []pipelineStage{
		{name: stageCreateFolders, run: r.createFolders},
		{name: stageImportMedia, run: r.importMedia},
		{name: stageCreateTimeline, run: r.createTimeline},
		{name: stageAssembleTimeline, run: r.assembleTimeline},
		{name: stageApplyLUT, run: r.applyLUT},
		{name: stageConfigureRender, run: r.configureRender},
		{name: stageConfirmAndRender, run: r.confirmAndRender},
	}
}

func (r *Runner) createFolders(ctx context.Context, state *runState) error {
	root, err := state.pool.RootFolder(ctx)
	if err != nil {
		return services.Wrap(services.ErrHost, stageCreateFolders, "get root folder", "", err)
	}
	if root == nil {
		return services.Wrap(services.ErrHost, stageCreateFolders, "get root folder", "host returned no folder", nil)
	}
	siblings, err := root.SubFolders(ctx)
	if err != nil {
		return services.Wrap(services.ErrHost, stageCreateFolders, "list root folders", "", err)
	}
	state.layout = naming.Plan(r.now(), host.Names(siblings), r.cfg.Folders)

	if state.datedFolder, err = addFolder(ctx, state.pool, root, state.layout.Folder); err != nil {
		return err
	}
	if state.mediaFolder, err = addFolder(ctx, state.pool, state.datedFolder, state.layout.SourceMedia); err != nil {
		return err
	}
	if state.timelineDir, err = addFolder(ctx, state.pool, state.datedFolder, state.layout.Timeline); err != nil {
		return err
	}

	logging.WithContext(ctx, r.logger).Info("folders created",
		logging.String("folder", state.layout.Folder),
		logging.Int("existing_siblings", len(siblings)),
	)
	return nil
}

// addFolder creates name under parent. A missing handle is as fatal as an error.
func addFolder(ctx context.Context, pool host.MediaPool, parent host.Folder, name string) (host.Folder, error) {
	folder, err := pool.AddSubFolder(ctx, parent, name)
	if err != nil {
		return nil, services.Wrap(services.ErrHost, stageCreateFolders, "add folder", name, err)
	}
	if folder == nil {
		return nil, services.Wrap(services.ErrHost, stageCreateFolders, "add folder", name+": host returned no folder", nil)
	}
	return folder, nil
}

func (r *Runner) importMedia(ctx context.Context, state *runState) error {
	files, err := mediasource.Enumerate(state.source.Dir)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageImportMedia, "list media files", state.source.Dir, err)
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, stageImportMedia, "list media files",
			fmt.Sprintf("no files found in %s", state.source.Dir), nil)
	}
	if err := state.pool.SetCurrentFolder(ctx, state.mediaFolder); err != nil {
		return services.Wrap(services.ErrHost, stageImportMedia, "set current folder", state.layout.SourceMedia, err)
	}
	items, err := r.host.MediaStorage().ImportMedia(ctx, files)
	if err != nil {
		return services.Wrap(services.ErrHost, stageImportMedia, "import media", "", err)
	}
	state.importedCount = len(items)

	logger := logging.WithContext(ctx, r.logger)
	if len(items) < len(files) {
		logging.WarnWithContext(logger, "host skipped some media files", "import_partial",
			logging.Int("files", len(files)),
			logging.Int("imported", len(items)),
			logging.String(logging.FieldErrorHint, "check the host media pool for unsupported files"),
		)
	}
	logger.Info("media imported", logging.Int("files", len(files)), logging.Int("imported", len(items)))
	return nil
}

func (r *Runner) createTimeline(ctx context.Context, state *runState) error {
	if err := state.pool.SetCurrentFolder(ctx, state.timelineDir); err != nil {
		return services.Wrap(services.ErrHost, stageCreateTimeline, "set current folder", state.layout.Timeline, err)
	}
	timeline, err := state.pool.CreateEmptyTimeline(ctx, state.layout.TimelineName)
	if err != nil {
		return services.Wrap(services.ErrHost, stageCreateTimeline, "create timeline", state.layout.TimelineName, err)
	}
	if timeline == nil {
		return services.Wrap(services.ErrHost, stageCreateTimeline, "create timeline", state.layout.TimelineName+": host returned no timeline", nil)
	}
	state.timeline = timeline
	return nil
}

func (r *Runner) assembleTimeline(ctx context.Context, state *runState) error {
	clips, err := state.mediaFolder.Clips(ctx)
	if err != nil {
		return services.Wrap(services.ErrHost, stageAssembleTimeline, "list imported clips", state.layout.SourceMedia, err)
	}
	if len(clips) == 0 {
		return services.Wrap(services.ErrValidation, stageAssembleTimeline, "list imported clips",
			state.layout.SourceMedia+" is empty after import", nil)
	}
	if err := state.pool.AppendToTimeline(ctx, clips); err != nil {
		return services.Wrap(services.ErrHost, stageAssembleTimeline, "append to timeline", state.layout.TimelineName, err)
	}
	state.clips = clips
	logging.WithContext(ctx, r.logger).Info("timeline assembled",
		logging.String("timeline", state.layout.TimelineName),
		logging.Int("clips", len(clips)),
	)
	return nil
}

func (r *Runner) applyLUT(ctx context.Context, state *runState) error {
	if err := r.host.OpenPage(ctx, host.PageColor); err != nil {
		return services.Wrap(services.ErrHost, stageApplyLUT, "open page", string(host.PageColor), err)
	}
	grade := r.cfg.Grade
	items, err := state.timeline.ItemsInTrack(ctx, host.TrackVideo, grade.TrackIndex)
	if err != nil {
		return services.Wrap(services.ErrHost, stageApplyLUT, "list track items", fmt.Sprintf("video %d", grade.TrackIndex), err)
	}
	for _, clip := range items {
		if err := clip.SetLUT(ctx, grade.NodeIndex, grade.LUT); err != nil {
			return services.Wrap(services.ErrHost, stageApplyLUT, "set LUT", clip.Name(), err)
		}
	}
	logging.WithContext(ctx, r.logger).Info("LUT applied",
		logging.String("lut", grade.LUT),
		logging.Int("clips", len(items)),
	)
	return nil
}

func (r *Runner) configureRender(ctx context.Context, state *runState) error {
	if err := r.host.OpenPage(ctx, host.PageDeliver); err != nil {
		return services.Wrap(services.ErrHost, stageConfigureRender, "open page", string(host.PageDeliver), err)
	}
	rc := r.cfg.Render

	keys := make([]string, 0, len(rc.ProjectSettings))
	for key := range rc.ProjectSettings {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if err := state.project.SetSetting(ctx, key, rc.ProjectSettings[key]); err != nil {
			return services.Wrap(services.ErrHost, stageConfigureRender, "set project setting", key, err)
		}
	}

	mode, err := renderMode(rc.Mode)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageConfigureRender, "render mode", "", err)
	}
	if err := state.project.SetRenderMode(ctx, mode); err != nil {
		return services.Wrap(services.ErrHost, stageConfigureRender, "set render mode", rc.Mode, err)
	}
	if err := state.project.SetFormatAndCodec(ctx, rc.Format, rc.Codec); err != nil {
		return services.Wrap(services.ErrHost, stageConfigureRender, "set format and codec", rc.Format+"/"+rc.Codec, err)
	}
	if err := state.project.SetRenderSettings(ctx, renderSettings(rc, state.source.ExportsDir)); err != nil {
		return services.Wrap(services.ErrHost, stageConfigureRender, "set render settings", "", err)
	}
	if err := state.project.DeleteAllRenderJobs(ctx); err != nil {
		return services.Wrap(services.ErrHost, stageConfigureRender, "clear render queue", "", err)
	}
	return nil
}

func (r *Runner) confirmAndRender(ctx context.Context, state *runState) error {
	proceed := r.assumeYes
	if !proceed {
		var err error
		proceed, err = r.prompter.Confirm(ctx, exportQuestion, func(answer string) string {
			return answer + " is not a valid entry. Please enter y/n."
		})
		if err != nil {
			return err
		}
	}
	if !proceed {
		r.prompter.Say(exportStopped)
		return services.Wrap(services.ErrDeclined, stageConfirmAndRender, "confirm export", "operator declined", nil)
	}

	r.prompter.Say(exportStarting)
	jobID, err := state.project.AddRenderJob(ctx)
	if err != nil {
		return services.Wrap(services.ErrHost, stageConfirmAndRender, "add render job", "", err)
	}
	state.jobID = jobID
	if err := state.project.StartRendering(ctx); err != nil {
		return services.Wrap(services.ErrHost, stageConfirmAndRender, "start rendering", "", err)
	}
	logging.WithContext(ctx, r.logger).Info("render started", logging.String("job_id", jobID))
	return nil
}

func renderMode(mode string) (host.RenderMode, error) {
	switch mode {
	case config.RenderModeIndividual, "":
		return host.RenderIndividualClips, nil
	case config.RenderModeSingle:
		return host.RenderSingleClip, nil
	default:
		return 0, fmt.Errorf("unknown render.mode %q", mode)
	}
}

func renderSettings(rc config.Render, exportsDir string) host.RenderSettings {
	return host.RenderSettings{
		TargetDir:       exportsDir,
		CustomName:      rc.NameTemplate,
		SelectAllFrames: rc.SelectAllFrames,
		ExportVideo:     rc.ExportVideo,
		ExportAudio:     rc.ExportAudio,
		FormatWidth:     rc.Width,
		FormatHeight:    rc.Height,
		FrameRate:       rc.FrameRate,
		VideoQuality:    rc.VideoQuality,
		AudioCodec:      rc.AudioCodec,
		ColorSpaceTag:   rc.ColorSpaceTag,
		GammaTag:        rc.GammaTag,
	}
}
