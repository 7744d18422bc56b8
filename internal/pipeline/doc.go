// Package pipeline drives one dailies run against the host.
//
// Runner.Run resolves the project and media directory interactively, then
// walks a fixed stage list: create_folders, import_media, create_timeline,
// assemble_timeline, apply_lut, configure_render and confirm_and_render.
// Each stage must succeed before the next starts and every host failure ends
// the run; nothing is rolled back. After the render starts, the render
// package polls the queue until it drains or the configured wait runs out.
//
// Errors returned by Run carry the services sentinel markers, so callers can
// classify them with services.FailureStatus. When a ledger is supplied the
// run is recorded there, and outcomes are pushed through the notifier.
package pipeline
