// Package host defines the capability interfaces dailies uses to drive an
// external editing application.
//
// Every value behind these interfaces is a proxy for state the host owns:
// projects, the media pool folder tree, imported media items, timelines, the
// clips placed on them, and the render queue. Nothing here caches host state;
// callers re-query when they need fresh data.
//
// Two implementations ship with the repository. The bridge package speaks a
// small JSON/HTTP protocol to a process running next to the editing
// application, and simhost keeps an in-memory object graph for tests and
// rehearsals.
package host
