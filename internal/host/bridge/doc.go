// Package bridge carries the host object graph over JSON/HTTP.
//
// The editing application only exposes its scripting API in-process, so a
// small bridge runs next to it and serves the /v1 routes defined by NewRouter.
// Client implements host.Host against that server: every host object is
// addressed by the opaque handle ID the server issued for it. A 404 response
// surfaces as host.ErrNotFound and every other failure as host.ErrHost.
//
// NewRouter accepts any host.Host, which lets `dailies host simulate` serve
// the in-memory simhost for dry runs and lets tests drive Client end to end.
package bridge
