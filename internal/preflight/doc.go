// Package preflight provides readiness checks for the host bridge, the
// grading and render settings, and the filesystem paths dailies writes to.
//
// `dailies check` runs RunAll and renders the results. The checks never touch
// a project on the host: the bridge is probed through its unauthenticated
// health endpoint only.
package preflight
