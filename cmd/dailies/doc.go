// Package main hosts the dailies CLI entrypoint and command graph.
//
// `dailies run` is the interactive ingest, grade and export pass against the
// editing host. The remaining commands support it: `history` reads the run
// ledger, `check` runs preflight checks, `host simulate` serves an in-memory
// host over the bridge protocol for rehearsals, and `config` scaffolds and
// validates the TOML configuration.
//
// Keep this package lean: behaviour lives in the internal packages and is
// only surfaced here through commands and flags.
package main
