// Package preflight provides readiness checks for the filesystem paths and
// remote services mediaforge depends on.
//
// The CLI "mediaforge deps" command renders these results; RunAll covers
// everything the configuration enables. Remote checks are skipped when their
// credentials are not configured.
package preflight
