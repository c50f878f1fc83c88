// Package services defines shared plumbing consumed by the resolver, the
// transcode engine and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, operation names and chat message
//     IDs for logging.
//   - Structured error markers plus the Wrap helper so callers classify
//     failures with errors.Is instead of string matching.
//
// Subpackages hold clients for third-party services (Tenor).
package services
