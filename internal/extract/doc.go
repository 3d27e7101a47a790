// Package extract finds email-shaped identities in rendered page content.
//
// Extraction is pure text work: no browser types appear here, so the
// package is exercised with plain strings in tests. Addresses are
// lowercased and deduplicated per call; cross-page deduplication is the
// session's job.
package extract
