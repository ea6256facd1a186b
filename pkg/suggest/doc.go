// Package suggest holds the bookkeeping for suggestions that are shown but not yet
// fully accepted: the fingerprint cache and the helpers that split a suggestion into
// the part a user accepts and the part that remains.
package suggest
