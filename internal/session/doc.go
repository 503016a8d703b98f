// Package session keeps per-user conversation sessions for the lifetime of the process.
package session
