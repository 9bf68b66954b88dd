// Package server exposes the HTTP API: account signup and login, variant
// and relation CRUD with versioned edits, and the observability endpoints.
package server
