// Package app contains the application service that orchestrates accounts,
// variants, relations, and the edit history.
package app
