// Package app provides the application service layer.
//
// Orchestrates use cases: building the sentiment settings form, validating submissions,
// and reconciling the sentiment score field against the submitted settings.
// Sits between HTTP handlers / CLI and domain repositories. Depends on domain interfaces, not concrete implementations.
package app
