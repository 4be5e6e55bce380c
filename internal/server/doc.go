// Package server implements the HTTP surface of the approval service
//
// This package provides the submission endpoint, the manager callback
// endpoint that resumes suspended workflows, workflow lookup, health
// checks, and a WebSocket stream of lifecycle events
package server
