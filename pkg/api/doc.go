// Package api defines the core data types for the approval workflow service
//
// This package contains all the shared types used across the service,
// including the workflow checkpoint entity, status transitions, the expense
// report payload, and HTTP messages
package api
