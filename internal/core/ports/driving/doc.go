// Package driving provides interfaces for the application's entry points
// (primary/inbound ports). The CLI adapter drives the core through these
// interfaces; the services package implements them.
package driving
