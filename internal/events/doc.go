// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between components in the system. The solved-item tracker emits events without knowing
// which handlers will process them, so the sync coordinator and journal auto-logger can
// subscribe independently and in any order.
//
// The primary components are:
// - SolvedSetChangedEvent: Reports the complete solved set after a mutation
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
