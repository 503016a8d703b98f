// Package conversation routes inbound chat events to the per-user state machine
// and composes the reply for each transition.
//
// The package is transport-agnostic: callers translate platform updates into
// TextMessage or Callback values and deliver the returned Reply themselves.
package conversation
