// Package eds defines the contract between the collation pipeline and
// the event-driven-server-hosted worker processes that actually open
// connections and service HTTP requests (the httpmsgs mode's
// consumer), grounded on lib/net/eds.h and lib/net/eds_types.h.
//
// This package is contract-only: it names the interfaces a hosted
// reactor and its clients must satisfy, with no socket or process
// implementation. Wiring a real epoll/kqueue reactor and the
// sandboxed-subprocess transport it drives is out of scope.
package eds

import "os"

// ClientID identifies one client connection within a Reactor.
type ClientID int

// Client is one connection (or spawned-process pipe) a Reactor is
// multiplexing, grounded on struct eds_client.
type Client interface {
	// ID returns the client's identity within its Reactor.
	ID() ClientID

	// Send queues data for writing and arms next as the transition to
	// invoke once the write (and any further read) is ready.
	Send(data []byte, next Transition) error

	// Suspend removes the client from poll-readiness until Resume is
	// called, grounded on eds_client_suspend.
	Suspend()

	// Resume re-arms the client for poll-readiness.
	Resume()

	// Close tears down the client's connection or pipe.
	Close() error
}

// Transition is the pair of callbacks a Reactor invokes when a Client
// becomes readable or writable, grounded on eds_client_transition.
type Transition struct {
	OnReadable func(Client) error
	OnWritable func(Client) error
}

// Reactor multiplexes many Clients over one event loop and can spawn
// sandboxed worker processes to service them, grounded on struct
// eds_service and on lib/net/eds_types.h's service lifecycle hooks.
type Reactor interface {
	// Spawn starts argv as a worker process under the reactor's
	// sandbox policy, returning its pid.
	Spawn(argv []string) (pid int, err error)

	// ClientByID resolves a previously accepted client by id.
	ClientByID(id ClientID) (Client, bool)
}

// FileResult is what a store-backed file open returns across the
// eds-hosted service socket: either an open file or the error that
// prevented it, grounded on store's open() response.
type FileResult struct {
	File *os.File
	Err  error
}
