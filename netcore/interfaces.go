package netcore

import "github.com/btcsuite/btcd/wire"

// HostStore is the persisted pool of known peer addresses (C1). The core
// never reaches into the store's internals; it only ever Loads/Saves it
// once, per the orchestrator's lifecycle, and Stores/Fetches from it on an
// ongoing basis. See SPEC_FULL.md §6.1.
type HostStore interface {
	Load(path string) error
	Save(path string) error

	// Store inserts addr, which may be a duplicate; duplicate inserts are
	// not an error.
	Store(addr NetworkAddress) error

	FetchCount() (int, error)

	// FetchAddress returns one address, picked uniformly at random among
	// the known addresses. It returns ErrNoAddress if the store is empty.
	FetchAddress() (NetworkAddress, error)
}

// Handshaker performs the TCP connect and the post-connect handshake for
// the core (C2). The core only ever calls Start once, at orchestrator
// startup, and Connect any number of times thereafter.
type Handshaker interface {
	// Start prepares whatever shared state the handshake protocol needs.
	Start() error

	// Connect dials host:port and performs the handshake, returning a
	// live, post-handshake Channel on success.
	Connect(host string, port uint16) (Channel, error)
}

// ChannelHandler receives the next relayed Channel (C6).
type ChannelHandler func(Channel)

// Channel is an opaque handle to a live, post-handshake peer connection
// (C2). Both SubscribeAddress and SubscribeStop are single-shot: each
// fires its handler at most once. The address handler carries an error so
// a channel that dies before ever delivering an addr message still fires
// it exactly once, with err set and msg nil, instead of leaving the
// subscriber waiting forever. See SPEC_FULL.md §6.3 and §9.
type Channel interface {
	Send(msg wire.Message) error
	SubscribeAddress(handler func(err error, msg *wire.MsgAddr)) error
	SubscribeStop(handler func()) error
	String() string
}

// Acceptor is returned by a Listener and yields inbound Channels one at a
// time (C5).
type Acceptor interface {
	Accept() (Channel, error)
	Close() error
}

// Listener begins listening for inbound connections on port.
type Listener interface {
	Listen(port uint16) (Acceptor, error)
}
