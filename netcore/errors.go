package netcore

import "fmt"

// ErrNoAddress is returned by a HostStore whose FetchAddress has nothing
// to offer because the store is empty.
type ErrNoAddress struct{}

func (e ErrNoAddress) Error() string { return "no address available" }

// ErrDuplicateAddress is raised internally when tryConnect's dedup check
// finds addr already present in outbound. It never crosses the package
// boundary; it only drives a log line and a retry.
type ErrDuplicateAddress struct {
	Addr NetworkAddress
}

func (e ErrDuplicateAddress) Error() string {
	return fmt.Sprintf("already connected to %s", addrKey(e.Addr))
}

// ErrAllSeedsFailed is the error the Seeder's completion fires with when
// every seed in the DNS seed list failed to connect, send, or deliver an
// ADDR message.
type ErrAllSeedsFailed struct {
	Last error
}

func (e ErrAllSeedsFailed) Error() string {
	return fmt.Sprintf("all DNS seeds failed, last error: %v", e.Last)
}

// ErrProtocolNotRunning is returned by operations that require the
// Protocol to be in the Running state.
type ErrProtocolNotRunning struct{}

func (e ErrProtocolNotRunning) Error() string { return "protocol is not running" }
