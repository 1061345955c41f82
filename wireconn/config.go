package wireconn

import (
	"time"

	"github.com/btcsuite/btcd/wire"
)

// Config holds everything the wire collaborators need to dial, accept, and
// speak the version/verack handshake described in SPEC_FULL.md §4.9.
type Config struct {
	Net              wire.BitcoinNet
	ProtocolVersion  uint32
	UserAgent        string
	Services         wire.ServiceFlag
	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
}

// DefaultConfig mirrors mainnet defaults; cmd/peerd overrides the timeouts
// from cfg.P2pConfig.
func DefaultConfig() Config {
	return Config{
		Net:              wire.MainNet,
		ProtocolVersion:  wire.ProtocolVersion,
		UserAgent:        "/btcpeer:0.1.0/",
		Services:         0,
		DialTimeout:      10 * time.Second,
		HandshakeTimeout: 20 * time.Second,
	}
}
