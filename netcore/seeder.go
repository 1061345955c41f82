package netcore

import (
	"sync"

	"github.com/btcsuite/btcd/wire"

	"btcpeer/util/log"
)

const seedPort = 8333

// seeder implements SPEC_FULL.md §4.2 (C3): on an empty host store, it
// dials every configured DNS seed concurrently, asks each for its peer
// list, stores whatever any seed hands back, and completes on the first
// seed to answer. It is constructed fresh for each bootstrap and discarded
// once it completes.
//
// Grounded on original_source/src/network/protocol.cpp's protocol::seeds:
// first-success-wins, guarded by a finished flag so late arrivals from
// other in-flight seeds cannot re-fire the completion handler.
type seeder struct {
	hosts     HostStore
	handshake Handshaker
	seeds     []string
	logger    log.Logger

	mu         sync.Mutex
	finished   bool
	endedPaths int
	complete   func(error)
}

func newSeeder(hosts HostStore, handshake Handshaker, seeds []string, logger log.Logger) *seeder {
	return &seeder{
		hosts:     hosts,
		handshake: handshake,
		seeds:     seeds,
		logger:    logger,
	}
}

func (s *seeder) start(complete func(error)) {
	s.complete = complete
	for _, hostname := range s.seeds {
		go s.connectSeed(hostname)
	}
}

// connectSeed dials one seed and waits for its ADDR reply. The address
// subscription's err covers the case where the peer accepts and then
// closes the connection without ever sending addr: that still counts as
// this seed's failure, so endedPaths advances and the seeder can still
// reach "all seeds failed" instead of waiting on a reply that never
// comes.
func (s *seeder) connectSeed(hostname string) {
	ch, err := s.handshake.Connect(hostname, seedPort)
	if err != nil {
		s.logger.Error("Failed to connect to seed node", "seed", hostname, "err", err)
		s.errorCase(err)
		return
	}

	go func() {
		if err := ch.Send(&wire.MsgGetAddr{}); err != nil {
			s.logger.Error("Sending get_address message failed", "seed", hostname, "err", err)
			s.errorCase(err)
		}
	}()

	err = ch.SubscribeAddress(func(err error, msg *wire.MsgAddr) {
		if err != nil {
			s.logger.Error("Seed channel closed before delivering addresses", "seed", hostname, "err", err)
			s.errorCase(err)
			return
		}
		s.logger.Info("Storing seeded addresses", "seed", hostname, "count", len(msg.AddrList))
		for _, na := range msg.AddrList {
			if serr := s.hosts.Store(*na); serr != nil {
				s.logger.Error("Failed to store address from seed node", "err", serr)
			}
		}
		s.succeed()
	})
	if err != nil {
		s.logger.Error("Problem receiving addresses from seed node", "seed", hostname, "err", err)
		s.errorCase(err)
	}
}

func (s *seeder) errorCase(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.endedPaths++
	if s.endedPaths == len(s.seeds) {
		s.finished = true
		s.complete(ErrAllSeedsFailed{Last: err})
	}
}

func (s *seeder) succeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.complete(nil)
}
