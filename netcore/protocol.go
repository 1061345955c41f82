package netcore

import (
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/wire"

	"btcpeer/cfg"
	"btcpeer/util"
	"btcpeer/util/log"
)

type lifecycleState int

const (
	stateIdle lifecycleState = iota
	stateStarting
	stateRunning
	stateStopping
	stateStopped
)

type connectionInfo struct {
	addr NetworkAddress
	ch   Channel
}

// Protocol is the orchestrator (C7): it owns the host store, the
// handshaker, the listener, and the outbound/inbound/subscriber state, and
// wires the Seeder, the connection maintainer, and the channel fan-out
// together. Outbound and inbound are mutated only with mu held, which
// stands in for the serialization domain described in SPEC_FULL.md §5; the
// subscriber queue is guarded by the fan-out's own mutex.
//
// Grounded on original_source/src/network/protocol.cpp's protocol class
// for the algorithm, and on p2p/adapter.go's Adapter for the Go lifecycle
// idiom (a struct owning its collaborators, started and stopped once).
type Protocol struct {
	hosts     HostStore
	handshake Handshaker
	listener  Listener
	logger    log.Logger

	hostsFilename string
	maxOutbound   int
	listenPort    uint16
	dnsSeeds      []string

	mu       sync.Mutex
	st       lifecycleState
	outbound []connectionInfo
	inbound  []Channel
	acceptor Acceptor
	dialing  *util.StringSet

	fanout channelFanOut
}

// NewProtocol constructs a Protocol in the Idle state. Start must be called
// before it does anything.
func NewProtocol(config *cfg.P2pConfig, hosts HostStore, handshake Handshaker, listener Listener, logger log.Logger) *Protocol {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	seeds := config.DNSSeeds
	if len(seeds) == 0 {
		seeds = cfg.DefaultDNSSeeds
	}
	return &Protocol{
		hosts:         hosts,
		handshake:     handshake,
		listener:      listener,
		logger:        logger,
		hostsFilename: config.HostsFilename,
		maxOutbound:   config.MaxOutbound,
		listenPort:    config.ListenPort,
		dnsSeeds:      seeds,
		st:            stateIdle,
		dialing:       util.NewStringSet(),
	}
}

// Start runs the bootstrap and handshake-service init paths concurrently
// and invokes completion exactly once, per SPEC_FULL.md §4.1 and §5.
func (p *Protocol) Start(completion func(error)) {
	p.mu.Lock()
	if p.st != stateIdle {
		p.mu.Unlock()
		completion(ErrProtocolNotRunning{})
		return
	}
	p.st = stateStarting
	p.mu.Unlock()

	var successes int32
	var once sync.Once

	finish := func(err error) {
		once.Do(func() {
			p.mu.Lock()
			if err != nil {
				p.st = stateStopped
			} else {
				p.st = stateRunning
			}
			p.mu.Unlock()

			completion(err)
			if err == nil {
				p.run()
			}
		})
	}

	pathDone := func(err error) {
		if err != nil {
			finish(err)
			return
		}
		if atomic.AddInt32(&successes, 1) == 2 {
			finish(nil)
		}
	}

	go p.bootstrap(pathDone)
	go func() {
		pathDone(p.handshake.Start())
	}()
}

func (p *Protocol) bootstrap(done func(error)) {
	if err := p.hosts.Load(p.hostsFilename); err != nil {
		p.logger.Error("Could not load hosts file", "err", err)
		done(err)
		return
	}

	count, err := p.hosts.FetchCount()
	if err != nil {
		p.logger.Error("Unable to check hosts empty", "err", err)
		done(err)
		return
	}

	if count != 0 {
		done(nil)
		return
	}

	sd := newSeeder(p.hosts, p.handshake, p.dnsSeeds, p.logger)
	sd.start(done)
}

// run starts the connection maintainer and the inbound listener. It is
// called exactly once, after Start's completion has fired with success.
func (p *Protocol) run() {
	p.tryConnect()

	acceptor, err := p.listener.Listen(p.listenPort)
	if err != nil {
		p.logger.Error("Error while listening", "err", err)
		return
	}

	p.mu.Lock()
	p.acceptor = acceptor
	p.mu.Unlock()

	go p.acceptLoop(acceptor)
}

// Stop persists the host store and transitions to Stopped. The core never
// closes peer channels itself; completion fires with the save result.
func (p *Protocol) Stop(completion func(error)) {
	p.mu.Lock()
	if p.st != stateRunning {
		p.mu.Unlock()
		completion(ErrProtocolNotRunning{})
		return
	}
	p.st = stateStopping
	acceptor := p.acceptor
	p.mu.Unlock()

	if acceptor != nil {
		acceptor.Close()
	}

	go func() {
		err := p.hosts.Save(p.hostsFilename)
		if err != nil {
			p.logger.Error("Failed to save hosts", "file", p.hostsFilename, "err", err)
		}

		p.mu.Lock()
		p.st = stateStopped
		p.mu.Unlock()

		completion(err)
	}()
}

// FetchConnectionCount returns the number of outbound connections.
// Inbound channels are intentionally not counted, matching historical
// behavior (SPEC_FULL.md §4.1).
func (p *Protocol) FetchConnectionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outbound)
}

// SubscribeChannel enqueues handler to receive the next relayed Channel.
func (p *Protocol) SubscribeChannel(handler ChannelHandler) {
	p.fanout.subscribe(handler)
}

func (p *Protocol) isRunningLocked() bool {
	return p.st == stateRunning
}

func (p *Protocol) hasOutboundLocked(addr NetworkAddress) bool {
	for _, ci := range p.outbound {
		if sameAddr(ci.addr, addr) {
			return true
		}
	}
	return false
}

func (p *Protocol) setupNewChannel(ch Channel) {
	if err := ch.SubscribeStop(func() { p.channelStopped(ch) }); err != nil {
		p.logger.Error("Failed to subscribe to channel stop", "channel", ch, "err", err)
	}

	addrSub := func(err error, msg *wire.MsgAddr) {
		if err != nil {
			p.logger.Info("Channel closed before delivering addresses", "channel", ch, "err", err)
			return
		}
		p.storeAddresses(msg)
	}
	if err := ch.SubscribeAddress(addrSub); err != nil {
		p.logger.Error("Problem receiving addresses", "channel", ch, "err", err)
	}

	go func() {
		if err := ch.Send(&wire.MsgGetAddr{}); err != nil {
			p.logger.Error("Sending error", "channel", ch, "err", err)
		}
	}()

	p.fanout.relay(ch)
}

func (p *Protocol) storeAddresses(msg *wire.MsgAddr) {
	p.logger.Info("Storing addresses", "count", len(msg.AddrList))
	for _, na := range msg.AddrList {
		if err := p.hosts.Store(*na); err != nil {
			p.logger.Error("Failed to store address", "err", err)
		}
	}
}

func (p *Protocol) channelStopped(ch Channel) {
	p.mu.Lock()
	removedOutbound := false
	for i, ci := range p.outbound {
		if ci.ch == ch {
			p.outbound = append(p.outbound[:i], p.outbound[i+1:]...)
			removedOutbound = true
			break
		}
	}
	for i, ic := range p.inbound {
		if ic == ch {
			p.inbound = append(p.inbound[:i], p.inbound[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	if removedOutbound {
		p.tryConnect()
	}
}
