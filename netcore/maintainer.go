package netcore

import "time"

// retryDelay throttles tryConnect's repost after a failed or rejected dial.
// Without it, a host store dominated by unreachable addresses would spin
// attemptConnect in a tight loop; protocol.cpp has no such guard, but
// p2p/adapter.go's reconnectToPeer sleeps between dial attempts for the
// same reason.
const retryDelay = 2 * time.Second

// Connection maintenance (C4): keep exactly min(maxOutbound, reachable
// addresses) outbound connections alive, refilling whenever one drops.
//
// Grounded on original_source/src/network/protocol.cpp's try_connect /
// attempt_connect / handle_connect, and on p2p/adapter.go's
// DialPeerWithAddress for the Go goroutine-per-dial idiom. dialing tracks
// in-flight dial attempts the way p2p/adapter.go's ap.dialing StringSet
// tracks peers currently being reconnected to.

// tryConnect tops up the outbound pool. It snapshots how many slots are
// free under the state mutex, then fires one attemptConnect per free slot.
// Each attempt resolves independently; handleConnect re-checks state and
// the invariant bound before mutating outbound, so concurrent batches from
// overlapping tryConnect calls can never push outbound over maxOutbound.
func (p *Protocol) tryConnect() {
	p.mu.Lock()
	if !p.isRunningLocked() {
		p.mu.Unlock()
		return
	}
	free := p.maxOutbound - len(p.outbound)
	p.mu.Unlock()

	for i := 0; i < free; i++ {
		go p.attemptConnect()
	}
}

func (p *Protocol) attemptConnect() {
	addr, err := p.hosts.FetchAddress()
	if err != nil {
		p.logger.Error("Problem fetching random address", "err", err)
		return
	}

	key := addrKey(addr)

	p.mu.Lock()
	dup := p.hasOutboundLocked(addr)
	alreadyDialing := dup || p.dialing.Has(key)
	if !alreadyDialing {
		p.dialing.Add(key)
	}
	p.mu.Unlock()

	if dup {
		p.logger.Info("Already connected", "err", ErrDuplicateAddress{Addr: addr})
		time.AfterFunc(retryDelay, p.tryConnect)
		return
	}
	if alreadyDialing {
		p.logger.Info("Already dialing", "addr", key)
		time.AfterFunc(retryDelay, p.tryConnect)
		return
	}

	host := prettyIPv4(addr.IP)
	p.logger.Info("Trying", "host", host, "port", addr.Port)
	ch, err := p.handshake.Connect(host, addr.Port)

	p.mu.Lock()
	p.dialing.Remove(key)
	p.mu.Unlock()

	p.handleConnect(err, ch, addr)
}

func (p *Protocol) handleConnect(err error, ch Channel, addr NetworkAddress) {
	if err != nil {
		p.logger.Info("Unable to connect", "host", prettyIPv4(addr.IP), "port", addr.Port, "err", err)
		time.AfterFunc(retryDelay, p.tryConnect)
		return
	}

	p.mu.Lock()
	if !p.isRunningLocked() || len(p.outbound) >= p.maxOutbound || p.hasOutboundLocked(addr) {
		p.mu.Unlock()
		p.logger.Info("Dropping surplus or stale outbound connection", "host", prettyIPv4(addr.IP), "port", addr.Port)
		return
	}
	p.outbound = append(p.outbound, connectionInfo{addr: addr, ch: ch})
	count := len(p.outbound)
	p.mu.Unlock()

	p.logger.Info("Connected", "host", prettyIPv4(addr.IP), "port", addr.Port, "connections", count)
	p.setupNewChannel(ch)
}
