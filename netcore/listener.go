package netcore

// Inbound listening (C5). run starts acceptLoop once, against the Acceptor
// returned by Listener.Listen; acceptLoop re-arms itself after every
// accepted connection so the core keeps taking inbound peers for as long
// as it runs, rather than the single-shot accept the original source used.
// See SPEC_FULL.md §4.4 and the OQ-4 decision in DESIGN.md.
func (p *Protocol) acceptLoop(acceptor Acceptor) {
	for {
		ch, err := acceptor.Accept()
		if err != nil {
			p.mu.Lock()
			stopped := !p.isRunningLocked()
			p.mu.Unlock()
			if !stopped {
				p.logger.Error("Problem accepting connection", "err", err)
			}
			return
		}

		p.mu.Lock()
		if !p.isRunningLocked() {
			p.mu.Unlock()
			return
		}
		p.inbound = append(p.inbound, ch)
		count := len(p.inbound)
		p.mu.Unlock()

		p.logger.Info("Accepted connection", "peer", ch, "connections", count)
		p.setupNewChannel(ch)
	}
}
