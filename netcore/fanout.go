package netcore

import "sync"

// channelFanOut is the subscription broker described in SPEC_FULL.md §4.6:
// every handler enqueued by subscribe is delivered exactly one Channel,
// the next one relayed after it subscribed. relay drains the whole queue
// on every call, so a handler that subscribes after a relay only sees a
// later one.
type channelFanOut struct {
	mu       sync.Mutex
	handlers []ChannelHandler
}

func (f *channelFanOut) subscribe(handler ChannelHandler) {
	f.mu.Lock()
	f.handlers = append(f.handlers, handler)
	f.mu.Unlock()
}

// relay delivers ch to every handler enqueued so far, then drops them all.
// Handlers run synchronously and in subscription order; the caller decides
// whether that happens with the Protocol's state mutex held.
func (f *channelFanOut) relay(ch Channel) {
	f.mu.Lock()
	handlers := f.handlers
	f.handlers = nil
	f.mu.Unlock()

	for _, h := range handlers {
		h(ch)
	}
}
