package wireconn

import (
	"fmt"
	"net"
	"sync"

	"github.com/btcsuite/btcd/wire"

	"btcpeer/util/log"
)

// channel is the TCP-backed netcore.Channel (C2/C6). Once the handshake
// completes, a single read loop owns the connection: it decodes incoming
// wire messages and dispatches MsgAddr to the (at most one) address
// subscriber, and on any read error or EOF fires the (at most one) stop
// subscriber and returns. Send is safe to call concurrently with the read
// loop; writers serialize on wmu.
//
// Grounded on p2p/connection.go's MConnection for "one goroutine owns the
// socket read side, Send just writes," adapted down from its multi-channel
// framing to the single ADDR/GETADDR/VERSION/VERACK vocabulary this core
// needs.
type channel struct {
	conn   net.Conn
	config Config
	logger log.Logger

	wmu sync.Mutex

	mu          sync.Mutex
	addrHandler func(error, *wire.MsgAddr)
	addrDone    bool
	addrErr     error
	addrMsg     *wire.MsgAddr
	stopHandler func()
	stopped     bool
}

func newChannel(conn net.Conn, config Config, logger log.Logger) *channel {
	return &channel{conn: conn, config: config, logger: logger}
}

func (c *channel) String() string {
	return fmt.Sprintf("channel{%s}", c.conn.RemoteAddr())
}

func (c *channel) Send(msg wire.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wire.WriteMessage(c.conn, msg, c.config.ProtocolVersion, c.config.Net)
}

func (c *channel) SubscribeAddress(handler func(error, *wire.MsgAddr)) error {
	c.mu.Lock()
	if c.addrHandler != nil {
		c.mu.Unlock()
		return fmt.Errorf("address already subscribed")
	}
	if c.addrDone {
		err, msg := c.addrErr, c.addrMsg
		c.mu.Unlock()
		handler(err, msg)
		return nil
	}
	c.addrHandler = handler
	c.mu.Unlock()
	return nil
}

func (c *channel) SubscribeStop(handler func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopHandler != nil {
		return fmt.Errorf("stop already subscribed")
	}
	c.stopHandler = handler
	return nil
}

// run is the read loop. It is started once, right after the handshake
// completes, and never returns until the connection dies. Whatever killed
// the read loop also fails the address subscription if it never fired, so
// a subscriber waiting on an addr message that will never arrive still
// gets notified instead of hanging forever.
func (c *channel) run() {
	defer c.conn.Close()
	err := c.readLoop()
	c.failAddr(err)
	c.fireStop()
}

func (c *channel) readLoop() error {
	for {
		msg, _, err := wire.ReadMessage(c.conn, c.config.ProtocolVersion, c.config.Net)
		if err != nil {
			c.logger.Info("Channel closed", "channel", c, "err", err)
			return err
		}

		switch m := msg.(type) {
		case *wire.MsgAddr:
			c.fireAddr(m)
		case *wire.MsgPing:
			pong := wire.NewMsgPong(m.Nonce)
			if err := c.Send(pong); err != nil {
				c.logger.Error("Failed to reply to ping", "channel", c, "err", err)
				return err
			}
		default:
			// everything else is outside this core's vocabulary; ignore it.
		}
	}
}

func (c *channel) fireAddr(msg *wire.MsgAddr) {
	c.mu.Lock()
	if c.addrDone {
		c.mu.Unlock()
		return
	}
	c.addrDone = true
	c.addrMsg = msg
	h := c.addrHandler
	c.mu.Unlock()
	if h != nil {
		h(nil, msg)
	}
}

// failAddr fires the address subscriber with err if it never received an
// addr message. It is a no-op once fireAddr has already fired.
func (c *channel) failAddr(err error) {
	c.mu.Lock()
	if c.addrDone {
		c.mu.Unlock()
		return
	}
	c.addrDone = true
	c.addrErr = err
	h := c.addrHandler
	c.mu.Unlock()
	if h != nil {
		h(err, nil)
	}
}

func (c *channel) fireStop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	h := c.stopHandler
	c.mu.Unlock()
	if h != nil {
		h()
	}
}
