package wireconn

import (
	"net"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/wire"
	"halftwo/mangos/xerr"

	"btcpeer/netcore"
	"btcpeer/util"
	"btcpeer/util/log"
)

// Listener binds a TCP port and performs the inbound half of the
// version/verack handshake for every accepted connection (C5).
type Listener struct {
	config Config
	logger log.Logger
}

func NewListener(config Config, logger log.Logger) *Listener {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Listener{config: config, logger: logger}
}

func (l *Listener) Listen(port uint16) (netcore.Acceptor, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.FormatUint(uint64(port), 10)))
	if err != nil {
		return nil, err
	}
	return &acceptor{ln: ln, config: l.config, logger: l.logger, nonce: uint64(util.RandomInt64())}, nil
}

type acceptor struct {
	ln     net.Listener
	config Config
	logger log.Logger
	nonce  uint64
}

func (a *acceptor) Accept() (netcore.Channel, error) {
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return nil, err
		}

		if err := a.inboundHandshake(conn); err != nil {
			a.logger.Info("Inbound handshake failed", "peer", conn.RemoteAddr(), "err", err)
			conn.Close()
			continue
		}

		ch := newChannel(conn, a.config, a.logger)
		go ch.run()
		return ch, nil
	}
}

func (a *acceptor) Close() error {
	return a.ln.Close()
}

func (a *acceptor) inboundHandshake(conn net.Conn) error {
	deadline := time.Now().Add(a.config.HandshakeTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	defer conn.SetDeadline(time.Time{})

	msg, _, err := wire.ReadMessage(conn, a.config.ProtocolVersion, a.config.Net)
	if err != nil {
		return xerr.Trace(err, "Error reading version message")
	}
	if _, ok := msg.(*wire.MsgVersion); !ok {
		return xerr.Tracef(ErrUnexpectedMessage, "expected version, got %T", msg)
	}

	me := wire.NewNetAddressIPPort(net.IPv4zero, 0, a.config.Services)
	you := wire.NewNetAddressIPPort(remoteIP(conn), remotePort(conn), 0)

	version := wire.NewMsgVersion(me, you, a.nonce, 0)
	version.UserAgent = a.config.UserAgent
	version.ProtocolVersion = int32(a.config.ProtocolVersion)
	version.Services = a.config.Services

	if err := wire.WriteMessage(conn, version, a.config.ProtocolVersion, a.config.Net); err != nil {
		return xerr.Trace(err, "Error sending version message")
	}
	if err := wire.WriteMessage(conn, wire.NewMsgVerAck(), a.config.ProtocolVersion, a.config.Net); err != nil {
		return xerr.Trace(err, "Error sending verack message")
	}

	ackMsg, _, err := wire.ReadMessage(conn, a.config.ProtocolVersion, a.config.Net)
	if err != nil {
		return xerr.Trace(err, "Error reading verack message")
	}
	if _, ok := ackMsg.(*wire.MsgVerAck); !ok {
		return xerr.Tracef(ErrUnexpectedMessage, "expected verack, got %T", ackMsg)
	}
	return nil
}
