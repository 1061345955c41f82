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

// Handshaker dials peers and runs the version/verack exchange (C2). It
// implements netcore.Handshaker.
//
// Grounded on p2p/connection.go's dial-then-handshake control flow, and on
// github.com/btcsuite/btcd/wire's MsgVersion/MsgVerAck for the actual
// wire-level handshake (see other_examples/tonyli2377-btcd seed.go for the
// equivalent outbound handshake against the same library).
type Handshaker struct {
	config Config
	logger log.Logger
	nonce  uint64
}

func NewHandshaker(config Config, logger log.Logger) *Handshaker {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Handshaker{
		config: config,
		logger: logger,
		nonce:  uint64(util.RandomInt64()),
	}
}

func (h *Handshaker) Start() error {
	return nil
}

func (h *Handshaker) Connect(host string, port uint16) (netcore.Channel, error) {
	addr := net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))

	conn, err := net.DialTimeout("tcp", addr, h.config.DialTimeout)
	if err != nil {
		return nil, err
	}

	ch := newChannel(conn, h.config, h.logger)
	if err := h.outboundHandshake(conn); err != nil {
		conn.Close()
		return nil, err
	}

	go ch.run()
	return ch, nil
}

func (h *Handshaker) outboundHandshake(conn net.Conn) error {
	deadline := time.Now().Add(h.config.HandshakeTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	defer conn.SetDeadline(time.Time{})

	me := wire.NewNetAddressIPPort(net.IPv4zero, 0, h.config.Services)
	you := wire.NewNetAddressIPPort(remoteIP(conn), remotePort(conn), 0)

	version := wire.NewMsgVersion(me, you, h.nonce, 0)
	version.UserAgent = h.config.UserAgent
	version.ProtocolVersion = int32(h.config.ProtocolVersion)
	version.Services = h.config.Services

	if err := wire.WriteMessage(conn, version, h.config.ProtocolVersion, h.config.Net); err != nil {
		return xerr.Trace(err, "Error sending version message")
	}

	if err := h.expectVersion(conn); err != nil {
		return err
	}

	if err := wire.WriteMessage(conn, wire.NewMsgVerAck(), h.config.ProtocolVersion, h.config.Net); err != nil {
		return xerr.Trace(err, "Error sending verack message")
	}

	return h.expectVerAck(conn)
}

func (h *Handshaker) expectVersion(conn net.Conn) error {
	msg, _, err := wire.ReadMessage(conn, h.config.ProtocolVersion, h.config.Net)
	if err != nil {
		return xerr.Trace(err, "Error reading version message")
	}
	if _, ok := msg.(*wire.MsgVersion); !ok {
		return xerr.Tracef(ErrUnexpectedMessage, "expected version, got %T", msg)
	}
	return nil
}

func (h *Handshaker) expectVerAck(conn net.Conn) error {
	msg, _, err := wire.ReadMessage(conn, h.config.ProtocolVersion, h.config.Net)
	if err != nil {
		return xerr.Trace(err, "Error reading verack message")
	}
	if _, ok := msg.(*wire.MsgVerAck); !ok {
		return xerr.Tracef(ErrUnexpectedMessage, "expected verack, got %T", msg)
	}
	return nil
}

func remoteIP(conn net.Conn) net.IP {
	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcpAddr.IP
	}
	return net.IPv4zero
}

func remotePort(conn net.Conn) uint16 {
	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return uint16(tcpAddr.Port)
	}
	return 0
}
