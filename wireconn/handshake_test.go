package wireconn

import (
	"net"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcpeer/util/log"
)

func shortConfig() Config {
	c := DefaultConfig()
	c.DialTimeout = 2 * time.Second
	c.HandshakeTimeout = 2 * time.Second
	return c
}

func TestHandshakeConnectAndAcceptCompleteVersionVerAck(t *testing.T) {
	config := shortConfig()
	logger := log.NewNopLogger()

	listener := NewListener(config, logger)
	rawAcceptor, err := listener.Listen(0)
	require.NoError(t, err)
	acc := rawAcceptor.(*acceptor)
	defer acc.Close()

	port := uint16(acc.ln.Addr().(*net.TCPAddr).Port)
	host := "127.0.0.1"

	accepted := make(chan error, 1)
	go func() {
		_, err := acc.Accept()
		accepted <- err
	}()

	h := NewHandshaker(config, logger)
	ch, err := h.Connect(host, port)
	require.NoError(t, err)
	require.NotNil(t, ch)

	require.NoError(t, <-accepted)
}

func TestChannelSendAfterHandshakeDeliversAddr(t *testing.T) {
	config := shortConfig()
	logger := log.NewNopLogger()

	listener := NewListener(config, logger)
	rawAcceptor, err := listener.Listen(0)
	require.NoError(t, err)
	acc := rawAcceptor.(*acceptor)
	defer acc.Close()

	port := uint16(acc.ln.Addr().(*net.TCPAddr).Port)
	host := "127.0.0.1"

	serverCh := make(chan *channel, 1)
	go func() {
		ch, err := acc.Accept()
		require.NoError(t, err)
		serverCh <- ch.(*channel)
	}()

	h := NewHandshaker(config, logger)
	clientCh, err := h.Connect(host, port)
	require.NoError(t, err)

	server := <-serverCh

	received := make(chan *wire.MsgAddr, 1)
	require.NoError(t, clientCh.SubscribeAddress(func(err error, msg *wire.MsgAddr) {
		if err == nil {
			received <- msg
		}
	}))

	gossiped := &wire.MsgAddr{}
	na := &wire.NetAddress{Port: 8333}
	gossiped.AddAddress(na)
	require.NoError(t, server.Send(gossiped))

	select {
	case msg := <-received:
		assert.Len(t, msg.AddrList, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("client never received the ADDR message")
	}
}
