package main

import (
	"flag"
	"fmt"
	"os"

	"btcpeer/cfg"
	"btcpeer/hoststore"
	"btcpeer/netcore"
	"btcpeer/util"
	"btcpeer/util/log"
	"btcpeer/wireconn"
)

func main() {
	logger := log.New(os.Stderr)

	cfgfile := flag.String("config", "config.toml", "configuration file")
	flag.Parse()

	config, err := cfg.LoadConfig(*cfgfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %#v\n", err)
		os.Exit(1)
	}
	log.SetLevel(log.LevelFromString(config.LogLevel))

	hosts := hoststore.NewFileStore(logger)
	if err := hosts.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %#v\n", err)
		os.Exit(1)
	}

	wireConfig := wireconn.DefaultConfig()
	wireConfig.DialTimeout = config.P2p.DialTimeout
	wireConfig.HandshakeTimeout = config.P2p.HandshakeTimeout

	handshaker := wireconn.NewHandshaker(wireConfig, logger)
	listener := wireconn.NewListener(wireConfig, logger)

	protocol := netcore.NewProtocol(config.P2p, hosts, handshaker, listener, logger)

	started := make(chan error, 1)
	protocol.Start(func(err error) { started <- err })
	if err := <-started; err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %#v\n", err)
		os.Exit(1)
	}
	logger.Info("btcpeer is running", "listen_port", config.P2p.ListenPort)

	util.TrapSignalTerm(func(sig os.Signal) {
		logger.Info("captured signal, shutting down", "signal", sig)

		stopped := make(chan error, 1)
		protocol.Stop(func(err error) { stopped <- err })
		if err := <-stopped; err != nil {
			logger.Error("error while stopping", "err", err)
		}

		hosts.Stop()
	})
}
