package cfg

import (
	"io/ioutil"
	"path"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of the peer-discovery core and its wire
// collaborators. It is the root of the TOML document read by cmd/peerd.
type Config struct {
	LogLevel string

	P2p *P2pConfig
}

// P2pConfig mirrors the tunables named in SPEC_FULL.md §6.7.
type P2pConfig struct {
	// ListenPort is the TCP port the inbound listener binds.
	ListenPort uint16

	// MaxOutbound is the number of outbound peer slots the connection
	// maintainer tries to keep full.
	MaxOutbound int

	// HostsFilename is the path used for both loading and saving the
	// host store. Relative paths are resolved against the config file's
	// directory by LoadConfig.
	HostsFilename string

	// DNSSeeds is the list of hostnames the Seeder dials, all concurrently,
	// when the host store is empty at startup. Defaults to DefaultDNSSeeds.
	DNSSeeds []string

	// DialTimeout bounds a single outbound TCP connect attempt.
	DialTimeout time.Duration

	// HandshakeTimeout bounds the version/verack exchange once connected.
	HandshakeTimeout time.Duration
}

// DefaultDNSSeeds is the fixed seed list from SPEC_FULL.md §6.4.
var DefaultDNSSeeds = []string{
	"bitseed.xf2.org",
	"dnsseed.bluematt.me",
	"seed.bitcoin.sipa.be",
	"dnsseed.bitcoin.dashjr.org",
}

func DefaultP2pConfig() *P2pConfig {
	return &P2pConfig{
		ListenPort:       8333,
		MaxOutbound:      8,
		HostsFilename:    "hosts",
		DNSSeeds:         DefaultDNSSeeds,
		DialTimeout:      10 * time.Second,
		HandshakeTimeout: 20 * time.Second,
	}
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		P2p:      DefaultP2pConfig(),
	}
}

// DefaultConfig returns a Config with every field set to its default, ready
// to run a node that bootstraps entirely from the DNS seed list.
func DefaultConfig() *Config {
	return defaultConfig()
}

func adjustPath(dir string, pth *string) bool {
	if *pth == "" || filepath.IsAbs(*pth) {
		return false
	}
	*pth = filepath.Join(dir, *pth)
	return true
}

// LoadConfig reads a TOML config file, filling in any field left unset with
// the value from DefaultConfig, and resolving HostsFilename relative to the
// config file's own directory.
func LoadConfig(pathname string) (*Config, error) {
	bz, err := ioutil.ReadFile(pathname)
	if err != nil {
		return nil, err
	}

	config := defaultConfig()
	if _, err := toml.Decode(string(bz), config); err != nil {
		return nil, err
	}

	configDir := path.Dir(pathname)
	if configDir != "." {
		adjustPath(configDir, &config.P2p.HostsFilename)
	}
	return config, nil
}
