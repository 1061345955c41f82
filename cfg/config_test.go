package cfg

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigEncodesAndDecodes(t *testing.T) {
	config := defaultConfig()

	b := &bytes.Buffer{}
	enc := toml.NewEncoder(b)
	enc.Indent = ""
	require.NoError(t, enc.Encode(config))

	roundTripped := &Config{}
	_, err := toml.Decode(b.String(), roundTripped)
	require.NoError(t, err)
	assert.Equal(t, config.P2p.MaxOutbound, roundTripped.P2p.MaxOutbound)
	assert.Equal(t, config.P2p.ListenPort, roundTripped.P2p.ListenPort)
	assert.Equal(t, config.P2p.DNSSeeds, roundTripped.P2p.DNSSeeds)
}

func TestLoadConfigResolvesHostsFilenameRelativeToFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "cfg-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfgPath := filepath.Join(dir, "config.toml")
	contents := "LogLevel = \"debug\"\n\n[P2p]\nHostsFilename = \"hosts\"\n"
	require.NoError(t, ioutil.WriteFile(cfgPath, []byte(contents), 0644))

	config, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, filepath.Join(dir, "hosts"), config.P2p.HostsFilename)
	assert.Equal(t, 8, config.P2p.MaxOutbound)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(os.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
