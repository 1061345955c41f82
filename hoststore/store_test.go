package hoststore

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcpeer/netcore"
	"btcpeer/util/log"
)

func tempStorePath(t *testing.T) string {
	dir, err := ioutil.TempDir("", "hoststore")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "hosts.json")
}

func TestFileStoreLoadOfMissingFileIsNotAnError(t *testing.T) {
	fs := NewFileStore(log.NewNopLogger())
	err := fs.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	count, err := fs.FetchCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFileStoreStoreAndFetchCount(t *testing.T) {
	fs := NewFileStore(log.NewNopLogger())
	require.NoError(t, fs.Load(tempStorePath(t)))

	addr := netcore.NetworkAddress{IP: net.ParseIP("1.2.3.4"), Port: 8333}
	require.NoError(t, fs.Store(addr))

	count, err := fs.FetchCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// storing the same address again is not an error and does not grow
	// the store
	require.NoError(t, fs.Store(addr))
	count, err = fs.FetchCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFileStoreFetchAddressOnEmptyStoreReturnsErrNoAddress(t *testing.T) {
	fs := NewFileStore(log.NewNopLogger())
	require.NoError(t, fs.Load(tempStorePath(t)))

	_, err := fs.FetchAddress()
	assert.Equal(t, netcore.ErrNoAddress{}, err)
}

func TestFileStoreFetchAddressReturnsAKnownAddress(t *testing.T) {
	fs := NewFileStore(log.NewNopLogger())
	require.NoError(t, fs.Load(tempStorePath(t)))

	a1 := netcore.NetworkAddress{IP: net.ParseIP("1.2.3.4"), Port: 8333}
	a2 := netcore.NetworkAddress{IP: net.ParseIP("5.6.7.8"), Port: 8334}
	require.NoError(t, fs.Store(a1))
	require.NoError(t, fs.Store(a2))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		addr, err := fs.FetchAddress()
		require.NoError(t, err)
		seen[addr.IP.String()] = true
	}
	assert.True(t, seen["1.2.3.4"])
	assert.True(t, seen["5.6.7.8"])
}

func TestFileStoreSaveAndReload(t *testing.T) {
	path := tempStorePath(t)

	fs := NewFileStore(log.NewNopLogger())
	require.NoError(t, fs.Load(path))

	addr := netcore.NetworkAddress{IP: net.ParseIP("9.9.9.9"), Port: 8333}
	require.NoError(t, fs.Store(addr))
	require.NoError(t, fs.Save(path))

	reloaded := NewFileStore(log.NewNopLogger())
	require.NoError(t, reloaded.Load(path))

	count, err := reloaded.FetchCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := reloaded.FetchAddress()
	require.NoError(t, err)
	assert.Equal(t, "9.9.9.9", got.IP.String())
	assert.Equal(t, uint16(8333), got.Port)
}
