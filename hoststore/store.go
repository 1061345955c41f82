package hoststore

import (
	"encoding/json"
	"io/ioutil"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/btcsuite/btcd/wire"

	"btcpeer/netcore"
	"btcpeer/util"
	"btcpeer/util/log"
)

// autosaveInterval mirrors _AddrBook's saveRoutine: the store periodically
// flushes itself so a crash between explicit Save calls loses at most a
// couple of minutes of gossip.
const autosaveInterval = 2 * time.Minute

// FileStore is a flat, unordered JSON-backed netcore.HostStore (C1). Unlike
// btcd's or the teacher's bucketed AddrManager/_AddrBook, it keeps no
// new/tried distinction or reachability scoring: SPEC_FULL.md §3 and §6.1
// (OQ-1) call for nothing more than "known, with no ordering required."
//
// Grounded on p2p/pex/addrbook.go for the overall shape (mutex-guarded
// lookup map, periodic autosave via util.BaseService) and on
// p2p/pex/file.go for the atomic JSON load/save pair.
type FileStore struct {
	util.BaseService

	mu    sync.Mutex
	byKey map[string]netcore.NetworkAddress
	path  string
}

type fileStoreJSON struct {
	Addrs []hostEntry
}

type hostEntry struct {
	IP        string
	Port      uint16
	Services  uint64
	Timestamp time.Time
}

// NewFileStore constructs an empty store. A Protocol calls Load itself
// during Start, so the store can be handed to it without loading first.
func NewFileStore(logger log.Logger) *FileStore {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	fs := &FileStore{
		byKey: make(map[string]netcore.NetworkAddress),
	}
	fs.BaseService.Init(logger, "HostStore", fs)
	return fs
}

func addrKey(addr netcore.NetworkAddress) string {
	return net.JoinHostPort(addr.IP.String(), strconv.FormatUint(uint64(addr.Port), 10))
}

func (fs *FileStore) Load(path string) error {
	fs.mu.Lock()
	fs.path = path
	fs.mu.Unlock()

	bz, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc fileStoreJSON
	if err := json.Unmarshal(bz, &doc); err != nil {
		return err
	}

	fs.mu.Lock()
	for _, e := range doc.Addrs {
		addr := netcore.NetworkAddress{
			Timestamp: e.Timestamp,
			Services:  wire.ServiceFlag(e.Services),
			IP:        parseIP(e.IP),
			Port:      e.Port,
		}
		fs.byKey[addrKey(addr)] = addr
	}
	fs.mu.Unlock()

	fs.Logger.Info("Loaded host store", "file", path, "count", len(doc.Addrs))
	return nil
}

func (fs *FileStore) Save(path string) error {
	fs.mu.Lock()
	doc := fileStoreJSON{Addrs: make([]hostEntry, 0, len(fs.byKey))}
	for _, addr := range fs.byKey {
		doc.Addrs = append(doc.Addrs, hostEntry{
			IP:        addr.IP.String(),
			Port:      addr.Port,
			Services:  uint64(addr.Services),
			Timestamp: addr.Timestamp,
		})
	}
	fs.mu.Unlock()

	bz, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return err
	}

	fs.Logger.Info("Saving host store", "file", path, "count", len(doc.Addrs))
	return util.WriteFileAtomic(path, bz, 0644)
}

func (fs *FileStore) Store(addr netcore.NetworkAddress) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.byKey[addrKey(addr)] = addr
	return nil
}

func (fs *FileStore) FetchCount() (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.byKey), nil
}

// FetchAddress returns a uniformly random known address. The caller
// (netcore's connection maintainer) is responsible for rejecting
// addresses it is already connected to; this store makes a single draw
// and never filters on the caller's behalf.
func (fs *FileStore) FetchAddress() (netcore.NetworkAddress, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := len(fs.byKey)
	if n == 0 {
		return netcore.NetworkAddress{}, netcore.ErrNoAddress{}
	}

	target := util.RandomIntn(n)
	i := 0
	for _, addr := range fs.byKey {
		if i == target {
			return addr, nil
		}
		i++
	}
	return netcore.NetworkAddress{}, netcore.ErrNoAddress{}
}

// OnStart launches the autosave loop. Until Load has been called, fs.path
// is empty and each tick skips its save.
func (fs *FileStore) OnStart() error {
	go fs.autosaveRoutine()
	return nil
}

func (fs *FileStore) OnStop() {}

func (fs *FileStore) autosaveRoutine() {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fs.mu.Lock()
			path := fs.path
			fs.mu.Unlock()
			if path == "" {
				continue
			}
			if err := fs.Save(path); err != nil {
				fs.Logger.Error("Autosave failed", "file", path, "err", err)
			}
		case <-fs.Quit():
			return
		}
	}
}

func parseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		return make(net.IP, 16)
	}
	return ip
}
