package util

import (
	"fmt"
	"sync"
	"sync/atomic"

	"btcpeer/util/log"
)

// Service defines a service that can be started, stopped, and reset.
type Service interface {
	// Start the service.
	// If it's already started or stopped, will return an error.
	// If OnStart() returns an error, it's returned by Start()
	Start() error
	OnStart() error

	// Stop the service.
	// If it's already stopped, will return an error.
	// OnStop must never error.
	Stop() error
	OnStop()

	// Reset the service.
	// Panics by default - must be overwritten to enable reset.
	Reset() error
	OnReset() error

	// IsRunning returns true if the service is running
	IsRunning() bool

	// Quit returns a channel, which is closed once service is stopped.
	Quit() <-chan struct{}

	// String representation of the service
	String() string

	// SetLogger sets a logger.
	SetLogger(log.Logger) Service
}

// BaseService is a base implementation of the Service interface. Its
// methods are guarded against concurrent Start/Stop/Reset with a small
// state machine (stopped -> running -> stopped) driven by atomic CAS, and
// it provides a Quit() channel that closes exactly once, when the service
// has fully stopped.
type BaseService struct {
	Logger  log.Logger
	name    string
	started uint32 // atomic
	stopped uint32 // atomic
	quit    chan struct{}

	// The "subclass" of BaseService, overriding OnStart/OnStop/OnReset.
	impl Service
}

// Init initializes BaseService, giving it a logger, name and a reference to
// the outer "subclass" whose OnStart/OnStop/OnReset will be called.
// A nil logger installs log.NewNopLogger().
func (bs *BaseService) Init(logger log.Logger, name string, impl Service) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	bs.Logger = logger
	bs.name = name
	bs.quit = make(chan struct{})
	bs.impl = impl
}

// SetLogger implements Service.
func (bs *BaseService) SetLogger(l log.Logger) Service {
	bs.Logger = l
	return bs.impl
}

// Start implements Service. It calls the "subclass"' OnStart exactly once,
// transitioning stopped -> running.
func (bs *BaseService) Start() error {
	if atomic.CompareAndSwapUint32(&bs.started, 0, 1) {
		if atomic.LoadUint32(&bs.stopped) == 1 {
			bs.Logger.Error(fmt.Sprintf("Not starting %v -- already stopped", bs.name), "impl", bs.impl)
			atomic.StoreUint32(&bs.started, 0)
			return ErrAlreadyStopped
		}
		bs.Logger.Info(fmt.Sprintf("Starting %v", bs.name), "impl", bs.impl)
		if err := bs.impl.OnStart(); err != nil {
			atomic.StoreUint32(&bs.started, 0)
			return err
		}
		return nil
	}
	bs.Logger.Debug(fmt.Sprintf("Not starting %v -- already started", bs.name), "impl", bs.impl)
	return ErrAlreadyStarted
}

// OnStart implements Service by default doing nothing.
// May be overwritten to implement custom startup logic.
func (bs *BaseService) OnStart() error { return nil }

// Stop implements Service. It calls the "subclass"' OnStop exactly once,
// transitioning running -> stopped, and closes the Quit() channel.
func (bs *BaseService) Stop() error {
	if atomic.CompareAndSwapUint32(&bs.stopped, 0, 1) {
		if atomic.LoadUint32(&bs.started) == 0 {
			bs.Logger.Error(fmt.Sprintf("Not stopping %v -- have not been started yet", bs.name), "impl", bs.impl)
			atomic.StoreUint32(&bs.stopped, 0)
			return ErrNotStarted
		}
		bs.Logger.Info(fmt.Sprintf("Stopping %v", bs.name), "impl", bs.impl)
		bs.impl.OnStop()
		close(bs.quit)
		return nil
	}
	bs.Logger.Debug(fmt.Sprintf("Stopping %v (ignoring: already stopped)", bs.name), "impl", bs.impl)
	return ErrAlreadyStopped
}

// OnStop implements Service by default doing nothing.
// May be overwritten to implement custom teardown logic.
func (bs *BaseService) OnStop() {}

// Reset implements Service by panicking. Override OnReset to allow it.
func (bs *BaseService) Reset() error {
	if !atomic.CompareAndSwapUint32(&bs.stopped, 1, 0) {
		bs.Logger.Debug(fmt.Sprintf("Can't reset %v. Not stopped", bs.name), "impl", bs.impl)
		return fmt.Errorf("can't reset running %s", bs.name)
	}

	// whether or not we've started, we can reset the started bit
	atomic.CompareAndSwapUint32(&bs.started, 1, 0)

	bs.quit = make(chan struct{})
	return bs.impl.OnReset()
}

// OnReset implements Service by panicking.
func (bs *BaseService) OnReset() error {
	PanicSanity("The service cannot be reset")
	return nil
}

// IsRunning implements Service.
func (bs *BaseService) IsRunning() bool {
	return atomic.LoadUint32(&bs.started) == 1 && atomic.LoadUint32(&bs.stopped) == 0
}

// Quit implements Service.
func (bs *BaseService) Quit() <-chan struct{} {
	return bs.quit
}

// String implements Service.
func (bs *BaseService) String() string {
	return bs.name
}

// WaitForStop blocks until the service has fully stopped.
func (bs *BaseService) WaitForStop() {
	<-bs.quit
}

var (
	ErrAlreadyStarted = fmt.Errorf("already started")
	ErrAlreadyStopped = fmt.Errorf("already stopped")
	ErrNotStarted     = fmt.Errorf("not started")
)

var panicMu sync.Mutex

// PanicSanity panics on a sanity check failure, mirroring the teacher's
// assert helpers.
func PanicSanity(v interface{}) {
	panicMu.Lock()
	defer panicMu.Unlock()
	panic(fmt.Sprintf("Panicked on a Sanity Check: %v", v))
}
