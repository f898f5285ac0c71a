package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock. The
// running instance has been asked to raise its window.
var ErrAlreadyRunning = errors.New("instance already running")

const activateDialTimeout = 500 * time.Millisecond

// InstanceGuard holds the single-instance lock. Connections made by later
// launches are reported as activation requests.
type InstanceGuard struct {
	listener net.Listener
	address  string

	mu      sync.Mutex
	closed  bool
	serveWG sync.WaitGroup
}

// AcquireSingleInstance binds a localhost port derived from appName. When
// the port is taken it pokes the owner and returns ErrAlreadyRunning.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := fmt.Sprintf("127.0.0.1:%d", portFromName(appName))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		if conn, dialErr := net.DialTimeout("tcp", address, activateDialTimeout); dialErr == nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, address)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// Serve calls onActivate for every later launch until Release. It returns
// immediately; onActivate runs on the accept goroutine.
func (guard *InstanceGuard) Serve(onActivate func()) {
	if guard == nil || guard.listener == nil {
		return
	}
	guard.serveWG.Add(1)
	go func() {
		defer guard.serveWG.Done()
		for {
			conn, err := guard.listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
			if onActivate != nil {
				onActivate()
			}
		}
	}()
}

// Release frees the lock and waits for Serve to exit. It is safe to call
// more than once.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	guard.mu.Lock()
	if guard.closed {
		guard.mu.Unlock()
		return nil
	}
	guard.closed = true
	guard.mu.Unlock()

	err := guard.listener.Close()
	guard.serveWG.Wait()
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
