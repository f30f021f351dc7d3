package webclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrShutdown = errors.New("web client manager is shut down")
	ErrNoClient = errors.New("no web client connected")
)

const (
	// DefaultPingInterval is the period of the liveness check
	DefaultPingInterval = 2 * time.Second
	// DefaultTaskTimeout bounds one ping or one queued command
	DefaultTaskTimeout = 10 * time.Second
)

// AccountClient talks to the remote account server
type AccountClient interface {
	IsOK(ctx context.Context) bool
	Login(ctx context.Context, username, password string) (bool, error)
	LogoutAndReset(ctx context.Context) error
	IsLoggedIn() bool
	FetchAccount(ctx context.Context) error
	GetLocalAccount() AccountState
}

type task struct {
	run   func()
	abort func()
}

// Manager owns the account client and runs two background loops: a periodic
// liveness check and a consumer for queued commands. Commands run one at a
// time in submission order, at most once, and report through a Future.
type Manager struct {
	mu       sync.Mutex
	wakeup   *sync.Cond
	client   AccountClient
	tasks    []task
	shutdown bool

	connected    atomic.Bool
	pingInterval atomic.Int64
	taskTimeout  time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Manager
type Option func(*Manager)

// WithPingInterval sets the liveness check period
func WithPingInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pingInterval.Store(int64(d))
	}
}

// WithTaskTimeout sets the deadline given to each ping and command
func WithTaskTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.taskTimeout = d
	}
}

// NewManager starts the ping and task loops. Call Shutdown to stop them.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		taskTimeout: DefaultTaskTimeout,
		stop:        make(chan struct{}),
	}
	m.wakeup = sync.NewCond(&m.mu)
	m.pingInterval.Store(int64(DefaultPingInterval))
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(2)
	go m.pingLoop()
	go m.taskLoop()
	return m
}

// Connect replaces the account client. Connectivity is re-checked on the next ping.
func (m *Manager) Connect(client AccountClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = client
	m.connected.Store(false)
}

// ConnectToWebServer connects an HTTP account client for baseURL
func (m *Manager) ConnectToWebServer(baseURL string) {
	m.Connect(NewHTTPClient(baseURL, m.taskTimeout))
}

// SetPingInterval changes the liveness check period from the next wait on
func (m *Manager) SetPingInterval(d time.Duration) {
	m.pingInterval.Store(int64(d))
}

// GetPingInterval returns the liveness check period
func (m *Manager) GetPingInterval() time.Duration {
	return time.Duration(m.pingInterval.Load())
}

// IsConnectedToWebServer reports the result of the last liveness check
func (m *Manager) IsConnectedToWebServer() bool {
	return m.connected.Load()
}

// IsLoggedIn reports whether the client holds a session; false without a client
func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return false
	}
	return m.client.IsLoggedIn()
}

// IsShutdown reports whether Shutdown was called
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// QueueLength returns how many commands wait for the task loop
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// SendLoginCommand queues a login. Without a client the future holds false.
func (m *Manager) SendLoginCommand(username, password string) *Future[bool] {
	return submit(m, func(ctx context.Context, client AccountClient) (bool, error) {
		if client == nil {
			return false, nil
		}
		return client.Login(ctx, username, password)
	})
}

// SendLogoutCommand queues a logout; the future holds true once logged out
func (m *Manager) SendLogoutCommand() *Future[bool] {
	return submit(m, func(ctx context.Context, client AccountClient) (bool, error) {
		if client == nil {
			return false, nil
		}
		if err := client.LogoutAndReset(ctx); err != nil {
			return false, err
		}
		return !client.IsLoggedIn(), nil
	})
}

// SendFetchAccountCommand queues an account refresh. Without a client the
// future holds ErrNoClient.
func (m *Manager) SendFetchAccountCommand() *Future[AccountState] {
	return submit(m, func(ctx context.Context, client AccountClient) (AccountState, error) {
		if client == nil {
			return AccountState{}, fmt.Errorf("could not get account data: %w", ErrNoClient)
		}
		if err := client.FetchAccount(ctx); err != nil {
			return AccountState{}, err
		}
		return client.GetLocalAccount(), nil
	})
}

// Shutdown stops both loops. A running command finishes; queued commands are
// discarded and their futures resolve with ErrShutdown. Safe to call twice.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		pending := m.tasks
		m.tasks = nil
		m.wakeup.Broadcast()
		m.mu.Unlock()

		close(m.stop)
		m.wg.Wait()

		for _, t := range pending {
			t.abort()
		}
		if len(pending) > 0 {
			log.Printf("webclient: discarded %d queued tasks at shutdown", len(pending))
		}
	})
}

// submit queues work and returns its future. Panics in work resolve the
// future with an error.
func submit[T any](m *Manager, work func(ctx context.Context, client AccountClient) (T, error)) *Future[T] {
	f := newFuture[T]()
	t := task{
		run: func() {
			var zero T
			defer func() {
				if r := recover(); r != nil {
					log.Printf("webclient: task panicked: %v", r)
					f.resolve(zero, fmt.Errorf("task panicked: %v", r))
				}
			}()

			m.mu.Lock()
			client := m.client
			m.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), m.taskTimeout)
			defer cancel()
			f.resolve(work(ctx, client))
		},
		abort: func() {
			var zero T
			f.resolve(zero, ErrShutdown)
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return failedFuture[T](ErrShutdown)
	}
	m.tasks = append(m.tasks, t)
	m.wakeup.Broadcast()
	return f
}

func (m *Manager) pingLoop() {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		client := m.client
		m.mu.Unlock()

		ok := false
		if client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), m.taskTimeout)
			ok = client.IsOK(ctx)
			cancel()
		}
		m.connected.Store(ok)

		select {
		case <-m.stop:
			return
		case <-time.After(m.GetPingInterval()):
		}
	}
}

func (m *Manager) taskLoop() {
	defer m.wg.Done()

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		for len(m.tasks) == 0 && !m.shutdown {
			m.wakeup.Wait()
		}
		if m.shutdown {
			return
		}

		next := m.tasks[0]
		m.tasks = m.tasks[1:]

		m.mu.Unlock()
		next.run()
		m.mu.Lock()
	}
}
