package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/lifepad/internal/controller"
	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/ports"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Default device manager timings.
const (
	DefaultScanTimeout       = 5 * time.Second
	DefaultScanRetryDelay    = time.Second
	DefaultMaxScanRetries    = 3
	DefaultConnectRetryDelay = time.Second
	DefaultMaxConnectRetries = 5
	DefaultPollInterval      = time.Second
	DefaultGraceWindow       = time.Second
)

// ManagerConfig contains the timings and ceilings of the device manager.
type ManagerConfig struct {
	ScanTimeout    time.Duration
	ScanRetryDelay time.Duration
	MaxScanRetries int

	ConnectRetryDelay time.Duration
	// ConnectRetryMaxDelay enables exponential connect backoff when it is
	// greater than ConnectRetryDelay.
	ConnectRetryMaxDelay time.Duration
	MaxConnectRetries    int

	PollInterval time.Duration
	GraceWindow  time.Duration
}

// SetDefaults fills zero fields with their defaults.
func (c *ManagerConfig) SetDefaults() {
	if c.ScanTimeout == 0 {
		c.ScanTimeout = DefaultScanTimeout
	}
	if c.ScanRetryDelay == 0 {
		c.ScanRetryDelay = DefaultScanRetryDelay
	}
	if c.MaxScanRetries == 0 {
		c.MaxScanRetries = DefaultMaxScanRetries
	}
	if c.ConnectRetryDelay == 0 {
		c.ConnectRetryDelay = DefaultConnectRetryDelay
	}
	if c.ConnectRetryMaxDelay == 0 {
		c.ConnectRetryMaxDelay = c.ConnectRetryDelay
	}
	if c.MaxConnectRetries == 0 {
		c.MaxConnectRetries = DefaultMaxConnectRetries
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.GraceWindow == 0 {
		c.GraceWindow = DefaultGraceWindow
	}
}

// TableSource provides the active peripheral table.
type TableSource interface {
	Table() *domain.PeripheralTable
}

type staticTable struct{ t *domain.PeripheralTable }

func (s staticTable) Table() *domain.PeripheralTable { return s.t }

// StaticTable returns a TableSource that always yields t.
func StaticTable(t *domain.PeripheralTable) TableSource {
	return staticTable{t: t}
}

// discovery is one in-flight scan-and-claim for a direction.
type discovery struct {
	cancel context.CancelFunc
}

// DeviceManager discovers, assigns, connects and tears down peripherals for
// the four directions. All public methods are non-blocking except Close.
type DeviceManager struct {
	cfg      ManagerConfig
	radio    ports.Radio
	table    TableSource
	registry *controller.Registry
	logger   log.Logger
	emitter  ConnectionEmitter

	// scanSem admits one scan at a time system-wide.
	scanSem chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	discovering map[domain.Direction]*discovery
	assignments map[domain.Direction]domain.Address
	owners      map[domain.Address]domain.Direction
	tasks       map[domain.Address]*connectionTask
	released    map[domain.Direction]time.Time
	teardowns   map[domain.Direction]*time.Timer
}

// NewDeviceManager creates a manager. Background work is bound to ctx and to
// Close, whichever ends first.
func NewDeviceManager(
	ctx context.Context,
	cfg ManagerConfig,
	radio ports.Radio,
	table TableSource,
	registry *controller.Registry,
	logger log.Logger,
	emitter ConnectionEmitter,
) *DeviceManager {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	runCtx, cancel := context.WithCancel(ctx)
	return &DeviceManager{
		cfg:         cfg,
		radio:       radio,
		table:       table,
		registry:    registry,
		logger:      logger,
		emitter:     emitter,
		scanSem:     make(chan struct{}, 1),
		ctx:         runCtx,
		cancel:      cancel,
		discovering: make(map[domain.Direction]*discovery),
		assignments: make(map[domain.Direction]domain.Address),
		owners:      make(map[domain.Address]domain.Direction),
		tasks:       make(map[domain.Address]*connectionTask),
		released:    make(map[domain.Direction]time.Time),
		teardowns:   make(map[domain.Direction]*time.Timer),
	}
}

// AssignDirection starts acquiring a peripheral for dir. It is a no-op when
// dir is already discovering or holds an assignment to a live task. A call
// inside the grace window after Release keeps the existing assignment and its
// task.
func (m *DeviceManager) AssignDirection(dir domain.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	delete(m.released, dir)
	if timer, ok := m.teardowns[dir]; ok {
		timer.Stop()
		delete(m.teardowns, dir)
		m.logger.Debug("teardown cancelled by re-press", log.Stringer("direction", dir))
	}

	if _, ok := m.discovering[dir]; ok {
		return
	}
	if addr, ok := m.assignments[dir]; ok {
		t := m.tasks[addr]
		if t == nil || !t.state.Terminal() {
			if t != nil && t.state == TaskConnected {
				m.registry.Bind(dir, addr, t.kind)
			}
			return
		}
		// The task ended but has not been dropped yet.
		m.unassignLocked(dir, addr)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	d := &discovery{cancel: cancel}
	m.discovering[dir] = d

	m.wg.Add(1)
	go m.discover(ctx, dir, d)
}

// Release records the release of dir and arms a teardown after the grace
// window.
func (m *DeviceManager) Release(dir domain.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	stamp := time.Now()
	m.released[dir] = stamp

	if timer, ok := m.teardowns[dir]; ok {
		timer.Stop()
		delete(m.teardowns, dir)
	}

	_, discovering := m.discovering[dir]
	_, assigned := m.assignments[dir]
	if !discovering && !assigned {
		return
	}

	m.teardowns[dir] = time.AfterFunc(m.cfg.GraceWindow, func() {
		m.teardown(dir, stamp)
	})
}

// teardown cancels discovery and the task for dir unless dir was re-pressed
// or released again since stamp.
func (m *DeviceManager) teardown(dir domain.Direction, stamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if at, ok := m.released[dir]; !ok || !at.Equal(stamp) {
		return
	}
	delete(m.teardowns, dir)

	if d, ok := m.discovering[dir]; ok {
		d.cancel()
		delete(m.discovering, dir)
	}

	addr, ok := m.assignments[dir]
	if !ok {
		return
	}
	m.unassignLocked(dir, addr)
	if t := m.tasks[addr]; t != nil {
		t.cancel()
	}

	m.logger.Info("direction released",
		log.Stringer("direction", dir),
		log.Stringer("address", addr),
	)
}

// CancelTask cancels the task for addr. Cancelling an unknown or finished
// task is a no-op.
func (m *DeviceManager) CancelTask(addr domain.Address) {
	m.mu.Lock()
	t := m.tasks[addr]
	m.mu.Unlock()

	if t != nil {
		t.cancel()
	}
}

// Close cancels every discovery and task and waits for their goroutines to
// exit or for ctx to be done.
func (m *DeviceManager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for dir, timer := range m.teardowns {
		timer.Stop()
		delete(m.teardowns, dir)
	}
	m.mu.Unlock()

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close device manager: %w", domain.ErrShutdownTimeout)
	}
}

// Snapshot is a point-in-time view of the manager.
type Snapshot struct {
	Tasks       []TaskInfo
	Assignments map[domain.Direction]domain.Address
	Discovering []domain.Direction
}

// Snapshot returns the current tasks, sorted by address, and assignments.
func (m *DeviceManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Tasks:       make([]TaskInfo, 0, len(m.tasks)),
		Assignments: make(map[domain.Direction]domain.Address, len(m.assignments)),
	}
	for _, t := range m.tasks {
		s.Tasks = append(s.Tasks, t.info())
	}
	sort.Slice(s.Tasks, func(i, j int) bool { return s.Tasks[i].Address < s.Tasks[j].Address })
	for dir, addr := range m.assignments {
		s.Assignments[dir] = addr
	}
	for _, dir := range domain.Directions {
		if _, ok := m.discovering[dir]; ok {
			s.Discovering = append(s.Discovering, dir)
		}
	}
	return s
}

// discover scans for a free peripheral and claims it for dir.
func (m *DeviceManager) discover(ctx context.Context, dir domain.Direction, d *discovery) {
	defer m.wg.Done()
	defer m.finishDiscovery(dir, d)

	retry := newBackoff(m.cfg.ScanRetryDelay, m.cfg.ScanRetryDelay)
	for attempt := 0; ; attempt++ {
		if m.abandoned(dir) {
			m.logger.Debug("discovery abandoned after release", log.Stringer("direction", dir))
			return
		}

		addrs, err := m.scan(ctx)
		if err == nil {
			m.claim(dir, d, addrs)
			return
		}
		if ctx.Err() != nil {
			return
		}

		if errors.Is(err, domain.ErrScanConflict) && attempt < m.cfg.MaxScanRetries {
			m.logger.Warn("scan in progress, retrying",
				log.Stringer("direction", dir),
				log.Int("attempt", attempt+1),
				log.Duration("delay", retry.Current()),
			)
			if retry.Wait(ctx) != nil {
				return
			}
			continue
		}

		m.logger.Error("scan failed, giving up",
			log.Stringer("direction", dir),
			log.Int("attempts", attempt+1),
			log.Err(err),
		)
		return
	}
}

// scan runs one radio scan while holding the scan semaphore.
func (m *DeviceManager) scan(ctx context.Context) ([]domain.Address, error) {
	select {
	case m.scanSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.scanSem }()

	return m.radio.Scan(ctx, m.cfg.ScanTimeout)
}

// abandoned reports whether dir was released longer than the grace window ago.
func (m *DeviceManager) abandoned(dir domain.Direction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.released[dir]
	return ok && time.Since(at) > m.cfg.GraceWindow
}

// claim assigns the first known, unassigned address in scan order to dir.
func (m *DeviceManager) claim(dir domain.Direction, d *discovery, addrs []domain.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.discovering[dir] != d {
		return
	}

	table := m.table.Table()
	for _, addr := range addrs {
		kind, ok := table.Kind(addr)
		if !ok {
			continue
		}
		if _, taken := m.owners[addr]; taken {
			continue
		}

		m.assignments[dir] = addr
		m.owners[addr] = dir
		m.startTaskLocked(addr, dir, kind)

		m.logger.Info("peripheral assigned",
			log.Stringer("direction", dir),
			log.Stringer("address", addr),
			log.Stringer("kind", kind),
		)
		return
	}

	m.logger.Info("no unassigned peripheral found",
		log.Stringer("direction", dir),
		log.Int("visible", len(addrs)),
	)
}

func (m *DeviceManager) finishDiscovery(dir domain.Direction, d *discovery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.discovering[dir] == d {
		delete(m.discovering, dir)
	}
	d.cancel()
}

// startTaskLocked starts a task for addr, cancelling any stale task first.
// The new task does not touch the radio until the stale one has exited.
func (m *DeviceManager) startTaskLocked(addr domain.Address, dir domain.Direction, kind domain.DeviceKind) {
	stale := m.tasks[addr]
	if stale != nil {
		stale.cancel()
		m.logger.Info("cancelled stale connection task",
			log.Stringer("address", addr),
			log.String("task", stale.id.String()),
		)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	t := newConnectionTask(addr, dir, kind, cancel)
	m.tasks[addr] = t

	m.wg.Add(1)
	go m.run(ctx, t, stale)
}

// unassignLocked removes the assignment of addr to dir.
func (m *DeviceManager) unassignLocked(dir domain.Direction, addr domain.Address) {
	if m.assignments[dir] == addr {
		delete(m.assignments, dir)
	}
	if m.owners[addr] == dir {
		delete(m.owners, addr)
	}
}

// run drives one connection task until it is cancelled or fails.
func (m *DeviceManager) run(ctx context.Context, t *connectionTask, stale *connectionTask) {
	defer m.wg.Done()
	defer close(t.done)

	if stale != nil {
		select {
		case <-stale.done:
		case <-ctx.Done():
			m.finish(t, TaskCancelled, ctx.Err())
			return
		}
	}

	retry := newBackoff(m.cfg.ConnectRetryDelay, m.cfg.ConnectRetryMaxDelay)
	m.setState(t, TaskConnecting, nil)

	for {
		if ctx.Err() != nil {
			m.finish(t, TaskCancelled, ctx.Err())
			return
		}

		sess, err := m.connect(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				m.finish(t, TaskCancelled, ctx.Err())
				return
			}
			if m.incRetries(t) >= m.cfg.MaxConnectRetries {
				m.finish(t, TaskFailed, err)
				return
			}
			m.setState(t, TaskRetrying, err)
			if retry.Wait(ctx) != nil {
				m.finish(t, TaskCancelled, ctx.Err())
				return
			}
			m.setState(t, TaskConnecting, nil)
			continue
		}

		retry.Reset()
		m.resetRetries(t)
		m.setState(t, TaskConnected, nil)
		m.registry.Bind(t.direction, t.address, t.kind)

		lost := m.hold(ctx, sess)

		if s, ok := m.registry.Get(t.direction); ok && s.Snapshot().Address == t.address {
			s.Unbind()
		}

		if !lost {
			// A cancelled task must not read as Connected while the link closes.
			m.setState(t, TaskCancelled, ctx.Err())
			m.disconnect(t, sess)
			m.drop(t)
			return
		}

		m.disconnect(t, sess)
		m.setState(t, TaskRetrying, errors.New("link lost"))
		if retry.Wait(ctx) != nil {
			m.finish(t, TaskCancelled, ctx.Err())
			return
		}
		m.setState(t, TaskConnecting, nil)
	}
}

// connect opens a session and subscribes to telemetry.
func (m *DeviceManager) connect(ctx context.Context, t *connectionTask) (ports.Session, error) {
	sess, err := m.radio.Connect(ctx, t.address)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w: %w", t.address, domain.ErrConnectFailure, err)
	}

	if err := sess.Subscribe(func(payload []byte) { m.deliver(t, payload) }); err != nil {
		m.disconnect(t, sess)
		return nil, fmt.Errorf("subscribe %s: %w: %w", t.address, domain.ErrConnectFailure, err)
	}
	return sess, nil
}

// disconnect closes sess and logs a failure.
func (m *DeviceManager) disconnect(t *connectionTask, sess ports.Session) {
	if err := sess.Disconnect(); err != nil {
		m.logger.Warn("disconnect failed",
			log.Stringer("address", t.address),
			log.Err(err),
		)
	}
}

// hold polls the session until the link drops (true) or ctx is done (false).
func (m *DeviceManager) hold(ctx context.Context, sess ports.Session) bool {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if !sess.Connected() {
				return true
			}
		}
	}
}

// deliver decodes a notification and stores it in the ControllerState of
// the task's direction.
func (m *DeviceManager) deliver(t *connectionTask, payload []byte) {
	if !m.table.Table().Known(t.address) {
		m.logger.Warn("telemetry dropped",
			log.Stringer("address", t.address),
			log.Err(domain.ErrUnknownPeripheral),
		)
		return
	}

	value, err := domain.DecodeTelemetry(payload)
	if err != nil {
		m.logger.Warn("telemetry dropped",
			log.Stringer("address", t.address),
			log.Err(err),
		)
		return
	}

	m.mu.Lock()
	current := m.tasks[t.address] == t
	m.mu.Unlock()
	if !current {
		return
	}

	m.registry.Update(t.direction, t.kind, value)
}

func (m *DeviceManager) incRetries(t *connectionTask) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.retries++
	return t.retries
}

func (m *DeviceManager) resetRetries(t *connectionTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.retries = 0
}

// setState records a state change and notifies the emitter.
func (m *DeviceManager) setState(t *connectionTask, state TaskState, cause error) {
	m.mu.Lock()
	prev := t.state
	t.state = state
	ev := ConnectionEvent{
		TaskID:    t.id,
		Address:   t.address,
		Direction: t.direction,
		Kind:      t.kind,
		Previous:  prev,
		Current:   state,
		Retries:   t.retries,
		Err:       cause,
		At:        time.Now(),
	}
	m.mu.Unlock()

	fields := []log.Field{
		log.Stringer("address", t.address),
		log.Stringer("direction", t.direction),
		log.String("from", prev.String()),
		log.String("to", state.String()),
		log.Int("retries", ev.Retries),
	}
	switch {
	case state == TaskFailed:
		m.logger.Error("connection task state", append(fields, log.Err(cause))...)
	case cause != nil && !errors.Is(cause, context.Canceled):
		m.logger.Warn("connection task state", append(fields, log.Err(cause))...)
	default:
		m.logger.Info("connection task state", fields...)
	}

	if m.emitter != nil {
		m.emitter.OnConnectionChange(ev)
	}
}

// finish moves t to a terminal state and drops it.
func (m *DeviceManager) finish(t *connectionTask, state TaskState, cause error) {
	m.setState(t, state, cause)
	m.drop(t)
}

// drop removes t, and its assignment, if it is still the current task for
// its address.
func (m *DeviceManager) drop(t *connectionTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks[t.address] != t {
		return
	}
	delete(m.tasks, t.address)
	m.unassignLocked(t.direction, t.address)
}
