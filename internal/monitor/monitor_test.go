package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ipsend/internal/notify"
	"ipsend/internal/resolver"
	"ipsend/internal/state"
	"ipsend/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeResolver returns the queued results in order, repeating the last one
type fakeResolver struct {
	results []result
	calls   int
}

type result struct {
	addr types.Address
	err  error
}

func (f *fakeResolver) Resolve(context.Context) (types.Address, error) {
	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	return r.addr, r.err
}

func resolves(addrs ...types.Address) *fakeResolver {
	f := &fakeResolver{}
	for _, a := range addrs {
		f.results = append(f.results, result{addr: a})
	}
	return f
}

type fakeNotifier struct {
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

// blockingNotifier holds the send open until ctx is done
type blockingNotifier struct {
	started chan struct{}
	calls   int
}

func (b *blockingNotifier) Send(ctx context.Context, _ notify.Message) error {
	b.calls++
	close(b.started)
	<-ctx.Done()
	return fmt.Errorf("%w: %v", types.ErrNotify, ctx.Err())
}

type failingStore struct {
	state.FileStore
}

func (failingStore) Save(types.Address) error {
	return fmt.Errorf("%w: disk full", types.ErrStore)
}

// fakeScheduler records waits and cancels the run after limit of them
type fakeScheduler struct {
	waits  []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (f *fakeScheduler) Wait(ctx context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	if len(f.waits) >= f.limit {
		f.cancel()
	}
	return ctx.Err()
}

func newStore(t *testing.T, initial types.Address) *state.FileStore {
	t.Helper()
	s := state.NewFileStore(filepath.Join(t.TempDir(), "ip_cache.txt"))
	if initial != "" {
		require.NoError(t, s.Save(initial))
	}
	return s
}

func newMonitor(t *testing.T, cfg Config, r Resolver, s Store, n notify.Notifier, opts ...Option) *Monitor {
	t.Helper()
	m, err := New(cfg, r, s, n, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return m
}

func loaded(t *testing.T, s Store) types.Address {
	t.Helper()
	addr, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	return addr
}

func TestChangeNotifiesAndPersists(t *testing.T) {
	store := newStore(t, "198.51.100.1")
	n := &fakeNotifier{}
	m := newMonitor(t, Config{}, resolves("198.51.100.2"), store, n)

	m.RunCycle(context.Background())

	require.Len(t, n.sent, 1)
	assert.Equal(t, "198.51.100.2", n.sent[0].Body)
	assert.Equal(t, "Current Public IP Address", n.sent[0].Subject)
	assert.Equal(t, types.Address("198.51.100.2"), loaded(t, store))

	last, ok := m.LastKnown()
	assert.True(t, ok)
	assert.Equal(t, types.Address("198.51.100.2"), last)
}

func TestUnchangedDoesNotNotify(t *testing.T) {
	store := newStore(t, "198.51.100.1")
	n := &fakeNotifier{}
	m := newMonitor(t, Config{}, resolves("198.51.100.1"), store, n)

	m.RunCycle(context.Background())

	assert.Empty(t, n.sent)
	assert.Equal(t, types.Address("198.51.100.1"), loaded(t, store))
	assert.Equal(t, int64(0), m.GetMetrics().Changes)
}

func TestResolutionFailureSkipsCycle(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("%w: request failed: connection refused", types.ErrResolution),
		fmt.Errorf("%w: malformed response", types.ErrResolution),
	} {
		store := newStore(t, "198.51.100.1")
		n := &fakeNotifier{}
		r := &fakeResolver{results: []result{{err: err}}}
		m := newMonitor(t, Config{}, r, store, n)

		assert.NotPanics(t, func() { m.RunCycle(context.Background()) })

		assert.Empty(t, n.sent)
		last, _ := m.LastKnown()
		assert.Equal(t, types.Address("198.51.100.1"), last)
		assert.Equal(t, types.Address("198.51.100.1"), loaded(t, store))
		assert.Equal(t, int64(1), m.GetMetrics().ResolutionFailures)
	}
}

func TestRepeatedCyclesNotifyOnce(t *testing.T) {
	store := newStore(t, "198.51.100.1")
	n := &fakeNotifier{}
	m := newMonitor(t, Config{}, resolves("198.51.100.2"), store, n)

	for i := 0; i < 5; i++ {
		m.RunCycle(context.Background())
	}

	assert.Len(t, n.sent, 1)
	assert.Equal(t, int64(5), m.GetMetrics().Cycles)
	assert.Equal(t, int64(1), m.GetMetrics().Changes)
}

func TestFirstRunIsAChange(t *testing.T) {
	store := newStore(t, "")
	n := &fakeNotifier{}
	m := newMonitor(t, Config{}, resolves("203.0.113.5"), store, n)

	_, ok := m.LastKnown()
	require.False(t, ok)

	m.RunCycle(context.Background())

	require.Len(t, n.sent, 1)
	assert.Equal(t, "203.0.113.5", n.sent[0].Body)
	assert.Equal(t, types.Address("203.0.113.5"), loaded(t, store))
}

func TestNotifyFailureStillUpdatesCache(t *testing.T) {
	store := newStore(t, "198.51.100.1")
	n := &fakeNotifier{err: fmt.Errorf("%w: status 500", types.ErrNotify)}
	m := newMonitor(t, Config{}, resolves("198.51.100.2"), store, n)

	m.RunCycle(context.Background())
	m.RunCycle(context.Background())

	assert.Len(t, n.sent, 1)
	assert.Equal(t, types.Address("198.51.100.2"), loaded(t, store))
	assert.Equal(t, int64(1), m.GetMetrics().NotifyFailures)
}

func TestRequireNotifySuccessKeepsCache(t *testing.T) {
	store := newStore(t, "198.51.100.1")
	n := &fakeNotifier{err: fmt.Errorf("%w: status 500", types.ErrNotify)}
	m := newMonitor(t, Config{RequireNotifySuccess: true}, resolves("198.51.100.2"), store, n)

	m.RunCycle(context.Background())
	assert.Equal(t, types.Address("198.51.100.1"), loaded(t, store))

	n.err = nil
	m.RunCycle(context.Background())

	assert.Len(t, n.sent, 2)
	assert.Equal(t, types.Address("198.51.100.2"), loaded(t, store))
}

func TestStoreFailureIsContained(t *testing.T) {
	n := &fakeNotifier{}
	s := &failingStore{FileStore: *state.NewFileStore(filepath.Join(t.TempDir(), "ip_cache.txt"))}
	m := newMonitor(t, Config{}, resolves("198.51.100.2"), s, n)

	m.RunCycle(context.Background())
	m.RunCycle(context.Background())

	assert.Len(t, n.sent, 1)
	last, _ := m.LastKnown()
	assert.Equal(t, types.Address("198.51.100.2"), last)
	assert.Equal(t, int64(1), m.GetMetrics().StoreFailures)
}

func TestNewFailsOnUnreadableCache(t *testing.T) {
	s := state.NewFileStore(t.TempDir())

	_, err := New(Config{}, resolves("198.51.100.1"), s, &fakeNotifier{}, nil)
	assert.ErrorIs(t, err, types.ErrStore)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, nil, newStore(t, ""), &fakeNotifier{}, nil)
	assert.Error(t, err)
}

func TestRunWaitsIntervalBetweenCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(t, "")
	n := &fakeNotifier{}
	r := resolves("198.51.100.1", "198.51.100.1", "198.51.100.2", "198.51.100.2")
	sched := &fakeScheduler{limit: 4, cancel: cancel}
	m := newMonitor(t, Config{Interval: 1800 * time.Second}, r, store, n, WithScheduler(sched))

	err := m.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Equal(t, 4, r.calls)
	assert.Equal(t, []time.Duration{
		30 * time.Minute, 30 * time.Minute, 30 * time.Minute, 30 * time.Minute,
	}, sched.waits)
	require.Len(t, n.sent, 2)
	assert.Equal(t, "198.51.100.1", n.sent[0].Body)
	assert.Equal(t, "198.51.100.2", n.sent[1].Body)
	assert.Equal(t, types.Address("198.51.100.2"), loaded(t, store))
}

func TestRunDefaultInterval(t *testing.T) {
	m := newMonitor(t, Config{}, resolves("198.51.100.1"), newStore(t, ""), &fakeNotifier{})
	assert.Equal(t, DefaultInterval, m.config.Interval)
}

func TestTimerScheduler(t *testing.T) {
	var s TimerScheduler

	assert.NoError(t, s.Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Wait(ctx, time.Hour), context.Canceled)
}

func TestCancelDuringSendKeepsCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(t, "198.51.100.1")
	n := &blockingNotifier{started: make(chan struct{})}
	m := newMonitor(t, Config{}, resolves("198.51.100.2"), store, n)

	go func() {
		<-n.started
		cancel()
	}()
	m.RunCycle(ctx)

	assert.Equal(t, 1, n.calls)
	assert.Equal(t, types.Address("198.51.100.1"), loaded(t, store))
	last, _ := m.LastKnown()
	assert.Equal(t, types.Address("198.51.100.1"), last)
}

func TestPaddedAddressNotifiedOnceAcrossRestart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7\n"}`))
	}))
	defer srv.Close()

	store := newStore(t, "")
	n := &fakeNotifier{}
	r := resolver.New(srv.URL, time.Second)

	newMonitor(t, Config{}, r, store, n).RunCycle(context.Background())
	newMonitor(t, Config{}, r, store, n).RunCycle(context.Background())

	require.Len(t, n.sent, 1)
	assert.Equal(t, "203.0.113.7", n.sent[0].Body)
}
