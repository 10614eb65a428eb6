package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"buyersdesk/query"
	"buyersdesk/recent"

	"go.uber.org/zap"
)

// Phase is where a session is in its fetch cycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// Policy decides which responses may update the session when several
// requests overlap.
type Policy int

const (
	// PolicyLatestIssued applies only the response to the most recently
	// dispatched request; older responses are discarded whenever they land.
	PolicyLatestIssued Policy = iota
	// PolicyLastResolved applies every response in resolution order, so a
	// slow stale response can replace a fresher one.
	PolicyLastResolved
)

// Notifier surfaces transient, user-visible messages.
type Notifier interface {
	Notify(message string, err error)
}

type NotifierFunc func(message string, err error)

func (f NotifierFunc) Notify(message string, err error) { f(message, err) }

// Snapshot is a consistent view of a session.
type Snapshot struct {
	Phase Phase
	// Query is the current query state; PageQuery produced Page.
	Query     query.State
	PageQuery query.State
	Page      query.ResultPage
	Err       error
	// Issued is the generation of the latest dispatch, Applied the
	// generation that produced Page.
	Issued  uint64
	Applied uint64
}

type Stats struct {
	Dispatched uint64
	Applied    uint64
	Discarded  uint64
	Failed     uint64
}

// Session owns one query state and the result page derived from it.
type Session struct {
	mu        sync.Mutex
	recentMu  sync.Mutex
	fetcher   query.Fetcher
	tracker   *Tracker
	recent    *recent.Store
	debouncer *Debouncer
	notifier  Notifier
	logger    *zap.Logger
	policy    Policy
	onChange  func(Snapshot)

	state     query.State
	pageState query.State
	page      query.ResultPage
	phase     Phase
	err       error
	issued    uint64
	applied   uint64
	stats     Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSession(fetcher query.Fetcher) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		fetcher:   fetcher,
		tracker:   NewTracker(),
		debouncer: NewDebouncer(DefaultDebounce),
		logger:    zap.NewNop(),
		policy:    PolicyLatestIssued,
		state:     query.DefaultState(),
		page:      query.ResultPage{TotalPages: 1},
		phase:     PhaseIdle,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.pageState = s.state
	return s
}

func (s *Session) WithTracker(t *Tracker) *Session {
	s.tracker = t
	return s
}

func (s *Session) WithRecent(store *recent.Store) *Session {
	s.recent = store
	return s
}

func (s *Session) WithNotifier(n Notifier) *Session {
	s.notifier = n
	return s
}

func (s *Session) WithLogger(logger *zap.Logger) *Session {
	s.logger = logger
	return s
}

func (s *Session) WithPolicy(p Policy) *Session {
	s.policy = p
	return s
}

func (s *Session) WithDebounce(d time.Duration) *Session {
	s.debouncer.Cancel()
	s.debouncer = NewDebouncer(d)
	return s
}

// Debounce is the quiet period applied to search text changes.
func (s *Session) Debounce() time.Duration {
	return s.debouncer.Duration()
}

// WithState seeds the query state without dispatching.
func (s *Session) WithState(q query.State) *Session {
	s.state = q.Normalize()
	s.pageState = s.state
	return s
}

// OnChange registers fn to receive a snapshot after every dispatch and
// every applied or failed response.
func (s *Session) OnChange(fn func(Snapshot)) *Session {
	s.onChange = fn
	return s
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Query() query.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// SetSearchText updates the free-text filter and dispatches after the
// debounce quiet period. Rapid calls coalesce into one request.
func (s *Session) SetSearchText(text string) {
	s.mu.Lock()
	s.state.SearchText = text
	s.state.Page = 1
	s.mu.Unlock()

	s.debouncer.Schedule(func() { s.dispatch(true) })
}

func (s *Session) SetStatus(status string) {
	s.mutate(func(q *query.State) {
		q.Status = status
		q.Page = 1
	})
}

func (s *Session) SetPriceRange(minPrice, maxPrice *int64) {
	s.mutate(func(q *query.State) {
		q.MinPrice = minPrice
		q.MaxPrice = maxPrice
		q.Page = 1
	})
}

// SetPriceInput sets the price range from raw user input. Malformed values
// are treated as unbounded.
func (s *Session) SetPriceInput(minRaw, maxRaw string) {
	s.SetPriceRange(query.CoerceBound("minPrice", minRaw), query.CoerceBound("maxPrice", maxRaw))
}

func (s *Session) SetPostedWithin(days *int) {
	s.mutate(func(q *query.State) {
		q.PostedWithinDays = days
		q.Page = 1
	})
}

func (s *Session) SetSort(field string, dir query.Direction) {
	s.mutate(func(q *query.State) {
		q.SortField = field
		q.SortDirection = dir
		q.Page = 1
	})
}

func (s *Session) SetPage(page int) {
	s.mutate(func(q *query.State) { q.Page = page })
}

func (s *Session) SetPageSize(size int) {
	s.mutate(func(q *query.State) {
		q.PageSize = size
		q.Page = 1
	})
}

// Reset restores the default query state and dispatches it.
func (s *Session) Reset() {
	s.mutate(func(q *query.State) { *q = query.DefaultState() })
}

// Refresh dispatches the current state immediately.
func (s *Session) Refresh() {
	s.debouncer.Cancel()
	s.dispatch(false)
}

// Submit dispatches the current state immediately and records its text in
// the recent history.
func (s *Session) Submit() {
	s.debouncer.Cancel()
	s.dispatch(true)
}

// Flush dispatches a pending debounced search now. It reports whether one
// was pending.
func (s *Session) Flush() bool {
	return s.debouncer.Flush()
}

// Wait blocks until every dispatched request has settled.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close drops any pending search, cancels requests in flight and waits for
// them to settle.
func (s *Session) Close() {
	s.debouncer.Cancel()
	// Under s.mu so no dispatch can pass its ctx check and Add after Wait starts.
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// mutate applies an immediate (non-text) change. A pending debounced text
// search is folded into this dispatch.
func (s *Session) mutate(fn func(*query.State)) {
	pendingText := s.debouncer.Cancel()

	s.mu.Lock()
	fn(&s.state)
	s.state = s.state.Normalize()
	s.mu.Unlock()

	s.dispatch(pendingText)
}

func (s *Session) dispatch(remember bool) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.state = s.state.Normalize()
	s.issued++
	gen := s.issued
	q := s.state
	s.phase = PhaseLoading
	s.stats.Dispatched++
	snap := s.snapshotLocked()
	s.wg.Add(1)
	save := remember && s.recent != nil && strings.TrimSpace(q.SearchText) != ""
	if save {
		// Taken before s.mu is released so history saves follow dispatch order.
		s.recentMu.Lock()
	}
	s.mu.Unlock()

	if save {
		if _, err := s.recent.Save(q.SearchText); err != nil {
			s.logger.Warn("save recent search", zap.Error(err))
		}
		s.recentMu.Unlock()
	}

	s.tracker.Begin()
	s.logger.Debug("search dispatched",
		zap.Uint64("generation", gen),
		zap.String("text", q.SearchText),
		zap.Int("page", q.Page))
	s.emit(snap)

	go s.run(gen, q)
}

func (s *Session) run(gen uint64, q query.State) {
	defer s.wg.Done()
	defer s.tracker.Done()

	page, err := s.fetcher.Fetch(s.ctx, q)
	s.resolve(gen, q, page, err)
}

func (s *Session) resolve(gen uint64, q query.State, page query.ResultPage, err error) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if s.policy == PolicyLatestIssued && gen != s.issued {
		s.stats.Discarded++
		latest := s.issued
		s.mu.Unlock()
		s.logger.Debug("stale search response discarded",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest))
		return
	}

	if err != nil {
		s.phase = PhaseFailed
		s.err = err
		s.stats.Failed++
	} else {
		s.phase = PhaseSuccess
		s.err = nil
		s.page = page
		s.pageState = q
		s.applied = gen
		s.stats.Applied++
	}
	snap := s.snapshotLocked()
	notifier := s.notifier
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("search failed", zap.Uint64("generation", gen), zap.Error(err))
		if notifier != nil {
			notifier.Notify("search failed", err)
		}
	}
	s.emit(snap)
}

func (s *Session) emit(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:     s.phase,
		Query:     s.state,
		PageQuery: s.pageState,
		Page:      s.page,
		Err:       s.err,
		Issued:    s.issued,
		Applied:   s.applied,
	}
}
