// internal/onboarding/engine.go
package onboarding

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"onboarding-engine/internal/catalog"
	apperrors "onboarding-engine/internal/common/errors"
	"onboarding-engine/internal/common/logger"
	"onboarding-engine/internal/common/metrics"
	"onboarding-engine/internal/common/observability"
	"onboarding-engine/internal/flow"
	"onboarding-engine/internal/matching"
	"onboarding-engine/internal/notifications"
	"onboarding-engine/internal/orchestrator"
	"onboarding-engine/internal/session"
)

// Searcher is the orchestrator surface the engine needs.
type Searcher interface {
	FetchPool(ctx context.Context, profile matching.Profile) []catalog.CandidateUniversity
	LiveSearch(ctx context.Context, scope flow.SearchScope, query string) []orchestrator.Suggestion
}

// Matcher scores a candidate pool against a profile.
type Matcher interface {
	Match(profile matching.Profile, pool []catalog.CandidateUniversity) []matching.ScoredUniversity
}

// SnapshotStore persists session snapshots across restarts. A nil store
// keeps sessions in memory only.
type SnapshotStore interface {
	Save(ctx context.Context, sess *session.Session) error
	Load(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	Debounce        time.Duration
	AutoStepTimeout time.Duration
}

// Engine drives onboarding sessions through the step registry: it validates
// submissions, advances the current index, runs async auto steps under
// single-slot guards, and applies edit/rewind with full invalidation.
type Engine struct {
	reg      *flow.Registry
	search   Searcher
	matcher  Matcher
	store    SnapshotStore
	notifier notifications.Sender
	cfg      Config
	logger   logger.Logger
	obs      *observability.Observability

	mu       sync.RWMutex
	runtimes map[string]*sessionRuntime
}

// SetObservability attaches the otel recorder. Optional.
func (e *Engine) SetObservability(obs *observability.Observability) {
	e.obs = obs
}

// sessionRuntime pairs a session with its in-memory coordination state. The
// mutex serializes every mutation of the session; guards and debouncers are
// per async step and never persisted.
type sessionRuntime struct {
	mu         sync.Mutex
	sess       *session.Session
	guards     map[string]*orchestrator.Supervisor
	debouncers map[string]*orchestrator.Debouncer
}

func (rt *sessionRuntime) guard(stepID string) *orchestrator.Supervisor {
	g, ok := rt.guards[stepID]
	if !ok {
		g = orchestrator.NewSupervisor()
		rt.guards[stepID] = g
	}
	return g
}

func (rt *sessionRuntime) debouncer(stepID string, delay time.Duration) *orchestrator.Debouncer {
	d, ok := rt.debouncers[stepID]
	if !ok {
		d = orchestrator.NewDebouncer(delay)
		rt.debouncers[stepID] = d
	}
	return d
}

func NewEngine(reg *flow.Registry, search Searcher, matcher Matcher, store SnapshotStore, notifier notifications.Sender, cfg Config, log logger.Logger) *Engine {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 400 * time.Millisecond
	}
	if cfg.AutoStepTimeout <= 0 {
		cfg.AutoStepTimeout = 30 * time.Second
	}
	if notifier == nil {
		notifier = notifications.NoOp{}
	}
	return &Engine{
		reg:      reg,
		search:   search,
		matcher:  matcher,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "onboarding-engine"}),
		runtimes: make(map[string]*sessionRuntime),
	}
}

// CreateSession starts a new session positioned at the first visible step.
func (e *Engine) CreateSession(ctx context.Context, contact session.Contact) (*Snapshot, error) {
	sess := session.New(uuid.NewString(), contact)
	sess.CurrentIndex = e.reg.NextVisibleIndex(0, sess)

	rt := &sessionRuntime{
		sess:       sess,
		guards:     make(map[string]*orchestrator.Supervisor),
		debouncers: make(map[string]*orchestrator.Debouncer),
	}

	e.mu.Lock()
	e.runtimes[sess.ID] = rt
	e.mu.Unlock()

	rt.mu.Lock()
	defer rt.mu.Unlock()
	e.persist(ctx, sess)

	e.logger.Info("session created", map[string]interface{}{
		"sessionId": sess.ID,
	})
	return e.snapshot(rt), nil
}

// Snapshot returns the current session view.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	rt, err := e.runtime(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return e.snapshot(rt), nil
}

// SubmitAnswer validates and records an answer for the current step, then
// advances. Submissions for any step other than the current one are rejected
// without touching the session.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID string, sub Submission) (*Snapshot, error) {
	rt, err := e.runtime(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	idx, ok := e.reg.IndexOf(sub.StepID)
	if !ok {
		return nil, apperrors.NewUnknownStepError(sub.StepID)
	}
	if idx != rt.sess.CurrentIndex {
		return nil, apperrors.NewStepNotCurrentError(sub.StepID, rt.sess.CurrentIndex)
	}

	step := e.reg.At(idx)
	value, label, err := validateAnswer(step, sub)
	if err != nil {
		return nil, err
	}

	rt.sess.SetAnswer(step.ID, value, label)
	rt.sess.CurrentIndex = e.reg.NextVisibleIndex(idx+1, rt.sess)
	metrics.StepSubmissions.WithLabelValues(string(step.Kind)).Inc()
	if e.obs != nil {
		e.obs.RecordStepProcessed(ctx, string(step.Kind))
	}

	e.persist(ctx, rt.sess)
	e.maybeStartAuto(rt)
	return e.snapshot(rt), nil
}

// EditStep rewinds the session to an earlier step. Every answer at or after
// the target is deleted together with its alias entry, cached auto results
// in the range are dropped, and any in-flight async work is invalidated so
// late completions are discarded.
func (e *Engine) EditStep(ctx context.Context, sessionID string, index int) (*Snapshot, error) {
	rt, err := e.runtime(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if index < 0 || index > rt.sess.CurrentIndex || index >= e.reg.Len() {
		return nil, apperrors.NewInvalidRewindError(index, rt.sess.CurrentIndex)
	}

	rt.sess.RewindTo(e.reg, index)
	rt.sess.CurrentIndex = e.reg.NextVisibleIndex(index, rt.sess)

	for _, g := range rt.guards {
		g.Invalidate()
	}
	for _, d := range rt.debouncers {
		d.Stop()
	}
	metrics.Rewinds.Inc()

	e.persist(ctx, rt.sess)
	e.logger.Info("session rewound", map[string]interface{}{
		"sessionId": sessionID,
		"index":     index,
	})
	return e.snapshot(rt), nil
}

// LiveSearch runs a debounced suggestion query for the current
// free-text-search step. A call superseded by a newer keystroke within the
// debounce window never produces results; it ends with the caller's context.
func (e *Engine) LiveSearch(ctx context.Context, sessionID, stepID, query string) ([]orchestrator.Suggestion, error) {
	rt, err := e.runtime(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	idx, ok := e.reg.IndexOf(stepID)
	if !ok {
		rt.mu.Unlock()
		return nil, apperrors.NewUnknownStepError(stepID)
	}
	step := e.reg.At(idx)
	if step.Kind != flow.KindFreeTextSearch {
		rt.mu.Unlock()
		return nil, apperrors.NewInvalidAnswerError(stepID, "step has no live search")
	}
	if idx != rt.sess.CurrentIndex {
		rt.mu.Unlock()
		return nil, apperrors.NewStepNotCurrentError(stepID, rt.sess.CurrentIndex)
	}
	deb := rt.debouncer(stepID, e.cfg.Debounce)
	rt.mu.Unlock()

	results := make(chan []orchestrator.Suggestion, 1)
	deb.Trigger(func() {
		results <- e.search.LiveSearch(ctx, step.Search.Scope, query)
	})

	select {
	case out := <-results:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Results returns the scored matches once the auto-match step has run.
type ResultSet struct {
	Matches   []matching.ScoredUniversity `json:"matches"`
	Synthetic bool                        `json:"synthetic"`
}

func (e *Engine) Results(ctx context.Context, sessionID string) (*ResultSet, error) {
	rt, err := e.runtime(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	return &ResultSet{
		Matches:   rt.sess.Matches,
		Synthetic: poolIsSynthetic(rt.sess.Pool),
	}, nil
}

// maybeStartAuto launches the async action for the current step when it is
// an auto step and its single-slot guard is free. Called with rt.mu held.
func (e *Engine) maybeStartAuto(rt *sessionRuntime) {
	idx := rt.sess.CurrentIndex
	if idx >= e.reg.Len() {
		return
	}
	step := e.reg.At(idx)
	if !step.Auto() {
		return
	}

	gen, ok := rt.guard(step.ID).Begin()
	if !ok {
		return
	}
	go e.runAuto(rt, step, idx, gen)
}

// runAuto performs the async work for one auto step and applies the result
// only if the session is still at the position the work was started for.
// Stale completions are counted and dropped; the work itself cannot fail the
// flow because every collaborator error degrades to a fallback pool.
func (e *Engine) runAuto(rt *sessionRuntime, step flow.Step, idx int, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AutoStepTimeout)
	defer cancel()

	rt.mu.Lock()
	profile := rt.sess.Profile()
	pool := rt.sess.Pool
	rt.mu.Unlock()

	var (
		newPool []catalog.CandidateUniversity
		matches []matching.ScoredUniversity
		label   string
	)

	switch step.Kind {
	case flow.KindAutoSearch:
		newPool = e.search.FetchPool(ctx, profile)
		label = summaryLabel(len(newPool), "universities found")
	case flow.KindAutoMatch:
		start := time.Now()
		if len(pool) == 0 {
			pool = e.search.FetchPool(ctx, profile)
			newPool = pool
		}
		matches = e.matcher.Match(profile, pool)
		metrics.MatchDuration.Observe(time.Since(start).Seconds())
		label = summaryLabel(len(matches), "matches scored")
	default:
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.guard(step.ID).Finish(gen) || rt.sess.CurrentIndex != idx {
		metrics.StaleResults.Inc()
		e.logger.Debug("stale auto result discarded", map[string]interface{}{
			"sessionId": rt.sess.ID,
			"stepId":    step.ID,
		})
		return
	}

	if newPool != nil {
		rt.sess.Pool = newPool
	}
	if step.Kind == flow.KindAutoMatch {
		rt.sess.Matches = matches
	}

	rt.sess.SetAnswer(step.ID, "done", label)
	rt.sess.CurrentIndex = e.reg.NextVisibleIndex(idx+1, rt.sess)
	metrics.StepSubmissions.WithLabelValues(string(step.Kind)).Inc()
	if e.obs != nil {
		e.obs.RecordStepProcessed(ctx, string(step.Kind))
	}
	e.persist(ctx, rt.sess)

	if step.Kind == flow.KindAutoMatch {
		e.notifyMatches(rt.sess.Contact, matches)
	}

	e.maybeStartAuto(rt)
}

func (e *Engine) notifyMatches(contact session.Contact, matches []matching.ScoredUniversity) {
	if contact.Email == "" && contact.Phone == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.notifier.NotifyMatchesReady(ctx, contact, matches); err != nil {
			e.logger.Warn("match notification failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

// runtime returns the in-memory runtime for a session, rehydrating it from
// the snapshot store after a restart.
func (e *Engine) runtime(ctx context.Context, sessionID string) (*sessionRuntime, error) {
	e.mu.RLock()
	rt, ok := e.runtimes[sessionID]
	e.mu.RUnlock()
	if ok {
		return rt, nil
	}

	if e.store == nil {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if rt, ok := e.runtimes[sessionID]; ok {
		return rt, nil
	}
	rt = &sessionRuntime{
		sess:       sess,
		guards:     make(map[string]*orchestrator.Supervisor),
		debouncers: make(map[string]*orchestrator.Debouncer),
	}
	e.runtimes[sessionID] = rt
	return rt, nil
}

func (e *Engine) persist(ctx context.Context, sess *session.Session) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, sess); err != nil {
		e.logger.Warn("session persist failed", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
	}
}

// Snapshot is the engine's session view for API consumers.
type Snapshot struct {
	SessionID    string                      `json:"sessionId"`
	CurrentIndex int                         `json:"currentIndex"`
	CurrentStep  *flow.Step                  `json:"currentStep,omitempty"`
	Terminal     bool                        `json:"terminal"`
	Flow         flow.FlowTag                `json:"flow,omitempty"`
	AutoInFlight bool                        `json:"autoInFlight"`
	Transcript   []session.TranscriptEntry   `json:"transcript,omitempty"`
	Matches      []matching.ScoredUniversity `json:"matches,omitempty"`
	Synthetic    bool                        `json:"synthetic,omitempty"`
}

// snapshot builds the API view. Called with rt.mu held.
func (e *Engine) snapshot(rt *sessionRuntime) *Snapshot {
	snap := &Snapshot{
		SessionID:    rt.sess.ID,
		CurrentIndex: rt.sess.CurrentIndex,
		Terminal:     rt.sess.CurrentIndex >= e.reg.Len(),
		Flow:         rt.sess.Flow,
		Transcript:   rt.sess.Transcript(e.reg),
		Matches:      rt.sess.Matches,
		Synthetic:    poolIsSynthetic(rt.sess.Pool),
	}
	if !snap.Terminal {
		step := e.reg.At(rt.sess.CurrentIndex)
		snap.CurrentStep = &step
		if step.Auto() {
			snap.AutoInFlight = rt.guard(step.ID).InFlight()
		}
	}
	return snap
}

func poolIsSynthetic(pool []catalog.CandidateUniversity) bool {
	for _, c := range pool {
		if c.Synthetic {
			return true
		}
	}
	return false
}

func summaryLabel(n int, what string) string {
	if n == 0 {
		return "No " + what
	}
	return strconv.Itoa(n) + " " + what
}
