// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Engine coordinates the four scoring signals, the hybrid combiner, and
// the adaptive boost stage. It is safe for concurrent use: scoring reads
// published models only, and a retrain builds aside before swapping.
type Engine struct {
	config *Config
	logger zerolog.Logger

	// Registered signals and the boost stage
	signals []Signal
	booster Booster
	sigMu   sync.RWMutex

	// Training state
	trainMu           sync.Mutex
	status            TrainingStatus
	statusMu          sync.RWMutex
	modelVersion      atomic.Int32
	trainedEventCount atomic.Int64

	// Metrics recorder (optional)
	recorder Recorder

	// Response cache
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	// Random source for request IDs
	rng   *rand.Rand
	rngMu sync.Mutex

	provider DataProvider
}

// cacheEntry holds a cached scoring response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Recorder receives engine observability events. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// ObserveRequest records a completed scoring request.
	ObserveRequest(duration time.Duration, cacheHit bool, err error)

	// ObserveTraining records a completed training run.
	ObserveTraining(duration time.Duration, err error)
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Engine{
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		signals: make([]Signal, 0, 4),
		cache:   make(map[string]cacheEntry),
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // request IDs only
	}, nil
}

// SetDataProvider sets the data provider for training and scoring.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.provider = dp
}

// SetRecorder attaches a metrics recorder.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// RegisterSignal adds a scoring signal to the ensemble.
func (e *Engine) RegisterSignal(s Signal) {
	e.sigMu.Lock()
	defer e.sigMu.Unlock()

	e.signals = append(e.signals, s)
	e.logger.Info().Str("signal", s.Name()).Msg("registered signal")
}

// SetBooster sets the adaptive boost stage.
func (e *Engine) SetBooster(b Booster) {
	e.sigMu.Lock()
	defer e.sigMu.Unlock()

	e.booster = b
	e.logger.Info().Str("booster", b.Name()).Msg("registered booster")
}

// Recommend scores the catalog for a user and returns a ranked list.
// Unknown users are a hard error (ErrUnknownUser); every other degenerate
// condition degrades to the remaining signals.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (res *Response, err error) {
	start := time.Now()
	defer func() {
		if e.recorder != nil {
			hit := res != nil && res.Metadata.CacheHit
			e.recorder.ObserveRequest(time.Since(start), hit, err)
		}
	}()

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()
	logger.Debug().Msg("processing scoring request")

	if resp := e.tryCachedResponse(req, start); resp != nil {
		logger.Debug().Msg("cache hit")
		return resp, nil
	}

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	user := findUser(snap.Users, req.UserID)
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", req.UserID, ErrUnknownUser)
	}

	e.maybeRetrain(ctx, snap, logger)

	candidates := e.collectCandidates(snap, user)
	if len(candidates) == 0 {
		logger.Debug().Msg("no candidates available")
		return e.emptyResponse(req, start), nil
	}

	items := indexItems(snap.Items)
	profile := e.buildRequestProfile(req, user, snap, items)

	results := e.runSignals(ctx, req, candidates)
	scored, meta := e.combine(req, candidates, items, results, profile)
	scored = e.applyBoost(scored, profile, items)

	sortScored(scored)
	if len(scored) > req.K {
		scored = scored[:req.K]
	}
	attachItems(scored, items)

	resp := &Response{
		Items:           scored,
		TotalCandidates: len(candidates),
		Metadata:        e.finishMetadata(req, meta, start),
	}
	e.cacheResponse(req, resp)

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(scored)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("scoring complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = e.generateRequestID()
	}
	if req.K == 0 {
		req.K = e.config.Limits.DefaultK
	}
	if req.K > e.config.Limits.MaxK {
		req.K = e.config.Limits.MaxK
	}
	if req.WindowDays == 0 {
		req.WindowDays = e.config.Boost.WindowDays
	}
	return req
}

// loadSnapshot fetches a consistent catalog/user/event view from the provider.
func (e *Engine) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("data provider not set")
	}

	items, err := e.provider.GetItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	users, err := e.provider.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	events, err := e.provider.GetInteractions(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("get interactions: %w", err)
	}

	return &Snapshot{Items: items, Users: users, Events: events}, nil
}

// maybeRetrain rebuilds the models when enough new interactions arrived
// since the last successful train. Failures keep the previous models.
func (e *Engine) maybeRetrain(ctx context.Context, snap *Snapshot, logger zerolog.Logger) {
	pending := int64(len(snap.Events)) - e.trainedEventCount.Load()
	trained := e.modelVersion.Load() > 0

	if trained && pending < int64(e.config.Training.RetrainEvery) {
		return
	}

	if err := e.trainOn(ctx, snap); err != nil {
		if trained {
			logger.Warn().Err(err).Msg("retrain failed, keeping previous model")
		} else {
			logger.Warn().Err(err).Msg("initial training failed")
		}
	}
}

// Train rebuilds all signal models from the provider's current snapshot.
// Returns ErrTrainingInProgress if a training run is already active.
func (e *Engine) Train(ctx context.Context) error {
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return err
	}
	return e.trainOn(ctx, snap)
}

// trainOn trains every registered signal on the given snapshot.
// Individual signal failures are logged and do not abort the run; the
// failing signal keeps its previous model.
func (e *Engine) trainOn(ctx context.Context, snap *Snapshot) (err error) {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	defer func() {
		if e.recorder != nil {
			e.recorder.ObserveTraining(time.Since(start), err)
		}
	}()

	e.setTrainingStarted(snap)
	e.logger.Info().
		Int("items", len(snap.Items)).
		Int("users", len(snap.Users)).
		Int("interactions", len(snap.Events)).
		Msg("starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	var firstErr error
	for _, sig := range e.getSignals() {
		if trainErr := sig.Train(trainCtx, snap); trainErr != nil {
			e.logger.Error().
				Str("signal", sig.Name()).
				Err(trainErr).
				Msg("signal training failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("train %s: %w", sig.Name(), trainErr)
			}
			continue
		}
		e.logger.Debug().Str("signal", sig.Name()).Msg("signal training complete")
	}

	e.setTrainingFinished(start, firstErr)

	if firstErr == nil {
		e.modelVersion.Add(1)
		e.trainedEventCount.Store(int64(len(snap.Events)))
		if e.config.Cache.InvalidateOnTrain {
			e.clearCache()
		}
		e.logger.Info().
			Int("version", int(e.modelVersion.Load())).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("model training complete")
	}

	return firstErr
}

// setTrainingStarted records data statistics at the start of a run.
func (e *Engine) setTrainingStarted(snap *Snapshot) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.IsTraining = true
	e.status.LastError = ""
	e.status.InteractionCount = len(snap.Events)
	e.status.ItemCount = len(snap.Items)
	e.status.UserCount = len(snap.Users)
}

// setTrainingFinished records the outcome of a run.
func (e *Engine) setTrainingFinished(start time.Time, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.IsTraining = false
	e.status.LastTrainingDurationMS = time.Since(start).Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
		return
	}
	e.status.LastTrainedAt = time.Now()
	e.status.ModelVersion = int(e.modelVersion.Load()) + 1
}

// Status returns the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	s := e.status
	s.ModelVersion = int(e.modelVersion.Load())
	return s
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// getSignals returns the registered signals under the read lock.
func (e *Engine) getSignals() []Signal {
	e.sigMu.RLock()
	defer e.sigMu.RUnlock()
	return e.signals
}

// collectCandidates returns all items the user has not interacted with.
func (e *Engine) collectCandidates(snap *Snapshot, user *User) []string {
	candidates := make([]string, 0, len(snap.Items))
	for i := range snap.Items {
		if !user.HasInteracted(snap.Items[i].ID) {
			candidates = append(candidates, snap.Items[i].ID)
		}
	}
	return candidates
}

// buildRequestProfile derives the behavior profile for this request from
// the user's own events within the requested window.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildRequestProfile(req Request, user *User, snap *Snapshot, items map[string]*Item) *BehaviorProfile {
	userEvents := make([]Interaction, 0, 16)
	for _, ev := range snap.Events {
		if ev.UserID == user.ID {
			userEvents = append(userEvents, ev)
		}
	}

	opts := e.config.ProfileOptions()
	opts.WindowDays = req.WindowDays
	return BuildProfile(userEvents, items, time.Now(), opts)
}

// signalResult holds one signal's raw scores.
type signalResult struct {
	name   string
	scores map[string]float64
	err    error
}

// runSignals scores candidates with every trained signal in parallel.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runSignals(ctx context.Context, req Request, candidates []string) []signalResult {
	signals := e.getSignals()
	results := make([]signalResult, len(signals))

	q := ScoreQuery{
		UserID:     req.UserID,
		Query:      req.Query,
		Candidates: candidates,
	}

	var wg sync.WaitGroup
	for i, sig := range signals {
		wg.Add(1)
		go func(idx int, s Signal) {
			defer wg.Done()
			results[idx] = signalResult{name: s.Name()}
			if !s.IsTrained() {
				return
			}
			scores, err := s.Score(ctx, q)
			results[idx].scores = scores
			results[idx].err = err
		}(i, sig)
	}
	wg.Wait()

	return results
}

// combine normalizes each signal onto a [0,1] scale, chooses, adjusts,
// and redistributes the weight vector, and produces blended scores.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) combine(req Request, candidates []string, items map[string]*Item, results []signalResult, profile *BehaviorProfile) ([]ScoredItem, ResponseMetadata) {
	missing := map[string]bool{
		SignalCollaborative: true,
		SignalContent:       true,
		SignalDemographic:   true,
		SignalKeyword:       true,
	}
	byName := make(map[string]map[string]float64, len(results))

	for _, r := range results {
		if r.err != nil {
			e.logger.Warn().Str("signal", r.name).Err(r.err).Msg("signal scoring failed")
			continue
		}
		if len(r.scores) == 0 {
			continue
		}
		missing[r.name] = false
		byName[r.name] = r.scores
	}

	base := e.config.Weights.Select(req.Query != "")
	adjusted := AdjustWeights(base, profile, e.config.Weights.Adjust)
	weights := RedistributeMissing(adjusted, missing)

	var used []string
	for _, name := range []string{SignalCollaborative, SignalContent, SignalDemographic, SignalKeyword} {
		if !missing[name] && weights.Get(name) > 0 {
			used = append(used, name)
		}
	}

	meta := ResponseMetadata{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		Query:     req.Query,
		Weights:   weights,
	}

	// Every signal missing: fall back to the popularity prior so a brand
	// new user still receives a defined ranking.
	if weights.Sum() == 0 {
		meta.SignalsUsed = []string{"popularity"}
		return e.popularityScores(candidates, items), meta
	}
	meta.SignalsUsed = used

	scored := make([]ScoredItem, 0, len(candidates))
	for _, id := range candidates {
		var item ScoredItem
		item.Item.ID = id
		var blended float64
		var any bool

		for name, scores := range byName {
			raw, ok := scores[id]
			if !ok {
				continue
			}
			any = true
			setComponent(&item.Components, name, raw)
			blended += weights.Get(name) * e.normalizeSignal(name, raw)
		}
		if !any {
			continue
		}
		item.Score = blended
		scored = append(scored, item)
	}

	return scored, meta
}

// normalizeSignal maps a raw signal score onto [0,1].
func (e *Engine) normalizeSignal(name string, raw float64) float64 {
	switch name {
	case SignalCollaborative:
		// Predicted affinity is roughly centered; affine map then clip.
		return clamp01((raw + e.config.Normalize.CollabOffset) / e.config.Normalize.CollabScale)
	case SignalContent:
		// Signed cosine in [-1,1]: oppositional items land below 0.5
		// rather than being floored to 0.
		return clamp01((raw + 1) / 2)
	case SignalDemographic:
		return clamp01(raw / e.config.Normalize.DemographicScale)
	case SignalKeyword:
		return clamp01(raw)
	default:
		return clamp01(raw)
	}
}

// setComponent records a raw score in the component breakdown.
func setComponent(c *ComponentScores, name string, raw float64) {
	switch name {
	case SignalCollaborative:
		c.Collaborative = raw
	case SignalContent:
		c.Content = raw
	case SignalDemographic:
		c.Demographic = raw
	case SignalKeyword:
		c.Keyword = raw
	}
}

// popularityScores ranks candidates by log-scaled downloads blended with
// the aggregate rating. Used only when all four signals are missing.
func (e *Engine) popularityScores(candidates []string, items map[string]*Item) []ScoredItem {
	scored := make([]ScoredItem, 0, len(candidates))
	var maxPop float64
	pops := make(map[string]float64, len(candidates))

	for _, id := range candidates {
		item, ok := items[id]
		if !ok {
			continue
		}
		p := math.Log10(float64(item.Downloads) + 1)
		pops[id] = p
		if p > maxPop {
			maxPop = p
		}
	}

	for _, id := range candidates {
		item, ok := items[id]
		if !ok {
			continue
		}
		pop := 0.0
		if maxPop > 0 {
			pop = pops[id] / maxPop
		}
		score := 0.7*pop + 0.3*clamp01(item.Rating/5)
		scored = append(scored, ScoredItem{Item: Item{ID: id}, Score: score})
	}

	return scored
}

// applyBoost multiplies each blended score by the product of the six
// per-attribute boost factors.
func (e *Engine) applyBoost(scored []ScoredItem, profile *BehaviorProfile, items map[string]*Item) []ScoredItem {
	e.sigMu.RLock()
	booster := e.booster
	e.sigMu.RUnlock()

	if booster == nil {
		return scored
	}

	for i := range scored {
		item, ok := items[scored[i].Item.ID]
		if !ok {
			continue
		}
		factors := booster.Factors(profile, item)
		scored[i].Boost = factors
		scored[i].Score *= factors.Total
	}
	return scored
}

// sortScored orders by descending score with item ID as a deterministic
// tie-break, so identical snapshots always produce identical rankings.
func sortScored(scored []ScoredItem) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
}

// attachItems fills in pass-through catalog metadata for display.
func attachItems(scored []ScoredItem, items map[string]*Item) {
	for i := range scored {
		if item, ok := items[scored[i].Item.ID]; ok {
			scored[i].Item = *item
		}
	}
}

// finishMetadata stamps version and timing information.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) finishMetadata(req Request, meta ResponseMetadata, start time.Time) ResponseMetadata {
	e.statusMu.RLock()
	trainedAt := e.status.LastTrainedAt
	e.statusMu.RUnlock()

	meta.LatencyMS = time.Since(start).Milliseconds()
	meta.ModelVersion = int(e.modelVersion.Load())
	meta.TrainedAt = trainedAt
	meta.Timestamp = time.Now()
	return meta
}

// emptyResponse returns a response with no items.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) emptyResponse(req Request, start time.Time) *Response {
	return &Response{
		Items:    []ScoredItem{},
		Metadata: e.finishMetadata(req, ResponseMetadata{RequestID: req.RequestID, UserID: req.UserID, Query: req.Query}, start),
	}
}

// cacheKey generates a cache key for a request.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func (e *Engine) cacheKey(req Request) string {
	return fmt.Sprintf("rec:%s:%d:%d:%s", req.UserID, req.K, req.WindowDays, req.Query)
}

// tryCachedResponse returns a copy of a valid cached response, or nil.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryCachedResponse(req Request, start time.Time) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	e.cacheMu.RLock()
	entry, ok := e.cache[e.cacheKey(req)]
	e.cacheMu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}

	items := make([]ScoredItem, len(entry.response.Items))
	copy(items, entry.response.Items)

	resp := &Response{
		Items:           items,
		TotalCandidates: entry.response.TotalCandidates,
		Metadata:        entry.response.Metadata,
	}
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	return resp
}

// cacheResponse stores a response if caching is enabled.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if !e.config.Cache.Enabled {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		now := time.Now()
		for key, entry := range e.cache {
			if now.After(entry.expiresAt) {
				delete(e.cache, key)
			}
		}
	}

	e.cache[e.cacheKey(req)] = cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

// clearCache removes all cached responses.
func (e *Engine) clearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("response cache cleared")
}

// generateRequestID generates a unique request ID for tracing.
func (e *Engine) generateRequestID() string {
	e.rngMu.Lock()
	n := e.rng.Intn(10000)
	e.rngMu.Unlock()
	return fmt.Sprintf("rec-%d-%d", time.Now().UnixNano(), n)
}

// findUser returns the user record, or nil when absent.
func findUser(users []User, id string) *User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

// indexItems builds an ID lookup over the catalog snapshot.
func indexItems(items []Item) map[string]*Item {
	idx := make(map[string]*Item, len(items))
	for i := range items {
		idx[items[i].ID] = &items[i]
	}
	return idx
}

// clamp01 clips v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
