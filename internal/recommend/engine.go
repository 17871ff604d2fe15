// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// Engine produces ranked recommendations for every mode.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	fuser    *Fuser
	policies policySet
	moods    *MoodMapper
	profile  ProfileStrategy

	store    VectorStore
	profiles ProfileSource

	rerankers []Reranker
	rrMu      sync.RWMutex

	// fused caches fused vectors keyed by policy name and song ID; nil when disabled
	fused *cache.LRU[FusedVector]

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// EngineOption customizes an Engine at construction.
type EngineOption func(*Engine)

// WithProfileStrategy replaces the default centroid profile strategy.
func WithProfileStrategy(ps ProfileStrategy) EngineOption {
	return func(e *Engine) {
		if ps != nil {
			e.profile = ps
		}
	}
}

// NewEngine creates a recommendation engine over store and profiles.
// A nil cfg uses DefaultConfig. The config is copied; later changes to cfg
// have no effect.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, store VectorStore, profiles ProfileSource, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, errors.New("vector store is required")
	}
	cfg = cfg.Clone()

	fuser, err := NewFuser(cfg.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create fuser: %w", err)
	}
	policies, err := cfg.buildPolicies()
	if err != nil {
		return nil, err
	}
	moods, err := NewMoodMapper(fuser, policies.byMood)
	if err != nil {
		return nil, fmt.Errorf("build mood vectors: %w", err)
	}

	e := &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		fuser:     fuser,
		policies:  policies,
		moods:     moods,
		profile:   CentroidStrategy{},
		store:     store,
		profiles:  profiles,
		rerankers: make([]Reranker, 0),
	}
	if cfg.Cache.Enabled {
		e.fused = cache.NewLRU[FusedVector](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger.Debug().
		Str("by_song", policies.bySong.String()).
		Str("by_mood", policies.byMood.String()).
		Str("by_image", policies.byImage.String()).
		Str("profile_strategy", e.profile.Name()).
		Bool("cache", cfg.Cache.Enabled).
		Msg("recommendation engine ready")

	return e, nil
}

// RegisterReranker adds a reranker to the post-processing pipeline.
// Rerankers apply to similarity modes only.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.rrMu.Lock()
	defer e.rrMu.Unlock()

	e.rerankers = append(e.rerankers, rr)
	e.logger.Info().
		Str("reranker", rr.Name()).
		Msg("registered reranker")
}

// Fuser returns the engine's fuser.
func (e *Engine) Fuser() *Fuser {
	return e.fuser
}

// Moods returns the supported mood labels.
func (e *Engine) Moods() []string {
	return e.moods.Moods()
}

// Policy returns the fusion policy used by a similarity mode.
func (e *Engine) Policy(mode RecommendMode) (FusionPolicy, bool) {
	switch mode {
	case ModeBySong:
		return e.policies.bySong, true
	case ModeByMood:
		return e.policies.byMood, true
	case ModeByImage:
		return e.policies.byImage, true
	case ModePersonalized:
		// Profiles are built in the by-song space.
		return e.policies.bySong, true
	default:
		return FusionPolicy{}, false
	}
}

// RecommendBySong recommends songs similar to a seed song.
func (e *Engine) RecommendBySong(ctx context.Context, id SongID, k int) (*Response, error) {
	return e.Recommend(ctx, Request{Query: BySong{SongID: id}, K: k})
}

// RecommendByMood recommends songs matching a mood label.
func (e *Engine) RecommendByMood(ctx context.Context, label string, k int) (*Response, error) {
	return e.Recommend(ctx, Request{Query: ByMood{Label: label}, K: k})
}

// RecommendByImage recommends songs whose cover art resembles an image vector.
func (e *Engine) RecommendByImage(ctx context.Context, image ModalityVector, k int) (*Response, error) {
	return e.Recommend(ctx, Request{Query: ByImage{Vector: image}, K: k})
}

// RecommendPersonalized recommends songs matching a user's listening history.
func (e *Engine) RecommendPersonalized(ctx context.Context, userID string, k int) (*Response, error) {
	return e.Recommend(ctx, Request{Query: Personalized{UserID: userID}, K: k})
}

// RecommendPopular returns the most popular songs.
func (e *Engine) RecommendPopular(ctx context.Context, k int) (*Response, error) {
	return e.Recommend(ctx, Request{Query: Popular{}, K: k})
}

// outcome is the mode-specific part of a response.
type outcome struct {
	results     []RankedResult
	candidates  int
	skipped     int
	policy      string
	reason      string
	rerank      bool
	cacheHits   int
	cacheMisses int
}

// Recommend generates recommendations for a request.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if req.Query == nil {
		e.errorCount.Add(1)
		return nil, errors.New("recommend: query is required")
	}

	req = e.prepareRequest(ctx, req)
	mode := req.Query.Mode()
	logger := e.createRequestLogger(req)
	logger.Debug().Int("k", req.K).Msg("processing recommendation request")

	var (
		out *outcome
		err error
	)
	switch q := req.Query.(type) {
	case BySong:
		out, err = e.recommendBySong(ctx, req, q)
	case ByMood:
		out, err = e.recommendByMood(ctx, req, q)
	case ByImage:
		out, err = e.recommendByImage(ctx, req, q)
	case Personalized:
		out, err = e.recommendPersonalized(ctx, req, q)
	case Popular:
		out, err = e.recommendPopular(ctx, req)
	default:
		err = fmt.Errorf("recommend: unsupported query type %T", q)
	}

	if err != nil {
		e.errorCount.Add(1)
		metrics.RecordRecommendation(mode.String(), time.Since(start), 0, 0, ErrorKind(err))
		logger.Debug().Err(err).Str("error_type", ErrorKind(err)).Msg("recommendation failed")
		return nil, err
	}

	resp := e.buildResponse(ctx, req, out, start)

	metrics.RecordRecommendation(mode.String(), time.Since(start), resp.TotalCandidates, resp.Skipped, "")
	metrics.RecordFusionCache(out.cacheHits, out.cacheMisses)
	logger.Debug().
		Int("candidates", resp.TotalCandidates).
		Int("skipped", resp.Skipped).
		Int("returned", len(resp.Items)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults. A missing request ID is taken from ctx,
// else generated.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(ctx context.Context, req Request) Request {
	if req.RequestID == "" {
		req.RequestID = logging.RequestIDFromContext(ctx)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.K == 0 {
		req.K = e.config.Limits.DefaultK
	}
	if req.K > e.config.Limits.MaxK {
		req.K = e.config.Limits.MaxK
	}
	_, popular := req.Query.(Popular)
	switch {
	case popular && req.Filter.Limit <= 0:
		// Popularity ranks the whole filtered catalog; vectors are not fused.
	case req.Filter.Limit <= 0 || req.Filter.Limit > e.config.Limits.MaxCandidates:
		req.Filter.Limit = e.config.Limits.MaxCandidates
	}
	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("mode", req.Query.Mode().String()).
		Logger()
}

func (e *Engine) recommendBySong(ctx context.Context, req Request, q BySong) (*outcome, error) {
	seed, err := e.store.GetSong(ctx, q.SongID)
	if err != nil {
		return nil, fmt.Errorf("get seed song: %w", err)
	}

	policy := e.policies.bySong
	query, err := e.fuser.QueryFromSong(seed.Vectors, policy)
	if err != nil {
		return nil, err
	}

	title := seed.Title
	if title == "" {
		title = string(seed.ID)
	}
	exclude := map[SongID]struct{}{seed.ID: {}}
	return e.rankSimilar(ctx, req, query, policy, exclude, "similar to "+title)
}

func (e *Engine) recommendByMood(ctx context.Context, req Request, q ByMood) (*outcome, error) {
	mv, err := e.moods.VectorForMood(q.Label)
	if err != nil {
		return nil, err
	}

	policy := e.policies.byMood
	query, err := e.fuser.QueryFromMood(mv, policy)
	if err != nil {
		return nil, err
	}
	return e.rankSimilar(ctx, req, query, policy, nil, fmt.Sprintf("matches %s mood", mv.Mood))
}

func (e *Engine) recommendByImage(ctx context.Context, req Request, q ByImage) (*outcome, error) {
	policy := e.policies.byImage
	query, err := e.fuser.QueryFromImage(q.Vector, policy)
	if err != nil {
		return nil, err
	}
	return e.rankSimilar(ctx, req, query, policy, nil, "visual style match")
}

func (e *Engine) recommendPersonalized(ctx context.Context, req Request, q Personalized) (*outcome, error) {
	if e.profiles == nil {
		return nil, errors.New("personalized: profile source not configured")
	}

	ids, err := e.profiles.GetLikedOrPlayedSongIDs(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user history: %w", err)
	}
	if len(ids) == 0 {
		return nil, &InsufficientHistoryError{UserID: q.UserID}
	}

	policy := e.policies.bySong
	exclude := make(map[SongID]struct{}, len(ids))
	history := make([]FusedVector, 0, len(ids))
	missing := 0
	hits, misses := 0, 0

	for _, id := range ids {
		if _, seen := exclude[id]; seen {
			continue
		}
		exclude[id] = struct{}{}

		song, err := e.store.GetSong(ctx, id)
		if errors.Is(err, ErrSongNotFound) {
			missing++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get history song %s: %w", id, err)
		}

		vec, hit, err := e.fusedVector(song, policy)
		if err != nil {
			if errors.Is(err, ErrDegenerateVector) {
				missing++
				continue
			}
			return nil, fmt.Errorf("history song %s: %w", id, err)
		}
		if hit {
			hits++
		} else {
			misses++
		}
		history = append(history, vec)
	}

	if len(history) == 0 {
		return nil, &InsufficientHistoryError{UserID: q.UserID, Missing: missing}
	}

	query, err := e.profile.Profile(history)
	if err != nil {
		var ih *InsufficientHistoryError
		if errors.As(err, &ih) && ih.UserID == "" {
			ih.UserID = q.UserID
		}
		return nil, fmt.Errorf("build profile: %w", err)
	}

	out, err := e.rankSimilar(ctx, req, query, policy, exclude, "based on your listening history")
	if err != nil {
		return nil, err
	}
	out.skipped += missing
	out.cacheHits += hits
	out.cacheMisses += misses
	return out, nil
}

func (e *Engine) recommendPopular(ctx context.Context, req Request) (*outcome, error) {
	songs, err := e.store.ListCandidates(ctx, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	results := make([]RankedResult, 0, len(songs))
	maxScore := 0.0
	for i := range songs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pop, err := e.store.GetPopularityScore(ctx, songs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("popularity of %s: %w", songs[i].ID, err)
		}
		if pop > maxScore {
			maxScore = pop
		}
		results = append(results, RankedResult{Candidate: Candidate{Song: songs[i]}, Score: pop})
	}

	if maxScore > 0 {
		for i := range results {
			results[i].Score /= maxScore
		}
	}

	k := max(req.K, 0)
	return &outcome{
		results:    topK(results, k),
		candidates: len(songs),
		reason:     "trending",
	}, nil
}

// rankSimilar fuses the candidate set under policy and ranks it against query.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rankSimilar(ctx context.Context, req Request, query FusedVector, policy FusionPolicy, exclude map[SongID]struct{}, reason string) (*outcome, error) {
	songs, err := e.store.ListCandidates(ctx, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(songs))
	hits, misses := 0, 0
	for i := range songs {
		if _, skip := exclude[songs[i].ID]; skip {
			continue
		}
		vec, hit, err := e.fusedVector(songs[i], policy)
		if err != nil {
			if !errors.Is(err, ErrDegenerateVector) {
				return nil, fmt.Errorf("candidate %s: %w", songs[i].ID, err)
			}
			// Zero vectors are skipped and counted by the ranker.
			vec = make(FusedVector, policy.FusedDim(e.fuser.Dimensions()))
		}
		if hit {
			hits++
		} else {
			misses++
		}
		candidates = append(candidates, Candidate{Song: songs[i], Vector: vec})
	}

	fetchK := req.K
	rerank := e.hasRerankers()
	if rerank && fetchK > 0 {
		fetchK *= e.config.Diversity.Overfetch
	}

	ranking, err := e.rank(ctx, query, candidates, fetchK)
	if err != nil {
		return nil, err
	}

	results := ranking.Results
	if minScore := e.config.Limits.MinScore; minScore > -1 {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= minScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	return &outcome{
		results:     results,
		candidates:  len(candidates),
		skipped:     ranking.Skipped,
		policy:      policy.Name(),
		reason:      reason,
		rerank:      rerank,
		cacheHits:   hits,
		cacheMisses: misses,
	}, nil
}

// rank picks the sequential or parallel ranking path by candidate count.
func (e *Engine) rank(ctx context.Context, query FusedVector, candidates []Candidate, k int) (Ranking, error) {
	threshold := e.config.Parallel.Threshold
	if threshold > 0 && len(candidates) >= threshold {
		return RankParallel(ctx, query, candidates, k, e.config.Parallel.Workers)
	}
	return Rank(query, candidates, k)
}

// fusedVector returns the song's fused vector under policy, from cache when
// possible. The second result reports a cache hit.
//
//nolint:gocritic // hugeParam: song passed by value, read-only
func (e *Engine) fusedVector(song Song, policy FusionPolicy) (FusedVector, bool, error) {
	if e.fused == nil {
		v, err := e.fuser.Fuse(song.Vectors, policy)
		return v, false, err
	}

	key := fusedCacheKey(policy.Name(), song.ID)
	if v, ok := e.fused.Get(key); ok {
		return v, true, nil
	}
	v, err := e.fuser.Fuse(song.Vectors, policy)
	if err != nil {
		return nil, false, err
	}
	e.fused.Add(key, v)
	return v, false, nil
}

func fusedCacheKey(policy string, id SongID) string {
	return policy + ":" + string(id)
}

// InvalidateSong drops cached fused vectors of a song under every policy.
// Call it after a song's vectors change.
func (e *Engine) InvalidateSong(id SongID) {
	if e.fused == nil {
		return
	}
	for _, name := range []string{PolicyBySong, PolicyByMood, PolicyByImage} {
		e.fused.Remove(fusedCacheKey(name, id))
	}
}

// ClearCache drops every cached fused vector.
func (e *Engine) ClearCache() {
	if e.fused != nil {
		e.fused.Clear()
	}
}

func (e *Engine) hasRerankers() bool {
	e.rrMu.RLock()
	defer e.rrMu.RUnlock()
	return len(e.rerankers) > 0
}

func (e *Engine) getRerankers() []Reranker {
	e.rrMu.RLock()
	defer e.rrMu.RUnlock()
	out := make([]Reranker, len(e.rerankers))
	copy(out, e.rerankers)
	return out
}

// buildResponse applies rerankers, truncates to K and annotates reasons.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(ctx context.Context, req Request, out *outcome, start time.Time) *Response {
	items := out.results
	var applied []string

	if out.rerank && req.K > 0 {
		for _, rr := range e.getRerankers() {
			items = rr.Rerank(ctx, items, req.K)
			applied = append(applied, rr.Name())
		}
	}

	if req.K <= 0 || items == nil {
		items = []RankedResult{}
	} else if len(items) > req.K {
		items = items[:req.K]
	}
	for i := range items {
		items[i].Reason = out.reason
	}

	return &Response{
		Items:           items,
		TotalCandidates: out.candidates,
		Skipped:         out.skipped,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			Mode:            req.Query.Mode().String(),
			Policy:          out.policy,
			Rerankers:       applied,
			LatencyMS:       time.Since(start).Milliseconds(),
			FusionCacheHits: out.cacheHits,
			Timestamp:       time.Now(),
		},
	}
}

// EngineStats is a snapshot of engine counters.
type EngineStats struct {
	Requests int64       `json:"requests"`
	Errors   int64       `json:"errors"`
	Cache    cache.Stats `json:"cache"`
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() EngineStats {
	s := EngineStats{
		Requests: e.requestCount.Load(),
		Errors:   e.errorCount.Load(),
	}
	if e.fused != nil {
		s.Cache = e.fused.Stats()
	}
	return s
}
