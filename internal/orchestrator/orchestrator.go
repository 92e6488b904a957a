// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"onboarding-engine/internal/catalog"
	"onboarding-engine/internal/common/logger"
	"onboarding-engine/internal/common/metrics"
	"onboarding-engine/internal/common/observability"
	"onboarding-engine/internal/flow"
	"onboarding-engine/internal/matching"
	"onboarding-engine/internal/search"
)

// LocalCatalog is the locally seeded catalog used for short queries and as
// the first fallback when the collaborator fails.
type LocalCatalog interface {
	SearchCountries(ctx context.Context, prefix string, limit int) ([]string, error)
	SearchCourses(ctx context.Context, prefix string, limit int) ([]string, error)
	SearchUniversities(ctx context.Context, query string, limit int) ([]catalog.CandidateUniversity, error)
	ListByCountry(ctx context.Context, country string, limit int) ([]catalog.CandidateUniversity, error)
}

// UniversityTextSearch is the optional full-text backend (Elasticsearch)
// tried before the Postgres substring match for university live search.
type UniversityTextSearch interface {
	SearchUniversities(ctx context.Context, query string, limit int) ([]catalog.CandidateUniversity, error)
}

// Suggestion is one live-search result row.
type Suggestion struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Config struct {
	MinQueryLength    int
	LiveSearchLimit   int
	PoolLimit         int
	SyntheticPoolSize int
	CacheTTL          time.Duration
}

// Orchestrator owns every outbound search the flow makes and enforces the
// availability-over-accuracy policy: collaborator failures degrade through
// the local catalog down to a synthetic pool, never into an error visible
// to step-transition logic.
type Orchestrator struct {
	collab search.Collaborator
	local  LocalCatalog
	text   UniversityTextSearch
	cache  *redis.Client
	cfg    Config
	logger logger.Logger
	obs    *observability.Observability
}

// SetObservability attaches the otel recorder. Optional.
func (o *Orchestrator) SetObservability(obs *observability.Observability) {
	o.obs = obs
}

func New(collab search.Collaborator, local LocalCatalog, text UniversityTextSearch, cache *redis.Client, cfg Config, log logger.Logger) *Orchestrator {
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 3
	}
	if cfg.LiveSearchLimit <= 0 {
		cfg.LiveSearchLimit = 10
	}
	if cfg.PoolLimit <= 0 {
		cfg.PoolLimit = 12
	}
	return &Orchestrator{
		collab: collab,
		local:  local,
		text:   text,
		cache:  cache,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// FetchPool serves the auto-search step: the bulk by-country collaborator
// search, cached per country+course. The returned pool is never empty.
func (o *Orchestrator) FetchPool(ctx context.Context, profile matching.Profile) []catalog.CandidateUniversity {
	cacheKey := poolCacheKey(profile.Country, profile.Course)
	if pool := o.cachedPool(ctx, cacheKey); len(pool) > 0 {
		return pool
	}

	start := time.Now()
	metrics.Searches.WithLabelValues(string(search.ModeByCountry)).Inc()

	resp, err := o.collab.Search(ctx, search.Request{
		Mode:    search.ModeByCountry,
		Country: profile.Country,
		Course:  profile.Course,
		Limit:   o.cfg.PoolLimit,
		Profile: &search.ProfileContext{GPA: profile.GPA},
	})
	o.recordSearch(ctx, search.ModeByCountry, time.Since(start))

	if err == nil && resp != nil {
		if pool := catalog.NormalizeAll(resp.Universities); len(pool) > 0 {
			o.storePool(ctx, cacheKey, pool)
			return pool
		}
	}
	if err != nil {
		o.logger.Warn("collaborator pool search failed, degrading", map[string]interface{}{
			"country": profile.Country,
			"error":   err.Error(),
		})
	}

	if o.local != nil {
		if pool, lerr := o.local.ListByCountry(ctx, profile.Country, o.cfg.PoolLimit); lerr == nil && len(pool) > 0 {
			metrics.SearchFallbacks.WithLabelValues("local").Inc()
			return pool
		}
	}

	metrics.SearchFallbacks.WithLabelValues("synthetic").Inc()
	return catalog.SyntheticPool(profile.Country, profile.Course, o.cfg.SyntheticPoolSize)
}

// LiveSearch serves the free-text-search steps. Queries shorter than the
// minimum length never reach the collaborator.
func (o *Orchestrator) LiveSearch(ctx context.Context, scope flow.SearchScope, query string) []Suggestion {
	query = strings.TrimSpace(query)
	if len(query) < o.cfg.MinQueryLength {
		return o.localSuggestions(ctx, scope, query)
	}

	start := time.Now()
	metrics.Searches.WithLabelValues(string(search.ModeByQuery)).Inc()

	resp, err := o.collab.Search(ctx, search.Request{
		Mode:  search.ModeByQuery,
		Query: scopedQuery(scope, query),
		Limit: o.cfg.LiveSearchLimit,
	})
	o.recordSearch(ctx, search.ModeByQuery, time.Since(start))

	if err == nil && resp != nil {
		if suggestions := suggestionsFromPartials(scope, resp.Universities); len(suggestions) > 0 {
			return suggestions
		}
	}

	metrics.SearchFallbacks.WithLabelValues("local").Inc()
	return o.localSuggestions(ctx, scope, query)
}

func (o *Orchestrator) localSuggestions(ctx context.Context, scope flow.SearchScope, query string) []Suggestion {
	if scope == flow.ScopeUniversity && o.text != nil {
		if found, err := o.text.SearchUniversities(ctx, query, o.cfg.LiveSearchLimit); err == nil && len(found) > 0 {
			return universitySuggestions(found)
		}
	}
	if o.local == nil {
		return nil
	}

	switch scope {
	case flow.ScopeCountry:
		names, err := o.local.SearchCountries(ctx, query, o.cfg.LiveSearchLimit)
		if err != nil {
			return nil
		}
		return nameSuggestions(names)
	case flow.ScopeCourse:
		names, err := o.local.SearchCourses(ctx, query, o.cfg.LiveSearchLimit)
		if err != nil {
			return nil
		}
		return nameSuggestions(names)
	default:
		found, err := o.local.SearchUniversities(ctx, query, o.cfg.LiveSearchLimit)
		if err != nil {
			return nil
		}
		return universitySuggestions(found)
	}
}

func (o *Orchestrator) cachedPool(ctx context.Context, key string) []catalog.CandidateUniversity {
	if o.cache == nil {
		return nil
	}
	data, err := o.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var pool []catalog.CandidateUniversity
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil
	}
	return pool
}

func (o *Orchestrator) storePool(ctx context.Context, key string, pool []catalog.CandidateUniversity) {
	if o.cache == nil {
		return
	}
	data, err := json.Marshal(pool)
	if err != nil {
		return
	}
	if err := o.cache.Set(ctx, key, data, o.cfg.CacheTTL).Err(); err != nil {
		o.logger.Debug("pool cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (o *Orchestrator) recordSearch(ctx context.Context, mode search.Mode, d time.Duration) {
	metrics.SearchDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
	if o.obs != nil {
		o.obs.RecordSearchDuration(ctx, string(mode), d)
	}
}

func poolCacheKey(country, course string) string {
	return "onboarding:pool:" + strings.ToLower(country) + ":" + strings.ToLower(course)
}

func scopedQuery(scope flow.SearchScope, query string) string {
	switch scope {
	case flow.ScopeCountry:
		return "universities in countries matching " + query
	case flow.ScopeCourse:
		return "universities offering courses matching " + query
	default:
		return query
	}
}

func suggestionsFromPartials(scope flow.SearchScope, partials []catalog.PartialCandidate) []Suggestion {
	switch scope {
	case flow.ScopeCountry:
		return dedupedNames(partials, func(p catalog.PartialCandidate) string { return p.Country })
	case flow.ScopeCourse:
		var names []string
		seen := map[string]bool{}
		for _, p := range partials {
			for _, course := range p.CoursesOffered {
				if course != "" && !seen[strings.ToLower(course)] {
					seen[strings.ToLower(course)] = true
					names = append(names, course)
				}
			}
		}
		return nameSuggestions(names)
	default:
		return dedupedNames(partials, func(p catalog.PartialCandidate) string { return p.Name })
	}
}

func dedupedNames(partials []catalog.PartialCandidate, pick func(catalog.PartialCandidate) string) []Suggestion {
	var names []string
	seen := map[string]bool{}
	for _, p := range partials {
		name := pick(p)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return nameSuggestions(names)
}

func nameSuggestions(names []string) []Suggestion {
	out := make([]Suggestion, 0, len(names))
	for _, n := range names {
		out = append(out, Suggestion{Value: n, Label: n})
	}
	return out
}

func universitySuggestions(found []catalog.CandidateUniversity) []Suggestion {
	out := make([]Suggestion, 0, len(found))
	for _, c := range found {
		out = append(out, Suggestion{Value: c.Name, Label: c.Name})
	}
	return out
}
