package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/KigaliAI/youtufy-app/internal/auth"
	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/internal/store"
	"github.com/KigaliAI/youtufy-app/internal/youtube"
	"github.com/KigaliAI/youtufy-app/pkg/hash"
)

// State tracks pipeline progression for one fetch.
type State int

const (
	StateIdle State = iota
	StateEnsuringCredential
	StateListing
	StateEnriching
	StateResolvingActivity
	StateAssembling
	StateCached

	// Terminal failure states.
	StateAuthRequired
	StateUpstreamUnavailable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnsuringCredential:
		return "ensuring_credential"
	case StateListing:
		return "listing"
	case StateEnriching:
		return "enriching"
	case StateResolvingActivity:
		return "resolving_activity"
	case StateAssembling:
		return "assembling"
	case StateCached:
		return "cached"
	case StateAuthRequired:
		return "auth_required"
	case StateUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// ResultCache memoizes the full aggregation result per user identity for a
// bounded time window.
type ResultCache interface {
	Get(ctx context.Context, userID string) (*model.AggregationResult, bool, error)
	Put(ctx context.Context, userID string, res *model.AggregationResult, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// TokenSource turns a possibly-stale credential into a valid one.
type TokenSource interface {
	EnsureValid(ctx context.Context, cred *model.Credential) (*model.Credential, error)
}

// Platform is the data API surface the pipeline consumes.
type Platform interface {
	ListSubscriptions(ctx context.Context, cred *model.Credential) ([]model.Subscription, error)
	EnrichChannels(ctx context.Context, cred *model.Credential, subs []model.Subscription) ([]model.EnrichedChannel, error)
	LatestUpload(ctx context.Context, cred *model.Credential, uploadsPlaylistID string) (*time.Time, error)
}

// Options configure a Pipeline.
type Options struct {
	// TTL for cached aggregation results. Minutes-scale; the upstream
	// list+enrich pass is expensive.
	TTL time.Duration
	// Workers bounds concurrent latest-activity lookups.
	Workers int
	// ResolveActivity enables the optional latest-upload enrichment step.
	ResolveActivity bool
}

// Pipeline orchestrates one user-initiated fetch: ensure valid credential,
// list subscriptions, enrich, resolve activity, assemble, cache. Control flow
// is a straight line with two fan-out/fan-in stages (enrichment batches and
// activity lookups); pagination stays sequential.
type Pipeline struct {
	creds    store.CredentialStore
	tokens   TokenSource
	platform Platform
	cache    ResultCache
	opts     Options
}

func New(creds store.CredentialStore, tokens TokenSource, platform Platform, cache ResultCache, opts Options) *Pipeline {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Pipeline{creds: creds, tokens: tokens, platform: platform, cache: cache, opts: opts}
}

// FetchResult carries the aggregation result plus run metadata the handler
// layer surfaces (cache hit, degraded enrichment, final state).
type FetchResult struct {
	Result   *model.AggregationResult
	State    State
	CacheHit bool
	Partial  bool
}

// Fetch runs the pipeline for one user. Force bypasses the cache exactly once
// and repopulates it. A cache hit short-circuits without touching the
// credential or the upstream API.
func (p *Pipeline) Fetch(ctx context.Context, userID string, force bool) (*FetchResult, error) {
	if !force {
		if res, ok, err := p.cache.Get(ctx, userID); err != nil {
			log.Warn().Str("user", hash.LogID(userID)).Err(err).Msg("result cache read failed, refetching")
		} else if ok {
			return &FetchResult{Result: res, State: StateCached, CacheHit: true}, nil
		}
	}

	fr, err := p.run(ctx, userID)
	if err != nil {
		return fr, err
	}

	if err := p.cache.Put(ctx, userID, fr.Result, p.opts.TTL); err != nil {
		return fr, fmt.Errorf("cache aggregation result: %w (%w)", err, store.ErrStorage)
	}
	fr.State = StateCached
	return fr, nil
}

// Invalidate drops the user's cached result so the next fetch goes upstream.
func (p *Pipeline) Invalidate(ctx context.Context, userID string) error {
	return p.cache.Invalidate(ctx, userID)
}

func (p *Pipeline) run(ctx context.Context, userID string) (*FetchResult, error) {
	start := time.Now()
	fr := &FetchResult{State: StateEnsuringCredential}

	cred, err := p.creds.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fr.State = StateAuthRequired
			return fr, auth.ErrAuthExpired
		}
		return fr, err
	}

	cred, err = p.tokens.EnsureValid(ctx, cred)
	if err != nil {
		if errors.Is(err, auth.ErrAuthExpired) {
			fr.State = StateAuthRequired
		}
		return fr, err
	}

	fr.State = StateListing
	subs, err := p.platform.ListSubscriptions(ctx, cred)
	if err != nil {
		var apiErr *youtube.APIError
		if errors.As(err, &apiErr) {
			fr.State = StateUpstreamUnavailable
		}
		return fr, fmt.Errorf("list subscriptions: %w", err)
	}

	fr.State = StateEnriching
	enriched, err := p.platform.EnrichChannels(ctx, cred, subs)
	if err != nil {
		// Enrichment errors out only on cancellation; batch failures are
		// isolated inside the enricher and surface as missing entries.
		return fr, fmt.Errorf("enrich channels: %w", err)
	}
	fr.Partial = len(enriched) < len(subs)

	if p.opts.ResolveActivity {
		fr.State = StateResolvingActivity
		if err := p.resolveActivity(ctx, cred, enriched); err != nil {
			return fr, err
		}
	}

	fr.State = StateAssembling
	if err := ctx.Err(); err != nil {
		// A cancelled run must never commit a cache entry.
		return fr, err
	}

	fr.Result = &model.AggregationResult{
		Channels:  enriched,
		FetchedAt: time.Now().UTC(),
	}

	log.Info().
		Str("user", hash.LogID(userID)).
		Int("subscriptions", len(subs)).
		Int("enriched", len(enriched)).
		Bool("partial", fr.Partial).
		Dur("took", time.Since(start)).
		Msg("aggregation complete")
	return fr, nil
}

// resolveActivity fans out one uploads-playlist lookup per channel on a
// bounded pool, writing results by index so concurrency never reorders the
// assembled sequence. Individual failures leave LatestUpload nil.
func (p *Pipeline) resolveActivity(ctx context.Context, cred *model.Credential, channels []model.EnrichedChannel) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i := range channels {
		if channels[i].UploadsPlaylistID == "" {
			continue
		}
		g.Go(func() error {
			ts, err := p.platform.LatestUpload(gctx, cred, channels[i].UploadsPlaylistID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Debug().Str("channel", channels[i].ChannelID).Err(err).
					Msg("latest upload lookup failed, leaving unset")
				return nil
			}
			channels[i].LatestUpload = ts
			return nil
		})
	}
	return g.Wait()
}
