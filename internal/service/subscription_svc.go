package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/internal/pipeline"
	"github.com/KigaliAI/youtufy-app/internal/store"
	"github.com/KigaliAI/youtufy-app/pkg/hash"
)

// SubscriptionService sits between the handlers and the aggregation pipeline.
// It applies the favorites filter, computes dashboard totals and renders the
// CSV export.
type SubscriptionService struct {
	pipe      *pipeline.Pipeline
	favorites store.FavoriteStore
	creds     store.CredentialStore
}

func NewSubscriptionService(pipe *pipeline.Pipeline, favorites store.FavoriteStore, creds store.CredentialStore) *SubscriptionService {
	return &SubscriptionService{pipe: pipe, favorites: favorites, creds: creds}
}

// ListOptions control one listing request.
type ListOptions struct {
	Force         bool // bypass the result cache exactly once
	FavoritesOnly bool
}

// List returns the user's enriched subscriptions plus summary totals.
func (s *SubscriptionService) List(ctx context.Context, userID string, opts ListOptions) (*model.SubscriptionsResponse, error) {
	fr, err := s.pipe.Fetch(ctx, userID, opts.Force)
	if err != nil {
		return nil, err
	}

	channels := fr.Result.Channels
	if opts.FavoritesOnly && s.favorites != nil {
		favs, err := s.favorites.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		channels = filterByID(channels, favs)
	}

	filtered := model.AggregationResult{Channels: channels, FetchedAt: fr.Result.FetchedAt}
	return &model.SubscriptionsResponse{
		Channels:  channels,
		Summary:   filtered.Summarize(),
		FetchedAt: fr.Result.FetchedAt.Format(time.RFC3339),
		Cached:    fr.CacheHit,
		Partial:   fr.Partial,
	}, nil
}

// Refresh invalidates the cached result and runs the pipeline again.
func (s *SubscriptionService) Refresh(ctx context.Context, userID string) (*model.SubscriptionsResponse, error) {
	if err := s.pipe.Invalidate(ctx, userID); err != nil {
		return nil, err
	}
	return s.List(ctx, userID, ListOptions{Force: true})
}

// ExportCSV renders the user's subscriptions as a CSV attachment.
func (s *SubscriptionService) ExportCSV(ctx context.Context, userID string) ([]byte, string, error) {
	fr, err := s.pipe.Fetch(ctx, userID, false)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"channel_id", "title", "channel_url", "subscribers", "videos", "views", "latest_upload"})
	for _, ch := range fr.Result.Channels {
		latest := ""
		if ch.LatestUpload != nil {
			latest = ch.LatestUpload.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			ch.ChannelID,
			ch.Title,
			ch.ChannelURL,
			strconv.FormatUint(ch.Stats.SubscriberCount, 10),
			strconv.FormatUint(ch.Stats.VideoCount, 10),
			strconv.FormatUint(ch.Stats.ViewCount, 10),
			latest,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("render csv: %w", err)
	}

	name := fmt.Sprintf("subscriptions-%s.csv", fr.Result.FetchedAt.Format("20060102-150405"))
	return buf.Bytes(), name, nil
}

// Logout deletes the stored credential and drops the cached result. The next
// request will require a fresh authorization flow.
func (s *SubscriptionService) Logout(ctx context.Context, userID string) error {
	if err := s.creds.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.pipe.Invalidate(ctx, userID); err != nil {
		log.Warn().Str("user", hash.LogID(userID)).Err(err).Msg("cache invalidation failed on logout")
	}
	return nil
}

func filterByID(channels []model.EnrichedChannel, ids []string) []model.EnrichedChannel {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]model.EnrichedChannel, 0, len(ids))
	for _, ch := range channels {
		if _, ok := keep[ch.ChannelID]; ok {
			out = append(out, ch)
		}
	}
	return out
}
