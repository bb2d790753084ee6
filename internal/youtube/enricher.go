package youtube

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

// EnrichChannels joins each subscription with its channel statistics and
// uploads-playlist reference. Distinct channel IDs are partitioned into
// batches of at most 50 (the platform per-call maximum) and the batches run
// on a bounded worker pool; the assembled result preserves subscription
// order regardless of batch completion order.
//
// Batch failures are isolated: a failed batch is retried once, then its
// channels are omitted rather than aborting the whole enrichment. A channel
// present in the listing but absent from the details response (deleted or
// suspended) likewise produces no entry.
func (c *Client) EnrichChannels(ctx context.Context, cred *model.Credential, subs []model.Subscription) ([]model.EnrichedChannel, error) {
	if len(subs) == 0 {
		return nil, nil
	}

	ids := distinctIDs(subs)
	batches := partition(ids, batchSize)

	var mu sync.Mutex
	details := make(map[string]channelItem, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, batch := range batches {
		g.Go(func() error {
			items, err := c.channelBatch(gctx, cred, batch)
			if err != nil {
				// One retry, then the batch is dropped.
				items, err = c.channelBatch(gctx, cred, batch)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Int("batch_size", len(batch)).Err(err).
					Msg("channel details batch failed twice, omitting its channels")
				return nil
			}

			mu.Lock()
			for _, item := range items {
				details[item.ID] = item
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	enriched := make([]model.EnrichedChannel, 0, len(subs))
	for _, sub := range subs {
		item, ok := details[sub.ChannelID]
		if !ok {
			log.Debug().Str("channel", sub.ChannelID).
				Msg("channel absent from details response, dropping")
			continue
		}
		enriched = append(enriched, model.EnrichedChannel{
			Subscription: sub,
			Stats: model.ChannelStats{
				SubscriberCount: parseCount(item.Statistics.SubscriberCount, "subscriberCount", item.ID),
				VideoCount:      parseCount(item.Statistics.VideoCount, "videoCount", item.ID),
				ViewCount:       parseCount(item.Statistics.ViewCount, "viewCount", item.ID),
			},
			ChannelURL:        model.ChannelURL(sub.ChannelID),
			UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
		})
	}
	return enriched, nil
}

func (c *Client) channelBatch(ctx context.Context, cred *model.Credential, ids []string) ([]channelItem, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics,contentDetails")
	q.Set("id", strings.Join(ids, ","))
	q.Set("maxResults", "50")

	var page channelsPage
	if err := c.get(ctx, cred, "channels", q, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// distinctIDs returns the channel IDs in first-seen order.
func distinctIDs(subs []model.Subscription) []string {
	seen := make(map[string]struct{}, len(subs))
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		if _, ok := seen[s.ChannelID]; ok {
			continue
		}
		seen[s.ChannelID] = struct{}{}
		ids = append(ids, s.ChannelID)
	}
	return ids
}

func partition(ids []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(ids); i += size {
		j := min(i+size, len(ids))
		out = append(out, ids[i:j])
	}
	return out
}
