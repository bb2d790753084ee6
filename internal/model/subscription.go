package model

import "time"

// Subscription is one entry from the platform's subscription listing.
// Immutable once fetched for a given pagination pass.
type Subscription struct {
	ChannelID   string `json:"channelId"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
}

// ChannelStats holds the numeric counters from a channel details lookup.
// The upstream source omits these inconsistently (e.g. hidden subscriber
// counts), so every field defaults to zero when absent.
type ChannelStats struct {
	SubscriberCount uint64 `json:"subscriberCount"`
	VideoCount      uint64 `json:"videoCount"`
	ViewCount       uint64 `json:"viewCount"`
}

// EnrichedChannel is a Subscription joined with its ChannelStats, a canonical
// channel URL and an optional latest-upload timestamp. This is the unit
// returned to the presentation layer. ChannelID is never empty; entries whose
// upstream identifier cannot be resolved are dropped, not defaulted.
type EnrichedChannel struct {
	Subscription
	Stats        ChannelStats `json:"statistics"`
	ChannelURL   string       `json:"channelUrl"`
	LatestUpload *time.Time   `json:"latestUpload,omitempty"`

	// UploadsPlaylistID is the join key for the latest-activity lookup.
	// Internal; not part of the API response.
	UploadsPlaylistID string `json:"-"`
}

// AggregationResult is the assembled output of one pipeline run: the enriched
// channels in listing order plus the fetch timestamp. Cached per user identity
// and superseded wholesale on refresh.
type AggregationResult struct {
	Channels  []EnrichedChannel `json:"channels"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// Summary aggregates headline totals across an AggregationResult.
type Summary struct {
	TotalChannels    int    `json:"totalChannels"`
	TotalSubscribers uint64 `json:"totalSubscribers"`
	TotalVideos      uint64 `json:"totalVideos"`
}

// Summarize computes the dashboard totals for the result.
func (r *AggregationResult) Summarize() Summary {
	s := Summary{TotalChannels: len(r.Channels)}
	for _, ch := range r.Channels {
		s.TotalSubscribers += ch.Stats.SubscriberCount
		s.TotalVideos += ch.Stats.VideoCount
	}
	return s
}

// SubscriptionsResponse is the API envelope for subscription listings.
type SubscriptionsResponse struct {
	Channels  []EnrichedChannel `json:"channels"`
	Summary   Summary           `json:"summary"`
	FetchedAt string            `json:"fetchedAt"`
	Cached    bool              `json:"cached"`
	Partial   bool              `json:"partial,omitempty"`
}

// ChannelURL returns the canonical public URL for a channel ID.
func ChannelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}
