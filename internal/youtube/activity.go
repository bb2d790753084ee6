package youtube

import (
	"context"
	"net/url"
	"time"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

// LatestUpload returns the publish time of the most recent item in a
// channel's uploads playlist, or nil when the playlist is empty. One call,
// maxResults=1. Callers treat any error as "recency unknown"; this lookup is
// a nice-to-have, never a correctness requirement.
func (c *Client) LatestUpload(ctx context.Context, cred *model.Credential, uploadsPlaylistID string) (*time.Time, error) {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("playlistId", uploadsPlaylistID)
	q.Set("maxResults", "1")

	var page playlistItemsPage
	if err := c.get(ctx, cred, "playlistItems", q, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339, page.Items[0].ContentDetails.VideoPublishedAt)
	if err != nil {
		return nil, nil
	}
	return &ts, nil
}
