package youtube

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

// ListSubscriptions pages through the user's subscription listing to
// completion. Pagination is inherently sequential (each page depends on the
// prior cursor) and is never parallelized.
//
// The loop terminates on an absent cursor, and also when the server echoes a
// cursor alongside an empty page or repeats the same cursor verbatim — a known
// upstream quirk that would otherwise spin forever. Entries without a channel
// identifier are skipped with a warning, never fatal.
func (c *Client) ListSubscriptions(ctx context.Context, cred *model.Credential) ([]model.Subscription, error) {
	var subs []model.Subscription

	pageToken := ""
	for {
		q := url.Values{}
		q.Set("part", "snippet,contentDetails")
		q.Set("mine", "true")
		q.Set("maxResults", strconv.Itoa(pageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page subscriptionsPage
		if err := c.get(ctx, cred, "subscriptions", q, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			id := item.Snippet.ResourceID.ChannelID
			if id == "" {
				log.Warn().Str("title", item.Snippet.Title).
					Msg("subscription entry missing channel id, skipping")
				continue
			}
			subs = append(subs, model.Subscription{
				ChannelID:   id,
				Title:       item.Snippet.Title,
				Thumbnail:   item.Snippet.Thumbnails.Default.URL,
				Description: item.Snippet.Description,
			})
		}

		next := page.NextPageToken
		if next == "" {
			break
		}
		if len(page.Items) == 0 {
			log.Warn().Msg("subscription page empty but cursor present, treating as completion")
			break
		}
		if next == pageToken {
			log.Warn().Msg("subscription cursor did not advance, treating as completion")
			break
		}
		pageToken = next
	}

	return subs, nil
}
