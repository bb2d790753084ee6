package youtube

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Wire shapes for the three endpoints the client calls. Only the fields the
// pipeline consumes are declared.

type thumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

type subscriptionsPage struct {
	Items []struct {
		Snippet struct {
			Title       string     `json:"title"`
			Description string     `json:"description"`
			Thumbnails  thumbnails `json:"thumbnails"`
			ResourceID  struct {
				ChannelID string `json:"channelId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type channelsPage struct {
	Items []channelItem `json:"items"`
}

type channelItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Thumbnails  thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics     rawStats `json:"statistics"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type playlistItemsPage struct {
	Items []struct {
		ContentDetails struct {
			VideoPublishedAt string `json:"videoPublishedAt"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// rawStats holds the statistics object before count parsing. The upstream
// encodes counts as JSON strings and omits them inconsistently (hidden
// subscriber counts in particular), so each field stays raw until parseCount.
type rawStats struct {
	SubscriberCount json.RawMessage `json:"subscriberCount"`
	VideoCount      json.RawMessage `json:"videoCount"`
	ViewCount       json.RawMessage `json:"viewCount"`
}

// parseCount decodes one upstream counter. Absent, null or malformed values
// degrade to zero with a warning; a bad counter must never fail the channel.
func parseCount(raw json.RawMessage, field, channelID string) uint64 {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	s := string(bytes.Trim(raw, `"`))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Warn().Str("channel", channelID).Str("field", field).Str("value", s).
			Msg("malformed channel statistic, defaulting to zero")
		return 0
	}
	return v
}
