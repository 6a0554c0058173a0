// Package player abstracts the two embedded third-party video providers.
// Only the capability surface lives here: normalized id resolution, embed
// URL construction, and the playback-event hooks the frontend wrappers
// feed. Each provider's iframe/postMessage schema stays in the frontend.
package player

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// Provider names, matching the per-provider id columns in the catalog.
const (
	ProviderYouTube     = "youtube"
	ProviderDailymotion = "dailymotion"
)

var ErrInvalidVideoID = errors.New("unrecognized video id")

// Provider resolves raw user/editorial input into a canonical video id and
// builds embed URLs from canonical ids.
type Provider interface {
	Name() string
	NormalizeID(raw string) (string, error)
	EmbedURL(id string) string
}

// ByName returns the provider for a known name.
func ByName(name string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderYouTube:
		return YouTube{}, true
	case ProviderDailymotion:
		return Dailymotion{}, true
	}
	return nil, false
}

// ── YouTube ────────────────────────────────────────────────────────────────

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type YouTube struct{}

func (YouTube) Name() string { return ProviderYouTube }

// NormalizeID accepts a bare 11-character id, a watch?v= URL, a youtu.be
// short link, or an /embed/ URL.
func (YouTube) NormalizeID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if youtubeIDPattern.MatchString(raw) {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidVideoID
	}
	var id string
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		id = strings.TrimPrefix(u.Path, "/")
	case strings.HasSuffix(u.Host, "youtube.com") && u.Path == "/watch":
		id = u.Query().Get("v")
	case strings.HasSuffix(u.Host, "youtube.com") && strings.HasPrefix(u.Path, "/embed/"):
		id = strings.TrimPrefix(u.Path, "/embed/")
	}
	if !youtubeIDPattern.MatchString(id) {
		return "", ErrInvalidVideoID
	}
	return id, nil
}

func (YouTube) EmbedURL(id string) string {
	return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id) + "?enablejsapi=1"
}

// ── Dailymotion ────────────────────────────────────────────────────────────

var dailymotionIDPattern = regexp.MustCompile(`^x[a-z0-9]{4,10}$`)

type Dailymotion struct{}

func (Dailymotion) Name() string { return ProviderDailymotion }

// NormalizeID accepts a bare xNNNN id or a dailymotion.com/video/ URL.
func (Dailymotion) NormalizeID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if dailymotionIDPattern.MatchString(raw) {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidVideoID
	}
	var id string
	if strings.HasSuffix(u.Host, "dailymotion.com") && strings.HasPrefix(u.Path, "/video/") {
		id = strings.TrimPrefix(u.Path, "/video/")
		// Slugs look like xNNNN_some-title; the id is the first segment.
		if i := strings.IndexByte(id, '_'); i > 0 {
			id = id[:i]
		}
	}
	if !dailymotionIDPattern.MatchString(id) {
		return "", ErrInvalidVideoID
	}
	return id, nil
}

func (Dailymotion) EmbedURL(id string) string {
	return "https://www.dailymotion.com/embed/video/" + url.PathEscape(id)
}
