// Package downstream declares the contracts Teamarr uses to drive the
// IPTV channel manager it is paired with (channel CRUD, EPG binding,
// logo upload, stream-source listing). Concrete wiring against a
// specific manager's HTTP API is out of scope; callers inject an
// implementation of these interfaces the same way the teacher injects
// its CDN/auth clients into `services/*` constructors.
package downstream

import "context"

// Channel is a downstream channel's fields, as named in the external
// interfaces contract.
type Channel struct {
	ID               string
	Name             string
	ChannelNumber    float64
	TVGID            string
	ChannelGroupID   string
	ChannelProfileIDs []int // sentinel [0] denotes "all profiles"
	StreamProfileID  string
	Streams          []string // ordered stream IDs
}

// CreationResult is returned by ChannelManager.CreateChannel.
type CreationResult struct {
	Channel Channel
	Created bool
}

// ChannelManager is the downstream channel-CRUD contract.
type ChannelManager interface {
	GetChannels(ctx context.Context) ([]Channel, error)
	FindByNumber(ctx context.Context, number float64) (Channel, bool, error)
	FindByTVGID(ctx context.Context, tvgID string) (Channel, bool, error)
	GetChannel(ctx context.Context, id string) (Channel, error)
	UpdateChannel(ctx context.Context, id string, fields map[string]any) error
	CreateChannel(ctx context.Context, ch Channel) (CreationResult, error)
}

// EPGManager binds a channel to the Teamarr-generated EPG, independent
// of payload generation.
type EPGManager interface {
	SetChannelEPG(ctx context.Context, channelID, epgID string) error
}

// LogoManager uploads (or finds, idempotently by URL) a channel logo.
type LogoManager interface {
	UploadOrFind(ctx context.Context, name, url string) (logoID string, ok bool, err error)
}

// Stream is one entry from the stream-source interface.
type Stream struct {
	ID              string
	Name            string
	ChannelGroup    string
	M3UAccountID    string
	M3UAccountName  string
	IsStale         bool
}

// StreamSource lists candidate streams for matching, pre-filtered by
// channel group membership and staleness by the caller.
type StreamSource interface {
	ListStreams(ctx context.Context) ([]Stream, error)
}

// TVGIDForEvent builds the channel tvg_id convention: "teamarr-event-{id}".
func TVGIDForEvent(eventID string) string {
	return "teamarr-event-" + eventID
}

// TVGIDForGoldZone is the Gold Zone channel's tvg_id. Unlike every other
// managed channel, this value is not Teamarr's own convention to choose:
// it must match the external Gold Zone EPG feed's own channel id so the
// fetched programme data binds to the channel Teamarr creates.
const TVGIDForGoldZone = "GoldZone.us"
