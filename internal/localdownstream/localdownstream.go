// Package localdownstream is the default downstream channel/EPG/logo
// manager wired by cmd/teamarrd when no external IPTV manager is
// configured: it implements the internal/downstream contracts entirely
// in terms of internal/store's downstream_channels/downstream_logos
// tables, so the daemon and teamarrctl have something real to operate
// against during standalone or dev runs. Wiring an actual external
// manager's HTTP API is out of scope; swap this out for that client
// behind the same interfaces when one exists.
package localdownstream

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/northernpowerhouse/teamarr/internal/downstream"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/store"
)

var log = logging.NewLogger("localdownstream")

// Manager implements downstream.ChannelManager, downstream.EPGManager,
// and downstream.LogoManager against the local store.
type Manager struct {
	st *store.Store
}

// New builds a Manager backed by st.
func New(st *store.Store) *Manager {
	return &Manager{st: st}
}

func rowToChannel(r store.DownstreamChannelRow) downstream.Channel {
	return downstream.Channel{
		ID: r.ID, Name: r.Name, ChannelNumber: r.ChannelNumber, TVGID: r.TVGID,
		ChannelGroupID: r.ChannelGroupID, ChannelProfileIDs: r.ChannelProfileIDs,
		StreamProfileID: r.StreamProfileID, Streams: r.Streams,
	}
}

func channelToRow(ch downstream.Channel) store.DownstreamChannelRow {
	return store.DownstreamChannelRow{
		ID: ch.ID, Name: ch.Name, ChannelNumber: ch.ChannelNumber, TVGID: ch.TVGID,
		ChannelGroupID: ch.ChannelGroupID, ChannelProfileIDs: ch.ChannelProfileIDs,
		StreamProfileID: ch.StreamProfileID, Streams: ch.Streams,
	}
}

func (m *Manager) GetChannels(ctx context.Context) ([]downstream.Channel, error) {
	rows, err := m.st.ListDownstreamChannels()
	if err != nil {
		return nil, fmt.Errorf("list downstream channels: %w", err)
	}
	out := make([]downstream.Channel, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToChannel(r))
	}
	return out, nil
}

func (m *Manager) FindByNumber(ctx context.Context, number float64) (downstream.Channel, bool, error) {
	r, ok, err := m.st.FindDownstreamChannelByNumber(number)
	if err != nil || !ok {
		return downstream.Channel{}, ok, err
	}
	return rowToChannel(r), true, nil
}

func (m *Manager) FindByTVGID(ctx context.Context, tvgID string) (downstream.Channel, bool, error) {
	r, ok, err := m.st.FindDownstreamChannelByTVGID(tvgID)
	if err != nil || !ok {
		return downstream.Channel{}, ok, err
	}
	return rowToChannel(r), true, nil
}

func (m *Manager) GetChannel(ctx context.Context, id string) (downstream.Channel, error) {
	r, ok, err := m.st.GetDownstreamChannel(id)
	if err != nil {
		return downstream.Channel{}, err
	}
	if !ok {
		return downstream.Channel{}, fmt.Errorf("channel %s not found", id)
	}
	return rowToChannel(r), nil
}

func (m *Manager) UpdateChannel(ctx context.Context, id string, fields map[string]any) error {
	ch, err := m.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	applyFields(&ch, fields)
	return m.st.UpsertDownstreamChannel(channelToRow(ch))
}

func (m *Manager) CreateChannel(ctx context.Context, ch downstream.Channel) (downstream.CreationResult, error) {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if err := m.st.UpsertDownstreamChannel(channelToRow(ch)); err != nil {
		return downstream.CreationResult{}, err
	}
	log.WithField("id", ch.ID).WithField("tvg_id", ch.TVGID).Info("created downstream channel")
	return downstream.CreationResult{Channel: ch, Created: true}, nil
}

// SetChannelEPG is a no-op: the local backend has no concept of a
// separate EPG-source binding distinct from the channel row's tvg_id.
func (m *Manager) SetChannelEPG(ctx context.Context, channelID, epgID string) error {
	log.WithField("channel_id", channelID).WithField("epg_id", epgID).Debug("epg binding is implicit via tvg_id in the local backend")
	return nil
}

// UploadOrFind returns a stable per-(name,url) logo id without
// performing any actual upload.
func (m *Manager) UploadOrFind(ctx context.Context, name, url string) (string, bool, error) {
	id, _, err := m.st.FindOrCreateDownstreamLogo(name, url, uuid.NewString())
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// ListStreams always returns an empty set: this backend has no
// configured M3U stream source. A real deployment wires
// downstream.StreamSource against the external manager's stream list.
func (m *Manager) ListStreams(ctx context.Context) ([]downstream.Stream, error) {
	return nil, nil
}

func applyFields(ch *downstream.Channel, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				ch.Name = s
			}
		case "channel_number":
			if f, ok := v.(float64); ok {
				ch.ChannelNumber = f
			}
		case "channel_group_id":
			if s, ok := v.(string); ok {
				ch.ChannelGroupID = s
			}
		case "stream_profile_id":
			if s, ok := v.(string); ok {
				ch.StreamProfileID = s
			}
		case "streams":
			if ss, ok := v.([]string); ok {
				ch.Streams = ss
			}
		}
	}
}
