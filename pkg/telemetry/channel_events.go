package telemetry

import "time"

// Lifecycle verbs emitted by channels.
const (
	VerbChannelCreated = "channel.created"
	VerbRecordRejected = "record.rejected"
	VerbEntryEvicted   = "entry.evicted"
)

// ChannelEventInput describes the common fields for channel lifecycle events.
type ChannelEventInput struct {
	ChannelID  string
	Channel    string
	Op         string
	Engine     string
	Rule       string
	Sink       string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildChannelCreatedEvent constructs a normalized event for channel
// construction.
func BuildChannelCreatedEvent(input ChannelEventInput) Event {
	return buildChannelEvent(VerbChannelCreated, input)
}

// BuildRecordRejectedEvent constructs a normalized event for an admission
// rejection.
func BuildRecordRejectedEvent(input ChannelEventInput) Event {
	return buildChannelEvent(VerbRecordRejected, input)
}

// BuildEntryEvictedEvent constructs a normalized event for a reclamation
// driven entry removal.
func BuildEntryEvictedEvent(input ChannelEventInput) Event {
	return buildChannelEvent(VerbEntryEvicted, input)
}

func buildChannelEvent(verb string, input ChannelEventInput) Event {
	return NormalizeEvent(Event{
		Verb:       verb,
		ChannelID:  input.ChannelID,
		Channel:    input.Channel,
		Op:         input.Op,
		Engine:     input.Engine,
		Rule:       input.Rule,
		Sink:       input.Sink,
		Metadata:   input.Metadata,
		OccurredAt: input.OccurredAt,
	})
}
