package notification

import (
	"encoding/json"
	"time"
)

const (
	// PartitionKeyMetadata carries Notification.Key so that the transport can
	// keep notifications of one key in order.
	PartitionKeyMetadata = "partition_key"
	EventNameMetadata    = "event_name"
)

const (
	EventContentPublished   = "content.published"
	EventContentUpdated     = "content.updated"
	EventVideoFailed        = "content.video_failed"
	EventSeriesItemsAdded   = "series.items_added"
	EventSeriesItemsRemoved = "series.items_removed"
	EventReactionCreated    = "reaction.created"
)

// Meta carries hints the notification consumer uses to pick or drop
// recipients.
type Meta struct {
	IgnoreUserIds          []string `json:"ignoreUserIds,omitempty"`
	IsSendToContentCreator bool     `json:"isSendToContentCreator,omitempty"`
	ContentIsDeleted       bool     `json:"contentIsDeleted,omitempty"`
	Context                string   `json:"context,omitempty"`
}

type Notification struct {
	Key        string                 `json:"key"`
	EventName  string                 `json:"eventName"`
	ActorID    string                 `json:"actorId"`
	Payload    map[string]interface{} `json:"payload"`
	Meta       *Meta                  `json:"meta,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func (n Notification) Marshal() ([]byte, error) {
	return json.Marshal(n)
}

func Unmarshal(data []byte) (Notification, error) {
	var n Notification
	err := json.Unmarshal(data, &n)
	return n, err
}
