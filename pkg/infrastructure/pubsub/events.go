package pubsub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Event types carried on the campaign topics.
const (
	EventTypeGenerationRequested = "com.launchloom.campaign.generation.requested"
	EventTypePublishRequested    = "com.launchloom.campaign.publish.requested"
	EventTypeCampaignCompleted   = "com.launchloom.campaign.completed"
)

// NewCloudEvent creates a standardized CloudEvent v1.0.
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetID(uuid.NewString())
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}
