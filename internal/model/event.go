package model

import "encoding/json"

const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
	EventProjectCreated = "project.created"
	EventProjectUpdated = "project.updated"
	EventCommentCreated = "comment.created"
)

// Event is pushed to websocket subscribers. Data holds the affected record;
// on the client side it arrives as raw JSON and is decoded with DecodeData.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DecodeData re-decodes a received event payload into v.
func (e Event) DecodeData(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func UserTopic(username string) string {
	return "user:" + username
}

func ProjectTopic(projectID string) string {
	return "project:" + projectID
}
