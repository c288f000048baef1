package websocket

import "GreenSnapAPI/internal/constant"

type EventType string

const (
	EventReportCreated  EventType = constant.EventReportCreated
	EventReportResolved EventType = constant.EventReportResolved
)

type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	Meta    *EventMeta  `json:"meta,omitempty"`
}

type EventMeta struct {
	Timestamp int64  `json:"timestamp"`
	ReportID  string `json:"report_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}
