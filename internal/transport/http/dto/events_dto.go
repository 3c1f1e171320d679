package dto

type EventItem struct {
	Name  string         `json:"name"`
	TS    int64          `json:"ts,omitempty"`
	Props map[string]any `json:"props,omitempty"`
}

type EventsBatchRequest struct {
	Events []EventItem `json:"events"`
}
