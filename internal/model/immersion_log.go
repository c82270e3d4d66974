package model

type CreateImmersionLogRequest struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Time     *int64 `json:"time"`
	Chars    *int64 `json:"chars"`
	Pages    *int64 `json:"pages"`
	Episodes *int64 `json:"episodes"`

	// Date is in RFC3339 format, now if empty.
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
}

type CreateImmersionLogResponse struct {
	Log         ImmersionLog       `json:"log"`
	Progression *Progression       `json:"progression,omitempty"`
	Events      []ProgressionEvent `json:"events"`
}

// UpdateImmersionLogRequest changes only the given fields. A metric is
// cleared by sending zero.
type UpdateImmersionLogRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Time     *int64 `json:"time"`
	Chars    *int64 `json:"chars"`
	Pages    *int64 `json:"pages"`
	Episodes *int64 `json:"episodes"`
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
}

type UpdateImmersionLogResponse struct {
	Log         ImmersionLog       `json:"log"`
	Progression *Progression       `json:"progression,omitempty"`
	Events      []ProgressionEvent `json:"events"`
}

type DeleteImmersionLogRequest struct {
	ID string `json:"id"`

	// Hard removes the log permanently instead of marking it deleted.
	Hard bool `json:"hard"`
}

type DeleteImmersionLogResponse struct {
	Progression *Progression       `json:"progression,omitempty"`
	Events      []ProgressionEvent `json:"events"`
}

type GetImmersionLogsRequest struct{}

type GetImmersionLogsResponse struct {
	Logs []ImmersionLog `json:"logs"`
}
