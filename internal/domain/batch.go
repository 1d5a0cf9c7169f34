package domain

// JobStatus is the lifecycle state of a batch calling job as reported by the
// ConvAI gateway. StatusTimeout is synthesized locally when a caller's wait
// budget elapses before the gateway reports a terminal state.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "in_progress"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusTimeout   JobStatus = "timeout"
)

// IsTerminal reports whether the gateway will no longer change this status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ConversationInitiationClientData carries per-call overrides injected at
// call-initiation time.
type ConversationInitiationClientData struct {
	DynamicVariables map[string]interface{} `json:"dynamic_variables,omitempty"`
	FirstMessage     string                 `json:"first_message,omitempty"`
}

// BatchRecipient is a single call target inside a batch job. The gateway
// fills ID, Status and ConversationID as the job progresses.
type BatchRecipient struct {
	ID             string                            `json:"id,omitempty"`
	PhoneNumber    string                            `json:"phone_number"`
	Name           string                            `json:"name,omitempty"`
	Status         string                            `json:"status,omitempty"`
	ConversationID string                            `json:"conversation_id,omitempty"`
	ClientData     *ConversationInitiationClientData `json:"conversation_initiation_client_data,omitempty"`
}

// DynamicVariables returns the variables injected for this recipient's call,
// or nil when none were set.
func (r *BatchRecipient) DynamicVariables() map[string]interface{} {
	if r.ClientData == nil {
		return nil
	}
	return r.ClientData.DynamicVariables
}

// BatchJob is the gateway's descriptor of a batch calling job.
type BatchJob struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	AgentID              string           `json:"agent_id"`
	AgentName            string           `json:"agent_name,omitempty"`
	PhoneNumberID        string           `json:"phone_number_id,omitempty"`
	PhoneProvider        string           `json:"phone_provider,omitempty"`
	Status               JobStatus        `json:"status"`
	CreatedAtUnix        int64            `json:"created_at_unix,omitempty"`
	ScheduledTimeUnix    int64            `json:"scheduled_time_unix,omitempty"`
	Timezone             string           `json:"timezone,omitempty"`
	RetryCount           int              `json:"retry_count,omitempty"`
	TotalCallsDispatched int              `json:"total_calls_dispatched"`
	TotalCallsScheduled  int              `json:"total_calls_scheduled"`
	TotalCallsFinished   int              `json:"total_calls_finished"`
	Recipients           []BatchRecipient `json:"recipients,omitempty"`
}

// BatchJobList is a paginated listing of batch jobs.
type BatchJobList struct {
	Jobs    []BatchJob `json:"jobs"`
	Cursor  string     `json:"cursor,omitempty"`
	HasMore bool       `json:"has_more,omitempty"`
}
