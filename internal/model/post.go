package model

// TimePostRecord is one time and charge record sent to a case.
type TimePostRecord struct {
	CaseID             int64  `json:"caseId"`
	UserID             string `json:"userId"`
	Narrative          string `json:"narrative"`
	StartDateTime      string `json:"startDateTime"`
	TotalTimeSecs      int64  `json:"totalTimeSecs"`
	ChargeableTimeSecs int64  `json:"chargeableTimeSecs"`
	ActivityCode       string `json:"activityCode"`
}

// PostStatus is the outcome of posting a time group.
type PostStatus string

const (
	PostSuccess          PostStatus = "SUCCESS"
	PostPermanentFailure PostStatus = "PERMANENT_FAILURE"
	PostTransientFailure PostStatus = "TRANSIENT_FAILURE"
)

// PostResult reports how a time group was handled.
type PostResult struct {
	Status  PostStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	Err     error      `json:"-"`
}

// Success returns a successful result.
func Success(message string) PostResult {
	return PostResult{Status: PostSuccess, Message: message}
}

// PermanentFailure returns a result that must not be retried.
func PermanentFailure(message string, err error) PostResult {
	return PostResult{Status: PostPermanentFailure, Message: message, Err: err}
}

// TransientFailure returns a result that may succeed when retried.
func TransientFailure(message string, err error) PostResult {
	return PostResult{Status: PostTransientFailure, Message: message, Err: err}
}
