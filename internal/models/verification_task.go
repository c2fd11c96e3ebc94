package models

// Verification task status values. Tasks stay pending until a judge
// verdict was applied (done) or the attempt budget ran out (failed),
// which gives the worker at-least-once semantics.
const (
	TaskStatusPending = "pending"
	TaskStatusDone    = "done"
	TaskStatusFailed  = "failed"
)

// VerificationTask is the durable record enqueued after an after-photo
// upload commits. One task per upload; duplicates are harmless because
// verdict application is guarded by the photo's pending state.
type VerificationTask struct {
	ID          string  `json:"id" db:"id"`
	MarkerID    string  `json:"marker_id" db:"marker_id"`
	UploaderID  string  `json:"uploader_id" db:"uploader_id"`
	PhotoKind   string  `json:"photo_kind" db:"photo_kind"`
	Status      string  `json:"status" db:"status"`
	Attempts    int     `json:"attempts" db:"attempts"`
	LastError   *string `json:"last_error,omitempty" db:"last_error"`
	CreatedAt   int64   `json:"created_at" db:"created_at"`               // Unix timestamp
	ProcessedAt *int64  `json:"processed_at,omitempty" db:"processed_at"` // Unix timestamp
}
