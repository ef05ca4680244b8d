package types

// TaskType distinguishes one-off chores from recurring daily ones.
type TaskType string

const (
	TaskTypeOnce  TaskType = "once"
	TaskTypeDaily TaskType = "daily"
)

// Task is a chore with a coin reward and completion bookkeeping.
type Task struct {
	ID          string   `json:"id" firestore:"id"`
	Title       string   `json:"title" firestore:"title"`
	Reward      int64    `json:"reward" firestore:"reward"`
	Type        TaskType `json:"type" firestore:"type"`
	Deadline    string   `json:"deadline,omitempty" firestore:"deadline,omitempty"`
	Done        bool     `json:"done" firestore:"done"`
	LastDone    string   `json:"lastDone,omitempty" firestore:"lastDone,omitempty"`
	CompletedBy string   `json:"completedBy,omitempty" firestore:"completedBy,omitempty"`
	CompletedAt string   `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}
