package odoo

// Dashboard-side statuses of a manufacturing order.
const (
	StatusPending    = "pending"
	StatusOnHold     = "on_hold"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var stateToStatus = map[string]string{
	"draft":     StatusPending,
	"confirmed": StatusOnHold,
	"progress":  StatusInProgress,
	"to_close":  StatusInProgress,
	"done":      StatusCompleted,
	"cancel":    StatusCancelled,
}

var statusToState = map[string]string{
	StatusPending:    "draft",
	StatusInProgress: "progress",
	StatusCompleted:  "done",
	StatusOnHold:     "confirmed",
	StatusCancelled:  "cancel",
}

// StateToStatus maps an mrp.production state to a dashboard status.
// Unknown states map to StatusPending.
func StateToStatus(state string) string {
	if s, ok := stateToStatus[state]; ok {
		return s
	}
	return StatusPending
}

// StatusToState is the inverse of StateToStatus; unknown statuses map to "draft".
func StatusToState(status string) string {
	if s, ok := statusToState[status]; ok {
		return s
	}
	return "draft"
}

// PriorityLabel maps the server priority ("1" starred) to "high" or "normal".
func PriorityLabel(priority string) string {
	if priority == "1" {
		return "high"
	}
	return "normal"
}

// PriorityValue is the inverse of PriorityLabel.
func PriorityValue(label string) string {
	if label == "high" {
		return "1"
	}
	return "0"
}
