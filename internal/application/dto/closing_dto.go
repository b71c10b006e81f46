package dto

import "time"

// ClosingStatusDTO estado de un período y su disposición para el cierre.
type ClosingStatusDTO struct {
	Period            string     `json:"period"`
	Status            string     `json:"status"`
	ClosedBy          string     `json:"closed_by,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	ReopenedBy        string     `json:"reopened_by,omitempty"`
	ReopenedAt        *time.Time `json:"reopened_at,omitempty"`
	Duplicates        int        `json:"duplicates"`
	PendingBreakdowns []string   `json:"pending_breakdowns"`
	ReadyToClose      bool       `json:"ready_to_close"`
}

// SetClosingRequest body para PUT /api/closings/:period.
type SetClosingRequest struct {
	Status  string `json:"status" validate:"required,oneof=OPEN CLOSED"`
	SkipADR bool   `json:"skip_adr_check"`
}
