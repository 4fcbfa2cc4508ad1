package models

// Request and response bodies for the report HTTP endpoints.

type GetReportRequest struct {
	ReportID string `query:"report_id" json:"report_id" validate:"required,max=64"`
}

type TriggerReportResponse struct {
	ReportID string `json:"report_id"`
}

type ReportStatusResponse struct {
	Status  ReportStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// StatusPollMessage is the Kafka payload for a live status poll.
type StatusPollMessage struct {
	StoreID   string `json:"store_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=active inactive"`
	Timestamp string `json:"timestamp_utc" validate:"required"`
}
