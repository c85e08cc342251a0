package entities

import "fmt"

// OutcomeStatus represents the result of one asset download attempt
type OutcomeStatus string

const (
	OutcomeDownloaded  OutcomeStatus = "downloaded"
	OutcomeFailed      OutcomeStatus = "failed"
	OutcomeAssetAbsent OutcomeStatus = "asset_absent"
)

// RoleOutcome records what happened to one asset role. Outcomes are values,
// not errors: a failed role never aborts the remaining roles and is never
// retried.
type RoleOutcome struct {
	Role       string        `json:"role"`
	Status     OutcomeStatus `json:"status"`
	Path       string        `json:"path,omitempty"`
	HTTPStatus int           `json:"http_status,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// Describe renders the outcome as the single line used in reports
func (o RoleOutcome) Describe() string {
	switch o.Status {
	case OutcomeDownloaded:
		return o.Path
	case OutcomeAssetAbsent:
		return "asset absent from this item"
	case OutcomeFailed:
		if o.HTTPStatus > 0 {
			return fmt.Sprintf("download failed (status code: %d)", o.HTTPStatus)
		}
		if o.Detail != "" {
			return fmt.Sprintf("download failed (%s)", o.Detail)
		}
		return "download failed"
	default:
		return string(o.Status)
	}
}

// Succeeded reports whether the asset landed on disk
func (o RoleOutcome) Succeeded() bool {
	return o.Status == OutcomeDownloaded
}

// DownloadReport is the full result of one locate-and-download run. Scene is
// nil when no scene matched the query; Message always carries the rendered
// text summary. RequestID ties the report to its history record and event
// stream.
type DownloadReport struct {
	RequestID string        `json:"request_id,omitempty"`
	Query     SceneQuery    `json:"query"`
	Scene     *CatalogScene `json:"scene,omitempty"`
	Outcomes  []RoleOutcome `json:"outcomes,omitempty"`
	Message   string        `json:"message"`
}

// SceneFound reports whether a scene was selected for the query
func (r *DownloadReport) SceneFound() bool {
	return r.Scene != nil
}

// SuccessCount returns how many roles landed on disk
func (r *DownloadReport) SuccessCount() int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			count++
		}
	}
	return count
}
