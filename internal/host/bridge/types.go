package bridge

import "dailies/internal/host"

// ProtocolVersion is reported by the health endpoint.
const ProtocolVersion = "1"

// Handle identifies a host object across requests.
type Handle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleList wraps a list of handles.
type HandleList struct {
	Items []Handle `json:"items"`
}

// HealthResponse is returned by GET /v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Protocol string `json:"protocol"`
	Host     string `json:"host,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeHostError    = "HOST_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

type nameRequest struct {
	Name string `json:"name"`
}

type settingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type addFolderRequest struct {
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
}

type currentFolderRequest struct {
	FolderID string `json:"folder_id"`
}

type appendRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type importRequest struct {
	Paths []string `json:"paths"`
}

type pageRequest struct {
	Page host.Page `json:"page"`
}

type lutRequest struct {
	Node int    `json:"node"`
	Path string `json:"path"`
}

type renderModeRequest struct {
	Mode host.RenderMode `json:"mode"`
}

type formatRequest struct {
	Format string `json:"format"`
	Codec  string `json:"codec"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

type renderStatusResponse struct {
	InProgress bool `json:"in_progress"`
}
