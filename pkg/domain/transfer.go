package domain

import "time"

// TransferStatus is the lifecycle stage of an external upload.
type TransferStatus string

const (
	TransferPending     TransferStatus = "pending"
	TransferProgressing TransferStatus = "progressing"
	TransferDone        TransferStatus = "done"
	TransferFailed      TransferStatus = "failed"
	TransferAborted     TransferStatus = "aborted"
)

// IsTerminal reports whether no further transitions can happen.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferDone || s == TransferFailed || s == TransferAborted
}

// TransferRecord is a snapshot of a transfer as kept by a ledger.
type TransferRecord struct {
	ID        string         `json:"id"`
	FileName  string         `json:"file_name"`
	Status    TransferStatus `json:"status"`
	Uploaded  int64          `json:"uploaded"`
	Total     int64          `json:"total"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Diagnostic is a non-fatal problem reported to a diagnostic sink.
type Diagnostic struct {
	Code    string
	Message string
	Err     error
	Fields  map[string]any
}

// Diagnostic codes.
const (
	DiagTransferAdapterMissing = "filerepository-no-upload-adapter"
	DiagTransferCreateFailed   = "filerepository-create-failed"
)
