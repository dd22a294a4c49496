package ports

import (
	"context"
	"io"

	"github.com/aretw0/easel/pkg/domain"
)

// File is a candidate for upload.
type File interface {
	Name() string
	// Type is the declared MIME type; it may be empty.
	Type() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Transfer is one asynchronous upload. Callbacks registered on it run on the
// caller's event loop, never concurrently with document changes.
type Transfer interface {
	ID() string
	Status() domain.TransferStatus
	File() File

	// OnProgress registers a callback for byte progress.
	OnProgress(fn func(uploaded, total int64))
	// OnComplete registers a callback receiving the server response, usually a
	// map with a "default" URL and width-keyed URLs.
	OnComplete(fn func(response map[string]any))
	// OnFail registers a callback for failed transfers.
	OnFail(fn func(err error))
	// OnAbort registers a callback for aborted transfers.
	OnAbort(fn func())

	// Abort stops the transfer. Aborting a finished transfer has no effect.
	Abort()
}

// UploadRegistry creates transfers.
type UploadRegistry interface {
	// CreateTransfer starts tracking a new upload for file.
	// Returns domain.ErrTransferConfigurationMissing when no upload adapter is set.
	CreateTransfer(ctx context.Context, file File) (Transfer, error)
}

// DiagnosticSink receives non-fatal problems the core cannot surface as errors.
type DiagnosticSink interface {
	Report(ctx context.Context, d domain.Diagnostic)
}
