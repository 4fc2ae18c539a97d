package expense

import "context"

// DocumentGateway drives the remote document-understanding service for
// one uploaded file: resumable upload, readiness polling, extraction and
// best-effort deletion. Implementations classify transport failures into
// ExtractionError codes so the resilience policy can tell transient from
// terminal.
type DocumentGateway interface {
	Upload(ctx context.Context, file UploadedFile) (RemoteFileHandle, error)
	AwaitActive(ctx context.Context, handle RemoteFileHandle) (RemoteFileHandle, error)
	Extract(ctx context.Context, handle RemoteFileHandle, docType DocumentType) (RawModelResponse, error)
	Delete(ctx context.Context, handle RemoteFileHandle) error
}

// FileValidator checks an uploaded file before any network call is made.
type FileValidator interface {
	Validate(file UploadedFile) (FileInfo, error)
}
