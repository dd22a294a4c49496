/*
Package ports defines the consumed ports (interfaces) of the editing core.

These interfaces decouple the insertion and resize features from the services
they drive, so the same core runs against the in-memory reference services, the
filesystem upload registry or a remote projection.

# Key Interfaces

  - UploadRegistry / Transfer / File: creates and tracks asynchronous uploads.
  - Projection: the rendered view of media elements (boxes, styles, classes).
  - DiagnosticSink: receives non-fatal problems such as a missing upload adapter.
  - TransferLedger: persists transfer snapshots (e.g., Memory or Redis).
  - DistributedLocker: provides distributed locking for concurrent session access.
*/
package ports
