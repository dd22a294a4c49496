package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventUploadStart    EventType = "upload_start"
	EventUploadProgress EventType = "upload_progress"
	EventUploadComplete EventType = "upload_complete"
	EventUploadFail     EventType = "upload_fail"
	EventUploadAbort    EventType = "upload_abort"
	EventResizeBegin    EventType = "resize_begin"
	EventResizeCommit   EventType = "resize_commit"
	EventResizeCancel   EventType = "resize_cancel"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// UploadEvent describes a transfer lifecycle step.
type UploadEvent struct {
	EventBase
	TransferID string `json:"transfer_id"`
	FileName   string `json:"file_name,omitempty"`
	Uploaded   int64  `json:"uploaded,omitempty"`
	Total      int64  `json:"total,omitempty"`
	// Stale is set when the event arrived for a node that no longer exists.
	Stale bool  `json:"stale,omitempty"`
	Err   error `json:"-"`
}

// ResizeEvent describes a resize session boundary.
type ResizeEvent struct {
	EventBase
	Element *Element `json:"-"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
}

// LifecycleHooks defines callbacks for observability. Nil fields are skipped.
type LifecycleHooks struct {
	OnUploadStart    func(context.Context, *UploadEvent)
	OnUploadProgress func(context.Context, *UploadEvent)
	OnUploadComplete func(context.Context, *UploadEvent)
	OnUploadFail     func(context.Context, *UploadEvent)
	OnResizeBegin    func(context.Context, *ResizeEvent)
	OnResizeCommit   func(context.Context, *ResizeEvent)
	OnResizeCancel   func(context.Context, *ResizeEvent)
}

// NewUploadEvent stamps an upload event.
func NewUploadEvent(t EventType, transferID string) *UploadEvent {
	return &UploadEvent{EventBase: EventBase{Timestamp: time.Now(), Type: t}, TransferID: transferID}
}

// NewResizeEvent stamps a resize event.
func NewResizeEvent(t EventType, el *Element, width, height float64) *ResizeEvent {
	return &ResizeEvent{EventBase: EventBase{Timestamp: time.Now(), Type: t}, Element: el, Width: width, Height: height}
}

// Merge combines two hook sets so both run, a first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnUploadStart:    chainUpload(h.OnUploadStart, other.OnUploadStart),
		OnUploadProgress: chainUpload(h.OnUploadProgress, other.OnUploadProgress),
		OnUploadComplete: chainUpload(h.OnUploadComplete, other.OnUploadComplete),
		OnUploadFail:     chainUpload(h.OnUploadFail, other.OnUploadFail),
		OnResizeBegin:    chainResize(h.OnResizeBegin, other.OnResizeBegin),
		OnResizeCommit:   chainResize(h.OnResizeCommit, other.OnResizeCommit),
		OnResizeCancel:   chainResize(h.OnResizeCancel, other.OnResizeCancel),
	}
}

func chainUpload(a, b func(context.Context, *UploadEvent)) func(context.Context, *UploadEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *UploadEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainResize(a, b func(context.Context, *ResizeEvent)) func(context.Context, *ResizeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ResizeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
