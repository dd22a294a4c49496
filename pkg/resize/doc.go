// Package resize implements interactive resizing of media elements.
//
// A Resizer moves through Idle, Active, Committing and Cancelling. Begin opens a
// Session holding the start box, aspect ratio and pointer origin. Update turns
// pointer moves into a size applied to the rendered host only. Commit writes the
// final width into the document in one batch; Cancel restores the rendered state
// exactly, including the resized class when the session added it.
//
// Every step is fired through a hooks.Registry under the names begin,
// updateSize, commit and cancel, so features can observe or veto steps by
// listening at a higher priority.
package resize
