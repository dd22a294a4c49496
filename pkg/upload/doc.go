// Package upload inserts media elements for files and keeps them bound to their
// asynchronous transfers.
//
// The Resolver picks the insertion point: the nearest position, walking up from
// the selection focus, where the schema accepts a media element carrying an
// uploadId. Command.Execute inserts one element per file in a single batch and
// registers transfer callbacks through a Binder. On completion the element's
// uploadId is replaced by src and srcset; on failure or abort the element is
// removed. Both look the element up by uploadId again, so an element the user
// deleted or replaced meanwhile is never touched.
package upload
