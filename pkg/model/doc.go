// Package model holds the editable document: a tree of elements, a selection and
// the batch machinery every mutation goes through.
//
// All mutations happen inside Document.Change. Nested Change calls join the
// outermost batch, so a command and the commands it triggers form one undo step
// and observers are told about it once. An error from any level reverts the
// whole batch.
package model
