/*
Package session keeps live editors keyed by session id and serializes access to
them.

Access to one session is serialized by a reference-counted mutex and, when a
ports.DistributedLocker is configured, by a lock shared with other replicas.
With an event loop attached, the work itself runs on the loop goroutine, so
editor code never runs concurrently with transfer callbacks posted to the same
loop.
*/
package session
