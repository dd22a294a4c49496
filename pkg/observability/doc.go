/*
Package observability turns editor lifecycle hooks into Prometheus metrics and
structured log lines.

Both Metrics.Hooks and LogHooks return a domain.LifecycleHooks; combine them with
LifecycleHooks.Merge and pass the result to easel.WithLifecycleHooks.
*/
package observability
