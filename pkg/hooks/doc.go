// Package hooks is a prioritized event registry.
//
// Features expose extension points as named events. Listeners run from the
// highest priority down and may stop the event, so a High priority listener can
// veto or adjust what a Normal priority default implementation does:
//
//	r := hooks.NewRegistry()
//	r.On("updateSize", resize)                                  // default behavior
//	r.On("updateSize", snapToGrid, hooks.WithPriority(hooks.High)) // runs first
//	r.Fire(ctx, "updateSize", args)
package hooks
