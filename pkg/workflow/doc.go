// Package workflow implements the review-state machine content items move
// through.
//
// A Definition lists the transitions available from each state. The Engine
// applies a transition to an item, notifies subscribers and persists the
// result through the catalog:
//
//	engine := workflow.NewEngine(workflow.DefaultDefinition(), catalog)
//	engine.Subscribe(handler)
//
//	if err := engine.DoActionFor(ctx, item, "publish"); err != nil {
//	    if errors.Is(err, workflow.ErrTransitionNotAllowed) {
//	        // the item's current state does not offer "publish"
//	    }
//	}
//
// Subscribers run after the state has changed and before the item is saved,
// so changes they make to the item are stored with the transition.
package workflow
