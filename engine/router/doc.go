// Package router dispatches questions to the most relevant of several
// query engines.
//
// A Selector shows the model a numbered list of choice descriptions
// and parses its structured pick. With a single selection the router
// forwards the question directly and the sub-engine's response comes
// back untouched. With multiple selections the router queries the
// chosen engines concurrently, reports failed branches in line, and
// condenses the gathered answers with a summarize.Summarizer.
//
//	r, err := router.New("front_desk", "routes customer questions",
//		router.NewSelector(model, router.MaxChoices(2)),
//		summarize.New(model),
//		router.Choice{Engine: menuEngine},
//		router.Choice{Engine: ordersEngine, Description: "order status lookups"},
//	)
package router
