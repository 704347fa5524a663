/*
Package remotedev observes a dispatch-based store and reports what happened to a remote collector.

An Enhancer wraps a store's Dispatch. Every action is forwarded unchanged, then
filtered, sanitized and recorded in a bounded history. When a trigger fires, or
when the host reports an error, the history is serialized into a domain.Report
and delivered asynchronously. Delivery outcomes are observed through
domain.StatusHooks; they never affect the dispatch that caused them.

# Modes

Exactly one reporting mode is active:

  - Batched (default): actions accumulate and are sent as an ACTIONS report, or
    STATES when WithState pairs each action with the state it produced. The
    report carries the preloaded state, the state right before the oldest
    retained action, so the collector can replay the history.
  - Every: each action is sent on its own as an ACTION report.
  - OnlyState: nothing is buffered; the latest state is sent as a STATE report.

# Usage

	enh, err := remotedev.New(remotedev.Config{
		SendTo:      "http://localhost:8000/reports",
		SendOn:      []string{"CHECKOUT_FAILED"},
		SendOnError: true,
		MaxAge:      30,
	}, remotedev.WithLogger(logger), remotedev.WithErrorSource(errs))
	if err != nil {
		log.Fatal(err)
	}

	s := enh.Enhance(store.New(reducer, nil))
	defer s.Close(context.Background())

	s.Dispatch(domain.Action{Type: "ADD_TO_CART", Payload: item})

Host errors can be sent on the error source, passed to ReportError, or captured
from panics with:

	defer s.Recover()

A collector receiving reports is available in pkg/collector and as the
"remotedev serve" command.
*/
package remotedev
