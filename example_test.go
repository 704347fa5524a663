package remotedev_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/remotedev"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/store"
	"github.com/aretw0/remotedev/pkg/transport"
)

// ExampleEnhancer_Enhance reports the action history when the counter goes down.
// A custom Sender prints the report instead of posting it to a collector.
func ExampleEnhancer_Enhance() {
	printer := transport.SenderFunc(func(ctx context.Context, req transport.Request) {
		fmt.Println(req.Report.Type, req.Report.Action)
		fmt.Println(*req.Report.Payload)
		fmt.Println(*req.Report.PreloadedState)
		req.Hooks.Done(ctx, "local")
	})

	enh, err := remotedev.New(remotedev.Config{
		Sender: printer,
		SendOn: []string{store.Decrement},
	})
	if err != nil {
		log.Fatal(err)
	}

	s := enh.Enhance(store.New(store.CounterReducer, 0))
	s.Dispatch(domain.Action{Type: store.Increment})
	s.Dispatch(domain.Action{Type: store.Decrement})
	s.Wait()

	// Output:
	// ACTIONS DECREMENT
	// [{"type":"INCREMENT"},{"type":"DECREMENT"}]
	// 0
}

// ExampleNew_conflictingModes shows the configuration error for mutually exclusive modes.
func ExampleNew_conflictingModes() {
	_, err := remotedev.New(remotedev.Config{
		SendTo:    "http://localhost:8000",
		Every:     true,
		OnlyState: true,
	})
	fmt.Println(err)

	// Output:
	// remotedev: invalid config "Every": every and only-state modes are mutually exclusive
}
