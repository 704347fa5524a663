package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/remotedev"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/serialize"
	"github.com/aretw0/remotedev/pkg/store"
)

// DemoResult summarizes a demo run.
type DemoResult struct {
	State  any
	Sent   []string
	Failed []error
}

// RunDemo dispatches the given action types against an enhanced counter
// store, then waits for every report to complete. Each delivery outcome is
// written to out.
func RunDemo(ctx context.Context, cfg remotedev.Config, actions []string, out io.Writer, logger *slog.Logger) (*DemoResult, error) {
	res := &DemoResult{}
	var mu sync.Mutex
	user := cfg.SendingStatus
	cfg.SendingStatus = domain.StatusHooks{
		OnStarted: user.OnStarted,
		OnDone: func(ctx context.Context, id string) {
			mu.Lock()
			res.Sent = append(res.Sent, id)
			fmt.Fprintf(out, "report sent: %s\n", id)
			mu.Unlock()
			user.Done(ctx, id)
		},
		OnFailed: func(ctx context.Context, err error) {
			mu.Lock()
			res.Failed = append(res.Failed, err)
			fmt.Fprintf(out, "report failed: %v\n", err)
			mu.Unlock()
			user.Failed(ctx, err)
		},
	}

	enh, err := remotedev.New(cfg, remotedev.WithLogger(logger), remotedev.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	s := enh.Enhance(store.New(store.CounterReducer, 0))
	for _, t := range actions {
		s.Dispatch(domain.Action{Type: t})
		logger.Debug("dispatched", "action", t, "state", s.GetState())
	}
	if err := s.Close(ctx); err != nil {
		return nil, fmt.Errorf("waiting for reports: %w", err)
	}

	res.State = s.GetState()
	fmt.Fprintf(out, "final state: %s\n", serialize.Stringify(res.State))
	return res, nil
}
