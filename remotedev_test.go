package remotedev_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/remotedev"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/filter"
	"github.com/aretw0/remotedev/pkg/metrics"
	"github.com/aretw0/remotedev/pkg/ports"
	"github.com/aretw0/remotedev/pkg/sanitize"
	"github.com/aretw0/remotedev/pkg/store"
	"github.com/aretw0/remotedev/pkg/transport"
)

// spySender records every request and acknowledges it.
type spySender struct {
	mu   sync.Mutex
	reqs []transport.Request
}

func (s *spySender) Send(ctx context.Context, req transport.Request) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	req.Hooks.Done(ctx, "spy-id")
}

func (s *spySender) Requests() []transport.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transport.Request, len(s.reqs))
	copy(out, s.reqs)
	return out
}

func newCounter(t *testing.T, cfg remotedev.Config, opts ...remotedev.Option) (*remotedev.Store, *spySender) {
	t.Helper()
	return newObserved(t, store.CounterReducer, cfg, opts...)
}

func newObserved(t *testing.T, reducer ports.Reducer, cfg remotedev.Config, opts ...remotedev.Option) (*remotedev.Store, *spySender) {
	t.Helper()
	spy := &spySender{}
	if cfg.Sender == nil && cfg.SendTo == "" {
		cfg.Sender = spy
	}
	enh, err := remotedev.New(cfg, opts...)
	require.NoError(t, err)

	s := enh.Enhance(store.New(reducer, nil))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, spy
}

func dispatch(s ports.Store, types ...string) {
	for _, typ := range types {
		s.Dispatch(domain.Action{Type: typ})
	}
}

func payload(t *testing.T, r *domain.Report) string {
	t.Helper()
	require.NotNil(t, r.Payload, "report has no payload")
	return *r.Payload
}

func preloaded(t *testing.T, r *domain.Report) string {
	t.Helper()
	require.NotNil(t, r.PreloadedState, "report has no preloaded state")
	return *r.PreloadedState
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   remotedev.Config
		field string
		want  error
	}{
		{"no transport", remotedev.Config{}, "SendTo", remotedev.ErrMissingTransport},
		{"conflicting modes", remotedev.Config{Sender: &spySender{}, Every: true, OnlyState: true}, "Every", remotedev.ErrConflictingModes},
		{"negative max age", remotedev.Config{Sender: &spySender{}, MaxAge: -1}, "MaxAge", remotedev.ErrInvalidMaxAge},
		{"relative endpoint", remotedev.Config{SendTo: "-"}, "SendTo", remotedev.ErrInvalidEndpoint},
		{"unsupported scheme", remotedev.Config{SendTo: "ftp://example.com"}, "SendTo", remotedev.ErrInvalidEndpoint},
		{
			"both lists",
			remotedev.Config{Sender: &spySender{}, ActionsWhitelist: []string{"A"}, ActionsBlacklist: []string{"B"}},
			"ActionsWhitelist",
			filter.ErrConflictingLists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enh, err := remotedev.New(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, enh)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *remotedev.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := remotedev.New(remotedev.Config{Sender: &spySender{}, ActionsBlacklist: []string{"("}})
	var cfgErr *remotedev.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNew_DerivesMode(t *testing.T) {
	tests := []struct {
		cfg  remotedev.Config
		mode remotedev.Mode
		typ  domain.ReportType
	}{
		{remotedev.Config{}, remotedev.ModeBatched, domain.ReportActions},
		{remotedev.Config{WithState: true}, remotedev.ModeBatched, domain.ReportStates},
		{remotedev.Config{Every: true}, remotedev.ModeEvery, domain.ReportAction},
		{remotedev.Config{OnlyState: true}, remotedev.ModeOnlyState, domain.ReportState},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			tt.cfg.Sender = &spySender{}
			enh, err := remotedev.New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, enh.Mode())
			assert.Equal(t, tt.typ, enh.ReportType())
		})
	}
}

func TestStore_Contract(t *testing.T) {
	enh, err := remotedev.New(remotedev.Config{Sender: &spySender{}, SendOn: []string{"DECREMENT"}, MaxAge: 2})
	require.NoError(t, err)

	ports.RunStoreContract(t, func(reducer ports.Reducer, preloaded any) ports.Store {
		return store.Create(reducer, preloaded, enh.Apply)
	})
}

func TestStore_TransparentDispatch(t *testing.T) {
	plain := store.New(store.CounterReducer, nil)
	wrapped, _ := newCounter(t, remotedev.Config{SendOn: []string{store.Decrement}, MaxAge: 2})

	seq := []string{"INCREMENT", "INCREMENT", "UNKNOWN", "DECREMENT", "INCREMENT", "DECREMENT"}
	for _, typ := range seq {
		action := domain.Action{Type: typ, Payload: map[string]any{"n": 1}}
		assert.Equal(t, plain.Dispatch(action), wrapped.Dispatch(action))
		assert.Equal(t, plain.GetState(), wrapped.GetState())
	}
}

func TestStore_Every(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{Every: true})
	assert.Empty(t, spy.Requests())
	assert.Equal(t, 0, s.GetState())

	dispatch(s, store.Increment)
	s.Wait()
	assert.Equal(t, 1, s.GetState())

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ReportAction, reqs[0].Report.Type)
	assert.Equal(t, `{"type":"INCREMENT"}`, payload(t, reqs[0].Report))
	assert.Nil(t, reqs[0].Report.PreloadedState)
	assert.Equal(t, 1, reqs[0].Store.GetState())

	dispatch(s, store.Increment)
	s.Wait()
	assert.Equal(t, 2, s.GetState())

	reqs = spy.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.ReportAction, reqs[1].Report.Type)
	assert.Equal(t, `{"type":"INCREMENT"}`, payload(t, reqs[1].Report))
}

func TestStore_SendOn(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{SendOn: []string{store.Decrement}})

	dispatch(s, store.Increment, store.Increment)
	s.Wait()
	assert.Empty(t, spy.Requests())
	assert.Equal(t, 2, s.GetState())

	dispatch(s, store.Decrement)
	s.Wait()
	assert.Equal(t, 1, s.GetState())

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	r := reqs[0].Report
	assert.Equal(t, domain.ReportActions, r.Type)
	assert.Equal(t, store.Decrement, r.Action)
	assert.Equal(t, `[{"type":"INCREMENT"},{"type":"INCREMENT"},{"type":"DECREMENT"}]`, payload(t, r))
	assert.Equal(t, "0", preloaded(t, r))

	// Sends do not clear the history.
	dispatch(s, store.Decrement)
	s.Wait()
	assert.Equal(t, 0, s.GetState())

	reqs = spy.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t,
		`[{"type":"INCREMENT"},{"type":"INCREMENT"},{"type":"DECREMENT"},{"type":"DECREMENT"}]`,
		payload(t, reqs[1].Report),
	)
	assert.Equal(t, "0", preloaded(t, reqs[1].Report))
}

func TestStore_SendOnFunc(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		SendOnFunc: func(state any, _ domain.Action) bool { return state.(int) < 0 },
	})

	// -1, -2 and -1 trigger; 0 does not.
	dispatch(s, store.Decrement, store.Decrement, store.Increment, store.Increment)
	s.Wait()
	assert.Len(t, spy.Requests(), 3)
}

func TestStore_SendOnConditionLatches(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		SendOnCondition: func(_ any, action domain.Action) bool { return action.Type == store.Decrement },
	})

	dispatch(s, store.Increment, store.Increment)
	s.Wait()
	assert.Empty(t, spy.Requests())

	dispatch(s, store.Decrement)
	s.Wait()
	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ReportActions, reqs[0].Report.Type)
	assert.Equal(t, `[{"type":"INCREMENT"},{"type":"INCREMENT"},{"type":"DECREMENT"}]`, payload(t, reqs[0].Report))
	assert.Equal(t, "0", preloaded(t, reqs[0].Report))

	dispatch(s, store.Decrement)
	s.Wait()
	assert.Equal(t, 0, s.GetState())
	assert.Len(t, spy.Requests(), 1)
}

func TestStore_MaxAge(t *testing.T) {
	tests := []struct {
		maxAge    int
		payload   string
		preloaded string
	}{
		{1, `[{"type":"DECREMENT"}]`, "2"},
		{2, `[{"type":"INCREMENT"},{"type":"DECREMENT"}]`, "1"},
		{3, `[{"type":"INCREMENT"},{"type":"INCREMENT"},{"type":"DECREMENT"}]`, "0"},
		{0, `[{"type":"INCREMENT"},{"type":"INCREMENT"},{"type":"DECREMENT"}]`, "0"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("max_age_%d", tt.maxAge), func(t *testing.T) {
			s, spy := newCounter(t, remotedev.Config{SendOn: []string{store.Decrement}, MaxAge: tt.maxAge})

			dispatch(s, store.Increment, store.Increment, store.Decrement)
			s.Wait()
			assert.Equal(t, 1, s.GetState())

			reqs := spy.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.payload, payload(t, reqs[0].Report))
			assert.Equal(t, tt.preloaded, preloaded(t, reqs[0].Report))
		})
	}
}

func TestStore_MaxAgeKeepsNEntries(t *testing.T) {
	const n = 5
	s, _ := newCounter(t, remotedev.Config{MaxAge: n})

	for i := 0; i < n+1; i++ {
		dispatch(s, store.Increment)
	}

	h := s.History()
	assert.Len(t, h.Entries, n)
	assert.True(t, h.HasPreloaded)
	// The oldest retained entry moved the counter from 1 to 2.
	assert.Equal(t, 1, h.PreloadedState)
}

func TestStore_WithState(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{SendOn: []string{store.Decrement}, WithState: true})

	dispatch(s, store.Increment, store.Increment, store.Decrement)
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ReportStates, reqs[0].Report.Type)
	assert.Equal(t,
		`[{"state":1,"action":{"type":"INCREMENT"}},`+
			`{"state":2,"action":{"type":"INCREMENT"}},`+
			`{"state":1,"action":{"type":"DECREMENT"}}]`,
		payload(t, reqs[0].Report),
	)
}

func TestStore_OnlyState(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{SendOn: []string{store.Decrement}, OnlyState: true})

	dispatch(s, store.Increment, store.Increment)
	s.Wait()
	assert.Empty(t, spy.Requests())

	dispatch(s, store.Decrement)
	s.Wait()
	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ReportState, reqs[0].Report.Type)
	assert.Equal(t, "1", preloaded(t, reqs[0].Report))
	assert.Nil(t, reqs[0].Report.Payload)
	assert.Empty(t, s.History().Entries)
}

// filteredCounter decrements on FILTERED too, so a filtered action visibly
// changes the state.
func filteredCounter(state any, action domain.Action) any {
	if action.Type == "FILTERED" {
		return store.CounterReducer(state, domain.Action{Type: store.Decrement})
	}
	return store.CounterReducer(state, action)
}

func TestStore_Blacklist(t *testing.T) {
	s, spy := newObserved(t, filteredCounter, remotedev.Config{
		SendOn:           []string{store.Decrement},
		ActionsBlacklist: []string{"FILTERED"},
	})

	dispatch(s, store.Increment)
	s.Dispatch(domain.Action{Type: "FILTERED"})
	assert.Equal(t, 0, s.GetState(), "filtered actions still reach the store")
	dispatch(s, store.Decrement)
	s.Wait()
	assert.Equal(t, -1, s.GetState())

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `[{"type":"INCREMENT"},{"type":"DECREMENT"}]`, payload(t, reqs[0].Report))
	assert.Equal(t, "0", preloaded(t, reqs[0].Report))
}

func TestStore_FilteredFirstDispatchDoesNotSeed(t *testing.T) {
	s, spy := newObserved(t, filteredCounter, remotedev.Config{
		SendOn:           []string{store.Decrement},
		ActionsBlacklist: []string{"FILTERED"},
	})

	dispatch(s, "FILTERED", store.Increment, store.Decrement)
	s.Wait()
	assert.Equal(t, -1, s.GetState())

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `[{"type":"INCREMENT"},{"type":"DECREMENT"}]`, payload(t, reqs[0].Report))
	assert.Equal(t, "-1", preloaded(t, reqs[0].Report), "baseline is the state right before the oldest entry")
}

func TestStore_Whitelist(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{Every: true, ActionsWhitelist: []string{"^INC"}})

	dispatch(s, store.Increment, store.Decrement, store.Increment)
	s.Wait()

	assert.Len(t, spy.Requests(), 2)
	assert.Equal(t, 1, s.GetState())
}

func TestStore_ActionSanitizer(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		SendOn: []string{store.Decrement},
		ActionSanitizer: func(a domain.Action) domain.Action {
			if a.Type == store.Increment {
				return domain.Action{Type: "COUNTER_INCREMENT", Payload: map[string]any{"sanitized": true}}
			}
			return a
		},
	})

	dispatch(s, store.Increment, store.Decrement)
	s.Wait()
	assert.Equal(t, 0, s.GetState())

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `[{"type":"COUNTER_INCREMENT","payload":{"sanitized":true}},{"type":"DECREMENT"}]`, payload(t, reqs[0].Report))
	assert.Equal(t, "0", preloaded(t, reqs[0].Report))
}

func TestStore_StateSanitizer(t *testing.T) {
	reducer := func(state any, action domain.Action) any {
		if action.Type == "LOGIN" {
			return map[string]any{"user": "jdoe", "password": "secret"}
		}
		return state
	}
	spy := &spySender{}
	enh, err := remotedev.New(remotedev.Config{
		Sender:         spy,
		SendOn:         []string{"LOGIN"},
		WithState:      true,
		StateSanitizer: sanitize.MustMaskKeys("password").State,
	})
	require.NoError(t, err)

	s := enh.Enhance(store.New(reducer, map[string]any{"password": "initial"}))
	dispatch(s, "LOGIN")
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `[{"state":{"password":"***","user":"jdoe"},"action":{"type":"LOGIN"}}]`, payload(t, reqs[0].Report))
	assert.Equal(t, `{"password":"***"}`, preloaded(t, reqs[0].Report))
	assert.Equal(t, "secret", s.GetState().(map[string]any)["password"], "the store keeps raw values")
}

func TestStore_StringifyReplacer(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		Every: true,
		StringifyReplacer: func(key string, value any) any {
			if key == "token" {
				return "[redacted]"
			}
			return value
		},
	})

	s.Dispatch(domain.Action{Type: "AUTH", Payload: map[string]any{"token": "abc"}})
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `{"type":"AUTH","payload":{"token":"[redacted]"}}`, payload(t, reqs[0].Report))
}

func TestStore_ReportMetadata(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		Every:       true,
		Title:       "t",
		Description: "d",
		Screenshot:  "s",
		Version:     "1.2.3",
		AppID:       "app",
		InstanceID:  "i-1",
		User:        map[string]any{"id": 7},
		Meta:        "m",
		Headers:     map[string]string{"X-Key": "k"},
	})

	dispatch(s, store.Increment)
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	r := reqs[0].Report
	assert.Equal(t, "t", r.Title)
	assert.Equal(t, "d", r.Description)
	assert.Equal(t, "s", r.Screenshot)
	assert.Equal(t, "1.2.3", r.Version)
	assert.Equal(t, "app", r.AppID)
	assert.Equal(t, "i-1", r.InstanceID)
	assert.Equal(t, map[string]any{"id": 7}, r.User)
	assert.Equal(t, "m", r.Meta)
	assert.Equal(t, remotedev.DefaultUserAgent(), r.UserAgent)
	assert.Empty(t, r.Exception)
	assert.Equal(t, map[string]string{"X-Key": "k"}, reqs[0].Headers)
}

func TestStore_ReducerPanicPropagates(t *testing.T) {
	reducer := func(state any, action domain.Action) any {
		if action.Type == "BOOM" {
			panic("reducer failure")
		}
		return store.CounterReducer(state, action)
	}
	spy := &spySender{}
	enh, err := remotedev.New(remotedev.Config{Sender: spy, SendOn: []string{"BOOM"}})
	require.NoError(t, err)
	s := enh.Enhance(store.New(reducer, nil))

	dispatch(s, store.Increment)
	assert.PanicsWithValue(t, "reducer failure", func() { dispatch(s, "BOOM") })
	s.Wait()

	assert.Empty(t, spy.Requests())
	assert.Len(t, s.History().Entries, 1)
	assert.Equal(t, 1, s.GetState())
}

func TestStore_ObservationPanicIsContained(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		Every: true,
		ActionSanitizer: func(a domain.Action) domain.Action {
			if a.Type == store.Decrement {
				panic("sanitizer failure")
			}
			return a
		},
	})

	assert.NotPanics(t, func() { dispatch(s, store.Decrement, store.Increment) })
	s.Wait()
	assert.Equal(t, 0, s.GetState())
	assert.Len(t, spy.Requests(), 1)
}

func TestStore_HTTPTransport(t *testing.T) {
	var (
		mu       sync.Mutex
		received domain.Report
		header   http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		header = r.Header.Clone()
		_ = json.Unmarshal(body, &received)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	var (
		started bool
		doneID  string
	)
	s, _ := newCounter(t, remotedev.Config{
		SendTo:  srv.URL,
		SendOn:  []string{store.Decrement},
		Headers: map[string]string{"Authorization": "Bearer token"},
		SendingStatus: domain.StatusHooks{
			OnStarted: func(context.Context, *domain.Report) { started = true },
			OnDone:    func(_ context.Context, id string) { doneID = id },
			OnFailed:  func(_ context.Context, err error) { t.Errorf("unexpected failure: %v", err) },
		},
	})

	dispatch(s, store.Increment, store.Decrement)
	s.Wait()

	assert.True(t, started)
	assert.Equal(t, "42", doneID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.ReportActions, received.Type)
	assert.Equal(t, `[{"type":"INCREMENT"},{"type":"DECREMENT"}]`, *received.Payload)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "Bearer token", header.Get("Authorization"))
	assert.Equal(t, remotedev.DefaultUserAgent(), received.UserAgent)
}

func TestStore_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var failed error
	s, _ := newCounter(t, remotedev.Config{
		SendTo: url,
		Every:  true,
		SendingStatus: domain.StatusHooks{
			OnFailed: func(_ context.Context, err error) { failed = err },
		},
	}, remotedev.WithHTTPSender(transport.NewHTTPSender(transport.WithTimeout(time.Second))))

	result := s.Dispatch(domain.Action{Type: store.Increment})
	s.Wait()

	assert.Equal(t, domain.Action{Type: store.Increment}, result)
	assert.Equal(t, 1, s.GetState())
	require.Error(t, failed)
	assert.Contains(t, failed.Error(), "failed to post report")
}

func TestStore_ErrorSource(t *testing.T) {
	errs := make(chan error, 1)
	s, spy := newCounter(t,
		remotedev.Config{SendOnError: true, SendOn: []string{"NEVER"}},
		remotedev.WithErrorSource(errs),
	)

	dispatch(s, store.Increment)
	errs <- errors.New("boom")

	require.Eventually(t, func() bool { return len(spy.Requests()) == 1 }, time.Second, 10*time.Millisecond)
	s.Wait()

	r := spy.Requests()[0].Report
	assert.Equal(t, "boom", r.Exception)
	assert.True(t, r.HasException())
	assert.Equal(t, domain.ActionError, r.Action)
	assert.Equal(t,
		`[{"type":"INCREMENT"},{"type":"@@remotedev/ERROR","payload":{"message":"boom"},"error":true}]`,
		payload(t, r),
	)
	assert.Equal(t, "0", preloaded(t, r))
}

func TestStore_ErrorSourceIgnoredWithoutSendOnError(t *testing.T) {
	errs := make(chan error, 1)
	s, spy := newCounter(t, remotedev.Config{}, remotedev.WithErrorSource(errs))

	errs <- errors.New("boom")
	dispatch(s, store.Increment)
	require.NoError(t, s.Close(context.Background()))

	assert.Empty(t, spy.Requests())
	assert.Len(t, errs, 1, "the error is left unread")
}

func TestStore_ReportErrorKeepsLatch(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		SendOnCondition: func(_ any, action domain.Action) bool { return action.Type == store.Decrement },
	})

	s.ReportError(errors.New("first"))
	s.ReportError(nil)
	s.Wait()
	require.Len(t, spy.Requests(), 1)

	dispatch(s, store.Decrement)
	s.Wait()
	reqs := spy.Requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[1].Report.Exception)
	assert.Equal(t, store.Decrement, reqs[1].Report.Action)
}

func TestStore_ReportErrorFiltered(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{Every: true, ActionsBlacklist: []string{"@@remotedev"}})

	s.ReportError(errors.New("hidden"))
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hidden", reqs[0].Report.Exception)
	assert.Nil(t, reqs[0].Report.Payload)
}

func TestStore_ReportErrorOnlyState(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{OnlyState: true})

	dispatch(s, store.Increment)
	s.ReportError(errors.New("boom"))
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ReportState, reqs[0].Report.Type)
	assert.Equal(t, "1", preloaded(t, reqs[0].Report))
	assert.Equal(t, "boom", reqs[0].Report.Exception)
}

func TestStore_Recover(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{SendOn: []string{"NEVER"}})

	assert.PanicsWithValue(t, "kaboom", func() {
		defer s.Recover()
		dispatch(s, store.Increment)
		panic("kaboom")
	})
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "panic: kaboom", reqs[0].Report.Exception)
}

func TestStore_BeforeSending(t *testing.T) {
	s, spy := newCounter(t, remotedev.Config{
		SendOn: []string{store.Decrement, "SKIP"},
		BeforeSending: func(r *domain.Report, send func(*domain.Report)) {
			if r.Action == "SKIP" {
				return
			}
			r.Title = "edited"
			send(r)
		},
	})

	dispatch(s, store.Increment, "SKIP", store.Decrement)
	s.Wait()

	reqs := spy.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "edited", reqs[0].Report.Title)
}

func TestStore_BeforeSendingAfterClose(t *testing.T) {
	var (
		pending func()
		failed  error
	)
	s, spy := newCounter(t, remotedev.Config{
		Every: true,
		BeforeSending: func(r *domain.Report, send func(*domain.Report)) {
			pending = func() { send(r) }
		},
		SendingStatus: domain.StatusHooks{
			OnFailed: func(_ context.Context, err error) { failed = err },
		},
	})

	dispatch(s, store.Increment)
	require.NotNil(t, pending)
	require.NoError(t, s.Close(context.Background()))

	pending()
	assert.ErrorIs(t, failed, remotedev.ErrClosed)
	assert.Empty(t, spy.Requests())
}

func TestStore_SenderPanic(t *testing.T) {
	var failed error
	s, _ := newCounter(t, remotedev.Config{
		Every: true,
		Sender: transport.SenderFunc(func(context.Context, transport.Request) {
			panic("sender failure")
		}),
		SendingStatus: domain.StatusHooks{
			OnFailed: func(_ context.Context, err error) { failed = err },
		},
	})

	dispatch(s, store.Increment)
	s.Wait()

	require.Error(t, failed)
	assert.Contains(t, failed.Error(), "sender failure")
}

func TestStore_Metrics(t *testing.T) {
	m := metrics.New(nil)
	s, _ := newCounter(t,
		remotedev.Config{SendOn: []string{store.Decrement}, ActionsBlacklist: []string{"FILTERED"}},
		remotedev.WithMetrics(m),
	)

	dispatch(s, store.Increment, "FILTERED", store.Decrement)
	s.Wait()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActionsObserved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsFiltered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTriggered.WithLabelValues("ACTIONS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsSent))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ReportsFailed))
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s, _ := newCounter(t, remotedev.Config{MaxAge: 10})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatch(s, store.Increment)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.GetState())
	h := s.History()
	assert.Len(t, h.Entries, 10)
	assert.True(t, h.HasPreloaded)
}

func TestStore_CloseDuringDispatch(t *testing.T) {
	var done, failed atomic.Int32
	s, _ := newCounter(t, remotedev.Config{
		Every: true,
		SendingStatus: domain.StatusHooks{
			OnDone: func(context.Context, string) { done.Add(1) },
			OnFailed: func(_ context.Context, err error) {
				assert.ErrorIs(t, err, remotedev.ErrClosed)
				failed.Add(1)
			},
		},
	})

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatch(s, store.Increment)
		}()
	}
	require.NoError(t, s.Close(context.Background()))
	wg.Wait()
	s.Wait()

	assert.Equal(t, int32(n), done.Load()+failed.Load(), "every report either completes or is refused")
	assert.Equal(t, n, s.GetState())
}

func TestEnhance_WarnsWithoutSendRule(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, _ = newCounter(t, remotedev.Config{}, remotedev.WithLogger(logger))
	assert.Contains(t, buf.String(), "no send rule configured")

	buf.Reset()
	_, _ = newCounter(t, remotedev.Config{SendOn: []string{store.Decrement}}, remotedev.WithLogger(logger))
	_, _ = newCounter(t, remotedev.Config{SendOnError: true}, remotedev.WithLogger(logger))
	_, _ = newCounter(t, remotedev.Config{Every: true}, remotedev.WithLogger(logger))
	assert.NotContains(t, buf.String(), "no send rule configured")
}

func TestStore_CloseWaitsForContext(t *testing.T) {
	release := make(chan struct{})
	s, _ := newCounter(t, remotedev.Config{
		Every: true,
		Sender: transport.SenderFunc(func(ctx context.Context, _ transport.Request) {
			select {
			case <-release:
			case <-ctx.Done():
			}
		}),
	})

	dispatch(s, store.Increment)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)
	close(release)
	s.Wait()
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remotedev.yaml")
	content := []byte(`send_to: http://localhost:8000/reports
send_on: [REPORT]
send_on_error: true
max_age: 30
with_state: true
actions_blacklist: ["@ReduxToastr"]
title: Checkout
app_id: shop
headers:
  Authorization: Bearer x
user:
  id: 7
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := remotedev.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/reports", cfg.SendTo)
	assert.Equal(t, []string{"REPORT"}, cfg.SendOn)
	assert.True(t, cfg.SendOnError)
	assert.True(t, cfg.WithState)
	assert.Equal(t, 30, cfg.MaxAge)
	assert.Equal(t, []string{"@ReduxToastr"}, cfg.ActionsBlacklist)
	assert.Equal(t, "Checkout", cfg.Title)
	assert.Equal(t, "shop", cfg.AppID)
	assert.Equal(t, map[string]string{"Authorization": "Bearer x"}, cfg.Headers)
	assert.Equal(t, map[string]any{"id": 7}, cfg.User)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, domain.ReportStates, cfg.ReportType())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := remotedev.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = remotedev.ParseConfig([]byte("sendTo: http://localhost\n"))
	var cfgErr *remotedev.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = remotedev.ParseConfig([]byte("send_on: [unclosed\n"))
	assert.ErrorAs(t, err, &cfgErr)
}
