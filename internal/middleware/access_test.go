package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codewithbrain/internal/events"
)

func recordRequests(bus *events.Bus) *[]events.RequestCompleted {
	var got []events.RequestCompleted
	bus.RequestCompleted.Subscribe(func(_ context.Context, ev events.RequestCompleted) {
		got = append(got, ev)
	})
	return &got
}

func TestAccessEventsPublishesAfterResponse(t *testing.T) {
	bus := events.NewBus(nil)
	got := recordRequests(bus)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		SetAccessUser(r.Context(), "admin")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("done"))
	})
	handler := RequestTimer(AccessEvents(bus)(inner))

	req := httptest.NewRequest(http.MethodPost, "/admin/posts", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "done", rr.Body.String())

	require.Len(t, *got, 1)
	ev := (*got)[0]
	assert.Equal(t, http.MethodPost, ev.Method)
	assert.Equal(t, "/admin/posts", ev.Path)
	assert.Equal(t, http.StatusCreated, ev.StatusCode)
	assert.Equal(t, "admin", ev.Username)
	assert.Equal(t, "203.0.113.9", ev.RemoteAddr)
	assert.False(t, ev.StartedAt.IsZero())
	assert.GreaterOrEqual(t, ev.Duration(), 5*time.Millisecond)
}

func TestAccessEventsWithoutTimer(t *testing.T) {
	bus := events.NewBus(nil)
	got := recordRequests(bus)

	handler := AccessEvents(bus)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/log", nil))

	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].StartedAt.IsZero())
	assert.Zero(t, (*got)[0].Duration())
	assert.Equal(t, http.StatusOK, (*got)[0].StatusCode)
	assert.Empty(t, (*got)[0].Username)
}

func TestAccessEventsListenerPanicDoesNotAffectResponse(t *testing.T) {
	bus := events.NewBus(nil)
	bus.RequestCompleted.Subscribe(func(context.Context, events.RequestCompleted) {
		panic("listener failure")
	})

	handler := AccessEvents(bus)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/posts", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestLoadSessionSetsAccessUser(t *testing.T) {
	store, _ := newSessionStore(t)
	w := httptest.NewRecorder()
	_, err := store.Create(context.Background(), w, newTestSession("admin"))
	require.NoError(t, err)

	bus := events.NewBus(nil)
	got := recordRequests(bus)

	handler := AccessEvents(bus)(LoadSession(store)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, *got, 1)
	assert.Equal(t, "tester", (*got)[0].Username)
}

func TestStartFromCtx(t *testing.T) {
	assert.True(t, StartFromCtx(context.Background()).IsZero())

	var start time.Time
	RequestTimer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start = StartFromCtx(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, start.IsZero())
}

func TestHTTPMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/blog/{slug}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, slug := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/blog/"+slug+"/", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/blog/{slug}/", "200")))
}

func TestHTTPMetricsFoldsUnknownMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	for _, method := range []string{"PROPFIND", "MKCOL", "BREW", "get", "X-CUSTOM"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/", nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/", nil))

	assert.Equal(t, 2, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.requests.WithLabelValues("OTHER", "unmatched", "405")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("PATCH", "unmatched", "405")))
}

func TestMethodLabel(t *testing.T) {
	for _, m := range []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "CONNECT", "TRACE"} {
		assert.Equal(t, m, MethodLabel(m))
	}
	assert.Equal(t, "OTHER", MethodLabel("get"))
	assert.Equal(t, "OTHER", MethodLabel(""))
}
