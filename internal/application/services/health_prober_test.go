package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relialab/healthprobe/internal/application/services"
	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/relialab/healthprobe/internal/core/ports"
)

func TestCheckReturnsOneResultPerTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, target.Messaging{Client: &messagingClientMock{}}, false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, target.Database{Handle: &dbHandleMock{}}, false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, serviceTarget(t, srv.URL), false, target.RegisterOptions{}))

	results := svc.Check(ctx)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.True(t, r.Healthy, "target %s should be healthy", r.Target)
		assert.Empty(t, r.Err)
		assert.GreaterOrEqual(t, r.ResponseTime, time.Duration(0))
		assert.NotEmpty(t, r.Target)
	}
}

func TestCheckHealthyIffNoError(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, serviceTarget(t, ok.URL), false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, serviceTarget(t, bad.URL), false, target.RegisterOptions{}))

	for _, r := range svc.Check(ctx) {
		assert.Equal(t, r.Healthy, r.Err == "", "Healthy must mirror an empty error for %s", r.Target)
	}
}

func TestCheckIsolatesFailures(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	// Closed immediately: every request to it fails at the transport.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, serviceTarget(t, ok.URL), false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, serviceTarget(t, deadURL), false, target.RegisterOptions{}))

	results := svc.Check(ctx)
	require.Len(t, results, 2)

	byTarget := map[string]target.HealthCheckResult{}
	for _, r := range results {
		byTarget[r.Target] = r
	}

	healthy, found := byTarget[ok.URL]
	require.True(t, found, "healthy target missing from results")
	assert.True(t, healthy.Healthy)
	assert.Empty(t, healthy.Err)

	failed, found := byTarget[deadURL]
	require.True(t, found, "failed target missing from results")
	assert.False(t, failed.Healthy)
	assert.NotEmpty(t, failed.Err)
}

func TestCheckPreservesRegistrationOrderPerKind(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var urls []string
	for i := 0; i < 5; i++ {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		urls = append(urls, srv.URL)
		require.NoError(t, svc.Register(ctx, serviceTarget(t, srv.URL), false, target.RegisterOptions{}))
	}

	results := svc.Check(ctx)
	require.Len(t, results, len(urls))
	for i, r := range results {
		assert.Equal(t, urls[i], r.Target, "result %d out of registration order", i)
	}
}

func TestCheckKindOrdering(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Registered service first, messaging last; the report still groups
	// kinds as messaging, database, service.
	require.NoError(t, svc.Register(ctx, serviceTarget(t, srv.URL), false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, target.Database{Handle: &dbHandleMock{}}, false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, target.Messaging{Client: &messagingClientMock{}}, false, target.RegisterOptions{}))

	results := svc.Check(ctx)
	require.Len(t, results, 3)
	assert.Equal(t, target.KindMessaging, results[0].Kind)
	assert.Equal(t, target.KindDatabase, results[1].Kind)
	assert.Equal(t, target.KindService, results[2].Kind)
}

func TestCheckIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, serviceTarget(t, srv.URL), false, target.RegisterOptions{}))
	require.NoError(t, svc.Register(ctx, target.Database{Handle: &dbHandleMock{}}, false, target.RegisterOptions{}))

	first := svc.Check(ctx)
	second := svc.Check(ctx)
	require.Equal(t, len(first), len(second))

	identifiers := func(results []target.HealthCheckResult) []string {
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = r.Target
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, identifiers(first), identifiers(second))
}

func TestProbeMessagingPublishesToHealthExchange(t *testing.T) {
	client := &messagingClientMock{}
	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, target.Messaging{Client: client}, false, target.RegisterOptions{}))

	results := svc.Check(ctx)
	require.Len(t, results, 1)
	assert.True(t, results[0].Healthy)

	require.Len(t, client.published, 1)
	assert.Equal(t, "health", client.published[0][0])
	assert.Equal(t, "check", client.published[0][1])

	// Payload is the probe timestamp.
	_, err := time.Parse(time.RFC3339Nano, client.published[0][2])
	assert.NoError(t, err, "expected RFC3339 timestamp payload, got %q", client.published[0][2])
}

func TestProbeDatabaseDefaultInsertsClientIdentifier(t *testing.T) {
	var statements []string
	var arguments [][]any
	session := &dbSessionMock{execFn: func(ctx context.Context, statement string, args ...any) error {
		statements = append(statements, statement)
		arguments = append(arguments, args)
		return nil
	}}
	handle := &dbHandleMock{openFn: func(ctx context.Context) (target.DatabaseSession, error) {
		return session, nil
	}}

	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, target.Database{Handle: handle}, false, target.RegisterOptions{}))

	results := svc.Check(ctx)
	require.Len(t, results, 1)
	require.True(t, results[0].Healthy, "probe failed: %s", results[0].Err)

	require.Len(t, statements, 1)
	assert.Equal(t, `INSERT INTO "Healthcheck" ("ClientIdentifier") VALUES ($1)`, statements[0])
	require.Len(t, arguments[0], 1)
	assert.Equal(t, "healthprobe-test", arguments[0][0])
	assert.True(t, session.closed, "session must be closed after the probe")
}

func TestProbeDatabaseOverrideQuery(t *testing.T) {
	var statements []string
	handle := &dbHandleMock{openFn: func(ctx context.Context) (target.DatabaseSession, error) {
		return &dbSessionMock{execFn: func(ctx context.Context, statement string, args ...any) error {
			statements = append(statements, statement)
			return nil
		}}, nil
	}}

	svc := newService(t)
	ctx := context.Background()
	opts := target.RegisterOptions{Query: "SELECT 1"}
	require.NoError(t, svc.Register(ctx, target.Database{Handle: handle}, false, opts))

	results := svc.Check(ctx)
	require.Len(t, results, 1)
	require.Len(t, statements, 1)
	assert.Equal(t, "SELECT 1", statements[0])
}

func TestProbeDatabaseOpenFailure(t *testing.T) {
	handle := &dbHandleMock{openFn: func(ctx context.Context) (target.DatabaseSession, error) {
		return nil, errors.New("connection refused")
	}}

	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, target.Database{Handle: handle}, false, target.RegisterOptions{}))

	results := svc.Check(ctx)
	require.Len(t, results, 1)
	assert.False(t, results[0].Healthy)
	assert.Contains(t, results[0].Err, "connection refused")
}

type observerMock struct {
	observed []struct {
		kind    target.Kind
		healthy bool
	}
}

func (o *observerMock) ObserveProbe(kind target.Kind, healthy bool, elapsed time.Duration) {
	o.observed = append(o.observed, struct {
		kind    target.Kind
		healthy bool
	}{kind, healthy})
}

var _ ports.ProbeObserver = (*observerMock)(nil)

func TestCheckNotifiesObserver(t *testing.T) {
	observer := &observerMock{}
	svc := services.NewHealthService(services.HealthServiceDeps{Observer: observer, ProcessID: "healthprobe-test"}, nil)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, target.Messaging{Client: &messagingClientMock{}}, false, target.RegisterOptions{}))

	svc.Check(ctx)
	require.Len(t, observer.observed, 1)
	assert.Equal(t, target.KindMessaging, observer.observed[0].kind)
	assert.True(t, observer.observed[0].healthy)
}
