package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/gateway"
	"github.com/spetersoncode/imagegate/poll"
)

func TestObserveGatewayFanOut(t *testing.T) {
	m := New()

	m.ObserveGateway(gateway.Event{Type: gateway.EventAttemptStart, Mode: gateway.ModeFanOut, Provider: imagegate.ProviderHuggingFace})
	m.ObserveGateway(gateway.Event{Type: gateway.EventAttemptFailed, Mode: gateway.ModeFanOut, Provider: imagegate.ProviderHuggingFace, Duration: time.Second})
	m.ObserveGateway(gateway.Event{Type: gateway.EventSuccess, Mode: gateway.ModeFanOut, Provider: imagegate.ProviderOpenAI, Model: "dall-e-3", Duration: 2 * time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("huggingface", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("openai", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("fan_out", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("fan_out", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImagesTotal.WithLabelValues("openai", "dall-e-3")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AttemptDuration))
}

func TestObserveGatewayFailures(t *testing.T) {
	m := New()

	m.ObserveGateway(gateway.Event{Type: gateway.EventAttemptFailed, Mode: gateway.ModeTargeted, Provider: imagegate.ProviderOpenAI})
	m.ObserveGateway(gateway.Event{Type: gateway.EventAttemptFailed, Mode: gateway.ModeFanOut, Provider: imagegate.ProviderOpenAI})
	m.ObserveGateway(gateway.Event{Type: gateway.EventExhausted, Mode: gateway.ModeFanOut})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("targeted", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("fan_out", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("openai", "error")))
}

func TestObservePoll(t *testing.T) {
	m := New()

	m.ObservePoll(poll.Event{Type: poll.EventTick})
	m.ObservePoll(poll.Event{Type: poll.EventTick, Error: errors.New("503")})
	m.ObservePoll(poll.Event{Type: poll.EventTick})
	m.ObservePoll(poll.Event{Type: poll.EventCompleted})
	m.ObservePoll(poll.Event{Type: poll.EventTimedOut})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollChecksTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollChecksTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollJobsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollJobsTotal.WithLabelValues("timed_out")))
}

func TestConsume(t *testing.T) {
	m := New()
	gw := make(chan gateway.Event, 2)
	pl := make(chan poll.Event, 2)

	gw <- gateway.Event{Type: gateway.EventSuccess, Mode: gateway.ModeTargeted, Provider: imagegate.ProviderDeepAI}
	pl <- poll.Event{Type: poll.EventFailed}
	close(gw)
	close(pl)

	done := make(chan struct{})
	go func() {
		m.Consume(context.Background(), gw, pl)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after channels closed")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("targeted", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollJobsTotal.WithLabelValues("failed")))
}

func TestConsumeStopsOnContext(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Consume(ctx, make(chan gateway.Event), nil)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

func TestMiddleware(t *testing.T) {
	m := New()
	h := m.Middleware("/api/generate", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/generate", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/api/generate", "5xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.GenerationsTotal.WithLabelValues("fan_out", "success").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `imagegate_generations_total{mode="fan_out",result="success"} 1`))
	assert.Contains(t, string(body), "go_goroutines")
}
