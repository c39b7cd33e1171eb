package codeforces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)

	m := metrics.New()
	c, err := NewClient(srv.URL+"/api/", WithHTTPClient(srv.Client()), WithMetrics(m))
	require.NoError(t, err)
	return c, m
}

func TestNewClientRequiresHTTPS(t *testing.T) {
	_, err := NewClient("http://codeforces.com/api")
	require.Error(t, err)

	c, err := NewClient("https://codeforces.com/api", WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestFetchSubmissionsSendsPagingParams(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user.status", r.URL.Path)
		assert.Equal(t, "tourist", r.URL.Query().Get("handle"))
		assert.Equal(t, "501", r.URL.Query().Get("from"))
		assert.Equal(t, "500", r.URL.Query().Get("count"))
		w.Write([]byte(`{"status":"OK","result":[
			{"id":1,"contestId":4,"problem":{"contestId":4,"index":"A","name":"Watermelon","tags":["brute force","math"]},"verdict":"OK"},
			{"id":2,"problem":{"problemsetName":"acmsguru","index":"100","name":"A+B","tags":[]}}
		]}`))
	})

	page, err := c.FetchSubmissions(context.Background(), "tourist", 501, 500)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, model.VerdictOK, page[0].Verdict)
	assert.Equal(t, model.ProblemIdentity("4-A"), page[0].Problem.Identity())
	assert.Equal(t, []string{"brute force", "math"}, page[0].Problem.Tags)
	assert.Equal(t, model.VerdictTesting, page[1].EffectiveVerdict())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteRequests.WithLabelValues("user.status", "ok")))
}

func TestFetchSubmissionsEscapesHandle(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a&b=c", r.URL.Query().Get("handle"))
		w.Write([]byte(`{"status":"OK","result":[]}`))
	})

	page, err := c.FetchSubmissions(context.Background(), "a&b=c", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestFetchSubmissionsUnknownHandle(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"handle: User with handle nobody_xyz not found"}`))
	})

	_, err := c.FetchSubmissions(context.Background(), "nobody_xyz", 1, 500)
	require.ErrorIs(t, err, common.ErrUserNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteRequests.WithLabelValues("user.status", "not_found")))
}

func TestFetchSubmissionsOtherFailureIsFetchFailed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"FAILED","comment":"Call limit exceeded"}`))
	})

	_, err := c.FetchSubmissions(context.Background(), "tourist", 1, 500)
	require.ErrorIs(t, err, common.ErrFetchFailed)
	assert.NotErrorIs(t, err, common.ErrUserNotFound)
}

func TestMalformedPayloadIsFetchFailed(t *testing.T) {
	tests := map[string]string{
		"html":         `<html>Codeforces is temporarily unavailable</html>`,
		"no status":    `{"result":[]}`,
		"wrong result": `{"status":"OK","result":{"not":"an array"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.FetchSubmissions(context.Background(), "tourist", 1, 500)
			require.ErrorIs(t, err, common.ErrFetchFailed)
		})
	}
}

func TestFetchUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user.info", r.URL.Path)
		assert.Equal(t, "Petr", r.URL.Query().Get("handles"))
		w.Write([]byte(`{"status":"OK","result":[{"handle":"Petr","rating":3100,"maxRating":3500,
			"rank":"legendary grandmaster","maxRank":"legendary grandmaster",
			"titlePhoto":"//userpic.codeforces.org/1/title/p.jpg"}]}`))
	})

	u, err := c.FetchUser(context.Background(), "Petr")
	require.NoError(t, err)
	assert.Equal(t, "Petr", u.Handle)
	assert.Equal(t, 3500, u.MaxRating)
	assert.Equal(t, "https://userpic.codeforces.org/1/title/p.jpg", u.PhotoURL())
}

func TestFetchUserFailureIsUserNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"handles: User with handle ghost not found"}`))
	})

	_, err := c.FetchUser(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestFetchUserEmptyResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"OK","result":[]}`))
	})

	_, err := c.FetchUser(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestCanceledContext(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.FetchUser(ctx, "tourist")
	require.ErrorIs(t, err, context.Canceled)
}
