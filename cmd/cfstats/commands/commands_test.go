package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cf_stats/internal/app/render"
	"cf_stats/internal/common"
	"cf_stats/internal/common/security"
	"cf_stats/internal/platform/codeforces"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCodeforces(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case strings.HasSuffix(r.URL.Path, "/user.info") && q.Get("handles") == "ghost":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"FAILED","comment":"handles: User with handle ghost not found"}`))
		case strings.HasSuffix(r.URL.Path, "/user.info"):
			w.Write([]byte(`{"status":"OK","result":[{"handle":"Petr","rating":3000,"rank":"legendary grandmaster"}]}`))
		case strings.HasSuffix(r.URL.Path, "/user.status") && q.Get("handle") == "ghost":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"FAILED","comment":"handle: User with handle ghost not found"}`))
		case strings.HasSuffix(r.URL.Path, "/user.status") && q.Get("from") == "1":
			w.Write([]byte(`{"status":"OK","result":[
				{"id":2,"problem":{"contestId":1,"index":"A","name":"A","tags":["math"]},"verdict":"OK"},
				{"id":1,"problem":{"contestId":1,"index":"A","name":"A","tags":["math"]},"verdict":"WRONG_ANSWER"}
			]}`))
		default:
			w.Write([]byte(`{"status":"OK","result":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(srv *httptest.Server, format string) profileOptions {
	return profileOptions{Format: format, Output: "-", PageSize: 500, APIBase: srv.URL + "/api", Timeout: 5 * time.Second, NoColor: true}
}

func TestRunProfileJSON(t *testing.T) {
	srv := fakeCodeforces(t)
	var out bytes.Buffer

	err := runProfile(context.Background(), "Petr", testOptions(srv, formatJSON), &out, codeforces.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	var view render.ProfileView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "Petr", view.Handle)
	assert.Equal(t, 1, view.UniqueSolveCount)
	assert.Equal(t, 2, view.TotalSubmissions)
}

func TestRunProfileTableToFile(t *testing.T) {
	srv := fakeCodeforces(t)
	opts := testOptions(srv, formatTable)
	opts.Output = filepath.Join(t.TempDir(), "petr.txt")

	err := runProfile(context.Background(), "Petr", opts, &bytes.Buffer{}, codeforces.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	raw, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Petr (legendary grandmaster)")
	assert.Contains(t, string(raw), "math")
}

func TestRunProfileHTML(t *testing.T) {
	srv := fakeCodeforces(t)
	var out bytes.Buffer

	err := runProfile(context.Background(), "Petr", testOptions(srv, formatHTML), &out, codeforces.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Contains(t, out.String(), `class="profile-handle">Petr<`)
}

func TestRunProfileUnknownUser(t *testing.T) {
	srv := fakeCodeforces(t)

	err := runProfile(context.Background(), "ghost", testOptions(srv, formatTable), &bytes.Buffer{}, codeforces.WithHTTPClient(srv.Client()))
	require.ErrorIs(t, err, common.ErrUserNotFound)
	assert.Contains(t, err.Error(), "User not found")
}

func TestRunProfileRejectsBadInput(t *testing.T) {
	srv := fakeCodeforces(t)

	err := runProfile(context.Background(), "Petr", testOptions(srv, "xml"), &bytes.Buffer{})
	require.Error(t, err)

	opts := testOptions(srv, formatTable)
	opts.APIBase = "http://codeforces.com/api"
	err = runProfile(context.Background(), "Petr", opts, &bytes.Buffer{})
	require.Error(t, err)
}

func TestProfileCommandReadsEnv(t *testing.T) {
	t.Setenv("CFSTATS_FORMAT", "xml")

	cmd := NewProfileCommand()
	cmd.SetArgs([]string{"Petr"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	cmd := NewTokenCommand()
	cmd.SetArgs([]string{"--subject", "ops", "--ttl", "1h"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	token, err := jwtauth.VerifyToken(security.NewTokenAuth([]byte("cli-secret")), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", token.Subject())
}
