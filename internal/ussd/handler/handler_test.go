package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebirth/internal/registration/models"
	"ebirth/internal/ussd/session"
)

type stubFinalizer struct {
	id  string
	sub models.Submission
}

func (f *stubFinalizer) Register(_ context.Context, sub models.Submission) (string, error) {
	f.sub = sub
	return f.id, nil
}

type stubVerifier struct{}

func (stubVerifier) Verify(context.Context, string) (*models.Registration, error) {
	panic("verifier must not be reached in these scenarios")
}

func newServer(t *testing.T, engine *session.Engine) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(engine).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+"/ussd", form)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestServeInitialMenu(t *testing.T) {
	engine := session.New(&stubFinalizer{}, stubVerifier{})
	srv := newServer(t, engine)

	resp, body := post(t, srv, url.Values{
		"sessionId":   {"ATUid_1"},
		"phoneNumber": {"0201112223"},
		"text":        {""},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.True(t, strings.HasPrefix(body, "CON "), "open sessions use the CON tag: %q", body)
	assert.Contains(t, body, "Register a New Birth")
}

func TestServeTerminalReply(t *testing.T) {
	engine := session.New(&stubFinalizer{}, stubVerifier{})
	srv := newServer(t, engine)

	resp, body := post(t, srv, url.Values{
		"sessionId":   {"ATUid_2"},
		"phoneNumber": {"0201112223"},
		"text":        {"9"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "END "), "terminal replies use the END tag: %q", body)
}

func TestServePassesSessionIdentityToEngine(t *testing.T) {
	fin := &stubFinalizer{id: "GHA-01-027-25015-0001-5"}
	engine := session.New(fin, stubVerifier{})
	srv := newServer(t, engine)

	inputs := []string{"1", "1", "1", "027", "15012020", "1", "Kofi", "Mensah", "Ama Asante", "GHA-123456789-0", "2", "1"}
	_, body := post(t, srv, url.Values{
		"sessionId":   {"ATUid_3"},
		"phoneNumber": {"0240000001"},
		"text":        {strings.Join(inputs, "*")},
	})

	assert.True(t, strings.HasPrefix(body, "END "))
	assert.Contains(t, body, fin.id)
	assert.Equal(t, "ATUid_3", fin.sub.SessionKey)
	assert.Equal(t, "0240000001", fin.sub.Recipient)
}

type panickingFinalizer struct{}

func (panickingFinalizer) Register(context.Context, models.Submission) (string, error) {
	panic("boom")
}

func TestServePanicRendersInBandError(t *testing.T) {
	engine := session.New(panickingFinalizer{}, stubVerifier{})
	srv := newServer(t, engine)

	inputs := []string{"1", "1", "1", "027", "15012020", "1", "Kofi", "Mensah", "Ama Asante", "GHA-123456789-0", "2", "1"}
	resp, body := post(t, srv, url.Values{
		"sessionId":   {"ATUid_4"},
		"phoneNumber": {"0240000001"},
		"text":        {strings.Join(inputs, "*")},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode, "the gateway drops non-200 sessions")
	assert.Equal(t, "END System error occurred. Please try again later.", body)
}

func TestServeMissingFormFields(t *testing.T) {
	engine := session.New(&stubFinalizer{}, stubVerifier{})
	srv := newServer(t, engine)

	// A bare POST with no form body still starts a session.
	resp, body := post(t, srv, url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "CON "))
}
