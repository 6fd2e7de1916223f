package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/domain"
)

func newResendTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	s := NewResendSender("re_test_key", "Job Board <onboarding@resend.dev>")
	s.client.BaseURL = base
	return s
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]interface{}
	s := newResendTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	})

	err := s.Send(context.Background(), domain.EmailMessage{
		To:      "a@b.com",
		Subject: "Admin access for Tech Frens job board",
		Text:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Job Board <onboarding@resend.dev>", got["from"])
	assert.Equal(t, []interface{}{"a@b.com"}, got["to"])
	assert.Equal(t, "Admin access for Tech Frens job board", got["subject"])
	assert.Equal(t, "plain", got["text"])
	assert.Equal(t, "<p>html</p>", got["html"])
}

func TestResendSender_EmptyResponse(t *testing.T) {
	s := newResendTestSender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	err := s.Send(context.Background(), domain.EmailMessage{To: "a@b.com", Text: "x"})
	assert.EqualError(t, err, "resend send: empty response")
}

func TestResendSender_ProviderError(t *testing.T) {
	s := newResendTestSender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	})

	err := s.Send(context.Background(), domain.EmailMessage{To: "a@b.com", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resend send")
}
