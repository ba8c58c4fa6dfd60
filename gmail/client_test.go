package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	srv, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(ts.Client()),
		option.WithEndpoint(ts.URL+"/"),
	)
	require.NoError(t, err)
	return NewServiceClient(srv, "", nil)
}

func TestClientListMessages(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/messages"), r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("maxResults"))

		resp := gmail.ListMessagesResponse{NextPageToken: "tok-2"}
		if q.Get("pageToken") == "tok-2" {
			resp = gmail.ListMessagesResponse{Messages: []*gmail.Message{{Id: "c"}}}
		} else {
			resp.Messages = []*gmail.Message{{Id: "a"}, {Id: "b"}}
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	ids, next, err := c.ListMessages(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, "tok-2", next)

	ids, next, err = c.ListMessages(context.Background(), next, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)
	assert.Empty(t, next)

	require.Len(t, queries, 2)
	assert.NotContains(t, queries[0], "pageToken", "first request omits the token")
	assert.Contains(t, queries[1], "pageToken=tok-2")
}

func TestClientGetMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/messages/m1"), r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		msg := gmail.Message{
			Id:       "m1",
			ThreadId: "t1",
			Payload: &gmail.MessagePart{
				MimeType: "text/html",
				Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: "Hello"}},
				Body:     &gmail.MessagePartBody{Data: b64("<p>Hi</p>")},
			},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(msg))
	})

	msg, err := c.GetMessage(context.Background(), "m1")
	require.NoError(t, err)

	rec := Normalize(msg)
	assert.Equal(t, "Hello", Str(rec.Title))
	assert.Equal(t, "Hi", Str(rec.Content))
	assert.Equal(t, "t1", Str(rec.Metadata.ThreadID))
}

func TestClientRemoteFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota"}}`))
	})

	_, _, err := c.ListMessages(context.Background(), "", 10)
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)

	_, err = c.GetMessage(context.Background(), "m1")
	assert.ErrorContains(t, err, "m1")
}

func TestNewClientUsesCachedToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	token := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(creds, []byte(`{"installed":{
		"client_id":"id","client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]}}`), 0600))
	require.NoError(t, os.WriteFile(token, []byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r"}`), 0600))

	c, err := NewClient(context.Background(), AuthOptions{
		CredentialsFile: creds,
		TokenFile:       token,
		Prompt:          strings.NewReader(""),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "me", c.user)
}

func TestNewClientMissingCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), AuthOptions{
		CredentialsFile: filepath.Join(t.TempDir(), "nope.json"),
	}, nil)

	assert.ErrorContains(t, err, "client secret")
}

func TestReadAuthCode(t *testing.T) {
	code, err := readAuthCode(context.Background(), strings.NewReader("4/abc-123\n"))

	require.NoError(t, err)
	assert.Equal(t, "4/abc-123", code)
}

func TestTokenPromptStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	cfg := &oauth2.Config{
		ClientID: "id",
		Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example/auth", TokenURL: "https://accounts.example/token"},
	}

	_, err := getTokenFromWeb(ctx, cfg, AuthOptions{Prompt: pr, Out: &out})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "https://accounts.example/auth")
}
