package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// octopusStub emulates the three EmailOctopus endpoints the client hits.
type octopusStub struct {
	subscribed  int
	createFails bool
	sendFails   bool

	createdBody map[string]any
	sendCalls   int
}

func (s *octopusStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("api_key"))
		fmt.Fprintf(w, `{"id": %q, "counts": {"subscribed": %d}}`, r.PathValue("id"), s.subscribed)
	})
	mux.HandleFunc("POST /campaigns", func(w http.ResponseWriter, r *http.Request) {
		if s.createFails {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"error": {"code": "INVALID_PARAMETERS"}}`)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&s.createdBody))
		fmt.Fprint(w, `{"id": "campaign-1"}`)
	})
	mux.HandleFunc("POST /campaigns/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		s.sendCalls++
		if s.sendFails {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": {"code": "UNKNOWN"}}`)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	return mux
}

func newStubClient(t *testing.T, stub *octopusStub) *EmailOctopus {
	t.Helper()
	ts := httptest.NewServer(stub.handler(t))
	t.Cleanup(ts.Close)
	sender := Sender{Name: "NBA 50-Point Alert", Email: "alerts@nba50alert.com"}
	return NewEmailOctopus(ts.URL, "key-123", "list-456", sender, nil)
}

func TestSendToList_Success(t *testing.T) {
	stub := &octopusStub{subscribed: 42}
	c := newStubClient(t, stub)

	res, err := c.SendToList(context.Background(), someAlerts())
	require.NoError(t, err)

	assert.Equal(t, SendResult{Attempted: 42, Succeeded: 42}, res)
	assert.Equal(t, 1, stub.sendCalls)

	subject, _ := stub.createdBody["subject"].(string)
	assert.Contains(t, subject, "De'Aaron Fox")
	assert.Contains(t, subject, "60")
	content, _ := stub.createdBody["content"].(map[string]any)
	html, _ := content["html"].(string)
	assert.Contains(t, html, "NBA50")
	assert.Contains(t, html, "De'Aaron Fox")
}

func TestSendToList_NoSubscribersSkipsCampaign(t *testing.T) {
	stub := &octopusStub{subscribed: 0}
	c := newStubClient(t, stub)

	res, err := c.SendToList(context.Background(), someAlerts())
	require.NoError(t, err)
	assert.Equal(t, SendResult{}, res)
	assert.Equal(t, 0, stub.sendCalls)
}

func TestSendToList_CreateFailureReportsAllFailed(t *testing.T) {
	stub := &octopusStub{subscribed: 10, createFails: true}
	c := newStubClient(t, stub)

	res, err := c.SendToList(context.Background(), someAlerts())
	require.Error(t, err)
	assert.Equal(t, SendResult{Attempted: 10, Failed: 10}, res)
}

func TestSendToList_SendFailureReportsAllFailed(t *testing.T) {
	stub := &octopusStub{subscribed: 10, sendFails: true}
	c := newStubClient(t, stub)

	res, err := c.SendToList(context.Background(), someAlerts())
	require.Error(t, err)
	assert.Equal(t, SendResult{Attempted: 10, Failed: 10}, res)
}
