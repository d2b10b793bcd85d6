package clickup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oomavera/agency/internal/dispatch"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL, APIToken: "pk_test"})
	require.NoError(t, err)
	return client
}

func TestCreateTask(t *testing.T) {
	var captured TaskRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/list/list123/task", r.URL.Path)
		assert.Equal(t, "pk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})
	})

	task, err := client.CreateTask(context.Background(), "list123", TaskRequest{Name: "Jane Doe (home)"})
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "Jane Doe (home)", captured.Name)
}

func TestCreateTaskAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err":"Team not authorized"}`, http.StatusUnauthorized)
	})

	_, err := client.CreateTask(context.Background(), "list123", TaskRequest{Name: "x"})
	require.Error(t, err)
	status, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestDispatcherBuildsTask(t *testing.T) {
	var captured TaskRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"id": "task-7"})
	})
	d := NewDispatcher(client, DispatcherConfig{
		ListID:       "list123",
		Status:       "new lead",
		Priority:     2,
		PhoneFieldID: "phone-field",
	})

	res := d.Dispatch(context.Background(), dispatch.Event{
		Name:   "Jane Doe",
		Phone:  "(407) 555-0100",
		Email:  "jane@example.com",
		Page:   "offer",
		Source: "Facebook Ads",
	})

	assert.Equal(t, dispatch.StatusOK, res.Status)
	assert.Equal(t, "task-7", res.TaskID)
	assert.Equal(t, "Jane Doe (offer)", captured.Name)
	assert.Equal(t, []string{"lead", "offer", "facebook-ads"}, captured.Tags)
	assert.Equal(t, "new lead", captured.Status)
	assert.Equal(t, 2, captured.Priority)
	assert.Contains(t, captured.Description, "Source: Facebook Ads")
	assert.Contains(t, captured.Description, "Phone: (407) 555-0100")
	require.Len(t, captured.CustomFields, 1)
	assert.Equal(t, "4075550100", captured.CustomFields[0].Value)
}

func TestDispatcherSkipsWithoutConfig(t *testing.T) {
	d := NewDispatcher(nil, DispatcherConfig{})
	res := d.Dispatch(context.Background(), dispatch.Event{Name: "x", Phone: "4075550100"})
	assert.Equal(t, dispatch.StatusSkipped, res.Status)
}

func TestDispatcherReportsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	})
	d := NewDispatcher(client, DispatcherConfig{ListID: "list123"})
	res := d.Dispatch(context.Background(), dispatch.Event{Name: "x", Phone: "4075550100"})
	assert.Equal(t, dispatch.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "500")
}
