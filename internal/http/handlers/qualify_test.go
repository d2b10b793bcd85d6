package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oomavera/agency/internal/leads"
)

func validAnswers() map[string]string {
	return map[string]string{
		"name":          "Jane Doe",
		"ownsHome":      "Yes",
		"squareFootage": "1500-2000",
		"frequency":     "Bi-weekly",
		"priority":      "Reliable",
	}
}

func TestQualifySubmit(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	notifier := &stubDispatcher{name: "telegram"}
	h := NewQualifyHandler(repo, notifier, nil)

	rec := postJSON(t, h.Submit, "/api/qualify", map[string]any{"answers": validAnswers()})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool              `json:"success"`
		Pixel   map[string]string `json:"pixel"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Lead", resp.Pixel["event"])

	stored, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Jane Doe | QUALIFIED: ownsHome=Yes; squareFootage=1500-2000; frequency=Bi-weekly; priority=Reliable", stored[0].Name)
	assert.Equal(t, "+1 (000) 000-0000", stored[0].Phone)
	assert.Equal(t, "qualify", stored[0].Source)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, stored[0].Name, notifier.events[0].Name)
}

func TestQualifyValidation(t *testing.T) {
	h := NewQualifyHandler(leads.NewInMemoryRepository(), nil, nil)

	mutate := func(key, value string) map[string]string {
		a := validAnswers()
		if value == "" {
			delete(a, key)
		} else {
			a[key] = value
		}
		return a
	}

	cases := []struct {
		name    string
		answers map[string]string
	}{
		{"missing name", mutate("name", "")},
		{"missing ownsHome", mutate("ownsHome", "")},
		{"missing squareFootage", mutate("squareFootage", "")},
		{"missing frequency", mutate("frequency", "")},
		{"missing priority", mutate("priority", "")},
		{"name too long", mutate("name", strings.Repeat("a", 101))},
		{"bad ownsHome", mutate("ownsHome", "Maybe")},
		{"bad frequency", mutate("frequency", "Daily")},
		{"bad priority", mutate("priority", "Fancy")},
		{"bad squareFootage", mutate("squareFootage", "4000-5000")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Submit, "/api/qualify", map[string]any{"answers": tc.answers})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	t.Run("missing answers object", func(t *testing.T) {
		rec := postJSON(t, h.Submit, "/api/qualify", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQualifyPlaceholderPhonePassesValidation(t *testing.T) {
	req := leads.CreateLeadRequest{Name: "x", Phone: "+1 (000) 000-0000"}
	assert.NoError(t, req.Validate())
}
