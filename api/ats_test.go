package api

import (
	"net/http"
	"testing"

	"github.com/garnizeh/curator/internal/ats"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateATSConnection(t *testing.T) {
	m := mock.NewMocks()
	h := NewATSHandler(m.Connections, m.Queue)

	w := postWithVars(t, h.CreateConnection, map[string]string{
		"provider": ats.ProviderGreenhouse, "api_key": "acme-board",
	}, map[string]string{"id": "3"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NotNil(t, m.Connections.Connection)
	assert.Equal(t, int64(3), m.Connections.Connection.CompanyID)
	assert.Equal(t, ats.ProviderGreenhouse, m.Connections.Connection.Provider)
	assert.Equal(t, "acme-board", m.Connections.Connection.APIKey)
}

func TestCreateATSConnectionValidation(t *testing.T) {
	m := mock.NewMocks()
	h := NewATSHandler(m.Connections, m.Queue)

	w := postWithVars(t, h.CreateConnection, map[string]string{
		"provider": "lever", "api_key": "k",
	}, map[string]string{"id": "3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported provider")

	w = postWithVars(t, h.CreateConnection, map[string]string{
		"provider": ats.ProviderGreenhouse,
	}, map[string]string{"id": "3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postWithVars(t, h.CreateConnection, map[string]string{
		"provider": ats.ProviderGreenhouse, "api_key": "k",
	}, map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Nil(t, m.Connections.Connection)
}

func TestATSSyncEnqueues(t *testing.T) {
	m := mock.NewMocks()
	m.Connections.Connection = &models.ATSConnection{ID: 1, CompanyID: 3, Provider: ats.ProviderGreenhouse, APIKey: "acme"}
	h := NewATSHandler(m.Connections, m.Queue)

	w := postWithVars(t, h.Sync, map[string]string{"provider": ats.ProviderGreenhouse}, map[string]string{"id": "3"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "syncing")

	require.Len(t, m.Queue.Jobs, 1)
	assert.Equal(t, jobs.TypeATSSync, m.Queue.Jobs[0].Type)
	assert.Contains(t, string(m.Queue.Jobs[0].Payload), `"company_id":3`)
}

func TestATSSyncWithoutConnection(t *testing.T) {
	m := mock.NewMocks()
	h := NewATSHandler(m.Connections, m.Queue)

	w := postWithVars(t, h.Sync, map[string]string{"provider": ats.ProviderGreenhouse}, map[string]string{"id": "3"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, m.Queue.Jobs)
}
