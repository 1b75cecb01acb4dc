package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzielCF/az-bot/domains/health"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	report health.Report
}

func (f fakeHealth) GetStatus(ctx context.Context) health.Report { return f.report }

func TestIndex_StaticText(t *testing.T) {
	app := fiber.New()
	InitRestHealth(app, nil, "az-bot")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
	assert.Equal(t, "az-bot is running", string(body))
}

func TestHealthz_ReturnsReport(t *testing.T) {
	app := fiber.New()
	InitRestHealth(app, fakeHealth{report: health.Report{
		Status:    health.StatusOk,
		Connected: true,
		LoggedIn:  true,
		Groups:    3,
	}}, "az-bot")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		utils.ResponseData
		Results health.Report `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "SUCCESS", out.Code)
	assert.Equal(t, health.StatusOk, out.Results.Status)
	assert.True(t, out.Results.Connected)
	assert.Equal(t, 3, out.Results.Groups)
}

func TestHealthz_Uninitialized(t *testing.T) {
	app := fiber.New()
	InitRestHealth(app, nil, "az-bot")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
