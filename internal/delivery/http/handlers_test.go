package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasolina/backend/internal/artifact"
	"github.com/gasolina/backend/internal/domain"
	"github.com/gasolina/backend/internal/features"
	"github.com/gasolina/backend/internal/metrics"
	"github.com/gasolina/backend/internal/repository/postgres"
	"github.com/gasolina/backend/internal/service"
)

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func newTestApp(t *testing.T) (*fiber.App, *service.PriceEstimator) {
	t.Helper()

	enc, err := features.NewOneHotEncoder([]string{"CDMX", "Jalisco", "Nuevo Leon"})
	require.NoError(t, err)
	model := &artifact.LinearModel{Coefficients: []float64{1, 2, 3, 0.01, 0.1}, Intercept: 0}

	m := metrics.New()
	estimator := service.NewPriceEstimator(enc, model, nil, postgres.NewMockRepository(), m, zerolog.Nop())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler, DisableStartupMessage: true})
	SetupRoutes(app, estimator, m, zerolog.Nop())
	return app, estimator
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestPredict(t *testing.T) {
	app, estimator := newTestApp(t)
	defer estimator.WaitBackground()

	status, body := doRequest(t, app, "POST", "/api/v1/predict", `{"state":"Jalisco","year":2024,"month":6}`)
	require.Equal(t, fiber.StatusOK, status)

	var resp domain.EstimateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Jalisco", resp.Data.State)
	assert.InDelta(t, 2+20.24+0.6, resp.Data.Price, 1e-9)
	assert.Equal(t, "MXN", resp.Data.Currency)
}

func TestPredictErrors(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "malformed body", body: `{"state":`, status: fiber.StatusBadRequest, message: "Invalid request body"},
		{name: "unknown state", body: `{"state":"not-a-real-state","year":2024,"month":6}`, status: fiber.StatusUnprocessableEntity, message: "Unknown state: not-a-real-state"},
		{name: "year out of range", body: `{"state":"CDMX","year":2040,"month":6}`, status: fiber.StatusBadRequest, message: "year"},
		{name: "month out of range", body: `{"state":"CDMX","year":2024,"month":13}`, status: fiber.StatusBadRequest, message: "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, "POST", "/api/v1/predict", tt.body)
			assert.Equal(t, tt.status, status)

			var resp errorBody
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.True(t, resp.Error)
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestGetStates(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doRequest(t, app, "GET", "/api/v1/states", "")
	require.Equal(t, fiber.StatusOK, status)

	var resp struct {
		Data  []string `json:"data"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, []string{"CDMX", "Jalisco", "Nuevo Leon"}, resp.Data)
	assert.Equal(t, 3, resp.Count)
}

func TestGetPredictions(t *testing.T) {
	app, estimator := newTestApp(t)

	doRequest(t, app, "POST", "/api/v1/predict", `{"state":"CDMX","year":2020,"month":1}`)
	doRequest(t, app, "POST", "/api/v1/predict", `{"state":"Jalisco","year":2021,"month":2}`)
	estimator.WaitBackground()

	status, body := doRequest(t, app, "GET", "/api/v1/predictions?limit=1", "")
	require.Equal(t, fiber.StatusOK, status)

	var resp struct {
		Data  []domain.PredictionLog `json:"data"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Jalisco", resp.Data[0].State)
}

func TestHealthCheck(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doRequest(t, app, "GET", "/health", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"model_kind":"linear"`)
}

func TestIndex(t *testing.T) {
	app, estimator := newTestApp(t)
	defer estimator.WaitBackground()

	tests := []struct {
		name     string
		target   string
		status   int
		contains string
		excludes string
	}{
		{name: "form only", target: "/", status: fiber.StatusOK, contains: `value="2024"`, excludes: "Precio estimado"},
		{name: "estimate", target: "/?state=Jalisco&year=2024&month=6", status: fiber.StatusOK, contains: "$22.84 MXN por litro"},
		{name: "unknown state", target: "/?state=Atlantis&year=2024&month=6", status: fiber.StatusUnprocessableEntity, contains: "Error al codificar el estado", excludes: "por litro"},
		{name: "invalid month", target: "/?state=CDMX&year=2024&month=14", status: fiber.StatusBadRequest, contains: "Parámetros inválidos"},
		{name: "non-numeric year", target: "/?state=CDMX&year=abc&month=6", status: fiber.StatusBadRequest, contains: "year: integer", excludes: "por litro"},
		{name: "non-numeric month", target: "/?state=CDMX&year=2024&month=junio", status: fiber.StatusBadRequest, contains: "month: integer", excludes: "por litro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, "GET", tt.target, "")
			assert.Equal(t, tt.status, status)
			assert.Contains(t, string(body), tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, string(body), tt.excludes)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, estimator := newTestApp(t)

	doRequest(t, app, "POST", "/api/v1/predict", `{"state":"CDMX","year":2020,"month":1}`)
	estimator.WaitBackground()

	status, body := doRequest(t, app, "GET", "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `gasolina_estimates_total{outcome="ok"} 1`)
}

func TestIndexKeepAliveKeepsStoredState(t *testing.T) {
	app, estimator := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	// one connection, so every request reuses the same fasthttp buffers
	client := &nethttp.Client{Transport: &nethttp.Transport{MaxConnsPerHost: 1, MaxIdleConnsPerHost: 1}}
	base := "http://" + ln.Addr().String()
	get := func(target string) string {
		resp, err := client.Get(base + target)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	get("/?state=Jalisco&year=2024&month=6")
	for i := 0; i < 50; i++ {
		get(fmt.Sprintf("/?state=XXXXXX%d&year=2024&month=6", i%10))
	}
	estimator.WaitBackground()

	logs, err := estimator.History(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Jalisco", logs[0].State)

	exposition := get("/metrics")
	assert.Contains(t, exposition, `gasolina_last_estimated_price_mxn{state="Jalisco"}`)
	assert.NotContains(t, exposition, "XXX")
}
