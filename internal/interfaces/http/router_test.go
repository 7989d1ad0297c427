package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/MolProp-Intelligence/internal/testutil"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	e := prediction.NewEngine(nil)
	e.Install(testutil.TinyContext(t, 5))
	return NewRouter(RouterConfig{
		Mode:              gin.TestMode,
		PredictionHandler: handlers.NewPredictionHandler(e, nil, nil),
		HealthHandler:     handlers.NewHealthHandler(e, "v-test"),
		MaxBodySize:       1024,
		RateLimiter:       middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics")
		}),
	})
}

func TestRouter_Routes(t *testing.T) {
	r := testRouter(t)
	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/properties", "", http.StatusOK},
		{http.MethodPost, "/predict", `{"smiles":"C"}`, http.StatusOK},
		{http.MethodPost, "/predict/batch", `{"smiles":["C"]}`, http.StatusOK},
		{http.MethodGet, "/predictions/recent", "", http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	r := testRouter(t)
	body := `{"smiles":"` + strings.Repeat("C", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Recovery(t *testing.T) {
	r := testRouter(t)
	r.GET("/boom", func(*gin.Context) { panic("boom") })
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal error"}`, w.Body.String())
}

func TestServer_ServeAndStop(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, testRouter(t), nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, <-done)
}

//Personal.AI order the ending
