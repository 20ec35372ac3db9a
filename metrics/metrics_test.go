package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document_editing_agent/generator"
)

func TestObserveGeneration(t *testing.T) {
	c := New(nil)
	c.ObserveGeneration(generator.ModeSemantic, "success", 2*time.Second)
	c.ObserveGeneration(generator.ModeSemantic, "success", time.Second)
	c.ObserveGeneration(generator.ModeLegacy, "parse", 100*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.generations.WithLabelValues("semantic", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("legacy", "parse")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.latency))
}

func TestObserveFallback(t *testing.T) {
	c := New(nil)
	c.ObserveFallback(generator.ModeLegacy)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("legacy")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("semantic")))
}

func TestHandler(t *testing.T) {
	c := New([]float64{1, 10})
	c.ObserveGeneration(generator.ModeLegacy, "success", time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `editagent_generator_generations_total{mode="legacy",outcome="success"} 1`)
	assert.Contains(t, body, `editagent_generator_generation_duration_seconds_bucket{mode="legacy",le="1"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRecorderWiring(t *testing.T) {
	c := New(nil)
	agent, err := generator.NewAgent(generator.MockLLM{}, generator.WithRecorder(c))
	require.NoError(t, err)

	_, err = agent.Generate(t.Context(), generator.Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generations.WithLabelValues("legacy", "success")))
}
