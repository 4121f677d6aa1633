package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsCounter(t *testing.T) {
	before := testutil.ToFloat64(Commands.WithLabelValues("insert_tile", "ok"))
	Commands.WithLabelValues("insert_tile", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Commands.WithLabelValues("insert_tile", "ok")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ItemsFound.Inc()
	SessionsActive.Set(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "labyrinth_game_items_found_total")
	assert.Contains(t, string(body), "labyrinth_sessions_active 2")
}
