package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-runner/internal/application/usecase"
	"booking-runner/internal/domain/entity"
	"booking-runner/internal/infrastructure/browser/rodpool"
	"booking-runner/internal/infrastructure/logger"
	"booking-runner/internal/infrastructure/queue"
	"booking-runner/internal/infrastructure/sink"
)

// These tests launch a real headless Chromium.

func newTestPool(t *testing.T) *rodpool.Pool {
	t.Helper()

	cfg := rodpool.DefaultConfig()
	cfg.Headless = true
	cfg.NoSandbox = true
	cfg.Timeout = 10 * time.Second

	factory, err := rodpool.NewRodFactory(context.Background(), cfg)
	require.NoError(t, err)

	pool := rodpool.NewPool(factory, rodpool.PoolConfig{Size: 2, AcquireTimeout: 10 * time.Second}, logger.NewNop())
	t.Cleanup(pool.Close)
	return pool
}

func TestSession_NavigateAndExtract(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a browser")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Venues</title></head>
<body>
	<div class="ristoCont">
		<span>Appia</span>
		<span>Ostia Lido</span>
	</div>
</body>
</html>`)
	}))
	defer server.Close()

	pool := newTestPool(t)
	ctx := context.Background()

	session, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer pool.Release(session)

	require.NoError(t, session.Navigate(ctx, server.URL))

	text, err := session.ExtractText(ctx, ".ristoCont")
	require.NoError(t, err)
	assert.Contains(t, text, "Appia")
	assert.Contains(t, text, "Ostia Lido")

	assert.True(t, session.Healthy())
}

func TestSession_FormFill(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a browser")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<body>
	<input id="Nome" type="text">
	<select id="OraPren">
		<option value="">--</option>
		<option value="13:00">13:00</option>
		<option value="13:15">13:15</option>
	</select>
	<div id="echo"></div>
	<script>
		document.getElementById('OraPren').addEventListener('change', function() {
			document.getElementById('echo').textContent = this.value;
		});
	</script>
</body>
</html>`)
	}))
	defer server.Close()

	pool := newTestPool(t)
	ctx := context.Background()

	session, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer pool.Release(session)

	require.NoError(t, session.Navigate(ctx, server.URL))
	require.NoError(t, session.Fill(ctx, "#Nome", "Mario"))
	require.NoError(t, session.Select(ctx, "#OraPren", "13:15"))

	echo, err := session.ExtractText(ctx, "#echo")
	require.NoError(t, err)
	assert.Equal(t, "13:15", echo)
}

func TestRunner_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a browser")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<body><h1 class="headline">Benvenuto</h1></body>
</html>`)
	}))
	defer server.Close()

	pool := newTestPool(t)
	log := logger.NewNop()

	execCfg := usecase.DefaultExecutorConfig()
	execCfg.ArtifactDir = t.TempDir()
	exec := usecase.NewExecutor(pool, log, execCfg)

	q := queue.NewMemory()
	results := sink.NewMemory()
	runner := usecase.NewRunner(q, results, exec, log, 2)

	for i := 0; i < 3; i++ {
		q.Enqueue(&entity.Task{
			ID:      fmt.Sprintf("e2e-%d", i),
			Name:    fmt.Sprintf("e2e-%d", i),
			Timeout: 30 * time.Second,
			Steps: []entity.Step{
				{Kind: entity.StepNavigate, Name: "open", Value: server.URL},
				{Kind: entity.StepWaitVisible, Name: "ready", Selector: ".headline"},
				{Kind: entity.StepExtract, Name: "headline", Selector: ".headline"},
			},
		})
	}
	q.Close()

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	for _, r := range results.Results() {
		assert.Equal(t, "Benvenuto", r.Payload["headline"])
		assert.NotEmpty(t, r.Payload["final_url"])
	}
}
