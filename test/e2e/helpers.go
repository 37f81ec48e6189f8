//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-labs/postmind/internal/ai"
	"github.com/inkwell-labs/postmind/internal/api/handlers"
	"github.com/inkwell-labs/postmind/internal/domain"
	"github.com/inkwell-labs/postmind/internal/jobs"
	"github.com/inkwell-labs/postmind/internal/repository"
	"github.com/inkwell-labs/postmind/internal/server"
	"github.com/inkwell-labs/postmind/internal/service"
	"github.com/inkwell-labs/postmind/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	Worker       *jobs.AugmentWorker
	PostRepo     *repository.PostRepository
	JobRepo      *repository.AIJobRepository
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a database
// container, scripted model backends, and an in-process HTTP server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	postRepo := repository.NewPostRepository(pool)
	jobRepo := repository.NewAIJobRepository(pool)

	limiter := ai.NewSlidingWindowLimiter(100, time.Minute)
	gateway := ai.NewGateway(&scriptedModel{}, limiter, ai.GatewayConfig{
		AttemptTimeout: 5 * time.Second,
		RetryInitial:   time.Millisecond,
		RetryMax:       10 * time.Millisecond,
		MaxAttempts:    3,
	})
	provider := ai.NewProvider(&deterministicEmbedder{})
	ranker := ai.NewRanker(provider)
	cache := ai.NewResponseCache(ai.DefaultResponseCacheSize, ai.DefaultResponseCacheTTL)
	assistant := ai.NewAssistant(gateway, ranker, cache)
	dispatcher := ai.NewDispatcher(assistant, provider, postRepo)

	worker := jobs.NewAugmentWorker(jobRepo, postRepo, assistant, provider)
	postSvc := service.NewPostService(postRepo, jobRepo, dispatcher)
	postHandler := handlers.NewPostHandler(postSvc, dispatcher)

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, postHandler, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		Worker:       worker,
		PostRepo:     postRepo,
		JobRepo:      jobRepo,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// SeedPost stores a post directly through the repository
func (e *E2ETestEnv) SeedPost(slug string, status domain.PostStatus, body string) *domain.Post {
	post := domain.NewPost(uuid.NewString(), slug, "E2E Post "+slug, body, status,
		time.Now().UTC().Truncate(time.Microsecond))
	if err := e.PostRepo.Create(e.Ctx, post); err != nil {
		e.T.Fatalf("failed to seed post: %v", err)
	}
	return post
}

// SeedCategory stores an active category for the category job to pick
func (e *E2ETestEnv) SeedCategory(name string) string {
	id := uuid.NewString()
	_, err := e.Pool.Exec(e.Ctx,
		`INSERT INTO categories (id, name, is_active, created_at) VALUES ($1, $2, TRUE, $3)`,
		id, name, time.Now().UTC())
	if err != nil {
		e.T.Fatalf("failed to seed category: %v", err)
	}
	return id
}

// BuildBinaries builds the postmind client CLI
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "postmind-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "postmind"), "./cmd/postmind")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build postmind: %v\n%s", err, out)
	}
}

// RunPostmind runs the postmind CLI against the test server
func (e *E2ETestEnv) RunPostmind(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "postmind"), args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("POSTMIND_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with the post handler wired in
func startServer(t *testing.T, postHandler *handlers.PostHandler, port int) (string, func()) {
	router := server.NewRouter(server.RouterConfig{
		PostHandler: postHandler,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// scriptedModel replies deterministically based on the prompt so the
// full pipeline runs without an external provider.
type scriptedModel struct{}

func (m *scriptedModel) CreateChatCompletion(_ context.Context, messages []ai.Message, _ int, _ float32) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "tags for this blog post"):
		return "golang, e2e testing, pipelines", nil
	case strings.Contains(prompt, "category fits best"):
		return "Programming", nil
	case strings.Contains(prompt, "Summarize in"):
		return "A concise scripted summary.", nil
	case strings.Contains(prompt, "Answer based ONLY"):
		return "A grounded scripted answer.", nil
	default:
		return "Scripted reply.", nil
	}
}

// deterministicEmbedder derives a stable vector from each text's hash
type deterministicEmbedder struct{}

func (d *deterministicEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	matrix := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New32a()
		h.Write([]byte(text))
		vec := make([]float32, 1536)
		vec[0] = float32(h.Sum32()%1000) / 1000
		vec[1] = 1
		matrix[i] = vec
	}
	return matrix, nil
}
