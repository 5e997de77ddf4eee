package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/vladislavdragonenkov/greenlogist/internal/api"
	healthcheck "github.com/vladislavdragonenkov/greenlogist/internal/health"
	grpcsvc "github.com/vladislavdragonenkov/greenlogist/internal/service/grpc"
)

func testRunConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.GRPCAddr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.HTTPAddr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.MetricsAddr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.StorageDriver = StorageDriverMemory
	cfg.JWTSecret = "integration-secret"
	cfg.OutboxPollInterval = 20 * time.Millisecond
	return cfg
}

func startRun(t *testing.T, cfg Config) (cancel func() error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	waitForHTTP(t, "http://"+cfg.MetricsAddr+"/livez")
	return func() error {
		stop()
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			return errors.New("run did not stop")
		}
	}
}

func TestRun_MemoryGracefulShutdown(t *testing.T) {
	stop := startRun(t, testRunConfig(t))

	err := stop()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_InvalidStorageDriver(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.StorageDriver = "invalid-driver"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestRun_RequiresJWTSecret(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.JWTSecret = ""

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "jwt secret") {
		t.Fatalf("expected jwt secret error, got %v", err)
	}
}

func TestRun_ServesHTTPAndGRPC(t *testing.T) {
	cfg := testRunConfig(t)
	stop := startRun(t, cfg)
	defer func() { _ = stop() }()

	base := "http://" + cfg.HTTPAddr + "/api/v1"
	producer := registerAndLogin(t, base, "Ivan Farmer", "ivan@example.com", "producer")
	consumer := registerAndLogin(t, base, "Olga Buyer", "olga@example.com", "consumer")

	var created api.CreatedResponse
	postJSON(t, base+"/products", producer.AccessToken, api.ProductRequest{
		Name:        "Tomatoes",
		Description: "Greenhouse tomatoes",
		Quantity:    api.Quantity(decimal.NewFromInt(100), "kg"),
		Price:       api.Price(decimal.RequireFromString("2.50"), "EUR"),
	}, http.StatusCreated, &created)

	conn, err := grpc.NewClient(cfg.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := grpcsvc.NewMarketplaceClient(conn)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+consumer.AccessToken)
	placed, err := client.PlaceOrder(ctx, &api.PlaceOrderRequest{
		ConsumerID: consumer.UserID,
		ProducerID: producer.UserID,
		Items: []api.OrderLineRequest{{
			ProductID: created.ID,
			Quantity:  api.Quantity(decimal.NewFromInt(10), "kg"),
			UnitPrice: api.Price(decimal.RequireFromString("2.50"), "EUR"),
		}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, placed.OrderID)

	order, err := client.GetOrder(ctx, &api.GetOrderRequest{OrderID: placed.OrderID})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(25).Equal(order.TotalAmount))

	resp, err := http.Get("http://" + cfg.MetricsAddr + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), "greenlogist_orders_placed_total 1")
	require.Contains(t, string(body), "greenlogist_http_requests_total")
	require.Contains(t, string(body), "grpc_server_handled_total")

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.MetricsAddr + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var health healthcheck.Response
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return false
		}
		return health.Status == healthcheck.StatusHealthy
	}, 2*time.Second, 20*time.Millisecond)
}

func TestInitRuntimeDependencies_PostgresSuccess(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("GREENLOGIST_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = dsn
	cfg.PostgresAutoMigrate = true

	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "postgres-init"))
	if err != nil {
		t.Skipf("postgres is not available for app integration test: %v", err)
	}
	defer func() { _ = deps.close() }()

	if deps.users == nil || deps.outboxRepo == nil || deps.timelineRepo == nil || deps.idempotencyRepo == nil {
		t.Fatalf("postgres dependencies must be initialized: %+v", deps)
	}
	if deps.storageChecker == nil {
		t.Fatal("expected non-nil storage checker for postgres")
	}
	check := deps.storageChecker.Check(context.Background())
	if check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy storage checker, got %+v", check)
	}
}

func TestInitRuntimeDependencies_RedisSuccess(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("GREENLOGIST_REDIS_TEST_ADDR"))
	if addr == "" {
		t.Skip("redis addr is not available")
	}

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
		RedisAddr:     addr,
	}, log.WithField("test", "redis-init"))
	if err != nil {
		t.Skipf("redis is not available for app integration test: %v", err)
	}
	defer func() { _ = deps.close() }()

	if deps.redisChecker == nil {
		t.Fatal("expected redis checker")
	}
	if check := deps.redisChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy redis checker, got %+v", check)
	}
}

func registerAndLogin(t *testing.T, base, name, email, role string) api.TokenResponse {
	t.Helper()
	postJSON(t, base+"/auth/register", "", api.RegisterRequest{
		FullName: name, Email: email, Password: "secret-password", Role: role,
	}, http.StatusCreated, nil)

	var token api.TokenResponse
	postJSON(t, base+"/auth/login", "", api.LoginRequest{Email: email, Password: "secret-password"}, http.StatusOK, &token)
	return token
}

func postJSON(t *testing.T, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	require.Equal(t, wantStatus, resp.StatusCode, string(raw))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}
