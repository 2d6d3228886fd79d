package e2e

import (
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/nimasrn/hero-points/internal/handlers"
	"github.com/nimasrn/hero-points/internal/repository"
	"github.com/nimasrn/hero-points/internal/services"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/nimasrn/hero-points/test/helpers"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "e2e-password"

type TestEnvironment struct {
	DB     *pg.DB
	Txns   *repository.TransactionRepository
	Users  *services.UserService
	Ledger *services.LedgerService
	client *fasthttp.Client
}

type response struct {
	Status int
	Header map[string]string
	Body   map[string]any
	Raw    []byte
}

// setupE2EEnvironment wires the api the way cmd/api does and serves it on an
// in-memory listener.
func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	db := helpers.SetupTestDB(t)
	_, cache := helpers.SetupTestRedis(t)

	userRepo := repository.NewUserRepository(db)
	scanRepo := repository.NewScanRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	totalRepo := repository.NewTotalRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	leaderboardService := services.NewLeaderboardService(leaderboardRepo, cache, time.Minute)
	registry := services.NewUIDRegistry(userRepo, db, services.DefaultUIDGenerationAttempts)
	ledgerService := services.NewLedgerService(db, userRepo, transactionRepo, totalRepo, registry, leaderboardService)
	userService := services.NewUserService(db, userRepo, transactionRepo, totalRepo, registry, leaderboardService)
	scanService := services.NewScanService(scanRepo, registry, ledgerService)
	idem := services.NewIdempotencyService(cache, services.DefaultIdempotencyConfig())

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	authService := services.NewAdminAuthService(services.AuthConfig{
		Username:     "admin",
		PasswordHash: string(hash),
		Secret:       "e2e-secret",
		SessionTTL:   time.Hour,
	}, cache)

	cfg := xhttp.DefaultServerConfig
	cfg.RequestTimeout = 0
	s := xhttp.CreateServer(cfg)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)

	g := s.Router.Group("/api")
	handlers.RegisterGatewayRoutes(g, handlers.NewGatewayHandler(scanService, userService, idem, "http://points.test"))
	handlers.RegisterPublicRoutes(g, handlers.NewPublicHandler(userService, leaderboardService))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(services.NewHealthService(db, cache)))
	handlers.RegisterAdminRoutes(g.Group("/admin"), handlers.NewAdminHandler(authService, userService, ledgerService, idem, false))
	require.NoError(t, s.DoRouting())

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = s.Server.Serve(ln) }()
	t.Cleanup(func() { _ = s.Server.Shutdown() })

	return &TestEnvironment{
		DB:     db,
		Txns:   transactionRepo,
		Users:  userService,
		Ledger: ledgerService,
		client: &fasthttp.Client{
			Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

func (env *TestEnvironment) do(t *testing.T, method, path string, body any, headers map[string]string) response {
	t.Helper()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://points.test" + path)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}

	require.NoError(t, env.client.DoTimeout(req, resp, 5*time.Second))

	out := response{
		Status: resp.StatusCode(),
		Header: map[string]string{},
		Raw:    append([]byte(nil), resp.Body()...),
	}
	for _, k := range []string{xhttp.HeaderRequestID, handlers.HeaderReplayed} {
		out.Header[k] = string(resp.Header.Peek(k))
	}
	if len(out.Raw) > 0 && out.Raw[0] == '{' {
		require.NoError(t, json.Unmarshal(out.Raw, &out.Body))
	}
	return out
}

// post is safe to call from several goroutines at once.
func (env *TestEnvironment) post(path string, body []byte) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod("POST")
	req.SetRequestURI("http://points.test" + path)
	req.Header.SetContentType("application/json")
	req.SetBody(body)
	if err := env.client.DoTimeout(req, resp, 10*time.Second); err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// loginAdmin returns headers carrying a fresh admin bearer token.
func (env *TestEnvironment) loginAdmin(t *testing.T) map[string]string {
	t.Helper()

	resp := env.do(t, "POST", "/api/admin/login", map[string]string{"username": "admin", "password": adminPassword}, nil)
	require.Equal(t, 200, resp.Status, string(resp.Raw))
	token, ok := resp.Body["token"].(string)
	require.True(t, ok)
	return map[string]string{"Authorization": "Bearer " + token}
}

func id(v any) int64 {
	f, _ := v.(float64)
	return int64(f)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
