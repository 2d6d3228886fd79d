package handlers

import (
	"context"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/internal/services"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) HandleGatewayScan(ctx context.Context, uid string, amount services.GatewayAmount) (*model.ScanResult, error) {
	args := m.Called(ctx, uid, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanResult), args.Error(1)
}

func (m *MockScanService) Last(ctx context.Context) (*services.LastScan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LastScan), args.Error(1)
}

func (m *MockScanService) Recent(ctx context.Context, uid string, limit int) ([]*model.Scan, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Scan), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CheckRegistration(ctx context.Context, uid string) (*services.RegistrationStatus, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RegistrationStatus), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) QuickRegister(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Profile(ctx context.Context, id int64) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, query string) ([]*model.UserWithTotal, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserWithTotal), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) ReassignUID(ctx context.Context, userID int64, uid string) (int64, error) {
	args := m.Called(ctx, userID, uid)
	return args.Get(0).(int64), args.Error(1)
}

type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) Ranked(ctx context.Context) ([]*model.LeaderboardRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardRow), args.Error(1)
}

func (m *MockLeaderboardService) Top(ctx context.Context, n int) ([]*model.LeaderboardRow, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardRow), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) AddContributionByUID(ctx context.Context, uid string, amount float64, source string) (*model.Contribution, error) {
	args := m.Called(ctx, uid, amount, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contribution), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockLedgerService) Total(ctx context.Context, userID int64) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

type MockAdminAuthService struct {
	mock.Mock
}

func (m *MockAdminAuthService) Login(ctx context.Context, username, password string) (*services.AdminSession, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AdminSession), args.Error(1)
}

func (m *MockAdminAuthService) Verify(ctx context.Context, token string) (*services.AdminClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AdminClaims), args.Error(1)
}

func (m *MockAdminAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Get(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&fasthttp.Request{}, nil, nil)
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func strPtr(s string) *string { return &s }
