package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/internal/services"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/valyala/fasthttp"
)

const (
	AdminCookieName = "admin_session"
	adminClaimsKey  = "admin"
)

type AdminAuthService interface {
	Login(ctx context.Context, username, password string) (*services.AdminSession, error)
	Verify(ctx context.Context, token string) (*services.AdminClaims, error)
	Logout(ctx context.Context, token string) error
}

type AdminUserService interface {
	QuickRegister(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	List(ctx context.Context, query string) ([]*model.UserWithTotal, error)
	Delete(ctx context.Context, id int64) error
	ReassignUID(ctx context.Context, userID int64, uid string) (int64, error)
}

type AdminLedgerService interface {
	AddContributionByUID(ctx context.Context, uid string, amount float64, source string) (*model.Contribution, error)
	History(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error)
	Total(ctx context.Context, userID int64) (float64, error)
}

type AdminHandler struct {
	auth         AdminAuthService
	users        AdminUserService
	ledger       AdminLedgerService
	idem         IdempotencyService
	secureCookie bool
}

// RegisterAdminRoutes mounts the admin api. Every route but login requires a
// valid admin session.
func RegisterAdminRoutes(e *xhttp.Group, h *AdminHandler) {
	guard := RequireAdmin(h.auth)
	e.POST("/login", h.PostLogin)
	e.POST("/logout", guard(h.PostLogout))
	e.GET("/dashboard", guard(h.GetDashboard))
	e.GET("/history/{id}", guard(h.GetHistory))
	e.POST("/quick-add-tx", guard(h.PostQuickAddTx))
	e.POST("/quick-register-link", guard(h.PostQuickRegisterLink))
	e.POST("/delete-user", guard(h.PostDeleteUser))
	e.POST("/reassign-uid", guard(h.PostReassignUID))
}

func NewAdminHandler(auth AdminAuthService, users AdminUserService, ledger AdminLedgerService, idem IdempotencyService, secureCookie bool) *AdminHandler {
	return &AdminHandler{
		auth:         auth,
		users:        users,
		ledger:       ledger,
		idem:         idem,
		secureCookie: secureCookie,
	}
}

// RequireAdmin rejects requests without a valid session token, taken from
// the session cookie or a bearer Authorization header.
func RequireAdmin(auth AdminAuthService) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			claims, err := auth.Verify(ctx, sessionToken(ctx))
			if err != nil {
				writeServiceError(ctx, err)
				return
			}
			ctx.SetUserValue(adminClaimsKey, claims)
			next(ctx)
		}
	}
}

func sessionToken(ctx *xhttp.RequestCtx) string {
	if c := ctx.Request.Header.Cookie(AdminCookieName); len(c) > 0 {
		return string(c)
	}
	if token, ok := strings.CutPrefix(string(ctx.Request.Header.Peek("Authorization")), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type dashboardResponse struct {
	Users []*model.UserWithTotal `json:"users"`
	Query string                 `json:"query"`
}

type quickAddTxRequest struct {
	UID    string          `json:"uid"`
	Amount json.RawMessage `json:"amount"`
}

type historyResponse struct {
	UserID       int64                `json:"userId"`
	Total        float64              `json:"total"`
	Transactions []*model.Transaction `json:"transactions"`
}

type quickAddTxResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	UserID  int64   `json:"userId"`
	Total   float64 `json:"total"`
}

type userIDRequest struct {
	UserID int64 `json:"user_id"`
}

type reassignRequest struct {
	UserID int64  `json:"user_id"`
	UID    string `json:"uid"`
}

type reassignResponse struct {
	Success        bool   `json:"success"`
	UserID         int64  `json:"userId"`
	UID            string `json:"uid"`
	PreviousUserID int64  `json:"previousUserId,omitempty"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *AdminHandler) PostLogin(ctx *xhttp.RequestCtx) {
	var req loginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	session, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(AdminCookieName)
	c.SetValue(session.Token)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSecure(h.secureCookie)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	c.SetExpire(session.ExpiresAt)
	ctx.Response.Header.SetCookie(c)

	writeJSON(ctx, xhttp.StatusOK, loginResponse{Success: true, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (h *AdminHandler) PostLogout(ctx *xhttp.RequestCtx) {
	if err := h.auth.Logout(ctx, sessionToken(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.Header.DelClientCookie(AdminCookieName)
	writeJSON(ctx, xhttp.StatusOK, successResponse{Success: true})
}

func (h *AdminHandler) GetDashboard(ctx *xhttp.RequestCtx) {
	q := strings.TrimSpace(query(ctx, "q"))
	users, err := h.users.List(ctx, q)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if users == nil {
		users = []*model.UserWithTotal{}
	}
	writeJSON(ctx, xhttp.StatusOK, dashboardResponse{Users: users, Query: q})
}

func (h *AdminHandler) GetHistory(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	limit, err := queryLimit(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	txns, err := h.ledger.History(ctx, id, limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	total, err := h.ledger.Total(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if txns == nil {
		txns = []*model.Transaction{}
	}
	writeJSON(ctx, xhttp.StatusOK, historyResponse{UserID: id, Total: total, Transactions: txns})
}

func (h *AdminHandler) PostQuickAddTx(ctx *xhttp.RequestCtx) {
	var req quickAddTxRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	amount, _, ok := decodeAmount(req.Amount)
	if !ok || !amount.IsPositive() {
		writeServiceError(ctx, model.ErrInvalidAmount)
		return
	}

	idempotent(ctx, h.idem, "admin-tx", func(c context.Context) ([]byte, error) {
		contrib, err := h.ledger.AddContributionByUID(c, req.UID, amount.InexactFloat64(), services.SourceAdmin)
		if err != nil {
			return nil, err
		}
		return json.Marshal(quickAddTxResponse{
			Success: true,
			Message: fmt.Sprintf("ID %d · %s +%s₮", contrib.User.ID, contrib.User.Name, amount.StringFixed(0)),
			UserID:  contrib.User.ID,
			Total:   contrib.NewTotal,
		})
	})
}

func (h *AdminHandler) PostQuickRegisterLink(ctx *xhttp.RequestCtx) {
	var req model.RegisterRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	user, err := h.users.QuickRegister(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, registerResponse{
		Success: true,
		UserID:  user.ID,
		UID:     *user.UID,
		Message: fmt.Sprintf("registered '%s' and linked uid %s", user.Name, *user.UID),
	})
}

func (h *AdminHandler) PostDeleteUser(ctx *xhttp.RequestCtx) {
	var req userIDRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	if err := h.users.Delete(ctx, req.UserID); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, successResponse{
		Success: true,
		Message: fmt.Sprintf("user ID %d deleted", req.UserID),
	})
}

func (h *AdminHandler) PostReassignUID(ctx *xhttp.RequestCtx) {
	var req reassignRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	previous, err := h.users.ReassignUID(ctx, req.UserID, req.UID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, reassignResponse{
		Success:        true,
		UserID:         req.UserID,
		UID:            model.NormalizeUID(req.UID),
		PreviousUserID: previous,
	})
}
