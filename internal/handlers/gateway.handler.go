package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/internal/services"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
)

type ScanService interface {
	HandleGatewayScan(ctx context.Context, uid string, amount services.GatewayAmount) (*model.ScanResult, error)
	Last(ctx context.Context) (*services.LastScan, error)
	Recent(ctx context.Context, uid string, limit int) ([]*model.Scan, error)
}

// GatewayHandler serves the field devices that read tags.
type GatewayHandler struct {
	scans   ScanService
	users   RegistrationChecker
	idem    IdempotencyService
	baseURL string
}

func RegisterGatewayRoutes(e *xhttp.Group, h *GatewayHandler) {
	e.POST("/scan", h.PostScan)
	e.GET("/scans", h.GetScans)
	e.GET("/last-scan", h.GetLastScan)
	e.GET("/ndef-url", h.GetNdefURL)
}

// NewGatewayHandler builds absolute links from baseURL, or from the request
// host when it is empty.
func NewGatewayHandler(scans ScanService, users RegistrationChecker, idem IdempotencyService, baseURL string) *GatewayHandler {
	return &GatewayHandler{
		scans:   scans,
		users:   users,
		idem:    idem,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type scanRequest struct {
	UID    string          `json:"uid"`
	Amount json.RawMessage `json:"amount"`
}

type scansResponse struct {
	Scans []*model.Scan `json:"scans"`
}

type lastScanUser struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Nickname *string `json:"nickname"`
}

type lastScanResponse struct {
	UID  *string       `json:"uid"`
	TS   *time.Time    `json:"ts,omitempty"`
	User *lastScanUser `json:"user,omitempty"`
}

type ndefResponse struct {
	Status      string `json:"status"`
	Exists      bool   `json:"exists"`
	UID         string `json:"uid"`
	URL         string `json:"url,omitempty"`
	RegisterURL string `json:"registerUrl,omitempty"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *GatewayHandler) PostScan(ctx *xhttp.RequestCtx) {
	var req scanRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	uid := model.NormalizeUID(req.UID)
	if uid == "" {
		writeServiceError(ctx, model.ErrInvalidUID)
		return
	}

	// an unreadable amount still records the scan; the result note says why
	// nothing was applied
	var amount services.GatewayAmount
	if d, sent, ok := decodeAmount(req.Amount); sent {
		amount = services.GatewayAmount{Value: d.InexactFloat64(), Sent: true, Valid: ok}
	}

	idempotent(ctx, h.idem, "scan", func(c context.Context) ([]byte, error) {
		res, err := h.scans.HandleGatewayScan(c, uid, amount)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
}

// GetScans lists recent scans, newest first, optionally for one uid.
func (h *GatewayHandler) GetScans(ctx *xhttp.RequestCtx) {
	limit, err := queryLimit(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	scans, err := h.scans.Recent(ctx, query(ctx, "uid"), limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if scans == nil {
		scans = []*model.Scan{}
	}
	writeJSON(ctx, xhttp.StatusOK, scansResponse{Scans: scans})
}

func (h *GatewayHandler) GetLastScan(ctx *xhttp.RequestCtx) {
	last, err := h.scans.Last(ctx)
	if errors.Is(err, model.ErrNoScans) {
		writeJSON(ctx, xhttp.StatusOK, lastScanResponse{})
		return
	}
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	resp := lastScanResponse{UID: &last.Scan.UID, TS: &last.Scan.TS}
	if last.User != nil {
		resp.User = &lastScanUser{
			ID:       last.User.ID,
			Name:     last.User.Name,
			Nickname: last.User.Nickname,
		}
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}

// GetNdefURL tells a tag writer which link to store on the tag: the profile
// of the linked user or the registration form.
func (h *GatewayHandler) GetNdefURL(ctx *xhttp.RequestCtx) {
	uid := model.NormalizeUID(query(ctx, "uid"))
	if uid == "" {
		writeServiceError(ctx, model.ErrInvalidUID)
		return
	}

	status, err := h.users.CheckRegistration(ctx, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	base := h.base(ctx)
	resp := ndefResponse{Status: services.ScanStatusOK, Exists: status.Exists, UID: uid}
	if status.Exists {
		resp.URL = base + profilePath(status.UserID)
	} else {
		resp.RegisterURL = base + registerPath(uid)
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}

func (h *GatewayHandler) base(ctx *xhttp.RequestCtx) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if ctx.IsTLS() {
		scheme = "https"
	}
	return scheme + "://" + string(ctx.Host())
}

func profilePath(id int64) string {
	return "/u/" + strconv.FormatInt(id, 10)
}

func registerPath(uid string) string {
	return "/register?uid=" + url.QueryEscape(uid)
}
