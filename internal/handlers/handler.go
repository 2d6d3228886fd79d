package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/internal/services"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	msgInvalidBody = "invalid JSON body"

	maxListLimit = 500
)

type RegistrationChecker interface {
	CheckRegistration(ctx context.Context, uid string) (*services.RegistrationStatus, error)
}

type IdempotencyService interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, bool, error)
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

// decodeAmount reads an amount sent as a JSON number or a numeric string.
// sent reports whether the field was present at all; ok is false for a
// present field that is null, blank or not a number.
func decodeAmount(raw json.RawMessage) (amount decimal.Decimal, sent, ok bool) {
	if len(raw) == 0 {
		return decimal.Zero, false, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, true, false
	}
	return d, true, true
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	writeRaw(ctx, status, b)
}

func writeRaw(ctx *xhttp.RequestCtx, status int, b []byte) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeBadBody rejects an unparseable request body. The decoder error is
// logged, not returned.
func writeBadBody(ctx *xhttp.RequestCtx, err error) {
	logger.Debug("rejected request body",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"error", err,
	)
	writeError(ctx, xhttp.StatusBadRequest, msgInvalidBody)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return xhttp.StatusBadRequest
	case errors.Is(err, model.ErrUnauthenticated):
		return xhttp.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return xhttp.StatusConflict
	}
	return xhttp.StatusInternalServerError
}

// writeServiceError answers with the status of the error kind. Unexpected
// failures are logged and hidden behind a generic message.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	status := statusFor(err)
	if status == xhttp.StatusInternalServerError {
		logger.Error("request failed",
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"request_id", string(ctx.Request.Header.Peek(xhttp.HeaderRequestID)),
			"error", err,
		)
		writeError(ctx, status, model.ErrOperationFailed.Error())
		return
	}
	writeError(ctx, status, err.Error())
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

// queryLimit reads the optional limit query argument. Zero means the store
// default.
func queryLimit(ctx *xhttp.RequestCtx) (int, error) {
	raw := query(ctx, "limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, model.ErrInvalidLimit
	}
	return min(n, maxListLimit), nil
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	id, err := strconv.ParseInt(pathParam(ctx, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrInvalidUserID
	}
	return id, nil
}

// idempotent runs fn at most once per Idempotency-Key header value and writes
// its response. Without the header fn just runs.
func idempotent(ctx *xhttp.RequestCtx, idem IdempotencyService, scope string, fn func(ctx context.Context) ([]byte, error)) {
	key := string(ctx.Request.Header.Peek(HeaderIdempotencyKey))
	if idem == nil || key == "" {
		body, err := fn(ctx)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeRaw(ctx, xhttp.StatusOK, body)
		return
	}

	body, replayed, err := idem.Do(ctx, scope+":"+key, fn)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if replayed {
		ctx.Response.Header.Set(HeaderReplayed, "true")
	}
	writeRaw(ctx, xhttp.StatusOK, body)
}
