package handlers

import (
	"context"

	"github.com/nimasrn/hero-points/internal/model"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
)

const (
	msgUIDTaken     = "this tag is already linked to a player"
	msgUIDAvailable = "this tag is free: register to link it, then scan it on the writer again"
	msgUIDMissing   = "open this page from a tag to fill in its uid"
	msgRegistered   = "registration complete"
)

type PublicUserService interface {
	RegistrationChecker
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Profile(ctx context.Context, id int64) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.User, error)
}

type LeaderboardService interface {
	Ranked(ctx context.Context) ([]*model.LeaderboardRow, error)
	Top(ctx context.Context, n int) ([]*model.LeaderboardRow, error)
}

type PublicHandler struct {
	users PublicUserService
	board LeaderboardService
}

func RegisterPublicRoutes(e *xhttp.Group, h *PublicHandler) {
	e.GET("/leaderboard", h.GetLeaderboard)
	e.GET("/user/{id}", h.GetUserProfile)
	e.PUT("/users/{id}", h.PutUserProfile)
	e.GET("/register/check", h.CheckRegister)
	e.POST("/register", h.PostRegister)
	e.GET("/resolve/{uid}", h.GetResolveUID)
}

func NewPublicHandler(users PublicUserService, board LeaderboardService) *PublicHandler {
	return &PublicHandler{
		users: users,
		board: board,
	}
}

type leaderboardResponse struct {
	Rows []*model.LeaderboardRow `json:"rows"`
}

type checkResponse struct {
	UID     *string `json:"uid"`
	Exists  bool    `json:"exists"`
	Message string  `json:"message"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"userId"`
	UID     string `json:"uid"`
	Message string `json:"message"`
}

type updateResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
}

type resolveResponse struct {
	Exists   bool   `json:"exists"`
	UserID   int64  `json:"userId,omitempty"`
	Redirect string `json:"redirect"`
}

/* --------------------------------- Routes ----------------------------------- */

// GetLeaderboard serves the full ranking, or its first rows when a limit is
// given.
func (h *PublicHandler) GetLeaderboard(ctx *xhttp.RequestCtx) {
	limit, err := queryLimit(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	var rows []*model.LeaderboardRow
	if limit > 0 {
		rows, err = h.board.Top(ctx, limit)
	} else {
		rows, err = h.board.Ranked(ctx)
	}
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if rows == nil {
		rows = []*model.LeaderboardRow{}
	}
	writeJSON(ctx, xhttp.StatusOK, leaderboardResponse{Rows: rows})
}

func (h *PublicHandler) GetUserProfile(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	profile, err := h.users.Profile(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, profile)
}

func (h *PublicHandler) PutUserProfile(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	var upd model.ProfileUpdate
	if err := readJSON(ctx, &upd); err != nil {
		writeBadBody(ctx, err)
		return
	}
	user, err := h.users.UpdateProfile(ctx, id, upd)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, updateResponse{Success: true, User: user})
}

func (h *PublicHandler) CheckRegister(ctx *xhttp.RequestCtx) {
	uid := model.NormalizeUID(query(ctx, "uid"))
	if uid == "" {
		writeJSON(ctx, xhttp.StatusOK, checkResponse{Message: msgUIDMissing})
		return
	}

	status, err := h.users.CheckRegistration(ctx, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	resp := checkResponse{UID: &status.UID, Exists: status.Exists, Message: msgUIDAvailable}
	if status.Exists {
		resp.Message = msgUIDTaken
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}

func (h *PublicHandler) PostRegister(ctx *xhttp.RequestCtx) {
	var req model.RegisterRequest
	if err := readJSON(ctx, &req); err != nil {
		writeBadBody(ctx, err)
		return
	}
	user, err := h.users.Register(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, registerResponse{
		Success: true,
		UserID:  user.ID,
		UID:     *user.UID,
		Message: msgRegistered,
	})
}

// GetResolveUID is hit when a phone opens a tag link and decides where the
// frontend sends it.
func (h *PublicHandler) GetResolveUID(ctx *xhttp.RequestCtx) {
	uid := model.NormalizeUID(pathParam(ctx, "uid"))
	if uid == "" {
		writeServiceError(ctx, model.ErrInvalidUID)
		return
	}
	status, err := h.users.CheckRegistration(ctx, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if status.Exists {
		writeJSON(ctx, xhttp.StatusOK, resolveResponse{Exists: true, UserID: status.UserID, Redirect: profilePath(status.UserID)})
		return
	}
	writeJSON(ctx, xhttp.StatusOK, resolveResponse{Redirect: registerPath(uid)})
}
