package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
)

type RegistrationStatus struct {
	UID    string `json:"uid"`
	Exists bool   `json:"exists"`
	UserID int64  `json:"userId,omitempty"`
}

type UserService struct {
	tx       Transactor
	users    UserRepository
	txns     TransactionRepository
	totals   TotalRepository
	registry *UIDRegistry
	board    LeaderboardInvalidator
}

func NewUserService(tx Transactor, users UserRepository, txns TransactionRepository, totals TotalRepository, registry *UIDRegistry, board LeaderboardInvalidator) *UserService {
	return &UserService{
		tx:       tx,
		users:    users,
		txns:     txns,
		totals:   totals,
		registry: registry,
		board:    orNoop(board),
	}
}

// Register creates a user bound to the tag uid carried by the request. The
// uid is mandatory and must be free.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if model.NormalizeUID(req.UID) == "" {
		return nil, model.ErrInvalidUID
	}
	return s.create(ctx, req)
}

// QuickRegister is the admin variant: a blank uid gets a generated one.
func (s *UserService) QuickRegister(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req)
}

func (s *UserService) create(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrNameRequired
	}

	gender, ok := model.ParseGender(req.Gender)
	if !ok {
		gender = model.GenderOther
	}

	user := &model.User{
		Name:       name,
		Nickname:   model.NullIfBlank(req.Nickname),
		Profession: model.NullIfBlank(req.Profession),
		Industry:   model.NullIfBlank(req.Industry),
		Phone:      model.NullIfBlank(req.Phone),
		Bio:        model.NullIfBlank(req.Bio),
		Gender:     gender,
	}

	var created *model.User
	uid, err := s.registry.Bind(ctx, req.UID, func(ctx context.Context, uid string) error {
		user.UID = &uid
		u, err := s.users.Create(ctx, user)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		logger.Warn("registration failed", "uid", model.NormalizeUID(req.UID), "error", err)
		return nil, err
	}

	s.board.Invalidate(ctx)
	logger.Info("user registered", "user_id", created.ID, "uid", uid)
	return created, nil
}

func (s *UserService) CheckRegistration(ctx context.Context, raw string) (*RegistrationStatus, error) {
	uid := model.NormalizeUID(raw)
	status := &RegistrationStatus{UID: uid}

	user, err := s.registry.Resolve(ctx, uid)
	switch {
	case err == nil:
		status.Exists = true
		status.UserID = user.ID
	case errors.Is(err, model.ErrUIDNotFound):
	default:
		return nil, err
	}
	return status, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, model.ErrInvalidUserID
	}
	user, err := s.users.GetByID(ctx, id)
	return user, classify("get user", err)
}

// Profile is the public view of a user: profile fields, label and total.
func (s *UserService) Profile(ctx context.Context, id int64) (*model.Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	total, err := s.totals.Get(ctx, id)
	if err != nil {
		return nil, classify("get profile total", err)
	}
	return &model.Profile{User: *user, Label: user.Label(), Total: total}, nil
}

// UpdateProfile applies a partial update. Omitted fields keep their value,
// null or blank ones are cleared, an unknown gender keeps the stored one.
// The uid never changes here. The row stays locked between read and write so
// concurrent partial updates do not drop each other's fields.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.User, error) {
	if !upd.Name.Set || upd.Name.Value == nil || strings.TrimSpace(*upd.Name.Value) == "" {
		return nil, model.ErrNameRequired
	}
	if id <= 0 {
		return nil, model.ErrInvalidUserID
	}

	var updated *model.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		user.Name = strings.TrimSpace(*upd.Name.Value)
		applyOptional(&user.Nickname, upd.Nickname)
		applyOptional(&user.Profession, upd.Profession)
		applyOptional(&user.Industry, upd.Industry)
		applyOptional(&user.Phone, upd.Phone)
		applyOptional(&user.Bio, upd.Bio)
		if upd.Gender.Set && upd.Gender.Value != nil {
			if g, ok := model.ParseGender(*upd.Gender.Value); ok {
				user.Gender = g
			}
		}

		updated, err = s.users.UpdateProfile(ctx, user)
		return err
	})
	if err != nil {
		return nil, classify("update profile", err)
	}

	s.board.Invalidate(ctx)
	logger.Info("profile updated", "user_id", id)
	return updated, nil
}

func applyOptional(dst **string, f model.Field[string]) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		*dst = nil
		return
	}
	*dst = model.NullIfBlank(*f.Value)
}

// List backs the admin dashboard: newest users first with totals, filtered
// by query when it is not blank.
func (s *UserService) List(ctx context.Context, query string) ([]*model.UserWithTotal, error) {
	users, err := s.users.Search(ctx, query, 0)
	return users, classify("list users", err)
}

// Delete removes the user with its transactions and total in one
// transaction. Scans are kept.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.ErrInvalidUserID
	}

	var removed int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := s.txns.DeleteByUser(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		if err := s.totals.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		return classify("delete user", err)
	}

	s.board.Invalidate(ctx)
	logger.Info("user deleted", "user_id", id, "transactions_removed", removed)
	return nil
}

// ReassignUID moves a bound tag to another user. It is the only path that
// takes a uid away from its holder.
func (s *UserService) ReassignUID(ctx context.Context, userID int64, uid string) (int64, error) {
	if userID <= 0 {
		return 0, model.ErrInvalidUserID
	}
	previous, err := s.registry.Reassign(ctx, userID, uid)
	if err != nil {
		return 0, err
	}
	s.board.Invalidate(ctx)
	return previous, nil
}
