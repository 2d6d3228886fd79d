package services

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/prom"
)

const DefaultUIDGenerationAttempts = 100

// GenerateCandidate draws a uid of 8 upper-case hex characters from the
// random part of a v4 uuid.
func GenerateCandidate() string {
	id := uuid.New()
	return strings.ToUpper(hex.EncodeToString(id[:model.UIDLength/2]))
}

// UIDRegistry owns the mapping between tag uids and users.
type UIDRegistry struct {
	users       UserRepository
	tx          Transactor
	generate    func() string
	maxAttempts int
}

func NewUIDRegistry(users UserRepository, tx Transactor, maxAttempts int) *UIDRegistry {
	if maxAttempts <= 0 {
		maxAttempts = DefaultUIDGenerationAttempts
	}
	return &UIDRegistry{
		users:       users,
		tx:          tx,
		generate:    GenerateCandidate,
		maxAttempts: maxAttempts,
	}
}

func (r *UIDRegistry) Resolve(ctx context.Context, raw string) (*model.User, error) {
	uid := model.NormalizeUID(raw)
	if uid == "" {
		return nil, model.ErrInvalidUID
	}
	user, err := r.users.GetByUID(ctx, uid)
	return user, classify("resolve uid", err)
}

// IsBound reports whether any user holds the uid. A blank uid is never bound.
func (r *UIDRegistry) IsBound(ctx context.Context, raw string) (bool, error) {
	_, err := r.Resolve(ctx, raw)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, model.ErrUIDNotFound), errors.Is(err, model.ErrInvalidUID):
		return false, nil
	}
	return false, err
}

// Bind picks the uid for a new binding and hands it to assign, which must
// persist it. A non-blank desired uid is used as is and fails with
// ErrUIDConflict when taken. A blank one is replaced by generated candidates
// until one is free or the attempt budget runs out.
func (r *UIDRegistry) Bind(ctx context.Context, desired string, assign func(ctx context.Context, uid string) error) (string, error) {
	if uid := model.NormalizeUID(desired); uid != "" {
		if err := r.bindExplicit(ctx, uid, assign); err != nil {
			return "", err
		}
		return uid, nil
	}
	return r.bindGenerated(ctx, assign)
}

func (r *UIDRegistry) bindExplicit(ctx context.Context, uid string, assign func(ctx context.Context, uid string) error) error {
	bound, err := r.IsBound(ctx, uid)
	if err != nil {
		return err
	}
	if bound {
		prom.IncUIDConflict("explicit")
		return model.ErrUIDConflict
	}

	if err := assign(ctx, uid); err != nil {
		if errors.Is(err, model.ErrUIDConflict) {
			prom.IncUIDConflict("explicit")
		}
		return classify("bind uid", err)
	}
	return nil
}

func (r *UIDRegistry) bindGenerated(ctx context.Context, assign func(ctx context.Context, uid string) error) (string, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := r.generate()
		bound, err := r.IsBound(ctx, candidate)
		if err != nil {
			return "", err
		}
		if bound {
			prom.IncUIDConflict("generated")
			continue
		}

		err = assign(ctx, candidate)
		if errors.Is(err, model.ErrUIDConflict) {
			// lost a race for the candidate
			prom.IncUIDConflict("generated")
			continue
		}
		if err != nil {
			return "", classify("bind generated uid", err)
		}

		prom.ObserveUIDGenerationAttempts(attempt)
		return candidate, nil
	}

	logger.Error("uid generation exhausted", "attempts", r.maxAttempts)
	prom.ObserveUIDGenerationAttempts(r.maxAttempts)
	return "", model.ErrGenerationExhausted
}

// Reassign moves uid to userID, clearing it from any previous holder in the
// same transaction. It returns the previous holder's id, or 0.
func (r *UIDRegistry) Reassign(ctx context.Context, userID int64, raw string) (int64, error) {
	uid := model.NormalizeUID(raw)
	if uid == "" {
		return 0, model.ErrInvalidUID
	}

	var previous int64
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.users.GetByID(ctx, userID); err != nil {
			return err
		}
		holder, err := r.users.ReleaseUID(ctx, uid)
		if err != nil {
			return err
		}
		if holder != userID {
			previous = holder
		}
		return r.users.SetUID(ctx, userID, &uid)
	})
	if err != nil {
		return 0, classify("reassign uid", err)
	}

	logger.Info("uid reassigned", "uid", uid, "user_id", userID, "previous_user_id", previous)
	return previous, nil
}
