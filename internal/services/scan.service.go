package services

import (
	"context"
	"errors"

	"github.com/nimasrn/hero-points/internal/model"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/prom"
)

const (
	NoteApplied  = "contribution applied"
	NoteUnlinked = "amount ignored: uid is not linked to a user"
	NoteInvalid  = "amount rejected: must be a positive number"
	ScanStatusOK = "ok"
)

// GatewayAmount is the optional amount sent along with a gateway scan. Sent
// without Valid means the field was present but did not hold a number.
type GatewayAmount struct {
	Value float64
	Sent  bool
	Valid bool
}

func AmountOf(v float64) GatewayAmount {
	return GatewayAmount{Value: v, Sent: true, Valid: true}
}

type LastScan struct {
	Scan *model.Scan
	User *model.User
}

type ScanService struct {
	scans    ScanRepository
	registry *UIDRegistry
	ledger   *LedgerService
}

func NewScanService(scans ScanRepository, registry *UIDRegistry, ledger *LedgerService) *ScanService {
	return &ScanService{
		scans:    scans,
		registry: registry,
		ledger:   ledger,
	}
}

// Record appends a scan event for uid. Unknown and repeated uids are
// recorded like any other.
func (s *ScanService) Record(ctx context.Context, uid string) (*model.Scan, error) {
	if uid == "" {
		return nil, model.ErrInvalidUID
	}
	scan, err := s.scans.Create(ctx, uid)
	if err != nil {
		return nil, classify("record scan", err)
	}
	prom.IncScanRecorded()
	return scan, nil
}

func (s *ScanService) MostRecent(ctx context.Context) (*model.Scan, error) {
	scan, err := s.scans.Latest(ctx)
	return scan, classify("latest scan", err)
}

// Last returns the most recent scan with the user currently holding its uid,
// if any.
func (s *ScanService) Last(ctx context.Context) (*LastScan, error) {
	scan, err := s.MostRecent(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.registry.Resolve(ctx, scan.UID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrUIDNotFound), errors.Is(err, model.ErrInvalidUID):
		user = nil
	default:
		return nil, err
	}

	return &LastScan{Scan: scan, User: user}, nil
}

func (s *ScanService) Recent(ctx context.Context, uid string, limit int) ([]*model.Scan, error) {
	scans, err := s.scans.List(ctx, model.NormalizeUID(uid), limit)
	return scans, classify("list scans", err)
}

// HandleGatewayScan is the field device flow: record the scan, resolve the
// tag and, when an amount came along, apply it to the linked user. A rejected
// amount is reported in the result note.
func (s *ScanService) HandleGatewayScan(ctx context.Context, rawUID string, amount GatewayAmount) (*model.ScanResult, error) {
	uid := model.NormalizeUID(rawUID)
	if _, err := s.Record(ctx, uid); err != nil {
		return nil, err
	}

	result := &model.ScanResult{Status: ScanStatusOK, UID: uid}

	user, err := s.registry.Resolve(ctx, uid)
	switch {
	case err == nil:
		result.Linked = true
	case errors.Is(err, model.ErrUIDNotFound):
	default:
		return nil, err
	}

	if !amount.Sent {
		return result, nil
	}

	switch {
	case !result.Linked:
		result.Note = NoteUnlinked
	case !amount.Valid || !ValidAmount(amount.Value):
		result.Note = NoteInvalid
	default:
		if _, err := s.ledger.AddContribution(ctx, user.ID, amount.Value, SourceGateway); err != nil {
			return nil, err
		}
		applied := amount.Value
		result.Amount = &applied
		result.Note = NoteApplied
	}

	if result.Note != NoteApplied {
		logger.Warn("gateway amount not applied", "uid", uid, "amount", amount.Value, "readable", amount.Valid, "note", result.Note)
	}
	return result, nil
}
