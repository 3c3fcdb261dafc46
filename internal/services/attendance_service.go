package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yogastudio/internal/geo"
	"yogastudio/internal/models"
	"yogastudio/internal/repository"
)

// MarkInput records one attendance
type MarkInput struct {
	UserID      string
	GroupID     string
	SessionDate string
	Status      models.AttendanceStatus
	Method      models.CheckInMethod
	QRCodeID    string
	MarkedBy    string
	Notes       string
}

// UpdateAttendanceInput changes the mutable fields of a record
type UpdateAttendanceInput struct {
	Status     *models.AttendanceStatus
	Notes      *string
	CheckOutAt *time.Time
}

type AttendanceService struct {
	store *repository.Store
	qr    *QRService
	now   func() time.Time
	log   *zap.Logger
}

func NewAttendanceService(store *repository.Store, qr *QRService, now func() time.Time, log *zap.Logger) *AttendanceService {
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		store: store,
		qr:    qr,
		now:   now,
		log:   log.With(zap.String("component", "attendance")),
	}
}

// Mark records attendance for an active member. A second record for the same
// user, group and session date fails with ErrConflict.
func (s *AttendanceService) Mark(ctx context.Context, in MarkInput) (*models.Attendance, error) {
	var record *models.Attendance
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		record, err = s.mark(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CheckIn validates a scanned QR token and records attendance for its session.
// Both happen in one transaction so a rejected attendance gives the use back.
func (s *AttendanceService) CheckIn(ctx context.Context, token, userID string, location *geo.Point) (*models.Attendance, error) {
	var record *models.Attendance
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		code, err := s.qr.validateAndUse(ctx, tx, token, userID, location)
		if err != nil {
			return err
		}
		record, err = s.mark(ctx, tx, MarkInput{
			UserID:      userID,
			GroupID:     code.GroupID,
			SessionDate: code.SessionDate,
			Method:      models.CheckInQR,
			QRCodeID:    code.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *AttendanceService) mark(ctx context.Context, tx *repository.Store, in MarkInput) (*models.Attendance, error) {
	if _, err := time.Parse(models.DateLayout, in.SessionDate); err != nil {
		return nil, fmt.Errorf("%w: session date must be YYYY-MM-DD", ErrValidation)
	}

	member, err := tx.Members.Get(ctx, in.GroupID, in.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user is not a member of this group", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberActive {
		return nil, fmt.Errorf("%w: membership is %s", ErrForbidden, member.Status)
	}

	now := s.now().UTC()
	method := in.Method
	if method == "" {
		method = models.CheckInManual
	}

	record := &models.Attendance{
		UserID:      in.UserID,
		GroupID:     in.GroupID,
		SessionDate: in.SessionDate,
		CheckedInAt: now,
		Status:      in.Status,
		Method:      method,
		Notes:       in.Notes,
	}
	if in.QRCodeID != "" {
		record.QRCodeID = &in.QRCodeID
	}
	if in.MarkedBy != "" {
		record.MarkedBy = &in.MarkedBy
	}

	if err := tx.Attendance.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: attendance already recorded for %s", ErrConflict, in.SessionDate)
		}
		return nil, err
	}
	if err := tx.Members.RecordAttendance(ctx, in.GroupID, in.UserID, now); err != nil {
		return nil, err
	}

	s.log.Info("attendance marked",
		zap.String("user_id", in.UserID),
		zap.String("group_id", in.GroupID),
		zap.String("session_date", in.SessionDate),
		zap.String("method", string(method)))
	return record, nil
}

func (s *AttendanceService) Update(ctx context.Context, id string, in UpdateAttendanceInput) (*models.Attendance, error) {
	record, err := s.store.Attendance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		record.Status = *in.Status
	}
	if in.Notes != nil {
		record.Notes = *in.Notes
	}
	if in.CheckOutAt != nil {
		if in.CheckOutAt.Before(record.CheckedInAt) {
			return nil, fmt.Errorf("%w: check-out before check-in", ErrValidation)
		}
		out := in.CheckOutAt.UTC()
		record.CheckOutAt = &out
	}
	if err := s.store.Attendance.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *AttendanceService) List(ctx context.Context, filter repository.AttendanceFilter) ([]models.Attendance, int64, error) {
	return s.store.Attendance.List(ctx, filter)
}
