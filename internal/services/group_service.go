package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/schedule"
)

// GroupService validates and stores groups and their memberships
type GroupService struct {
	store    *repository.Store
	geocoder *Geocoder
	log      *zap.Logger
}

func NewGroupService(store *repository.Store, geocoder *Geocoder, log *zap.Logger) *GroupService {
	return &GroupService{
		store:    store,
		geocoder: geocoder,
		log:      log.With(zap.String("component", "groups")),
	}
}

func (s *GroupService) Create(ctx context.Context, req models.GroupRequest) (*models.Group, error) {
	group := &models.Group{Active: true}
	if err := s.apply(ctx, group, req); err != nil {
		return nil, err
	}
	if err := s.store.Groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	s.log.Info("group created", zap.String("group_id", group.ID), zap.String("name", group.Name))
	return s.store.Groups.GetByID(ctx, group.ID)
}

func (s *GroupService) Update(ctx context.Context, id string, req models.GroupRequest) (*models.Group, error) {
	group, err := s.store.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, group, req); err != nil {
		return nil, err
	}
	group.Instructor = nil
	if err := s.store.Groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return s.store.Groups.GetByID(ctx, id)
}

func (s *GroupService) apply(ctx context.Context, group *models.Group, req models.GroupRequest) error {
	sched := req.Schedule
	if sched.Timezone == "" {
		sched.Timezone = "UTC"
	}
	if err := schedule.Validate(sched); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if req.InstructorID != nil && *req.InstructorID != "" {
		if _, err := s.store.Instructors.GetByID(ctx, *req.InstructorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: unknown instructor", ErrValidation)
			}
			return err
		}
		group.InstructorID = req.InstructorID
	} else {
		group.InstructorID = nil
	}

	loc := req.Location
	if loc.Type == "" {
		loc.Type = models.LocationStudio
	}
	if loc.Type == models.LocationOnline && loc.OnlineLink == "" {
		return fmt.Errorf("%w: online groups need an online link", ErrValidation)
	}

	group.Name = strings.TrimSpace(req.Name)
	group.Description = req.Description
	group.Style = req.Style
	group.Level = req.Level
	if group.Level == "" {
		group.Level = models.LevelAll
	}
	group.Capacity = req.Capacity
	if req.Active != nil {
		group.Active = *req.Active
	}
	group.Schedule = sched
	group.Location = s.geocoder.Complete(ctx, loc)
	return nil
}

// AddMember enrols a user, reactivating an existing membership. A full group
// rejects new active members.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	var member *models.GroupMember
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := tx.Groups.GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		if !group.Active {
			return fmt.Errorf("%w: group is not active", ErrValidation)
		}
		if _, err := tx.Users.GetByID(ctx, userID); err != nil {
			return err
		}

		existing, err := tx.Members.Get(ctx, groupID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Status == models.MemberActive {
			return fmt.Errorf("%w: already a member", ErrConflict)
		}

		count, err := tx.Members.CountActive(ctx, groupID)
		if err != nil {
			return err
		}
		if group.Capacity > 0 && count >= int64(group.Capacity) {
			return fmt.Errorf("%w: group is full", ErrValidation)
		}

		if existing != nil {
			if err := tx.Members.UpdateStatus(ctx, groupID, userID, models.MemberActive); err != nil {
				return err
			}
			existing.Status = models.MemberActive
			member = existing
			return nil
		}

		member = &models.GroupMember{GroupID: groupID, UserID: userID, Status: models.MemberActive}
		return tx.Members.Add(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("member added", zap.String("group_id", groupID), zap.String("user_id", userID))
	return member, nil
}

func (s *GroupService) UpdateMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) (*models.GroupMember, error) {
	if err := s.store.Members.UpdateStatus(ctx, groupID, userID, status); err != nil {
		return nil, err
	}
	return s.store.Members.Get(ctx, groupID, userID)
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := s.store.Members.Remove(ctx, groupID, userID); err != nil {
		return err
	}
	s.log.Info("member removed", zap.String("group_id", groupID), zap.String("user_id", userID))
	return nil
}
