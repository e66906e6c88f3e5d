// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"

	"quillpress/internal/docstore"
	"quillpress/internal/models"
)

// AdminStore manages role records keyed by the external user id. Soft
// deleted records grant nothing.
type AdminStore struct {
	docs       docstore.Store
	activities *ActivityStore
	clock      Clock
}

// NewAdminStore creates a new AdminStore.
func NewAdminStore(docs docstore.Store, activities *ActivityStore) *AdminStore {
	return &AdminStore{docs: docs, activities: activities, clock: RealClock{}}
}

// WithClock replaces the clock. Intended for tests.
func (s *AdminStore) WithClock(c Clock) *AdminStore {
	s.clock = c
	return s
}

// AdminUserInput is a partial admin record for Save.
type AdminUserInput struct {
	UserID      string       `json:"userId"`
	Name        *string      `json:"name"`
	Email       *string      `json:"email"`
	Role        *models.Role `json:"role"`
	Permissions []string     `json:"permissions"`
}

// FindByID retrieves a record, including soft-deleted ones. Returns nil if
// not found.
func (s *AdminStore) FindByID(ctx context.Context, userID string) (*models.AdminUser, error) {
	if userID == "" {
		return nil, nil
	}
	snap, err := s.docs.Get(ctx, AdminsCollection, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin user: %w", err)
	}
	var u models.AdminUser
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.UserID = snap.ID
	return &u, nil
}

// Get returns an active record. Returns nil if absent or soft deleted.
func (s *AdminStore) Get(ctx context.Context, userID string) (*models.AdminUser, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil || u == nil || u.Deleted {
		return nil, err
	}
	return u, nil
}

// CheckAdminRole reports whether the user's role is exactly admin.
func (s *AdminStore) CheckAdminRole(ctx context.Context, userID string) (bool, error) {
	u, err := s.Get(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	return u.IsAdmin(), nil
}

// CheckAnyAdminRole reports whether the user has any role record.
func (s *AdminStore) CheckAnyAdminRole(ctx context.Context, userID string) (bool, error) {
	u, err := s.Get(ctx, userID)
	return u != nil, err
}

// CheckPermission reports whether the user holds perm.
func (s *AdminStore) CheckPermission(ctx context.Context, userID, perm string) (bool, error) {
	u, err := s.Get(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	return u.HasPermission(perm), nil
}

// Save merge-upserts a record keyed by UserID and returns the id.
func (s *AdminStore) Save(ctx context.Context, in AdminUserInput) (string, error) {
	if in.UserID == "" {
		return "", invalid("userId", "is required")
	}
	if in.Role != nil && !in.Role.Valid() {
		return "", invalid("role", "unknown role "+string(*in.Role))
	}

	existing, err := s.FindByID(ctx, in.UserID)
	if err != nil {
		return "", err
	}
	now := stamp(s.clock)

	if existing == nil {
		u := models.AdminUser{
			Role:        models.RoleAuthor,
			Permissions: []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.Name != nil {
			u.Name = *in.Name
		}
		if in.Email != nil {
			u.Email = *in.Email
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.Permissions != nil {
			u.Permissions = dedupe(in.Permissions)
		}
		if err := s.docs.Set(ctx, AdminsCollection, in.UserID, u); err != nil {
			return "", fmt.Errorf("create admin user: %w", err)
		}
		s.activities.Log(ctx, models.Activity{
			Type:        models.ActivityUserRegistered,
			Message:     "Registered user " + displayName(u.Name, in.UserID),
			EntityID:    in.UserID,
			EntityTitle: u.Name,
		})
		return in.UserID, nil
	}

	fields := map[string]any{"updatedAt": now}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if in.Role != nil {
		fields["role"] = *in.Role
	}
	if in.Permissions != nil {
		fields["permissions"] = dedupe(in.Permissions)
	}
	if err := s.docs.Merge(ctx, AdminsCollection, in.UserID, fields); err != nil {
		return "", fmt.Errorf("update admin user: %w", err)
	}
	return in.UserID, nil
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// CreateInitialAdmin makes userID an admin unless a record already exists.
func (s *AdminStore) CreateInitialAdmin(ctx context.Context, userID, name string) (string, error) {
	existing, err := s.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return userID, nil
	}
	role := models.RoleAdmin
	return s.Save(ctx, AdminUserInput{UserID: userID, Name: &name, Role: &role})
}

// List returns every active record ordered by creation time.
func (s *AdminStore) List(ctx context.Context) ([]models.AdminUser, error) {
	var users []models.AdminUser
	err := scanAll(ctx, s.docs, AdminsCollection, docstore.Query{OrderBy: "createdAt"}, func(snap *docstore.Snapshot) error {
		var u models.AdminUser
		if err := snap.DataTo(&u); err != nil {
			return err
		}
		if u.Deleted {
			return nil
		}
		u.UserID = snap.ID
		users = append(users, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	return users, nil
}

// Count returns the number of active records.
func (s *AdminStore) Count(ctx context.Context) (int, error) {
	n, err := s.docs.Count(ctx, AdminsCollection, docstore.Where("deleted", docstore.OpEqual, false))
	if err != nil {
		return 0, fmt.Errorf("count admin users: %w", err)
	}
	return n, nil
}

// requireAdmin returns ErrForbidden unless actorID is an active admin.
func (s *AdminStore) requireAdmin(ctx context.Context, actorID string) error {
	ok, err := s.CheckAdminRole(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// ChangeRole sets the target's role. Only admins may change roles, and an
// admin may not demote themself.
func (s *AdminStore) ChangeRole(ctx context.Context, actorID, targetID string, role models.Role) error {
	if !role.Valid() {
		return invalid("role", "unknown role "+string(role))
	}
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if actorID == targetID && role != models.RoleAdmin {
		return fmt.Errorf("%w: admins cannot demote themselves", ErrForbidden)
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	_, err = s.Save(ctx, AdminUserInput{UserID: targetID, Role: &role})
	return err
}

// Provision creates a record for targetID on behalf of actorID, or
// restores a soft-deleted one with the given fields. Only admins may
// provision. The role defaults to author when in.Role is nil.
func (s *AdminStore) Provision(ctx context.Context, actorID string, in AdminUserInput) error {
	if in.Role != nil && !in.Role.Valid() {
		return invalid("role", "unknown role "+string(*in.Role))
	}
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	existing, err := s.FindByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.Deleted {
		return fmt.Errorf("%w: user %s", ErrConflict, in.UserID)
	}

	// A restored record starts from the defaults, not its old grants.
	if existing != nil {
		if in.Role == nil {
			role := models.RoleAuthor
			in.Role = &role
		}
		if in.Permissions == nil {
			in.Permissions = []string{}
		}
	}
	if _, err := s.Save(ctx, in); err != nil {
		return err
	}
	if existing != nil {
		err := s.docs.Merge(ctx, AdminsCollection, in.UserID, map[string]any{"deleted": false})
		if err != nil {
			return fmt.Errorf("restore admin user: %w", err)
		}
	}
	return nil
}

// SoftDelete flags the target as deleted. Only admins may delete, and not
// themselves.
func (s *AdminStore) SoftDelete(ctx context.Context, actorID, targetID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if actorID == targetID {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrForbidden)
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	err = s.docs.Merge(ctx, AdminsCollection, targetID, map[string]any{
		"deleted":   true,
		"updatedAt": stamp(s.clock),
	})
	if err != nil {
		return fmt.Errorf("delete admin user: %w", err)
	}
	return nil
}
