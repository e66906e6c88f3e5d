// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"quillpress/internal/store"
)

// Identity headers set by the authenticating proxy in front of the API.
const (
	UserIDHeader   = "X-User-ID"
	UserNameHeader = "X-User-Name"
)

// ActiveUserRecorder counts a user as active today.
type ActiveUserRecorder interface {
	RecordActiveUser(ctx context.Context, userID string) error
}

// RoleChecker answers role and permission questions for a user id.
type RoleChecker interface {
	CheckAdminRole(ctx context.Context, userID string) (bool, error)
	CheckPermission(ctx context.Context, userID, perm string) (bool, error)
}

// RequireUser rejects requests without a verified user id and stores the
// caller as the request's actor. recorder may be nil.
func RequireUser(recorder ActiveUserRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if recorder != nil {
				if err := recorder.RecordActiveUser(r.Context(), userID); err != nil {
					slog.Warn("failed to record active user", "user_id", userID, "error", err)
				}
			}

			actor := store.Actor{ID: userID, Name: strings.TrimSpace(r.Header.Get(UserNameHeader))}
			next.ServeHTTP(w, r.WithContext(store.WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin returns 403 unless the caller holds the admin role.
// Must be applied after RequireUser.
func RequireAdmin(roles RoleChecker) func(http.Handler) http.Handler {
	return guard(func(ctx context.Context, userID string) (bool, error) {
		return roles.CheckAdminRole(ctx, userID)
	})
}

// RequirePermission returns 403 unless the caller is an admin or holds perm.
// Must be applied after RequireUser.
func RequirePermission(roles RoleChecker, perm string) func(http.Handler) http.Handler {
	return guard(func(ctx context.Context, userID string) (bool, error) {
		return roles.CheckPermission(ctx, userID, perm)
	})
}

func guard(check func(ctx context.Context, userID string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := store.ActorFrom(r.Context())
			if actor.ID == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ok, err := check(r.Context(), actor.ID)
			if err != nil {
				slog.Error("role check failed", "user_id", actor.ID, "path", r.URL.Path, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
