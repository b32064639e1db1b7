package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/civicsync/civicsync-backend/internal/database"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour

	sessionKeyPrefix      = "session:"
	userSessionKeyPrefix  = "user_session:"
	adminSessionKeyPrefix = "admin_session:"
	adminToSessionPrefix  = "admin_to_session:"
)

// CreateSession creates a new session for a user, invalidating any existing
// one so the 7-day timer resets from the current login. Returns the token.
func CreateSession(userID uuid.UUID) (string, error) {
	return createSession(userID, sessionKeyPrefix, userSessionKeyPrefix)
}

// CreateAdminSession is CreateSession for the admin console. Admin sessions
// live under their own prefix so a user token can never pass an admin check.
func CreateAdminSession(adminID uuid.UUID) (string, error) {
	return createSession(adminID, adminSessionKeyPrefix, adminToSessionPrefix)
}

func createSession(id uuid.UUID, keyPrefix, reversePrefix string) (string, error) {
	invalidateByID(id, keyPrefix, reversePrefix)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	if err := database.RedisClient.Set(ctx, keyPrefix+token, id.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, reversePrefix+id.String(), token, SessionDuration).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession checks a user session token and returns the user ID.
func ValidateSession(token string) (uuid.UUID, bool, error) {
	return validate(token, sessionKeyPrefix)
}

// ValidateAdminSession checks an admin session token and returns the admin ID.
func ValidateAdminSession(token string) (uuid.UUID, bool, error) {
	return validate(token, adminSessionKeyPrefix)
}

func validate(token, keyPrefix string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	idStr, err := database.RedisClient.Get(context.Background(), keyPrefix+token).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// InvalidateSession removes a user session (signout).
func InvalidateSession(token string) error {
	return invalidateByToken(token, sessionKeyPrefix, userSessionKeyPrefix)
}

// InvalidateAdminSession removes an admin session.
func InvalidateAdminSession(token string) error {
	return invalidateByToken(token, adminSessionKeyPrefix, adminToSessionPrefix)
}

// InvalidateUserSessions drops any live session for a user. Called on ban so
// a banned user is signed out immediately, not at next token expiry.
func InvalidateUserSessions(userID uuid.UUID) error {
	return invalidateByID(userID, sessionKeyPrefix, userSessionKeyPrefix)
}

func invalidateByToken(token, keyPrefix, reversePrefix string) error {
	if token == "" {
		return nil
	}
	ctx := context.Background()

	idStr, err := database.RedisClient.Get(ctx, keyPrefix+token).Result()
	if err == nil && idStr != "" {
		database.RedisClient.Del(ctx, reversePrefix+idStr)
	}
	return database.RedisClient.Del(ctx, keyPrefix+token).Err()
}

func invalidateByID(id uuid.UUID, keyPrefix, reversePrefix string) error {
	ctx := context.Background()

	token, err := database.RedisClient.Get(ctx, reversePrefix+id.String()).Result()
	if err == nil && token != "" {
		database.RedisClient.Del(ctx, keyPrefix+token)
	}
	return database.RedisClient.Del(ctx, reversePrefix+id.String()).Err()
}
