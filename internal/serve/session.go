package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/security"
)

// sessionTTL is how long an API session stays valid without activity.
const sessionTTL = 24 * time.Hour

type contextKey string

const userContextKey contextKey = "crew.user"

// Login verifies the credentials and creates an API session. The
// returned token is shown to the client once; only its hash is stored.
func Login(database *db.DB, username, password string) (string, *models.User, error) {
	user, err := database.GetUserByUsername(username)
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if !user.Active {
		return "", nil, fmt.Errorf("account deactivated")
	}
	if !security.VerifyPassword(password, user.PasswordHash) {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, tokenHash, err := security.GenerateToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now()
	row := &db.SessionRow{
		UserID:       user.ID,
		TokenHash:    tokenHash,
		StartedAt:    now,
		LastActivity: now,
	}
	if err := database.UpsertSession(row); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	return token, user, nil
}

// Authenticate resolves a bearer token to its user, bumping the
// session's activity timestamp. Expired sessions are removed.
func Authenticate(database *db.DB, token string) (*models.User, error) {
	row, err := database.GetSessionByTokenHash(security.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("unknown session")
	}

	if time.Since(row.LastActivity) > sessionTTL {
		_ = database.DeleteSession(row.ID)
		return nil, fmt.Errorf("session expired")
	}

	user, err := database.GetUser(row.UserID)
	if err != nil {
		return nil, fmt.Errorf("session user: %w", err)
	}
	if !user.Active {
		return nil, fmt.Errorf("account deactivated")
	}

	// Best-effort: a failed bump does not invalidate the session.
	_ = database.UpdateSessionActivity(row.ID, time.Now())

	return user, nil
}

// Logout removes the session for the given token. Unknown tokens are
// not an error.
func Logout(database *db.DB, token string) error {
	row, err := database.GetSessionByTokenHash(security.HashToken(token))
	if err != nil || row == nil {
		return err
	}
	return database.DeleteSession(row.ID)
}

// userFrom returns the authenticated user stored in the request context.
func userFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// withUser stores the authenticated user in the context.
func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
