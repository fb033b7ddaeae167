package auth

import "context"

// LoginTestChecker is used in unit tests in place of the redis backed LoginChecker.
type LoginTestChecker struct {
	// token to user ID
	LoggedSessions map[string]string
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		LoggedSessions: map[string]string{},
	}
}

func (tc *LoginTestChecker) GetLoggedUserID(_ context.Context, token string) (string, error) {
	userID, ok := tc.LoggedSessions[token]
	if !ok {
		return "", ErrNotLoggedIn
	}
	return userID, nil
}
