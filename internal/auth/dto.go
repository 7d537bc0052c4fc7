package auth

import "time"

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the body returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginResult carries the response body plus the refresh token the controller
// places in the cookie.
type LoginResult struct {
	TokenResponse
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func bearer(accessToken string) TokenResponse {
	return TokenResponse{AccessToken: accessToken, TokenType: "bearer"}
}
