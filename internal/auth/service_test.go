package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/refreshtokens"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	pkgAuth "github.com/jarvis4everyone/subscription-backend/pkg/auth"
	"github.com/jarvis4everyone/subscription-backend/pkg/auth/session"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/dbtest"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "jarvis4everyone",
	ExpirationMinutes:      15,
	RefreshTokenExpireDays: 7,
}

type testDeps struct {
	svc  Service
	conn *gorm.DB
}

func buildTestService(t *testing.T) testDeps {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	runner := db.Wrap(conn)

	subs, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		TransactionRunner: runner,
		Logger:            logg,
	})
	if err != nil {
		t.Fatalf("subscriptions service: %v", err)
	}
	manager, err := session.NewManager(refreshtokens.NewRepository(conn), testJWT)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	userRepo := users.NewRepository(conn)
	userSvc, err := users.NewService(users.ServiceParams{
		Repo:              userRepo,
		Subscriptions:     subs,
		Sessions:          manager,
		TransactionRunner: runner,
		Logger:            logg,
	})
	if err != nil {
		t.Fatalf("users service: %v", err)
	}

	svc, err := NewService(ServiceParams{
		Users:          userSvc,
		UserRepo:       userRepo,
		SessionManager: manager,
		JWTConfig:      testJWT,
		Logger:         logg,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return testDeps{svc: svc, conn: conn}
}

func register(t *testing.T, svc Service, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), users.CreateUserRequest{
		Name:          "Peter Parker",
		Email:         email,
		ContactNumber: "5551234",
		Password:      password,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterNeverGrantsAdmin(t *testing.T) {
	deps := buildTestService(t)
	admin := true

	user, err := deps.svc.Register(context.Background(), users.CreateUserRequest{
		Name:          "Mallory",
		Email:         "mallory@example.com",
		ContactNumber: "1",
		Password:      "pw",
		IsAdmin:       &admin,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.IsAdmin {
		t.Fatal("self-registration must not create admins")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	deps := buildTestService(t)
	register(t, deps.svc, "peter@example.com", "pw")

	_, err := deps.svc.Register(context.Background(), users.CreateUserRequest{
		Name:          "Peter Again",
		Email:         "Peter@Example.com",
		ContactNumber: "1",
		Password:      "pw",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation || typed.Message() != "Email already registered" {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestLoginIssuesTokensAndRecordsLogin(t *testing.T) {
	deps := buildTestService(t)
	user := register(t, deps.svc, "peter@example.com", "web-shooter")

	result, err := deps.svc.Login(context.Background(), LoginRequest{Email: "PETER@example.com ", Password: "web-shooter"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.TokenType != "bearer" {
		t.Fatalf("unexpected token type %q", result.TokenType)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.UserID)
	}
	if result.RefreshToken == "" || result.RefreshExpiresAt.IsZero() {
		t.Fatal("expected refresh token to be issued")
	}

	var rows int64
	if err := deps.conn.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one refresh token row, got %d", rows)
	}

	var stored models.User
	if err := deps.conn.First(&stored, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatal("expected last_login to be recorded")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	deps := buildTestService(t)
	register(t, deps.svc, "peter@example.com", "web-shooter")

	cases := []LoginRequest{
		{Email: "peter@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "web-shooter"},
	}
	for _, req := range cases {
		_, err := deps.svc.Login(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %s, got %v", req.Email, err)
		}
		if typed.Message() != invalidCredentialsMessage {
			t.Fatalf("unexpected message %q", typed.Message())
		}
	}
}

func TestLoginUpgradesLegacyBcryptHash(t *testing.T) {
	deps := buildTestService(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-school"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &models.User{Name: "May", Email: "may@example.com", ContactNumber: "1", PasswordHash: string(legacy)}
	if err := deps.conn.Create(user).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}

	if _, err := deps.svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "old-school"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	var stored models.User
	if err := deps.conn.First(&stored, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", stored.PasswordHash)
	}
	if ok, err := security.VerifyPassword("old-school", stored.PasswordHash); err != nil || !ok {
		t.Fatalf("upgraded hash does not verify: %v", err)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	deps := buildTestService(t)
	ctx := context.Background()
	user := register(t, deps.svc, "peter@example.com", "web-shooter")

	login, err := deps.svc.Login(ctx, LoginRequest{Email: user.Email, Password: "web-shooter"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := deps.svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := pkgAuth.ParseAccessToken(testJWT, refreshed.AccessToken); err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}

	if _, err := deps.svc.Refresh(ctx, login.AccessToken); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("access token must not refresh, got %v", err)
	}

	if err := deps.svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := deps.svc.Refresh(ctx, login.RefreshToken); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
}

func TestRefreshDeletesExpiredRow(t *testing.T) {
	deps := buildTestService(t)
	ctx := context.Background()
	user := register(t, deps.svc, "peter@example.com", "web-shooter")

	token, _, err := pkgAuth.MintRefreshToken(testJWT, time.Now().UTC(), user.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	row := &models.RefreshToken{UserID: user.ID, Token: token, ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	if err := deps.conn.Create(row).Error; err != nil {
		t.Fatalf("insert token: %v", err)
	}

	if _, err := deps.svc.Refresh(ctx, token); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	var rows int64
	if err := deps.conn.Model(&models.RefreshToken{}).Where("token = ?", token).Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 0 {
		t.Fatal("expected expired row to be deleted")
	}
}

func TestAuthenticate(t *testing.T) {
	deps := buildTestService(t)
	ctx := context.Background()
	user := register(t, deps.svc, "peter@example.com", "web-shooter")

	token, err := pkgAuth.MintAccessToken(testJWT, time.Now().UTC(), user.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	got, err := deps.svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, got.ID)
	}

	if _, err := deps.svc.Authenticate(ctx, "garbage"); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for garbage, got %v", err)
	}

	ghost, err := pkgAuth.MintAccessToken(testJWT, time.Now().UTC(), uuid.New())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := deps.svc.Authenticate(ctx, ghost); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for deleted user, got %v", err)
	}
}
