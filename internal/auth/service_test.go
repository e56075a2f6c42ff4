package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgauth "github.com/gearvault/gearvault-backend/pkg/auth"
	"github.com/gearvault/gearvault-backend/pkg/config"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "gearvault-test", ExpirationMinutes: 30}
}

func testPasswordConfig() config.PasswordConfig {
	// Minimal parameters keep hashing fast in tests.
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	svc, err := NewService(NewRepository(conn), testJWTConfig(), testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:    "Player@Example.com",
		Password: "correct horse battery",
		Name:     "Player One",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "player@example.com" {
		t.Fatalf("expected normalized email got %q", user.Email)
	}
	if user.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role got %s", user.Role)
	}

	result, err := svc.Login(ctx, LoginInput{Email: "player@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if result.User.LastLoginAt == nil {
		t.Fatal("expected last login stamp")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user mismatch: %s vs %s", claims.UserID, user.ID)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("token role mismatch: %s", claims.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := RegisterInput{Email: "dupe@example.com", Password: "password123", Name: "First"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, input)
	if err == nil {
		t.Fatal("expected conflict")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "who@example.com", Password: "password123", Name: "Who"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, LoginInput{Email: "who@example.com", Password: "wrong"})
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"})
	if err == nil {
		t.Fatal("expected unauthorized")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "frozen@example.com", Password: "password123", Name: "Frozen"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := conn.Model(&models.User{}).Where("email = ?", "frozen@example.com").UpdateColumn("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := svc.Login(ctx, LoginInput{Email: "frozen@example.com", Password: "password123"})
	if err == nil {
		t.Fatal("expected unauthorized for inactive user")
	}
}

func TestMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{Email: "me@example.com", Password: "password123", Name: "Me"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	fetched, err := svc.Me(ctx, created.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if fetched.Email != "me@example.com" {
		t.Fatalf("unexpected email %q", fetched.Email)
	}

	if _, err := svc.Me(ctx, uuid.New()); err == nil {
		t.Fatal("expected not found for unknown user")
	}
}
