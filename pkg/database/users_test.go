package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// generateRandomString creates a random string of specified length
func generateRandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

func TestCreateUser(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	ctx := context.Background()
	username := "testuser_" + generateRandomString(8)
	password := "SecurePassword123!"

	user, err := dm.CreateUser(ctx, username, password)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected user ID to be set")
	}

	if user.Username != username {
		t.Errorf("Expected username=%s, got %s", username, user.Username)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestCreateUserEmptyCredentials(t *testing.T) {
	dm := &DatabaseManager{}

	if _, err := dm.CreateUser(context.Background(), "", "password"); err == nil {
		t.Error("Expected error for empty username")
	}
	if _, err := dm.CreateUser(context.Background(), "user", ""); err == nil {
		t.Error("Expected error for empty password")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	ctx := context.Background()
	username := "testuser_" + generateRandomString(8)

	if _, err := dm.CreateUser(ctx, username, "password"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if _, err := dm.CreateUser(ctx, username, "password"); err == nil {
		t.Error("Expected error when creating duplicate username")
	}
}

func TestValidateUser(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	ctx := context.Background()
	username := "testuser_" + generateRandomString(8)
	password := "SecurePassword123!"

	created, err := dm.CreateUser(ctx, username, password)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	user, err := dm.ValidateUser(ctx, username, password)
	if err != nil {
		t.Fatalf("Expected valid credentials to pass: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("Expected user ID %s, got %s", created.ID, user.ID)
	}

	if _, err := dm.ValidateUser(ctx, username, "WrongPassword"); err == nil {
		t.Error("Expected wrong password to fail")
	}

	if _, err := dm.ValidateUser(ctx, "nosuchuser", password); err == nil {
		t.Error("Expected unknown username to fail")
	}
}

func TestValidateUserLongPassword(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	ctx := context.Background()
	username := "testuser_" + generateRandomString(8)

	// Beyond bcrypt's 72-byte input limit; the SHA-256 pre-hash keeps
	// the full password significant
	password := strings.Repeat("long-password-", 10)

	if _, err := dm.CreateUser(ctx, username, password); err != nil {
		t.Fatalf("Failed to create user with long password: %v", err)
	}

	if _, err := dm.ValidateUser(ctx, username, password); err != nil {
		t.Errorf("Expected long password to validate: %v", err)
	}

	if _, err := dm.ValidateUser(ctx, username, password[:len(password)-1]); err == nil {
		t.Error("Expected truncated long password to fail")
	}
}

func TestListAndDeleteUsers(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	ctx := context.Background()
	username := "testuser_" + generateRandomString(8)

	if _, err := dm.CreateUser(ctx, username, "password"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	users, err := dm.ListUsers(ctx)
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}

	found := false
	for _, user := range users {
		if user.Username == username {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s in user list", username)
	}

	if err := dm.DeleteUser(ctx, username); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	if err := dm.DeleteUser(ctx, username); err == nil {
		t.Error("Expected error when deleting missing user")
	}
}
