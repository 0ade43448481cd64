package auth

import (
	"context"
	"testing"

	"github.com/northbeam/leadsite/internal/model"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if len(a) != 2*TokenBytes {
		t.Errorf("token length = %d, want %d", len(a), 2*TokenBytes)
	}
	if a == b {
		t.Error("tokens should be unique")
	}
	if !IsWellFormedToken(a) {
		t.Errorf("generated token %q should be well formed", a)
	}
}

func TestIsWellFormedToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", false},
		{"too short", "abc123", false},
		{"uppercase", "ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789", false},
		{"valid", "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789", true},
		{"sql", "' OR 1=1 --", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsWellFormedToken(tt.token); got != tt.want {
				t.Errorf("IsWellFormedToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestAuthContext_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if AuthFromContext(ctx) != nil {
		t.Error("expected nil auth on empty context")
	}
	if UserIDFromContext(ctx) != "" {
		t.Error("expected empty user ID on empty context")
	}

	ctx = ContextWithAuth(ctx, &model.AuthContext{UserID: "u1", Email: "a@example.com", Role: model.RoleAdmin})
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext = %q, want u1", got)
	}
}
