package auth

import (
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("סיסמה-חזקה")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Unexpected hash format: %s", hash)
	}

	match, err := VerifyPassword("סיסמה-חזקה", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !match {
		t.Error("Correct password should match")
	}

	match, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if match {
		t.Error("Wrong password must not match")
	}

	// Same password hashes differently thanks to the random salt
	other, err := HashPassword("סיסמה-חזקה")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if other == hash {
		t.Error("Expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("x", "not-a-hash"); err == nil {
		t.Error("Expected error for malformed hash")
	}
}

func TestTokens(t *testing.T) {
	Init("test-secret")

	token, err := GenerateToken("user-1", "רבקה", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Name != "רבקה" || claims.Role != "admin" {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("Expected error for garbage token")
	}

	// Token signed with a different secret is rejected
	Init("other-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected error for wrong secret")
	}
	Init("test-secret")
}
