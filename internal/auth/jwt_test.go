package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("op-7", "Meera Iyer", "campus-attendance", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("tokens not issued")
	}

	claims, err := Parse(pair.AccessToken, "secret", "campus-attendance")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "op-7" || claims.Name != "Meera Iyer" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	pair, err := Issue("op-7", "", "campus-attendance", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{name: "wrong key", token: pair.AccessToken, key: "other", issuer: "campus-attendance"},
		{name: "wrong issuer", token: pair.AccessToken, key: "secret", issuer: "someone-else"},
		{name: "garbage", token: "not.a.token", key: "secret", issuer: "campus-attendance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.token, tt.key, tt.issuer); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("op-7", "", "campus-attendance", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "campus-attendance"); err == nil {
		t.Error("expected expiry error")
	}
}
