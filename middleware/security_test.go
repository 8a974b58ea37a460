package middleware

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b+tag@sub.domain.io"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = false, want true", email)
		}
	}

	invalid := []string{"", "not-an-email", "@example.com", "user@", strings.Repeat("a", 250) + "@example.com"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = true, want false", email)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"line\x00break\x1b", "linebreak"},
		{"tabs\tand\nnewlines", "tabsandnewlines"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := SanitizeInput(tc.in); got != tc.want {
			t.Errorf("SanitizeInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	ok, problems := ValidatePasswordStrength("Str0ngpass")
	if !ok || len(problems) != 0 {
		t.Errorf("expected strong password to pass, problems: %v", problems)
	}

	weak := map[string]int{
		"short":         3, // too short, no upper, no digit
		"alllowercase1": 1,
		"ALLUPPERCASE1": 1,
		"NoDigitsHere":  1,
	}
	for password, wantProblems := range weak {
		ok, problems := ValidatePasswordStrength(password)
		if ok {
			t.Errorf("expected %q to fail validation", password)
		}
		if len(problems) != wantProblems {
			t.Errorf("%q: got %d problems %v, want %d", password, len(problems), problems, wantProblems)
		}
	}
}

func TestRateLimiterReusesLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter()

	a := rl.GetLimiterWithConfig("k1", rate.Every(time.Second), 1)
	b := rl.GetLimiterWithConfig("k1", rate.Every(time.Second), 1)
	if a != b {
		t.Error("same key must return the same limiter")
	}

	c := rl.GetLimiterWithConfig("k2", rate.Every(time.Second), 1)
	if a == c {
		t.Error("distinct keys must get distinct limiters")
	}
}

func TestRateLimiterEnforcesBurst(t *testing.T) {
	rl := NewRateLimiter()
	limiter := rl.GetLimiterWithConfig("burst", rate.Every(time.Hour), 2)

	if !limiter.Allow() || !limiter.Allow() {
		t.Fatal("burst allowance should permit the first two requests")
	}
	if limiter.Allow() {
		t.Error("third request within the window should be rejected")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	rl.GetLimiterWithConfig("stale", rate.Every(time.Second), 1)
	rl.lastSeen["stale"] = time.Now().Add(-2 * time.Hour)

	rl.Cleanup()

	rl.mutex.RLock()
	_, exists := rl.limiters["stale"]
	rl.mutex.RUnlock()
	if exists {
		t.Error("idle limiter should have been removed")
	}
}
