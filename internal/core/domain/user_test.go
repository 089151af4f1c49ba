package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "alice", false},
		{"with punctuation", "a.l_i-ce", false},
		{"min length", "abcd", false},
		{"max length", strings.Repeat("a", 25), false},
		{"too short", "abc", true},
		{"too long", strings.Repeat("a", 26), true},
		{"space", "ali ce", true},
		{"at sign", "ali@ce", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"alice@example.com", false},
		{"a.b+c%d@sub.example.io", false},
		{"alice@example", true},
		{"alice@example.c", true},
		{"@example.com", true},
		{"alice example.com", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if err := ValidateEmail(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Secret1!", false},
		{"valid with quote", `Abcdef1"`, false},
		{"max length", "Aa1!" + strings.Repeat("x", 36), false},
		{"too short", "Sec1!", true},
		{"too long", "Aa1!" + strings.Repeat("x", 37), true},
		{"no upper", "secret1!", true},
		{"no lower", "SECRET1!", true},
		{"no digit", "Secrets!", true},
		{"no special", "Secret12", true},
		{"unsupported special only", "Secret1-", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		input   string
		want    UserID
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUserID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUserID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseUserID(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
	if UserID(17).String() != "17" {
		t.Errorf("String() = %q", UserID(17).String())
	}
}

func TestUser_JSONOmitsHash(t *testing.T) {
	u := &User{ID: 3, Username: "alice", Email: "a@example.com", PasswordHash: []byte("$2a$10$secret")}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":3,"username":"alice","email":"a@example.com"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	data, err = json.Marshal([]User{*u})
	if err != nil {
		t.Fatalf("Marshal(slice) error = %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("hash leaked: %s", data)
	}
}
