package validator

import (
	"testing"
	"time"
)

func TestValidateStruct(t *testing.T) {
	type TestStruct struct {
		Title  string `json:"title" validate:"required,max=20"`
		Email  string `json:"email" validate:"email"`
		Weight int    `json:"weight" validate:"min=0,max=100"`
		Scope  string `json:"sharing_scope" validate:"oneof=CUSTOMER|ECOSYSTEM|PUBLIC|NONE"`
	}

	tests := []struct {
		name    string
		input   TestStruct
		wantErr string
	}{
		{"valid struct", TestStruct{Title: "Water", Email: "a@example.com", Weight: 40, Scope: "PUBLIC"}, ""},
		{"optional fields empty", TestStruct{Title: "Water"}, ""},
		{"missing title", TestStruct{Title: "  "}, "title is required"},
		{"title too long", TestStruct{Title: "abcdefghijklmnopqrstu"}, "title must be at most 20 characters"},
		{"invalid email", TestStruct{Title: "Water", Email: "nope"}, "email must be a valid email"},
		{"weight above range", TestStruct{Title: "Water", Weight: 101}, "weight must be at most 100"},
		{"weight below range", TestStruct{Title: "Water", Weight: -1}, "weight must be at least 0"},
		{"unknown scope", TestStruct{Title: "Water", Scope: "WORLD"}, "sharing_scope must be one of CUSTOMER, ECOSYSTEM, PUBLIC, NONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	if err := ValidateStruct("text"); err == nil {
		t.Error("expected error for non-struct input")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("from_date", "2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v", got)
	}

	for _, bad := range []string{"", "2024/02/29", "29-02-2024", "2023-02-29"} {
		if _, err := ParseDate("from_date", bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"test@example.com", true},
		{"user.name@example.co.uk", true},
		{"invalid-email", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
		{"user@example", false},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidateEmail(%q) = %v, expected %v", tt.email, isValid, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		expected bool
	}{
		{"password123", true},
		{"12345678", true},
		{"short", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidatePassword(%q) = %v, expected %v", tt.password, isValid, tt.expected)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		field    string
		value    string
		expected bool
	}{
		{"name", "John", true},
		{"name", "", false},
		{"name", "   ", false},
	}

	for _, tt := range tests {
		err := ValidateRequired(tt.field, tt.value)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidateRequired(%q, %q) = %v, expected %v", tt.field, tt.value, isValid, tt.expected)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  test  ", "test"},
		{"test\x00string", "teststring"},
		{"normal", "normal"},
	}

	for _, tt := range tests {
		result := SanitizeString(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeString(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Test@Example.com", "test@example.com"},
		{"  USER@EXAMPLE.COM  ", "user@example.com"},
	}

	for _, tt := range tests {
		result := SanitizeEmail(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeEmail(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
