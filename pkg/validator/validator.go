package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// DateLayout is the calendar date format accepted in query parameters
const DateLayout = "2006-01-02"

// ValidateStruct validates a struct based on validate tags.
// Supported rules: required, email, min=N, max=N (string length in runes or
// integer value) and oneof=a|b|c. Field names in messages come from the json tag.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		tag := field.Tag.Get("validate")

		if tag == "" {
			continue
		}

		name := fieldName(field)
		for _, rule := range strings.Split(tag, ",") {
			if err := validateField(name, value, rule); err != nil {
				return err
			}
		}
	}

	return nil
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// validateField validates a single field based on a rule
func validateField(fieldName string, value reflect.Value, rule string) error {
	key, arg, _ := strings.Cut(rule, "=")
	switch key {
	case "required":
		if isZero(value) {
			return fmt.Errorf("%s is required", fieldName)
		}
	case "email":
		if value.Kind() == reflect.String && value.String() != "" {
			if err := ValidateEmail(value.String()); err != nil {
				return fmt.Errorf("%s must be a valid email", fieldName)
			}
		}
	case "min", "max":
		limit, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid %s rule on %s", key, fieldName)
		}
		return checkBound(fieldName, value, key, limit)
	case "oneof":
		if value.Kind() == reflect.String && value.String() != "" {
			allowed := strings.Split(arg, "|")
			for _, a := range allowed {
				if value.String() == a {
					return nil
				}
			}
			return fmt.Errorf("%s must be one of %s", fieldName, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func checkBound(fieldName string, value reflect.Value, key string, limit int) error {
	switch value.Kind() {
	case reflect.String:
		n := utf8.RuneCountInString(value.String())
		if key == "min" && n < limit {
			return fmt.Errorf("%s must be at least %d characters", fieldName, limit)
		}
		if key == "max" && n > limit {
			return fmt.Errorf("%s must be at most %d characters", fieldName, limit)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := value.Int()
		if key == "min" && n < int64(limit) {
			return fmt.Errorf("%s must be at least %d", fieldName, limit)
		}
		if key == "max" && n > int64(limit) {
			return fmt.Errorf("%s must be at most %d", fieldName, limit)
		}
	}
	return nil
}

// isZero checks if a value is zero/empty
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return false
	}
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword validates a password
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD value
func ParseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// SanitizeString sanitizes a string by removing potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	email = SanitizeString(email)
	email = strings.ToLower(email)
	return email
}
