// Package seed loads reference data and demo users from a YAML file.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"iris/internal/apperr"
	"iris/internal/auth"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/pkg/validator"
)

// File is the seed document
type File struct {
	Roles            []RoleSeed     `yaml:"roles"`
	Categories       []CategorySeed `yaml:"categories"`
	ReviewParameters []string       `yaml:"review_parameters"`
	Users            []UserSeed     `yaml:"users"`
}

// RoleSeed is one role row
type RoleSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// CategorySeed is an improvement category with its subcategories
type CategorySeed struct {
	Name          string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories"`
}

// UserSeed is a user account, its roles and its employee record.
// Manager is the email of the reporting manager and may refer to a user
// defined later in the same file.
type UserSeed struct {
	Email       string   `yaml:"email"`
	FullName    string   `yaml:"full_name"`
	Password    string   `yaml:"password"`
	UserType    string   `yaml:"user_type"`
	Roles       []string `yaml:"roles"`
	Designation string   `yaml:"designation"`
	Department  string   `yaml:"department"`
	Location    string   `yaml:"location"`
	Manager     string   `yaml:"manager"`
}

// Result counts what Apply created
type Result struct {
	Roles            int
	Categories       int
	Subcategories    int
	ReviewParameters int
	UsersCreated     int
	UsersExisting    int
	EmployeeLinks    int
}

// Parse decodes and validates a seed document
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("seed: document is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses a seed file from disk
func LoadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return f, nil
}

func (f *File) validate() error {
	emails := make(map[string]bool, len(f.Users))
	for i := range f.Users {
		u := &f.Users[i]
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		u.Manager = strings.ToLower(strings.TrimSpace(u.Manager))
		if err := validator.ValidateRequired("full_name", u.FullName); err != nil {
			return fmt.Errorf("seed: user %d: %w", i+1, err)
		}
		if err := validator.ValidateEmail(u.Email); err != nil {
			return fmt.Errorf("seed: user %d: %w", i+1, err)
		}
		if emails[u.Email] {
			return fmt.Errorf("seed: duplicate user %s", u.Email)
		}
		emails[u.Email] = true
		switch models.UserType(u.UserType) {
		case "":
			u.UserType = string(models.UserTypeInternal)
		case models.UserTypeInternal, models.UserTypeExternal:
		default:
			return fmt.Errorf("seed: user %s has unknown user_type %q", u.Email, u.UserType)
		}
		if err := validator.ValidatePassword(u.Password); err != nil {
			return fmt.Errorf("seed: user %s: %w", u.Email, err)
		}
	}
	for _, u := range f.Users {
		if u.Manager != "" && !emails[u.Manager] {
			return fmt.Errorf("seed: manager %s of %s is not defined", u.Manager, u.Email)
		}
		if u.Manager == u.Email && u.Manager != "" {
			return fmt.Errorf("seed: %s cannot report to themselves", u.Email)
		}
	}
	for _, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed: category without name")
		}
	}
	return nil
}

// Apply writes the seed into store in one transaction. Existing users are
// left untouched apart from role grants, so applying twice is safe.
func Apply(ctx context.Context, store repository.Store, f *File) (Result, error) {
	var res Result
	err := store.InTx(ctx, func(repos repository.Repositories) error {
		for _, r := range f.Roles {
			if _, err := repos.Roles.Ensure(ctx, r.Name, r.Description); err != nil {
				return fmt.Errorf("failed to ensure role %s: %w", r.Name, err)
			}
			res.Roles++
		}

		for _, c := range f.Categories {
			cat, err := repos.Categories.EnsureCategory(ctx, strings.TrimSpace(c.Name))
			if err != nil {
				return fmt.Errorf("failed to ensure category %s: %w", c.Name, err)
			}
			res.Categories++
			for _, sub := range c.Subcategories {
				if _, err := repos.Categories.EnsureSubcategory(ctx, cat.ID, strings.TrimSpace(sub)); err != nil {
					return fmt.Errorf("failed to ensure subcategory %s: %w", sub, err)
				}
				res.Subcategories++
			}
		}

		for _, name := range f.ReviewParameters {
			if _, err := repos.Challenges.FindOrCreateParameter(ctx, strings.TrimSpace(name)); err != nil {
				return fmt.Errorf("failed to ensure review parameter %s: %w", name, err)
			}
			res.ReviewParameters++
		}

		ids := make(map[string]string, len(f.Users))
		for _, u := range f.Users {
			id, created, err := ensureUser(ctx, repos, u)
			if err != nil {
				return err
			}
			ids[u.Email] = id
			if created {
				res.UsersCreated++
			} else {
				res.UsersExisting++
			}
			for _, role := range u.Roles {
				if err := repos.Roles.AssignRole(ctx, id, role); err != nil {
					return fmt.Errorf("failed to assign %s to %s: %w", role, u.Email, err)
				}
			}
		}

		// Managers are linked once every user exists
		for _, u := range f.Users {
			if u.UserType != string(models.UserTypeInternal) {
				continue
			}
			detail := &models.EmployeeDetail{
				UserID:      ids[u.Email],
				Designation: u.Designation,
				Department:  u.Department,
				Location:    u.Location,
			}
			if u.Manager != "" {
				managerID := ids[u.Manager]
				detail.ReportingManagerID = &managerID
			}
			if err := repos.Employees.Upsert(ctx, detail); err != nil {
				return fmt.Errorf("failed to save employee record of %s: %w", u.Email, err)
			}
			res.EmployeeLinks++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	slog.Info("Seed applied",
		"roles", res.Roles,
		"categories", res.Categories,
		"review_parameters", res.ReviewParameters,
		"users_created", res.UsersCreated,
		"users_existing", res.UsersExisting)
	return res, nil
}

func ensureUser(ctx context.Context, repos repository.Repositories, u UserSeed) (string, bool, error) {
	existing, err := repos.Users.GetByEmail(ctx, u.Email)
	if err == nil {
		return existing.ID, false, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return "", false, fmt.Errorf("failed to look up %s: %w", u.Email, err)
	}

	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return "", false, fmt.Errorf("failed to hash password of %s: %w", u.Email, err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        u.Email,
		PasswordHash: hash,
		FullName:     u.FullName,
		UserType:     models.UserType(u.UserType),
		IsActive:     true,
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return "", false, fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	return user.ID, true, nil
}
