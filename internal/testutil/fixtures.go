package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"iris/internal/auth"
	"iris/internal/models"
	"iris/internal/repository"
)

// TestPassword is the password of every fixture user
const TestPassword = "correct-horse-battery"

// Fixtures is a small organisation: an owner, a mentor, an IBU head, a
// reporting manager and two employees reporting to that manager.
type Fixtures struct {
	Owner     *models.User
	Mentor    *models.User
	IBUHead   *models.User
	Manager   *models.User
	Ideator   *models.User
	Colleague *models.User
	External  *models.User

	Category    *models.ImprovementCategory
	Subcategory *models.ImprovementSubCategory
}

// SetupFixtures creates the fixture organisation in store
func SetupFixtures(t *testing.T, store repository.Store) *Fixtures {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()

	for _, name := range []string{models.RoleChallengeOwner, models.RoleMentor, models.RoleIBUHead} {
		if _, err := repos.Roles.Ensure(ctx, name, ""); err != nil {
			t.Fatalf("Failed to ensure role %s: %v", name, err)
		}
	}

	f := &Fixtures{
		Owner:     CreateUser(t, store, "owner@iris.test", "Olivia Owner", models.UserTypeInternal),
		Mentor:    CreateUser(t, store, "mentor@iris.test", "Max Mentor", models.UserTypeInternal),
		IBUHead:   CreateUser(t, store, "ibu@iris.test", "Ines Head", models.UserTypeInternal),
		Manager:   CreateUser(t, store, "manager@iris.test", "Mona Manager", models.UserTypeInternal),
		Ideator:   CreateUser(t, store, "ideator@iris.test", "Ian Ideator", models.UserTypeInternal),
		Colleague: CreateUser(t, store, "colleague@iris.test", "Cora Colleague", models.UserTypeInternal),
		External:  CreateUser(t, store, "guest@partner.test", "Gus Guest", models.UserTypeExternal),
	}

	GrantRole(t, store, f.Owner, models.RoleChallengeOwner)
	GrantRole(t, store, f.Mentor, models.RoleMentor)
	GrantRole(t, store, f.IBUHead, models.RoleIBUHead)
	SetManager(t, store, f.Ideator, f.Manager)
	SetManager(t, store, f.Colleague, f.Manager)

	var err error
	f.Category, err = repos.Categories.EnsureCategory(ctx, "Process")
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	f.Subcategory, err = repos.Categories.EnsureSubcategory(ctx, f.Category.ID, "Automation")
	if err != nil {
		t.Fatalf("Failed to create subcategory: %v", err)
	}
	return f
}

// CreateUser creates an active user with TestPassword
func CreateUser(t *testing.T, store repository.Store, email, fullName string, userType models.UserType) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		UserType:     userType,
		IsActive:     true,
	}
	if err := store.Repos().Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

// GrantRole assigns a role to user
func GrantRole(t *testing.T, store repository.Store, user *models.User, role string) {
	t.Helper()
	if err := store.Repos().Roles.AssignRole(context.Background(), user.ID, role); err != nil {
		t.Fatalf("Failed to assign role %s: %v", role, err)
	}
}

// SetManager records manager as the reporting manager of employee
func SetManager(t *testing.T, store repository.Store, employee, manager *models.User) {
	t.Helper()
	detail := &models.EmployeeDetail{
		UserID:             employee.ID,
		Designation:        "Engineer",
		Department:         "Delivery",
		Location:           "Remote",
		ReportingManagerID: &manager.ID,
	}
	if err := store.Repos().Employees.Upsert(context.Background(), detail); err != nil {
		t.Fatalf("Failed to record reporting manager: %v", err)
	}
}

// Days returns a pointer to now shifted by n days
func Days(n int) *time.Time {
	ts := time.Now().Add(time.Duration(n) * 24 * time.Hour)
	return &ts
}
