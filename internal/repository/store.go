package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"iris/internal/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories run
// unchanged inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserStore persists portal users and their login history
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	RecordLogin(ctx context.Context, entry *models.UserLoginLog) error
}

// RoleStore manages the user/role relation
type RoleStore interface {
	Ensure(ctx context.Context, name, description string) (*models.Role, error)
	AssignRole(ctx context.Context, userID, roleName string) error
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	HasRole(ctx context.Context, userID, roleName string) (bool, error)
	GetUsersByRole(ctx context.Context, roleName string) ([]models.User, error)
}

// EmployeeStore manages employee records and the reporting-manager relation
type EmployeeStore interface {
	Upsert(ctx context.Context, detail *models.EmployeeDetail) error
	GetByUserID(ctx context.Context, userID string) (*models.EmployeeDetail, error)
	CountDirectReports(ctx context.Context, managerID string) (int, error)
}

// ChallengeFilter narrows challenge listings. Visibility is decided by
// exactly one of MentorID, OwnerID or neither (live only); Status and Query
// are applied on top. A non-nil IDs replaces the Query text match with the
// ids a search index returned for it.
type ChallengeFilter struct {
	MentorID string
	OwnerID  string
	Status   models.ChallengeStatus // empty means any status
	Query    string
	IDs      []string
	Limit    int
}

// ChallengeStore persists challenges with their panels, mentors and review parameters
type ChallengeStore interface {
	Create(ctx context.Context, c *models.Challenge) error
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	UpdateStatus(ctx context.Context, id string, status models.ChallengeStatus) error
	List(ctx context.Context, filter ChallengeFilter) ([]models.Challenge, error)
	GetFeatured(ctx context.Context) (*models.Challenge, error)
	SuggestTitles(ctx context.Context, query string, limit int) ([]string, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Challenge, error)
	CountLive(ctx context.Context) (int, error)

	CreatePanel(ctx context.Context, panel *models.ChallengePanel) error
	GetPanel(ctx context.Context, id string) (*models.ChallengePanel, error)
	ListPanels(ctx context.Context, challengeID string) ([]models.ChallengePanel, error)
	CountPanels(ctx context.Context, challengeID string, round int) (int, error)
	DeletePanel(ctx context.Context, id string) error

	// AddMentor reports false when the (panel, mentor) pair already exists.
	AddMentor(ctx context.Context, m *models.ChallengeMentor) (bool, error)
	RemoveMentor(ctx context.Context, panelID, mentorID string) error
	ListMentors(ctx context.Context, panelID string) ([]models.User, error)
	ListMentorIDs(ctx context.Context, challengeID string) ([]string, error)

	FindOrCreateParameter(ctx context.Context, name string) (*models.ReviewParameter, error)
	AddParameterWeight(ctx context.Context, p *models.ChallengeReviewParameter) error
	ListParameterWeights(ctx context.Context, challengeID string) ([]models.ChallengeReviewParameter, error)
}

// IdeaStore persists challenge ideas and their children
type IdeaStore interface {
	Create(ctx context.Context, idea *models.Idea) error
	CreateDetail(ctx context.Context, detail *models.IdeaDetail) error
	GetByID(ctx context.Context, id string) (*models.Idea, error)
	GetDetail(ctx context.Context, ideaID string) (*models.IdeaDetail, error)
	AddCoIdeator(ctx context.Context, ideaID, userID string) error
	ListCoIdeators(ctx context.Context, ideaID string) ([]models.User, error)
	AddDocument(ctx context.Context, doc *models.IdeaDocument) error
	ListDocuments(ctx context.Context, ideaID string) ([]models.IdeaDocument, error)

	List(ctx context.Context) ([]models.Idea, error)
	ListBySubmitterOrCoIdeator(ctx context.Context, userID string) ([]models.Idea, error)
	ListBySubmitter(ctx context.Context, userID string, limit int) ([]models.Idea, error)
	ListShared(ctx context.Context, userID string) ([]models.Idea, error)
	CountBySubmitter(ctx context.Context, userID string) (int, error)
	CountChallengesParticipated(ctx context.Context, userID string) (int, error)
	CountByChallenge(ctx context.Context, challengeID string) (int, error)
	Count(ctx context.Context) (int, error)
}

// GrassrootFilter narrows grassroot listings
type GrassrootFilter struct {
	IdeatorID string
	ManagerID string // ideas whose ideator reports to this user
	Status    models.GrassrootStatus
}

// CustomerInput is the terminal IBU-stage data on a grassroot idea
type CustomerInput struct {
	Confidentiality   string
	CustomerFeedback  string
	InnovationContext string
}

// GrassrootStore persists grassroot ideas and their evaluations
type GrassrootStore interface {
	Create(ctx context.Context, idea *models.GrassrootIdea) error
	GetByID(ctx context.Context, id string) (*models.GrassrootIdea, error)
	List(ctx context.Context, filter GrassrootFilter) ([]models.GrassrootIdea, error)
	Count(ctx context.Context) (int, error)

	// CompareAndSetStatus moves an idea from one status to another and
	// reports false when the idea is no longer in the expected status.
	CompareAndSetStatus(ctx context.Context, id string, from, to models.GrassrootStatus) (bool, error)
	SetCustomerInput(ctx context.Context, id string, input CustomerInput, from, to models.GrassrootStatus) (bool, error)

	CreateEvaluation(ctx context.Context, e *models.GrassrootEvaluation) error
	ListEvaluations(ctx context.Context, ideaID string) ([]models.GrassrootEvaluation, error)
}

// RewardStore is the append-only points ledger
type RewardStore interface {
	Create(ctx context.Context, r *models.Reward) error
	SumPoints(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]models.Reward, error)
}

// NotificationStore persists inbox rows
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	ListRecipientsWithUnread(ctx context.Context) ([]string, error)
}

// CategoryStore persists improvement categories
type CategoryStore interface {
	EnsureCategory(ctx context.Context, name string) (*models.ImprovementCategory, error)
	EnsureSubcategory(ctx context.Context, categoryID, name string) (*models.ImprovementSubCategory, error)
	GetCategory(ctx context.Context, id string) (*models.ImprovementCategory, error)
	GetSubcategory(ctx context.Context, id string) (*models.ImprovementSubCategory, error)
	ListCategories(ctx context.Context) ([]models.ImprovementCategory, error)
	ListSubcategories(ctx context.Context, categoryID string) ([]models.ImprovementSubCategory, error)
}

// WorkflowLogStore appends status-change history
type WorkflowLogStore interface {
	Create(ctx context.Context, entry *models.WorkflowLog) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.WorkflowLog, error)
}

// ReportStore runs the export queries over [from, to)
type ReportStore interface {
	ChallengeRows(ctx context.Context, from, to time.Time) ([]models.ChallengeReportRow, error)
	IdeaRows(ctx context.Context, from, to time.Time) ([]models.IdeaReportRow, error)
	GrassrootRows(ctx context.Context, from, to time.Time) ([]models.GrassrootReportRow, error)
}

// Repositories bundles every store bound to one connection or transaction
type Repositories struct {
	Users         UserStore
	Roles         RoleStore
	Employees     EmployeeStore
	Challenges    ChallengeStore
	Ideas         IdeaStore
	Grassroots    GrassrootStore
	Rewards       RewardStore
	Notifications NotificationStore
	Categories    CategoryStore
	WorkflowLogs  WorkflowLogStore
	Reports       ReportStore
}

// Store hands out repositories and runs compound mutations atomically
type Store interface {
	Repos() Repositories
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// DBStore is the Postgres-backed Store
type DBStore struct {
	db *sql.DB
}

// NewDBStore creates a store over an open database
func NewDBStore(db *sql.DB) *DBStore {
	return &DBStore{db: db}
}

func newRepositories(q Querier) Repositories {
	return Repositories{
		Users:         NewUserRepository(q),
		Roles:         NewRoleRepository(q),
		Employees:     NewEmployeeRepository(q),
		Challenges:    NewChallengeRepository(q),
		Ideas:         NewIdeaRepository(q),
		Grassroots:    NewGrassrootRepository(q),
		Rewards:       NewRewardRepository(q),
		Notifications: NewNotificationRepository(q),
		Categories:    NewCategoryRepository(q),
		WorkflowLogs:  NewWorkflowLogRepository(q),
		Reports:       NewReportRepository(q),
	}
}

// Repos returns repositories bound to the connection pool
func (s *DBStore) Repos() Repositories {
	return newRepositories(s.db)
}

// InTx runs fn inside a transaction; any error rolls everything back
func (s *DBStore) InTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback only if not committed
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
