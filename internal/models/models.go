package models

import (
	"time"
)

// UserType distinguishes employees from external participants
type UserType string

const (
	UserTypeInternal UserType = "INTERNAL"
	UserTypeExternal UserType = "EXTERNAL"
)

// Role names that gate workflow operations
const (
	RoleChallengeOwner = "Challenge Owner"
	RoleMentor         = "Mentor"
	RoleIBUHead        = "IBU Head"
)

// User represents a portal user
type User struct {
	ID           string    `json:"user_id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	UserType     UserType  `json:"user_type" db:"user_type"`
	EmployeeID   *string   `json:"employee_id,omitempty" db:"employee_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsInternal reports whether the user is an employee
func (u *User) IsInternal() bool {
	return u != nil && u.UserType == UserTypeInternal
}

// Role represents a named role
type Role struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// EmployeeDetail carries org metadata for an internal user
type EmployeeDetail struct {
	UserID             string  `json:"user_id" db:"user_id"`
	Designation        string  `json:"designation" db:"designation"`
	Department         string  `json:"department" db:"department"`
	Location           string  `json:"location" db:"location"`
	ReportingManagerID *string `json:"reporting_manager_id,omitempty" db:"reporting_manager_id"`
}

// Capabilities is the role set an actor currently holds
type Capabilities struct {
	ChallengeOwner   bool `json:"is_challenge_owner"`
	Mentor           bool `json:"is_mentor"`
	IBUHead          bool `json:"is_ibu_head"`
	ReportingManager bool `json:"is_reporting_manager"`
}

// UserWithCapabilities is the current actor as returned by /auth/me
type UserWithCapabilities struct {
	User
	Roles        []string     `json:"roles"`
	Capabilities Capabilities `json:"capabilities"`
}

// UserLoginLog records a successful login
type UserLoginLog struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	LoginAt   time.Time `json:"login_at" db:"login_at"`
}

// ChallengeStatus is the lifecycle state of a challenge
type ChallengeStatus string

const (
	ChallengeDraft     ChallengeStatus = "DRAFT"
	ChallengeLive      ChallengeStatus = "LIVE"
	ChallengeCompleted ChallengeStatus = "COMPLETED"
	ChallengeArchived  ChallengeStatus = "ARCHIVED"
)

// Visibility of a challenge
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// TargetAudience of a challenge
type TargetAudience string

const (
	AudienceInternal TargetAudience = "INTERNAL"
	AudienceExternal TargetAudience = "EXTERNAL"
	AudienceBoth     TargetAudience = "BOTH"
)

// Challenge is an organization-posted problem statement
type Challenge struct {
	ID              string          `json:"challenge_id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description" db:"description"`
	Keywords        string          `json:"keywords" db:"keywords"`
	IBUName         string          `json:"ibu_name" db:"ibu_name"`
	KeyInsights     string          `json:"key_insights" db:"key_insights"`
	ExpectedOutcome string          `json:"expected_outcome" db:"expected_outcome"`
	Status          ChallengeStatus `json:"status" db:"status"`
	Visibility      Visibility      `json:"visibility" db:"visibility"`
	TargetAudience  TargetAudience  `json:"target_audience" db:"target_audience"`
	StartDate       *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty" db:"end_date"`
	Round1EvalStart *time.Time      `json:"round1_eval_start,omitempty" db:"round1_eval_start"`
	Round1EvalEnd   *time.Time      `json:"round1_eval_end,omitempty" db:"round1_eval_end"`
	Round2EvalStart *time.Time      `json:"round2_eval_start,omitempty" db:"round2_eval_start"`
	Round2EvalEnd   *time.Time      `json:"round2_eval_end,omitempty" db:"round2_eval_end"`
	IsFeatured      bool            `json:"is_featured" db:"is_featured"`
	IconRef         *string         `json:"icon_ref,omitempty" db:"icon_ref"`
	DocumentRef     *string         `json:"document_ref,omitempty" db:"document_ref"`
	CreatedBy       *string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// IsCreatedBy reports whether userID created the challenge
func (c *Challenge) IsCreatedBy(userID string) bool {
	return c != nil && c.CreatedBy != nil && *c.CreatedBy == userID
}

// ChallengePanel is a named review group for one round
type ChallengePanel struct {
	ID          string    `json:"panel_id" db:"id"`
	ChallengeID string    `json:"challenge_id" db:"challenge_id"`
	RoundNumber int       `json:"round_number" db:"round_number"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ChallengeMentor links a mentor to a panel
type ChallengeMentor struct {
	ID       string    `json:"id" db:"id"`
	PanelID  string    `json:"panel_id" db:"panel_id"`
	MentorID string    `json:"mentor_id" db:"mentor_id"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}

// PanelWithMentors is a panel together with its mentor users
type PanelWithMentors struct {
	ChallengePanel
	Mentors []User `json:"mentors"`
}

// ReviewParameter is a named evaluation criterion
type ReviewParameter struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ChallengeReviewParameter assigns a weight to a parameter for one challenge
type ChallengeReviewParameter struct {
	ID            string `json:"id" db:"id"`
	ChallengeID   string `json:"challenge_id" db:"challenge_id"`
	ParameterID   string `json:"parameter_id" db:"parameter_id"`
	ParameterName string `json:"parameter_name" db:"parameter_name"`
	Weight        int    `json:"weight" db:"weight"`
}

// ChallengeWithDetails is the challenge detail read model
type ChallengeWithDetails struct {
	Challenge
	Panels      []PanelWithMentors         `json:"panels"`
	Parameters  []ChallengeReviewParameter `json:"review_parameters"`
	WeightTotal int                        `json:"weight_total"`
	IdeaCount   int                        `json:"idea_count"`
}

// IdeaStatus is the review state of an idea
type IdeaStatus string

const (
	IdeaSubmitted   IdeaStatus = "SUBMITTED"
	IdeaUnderReview IdeaStatus = "UNDER_REVIEW"
	IdeaApproved    IdeaStatus = "APPROVED"
	IdeaRejected    IdeaStatus = "REJECTED"
	IdeaImplemented IdeaStatus = "IMPLEMENTED"
	IdeaArchived    IdeaStatus = "ARCHIVED"
)

// SharingScope limits who an idea may be shared with
type SharingScope string

const (
	SharingCustomer  SharingScope = "CUSTOMER"
	SharingEcosystem SharingScope = "ECOSYSTEM"
	SharingPublic    SharingScope = "PUBLIC"
	SharingNone      SharingScope = "NONE"
)

// InnovationType classifies an idea
type InnovationType string

const (
	InnovationIncremental InnovationType = "INCREMENTAL"
	InnovationAdjacent    InnovationType = "ADJACENT"
	InnovationDisruptive  InnovationType = "DISRUPTIVE"
)

// Idea is a submission against a challenge
type Idea struct {
	ID             string       `json:"idea_id" db:"id"`
	Title          string       `json:"title" db:"title"`
	SubmitterID    *string      `json:"submitter_id,omitempty" db:"submitter_id"`
	ChallengeID    *string      `json:"challenge_id,omitempty" db:"challenge_id"`
	Status         IdeaStatus   `json:"status" db:"status"`
	SharingScope   SharingScope `json:"sharing_scope" db:"sharing_scope"`
	IsConfidential bool         `json:"is_confidential" db:"is_confidential"`
	SubmissionDate time.Time    `json:"submission_date" db:"submission_date"`
}

// IdeaDetail holds the narrative of an idea
type IdeaDetail struct {
	IdeaID           string         `json:"idea_id" db:"idea_id"`
	ProblemStatement string         `json:"problem_statement" db:"problem_statement"`
	ProposedSolution string         `json:"proposed_solution" db:"proposed_solution"`
	ValueProposition string         `json:"value_proposition" db:"value_proposition"`
	RiskAssessment   string         `json:"risk_assessment" db:"risk_assessment"`
	InnovationType   InnovationType `json:"innovation_type" db:"innovation_type"`
	Sealed           bool           `json:"-" db:"sealed"`
}

// CoIdeator credits a secondary contributor on an idea
type CoIdeator struct {
	IdeaID string `json:"idea_id" db:"idea_id"`
	UserID string `json:"user_id" db:"user_id"`
}

// IdeaDocument is an attachment stored in the file store
type IdeaDocument struct {
	ID         string    `json:"id" db:"id"`
	IdeaID     string    `json:"idea_id" db:"idea_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	FileRef    string    `json:"file_ref" db:"file_ref"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// IdeaWithDetails is the idea detail read model
type IdeaWithDetails struct {
	Idea
	Detail         *IdeaDetail    `json:"detail,omitempty"`
	CoIdeators     []User         `json:"co_ideators"`
	Documents      []IdeaDocument `json:"documents"`
	ChallengeTitle string         `json:"challenge_title,omitempty"`
}

// Reward is an append-only points ledger entry
type Reward struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Points    int       `json:"points" db:"points"`
	Reason    string    `json:"reason" db:"reason"`
	AwardedAt time.Time `json:"awarded_at" db:"awarded_at"`
}

// Notification is an in-portal inbox row
type Notification struct {
	ID          string    `json:"id" db:"id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	SenderID    *string   `json:"sender_id,omitempty" db:"sender_id"`
	Message     string    `json:"message" db:"message"`
	Link        *string   `json:"link,omitempty" db:"link"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// GrassrootStatus is the flat approval state of a grassroot idea
type GrassrootStatus string

const (
	GrassrootSubmittedRM     GrassrootStatus = "SUBMITTED_RM"
	GrassrootApprovedRM      GrassrootStatus = "APPROVED_RM"
	GrassrootReworkRM        GrassrootStatus = "REWORK_RM"
	GrassrootRejectedRM      GrassrootStatus = "REJECTED_RM"
	GrassrootSubmittedIBU    GrassrootStatus = "SUBMITTED_IBU"
	GrassrootApprovedIBU     GrassrootStatus = "APPROVED_IBU"
	GrassrootReworkIBU       GrassrootStatus = "REWORK_IBU"
	GrassrootRejectedIBU     GrassrootStatus = "REJECTED_IBU"
	GrassrootPendingCustomer GrassrootStatus = "PENDING_CUSTOMER"
	GrassrootCompleted       GrassrootStatus = "COMPLETED"
)

// GrassrootStatuses lists every valid status
var GrassrootStatuses = []GrassrootStatus{
	GrassrootSubmittedRM, GrassrootApprovedRM, GrassrootReworkRM, GrassrootRejectedRM,
	GrassrootSubmittedIBU, GrassrootApprovedIBU, GrassrootReworkIBU, GrassrootRejectedIBU,
	GrassrootPendingCustomer, GrassrootCompleted,
}

// Valid reports whether s is one of the enumerated statuses
func (s GrassrootStatus) Valid() bool {
	for _, v := range GrassrootStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ImprovementCategory classifies grassroot ideas
type ImprovementCategory struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ImprovementSubCategory belongs to one category
type ImprovementSubCategory struct {
	ID         string `json:"id" db:"id"`
	CategoryID string `json:"category_id" db:"category_id"`
	Name       string `json:"name" db:"name"`
}

// GrassrootIdea is an unsolicited improvement proposal
type GrassrootIdea struct {
	ID                string          `json:"grassroot_id" db:"id"`
	IdeatorID         string          `json:"ideator_id" db:"ideator_id"`
	CategoryID        *string         `json:"category_id,omitempty" db:"category_id"`
	SubcategoryID     *string         `json:"subcategory_id,omitempty" db:"subcategory_id"`
	BusinessValue     string          `json:"business_value" db:"business_value"`
	MonetaryValue     string          `json:"monetary_value" db:"monetary_value"`
	NonMonetaryValue  string          `json:"non_monetary_value" db:"non_monetary_value"`
	ProposedIdea      string          `json:"proposed_idea" db:"proposed_idea"`
	Assumptions       string          `json:"assumptions" db:"assumptions"`
	KeyRisks          string          `json:"key_risks" db:"key_risks"`
	AdditionalInfo    *string         `json:"additional_information,omitempty" db:"additional_information"`
	Status            GrassrootStatus `json:"status" db:"status"`
	Confidentiality   *string         `json:"confidentiality,omitempty" db:"confidentiality"`
	CustomerFeedback  *string         `json:"customer_feedback,omitempty" db:"customer_feedback"`
	InnovationContext *string         `json:"innovation_context,omitempty" db:"innovation_context"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// EvaluatorRole is the stage tag recorded on an evaluation
type EvaluatorRole string

const (
	EvaluatorRM  EvaluatorRole = "RM"
	EvaluatorIBU EvaluatorRole = "IBU"
)

// Decision is an evaluator's outcome
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionRework  Decision = "rework"
	DecisionReject  Decision = "reject"
)

// GrassrootEvaluation records one reviewer action
type GrassrootEvaluation struct {
	ID            string        `json:"id" db:"id"`
	IdeaID        string        `json:"grassroot_id" db:"idea_id"`
	EvaluatorID   string        `json:"evaluator_id" db:"evaluator_id"`
	EvaluatorRole EvaluatorRole `json:"evaluator_role" db:"evaluator_role"`
	Decision      Decision      `json:"decision" db:"decision"`
	Desirability  bool          `json:"desirability" db:"desirability"`
	Feasibility   bool          `json:"feasibility" db:"feasibility"`
	Viability     bool          `json:"viability" db:"viability"`
	Remarks       string        `json:"remarks" db:"remarks"`
	EvaluatedAt   time.Time     `json:"evaluated_at" db:"evaluated_at"`
}

// GrassrootIdeaWithDetails is the grassroot detail read model
type GrassrootIdeaWithDetails struct {
	GrassrootIdea
	IdeatorName     string                `json:"ideator_name"`
	CategoryName    string                `json:"category_name,omitempty"`
	SubcategoryName string                `json:"subcategory_name,omitempty"`
	Evaluations     []GrassrootEvaluation `json:"evaluations"`
}

// WorkflowLog records a status change of a challenge or grassroot idea
type WorkflowLog struct {
	ID             string    `json:"id" db:"id"`
	EntityType     string    `json:"entity_type" db:"entity_type"`
	EntityID       string    `json:"entity_id" db:"entity_id"`
	PreviousStatus string    `json:"previous_status" db:"previous_status"`
	NewStatus      string    `json:"new_status" db:"new_status"`
	ChangedBy      *string   `json:"changed_by,omitempty" db:"changed_by"`
	Remarks        string    `json:"remarks" db:"remarks"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Workflow log entity types
const (
	EntityChallenge = "challenge"
	EntityGrassroot = "grassroot_idea"
)

// Stats is the public portal counter set
type Stats struct {
	MemberCount    int `json:"member_count"`
	IdeaCount      int `json:"idea_count"`
	ChallengeCount int `json:"challenge_count"`
}

// UserDashboard is the personal landing page read model
type UserDashboard struct {
	TotalPoints            int            `json:"total_points"`
	IdeasCount             int            `json:"ideas_count"`
	ChallengesParticipated int            `json:"challenges_participated"`
	RecentIdeas            []Idea         `json:"recent_ideas"`
	Notifications          []Notification `json:"notifications"`
	LiveChallenges         []Challenge    `json:"live_challenges"`
}

// MyIdeas lists a user's own and shared ideas
type MyIdeas struct {
	Submitted   []Idea `json:"submitted_ideas"`
	Shared      []Idea `json:"shared_ideas"`
	TotalPoints int    `json:"total_points"`
}

// ChallengeReportRow is one line of the challenges export
type ChallengeReportRow struct {
	Title          string
	Status         ChallengeStatus
	StartDate      *time.Time
	EndDate        *time.Time
	CreatedBy      *string
	TargetAudience TargetAudience
	Visibility     Visibility
}

// IdeaReportRow is one line of the ideas export
type IdeaReportRow struct {
	Title          string
	Submitter      *string
	Challenge      *string
	Status         IdeaStatus
	SubmissionDate time.Time
	SharingScope   SharingScope
}

// GrassrootReportRow is one line of the grassroot export
type GrassrootReportRow struct {
	Ideator      string
	Category     *string
	Subcategory  *string
	Status       GrassrootStatus
	CreatedAt    time.Time
	ProposedIdea string
}
