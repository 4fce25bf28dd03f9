package testutil

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"iris/internal/apperr"
	"iris/internal/models"
	"iris/internal/repository"
)

// memState is everything a MemStore holds; clone gives InTx its snapshot.
type memState struct {
	users         map[string]models.User
	roles         map[string]models.Role // by name
	userRoles     map[string]map[string]bool
	employees     map[string]models.EmployeeDetail
	loginLogs     []models.UserLoginLog
	challenges    map[string]models.Challenge
	panels        map[string]models.ChallengePanel
	mentors       []models.ChallengeMentor
	parameters    map[string]models.ReviewParameter // by name
	weights       []models.ChallengeReviewParameter
	ideas         map[string]models.Idea
	details       map[string]models.IdeaDetail
	coIdeators    []models.CoIdeator
	documents     []models.IdeaDocument
	rewards       []models.Reward
	notifications []models.Notification
	categories    map[string]models.ImprovementCategory
	subcategories map[string]models.ImprovementSubCategory
	grassroots    map[string]models.GrassrootIdea
	evaluations   []models.GrassrootEvaluation
	workflowLogs  []models.WorkflowLog
}

func newMemState() *memState {
	return &memState{
		users:         map[string]models.User{},
		roles:         map[string]models.Role{},
		userRoles:     map[string]map[string]bool{},
		employees:     map[string]models.EmployeeDetail{},
		challenges:    map[string]models.Challenge{},
		panels:        map[string]models.ChallengePanel{},
		parameters:    map[string]models.ReviewParameter{},
		ideas:         map[string]models.Idea{},
		details:       map[string]models.IdeaDetail{},
		categories:    map[string]models.ImprovementCategory{},
		subcategories: map[string]models.ImprovementSubCategory{},
		grassroots:    map[string]models.GrassrootIdea{},
	}
}

func (s *memState) clone() *memState {
	userRoles := make(map[string]map[string]bool, len(s.userRoles))
	for id, set := range s.userRoles {
		userRoles[id] = maps.Clone(set)
	}
	return &memState{
		users:         maps.Clone(s.users),
		roles:         maps.Clone(s.roles),
		userRoles:     userRoles,
		employees:     maps.Clone(s.employees),
		loginLogs:     slices.Clone(s.loginLogs),
		challenges:    maps.Clone(s.challenges),
		panels:        maps.Clone(s.panels),
		mentors:       slices.Clone(s.mentors),
		parameters:    maps.Clone(s.parameters),
		weights:       slices.Clone(s.weights),
		ideas:         maps.Clone(s.ideas),
		details:       maps.Clone(s.details),
		coIdeators:    slices.Clone(s.coIdeators),
		documents:     slices.Clone(s.documents),
		rewards:       slices.Clone(s.rewards),
		notifications: slices.Clone(s.notifications),
		categories:    maps.Clone(s.categories),
		subcategories: maps.Clone(s.subcategories),
		grassroots:    maps.Clone(s.grassroots),
		evaluations:   slices.Clone(s.evaluations),
		workflowLogs:  slices.Clone(s.workflowLogs),
	}
}

// MemStore is an in-memory repository.Store for unit tests. InTx snapshots
// the state and restores it when fn fails, mirroring a database rollback.
type MemStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	state    *memState
	base     time.Time
	tick     int64
	failures map[string]error
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		state:    newMemState(),
		base:     time.Now().Add(-time.Minute),
		failures: map[string]error{},
	}
}

var _ repository.Store = (*MemStore)(nil)

// Repos returns repositories bound to the store
func (m *MemStore) Repos() repository.Repositories {
	return repository.Repositories{
		Users:         memUsers{m},
		Roles:         memRoles{m},
		Employees:     memEmployees{m},
		Challenges:    memChallenges{m},
		Ideas:         memIdeas{m},
		Grassroots:    memGrassroots{m},
		Rewards:       memRewards{m},
		Notifications: memNotifications{m},
		Categories:    memCategories{m},
		WorkflowLogs:  memWorkflowLogs{m},
		Reports:       memReports{m},
	}
}

// InTx runs fn and rolls the state back when it returns an error
func (m *MemStore) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m.Repos()); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// FailOn makes the next call of op (e.g. "Rewards.Create") return err
func (m *MemStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// lock acquires the state lock and reports any injected failure for op
func (m *MemStore) lock(op string) (*memState, func(), error) {
	m.mu.Lock()
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		m.mu.Unlock()
		return nil, func() {}, err
	}
	return m.state, m.mu.Unlock, nil
}

// now returns strictly increasing timestamps so orderings are deterministic
func (m *MemStore) now() time.Time {
	m.tick++
	return m.base.Add(time.Duration(m.tick) * time.Millisecond)
}

func (m *MemStore) stamp(t *time.Time) {
	if t.IsZero() {
		*t = m.now()
	}
}

// Counts exposes row counts for assertions
type Counts struct {
	Challenges    int
	Panels        int
	Mentors       int
	Weights       int
	Ideas         int
	Details       int
	CoIdeators    int
	Documents     int
	Rewards       int
	Notifications int
	Grassroots    int
	Evaluations   int
	WorkflowLogs  int
}

// Counts returns the current row counts
func (m *MemStore) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return Counts{
		Challenges: len(s.challenges), Panels: len(s.panels), Mentors: len(s.mentors), Weights: len(s.weights),
		Ideas: len(s.ideas), Details: len(s.details), CoIdeators: len(s.coIdeators), Documents: len(s.documents),
		Rewards: len(s.rewards), Notifications: len(s.notifications),
		Grassroots: len(s.grassroots), Evaluations: len(s.evaluations), WorkflowLogs: len(s.workflowLogs),
	}
}

// Notifications returns every stored notification in creation order
func (m *MemStore) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.notifications)
}

func notFound(entity string) error {
	return apperr.NotFound(entity + " not found")
}

// --- users ---

type memUsers struct{ m *MemStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	s, unlock, err := r.m.lock("Users.Create")
	defer unlock()
	if err != nil {
		return err
	}
	u.Email = strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperr.Conflict("a user with this email already exists")
		}
	}
	r.m.stamp(&u.CreatedAt)
	s.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s, unlock, err := r.m.lock("Users.GetByID")
	defer unlock()
	if err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s, unlock, err := r.m.lock("Users.GetByEmail")
	defer unlock()
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r memUsers) ListByIDs(_ context.Context, ids []string) ([]models.User, error) {
	s, unlock, err := r.m.lock("Users.ListByIDs")
	defer unlock()
	if err != nil {
		return nil, err
	}
	return s.usersByID(ids), nil
}

func (s *memState) usersByID(ids []string) []models.User {
	var users []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	return users
}

func (r memUsers) Count(_ context.Context) (int, error) {
	s, unlock, err := r.m.lock("Users.Count")
	defer unlock()
	if err != nil {
		return 0, err
	}
	return len(s.users), nil
}

func (r memUsers) RecordLogin(_ context.Context, e *models.UserLoginLog) error {
	s, unlock, err := r.m.lock("Users.RecordLogin")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&e.LoginAt)
	s.loginLogs = append(s.loginLogs, *e)
	return nil
}

// LoginLogs returns the recorded logins
func (m *MemStore) LoginLogs() []models.UserLoginLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.loginLogs)
}

// --- roles ---

type memRoles struct{ m *MemStore }

func (r memRoles) Ensure(_ context.Context, name, description string) (*models.Role, error) {
	s, unlock, err := r.m.lock("Roles.Ensure")
	defer unlock()
	if err != nil {
		return nil, err
	}
	if role, ok := s.roles[name]; ok {
		return &role, nil
	}
	role := models.Role{ID: uuid.NewString(), Name: name, Description: description, CreatedAt: r.m.now()}
	s.roles[name] = role
	return &role, nil
}

func (r memRoles) AssignRole(_ context.Context, userID, roleName string) error {
	s, unlock, err := r.m.lock("Roles.AssignRole")
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := s.roles[roleName]; !ok {
		return notFound("role")
	}
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = map[string]bool{}
	}
	s.userRoles[userID][roleName] = true
	return nil
}

func (r memRoles) GetUserRoles(_ context.Context, userID string) ([]string, error) {
	s, unlock, err := r.m.lock("Roles.GetUserRoles")
	defer unlock()
	if err != nil {
		return nil, err
	}
	names := slices.Collect(maps.Keys(s.userRoles[userID]))
	sort.Strings(names)
	return names, nil
}

func (r memRoles) HasRole(_ context.Context, userID, roleName string) (bool, error) {
	s, unlock, err := r.m.lock("Roles.HasRole")
	defer unlock()
	if err != nil {
		return false, err
	}
	return s.userRoles[userID][roleName], nil
}

func (r memRoles) GetUsersByRole(_ context.Context, roleName string) ([]models.User, error) {
	s, unlock, err := r.m.lock("Roles.GetUsersByRole")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, set := range s.userRoles {
		if set[roleName] {
			ids = append(ids, id)
		}
	}
	return s.usersByID(ids), nil
}

// --- employees ---

type memEmployees struct{ m *MemStore }

func (r memEmployees) Upsert(_ context.Context, d *models.EmployeeDetail) error {
	s, unlock, err := r.m.lock("Employees.Upsert")
	defer unlock()
	if err != nil {
		return err
	}
	s.employees[d.UserID] = *d
	return nil
}

func (r memEmployees) GetByUserID(_ context.Context, userID string) (*models.EmployeeDetail, error) {
	s, unlock, err := r.m.lock("Employees.GetByUserID")
	defer unlock()
	if err != nil {
		return nil, err
	}
	d, ok := s.employees[userID]
	if !ok {
		return nil, notFound("employee detail")
	}
	return &d, nil
}

func (r memEmployees) CountDirectReports(_ context.Context, managerID string) (int, error) {
	s, unlock, err := r.m.lock("Employees.CountDirectReports")
	defer unlock()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range s.employees {
		if d.ReportingManagerID != nil && *d.ReportingManagerID == managerID {
			n++
		}
	}
	return n, nil
}

// --- challenges ---

type memChallenges struct{ m *MemStore }

func (r memChallenges) Create(_ context.Context, c *models.Challenge) error {
	s, unlock, err := r.m.lock("Challenges.Create")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	s.challenges[c.ID] = *c
	return nil
}

func (r memChallenges) GetByID(_ context.Context, id string) (*models.Challenge, error) {
	s, unlock, err := r.m.lock("Challenges.GetByID")
	defer unlock()
	if err != nil {
		return nil, err
	}
	c, ok := s.challenges[id]
	if !ok {
		return nil, notFound("challenge")
	}
	return &c, nil
}

func (r memChallenges) UpdateStatus(_ context.Context, id string, status models.ChallengeStatus) error {
	s, unlock, err := r.m.lock("Challenges.UpdateStatus")
	defer unlock()
	if err != nil {
		return err
	}
	c, ok := s.challenges[id]
	if !ok {
		return notFound("challenge")
	}
	c.Status = status
	c.UpdatedAt = r.m.now()
	s.challenges[id] = c
	return nil
}

func (s *memState) isMentorOn(challengeID, mentorID string) bool {
	for _, m := range s.mentors {
		if m.MentorID != mentorID {
			continue
		}
		if p, ok := s.panels[m.PanelID]; ok && p.ChallengeID == challengeID {
			return true
		}
	}
	return false
}

func sortChallenges(list []models.Challenge) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].EndDate, list[j].EndDate
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func (r memChallenges) List(_ context.Context, f repository.ChallengeFilter) ([]models.Challenge, error) {
	s, unlock, err := r.m.lock("Challenges.List")
	defer unlock()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []models.Challenge
	for _, c := range s.challenges {
		switch {
		case f.MentorID != "":
			if !s.isMentorOn(c.ID, f.MentorID) {
				continue
			}
		case f.OwnerID != "":
			if !c.IsCreatedBy(f.OwnerID) && c.Status != models.ChallengeLive {
				continue
			}
		default:
			if c.Status != models.ChallengeLive {
				continue
			}
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.IDs != nil {
			if !slices.Contains(f.IDs, c.ID) {
				continue
			}
		} else if q != "" && !strings.Contains(strings.ToLower(c.Title), q) && !strings.Contains(strings.ToLower(c.Keywords), q) {
			continue
		}
		out = append(out, c)
	}
	sortChallenges(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memChallenges) GetFeatured(_ context.Context) (*models.Challenge, error) {
	s, unlock, err := r.m.lock("Challenges.GetFeatured")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var best *models.Challenge
	for _, c := range s.challenges {
		if !c.IsFeatured {
			continue
		}
		if best == nil || c.CreatedAt.After(best.CreatedAt) {
			c := c
			best = &c
		}
	}
	if best == nil {
		return nil, notFound("featured challenge")
	}
	return best, nil
}

func (r memChallenges) SuggestTitles(_ context.Context, query string, limit int) ([]string, error) {
	s, unlock, err := r.m.lock("Challenges.SuggestTitles")
	defer unlock()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var titles []string
	for _, c := range s.challenges {
		if strings.Contains(strings.ToLower(c.Title), q) {
			titles = append(titles, c.Title)
		}
	}
	sort.Strings(titles)
	if limit > 0 && len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

func (r memChallenges) ListExpired(_ context.Context, now time.Time) ([]models.Challenge, error) {
	s, unlock, err := r.m.lock("Challenges.ListExpired")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.Challenge
	for _, c := range s.challenges {
		if c.Status == models.ChallengeLive && c.EndDate != nil && c.EndDate.Before(now) {
			out = append(out, c)
		}
	}
	sortChallenges(out)
	return out, nil
}

func (r memChallenges) CountLive(_ context.Context) (int, error) {
	s, unlock, err := r.m.lock("Challenges.CountLive")
	defer unlock()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range s.challenges {
		if c.Status == models.ChallengeLive {
			n++
		}
	}
	return n, nil
}

func (r memChallenges) CreatePanel(_ context.Context, p *models.ChallengePanel) error {
	s, unlock, err := r.m.lock("Challenges.CreatePanel")
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := s.challenges[p.ChallengeID]; !ok {
		return fmt.Errorf("failed to create panel: unknown challenge %s", p.ChallengeID)
	}
	r.m.stamp(&p.CreatedAt)
	s.panels[p.ID] = *p
	return nil
}

func (r memChallenges) GetPanel(_ context.Context, id string) (*models.ChallengePanel, error) {
	s, unlock, err := r.m.lock("Challenges.GetPanel")
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := s.panels[id]
	if !ok {
		return nil, notFound("panel")
	}
	return &p, nil
}

func (r memChallenges) ListPanels(_ context.Context, challengeID string) ([]models.ChallengePanel, error) {
	s, unlock, err := r.m.lock("Challenges.ListPanels")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.ChallengePanel
	for _, p := range s.panels {
		if p.ChallengeID == challengeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memChallenges) CountPanels(_ context.Context, challengeID string, round int) (int, error) {
	s, unlock, err := r.m.lock("Challenges.CountPanels")
	defer unlock()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range s.panels {
		if p.ChallengeID == challengeID && p.RoundNumber == round {
			n++
		}
	}
	return n, nil
}

func (r memChallenges) DeletePanel(_ context.Context, id string) error {
	s, unlock, err := r.m.lock("Challenges.DeletePanel")
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := s.panels[id]; !ok {
		return notFound("panel")
	}
	delete(s.panels, id)
	s.mentors = slices.DeleteFunc(s.mentors, func(m models.ChallengeMentor) bool { return m.PanelID == id })
	return nil
}

func (r memChallenges) AddMentor(_ context.Context, cm *models.ChallengeMentor) (bool, error) {
	s, unlock, err := r.m.lock("Challenges.AddMentor")
	defer unlock()
	if err != nil {
		return false, err
	}
	for _, existing := range s.mentors {
		if existing.PanelID == cm.PanelID && existing.MentorID == cm.MentorID {
			return false, nil
		}
	}
	r.m.stamp(&cm.AddedAt)
	s.mentors = append(s.mentors, *cm)
	return true, nil
}

func (r memChallenges) RemoveMentor(_ context.Context, panelID, mentorID string) error {
	s, unlock, err := r.m.lock("Challenges.RemoveMentor")
	defer unlock()
	if err != nil {
		return err
	}
	before := len(s.mentors)
	s.mentors = slices.DeleteFunc(s.mentors, func(m models.ChallengeMentor) bool {
		return m.PanelID == panelID && m.MentorID == mentorID
	})
	if len(s.mentors) == before {
		return notFound("mentor")
	}
	return nil
}

func (r memChallenges) ListMentors(_ context.Context, panelID string) ([]models.User, error) {
	s, unlock, err := r.m.lock("Challenges.ListMentors")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, m := range s.mentors {
		if m.PanelID == panelID {
			if u, ok := s.users[m.MentorID]; ok {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (r memChallenges) ListMentorIDs(_ context.Context, challengeID string) ([]string, error) {
	s, unlock, err := r.m.lock("Challenges.ListMentorIDs")
	defer unlock()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, m := range s.mentors {
		if p, ok := s.panels[m.PanelID]; ok && p.ChallengeID == challengeID {
			seen[m.MentorID] = true
		}
	}
	ids := slices.Collect(maps.Keys(seen))
	sort.Strings(ids)
	return ids, nil
}

func (r memChallenges) FindOrCreateParameter(_ context.Context, name string) (*models.ReviewParameter, error) {
	s, unlock, err := r.m.lock("Challenges.FindOrCreateParameter")
	defer unlock()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("review parameter name is required")
	}
	if p, ok := s.parameters[name]; ok {
		return &p, nil
	}
	p := models.ReviewParameter{ID: uuid.NewString(), Name: name}
	s.parameters[name] = p
	return &p, nil
}

func (r memChallenges) AddParameterWeight(_ context.Context, p *models.ChallengeReviewParameter) error {
	s, unlock, err := r.m.lock("Challenges.AddParameterWeight")
	defer unlock()
	if err != nil {
		return err
	}
	for _, w := range s.weights {
		if w.ChallengeID == p.ChallengeID && w.ParameterID == p.ParameterID {
			return apperr.Conflict("review parameter is already weighted for this challenge")
		}
	}
	s.weights = append(s.weights, *p)
	return nil
}

func (r memChallenges) ListParameterWeights(_ context.Context, challengeID string) ([]models.ChallengeReviewParameter, error) {
	s, unlock, err := r.m.lock("Challenges.ListParameterWeights")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.ChallengeReviewParameter
	for _, w := range s.weights {
		if w.ChallengeID != challengeID {
			continue
		}
		for name, p := range s.parameters {
			if p.ID == w.ParameterID {
				w.ParameterName = name
			}
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParameterName < out[j].ParameterName })
	return out, nil
}

// --- ideas ---

type memIdeas struct{ m *MemStore }

func sortIdeas(list []models.Idea) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].SubmissionDate.After(list[j].SubmissionDate) })
}

func (r memIdeas) Create(_ context.Context, idea *models.Idea) error {
	s, unlock, err := r.m.lock("Ideas.Create")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&idea.SubmissionDate)
	s.ideas[idea.ID] = *idea
	return nil
}

func (r memIdeas) CreateDetail(_ context.Context, d *models.IdeaDetail) error {
	s, unlock, err := r.m.lock("Ideas.CreateDetail")
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := s.ideas[d.IdeaID]; !ok {
		return fmt.Errorf("failed to create idea detail: unknown idea %s", d.IdeaID)
	}
	s.details[d.IdeaID] = *d
	return nil
}

func (r memIdeas) GetByID(_ context.Context, id string) (*models.Idea, error) {
	s, unlock, err := r.m.lock("Ideas.GetByID")
	defer unlock()
	if err != nil {
		return nil, err
	}
	idea, ok := s.ideas[id]
	if !ok {
		return nil, notFound("idea")
	}
	return &idea, nil
}

func (r memIdeas) GetDetail(_ context.Context, ideaID string) (*models.IdeaDetail, error) {
	s, unlock, err := r.m.lock("Ideas.GetDetail")
	defer unlock()
	if err != nil {
		return nil, err
	}
	d, ok := s.details[ideaID]
	if !ok {
		return nil, notFound("idea detail")
	}
	return &d, nil
}

func (r memIdeas) AddCoIdeator(_ context.Context, ideaID, userID string) error {
	s, unlock, err := r.m.lock("Ideas.AddCoIdeator")
	defer unlock()
	if err != nil {
		return err
	}
	for _, c := range s.coIdeators {
		if c.IdeaID == ideaID && c.UserID == userID {
			return nil
		}
	}
	s.coIdeators = append(s.coIdeators, models.CoIdeator{IdeaID: ideaID, UserID: userID})
	return nil
}

func (s *memState) coIdeatorIDs(ideaID string) []string {
	var ids []string
	for _, c := range s.coIdeators {
		if c.IdeaID == ideaID {
			ids = append(ids, c.UserID)
		}
	}
	return ids
}

func (r memIdeas) ListCoIdeators(_ context.Context, ideaID string) ([]models.User, error) {
	s, unlock, err := r.m.lock("Ideas.ListCoIdeators")
	defer unlock()
	if err != nil {
		return nil, err
	}
	return s.usersByID(s.coIdeatorIDs(ideaID)), nil
}

func (r memIdeas) AddDocument(_ context.Context, doc *models.IdeaDocument) error {
	s, unlock, err := r.m.lock("Ideas.AddDocument")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&doc.UploadedAt)
	s.documents = append(s.documents, *doc)
	return nil
}

func (r memIdeas) ListDocuments(_ context.Context, ideaID string) ([]models.IdeaDocument, error) {
	s, unlock, err := r.m.lock("Ideas.ListDocuments")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.IdeaDocument
	for _, d := range s.documents {
		if d.IdeaID == ideaID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r memIdeas) filter(op string, keep func(s *memState, idea models.Idea) bool) ([]models.Idea, error) {
	s, unlock, err := r.m.lock(op)
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.Idea
	for _, idea := range s.ideas {
		if keep(s, idea) {
			out = append(out, idea)
		}
	}
	sortIdeas(out)
	return out, nil
}

func submittedBy(idea models.Idea, userID string) bool {
	return idea.SubmitterID != nil && *idea.SubmitterID == userID
}

func (r memIdeas) List(_ context.Context) ([]models.Idea, error) {
	return r.filter("Ideas.List", func(*memState, models.Idea) bool { return true })
}

func (r memIdeas) ListBySubmitterOrCoIdeator(_ context.Context, userID string) ([]models.Idea, error) {
	return r.filter("Ideas.ListBySubmitterOrCoIdeator", func(s *memState, idea models.Idea) bool {
		return submittedBy(idea, userID) || slices.Contains(s.coIdeatorIDs(idea.ID), userID)
	})
}

func (r memIdeas) ListBySubmitter(_ context.Context, userID string, limit int) ([]models.Idea, error) {
	out, err := r.filter("Ideas.ListBySubmitter", func(_ *memState, idea models.Idea) bool {
		return submittedBy(idea, userID)
	})
	if err == nil && limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r memIdeas) ListShared(_ context.Context, userID string) ([]models.Idea, error) {
	return r.filter("Ideas.ListShared", func(s *memState, idea models.Idea) bool {
		return !submittedBy(idea, userID) && slices.Contains(s.coIdeatorIDs(idea.ID), userID)
	})
}

func (r memIdeas) CountBySubmitter(ctx context.Context, userID string) (int, error) {
	out, err := r.ListBySubmitter(ctx, userID, 0)
	return len(out), err
}

func (r memIdeas) CountChallengesParticipated(ctx context.Context, userID string) (int, error) {
	out, err := r.ListBySubmitter(ctx, userID, 0)
	if err != nil {
		return 0, err
	}
	seen := map[string]bool{}
	for _, idea := range out {
		if idea.ChallengeID != nil {
			seen[*idea.ChallengeID] = true
		}
	}
	return len(seen), nil
}

func (r memIdeas) CountByChallenge(_ context.Context, challengeID string) (int, error) {
	out, err := r.filter("Ideas.CountByChallenge", func(_ *memState, idea models.Idea) bool {
		return idea.ChallengeID != nil && *idea.ChallengeID == challengeID
	})
	return len(out), err
}

func (r memIdeas) Count(ctx context.Context) (int, error) {
	out, err := r.List(ctx)
	return len(out), err
}

// --- grassroot ---

type memGrassroots struct{ m *MemStore }

func (r memGrassroots) Create(_ context.Context, g *models.GrassrootIdea) error {
	s, unlock, err := r.m.lock("Grassroots.Create")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&g.CreatedAt)
	g.UpdatedAt = g.CreatedAt
	s.grassroots[g.ID] = *g
	return nil
}

func (r memGrassroots) GetByID(_ context.Context, id string) (*models.GrassrootIdea, error) {
	s, unlock, err := r.m.lock("Grassroots.GetByID")
	defer unlock()
	if err != nil {
		return nil, err
	}
	g, ok := s.grassroots[id]
	if !ok {
		return nil, notFound("grassroot idea")
	}
	return &g, nil
}

func (r memGrassroots) List(_ context.Context, f repository.GrassrootFilter) ([]models.GrassrootIdea, error) {
	s, unlock, err := r.m.lock("Grassroots.List")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.GrassrootIdea
	for _, g := range s.grassroots {
		if f.IdeatorID != "" && g.IdeatorID != f.IdeatorID {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if f.ManagerID != "" {
			emp, ok := s.employees[g.IdeatorID]
			if !ok || emp.ReportingManagerID == nil || *emp.ReportingManagerID != f.ManagerID {
				continue
			}
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memGrassroots) Count(_ context.Context) (int, error) {
	s, unlock, err := r.m.lock("Grassroots.Count")
	defer unlock()
	if err != nil {
		return 0, err
	}
	return len(s.grassroots), nil
}

func (r memGrassroots) CompareAndSetStatus(_ context.Context, id string, from, to models.GrassrootStatus) (bool, error) {
	s, unlock, err := r.m.lock("Grassroots.CompareAndSetStatus")
	defer unlock()
	if err != nil {
		return false, err
	}
	g, ok := s.grassroots[id]
	if !ok || g.Status != from {
		return false, nil
	}
	g.Status = to
	g.UpdatedAt = r.m.now()
	s.grassroots[id] = g
	return true, nil
}

func (r memGrassroots) SetCustomerInput(_ context.Context, id string, in repository.CustomerInput, from, to models.GrassrootStatus) (bool, error) {
	s, unlock, err := r.m.lock("Grassroots.SetCustomerInput")
	defer unlock()
	if err != nil {
		return false, err
	}
	g, ok := s.grassroots[id]
	if !ok || g.Status != from {
		return false, nil
	}
	g.Confidentiality = &in.Confidentiality
	g.CustomerFeedback = &in.CustomerFeedback
	g.InnovationContext = &in.InnovationContext
	g.Status = to
	g.UpdatedAt = r.m.now()
	s.grassroots[id] = g
	return true, nil
}

func (r memGrassroots) CreateEvaluation(_ context.Context, e *models.GrassrootEvaluation) error {
	s, unlock, err := r.m.lock("Grassroots.CreateEvaluation")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&e.EvaluatedAt)
	s.evaluations = append(s.evaluations, *e)
	return nil
}

func (r memGrassroots) ListEvaluations(_ context.Context, ideaID string) ([]models.GrassrootEvaluation, error) {
	s, unlock, err := r.m.lock("Grassroots.ListEvaluations")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.GrassrootEvaluation
	for _, e := range s.evaluations {
		if e.IdeaID == ideaID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- rewards ---

type memRewards struct{ m *MemStore }

func (r memRewards) Create(_ context.Context, rw *models.Reward) error {
	s, unlock, err := r.m.lock("Rewards.Create")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&rw.AwardedAt)
	s.rewards = append(s.rewards, *rw)
	return nil
}

func (r memRewards) SumPoints(_ context.Context, userID string) (int, error) {
	s, unlock, err := r.m.lock("Rewards.SumPoints")
	defer unlock()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, rw := range s.rewards {
		if rw.UserID == userID {
			total += rw.Points
		}
	}
	return total, nil
}

func (r memRewards) ListByUser(_ context.Context, userID string) ([]models.Reward, error) {
	s, unlock, err := r.m.lock("Rewards.ListByUser")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.Reward
	for i := len(s.rewards) - 1; i >= 0; i-- {
		if s.rewards[i].UserID == userID {
			out = append(out, s.rewards[i])
		}
	}
	return out, nil
}

// --- notifications ---

type memNotifications struct{ m *MemStore }

func (r memNotifications) Create(_ context.Context, n *models.Notification) error {
	s, unlock, err := r.m.lock("Notifications.Create")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&n.CreatedAt)
	s.notifications = append(s.notifications, *n)
	return nil
}

func (r memNotifications) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	s, unlock, err := r.m.lock("Notifications.ListByRecipient")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r memNotifications) CountUnread(ctx context.Context, recipientID string) (int, error) {
	out, err := r.ListByRecipient(ctx, recipientID, true, 0)
	return len(out), err
}

func (r memNotifications) MarkRead(_ context.Context, id, recipientID string) error {
	s, unlock, err := r.m.lock("Notifications.MarkRead")
	defer unlock()
	if err != nil {
		return err
	}
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].RecipientID == recipientID {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return notFound("notification")
}

func (r memNotifications) ListRecipientsWithUnread(_ context.Context) ([]string, error) {
	s, unlock, err := r.m.lock("Notifications.ListRecipientsWithUnread")
	defer unlock()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, n := range s.notifications {
		if !n.IsRead {
			seen[n.RecipientID] = true
		}
	}
	ids := slices.Collect(maps.Keys(seen))
	sort.Strings(ids)
	return ids, nil
}

// --- categories ---

type memCategories struct{ m *MemStore }

func (r memCategories) EnsureCategory(_ context.Context, name string) (*models.ImprovementCategory, error) {
	s, unlock, err := r.m.lock("Categories.EnsureCategory")
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, c := range s.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	c := models.ImprovementCategory{ID: uuid.NewString(), Name: name}
	s.categories[c.ID] = c
	return &c, nil
}

func (r memCategories) EnsureSubcategory(_ context.Context, categoryID, name string) (*models.ImprovementSubCategory, error) {
	s, unlock, err := r.m.lock("Categories.EnsureSubcategory")
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, sub := range s.subcategories {
		if sub.CategoryID == categoryID && sub.Name == name {
			return &sub, nil
		}
	}
	sub := models.ImprovementSubCategory{ID: uuid.NewString(), CategoryID: categoryID, Name: name}
	s.subcategories[sub.ID] = sub
	return &sub, nil
}

func (r memCategories) GetCategory(_ context.Context, id string) (*models.ImprovementCategory, error) {
	s, unlock, err := r.m.lock("Categories.GetCategory")
	defer unlock()
	if err != nil {
		return nil, err
	}
	c, ok := s.categories[id]
	if !ok {
		return nil, notFound("category")
	}
	return &c, nil
}

func (r memCategories) GetSubcategory(_ context.Context, id string) (*models.ImprovementSubCategory, error) {
	s, unlock, err := r.m.lock("Categories.GetSubcategory")
	defer unlock()
	if err != nil {
		return nil, err
	}
	sub, ok := s.subcategories[id]
	if !ok {
		return nil, notFound("subcategory")
	}
	return &sub, nil
}

func (r memCategories) ListCategories(_ context.Context) ([]models.ImprovementCategory, error) {
	s, unlock, err := r.m.lock("Categories.ListCategories")
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(s.categories))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) ListSubcategories(_ context.Context, categoryID string) ([]models.ImprovementSubCategory, error) {
	s, unlock, err := r.m.lock("Categories.ListSubcategories")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.ImprovementSubCategory
	for _, sub := range s.subcategories {
		if sub.CategoryID == categoryID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- workflow logs ---

type memWorkflowLogs struct{ m *MemStore }

func (r memWorkflowLogs) Create(_ context.Context, e *models.WorkflowLog) error {
	s, unlock, err := r.m.lock("WorkflowLogs.Create")
	defer unlock()
	if err != nil {
		return err
	}
	r.m.stamp(&e.CreatedAt)
	s.workflowLogs = append(s.workflowLogs, *e)
	return nil
}

func (r memWorkflowLogs) ListByEntity(_ context.Context, entityType, entityID string) ([]models.WorkflowLog, error) {
	s, unlock, err := r.m.lock("WorkflowLogs.ListByEntity")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.WorkflowLog
	for _, e := range s.workflowLogs {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- reports ---

type memReports struct{ m *MemStore }

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r memReports) ChallengeRows(_ context.Context, from, to time.Time) ([]models.ChallengeReportRow, error) {
	s, unlock, err := r.m.lock("Reports.ChallengeRows")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var list []models.Challenge
	for _, c := range s.challenges {
		if inRange(c.CreatedAt, from, to) {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	var out []models.ChallengeReportRow
	for _, c := range list {
		row := models.ChallengeReportRow{
			Title: c.Title, Status: c.Status, StartDate: c.StartDate, EndDate: c.EndDate,
			TargetAudience: c.TargetAudience, Visibility: c.Visibility,
		}
		if c.CreatedBy != nil {
			if u, ok := s.users[*c.CreatedBy]; ok {
				name := u.FullName
				row.CreatedBy = &name
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r memReports) IdeaRows(_ context.Context, from, to time.Time) ([]models.IdeaReportRow, error) {
	s, unlock, err := r.m.lock("Reports.IdeaRows")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var list []models.Idea
	for _, idea := range s.ideas {
		if inRange(idea.SubmissionDate, from, to) {
			list = append(list, idea)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SubmissionDate.Before(list[j].SubmissionDate) })

	var out []models.IdeaReportRow
	for _, idea := range list {
		row := models.IdeaReportRow{
			Title: idea.Title, Status: idea.Status, SubmissionDate: idea.SubmissionDate, SharingScope: idea.SharingScope,
		}
		if idea.SubmitterID != nil {
			if u, ok := s.users[*idea.SubmitterID]; ok {
				name := u.FullName
				row.Submitter = &name
			}
		}
		if idea.ChallengeID != nil {
			if c, ok := s.challenges[*idea.ChallengeID]; ok {
				title := c.Title
				row.Challenge = &title
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r memReports) GrassrootRows(_ context.Context, from, to time.Time) ([]models.GrassrootReportRow, error) {
	s, unlock, err := r.m.lock("Reports.GrassrootRows")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var list []models.GrassrootIdea
	for _, g := range s.grassroots {
		if inRange(g.CreatedAt, from, to) {
			list = append(list, g)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	var out []models.GrassrootReportRow
	for _, g := range list {
		row := models.GrassrootReportRow{
			Ideator: s.users[g.IdeatorID].FullName, Status: g.Status, CreatedAt: g.CreatedAt, ProposedIdea: g.ProposedIdea,
		}
		if g.CategoryID != nil {
			if c, ok := s.categories[*g.CategoryID]; ok {
				name := c.Name
				row.Category = &name
			}
		}
		if g.SubcategoryID != nil {
			if sub, ok := s.subcategories[*g.SubcategoryID]; ok {
				name := sub.Name
				row.Subcategory = &name
			}
		}
		out = append(out, row)
	}
	return out, nil
}
