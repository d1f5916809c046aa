package service

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type recorderStub struct {
	entries []ChangeEntry
	err     error
}

func (r *recorderStub) Record(ctx context.Context, entry ChangeEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recorderStub) last() ChangeEntry {
	return r.entries[len(r.entries)-1]
}

type projectRepoStub struct {
	projects map[uint]models.Project
	nextID   uint
	deleted  []uint
}

func newProjectRepoStub(projects ...models.Project) *projectRepoStub {
	stub := &projectRepoStub{projects: map[uint]models.Project{}, nextID: 1}
	for _, p := range projects {
		stub.projects[p.ID] = p
		if p.ID >= stub.nextID {
			stub.nextID = p.ID + 1
		}
	}
	return stub
}

func (s *projectRepoStub) GetByID(ctx context.Context, id uint) (models.Project, error) {
	project, ok := s.projects[id]
	if !ok {
		return models.Project{}, gorm.ErrRecordNotFound
	}
	return project, nil
}

func (s *projectRepoStub) List(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	ids := make([]uint, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.projects[id])
	}
	return out, int64(len(out)), nil
}

func (s *projectRepoStub) Create(ctx context.Context, project *models.Project) error {
	project.ID = s.nextID
	s.nextID++
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	s.projects[project.ID] = *project
	return nil
}

func (s *projectRepoStub) Update(ctx context.Context, project *models.Project) error {
	if _, ok := s.projects[project.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *projectRepoStub) Delete(ctx context.Context, id uint) error {
	if _, ok := s.projects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.projects, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *projectRepoStub) CountMembers(ctx context.Context, projectID uint) (int64, error) {
	return 0, nil
}

type memberRepoStub struct {
	members []models.ProjectMember
	nextID  uint
}

func newMemberRepoStub(members ...models.ProjectMember) *memberRepoStub {
	return &memberRepoStub{members: members, nextID: uint(len(members) + 1)}
}

func (s *memberRepoStub) Get(ctx context.Context, projectID, userID uint) (models.ProjectMember, error) {
	for _, m := range s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return m, nil
		}
	}
	return models.ProjectMember{}, gorm.ErrRecordNotFound
}

func (s *memberRepoStub) List(ctx context.Context, projectID uint) ([]models.ProjectMember, error) {
	var out []models.ProjectMember
	for _, m := range s.members {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memberRepoStub) Add(ctx context.Context, member *models.ProjectMember) error {
	member.ID = s.nextID
	s.nextID++
	member.JoinedAt = time.Now()
	s.members = append(s.members, *member)
	return nil
}

func (s *memberRepoStub) UpdateRole(ctx context.Context, projectID, userID uint, role models.ProjectRole) error {
	for i, m := range s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			s.members[i].Role = role
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memberRepoStub) Remove(ctx context.Context, projectID, userID uint) error {
	for i, m := range s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type userRepoStub struct {
	users  map[uint]models.User
	nextID uint
}

func newUserRepoStub(users ...models.User) *userRepoStub {
	stub := &userRepoStub{users: map[uint]models.User{}, nextID: 1}
	for _, u := range users {
		stub.users[u.ID] = u
		if u.ID >= stub.nextID {
			stub.nextID = u.ID + 1
		}
	}
	return stub
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (s *userRepoStub) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	ids := make([]uint, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.users[id])
	}
	return out, int64(len(out)), nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *userRepoStub) SetActive(ctx context.Context, id uint, active bool) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = active
	s.users[id] = user
	return nil
}

func (s *userRepoStub) SetRole(ctx context.Context, id uint, role models.SystemRole) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Role = role
	s.users[id] = user
	return nil
}

func (s *userRepoStub) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLogin = &at
	s.users[id] = user
	return nil
}

type versionRepoStub struct {
	versions []models.ProjectVersion
	nextID   uint
}

func (s *versionRepoStub) GetByID(ctx context.Context, id uint) (models.ProjectVersion, error) {
	for _, v := range s.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return models.ProjectVersion{}, gorm.ErrRecordNotFound
}

func (s *versionRepoStub) GetByLabel(ctx context.Context, projectID uint, label string) (models.ProjectVersion, error) {
	for _, v := range s.versions {
		if v.ProjectID == projectID && v.Label == label {
			return v, nil
		}
	}
	return models.ProjectVersion{}, gorm.ErrRecordNotFound
}

func (s *versionRepoStub) List(ctx context.Context, projectID uint) ([]models.ProjectVersion, error) {
	var out []models.ProjectVersion
	for _, v := range s.versions {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *versionRepoStub) Create(ctx context.Context, version *models.ProjectVersion) error {
	s.nextID++
	version.ID = s.nextID
	version.CreatedAt = time.Now()
	s.versions = append(s.versions, *version)
	return nil
}

func (s *versionRepoStub) Update(ctx context.Context, version *models.ProjectVersion) error {
	for i, v := range s.versions {
		if v.ID == version.ID {
			s.versions[i] = *version
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *versionRepoStub) MarkCurrent(ctx context.Context, projectID, versionID uint) error {
	for i, v := range s.versions {
		if v.ProjectID == projectID {
			s.versions[i].IsCurrent = v.ID == versionID
		}
	}
	return nil
}

type analysisRepoStub struct {
	analyses map[uint]models.RiskAnalysis
	nextID   uint
}

func newAnalysisRepoStub(analyses ...models.RiskAnalysis) *analysisRepoStub {
	stub := &analysisRepoStub{analyses: map[uint]models.RiskAnalysis{}, nextID: 1}
	for _, a := range analyses {
		stub.analyses[a.ID] = a
		if a.ID >= stub.nextID {
			stub.nextID = a.ID + 1
		}
	}
	return stub
}

func (s *analysisRepoStub) GetByID(ctx context.Context, id uint) (models.RiskAnalysis, error) {
	analysis, ok := s.analyses[id]
	if !ok {
		return models.RiskAnalysis{}, gorm.ErrRecordNotFound
	}
	return analysis, nil
}

func (s *analysisRepoStub) GetWithFactors(ctx context.Context, id uint) (models.RiskAnalysis, error) {
	return s.GetByID(ctx, id)
}

func (s *analysisRepoStub) ListByProject(ctx context.Context, projectID uint) ([]models.RiskAnalysis, error) {
	var out []models.RiskAnalysis
	for _, a := range s.analyses {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *analysisRepoStub) Create(ctx context.Context, analysis *models.RiskAnalysis) error {
	analysis.ID = s.nextID
	s.nextID++
	s.analyses[analysis.ID] = *analysis
	return nil
}

type factorRepoStub struct {
	factors map[uint]models.RiskFactor
	nextID  uint
	updates int
}

func newFactorRepoStub(factors ...models.RiskFactor) *factorRepoStub {
	stub := &factorRepoStub{factors: map[uint]models.RiskFactor{}, nextID: 1}
	for _, f := range factors {
		stub.factors[f.ID] = f
		if f.ID >= stub.nextID {
			stub.nextID = f.ID + 1
		}
	}
	return stub
}

func (s *factorRepoStub) GetByID(ctx context.Context, id uint) (models.RiskFactor, error) {
	factor, ok := s.factors[id]
	if !ok {
		return models.RiskFactor{}, gorm.ErrRecordNotFound
	}
	return factor, nil
}

func (s *factorRepoStub) Create(ctx context.Context, factor *models.RiskFactor) error {
	factor.ID = s.nextID
	s.nextID++
	s.factors[factor.ID] = *factor
	return nil
}

func (s *factorRepoStub) Update(ctx context.Context, factor *models.RiskFactor) error {
	if _, ok := s.factors[factor.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.factors[factor.ID] = *factor
	s.updates++
	return nil
}

func (s *factorRepoStub) Delete(ctx context.Context, id uint) error {
	if _, ok := s.factors[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.factors, id)
	return nil
}
