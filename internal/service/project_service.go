package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
	"github.com/medsafe-labs/riskboard-api/pkg/sanitize"
)

// ProjectService exposes project CRUD plus version management.
type ProjectService interface {
	List(ctx context.Context, actor authz.Identity, req dto.ProjectListRequest) (dto.ProjectListResponse, error)
	Get(ctx context.Context, actor authz.Identity, projectID uint) (dto.ProjectResponse, error)
	Create(ctx context.Context, actor authz.Identity, req dto.ProjectCreateRequest, client ClientInfo) (dto.ProjectResponse, error)
	Update(ctx context.Context, actor authz.Identity, projectID uint, req dto.ProjectUpdateRequest, client ClientInfo) (dto.ProjectResponse, error)
	Delete(ctx context.Context, actor authz.Identity, projectID uint, client ClientInfo) error

	ListVersions(ctx context.Context, actor authz.Identity, projectID uint) ([]dto.VersionResponse, error)
	CreateVersion(ctx context.Context, actor authz.Identity, projectID uint, req dto.VersionCreateRequest, client ClientInfo) (dto.VersionResponse, error)
	UpdateVersion(ctx context.Context, actor authz.Identity, projectID, versionID uint, req dto.VersionUpdateRequest, client ClientInfo) (dto.VersionResponse, error)
}

type projectService struct {
	projects  repository.ProjectRepository
	members   repository.MemberRepository
	versions  repository.VersionRepository
	recorder  ChangeRecorder
	validator *validator.Validate
	sanitizer *sanitize.Sanitizer
	logger    zerolog.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(
	projects repository.ProjectRepository,
	members repository.MemberRepository,
	versions repository.VersionRepository,
	recorder ChangeRecorder,
	validate *validator.Validate,
	sanitizer *sanitize.Sanitizer,
	logger zerolog.Logger,
) ProjectService {
	return &projectService{
		projects:  projects,
		members:   members,
		versions:  versions,
		recorder:  recorder,
		validator: validate,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "project_service").Logger(),
	}
}

func (s *projectService) List(ctx context.Context, actor authz.Identity, req dto.ProjectListRequest) (dto.ProjectListResponse, error) {
	filter := repository.ProjectFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   models.ProjectStatus(req.Status),
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if !actor.SysAdmin() {
		filter.AccessibleTo = uintRef(actor.ID)
	}

	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return dto.ProjectListResponse{}, err
	}

	items := make([]dto.ProjectListItem, 0, len(projects))
	for _, project := range projects {
		memberCount, err := s.projects.CountMembers(ctx, project.ID)
		if err != nil {
			return dto.ProjectListResponse{}, err
		}
		snapshot, err := membershipSnapshot(ctx, s.members, project, actor)
		if err != nil {
			return dto.ProjectListResponse{}, err
		}
		items = append(items, dto.ProjectListItem{
			ProjectResponse: dto.NewProjectResponse(project),
			MemberCount:     memberCount + 1, // owner
			EffectiveRole:   string(authz.EffectiveRole(actor, snapshot)),
		})
	}

	return dto.ProjectListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *projectService) Get(ctx context.Context, actor authz.Identity, projectID uint) (dto.ProjectResponse, error) {
	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectView); err != nil {
		return dto.ProjectResponse{}, err
	}
	return dto.NewProjectResponse(project), nil
}

// Create is open to every authenticated identity; the creator becomes owner.
func (s *projectService) Create(ctx context.Context, actor authz.Identity, req dto.ProjectCreateRequest, client ClientInfo) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}
	s.sanitizer.CleanAll(&req.Name, &req.Description, &req.DeviceName, &req.DeviceModel,
		&req.DevicePurpose, &req.DeviceClassification, &req.IntendedUse)

	project := models.Project{
		Name:                 req.Name,
		Description:          req.Description,
		Status:               models.ProjectStatusDraft,
		DeviceName:           req.DeviceName,
		DeviceModel:          req.DeviceModel,
		DevicePurpose:        req.DevicePurpose,
		DeviceClassification: req.DeviceClassification,
		IntendedUse:          req.IntendedUse,
		OwnerID:              actor.ID,
	}
	if err := s.projects.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionProjectCreated,
		Description: fmt.Sprintf("Created project %q", project.Name),
		TargetType:  "project",
		TargetID:    uintRef(project.ID),
		TargetName:  project.Name,
		ProjectID:   uintRef(project.ID),
		NewValues: map[string]interface{}{
			"name":        project.Name,
			"status":      string(project.Status),
			"device_name": project.DeviceName,
		},
		Client: client,
	})

	return dto.NewProjectResponse(project), auditErr
}

func (s *projectService) Update(ctx context.Context, actor authz.Identity, projectID uint, req dto.ProjectUpdateRequest, client ClientInfo) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}

	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectEdit); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.sanitizer.CleanAll(req.Name, req.Description, req.DeviceName, req.DeviceModel,
		req.DevicePurpose, req.DeviceClassification, req.IntendedUse)

	oldValues := map[string]interface{}{}
	newValues := map[string]interface{}{}
	statusChanged := false

	applyString := func(field string, target *string, incoming *string) {
		if incoming == nil || *incoming == *target {
			return
		}
		oldValues[field] = *target
		newValues[field] = *incoming
		*target = *incoming
	}

	applyString("name", &project.Name, req.Name)
	applyString("description", &project.Description, req.Description)
	applyString("device_name", &project.DeviceName, req.DeviceName)
	applyString("device_model", &project.DeviceModel, req.DeviceModel)
	applyString("device_purpose", &project.DevicePurpose, req.DevicePurpose)
	applyString("device_classification", &project.DeviceClassification, req.DeviceClassification)
	applyString("intended_use", &project.IntendedUse, req.IntendedUse)

	if req.Progress != nil && *req.Progress != project.Progress {
		oldValues["progress"] = project.Progress
		newValues["progress"] = *req.Progress
		project.Progress = *req.Progress
	}
	if req.Status != nil && models.ProjectStatus(*req.Status) != project.Status {
		oldValues["status"] = string(project.Status)
		newValues["status"] = *req.Status
		project.Status = models.ProjectStatus(*req.Status)
		statusChanged = true
	}

	// Nothing moved: no write, no audit entry.
	if len(newValues) == 0 {
		return dto.NewProjectResponse(project), nil
	}

	if err := s.projects.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	action := models.ActionProjectUpdated
	description := fmt.Sprintf("Updated project %q", project.Name)
	if statusChanged {
		action = models.ActionProjectStatusChanged
		description = fmt.Sprintf("Changed status of project %q to %s", project.Name, project.Status)
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      action,
		Description: description,
		TargetType:  "project",
		TargetID:    uintRef(project.ID),
		TargetName:  project.Name,
		ProjectID:   uintRef(project.ID),
		OldValues:   oldValues,
		NewValues:   newValues,
		Client:      client,
	})

	return dto.NewProjectResponse(project), auditErr
}

func (s *projectService) Delete(ctx context.Context, actor authz.Identity, projectID uint, client ClientInfo) error {
	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectDelete); err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}

	// The project row is gone; the entry keeps the id for traceability.
	return s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionProjectDeleted,
		Description: fmt.Sprintf("Deleted project %q", project.Name),
		TargetType:  "project",
		TargetID:    uintRef(project.ID),
		TargetName:  project.Name,
		ProjectID:   uintRef(project.ID),
		OldValues: map[string]interface{}{
			"name":   project.Name,
			"status": string(project.Status),
		},
		Client: client,
	})
}

func (s *projectService) ListVersions(ctx context.Context, actor authz.Identity, projectID uint) ([]dto.VersionResponse, error) {
	_, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectView); err != nil {
		return nil, err
	}

	versions, err := s.versions.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VersionResponse, 0, len(versions))
	for _, version := range versions {
		out = append(out, dto.NewVersionResponse(version))
	}
	return out, nil
}

func (s *projectService) CreateVersion(ctx context.Context, actor authz.Identity, projectID uint, req dto.VersionCreateRequest, client ClientInfo) (dto.VersionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.VersionResponse{}, err
	}

	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return dto.VersionResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectEdit); err != nil {
		return dto.VersionResponse{}, err
	}

	if _, err := s.versions.GetByLabel(ctx, projectID, req.Label); err == nil {
		return dto.VersionResponse{}, fmt.Errorf("%w: version label %q already exists", ErrConflict, req.Label)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.VersionResponse{}, err
	}

	version := models.ProjectVersion{
		ProjectID:   projectID,
		Label:       req.Label,
		Description: s.sanitizer.Clean(req.Description),
	}
	if err := s.versions.Create(ctx, &version); err != nil {
		return dto.VersionResponse{}, err
	}
	if req.IsCurrent {
		if err := s.versions.MarkCurrent(ctx, projectID, version.ID); err != nil {
			return dto.VersionResponse{}, err
		}
		version.IsCurrent = true
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionVersionCreated,
		Description: fmt.Sprintf("Created version %s of project %q", version.Label, project.Name),
		TargetType:  "version",
		TargetID:    uintRef(version.ID),
		TargetName:  version.Label,
		ProjectID:   uintRef(projectID),
		NewValues: map[string]interface{}{
			"label":      version.Label,
			"is_current": version.IsCurrent,
		},
		Client: client,
	})

	return dto.NewVersionResponse(version), auditErr
}

func (s *projectService) UpdateVersion(ctx context.Context, actor authz.Identity, projectID, versionID uint, req dto.VersionUpdateRequest, client ClientInfo) (dto.VersionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.VersionResponse{}, err
	}

	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return dto.VersionResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectEdit); err != nil {
		return dto.VersionResponse{}, err
	}

	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return dto.VersionResponse{}, notFoundOr(err)
	}
	if version.ProjectID != projectID {
		return dto.VersionResponse{}, ErrNotFound
	}

	oldValues := map[string]interface{}{}
	newValues := map[string]interface{}{}

	if req.Description != nil {
		cleaned := s.sanitizer.Clean(*req.Description)
		if cleaned != version.Description {
			oldValues["description"] = version.Description
			newValues["description"] = cleaned
			version.Description = cleaned
		}
	}
	markCurrent := req.IsCurrent != nil && *req.IsCurrent && !version.IsCurrent
	if markCurrent {
		oldValues["is_current"] = false
		newValues["is_current"] = true
	}

	if len(newValues) == 0 {
		return dto.NewVersionResponse(version), nil
	}

	if err := s.versions.Update(ctx, &version); err != nil {
		return dto.VersionResponse{}, err
	}
	if markCurrent {
		if err := s.versions.MarkCurrent(ctx, projectID, version.ID); err != nil {
			return dto.VersionResponse{}, err
		}
		version.IsCurrent = true
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionVersionUpdated,
		Description: fmt.Sprintf("Updated version %s of project %q", version.Label, project.Name),
		TargetType:  "version",
		TargetID:    uintRef(version.ID),
		TargetName:  version.Label,
		ProjectID:   uintRef(projectID),
		OldValues:   oldValues,
		NewValues:   newValues,
		Client:      client,
	})

	return dto.NewVersionResponse(version), auditErr
}

// loadProject resolves the project and the actor's membership snapshot.
// Missing projects surface as ErrNotFound before any permission check runs.
func (s *projectService) loadProject(ctx context.Context, actor authz.Identity, projectID uint) (models.Project, authz.Membership, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return models.Project{}, authz.Membership{}, notFoundOr(err)
	}
	snapshot, err := membershipSnapshot(ctx, s.members, project, actor)
	if err != nil {
		return models.Project{}, authz.Membership{}, err
	}
	return project, snapshot, nil
}
