package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/observability"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
)

// ChangeEntry captures everything needed to persist one audit entry. All
// descriptive text is supplied by the caller; the recorder adds only the
// timestamp and the assigned id.
type ChangeEntry struct {
	Actor       authz.Identity
	Action      models.ActionType
	Description string
	TargetType  string
	TargetID    *uint
	TargetName  string
	ProjectID   *uint
	OldValues   map[string]interface{}
	NewValues   map[string]interface{}
	Extra       map[string]interface{}
	Client      ClientInfo
}

// ChangeRecorder records audit entries. Mutating services depend on this
// narrow interface rather than the full changelog service.
type ChangeRecorder interface {
	Record(ctx context.Context, entry ChangeEntry) error
}

// ChangelogService records and queries the audit changelog.
type ChangelogService interface {
	ChangeRecorder
	ProjectChangelog(ctx context.Context, actor authz.Identity, projectID uint, page, pageSize int) (dto.ChangeLogListResponse, error)
	EntryDetail(ctx context.Context, actor authz.Identity, entryID uint) (dto.ChangeLogDetailResponse, error)
	Overview(ctx context.Context, actor authz.Identity) (dto.ChangelogOverviewResponse, error)
}

type changelogService struct {
	repo        repository.ChangelogRepository
	projects    repository.ProjectRepository
	members     repository.MemberRepository
	nats        *nats.Conn
	natsSubject string
	recentLimit int
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewChangelogService constructs the changelog service. natsConn may be nil;
// event publication is then skipped.
func NewChangelogService(
	repo repository.ChangelogRepository,
	projects repository.ProjectRepository,
	members repository.MemberRepository,
	natsConn *nats.Conn,
	recentLimit int,
	logger zerolog.Logger,
) ChangelogService {
	if recentLimit <= 0 {
		recentLimit = 4
	}
	return &changelogService{
		repo:        repo,
		projects:    projects,
		members:     members,
		nats:        natsConn,
		natsSubject: "riskboard.audit",
		recentLimit: recentLimit,
		tracer:      otel.Tracer("changelog_service"),
		logger:      logger.With().Str("component", "changelog_service").Logger(),
	}
}

// Record persists one audit entry. The write is best-effort with respect to
// the triggering mutation: on failure the entry is lost, the mutation stands,
// and the caller receives ErrAuditFailed to surface a degraded success.
func (s *changelogService) Record(ctx context.Context, entry ChangeEntry) error {
	ctx, span := s.tracer.Start(ctx, "changelog.record",
		trace.WithAttributes(attribute.String("action", string(entry.Action))))
	defer span.End()

	if !entry.Action.Valid() {
		return fmt.Errorf("unknown action type %q", entry.Action)
	}
	if strings.TrimSpace(entry.Description) == "" {
		return fmt.Errorf("description is required")
	}

	model := models.ChangeLog{
		ActionType:  entry.Action,
		Description: entry.Description,
		UserID:      entry.Actor.ID,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		TargetName:  entry.TargetName,
		ProjectID:   entry.ProjectID,
		OldValues:   toJSONMap(entry.OldValues),
		NewValues:   toJSONMap(entry.NewValues),
		Extra:       toJSONMap(entry.Extra),
		IPAddress:   entry.Client.IP,
		UserAgent:   entry.Client.UserAgent,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		observability.AuditFailures().Inc()
		s.logger.Error().Err(err).
			Str("action", string(entry.Action)).
			Uint("actor_id", entry.Actor.ID).
			Msg("failed to persist changelog entry")
		return fmt.Errorf("%w: %v", ErrAuditFailed, err)
	}

	observability.AuditEntries().WithLabelValues(string(entry.Action)).Inc()
	s.publish(model)
	return nil
}

// publish pushes the recorded entry onto the audit subject. Fire and forget:
// a publish failure never propagates to the caller.
func (s *changelogService) publish(entry models.ChangeLog) {
	if s.nats == nil {
		return
	}
	payload, err := json.Marshal(dto.NewChangeLogResponse(entry))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode audit event")
		return
	}
	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.natsSubject).Msg("failed to publish audit event")
	}
}

func (s *changelogService) ProjectChangelog(ctx context.Context, actor authz.Identity, projectID uint, page, pageSize int) (dto.ChangeLogListResponse, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return dto.ChangeLogListResponse{}, notFoundOr(err)
	}

	snapshot, err := membershipSnapshot(ctx, s.members, project, actor)
	if err != nil {
		return dto.ChangeLogListResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.ChangelogProject); err != nil {
		return dto.ChangeLogListResponse{}, err
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	entries, total, err := s.repo.ListByProject(ctx, projectID, page, pageSize)
	if err != nil {
		return dto.ChangeLogListResponse{}, err
	}

	items := make([]dto.ChangeLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewChangeLogResponse(entry))
	}

	return dto.ChangeLogListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *changelogService) EntryDetail(ctx context.Context, actor authz.Identity, entryID uint) (dto.ChangeLogDetailResponse, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return dto.ChangeLogDetailResponse{}, notFoundOr(err)
	}

	// Entries without a project (logins, system actions) are visible to
	// system admins only. An entry whose project was since deleted is treated
	// the same way: the audit row outlives the project.
	if entry.ProjectID == nil {
		return s.systemEntryDetail(actor, entry)
	}

	project, err := s.projects.GetByID(ctx, *entry.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.systemEntryDetail(actor, entry)
		}
		return dto.ChangeLogDetailResponse{}, err
	}
	snapshot, err := membershipSnapshot(ctx, s.members, project, actor)
	if err != nil {
		return dto.ChangeLogDetailResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.ChangelogProject); err != nil {
		return dto.ChangeLogDetailResponse{}, err
	}

	return dto.NewChangeLogDetailResponse(entry), nil
}

func (s *changelogService) systemEntryDetail(actor authz.Identity, entry models.ChangeLog) (dto.ChangeLogDetailResponse, error) {
	if !authz.CanViewAllChangelogs(actor) {
		observability.PermissionDenials().WithLabelValues(string(authz.ChangelogProject)).Inc()
		return dto.ChangeLogDetailResponse{}, ErrForbidden
	}
	return dto.NewChangeLogDetailResponse(entry), nil
}

func (s *changelogService) Overview(ctx context.Context, actor authz.Identity) (dto.ChangelogOverviewResponse, error) {
	if !authz.CanViewAllChangelogs(actor) {
		observability.PermissionDenials().WithLabelValues("changelog.overview").Inc()
		return dto.ChangelogOverviewResponse{}, ErrForbidden
	}

	projects, _, err := s.projects.List(ctx, repository.ProjectFilter{})
	if err != nil {
		return dto.ChangelogOverviewResponse{}, err
	}

	summaries := make([]dto.ProjectChangelogSummary, 0, len(projects))
	for _, project := range projects {
		recent, err := s.repo.RecentByProject(ctx, project.ID, s.recentLimit)
		if err != nil {
			return dto.ChangelogOverviewResponse{}, err
		}
		total, err := s.repo.CountByProject(ctx, project.ID)
		if err != nil {
			return dto.ChangelogOverviewResponse{}, err
		}
		memberCount, err := s.projects.CountMembers(ctx, project.ID)
		if err != nil {
			return dto.ChangelogOverviewResponse{}, err
		}

		summary := dto.ProjectChangelogSummary{
			ProjectID:     project.ID,
			ProjectName:   project.Name,
			ProjectStatus: string(project.Status),
			MemberCount:   memberCount + 1, // owner is not a membership row
			TotalChanges:  total,
			LastUpdated:   project.UpdatedAt,
		}
		for _, entry := range recent {
			summary.RecentChanges = append(summary.RecentChanges, dto.NewChangeLogResponse(entry))
		}
		if len(recent) > 0 {
			summary.LastUpdated = recent[0].CreatedAt
		}
		summaries = append(summaries, summary)
	}

	return dto.ChangelogOverviewResponse{
		Projects:      summaries,
		TotalProjects: len(summaries),
	}, nil
}

func toJSONMap(values map[string]interface{}) datatypes.JSONMap {
	if len(values) == 0 {
		return nil
	}
	out := datatypes.JSONMap{}
	for key, value := range values {
		out[key] = value
	}
	return out
}
