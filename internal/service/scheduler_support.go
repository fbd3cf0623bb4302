package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type sessionLister interface {
	List(ctx context.Context, exec sqlx.ExtContext, filter models.SessionFilter) ([]models.SessionDetail, error)
}

type groupLister interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error)
}

type activeTeacherLister interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type availabilityLister interface {
	ListByCalendar(ctx context.Context, calendarID string) ([]models.TeacherAvailability, error)
}

// SchedulerSettings carries the engine tunables resolved from configuration.
type SchedulerSettings struct {
	Weights             scheduling.Weights
	RequireSpecialty    bool
	MaxGroupsPerRun     int
	MaxBlocksPerSession int
	DefaultBlockMinutes int
}

// SchedulerSettingsFromConfig maps the config section onto engine settings.
func SchedulerSettingsFromConfig(cfg config.SchedulerConfig) SchedulerSettings {
	return SchedulerSettings{
		Weights: scheduling.Weights{
			Coverage:    cfg.CoverageWeight,
			Specialty:   cfg.SpecialtyBonus,
			Collision:   cfg.CollisionPenalty,
			Load:        cfg.LoadPenalty,
			LoadCeiling: cfg.LoadCeiling,
		},
		RequireSpecialty:    cfg.RequireSpecialty,
		MaxGroupsPerRun:     cfg.MaxGroupsPerRun,
		MaxBlocksPerSession: cfg.MaxBlocksPerSession,
		DefaultBlockMinutes: cfg.DefaultBlockMinutes,
	}
}

func (s SchedulerSettings) withDefaults() SchedulerSettings {
	if s.Weights == (scheduling.Weights{}) {
		s.Weights = scheduling.DefaultWeights()
	}
	if s.MaxGroupsPerRun <= 0 {
		s.MaxGroupsPerRun = 200
	}
	if s.MaxBlocksPerSession <= 0 {
		s.MaxBlocksPerSession = scheduling.DefaultMaxBlocksPerSession
	}
	if s.DefaultBlockMinutes <= 0 {
		s.DefaultBlockMinutes = models.DefaultBlockMinutes
	}
	return s
}

func (s SchedulerSettings) blockMinutes(calendar *models.Calendar) int {
	if calendar != nil && calendar.BlockDurationMin > 0 {
		return calendar.BlockDurationMin
	}
	return s.DefaultBlockMinutes
}

func (s SchedulerSettings) checkGroupBound(n int) error {
	if n > s.MaxGroupsPerRun {
		return appErrors.Clone(appErrors.ErrValidation, "too many groups for one run, narrow the course or shift filter")
	}
	return nil
}

func commitOrWrap(tx *sqlx.Tx, msg string) error {
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
	return nil
}
