package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/internal/model"
	"github.com/immersionlab/backend/internal/repository"
	"github.com/immersionlab/backend/pkg/enum"
	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ImmersionLogDomain interface {
	Create(context.Context, *model.CreateImmersionLogRequest) (*model.CreateImmersionLogResponse, error)
	Update(context.Context, *model.UpdateImmersionLogRequest) (*model.UpdateImmersionLogResponse, error)
	Delete(context.Context, *model.DeleteImmersionLogRequest) (*model.DeleteImmersionLogResponse, error)
	GetMyLogs(context.Context, *model.GetImmersionLogsRequest) (*model.GetImmersionLogsResponse, error)
}

type immersionLogDomain struct {
	immersionLogRepo  repository.ImmersionLogRepository
	userRepo          repository.UserRepository
	progressionDomain ProgressionDomain
	curve             progression.LevelCurve
}

func NewImmersionLogDomain(
	immersionLogRepo repository.ImmersionLogRepository,
	userRepo repository.UserRepository,
	progressionDomain ProgressionDomain,
	curve progression.LevelCurve,
) *immersionLogDomain {
	return &immersionLogDomain{
		immersionLogRepo:  immersionLogRepo,
		userRepo:          userRepo,
		progressionDomain: progressionDomain,
		curve:             curve,
	}
}

func (d *immersionLogDomain) Create(
	ctx context.Context, req *model.CreateImmersionLogRequest,
) (*model.CreateImmersionLogResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if _, err := d.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	log := &entity.ImmersionLog{
		Base:   entity.Base{ID: uuid.NewString()},
		UserID: userID,
	}

	err := fillImmersionLog(log, req.Type, req.Title, req.Time, req.Chars, req.Pages,
		req.Episodes, req.Date, req.Timezone)
	if err != nil {
		return nil, err
	}

	xp, err := validateImmersionLog(log)
	if err != nil {
		return nil, err
	}

	if err := d.immersionLogRepo.Create(ctx, log); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create immersion log: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.CreateImmersionLogResponse{Log: convertImmersionLog(log, xp)}
	resp.Progression, resp.Events = d.recompute(ctx, userID)
	return resp, nil
}

func (d *immersionLogDomain) Update(
	ctx context.Context, req *model.UpdateImmersionLogRequest,
) (*model.UpdateImmersionLogResponse, error) {
	log, err := d.getOwnedLog(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Type == "" {
		req.Type = string(log.Type)
	}

	if req.Title == "" {
		req.Title = log.Title
	}

	if req.Date == "" {
		req.Date = log.Date.Format(time.RFC3339Nano)
	}

	if req.Timezone == "" {
		req.Timezone = log.Timezone
	}

	if req.Time == nil {
		req.Time = convertNullInt64(log.Time)
	}

	if req.Chars == nil {
		req.Chars = convertNullInt64(log.Chars)
	}

	if req.Pages == nil {
		req.Pages = convertNullInt64(log.Pages)
	}

	if req.Episodes == nil {
		req.Episodes = convertNullInt64(log.Episodes)
	}

	err = fillImmersionLog(log, req.Type, req.Title, req.Time, req.Chars, req.Pages,
		req.Episodes, req.Date, req.Timezone)
	if err != nil {
		return nil, err
	}

	xp, err := validateImmersionLog(log)
	if err != nil {
		return nil, err
	}

	if err := d.immersionLogRepo.Update(ctx, log); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update immersion log: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.UpdateImmersionLogResponse{Log: convertImmersionLog(log, xp)}
	resp.Progression, resp.Events = d.recompute(ctx, log.UserID)
	return resp, nil
}

func (d *immersionLogDomain) Delete(
	ctx context.Context, req *model.DeleteImmersionLogRequest,
) (*model.DeleteImmersionLogResponse, error) {
	log, err := d.getOwnedLog(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Hard {
		err = d.immersionLogRepo.HardDelete(ctx, log.ID)
	} else {
		err = d.immersionLogRepo.Delete(ctx, log.ID)
	}

	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete immersion log: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.DeleteImmersionLogResponse{}
	resp.Progression, resp.Events = d.recompute(ctx, log.UserID)
	return resp, nil
}

func (d *immersionLogDomain) GetMyLogs(
	ctx context.Context, req *model.GetImmersionLogsRequest,
) (*model.GetImmersionLogsResponse, error) {
	logs, err := d.immersionLogRepo.GetByUserID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get immersion logs: %v", err)
		return nil, errorx.Unknown
	}

	clientLogs := []model.ImmersionLog{}
	for i := range logs {
		xp := uint64(0)
		if metrics, err := progression.Normalize(&logs[i]); err == nil {
			xp = progression.XP(logs[i].Type, metrics)
		}

		clientLogs = append(clientLogs, convertImmersionLog(&logs[i], xp))
	}

	return &model.GetImmersionLogsResponse{Logs: clientLogs}, nil
}

func (d *immersionLogDomain) getOwnedLog(ctx context.Context, id string) (*entity.ImmersionLog, error) {
	log, err := d.immersionLogRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found immersion log")
		}

		xcontext.Logger(ctx).Errorf("Cannot get immersion log: %v", err)
		return nil, errorx.Unknown
	}

	if log.UserID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return log, nil
}

// recompute runs after the log mutation is stored. A failure leaves the stored
// progression behind the logs until the next successful recompute, so it is
// logged instead of failing the request.
func (d *immersionLogDomain) recompute(
	ctx context.Context, userID string,
) (*model.Progression, []model.ProgressionEvent) {
	rec, err := d.progressionDomain.Recompute(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Progression of %s is not recomputed: %v", userID, err)
		return nil, []model.ProgressionEvent{}
	}

	p := convertProgression(rec.Progression, rec.Stats, d.curve)
	return &p, convertEvents(rec.Events)
}

func fillImmersionLog(
	log *entity.ImmersionLog,
	logType, title string,
	minutes, chars, pages, episodes *int64,
	date, timezone string,
) error {
	t, err := enum.ToEnum[entity.ImmersionType](logType)
	if err != nil {
		return errorx.New(errorx.BadRequest, "Invalid immersion type %q", logType)
	}

	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return errorx.New(errorx.BadRequest, "Invalid timezone %q", timezone)
		}
	}

	logDate := time.Now()
	if date != "" {
		logDate, err = time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return errorx.New(errorx.BadRequest, "Invalid date, require RFC3339 format")
		}
	}

	log.Type = t
	log.Title = title
	log.Time = toNullInt64(minutes)
	log.Chars = toNullInt64(chars)
	log.Pages = toNullInt64(pages)
	log.Episodes = toNullInt64(episodes)
	log.Date = logDate.UTC()
	log.Timezone = timezone
	return nil
}

func validateImmersionLog(log *entity.ImmersionLog) (uint64, error) {
	metrics, err := progression.Normalize(log)
	if err != nil {
		var invalidErr *progression.InvalidMetricError
		if errors.As(err, &invalidErr) {
			return 0, errorx.New(errorx.InvalidMetric, "Invalid log: %s", invalidErr.Reason)
		}

		return 0, errorx.New(errorx.BadRequest, "Invalid log: %v", err)
	}

	return progression.XP(log.Type, metrics), nil
}
