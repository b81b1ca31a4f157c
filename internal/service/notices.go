package service

import (
	"context"
	"strings"
	"time"

	"heat_controller/internal/models"
	"heat_controller/internal/repository"
)

type NoticeLogService struct {
	noticeRepo repository.NoticeRepo
}

func NewNoticeLogService(noticeRepo repository.NoticeRepo) *NoticeLogService {
	return &NoticeLogService{noticeRepo: noticeRepo}
}

// normalizeKind trims spaces and uppercases the kind filter.
func normalizeKind(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}
	return from, to, normalizeKind(f.Kind), nil
}

func (s *NoticeLogService) List(ctx context.Context, f LogFilter) ([]models.Notice, error) {
	from, to, kind, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.noticeRepo.List(ctx, from, to, kind)
}
