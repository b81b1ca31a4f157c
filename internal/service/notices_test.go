package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"heat_controller/internal/models"
)

func fixedZone(name string, offsetSec int) *time.Location {
	return time.FixedZone(name, offsetSec)
}

func mustTimeIn(loc *time.Location, y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func Test_normalizeToUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want func(time.Time) bool
	}{
		{
			name: "zero time remains zero",
			in:   time.Time{},
			want: func(out time.Time) bool { return out.IsZero() },
		},
		{
			name: "non-UTC converted to UTC preserving instant",
			in:   mustTimeIn(fixedZone("UTC+3", 3*3600), 2025, time.August, 1, 12, 34, 56),
			want: func(out time.Time) bool {
				exp := time.Date(2025, time.August, 1, 9, 34, 56, 0, time.UTC)
				return out.Location() == time.UTC && out.Equal(exp)
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeToUTC(tc.in)
			if !tc.want(got) {
				t.Fatalf("unexpected normalizeToUTC result: %v (loc=%v)", got, got.Location())
			}
		})
	}
}

func Test_normalizeKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, exp string
	}{
		{in: "", exp: ""},
		{in: "  PURGE ", exp: "PURGE"},
		{in: "cache_reset", exp: "CACHE_RESET"},
	}
	for _, c := range cases {
		if got := normalizeKind(c.in); got != c.exp {
			t.Fatalf("normalizeKind(%q) = %q; want %q", c.in, got, c.exp)
		}
	}
}

func TestNoticeLog_List(t *testing.T) {
	t.Parallel()

	from := mustTimeIn(fixedZone("UTC+2", 2*3600), 2025, time.September, 10, 10, 0, 0)
	to := time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC)

	t.Run("passes normalized filter", func(t *testing.T) {
		repo := &fakeNoticeRepo{notices: []models.Notice{{Kind: models.NoticePurge}}}
		s := NewNoticeLogService(repo)
		got, err := s.List(context.Background(), LogFilter{From: from, To: to, Kind: " purge"})
		if err != nil || len(got) != 1 {
			t.Fatalf("List = %v, %v", got, err)
		}
		if !repo.gotFrom.Equal(from) || repo.gotFrom.Location() != time.UTC || repo.gotKind != "PURGE" {
			t.Fatalf("filter not normalized: from=%v kind=%q", repo.gotFrom, repo.gotKind)
		}
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		repo := &fakeNoticeRepo{}
		s := NewNoticeLogService(repo)
		if _, err := s.List(context.Background(), LogFilter{From: to, To: from}); !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("err = %v; want ErrInvalidTimeRange", err)
		}
	})

	t.Run("propagates repo error", func(t *testing.T) {
		boom := errors.New("db down")
		s := NewNoticeLogService(&fakeNoticeRepo{listErr: boom})
		if _, err := s.List(context.Background(), LogFilter{}); !errors.Is(err, boom) {
			t.Fatalf("err = %v; want %v", err, boom)
		}
	})
}
