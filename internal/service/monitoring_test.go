package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"heat_controller/internal/device"
	"heat_controller/internal/models"
)

func TestMonitoring_Status(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		snap          models.Snapshot
		snapErr       error
		wantErr       bool
		wantConnected bool
		wantNotices   []string
	}{
		{
			name:          "reachable",
			snap:          models.Snapshot{Relay: true, Readings: []int{215}, Average: 21.5},
			wantConnected: true,
		},
		{
			name:        "unreachable is not an error",
			snapErr:     errUnreachable,
			wantNotices: []string{models.NoticeConnectivityLost},
		},
		{
			name:          "malformed reply keeps the link up",
			snapErr:       device.ErrMalformed,
			wantErr:       true,
			wantConnected: true,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			notices := &fakeNoticeRepo{}
			dev := &fakeDevice{snapshot: tc.snap, snapErr: tc.snapErr}
			s := NewMonitoringService(dev, newCache(line(42, 0)), newLinkState(notices, nil, nil))
			s.now = func() time.Time { return fixed }

			st, err := s.Status(context.Background(), false)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v; wantErr %v", err, tc.wantErr)
			}
			if st.Connected != tc.wantConnected {
				t.Fatalf("connected = %v; want %v", st.Connected, tc.wantConnected)
			}
			if st.Watermark != 42 || st.CachedRows != 1 || !st.CheckedAt.Equal(fixed) {
				t.Fatalf("unexpected cache fields: %+v", st)
			}
			if tc.wantConnected && tc.snapErr == nil && (st.Snapshot == nil || !st.Snapshot.Relay) {
				t.Fatalf("snapshot not attached: %+v", st)
			}
			if !tc.wantConnected && st.LastError == "" {
				t.Fatal("last error not reported")
			}
			if got := notices.kinds(); len(got) != len(tc.wantNotices) {
				t.Fatalf("notices = %v; want %v", got, tc.wantNotices)
			}
			if errors.Is(tc.snapErr, device.ErrMalformed) && !errors.Is(err, device.ErrMalformed) {
				t.Fatalf("malformed error lost: %v", err)
			}
		})
	}
}
