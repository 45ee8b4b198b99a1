package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unibus-go-api/internal/dto"
)

func newMonitorFixture() *monitorService {
	svc := NewMonitorService(nil, "", zerolog.Nop())
	return svc.(*monitorService)
}

func TestMonitorFanout(t *testing.T) {
	svc := newMonitorFixture()

	first, cancelFirst := svc.Subscribe()
	second, cancelSecond := svc.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	event := dto.ScanEvent{
		ShiftID:     "SH-1",
		StudentID:   "S42",
		StudentName: "Amr Ali",
		ScanTime:    time.Now().UTC(),
		TotalScans:  7,
	}
	svc.PublishScan(context.Background(), event)

	for _, channel := range []<-chan dto.ScanEvent{first, second} {
		select {
		case got := <-channel:
			require.Equal(t, "S42", got.StudentID)
			require.EqualValues(t, 7, got.TotalScans)
		case <-time.After(time.Second):
			t.Fatal("monitor did not receive the scan event")
		}
	}
}

func TestMonitorUnsubscribeClosesChannel(t *testing.T) {
	svc := newMonitorFixture()

	channel, cancel := svc.Subscribe()
	cancel()

	_, open := <-channel
	require.False(t, open)

	// A second cancel must not close the channel twice.
	cancel()

	svc.PublishScan(context.Background(), dto.ScanEvent{ShiftID: "SH-1"})
}

func TestMonitorSlowSubscriberDropsEvents(t *testing.T) {
	svc := newMonitorFixture()

	channel, cancel := svc.Subscribe()
	defer cancel()

	for i := 0; i < scanEventBufferSize+5; i++ {
		svc.broker.broadcast(dto.ScanEvent{ShiftID: "SH-1", TotalScans: int64(i + 1)})
	}

	// The buffer holds the oldest events; the overflow was dropped.
	require.Len(t, channel, scanEventBufferSize)
	got := <-channel
	require.EqualValues(t, 1, got.TotalScans)
}

func TestMonitorSkipsOwnRelayedEvents(t *testing.T) {
	svc := newMonitorFixture()

	channel, cancel := svc.Subscribe()
	defer cancel()

	own, err := json.Marshal(scanEventEnvelope{Source: svc.nodeID, Event: dto.ScanEvent{ShiftID: "SH-1"}})
	require.NoError(t, err)
	svc.handleEvent(own)
	require.Empty(t, channel)

	remote, err := json.Marshal(scanEventEnvelope{Source: "other-node", Event: dto.ScanEvent{ShiftID: "SH-2"}})
	require.NoError(t, err)
	svc.handleEvent(remote)

	select {
	case got := <-channel:
		require.Equal(t, "SH-2", got.ShiftID)
	case <-time.After(time.Second):
		t.Fatal("relayed event was not delivered")
	}
}
