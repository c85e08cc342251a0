package events

import (
	"context"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	redisclient "github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/redis"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

func setupBus(t *testing.T) providers.EventBus {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := redisclient.NewClient(&config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	bus := NewRedisEventBus(client)
	t.Cleanup(func() { bus.Close() })
	return bus
}

func waitForEvent(t *testing.T, events <-chan *entities.DownloadEvent) *entities.DownloadEvent {
	t.Helper()
	select {
	case got := <-events:
		require.NotNil(t, got)
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	bus := setupBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetRequestChannel("req-1")
	events, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	event := entities.NewDownloadEvent("req-1", "S1A_IW_GRDH_20230605", "vv", entities.DownloadEventAssetDone, nil)
	require.NoError(t, bus.Publish(ctx, channel, event))

	got := waitForEvent(t, events)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, entities.DownloadEventAssetDone, got.EventType)
	assert.Equal(t, "vv", got.Role)
	assert.Equal(t, "req-1", got.RequestID)
}

func TestRedisEventBus_MultipleSubscribers(t *testing.T) {
	bus := setupBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx, providers.EventChannelDownloads)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, providers.EventChannelDownloads)
	require.NoError(t, err)

	event := entities.NewDownloadEvent("req-2", "S2B_52SFB_20230605_0_L2A", "", entities.DownloadEventSceneSelected, nil)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelDownloads, event))

	assert.Equal(t, event.ID, waitForEvent(t, first).ID)
	assert.Equal(t, event.ID, waitForEvent(t, second).ID)
}

func TestRedisEventBus_ChannelIsolation(t *testing.T) {
	bus := setupBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	other, err := bus.Subscribe(ctx, providers.GetRequestChannel("other"))
	require.NoError(t, err)

	event := entities.NewDownloadEvent("req-3", "", "", entities.DownloadEventSceneMissing, nil)
	require.NoError(t, bus.Publish(ctx, providers.GetRequestChannel("req-3"), event))

	select {
	case got := <-other:
		t.Fatalf("event leaked across request channels: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRedisEventBus_SubscriberCancellation(t *testing.T) {
	bus := setupBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.Subscribe(ctx, providers.EventChannelDownloads)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open, "channel should close after context cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
