package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/telemetry_sender/internal/frame"
)

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *fakePublisher) Close() {}

var testFrom = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}

func encodedDefault(t *testing.T) []byte {
	t.Helper()
	b, err := frame.Default().MarshalBinary()
	require.NoError(t, err)
	return b
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
}

func TestReceiver_HandlePacketPublishes(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReceiver(pub, "telemetry/frame")
	r.now = fixedNow

	r.HandlePacket(encodedDefault(t), testFrom)

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "telemetry/frame", pub.topics[0])

	var msg FrameMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	want := FrameMessage{Received: fixedNow(), From: "127.0.0.1:40000", Frame: frame.Default()}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("published message mismatch (-want +got):\n%s", diff)
	}

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, want, last)
	assert.Equal(t, ReceiverStats{Frames: 1}, r.Stats())
}

func TestReceiver_RejectsWrongLength(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReceiver(pub, "telemetry/frame")

	r.HandlePacket(make([]byte, frame.Size-1), testFrom)
	r.HandlePacket(make([]byte, frame.Size+1), nil)

	assert.Empty(t, pub.payloads)
	_, ok := r.Last()
	assert.False(t, ok)
	assert.Equal(t, ReceiverStats{Rejected: 2}, r.Stats())
}

func TestReceiver_PublishErrorIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker gone")}
	r := NewReceiver(pub, "telemetry/frame")

	r.HandlePacket(encodedDefault(t), testFrom)

	_, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), r.Stats().Frames)
}

func TestReceiver_NilPublisher(t *testing.T) {
	r := NewReceiver(nil, "")
	r.HandlePacket(encodedDefault(t), testFrom)
	assert.Equal(t, uint64(1), r.Stats().Frames)
}

func TestReceiver_HTTPAPI(t *testing.T) {
	r := NewReceiver(nil, "")
	r.now = fixedNow
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/frame")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	r.HandlePacket(encodedDefault(t), testFrom)

	resp, err = http.Get(srv.URL + "/api/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var msg FrameMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, frame.Default(), msg.Frame)

	statsResp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	var stats ReceiverStats
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Equal(t, ReceiverStats{Frames: 1}, stats)
}

func TestReceiver_WebsocketBroadcast(t *testing.T) {
	r := NewReceiver(nil, "")
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return r.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	r.HandlePacket(encodedDefault(t), testFrom)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg FrameMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, frame.Default(), msg.Frame)
	assert.Equal(t, "127.0.0.1:40000", msg.From)

	conn.Close()
	require.Eventually(t, func() bool { return r.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestReceiver_NonFiniteFrameIsRelayed(t *testing.T) {
	vals := frame.Default().Values()
	vals[1] = math.Inf(1)
	vals[17] = math.NaN()
	packet, err := frame.Pack(vals...)
	require.NoError(t, err)

	pub := &fakePublisher{}
	r := NewReceiver(pub, "telemetry/frame")
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	r.HandlePacket(packet, testFrom)

	assert.Equal(t, ReceiverStats{Frames: 1}, r.Stats())
	require.Len(t, pub.payloads, 1)
	assert.Contains(t, string(pub.payloads[0]), `"x":"+Inf"`)
	assert.Contains(t, string(pub.payloads[0]), `"altitude":"NaN"`)

	var published FrameMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &published))
	assert.True(t, math.IsInf(float64(published.Frame.Gyro.X), 1))
	assert.True(t, math.IsNaN(published.Frame.GPS.Altitude))

	resp, err := http.Get(srv.URL + "/api/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msg FrameMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.True(t, math.IsInf(float64(msg.Frame.Gyro.X), 1))
	assert.Equal(t, frame.Default().Accel, msg.Frame.Accel)
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, map[string]any{"bad": func() {}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestShutdownWebServer_LogsTimeout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		close(entered)
		<-release
	}))
	srv.Start()
	defer srv.Close()
	defer close(release)

	go func() {
		if resp, err := http.Get(srv.URL); err == nil {
			resp.Body.Close()
		}
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the handler")
	}

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	err := shutdownWebServer(srv.Config, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, logs.String(), "web server shutdown error")
}
