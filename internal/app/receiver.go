// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/telemetry_sender/internal/config"
	"github.com/relabs-tech/telemetry_sender/internal/frame"
	"github.com/relabs-tech/telemetry_sender/internal/transport"
)

// FrameMessage is the JSON form of a received frame, as relayed over MQTT,
// websocket and the HTTP API.
type FrameMessage struct {
	Received time.Time         `json:"received"`
	From     string            `json:"from"`
	Frame    frame.SensorFrame `json:"frame"`
}

// ReceiverStats counts datagrams seen by a Receiver.
type ReceiverStats struct {
	Frames   uint64 `json:"frames"`
	Rejected uint64 `json:"rejected"`
}

// Receiver decodes sensor frame datagrams and fans them out.
type Receiver struct {
	publisher Publisher // nil disables MQTT relaying
	topic     string
	hub       *Hub

	mu   sync.RWMutex
	last *FrameMessage

	frames   atomic.Uint64
	rejected atomic.Uint64

	now func() time.Time
}

// NewReceiver creates a receiver. publisher may be nil.
func NewReceiver(publisher Publisher, topic string) *Receiver {
	return &Receiver{
		publisher: publisher,
		topic:     topic,
		hub:       NewHub(),
		now:       time.Now,
	}
}

// HandlePacket decodes one datagram. Malformed datagrams are counted and
// logged, never fatal.
func (r *Receiver) HandlePacket(packet []byte, from net.Addr) {
	f, err := frame.Decode(packet)
	if err != nil {
		r.rejected.Add(1)
		log.Printf("receiver: rejected datagram from %v: %v", from, err)
		return
	}
	r.frames.Add(1)

	msg := FrameMessage{Received: r.now(), Frame: f}
	if from != nil {
		msg.From = from.String()
	}
	log.Printf("receiver: frame from %s: %s", msg.From, f)

	r.mu.Lock()
	r.last = &msg
	r.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("receiver: json marshal error: %v", err)
		return
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(r.topic, payload); err != nil {
			log.Printf("receiver: MQTT publish error (%s): %v", r.topic, err)
		}
	}
	r.hub.Broadcast(payload)
}

// Last returns the most recent frame, if any.
func (r *Receiver) Last() (FrameMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return FrameMessage{}, false
	}
	return *r.last, true
}

func (r *Receiver) Stats() ReceiverStats {
	return ReceiverStats{Frames: r.frames.Load(), Rejected: r.rejected.Load()}
}

// Handler serves the HTTP API and the websocket stream.
func (r *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/frame", func(w http.ResponseWriter, req *http.Request) {
		msg, ok := r.Last()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, msg)
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.Stats())
	})

	mux.Handle("/ws", r.hub)
	return mux
}

// writeJSON marshals before writing so an encode failure still gets a 500.
func writeJSON(w http.ResponseWriter, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("json encode error: %v", err)
		http.Error(w, "json encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(payload, '\n'))
}

// shutdownWebServer stops srv, waiting at most timeout for open requests.
func shutdownWebServer(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("receiver: web server shutdown error: %v", err)
		return err
	}
	return nil
}

// RunReceiver listens for sensor frames on RECEIVER_LISTEN_ADDR until ctx is
// cancelled, relaying them to MQTT and the web server when configured.
func RunReceiver(ctx context.Context, cfg *config.Config) error {
	var publisher Publisher
	if cfg.MQTTBroker != "" {
		p, err := NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientIDReceiver)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	recv := NewReceiver(publisher, cfg.TopicFrame)

	listener, err := transport.Listen(cfg.ReceiverListenAddr)
	if err != nil {
		return err
	}
	defer listener.Close()
	log.Printf("receiver: listening for %d-byte frames on %s", frame.Size, listener.LocalAddr())

	if cfg.WebServerPort > 0 {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
			Handler:           recv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("receiver: web server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("receiver: web server error: %v", err)
			}
		}()
		defer shutdownWebServer(srv, 2*time.Second)
	}

	err = listener.Serve(ctx, recv.HandlePacket)
	stats := recv.Stats()
	log.Printf("receiver: shutting down after %d frames (%d rejected)", stats.Frames, stats.Rejected)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
