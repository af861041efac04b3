// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testOrigin = "https://dash.example"

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func TestHandler_EndToEnd(t *testing.T) {
	t.Parallel()
	hub, _, _ := startHub(t)
	srv := httptest.NewServer(Handler(hub, []string{testOrigin}))
	defer srv.Close()

	conn, _, err := dial(t, srv, testOrigin)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.BroadcastJSON(MessageTypeFleetSynced, map[string]int{"rotated": 2})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageTypeFleetSynced || msg.Data["rotated"] != 2 {
		t.Errorf("got %+v", msg)
	}

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("ReadJSON(pong) error = %v", err)
	}
	if pong.Type != MessageTypePong {
		t.Errorf("reply type = %q, want pong", pong.Type)
	}
}

func TestHandler_RejectsOrigins(t *testing.T) {
	t.Parallel()
	hub, _, _ := startHub(t)
	srv := httptest.NewServer(Handler(hub, []string{testOrigin}))
	defer srv.Close()

	for _, origin := range []string{"", "https://evil.example"} {
		_, resp, err := dial(t, srv, origin)
		if err == nil {
			t.Errorf("origin %q: dial succeeded", origin)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: response %v, want 403", origin, resp)
		}
	}
}

func TestCheckOrigin_Wildcard(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anything.example")
	if !CheckOrigin([]string{"*"})(r) {
		t.Error("wildcard rejected origin")
	}
}
