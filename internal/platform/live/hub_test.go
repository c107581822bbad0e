package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/middleware"
	"github.com/ehr/hospital-console/internal/platform/session"
)

func recv(t *testing.T, c *client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestHub_TopicRouting(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	citas := newClient("a", []string{"citas"})
	facturas := newClient("b", []string{"facturas"})
	hub.register(citas)
	hub.register(facturas)

	if hub.ClientCount() != 2 || hub.TopicCount("citas") != 1 {
		t.Fatalf("clients=%d citas=%d", hub.ClientCount(), hub.TopicCount("citas"))
	}

	hub.Broadcast(Event{Type: EventRecordCreated, Topic: "citas", ResourceID: "9"})
	if ev := recv(t, citas); ev.ResourceID != "9" {
		t.Errorf("ResourceID = %q", ev.ResourceID)
	}
	if len(facturas.send) != 0 {
		t.Error("facturas subscriber received a citas event")
	}

	hub.unregister(citas)
	hub.unregister(citas)
	if hub.TopicCount("citas") != 0 {
		t.Errorf("citas topic still has %d clients", hub.TopicCount("citas"))
	}
	if _, ok := <-citas.send; ok {
		t.Error("send channel not closed")
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newClient("a", nil)
	hub.register(c)

	hub.process(c, ClientMessage{Action: "subscribe", Topics: []string{"citas", "", "facturas"}})
	if hub.TopicCount("citas") != 1 || hub.TopicCount("facturas") != 1 || hub.TopicCount("") != 0 {
		t.Fatalf("unexpected topic counts after subscribe")
	}
	hub.process(c, ClientMessage{Action: "unsubscribe", Topics: []string{"citas"}})
	if hub.TopicCount("citas") != 0 {
		t.Error("citas still subscribed")
	}
	if _, ok := c.topics["facturas"]; !ok {
		t.Error("facturas dropped from client topics")
	}
}

func TestHub_RecordAccess(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newClient("a", []string{auth.RouteNurses})
	hub.register(c)

	entry := middleware.AuditEntry{Resource: auth.RouteNurses, ResourceID: "3", StatusCode: http.StatusOK}

	entry.Action = "read"
	hub.RecordAccess(entry)
	entry.Action, entry.StatusCode = "update", http.StatusUnprocessableEntity
	hub.RecordAccess(entry)
	if len(c.send) != 0 {
		t.Fatalf("reads and failed writes must not be broadcast, got %d", len(c.send))
	}

	entry.Action, entry.StatusCode = "delete", http.StatusNoContent
	hub.RecordAccess(entry)
	ev := recv(t, c)
	if ev.Type != EventRecordDeleted || ev.Topic != auth.RouteNurses || ev.ResourceID != "3" {
		t.Errorf("event = %+v", ev)
	}
}

func TestHub_RecordAccessSubActions(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newClient("a", []string{auth.RouteUsers})
	hub.register(c)

	entry := middleware.AuditEntry{Resource: auth.RouteUsers, ResourceID: "7", StatusCode: http.StatusOK}

	entry.Action = middleware.ActionChangePassword
	hub.RecordAccess(entry)
	if len(c.send) != 0 {
		t.Fatalf("password changes must not be broadcast, got %d", len(c.send))
	}

	entry.Action = middleware.ActionReactivate
	hub.RecordAccess(entry)
	if ev := recv(t, c); ev.Type != EventRecordUpdated || ev.ResourceID != "7" {
		t.Errorf("reactivate event = %+v", ev)
	}

	entry.Action = middleware.ActionPurge
	hub.RecordAccess(entry)
	if ev := recv(t, c); ev.Type != EventRecordDeleted {
		t.Errorf("purge event = %+v", ev)
	}
}

func TestHub_RelaySession(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newClient("a", []string{TopicSession})
	hub.register(c)

	profiles := make(chan *session.UserProfile, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.RelaySession(ctx, profiles)
		close(done)
	}()

	profiles <- &session.UserProfile{ID: "7", Role: auth.RoleConsumer}
	ev := recv(t, c)
	if ev.Type != EventSessionChanged || !strings.Contains(string(ev.Data), `"consumidor"`) {
		t.Errorf("event = %+v data=%s", ev, ev.Data)
	}

	profiles <- nil
	if ev := recv(t, c); string(ev.Data) != "null" {
		t.Errorf("logout data = %s, want null", ev.Data)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on cancel")
	}
}

func TestHandler_WebSocket(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	e := echo.New()
	NewHandler(hub, []string{"http://console.test"}).RegisterRoutes(e.Group("/api/v1"))
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live?topics=citas"

	header := http.Header{"Origin": []string{"http://evil.test"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected foreign origin to be rejected")
	}

	ws, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://console.test"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(time.Second)
	for hub.TopicCount("citas") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.RecordAccess(middleware.AuditEntry{Resource: "citas", ResourceID: "12", Action: "create", StatusCode: http.StatusCreated})

	ws.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	if err := ws.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != EventRecordCreated || ev.ResourceID != "12" {
		t.Errorf("event = %+v", ev)
	}

	if err := ws.WriteJSON(ClientMessage{Action: "subscribe", Topics: []string{TopicSession}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline = time.Now().Add(time.Second)
	for hub.TopicCount(TopicSession) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.TopicCount(TopicSession) != 1 {
		t.Error("subscribe message not applied")
	}
}
