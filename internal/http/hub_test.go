package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"netchi-api-go/internal/models"
)

type hubFrame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func dialHub(t *testing.T, srv *httptest.Server, bearer string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/hubs/order?access_token=" + bearer
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) hubFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f hubFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func expectFrame(t *testing.T, conn *websocket.Conn, typ string) hubFrame {
	t.Helper()
	f := readFrame(t, conn)
	if f.Type != typ {
		t.Fatalf("frame type = %q, want %q (data %v)", f.Type, typ, f.Data)
	}
	return f
}

func TestHubPushesStatusChange(t *testing.T) {
	ts := newTestServer(t, testConfig())
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	alice := ts.register(t, "alice", "+15550001", "secret1")
	o := createOrder(t, ts, alice.Token, map[string]any{"amount": 5})

	conn := dialHub(t, srv, alice.Token)
	expectFrame(t, conn, "Connected")

	if err := conn.WriteJSON(map[string]string{"type": "join", "orderId": o.ID.String()}); err != nil {
		t.Fatalf("join: %v", err)
	}
	expectFrame(t, conn, "Joined")

	rec := ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), alice.Token, map[string]any{"status": "InProgress"})
	if rec.Code != 200 {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	f := expectFrame(t, conn, "OrderStatusChanged")
	if f.Data["orderId"] != o.ID.String() || f.Data["status"] != string(models.OrderInProgress) {
		t.Fatalf("event data = %v", f.Data)
	}
	if _, ok := f.Data["timestamp"]; !ok {
		t.Fatalf("event has no timestamp: %v", f.Data)
	}
}

func TestHubSkipsUnchangedStatus(t *testing.T) {
	ts := newTestServer(t, testConfig())
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	alice := ts.register(t, "alice", "+15550001", "secret1")
	o := createOrder(t, ts, alice.Token, map[string]any{"amount": 5})

	conn := dialHub(t, srv, alice.Token)
	expectFrame(t, conn, "Connected")
	conn.WriteJSON(map[string]string{"type": "join", "orderId": o.ID.String()})
	expectFrame(t, conn, "Joined")

	// Same status, only the description changes.
	ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), alice.Token, map[string]any{"status": "Pending", "description": "x"})
	ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), alice.Token, map[string]any{"status": "Cancelled"})

	f := expectFrame(t, conn, "OrderStatusChanged")
	if f.Data["status"] != string(models.OrderCancelled) {
		t.Fatalf("first event status = %v, want Cancelled", f.Data["status"])
	}
}

func TestHubRejectsForeignOrder(t *testing.T) {
	ts := newTestServer(t, testConfig())
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	alice := ts.register(t, "alice", "+15550001", "secret1")
	bob := ts.register(t, "bob", "+15550002", "secret2")
	o := createOrder(t, ts, alice.Token, map[string]any{"amount": 5})

	conn := dialHub(t, srv, bob.Token)
	expectFrame(t, conn, "Connected")
	conn.WriteJSON(map[string]string{"type": "join", "orderId": o.ID.String()})
	expectFrame(t, conn, "error")

	conn.WriteJSON(map[string]string{"type": "join", "orderId": "nope"})
	expectFrame(t, conn, "error")
}

func TestHubLeaveStopsEvents(t *testing.T) {
	ts := newTestServer(t, testConfig())
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	admin := ts.adminToken(t)
	alice := ts.register(t, "alice", "+15550001", "secret1")
	first := createOrder(t, ts, alice.Token, map[string]any{"amount": 1})
	second := createOrder(t, ts, alice.Token, map[string]any{"amount": 2})

	conn := dialHub(t, srv, admin)
	expectFrame(t, conn, "Connected")
	for _, id := range []string{first.ID.String(), second.ID.String()} {
		conn.WriteJSON(map[string]string{"type": "join", "orderId": id})
		expectFrame(t, conn, "Joined")
	}
	conn.WriteJSON(map[string]string{"type": "leave", "orderId": first.ID.String()})
	expectFrame(t, conn, "Left")

	ts.do(t, "PUT", "/api/v1/orders/"+first.ID.String(), admin, map[string]any{"status": "Failed"})
	ts.do(t, "PUT", "/api/v1/orders/"+second.ID.String(), admin, map[string]any{"status": "Confirmed"})

	f := expectFrame(t, conn, "OrderStatusChanged")
	if f.Data["orderId"] != second.ID.String() {
		t.Fatalf("event for %v, want only %s", f.Data["orderId"], second.ID)
	}
}

func TestHubRequiresToken(t *testing.T) {
	ts := newTestServer(t, testConfig())
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/hubs/order"
	for _, q := range []string{"", "?access_token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+q, nil)
		if err == nil {
			t.Fatalf("dial %q succeeded without a valid token", q)
		}
		if resp == nil || resp.StatusCode != 401 {
			t.Fatalf("dial %q: resp = %v", q, resp)
		}
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	h := newHub(zap.NewNop())
	h.PublishStatus(uuid.New(), models.OrderPending, time.Now())
	if len(h.groups) != 0 {
		t.Fatalf("groups = %d", len(h.groups))
	}
}
