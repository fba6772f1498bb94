package http

import (
	"testing"

	"github.com/google/uuid"

	"netchi-api-go/internal/models"
)

func createOrder(t *testing.T, ts *testServer, bearer string, body map[string]any) models.Order {
	t.Helper()
	rec := ts.do(t, "POST", "/api/v1/orders", bearer, body)
	if rec.Code != 201 {
		t.Fatalf("create order: status %d body %s", rec.Code, rec.Body.String())
	}
	var o models.Order
	decode(t, rec, &o)
	return o
}

func TestOrderLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.register(t, "alice", "+15550001", "secret1")

	o := createOrder(t, ts, alice.Token, map[string]any{"description": "2h gaming", "amount": 12.5})
	if o.UserID != alice.User.ID || o.Status != models.OrderPending || o.OrderNumber == "" {
		t.Fatalf("created = %+v", o)
	}

	rec := ts.do(t, "GET", "/api/v1/orders/"+o.ID.String(), alice.Token, nil)
	if rec.Code != 200 {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec = ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), alice.Token, map[string]any{
		"description": "3h gaming", "status": "Completed", "amount": 18,
	})
	if rec.Code != 200 {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	var updated models.Order
	decode(t, rec, &updated)
	if updated.Status != models.OrderCompleted || updated.Amount != 18 || updated.CompletedAt == nil || updated.UpdatedAt == nil {
		t.Fatalf("updated = %+v", updated)
	}

	rec = ts.do(t, "GET", "/api/v1/orders/user/"+alice.User.ID.String(), alice.Token, nil)
	var mine []models.Order
	decode(t, rec, &mine)
	if rec.Code != 200 || len(mine) != 1 {
		t.Fatalf("list mine: status %d, %d orders", rec.Code, len(mine))
	}
}

func TestOrderUpdateKeepsAmountWhenNull(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.register(t, "alice", "+15550001", "secret1")
	o := createOrder(t, ts, alice.Token, map[string]any{"amount": 7})

	rec := ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), alice.Token, map[string]any{"status": "Confirmed", "amount": nil})
	var updated models.Order
	decode(t, rec, &updated)
	if rec.Code != 200 || updated.Amount != 7 || updated.CompletedAt != nil {
		t.Fatalf("status %d updated = %+v", rec.Code, updated)
	}
}

func TestOrderValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.register(t, "alice", "+15550001", "secret1")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing amount", map[string]any{"description": "x"}},
		{"negative amount", map[string]any{"amount": -1}},
		{"bad user id", map[string]any{"amount": 1, "userId": "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, "POST", "/api/v1/orders", alice.Token, tc.body)
			if rec.Code != 400 {
				t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
			}
		})
	}

	o := createOrder(t, ts, alice.Token, map[string]any{"amount": 1})
	rec := ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), alice.Token, map[string]any{"status": "Lost"})
	if rec.Code != 400 {
		t.Fatalf("bad status: %d", rec.Code)
	}
	rec = ts.do(t, "GET", "/api/v1/orders/not-a-uuid", alice.Token, nil)
	if rec.Code != 400 {
		t.Fatalf("bad id: %d", rec.Code)
	}
}

func TestOrderOwnership(t *testing.T) {
	ts := newTestServer(t, testConfig())
	alice := ts.register(t, "alice", "+15550001", "secret1")
	bob := ts.register(t, "bob", "+15550002", "secret2")
	o := createOrder(t, ts, alice.Token, map[string]any{"amount": 5})

	rec := ts.do(t, "GET", "/api/v1/orders/"+o.ID.String(), bob.Token, nil)
	if rec.Code != 404 {
		t.Fatalf("foreign get: %d", rec.Code)
	}
	rec = ts.do(t, "PUT", "/api/v1/orders/"+o.ID.String(), bob.Token, map[string]any{"status": "Cancelled"})
	if rec.Code != 404 {
		t.Fatalf("foreign update: %d", rec.Code)
	}
	rec = ts.do(t, "GET", "/api/v1/orders/user/"+alice.User.ID.String(), bob.Token, nil)
	if rec.Code != 403 {
		t.Fatalf("foreign list: %d", rec.Code)
	}
	rec = ts.do(t, "POST", "/api/v1/orders", bob.Token, map[string]any{"amount": 1, "userId": alice.User.ID.String()})
	if rec.Code != 403 {
		t.Fatalf("create for other user: %d", rec.Code)
	}
	rec = ts.do(t, "GET", "/api/v1/orders", bob.Token, nil)
	if rec.Code != 403 {
		t.Fatalf("list all as customer: %d", rec.Code)
	}
	rec = ts.do(t, "DELETE", "/api/v1/orders/"+o.ID.String(), alice.Token, nil)
	if rec.Code != 403 {
		t.Fatalf("delete as customer: %d", rec.Code)
	}
}

func TestAdminOrders(t *testing.T) {
	ts := newTestServer(t, testConfig())
	admin := ts.adminToken(t)
	alice := ts.register(t, "alice", "+15550001", "secret1")

	o := createOrder(t, ts, admin, map[string]any{"amount": 3, "userId": alice.User.ID.String(), "orderNumber": "A-1"})
	if o.UserID != alice.User.ID || o.OrderNumber != "A-1" {
		t.Fatalf("created = %+v", o)
	}
	createOrder(t, ts, alice.Token, map[string]any{"amount": 4})

	rec := ts.do(t, "GET", "/api/v1/orders", admin, nil)
	var all []models.Order
	decode(t, rec, &all)
	if rec.Code != 200 || len(all) != 2 {
		t.Fatalf("list all: status %d, %d orders", rec.Code, len(all))
	}

	rec = ts.do(t, "POST", "/api/v1/orders", admin, map[string]any{"amount": 1, "userId": uuid.NewString()})
	if rec.Code != 400 {
		t.Fatalf("unknown user: %d body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, "DELETE", "/api/v1/orders/"+o.ID.String(), admin, nil)
	if rec.Code != 204 {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = ts.do(t, "DELETE", "/api/v1/orders/"+o.ID.String(), admin, nil)
	if rec.Code != 404 {
		t.Fatalf("delete again: %d", rec.Code)
	}
}
