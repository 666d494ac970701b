package paperledger

import (
	"errors"
	"strings"
	"testing"
)

func TestOrderRequest_Validate(t *testing.T) {
	valid := OrderRequest{
		UserID:   "alice",
		Symbol:   "RELIANCE",
		Side:     Buy,
		Type:     Market,
		Quantity: Q(10),
	}

	testCases := []struct {
		name    string
		mutate  func(r *OrderRequest)
		wantErr string // substring of the error, "" for valid
	}{
		{"valid market buy", func(r *OrderRequest) {}, ""},
		{"valid market sell", func(r *OrderRequest) { r.Side = Sell }, ""},
		{"valid limit", func(r *OrderRequest) {
			r.Type = Limit
			r.LimitPrice = M(95, "INR")
		}, ""},
		{"valid with client price", func(r *OrderRequest) { r.ClientPrice = M(101, "INR") }, ""},
		{"missing user", func(r *OrderRequest) { r.UserID = "" }, "user is missing"},
		{"missing symbol", func(r *OrderRequest) { r.Symbol = "" }, "symbol is missing"},
		{"unknown side", func(r *OrderRequest) { r.Side = "SHORT" }, "unknown side"},
		{"unknown type", func(r *OrderRequest) { r.Type = "STOP" }, "unknown order type"},
		{"zero quantity", func(r *OrderRequest) { r.Quantity = Q(0) }, "quantity must be positive"},
		{"negative quantity", func(r *OrderRequest) { r.Quantity = Q(-1) }, "quantity must be positive"},
		{"fractional quantity", func(r *OrderRequest) { r.Quantity = Q(2.5) }, "whole number"},
		{"limit without price", func(r *OrderRequest) { r.Type = Limit }, "limit price must be positive"},
		{"limit with negative price", func(r *OrderRequest) {
			r.Type = Limit
			r.LimitPrice = M(-5, "INR")
		}, "limit price must be positive"},
		{"negative client price", func(r *OrderRequest) { r.ClientPrice = M(-1, "INR") }, "client price"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := req.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Validate() error = %v, want ErrInvalidInput", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestOrderEligibility(t *testing.T) {
	testCases := []struct {
		name   string
		side   Side
		limit  float64
		market float64
		want   bool
	}{
		{"buy below market", Buy, 90, 100, false},
		{"buy at market", Buy, 100, 100, true},
		{"buy above market", Buy, 110, 100, true},
		{"sell above market", Sell, 110, 100, false},
		{"sell at market", Sell, 100, 100, true},
		{"sell below market", Sell, 90, 100, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := &Order{Side: tc.side, Type: Limit, LimitPrice: M(tc.limit, "INR")}
			if got := o.eligible(M(tc.market, "INR")); got != tc.want {
				t.Errorf("eligible(market=%v) = %v, want %v", tc.market, got, tc.want)
			}
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		StatusNew:       false,
		StatusPending:   false,
		StatusFilled:    true,
		StatusRejected:  true,
		StatusCancelled: true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
