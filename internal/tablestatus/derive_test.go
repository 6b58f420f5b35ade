package tablestatus

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/enum"
)

func TestDerive(t *testing.T) {
	zero := &Session{GrandTotal: decimal.Zero}
	active := &Session{GrandTotal: decimal.NewFromInt(42)}

	tests := []struct {
		name string
		in   Input
		want Status
	}{
		{"no session", Input{}, enum.TableStatusEmpty},
		{"open session without orders", Input{OpenSession: zero}, enum.TableStatusOccupied},
		{"open session with total", Input{OpenSession: active}, enum.TableStatusOrderActive},
		{
			"order ready",
			Input{OpenSession: active, OpenRequests: []string{enum.ServiceRequestOrderReady}},
			enum.TableStatusOrderReady,
		},
		{
			"waiter beats order ready",
			Input{OpenSession: active, OpenRequests: []string{enum.ServiceRequestOrderReady, enum.ServiceRequestWaiter}},
			enum.TableStatusWaiterCall,
		},
		{
			"bill beats everything",
			Input{OpenSession: active, OpenRequests: []string{
				enum.ServiceRequestWaiter, enum.ServiceRequestBill, enum.ServiceRequestOrderReady,
			}},
			enum.TableStatusBillRequest,
		},
		{
			"waiter on empty tab",
			Input{OpenSession: zero, OpenRequests: []string{enum.ServiceRequestWaiter}},
			enum.TableStatusWaiterCall,
		},
		{
			"duplicate requests",
			Input{OpenSession: zero, OpenRequests: []string{enum.ServiceRequestOrderReady, enum.ServiceRequestOrderReady}},
			enum.TableStatusOrderReady,
		},
		{
			"unknown request type ignored",
			Input{OpenSession: active, OpenRequests: []string{"music"}},
			enum.TableStatusOrderActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.in); got != tt.want {
				t.Errorf("Derive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerive_OrderIndependent(t *testing.T) {
	active := &Session{GrandTotal: decimal.NewFromInt(1)}
	a := Derive(Input{OpenSession: active, OpenRequests: []string{enum.ServiceRequestWaiter, enum.ServiceRequestOrderReady}})
	b := Derive(Input{OpenSession: active, OpenRequests: []string{enum.ServiceRequestOrderReady, enum.ServiceRequestWaiter}})
	if a != b {
		t.Errorf("request order changed result: %q vs %q", a, b)
	}
}
