// Package tablestatus derives the single display status of a dining table.
package tablestatus

import (
	"github.com/shopspring/decimal"
	"github.com/tableside/api/internal/enum"
)

// Status is one of the enum.TableStatus* values.
type Status string

// Session is the part of an open session the deriver looks at.
type Session struct {
	GrandTotal decimal.Decimal
}

// Input is everything Derive needs for one table.
// OpenSession is nil when the table has no open session.
type Input struct {
	OpenSession  *Session
	OpenRequests []string // service request types with status open
}

// Derive maps a table's open session and open service requests to exactly one
// status. Open requests override the base status in the order
// bill > waiter > order_ready.
func Derive(in Input) Status {
	var bill, waiter, ready bool
	for _, t := range in.OpenRequests {
		switch t {
		case enum.ServiceRequestBill:
			bill = true
		case enum.ServiceRequestWaiter:
			waiter = true
		case enum.ServiceRequestOrderReady:
			ready = true
		}
	}

	switch {
	case bill:
		return enum.TableStatusBillRequest
	case waiter:
		return enum.TableStatusWaiterCall
	case ready:
		return enum.TableStatusOrderReady
	}

	if in.OpenSession == nil {
		return enum.TableStatusEmpty
	}
	if in.OpenSession.GrandTotal.IsPositive() {
		return enum.TableStatusOrderActive
	}
	return enum.TableStatusOccupied
}
