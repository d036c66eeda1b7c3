package payment_test

import (
	"context"
	"errors"

	"github.com/frahmantamala/payweb-gateway/internal/core/datamodel/order"
	"github.com/frahmantamala/payweb-gateway/internal/payment"
	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

var errNotFound = errors.New("record not found")

// stubOrders is an in-memory OrderRepository with the same terminal-state
// semantics as the real one: a transition that lands on an order already in
// a terminal state returns ErrOutcomeAlreadyApplied without writing.
type stubOrders struct {
	statuses payment.StatusIDs
	orders     map[int64]*order.Order
	payments   map[int64]*order.OrderPayment
	history    []string
	lastTotals payment.PaidTotals

	setStatusErr  error
	applyPaidErr  error
	applyFailErr  error
	getPaymentErr error
}

func newStubOrders(statuses payment.StatusIDs, orders ...*order.Order) *stubOrders {
	s := &stubOrders{
		statuses: statuses,
		orders:   make(map[int64]*order.Order),
		payments: make(map[int64]*order.OrderPayment),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *stubOrders) GetOrder(id int64) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *stubOrders) GetPayment(orderID int64) (*order.OrderPayment, error) {
	if s.getPaymentErr != nil {
		return nil, s.getPaymentErr
	}
	p, ok := s.payments[orderID]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (s *stubOrders) SetStatus(orderID int64, statusID int, comment string) error {
	if s.setStatusErr != nil {
		return s.setStatusErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return errNotFound
	}
	o.Status = statusID
	if comment != "" {
		s.history = append(s.history, comment)
	}
	return nil
}

func (s *stubOrders) ApplyPaid(orderID int64, rec *order.OrderPayment, totals payment.PaidTotals, comment string) error {
	if s.applyPaidErr != nil {
		return s.applyPaidErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return errNotFound
	}
	if o.Status == s.statuses.Paid {
		return payment.ErrOutcomeAlreadyApplied
	}
	o.Status = s.statuses.Paid
	o.PaymentMethod = payment.ModuleCode
	rec.OrderID = orderID
	s.payments[orderID] = rec
	s.lastTotals = totals
	s.history = append(s.history, comment)
	return nil
}

func (s *stubOrders) ApplyFailed(orderID int64, comment string) error {
	if s.applyFailErr != nil {
		return s.applyFailErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return errNotFound
	}
	if o.Status == s.statuses.Paid || o.Status == s.statuses.Failed {
		return payment.ErrOutcomeAlreadyApplied
	}
	o.Status = s.statuses.Failed
	o.PaymentMethod = payment.ModuleCode
	s.history = append(s.history, comment)
	return nil
}

type stubCurrencies struct {
	byCode map[string]*order.Currency
}

func (s *stubCurrencies) GetByCode(code string) (*order.Currency, error) {
	if s.byCode == nil {
		return nil, errNotFound
	}
	c, ok := s.byCode[code]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

type stubCarts struct {
	cleared []int64
	err     error
}

func (s *stubCarts) ClearBasket(customerID int64) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, customerID)
	return nil
}

// stubGateway records the outbound requests and serves canned responses.
type stubGateway struct {
	initiateResponse payweb.Fields
	initiateErr      error
	queryResponse    payweb.Fields
	queryErr         error

	lastInitiate payweb.Fields
	lastQuery    payweb.Fields
	queryCalls   int
}

func (g *stubGateway) Initiate(_ context.Context, request payweb.Fields) (payweb.Fields, error) {
	g.lastInitiate = request
	if g.initiateErr != nil {
		return payweb.Fields{}, g.initiateErr
	}
	return g.initiateResponse, nil
}

func (g *stubGateway) Query(_ context.Context, request payweb.Fields) (payweb.Fields, error) {
	g.lastQuery = request
	g.queryCalls++
	if g.queryErr != nil {
		return payweb.Fields{}, g.queryErr
	}
	return g.queryResponse, nil
}

func (g *stubGateway) ProcessURL() string {
	return "https://secure.paygate.co.za/payweb3/process.trans"
}
