package order

import (
	"time"
)

// Order is owned by the storefront's order store. This service only reads
// identity, amount and currency, and writes status plus a payment method
// marker; everything else stays the storefront's business.
type Order struct {
	ID            int64     `gorm:"column:orders_id;primaryKey"`
	CustomerID    int64     `gorm:"column:customers_id;not null"`
	CustomerEmail string    `gorm:"column:customers_email_address"`
	Currency      string    `gorm:"column:currency;not null"`
	Total         float64   `gorm:"column:orders_total;not null"`
	Status        int       `gorm:"column:orders_status;not null"`
	PaymentMethod string    `gorm:"column:payment_method"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:now()"`
}

func (Order) TableName() string { return "orders" }

// OrderPayment is the soft one-to-one payment record per order: created on
// the first successful reconciliation, updated (never duplicated) on any
// later one.
type OrderPayment struct {
	ID            int64     `gorm:"column:orders_payment_id;primaryKey"`
	OrderID       int64     `gorm:"column:orders_payment_order_id;not null;uniqueIndex"`
	Amount        float64   `gorm:"column:orders_payment_amount;not null"`
	Currency      string    `gorm:"column:orders_payment_currency;not null"`
	Module        string    `gorm:"column:orders_payment_module"`
	ModuleName    string    `gorm:"column:orders_payment_module_name"`
	TransactionID string    `gorm:"column:orders_payment_transaction_id"`
	Status        int       `gorm:"column:orders_payment_status"`
	CreatedAt     time.Time `gorm:"column:orders_payment_date_create"`
	UpdatedAt     time.Time `gorm:"column:orders_payment_date_update"`
}

func (OrderPayment) TableName() string { return "orders_payment" }

// OrderStatusHistory is the append-only audit trail for an order.
type OrderStatusHistory struct {
	ID               int64     `gorm:"column:orders_status_history_id;primaryKey"`
	OrderID          int64     `gorm:"column:orders_id;not null;index"`
	StatusID         int       `gorm:"column:orders_status_id;not null"`
	Comments         string    `gorm:"column:comments"`
	CustomerNotified bool      `gorm:"column:customer_notified;default:false"`
	DateAdded        time.Time `gorm:"column:date_added"`
}

func (OrderStatusHistory) TableName() string { return "orders_status_history" }

// Total line classes rewritten when a payment lands.
const (
	TotalClassPaid = "ot_paid"
	TotalClassDue  = "ot_due"
)

// OrderTotal is one display line of the order's totals block.
type OrderTotal struct {
	ID         int64   `gorm:"column:orders_total_id;primaryKey"`
	OrderID    int64   `gorm:"column:orders_id;not null;index"`
	Class      string  `gorm:"column:class;not null"`
	Value      float64 `gorm:"column:value;not null"`
	Text       string  `gorm:"column:text"`
	TextIncTax string  `gorm:"column:text_inc_tax"`
	TextExcTax string  `gorm:"column:text_exc_tax"`
}

func (OrderTotal) TableName() string { return "orders_total" }

// Currency carries only display formatting metadata; no rates, no
// conversion.
type Currency struct {
	ID             int64  `gorm:"column:currencies_id;primaryKey"`
	Code           string `gorm:"column:code;not null;uniqueIndex"`
	SymbolLeft     string `gorm:"column:symbol_left"`
	SymbolRight    string `gorm:"column:symbol_right"`
	DecimalPlaces  int    `gorm:"column:decimal_places;default:2"`
	DecimalPoint   string `gorm:"column:decimal_point;default:."`
	ThousandsPoint string `gorm:"column:thousands_point;default:,"`
}

func (Currency) TableName() string { return "currencies" }

// BasketItem is a row in the shopper's pending cart, cleared once the order
// is paid.
type BasketItem struct {
	ID         int64     `gorm:"column:customers_basket_id;primaryKey"`
	CustomerID int64     `gorm:"column:customers_id;not null;index"`
	ProductID  string    `gorm:"column:products_id"`
	Quantity   int       `gorm:"column:customers_basket_quantity"`
	DateAdded  time.Time `gorm:"column:customers_basket_date_added"`
}

func (BasketItem) TableName() string { return "customers_basket" }
