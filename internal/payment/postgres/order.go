package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/payweb-gateway/internal/core/datamodel/order"
	paymentpkg "github.com/frahmantamala/payweb-gateway/internal/payment"
)

// OrderRepository persists payment outcomes against the storefront's order
// schema. The terminal-state transitions run as conditional UPDATEs inside a
// single transaction, so concurrent redirect and notify legs cannot both
// apply an outcome: whichever loses the compare-and-set gets
// ErrOutcomeAlreadyApplied.
type OrderRepository struct {
	db       *gorm.DB
	statuses paymentpkg.StatusIDs
}

func NewOrderRepository(db *gorm.DB, statuses paymentpkg.StatusIDs) *OrderRepository {
	return &OrderRepository{db: db, statuses: statuses}
}

func (r *OrderRepository) GetOrder(id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.First(&o, "orders_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetPayment(orderID int64) (*order.OrderPayment, error) {
	var p order.OrderPayment
	if err := r.db.First(&p, "orders_payment_order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SetStatus moves the order to statusID and, when a comment is given,
// appends a status-history entry.
func (r *OrderRepository) SetStatus(orderID int64, statusID int, comment string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&order.Order{}).
			Where("orders_id = ?", orderID).
			Updates(map[string]interface{}{
				"orders_status": statusID,
				"updated_at":    time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if comment == "" {
			return nil
		}
		return appendHistory(tx, orderID, statusID, comment)
	})
}

// ApplyPaid marks the order paid, upserts its single payment record,
// rewrites the paid/due totals lines and appends an audit entry. The status
// flip is the guard: an order that is already paid makes the whole
// transaction a no-op.
func (r *OrderRepository) ApplyPaid(orderID int64, rec *order.OrderPayment, totals paymentpkg.PaidTotals, comment string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		res := tx.Model(&order.Order{}).
			Where("orders_id = ? AND orders_status <> ?", orderID, r.statuses.Paid).
			Updates(map[string]interface{}{
				"orders_status":  r.statuses.Paid,
				"payment_method": paymentpkg.ModuleCode,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&order.Order{}).Where("orders_id = ?", orderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return paymentpkg.ErrOutcomeAlreadyApplied
		}

		// One payment record per order: update in place when a previous
		// reconciliation already created it.
		var existing order.OrderPayment
		err := tx.First(&existing, "orders_payment_order_id = ?", orderID).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"orders_payment_amount":         rec.Amount,
				"orders_payment_currency":       rec.Currency,
				"orders_payment_module":         rec.Module,
				"orders_payment_module_name":    rec.ModuleName,
				"orders_payment_transaction_id": rec.TransactionID,
				"orders_payment_status":         rec.Status,
				"orders_payment_date_update":    now,
			}
			if err := tx.Model(&order.OrderPayment{}).
				Where("orders_payment_id = ?", existing.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec.OrderID = orderID
			rec.CreatedAt = now
			rec.UpdatedAt = now
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Model(&order.OrderTotal{}).
			Where("orders_id = ? AND class = ?", orderID, order.TotalClassPaid).
			Updates(map[string]interface{}{
				"value":        totals.Amount,
				"text":         totals.PaidText,
				"text_inc_tax": totals.PaidText,
				"text_exc_tax": totals.PaidText,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&order.OrderTotal{}).
			Where("orders_id = ? AND class = ?", orderID, order.TotalClassDue).
			Updates(map[string]interface{}{
				"value":        0.0,
				"text":         totals.DueText,
				"text_inc_tax": totals.DueText,
				"text_exc_tax": totals.DueText,
			}).Error; err != nil {
			return err
		}

		return appendHistory(tx, orderID, r.statuses.Paid, comment)
	})
}

// ApplyFailed marks the order failed and records the reason. It never
// demotes a paid order and never double-appends: the conditional UPDATE
// excludes both terminal states.
func (r *OrderRepository) ApplyFailed(orderID int64, comment string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&order.Order{}).
			Where("orders_id = ? AND orders_status NOT IN ?", orderID, []int{r.statuses.Paid, r.statuses.Failed}).
			Updates(map[string]interface{}{
				"orders_status":  r.statuses.Failed,
				"payment_method": paymentpkg.ModuleCode,
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&order.Order{}).Where("orders_id = ?", orderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return paymentpkg.ErrOutcomeAlreadyApplied
		}

		return appendHistory(tx, orderID, r.statuses.Failed, comment)
	})
}

func appendHistory(tx *gorm.DB, orderID int64, statusID int, comment string) error {
	return tx.Create(&order.OrderStatusHistory{
		OrderID:          orderID,
		StatusID:         statusID,
		Comments:         comment,
		CustomerNotified: false,
		DateAdded:        time.Now().UTC(),
	}).Error
}

// CurrencyRepository resolves display metadata for amount formatting.
type CurrencyRepository struct {
	db *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

func (r *CurrencyRepository) GetByCode(code string) (*order.Currency, error) {
	var c order.Currency
	if err := r.db.First(&c, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CartRepository clears pending baskets once an order is paid.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) ClearBasket(customerID int64) error {
	return r.db.Where("customers_id = ?", customerID).Delete(&order.BasketItem{}).Error
}
