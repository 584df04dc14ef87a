package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/models"
)

// Provider-defined transaction state codes.
const (
	TransactionStateCreated   = 1
	TransactionStatePerformed = 2
	TransactionStateCancelled = -1
	TransactionStateRefunded  = -2
)

// PaymeService implements the merchant side of the provider protocol: for
// every callback it re-reads the current order state, decides the legal
// transition and writes it back. Nothing is cached between calls.
type PaymeService struct {
	db       *gorm.DB
	cfg      *config.Config
	telegram *TelegramService
}

func NewPaymeService(db *gorm.DB, cfg *config.Config, telegram *TelegramService) *PaymeService {
	return &PaymeService{db: db, cfg: cfg, telegram: telegram}
}

type PaymeAccount struct {
	OrderID string `json:"order_id"`
}

type CheckPerformParams struct {
	Amount  int64        `json:"amount"`
	Account PaymeAccount `json:"account"`
}

type CreateTransactionParams struct {
	ID      string       `json:"id"`
	Time    int64        `json:"time"`
	Amount  int64        `json:"amount"`
	Account PaymeAccount `json:"account"`
}

type PerformTransactionParams struct {
	ID string `json:"id"`
}

type CancelTransactionParams struct {
	ID     string `json:"id"`
	Reason *int   `json:"reason"`
}

type CheckTransactionParams struct {
	ID string `json:"id"`
}

type StatementParams struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type ChangePasswordParams struct {
	Password string `json:"password"`
}

type ReceiptItem struct {
	Discount    int64  `json:"discount"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Count       int    `json:"count"`
	Code        string `json:"code"`
	VATPercent  int    `json:"vat_percent"`
	PackageCode string `json:"package_code"`
}

type ReceiptDetail struct {
	ReceiptType int           `json:"receipt_type"`
	Items       []ReceiptItem `json:"items"`
}

type CheckPerformResult struct {
	Allow  bool          `json:"allow"`
	Detail ReceiptDetail `json:"detail"`
}

type CreateTransactionResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

type PerformTransactionResult struct {
	PerformTime int64  `json:"perform_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

type CancelTransactionResult struct {
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
}

type CheckTransactionResult struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
}

type StatementTransaction struct {
	ID          string       `json:"id"`
	Time        int64        `json:"time"`
	Amount      int64        `json:"amount"`
	Account     PaymeAccount `json:"account"`
	CreateTime  int64        `json:"create_time"`
	PerformTime int64        `json:"perform_time"`
	CancelTime  int64        `json:"cancel_time"`
	Transaction string       `json:"transaction"`
	State       int          `json:"state"`
	Reason      *int         `json:"reason"`
}

type ChangePasswordResult struct {
	Success bool `json:"success"`
}

// CheckPerformTransaction is the provider's pre-flight probe: order must
// exist and the amount must match. Never mutates state.
func (s *PaymeService) CheckPerformTransaction(ctx context.Context, params CheckPerformParams, id any) (*CheckPerformResult, error) {
	order, err := s.findOrder(s.db.WithContext(ctx), params.Account.OrderID, id)
	if err != nil {
		return nil, err
	}

	if !AmountMatches(order.Amount, params.Amount, s.cfg.PaymeAmountScale) {
		return nil, newTransactionError(PaymeErrorInvalidAmount, id, "amount")
	}

	return &CheckPerformResult{
		Allow: true,
		Detail: ReceiptDetail{
			ReceiptType: 0,
			Items: []ReceiptItem{{
				Discount:    0,
				Title:       order.ProductName,
				Price:       order.Price * s.cfg.PaymeAmountScale,
				Count:       order.Quantity,
				Code:        s.cfg.ReceiptItemCode,
				VATPercent:  s.cfg.ReceiptVATPercent,
				PackageCode: s.cfg.ReceiptPackageCode,
			}},
		},
	}, nil
}

// CreateTransaction binds a provider transaction to a pending order. The
// provider retries aggressively, so a repeated call with the already bound id
// replays the stored response; a different id while one is bound is a
// conflict.
func (s *PaymeService) CreateTransaction(ctx context.Context, params CreateTransactionParams, id any) (*CreateTransactionResult, error) {
	var result *CreateTransactionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOrder(tx, params.Account.OrderID, id)
		if err != nil {
			return err
		}

		if !AmountMatches(order.Amount, params.Amount, s.cfg.PaymeAmountScale) {
			return newTransactionError(PaymeErrorInvalidAmount, id, "amount")
		}

		switch order.Status {
		case models.OrderStatusPending:
			now := time.Now().UnixMilli()
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
				Updates(map[string]any{
					"status":         models.OrderStatusProcessing,
					"transaction_id": params.ID,
					"create_time":    now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the race with a concurrent callback; the provider
				// will retry and hit the replay branch.
				return newTransactionError(PaymeErrorCantDoOperation, id, nil)
			}
			result = &CreateTransactionResult{
				CreateTime:  now,
				Transaction: params.ID,
				State:       TransactionStateCreated,
			}
			return nil
		case models.OrderStatusProcessing:
			if order.TransactionID != params.ID {
				return newTransactionError(PaymeErrorAnotherTransaction, id, "order")
			}
			result = &CreateTransactionResult{
				CreateTime:  order.CreateTime,
				Transaction: order.TransactionID,
				State:       TransactionStateCreated,
			}
			return nil
		default:
			return newTransactionError(PaymeErrorCantDoOperation, id, nil)
		}
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// PerformTransaction captures a processing transaction. The success
// notification fires once per transition, never on replay.
func (s *PaymeService) PerformTransaction(ctx context.Context, params PerformTransactionParams, id any) (*PerformTransactionResult, error) {
	var result *PerformTransactionResult
	var performed *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOrderByTransaction(tx, params.ID, id)
		if err != nil {
			return err
		}

		switch order.Status {
		case models.OrderStatusProcessing:
			performTime := order.PerformTime
			if performTime == 0 {
				performTime = time.Now().UnixMilli()
			}
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", order.ID, models.OrderStatusProcessing).
				Updates(map[string]any{
					"status":       models.OrderStatusCompleted,
					"perform_time": performTime,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return newTransactionError(PaymeErrorCantDoOperation, id, nil)
			}
			result = &PerformTransactionResult{
				PerformTime: performTime,
				Transaction: order.TransactionID,
				State:       TransactionStatePerformed,
			}
			performed = order
			return nil
		case models.OrderStatusCompleted:
			result = &PerformTransactionResult{
				PerformTime: order.PerformTime,
				Transaction: order.TransactionID,
				State:       TransactionStatePerformed,
			}
			return nil
		case models.OrderStatusCancelled, models.OrderStatusRefunded:
			return newTransactionError(PaymeErrorTransactionCancelled, id, "order")
		default:
			return newTransactionError(PaymeErrorCantDoOperation, id, nil)
		}
	})
	if err != nil {
		return nil, err
	}

	if performed != nil && s.telegram != nil {
		order := *performed
		go func() {
			if err := s.telegram.NotifyPaymentSuccess(PaymentSuccessNotification{
				OrderID:  order.ID.String(),
				Product:  order.ProductName,
				Amount:   order.Amount,
				Currency: "UZS",
			}); err != nil {
				log.Printf("[Payme] Telegram payment success notification failed: %v", err)
			}
		}()
	}

	return result, nil
}

// CancelTransaction moves a transaction into its cancel state: cancelled
// before capture, refunded after. Replays on an already terminal state return
// the stored cancel_time without re-stamping.
func (s *PaymeService) CancelTransaction(ctx context.Context, params CancelTransactionParams, id any) (*CancelTransactionResult, error) {
	var result *CancelTransactionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOrderByTransaction(tx, params.ID, id)
		if err != nil {
			return err
		}

		var newStatus string
		var state int
		switch order.Status {
		case models.OrderStatusPending, models.OrderStatusProcessing:
			newStatus = models.OrderStatusCancelled
			state = TransactionStateCancelled
		case models.OrderStatusCompleted:
			newStatus = models.OrderStatusRefunded
			state = TransactionStateRefunded
		case models.OrderStatusCancelled:
			result = &CancelTransactionResult{
				CancelTime:  order.CancelTime,
				Transaction: order.TransactionID,
				State:       TransactionStateCancelled,
				Reason:      order.CancelReason,
			}
			return nil
		case models.OrderStatusRefunded:
			result = &CancelTransactionResult{
				CancelTime:  order.CancelTime,
				Transaction: order.TransactionID,
				State:       TransactionStateRefunded,
				Reason:      order.CancelReason,
			}
			return nil
		default:
			// Unreachable with the statuses above; kept as the protocol's
			// terminal cancel error.
			return newTransactionError(PaymeErrorCancelNotAllowed, id, "order")
		}

		now := time.Now().UnixMilli()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(map[string]any{
				"status":        newStatus,
				"cancel_time":   now,
				"cancel_reason": params.Reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newTransactionError(PaymeErrorCantDoOperation, id, nil)
		}

		result = &CancelTransactionResult{
			CancelTime:  now,
			Transaction: order.TransactionID,
			State:       state,
			Reason:      params.Reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CheckTransaction reports the current transaction state. Unset timestamps
// come back as zero, the cancel reason as null until a cancel happened.
func (s *PaymeService) CheckTransaction(ctx context.Context, params CheckTransactionParams, id any) (*CheckTransactionResult, error) {
	order, err := s.findOrderByTransaction(s.db.WithContext(ctx), params.ID, id)
	if err != nil {
		return nil, err
	}

	if order.TransactionID != params.ID {
		return nil, newTransactionError(PaymeErrorTransactionNotFound, id, "id")
	}

	state, ok := transactionState(order.Status)
	if !ok {
		return nil, newTransactionError(PaymeErrorTransactionNotFound, id, "id")
	}

	return &CheckTransactionResult{
		CreateTime:  order.CreateTime,
		PerformTime: order.PerformTime,
		CancelTime:  order.CancelTime,
		Transaction: order.TransactionID,
		State:       state,
		Reason:      order.CancelReason,
	}, nil
}

// GetStatement returns transactions created inside [from, to], in storage
// order. An empty range is a valid success response.
func (s *PaymeService) GetStatement(ctx context.Context, params StatementParams) ([]StatementTransaction, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("transaction_id <> '' AND create_time >= ? AND create_time <= ?", params.From, params.To).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	result := make([]StatementTransaction, 0, len(orders))
	for _, order := range orders {
		state, ok := transactionState(order.Status)
		if !ok {
			continue
		}
		result = append(result, StatementTransaction{
			ID:          order.TransactionID,
			Time:        order.CreateTime,
			Amount:      order.Amount * s.cfg.PaymeAmountScale,
			Account:     PaymeAccount{OrderID: order.ID.String()},
			CreateTime:  order.CreateTime,
			PerformTime: order.PerformTime,
			CancelTime:  order.CancelTime,
			Transaction: order.TransactionID,
			State:       state,
			Reason:      order.CancelReason,
		})
	}

	return result, nil
}

// ChangePassword mirrors the provider's sandbox check: presenting the current
// merchant key is denied, anything else is acknowledged without persisting.
func (s *PaymeService) ChangePassword(params ChangePasswordParams, id any) (*ChangePasswordResult, error) {
	if params.Password == s.cfg.PaymeMerchantKey {
		return nil, newTransactionError(PaymeErrorPasswordChange, id, "password")
	}
	return &ChangePasswordResult{Success: true}, nil
}

func (s *PaymeService) findOrder(tx *gorm.DB, orderRef string, id any) (*models.Order, error) {
	parsed, err := uuid.Parse(orderRef)
	if err != nil {
		return nil, newTransactionError(PaymeErrorOrderNotFound, id, "order")
	}

	var order models.Order
	if err := tx.Where("id = ?", parsed).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newTransactionError(PaymeErrorOrderNotFound, id, "order")
		}
		return nil, err
	}

	return &order, nil
}

func (s *PaymeService) findOrderByTransaction(tx *gorm.DB, transactionID string, id any) (*models.Order, error) {
	if transactionID == "" {
		return nil, newTransactionError(PaymeErrorTransactionNotFound, id, "id")
	}

	var order models.Order
	if err := tx.Where("transaction_id = ?", transactionID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newTransactionError(PaymeErrorTransactionNotFound, id, "id")
		}
		return nil, err
	}

	return &order, nil
}

func transactionState(status string) (int, bool) {
	switch status {
	case models.OrderStatusProcessing:
		return TransactionStateCreated, true
	case models.OrderStatusCompleted:
		return TransactionStatePerformed, true
	case models.OrderStatusCancelled:
		return TransactionStateCancelled, true
	case models.OrderStatusRefunded:
		return TransactionStateRefunded, true
	default:
		return 0, false
	}
}
