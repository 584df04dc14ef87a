package models

// Order statuses over the payment lifecycle.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Order is a unit of sale. It also carries the state of the single provider
// transaction currently bound to it; timestamps are milliseconds since epoch.
// Price and Amount are stored in major currency units, the provider always
// presents amounts in minor units (see services.AmountMatches).
type Order struct {
	BaseModel
	ProductName   string `json:"product_name"`
	Price         int64  `json:"price"`
	Quantity      int    `json:"quantity"`
	Amount        int64  `json:"amount"`
	Status        string `gorm:"index" json:"status"`
	TransactionID string `gorm:"column:transaction_id;index" json:"transaction_id"`
	CreateTime    int64  `json:"create_time"`
	PerformTime   int64  `json:"perform_time"`
	CancelTime    int64  `json:"cancel_time"`
	CancelReason  *int   `gorm:"column:cancel_reason" json:"cancel_reason"`
}
