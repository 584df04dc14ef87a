package services

import (
	"encoding/base64"
	"fmt"

	"github.com/example/piala/internal/config"
)

// LinkService builds provider checkout URLs for orders.
type LinkService struct {
	cfg *config.Config
}

func NewLinkService(cfg *config.Config) *LinkService {
	return &LinkService{cfg: cfg}
}

// BuildCheckoutURL encodes the checkout parameters the provider's payment
// page expects. Amount is in minor units; the payload is base64 of
// "m=<merchant>;ac.order_id=<id>;a=<amount>;c=<callback>".
func (s *LinkService) BuildCheckoutURL(orderID string, amount int64) string {
	payload := fmt.Sprintf("m=%s;ac.order_id=%s;a=%d;c=%s",
		s.cfg.PaymeMerchantID, orderID, amount, s.cfg.PaymeCallbackURL)
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))
	return s.cfg.PaymeCheckoutURL + "/" + encoded
}
