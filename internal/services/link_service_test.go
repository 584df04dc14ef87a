package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/piala/internal/config"
)

func TestBuildCheckoutURL(t *testing.T) {
	links := NewLinkService(&config.Config{
		PaymeMerchantID:  "merchant-1",
		PaymeCheckoutURL: "https://checkout.paycom.uz",
		PaymeCallbackURL: "https://shop.example/payment/result",
	})

	url := links.BuildCheckoutURL("order-42", 100000)
	require.True(t, strings.HasPrefix(url, "https://checkout.paycom.uz/"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "https://checkout.paycom.uz/"))
	require.NoError(t, err)
	assert.Equal(t, "m=merchant-1;ac.order_id=order-42;a=100000;c=https://shop.example/payment/result", string(decoded))
}
