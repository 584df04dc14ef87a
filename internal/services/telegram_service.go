package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// TelegramService delivers best-effort notifications to the admin chat.
// Failures are logged and never affect the payment flow.
type TelegramService struct {
	botToken    string
	adminChatID string
}

func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// PaymentSuccessNotification carries data for the payment success message.
type PaymentSuccessNotification struct {
	OrderID  string
	Product  string
	Amount   int64
	Currency string
}

// NewOrderNotification carries data for the new order message.
type NewOrderNotification struct {
	OrderID  string
	Product  string
	Quantity int
	Amount   int64
	Currency string
}

// FormatPrice formats an amount with currency and thousand separators.
func FormatPrice(amount int64, currency string) string {
	if currency == "" {
		currency = "UZS"
	}

	str := fmt.Sprintf("%d", amount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + currency
}

// NotifyPaymentSuccess reports a captured payment to the admin chat.
func (s *TelegramService) NotifyPaymentSuccess(n PaymentSuccessNotification) error {
	text := fmt.Sprintf(
		"✅ <b>To'lov qabul qilindi</b>\n\nBuyurtma: <code>%s</code>\nMahsulot: %s\nSumma: %s",
		n.OrderID, n.Product, FormatPrice(n.Amount, n.Currency),
	)
	return s.SendToAdmin(text)
}

// NotifyNewOrder reports a freshly created order to the admin chat.
func (s *TelegramService) NotifyNewOrder(n NewOrderNotification) error {
	text := fmt.Sprintf(
		"🛒 <b>Yangi buyurtma</b>\n\nBuyurtma: <code>%s</code>\nMahsulot: %s x%d\nSumma: %s",
		n.OrderID, n.Product, n.Quantity, FormatPrice(n.Amount, n.Currency),
	)
	return s.SendToAdmin(text)
}
