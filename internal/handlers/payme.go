package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/services"
)

// PaymeHandler is the protocol dispatcher for provider callbacks: it maps
// method names to state machine operations and keeps the envelope uniform.
type PaymeHandler struct {
	payme *services.PaymeService
}

func NewPaymeHandler(db *gorm.DB, cfg *config.Config, telegram *services.TelegramService) *PaymeHandler {
	return &PaymeHandler{
		payme: services.NewPaymeService(db, cfg, telegram),
	}
}

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     any             `json:"id"`
}

type rpcError struct {
	Code    int               `json:"code"`
	Message map[string]string `json:"message"`
	Data    any               `json:"data"`
}

// rpcResponse always carries both result and error; exactly one is non-null.
type rpcResponse struct {
	ID     any       `json:"id"`
	Result any       `json:"result"`
	Error  *rpcError `json:"error"`
}

// Callback handles the provider's JSON-RPC style calls. Domain failures come
// back as HTTP 200 with the error envelope; only unparseable bodies use the
// transport-level code.
func (h *PaymeHandler) Callback(c *fiber.Ctx) error {
	var req rpcRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Printf("[Payme] Failed to parse request body: %v", err)
		// No id could be extracted, the protocol pins it to 0.
		return writePaymeError(c, 0, &services.TransactionError{Info: services.PaymeErrorParse, ID: 0})
	}

	log.Printf("[Payme] Method: %s, Params: %s", req.Method, string(req.Params))

	ctx := context.Background()

	switch req.Method {
	case "CheckPerformTransaction":
		var params services.CheckPerformParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		result, err := h.payme.CheckPerformTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: result})
	case "CreateTransaction":
		var params services.CreateTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		result, err := h.payme.CreateTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: result})
	case "PerformTransaction":
		var params services.PerformTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		result, err := h.payme.PerformTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: result})
	case "CancelTransaction":
		var params services.CancelTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		result, err := h.payme.CancelTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: result})
	case "CheckTransaction":
		var params services.CheckTransactionParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		result, err := h.payme.CheckTransaction(ctx, params, req.ID)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: result})
	case "GetStatement":
		var params services.StatementParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		transactions, err := h.payme.GetStatement(ctx, params)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: fiber.Map{"transactions": transactions}})
	case "ChangePassword":
		var params services.ChangePasswordParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return writePaymeError(c, req.ID, &services.TransactionError{Info: services.PaymeErrorParse, ID: req.ID})
		}
		result, err := h.payme.ChangePassword(params, req.ID)
		if err != nil {
			return writePaymeError(c, req.ID, err)
		}
		return c.JSON(rpcResponse{ID: req.ID, Result: result})
	default:
		return writePaymeError(c, req.ID, &services.TransactionError{
			Info: services.PaymeErrorMethodNotFound,
			ID:   req.ID,
			Data: req.Method,
		})
	}
}

func writePaymeError(c *fiber.Ctx, id any, err error) error {
	txErr, ok := err.(*services.TransactionError)
	if !ok {
		// Unexpected internal failure: log with context, answer with the
		// generic code instead of leaking detail. The envelope id is still
		// echoed from the request.
		log.Printf("[Payme] Internal error: %v", err)
		txErr = &services.TransactionError{Info: services.PaymeErrorCantDoOperation, ID: id}
	}

	return c.JSON(rpcResponse{
		ID: txErr.ID,
		Error: &rpcError{
			Code:    txErr.Info.Code,
			Message: txErr.Info.Message,
			Data:    txErr.Data,
		},
	})
}
