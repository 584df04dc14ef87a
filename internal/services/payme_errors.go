package services

// PaymeErrorInfo describes a provider-defined protocol error. Codes are fixed
// by the merchant API and must not change between deployments.
type PaymeErrorInfo struct {
	Name    string
	Code    int
	Message map[string]string
}

var (
	PaymeErrorParse = PaymeErrorInfo{
		Name: "ParseError",
		Code: -32700,
		Message: map[string]string{
			"uz": "Could not parse JSON",
			"ru": "Could not parse JSON",
			"en": "Could not parse JSON",
		},
	}
	PaymeErrorMethodNotFound = PaymeErrorInfo{
		Name: "MethodNotFound",
		Code: -32601,
		Message: map[string]string{
			"uz": "Bunday metod topilmadi",
			"ru": "Неизвестный метод",
			"en": "Unknown method",
		},
	}
	PaymeErrorInvalidAuthorization = PaymeErrorInfo{
		Name: "InvalidAuthorization",
		Code: -32504,
		Message: map[string]string{
			"uz": "Avtorizatsiya yaroqsiz",
			"ru": "Авторизация недействительна",
			"en": "Authorization invalid",
		},
	}
	PaymeErrorPasswordChange = PaymeErrorInfo{
		Name: "PasswordChangeDenied",
		Code: -32400,
		Message: map[string]string{
			"uz": "Parolni o'zgartirib bo'lmaydi",
			"ru": "Невозможно изменить пароль",
			"en": "Cannot change the password",
		},
	}
	PaymeErrorOrderNotFound = PaymeErrorInfo{
		Name: "OrderNotFound",
		Code: -31050,
		Message: map[string]string{
			"uz": "Buyurtma topilmadi",
			"ru": "Заказ не существует",
			"en": "Order does not exist",
		},
	}
	PaymeErrorInvalidAmount = PaymeErrorInfo{
		Name: "IncorrectAmount",
		Code: -31001,
		Message: map[string]string{
			"uz": "Noto'g'ri summa",
			"ru": "Недопустимая сумма",
			"en": "Invalid amount",
		},
	}
	PaymeErrorTransactionNotFound = PaymeErrorInfo{
		Name: "TransactionNotFound",
		Code: -31003,
		Message: map[string]string{
			"uz": "Tranzaktsiya topilmadi",
			"ru": "Транзакция не найдена",
			"en": "Transaction not found",
		},
	}
	PaymeErrorCancelNotAllowed = PaymeErrorInfo{
		Name: "CancelNotAllowed",
		Code: -31007,
		Message: map[string]string{
			"uz": "Bekor qilib bo'lmaydi. Buyurtma bajarilgan",
			"ru": "Невозможно отменить. Заказ выполнен",
			"en": "It is impossible to cancel. The order is completed",
		},
	}
	PaymeErrorTransactionCancelled = PaymeErrorInfo{
		Name: "TransactionCancelledOrUnknown",
		Code: -31008,
		Message: map[string]string{
			"uz": "Tranzaktsiya bekor qilingan yoki qaytarilgan",
			"ru": "Транзакция была отменена или возвращена",
			"en": "Transaction was cancelled or refunded",
		},
	}
	PaymeErrorCantDoOperation = PaymeErrorInfo{
		Name: "CantDoOperation",
		Code: -31008,
		Message: map[string]string{
			"uz": "Biz operatsiyani bajara olmaymiz",
			"ru": "Мы не можем сделать операцию",
			"en": "We can't do operation",
		},
	}
	PaymeErrorAnotherTransaction = PaymeErrorInfo{
		Name: "AnotherTransactionInProgress",
		Code: -31099,
		Message: map[string]string{
			"uz": "Buyurtma to'lovni amalga oshirish jarayonida",
			"ru": "Транзакция в очереди",
			"en": "Order payment status is queued",
		},
	}
)

// TransactionError is a domain failure carried to the dispatcher, which turns
// it into the fixed-code error envelope. ID echoes the request envelope id,
// Data names the offending parameter when the protocol defines one.
type TransactionError struct {
	Info PaymeErrorInfo
	ID   any
	Data any
}

func (e *TransactionError) Error() string {
	return e.Info.Name
}

func newTransactionError(info PaymeErrorInfo, id any, data any) *TransactionError {
	return &TransactionError{Info: info, ID: id, Data: data}
}
