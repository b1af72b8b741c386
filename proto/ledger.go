package ledgerpb

// 金額一律以十進位字串傳遞 (如 "10.50")，避免浮點誤差

type CreateAccountRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	InitialDeposit string `json:"initial_deposit"`
}

type CreateAccountResponse struct {
	AccountNumber string `json:"account_number"`
}

type AuthenticateRequest struct {
	AccountNumber string `json:"account_number"`
	Password      string `json:"password"`
}

type AuthenticateResponse struct {
	AccountNumber string `json:"account_number"`
	FullName      string `json:"full_name"`
}

type GetAccountRequest struct {
	AccountNumber string `json:"account_number"`
}

type Account struct {
	AccountNumber string `json:"account_number"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Balance       string `json:"balance"`
	CreatedAt     int64  `json:"created_at"` // unix milli
}

type ApplyTransactionRequest struct {
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"` // credit | debit
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

type ApplyTransactionResponse struct {
	TransactionId int64  `json:"transaction_id"`
	NewBalance    string `json:"new_balance"`
}

type ListTransactionsRequest struct {
	AccountNumber string `json:"account_number"`
	Limit         int32  `json:"limit"`
}

type Transaction struct {
	Id          int64  `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"` // unix milli
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
