package handler

import (
	"encoding/json"
	"time"
)

// CreateAccountRequest opens an account. Amounts and rates are decimal strings.
type CreateAccountRequest struct {
	CustomerID     string `json:"customer_id" binding:"required"`
	AccountType    string `json:"account_type" binding:"required,oneof=CHECKING SAVINGS CREDIT"`
	Currency       string `json:"currency" binding:"required,len=3"`
	InterestRate   string `json:"interest_rate,omitempty"`
	CreditLimit    string `json:"credit_limit,omitempty"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
}

type AccountResponse struct {
	ID               string     `json:"id"`
	CustomerID       string     `json:"customer_id"`
	AccountNumber    string     `json:"account_number"`
	AccountType      string     `json:"account_type"`
	Currency         string     `json:"currency"`
	Balance          string     `json:"balance"`
	AvailableBalance string     `json:"available_balance"`
	CreditLimit      string     `json:"credit_limit,omitempty"`
	InterestRate     string     `json:"interest_rate"`
	Status           string     `json:"status"`
	Version          int        `json:"version"`
	LastActivityAt   *time.Time `json:"last_activity_at,omitempty"`
	CreatedAt        string     `json:"created_at"`
	UpdatedAt        string     `json:"updated_at"`
}

type OpenAccountResponse struct {
	Account        AccountResponse      `json:"account"`
	InitialDeposit *TransactionResponse `json:"initial_deposit,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE FROZEN DORMANT CLOSED"`
	Reason string `json:"reason,omitempty"`
}

// CreateTransactionRequest posts a deposit, withdrawal or transfer synchronously
type CreateTransactionRequest struct {
	TransactionID string `json:"transaction_id,omitempty" binding:"omitempty,uuid"`
	Type          string `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER"`
	FromAccountID string `json:"from_account_id,omitempty" binding:"omitempty,uuid"`
	ToAccountID   string `json:"to_account_id,omitempty" binding:"omitempty,uuid"`
	Amount        string `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"required,len=3"`
	Description   string `json:"description,omitempty" binding:"max=255"`
}

// SubmitCommandRequest queues a movement for the worker. Amount and currency
// are ignored for INTEREST.
type SubmitCommandRequest struct {
	TransactionID string `json:"transaction_id,omitempty" binding:"omitempty,uuid"`
	Type          string `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER INTEREST"`
	FromAccountID string `json:"from_account_id,omitempty" binding:"omitempty,uuid"`
	ToAccountID   string `json:"to_account_id,omitempty" binding:"omitempty,uuid"`
	Amount        string `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Description   string `json:"description,omitempty" binding:"max=255"`
}

type TransactionResponse struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	FromAccountID   string `json:"from_account_id,omitempty"`
	ToAccountID     string `json:"to_account_id,omitempty"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	ReferenceNumber string `json:"reference_number"`
	Description     string `json:"description,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`
	ActorID         string `json:"actor_id"`
	CorrelationID   string `json:"correlation_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type InterestResponse struct {
	Posted      bool                 `json:"posted"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

type CommandAcceptedResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type AuditEntryResponse struct {
	ID            string          `json:"id"`
	Sequence      int64           `json:"sequence"`
	ActorID       string          `json:"actor_id"`
	Action        string          `json:"action"`
	ResourceType  string          `json:"resource_type"`
	ResourceID    string          `json:"resource_id"`
	Details       json.RawMessage `json:"details"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// DateRangeParams accept RFC 3339 timestamps or plain dates; a plain end date
// covers that whole day.
type DateRangeParams struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type HistoryParams struct {
	PaginationParams
	DateRangeParams
}

type AuditParams struct {
	PaginationParams
	DateRangeParams
	ActorID      string `form:"actor_id"`
	ResourceType string `form:"resource_type" binding:"omitempty,oneof=TRANSACTION ACCOUNT"`
	ResourceID   string `form:"resource_id"`
}
