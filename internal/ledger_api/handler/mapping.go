package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/corebank-ledger/internal/domain/account"
	"github.com/corebank-ledger/internal/domain/audit"
	"github.com/corebank-ledger/internal/domain/money"
	"github.com/corebank-ledger/internal/domain/transaction"
	"github.com/corebank-ledger/internal/ledger"
	"github.com/corebank-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var errNonPositiveAmount = errors.New("amount must be greater than zero")

// requestMeta attributes an engine call to the caller of the request
func requestMeta(c *gin.Context, requireActive bool) ledger.Meta {
	return ledger.Meta{
		ActorID:       middleware.GetActorID(c),
		CorrelationID: middleware.GetCorrelationID(c),
		RequireActive: requireActive,
	}
}

func parseOptionalUUID(value, field string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", field)
	}
	return &id, nil
}

// parsePositiveAmount enforces a positive amount with at most two decimals
func parsePositiveAmount(amount, currency string) (money.Money, error) {
	m, err := money.Parse(amount, currency)
	if err != nil {
		return money.Money{}, err
	}
	if !m.IsPositive() {
		return money.Money{}, errNonPositiveAmount
	}
	return m, nil
}

func parseDateRange(p DateRangeParams) (from, to *time.Time, err error) {
	if from, err = parseDate(p.StartDate, false); err != nil {
		return nil, nil, fmt.Errorf("invalid start_date: %w", err)
	}
	if to, err = parseDate(p.EndDate, true); err != nil {
		return nil, nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, errors.New("end_date is before start_date")
	}
	return from, to, nil
}

func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:               acc.ID.String(),
		CustomerID:       acc.CustomerID,
		AccountNumber:    acc.AccountNumber,
		AccountType:      acc.Type,
		Currency:         acc.Currency,
		Balance:          acc.Balance.StringFixed(),
		AvailableBalance: acc.AvailableBalance.StringFixed(),
		InterestRate:     acc.InterestRate.String(),
		Status:           string(acc.Status),
		Version:          acc.Version,
		LastActivityAt:   acc.LastActivityAt,
		CreatedAt:        acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.CreditLimit != nil {
		response.CreditLimit = acc.CreditLimit.StringFixed()
	}
	return response
}

func mapRecordToResponse(record *transaction.Record) TransactionResponse {
	response := TransactionResponse{
		ID:              record.ID.String(),
		Type:            string(record.Type),
		Amount:          record.Amount.StringFixed(),
		Currency:        record.Amount.Currency(),
		Status:          string(record.Status),
		ReferenceNumber: record.ReferenceNumber,
		Description:     record.Description,
		FailureReason:   record.FailureReason,
		ActorID:         record.ActorID,
		CorrelationID:   record.CorrelationID,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339Nano),
	}
	if record.FromAccountID != nil {
		response.FromAccountID = record.FromAccountID.String()
	}
	if record.ToAccountID != nil {
		response.ToAccountID = record.ToAccountID.String()
	}
	return response
}

func mapRecordsToResponse(records []*transaction.Record) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapRecordToResponse(record))
	}
	return responses
}

func mapAuditEntryToResponse(entry *audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:            entry.ID.String(),
		Sequence:      entry.Sequence,
		ActorID:       entry.ActorID,
		Action:        string(entry.Action),
		ResourceType:  string(entry.ResourceType),
		ResourceID:    entry.ResourceID,
		Details:       entry.Details,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339Nano),
	}
}
