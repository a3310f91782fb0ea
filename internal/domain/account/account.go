package account

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/corebank-ledger/internal/domain/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account types offered at opening
const (
	TypeChecking = "CHECKING"
	TypeSavings  = "SAVINGS"
	TypeCredit   = "CREDIT"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrEmptyCustomerID    = errors.New("customer id cannot be empty")
	ErrInvalidAccountType = errors.New("account type must be CHECKING, SAVINGS or CREDIT")
	ErrNegativeRate       = errors.New("interest rate cannot be negative")
	ErrInvalidCreditLimit = errors.New("credit limit must be positive and in the account currency")
)

// monthsPercent turns an annual percentage into a monthly fraction: rate / 12 / 100
var monthsPercent = decimal.NewFromInt(1200)

// Account is the balance-holding entity. Balance is the sum of completed
// postings; AvailableBalance is Balance minus holds and is what solvency is
// checked against.
type Account struct {
	ID               uuid.UUID
	CustomerID       string
	AccountNumber    string
	Type             string
	Currency         string
	Balance          money.Money
	AvailableBalance money.Money
	CreditLimit      *money.Money    // nil when the account has no overdraft facility
	InterestRate     decimal.Decimal // annual, in percent
	Status           Status
	Version          int
	LastActivityAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAccount opens an ACTIVE account with a zero balance. Opening deposits are
// posted afterwards so they leave a transaction record behind.
func NewAccount(customerID, accountType, currency string, interestRate decimal.Decimal, creditLimit *money.Money) (*Account, error) {
	if customerID == "" {
		return nil, ErrEmptyCustomerID
	}
	switch accountType {
	case TypeChecking, TypeSavings, TypeCredit:
	default:
		return nil, ErrInvalidAccountType
	}
	if interestRate.IsNegative() {
		return nil, ErrNegativeRate
	}
	zero := money.Zero(currency)
	if zero.Currency() == "" {
		return nil, money.ErrInvalidCurrency
	}
	if creditLimit != nil && (!creditLimit.IsPositive() || creditLimit.Currency() != zero.Currency()) {
		return nil, ErrInvalidCreditLimit
	}

	now := time.Now().UTC()
	return &Account{
		ID:               uuid.New(),
		CustomerID:       customerID,
		AccountNumber:    newAccountNumber(),
		Type:             accountType,
		Currency:         zero.Currency(),
		Balance:          zero,
		AvailableBalance: zero,
		CreditLimit:      creditLimit,
		InterestRate:     interestRate,
		Status:           StatusActive,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// EnsureOperable rejects CLOSED accounts always, and anything but ACTIVE when
// the caller asked for an active account.
func (a *Account) EnsureOperable(requireActive bool) error {
	if a.Status == StatusClosed || (requireActive && a.Status != StatusActive) {
		return ErrInvalidAccountStatus{AccountID: a.ID, Status: a.Status}
	}
	return nil
}

// SpendingPower is the largest debit the account can absorb.
func (a *Account) SpendingPower() money.Money {
	if a.CreditLimit == nil {
		return a.AvailableBalance
	}
	power, err := a.AvailableBalance.Add(*a.CreditLimit)
	if err != nil {
		return a.AvailableBalance
	}
	return power
}

// Credit adds amount to both balance fields.
func (a *Account) Credit(amount money.Money, at time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	available, err := a.AvailableBalance.Add(amount)
	if err != nil {
		return err
	}
	a.apply(balance, available, at)
	return nil
}

// Debit removes amount from both balance fields after the solvency check.
// Nothing is modified when the check fails.
func (a *Account) Debit(amount money.Money, at time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	cmp, err := a.SpendingPower().Cmp(amount)
	if err != nil {
		return err
	}
	if cmp < 0 {
		return ErrInsufficientFunds{AccountID: a.ID, Available: a.AvailableBalance, Requested: amount}
	}
	balance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}
	available, err := a.AvailableBalance.Sub(amount)
	if err != nil {
		return err
	}
	a.apply(balance, available, at)
	return nil
}

// MonthlyInterest is round(balance * rate / 12 / 100, 2). Overdrawn balances
// yield a negative figure, which callers treat as nothing to post.
func (a *Account) MonthlyInterest() money.Money {
	return a.Balance.Ratio(a.InterestRate, monthsPercent)
}

// ChangeStatus moves the account through its lifecycle.
func (a *Account) ChangeStatus(next Status, at time.Time) error {
	if !next.Valid() {
		return ErrInvalidStatus{Status: next}
	}
	if !a.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition{AccountID: a.ID, From: a.Status, To: next}
	}
	a.Status = next
	a.UpdatedAt = at
	a.Version++
	return nil
}

// CheckInvariants verifies the balance relationships that must hold after
// every posting.
func (a *Account) CheckInvariants() error {
	cmp, err := a.AvailableBalance.Cmp(a.Balance)
	if err != nil {
		return err
	}
	if cmp > 0 {
		return fmt.Errorf("account %s: available balance %s exceeds balance %s", a.ID, a.AvailableBalance, a.Balance)
	}
	floor := money.Zero(a.Currency)
	if a.CreditLimit != nil {
		floor = a.CreditLimit.Neg()
	}
	if c, _ := a.Balance.Cmp(floor); c < 0 {
		return fmt.Errorf("account %s: balance %s below floor %s", a.ID, a.Balance, floor)
	}
	if c, _ := a.AvailableBalance.Cmp(floor); c < 0 {
		return fmt.Errorf("account %s: available balance %s below floor %s", a.ID, a.AvailableBalance, floor)
	}
	return nil
}

func (a *Account) apply(balance, available money.Money, at time.Time) {
	a.Balance = balance
	a.AvailableBalance = available
	a.LastActivityAt = &at
	a.UpdatedAt = at
	a.Version++
}

func newAccountNumber() string {
	return fmt.Sprintf("%010d", rand.Int63n(10_000_000_000))
}
