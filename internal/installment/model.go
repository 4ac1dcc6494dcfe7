package installment

import (
	"encoding/json"
	"time"

	"gymdesk/internal/caldate"
)

type Method string

const (
	MethodCash Method = "cash"
	MethodPOS  Method = "pos"
)

func (m Method) Valid() bool {
	return m == MethodCash || m == MethodPOS
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Installment is one of up to three payment sub-records on a membership
// request. Once paid it is immutable.
type Installment struct {
	Number      int          `json:"number"`
	AmountCents int64        `json:"amount_cents"`
	DueDate     caldate.Date `json:"due_date"`
	Paid        bool         `json:"paid"`
	PaidAt      *time.Time   `json:"paid_at,omitempty"`
	Method      *Method      `json:"method,omitempty"`
	Locked      bool         `json:"locked"`
	Deleted     bool         `json:"deleted"`
}

// Participates reports whether the installment takes part in status and
// aggregate computations. Deleted or zero-amount records do not exist as
// far as the evaluator is concerned.
func (i Installment) Participates() bool {
	return !i.Deleted && i.AmountCents > 0
}

// Request is a membership purchase request. The installment sub-records
// live as fixed column groups on the row, mirroring the capped plan of at
// most three installments (the third is soft-deletable).
type Request struct {
	ID        int           `db:"id" json:"id"`
	UserID    int           `db:"user_id" json:"user_id"`
	PackageID int           `db:"package_id" json:"package_id"`
	Status    RequestStatus `db:"status" json:"status"`

	HasInstallments     bool `db:"has_installments" json:"has_installments"`
	AllInstallmentsPaid bool `db:"all_installments_paid" json:"all_installments_paid"`

	Amount1 int64        `db:"installment_1_amount_cents" json:"-"`
	Due1    caldate.Date `db:"installment_1_due_date" json:"-"`
	Paid1   bool         `db:"installment_1_paid" json:"-"`
	PaidAt1 *time.Time   `db:"installment_1_paid_at" json:"-"`
	Method1 *Method      `db:"installment_1_method" json:"-"`
	Locked1 bool         `db:"installment_1_locked" json:"-"`

	Amount2 int64        `db:"installment_2_amount_cents" json:"-"`
	Due2    caldate.Date `db:"installment_2_due_date" json:"-"`
	Paid2   bool         `db:"installment_2_paid" json:"-"`
	PaidAt2 *time.Time   `db:"installment_2_paid_at" json:"-"`
	Method2 *Method      `db:"installment_2_method" json:"-"`
	Locked2 bool         `db:"installment_2_locked" json:"-"`

	Amount3  int64        `db:"installment_3_amount_cents" json:"-"`
	Due3     caldate.Date `db:"installment_3_due_date" json:"-"`
	Paid3    bool         `db:"installment_3_paid" json:"-"`
	PaidAt3  *time.Time   `db:"installment_3_paid_at" json:"-"`
	Method3  *Method      `db:"installment_3_method" json:"-"`
	Locked3  bool         `db:"installment_3_locked" json:"-"`
	Deleted3 bool         `db:"installment_3_deleted" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Installments assembles the three column groups into records.
func (r Request) Installments() []Installment {
	return []Installment{
		{Number: 1, AmountCents: r.Amount1, DueDate: r.Due1, Paid: r.Paid1, PaidAt: r.PaidAt1, Method: r.Method1, Locked: r.Locked1},
		{Number: 2, AmountCents: r.Amount2, DueDate: r.Due2, Paid: r.Paid2, PaidAt: r.PaidAt2, Method: r.Method2, Locked: r.Locked2},
		{Number: 3, AmountCents: r.Amount3, DueDate: r.Due3, Paid: r.Paid3, PaidAt: r.PaidAt3, Method: r.Method3, Locked: r.Locked3, Deleted: r.Deleted3},
	}
}

// MarshalJSON inlines the installment records as a list so API clients
// do not have to know about the flattened column layout. Slots that were
// never planned are omitted.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	installments := make([]Installment, 0, 3)
	for _, inst := range r.Installments() {
		if inst.AmountCents > 0 {
			installments = append(installments, inst)
		}
	}
	return json.Marshal(struct {
		plain
		Installments []Installment `json:"installments"`
	}{plain(r), installments})
}

// PlannedInstallment is the caller-supplied shape of one installment at
// request creation time.
type PlannedInstallment struct {
	AmountCents int64        `json:"amount_cents" binding:"required,gt=0"`
	DueDate     caldate.Date `json:"due_date" binding:"required"`
	Locked      bool         `json:"locked"`
}
