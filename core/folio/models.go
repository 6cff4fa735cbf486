package folio

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
)

// PaymentMethod is the canonical payment method of a financial record.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCard     PaymentMethod = "card"
	PaymentOther    PaymentMethod = "other"
)

// localized & legacy spellings seen in stored records
var paymentMethodAliases = map[string]PaymentMethod{
	"cash":     PaymentCash,
	"efectivo": PaymentCash,

	"transfer":       PaymentTransfer,
	"transferencia":  PaymentTransfer,
	"bank_transfer":  PaymentTransfer,
	"spei":           PaymentTransfer,
	"deposito":       PaymentTransfer,
	"depósito":       PaymentTransfer,
	"deposit":        PaymentTransfer,
	"wire_transfer":  PaymentTransfer,
	"transferencias": PaymentTransfer,

	"card":            PaymentCard,
	"tarjeta":         PaymentCard,
	"credit_card":     PaymentCard,
	"debit_card":      PaymentCard,
	"tarjeta_credito": PaymentCard,
	"tarjeta_crédito": PaymentCard,
	"tarjeta_debito":  PaymentCard,
	"tarjeta_débito":  PaymentCard,
	"tdc":             PaymentCard,
	"tdd":             PaymentCard,

	"other":   PaymentOther,
	"otro":    PaymentOther,
	"cheque":  PaymentOther,
	"check":   PaymentOther,
	"beca":    PaymentOther,
	"voucher": PaymentOther,
}

var methodReplacer = strings.NewReplacer(" ", "_", "-", "_")

// ParsePaymentMethod canonicalizes s. ok is false when s is not a payment method we know of.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	key := methodReplacer.Replace(core.CleanString(s, true /* lower */))
	key = strings.TrimPrefix(key, "tarjeta_de_")
	if key == "credito" || key == "crédito" || key == "debito" || key == "débito" {
		return PaymentCard, true
	}
	m, ok := paymentMethodAliases[key]
	if !ok {
		return PaymentOther, false
	}
	return m, true
}

// CanonicalPaymentMethod is ParsePaymentMethod without the ok flag; unknown methods are PaymentOther.
func CanonicalPaymentMethod(s string) PaymentMethod {
	m, _ := ParsePaymentMethod(s)
	return m
}

// Column is a per-payment-method folio column of a transaction.
type Column string

const (
	ColumnCash     Column = "folio_cash"
	ColumnTransfer Column = "folio_transfer"
	ColumnCard     Column = "folio_card"
)

// Config is the column & display prefix a payment method numbers its folios with.
type Config struct {
	Column Column
	Prefix string
}

var methodConfigs = map[PaymentMethod]Config{
	PaymentTransfer: {Column: ColumnTransfer, Prefix: "A"},
	PaymentCash:     {Column: ColumnCash, Prefix: "E"},
	PaymentCard:     {Column: ColumnCard, Prefix: "T"},
}

// ConfigFor returns the folio config of m; ok is false for methods without a specific folio series.
func ConfigFor(m PaymentMethod) (Config, bool) {
	cfg, ok := methodConfigs[m]
	return cfg, ok
}

// RecordKind is the kind of financial record a folio belongs to.
type RecordKind string

const (
	KindTransaction RecordKind = "transaction"
	KindExpense     RecordKind = "expense"
)

// Series identifies an independent folio sequence of a campus.
type Series string

const (
	SeriesTransaction Series = "transaction.folio_new"
	SeriesCash        Series = "transaction.folio_cash"
	SeriesTransfer    Series = "transaction.folio_transfer"
	SeriesCard        Series = "transaction.folio_card"
	SeriesExpense     Series = "expense.folio"

	// SeriesExpenseMonthly numbers expenses per month. The live expense path is campus-lifetime
	// (SeriesExpense); whether expenses should ever reset monthly is still undecided, so both exist.
	SeriesExpenseMonthly Series = "expense.folio_monthly"
)

func (c Column) Series() Series {
	switch c {
	case ColumnCash:
		return SeriesCash
	case ColumnTransfer:
		return SeriesTransfer
	case ColumnCard:
		return SeriesCard
	}
	return ""
}

// SequenceKey is a folio bucket: numbers are unique within it.
// Period is YYYY-MM for monthly buckets and empty for campus-lifetime ones.
type SequenceKey struct {
	CampusID int64
	Series   Series
	Period   string
}

// InLocation returns t in loc; a nil loc is UTC.
func InLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc)
}

// Period returns the monthly bucket (YYYY-MM) t falls in, in the business location loc.
func Period(t time.Time, loc *time.Location) string {
	return InLocation(t, loc).Format("2006-01")
}

// MonthlyKey is the bucket of t's month (in loc) for a campus series.
func MonthlyKey(campusID int64, s Series, t time.Time, loc *time.Location) SequenceKey {
	return SequenceKey{CampusID: campusID, Series: s, Period: Period(t, loc)}
}

// ExpenseKey is the campus-lifetime expense bucket.
func ExpenseKey(campusID int64) SequenceKey {
	return SequenceKey{CampusID: campusID, Series: SeriesExpense}
}

// ParseFolio reads a stored folio the way an unsigned cast does:
// leading digits are the value, anything else degrades to 0.
func ParseFolio(s string) int64 {
	s = strings.TrimSpace(s)
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
		if n > 1<<53 {
			return 0
		}
	}
	return n
}

// Pad formats v zero-padded to 4 digits.
func Pad(v int64) string {
	return fmt.Sprintf("%04d", v)
}

// Transaction is a payment received by a campus.
type Transaction struct {
	ID            string          `json:"id"`
	CampusID      int64           `json:"campus_id"`
	Concept       string          `json:"concept"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CardID        null.Int64      `json:"card_id"`
	PaidAt        time.Time       `json:"paid_at"` // UTC
	FolioNew      null.Int64      `json:"folio_new"`
	FolioPrefix   null.String     `json:"folio_prefix"`
	FolioCash     null.Int64      `json:"folio_cash"`
	FolioTransfer null.Int64      `json:"folio_transfer"`
	FolioCard     null.Int64      `json:"folio_card"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
}

// ColumnValue returns the folio stored in col.
func (t Transaction) ColumnValue(col Column) null.Int64 {
	switch col {
	case ColumnCash:
		return t.FolioCash
	case ColumnTransfer:
		return t.FolioTransfer
	case ColumnCard:
		return t.FolioCard
	}
	return null.Int64{}
}

func (t *Transaction) SetColumnValue(col Column, v int64) {
	switch col {
	case ColumnCash:
		t.FolioCash = null.Int64From(v)
	case ColumnTransfer:
		t.FolioTransfer = null.Int64From(v)
	case ColumnCard:
		t.FolioCard = null.Int64From(v)
	}
}

// Expense ("gasto") is money spent by a campus.
type Expense struct {
	ID            string          `json:"id"`
	CampusID      int64           `json:"campus_id"`
	Category      string          `json:"category"`
	Concept       string          `json:"concept"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	ExpenseDate   time.Time       `json:"expense_date"` // UTC
	Folio         null.Int64      `json:"folio"`
	FolioPrefix   null.String     `json:"folio_prefix"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
}

// NewTransaction contains information needed to record a payment.
type NewTransaction struct {
	CampusID      int64           `json:"campus_id" validate:"required,gt=0"`
	Concept       string          `json:"concept" validate:"max=255"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,paymethod"`
	CardID        null.Int64      `json:"card_id"`
	PaidAt        time.Time       `json:"paid_at" validate:"required"`
}

func (nt *NewTransaction) Validate(validate *validator.Validate, translator ut.Translator) error {
	nt.Concept = core.CleanString(nt.Concept)
	nt.PaymentMethod = core.CleanString(nt.PaymentMethod)
	if err := validate.Struct(nt); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}

// NewExpense contains information needed to record an expense.
type NewExpense struct {
	CampusID      int64           `json:"campus_id" validate:"required,gt=0"`
	Category      string          `json:"category" validate:"omitempty,max=64,alphanum_"`
	Concept       string          `json:"concept" validate:"max=255"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,paymethod"`
	ExpenseDate   time.Time       `json:"expense_date" validate:"required"`
}

func (ne *NewExpense) Validate(validate *validator.Validate, translator ut.Translator) error {
	ne.Category = core.CleanString(ne.Category, true /* lower */)
	ne.Concept = core.CleanString(ne.Concept)
	ne.PaymentMethod = core.CleanString(ne.PaymentMethod)
	if err := validate.Struct(ne); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}

// ExpenseFilter selects expenses; zero values select everything.
type ExpenseFilter struct {
	CampusID     int64
	MissingFolio bool // only expenses without a folio
	HasFolio     bool // only expenses with a folio
}
