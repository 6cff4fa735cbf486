package folio

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
)

var errDateRequired = core.NewValidationError(errors.New("occurrence date is required"))

type (
	// SequenceRepository hands out folio numbers from per-bucket counters.
	// NextValue must be atomic per key: two callers never get the same value.
	SequenceRepository interface {
		NextValue(ctx context.Context, key SequenceKey, exec ...core.DBExecutor) (int64, error)
		ResetValue(ctx context.Context, key SequenceKey, value int64, exec ...core.DBExecutor) error
	}

	// Observer is notified of reserved & reassigned folios (metrics).
	Observer interface {
		FolioAllocated(series Series)
		FoliosReassigned(n int)
	}

	// MethodFolio is a folio reserved in a payment method's own series.
	MethodFolio struct {
		Column    Column `json:"column"`
		Value     int64  `json:"value"`
		Formatted string `json:"formatted"`
	}

	// Allocator computes folio numbers & display strings for a campus's financial records.
	// It never caches numbers: every value comes from the SequenceRepository.
	// Months (buckets & MMYY) are taken in loc, the campuses' business time zone.
	Allocator struct {
		campuses campus.Directory
		cards    campus.CardRegistry
		seqs     SequenceRepository
		obs      Observer
		loc      *time.Location
	}
)

type nopObserver struct{}

func (nopObserver) FolioAllocated(Series) {}
func (nopObserver) FoliosReassigned(int)  {}

// NewAllocator returns an allocator; obs may be nil and a nil loc is UTC.
func NewAllocator(campuses campus.Directory, cards campus.CardRegistry, seqs SequenceRepository, obs Observer, loc *time.Location) *Allocator {
	if obs == nil {
		obs = nopObserver{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Allocator{
		campuses: campuses,
		cards:    cards,
		seqs:     seqs,
		obs:      obs,
		loc:      loc,
	}
}

func (a *Allocator) Location() *time.Location {
	return a.loc
}

// resolveCard looks cardID up: an unknown card comes back as no card (invalid cardID).
func (a *Allocator) resolveCard(ctx context.Context, cardID null.Int64, exec []core.DBExecutor) (card null.Int64, exempt bool, err error) {
	if !cardID.Valid {
		return null.Int64{}, false, nil
	}
	exempt, found, err := a.cards.IsCardTaxExempt(ctx, cardID.Int64, exec...)
	if err != nil {
		return null.Int64{}, false, errors.Wrap(err, "looking up card")
	}
	if !found {
		return null.Int64{}, false, nil
	}
	return cardID, exempt, nil
}

func (a *Allocator) campusLetter(ctx context.Context, campusID int64, exec []core.DBExecutor) (string, error) {
	letter, err := a.campuses.GetCampusPrefixLetter(ctx, campusID, exec...)
	if err != nil {
		return "", errors.Wrap(err, "looking up campus")
	}
	return letter, nil
}

func (a *Allocator) reserve(ctx context.Context, key SequenceKey, exec []core.DBExecutor) (int64, error) {
	v, err := a.seqs.NextValue(ctx, key, exec...)
	if err != nil {
		return 0, errors.Wrapf(err, "reserving %s folio", key.Series)
	}
	if v <= 0 {
		// a broken counter would hand out duplicate folios
		return 0, core.NewShutdownError(fmt.Sprintf("folio counter %s/%d/%s is corrupted: %d", key.Series, key.CampusID, key.Period, v))
	}
	a.obs.FolioAllocated(key.Series)
	return v, nil
}

// ShouldAssignSpecificFolio reports whether a payment gets a folio in its method's own series.
// Tax-exempt cards fall back to the generic folio.
func (a *Allocator) ShouldAssignSpecificFolio(ctx context.Context, method PaymentMethod, cardID null.Int64, exec ...core.DBExecutor) (bool, error) {
	switch method {
	case PaymentCash:
		return true, nil
	case PaymentTransfer:
		_, exempt, err := a.resolveCard(ctx, cardID, exec)
		if err != nil {
			return false, err
		}
		return !exempt, nil
	case PaymentCard:
		card, exempt, err := a.resolveCard(ctx, cardID, exec)
		if err != nil {
			return false, err
		}
		return card.Valid && !exempt, nil
	}
	return false, nil
}

// NextMonthlyFolio reserves the next folio of kind's campus-wide monthly bucket asOf falls in.
// Expenses get their own monthly series, separate from the campus-lifetime one NextExpenseFolio uses.
func (a *Allocator) NextMonthlyFolio(ctx context.Context, campusID int64, kind RecordKind, asOf time.Time, exec ...core.DBExecutor) (int64, error) {
	if asOf.IsZero() {
		return 0, errDateRequired
	}
	if _, err := a.campusLetter(ctx, campusID, exec); err != nil {
		return 0, err
	}
	series := SeriesTransaction
	if kind == KindExpense {
		series = SeriesExpenseMonthly
	}
	return a.reserve(ctx, MonthlyKey(campusID, series, asOf, a.loc), exec)
}

// NextPaymentMethodFolio reserves the next folio of the payment method's monthly series.
// It returns nil when the method has no series or the card is tax-exempt.
func (a *Allocator) NextPaymentMethodFolio(ctx context.Context, campusID int64, method PaymentMethod, cardID null.Int64, asOf time.Time, exec ...core.DBExecutor) (*MethodFolio, error) {
	if asOf.IsZero() {
		return nil, errDateRequired
	}
	if method == PaymentTransfer || method == PaymentCard {
		_, exempt, err := a.resolveCard(ctx, cardID, exec)
		if err != nil {
			return nil, err
		}
		if exempt {
			return nil, nil
		}
	}
	cfg, ok := ConfigFor(method)
	if !ok {
		return nil, nil
	}
	if _, err := a.campusLetter(ctx, campusID, exec); err != nil {
		return nil, err
	}

	v, err := a.reserve(ctx, MonthlyKey(campusID, cfg.Column.Series(), asOf, a.loc), exec)
	if err != nil {
		return nil, err
	}
	return &MethodFolio{
		Column:    cfg.Column,
		Value:     v,
		Formatted: cfg.Prefix + Pad(v),
	}, nil
}

// categoryLetter is the second letter of a folio_new prefix; ok is false for methods without one.
func categoryLetter(method PaymentMethod, cardExempt bool) (string, bool) {
	switch method {
	case PaymentTransfer:
		if cardExempt {
			return "I", true
		}
		return "A", true
	case PaymentCash:
		return "E", true
	case PaymentCard:
		return "I", true
	}
	return "", false
}

// FolioPrefix formats a folio_new prefix: <CampusLetter><CategoryLetter>-<MMYY> | .
// MMYY is paymentDate's month in its own location.
func FolioPrefix(campusLetter, category string, paymentDate time.Time) string {
	return campusLetter + category + "-" + paymentDate.Format("0106") + " | "
}

// BuildFolioPrefix returns the prefix saved along a new folio_new number.
// ok is false when the payment method gets no prefix.
func (a *Allocator) BuildFolioPrefix(ctx context.Context, campusID int64, method PaymentMethod, cardID null.Int64, paymentDate time.Time, exec ...core.DBExecutor) (prefix string, ok bool, err error) {
	if paymentDate.IsZero() {
		return "", false, errDateRequired
	}
	var exempt bool
	if method == PaymentTransfer {
		if _, exempt, err = a.resolveCard(ctx, cardID, exec); err != nil {
			return "", false, err
		}
	}
	category, ok := categoryLetter(method, exempt)
	if !ok {
		return "", false, nil
	}
	letter, err := a.campusLetter(ctx, campusID, exec)
	if err != nil {
		return "", false, err
	}
	return FolioPrefix(letter, category, InLocation(paymentDate, a.loc)), true, nil
}

// FormatTransactionFolio is the folio shown for a transaction. It never changes rec.
func FormatTransactionFolio(campusLetter string, rec Transaction, cardExempt bool) string {
	fallback := campusLetter
	if rec.FolioNew.Valid {
		fallback += strconv.FormatInt(rec.FolioNew.Int64, 10)
	}

	switch rec.PaymentMethod {
	case PaymentTransfer:
		if rec.CardID.Valid && cardExempt {
			return fallback
		}
	case PaymentCard:
		if !rec.CardID.Valid || cardExempt {
			return fallback
		}
		if rec.FolioCard.Valid && rec.FolioCard.Int64 > 0 {
			return campusLetter + "T" + Pad(rec.FolioCard.Int64)
		}
		return fallback
	}

	cfg, ok := ConfigFor(rec.PaymentMethod)
	if !ok {
		return fallback
	}
	v := rec.ColumnValue(cfg.Column)
	if !v.Valid || v.Int64 <= 0 {
		return fallback
	}
	return campusLetter + cfg.Prefix + Pad(v.Int64)
}

// DisplayFolio resolves the campus letter & card of rec and formats its folio.
// A card id that does not exist is formatted as no card.
func (a *Allocator) DisplayFolio(ctx context.Context, rec Transaction, exec ...core.DBExecutor) (string, error) {
	letter, err := a.campusLetter(ctx, rec.CampusID, exec)
	if err != nil {
		return "", err
	}
	card, exempt, err := a.resolveCard(ctx, rec.CardID, exec)
	if err != nil {
		return "", err
	}
	view := rec
	view.CardID = card
	return FormatTransactionFolio(letter, view, exempt), nil
}

// ExpensePrefix formats the folio prefix of a campus's expenses: <CampusLetter>G-.
func ExpensePrefix(campusLetter string) string {
	return campusLetter + "G-"
}

func (a *Allocator) GenerateExpenseFolioPrefix(ctx context.Context, campusID int64, exec ...core.DBExecutor) (string, error) {
	letter, err := a.campusLetter(ctx, campusID, exec)
	if err != nil {
		return "", err
	}
	return ExpensePrefix(letter), nil
}

// NextExpenseFolio reserves the next folio of the campus-lifetime expense series (no monthly reset).
func (a *Allocator) NextExpenseFolio(ctx context.Context, campusID int64, exec ...core.DBExecutor) (int64, error) {
	if _, err := a.campusLetter(ctx, campusID, exec); err != nil {
		return 0, err
	}
	return a.reserve(ctx, ExpenseKey(campusID), exec)
}

// FormatExpenseFolio is the folio shown for an expense. It never changes rec.
func FormatExpenseFolio(campusLetter string, rec Expense) string {
	var num string
	if rec.Folio.Valid {
		num = strconv.FormatInt(rec.Folio.Int64, 10)
	}
	if rec.Folio.Valid && rec.FolioPrefix.Valid && rec.FolioPrefix.String != "" {
		return rec.FolioPrefix.String + num
	}
	return ExpensePrefix(campusLetter) + num
}

func (a *Allocator) DisplayExpenseFolio(ctx context.Context, rec Expense, exec ...core.DBExecutor) (string, error) {
	letter, err := a.campusLetter(ctx, rec.CampusID, exec)
	if err != nil {
		return "", err
	}
	return FormatExpenseFolio(letter, rec), nil
}
