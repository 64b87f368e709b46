package app

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"digital-ondu/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Decimals validate as their string form so money tags can inspect the scale.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	// cents rejects money with a fraction of a cent.
	_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && core.WholeCents(d)
	})
	return v
}

// ValidationError carries per-field failures keyed by JSON field path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return core.ErrInvalidInput }

func fieldError(field, tag string) error {
	return &ValidationError{Fields: map[string]string{field: tag}}
}

// validateStruct runs the struct tags of req and converts failures to a ValidationError.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the leading struct name: "CheckoutRequest.items[0].product_id"
// becomes "items[0].product_id".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// parseTime accepts YYYY-MM-DD or RFC 3339. A bare date resolves to the start of
// that day, or to its last instant when endOfDay is set, so ranges are inclusive.
func parseTime(field, s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fieldError(field, "date")
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Microsecond)
	}
	return &d, nil
}

func parseOptionalUUID(field, s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fieldError(field, "uuid")
	}
	return &id, nil
}

func (q LedgerQuery) filter() (core.LedgerFilter, error) {
	f := core.LedgerFilter{Search: strings.TrimSpace(q.Search), Limit: q.Limit}
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(q.Type)))
	if typ != "" && typ != "all" && !typ.Valid() {
		return f, fieldError("type", "oneof")
	}
	f.Type = typ
	var err error
	if f.ProductID, err = parseOptionalUUID("product_id", q.ProductID); err != nil {
		return f, err
	}
	if f.From, err = parseTime("from", q.From, false); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To, true); err != nil {
		return f, err
	}
	if q.Limit < 0 {
		return f, fieldError("limit", "min")
	}
	return f, nil
}

func (q CashQuery) filter() (core.CashFilter, error) {
	f := core.CashFilter{Limit: q.Limit}
	if t := core.CashEntryType(strings.ToLower(strings.TrimSpace(q.Type))); t != "" && t != "all" {
		if !t.Valid() {
			return f, fieldError("type", "oneof")
		}
		f.Type = t
	}
	var err error
	if f.From, err = parseTime("from", q.From, false); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To, true); err != nil {
		return f, err
	}
	return f, nil
}

func (q SaleQuery) filter() (core.SaleFilter, error) {
	f := core.SaleFilter{Limit: q.Limit}
	var err error
	if f.CustomerID, err = parseOptionalUUID("customer_id", q.CustomerID); err != nil {
		return f, err
	}
	if f.From, err = parseTime("from", q.From, false); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To, true); err != nil {
		return f, err
	}
	return f, nil
}

func (q PurchaseQuery) filter() (core.PurchaseFilter, error) {
	var f core.PurchaseFilter
	var err error
	if f.SupplierID, err = parseOptionalUUID("supplier_id", q.SupplierID); err != nil {
		return f, err
	}
	if f.From, err = parseTime("from", q.From, false); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To, true); err != nil {
		return f, err
	}
	return f, nil
}
