package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// FailureReason is why a single value was rejected.
type FailureReason string

const (
	ReasonEmpty       FailureReason = "empty"
	ReasonInvalid     FailureReason = "invalid"
	ReasonCharTooMany FailureReason = "charTooMany"
	ReasonCharTooFew  FailureReason = "charTooFew"
)

// Result is the outcome of a rule. Value is normalized and only meaningful
// when Valid is true.
type Result[T any] struct {
	Valid  bool
	Value  T
	Errors []FailureReason
}

func ok[T any](v T) Result[T] { return Result[T]{Valid: true, Value: v} }

func fail[T any](reasons ...FailureReason) Result[T] {
	return Result[T]{Errors: reasons}
}

// Has reports whether reason is among the failures.
func (r Result[T]) Has(reason FailureReason) bool {
	for _, e := range r.Errors {
		if e == reason {
			return true
		}
	}
	return false
}

var (
	validate = validator.New()

	referencePattern = regexp.MustCompile(`^[A-Za-z0-9/\-]+$`)
	postcodePattern  = regexp.MustCompile(`^(GIR ?0AA|[A-Z]{1,2}[0-9][0-9A-Z]? ?[0-9][A-Z]{2})$`)
	phonePattern     = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	sicPattern       = regexp.MustCompile(`^[0-9]{5}$`)
	ewcPattern       = regexp.MustCompile(`^[0-9]{6}$`)
	hpPattern        = regexp.MustCompile(`^HP([1-9]|1[0-5])$`)
	phoneSeparators  = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

var countries = []string{"England", "Wales", "Scotland", "Northern Ireland"}

var transportModes = []string{"Road", "Rail", "Sea", "Air", "Inland waterways"}

var authorisationTypes = []string{"Permit", "Exemption"}

// Text validates free text. Optional empty values are valid.
func Text(s string, required bool, maxLen int) Result[string] {
	v := strings.TrimSpace(s)
	if v == "" {
		if required {
			return fail[string](ReasonEmpty)
		}
		return ok(v)
	}
	if utf8.RuneCountInString(v) > maxLen {
		return fail[string](ReasonCharTooMany)
	}
	return ok(v)
}

// Reference validates the producer's unique reference.
func Reference(s string, maxLen int) Result[string] {
	r := Text(s, true, maxLen)
	if !r.Valid {
		return r
	}
	if !referencePattern.MatchString(r.Value) {
		return fail[string](ReasonInvalid)
	}
	return r
}

// Postcode validates a UK postcode and returns it upper cased.
func Postcode(s string, required bool) Result[string] {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		if required {
			return fail[string](ReasonEmpty)
		}
		return ok(v)
	}
	if !postcodePattern.MatchString(v) {
		return fail[string](ReasonInvalid)
	}
	return ok(v)
}

func oneOf(s string, allowed []string) Result[string] {
	v := strings.TrimSpace(s)
	if v == "" {
		return fail[string](ReasonEmpty)
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return ok(a)
		}
	}
	return fail[string](ReasonInvalid)
}

// Country accepts the four UK nations.
func Country(s string) Result[string] { return oneOf(s, countries) }

// TransportMode accepts the supported modes of transport.
func TransportMode(s string) Result[string] { return oneOf(s, transportModes) }

// AuthorisationType accepts Permit or Exemption.
func AuthorisationType(s string) Result[string] { return oneOf(s, authorisationTypes) }

// Email validates a required email address.
func Email(s string, maxLen int) Result[string] {
	v := strings.TrimSpace(s)
	if v == "" {
		return fail[string](ReasonEmpty)
	}
	if utf8.RuneCountInString(v) > maxLen {
		return fail[string](ReasonCharTooMany)
	}
	if err := validate.Var(v, "email"); err != nil {
		return fail[string](ReasonInvalid)
	}
	return ok(v)
}

// Phone validates a required phone number. Spaces, hyphens and brackets
// are ignored when checking the digits.
func Phone(s string) Result[string] {
	v := strings.TrimSpace(s)
	if v == "" {
		return fail[string](ReasonEmpty)
	}
	digits := phoneSeparators.Replace(v)
	if len(strings.TrimPrefix(digits, "+")) < 7 {
		return fail[string](ReasonCharTooFew)
	}
	if !phonePattern.MatchString(digits) {
		return fail[string](ReasonInvalid)
	}
	return ok(v)
}

// SicCode validates an optional five digit SIC code.
func SicCode(s string) Result[string] {
	v := strings.TrimSpace(s)
	if v == "" {
		return ok(v)
	}
	if !sicPattern.MatchString(v) {
		return fail[string](ReasonInvalid)
	}
	return ok(v)
}

// Date parses dd/mm/yyyy. Single digit days and months are accepted.
func Date(s string) Result[domain.Date] {
	v := strings.TrimSpace(s)
	if v == "" {
		return fail[domain.Date](ReasonEmpty)
	}
	t, err := time.Parse("2/1/2006", v)
	if err != nil {
		return fail[domain.Date](ReasonInvalid)
	}
	return ok(domain.Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()})
}

// EwcCode validates a six digit European Waste Catalogue code. Spaces are
// removed.
func EwcCode(s string) Result[string] {
	v := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if v == "" {
		return fail[string](ReasonEmpty)
	}
	if !ewcPattern.MatchString(v) {
		return fail[string](ReasonInvalid)
	}
	return ok(v)
}

// PhysicalForm validates the physical form of a waste type.
func PhysicalForm(s string) Result[domain.PhysicalForm] {
	if strings.TrimSpace(s) == "" {
		return fail[domain.PhysicalForm](ReasonEmpty)
	}
	f, found := domain.ParsePhysicalForm(s)
	if !found {
		return fail[domain.PhysicalForm](ReasonInvalid)
	}
	return ok(f)
}

// Quantity parses a positive decimal with at most two decimal places.
func Quantity(s string) Result[decimal.Decimal] {
	v := strings.TrimSpace(s)
	if v == "" {
		return fail[decimal.Decimal](ReasonEmpty)
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() || !d.Equal(d.Truncate(2)) {
		return fail[decimal.Decimal](ReasonInvalid)
	}
	return ok(d)
}

// QuantityUnit validates the unit of a waste quantity.
func QuantityUnit(s string) Result[domain.QuantityUnit] {
	if strings.TrimSpace(s) == "" {
		return fail[domain.QuantityUnit](ReasonEmpty)
	}
	u, found := csvcodec.ParseQuantityUnit(s)
	if !found {
		return fail[domain.QuantityUnit](ReasonInvalid)
	}
	return ok(u)
}

// QuantityType validates whether a quantity is actual or estimated.
func QuantityType(s string) Result[domain.QuantityType] {
	if strings.TrimSpace(s) == "" {
		return fail[domain.QuantityType](ReasonEmpty)
	}
	t, found := csvcodec.ParseQuantityType(s)
	if !found {
		return fail[domain.QuantityType](ReasonInvalid)
	}
	return ok(t)
}

// YesNo parses Y, N, Yes or No.
func YesNo(s string) Result[bool] {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return fail[bool](ReasonEmpty)
	case "Y", "YES":
		return ok(true)
	case "N", "NO":
		return ok(false)
	}
	return fail[bool](ReasonInvalid)
}

// List splits a semicolon separated value and trims every entry. Entries
// are kept positionally, so blank entries remain as "".
func List(s string) []string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// HazardousCodes validates a list of HP codes and returns them normalized
// as HP<n>.
func HazardousCodes(s string) Result[[]string] {
	entries := List(s)
	if len(entries) == 0 {
		return fail[[]string](ReasonEmpty)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		code := strings.ToUpper(strings.ReplaceAll(e, " ", ""))
		if !hpPattern.MatchString(code) {
			return fail[[]string](ReasonInvalid)
		}
		out = append(out, code)
	}
	return ok(out)
}

// Names validates a list of component or pollutant names. No entry may be
// blank.
func Names(s string) Result[[]string] {
	entries := List(s)
	if len(entries) == 0 {
		return fail[[]string](ReasonEmpty)
	}
	for _, e := range entries {
		if e == "" {
			return fail[[]string](ReasonInvalid)
		}
	}
	return ok(entries)
}

// Concentrations validates a list of non-negative numbers, one per name.
// Fewer or more values than want are reported as charTooFew/charTooMany.
func Concentrations(s string, want int) Result[[]string] {
	entries := List(s)
	switch {
	case len(entries) < want:
		return fail[[]string](ReasonCharTooFew)
	case len(entries) > want:
		return fail[[]string](ReasonCharTooMany)
	}
	for _, e := range entries {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil || f < 0 {
			return fail[[]string](ReasonInvalid)
		}
	}
	return ok(entries)
}
