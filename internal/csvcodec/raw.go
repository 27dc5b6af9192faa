package csvcodec

import (
	"strings"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

type RawAddress struct {
	Line1    string
	Line2    string
	TownCity string
	Postcode string
	Country  string
}

type RawContact struct {
	Name  string
	Email string
	Phone string
}

type RawParty struct {
	OrganisationName string
	Address          RawAddress
	Contact          RawContact
}

// RawWasteType holds the untyped cells of one waste type block.
type RawWasteType struct {
	EwcCode                 string
	Description             string
	PhysicalForm            string
	Quantity                string
	QuantityUnit            string
	QuantityType            string
	Components              string
	ComponentConcentrations string
	ComponentUnits          string
	HasHazardousProperties  string
	HazardousCodes          string
	ContainsPops            string
	PopsNames               string
	PopsConcentrations      string
	PopsUnits               string
}

// IsBlank reports whether no cell of the block was filled in.
func (w RawWasteType) IsBlank() bool {
	for _, wc := range wasteTypeColumns {
		if strings.TrimSpace(*wc.field(&w)) != "" {
			return false
		}
	}
	return true
}

// RawRow is one data line of the upload with cells grouped by the part of
// the movement they describe. Waste types keep their slot position.
type RawRow struct {
	RowNumber int

	Reference       string
	Producer        RawParty
	ProducerSicCode string

	Collection                RawParty
	LocalAuthority            string
	WasteSource               string
	BrokerRegistrationNumber  string
	CarrierRegistrationNumber string
	ExpectedCollectionDate    string

	ReceiverAuthorisationType string
	ReceiverPermitNumber      string
	Receiver                  RawParty

	Carrier                    RawParty
	CarrierVehicleRegistration string
	CarrierModeOfTransport     string

	Containers      string
	SpecialHandling string

	WasteMovementID string

	WasteTypes [domain.MaxWasteTypes]RawWasteType
}

// Record is a decoded CSV line keyed by column name.
type Record struct {
	RowNumber int
	Fields    map[string]string
}

// FlatRow is a download line keyed by column name. Every column is present.
type FlatRow map[string]string

// Unflatten groups a record into a RawRow and strips the apostrophes
// spreadsheets need on numeric-looking text columns.
func Unflatten(rec Record) RawRow {
	row := RawRow{RowNumber: rec.RowNumber}
	for _, c := range columns {
		*c.field(&row) = c.quote.strip(rec.Fields[c.name])
	}
	return row
}

func (r RawRow) flat() FlatRow {
	out := make(FlatRow, len(columns))
	for _, c := range columns {
		out[c.name] = c.quote.wrap(*c.field(&r))
	}
	return out
}
