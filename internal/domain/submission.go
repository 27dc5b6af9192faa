package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxWasteTypes is the number of waste type blocks a single movement can carry.
const MaxWasteTypes = 10

// QuantityUnit is the unit a waste quantity is measured in.
type QuantityUnit string

const (
	QuantityUnitTonne      QuantityUnit = "Tonne"
	QuantityUnitCubicMetre QuantityUnit = "CubicMetre"
	QuantityUnitKilogram   QuantityUnit = "Kilogram"
	QuantityUnitLitre      QuantityUnit = "Litre"
)

func (u QuantityUnit) String() string { return string(u) }

func (u QuantityUnit) IsValid() bool {
	switch u {
	case QuantityUnitTonne, QuantityUnitCubicMetre, QuantityUnitKilogram, QuantityUnitLitre:
		return true
	}
	return false
}

// QuantityType tells whether a quantity was measured or estimated.
type QuantityType string

const (
	QuantityTypeActual   QuantityType = "ActualData"
	QuantityTypeEstimate QuantityType = "EstimateData"
)

func (t QuantityType) String() string { return string(t) }

func (t QuantityType) IsValid() bool {
	switch t {
	case QuantityTypeActual, QuantityTypeEstimate:
		return true
	}
	return false
}

// PhysicalForm is the physical state of a waste type.
type PhysicalForm string

const (
	PhysicalFormGas    PhysicalForm = "Gas"
	PhysicalFormLiquid PhysicalForm = "Liquid"
	PhysicalFormSolid  PhysicalForm = "Solid"
	PhysicalFormPowder PhysicalForm = "Powder"
	PhysicalFormSludge PhysicalForm = "Sludge"
	PhysicalFormMixed  PhysicalForm = "Mixed"
)

var physicalForms = []PhysicalForm{
	PhysicalFormGas,
	PhysicalFormLiquid,
	PhysicalFormSolid,
	PhysicalFormPowder,
	PhysicalFormSludge,
	PhysicalFormMixed,
}

func (f PhysicalForm) String() string { return string(f) }

// ParsePhysicalForm matches s case-insensitively against the known forms.
func ParsePhysicalForm(s string) (PhysicalForm, bool) {
	trimmed := strings.TrimSpace(s)
	for _, f := range physicalForms {
		if strings.EqualFold(trimmed, string(f)) {
			return f, true
		}
	}
	return "", false
}

// Date is a calendar day as entered on a movement. It is stored in its
// structured form so queries can match on day, month and year.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (d Date) IsZero() bool { return d.Day == 0 && d.Month == 0 && d.Year == 0 }

// String renders the date as dd/mm/yyyy, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

type Address struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	TownCity     string `json:"townCity"`
	Postcode     string `json:"postcode,omitempty"`
	Country      string `json:"country"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Producer struct {
	OrganisationName string  `json:"organisationName"`
	Address          Address `json:"address"`
	Contact          Contact `json:"contact"`
	SicCode          string  `json:"sicCode,omitempty"`
}

type WasteCollection struct {
	Address                   Address `json:"address"`
	LocalAuthority            string  `json:"localAuthority"`
	WasteSource               string  `json:"wasteSource"`
	BrokerRegistrationNumber  string  `json:"brokerRegistrationNumber,omitempty"`
	CarrierRegistrationNumber string  `json:"carrierRegistrationNumber,omitempty"`
	ExpectedCollectionDate    Date    `json:"expectedCollectionDate"`
}

type Receiver struct {
	AuthorisationType         string  `json:"authorisationType"`
	EnvironmentalPermitNumber string  `json:"environmentalPermitNumber"`
	OrganisationName          string  `json:"organisationName"`
	Address                   Address `json:"address"`
	Contact                   Contact `json:"contact"`
}

type Carrier struct {
	OrganisationName    string  `json:"organisationName"`
	Address             Address `json:"address"`
	Contact             Contact `json:"contact"`
	VehicleRegistration string  `json:"vehicleRegistration,omitempty"`
	ModeOfTransport     string  `json:"modeOfTransport"`
}

type WasteTransportation struct {
	NumberAndTypeOfContainers   string `json:"numberAndTypeOfContainers"`
	SpecialHandlingRequirements string `json:"specialHandlingRequirements,omitempty"`
}

// Component is a named constituent of a waste type with its concentration.
type Component struct {
	Name          string `json:"name"`
	Concentration string `json:"concentration"`
	Unit          string `json:"unit"`
}

type WasteType struct {
	EwcCode                         string          `json:"ewcCode"`
	Description                     string          `json:"description"`
	PhysicalForm                    PhysicalForm    `json:"physicalForm"`
	Quantity                        decimal.Decimal `json:"quantity"`
	QuantityUnit                    QuantityUnit    `json:"quantityUnit"`
	QuantityType                    QuantityType    `json:"quantityType"`
	ChemicalAndBiologicalComponents []Component     `json:"chemicalAndBiologicalComponents,omitempty"`
	HasHazardousProperties          bool            `json:"hasHazardousProperties"`
	HazardousWasteCodes             []string        `json:"hazardousWasteCodes,omitempty"`
	ContainsPops                    bool            `json:"containsPops"`
	Pops                            []Component     `json:"pops,omitempty"`
}

// Submission is one fully typed waste movement built from a valid row.
type Submission struct {
	ID                  string              `json:"id,omitempty"`
	WasteMovementID     string              `json:"wasteMovementId,omitempty"`
	Reference           string              `json:"reference"`
	Producer            Producer            `json:"producer"`
	WasteCollection     WasteCollection     `json:"wasteCollection"`
	Receiver            Receiver            `json:"receiver"`
	Carrier             Carrier             `json:"carrier"`
	WasteTransportation WasteTransportation `json:"wasteTransportation"`
	WasteTypes          []WasteType         `json:"wasteTypes"`
}

// HasEstimates reports whether any waste type quantity is an estimate.
func (s Submission) HasEstimates() bool {
	for _, wt := range s.WasteTypes {
		if wt.QuantityType == QuantityTypeEstimate {
			return true
		}
	}
	return false
}

// EwcCodes lists the EWC code of every waste type in declaration order.
func (s Submission) EwcCodes() []string {
	codes := make([]string, 0, len(s.WasteTypes))
	for _, wt := range s.WasteTypes {
		codes = append(codes, wt.EwcCode)
	}
	return codes
}

// Summary projects a submission to the listing shape kept on Submitted batches.
func (s Submission) Summary() SubmissionSummary {
	return SubmissionSummary{
		ID:              s.ID,
		WasteMovementID: s.WasteMovementID,
		ProducerName:    s.Producer.OrganisationName,
		EwcCodes:        s.EwcCodes(),
		CollectionDate:  s.WasteCollection.ExpectedCollectionDate,
	}
}

// SubmissionSummary is the lightweight projection of a submitted movement.
type SubmissionSummary struct {
	ID              string   `json:"id"`
	WasteMovementID string   `json:"wasteMovementId"`
	ProducerName    string   `json:"producerName"`
	EwcCodes        []string `json:"ewcCodes"`
	CollectionDate  Date     `json:"collectionDate"`
}

// SubmissionPartialSummary is a row of the paginated submitted-rows listing.
type SubmissionPartialSummary struct {
	ID             string `json:"id"`
	TransactionID  string `json:"transactionId"`
	ProducerName   string `json:"producerName"`
	EwcCode        string `json:"ewcCode"`
	CollectionDate Date   `json:"collectionDate"`
}
