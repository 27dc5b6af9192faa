package csvcodec

import (
	"strings"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// quoting marks columns whose values are wrapped in apostrophes so that
// spreadsheets keep them as text.
type quoting int

const (
	quoteNone quoting = iota
	quoteLeading
	quoteBoth
)

type column struct {
	name    string
	section string
	quote   quoting
	field   func(r *RawRow) *string
}

const (
	sectionReference      = "Your reference"
	sectionProducer       = "Producer details"
	sectionCollection     = "Waste collection details"
	sectionReceiver       = "Receiver details"
	sectionCarrier        = "Carrier details"
	sectionTransportation = "Waste transportation details"
	sectionMovement       = "Waste movement"
)

var fixedColumns = []column{
	{name: "Your unique reference", section: sectionReference, field: func(r *RawRow) *string { return &r.Reference }},

	{name: "Producer organisation name", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.OrganisationName }},
	{name: "Producer address line 1", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Address.Line1 }},
	{name: "Producer address line 2", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Address.Line2 }},
	{name: "Producer town or city", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Address.TownCity }},
	{name: "Producer postcode", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Address.Postcode }},
	{name: "Producer country", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Address.Country }},
	{name: "Producer contact name", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Contact.Name }},
	{name: "Producer contact email address", section: sectionProducer, field: func(r *RawRow) *string { return &r.Producer.Contact.Email }},
	{name: "Producer contact phone number", section: sectionProducer, quote: quoteLeading, field: func(r *RawRow) *string { return &r.Producer.Contact.Phone }},
	{name: "Producer Standard Industrial Classification (SIC) code", section: sectionProducer, field: func(r *RawRow) *string { return &r.ProducerSicCode }},

	{name: "Waste collection address line 1", section: sectionCollection, field: func(r *RawRow) *string { return &r.Collection.Address.Line1 }},
	{name: "Waste collection address line 2", section: sectionCollection, field: func(r *RawRow) *string { return &r.Collection.Address.Line2 }},
	{name: "Waste collection town or city", section: sectionCollection, field: func(r *RawRow) *string { return &r.Collection.Address.TownCity }},
	{name: "Waste collection postcode", section: sectionCollection, field: func(r *RawRow) *string { return &r.Collection.Address.Postcode }},
	{name: "Waste collection country", section: sectionCollection, field: func(r *RawRow) *string { return &r.Collection.Address.Country }},
	{name: "Local authority", section: sectionCollection, field: func(r *RawRow) *string { return &r.LocalAuthority }},
	{name: "Waste source", section: sectionCollection, field: func(r *RawRow) *string { return &r.WasteSource }},
	{name: "Broker registration number", section: sectionCollection, field: func(r *RawRow) *string { return &r.BrokerRegistrationNumber }},
	{name: "Carrier registration number", section: sectionCollection, field: func(r *RawRow) *string { return &r.CarrierRegistrationNumber }},
	{name: "Expected waste collection date", section: sectionCollection, field: func(r *RawRow) *string { return &r.ExpectedCollectionDate }},

	{name: "Receiver authorisation type", section: sectionReceiver, field: func(r *RawRow) *string { return &r.ReceiverAuthorisationType }},
	{name: "Receiver environmental permit number", section: sectionReceiver, field: func(r *RawRow) *string { return &r.ReceiverPermitNumber }},
	{name: "Receiver organisation name", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.OrganisationName }},
	{name: "Receiver address line 1", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Address.Line1 }},
	{name: "Receiver address line 2", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Address.Line2 }},
	{name: "Receiver town or city", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Address.TownCity }},
	{name: "Receiver postcode", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Address.Postcode }},
	{name: "Receiver country", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Address.Country }},
	{name: "Receiver contact name", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Contact.Name }},
	{name: "Receiver contact email address", section: sectionReceiver, field: func(r *RawRow) *string { return &r.Receiver.Contact.Email }},
	{name: "Receiver contact phone number", section: sectionReceiver, quote: quoteLeading, field: func(r *RawRow) *string { return &r.Receiver.Contact.Phone }},

	{name: "Carrier organisation name", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.OrganisationName }},
	{name: "Carrier address line 1", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Address.Line1 }},
	{name: "Carrier address line 2", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Address.Line2 }},
	{name: "Carrier town or city", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Address.TownCity }},
	{name: "Carrier postcode", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Address.Postcode }},
	{name: "Carrier country", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Address.Country }},
	{name: "Carrier contact name", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Contact.Name }},
	{name: "Carrier contact email address", section: sectionCarrier, field: func(r *RawRow) *string { return &r.Carrier.Contact.Email }},
	{name: "Carrier contact phone number", section: sectionCarrier, quote: quoteBoth, field: func(r *RawRow) *string { return &r.Carrier.Contact.Phone }},
	{name: "Carrier vehicle registration", section: sectionCarrier, field: func(r *RawRow) *string { return &r.CarrierVehicleRegistration }},
	{name: "Carrier mode of transport", section: sectionCarrier, field: func(r *RawRow) *string { return &r.CarrierModeOfTransport }},

	{name: "Number and type of containers", section: sectionTransportation, field: func(r *RawRow) *string { return &r.Containers }},
	{name: "Special handling requirements", section: sectionTransportation, field: func(r *RawRow) *string { return &r.SpecialHandling }},

	{name: "Waste movement ID", section: sectionMovement, quote: quoteLeading, field: func(r *RawRow) *string { return &r.WasteMovementID }},
}

type wasteTypeColumn struct {
	suffix string
	quote  quoting
	field  func(w *RawWasteType) *string
}

var wasteTypeColumns = []wasteTypeColumn{
	{suffix: "EWC code", quote: quoteLeading, field: func(w *RawWasteType) *string { return &w.EwcCode }},
	{suffix: "waste description", field: func(w *RawWasteType) *string { return &w.Description }},
	{suffix: "physical form", field: func(w *RawWasteType) *string { return &w.PhysicalForm }},
	{suffix: "waste quantity", field: func(w *RawWasteType) *string { return &w.Quantity }},
	{suffix: "waste quantity units", field: func(w *RawWasteType) *string { return &w.QuantityUnit }},
	{suffix: "quantity of waste (actual or estimate)", field: func(w *RawWasteType) *string { return &w.QuantityType }},
	{suffix: "chemical and biological components", field: func(w *RawWasteType) *string { return &w.Components }},
	{suffix: "chemical and biological concentration values", field: func(w *RawWasteType) *string { return &w.ComponentConcentrations }},
	{suffix: "chemical and biological concentration units", field: func(w *RawWasteType) *string { return &w.ComponentUnits }},
	{suffix: "has hazardous properties", field: func(w *RawWasteType) *string { return &w.HasHazardousProperties }},
	{suffix: "hazardous waste codes", field: func(w *RawWasteType) *string { return &w.HazardousCodes }},
	{suffix: "contains persistent organic pollutants (POPs)", field: func(w *RawWasteType) *string { return &w.ContainsPops }},
	{suffix: "persistent organic pollutants (POPs)", field: func(w *RawWasteType) *string { return &w.PopsNames }},
	{suffix: "persistent organic pollutants (POPs) concentration values", field: func(w *RawWasteType) *string { return &w.PopsConcentrations }},
	{suffix: "persistent organic pollutants (POPs) concentration units", field: func(w *RawWasteType) *string { return &w.PopsUnits }},
}

var ordinalPrefixes = [domain.MaxWasteTypes]string{
	"First", "Second", "Third", "Fourth", "Fifth",
	"Sixth", "Seventh", "Eighth", "Ninth", "Tenth",
}

// columns is the full ordered record shape: the fixed columns followed by
// one block per waste type slot.
var columns = buildColumns()

func buildColumns() []column {
	out := make([]column, 0, len(fixedColumns)+domain.MaxWasteTypes*len(wasteTypeColumns))
	out = append(out, fixedColumns...)

	for i := 0; i < domain.MaxWasteTypes; i++ {
		slot := i
		section := ordinalPrefixes[slot] + " waste type"
		for _, wc := range wasteTypeColumns {
			get := wc.field
			out = append(out, column{
				name:    ordinalPrefixes[slot] + " " + wc.suffix,
				section: section,
				quote:   wc.quote,
				field:   func(r *RawRow) *string { return get(&r.WasteTypes[slot]) },
			})
		}
	}

	return out
}

// ColumnNames returns the ordered column names of the CSV format.
func ColumnNames() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

// sectionsLine has the section name on the first column of each section
// and blanks elsewhere.
func sectionsLine() []string {
	line := make([]string, len(columns))
	prev := ""
	for i, c := range columns {
		if c.section != prev {
			line[i] = c.section
			prev = c.section
		}
	}
	return line
}

func (q quoting) wrap(v string) string {
	if v == "" {
		return v
	}
	switch q {
	case quoteLeading:
		return "'" + v
	case quoteBoth:
		return "'" + v + "'"
	}
	return v
}

func (q quoting) strip(v string) string {
	if q == quoteNone {
		return v
	}
	v = strings.TrimPrefix(v, "'")
	if q == quoteBoth {
		v = strings.TrimSuffix(v, "'")
	}
	return strings.TrimSpace(v)
}
