package csvcodec

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/golang/snappy"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

const listSeparator = ";"

// Flatten renders a submission onto the fixed column set. Absent values
// are empty strings.
func Flatten(s domain.Submission) FlatRow {
	row := RawRow{
		Reference:       s.Reference,
		Producer:        rawParty(s.Producer.OrganisationName, s.Producer.Address, s.Producer.Contact),
		ProducerSicCode: s.Producer.SicCode,

		Collection:                RawParty{Address: rawAddress(s.WasteCollection.Address)},
		LocalAuthority:            s.WasteCollection.LocalAuthority,
		WasteSource:               s.WasteCollection.WasteSource,
		BrokerRegistrationNumber:  s.WasteCollection.BrokerRegistrationNumber,
		CarrierRegistrationNumber: s.WasteCollection.CarrierRegistrationNumber,
		ExpectedCollectionDate:    s.WasteCollection.ExpectedCollectionDate.String(),

		ReceiverAuthorisationType: s.Receiver.AuthorisationType,
		ReceiverPermitNumber:      s.Receiver.EnvironmentalPermitNumber,
		Receiver:                  rawParty(s.Receiver.OrganisationName, s.Receiver.Address, s.Receiver.Contact),

		Carrier:                    rawParty(s.Carrier.OrganisationName, s.Carrier.Address, s.Carrier.Contact),
		CarrierVehicleRegistration: s.Carrier.VehicleRegistration,
		CarrierModeOfTransport:     s.Carrier.ModeOfTransport,

		Containers:      s.WasteTransportation.NumberAndTypeOfContainers,
		SpecialHandling: s.WasteTransportation.SpecialHandlingRequirements,

		WasteMovementID: s.WasteMovementID,
	}

	for i, wt := range s.WasteTypes {
		if i >= domain.MaxWasteTypes {
			break
		}
		row.WasteTypes[i] = rawWasteType(wt)
	}

	return row.flat()
}

func rawParty(name string, a domain.Address, c domain.Contact) RawParty {
	return RawParty{
		OrganisationName: name,
		Address:          rawAddress(a),
		Contact:          RawContact{Name: c.Name, Email: c.Email, Phone: c.Phone},
	}
}

func rawAddress(a domain.Address) RawAddress {
	return RawAddress{
		Line1:    a.AddressLine1,
		Line2:    a.AddressLine2,
		TownCity: a.TownCity,
		Postcode: a.Postcode,
		Country:  a.Country,
	}
}

func rawWasteType(wt domain.WasteType) RawWasteType {
	raw := RawWasteType{
		EwcCode:                wt.EwcCode,
		Description:            wt.Description,
		PhysicalForm:           wt.PhysicalForm.String(),
		QuantityUnit:           QuantityUnitLabel(wt.QuantityUnit),
		QuantityType:           QuantityTypeLabel(wt.QuantityType),
		HasHazardousProperties: yesNo(wt.HasHazardousProperties),
		HazardousCodes:         strings.Join(wt.HazardousWasteCodes, listSeparator),
		ContainsPops:           yesNo(wt.ContainsPops),
	}
	if !wt.Quantity.IsZero() {
		raw.Quantity = wt.Quantity.String()
	}
	raw.Components, raw.ComponentConcentrations, raw.ComponentUnits = joinComponents(wt.ChemicalAndBiologicalComponents)
	raw.PopsNames, raw.PopsConcentrations, raw.PopsUnits = joinComponents(wt.Pops)
	return raw
}

func joinComponents(components []domain.Component) (names, concentrations, units string) {
	if len(components) == 0 {
		return "", "", ""
	}
	n := make([]string, len(components))
	c := make([]string, len(components))
	u := make([]string, len(components))
	for i, comp := range components {
		n[i], c[i], u[i] = comp.Name, comp.Concentration, comp.Unit
	}
	return strings.Join(n, listSeparator), strings.Join(c, listSeparator), strings.Join(u, listSeparator)
}

// Encode writes the sections line, the column names line and one line per
// row. Backslashes are escaped so the output decodes back unchanged.
func Encode(rows []FlatRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(sectionsLine()); err != nil {
		return nil, fmt.Errorf("write sections: %w", err)
	}
	if err := w.Write(ColumnNames()); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			record[i] = strings.ReplaceAll(row[c.name], `\`, `\\`)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDownload produces the download payload: CSV, Snappy, base64.
func EncodeDownload(rows []FlatRow) (string, error) {
	data, err := Encode(rows)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(snappy.Encode(nil, data)), nil
}
