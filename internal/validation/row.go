package validation

import (
	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	tx "github.com/kursadbilgin/bulk-submission-engine/internal/taxonomy"
)

// rowValidator accumulates error codes for a single row.
type rowValidator struct {
	codes []domain.ErrorCode
}

func (v *rowValidator) add(code int, args ...string) {
	if len(args) == 0 {
		v.codes = append(v.codes, domain.Code(code))
		return
	}
	v.codes = append(v.codes, domain.CodeWithArgs(code, args...))
}

// text maps a Text/Reference result onto its empty, too long and invalid
// codes. A zero code means the reason cannot occur.
func (v *rowValidator) text(r Result[string], empty, tooLong, invalid int, args ...string) string {
	switch {
	case r.Valid:
		return r.Value
	case r.Has(ReasonEmpty):
		v.add(empty, args...)
	case r.Has(ReasonCharTooMany):
		v.add(tooLong, args...)
	default:
		v.add(invalid, args...)
	}
	return ""
}

// ValidateRow checks every cell of a row. It returns the typed submission
// when no code was raised; otherwise the codes in field declaration order.
func ValidateRow(raw csvcodec.RawRow) (domain.Submission, []domain.ErrorCode) {
	v := &rowValidator{}
	var s domain.Submission

	s.Reference = v.text(Reference(raw.Reference, tx.MaxReferenceLength),
		tx.CodeReferenceEmpty, tx.CodeReferenceTooLong, tx.CodeReferenceInvalid)

	s.Producer.OrganisationName, s.Producer.Address, s.Producer.Contact = v.party(tx.Producer, raw.Producer, true)
	s.Producer.SicCode = v.text(SicCode(raw.ProducerSicCode), 0, 0, tx.CodeProducerSicCodeInvalid)

	_, s.WasteCollection.Address, _ = v.party(tx.Collection, raw.Collection, false)
	s.WasteCollection.LocalAuthority = v.text(Text(raw.LocalAuthority, true, tx.MaxTextLength),
		tx.CodeLocalAuthorityEmpty, tx.CodeLocalAuthorityTooLong, 0)
	s.WasteCollection.WasteSource = v.text(Text(raw.WasteSource, true, tx.MaxTextLength),
		tx.CodeWasteSourceEmpty, tx.CodeWasteSourceTooLong, 0)
	s.WasteCollection.BrokerRegistrationNumber = v.text(Text(raw.BrokerRegistrationNumber, false, tx.MaxRegistrationLength),
		0, tx.CodeBrokerRegistrationTooLong, 0)
	s.WasteCollection.CarrierRegistrationNumber = v.text(Text(raw.CarrierRegistrationNumber, false, tx.MaxRegistrationLength),
		0, tx.CodeCarrierRegistrationTooLong, 0)
	if d := Date(raw.ExpectedCollectionDate); d.Valid {
		s.WasteCollection.ExpectedCollectionDate = d.Value
	} else if d.Has(ReasonEmpty) {
		v.add(tx.CodeExpectedCollectionDateEmpty)
	} else {
		v.add(tx.CodeExpectedCollectionDateInvalid)
	}

	s.Receiver.AuthorisationType = v.text(AuthorisationType(raw.ReceiverAuthorisationType),
		tx.CodeReceiverAuthorisationTypeEmpty, 0, tx.CodeReceiverAuthorisationTypeInvalid)
	s.Receiver.EnvironmentalPermitNumber = v.text(Text(raw.ReceiverPermitNumber, true, tx.MaxRegistrationLength),
		tx.CodeReceiverPermitNumberEmpty, tx.CodeReceiverPermitNumberTooLong, 0)
	s.Receiver.OrganisationName, s.Receiver.Address, s.Receiver.Contact = v.party(tx.Receiver, raw.Receiver, true)

	s.Carrier.OrganisationName, s.Carrier.Address, s.Carrier.Contact = v.party(tx.Carrier, raw.Carrier, false)
	s.Carrier.VehicleRegistration = v.text(Text(raw.CarrierVehicleRegistration, false, tx.MaxRegistrationLength),
		0, tx.CodeCarrierVehicleRegTooLong, 0)
	s.Carrier.ModeOfTransport = v.text(TransportMode(raw.CarrierModeOfTransport),
		tx.CodeCarrierModeOfTransportEmpty, 0, tx.CodeCarrierModeOfTransportInvalid)

	s.WasteTransportation.NumberAndTypeOfContainers = v.text(Text(raw.Containers, true, tx.MaxTextLength),
		tx.CodeContainersEmpty, tx.CodeContainersTooLong, 0)
	s.WasteTransportation.SpecialHandlingRequirements = v.text(Text(raw.SpecialHandling, false, tx.MaxSpecialHandlingText),
		0, tx.CodeSpecialHandlingTooLong, 0)

	filled := 0
	for i, wt := range raw.WasteTypes {
		if wt.IsBlank() {
			continue
		}
		filled++
		if typed, valid := v.wasteType(wt, tx.Ordinal(i)); valid {
			s.WasteTypes = append(s.WasteTypes, typed)
		}
	}
	if filled == 0 {
		v.add(tx.CodeWasteTypesEmpty)
	}

	if len(v.codes) > 0 {
		return domain.Submission{}, v.codes
	}
	return s, nil
}

func (v *rowValidator) party(p tx.Party, raw csvcodec.RawParty, postcodeRequired bool) (string, domain.Address, domain.Contact) {
	var (
		name    string
		address domain.Address
		contact domain.Contact
	)

	if p.OrganisationName != "" {
		name = v.text(Text(raw.OrganisationName, true, tx.MaxTextLength),
			p.Code(tx.OffsetOrganisationNameEmpty), p.Code(tx.OffsetOrganisationNameTooLong), 0)
	}

	address.AddressLine1 = v.text(Text(raw.Address.Line1, true, tx.MaxTextLength),
		p.Code(tx.OffsetAddressLine1Empty), p.Code(tx.OffsetAddressLine1TooLong), 0)
	address.AddressLine2 = v.text(Text(raw.Address.Line2, false, tx.MaxTextLength),
		0, p.Code(tx.OffsetAddressLine2TooLong), 0)
	address.TownCity = v.text(Text(raw.Address.TownCity, true, tx.MaxTextLength),
		p.Code(tx.OffsetTownCityEmpty), p.Code(tx.OffsetTownCityTooLong), 0)
	address.Postcode = v.text(Postcode(raw.Address.Postcode, postcodeRequired),
		p.Code(tx.OffsetPostcodeEmpty), 0, p.Code(tx.OffsetPostcodeInvalid))
	address.Country = v.text(Country(raw.Address.Country),
		p.Code(tx.OffsetCountryEmpty), 0, p.Code(tx.OffsetCountryInvalid))

	if p.ContactName != "" {
		contact.Name = v.text(Text(raw.Contact.Name, true, tx.MaxTextLength),
			p.Code(tx.OffsetContactNameEmpty), p.Code(tx.OffsetContactNameTooLong), 0)
		contact.Email = v.text(Email(raw.Contact.Email, tx.MaxTextLength),
			p.Code(tx.OffsetEmailEmpty), p.Code(tx.OffsetEmailTooLong), p.Code(tx.OffsetEmailInvalid))
		contact.Phone = v.text(Phone(raw.Contact.Phone),
			p.Code(tx.OffsetPhoneEmpty), 0, p.Code(tx.OffsetPhoneInvalid))
	}

	return name, address, contact
}

func (v *rowValidator) wasteType(raw csvcodec.RawWasteType, ordinal string) (domain.WasteType, bool) {
	before := len(v.codes)
	var wt domain.WasteType

	wt.EwcCode = v.text(EwcCode(raw.EwcCode), tx.CodeEwcCodeEmpty, 0, tx.CodeEwcCodeInvalid, ordinal)
	wt.Description = v.text(Text(raw.Description, true, tx.MaxDescriptionLength),
		tx.CodeDescriptionEmpty, tx.CodeDescriptionTooLong, 0, ordinal)

	if r := PhysicalForm(raw.PhysicalForm); r.Valid {
		wt.PhysicalForm = r.Value
	} else {
		v.pick(r.Has(ReasonEmpty), tx.CodePhysicalFormEmpty, tx.CodePhysicalFormInvalid, ordinal)
	}
	if r := Quantity(raw.Quantity); r.Valid {
		wt.Quantity = r.Value
	} else {
		v.pick(r.Has(ReasonEmpty), tx.CodeQuantityEmpty, tx.CodeQuantityInvalid, ordinal)
	}
	if r := QuantityUnit(raw.QuantityUnit); r.Valid {
		wt.QuantityUnit = r.Value
	} else {
		v.pick(r.Has(ReasonEmpty), tx.CodeQuantityUnitEmpty, tx.CodeQuantityUnitInvalid, ordinal)
	}
	if r := QuantityType(raw.QuantityType); r.Valid {
		wt.QuantityType = r.Value
	} else {
		v.pick(r.Has(ReasonEmpty), tx.CodeQuantityTypeEmpty, tx.CodeQuantityTypeInvalid, ordinal)
	}

	if List(raw.Components) != nil {
		wt.ChemicalAndBiologicalComponents = v.components(raw.Components, raw.ComponentConcentrations, raw.ComponentUnits,
			tx.CodeComponentsInvalid, tx.CodeComponentsMismatch, tx.CodeConcentrationInvalid, ordinal)
	}

	if r := YesNo(raw.HasHazardousProperties); r.Valid {
		wt.HasHazardousProperties = r.Value
		if r.Value {
			if codes := HazardousCodes(raw.HazardousCodes); codes.Valid {
				wt.HazardousWasteCodes = codes.Value
			} else {
				v.pick(codes.Has(ReasonEmpty), tx.CodeHazardousCodesEmpty, tx.CodeHazardousCodesInvalid, ordinal)
			}
		}
	} else {
		v.pick(r.Has(ReasonEmpty), tx.CodeHazardousEmpty, tx.CodeHazardousInvalid, ordinal)
	}

	if r := YesNo(raw.ContainsPops); r.Valid {
		wt.ContainsPops = r.Value
		if r.Value {
			if List(raw.PopsNames) == nil {
				v.add(tx.CodePopsEmpty, ordinal)
			} else {
				wt.Pops = v.components(raw.PopsNames, raw.PopsConcentrations, raw.PopsUnits,
					tx.CodePopsEmpty, tx.CodePopsMismatch, tx.CodePopsConcentrationFailed, ordinal)
			}
		}
	} else {
		v.pick(r.Has(ReasonEmpty), tx.CodeContainsPopsEmpty, tx.CodeContainsPopsInvalid, ordinal)
	}

	return wt, len(v.codes) == before
}

func (v *rowValidator) pick(empty bool, emptyCode, invalidCode int, args ...string) {
	if empty {
		v.add(emptyCode, args...)
		return
	}
	v.add(invalidCode, args...)
}

// components pairs names with their concentrations and units. Concentrations
// and units must be given once per name, or not at all.
func (v *rowValidator) components(names, concentrations, units string, invalidName, mismatch, invalidValue int, ordinal string) []domain.Component {
	n := Names(names)
	if !n.Valid {
		v.add(invalidName, ordinal)
		return nil
	}

	var values []string
	if List(concentrations) != nil {
		c := Concentrations(concentrations, len(n.Value))
		if !c.Valid {
			if c.Has(ReasonInvalid) {
				v.add(invalidValue, ordinal)
			} else {
				v.add(mismatch, ordinal)
			}
			return nil
		}
		values = c.Value
	}

	unitList := List(units)
	if len(unitList) != 0 && len(unitList) != len(n.Value) {
		v.add(mismatch, ordinal)
		return nil
	}
	if values == nil && len(unitList) != 0 {
		v.add(mismatch, ordinal)
		return nil
	}

	out := make([]domain.Component, len(n.Value))
	for i, name := range n.Value {
		out[i].Name = name
		if values != nil {
			out[i].Concentration = values[i]
		}
		if unitList != nil {
			out[i].Unit = unitList[i]
		}
	}
	return out
}
