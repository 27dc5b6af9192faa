package taxonomy

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// Length limits shared by the validation rules and their messages.
const (
	MaxReferenceLength     = 20
	MaxTextLength          = 250
	MaxDescriptionLength   = 100
	MaxRegistrationLength  = 50
	MaxSpecialHandlingText = 500
)

// Entry describes one error code: the field it belongs to and either a
// static message or a builder for parametrized codes.
type Entry struct {
	Field   Field
	Message string
	Builder func(args []string) string
}

// Render returns the human readable message for the given arguments.
func (e Entry) Render(args []string) string {
	if e.Builder != nil {
		return e.Builder(args)
	}
	return e.Message
}

const (
	CodeReferenceEmpty   = 1001
	CodeReferenceTooLong = 1002
	CodeReferenceInvalid = 1003

	CodeProducerSicCodeInvalid = 2101

	CodeLocalAuthorityEmpty              = 3101
	CodeLocalAuthorityTooLong            = 3102
	CodeWasteSourceEmpty                 = 3103
	CodeWasteSourceTooLong               = 3104
	CodeBrokerRegistrationTooLong        = 3105
	CodeCarrierRegistrationTooLong       = 3106
	CodeExpectedCollectionDateEmpty      = 3107
	CodeExpectedCollectionDateInvalid    = 3108
	CodeReceiverAuthorisationTypeEmpty   = 4101
	CodeReceiverAuthorisationTypeInvalid = 4102
	CodeReceiverPermitNumberEmpty        = 4103
	CodeReceiverPermitNumberTooLong      = 4104
	CodeCarrierVehicleRegTooLong         = 5101
	CodeCarrierModeOfTransportEmpty      = 5102
	CodeCarrierModeOfTransportInvalid    = 5103

	CodeContainersEmpty         = 6001
	CodeContainersTooLong       = 6002
	CodeSpecialHandlingTooLong  = 6003
	CodeWasteTypesEmpty         = 7000
	CodeEwcCodeEmpty            = 7001
	CodeEwcCodeInvalid          = 7002
	CodeDescriptionEmpty        = 7003
	CodeDescriptionTooLong      = 7004
	CodePhysicalFormEmpty       = 7005
	CodePhysicalFormInvalid     = 7006
	CodeQuantityEmpty           = 7007
	CodeQuantityInvalid         = 7008
	CodeQuantityUnitEmpty       = 7009
	CodeQuantityUnitInvalid     = 7010
	CodeQuantityTypeEmpty       = 7011
	CodeQuantityTypeInvalid     = 7012
	CodeComponentsInvalid       = 7013
	CodeComponentsMismatch      = 7014
	CodeConcentrationInvalid    = 7015
	CodeHazardousEmpty          = 7016
	CodeHazardousInvalid        = 7017
	CodeHazardousCodesEmpty     = 7018
	CodeHazardousCodesInvalid   = 7019
	CodeContainsPopsEmpty       = 7020
	CodeContainsPopsInvalid     = 7021
	CodePopsEmpty               = 7022
	CodePopsMismatch            = 7023
	CodePopsConcentrationFailed = 7024
)

// Offsets of the address and contact codes shared by every party. The code
// of a party error is Party.Base + offset.
const (
	OffsetOrganisationNameEmpty   = 1
	OffsetOrganisationNameTooLong = 2
	OffsetAddressLine1Empty       = 3
	OffsetAddressLine1TooLong     = 4
	OffsetAddressLine2TooLong     = 5
	OffsetTownCityEmpty           = 6
	OffsetTownCityTooLong         = 7
	OffsetPostcodeEmpty           = 8
	OffsetPostcodeInvalid         = 9
	OffsetCountryEmpty            = 10
	OffsetCountryInvalid          = 11
	OffsetContactNameEmpty        = 12
	OffsetContactNameTooLong      = 13
	OffsetEmailEmpty              = 14
	OffsetEmailInvalid            = 15
	OffsetEmailTooLong            = 16
	OffsetPhoneEmpty              = 17
	OffsetPhoneInvalid            = 18
)

// Party groups the fields of an organisation block (producer, collection
// site, receiver, carrier). Fields left empty are not part of the block.
type Party struct {
	Base             int
	Name             string
	OrganisationName Field
	Address          Field
	TownCity         Field
	Postcode         Field
	Country          Field
	ContactName      Field
	ContactEmail     Field
	ContactPhone     Field
}

// Code returns the error code for offset within the party block.
func (p Party) Code(offset int) int { return p.Base + offset }

var (
	Producer = Party{
		Base:             2000,
		Name:             "producer",
		OrganisationName: FieldProducerOrganisationName,
		Address:          FieldProducerAddress,
		TownCity:         FieldProducerTownCity,
		Postcode:         FieldProducerPostcode,
		Country:          FieldProducerCountry,
		ContactName:      FieldProducerContactName,
		ContactEmail:     FieldProducerContactEmail,
		ContactPhone:     FieldProducerContactPhone,
	}
	Collection = Party{
		Base:     3000,
		Name:     "waste collection",
		Address:  FieldCollectionAddress,
		TownCity: FieldCollectionTownCity,
		Postcode: FieldCollectionPostcode,
		Country:  FieldCollectionCountry,
	}
	Receiver = Party{
		Base:             4000,
		Name:             "receiver",
		OrganisationName: FieldReceiverOrganisationName,
		Address:          FieldReceiverAddress,
		TownCity:         FieldReceiverTownCity,
		Postcode:         FieldReceiverPostcode,
		Country:          FieldReceiverCountry,
		ContactName:      FieldReceiverContactName,
		ContactEmail:     FieldReceiverContactEmail,
		ContactPhone:     FieldReceiverContactPhone,
	}
	Carrier = Party{
		Base:             5000,
		Name:             "carrier",
		OrganisationName: FieldCarrierOrganisationName,
		Address:          FieldCarrierAddress,
		TownCity:         FieldCarrierTownCity,
		Postcode:         FieldCarrierPostcode,
		Country:          FieldCarrierCountry,
		ContactName:      FieldCarrierContactName,
		ContactEmail:     FieldCarrierContactEmail,
		ContactPhone:     FieldCarrierContactPhone,
	}
)

func (p Party) addEntries(t map[int]Entry) {
	add := func(offset int, field Field, message string) {
		if field == "" {
			return
		}
		t[p.Code(offset)] = Entry{Field: field, Message: message}
	}

	add(OffsetOrganisationNameEmpty, p.OrganisationName, fmt.Sprintf("Enter the %s organisation name", p.Name))
	add(OffsetOrganisationNameTooLong, p.OrganisationName, fmt.Sprintf("The %s organisation name must be less than %d characters", p.Name, MaxTextLength))
	add(OffsetAddressLine1Empty, p.Address, fmt.Sprintf("Enter the %s address", p.Name))
	add(OffsetAddressLine1TooLong, p.Address, fmt.Sprintf("The %s address line 1 must be less than %d characters", p.Name, MaxTextLength))
	add(OffsetAddressLine2TooLong, p.Address, fmt.Sprintf("The %s address line 2 must be less than %d characters", p.Name, MaxTextLength))
	add(OffsetTownCityEmpty, p.TownCity, fmt.Sprintf("Enter the %s town or city", p.Name))
	add(OffsetTownCityTooLong, p.TownCity, fmt.Sprintf("The %s town or city must be less than %d characters", p.Name, MaxTextLength))
	add(OffsetPostcodeEmpty, p.Postcode, fmt.Sprintf("Enter the %s postcode", p.Name))
	add(OffsetPostcodeInvalid, p.Postcode, fmt.Sprintf("Enter the %s postcode in the correct format", p.Name))
	add(OffsetCountryEmpty, p.Country, fmt.Sprintf("Enter the %s country", p.Name))
	add(OffsetCountryInvalid, p.Country, fmt.Sprintf("The %s country must be England, Wales, Scotland or Northern Ireland", p.Name))
	add(OffsetContactNameEmpty, p.ContactName, fmt.Sprintf("Enter the %s contact name", p.Name))
	add(OffsetContactNameTooLong, p.ContactName, fmt.Sprintf("The %s contact name must be less than %d characters", p.Name, MaxTextLength))
	add(OffsetEmailEmpty, p.ContactEmail, fmt.Sprintf("Enter the %s email address", p.Name))
	add(OffsetEmailInvalid, p.ContactEmail, fmt.Sprintf("Enter the %s email address in the correct format", p.Name))
	add(OffsetEmailTooLong, p.ContactEmail, fmt.Sprintf("The %s email address must be less than %d characters", p.Name, MaxTextLength))
	add(OffsetPhoneEmpty, p.ContactPhone, fmt.Sprintf("Enter the %s phone number", p.Name))
	add(OffsetPhoneInvalid, p.ContactPhone, fmt.Sprintf("Enter the %s phone number in the correct format", p.Name))
}

// wasteTypeEntry builds a parametrized entry whose first argument is the
// ordinal of the waste type on the row.
func wasteTypeEntry(field Field, format string) Entry {
	return Entry{
		Field: field,
		Builder: func(args []string) string {
			position := "?"
			if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
				position = args[0]
			}
			return fmt.Sprintf(format, position)
		},
	}
}

var table = buildTable()

func buildTable() map[int]Entry {
	t := map[int]Entry{
		CodeReferenceEmpty:   {Field: FieldReference, Message: "Enter a unique reference"},
		CodeReferenceTooLong: {Field: FieldReference, Message: fmt.Sprintf("The unique reference must be %d characters or less", MaxReferenceLength)},
		CodeReferenceInvalid: {Field: FieldReference, Message: "The unique reference must only include letters a to z, numbers, hyphens and forward slashes"},

		CodeProducerSicCodeInvalid: {Field: FieldProducerSicCode, Message: "The producer SIC code must be 5 digits"},

		CodeLocalAuthorityEmpty:           {Field: FieldLocalAuthority, Message: "Enter the local authority"},
		CodeLocalAuthorityTooLong:         {Field: FieldLocalAuthority, Message: fmt.Sprintf("The local authority must be less than %d characters", MaxTextLength)},
		CodeWasteSourceEmpty:              {Field: FieldWasteSource, Message: "Enter the waste source"},
		CodeWasteSourceTooLong:            {Field: FieldWasteSource, Message: fmt.Sprintf("The waste source must be less than %d characters", MaxTextLength)},
		CodeBrokerRegistrationTooLong:     {Field: FieldBrokerRegistrationNumber, Message: fmt.Sprintf("The broker registration number must be less than %d characters", MaxRegistrationLength)},
		CodeCarrierRegistrationTooLong:    {Field: FieldCarrierRegistrationNumber, Message: fmt.Sprintf("The carrier registration number must be less than %d characters", MaxRegistrationLength)},
		CodeExpectedCollectionDateEmpty:   {Field: FieldExpectedCollectionDate, Message: "Enter the expected waste collection date"},
		CodeExpectedCollectionDateInvalid: {Field: FieldExpectedCollectionDate, Message: "Enter the expected waste collection date in the format DD/MM/YYYY"},

		CodeReceiverAuthorisationTypeEmpty:   {Field: FieldReceiverAuthorisationType, Message: "Enter the receiver authorisation type"},
		CodeReceiverAuthorisationTypeInvalid: {Field: FieldReceiverAuthorisationType, Message: "The receiver authorisation type must be Permit or Exemption"},
		CodeReceiverPermitNumberEmpty:        {Field: FieldReceiverPermitNumber, Message: "Enter the receiver environmental permit number or exemption reference"},
		CodeReceiverPermitNumberTooLong:      {Field: FieldReceiverPermitNumber, Message: fmt.Sprintf("The receiver environmental permit number must be less than %d characters", MaxRegistrationLength)},

		CodeCarrierVehicleRegTooLong:      {Field: FieldCarrierVehicleRegistration, Message: fmt.Sprintf("The carrier vehicle registration must be less than %d characters", MaxRegistrationLength)},
		CodeCarrierModeOfTransportEmpty:   {Field: FieldCarrierModeOfTransport, Message: "Enter the carrier mode of transport"},
		CodeCarrierModeOfTransportInvalid: {Field: FieldCarrierModeOfTransport, Message: "The carrier mode of transport must be Road, Rail, Sea, Air or Inland waterways"},

		CodeContainersEmpty:        {Field: FieldContainers, Message: "Enter the number and type of containers"},
		CodeContainersTooLong:      {Field: FieldContainers, Message: fmt.Sprintf("The number and type of containers must be less than %d characters", MaxTextLength)},
		CodeSpecialHandlingTooLong: {Field: FieldSpecialHandling, Message: fmt.Sprintf("The special handling requirements must be less than %d characters", MaxSpecialHandlingText)},

		CodeWasteTypesEmpty: {Field: FieldEwcCode, Message: "Enter at least one waste type"},

		CodeEwcCodeEmpty:            wasteTypeEntry(FieldEwcCode, "Enter the EWC code for the %s waste type"),
		CodeEwcCodeInvalid:          wasteTypeEntry(FieldEwcCode, "The EWC code for the %s waste type must be 6 digits"),
		CodeDescriptionEmpty:        wasteTypeEntry(FieldWasteDescription, "Enter the waste description for the %s waste type"),
		CodeDescriptionTooLong:      wasteTypeEntry(FieldWasteDescription, fmt.Sprintf("The waste description for the %%s waste type must be less than %d characters", MaxDescriptionLength)),
		CodePhysicalFormEmpty:       wasteTypeEntry(FieldPhysicalForm, "Enter the physical form for the %s waste type"),
		CodePhysicalFormInvalid:     wasteTypeEntry(FieldPhysicalForm, "The physical form for the %s waste type must be Gas, Liquid, Solid, Powder, Sludge or Mixed"),
		CodeQuantityEmpty:           wasteTypeEntry(FieldWasteQuantity, "Enter the waste quantity for the %s waste type"),
		CodeQuantityInvalid:         wasteTypeEntry(FieldWasteQuantity, "The waste quantity for the %s waste type must be a number greater than 0 with no more than 2 decimal places"),
		CodeQuantityUnitEmpty:       wasteTypeEntry(FieldWasteQuantityUnit, "Enter the waste quantity units for the %s waste type"),
		CodeQuantityUnitInvalid:     wasteTypeEntry(FieldWasteQuantityUnit, "The waste quantity units for the %s waste type must be tonnes, cubic metres, kilograms or litres"),
		CodeQuantityTypeEmpty:       wasteTypeEntry(FieldWasteQuantityType, "Enter whether the quantity for the %s waste type is actual or estimated"),
		CodeQuantityTypeInvalid:     wasteTypeEntry(FieldWasteQuantityType, "The quantity of the %s waste type must be Actual or Estimate"),
		CodeComponentsInvalid:       wasteTypeEntry(FieldChemicalComponents, "The chemical and biological components for the %s waste type must not contain empty names"),
		CodeComponentsMismatch:      wasteTypeEntry(FieldChemicalConcentrations, "Enter one concentration and unit for each chemical and biological component of the %s waste type"),
		CodeConcentrationInvalid:    wasteTypeEntry(FieldChemicalConcentrations, "The chemical and biological concentrations for the %s waste type must be numbers"),
		CodeHazardousEmpty:          wasteTypeEntry(FieldHazardousProperties, "Enter whether the %s waste type has hazardous properties"),
		CodeHazardousInvalid:        wasteTypeEntry(FieldHazardousProperties, "Whether the %s waste type has hazardous properties must be Y or N"),
		CodeHazardousCodesEmpty:     wasteTypeEntry(FieldHazardousCodes, "Enter the hazardous waste codes for the %s waste type"),
		CodeHazardousCodesInvalid:   wasteTypeEntry(FieldHazardousCodes, "The hazardous waste codes for the %s waste type must be between HP1 and HP15"),
		CodeContainsPopsEmpty:       wasteTypeEntry(FieldContainsPops, "Enter whether the %s waste type contains persistent organic pollutants (POPs)"),
		CodeContainsPopsInvalid:     wasteTypeEntry(FieldContainsPops, "Whether the %s waste type contains persistent organic pollutants (POPs) must be Y or N"),
		CodePopsEmpty:               wasteTypeEntry(FieldContainsPops, "Enter the persistent organic pollutants (POPs) in the %s waste type"),
		CodePopsMismatch:            wasteTypeEntry(FieldPopsConcentrations, "Enter one concentration and unit for each persistent organic pollutant of the %s waste type"),
		CodePopsConcentrationFailed: wasteTypeEntry(FieldPopsConcentrations, "The POPs concentrations for the %s waste type must be numbers"),
	}

	for _, p := range []Party{Producer, Collection, Receiver, Carrier} {
		p.addEntries(t)
	}

	return t
}

// Lookup returns the taxonomy entry of code.
func Lookup(code int) (Entry, bool) {
	e, ok := table[code]
	return e, ok
}

// Resolve renders the human readable message of an error code.
func Resolve(code domain.ErrorCode) string {
	e, ok := table[code.Code]
	if !ok {
		return fmt.Sprintf("Unknown error code %d", code.Code)
	}
	return e.Render(code.Args)
}

// FieldOf returns the field an error code is presented under.
func FieldOf(code domain.ErrorCode) (Field, bool) {
	e, ok := table[code.Code]
	if !ok || !e.Field.Known() {
		return "", false
	}
	return e.Field, true
}

var ordinals = [...]string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}

// Ordinal renders the 0-based waste type index i as the word used in
// parametrized messages.
func Ordinal(i int) string {
	if i < 0 || i >= len(ordinals) {
		return fmt.Sprintf("%d", i+1)
	}
	return ordinals[i]
}
