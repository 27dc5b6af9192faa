package taxonomy

// Field is a logical form field that errors are grouped under in the
// column-indexed summary.
type Field string

const (
	FieldReference                  Field = "Your unique reference"
	FieldProducerOrganisationName   Field = "Producer organisation name"
	FieldProducerAddress            Field = "Producer address"
	FieldProducerTownCity           Field = "Producer town or city"
	FieldProducerPostcode           Field = "Producer postcode"
	FieldProducerCountry            Field = "Producer country"
	FieldProducerContactName        Field = "Producer contact name"
	FieldProducerContactEmail       Field = "Producer contact email address"
	FieldProducerContactPhone       Field = "Producer contact phone number"
	FieldProducerSicCode            Field = "Producer Standard Industrial Classification (SIC) code"
	FieldCollectionAddress          Field = "Waste collection address"
	FieldCollectionTownCity         Field = "Waste collection town or city"
	FieldCollectionPostcode         Field = "Waste collection postcode"
	FieldCollectionCountry          Field = "Waste collection country"
	FieldLocalAuthority             Field = "Local authority"
	FieldWasteSource                Field = "Waste source"
	FieldBrokerRegistrationNumber   Field = "Broker registration number"
	FieldCarrierRegistrationNumber  Field = "Carrier registration number"
	FieldExpectedCollectionDate     Field = "Expected waste collection date"
	FieldReceiverAuthorisationType  Field = "Receiver authorisation type"
	FieldReceiverPermitNumber       Field = "Receiver environmental permit number"
	FieldReceiverOrganisationName   Field = "Receiver organisation name"
	FieldReceiverAddress            Field = "Receiver address"
	FieldReceiverTownCity           Field = "Receiver town or city"
	FieldReceiverPostcode           Field = "Receiver postcode"
	FieldReceiverCountry            Field = "Receiver country"
	FieldReceiverContactName        Field = "Receiver contact name"
	FieldReceiverContactEmail       Field = "Receiver contact email address"
	FieldReceiverContactPhone       Field = "Receiver contact phone number"
	FieldCarrierOrganisationName    Field = "Carrier organisation name"
	FieldCarrierAddress             Field = "Carrier address"
	FieldCarrierTownCity            Field = "Carrier town or city"
	FieldCarrierPostcode            Field = "Carrier postcode"
	FieldCarrierCountry             Field = "Carrier country"
	FieldCarrierContactName         Field = "Carrier contact name"
	FieldCarrierContactEmail        Field = "Carrier contact email address"
	FieldCarrierContactPhone        Field = "Carrier contact phone number"
	FieldCarrierVehicleRegistration Field = "Carrier vehicle registration"
	FieldCarrierModeOfTransport     Field = "Carrier mode of transport"
	FieldContainers                 Field = "Number and type of containers"
	FieldSpecialHandling            Field = "Special handling requirements"
	FieldEwcCode                    Field = "EWC code"
	FieldWasteDescription           Field = "Waste description"
	FieldPhysicalForm               Field = "Physical form"
	FieldWasteQuantity              Field = "Waste quantity"
	FieldWasteQuantityUnit          Field = "Waste quantity units"
	FieldWasteQuantityType          Field = "Quantity of waste (actual or estimate)"
	FieldChemicalComponents         Field = "Chemical and biological components"
	FieldChemicalConcentrations     Field = "Chemical and biological concentrations"
	FieldHazardousProperties        Field = "Hazardous properties"
	FieldHazardousCodes             Field = "Hazardous waste codes"
	FieldContainsPops               Field = "Persistent organic pollutants (POPs)"
	FieldPopsConcentrations         Field = "POPs concentrations"
)

// Fields is the fixed presentation order of the column-indexed summary.
var Fields = []Field{
	FieldReference,
	FieldProducerOrganisationName,
	FieldProducerAddress,
	FieldProducerTownCity,
	FieldProducerPostcode,
	FieldProducerCountry,
	FieldProducerContactName,
	FieldProducerContactEmail,
	FieldProducerContactPhone,
	FieldProducerSicCode,
	FieldCollectionAddress,
	FieldCollectionTownCity,
	FieldCollectionPostcode,
	FieldCollectionCountry,
	FieldLocalAuthority,
	FieldWasteSource,
	FieldBrokerRegistrationNumber,
	FieldCarrierRegistrationNumber,
	FieldExpectedCollectionDate,
	FieldReceiverAuthorisationType,
	FieldReceiverPermitNumber,
	FieldReceiverOrganisationName,
	FieldReceiverAddress,
	FieldReceiverTownCity,
	FieldReceiverPostcode,
	FieldReceiverCountry,
	FieldReceiverContactName,
	FieldReceiverContactEmail,
	FieldReceiverContactPhone,
	FieldCarrierOrganisationName,
	FieldCarrierAddress,
	FieldCarrierTownCity,
	FieldCarrierPostcode,
	FieldCarrierCountry,
	FieldCarrierContactName,
	FieldCarrierContactEmail,
	FieldCarrierContactPhone,
	FieldCarrierVehicleRegistration,
	FieldCarrierModeOfTransport,
	FieldContainers,
	FieldSpecialHandling,
	FieldEwcCode,
	FieldWasteDescription,
	FieldPhysicalForm,
	FieldWasteQuantity,
	FieldWasteQuantityUnit,
	FieldWasteQuantityType,
	FieldChemicalComponents,
	FieldChemicalConcentrations,
	FieldHazardousProperties,
	FieldHazardousCodes,
	FieldContainsPops,
	FieldPopsConcentrations,
}

var fieldOrder = func() map[Field]int {
	order := make(map[Field]int, len(Fields))
	for i, f := range Fields {
		order[f] = i
	}
	return order
}()

// Known reports whether f is a declared field.
func (f Field) Known() bool {
	_, ok := fieldOrder[f]
	return ok
}
