package domain

// Compression names the codec applied to an uploaded payload before base64.
type Compression string

const (
	CompressionNone   Compression = "None"
	CompressionSnappy Compression = "Snappy"
)

// ContentTypeCSV is the only accepted upload content type.
const ContentTypeCSV = "text/csv"

// Content is an uploaded file as it crosses the transport boundary.
type Content struct {
	Type        string      `json:"type"`
	Compression Compression `json:"compression"`
	Value       string      `json:"value"`
}
