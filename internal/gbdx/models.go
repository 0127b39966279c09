package gbdx

// SearchResponse represents the GBDX catalog search response envelope.
type SearchResponse struct {
	Results []Record `json:"results"`
}

// Record represents a single raw GBDX catalog record.
type Record struct {
	Identifier string           `json:"identifier"`
	Type       []string         `json:"type,omitempty"`
	Properties RecordProperties `json:"properties"`
}

// RecordProperties holds the provider fields of a catalog record.
// Only the fields consumed during normalization are modeled; anything else
// the catalog returns is ignored.
type RecordProperties struct {
	CatalogID       string  `json:"catalogID"`
	Timestamp       string  `json:"timestamp"`
	PlatformName    string  `json:"platformName"`
	FootprintWkt    string  `json:"footprintWkt"`
	BrowseURL       string  `json:"browseURL"`
	CloudCover      float64 `json:"cloudCover"`
	MultiResolution float64 `json:"multiResolution"`
	SunAzimuth      float64 `json:"sunAzimuth"`
	SunElevation    float64 `json:"sunElevation"`
	OffNadirAngle   float64 `json:"offNadirAngle"`
	TargetAzimuth   float64 `json:"targetAzimuth"`
	ImageBands      string  `json:"imageBands"`

	// BucketName locates the scene in the IDAHO tile store (legacy tile fetch).
	BucketName string `json:"bucketName,omitempty"`
}

// orderRequest is the body of an order placement call: a list of catalog IDs.
type orderRequest []string

// orderResponse represents the response to an order placement call.
type orderResponse struct {
	OrderID string `json:"order_id"`
}

// statusResponse represents the response to an order status poll.
type statusResponse struct {
	OrderID      string        `json:"order_id"`
	Acquisitions []OrderStatus `json:"acquisitions"`
}

// LocationNotDelivered is the sentinel location GBDX reports while an order
// is still being fulfilled.
const LocationNotDelivered = "not_delivered"

// OrderStatus describes the fulfillment state of one ordered acquisition.
type OrderStatus struct {
	AcquisitionID string `json:"acquisition_id"`
	State         string `json:"state"`
	Location      string `json:"location"`
}

// Delivered reports whether the ordered imagery has been delivered and has a
// usable location.
func (s *OrderStatus) Delivered() bool {
	return s.Location != "" && s.Location != LocationNotDelivered
}
