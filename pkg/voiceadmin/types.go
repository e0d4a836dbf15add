package voiceadmin

// Page is one page of a paginated Voice Admin list response.
type Page[T any] struct {
	Items          []T    `json:"items"`
	NextPageMarker string `json:"nextPageMarker,omitempty"`
}

// PageOptions controls pagination of list calls. A zero PageSize uses the
// client's default.
type PageOptions struct {
	PageSize   int
	PageMarker string
}

type Account struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

type Address struct {
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Location struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	AccountKey               string   `json:"accountKey,omitempty"`
	Address                  *Address `json:"address,omitempty"`
	UsedForEmergencyServices bool     `json:"usedForEmergencyServices"`
}

// LocationRef is the location summary embedded in a device.
type LocationRef struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// Ident returns whichever identifier the vendor populated.
func (l LocationRef) Ident() string {
	if l.Key != "" {
		return l.Key
	}
	return l.ID
}

type Device struct {
	ID         string       `json:"id"`
	Type       string       `json:"type,omitempty"`
	Name       string       `json:"name,omitempty"`
	Status     string       `json:"status,omitempty"`
	MacAddress string       `json:"macAddress,omitempty"`
	LicenseKey string       `json:"licenseKey,omitempty"`
	Model      *DeviceModel `json:"model,omitempty"`
	Location   *LocationRef `json:"location,omitempty"`
}

type DeviceModel struct {
	ID           string `json:"id"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

type Extension struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
}

type PhoneNumber struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Name       string `json:"name,omitempty"`
	Status     string `json:"status,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	RouteTo    *struct {
		ID   string `json:"id,omitempty"`
		Type string `json:"type,omitempty"`
	} `json:"routeTo,omitempty"`
}

type Button struct {
	Position int    `json:"position"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
	Value    string `json:"value,omitempty"`
}

type ButtonConfiguration struct {
	Buttons []Button `json:"buttons"`
}

// ActionResult is the JSON body returned to the browser for a device action.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
