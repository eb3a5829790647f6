package catalog

// Credentials is the login payload. It is transient and never persisted.
type Credentials struct {
	Login    string `json:"login" yaml:"login"`
	Password string `json:"password" yaml:"password"`
}

// ProductInsideItem is one priced entry inside a product row.
type ProductInsideItem struct {
	Product         string  `json:"product" yaml:"product"`
	ActiveSubstance string  `json:"activeSubstance" yaml:"activeSubstance"`
	Dosage          string  `json:"dosage" yaml:"dosage"`
	Availability    bool    `json:"availability" yaml:"availability"`
	Price           float64 `json:"price" yaml:"price"`
	ID              int64   `json:"id" yaml:"id"`
}

// ProductRecord is a catalog row. ID is the server-side object id and is
// omitted when creating a record.
type ProductRecord struct {
	ID      string              `json:"_id,omitempty" yaml:"_id,omitempty"`
	Row     int                 `json:"row" yaml:"row"`
	Insides []ProductInsideItem `json:"insides" yaml:"insides"`
}

// ProductUpdate replaces every inside item of one row.
type ProductUpdate struct {
	Row  int                 `json:"row" yaml:"row"`
	Data []ProductInsideItem `json:"data" yaml:"data"`
}

// TextContent holds the HTML-formatted body text block.
type TextContent struct {
	Text string `json:"text" yaml:"text"`
}

// DeleteResult is the acknowledgement returned by product deletion.
type DeleteResult struct {
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
}

// LoginResponse is the success body of the login endpoint.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        map[string]any `json:"user,omitempty"`
}
