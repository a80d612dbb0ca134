package httptransport

// ListResourcesResponse wraps a scoped listing.
type ListResourcesResponse struct {
	Resource string           `json:"resource"`
	Rows     []map[string]any `json:"rows"`
}

// CreateResourceResponse echoes the stored row, including defaulted fields.
type CreateResourceResponse struct {
	Resource string         `json:"resource"`
	Row      map[string]any `json:"row"`
}

// ErrorResponse is the uniform error body of the HTTP edge: policy denials,
// bad input, and internal failures all serialize through it.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
