package types

import "time"

// Tenant is an onboarded organisation owning resources and an API key.
type Tenant struct {
	ID        int64
	Name      string
	APIKey    string
	CreatedAt time.Time
}

// Resource is a tenant-supplied reference document, usually a JSON price list.
type Resource struct {
	ID        int64
	TenantID  int64
	Name      string
	Type      string
	Content   string
	Embedding *string
	CreatedAt time.Time
}

// Conversation is one logged inbound/outbound exchange.
type Conversation struct {
	ID        int64
	Sender    string
	Message   string
	Response  string
	TenantID  *int64
	CreatedAt time.Time
}

// BaseResponse carries the fields shared by JSON API responses.
type BaseResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Success   bool   `json:"success"`
}
