package models

// WebhookToken is the per-token detail record. A project may hold any number
// of tokens; each is valid from creation until explicit deletion.
type WebhookToken struct {
	ProjectID  string `json:"projectId"`
	Token      string `json:"token"`
	CreatedAt  string `json:"createdAt"`
	LastUsedAt string `json:"lastUsedAt,omitempty"`
	CallCount  int64  `json:"callCount"`
}

// CreateWebhookRequest is the body of POST /api/webhook/manage/create
type CreateWebhookRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
}

// CreateWebhookResponse is returned by the create operation
type CreateWebhookResponse struct {
	Success    bool   `json:"success"`
	WebhookURL string `json:"webhookUrl"`
	Token      string `json:"token"`
}

// ListWebhooksResponse is returned by the list operation
type ListWebhooksResponse struct {
	Success  bool            `json:"success"`
	Webhooks []*WebhookToken `json:"webhooks"`
}

// IngestResponse is returned when pushed data is accepted
type IngestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
