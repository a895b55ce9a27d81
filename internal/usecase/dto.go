package usecase

// AngiPostalAddress mirrors the PostalAddress object of the partner payload.
type AngiPostalAddress struct {
	AddressFirstLine  string `json:"AddressFirstLine"`
	AddressSecondLine string `json:"AddressSecondLine"`
	City              string `json:"City"`
	State             string `json:"State"`
	PostalCode        string `json:"PostalCode"`
}

// AngiLeadInput is the webhook payload Angi posts for one lead submission.
// Field names follow the partner contract, not our own conventions.
type AngiLeadInput struct {
	FirstName     string            `json:"FirstName"`
	LastName      string            `json:"LastName"`
	PhoneNumber   string            `json:"PhoneNumber"`
	PostalAddress AngiPostalAddress `json:"PostalAddress"`
	Email         string            `json:"Email"`
	Source        string            `json:"Source"`
	Description   string            `json:"Description"`
	Category      string            `json:"Category"`
	Urgency       string            `json:"Urgency"`
	CorrelationID string            `json:"CorrelationId"`
	ALAccountID   string            `json:"ALAccountId"`
}

// LeadOutput is the intake response contract.
type LeadOutput struct {
	Success       bool   `json:"success"`
	LeadID        string `json:"leadId"`
	UserID        string `json:"userId"`
	IsDuplicate   bool   `json:"isDuplicate"`
	SpeedToLeadMs *int64 `json:"speedToLeadMs"`
	MessageID     string `json:"messageId,omitempty"`
	EmailSent     *bool  `json:"emailSent,omitempty"`
}
