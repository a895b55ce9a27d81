package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/neticdev/lead-intake/internal/usecase"
)

// Sends one test lead to a running API, then replays the same payload to
// show the duplicate path.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	baseURL := os.Getenv("API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	payload := usecase.AngiLeadInput{
		FirstName:   "Jane",
		LastName:    "Tester",
		PhoneNumber: "3175550100",
		Email:       "jane.tester@example.com",
		Source:      "Angi Leads",
		Description: "Deep clean of a 3 bedroom house before move-in",
		Category:    "House Cleaning",
		Urgency:     "today",
		PostalAddress: usecase.AngiPostalAddress{
			AddressFirstLine: "123 Main St",
			City:             "Indianapolis",
			State:            "IN",
			PostalCode:       "46201",
		},
		CorrelationID: uuid.New().String(),
		ALAccountID:   "AL-TEST-001",
	}

	fmt.Printf("Sending test lead to %s\n", baseURL)
	fmt.Printf("   Name:          %s %s\n", payload.FirstName, payload.LastName)
	fmt.Printf("   Email:         %s\n", payload.Email)
	fmt.Printf("   Category:      %s\n", payload.Category)
	fmt.Printf("   CorrelationId: %s\n\n", payload.CorrelationID)

	first, err := send(baseURL, payload)
	if err != nil {
		log.Fatalf("send lead: %v", err)
	}
	fmt.Printf("First submission: leadId=%s userId=%s duplicate=%v", first.LeadID, first.UserID, first.IsDuplicate)
	if first.SpeedToLeadMs != nil {
		fmt.Printf(" speedToLead=%dms", *first.SpeedToLeadMs)
	}
	fmt.Println()

	replay, err := send(baseURL, payload)
	if err != nil {
		log.Fatalf("replay lead: %v", err)
	}
	fmt.Printf("Replay:           leadId=%s duplicate=%v\n", replay.LeadID, replay.IsDuplicate)

	if replay.IsDuplicate && replay.LeadID == first.LeadID {
		fmt.Println("\nDuplicate detection OK: replay answered with the original lead.")
	} else {
		fmt.Println("\nUnexpected: replay was not detected as a duplicate.")
	}
}

func send(baseURL string, payload usecase.AngiLeadInput) (*usecase.LeadOutput, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/api/v1/lead/angi", "application/json", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("unexpected status %d: %v", resp.StatusCode, body)
	}

	var output usecase.LeadOutput
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, err
	}
	return &output, nil
}
