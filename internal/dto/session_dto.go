package dto

import "github.com/noah-isme/spot-form-api/internal/models"

// SessionResponse is shown in the header.
type SessionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// LogoutResponse tells the client where to go after signing out.
type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

// NewSessionResponse converts an identity into a DTO.
func NewSessionResponse(identity models.Identity) SessionResponse {
	return SessionResponse{
		ID:          identity.ID,
		Name:        identity.Name,
		Email:       identity.Email,
		DisplayName: identity.DisplayName(),
	}
}

// HelpSection is one block of the help modal.
type HelpSection struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Steps []string `json:"steps,omitempty"`
}

// HelpResponse is the help and instructions content.
type HelpResponse struct {
	Title     string        `json:"title"`
	Sections  []HelpSection `json:"sections"`
	Provinces []string      `json:"provinces"`
}

// DefaultHelp returns the static help content.
func DefaultHelp() HelpResponse {
	return HelpResponse{
		Title: "Help & Instructions",
		Sections: []HelpSection{
			{
				Title: "How to Submit a Destination",
				Body:  "Fill in all the required fields with accurate information about the tourism destination. Upload a high-quality image that showcases the beauty of the place.",
			},
			{
				Title: "Google Maps Embed",
				Body:  "To add a Google Maps embed:",
				Steps: []string{
					"Go to Google Maps and search for your location",
					`Click on "Share" and select "Embed a map"`,
					"Copy the iframe code and paste it in the Google Map iframe field",
				},
			},
			{
				Title: "Visual Tour Embed",
				Body:  "To add a visual tour:",
				Steps: []string{
					"Create a virtual tour using a service like Webobook",
					"Get the embed code from your virtual tour provider",
					"Paste the iframe code in the Visual Tour iframe field",
				},
			},
			{
				Title: "Submission Process",
				Body:  "After submitting, your destination will be reviewed by our admin.",
			},
		},
		Provinces: append([]string(nil), models.Provinces...),
	}
}
