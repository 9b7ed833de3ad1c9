// Package models contains data types and constants shared by the concierge
// client and server.
package models

// Endpoints of the concierge server
const (
	EndpointChat   = "/chat"
	EndpointHealth = "/health"
	EndpointReady  = "/ready"
)

// Default addresses
const (
	DefaultServerURL  = "http://localhost:5000"
	DefaultListenAddr = ":5000"
)

// Fixed texts shown in the conversation view
const (
	// PlaceholderText is the pending bot message shown while awaiting a reply
	PlaceholderText = "..."

	// FailureText replaces the reply whenever a request fails for any reason
	FailureText = "Oops! Something went wrong. Please try again."
)

// Fixed texts returned by the server
const (
	NoMessageText   = "No message provided."
	AgentFailedText = "Sorry, an error occurred while processing your request."
)

// DefaultHeaders returns the headers sent with every chat request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "concierge-cli",
	}
}
