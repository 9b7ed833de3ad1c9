package agent

import (
	"context"
	"fmt"
	"strings"
)

var _ Tool = (*WeatherTool)(nil)

// WeatherTool answers weather questions with canned data for the locations
// the concierge knows about.
type WeatherTool struct{}

func (w *WeatherTool) Info() ToolInfo {
	return ToolInfo{
		Name: "get_weather",
		Desc: "Fetches the current weather for a given location.",
		Parameters: map[string]*ParameterInfo{
			"location": {
				Type:     String,
				Desc:     "City or region, e.g. Napa Valley",
				Required: true,
			},
		},
	}
}

func (w *WeatherTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	location, err := stringArg(args, "location")
	if err != nil {
		return "", err
	}
	return Weather(location), nil
}

// Weather returns the canned report for location
func Weather(location string) string {
	lower := strings.ToLower(location)
	switch {
	case strings.Contains(lower, "napa"):
		return "The weather in Napa Valley is sunny with a temperature of 75°F. Perfect for a vineyard tour!"
	case strings.Contains(lower, "london"):
		return "It's a bit cloudy in London with a light drizzle. The temperature is 60°F."
	default:
		return fmt.Sprintf("Could not find weather data for %s. Please specify a more well-known location.", location)
	}
}
