package gemini

import "context"

// Generator produces one image for a prompt and returns it as a data URI.
type Generator interface {
	Generate(context.Context, string) (string, error)
}

// DefaultBaseURL is the Generative Language API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
