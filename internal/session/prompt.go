package session

import "fmt"

// IdeasPrompt asks for five numbered campaign concepts. Creativity steers
// the wording; the text request body carries no sampling knobs.
func IdeasPrompt(brief string, creativity float64) string {
	var tone string
	switch {
	case creativity < 0.34:
		tone = "safe, proven, and grounded in familiar campaign formats"
	case creativity < 0.67:
		tone = "a balance of familiar framing and fresh twists"
	default:
		tone = "bold, unexpected, and willing to break category conventions"
	}
	return fmt.Sprintf(`You are an award-winning advertising creative director.

Creative brief: %s

Generate exactly 5 distinct campaign concepts for this brief. Each concept is
a short headline followed by one or two sentences of supporting copy. Make
the concepts %s.

Format the response as a plain numbered list ("1. ...", "2. ...") with no
other text before or after it.`, brief, tone)
}

// ImagePrompt turns a concept's text into an image-generation prompt.
func ImagePrompt(text string) string {
	return fmt.Sprintf("Key visual for an advertising campaign concept: %s. Photorealistic, high production value, no text or logos in the image.", text)
}
