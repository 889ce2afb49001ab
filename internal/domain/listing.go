package domain

// Listing is the structured record scraped from a marketplace listing page.
type Listing struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       string            `json:"price"`
	Brand       string            `json:"brand,omitempty"`
	Size        string            `json:"size,omitempty"`
	Condition   string            `json:"condition,omitempty"`
	Category    string            `json:"category,omitempty"`
	Images      []string          `json:"images"`
	Attributes  map[string]string `json:"attributes"`
}

// DescriptionOptions drives promotional copy generation.
type DescriptionOptions struct {
	Listing Listing `json:"listing"`
	Tone    string  `json:"tone"`
	Length  int     `json:"length"`
	Locale  string  `json:"-"`
}

// VoiceoverOptions drives speech synthesis.
type VoiceoverOptions struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}
