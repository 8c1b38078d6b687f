package models

import "time"

// BrandProfile is the users/{uid}/brand_profile/current document. The
// orchestrator snapshots it onto the campaign when generation starts.
type BrandProfile struct {
	Name    string `firestore:"name" json:"name"`
	Tone    string `firestore:"tone,omitempty" json:"tone,omitempty"`
	Website string `firestore:"website,omitempty" json:"website,omitempty"`

	Palette       []string `firestore:"palette,omitempty" json:"palette,omitempty"`
	StyleKeywords []string `firestore:"style_keywords,omitempty" json:"style_keywords,omitempty"`

	// BlockedTerms are brand-specific denylist terms. Governance strips them
	// from generated copy entirely.
	BlockedTerms []string `firestore:"blocked_terms,omitempty" json:"blocked_terms,omitempty"`

	UpdatedAt time.Time `firestore:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// StyleString flattens the visual identity into a single style hint for the
// media generation backend.
func (b *BrandProfile) StyleString() string {
	if b == nil {
		return ""
	}
	s := b.Tone
	for _, kw := range b.StyleKeywords {
		if s != "" {
			s += ", "
		}
		s += kw
	}
	return s
}
