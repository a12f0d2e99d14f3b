package match

// TextWeights blends the two lexical measures of text similarity
type TextWeights struct {
	Sequence float64 // 0.6
	Jaccard  float64 // 0.4
}

// LocationGroup is a campus area recognised by any of its keywords
type LocationGroup struct {
	Name     string
	Keywords []string
}

// IdentificationCategory is a kind of identifying detail, such as colour or brand
type IdentificationCategory struct {
	Name     string
	Keywords []string
}

// CompositeWeights blends per-field scores for enhanced matching and
// duplicate detection
type CompositeWeights struct {
	Name        float64 // 0.4
	Description float64 // 0.4
	Location    float64 // 0.2
}

// Config is the fixed vocabulary and weighting a Scorer is built with.
// It is read-only once passed to NewScorer.
type Config struct {
	Text TextWeights

	LocationGroups     []LocationGroup
	LocationGroupScore float64 // ratio assigned when both labels share a group
	LocationMatchRatio float64 // ratio above which locations count as matching

	IdentificationMarker     string
	IdentificationCategories []IdentificationCategory

	Composite CompositeWeights

	DuplicateThreshold      float64 // composite ratio above which a report is a duplicate
	DuplicateHighConfidence float64
}

// DefaultConfig returns the campus vocabulary and standard weights
func DefaultConfig() Config {
	return Config{
		Text: TextWeights{Sequence: 0.6, Jaccard: 0.4},

		LocationGroups: []LocationGroup{
			{Name: "library", Keywords: []string{"library", "study hall", "reading room", "book"}},
			{Name: "cafeteria", Keywords: []string{"cafeteria", "dining", "food court", "restaurant", "cafe"}},
			{Name: "classroom", Keywords: []string{"classroom", "lecture hall", "room", "class"}},
			{Name: "parking", Keywords: []string{"parking", "garage", "lot", "car"}},
			{Name: "gym", Keywords: []string{"gym", "fitness", "sports", "exercise"}},
			{Name: "office", Keywords: []string{"office", "admin", "reception", "desk"}},
		},
		LocationGroupScore: 0.8,
		LocationMatchRatio: 0.6,

		IdentificationMarker: "| IDENTIFICATION:",
		IdentificationCategories: []IdentificationCategory{
			{Name: "serial", Keywords: []string{"serial", "number", "imei", "model"}},
			{Name: "physical", Keywords: []string{"scratch", "dent", "crack", "mark", "sticker"}},
			{Name: "color", Keywords: []string{"red", "blue", "green", "yellow", "black", "white", "brown", "gray", "grey", "pink", "purple", "orange", "silver", "gold"}},
			{Name: "brand", Keywords: []string{"apple", "samsung", "nike", "adidas", "sony", "hp", "dell", "canon", "nikon", "lenovo"}},
			{Name: "size", Keywords: []string{"small", "medium", "large", "big", "tiny", "mini"}},
		},

		Composite: CompositeWeights{Name: 0.4, Description: 0.4, Location: 0.2},

		DuplicateThreshold:      0.7,
		DuplicateHighConfidence: 0.85,
	}
}
