package model

// SkillOffering is one bookable skill in the catalog.  The JSON tags match
// the bundled fixture (skills.json) so records decode without a mapping
// layer.  Offerings are immutable once the catalog is loaded.
type SkillOffering struct {
    ID             int     `json:"skillId"`
    Name           string  `json:"skillName"`
    ProviderName   string  `json:"providerName"`
    ProviderEmail  string  `json:"providerEmail"`
    Category       string  `json:"category"`
    Price          float64 `json:"price"`
    Rating         float64 `json:"rating"`
    SlotsAvailable int     `json:"slotsAvailable"`
    Image          string  `json:"image"`
    Description    string  `json:"description"`
}

// ProviderSummary is the best-rated offering of a single provider.  It is
// derived from the catalog on every request and never stored.
type ProviderSummary struct {
    ProviderName      string  `json:"name"`
    BestOfferingTitle string  `json:"title"`
    BestRating        float64 `json:"rating"`
}

// Event is a community meetup listed next to the catalog.
type Event struct {
    Title    string `json:"title"`
    Time     string `json:"time"`
    Location string `json:"location"`
    Icon     string `json:"icon"`
}
