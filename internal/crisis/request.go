package crisis

type CreateCrisisRequest struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	Description string  `json:"description"`
	Radius      float64 `json:"radius"`
	Unit        string  `json:"unit"`
	Media       []Media `json:"media"`
}

type AddUpdateRequest struct {
	Content string `json:"content"`
}
