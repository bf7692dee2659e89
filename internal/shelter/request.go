package shelter

type CreateShelterRequest struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Longitude  float64     `json:"longitude"`
	Latitude   float64     `json:"latitude"`
	Capacity   int64       `json:"capacity"`
	HasMedical bool        `json:"has_medical"`
	Facilities []string    `json:"facilities"`
	Contact    ContactInfo `json:"contact_info"`
	Manager    string      `json:"manager"`
	Notes      string      `json:"notes"`
}

type UpdateOccupancyRequest struct {
	CurrentOccupancy int64 `json:"current_occupancy"`
}

type UpdateShelterStatusRequest struct {
	Status string `json:"status"`
}
