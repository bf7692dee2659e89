package team

type CreateTeamRequest struct {
	Name         string    `json:"name"`
	Members      []string  `json:"members"`
	Vehicle      string    `json:"vehicle"`
	Capabilities []string  `json:"capabilities"`
	Longitude    float64   `json:"longitude"`
	Latitude     float64   `json:"latitude"`
}

type UpdateTeamStatusRequest struct {
	Status string `json:"status"`
}

type UpdateTeamLocationRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}
