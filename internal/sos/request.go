package sos

type CreateSOSRequest struct {
	Type        string       `json:"type"`
	Priority    string       `json:"priority"`
	Longitude   float64      `json:"longitude"`
	Latitude    float64      `json:"latitude"`
	Description string       `json:"description"`
	PeopleCount int64        `json:"people_count"`
	MedicalInfo *MedicalInfo `json:"medical_info,omitempty"`
	Voice       *VoiceRef    `json:"voice,omitempty"`
	Video       *VideoRef    `json:"video,omitempty"`
}

type TransitionStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type AssignSOSRequest struct {
	ResponderID string `json:"responder_id"`
}
