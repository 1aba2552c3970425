package models

type Search struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	FullName     string  `json:"full_name"`
	ProfilePhoto string  `json:"profile_photo"`
	ResultType   string  `json:"result_type"`
	Rank         float64 `json:"rank"`
}
