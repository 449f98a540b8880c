package entity

type Group struct {
	ID           string
	Name         string
	Description  string
	CreatedBy    string
	CreatorName  string
	CreatorEmail string
	CreatedAt    string
}
