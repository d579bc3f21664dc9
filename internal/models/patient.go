package models

// Patient is a row of the patients table.
type Patient struct {
	ID        int    `json:"id"`
	FirstName string `json:"fname" form:"fname"`
	LastName  string `json:"lname" form:"lname"`
	Insurance string `json:"insurance" form:"insurance"`
	Phone     string `json:"phone" form:"phone"`
	Result    string `json:"result" form:"result"` // Infected | Uninfected | free text
}
