package models

// Doctor is a row of the Doctors table.
type Doctor struct {
	ID        int    `json:"id"`
	FirstName string `json:"fname" form:"fname"`
	LastName  string `json:"lname" form:"lname"`
	Insurance string `json:"insurance" form:"insurance"`
	Phone     string `json:"phone" form:"phone"`
}
