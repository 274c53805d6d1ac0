package domain

// Profile is the authenticated user's account snapshot as returned by the
// profile endpoint. The account number is the foreign key for every balance
// and transaction fetch and must be non-empty before either is attempted.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance,omitempty"`
	PhoneNumber   string `json:"phone_number"`
	BVN           string `json:"bvn"`
	Role          string `json:"role"`
	Age           int    `json:"age,omitempty"`
	Occupation    string `json:"occupation,omitempty"`
	Address       string `json:"address,omitempty"`
	PassportPhoto string `json:"passport_photo,omitempty"`
	NOKFirstName  string `json:"nok_first_name,omitempty"`
	NOKLastName   string `json:"nok_last_name,omitempty"`
	NOKPhone      string `json:"nok_phone_number,omitempty"`
	NOKAddress    string `json:"nok_address,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// DisplayName joins the first and last name for greeting headers.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName == "" && p.LastName == "":
		return p.Email
	case p.LastName == "":
		return p.FirstName
	case p.FirstName == "":
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}
