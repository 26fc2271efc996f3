package dto

type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type VerifyInput struct {
	Token string `json:"token"`
}
