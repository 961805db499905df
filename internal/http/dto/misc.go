package dto

// PushRegisterResponse es el resultado del registro de push.
type PushRegisterResponse struct {
	Permission string `json:"permission"`
	Token      string `json:"token,omitempty"`
}

type PushStatusResponse struct {
	Supported  bool   `json:"supported"`
	Permission string `json:"permission"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
