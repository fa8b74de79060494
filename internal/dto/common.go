package dto

const DefaultLimit = 100

// ListQuery is the skip/limit window shared by list endpoints.
type ListQuery struct {
	Skip  int `form:"skip" binding:"gte=0"`
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

func (q ListQuery) Window() (int, int) {
	if q.Limit == 0 {
		return q.Skip, DefaultLimit
	}
	return q.Skip, q.Limit
}

type Message struct {
	Msg string `json:"msg"`
}

type LoginIn struct {
	Username string `form:"username" json:"username" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

type RefreshIn struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
