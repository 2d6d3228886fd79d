package fixtures

import (
	"github.com/nimasrn/hero-points/internal/model"
)

const (
	TagBat   = "04A1B2C3"
	TagSaraa = "04D4E5F6"
	TagFree  = "0FFFFFFF"
)

func NewRegisterRequest(uid, name string) model.RegisterRequest {
	return model.RegisterRequest{
		UID:        uid,
		Name:       name,
		Nickname:   "",
		Profession: "Engineer",
		Gender:     "male",
	}
}

var (
	RegisterBat = model.RegisterRequest{
		UID:        TagBat,
		Name:       "Bat",
		Nickname:   "Ace",
		Profession: "Engineer",
		Industry:   "Mining",
		Phone:      "99112233",
		Gender:     "male",
	}

	RegisterSaraa = model.RegisterRequest{
		UID:        TagSaraa,
		Name:       "Saraa",
		Profession: "Designer",
		Industry:   "Media",
		Gender:     "female",
	}
)
