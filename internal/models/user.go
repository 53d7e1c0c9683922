package models

import "time"

type Gender string

const (
	GenderMale        Gender = "M"
	GenderFemale      Gender = "F"
	GenderOther       Gender = "O"
	GenderUndisclosed Gender = "P"
)

var genderLabels = map[Gender]string{
	GenderMale:        "Masculino",
	GenderFemale:      "Femenino",
	GenderOther:       "Otro",
	GenderUndisclosed: "Prefiero no decirlo",
}

// Genders lists the accepted codes in display order.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale, GenderOther, GenderUndisclosed}
}

func (g Gender) Valid() bool {
	_, ok := genderLabels[g]
	return ok
}

func (g Gender) Label() string {
	return genderLabels[g]
}

type StudentType string

const (
	StudentTypeSchool     StudentType = "C"
	StudentTypeUniversity StudentType = "U"
)

var studentTypeLabels = map[StudentType]string{
	StudentTypeSchool:     "Colegio",
	StudentTypeUniversity: "Universidad",
}

func StudentTypes() []StudentType {
	return []StudentType{StudentTypeSchool, StudentTypeUniversity}
}

func (s StudentType) Valid() bool {
	_, ok := studentTypeLabels[s]
	return ok
}

func (s StudentType) Label() string {
	return studentTypeLabels[s]
}

const (
	MinAge = 1
	MaxAge = 120
)

type User struct {
	ID             string
	Email          string
	Nombre         string
	Apellido       string
	Edad           *int
	Genero         Gender
	TipoEstudiante *StudentType
	IsActive       bool
	IsStaff        bool
	IsSuperuser    bool
	PasswordHash   []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser carries the validated fields for a user that does not exist yet.
// The password travels separately so it is never stored on this struct.
type NewUser struct {
	Email          string
	Nombre         string
	Apellido       string
	Edad           *int
	Genero         Gender
	TipoEstudiante *StudentType
	IsStaff        bool
	IsSuperuser    bool
}

type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
