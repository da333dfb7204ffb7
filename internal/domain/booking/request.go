package booking

import (
	"fmt"
	"strings"
	"time"
)

// Request is a raw booking as it arrives from a task file. Field names
// follow the target form.
type Request struct {
	Nome       string `yaml:"nome" json:"nome"`
	Cognome    string `yaml:"cognome" json:"cognome"`
	Email      string `yaml:"email" json:"email"`
	Telefono   string `yaml:"telefono" json:"telefono"`
	Persone    int    `yaml:"persone" json:"persone"`
	Sede       string `yaml:"sede" json:"sede"`
	Data       string `yaml:"data" json:"data"`
	Ora        string `yaml:"ora" json:"ora"`
	Seggiolone bool   `yaml:"seggiolone" json:"seggiolone"`
	Seggiolini int    `yaml:"seggiolini" json:"seggiolini"`
	Tipologia  string `yaml:"tipologia" json:"tipologia"`
	Nota       string `yaml:"nota" json:"nota"`
	Referer    string `yaml:"referer" json:"referer"`
}

// Normalized is a fully validated booking, ready to be compiled into a
// step script.
type Normalized struct {
	FirstName  string
	LastName   string
	Email      string
	PhoneE164  string
	PhoneForm  string
	Guests     int
	Venue      string
	Date       time.Time
	TimeHHMM   string
	MealType   string
	HighChairs int
	Note       string
	Referer    string
}

// Normalize validates every field of the request. region is the default
// phone region (e.g. "IT"); now anchors relative dates.
func (r Request) Normalize(region string, now time.Time) (*Normalized, error) {
	first := strings.TrimSpace(r.Nome)
	last := strings.TrimSpace(r.Cognome)
	if len(first) < 2 || len(last) < 2 {
		return nil, fmt.Errorf("first/last name too short")
	}

	if r.Persone < 1 {
		return nil, fmt.Errorf("guest count missing")
	}
	if r.Persone > 9 {
		// the form stops at 9; larger parties go through the phone desk
		return nil, fmt.Errorf("more than 9 guests must book by phone")
	}

	email, err := NormalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}

	e164, err := FormatPhone(r.Telefono, region)
	if err != nil {
		return nil, err
	}
	form, err := FormPhone(e164)
	if err != nil {
		return nil, err
	}

	d, err := ParseDate(r.Data, now)
	if err != nil {
		return nil, err
	}

	hhmm, err := ParseTimeHHMM(r.Ora)
	if err != nil {
		return nil, err
	}

	venue, err := NormalizeLocation(r.Sede)
	if err != nil {
		return nil, err
	}

	if r.Seggiolini < 0 || r.Seggiolini > 5 {
		return nil, fmt.Errorf("high chair count out of range")
	}
	chairs := r.Seggiolini
	if r.Seggiolone && chairs == 0 {
		chairs = 1
	}
	if !r.Seggiolone && r.Seggiolini == 0 {
		chairs = 0
	}

	return &Normalized{
		FirstName:  first,
		LastName:   last,
		Email:      email,
		PhoneE164:  e164,
		PhoneForm:  form,
		Guests:     r.Persone,
		Venue:      venue,
		Date:       d,
		TimeHHMM:   hhmm,
		MealType:   InferMealType(hhmm, r.Tipologia),
		HighChairs: chairs,
		Note:       SafeNote(r.Nota),
		Referer:    strings.TrimSpace(r.Referer),
	}, nil
}
