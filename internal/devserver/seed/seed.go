// Package seed loads the devserver's initial catalog and accounts.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ticketing-front/internal/model"
)

//go:embed seed.yaml
var defaultSeed []byte

type Data struct {
	Offers []Offer `yaml:"offers"`
	Users  []User  `yaml:"users"`
}

type Offer struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Seats       int    `yaml:"seats"`
	PriceCents  int64  `yaml:"priceCents"`
	Active      *bool  `yaml:"active"`
}

// Input converts the entry; a missing "active" means on sale.
func (o Offer) Input() model.OfferInput {
	return model.OfferInput{
		Code:        o.Code,
		Name:        o.Name,
		Description: o.Description,
		Seats:       o.Seats,
		PriceCents:  o.PriceCents,
		Active:      o.Active == nil || *o.Active,
	}
}

type User struct {
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	FirstName string   `yaml:"firstName"`
	LastName  string   `yaml:"lastName"`
	Roles     []string `yaml:"roles"`
}

// Load reads path, or the built-in seed when path is empty.
func Load(path string) (*Data, error) {
	raw := defaultSeed
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed: %w", err)
		}
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var data Data
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	for i, user := range data.Users {
		if user.Email == "" || user.Password == "" {
			return nil, fmt.Errorf("parse seed: user %d needs an email and a password", i+1)
		}
	}
	return &data, nil
}

// OfferInputs returns the offers in file order.
func (d *Data) OfferInputs() []model.OfferInput {
	out := make([]model.OfferInput, 0, len(d.Offers))
	for _, offer := range d.Offers {
		out = append(out, offer.Input())
	}
	return out
}
