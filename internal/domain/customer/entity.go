package customer

import (
	"errors"
	"strings"
)

var (
	ErrInvalidID   = errors.New("customer id must be positive")
	ErrEmptyName   = errors.New("customer name must not be empty")
	ErrNegativeAge = errors.New("age must not be negative")
	ErrDuplicateID = errors.New("customer id already exists")
	ErrNotFound    = errors.New("customer not found")
)

// WalkInID is the customer used for direct sales without a known buyer.
const WalkInID = 9999

type Customer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Age     int    `json:"age,omitempty"`
}

func NewCustomer(id int, name, email, phone, address string, age int) (*Customer, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if age < 0 {
		return nil, ErrNegativeAge
	}
	return &Customer{
		ID:      id,
		Name:    name,
		Email:   email,
		Phone:   phone,
		Address: address,
		Age:     age,
	}, nil
}
