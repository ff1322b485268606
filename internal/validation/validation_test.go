package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city" validate:"required"`
}

type sample struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"contactNumber" validate:"required,len=10,number"`
	Count    *int    `json:"count" validate:"required,min=1"`
	Password string  `json:"password" validate:"required,min=8"`
	Address  address `json:"address"`
}

func validSample() sample {
	n := 2
	return sample{
		Name:     "Sam",
		Email:    "sam@example.com",
		Phone:    "9876543210",
		Count:    &n,
		Password: "longenough",
		Address:  address{City: "Pune"},
	}
}

func TestStruct(t *testing.T) {
	zero := 0
	tests := []struct {
		name    string
		mutate  func(*sample)
		field   string
		message string
	}{
		{"missing name", func(s *sample) { s.Name = "" }, "name", "name is required"},
		{"bad email", func(s *sample) { s.Email = "nope" }, "email", "email must be a valid email address"},
		{"short phone", func(s *sample) { s.Phone = "12345" }, "contactNumber", "contactNumber must be exactly 10 characters"},
		{"phone with decimals", func(s *sample) { s.Phone = "12345.6789" }, "contactNumber", "contactNumber must contain only digits"},
		{"missing count", func(s *sample) { s.Count = nil }, "count", "count is required"},
		{"count below min", func(s *sample) { s.Count = &zero }, "count", "count must be at least 1"},
		{"short password", func(s *sample) { s.Password = "short" }, "password", "password must be at least 8 characters"},
		{"nested field", func(s *sample) { s.Address.City = "" }, "address.city", "address.city is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			err := Struct(s)
			require.Error(t, err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(validSample()))
}
