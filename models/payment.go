package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

const (
	// PaymentMethodCashu cashu ecash tokens issued by a mint
	PaymentMethodCashu = "Cashu"
)

var (
	errPaymentMethodEmpty   = errors.New("payment method: no variant set")
	errPaymentMethodVariant = errors.New("payment method: expected exactly one variant")
)

// PaymentMethod payment mechanism of a fee.
// It is encoded externally tagged, the variant name is the only key:
//
//	{"Cashu":{"mints":["https://mint.example"]}}
//
// A variant this build does not know is kept as is and encoded back unchanged.
type PaymentMethod struct {
	Cashu *CashuPayment

	unknownName string
	unknownBody json.RawMessage
}

// CashuPayment cashu payment method
type CashuPayment struct {
	Mints []string `json:"mints"`
}

// NewCashuPayment new cashu payment method
func NewCashuPayment(mints []string) *PaymentMethod {
	cp := &CashuPayment{Mints: make([]string, len(mints))}
	copy(cp.Mints, mints)

	return &PaymentMethod{Cashu: cp}
}

// Name variant name
func (m *PaymentMethod) Name() string {
	if m.Cashu != nil {
		return PaymentMethodCashu
	}

	return m.unknownName
}

// Known reports whether the variant is one this build understands
func (m *PaymentMethod) Known() bool {
	return m.Cashu != nil
}

// MarshalJSON implements json.Marshaler
func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	switch {
	case m.Cashu != nil:
		cp := *m.Cashu
		if cp.Mints == nil {
			cp.Mints = []string{}
		}
		return json.Marshal(map[string]*CashuPayment{PaymentMethodCashu: &cp})

	case m.unknownName != "":
		return json.Marshal(map[string]json.RawMessage{m.unknownName: m.unknownBody})
	}

	return nil, errPaymentMethodEmpty
}

// UnmarshalJSON implements json.Unmarshaler
func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var variants map[string]json.RawMessage
	err := json.Unmarshal(b, &variants)
	if err != nil {
		return err
	}

	if len(variants) != 1 {
		return errPaymentMethodVariant
	}

	*m = PaymentMethod{}
	for name, body := range variants {
		switch name {
		case PaymentMethodCashu:
			cp := &CashuPayment{}
			if err := json.Unmarshal(body, cp); err != nil {
				return fmt.Errorf("payment method %s: %w", name, err)
			}
			m.Cashu = cp

		default:
			m.unknownName = name
			m.unknownBody = append(json.RawMessage(nil), body...)
		}
	}

	return nil
}
