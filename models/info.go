package models

import "github.com/goccy/go-json"

// RelayInfo relay information document (NIP-11)
type RelayInfo struct {
	ID            *string     `json:"id,omitempty"`
	Name          *string     `json:"name,omitempty"`
	Description   *string     `json:"description,omitempty"`
	Pubkey        *string     `json:"pubkey,omitempty"`
	Contact       *string     `json:"contact,omitempty"`
	Icon          *string     `json:"icon,omitempty"`
	SupportedNIPs []int       `json:"supported_nips,omitempty"`
	Software      *string     `json:"software,omitempty"`
	Version       *string     `json:"version,omitempty"`
	Limitation    *Limitation `json:"limitation,omitempty"`
	PaymentURL    *string     `json:"payment_url,omitempty"`
	Fees          *Fees       `json:"fees,omitempty"`
}

// Limitation limitations of the relay
type Limitation struct {
	PaymentRequired  *bool `json:"payment_required,omitempty"`
	RestrictedWrites *bool `json:"restricted_writes,omitempty"`
}

// Fees fee schedules, an empty schedule is omitted
type Fees struct {
	Admission   []*Fee `json:"admission,omitempty"`
	Publication []*Fee `json:"publication,omitempty"`
}

// Fee amount is in the smallest denomination of unit.
// Kinds restricts the fee to the listed event kinds, nil means every kind.
type Fee struct {
	Amount uint64         `json:"amount"`
	Unit   string         `json:"unit"`
	Method *PaymentMethod `json:"method,omitempty"`
	Kinds  []uint64       `json:"kinds,omitempty"`
}

// MarshalJSON omit kinds only when nil, an empty list is written as []
func (f Fee) MarshalJSON() ([]byte, error) {
	type fee Fee
	if f.Kinds == nil {
		return json.Marshal(fee(f))
	}

	return json.Marshal(struct {
		fee
		Kinds []uint64 `json:"kinds"`
	}{fee: fee(f), Kinds: f.Kinds})
}
