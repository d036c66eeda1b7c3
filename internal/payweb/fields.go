package payweb

import (
	"fmt"
	"net/url"
	"strings"
)

// PayWeb3 field names. The provider computes checksums over the field values
// in the order they are posted, so both directions use the ordered Fields
// type below rather than a map.
const (
	FieldPaygateID         = "PAYGATE_ID"
	FieldReference         = "REFERENCE"
	FieldAmount            = "AMOUNT"
	FieldCurrency          = "CURRENCY"
	FieldReturnURL         = "RETURN_URL"
	FieldTransactionDate   = "TRANSACTION_DATE"
	FieldLocale            = "LOCALE"
	FieldCountry           = "COUNTRY"
	FieldEmail             = "EMAIL"
	FieldPayMethod         = "PAY_METHOD"
	FieldNotifyURL         = "NOTIFY_URL"
	FieldPayRequestID      = "PAY_REQUEST_ID"
	FieldTransactionStatus = "TRANSACTION_STATUS"
	FieldTransactionID     = "TRANSACTION_ID"
	FieldResultCode        = "RESULT_CODE"
	FieldResultDesc        = "RESULT_DESC"
	FieldChecksum          = "CHECKSUM"
	FieldError             = "ERROR"
)

// knownFields is the allow-list of field names accepted when decoding a
// provider payload. Anything else is dropped, never fed into checksum
// verification or order state.
var knownFields = map[string]bool{
	FieldPaygateID:         true,
	FieldReference:         true,
	FieldAmount:            true,
	FieldCurrency:          true,
	FieldReturnURL:         true,
	FieldTransactionDate:   true,
	FieldLocale:            true,
	FieldCountry:           true,
	FieldEmail:             true,
	FieldPayMethod:         true,
	FieldNotifyURL:         true,
	FieldPayRequestID:      true,
	FieldTransactionStatus: true,
	FieldTransactionID:     true,
	FieldResultCode:        true,
	FieldResultDesc:        true,
	FieldChecksum:          true,
	FieldError:             true,
	"AUTH_CODE":            true,
	"RISK_INDICATOR":       true,
	"PAY_METHOD_DETAIL":    true,
	"TRANSACTION_DATE_2":   true,
	"USER_DEFINED_1":       true,
	"USER_DEFINED_2":       true,
	"USER_DEFINED_3":       true,
	"VAULT_ID":             true,
}

type field struct {
	name  string
	value string
}

// Fields is an ordered set of wire fields. Order matters: checksum input is
// the concatenation of values in post order.
type Fields struct {
	items []field
}

// Set appends the field, or replaces its value in place if already present.
func (f *Fields) Set(name, value string) {
	for i := range f.items {
		if f.items[i].name == name {
			f.items[i].value = value
			return
		}
	}
	f.items = append(f.items, field{name: name, value: value})
}

// Get returns the value for name, or the empty string.
func (f Fields) Get(name string) string {
	for _, it := range f.items {
		if it.name == name {
			return it.value
		}
	}
	return ""
}

// Lookup reports whether name is present, distinguishing "absent" from
// "present but empty".
func (f Fields) Lookup(name string) (string, bool) {
	for _, it := range f.items {
		if it.name == name {
			return it.value, true
		}
	}
	return "", false
}

// Has reports whether name is present.
func (f Fields) Has(name string) bool {
	_, ok := f.Lookup(name)
	return ok
}

// Without returns a copy with the named field removed, preserving the order
// of the remaining fields.
func (f Fields) Without(name string) Fields {
	out := Fields{items: make([]field, 0, len(f.items))}
	for _, it := range f.items {
		if it.name != name {
			out.items = append(out.items, it)
		}
	}
	return out
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.items)
}

// Values returns the field values in post order.
func (f Fields) Values() []string {
	vals := make([]string, len(f.items))
	for i, it := range f.items {
		vals[i] = it.value
	}
	return vals
}

// Encode serializes the fields as an application/x-www-form-urlencoded body,
// preserving field order.
func (f Fields) Encode() string {
	var b strings.Builder
	for i, it := range f.items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(it.name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(it.value))
	}
	return b.String()
}

// ParseFields decodes a key=value&... body into ordered Fields, keeping only
// allow-listed field names. Wire order is preserved so the result can be fed
// straight into checksum verification.
func ParseFields(body string) (Fields, error) {
	var f Fields
	body = strings.TrimSpace(body)
	if body == "" {
		return f, nil
	}
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		name, rawValue, _ := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return Fields{}, fmt.Errorf("payweb: malformed field pair %q", pair)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Fields{}, fmt.Errorf("payweb: decode field %s: %w", name, err)
		}
		if !knownFields[name] {
			continue
		}
		f.Set(name, value)
	}
	return f, nil
}
