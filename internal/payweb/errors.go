package payweb

import (
	"errors"
	"fmt"
)

// TransportError means no usable response was obtained from the provider:
// network failure, TLS failure, timeout, or an empty body. It is distinct
// from a provider-reported ERROR and must never be mapped to a declined
// payment by callers.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payweb %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("payweb %s: no response from gateway", e.Op)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderRejected means the provider answered with an explicit ERROR field.
// Common codes: DATA_CHK (checksum mismatch on their side), DATA_PW (missing
// mandatory fields), DATA_CUR (unsupported currency), PGID_NOT_EN (merchant
// id not enabled).
type ProviderRejected struct {
	Code string
}

func (e *ProviderRejected) Error() string {
	return fmt.Sprintf("payweb: gateway rejected request: %s", e.Code)
}

// AuthenticityError means a checksum did not verify. It always fails closed:
// no state derived from the payload may be trusted.
type AuthenticityError struct {
	Leg string
}

func (e *AuthenticityError) Error() string {
	return fmt.Sprintf("payweb: checksum verification failed on %s", e.Leg)
}

// UnknownStatusError means an authoritative response carried a transaction
// status outside the documented set. It is never treated as success.
type UnknownStatusError struct {
	Code string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("payweb: unknown transaction status %q", e.Code)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsProviderRejected(err error) bool {
	var pr *ProviderRejected
	return errors.As(err, &pr)
}

func IsAuthenticityError(err error) bool {
	var ae *AuthenticityError
	return errors.As(err, &ae)
}
