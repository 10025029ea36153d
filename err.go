package ldapderef

import (
	"errors"
	"fmt"

	ldap "github.com/go-ldap/ldap/v3"
)

var (
	// ErrInvalidSpec is wrapped by errors returned for a malformed textual
	// dereference specification.
	ErrInvalidSpec = errors.New("deref: invalid specification")
	// ErrEncoding is wrapped by errors returned when a value cannot be
	// represented in the control's BER encoding.
	ErrEncoding = errors.New("deref: encoding error")
	// ErrDecoding is wrapped by errors returned for malformed or truncated
	// control values.
	ErrDecoding = errors.New("deref: decoding error")
)

// The returned errors are *ldap.Error values, test them with
// ldap.IsErrorWithCode.

func invalidSpecError(err error) error {
	return ldap.NewError(ldap.LDAPResultParamError, fmt.Errorf("%w: %v", ErrInvalidSpec, err))
}

func encodingErrorf(format string, args ...interface{}) error {
	return ldap.NewError(ldap.LDAPResultEncodingError, fmt.Errorf("%w: "+format, append([]interface{}{ErrEncoding}, args...)...))
}

func decodingErrorf(format string, args ...interface{}) error {
	return ldap.NewError(ldap.LDAPResultDecodingError, fmt.Errorf("%w: "+format, append([]interface{}{ErrDecoding}, args...)...))
}
