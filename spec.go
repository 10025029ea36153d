package ldapderef

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Spec is one DerefSpec: the DN-valued attribute to follow and the
// attributes to return from the referenced entry. An empty Attributes list
// asks the server to dereference without returning attributes.
type Spec struct {
	DerefAttr  string
	Attributes []string
}

// Specs is the DerefControlValue sent with a search request. Order is kept
// on the wire.
type Specs []Spec

func (s Spec) String() string {
	return s.DerefAttr + ":" + strings.Join(s.Attributes, ",")
}

// String returns the textual form accepted by ParseSpec.
func (s Specs) String() string {
	parts := make([]string, len(s))
	for i := range s {
		parts[i] = s[i].String()
	}
	return strings.Join(parts, ";")
}

// ParseSpec parses a textual dereference specification
//
//	spec  := entry (";" entry)*
//	entry := derefAttr ":" attr ("," attr)*
//
// e.g. "manager:cn,mail;secretary:uid". A blank string yields no spec. A
// blank attribute list ("manager:") is accepted and yields an empty
// Attributes slice. Attribute names are trimmed but not otherwise checked.
// Every malformed entry is reported in the returned error, which has result
// code ldap.LDAPResultParamError.
func ParseSpec(text string) (Specs, error) {
	specs := Specs{}
	if strings.TrimSpace(text) == "" {
		return specs, nil
	}

	var result *multierror.Error
	for i, entry := range strings.Split(text, ";") {
		spec, err := parseEntry(entry)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("entry %d %q: %w", i+1, entry, err))
			continue
		}
		specs = append(specs, spec)
	}
	if result != nil {
		result.ErrorFormat = joinErrors
		return nil, invalidSpecError(result)
	}
	return specs, nil
}

func parseEntry(entry string) (Spec, error) {
	derefAttr, list, ok := strings.Cut(entry, ":")
	if !ok {
		return Spec{}, errors.New("missing ':' separator")
	}
	if strings.Contains(list, ":") {
		return Spec{}, errors.New("more than one ':' separator")
	}
	spec := Spec{DerefAttr: strings.TrimSpace(derefAttr), Attributes: []string{}}
	if spec.DerefAttr == "" {
		return Spec{}, errors.New("empty dereference attribute")
	}
	if strings.TrimSpace(list) == "" {
		return spec, nil
	}
	for _, attr := range strings.Split(list, ",") {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			return Spec{}, errors.New("empty attribute name")
		}
		spec.Attributes = append(spec.Attributes, attr)
	}
	return spec, nil
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate applies the rules a server enforces on a received control
// value: every derefAttr is set and unique (case-insensitively) and every
// spec names at least one attribute to return.
func (s Specs) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, spec := range s {
		if spec.DerefAttr == "" {
			return errors.New("missing dereference attribute name")
		}
		if len(spec.Attributes) == 0 {
			return errors.New("missing list of attributes to dereference")
		}
		key := strings.ToLower(spec.DerefAttr)
		if seen[key] {
			return fmt.Errorf("dereference attribute %s was specified more than once in a dereference specification", spec.DerefAttr)
		}
		seen[key] = true
	}
	return nil
}
