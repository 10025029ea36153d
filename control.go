package ldapderef

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	ldap "github.com/go-ldap/ldap/v3"
)

// ControlTypeDereference is the OID of the dereference control
// (draft-masarati-ldap-deref).
const ControlTypeDereference = "1.3.6.1.4.1.4203.666.5.16"

// ControlDereference is the dereference request control. It implements
// ldap.Control and can be added to an ldap.SearchRequest.
type ControlDereference struct {
	Criticality bool
	Specs       Specs
}

// NewControlDereference returns a request control for specs. It fails when
// a spec cannot be encoded.
func NewControlDereference(criticality bool, specs ...Spec) (*ControlDereference, error) {
	if _, err := encodeRequestValue(specs); err != nil {
		return nil, err
	}
	return &ControlDereference{Criticality: criticality, Specs: specs}, nil
}

// NewControlDereferenceFromString parses text with ParseSpec and returns the
// request control for it.
func NewControlDereferenceFromString(criticality bool, text string) (*ControlDereference, error) {
	specs, err := ParseSpec(text)
	if err != nil {
		return nil, err
	}
	return NewControlDereference(criticality, specs...)
}

// GetControlType returns the OID
func (c *ControlDereference) GetControlType() string {
	return ControlTypeDereference
}

// Encode returns the ber packet representation. Specs that cannot be
// encoded produce a control without value, which servers reject;
// NewControlDereference reports them beforehand.
func (c *ControlDereference) Encode() *ber.Packet {
	var value []byte
	if p, err := encodeRequestValue(c.Specs); err == nil {
		value = p.Bytes()
	}
	return encodeControl(ControlTypeDereference, c.Criticality, value)
}

// String returns a human-readable description
func (c *ControlDereference) String() string {
	return fmt.Sprintf(
		"Control Type: %s (%q)  Criticality: %t  Specs: %q",
		"Dereference",
		ControlTypeDereference,
		c.Criticality,
		c.Specs.String())
}

// ControlDereferenceResult is the dereference response control a server
// attaches to each search result entry.
type ControlDereferenceResult struct {
	Criticality bool
	Results     []DerefRes
}

// GetControlType returns the OID
func (c *ControlDereferenceResult) GetControlType() string {
	return ControlTypeDereference
}

// Encode returns the ber packet representation
func (c *ControlDereferenceResult) Encode() *ber.Packet {
	var value []byte
	if p, err := encodeResultValue(c.Results); err == nil {
		value = p.Bytes()
	}
	return encodeControl(ControlTypeDereference, c.Criticality, value)
}

// String returns a human-readable description
func (c *ControlDereferenceResult) String() string {
	return fmt.Sprintf(
		"Control Type: %s (%q)  Criticality: %t  Results: %v",
		"Dereference",
		ControlTypeDereference,
		c.Criticality,
		c.Results)
}

func encodeControl(controlType string, criticality bool, value []byte) *ber.Packet {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, controlType, "Control Type (Dereference)"))
	if criticality {
		packet.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, criticality, "Criticality"))
	}
	if value != nil {
		packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(value), "Control Value (Dereference)"))
	}
	return packet
}

// DecodeControl decodes a dereference response control received from a
// server. go-ldap hands controls it does not know as *ldap.ControlString;
// those and any other ldap.Control carrying the dereference OID are
// accepted. A new value is returned on every call.
func DecodeControl(control ldap.Control) (*ControlDereferenceResult, error) {
	if control == nil {
		return nil, decodingErrorf("nil control")
	}
	if control.GetControlType() != ControlTypeDereference {
		return nil, decodingErrorf("unexpected control type %s", control.GetControlType())
	}

	switch c := control.(type) {
	case *ldap.ControlString:
		results, err := DecodeResultValue([]byte(c.ControlValue))
		if err != nil {
			return nil, err
		}
		return &ControlDereferenceResult{Criticality: c.Criticality, Results: results}, nil
	case *ControlDereferenceResult:
		return &ControlDereferenceResult{Criticality: c.Criticality, Results: append([]DerefRes{}, c.Results...)}, nil
	default:
		return DecodeControlPacket(control.Encode())
	}
}

// DecodeControlPacket decodes a Control SEQUENCE holding a dereference
// response control.
//
//	Control ::= SEQUENCE {
//	    controlType             LDAPOID,
//	    criticality             BOOLEAN DEFAULT FALSE,
//	    controlValue            OCTET STRING OPTIONAL }
func DecodeControlPacket(packet *ber.Packet) (*ControlDereferenceResult, error) {
	if packet == nil {
		return nil, decodingErrorf("nil control packet")
	}
	if err := checkSequence(packet, "Control"); err != nil {
		return nil, err
	}
	if err := checkChildren(packet, 1, 3, "Control"); err != nil {
		return nil, err
	}
	controlType, err := decodeLDAPString(packet.Children[0], "Control.controlType")
	if err != nil {
		return nil, err
	}
	if controlType != ControlTypeDereference {
		return nil, decodingErrorf("unexpected control type %s", controlType)
	}

	c := &ControlDereferenceResult{}
	rest := packet.Children[1:]
	if len(rest) > 0 && rest[0].Tag == ber.TagBoolean {
		if err := checkIdentifier(rest[0], ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, "Control.criticality"); err != nil {
			return nil, err
		}
		critical, ok := rest[0].Value.(bool)
		if !ok {
			return nil, decodingErrorf("Control.criticality: not a boolean")
		}
		c.Criticality = critical
		rest = rest[1:]
	}
	if len(rest) != 1 {
		return nil, decodingErrorf("Control: missing or unexpected controlValue")
	}
	value, err := decodeOctetString(rest[0], "Control.controlValue")
	if err != nil {
		return nil, err
	}
	if c.Results, err = DecodeResultValue(value); err != nil {
		return nil, err
	}
	return c, nil
}

// FindControl returns the decoded dereference response control found in
// controls, or nil when there is none.
func FindControl(controls []ldap.Control) (*ControlDereferenceResult, error) {
	control := ldap.FindControl(controls, ControlTypeDereference)
	if control == nil {
		return nil, nil
	}
	return DecodeControl(control)
}
