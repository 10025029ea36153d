package ldapderef

import (
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// EncodeRequestValue returns the BER encoding of
//
//	DerefControlValue ::= SEQUENCE OF DerefSpec
//
//	DerefSpec ::= SEQUENCE {
//	    derefAttr       AttributeDescription,
//	    attributes      AttributeList }
//
//	AttributeList ::= SEQUENCE OF AttributeDescription
//
// which is the controlValue of a dereference request control. Specs and
// attributes keep their order. A name that is not valid UTF-8 fails with
// result code ldap.LDAPResultEncodingError.
func EncodeRequestValue(specs Specs) ([]byte, error) {
	packet, err := encodeRequestValue(specs)
	if err != nil {
		return nil, err
	}
	return packet.Bytes(), nil
}

func encodeRequestValue(specs Specs) (*ber.Packet, error) {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "DerefControlValue")
	for _, spec := range specs {
		derefSpec := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "DerefSpec")
		derefAttr, err := newLDAPString(spec.DerefAttr, "derefAttr")
		if err != nil {
			return nil, err
		}
		derefSpec.AppendChild(derefAttr)

		attributes := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "attributes")
		for _, name := range spec.Attributes {
			attr, err := newLDAPString(name, "attribute")
			if err != nil {
				return nil, err
			}
			attributes.AppendChild(attr)
		}
		// go-asn1-ber copies the child's bytes on append: children first.
		derefSpec.AppendChild(attributes)
		packet.AppendChild(derefSpec)
	}
	return packet, nil
}

// DecodeRequestValue decodes a DerefControlValue, as received by a server
// on a search request. It checks the structure only; use Specs.Validate for
// the protocol rules. Malformed input fails with result code
// ldap.LDAPResultDecodingError.
func DecodeRequestValue(data []byte) (Specs, error) {
	packet, err := readPacket(data, "DerefControlValue")
	if err != nil {
		return nil, err
	}
	if err := checkSequence(packet, "DerefControlValue"); err != nil {
		return nil, err
	}

	specs := make(Specs, 0, len(packet.Children))
	for i, child := range packet.Children {
		spec, err := decodeDerefSpec(child, fmt.Sprintf("DerefSpec[%d]", i))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeDerefSpec(packet *ber.Packet, what string) (Spec, error) {
	if err := checkSequence(packet, what); err != nil {
		return Spec{}, err
	}
	if err := checkChildren(packet, 2, 2, what); err != nil {
		return Spec{}, err
	}
	derefAttr, err := decodeLDAPString(packet.Children[0], what+".derefAttr")
	if err != nil {
		return Spec{}, err
	}

	list := packet.Children[1]
	if err := checkSequence(list, what+".attributes"); err != nil {
		return Spec{}, err
	}
	spec := Spec{DerefAttr: derefAttr, Attributes: make([]string, 0, len(list.Children))}
	for j, child := range list.Children {
		name, err := decodeLDAPString(child, fmt.Sprintf("%s.attributes[%d]", what, j))
		if err != nil {
			return Spec{}, err
		}
		spec.Attributes = append(spec.Attributes, name)
	}
	return spec, nil
}
