package ldapderef

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// readPacket decodes data as exactly one BER element. Truncated input and
// trailing bytes are both rejected.
func readPacket(data []byte, what string) (*ber.Packet, error) {
	if len(data) == 0 {
		return nil, decodingErrorf("%s: empty value", what)
	}
	r := bytes.NewReader(data)
	p, err := ber.ReadPacket(r)
	if err != nil {
		return nil, decodingErrorf("%s: %v", what, err)
	}
	if r.Len() > 0 {
		return nil, decodingErrorf("%s: %d trailing bytes", what, r.Len())
	}
	if err := checkDefiniteLength(data, 0); err != nil {
		return nil, decodingErrorf("%s: %v", what, err)
	}
	return p, nil
}

// checkDefiniteLength walks the element headers of data and rejects the
// indefinite length form, which LDAP does not allow (RFC 4511 section 5.1).
func checkDefiniteLength(data []byte, offset int) error {
	for len(data) > 0 {
		constructed := ber.Type(data[0])&ber.TypeConstructed != 0
		i := 1
		if ber.Tag(data[0])&ber.HighTag == ber.HighTag {
			for i < len(data) && ber.Tag(data[i])&ber.HighTagContinueBitmask != 0 {
				i++
			}
			i++
		}
		if i >= len(data) {
			return fmt.Errorf("truncated header at offset %d", offset)
		}

		length := int(data[i])
		i++
		switch {
		case length == ber.LengthLongFormBitmask:
			return fmt.Errorf("indefinite length at offset %d", offset)
		case length > ber.LengthLongFormBitmask:
			n := length & ber.LengthValueBitmask
			if i+n > len(data) {
				return fmt.Errorf("invalid length at offset %d", offset)
			}
			length = 0
			for _, b := range data[i : i+n] {
				if length = length<<8 | int(b); length > len(data) {
					return fmt.Errorf("truncated content at offset %d", offset)
				}
			}
			i += n
		}
		if length > len(data)-i {
			return fmt.Errorf("truncated content at offset %d", offset)
		}

		if constructed {
			if err := checkDefiniteLength(data[i:i+length], offset+i); err != nil {
				return err
			}
		}
		data = data[i+length:]
		offset += i + length
	}
	return nil
}

func checkIdentifier(p *ber.Packet, class ber.Class, tagType ber.Type, tag ber.Tag, what string) error {
	if p.ClassType != class || p.TagType != tagType || p.Tag != tag {
		return decodingErrorf("%s: unexpected identifier (class %#x, type %#x, tag %d)", what, p.ClassType, p.TagType, p.Tag)
	}
	return nil
}

func checkSequence(p *ber.Packet, what string) error {
	return checkIdentifier(p, ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, what)
}

func checkChildren(p *ber.Packet, min, max int, what string) error {
	if n := len(p.Children); n < min || n > max {
		return decodingErrorf("%s: expected %d to %d elements, got %d", what, min, max, n)
	}
	return nil
}

// decodeOctetString returns a copy of the content of a universal OCTET STRING.
func decodeOctetString(p *ber.Packet, what string) ([]byte, error) {
	if err := checkIdentifier(p, ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, what); err != nil {
		return nil, err
	}
	return append([]byte{}, p.Data.Bytes()...), nil
}

// decodeLDAPString decodes an OCTET STRING holding UTF-8 text
// (AttributeDescription, LDAPDN).
func decodeLDAPString(p *ber.Packet, what string) (string, error) {
	b, err := decodeOctetString(p, what)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", decodingErrorf("%s: %q is not valid UTF-8", what, b)
	}
	return string(b), nil
}

func newLDAPString(value string, description string) (*ber.Packet, error) {
	if !utf8.ValidString(value) {
		return nil, encodingErrorf("%s %q is not valid UTF-8", description, value)
	}
	return ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, value, description), nil
}
