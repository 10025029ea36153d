package ldapderef

import (
	"fmt"
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// tagAttrVals is the context-specific tag of DerefRes.attrVals.
const tagAttrVals ber.Tag = 0

// PartialAttribute is one attribute of a dereferenced entry. Values are kept
// as returned by the server; StringVals converts them.
type PartialAttribute struct {
	Type string
	Vals [][]byte
}

// StringVals returns the values as strings.
func (a PartialAttribute) StringVals() []string {
	vals := make([]string, len(a.Vals))
	for i, v := range a.Vals {
		vals[i] = string(v)
	}
	return vals
}

// DerefRes is one dereference result: the attribute that was followed, the
// DN it held and the requested attributes of that entry.
//
// AttrVals is nil when the server omitted the optional attrVals field, and
// non-nil (possibly empty) when it was present.
type DerefRes struct {
	DerefAttr string
	DerefVal  string
	AttrVals  []PartialAttribute
}

// HasAttrVals reports whether the attrVals field was present.
func (r DerefRes) HasAttrVals() bool {
	return r.AttrVals != nil
}

// Get returns the attribute named t, matched case-insensitively, or nil.
func (r DerefRes) Get(t string) *PartialAttribute {
	for i := range r.AttrVals {
		if strings.EqualFold(r.AttrVals[i].Type, t) {
			return &r.AttrVals[i]
		}
	}
	return nil
}

// GetValues returns the string values of attribute t, or nil.
func (r DerefRes) GetValues(t string) []string {
	if a := r.Get(t); a != nil {
		return a.StringVals()
	}
	return nil
}

func (r DerefRes) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", r.DerefAttr, r.DerefVal)
	for _, a := range r.AttrVals {
		fmt.Fprintf(&b, " %s=%q", a.Type, a.StringVals())
	}
	return b.String()
}

// DecodeResultValue decodes the controlValue of a dereference response
// control:
//
//	DerefResultControlValue ::= SEQUENCE OF derefRes DerefRes
//
//	DerefRes ::= SEQUENCE {
//	    derefAttr       AttributeDescription,
//	    derefVal        LDAPDN,
//	    attrVals        [0] PartialAttributeList OPTIONAL }
//
//	PartialAttributeList ::= SEQUENCE OF partialAttribute PartialAttribute
//
// Results are returned in encounter order. Any structural error fails the
// whole value with result code ldap.LDAPResultDecodingError; no partial
// result is returned.
func DecodeResultValue(data []byte) ([]DerefRes, error) {
	packet, err := readPacket(data, "DerefResultControlValue")
	if err != nil {
		return nil, err
	}
	if err := checkSequence(packet, "DerefResultControlValue"); err != nil {
		return nil, err
	}

	results := make([]DerefRes, 0, len(packet.Children))
	for i, child := range packet.Children {
		res, err := decodeDerefRes(child, fmt.Sprintf("DerefRes[%d]", i))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func decodeDerefRes(packet *ber.Packet, what string) (DerefRes, error) {
	var res DerefRes
	if err := checkSequence(packet, what); err != nil {
		return res, err
	}
	if err := checkChildren(packet, 2, 3, what); err != nil {
		return res, err
	}

	var err error
	if res.DerefAttr, err = decodeLDAPString(packet.Children[0], what+".derefAttr"); err != nil {
		return res, err
	}
	if res.DerefVal, err = decodeLDAPString(packet.Children[1], what+".derefVal"); err != nil {
		return res, err
	}
	if len(packet.Children) < 3 {
		return res, nil
	}

	list := packet.Children[2]
	if err := checkIdentifier(list, ber.ClassContext, ber.TypeConstructed, tagAttrVals, what+".attrVals"); err != nil {
		return res, err
	}
	res.AttrVals = make([]PartialAttribute, 0, len(list.Children))
	for j, child := range list.Children {
		attr, err := decodePartialAttribute(child, fmt.Sprintf("%s.attrVals[%d]", what, j))
		if err != nil {
			return res, err
		}
		res.AttrVals = append(res.AttrVals, attr)
	}
	return res, nil
}

func decodePartialAttribute(packet *ber.Packet, what string) (PartialAttribute, error) {
	var attr PartialAttribute
	if err := checkSequence(packet, what); err != nil {
		return attr, err
	}
	if err := checkChildren(packet, 2, 2, what); err != nil {
		return attr, err
	}

	var err error
	if attr.Type, err = decodeLDAPString(packet.Children[0], what+".type"); err != nil {
		return attr, err
	}
	vals := packet.Children[1]
	if err := checkIdentifier(vals, ber.ClassUniversal, ber.TypeConstructed, ber.TagSet, what+".vals"); err != nil {
		return attr, err
	}
	attr.Vals = make([][]byte, 0, len(vals.Children))
	for k, child := range vals.Children {
		v, err := decodeOctetString(child, fmt.Sprintf("%s.vals[%d]", what, k))
		if err != nil {
			return attr, err
		}
		attr.Vals = append(attr.Vals, v)
	}
	return attr, nil
}

// EncodeResultValue returns the BER encoding of a DerefResultControlValue,
// the value a server attaches to a search result entry. The attrVals field
// is written only for results with a non-nil AttrVals.
func EncodeResultValue(results []DerefRes) ([]byte, error) {
	packet, err := encodeResultValue(results)
	if err != nil {
		return nil, err
	}
	return packet.Bytes(), nil
}

func encodeResultValue(results []DerefRes) (*ber.Packet, error) {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "DerefResultControlValue")
	for _, res := range results {
		derefRes := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "DerefRes")
		derefAttr, err := newLDAPString(res.DerefAttr, "derefAttr")
		if err != nil {
			return nil, err
		}
		derefRes.AppendChild(derefAttr)
		derefVal, err := newLDAPString(res.DerefVal, "derefVal")
		if err != nil {
			return nil, err
		}
		derefRes.AppendChild(derefVal)

		if res.AttrVals != nil {
			attrVals := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagAttrVals, nil, "attrVals")
			for _, a := range res.AttrVals {
				attribute := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "PartialAttribute")
				t, err := newLDAPString(a.Type, "type")
				if err != nil {
					return nil, err
				}
				attribute.AppendChild(t)
				vals := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSet, nil, "vals")
				for _, v := range a.Vals {
					vals.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, string(v), "val"))
				}
				attribute.AppendChild(vals)
				attrVals.AppendChild(attribute)
			}
			derefRes.AppendChild(attrVals)
		}
		packet.AppendChild(derefRes)
	}
	return packet, nil
}
