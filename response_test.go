package ldapderef

import (
	"bytes"
	"reflect"
	"testing"

	ldap "github.com/go-ldap/ldap/v3"
)

// tlv builds a BER element with a short-form length.
func tlv(tag byte, content ...[]byte) []byte {
	body := bytes.Join(content, nil)
	if len(body) > 127 {
		panic("tlv: content too long for a short-form length")
	}
	return append([]byte{tag, byte(len(body))}, body...)
}

func octets(s string) []byte {
	return tlv(0x04, []byte(s))
}

// twoResults is a DerefResultControlValue with two DerefRes, the second
// without attrVals.
func twoResults() []byte {
	return tlv(0x30,
		tlv(0x30,
			octets("manager"),
			octets("cn=Bob,dc=example"),
			tlv(0xa0,
				tlv(0x30, octets("cn"), tlv(0x31, octets("Bob"))),
				tlv(0x30, octets("mail"), tlv(0x31, octets("bob@example.com"), octets("b@example.com"))),
			),
		),
		tlv(0x30,
			octets("manager"),
			octets("cn=Alice,dc=example"),
		),
	)
}

func TestDecodeResultValue(t *testing.T) {
	got, err := DecodeResultValue(twoResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []DerefRes{
		{
			DerefAttr: "manager",
			DerefVal:  "cn=Bob,dc=example",
			AttrVals: []PartialAttribute{
				{Type: "cn", Vals: [][]byte{[]byte("Bob")}},
				{Type: "mail", Vals: [][]byte{[]byte("bob@example.com"), []byte("b@example.com")}},
			},
		},
		{
			DerefAttr: "manager",
			DerefVal:  "cn=Alice,dc=example",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
	if !got[0].HasAttrVals() {
		t.Fatal("expected attrVals on the first result")
	}
	if got[1].HasAttrVals() {
		t.Fatal("expected no attrVals on the second result")
	}
}

func TestDecodeResultValue_Empty(t *testing.T) {
	got, err := DecodeResultValue([]byte{0x30, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty list, got %#v", got)
	}
}

func TestDecodeResultValue_EmptyAttrVals(t *testing.T) {
	data := tlv(0x30, tlv(0x30, octets("member"), octets("cn=x"), tlv(0xa0)))
	got, err := DecodeResultValue(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].HasAttrVals() || len(got[0].AttrVals) != 0 {
		t.Fatalf("expected one result with present but empty attrVals, got %#v", got)
	}
}

func TestDecodeResultValue_Invalid(t *testing.T) {
	valid := twoResults()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"truncated inner sequence", valid[:len(valid)-3]},
		{"trailing data", append(append([]byte{}, valid...), 0x30, 0x00)},
		{"outer set", tlv(0x31)},
		{"missing derefVal", tlv(0x30, tlv(0x30, octets("manager")))},
		{"attrVals wrong tag", tlv(0x30, tlv(0x30, octets("manager"), octets("cn=x"), tlv(0xa1)))},
		{"attrVals universal sequence", tlv(0x30, tlv(0x30, octets("manager"), octets("cn=x"), tlv(0x30)))},
		{"extra field", tlv(0x30, tlv(0x30, octets("manager"), octets("cn=x"), tlv(0xa0), octets("x")))},
		{"vals not a set", tlv(0x30, tlv(0x30, octets("manager"), octets("cn=x"),
			tlv(0xa0, tlv(0x30, octets("cn"), tlv(0x30, octets("x"))))))},
		{"partial attribute without vals", tlv(0x30, tlv(0x30, octets("manager"), octets("cn=x"),
			tlv(0xa0, tlv(0x30, octets("cn")))))},
		{"value not an octet string", tlv(0x30, tlv(0x30, octets("manager"), octets("cn=x"),
			tlv(0xa0, tlv(0x30, octets("cn"), tlv(0x31, tlv(0x02, []byte{0x01}))))))},
		{"derefVal not UTF-8", tlv(0x30, tlv(0x30, octets("manager"), tlv(0x04, []byte{0xff, 0xfe})))},
		{"indefinite length", []byte{0x30, 0x80, 0x00, 0x00}},
		{"indefinite inner length", []byte{0x30, 0x04, 0x30, 0x80, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResultValue(tt.data)
			if !ldap.IsErrorWithCode(err, ldap.LDAPResultDecodingError) {
				t.Fatalf("expected LDAPResultDecodingError, got %v", err)
			}
			if got != nil {
				t.Fatalf("expected no partial result, got %#v", got)
			}
		})
	}
}

func TestResultValueRoundTrip(t *testing.T) {
	results := []DerefRes{
		{
			DerefAttr: "member",
			DerefVal:  "uid=jdoe,ou=people,dc=example",
			AttrVals: []PartialAttribute{
				{Type: "jpegPhoto", Vals: [][]byte{{0xff, 0xd8, 0x00, 0x01}}},
				{Type: "cn", Vals: [][]byte{[]byte("John Doe"), []byte("")}},
			},
		},
		{DerefAttr: "member", DerefVal: "uid=empty,dc=example", AttrVals: []PartialAttribute{}},
		{DerefAttr: "owner", DerefVal: "uid=root,dc=example"},
	}

	data, err := EncodeResultValue(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := DecodeResultValue(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, results) {
		t.Fatalf("expected %#v, got %#v", results, got)
	}
	if !got[1].HasAttrVals() || got[2].HasAttrVals() {
		t.Fatal("attrVals presence was not preserved")
	}
}

func TestEncodeResultValue_Bytes(t *testing.T) {
	got, err := EncodeResultValue([]DerefRes{
		{DerefAttr: "manager", DerefVal: "cn=Bob,dc=example", AttrVals: []PartialAttribute{
			{Type: "cn", Vals: [][]byte{[]byte("Bob")}},
			{Type: "mail", Vals: [][]byte{[]byte("bob@example.com"), []byte("b@example.com")}},
		}},
		{DerefAttr: "manager", DerefVal: "cn=Alice,dc=example"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := twoResults(); !bytes.Equal(got, want) {
		t.Fatalf("expected %x, got %x", want, got)
	}
}

func TestDerefResGet(t *testing.T) {
	res := DerefRes{AttrVals: []PartialAttribute{
		{Type: "mail", Vals: [][]byte{[]byte("a@example.com"), []byte("b@example.com")}},
	}}
	if got := res.GetValues("MAIL"); !reflect.DeepEqual(got, []string{"a@example.com", "b@example.com"}) {
		t.Fatalf("unexpected values %#v", got)
	}
	if res.Get("cn") != nil {
		t.Fatal("expected no cn attribute")
	}
	if res.GetValues("cn") != nil {
		t.Fatal("expected nil values for a missing attribute")
	}
}
