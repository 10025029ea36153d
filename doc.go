// Package ldapderef implements the LDAP dereference control
// (draft-masarati-ldap-deref, OID 1.3.6.1.4.1.4203.666.5.16).
//
// Clients build the request control from a textual specification and add it
// to a go-ldap search request:
//
//	ctrl, err := ldapderef.NewControlDereferenceFromString(false, "manager:cn,mail;secretary:uid")
//	req := ldap.NewSearchRequest(base, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
//		0, 0, false, "(objectClass=person)", []string{"cn"}, []ldap.Control{ctrl})
//
// and decode the response control returned with each entry with
// DecodeControl or DecodeResultValue.
//
// Servers built on goldap use ParseRequestControl on the search request
// controls and a Dereferencer to build the response control of each entry.
package ldapderef
