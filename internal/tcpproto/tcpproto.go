// Package tcpproto enumerates the TCP service protocols the collation
// pipeline can name a service as, grounded on lib/net/tcpproto_types.h.
// The zero value, Unknown, is the "not matched yet" sentinel used
// throughout the collation object tables (spec: banner event mpid/fpid,
// service mpids/fpid).
package tcpproto

// Type identifies a TCP service protocol. New protocols are appended
// before count, matching the original enum's "add at the end" rule so
// that any value persisted elsewhere keeps its meaning.
type Type uint16

const (
	Unknown Type = iota
	SMTP
	SMTPS
	DNS
	HTTP
	HTTPS
	POP3
	POP3S
	IMAP
	IMAPS
	IRC
	IRCS
	FTP
	FTPS
	SSH

	count
)

var names = [count]string{
	Unknown: "unknown",
	SMTP:    "smtp",
	SMTPS:   "smtps",
	DNS:     "dns",
	HTTP:    "http",
	HTTPS:   "https",
	POP3:    "pop3",
	POP3S:   "pop3s",
	IMAP:    "imap",
	IMAPS:   "imaps",
	IRC:     "irc",
	IRCS:    "ircs",
	FTP:     "ftp",
	FTPS:    "ftps",
	SSH:     "ssh",
}

// String renders t the way tcpproto_type_to_string does, returning
// "unknown" for any value outside the known range rather than panicking.
func (t Type) String() string {
	if t >= count {
		return "unknown"
	}
	return names[t]
}

var byName = func() map[string]Type {
	m := make(map[string]Type, count)
	for t, n := range names {
		m[n] = Type(t)
	}
	return m
}()

// FromString reverses String, returning (Unknown, false) for any name
// not in the table.
func FromString(name string) (Type, bool) {
	t, ok := byName[name]
	return t, ok
}

var byPort = map[uint16]Type{
	25:   SMTP,
	465:  SMTPS,
	53:   DNS,
	80:   HTTP,
	443:  HTTPS,
	110:  POP3,
	995:  POP3S,
	143:  IMAP,
	993:  IMAPS,
	194:  IRC,
	994:  IRCS,
	21:   FTP,
	990:  FTPS,
	22:   SSH,
}

// FromPort returns a well-known protocol guess for port, or Unknown if
// none is registered, grounded on tcpproto_type_from_port.
func FromPort(port uint16) Type {
	if t, ok := byPort[port]; ok {
		return t
	}
	return Unknown
}
