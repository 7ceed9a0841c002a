package push

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
)

// RootCause walks err's chain until it reaches a recognized connectivity
// fault or the end of the chain, and returns that error.
func RootCause(err error) error {
	for err != nil {
		if isTerminal(err) {
			return err
		}
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

func isTerminal(err error) bool {
	switch err.(type) {
	case *net.OpError, *net.DNSError, *net.AddrError,
		*tls.CertificateVerificationError, *tls.RecordHeaderError,
		x509.UnknownAuthorityError, x509.HostnameError, x509.CertificateInvalidError:
		return true
	}
	return false
}

// isNetwork reports whether err carries a connectivity fault anywhere in
// its chain.
func isNetwork(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	return errors.As(err, &opErr) || errors.As(err, &dnsErr) || isTerminal(RootCause(err))
}
