package collate

import (
	"io"
	"strings"

	"github.com/sebcat/yans/csv"
)

// seedPaths are the request paths httpmsgs emits one HTTPMessage per,
// matching collate.c's static seed_paths array.
var seedPaths = []string{"/", "/wp-content/uploads/"}

// HTTPMessage is one synthesized HTTP request to issue against a
// matched HTTP(S) service. The original emits these as ycl messages to
// an eds-hosted scanning worker (see eds.Reactor); that transport is
// out of scope here, so HTTPMessage is a plain Go value handed to an
// HTTPMessageSink instead.
type HTTPMessage struct {
	Scheme    string
	Addr      string
	Hostname  string
	Port      string
	Path      string
	ServiceID uint32
}

// HTTPMessageSink receives one HTTPMessage at a time.
type HTTPMessageSink interface {
	Emit(HTTPMessage) error
}

// RunHTTPMsgs reads services.csv from r, and for every row whose
// Service field starts with "http" emits one HTTPMessage per seed path,
// grounded on httpmsgs().
func RunHTTPMsgs(r io.Reader, sink HTTPMessageSink) error {
	dec, err := csv.NewReader[csv.ServiceRow](r)
	if err != nil {
		return err
	}
	for {
		row, err := dec.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !strings.HasPrefix(row.Service, "http") {
			continue
		}

		hostname := row.Name
		if hostname == "" {
			hostname = row.Address
		}
		scheme := "http"
		if strings.HasSuffix(row.Service, "s") {
			scheme = "https"
		}

		for _, path := range seedPaths {
			msg := HTTPMessage{
				Scheme:    scheme,
				Addr:      row.Address,
				Hostname:  hostname,
				Port:      row.Port,
				Path:      path,
				ServiceID: row.ServiceID,
			}
			if err := sink.Emit(msg); err != nil {
				return err
			}
		}
	}
	return nil
}
