package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	sce "github.com/sebcat/yans/errors"
)

// Request is one decoded store service request: an action name and
// its key=value fields, grounded on the on_readreq dispatcher in
// store.c and the "Length-prefixed netstring frames (<decimal-len>:
// <bytes>,) carrying key=value pairs" service request protocol.
// File descriptor transfer (ancillary data for open/index/rename
// responses) belongs to the C6 reactor contract and is out of scope
// here -- this type only carries the textual request/response frame.
type Request struct {
	Action string
	Fields map[string]string
}

// EncodeFrame writes req as a single netstring frame: action, then each
// field as "key=value", newline-joined, length-prefixed as
// "<decimal-len>:<bytes>,".
func EncodeFrame(w io.Writer, req Request) error {
	var sb strings.Builder
	sb.WriteString("action=")
	sb.WriteString(req.Action)
	for k, v := range req.Fields {
		sb.WriteByte('\n')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
	}

	body := sb.String()
	if _, err := fmt.Fprintf(w, "%d:%s,", len(body), body); err != nil {
		return err
	}
	return nil
}

// DecodeFrame reads a single netstring frame from r and parses it
// into a Request.
func DecodeFrame(r *bufio.Reader) (Request, error) {
	lenStr, err := r.ReadString(':')
	if err != nil {
		return Request{}, sce.WithMessage(sce.ErrInputFormat, "store: malformed netstring length: "+err.Error())
	}
	lenStr = strings.TrimSuffix(lenStr, ":")

	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 {
		return Request{}, sce.WithMessage(sce.ErrInputFormat, "store: malformed netstring length")
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Request{}, sce.WithMessage(sce.ErrInputFormat, "store: truncated netstring body: "+err.Error())
	}

	trailer, err := r.ReadByte()
	if err != nil || trailer != ',' {
		return Request{}, sce.WithMessage(sce.ErrInputFormat, "store: missing netstring trailer")
	}

	req := Request{Fields: make(map[string]string)}
	for _, line := range strings.Split(string(body), "\n") {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return Request{}, sce.WithMessage(sce.ErrInputFormat, "store: malformed key=value field")
		}
		if k == "action" {
			req.Action = v
		} else {
			req.Fields[k] = v
		}
	}

	if req.Action == "" {
		return Request{}, sce.WithMessage(sce.ErrProtocolViolation, "store: request missing action")
	}
	return req, nil
}

// Action names dispatched by a store service, grounded on the
// on_readreq switch in store.c.
const (
	ActionEnter  = "enter"
	ActionOpen   = "open"
	ActionRename = "rename"
	ActionIndex  = "index"
	ActionList   = "list"
)
