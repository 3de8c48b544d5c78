package store

import (
	"bufio"
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	req := Request{
		Action: ActionEnter,
		Fields: map[string]string{
			"store_id": "0123456789abcdef0123",
			"indexed":  "1",
		},
	}

	var buf bytes.Buffer
	if err := EncodeFrame(&buf, req); err != nil {
		t.Fatalf("EncodeFrame() error: %v", err)
	}

	got, err := DecodeFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("DecodeFrame() error: %v", err)
	}
	if got.Action != req.Action {
		t.Errorf("Action = %q, want %q", got.Action, req.Action)
	}
	for k, v := range req.Fields {
		if got.Fields[k] != v {
			t.Errorf("Fields[%q] = %q, want %q", k, got.Fields[k], v)
		}
	}
}

func TestDecodeFrameRejectsMalformedLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("notalength:body,")))
	if _, err := DecodeFrame(r); err == nil {
		t.Fatalf("DecodeFrame() with malformed length succeeded, want error")
	}
}

func TestDecodeFrameRejectsMissingTrailer(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("11:action=list;")))
	if _, err := DecodeFrame(r); err == nil {
		t.Fatalf("DecodeFrame() with missing trailer succeeded, want error")
	}
}

func TestDecodeFrameRejectsMissingAction(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("8:name=foo,")))
	if _, err := DecodeFrame(r); err == nil {
		t.Fatalf("DecodeFrame() with no action succeeded, want error")
	}
}
