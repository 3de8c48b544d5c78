package collate

import (
	"encoding/base64"
	"io"
	"net"
	"strconv"

	"github.com/sebcat/yans/csv"
	"github.com/sebcat/yans/internal/tcpproto"
)

// bannerEventRow is the on-disk shape of one recorded banner
// observation. The wire framing collate.c reads (-B/--in-banners, a
// stream of ycl messages) is out of scope here the same way the JSON
// codec is; this CSV encoding is a pragmatic stand-in so the CLI has a
// concrete, round-trippable input format to drive against, reusing the
// same csvutil-backed plumbing as every other CSV in this repo rather
// than inventing a second ad hoc format.
type bannerEventRow struct {
	Name      string `csv:"Name"`
	Address   string `csv:"Address"`
	Port      string `csv:"Port"`
	Banner    string `csv:"Banner"`
	FPID      string `csv:"FP Protocol"`
	MPID      string `csv:"Matched Protocol"`
	ChainPEMs string `csv:"Certificate Chain"`
}

// CSVBannerSource reads BannerEvents encoded as bannerEventRow from an
// underlying csv.Reader, implementing BannerSource.
type CSVBannerSource struct {
	r *csv.Reader[bannerEventRow]
}

// NewCSVBannerSource constructs a CSVBannerSource over r.
func NewCSVBannerSource(r io.Reader) (*CSVBannerSource, error) {
	dec, err := csv.NewReader[bannerEventRow](r)
	if err != nil {
		return nil, err
	}
	return &CSVBannerSource{r: dec}, nil
}

// Next decodes the next BannerEvent, returning io.EOF once exhausted.
func (s *CSVBannerSource) Next() (BannerEvent, error) {
	row, err := s.r.Read()
	if err != nil {
		return BannerEvent{}, err
	}

	port, err := strconv.ParseUint(row.Port, 10, 16)
	if err != nil {
		return BannerEvent{}, err
	}
	banner, err := base64.StdEncoding.DecodeString(row.Banner)
	if err != nil {
		return BannerEvent{}, err
	}
	var chainPEMs []byte
	if row.ChainPEMs != "" {
		chainPEMs, err = base64.StdEncoding.DecodeString(row.ChainPEMs)
		if err != nil {
			return BannerEvent{}, err
		}
	}

	fpid, _ := tcpproto.FromString(row.FPID)
	mpid, _ := tcpproto.FromString(row.MPID)

	return BannerEvent{
		Name:      row.Name,
		Addr:      NewAddr(net.ParseIP(row.Address), uint16(port)),
		Banner:    banner,
		FPID:      fpid,
		MPID:      mpid,
		ChainPEMs: chainPEMs,
	}, nil
}
