package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sebcat/yans/collate"
	"github.com/sebcat/yans/internal/config"
	"github.com/sebcat/yans/match/reset"
	"github.com/sebcat/yans/vulnspec"
)

var (
	flagInBanners       string
	flagOutServices     string
	flagOutSvcCerts     string
	flagOutCerts        string
	flagOutCertSANs     string
	flagOutHTTPMsgs     string
	flagInServicesCSV   string
	flagOutCompSvcCSV   string
	flagPatternFile     string
	flagInCompSvcCSV    string
	flagOutComponents   string
	flagOutCompIDSvcID  string
	flagInComponentsCSV string
	flagVulnspecName    string
	flagOutCVEs         string
)

func openIn(path string) (*os.File, error) {
	return os.Open(path)
}

func createOut(path string) (*os.File, error) {
	return os.Create(path)
}

// newBannersCmd wires RunBanners to file-backed flags, grounded on
// collate_main's -B/-s/-e/-c/-a handling.
func newBannersCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "banners",
		Short: "Collate banner events into services and certificate CSVs",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openIn(flagInBanners)
			if err != nil {
				return wrapf("open banners input", err)
			}
			defer in.Close()
			src, err := collate.NewCSVBannerSource(in)
			if err != nil {
				return wrapf("banner source", err)
			}

			var out collate.BannersOutput
			closers := make([]*os.File, 0, 4)

			if flagOutServices != "" {
				f, err := createOut(flagOutServices)
				if err != nil {
					return wrapf("open services output", err)
				}
				closers = append(closers, f)
				out.Services = f
			}
			if flagOutSvcCerts != "" {
				f, err := createOut(flagOutSvcCerts)
				if err != nil {
					return wrapf("open svccert output", err)
				}
				closers = append(closers, f)
				out.SvcCerts = f
			}
			if flagOutCerts != "" {
				f, err := createOut(flagOutCerts)
				if err != nil {
					return wrapf("open certs output", err)
				}
				closers = append(closers, f)
				out.Certs = f
			}
			if flagOutCertSANs != "" {
				f, err := createOut(flagOutCertSANs)
				if err != nil {
					return wrapf("open cert_sans output", err)
				}
				closers = append(closers, f)
				out.CertSANs = f
			}
			defer func() {
				for _, f := range closers {
					f.Close()
				}
			}()

			return collate.RunBanners(src, out, flagSeed)
		},
	}
	c.Flags().StringVar(&flagInBanners, "in-banners", "", "banner events input CSV")
	c.Flags().StringVar(&flagOutServices, "out-services", "", "services.csv output path")
	c.Flags().StringVar(&flagOutSvcCerts, "out-svccerts", "", "svccert.csv output path")
	c.Flags().StringVar(&flagOutCerts, "out-certs", "", "certs.csv output path")
	c.Flags().StringVar(&flagOutCertSANs, "out-cert-sans", "", "cert_sans.csv output path")
	c.MarkFlagRequired("in-banners")
	return c
}

func newHTTPMsgsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "httpmsgs",
		Short: "Emit seed-path HTTP requests for every matched http(s) service",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openIn(flagInServicesCSV)
			if err != nil {
				return wrapf("open services input", err)
			}
			defer in.Close()

			out, err := createOut(flagOutHTTPMsgs)
			if err != nil {
				return wrapf("open httpmsgs output", err)
			}
			defer out.Close()

			return collate.RunHTTPMsgs(in, &lineSink{w: out})
		},
	}
	c.Flags().StringVar(&flagInServicesCSV, "in-services", "", "services.csv input path")
	c.Flags().StringVar(&flagOutHTTPMsgs, "out-httpmsgs", "", "httpmsgs output path")
	c.MarkFlagRequired("in-services")
	c.MarkFlagRequired("out-httpmsgs")
	return c
}

func newMatchesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "matches",
		Short: "Match banners against known component patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcIn, err := openIn(flagInServicesCSV)
			if err != nil {
				return wrapf("open services input", err)
			}
			defer svcIn.Close()
			lookup, err := collate.LoadServiceLookup(svcIn)
			if err != nil {
				return wrapf("load service lookup", err)
			}

			bannerIn, err := openIn(flagInBanners)
			if err != nil {
				return wrapf("open banners input", err)
			}
			defer bannerIn.Close()
			src, err := collate.NewCSVBannerSource(bannerIn)
			if err != nil {
				return wrapf("banner source", err)
			}

			patterns, err := loadPatterns(flagPatternFile)
			if err != nil {
				return wrapf("load patterns", err)
			}

			out, err := createOut(flagOutCompSvcCSV)
			if err != nil {
				return wrapf("open compsvc output", err)
			}
			defer out.Close()

			return collate.RunMatches(patterns, src, lookup, flagSeed, out)
		},
	}
	c.Flags().StringVar(&flagInServicesCSV, "in-services", "", "services.csv input path")
	c.Flags().StringVar(&flagInBanners, "in-banners", "", "banner events input CSV")
	c.Flags().StringVar(&flagPatternFile, "patterns", "", "component match pattern file")
	c.Flags().StringVar(&flagOutCompSvcCSV, "out-compsvc", "", "compsvc.csv output path")
	c.MarkFlagRequired("in-services")
	c.MarkFlagRequired("in-banners")
	c.MarkFlagRequired("patterns")
	c.MarkFlagRequired("out-compsvc")
	return c
}

func newComponentsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "components",
		Short: "Roll up compsvc.csv into deduplicated components",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openIn(flagInCompSvcCSV)
			if err != nil {
				return wrapf("open compsvc input", err)
			}
			defer in.Close()

			componentsOut, err := createOut(flagOutComponents)
			if err != nil {
				return wrapf("open components output", err)
			}
			defer componentsOut.Close()

			compIDSvcIDOut, err := createOut(flagOutCompIDSvcID)
			if err != nil {
				return wrapf("open compidsvcid output", err)
			}
			defer compIDSvcIDOut.Close()

			return collate.RunComponents(in, componentsOut, compIDSvcIDOut, flagSeed)
		},
	}
	c.Flags().StringVar(&flagInCompSvcCSV, "in-compsvc", "", "compsvc.csv input path")
	c.Flags().StringVar(&flagOutComponents, "out-components", "", "components.csv output path")
	c.Flags().StringVar(&flagOutCompIDSvcID, "out-compidsvcid", "", "compidsvcid.csv output path")
	c.MarkFlagRequired("in-compsvc")
	c.MarkFlagRequired("out-components")
	c.MarkFlagRequired("out-compidsvcid")
	return c
}

func newCVEsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "cves",
		Short: "Evaluate components.csv against a compiled vulnspec image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return wrapf("load config", err)
			}
			vsPath := cfg.VulnspecPath(flagVulnspecName)
			vsData, err := os.ReadFile(vsPath)
			if err != nil {
				return wrapf("read vulnspec image", err)
			}
			interp, err := vulnspec.Load(vsData)
			if err != nil {
				return wrapf("load vulnspec image", err)
			}

			in, err := openIn(flagInComponentsCSV)
			if err != nil {
				return wrapf("open components input", err)
			}
			defer in.Close()

			out, err := createOut(flagOutCVEs)
			if err != nil {
				return wrapf("open cves output", err)
			}
			defer out.Close()

			return collate.RunCVEs(in, interp, out)
		},
	}
	c.Flags().StringVar(&flagInComponentsCSV, "in-components", "", "components.csv input path")
	c.Flags().StringVar(&flagVulnspecName, "vulnspec", "", "vulnspec image name (without .vs suffix)")
	c.Flags().StringVar(&flagOutCVEs, "out-cves", "", "cves.csv output path")
	c.MarkFlagRequired("in-components")
	c.MarkFlagRequired("vulnspec")
	c.MarkFlagRequired("out-cves")
	return c
}

// lineSink writes one line of tab-separated fields per HTTPMessage,
// since httpmsgs is not one of the CSV-tagged outputs (it mirrors an
// inter-process ycl message stream in the original, out of scope here).
type lineSink struct {
	w *os.File
}

func (s *lineSink) Emit(m collate.HTTPMessage) error {
	_, err := s.w.WriteString(m.Scheme + "\t" + m.Addr + "\t" + m.Hostname + "\t" + m.Port + "\t" + m.Path + "\t" +
		strconv.FormatUint(uint64(m.ServiceID), 10) + "\n")
	return err
}

func loadPatterns(path string) ([]reset.Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsePatternFile(data)
}
