package relay

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/saveblush/reraw-info/core/config"
	"github.com/saveblush/reraw-info/core/generic"
	"github.com/saveblush/reraw-info/core/metrics"
	"github.com/saveblush/reraw-info/core/utils"
	"github.com/saveblush/reraw-info/core/utils/limiter"
	"github.com/saveblush/reraw-info/core/utils/logger"
	"github.com/saveblush/reraw-info/models"
	"github.com/saveblush/reraw-info/pgk/nips/nip11"
)

const (
	contentTypeNIP11 = "application/nostr+json"

	defaultWriteTimeout = 10 * time.Second
)

type RejectConnection []func(r *http.Request) (reject bool, status int)

// document built relay information with its encoded form
type document struct {
	info *models.RelayInfo
	body []byte
}

type Relay struct {
	serveMux *http.ServeMux
	nip11    nip11.Service
	metrics  *metrics.Metrics
	limiter  *limiter.IPRateLimiter
	proxy    *httputil.ReverseProxy
	doc      atomic.Pointer[document]

	// X-Forwarded-For names the client
	trustProxy bool

	// WriteTimeout bounds the NOTICE sent on a websocket without upstream
	WriteTimeout time.Duration
}

// NewRelay new relay, the document is built from cf right away
func NewRelay(cf *config.Configs, svc nip11.Service, m *metrics.Metrics) (*Relay, error) {
	rl := &Relay{
		serveMux:     &http.ServeMux{},
		nip11:        svc,
		metrics:      m,
		limiter:      limiter.NewIPRateLimiter(rate.Limit(cf.App.RateLimit), cf.App.RateBurst),
		trustProxy:   cf.App.TrustProxy,
		WriteTimeout: defaultWriteTimeout,
	}

	if !generic.IsEmpty(cf.App.UpstreamURL) {
		proxy, err := newUpstreamProxy(cf.App.UpstreamURL)
		if err != nil {
			return nil, err
		}
		rl.proxy = proxy
	}

	if err := rl.Reload(cf); err != nil {
		return nil, err
	}

	return rl, nil
}

func (rl *Relay) Serve() *http.ServeMux {
	mux := rl.serveMux
	mux.HandleFunc("/", rl.handleRequest)
	mux.Handle("/metrics", rl.metrics.Handler())

	return mux
}

// Reload rebuild the document from cf and swap it in.
// On error the previous document keeps being served.
func (rl *Relay) Reload(cf *config.Configs) error {
	info := rl.nip11.Build(cf)
	b, err := json.Marshal(info)
	if err != nil {
		logger.Log.Errorf("encode relay info error: %s", err)
		return err
	}

	rl.doc.Store(&document{info: info, body: b})
	rl.metrics.Rebuilds.Inc()
	logger.Log.Infof("relay info built: nips %v, payment required %t", info.SupportedNIPs, *info.Limitation.PaymentRequired)

	return nil
}

// Info current document, read-only
func (rl *Relay) Info() *models.RelayInfo {
	return rl.doc.Load().info
}

// handleRequest handle request
func (rl *Relay) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// check reject
	rejectConnection := append(RejectConnection{}, rl.rejectEmptyHeaderUserAgent, rl.rejectRateLimit)
	for _, rejectFunc := range rejectConnection {
		if reject, status := rejectFunc(r); reject {
			rl.metrics.Requests.WithLabelValues(metrics.RequestRejected).Inc()
			http.Error(w, http.StatusText(status), status)
			return
		}
	}

	if len(r.Header.Get("Upgrade")) > 0 {
		if r.Method == http.MethodGet && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			rl.handleWebsocket(w, r)
			return
		}

		http.Error(w, "Invalid Upgrade Header", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodOptions:
		rl.setCORS(w)
		w.WriteHeader(http.StatusNoContent)

	case http.MethodGet, http.MethodHead:
		if strings.Contains(r.Header.Get("Accept"), contentTypeNIP11) {
			rl.showNIP11(w)
		} else {
			rl.showInfo(w)
		}

	default:
		w.Header().Set("Allow", "GET, HEAD, OPTIONS")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	logger.Log.Debugf("[info] %s %s from %s processed in %s", r.Method, r.URL.Path, rl.clientIP(r), time.Since(start))
}

func (rl *Relay) clientIP(r *http.Request) string {
	return utils.GetIP(r, rl.trustProxy)
}

func (rl *Relay) setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
}

// showNIP11 show nip11 info
func (rl *Relay) showNIP11(w http.ResponseWriter) {
	rl.metrics.Requests.WithLabelValues(metrics.RequestNIP11).Inc()

	rl.setCORS(w)
	w.Header().Set("Content-Type", contentTypeNIP11)
	_, _ = w.Write(rl.doc.Load().body)
}

// showInfo show plain text info
func (rl *Relay) showInfo(w http.ResponseWriter) {
	rl.metrics.Requests.WithLabelValues(metrics.RequestText).Inc()

	info := rl.Info()
	arrSupportedNIPs := make([]string, len(info.SupportedNIPs))
	for i, v := range info.SupportedNIPs {
		arrSupportedNIPs[i] = fmt.Sprintf("%v", v)
	}

	var str []string
	str = append(str, fmt.Sprintf("Name: %s", value(info.Name)))
	str = append(str, fmt.Sprintf("Description: %s", value(info.Description)))
	str = append(str, fmt.Sprintf("PubKey: %s", value(info.Pubkey)))
	str = append(str, fmt.Sprintf("Contact: %s", value(info.Contact)))
	str = append(str, fmt.Sprintf("SupportedNIPs: %s", strings.Join(arrSupportedNIPs, ", ")))
	str = append(str, fmt.Sprintf("Version: %s", value(info.Version)))
	if info.PaymentURL != nil {
		str = append(str, fmt.Sprintf("Payment: %s", *info.PaymentURL))
	}
	if info.Fees != nil {
		for _, v := range info.Fees.Admission {
			str = append(str, fmt.Sprintf("Admission fee: %s", feeText(v)))
		}
		for _, v := range info.Fees.Publication {
			str = append(str, fmt.Sprintf("Publication fee: %s", feeText(v)))
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, strings.Join(str, "\n"))
}

func feeText(fee *models.Fee) string {
	s := fmt.Sprintf("%d %s", fee.Amount, fee.Unit)
	if fee.Method != nil {
		s += fmt.Sprintf(" via %s", fee.Method.Name())
		if fee.Method.Cashu != nil {
			s += fmt.Sprintf(" (%s)", strings.Join(fee.Method.Cashu.Mints, ", "))
		}
	}
	if len(fee.Kinds) > 0 {
		s += fmt.Sprintf(" for kinds %v", fee.Kinds)
	}

	return s
}

func value(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// newUpstreamProxy proxy websocket upgrades to the relay behind the gateway
func newUpstreamProxy(upstream string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}

	switch target.Scheme {
	case "ws":
		target.Scheme = "http"
	case "wss":
		target.Scheme = "https"
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Log.Errorf("upstream proxy error: %s", err)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}, nil
}
