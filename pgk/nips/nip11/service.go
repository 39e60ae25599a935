package nip11

import (
	"net/url"
	"slices"

	"github.com/saveblush/reraw-info/core/config"
	"github.com/saveblush/reraw-info/core/generic"
	"github.com/saveblush/reraw-info/core/utils"
	"github.com/saveblush/reraw-info/models"
)

const (
	// Software implementation identifier published in the document
	Software = "https://github.com/saveblush/reraw-info"

	// Unit primary currency unit of pay to relay fees
	Unit = "msats"

	msatsPerSat = 1000
	nipAuth     = 42
)

// baseNIPs always supported
var baseNIPs = []int{1, 2, 9, 11, 12, 15, 16, 20, 22, 33, 40}

// Service service interface
type Service interface {
	Build(cf *config.Configs) *models.RelayInfo
}

type service struct {
	version string
}

// NewService new service, an empty version is left out of the document
func NewService(version string) Service {
	return &service{
		version: version,
	}
}

// Build build the relay information document from cf.
// cf is only read, the document shares no memory with it.
func (s *service) Build(cf *config.Configs) *models.RelayInfo {
	if cf == nil {
		cf = &config.Configs{}
	}

	info := cf.Info
	p := cf.PayToRelay
	pc := cf.PayToRelayByCashu

	paymentRequired := p.Enabled || pc.Enabled
	restrictedWrites := paymentRequired ||
		cf.VerifiedUsers.IsEnabled() ||
		cf.Authorization.PubkeyWhitelist != nil ||
		cf.Grpc.RestrictsWrite

	doc := &models.RelayInfo{
		ID:            generic.ConvertEmptyToNil(info.RelayURL),
		Name:          generic.ConvertEmptyToNil(info.Name),
		Description:   generic.ConvertEmptyToNil(info.Description),
		Pubkey:        generic.ConvertEmptyToNil(info.Pubkey),
		Contact:       generic.ConvertEmptyToNil(info.Contact),
		Icon:          generic.ConvertEmptyToNil(info.RelayIcon),
		SupportedNIPs: s.supportedNIPs(cf),
		Software:      utils.Pointer(Software),
		Version:       generic.ConvertEmptyToNil(s.version),
		Limitation: &models.Limitation{
			PaymentRequired:  utils.Pointer(paymentRequired),
			RestrictedWrites: utils.Pointer(restrictedWrites),
		},
	}

	if paymentRequired {
		doc.Fees = s.fees(cf)
		if p.Enabled {
			doc.PaymentURL = paymentURL(info.RelayURL)
		}
	}

	return doc
}

// supportedNIPs append every enabled extension, then sort once
func (s *service) supportedNIPs(cf *config.Configs) []int {
	nips := make([]int, 0, len(baseNIPs)+1)
	nips = append(nips, baseNIPs...)

	if cf.Authorization.Nip42Auth {
		nips = append(nips, nipAuth)
	}

	slices.Sort(nips)

	return slices.Compact(nips)
}

func (s *service) fees(cf *config.Configs) *models.Fees {
	p := cf.PayToRelay
	pc := cf.PayToRelayByCashu
	fees := &models.Fees{}

	if p.Enabled && p.AdmissionCost > 0 {
		fees.Admission = []*models.Fee{{
			Amount: p.AdmissionCost * msatsPerSat,
			Unit:   Unit,
		}}
	}

	if p.Enabled && p.CostPerEvent > 0 {
		fees.Publication = append(fees.Publication, &models.Fee{
			Amount: p.CostPerEvent * msatsPerSat,
			Unit:   Unit,
		})
	}

	if pc.Enabled {
		fees.Publication = append(fees.Publication, &models.Fee{
			Amount: pc.CostPerEvent,
			Unit:   pc.Unit,
			Method: models.NewCashuPayment(pc.Mints),
			Kinds:  slices.Clone(pc.Kinds),
		})
	}

	return fees
}

// paymentURL join page of the relay: ws becomes http, wss becomes https.
// Any other scheme, or a url without host, publishes no payment url.
func paymentURL(relayURL string) *string {
	if generic.IsEmpty(relayURL) {
		return nil
	}

	u, err := url.Parse(relayURL)
	if err != nil || u.Host == "" {
		return nil
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil
	}

	u.RawQuery = ""
	u.Fragment = ""

	return utils.Pointer(u.JoinPath("join").String())
}
