package nip11

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/saveblush/reraw-info/core/config"
	"github.com/saveblush/reraw-info/models"
)

const testPubkey = "f1e6db4c8ffad88a44f763946fec9885d794a49343ae4823c4a000706a3697e7"

func encode(t *testing.T, doc *models.RelayInfo) []byte {
	t.Helper()

	b, err := json.Marshal(doc)
	require.NoError(t, err)

	return b
}

func TestSupportedNIPs(t *testing.T) {
	tests := []struct {
		name string
		auth bool
		want []int
	}{
		{
			name: "auth disabled",
			want: []int{1, 2, 9, 11, 12, 15, 16, 20, 22, 33, 40},
		},
		{
			name: "auth enabled",
			auth: true,
			want: []int{1, 2, 9, 11, 12, 15, 16, 20, 22, 33, 40, 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := &config.Configs{}
			cf.Authorization.Nip42Auth = tt.auth

			doc := NewService("").Build(cf)
			assert.Equal(t, tt.want, doc.SupportedNIPs)

			for i := 1; i < len(doc.SupportedNIPs); i++ {
				assert.Less(t, doc.SupportedNIPs[i-1], doc.SupportedNIPs[i])
			}
		})
	}
}

func TestSupportedNIPsNotShared(t *testing.T) {
	s := NewService("")
	cf := &config.Configs{}
	cf.Authorization.Nip42Auth = true

	first := s.Build(cf)
	first.SupportedNIPs[0] = 999

	second := s.Build(&config.Configs{})
	assert.Equal(t, 1, second.SupportedNIPs[0])
	assert.NotContains(t, second.SupportedNIPs, 42)
	assert.Equal(t, 1, baseNIPs[0])
}

func TestLimitation(t *testing.T) {
	tests := []struct {
		name             string
		setup            func(cf *config.Configs)
		paymentRequired  bool
		restrictedWrites bool
	}{
		{
			name:  "open relay",
			setup: func(cf *config.Configs) {},
		},
		{
			name:             "pay to relay",
			setup:            func(cf *config.Configs) { cf.PayToRelay.Enabled = true },
			paymentRequired:  true,
			restrictedWrites: true,
		},
		{
			name:             "cashu",
			setup:            func(cf *config.Configs) { cf.PayToRelayByCashu.Enabled = true },
			paymentRequired:  true,
			restrictedWrites: true,
		},
		{
			name:             "verified users enabled",
			setup:            func(cf *config.Configs) { cf.VerifiedUsers.Mode = config.VerifiedUsersEnabled },
			restrictedWrites: true,
		},
		{
			name:  "verified users passive",
			setup: func(cf *config.Configs) { cf.VerifiedUsers.Mode = config.VerifiedUsersPassive },
		},
		{
			name:             "allow-list",
			setup:            func(cf *config.Configs) { cf.Authorization.PubkeyWhitelist = []string{testPubkey} },
			restrictedWrites: true,
		},
		{
			name:             "empty allow-list",
			setup:            func(cf *config.Configs) { cf.Authorization.PubkeyWhitelist = []string{} },
			restrictedWrites: true,
		},
		{
			name:             "grpc restricts write",
			setup:            func(cf *config.Configs) { cf.Grpc.RestrictsWrite = true },
			restrictedWrites: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := &config.Configs{}
			tt.setup(cf)

			doc := NewService("").Build(cf)
			require.NotNil(t, doc.Limitation)
			require.NotNil(t, doc.Limitation.PaymentRequired)
			require.NotNil(t, doc.Limitation.RestrictedWrites)
			assert.Equal(t, tt.paymentRequired, *doc.Limitation.PaymentRequired)
			assert.Equal(t, tt.restrictedWrites, *doc.Limitation.RestrictedWrites)

			b := encode(t, doc)
			assert.True(t, gjson.GetBytes(b, "limitation.payment_required").Exists())
			assert.True(t, gjson.GetBytes(b, "limitation.restricted_writes").Exists())
		})
	}
}

func TestNoPayment(t *testing.T) {
	cf := &config.Configs{}
	cf.Info.RelayURL = "wss://relay.example/"
	cf.PayToRelay.AdmissionCost = 5
	cf.PayToRelay.CostPerEvent = 1

	doc := NewService("").Build(cf)
	assert.Nil(t, doc.PaymentURL)
	assert.Nil(t, doc.Fees)

	b := encode(t, doc)
	assert.False(t, gjson.GetBytes(b, "payment_url").Exists())
	assert.False(t, gjson.GetBytes(b, "fees").Exists())
}

func TestAdmissionFee(t *testing.T) {
	cf := &config.Configs{}
	cf.PayToRelay.Enabled = true
	cf.PayToRelay.AdmissionCost = 5

	doc := NewService("").Build(cf)
	require.NotNil(t, doc.Fees)
	assert.Equal(t, []*models.Fee{{Amount: 5000, Unit: "msats"}}, doc.Fees.Admission)
	assert.Nil(t, doc.Fees.Publication)

	b := encode(t, doc)
	assert.JSONEq(t, `[{"amount":5000,"unit":"msats"}]`, gjson.GetBytes(b, "fees.admission").Raw)
	assert.False(t, gjson.GetBytes(b, "fees.publication").Exists())
	assert.False(t, gjson.GetBytes(b, "payment_url").Exists())
}

func TestCashuOnly(t *testing.T) {
	cf := &config.Configs{}
	cf.Info.RelayURL = "wss://relay.example/"
	cf.PayToRelayByCashu.Enabled = true
	cf.PayToRelayByCashu.CostPerEvent = 3
	cf.PayToRelayByCashu.Unit = "sat"
	cf.PayToRelayByCashu.Mints = []string{"https://mint.example"}

	doc := NewService("").Build(cf)
	assert.Nil(t, doc.PaymentURL)
	require.NotNil(t, doc.Fees)
	assert.Nil(t, doc.Fees.Admission)
	require.Len(t, doc.Fees.Publication, 1)

	fee := doc.Fees.Publication[0]
	assert.Equal(t, uint64(3), fee.Amount)
	assert.Equal(t, "sat", fee.Unit)
	assert.Nil(t, fee.Kinds)
	require.NotNil(t, fee.Method)
	require.NotNil(t, fee.Method.Cashu)
	assert.Equal(t, []string{"https://mint.example"}, fee.Method.Cashu.Mints)

	b := encode(t, doc)
	assert.JSONEq(t,
		`[{"amount":3,"unit":"sat","method":{"Cashu":{"mints":["https://mint.example"]}}}]`,
		gjson.GetBytes(b, "fees.publication").Raw,
	)
	assert.False(t, gjson.GetBytes(b, "fees.admission").Exists())
}

func TestCashuEmptyKinds(t *testing.T) {
	cf := &config.Configs{}
	cf.PayToRelayByCashu.Enabled = true
	cf.PayToRelayByCashu.CostPerEvent = 3
	cf.PayToRelayByCashu.Unit = "sat"
	cf.PayToRelayByCashu.Mints = []string{"https://mint.example"}
	cf.PayToRelayByCashu.Kinds = []uint64{}

	doc := NewService("").Build(cf)
	require.NotNil(t, doc.Fees)
	require.Len(t, doc.Fees.Publication, 1)
	assert.NotNil(t, doc.Fees.Publication[0].Kinds)
	assert.Empty(t, doc.Fees.Publication[0].Kinds)

	b := encode(t, doc)
	assert.JSONEq(t, `[]`, gjson.GetBytes(b, "fees.publication.0.kinds").Raw)
}

func TestPublicationFeeOrder(t *testing.T) {
	cf := &config.Configs{}
	cf.PayToRelay.Enabled = true
	cf.PayToRelay.CostPerEvent = 2
	cf.PayToRelayByCashu.Enabled = true
	cf.PayToRelayByCashu.CostPerEvent = 7
	cf.PayToRelayByCashu.Unit = "sat"
	cf.PayToRelayByCashu.Mints = []string{"https://a.mint", "https://b.mint"}
	cf.PayToRelayByCashu.Kinds = []uint64{1, 30023}

	doc := NewService("").Build(cf)
	require.NotNil(t, doc.Fees)
	assert.Nil(t, doc.Fees.Admission)
	require.Len(t, doc.Fees.Publication, 2)

	assert.Equal(t, &models.Fee{Amount: 2000, Unit: "msats"}, doc.Fees.Publication[0])

	cashu := doc.Fees.Publication[1]
	assert.Equal(t, uint64(7), cashu.Amount)
	assert.Equal(t, []uint64{1, 30023}, cashu.Kinds)
	assert.Equal(t, models.PaymentMethodCashu, cashu.Method.Name())
	assert.Equal(t, []string{"https://a.mint", "https://b.mint"}, cashu.Method.Cashu.Mints)
}

func TestPaymentEnabledWithoutFees(t *testing.T) {
	cf := &config.Configs{}
	cf.Info.RelayURL = "wss://relay.example/"
	cf.PayToRelay.Enabled = true

	doc := NewService("").Build(cf)
	require.NotNil(t, doc.Fees)
	assert.Nil(t, doc.Fees.Admission)
	assert.Nil(t, doc.Fees.Publication)
	require.NotNil(t, doc.PaymentURL)
	assert.Equal(t, "https://relay.example/join", *doc.PaymentURL)

	b := encode(t, doc)
	assert.JSONEq(t, `{}`, gjson.GetBytes(b, "fees").Raw)
}

func TestPaymentURL(t *testing.T) {
	tests := []struct {
		relayURL string
		want     *string
	}{
		{relayURL: "wss://relay.example/", want: ptr("https://relay.example/join")},
		{relayURL: "wss://relay.example", want: ptr("https://relay.example/join")},
		{relayURL: "ws://localhost:8080", want: ptr("http://localhost:8080/join")},
		{relayURL: "wss://relay.example/nostr/", want: ptr("https://relay.example/nostr/join")},
		{relayURL: "wss://wss.example/ws/", want: ptr("https://wss.example/ws/join")},
		{relayURL: "WSS://relay.example/", want: ptr("https://relay.example/join")},
		{relayURL: "wss://relay.example/?token=x#frag", want: ptr("https://relay.example/join")},
		{relayURL: "https://relay.example/"},
		{relayURL: "relay.example"},
		{relayURL: "wss://"},
		{relayURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.relayURL, func(t *testing.T) {
			cf := &config.Configs{}
			cf.Info.RelayURL = tt.relayURL
			cf.PayToRelay.Enabled = true

			doc := NewService("").Build(cf)
			assert.Equal(t, tt.want, doc.PaymentURL)
		})
	}
}

func TestIdentity(t *testing.T) {
	cf := &config.Configs{}
	cf.Info.RelayURL = "wss://relay.example/"
	cf.Info.Name = "reraw"
	cf.Info.Description = "a relay"
	cf.Info.Pubkey = testPubkey
	cf.Info.Contact = "mailto:admin@relay.example"
	cf.Info.RelayIcon = "https://relay.example/icon.png"

	doc := NewService("1.2.3").Build(cf)
	assert.Equal(t, ptr("wss://relay.example/"), doc.ID)
	assert.Equal(t, ptr("reraw"), doc.Name)
	assert.Equal(t, ptr("a relay"), doc.Description)
	assert.Equal(t, ptr(testPubkey), doc.Pubkey)
	assert.Equal(t, ptr("mailto:admin@relay.example"), doc.Contact)
	assert.Equal(t, ptr("https://relay.example/icon.png"), doc.Icon)
	assert.Equal(t, ptr(Software), doc.Software)
	assert.Equal(t, ptr("1.2.3"), doc.Version)
}

func TestEmptyIdentityOmitted(t *testing.T) {
	doc := NewService("").Build(&config.Configs{})
	assert.Nil(t, doc.Version)

	b := encode(t, doc)
	for _, field := range []string{"id", "name", "description", "pubkey", "contact", "icon", "version", "payment_url", "fees"} {
		assert.False(t, gjson.GetBytes(b, field).Exists(), field)
	}
	assert.NotContains(t, string(b), "null")
	assert.Equal(t, Software, gjson.GetBytes(b, "software").String())
	assert.True(t, gjson.GetBytes(b, "supported_nips").IsArray())
}

func TestNilConfigs(t *testing.T) {
	doc := NewService("").Build(nil)
	require.NotNil(t, doc.Limitation)
	assert.False(t, *doc.Limitation.PaymentRequired)
	assert.False(t, *doc.Limitation.RestrictedWrites)
	assert.Nil(t, doc.Fees)
}

func TestBuildIdempotent(t *testing.T) {
	cf := &config.Configs{}
	cf.Info.RelayURL = "wss://relay.example/"
	cf.Info.Name = "reraw"
	cf.Authorization.Nip42Auth = true
	cf.PayToRelay.Enabled = true
	cf.PayToRelay.AdmissionCost = 21
	cf.PayToRelay.CostPerEvent = 1
	cf.PayToRelayByCashu.Enabled = true
	cf.PayToRelayByCashu.CostPerEvent = 3
	cf.PayToRelayByCashu.Unit = "sat"
	cf.PayToRelayByCashu.Mints = []string{"https://mint.example"}
	cf.PayToRelayByCashu.Kinds = []uint64{1}

	s := NewService("1.0.0")
	first := s.Build(cf)
	second := s.Build(cf)
	assert.Equal(t, first, second)
	assert.Equal(t, encode(t, first), encode(t, second))
}

func TestBuildDoesNotAlias(t *testing.T) {
	cf := &config.Configs{}
	cf.PayToRelayByCashu.Enabled = true
	cf.PayToRelayByCashu.Unit = "sat"
	cf.PayToRelayByCashu.Mints = []string{"https://mint.example"}
	cf.PayToRelayByCashu.Kinds = []uint64{1}

	doc := NewService("").Build(cf)
	fee := doc.Fees.Publication[0]
	fee.Method.Cashu.Mints[0] = "https://changed.example"
	fee.Kinds[0] = 7

	assert.Equal(t, []string{"https://mint.example"}, cf.PayToRelayByCashu.Mints)
	assert.Equal(t, []uint64{1}, cf.PayToRelayByCashu.Kinds)
}

func ptr(s string) *string {
	return &s
}
