package relay

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-info/core/metrics"
	"github.com/saveblush/reraw-info/core/utils/logger"
)

const noticeNoUpstream = "error: this endpoint only serves relay information"

// handleWebsocket hand the upgrade to the upstream relay,
// without one the client gets a NOTICE and the connection is closed
func (rl *Relay) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	rl.metrics.Requests.WithLabelValues(metrics.RequestWebsocket).Inc()

	if rl.proxy != nil {
		rl.proxy.ServeHTTP(w, r)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Log.Errorf("ws upgrade error: %s", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), rl.WriteTimeout)
	defer cancel()

	err = wsjson.Write(ctx, conn, nostr.NoticeEnvelope(noticeNoUpstream))
	if err != nil {
		logger.Log.Warnf("write notice to %s error: %s", rl.clientIP(r), err)
		return
	}

	conn.Close(websocket.StatusPolicyViolation, "no upstream relay")
}
