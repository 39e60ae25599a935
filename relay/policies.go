package relay

import (
	"net/http"

	"github.com/saveblush/reraw-info/core/generic"
	"github.com/saveblush/reraw-info/core/utils"
	"github.com/saveblush/reraw-info/core/utils/logger"
)

// rejectEmptyHeaderUserAgent reject empty header user-agent
func (rl *Relay) rejectEmptyHeaderUserAgent(r *http.Request) (bool, int) {
	if generic.IsEmpty(utils.GetUserAgent(r)) {
		return true, http.StatusBadRequest
	}

	return false, 0
}

// rejectRateLimit reject ip over its request rate
func (rl *Relay) rejectRateLimit(r *http.Request) (bool, int) {
	ip := rl.clientIP(r)
	if !rl.limiter.Allow(ip) {
		logger.Log.Warnf("rate limited: %s", ip)
		return true, http.StatusTooManyRequests
	}

	return false, 0
}
