package worker

import (
	"github.com/spec-kit/ticketdesk/internal/service"
)

// StartHistoryWorker registers the audit trail handlers.
func StartHistoryWorker(historyService *service.HistoryService) {
	if historyService == nil {
		return
	}
	historyService.RegisterHandlers()
}
