package worker

import (
	"github.com/spec-kit/emr-service/internal/service"
)

// StartLoginAuditWorker registers the login audit handlers.
func StartLoginAuditWorker(auditService *service.LoginAuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
