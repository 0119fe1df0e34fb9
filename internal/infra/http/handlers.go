package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"carverify/internal/domain"
	"carverify/internal/infra/ppsr/b2g"
	"carverify/internal/usecase"

	"github.com/gin-gonic/gin"
)

const routeReports = "reports"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
	Env    string `json:"env"`
	Mocks  bool   `json:"mocks"`
}

type reportRequest struct {
	VehicleIdentifier *domain.VehicleIdentifier `json:"vehicleIdentifier"`
	ReportType        string                    `json:"reportType"`
	UserID            string                    `json:"userId"`
	OrderID           string                    `json:"orderId"`
}

type connectionResponse struct {
	Reachable bool `json:"reachable"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleGenerateReport(c *gin.Context) {
	if !s.enforceRateLimit(c, routeReports) {
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.VehicleIdentifier == nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTIFIER", "vehicleIdentifier is required")
		return
	}
	reportType, err := domain.ParseReportType(req.ReportType)
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := s.reports.GenerateReport(c.Request.Context(), usecase.ReportRequest{
		VehicleIdentifier: *req.VehicleIdentifier,
		ReportType:        reportType,
		UserID:            strings.TrimSpace(req.UserID),
		OrderID:           strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (s *Server) handlePPSRConnection(c *gin.Context) {
	if s.ppsrAdmin == nil {
		c.JSON(http.StatusOK, connectionResponse{Reachable: false})
		return
	}
	c.JSON(http.StatusOK, connectionResponse{Reachable: s.ppsrAdmin.TestConnection(c.Request.Context())})
}

func (s *Server) handlePPSRPassword(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.ppsrAdmin == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "PPSR_NOT_CONFIGURED", "ppsr b2g integration is not configured")
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_PASSWORD", "password is required")
		return
	}
	if err := s.ppsrAdmin.UpdatePassword(c.Request.Context(), req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status, code, message := http.StatusInternalServerError, "INTERNAL", "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier):
		status, code, message = http.StatusBadRequest, "INVALID_IDENTIFIER", err.Error()
	case errors.Is(err, domain.ErrInvalidReportType):
		status, code, message = http.StatusBadRequest, "INVALID_REPORT_TYPE", err.Error()
	case errors.Is(err, domain.ErrNotConfigured):
		status, code, message = http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED", "vehicle lookup is not available"
	case errors.Is(err, domain.ErrReportGeneration):
		status, code, message = http.StatusBadGateway, "VEHICLE_LOOKUP_FAILED", "vehicle lookup failed, please try again"
	case errors.Is(err, b2g.ErrCredentialRejected):
		status, code, message = http.StatusUnprocessableEntity, "CREDENTIAL_REJECTED", "new credential failed verification; previous credential kept"
	}
	writeErrorCode(c, status, code, message)
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
