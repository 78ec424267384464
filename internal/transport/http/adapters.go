package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	appsmodels "kreditomat/internal/applications/models"
	appsstore "kreditomat/internal/applications/store"
	"kreditomat/internal/auth/device"
	"kreditomat/internal/detection"
	"kreditomat/internal/platform/middleware"
	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
	"kreditomat/pkg/httputil"
)

// deviceResolver turns an incoming request into the device context stored on
// applications. The region comes from the static IP prefix table.
type deviceResolver struct {
	devices *device.Service
}

func (d *deviceResolver) Resolve(r *http.Request) appsmodels.DeviceContext {
	info := d.devices.Describe(r)
	return appsmodels.DeviceContext{
		Fingerprint: info.Fingerprint,
		IPAddress:   info.IPAddress,
		UserAgent:   info.UserAgent,
		DeviceType:  info.DeviceType,
		Region:      detection.RegionByIP(info.IPAddress),
	}
}

// fraudGuard rejects requests the detector scores as blockable. Suspicious
// but sub-threshold traffic is logged and let through.
func fraudGuard(detector *detection.Detector, devices *device.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := devices.ClientIP(r)
			assessment := detector.Assess(r.UserAgent(), ip)

			if assessment.ShouldBlock {
				logger.WarnContext(r.Context(), "request blocked",
					"request_id", middleware.GetRequestID(r.Context()),
					"ip", ip,
					"score", assessment.Score,
					"factors", assessment.Factors,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "request rejected"))
				return
			}
			if assessment.Suspicious {
				logger.InfoContext(r.Context(), "suspicious request",
					"request_id", middleware.GetRequestID(r.Context()),
					"ip", ip,
					"score", assessment.Score,
					"factors", assessment.Factors,
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoanActivity adapts the applications store for the referral program:
// referrer rewards vest once the referred user has an approved application.
type LoanActivity struct {
	store appsstore.Store
}

func NewLoanActivity(store appsstore.Store) *LoanActivity {
	return &LoanActivity{store: store}
}

func (a *LoanActivity) HasApproved(ctx context.Context, userID id.UserID) (bool, error) {
	status := appsmodels.StatusApproved
	apps, err := a.store.ListByUser(ctx, userID, &status)
	if err != nil {
		return false, err
	}
	return len(apps) > 0, nil
}
