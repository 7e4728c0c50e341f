package inbound

import (
	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/verification/usecase"
)

// HTTPEndpoint exposes HTTP handlers for issuing and verifying one-time passes.
type HTTPEndpoint struct {
	uc uc
}

// Generate issues a new one-time pass for an address.
// @Summary Issue verification code
// @Description Creates a one-time pass for an email or phone address and publishes it for delivery. The pass itself is not returned.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Issue payload"
// @Success 201 {object} router.successResponse{data=GenerateResponse} "Issued code"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Requested too frequently or hourly limit reached"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/codes [post]
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	var req GenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	code, err := h.uc.Generate(r.Context(), usecase.GenerateInput{
		Address: req.Address,
		Data:    req.Data,
	})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		VerificationCode: code.VerificationCode,
		Address:          code.Address,
		AddressKind:      code.AddressKind.String(),
		CreatedAt:        code.CreatedAt,
		ExpiresAt:        h.uc.ExpiresAt(*code),
	}, nil
}

// Verify checks a pass against an issued verification code.
// @Summary Verify code
// @Description Validates the pass for a verification code. Wrong passes count against the attempt limit.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Validated code"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Incorrect code"
// @Failure 404 {object} router.errorResponse "Code not found or expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/codes/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	code, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		VerificationCode: req.VerificationCode,
		Pass:             req.Pass,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		VerificationCode: code.VerificationCode,
		Address:          code.Address,
		VerificationData: code.VerificationData,
		Attempts:         code.Attempts,
	}, nil
}
