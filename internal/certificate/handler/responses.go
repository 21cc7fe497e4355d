package handler

import (
	"time"

	"covault/internal/certificate/models"
	id "covault/pkg/domain"
)

// publicCertificateResponse is the tokenized view. It omits the owning
// account and the share token itself; the token holder already has the
// token and has no business learning who owns the record.
type publicCertificateResponse struct {
	ID                id.CertificateID `json:"id"`
	CertificateNumber string           `json:"certificate_number"`
	InsuredParty      string           `json:"insured_party"`
	InsuranceCompany  string           `json:"insurance_company"`
	EffectiveDate     time.Time        `json:"effective_date"`
	ExpirationDate    time.Time        `json:"expiration_date"`
	Status            models.Status    `json:"status"`
	ViewedAt          *time.Time       `json:"viewed_at,omitempty"`
	AcceptedAt        *time.Time       `json:"accepted_at,omitempty"`
}

func toPublicResponse(cert *models.Certificate) publicCertificateResponse {
	return publicCertificateResponse{
		ID:                cert.ID,
		CertificateNumber: cert.CertificateNumber,
		InsuredParty:      cert.InsuredParty,
		InsuranceCompany:  cert.InsuranceCompany,
		EffectiveDate:     cert.EffectiveDate,
		ExpirationDate:    cert.ExpirationDate,
		Status:            cert.Status,
		ViewedAt:          cert.ViewedAt,
		AcceptedAt:        cert.AcceptedAt,
	}
}

type listCertificatesResponse struct {
	Certificates []*models.Certificate `json:"certificates"`
}
