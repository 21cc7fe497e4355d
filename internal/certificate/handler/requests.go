package handler

import (
	"strings"
	"time"

	"covault/internal/certificate/service"
)

type createCertificateRequest struct {
	CertificateNumber string    `json:"certificate_number"`
	InsuredParty      string    `json:"insured_party"`
	InsuranceCompany  string    `json:"insurance_company"`
	EffectiveDate     time.Time `json:"effective_date"`
	ExpirationDate    time.Time `json:"expiration_date"`
}

func (r *createCertificateRequest) Normalize() {
	r.CertificateNumber = strings.TrimSpace(r.CertificateNumber)
	r.InsuredParty = strings.TrimSpace(r.InsuredParty)
	r.InsuranceCompany = strings.TrimSpace(r.InsuranceCompany)
}

func (r *createCertificateRequest) toService() service.CreateRequest {
	return service.CreateRequest{
		CertificateNumber: r.CertificateNumber,
		InsuredParty:      r.InsuredParty,
		InsuranceCompany:  r.InsuranceCompany,
		EffectiveDate:     r.EffectiveDate,
		ExpirationDate:    r.ExpirationDate,
	}
}

type updateCertificateRequest struct {
	CertificateNumber *string    `json:"certificate_number"`
	InsuredParty      *string    `json:"insured_party"`
	InsuranceCompany  *string    `json:"insurance_company"`
	EffectiveDate     *time.Time `json:"effective_date"`
	ExpirationDate    *time.Time `json:"expiration_date"`
}

func (r *updateCertificateRequest) toService() service.UpdateRequest {
	return service.UpdateRequest{
		CertificateNumber: r.CertificateNumber,
		InsuredParty:      r.InsuredParty,
		InsuranceCompany:  r.InsuranceCompany,
		EffectiveDate:     r.EffectiveDate,
		ExpirationDate:    r.ExpirationDate,
	}
}
