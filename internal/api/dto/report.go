package dto

import "delivery-times-service/internal/domain"

type SubmitReportRequest struct {
	Postcode     string  `json:"postcode"`
	DeliveryDate string  `json:"deliveryDate"`
	DeliveryTime string  `json:"deliveryTime"`
	DeliveryType string  `json:"deliveryType"`
	Note         *string `json:"note"`
}

// ToSubmission maps the request body onto the domain input.
// A missing delivery type is treated as letters.
func (r SubmitReportRequest) ToSubmission() domain.ReportSubmission {
	deliveryType := r.DeliveryType
	if deliveryType == "" {
		deliveryType = string(domain.DeliveryLetters)
	}
	return domain.ReportSubmission{
		Postcode:     r.Postcode,
		DeliveryDate: r.DeliveryDate,
		DeliveryTime: r.DeliveryTime,
		DeliveryType: deliveryType,
		Note:         r.Note,
	}
}

type SubmitReportResponse struct {
	NormalisedPostcode string `json:"normalisedPostcode"`
}
