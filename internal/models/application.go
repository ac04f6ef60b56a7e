// internal/models/application.go
package models

import (
	"strings"
	"time"

	"msme-lender-platform/internal/common/numeric"
)

type Documents struct {
	CommercialRegistration bool `json:"commercialRegistration" bson:"commercialRegistration"`
	TradeLicense           bool `json:"tradeLicense" bson:"tradeLicense"`
	TaxCertificate         bool `json:"taxCertificate" bson:"taxCertificate"`
	FinancialStatements    bool `json:"financialStatements" bson:"financialStatements"`
	BankStatement          bool `json:"bankStatement" bson:"bankStatement"`
	AuditedReport          bool `json:"auditedReport" bson:"auditedReport"`
}

// QualifyingCount counts the four documents that drive the document tier.
// Bank statements and audited reports are scored separately.
func (d Documents) QualifyingCount() int {
	count := 0
	for _, present := range []bool{d.CommercialRegistration, d.TradeLicense, d.TaxCertificate, d.FinancialStatements} {
		if present {
			count++
		}
	}
	return count
}

type AssignedLender struct {
	LenderID    string  `json:"lenderId" bson:"lenderId"`
	LenderName  string  `json:"lenderName" bson:"lenderName"`
	CreditLimit float64 `json:"creditLimit" bson:"creditLimit"`
	Terms       string  `json:"terms" bson:"terms"`
}

type Application struct {
	ID                 string                 `json:"id" bson:"_id"`
	CompanyName        string                 `json:"companyName" bson:"companyName" validate:"required"`
	ContactPerson      string                 `json:"contactPerson" bson:"contactPerson" validate:"required"`
	Email              string                 `json:"email" bson:"email" validate:"required,email"`
	Phone              string                 `json:"phone,omitempty" bson:"phone,omitempty"`
	Industry           string                 `json:"industry,omitempty" bson:"industry,omitempty"`
	Region             string                 `json:"region,omitempty" bson:"region,omitempty"`
	CompanyAge         float64                `json:"companyAge,omitempty" bson:"companyAge,omitempty"`
	AnnualRevenue      float64                `json:"annualRevenue,omitempty" bson:"annualRevenue,omitempty"`
	InvoiceAmount      float64                `json:"invoiceAmount,omitempty" bson:"invoiceAmount,omitempty"`
	MonthlyTransaction float64                `json:"monthlyTransaction" bson:"monthlyTransaction" validate:"gte=0"`
	CreditScore        int                    `json:"creditScore" bson:"creditScore" validate:"gte=0"`
	Documents          Documents              `json:"documents" bson:"documents"`
	UploadedFiles      map[string]interface{} `json:"uploadedFiles" bson:"uploadedFiles"`
	Status             Status                 `json:"status" bson:"status" validate:"omitempty,status"`
	AssignedLender     *AssignedLender        `json:"assignedLender,omitempty" bson:"assignedLender,omitempty"`
	CreatedAt          time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// ApplicationInput is the loosely typed request body. Numeric fields and
// document flags arrive as numbers, numeric strings or booleans depending
// on the client.
type ApplicationInput struct {
	ID                 string                 `json:"id,omitempty"`
	CompanyName        string                 `json:"companyName"`
	ContactPerson      string                 `json:"contactPerson"`
	Email              string                 `json:"email"`
	Phone              string                 `json:"phone"`
	Industry           string                 `json:"industry"`
	Region             string                 `json:"region"`
	CompanyAge         interface{}            `json:"companyAge"`
	AnnualRevenue      interface{}            `json:"annualRevenue"`
	InvoiceAmount      interface{}            `json:"invoiceAmount"`
	MonthlyTransaction interface{}            `json:"monthlyTransaction"`
	CreditScore        interface{}            `json:"creditScore"`
	Documents          map[string]interface{} `json:"documents"`
	UploadedFiles      map[string]interface{} `json:"uploadedFiles"`
	Status             Status                 `json:"status"`
	AssignedLender     *AssignedLender        `json:"assignedLender"`
}

// ToApplication normalises the input. Values that cannot be parsed become
// zero, which the scoring engine replaces with its defaults.
func (in ApplicationInput) ToApplication() Application {
	app := Application{
		ID:                 in.ID,
		CompanyName:        strings.TrimSpace(in.CompanyName),
		ContactPerson:      strings.TrimSpace(in.ContactPerson),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              strings.TrimSpace(in.Phone),
		Industry:           strings.TrimSpace(in.Industry),
		Region:             strings.TrimSpace(in.Region),
		CompanyAge:         numeric.FloatOr(in.CompanyAge, 0),
		AnnualRevenue:      numeric.FloatOr(in.AnnualRevenue, 0),
		InvoiceAmount:      numeric.FloatOr(in.InvoiceAmount, 0),
		MonthlyTransaction: numeric.FloatOr(in.MonthlyTransaction, 0),
		CreditScore:        numeric.IntOr(in.CreditScore, 0),
		UploadedFiles:      in.UploadedFiles,
		Status:             in.Status,
		AssignedLender:     in.AssignedLender,
	}
	if in.Documents != nil {
		app.Documents = Documents{
			CommercialRegistration: numeric.Truthy(in.Documents["commercialRegistration"]),
			TradeLicense:           numeric.Truthy(in.Documents["tradeLicense"]),
			TaxCertificate:         numeric.Truthy(in.Documents["taxCertificate"]),
			FinancialStatements:    numeric.Truthy(in.Documents["financialStatements"]),
			BankStatement:          numeric.Truthy(in.Documents["bankStatement"]),
			AuditedReport:          numeric.Truthy(in.Documents["auditedReport"]),
		}
	}
	if app.UploadedFiles == nil {
		app.UploadedFiles = map[string]interface{}{}
	}
	return app
}
