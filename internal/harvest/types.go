package harvest

import (
	"time"

	"github.com/a3tai/bizharvest/internal/analysis"
	"github.com/a3tai/bizharvest/internal/fetch"
	"github.com/a3tai/bizharvest/internal/links"
	"github.com/a3tai/bizharvest/internal/registry"
)

// URLOutcome is the result of processing one candidate URL
type URLOutcome struct {
	URL         string           `json:"url" yaml:"url"`
	Status      fetch.Status     `json:"status" yaml:"status"`
	Reason      string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	AcceptedBy  string           `json:"accepted_by,omitempty" yaml:"accepted_by,omitempty"`
	TLSRetry    bool             `json:"tls_retry,omitempty" yaml:"tls_retry,omitempty"`
	FileSize    int              `json:"file_size,omitempty" yaml:"file_size,omitempty"`
	PageCount   int              `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	Links       *links.Report    `json:"links,omitempty" yaml:"links,omitempty"`
	Analysis    *analysis.Report `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	ProcessedAt time.Time        `json:"processed_at" yaml:"processed_at"`
}

// BusinessRecord is one detected registry document flattened into a row
type BusinessRecord struct {
	NUIS             string    `json:"nuis,omitempty" yaml:"nuis,omitempty"`
	BusinessName     string    `json:"business_name,omitempty" yaml:"business_name,omitempty"`
	LegalForm        string    `json:"legal_form,omitempty" yaml:"legal_form,omitempty"`
	RegistrationDate string    `json:"registration_date,omitempty" yaml:"registration_date,omitempty"`
	ActivityField    string    `json:"activity_field,omitempty" yaml:"activity_field,omitempty"`
	BusinessAddress  string    `json:"business_address,omitempty" yaml:"business_address,omitempty"`
	Email            string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone            string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Status           string    `json:"status,omitempty" yaml:"status,omitempty"`
	DateGenerated    string    `json:"date_generated,omitempty" yaml:"date_generated,omitempty"`
	SourceURL        string    `json:"source_url" yaml:"source_url"`
	FileSize         int       `json:"file_size" yaml:"file_size"`
	PageCount        int       `json:"page_count" yaml:"page_count"`
	ProcessedAt      time.Time `json:"processed_at" yaml:"processed_at"`
}

// Columns returns the record as label/value pairs in schema order
func (b BusinessRecord) Columns() [][2]string {
	return [][2]string{
		{registry.FieldNUIS, b.NUIS},
		{registry.FieldBusinessName, b.BusinessName},
		{registry.FieldLegalForm, b.LegalForm},
		{registry.FieldRegistrationDate, b.RegistrationDate},
		{registry.FieldActivityField, b.ActivityField},
		{registry.FieldBusinessAddress, b.BusinessAddress},
		{registry.FieldEmail, b.Email},
		{registry.FieldPhone, b.Phone},
		{registry.FieldStatus, b.Status},
		{registry.FieldDateGenerated, b.DateGenerated},
	}
}

func newBusinessRecord(o URLOutcome) BusinessRecord {
	r := *o.Analysis.Registry
	return BusinessRecord{
		NUIS:             r.Get(registry.FieldNUIS),
		BusinessName:     r.Get(registry.FieldBusinessName),
		LegalForm:        r.Get(registry.FieldLegalForm),
		RegistrationDate: r.Get(registry.FieldRegistrationDate),
		ActivityField:    r.Get(registry.FieldActivityField),
		BusinessAddress:  r.Get(registry.FieldBusinessAddress),
		Email:            r.Get(registry.FieldEmail),
		Phone:            r.Get(registry.FieldPhone),
		Status:           r.Get(registry.FieldStatus),
		DateGenerated:    r.Get(registry.FieldDateGenerated),
		SourceURL:        o.URL,
		FileSize:         o.FileSize,
		PageCount:        o.PageCount,
		ProcessedAt:      o.ProcessedAt,
	}
}

// Counts summarises the outcomes of a run
type Counts struct {
	Candidates int `json:"candidates" yaml:"candidates"`
	Processed  int `json:"processed" yaml:"processed"`
	Successful int `json:"successful" yaml:"successful"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Failed     int `json:"failed" yaml:"failed"`
	Records    int `json:"business_records" yaml:"business_records"`
}

// Result is the output of one harvest run
type Result struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
	Strict     bool             `json:"strict_mode" yaml:"strict_mode"`
	Counts     Counts           `json:"counts" yaml:"counts"`
	Links      *links.Report    `json:"links,omitempty" yaml:"links,omitempty"`
	Outcomes   []URLOutcome     `json:"outcomes" yaml:"outcomes"`
	Records    []BusinessRecord `json:"business_records" yaml:"business_records"`
}

func (r *Result) tally() {
	r.Counts.Processed = len(r.Outcomes)
	r.Counts.Records = len(r.Records)
	for _, o := range r.Outcomes {
		switch o.Status {
		case fetch.StatusSuccess:
			r.Counts.Successful++
		case fetch.StatusSkipped:
			r.Counts.Skipped++
		default:
			r.Counts.Failed++
		}
	}
}
