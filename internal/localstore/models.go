// Package localstore is the durable local home of the canonical record graph:
// patients, their dispensation history, and publish status rows.
package localstore

import (
	"time"

	"github.com/medibook/share-engine/internal/graph"
	"github.com/medibook/share-engine/internal/schedule"
)

// Patient is the locally-owned root entity of a record graph.
type Patient struct {
	ID                  string
	GivenName           string
	FamilyName          string
	DateOfBirth         *time.Time
	MedicalRecordNumber string
	Allergies           string

	// Notes is local-only and never leaves the device; it is not on the
	// remote schema's allow-list.
	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dispensation is one dispensed-medication event in a patient's history.
type Dispensation struct {
	ID             string
	PatientID      string
	MedicationName string
	Strength       string
	Quantity       int
	Frequency      schedule.FrequencyPolicy
	Directions     string
	PrescriberName string
	PharmacyName   string
	DispensedAt    time.Time

	// NextDueAt is the computed next-dose-due timestamp, persisted before
	// label rendering reads it.
	NextDueAt *time.Time

	CreatedAt time.Time
}

// ToLocalEntity converts a patient into the graph builder's input shape.
func (p *Patient) ToLocalEntity() graph.LocalEntity {
	fields := map[string]any{
		"givenName":  p.GivenName,
		"familyName": p.FamilyName,
	}
	if p.DateOfBirth != nil {
		fields["dateOfBirth"] = p.DateOfBirth.Format("2006-01-02")
	}
	if p.MedicalRecordNumber != "" {
		fields["medicalRecordNumber"] = p.MedicalRecordNumber
	}
	if p.Allergies != "" {
		fields["allergies"] = p.Allergies
	}
	// Notes is intentionally absent: the builder's allow-list would strip
	// it anyway, but local-only data should not even reach the builder.

	return graph.LocalEntity{
		Key:    "patient/" + p.ID,
		Type:   graph.TypePatient,
		Fields: fields,
	}
}

// ToLocalEntity converts a dispensation into the graph builder's input shape.
func (d *Dispensation) ToLocalEntity() graph.LocalEntity {
	fields := map[string]any{
		"medicationName": d.MedicationName,
		"quantity":       d.Quantity,
		"frequency":      string(d.Frequency),
		"dispensedAt":    d.DispensedAt.Format(time.RFC3339),
	}
	if d.Strength != "" {
		fields["strength"] = d.Strength
	}
	if d.Directions != "" {
		fields["directions"] = d.Directions
	}
	if d.PrescriberName != "" {
		fields["prescriberName"] = d.PrescriberName
	}
	if d.PharmacyName != "" {
		fields["pharmacyName"] = d.PharmacyName
	}
	if d.NextDueAt != nil {
		fields["nextDueAt"] = d.NextDueAt.Format(time.RFC3339)
	}

	return graph.LocalEntity{
		Key:    "dispense/" + d.ID,
		Type:   graph.TypeDispense,
		Fields: fields,
	}
}
