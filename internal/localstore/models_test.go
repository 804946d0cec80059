package localstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medibook/share-engine/internal/graph"
	"github.com/medibook/share-engine/internal/schedule"
)

func TestPatientToLocalEntity(t *testing.T) {
	t.Parallel()

	dob := time.Date(1954, 6, 12, 0, 0, 0, 0, time.UTC)
	p := &Patient{
		ID:                  "p-1",
		GivenName:           "Ada",
		FamilyName:          "Lovelace",
		DateOfBirth:         &dob,
		MedicalRecordNumber: "MRN-42",
		Allergies:           "penicillin",
		Notes:               "prefers morning appointments",
	}

	entity := p.ToLocalEntity()
	assert.Equal(t, "patient/p-1", entity.Key)
	assert.Equal(t, graph.TypePatient, entity.Type)
	assert.Equal(t, map[string]any{
		"givenName":           "Ada",
		"familyName":          "Lovelace",
		"dateOfBirth":         "1954-06-12",
		"medicalRecordNumber": "MRN-42",
		"allergies":           "penicillin",
	}, entity.Fields)
	assert.NotContains(t, entity.Fields, "notes")
}

func TestPatientToLocalEntityOmitsEmptyOptionals(t *testing.T) {
	t.Parallel()

	p := &Patient{ID: "p-2", GivenName: "Grace", FamilyName: "Hopper"}

	entity := p.ToLocalEntity()
	assert.Equal(t, map[string]any{
		"givenName":  "Grace",
		"familyName": "Hopper",
	}, entity.Fields)
}

func TestDispensationToLocalEntity(t *testing.T) {
	t.Parallel()

	dispensed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	nextDue := dispensed.AddDate(0, 0, 30)
	d := &Dispensation{
		ID:             "d-1",
		PatientID:      "p-1",
		MedicationName: "Lisinopril",
		Strength:       "10mg",
		Quantity:       30,
		Frequency:      schedule.Daily,
		Directions:     "take one tablet daily",
		PrescriberName: "Dr. Wu",
		PharmacyName:   "Corner Pharmacy",
		DispensedAt:    dispensed,
		NextDueAt:      &nextDue,
	}

	entity := d.ToLocalEntity()
	assert.Equal(t, "dispense/d-1", entity.Key)
	assert.Equal(t, graph.TypeDispense, entity.Type)
	assert.Equal(t, map[string]any{
		"medicationName": "Lisinopril",
		"strength":       "10mg",
		"quantity":       30,
		"frequency":      "daily",
		"directions":     "take one tablet daily",
		"prescriberName": "Dr. Wu",
		"pharmacyName":   "Corner Pharmacy",
		"dispensedAt":    "2026-03-01T09:00:00Z",
		"nextDueAt":      "2026-03-31T09:00:00Z",
	}, entity.Fields)
}

func TestDispensationToLocalEntityMinimal(t *testing.T) {
	t.Parallel()

	d := &Dispensation{
		ID:             "d-2",
		MedicationName: "Metformin",
		Quantity:       60,
		Frequency:      schedule.TwiceDaily,
		DispensedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	entity := d.ToLocalEntity()
	assert.Equal(t, map[string]any{
		"medicationName": "Metformin",
		"quantity":       60,
		"frequency":      "twice-daily",
		"dispensedAt":    "2026-03-01T09:00:00Z",
	}, entity.Fields)
}
