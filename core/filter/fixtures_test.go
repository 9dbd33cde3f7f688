package filter

import (
	"time"

	"github.com/google/uuid"

	"github.com/MBrOssss/RESTApi/core/schema"
)

type doctor struct {
	Id                 int32
	Name               string
	AutocompleteSearch string
	IsDeleted          bool
	Rating             *float64
	ClinicId           uuid.UUID
	Approved           bool
	LicenseFrom        time.Time
	LicenseTo          time.Time
	LastVisit          *time.Time
}

var doctorDescriptor = schema.MustDescriptor("Doctor",
	schema.Field[doctor]{Name: "Id", Type: schema.FieldTypeInt32, Get: func(d doctor) any { return d.Id }},
	schema.Field[doctor]{Name: "Name", Type: schema.FieldTypeString, Get: func(d doctor) any { return d.Name }},
	schema.Field[doctor]{Name: "AutocompleteSearch", Type: schema.FieldTypeString, Get: func(d doctor) any { return d.AutocompleteSearch }},
	schema.Field[doctor]{Name: "IsDeleted", Type: schema.FieldTypeBoolean, Get: func(d doctor) any { return d.IsDeleted }},
	schema.Field[doctor]{Name: "Rating", Type: schema.FieldTypeFloat64, Nullable: true, Get: func(d doctor) any { return d.Rating }},
	schema.Field[doctor]{Name: "ClinicId", Type: schema.FieldTypeUUID, Get: func(d doctor) any { return d.ClinicId }},
	schema.Field[doctor]{Name: "Approved", Type: schema.FieldTypeBoolean, Get: func(d doctor) any { return d.Approved }},
	schema.Field[doctor]{Name: "LicenseFrom", Type: schema.FieldTypeDateTime, Get: func(d doctor) any { return d.LicenseFrom }},
	schema.Field[doctor]{Name: "LicenseTo", Type: schema.FieldTypeDateTime, Get: func(d doctor) any { return d.LicenseTo }},
	schema.Field[doctor]{Name: "LastVisit", Type: schema.FieldTypeDateTime, Nullable: true, Get: func(d doctor) any { return d.LastVisit }},
)

var (
	clinicA  = uuid.MustParse("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d")
	clinicB  = uuid.MustParse("1b2c3d4e-5f60-4718-8293-a4b5c6d7e8f9")
	fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
)

func float64Ptr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func day(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

// doctors returns five active records and one soft-deleted record.
func doctors() []doctor {
	return []doctor{
		{Id: 1, Name: "Anna Nowak", AutocompleteSearch: "anna nowak cardiology", Rating: float64Ptr(4.5), ClinicId: clinicA, Approved: true,
			LicenseFrom: fixedNow.AddDate(-1, 0, 0), LicenseTo: fixedNow.AddDate(1, 0, 0), LastVisit: timePtr(day("2024-05-01T00:00:00Z"))},
		{Id: 2, Name: "Jan Kowalski", AutocompleteSearch: "jan kowalski dermatology", ClinicId: clinicB,
			LicenseFrom: fixedNow.AddDate(-2, 0, 0), LicenseTo: fixedNow.AddDate(0, -1, 0), LastVisit: timePtr(day("2024-05-01T23:59:59.999Z"))},
		{Id: 3, Name: "Ewa Zielinska", AutocompleteSearch: "ewa zielinska cardiology", Rating: float64Ptr(3), ClinicId: clinicA, Approved: true,
			LicenseFrom: fixedNow.AddDate(0, 1, 0), LicenseTo: fixedNow.AddDate(2, 0, 0), LastVisit: timePtr(day("2024-05-02T00:00:00Z"))},
		{Id: 4, Name: "Piotr Wisniewski", AutocompleteSearch: "piotr wisniewski surgery", ClinicId: clinicB,
			LicenseFrom: fixedNow.AddDate(0, -6, 0), LicenseTo: fixedNow.AddDate(0, 6, 0)},
		{Id: 5, Name: "Maria Lewandowska", AutocompleteSearch: "maria lewandowska pediatrics", Rating: float64Ptr(5), ClinicId: clinicA, Approved: true,
			LicenseFrom: fixedNow.AddDate(-3, 0, 0), LicenseTo: fixedNow.AddDate(-1, 0, 0), LastVisit: timePtr(day("2024-04-30T23:59:59Z"))},
		{Id: 6, Name: "Deleted Doctor", AutocompleteSearch: "deleted doctor cardiology", IsDeleted: true, ClinicId: clinicA,
			LicenseFrom: fixedNow.AddDate(-1, 0, 0), LicenseTo: fixedNow.AddDate(1, 0, 0)},
	}
}
