package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/MBrOssss/RESTApi/core/schema"
)

var (
	clinicA  = uuid.MustParse("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d")
	clinicB  = uuid.MustParse("1b2c3d4e-5f60-4718-8293-a4b5c6d7e8f9")
	fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
)

func doctorSchema() *schema.SchemaDefinition {
	return &schema.SchemaDefinition{
		Name: "doctors",
		Fields: map[string]*schema.FieldDefinition{
			"Id":                 {Name: "Id", Type: schema.FieldTypeInt32},
			"Name":               {Name: "Name", Type: schema.FieldTypeString},
			"AutocompleteSearch": {Name: "AutocompleteSearch", Type: schema.FieldTypeString},
			"IsDeleted":          {Name: "IsDeleted", Type: schema.FieldTypeBoolean},
			"Rating":             {Name: "Rating", Type: schema.FieldTypeFloat64, Nullable: true},
			"ClinicId":           {Name: "ClinicId", Type: schema.FieldTypeUUID},
			"Approved":           {Name: "Approved", Type: schema.FieldTypeBoolean},
			"LicenseFrom":        {Name: "LicenseFrom", Type: schema.FieldTypeDateTime},
			"LicenseTo":          {Name: "LicenseTo", Type: schema.FieldTypeDateTime},
			"LastVisit":          {Name: "LastVisit", Type: schema.FieldTypeDateTime, Nullable: true},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "idx_doctors_clinic", Fields: []string{"ClinicId"}},
			{Fields: []string{"Name", "ClinicId"}, Unique: true},
		},
	}
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

// doctorDocs returns five active documents and one soft-deleted document.
func doctorDocs() []schema.Document {
	return []schema.Document{
		{"Id": 1, "Name": "Anna Nowak", "AutocompleteSearch": "anna nowak cardiology", "IsDeleted": false, "Rating": 4.5,
			"ClinicId": clinicA, "Approved": true, "LicenseFrom": fixedNow.AddDate(-1, 0, 0), "LicenseTo": fixedNow.AddDate(1, 0, 0),
			"LastVisit": at("2024-05-01T00:00:00Z")},
		{"Id": 2, "Name": "Jan Kowalski", "AutocompleteSearch": "jan kowalski dermatology", "IsDeleted": false,
			"ClinicId": clinicB, "Approved": false, "LicenseFrom": fixedNow.AddDate(-2, 0, 0), "LicenseTo": fixedNow.AddDate(0, -1, 0),
			"LastVisit": at("2024-05-01T23:59:59.999Z")},
		{"Id": 3, "Name": "Ewa Zielinska", "AutocompleteSearch": "ewa zielinska cardiology", "IsDeleted": false, "Rating": 3.0,
			"ClinicId": clinicA, "Approved": true, "LicenseFrom": fixedNow.AddDate(0, 1, 0), "LicenseTo": fixedNow.AddDate(2, 0, 0),
			"LastVisit": at("2024-05-02T00:00:00Z")},
		{"Id": 4, "Name": "Piotr Wisniewski", "AutocompleteSearch": "piotr wisniewski surgery", "IsDeleted": false,
			"ClinicId": clinicB, "Approved": false, "LicenseFrom": fixedNow.AddDate(0, -6, 0), "LicenseTo": fixedNow.AddDate(0, 6, 0)},
		{"Id": 5, "Name": "Maria Lewandowska", "AutocompleteSearch": "maria lewandowska pediatrics", "IsDeleted": false, "Rating": 5.0,
			"ClinicId": clinicA, "Approved": true, "LicenseFrom": fixedNow.AddDate(-3, 0, 0), "LicenseTo": fixedNow.AddDate(-1, 0, 0),
			"LastVisit": at("2024-04-30T23:59:59Z")},
		{"Id": 6, "Name": "Deleted Doctor", "AutocompleteSearch": "deleted doctor cardiology", "IsDeleted": true,
			"ClinicId": clinicA, "Approved": false, "LicenseFrom": fixedNow.AddDate(-1, 0, 0), "LicenseTo": fixedNow.AddDate(1, 0, 0)},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: opens a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// seededCollection creates and fills the doctors table.
func seededCollection(t *testing.T) (*sql.DB, *Collection) {
	t.Helper()
	db := openDB(t)
	ctx := context.Background()
	def := doctorSchema()
	require.NoError(t, CreateTable(ctx, db, DialectSQLite, def))
	n, err := Insert(ctx, db, DialectSQLite, def, doctorDocs()...)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	c, err := NewCollection(db, DialectSQLite, def, nil)
	require.NoError(t, err)
	return db, c
}

func docIDs(docs []schema.Document) []int64 {
	out := make([]int64, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["Id"].(int64))
	}
	return out
}
