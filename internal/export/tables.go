package export

import (
	"strconv"
	"time"

	"peoplecards/internal/peoplecard"
)

// table categories, they prefix the output file names.
const (
	CATEGORY_PERSONAL_DATA = "personal_data"
	CATEGORY_DOCUMENT_DATA = "document_data"
	CATEGORY_CONTACT_DATA  = "contact_data"
	CATEGORY_WORKER_DATA   = "worker_data"
)

// Categories lists the categories in the order they are written.
var Categories = []string{
	CATEGORY_PERSONAL_DATA,
	CATEGORY_DOCUMENT_DATA,
	CATEGORY_CONTACT_DATA,
	CATEGORY_WORKER_DATA,
}

// RawTable is one flat table, every row has one value per column.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

var personalDataColumns = []string{
	"ID",
	"Last_Name",
	"First_Name",
	"Middle_Name",
	"Gender",
	"Birth_Date",
	"Birth_Place",
	"Citizenship",
	"Notes",
}

var documentDataColumns = []string{
	"ID",
	"SNILS",
	"VISA",
	"B_Series",
	"B_Number",
	"B_IssuedBy",
	"B_IssuedDate",
	"B_IssuedPlace",
	"B_ActNumber",
	"P_Series",
	"P_Number",
	"P_IssuedBy",
	"P_IssuedDate",
	"P_IssuedPlace",
}

var contactDataColumns = []string{
	"ID",
	"Permanent_Address",
	"Temporary_Address",
	"Temporary_Address_End_Date",
	"Fact_Address",
	"Email",
	"Work_Phone",
	"Mobile_Phone",
	"Home_Phone",
}

var workerDataColumns = []string{
	"ID",
	"Work_Start_Date",
	"Work_End_Date",
	"Teacher_Start_Date",
}

func id(card peoplecard.Card) string {
	return strconv.FormatInt(card.Id, 10)
}

func date(t time.Time) string {
	return peoplecard.FormatDate(t)
}

func PersonalDataTable(cards []peoplecard.Card) RawTable {
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		p := c.PersonalData
		rows = append(rows, []string{
			id(c),
			p.LastName,
			p.FirstName,
			p.MiddleName,
			p.Gender.String(),
			date(p.BirthDate),
			p.BirthPlace,
			p.Citizenship.String(),
			p.Notes,
		})
	}
	return RawTable{Columns: personalDataColumns, Rows: rows}
}

func DocumentDataTable(cards []peoplecard.Card) RawTable {
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		d := c.Document
		b := d.BirthCertificate
		p := d.Passport
		rows = append(rows, []string{
			id(c),
			d.Snils,
			d.Visa,
			b.Series,
			b.Number,
			b.IssuedBy,
			date(b.IssuedDate),
			b.IssuedPlace,
			b.ActNumber,
			p.Series,
			p.Number,
			p.IssuedBy,
			date(p.IssuedDate),
			p.IssuedPlace,
		})
	}
	return RawTable{Columns: documentDataColumns, Rows: rows}
}

func ContactDataTable(cards []peoplecard.Card) RawTable {
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		d := c.ContactData
		rows = append(rows, []string{
			id(c),
			d.PermanentAddress,
			d.TemporaryAddress,
			date(d.TemporaryAddressEndDate),
			d.FactAddress,
			d.Email,
			d.WorkPhone,
			d.MobilePhone,
			d.HomePhone,
		})
	}
	return RawTable{Columns: contactDataColumns, Rows: rows}
}

func WorkerDataTable(cards []peoplecard.Card) RawTable {
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		w := c.WorkerData
		rows = append(rows, []string{
			id(c),
			date(w.WorkStartDate),
			date(w.WorkEndDate),
			date(w.TeacherStartDate),
		})
	}
	return RawTable{Columns: workerDataColumns, Rows: rows}
}

// Table projects cards onto the table of a category.
func Table(category string, cards []peoplecard.Card) (RawTable, bool) {
	switch category {
	case CATEGORY_PERSONAL_DATA:
		return PersonalDataTable(cards), true
	case CATEGORY_DOCUMENT_DATA:
		return DocumentDataTable(cards), true
	case CATEGORY_CONTACT_DATA:
		return ContactDataTable(cards), true
	case CATEGORY_WORKER_DATA:
		return WorkerDataTable(cards), true
	}
	return RawTable{}, false
}
