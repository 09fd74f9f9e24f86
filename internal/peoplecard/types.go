package peoplecard

import "time"

// Gender zero value is GENDER_FEMALE, which is also what an unreadable
// sex selector resolves to.
type Gender int

const (
	GENDER_FEMALE Gender = iota
	GENDER_MALE
)

func (g Gender) String() string {
	switch g {
	case GENDER_MALE:
		return "Male"
	default:
		return "Female"
	}
}

type Citizenship int

const (
	CITIZENSHIP_UNDEFINED Citizenship = iota
	CITIZENSHIP_RUSSIAN_FEDERATION
	CITIZENSHIP_FOREIGN
	CITIZENSHIP_STATELESS
	CITIZENSHIP_RUSSIAN_FEDERATION_AND_FOREIGN
)

var citizenshipLabels = map[Citizenship]string{
	CITIZENSHIP_UNDEFINED:                      "Undefined",
	CITIZENSHIP_RUSSIAN_FEDERATION:             "CitizenOfRussianFederation",
	CITIZENSHIP_FOREIGN:                        "ForeignCitizen",
	CITIZENSHIP_STATELESS:                      "StatelessPerson",
	CITIZENSHIP_RUSSIAN_FEDERATION_AND_FOREIGN: "CitizenOfRussianFederationAndForeign",
}

// captions as rendered by the citizenship select on the person form.
var citizenshipCaptions = map[Citizenship]string{
	CITIZENSHIP_UNDEFINED:                      "Укажите тип гражданства",
	CITIZENSHIP_RUSSIAN_FEDERATION:             "Гражданин Российской Федерации",
	CITIZENSHIP_FOREIGN:                        "Иностранный гражданин",
	CITIZENSHIP_STATELESS:                      "Лицо без гражданства",
	CITIZENSHIP_RUSSIAN_FEDERATION_AND_FOREIGN: "Гражданин Российской Федерации и иностранного государства",
}

func (c Citizenship) String() string {
	label, ok := citizenshipLabels[c]
	if !ok {
		return citizenshipLabels[CITIZENSHIP_UNDEFINED]
	}
	return label
}

// Caption returns the text the web form shows for this value.
func (c Citizenship) Caption() string {
	caption, ok := citizenshipCaptions[c]
	if !ok {
		return citizenshipCaptions[CITIZENSHIP_UNDEFINED]
	}
	return caption
}

type PersonalData struct {
	LastName    string
	FirstName   string
	MiddleName  string
	Gender      Gender
	BirthDate   time.Time
	BirthPlace  string
	Citizenship Citizenship
	Notes       string
}

type BirthCertificate struct {
	Series      string
	Number      string
	IssuedBy    string
	IssuedDate  time.Time
	IssuedPlace string
	ActNumber   string
}

type Passport struct {
	Series      string
	Number      string
	IssuedBy    string
	IssuedDate  time.Time
	IssuedPlace string
}

type Document struct {
	Snils            string
	Visa             string
	BirthCertificate BirthCertificate
	Passport         Passport
}

type ContactData struct {
	PermanentAddress        string
	TemporaryAddress        string
	TemporaryAddressEndDate time.Time
	FactAddress             string
	Email                   string
	WorkPhone               string
	MobilePhone             string
	HomePhone               string
}

type WorkerData struct {
	WorkStartDate    time.Time
	WorkEndDate      time.Time
	TeacherStartDate time.Time
}

// Card is one person as read from their detail view. Every sub-record is
// always present; a sub-record that could not be read is left at its zero
// value, whose dates equal MinDate.
type Card struct {
	Id           int64
	PersonalData PersonalData
	Document     Document
	ContactData  ContactData
	WorkerData   WorkerData
}
