package employee

// SubEntity names one of the seven record groups an employee decomposes into.
type SubEntity string

const (
	Core       SubEntity = "core"
	Employment SubEntity = "employment"
	Bank       SubEntity = "bank"
	Insurance  SubEntity = "insurance"
	Contact    SubEntity = "contact"
	Onboarding SubEntity = "onboarding"
	Travel     SubEntity = "travel"
)

// WriteOrder is the fixed order sub-entities are written inside one transaction.
var WriteOrder = []SubEntity{Core, Insurance, Contact, Onboarding, Employment, Bank, Travel}

var tables = map[SubEntity]string{
	Core:       "hrm_employees",
	Employment: "hrm_employee_employment",
	Bank:       "hrm_employee_bank",
	Insurance:  "hrm_employee_insurance",
	Contact:    "hrm_employee_contact",
	Onboarding: "hrm_employee_onboarding",
	Travel:     "hrm_employee_travel",
}

func (s SubEntity) Table() string {
	return tables[s]
}

// FieldKind tells the normalizers how a raw cell is coerced.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindDate    FieldKind = "date"
	KindFlag    FieldKind = "flag"
	KindGender  FieldKind = "gender"
	KindCode    FieldKind = "code"
	KindDecimal FieldKind = "decimal"
)

type Field struct {
	Name   string
	Entity SubEntity
	Kind   FieldKind
}

const FieldEmployeeID = "employee_id"

var schema = []Field{
	{FieldEmployeeID, Core, KindText},
	{"full_name", Core, KindText},
	{"gender", Core, KindGender},
	{"date_of_birth", Core, KindDate},
	{"place_of_birth", Core, KindText},
	{"nationality", Core, KindText},
	{"religion", Core, KindText},
	{"marital_status", Core, KindCode},
	{"blood_type", Core, KindText},
	{"national_id_number", Core, KindText},
	{"tax_number", Core, KindText},
	{"passport_number", Core, KindText},
	{"employment_status", Core, KindText},

	{"department", Employment, KindText},
	{"division", Employment, KindText},
	{"position_title", Employment, KindText},
	{"job_level", Employment, KindText},
	{"employee_type", Employment, KindText},
	{"join_date", Employment, KindDate},
	{"contract_end_date", Employment, KindDate},
	{"termination_date", Employment, KindDate},
	{"basic_salary", Employment, KindDecimal},
	{"is_rehire", Employment, KindFlag},

	{"bank_name", Bank, KindText},
	{"bank_branch", Bank, KindText},
	{"bank_account_number", Bank, KindText},
	{"bank_account_holder", Bank, KindText},

	{"health_insurance_number", Insurance, KindText},
	{"social_security_number", Insurance, KindText},
	{"insurance_provider", Insurance, KindText},
	{"insurance_policy_number", Insurance, KindText},
	{"insurance_start_date", Insurance, KindDate},

	{"email", Contact, KindText},
	{"phone_number", Contact, KindText},
	{"address", Contact, KindText},
	{"city", Contact, KindText},
	{"postal_code", Contact, KindText},
	{"emergency_contact_name", Contact, KindText},
	{"emergency_contact_phone", Contact, KindText},

	{"onboarding_date", Onboarding, KindDate},
	{"probation_end_date", Onboarding, KindDate},
	{"previous_employer", Onboarding, KindText},
	{"contract_signed", Onboarding, KindFlag},
	{"orientation_completed", Onboarding, KindFlag},

	{"passport_expiry_date", Travel, KindDate},
	{"work_permit_number", Travel, KindText},
	{"work_permit_expiry_date", Travel, KindDate},
	{"visa_type", Travel, KindText},
	{"travel_eligible", Travel, KindFlag},
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(schema))
	for _, f := range schema {
		m[f.Name] = f
	}
	return m
}()

// Fields returns the canonical schema in declaration order.
func Fields() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)
	return out
}

func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// FieldsOf lists the columns written for one sub-entity, employee_id excluded.
func FieldsOf(entity SubEntity) []Field {
	var out []Field
	for _, f := range schema {
		if f.Entity == entity && f.Name != FieldEmployeeID {
			out = append(out, f)
		}
	}
	return out
}
